// Package interfaces defines the types and interfaces shared between the
// sealing components, separating contracts from their implementations.
//
// # Oracle
//
// KeyAgreementOracle is the single capability consumed from the remote KMS:
// an ECDH key agreement between a KMS-held private key (named by a KeyID) and
// a caller-supplied public key in DER-encoded SubjectPublicKeyInfo form.
//
// # Sealer
//
// Sealer commits exactly one secp256k1 key pair per process lifetime and
// exposes only its public half.
//
// # Errors
//
// The sentinel errors in this package form the error taxonomy that crosses
// component boundaries. Callers classify failures with errors.Is.
package interfaces
