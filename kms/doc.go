// Package kms obtains the sealing secret from a key agreement oracle.
//
// The oracle holds a P-256 private key and computes ECDH against a peer
// public key we supply. The sealing service always supplies the NUMS key
// from cryptoutils, so the resulting secret depends only on the oracle's
// private key and can be recomputed by nobody else:
//
//	// KeyAgreementOracle derives a shared secret between the remote private
//	// key identified by keyID and peerPublicKeyDER.
//	type KeyAgreementOracle interface {
//	    DeriveSharedSecret(ctx context.Context, keyID KeyID, peerPublicKeyDER []byte) ([]byte, error)
//	}
//
// # AWSOracle
//
// Calls AWS KMS DeriveSharedSecret with the ECDH key agreement algorithm.
// Region and endpoint come from configuration or the usual AWS environment.
//
// # SecretAcquirer
//
// Wraps an oracle, classifies its failures into the interfaces error values
// and checks that the secret is exactly 32 bytes.
//
// # MockOracle
//
// A testify mock used by handler and sealing tests.
package kms
