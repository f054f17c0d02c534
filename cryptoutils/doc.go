// Package cryptoutils implements the cryptographic building blocks of the
// sealing service.
//
// # NUMS key
//
// GenerateNumsKey derives a P-256 public key with no known private key:
//
//	for counter := uint32(0); ; counter++ {
//	    x := SHA-256(seed || big-endian(counter))
//	    try decompress(0x02 || x), then decompress(0x03 || x)
//	}
//
// With NumsSeed the search stops at counter 0. Anyone can rerun it to check
// that the key handed to the KMS was not chosen by the operator.
//
// # Scalar normalization
//
// NormalizeScalar maps the 32-byte ECDH output onto a secp256k1 scalar by
// big-endian increment with carry until 0 < k < n. Because n differs from
// 2^256 by only about 2^128, almost every secret is used unchanged.
// DeriveSealedKeyPair builds the key pair and its uncompressed public key
// encoding on top of it.
//
// # Attestation
//
// AttestationProvider implementations produce quotes over
// SealedKeyReportData so that clients can check the sealed key was produced
// inside a TEE. VerifyDCAPAttestation checks TDX quotes on the client side.
package cryptoutils
