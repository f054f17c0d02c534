package interfaces

import "context"

// KeyAgreementOracle derives a shared secret between the remote private key
// identified by keyID and peerPublicKeyDER (SubjectPublicKeyInfo, DER).
//
// Implementations return the secret exactly as produced by the remote
// service; length validation is left to the caller. A nil secret with a nil
// error means the service answered without a secret payload.
type KeyAgreementOracle interface {
	DeriveSharedSecret(ctx context.Context, keyID KeyID, peerPublicKeyDER []byte) ([]byte, error)
}

// Sealer performs the one-time sealing and serves the sealed public key.
type Sealer interface {
	// Seal derives and commits the key pair. Fails with ErrAlreadySealed once
	// any call has committed.
	Seal(ctx context.Context, keyID KeyID) (SealedPubkey, error)

	// PublicKey returns the committed public key or ErrNotSealed.
	PublicKey() (SealedPubkey, error)
}
