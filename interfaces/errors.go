package interfaces

import "errors"

var (
	// ErrAlreadySealed is returned by every Seal after the first successful one.
	ErrAlreadySealed = errors.New("secret has already been generated")

	// ErrNotSealed is returned when the public key is requested before sealing.
	ErrNotSealed = errors.New("secret not found, generate it first")

	// ErrOracle wraps failures reaching or executing the key agreement oracle.
	ErrOracle = errors.New("key agreement oracle failed")

	// ErrMissingSecret is returned when the oracle answers without a secret.
	ErrMissingSecret = errors.New("oracle returned no secret")

	// ErrInvalidSecretLength is returned when the oracle secret is not 32 bytes.
	ErrInvalidSecretLength = errors.New("invalid secret length from oracle")

	// ErrEmptyKeyID is returned for a blank key identifier.
	ErrEmptyKeyID = errors.New("key identifier is empty")
)
