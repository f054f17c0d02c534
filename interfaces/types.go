package interfaces

import (
	"encoding/base64"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SharedSecretLength is the only secret length accepted from the oracle.
const SharedSecretLength = 32

// KeyID names the remote KMS key used for key agreement. It is opaque to this
// service; the oracle is responsible for validating it.
type KeyID string

// NewKeyID trims the identifier and rejects empty values.
func NewKeyID(id string) (KeyID, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return "", ErrEmptyKeyID
	}
	return KeyID(trimmed), nil
}

// String returns the identifier as passed to the oracle.
func (id KeyID) String() string {
	return string(id)
}

// SharedSecret is the raw output of the key agreement. It must never be
// logged or persisted.
type SharedSecret []byte

// String redacts the secret so it can't leak through formatted logging.
func (s SharedSecret) String() string {
	return "[REDACTED]"
}

// LogValue redacts the secret for slog.
func (s SharedSecret) LogValue() slog.Value {
	return slog.StringValue(s.String())
}

// Wipe zeroes the secret in place.
func (s SharedSecret) Wipe() {
	clear(s)
}

// SealedPubkey is the uncompressed SEC1 encoding (0x04 || X || Y) of the
// sealed secp256k1 public key.
type SealedPubkey []byte

// Base64 returns the standard base64 encoding used on the wire.
func (pk SealedPubkey) Base64() string {
	return base64.StdEncoding.EncodeToString(pk)
}

// Address returns the Ethereum address controlled by the sealed key.
func (pk SealedPubkey) Address() (common.Address, error) {
	pub, err := crypto.UnmarshalPubkey(pk)
	if err != nil {
		return common.Address{}, err
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Clone returns a copy that can be handed out without exposing internal state.
func (pk SealedPubkey) Clone() SealedPubkey {
	if pk == nil {
		return nil
	}
	out := make(SealedPubkey, len(pk))
	copy(out, pk)
	return out
}
