package sealing

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"log/slog"

	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/ruteri/tee-sealing-service/metrics"
	"go.uber.org/atomic"
)

// SecretSource returns the 32-byte shared secret for a key identifier.
// kms.SecretAcquirer is the production implementation.
type SecretSource interface {
	AcquireSecret(ctx context.Context, keyID interfaces.KeyID) (interfaces.SharedSecret, error)
}

// sealedKeyPair keeps the private half in process memory only.
type sealedKeyPair struct {
	privateKey *ecdsa.PrivateKey
	publicKey  interfaces.SealedPubkey
}

// Sealer implements interfaces.Sealer.
type Sealer struct {
	source  SecretSource
	metrics *metrics.Metrics
	log     *slog.Logger

	sealed atomic.Pointer[sealedKeyPair]
}

var _ interfaces.Sealer = (*Sealer)(nil)

func NewSealer(source SecretSource, m *metrics.Metrics, log *slog.Logger) *Sealer {
	return &Sealer{
		source:  source,
		metrics: m,
		log:     log,
	}
}

// Seal derives the key pair for keyID and commits it if nothing was
// committed before. A context cancelled before the commit leaves the
// Sealer unsealed.
func (s *Sealer) Seal(ctx context.Context, keyID interfaces.KeyID) (interfaces.SealedPubkey, error) {
	if keyID == "" {
		return nil, interfaces.ErrEmptyKeyID
	}

	if s.sealed.Load() != nil {
		s.metrics.RecordSeal(metrics.OutcomeAlreadySealed)
		return nil, interfaces.ErrAlreadySealed
	}

	secret, err := s.source.AcquireSecret(ctx, keyID)
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	privateKey, publicKey, err := cryptoutils.DeriveSealedKeyPair(secret)
	secret.Wipe()
	if err != nil {
		s.recordFailure(err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		s.metrics.RecordSeal(metrics.OutcomeCancelled)
		s.log.Warn("Seal cancelled before commit", "keyId", keyID.String(), "err", err)
		return nil, err
	}

	candidate := &sealedKeyPair{
		privateKey: privateKey,
		publicKey:  publicKey,
	}
	if !s.sealed.CompareAndSwap(nil, candidate) {
		s.metrics.RecordSeal(metrics.OutcomeLostRace)
		s.log.Debug("Seal lost commit race", "keyId", keyID.String())
		return nil, interfaces.ErrAlreadySealed
	}

	s.metrics.RecordSeal(metrics.OutcomeSealed)
	if address, err := publicKey.Address(); err == nil {
		s.log.Info("Key pair sealed", "keyId", keyID.String(), "address", address.Hex())
	}

	return publicKey.Clone(), nil
}

// PublicKey returns a copy of the committed public key.
func (s *Sealer) PublicKey() (interfaces.SealedPubkey, error) {
	kp := s.sealed.Load()
	if kp == nil {
		return nil, interfaces.ErrNotSealed
	}
	return kp.publicKey.Clone(), nil
}

func (s *Sealer) recordFailure(err error) {
	switch {
	case errors.Is(err, interfaces.ErrMissingSecret), errors.Is(err, interfaces.ErrInvalidSecretLength):
		s.metrics.RecordSeal(metrics.OutcomeInvalidSecret)
	default:
		s.metrics.RecordSeal(metrics.OutcomeOracleError)
	}
}
