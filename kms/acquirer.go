package kms

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/ruteri/tee-sealing-service/metrics"
)

// SecretAcquirer asks the oracle for the ECDH secret between its key and the
// NUMS key.
type SecretAcquirer struct {
	oracle  interfaces.KeyAgreementOracle
	numsDER []byte
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewSecretAcquirer(oracle interfaces.KeyAgreementOracle, nums *cryptoutils.NumsKey, m *metrics.Metrics, log *slog.Logger) *SecretAcquirer {
	return &SecretAcquirer{
		oracle:  oracle,
		numsDER: nums.DER(),
		metrics: m,
		log:     log,
	}
}

// AcquireSecret returns a secret of exactly interfaces.SharedSecretLength
// bytes. Errors wrap ErrOracle, ErrMissingSecret or ErrInvalidSecretLength.
func (a *SecretAcquirer) AcquireSecret(ctx context.Context, keyID interfaces.KeyID) (interfaces.SharedSecret, error) {
	start := time.Now()
	secret, err := a.oracle.DeriveSharedSecret(ctx, keyID, a.numsDER)
	a.metrics.ObserveOracleRequest(time.Since(start), err)
	if err != nil {
		a.log.Error("Key agreement request failed", "keyId", keyID.String(), "err", err)
		return nil, fmt.Errorf("%w: %w", interfaces.ErrOracle, err)
	}

	// aws-sdk-go leaves an absent and an empty blob indistinguishable, so both are missing.
	if len(secret) == 0 {
		a.log.Error("Key agreement response carried no secret", "keyId", keyID.String())
		return nil, interfaces.ErrMissingSecret
	}

	if len(secret) != interfaces.SharedSecretLength {
		clear(secret)
		a.log.Error("Invalid secret length",
			"keyId", keyID.String(),
			"length", len(secret),
			"expected", interfaces.SharedSecretLength)
		return nil, fmt.Errorf("%w: got %d bytes", interfaces.ErrInvalidSecretLength, len(secret))
	}

	return interfaces.SharedSecret(secret), nil
}
