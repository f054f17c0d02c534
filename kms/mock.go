package kms

import (
	"context"

	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockOracle mocks the KeyAgreementOracle interface
type MockOracle struct {
	mock.Mock
}

// DeriveSharedSecret mocks the DeriveSharedSecret method
func (m *MockOracle) DeriveSharedSecret(ctx context.Context, keyID interfaces.KeyID, peerPublicKeyDER []byte) ([]byte, error) {
	args := m.Called(ctx, keyID, peerPublicKeyDER)
	secret, _ := args.Get(0).([]byte)
	return secret, args.Error(1)
}
