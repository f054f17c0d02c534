package api

import (
	"encoding/base64"
	"fmt"

	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

// GenerateSecretRequest is the body of POST /generate-secret.
type GenerateSecretRequest struct {
	KeyID string `json:"key_id"`
}

// PublicKeyResponse carries the sealed public key as the 65-byte
// uncompressed secp256k1 encoding, base64 encoded.
type PublicKeyResponse struct {
	PublicKeyBase64 string `json:"public-key-base64"`
	Address         string `json:"address"`
}

func NewPublicKeyResponse(pubkey interfaces.SealedPubkey) (*PublicKeyResponse, error) {
	address, err := pubkey.Address()
	if err != nil {
		return nil, err
	}
	return &PublicKeyResponse{
		PublicKeyBase64: pubkey.Base64(),
		Address:         address.Hex(),
	}, nil
}

// SealedPubkey decodes PublicKeyBase64 and checks it against Address.
func (r *PublicKeyResponse) SealedPubkey() (interfaces.SealedPubkey, error) {
	raw, err := base64.StdEncoding.DecodeString(r.PublicKeyBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid public key encoding: %w", err)
	}
	pubkey := interfaces.SealedPubkey(raw)

	address, err := pubkey.Address()
	if err != nil {
		return nil, err
	}
	if r.Address != "" && address.Hex() != r.Address {
		return nil, fmt.Errorf("address %s does not match public key address %s", r.Address, address.Hex())
	}
	return pubkey, nil
}

// NumsKeyResponse publishes everything needed to recompute the NUMS key.
type NumsKeyResponse struct {
	Seed               string `json:"seed"`
	Counter            uint32 `json:"counter"`
	PublicKeyDERBase64 string `json:"public-key-der-base64"`
}

func NewNumsKeyResponse(nums *cryptoutils.NumsKey) *NumsKeyResponse {
	return &NumsKeyResponse{
		Seed:               nums.Seed,
		Counter:            nums.Counter,
		PublicKeyDERBase64: nums.DERBase64(),
	}
}

func (r *NumsKeyResponse) NumsKey() (*cryptoutils.NumsKey, error) {
	der, err := base64.StdEncoding.DecodeString(r.PublicKeyDERBase64)
	if err != nil {
		return nil, fmt.Errorf("invalid NUMS key encoding: %w", err)
	}
	return cryptoutils.ParseNumsKey(r.Seed, r.Counter, der)
}

// AttestedPublicKeyResponse binds the sealed public key and the NUMS key
// through the attestation report data.
type AttestedPublicKeyResponse struct {
	PublicKeyResponse
	NumsKey         NumsKeyResponse `json:"nums-key"`
	AttestationType string          `json:"attestation-type"`
	Attestation     []byte          `json:"attestation"`
}
