package cryptoutils

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

var secp256k1N = new(big.Int).Set(crypto.S256().Params().N)

// IncrementBigEndian adds one to b treated as a big-endian integer, wrapping
// to zero when every byte overflows.
func IncrementBigEndian(b []byte) {
	for i := len(b) - 1; i >= 0; i-- {
		b[i]++
		if b[i] != 0 {
			return
		}
	}
}

// IsValidScalar reports whether 0 < b < n for the secp256k1 group order n.
func IsValidScalar(b []byte) bool {
	k := new(big.Int).SetBytes(b)
	return k.Sign() > 0 && k.Cmp(secp256k1N) < 0
}

// NormalizeScalar maps an arbitrary 32-byte value onto a valid secp256k1
// scalar by incrementing it until it falls in [1, n). Values already in
// range are returned unchanged.
func NormalizeScalar(candidate [32]byte) [32]byte {
	for !IsValidScalar(candidate[:]) {
		if new(big.Int).SetBytes(candidate[:]).Cmp(secp256k1N) >= 0 {
			// Everything between candidate and 2^256-1 is >= n too, so
			// stepping through it ends on the all-ones buffer anyway.
			for i := range candidate {
				candidate[i] = 0xff
			}
		}
		IncrementBigEndian(candidate[:])
	}
	return candidate
}

// DeriveSealedKeyPair turns a 32-byte shared secret into a secp256k1 key pair.
// Equal secrets always produce equal key pairs.
func DeriveSealedKeyPair(secret []byte) (*ecdsa.PrivateKey, interfaces.SealedPubkey, error) {
	if len(secret) != interfaces.SharedSecretLength {
		return nil, nil, fmt.Errorf("%w: got %d bytes", interfaces.ErrInvalidSecretLength, len(secret))
	}

	var candidate [32]byte
	copy(candidate[:], secret)
	scalar := NormalizeScalar(candidate)
	defer clear(scalar[:])
	clear(candidate[:])

	priv, err := crypto.ToECDSA(scalar[:])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build secp256k1 key: %w", err)
	}

	return priv, interfaces.SealedPubkey(crypto.FromECDSAPub(&priv.PublicKey)), nil
}
