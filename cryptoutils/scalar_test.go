package cryptoutils

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	orderHex         = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141"
	orderMinusOneHex = "fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364140"

	testSecretHex    = "0102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f20"
	testPubkeyHex    = "0484bf7562262bbd6940085748f3be6afa52ae317155181ece31b66351ccffa4b08cc43d63b2859d469fee15f31c9edb5324266e6fd0407e87382d60fc4511acd8"
	testPubkeyBase64 = "BIS/dWImK71pQAhXSPO+avpSrjFxVRgezjG2Y1HM/6SwjMQ9Y7KFnUaf7hXzHJ7bUyQmbm/QQH6HOC1g/EURrNg="
	testAddress      = "0x6370eF2f4Db3611D657b90667De398a2Cc2a370C"

	generatorBase64 = "BHm+Zn753LusVaBilc6HCwcCm/zbLc4o2VnygVsW+BeYSDradyajxGVdpPv8DhEIqP0XtEimhVQZnEfQj/sQ1Lg="
)

func scalarFromHex(t *testing.T, s string) [32]byte {
	t.Helper()
	raw, err := hex.DecodeString(s)
	require.NoError(t, err)
	require.Len(t, raw, 32)
	var out [32]byte
	copy(out[:], raw)
	return out
}

func TestIncrementBigEndian(t *testing.T) {
	testCases := []struct {
		name string
		in   []byte
		want []byte
	}{
		{"simple", []byte{0x00, 0x01}, []byte{0x00, 0x02}},
		{"carry", []byte{0x00, 0xff}, []byte{0x01, 0x00}},
		{"double carry", []byte{0x01, 0xff, 0xff}, []byte{0x02, 0x00, 0x00}},
		{"wrap", []byte{0xff, 0xff}, []byte{0x00, 0x00}},
		{"empty", []byte{}, []byte{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			IncrementBigEndian(tc.in)
			assert.Equal(t, tc.want, tc.in)
		})
	}
}

func TestIsValidScalar(t *testing.T) {
	one := [32]byte{31: 1}
	assert.True(t, IsValidScalar(one[:]))

	var zero [32]byte
	assert.False(t, IsValidScalar(zero[:]))

	n := scalarFromHex(t, orderHex)
	assert.False(t, IsValidScalar(n[:]))

	nMinusOne := scalarFromHex(t, orderMinusOneHex)
	assert.True(t, IsValidScalar(nMinusOne[:]))
}

func TestNormalizeScalar(t *testing.T) {
	one := [32]byte{31: 1}
	var allOnes [32]byte
	for i := range allOnes {
		allOnes[i] = 0xff
	}
	aboveOrder := scalarFromHex(t, orderHex)
	aboveOrder[31] = 0x42

	testCases := []struct {
		name string
		in   [32]byte
		want [32]byte
	}{
		{"zero", [32]byte{}, one},
		{"all ones", allOnes, one},
		{"order", scalarFromHex(t, orderHex), one},
		{"between order and 2^256", aboveOrder, one},
		{"order minus one", scalarFromHex(t, orderMinusOneHex), scalarFromHex(t, orderMinusOneHex)},
		{"one", one, one},
		{"test secret", scalarFromHex(t, testSecretHex), scalarFromHex(t, testSecretHex)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeScalar(tc.in))
		})
	}
}

func TestNormalizeScalar_RandomValuesUnchanged(t *testing.T) {
	for i := 0; i < 64; i++ {
		var candidate [32]byte
		_, err := rand.Read(candidate[:])
		require.NoError(t, err)
		if !IsValidScalar(candidate[:]) {
			continue
		}
		assert.Equal(t, candidate, NormalizeScalar(candidate))
	}
}

func TestDeriveSealedKeyPair(t *testing.T) {
	secret, err := hex.DecodeString(testSecretHex)
	require.NoError(t, err)

	priv, pubkey, err := DeriveSealedKeyPair(secret)
	require.NoError(t, err)

	assert.Equal(t, testPubkeyHex, hex.EncodeToString(pubkey))
	assert.Equal(t, testPubkeyBase64, pubkey.Base64())
	assert.Len(t, pubkey, 65)
	assert.Equal(t, byte(0x04), pubkey[0])

	address, err := pubkey.Address()
	require.NoError(t, err)
	assert.Equal(t, testAddress, address.Hex())
	assert.Equal(t, address, crypto.PubkeyToAddress(priv.PublicKey))

	// The input buffer is left untouched.
	assert.Equal(t, testSecretHex, hex.EncodeToString(secret))
}

func TestDeriveSealedKeyPair_Deterministic(t *testing.T) {
	secret := make([]byte, 32)
	_, err := rand.Read(secret)
	require.NoError(t, err)

	_, first, err := DeriveSealedKeyPair(secret)
	require.NoError(t, err)
	_, second, err := DeriveSealedKeyPair(secret)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeriveSealedKeyPair_OutOfRangeSecrets(t *testing.T) {
	n := scalarFromHex(t, orderHex)
	for _, secret := range [][]byte{make([]byte, 32), n[:]} {
		_, pubkey, err := DeriveSealedKeyPair(secret)
		require.NoError(t, err)
		assert.Equal(t, generatorBase64, pubkey.Base64())
	}
}

func TestDeriveSealedKeyPair_InvalidLength(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33, 64} {
		_, _, err := DeriveSealedKeyPair(make([]byte, size))
		assert.ErrorIs(t, err, interfaces.ErrInvalidSecretLength)
	}
}
