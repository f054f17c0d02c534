package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// NumsSeed is the public seed the P-256 NUMS key is derived from.
const NumsSeed = "This is a P-256 NUMS key for KMS"

// ErrCounterOverflow is returned when no point was found for any 32-bit counter.
var ErrCounterOverflow = errors.New("P-256 NUMS key generation counter overflowed")

// SEC1 compressed point tags, tried in this order.
var compressedPointTags = [2]byte{0x02, 0x03}

// NumsKey is a P-256 public key nobody holds the private key for. The x
// coordinate is a SHA-256 output, so finding the discrete log would mean
// breaking P-256 for an arbitrary point.
type NumsKey struct {
	Seed      string
	Counter   uint32
	PublicKey *ecdsa.PublicKey

	der []byte
}

// GenerateNumsKey searches SHA-256(seed || be32(counter)) for counter = 0, 1, ...
// until the digest decompresses to a P-256 point with the even-y tag or,
// failing that, the odd-y tag.
func GenerateNumsKey(seed string) (*NumsKey, error) {
	return searchNumsKey(seed, 0, decompressP256)
}

func searchNumsKey(seed string, counter uint32, decompress func([]byte) *ecdsa.PublicKey) (*NumsKey, error) {
	encoded := make([]byte, 1+sha256.Size)
	for {
		digest := numsCandidate(seed, counter)
		copy(encoded[1:], digest[:])

		for _, tag := range compressedPointTags {
			encoded[0] = tag
			if pub := decompress(encoded); pub != nil {
				der, err := x509.MarshalPKIXPublicKey(pub)
				if err != nil {
					return nil, fmt.Errorf("failed to marshal NUMS public key: %w", err)
				}
				return &NumsKey{Seed: seed, Counter: counter, PublicKey: pub, der: der}, nil
			}
		}

		if counter == math.MaxUint32 {
			return nil, ErrCounterOverflow
		}
		counter++
	}
}

func numsCandidate(seed string, counter uint32) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(seed))
	var ctr [4]byte
	binary.BigEndian.PutUint32(ctr[:], counter)
	h.Write(ctr[:])

	var digest [sha256.Size]byte
	copy(digest[:], h.Sum(nil))
	return digest
}

// decompressP256 returns nil when x is not a field element or x^3 - 3x + b has
// no square root.
func decompressP256(encoded []byte) *ecdsa.PublicKey {
	curve := elliptic.P256()
	x, y := elliptic.UnmarshalCompressed(curve, encoded)
	if x == nil {
		return nil
	}
	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
}

// DER returns the SubjectPublicKeyInfo encoding sent to the oracle.
func (k *NumsKey) DER() []byte {
	out := make([]byte, len(k.der))
	copy(out, k.der)
	return out
}

// DERBase64 returns the standard base64 encoding of DER().
func (k *NumsKey) DERBase64() string {
	return base64.StdEncoding.EncodeToString(k.der)
}

// Verify recomputes the key from its seed and checks that it matches.
func (k *NumsKey) Verify() error {
	expected, err := GenerateNumsKey(k.Seed)
	if err != nil {
		return err
	}
	if expected.Counter != k.Counter || !expected.PublicKey.Equal(k.PublicKey) {
		return fmt.Errorf("NUMS key does not match seed %q (expected counter %d, got %d)", k.Seed, expected.Counter, k.Counter)
	}
	return nil
}

// ParseNumsKey rebuilds a NumsKey from its published parts, as served by the
// sealing API.
func ParseNumsKey(seed string, counter uint32, der []byte) (*NumsKey, error) {
	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("invalid NUMS public key: %w", err)
	}
	pub, ok := parsed.(*ecdsa.PublicKey)
	if !ok || pub.Curve != elliptic.P256() {
		return nil, errors.New("NUMS public key is not a P-256 key")
	}
	return &NumsKey{Seed: seed, Counter: counter, PublicKey: pub, der: der}, nil
}
