package cryptoutils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealedKeyReportData(t *testing.T) {
	pubkey := interfaces.SealedPubkey{0x04, 0x01, 0x02}
	numsDER := []byte("nums der")

	reportData := SealedKeyReportData(pubkey, numsDER)

	pubkeyHash := sha256.Sum256(pubkey)
	numsHash := sha256.Sum256(numsDER)
	assert.Equal(t, pubkeyHash[:], reportData[:32])
	assert.Equal(t, numsHash[:], reportData[32:])
}

func TestDummyAttestationProvider(t *testing.T) {
	var reportData [64]byte
	reportData[0] = 0xab

	provider := DummyAttestationProvider{}
	assert.Equal(t, DummyAttestation, provider.AttestationType())

	quote, err := provider.Attest(context.Background(), reportData)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(quote), "Attestation for sealed key ab00"))
}

func TestRemoteAttestationProvider(t *testing.T) {
	var reportData [64]byte
	copy(reportData[:], []byte("report data"))
	expectedPath := "/attest/" + hex.EncodeToString(reportData[:])

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != expectedPath {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("raw quote"))
	}))
	defer server.Close()

	provider := &RemoteAttestationProvider{Address: server.URL}
	assert.Equal(t, DCAPAttestation, provider.AttestationType())

	quote, err := provider.Attest(context.Background(), reportData)
	require.NoError(t, err)
	assert.Equal(t, []byte("raw quote"), quote)

	otherReportData := reportData
	otherReportData[0] ^= 0xff
	_, err = provider.Attest(context.Background(), otherReportData)
	assert.ErrorContains(t, err, "status 404")
}

func TestAttestationTypeFromString(t *testing.T) {
	at, err := AttestationTypeFromString("dummy")
	require.NoError(t, err)
	assert.Equal(t, DummyAttestation, at)

	at, err = AttestationTypeFromString("qemu-tdx")
	require.NoError(t, err)
	assert.Equal(t, DCAPAttestation, at)

	_, err = AttestationTypeFromString("sev-snp")
	assert.True(t, errors.Is(err, errors.ErrUnsupported))
}

func TestAttestationProviderFor(t *testing.T) {
	provider, err := AttestationProviderFor(DummyAttestation, "")
	require.NoError(t, err)
	assert.IsType(t, DummyAttestationProvider{}, provider)

	provider, err = AttestationProviderFor(DCAPAttestation, "")
	require.NoError(t, err)
	assert.IsType(t, DCAPAttestationProvider{}, provider)

	provider, err = AttestationProviderFor(DummyAttestation, "http://quotes.local")
	require.NoError(t, err)
	remote, ok := provider.(*RemoteAttestationProvider)
	require.True(t, ok)
	assert.Equal(t, "http://quotes.local", remote.Address)

	_, err = AttestationProviderFor("unknown", "")
	assert.Error(t, err)
}

func TestVerifyDCAPAttestation_RejectsGarbage(t *testing.T) {
	_, err := VerifyDCAPAttestation([64]byte{}, []byte("not a quote"))
	assert.Error(t, err)
}
