package cryptoutils

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"

	tdx_abi "github.com/google/go-tdx-guest/abi"
	tdx_client "github.com/google/go-tdx-guest/client"
	tdx_pb "github.com/google/go-tdx-guest/proto/tdx"
	"github.com/google/go-tdx-guest/verify"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

// AttestationType identifies how an attestation blob was produced.
type AttestationType string

const (
	DCAPAttestation  AttestationType = "qemu-tdx"
	DummyAttestation AttestationType = "dummy"
)

func AttestationTypeFromString(str string) (AttestationType, error) {
	switch AttestationType(str) {
	case DCAPAttestation:
		return DCAPAttestation, nil
	case DummyAttestation:
		return DummyAttestation, nil
	default:
		return "", fmt.Errorf("attestation type %q: %w", str, errors.ErrUnsupported)
	}
}

// AttestationProvider produces a quote binding the 64-byte report data.
type AttestationProvider interface {
	AttestationType() AttestationType
	Attest(ctx context.Context, reportData [64]byte) ([]byte, error)
}

// SealedKeyReportData binds the sealed public key and the NUMS key it was
// derived against: SHA-256(sealed pubkey) || SHA-256(NUMS DER).
func SealedKeyReportData(pubkey interfaces.SealedPubkey, numsDER []byte) [64]byte {
	var reportData [64]byte
	pubkeyHash := sha256.Sum256(pubkey)
	numsHash := sha256.Sum256(numsDER)
	copy(reportData[:32], pubkeyHash[:])
	copy(reportData[32:], numsHash[:])
	return reportData
}

// RemoteAttestationProvider fetches DCAP quotes from a quote provider
// service reachable over HTTP (GET {Address}/attest/{hex report data}).
type RemoteAttestationProvider struct {
	Address string
	Client  *http.Client
}

func (*RemoteAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (p *RemoteAttestationProvider) Attest(ctx context.Context, reportData [64]byte) ([]byte, error) {
	url := fmt.Sprintf("%s/attest/%s", p.Address, hex.EncodeToString(reportData[:]))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not initialize quote request: %w", err)
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}

// DCAPAttestationProvider requests a TDX quote from the local guest, through
// configfs-tsm when available and the TDX guest device otherwise.
type DCAPAttestationProvider struct{}

func (DCAPAttestationProvider) AttestationType() AttestationType { return DCAPAttestation }

func (DCAPAttestationProvider) Attest(_ context.Context, reportData [64]byte) ([]byte, error) {
	qp := &tdx_client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return qp.GetRawQuote(reportData)
	}

	qd, err := tdx_client.OpenDevice()
	if err != nil {
		return nil, err
	}
	defer qd.Close()

	return tdx_client.GetRawQuote(qd, reportData)
}

// DummyAttestationProvider is used outside of a TEE. Its output proves nothing.
type DummyAttestationProvider struct{}

func (DummyAttestationProvider) AttestationType() AttestationType { return DummyAttestation }

func (DummyAttestationProvider) Attest(_ context.Context, reportData [64]byte) ([]byte, error) {
	return []byte(fmt.Sprintf("Attestation for sealed key %x", reportData)), nil
}

// AttestationProviderFor picks the provider for the configured type. A
// non-empty remoteAddress selects the remote DCAP provider.
func AttestationProviderFor(attestationType AttestationType, remoteAddress string) (AttestationProvider, error) {
	if remoteAddress != "" {
		return &RemoteAttestationProvider{Address: remoteAddress}, nil
	}
	switch attestationType {
	case DCAPAttestation:
		return DCAPAttestationProvider{}, nil
	case DummyAttestation:
		return DummyAttestationProvider{}, nil
	default:
		return nil, fmt.Errorf("attestation type %q: %w", attestationType, errors.ErrUnsupported)
	}
}

// VerifyDCAPAttestation verifies a TDX quote and checks that it carries
// reportData. It returns the measurement registers keyed by index.
func VerifyDCAPAttestation(reportData [64]byte, quote []byte) (map[int]string, error) {
	protoQuote, err := tdx_abi.QuoteToProto(quote)
	if err != nil {
		return nil, fmt.Errorf("could not parse quote: %w", err)
	}

	v4Quote, ok := protoQuote.(*tdx_pb.QuoteV4)
	if !ok {
		return nil, fmt.Errorf("unsupported quote type: %T", protoQuote)
	}

	if err := verify.TdxQuote(protoQuote, verify.DefaultOptions()); err != nil {
		return nil, fmt.Errorf("quote verification failed: %w", err)
	}

	if !bytes.Equal(v4Quote.TdQuoteBody.ReportData, reportData[:]) {
		return nil, fmt.Errorf("invalid report data %x, expected %x", v4Quote.TdQuoteBody.ReportData, reportData[:])
	}

	return map[int]string{
		0: hex.EncodeToString(v4Quote.TdQuoteBody.MrTd),
		1: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[0]),
		2: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[1]),
		3: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[2]),
		4: hex.EncodeToString(v4Quote.TdQuoteBody.Rtmrs[3]),
		5: hex.EncodeToString(v4Quote.TdQuoteBody.MrConfigId),
		6: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwner),
		7: hex.EncodeToString(v4Quote.TdQuoteBody.MrOwnerConfig),
	}, nil
}
