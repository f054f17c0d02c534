package kms

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	awskms "github.com/aws/aws-sdk-go/service/kms"
	"github.com/aws/aws-sdk-go/service/kms/kmsiface"
	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKMSClient struct {
	kmsiface.KMSAPI

	input  *awskms.DeriveSharedSecretInput
	output *awskms.DeriveSharedSecretOutput
	err    error
}

func (f *fakeKMSClient) DeriveSharedSecretWithContext(_ aws.Context, input *awskms.DeriveSharedSecretInput, _ ...request.Option) (*awskms.DeriveSharedSecretOutput, error) {
	f.input = input
	return f.output, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAWSOracle_BuildsECDHRequest(t *testing.T) {
	secret := make([]byte, 32)
	client := &fakeKMSClient{output: &awskms.DeriveSharedSecretOutput{SharedSecret: secret}}
	oracle := NewAWSOracleWithClient(client, testLogger())

	nums, err := cryptoutils.GenerateNumsKey(cryptoutils.NumsSeed)
	require.NoError(t, err)

	got, err := oracle.DeriveSharedSecret(context.Background(), "alias/sealing", nums.DER())
	require.NoError(t, err)
	assert.Equal(t, secret, got)

	require.NotNil(t, client.input)
	assert.Equal(t, "alias/sealing", aws.StringValue(client.input.KeyId))
	assert.Equal(t, "ECDH", aws.StringValue(client.input.KeyAgreementAlgorithm))
	assert.Equal(t, nums.DER(), client.input.PublicKey)
}

func TestAWSOracle_PassesThroughErrors(t *testing.T) {
	client := &fakeKMSClient{err: errors.New("AccessDeniedException")}
	oracle := NewAWSOracleWithClient(client, testLogger())

	_, err := oracle.DeriveSharedSecret(context.Background(), "key", []byte{0x30})
	assert.ErrorContains(t, err, "AccessDeniedException")
}

func TestAWSOracle_AgainstEndpoint(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "test")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "test")
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i + 1)
	}

	var gotTarget string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTarget = r.Header.Get("X-Amz-Target")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)

		w.Header().Set("Content-Type", "application/x-amz-json-1.1")
		if gotBody["KeyId"] == "missing" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"__type":"NotFoundException","message":"key not found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"KeyId":        gotBody["KeyId"],
			"SharedSecret": base64.StdEncoding.EncodeToString(secret),
		})
	}))
	defer server.Close()

	oracle, err := NewAWSOracle("us-east-1", server.URL, testLogger())
	require.NoError(t, err)

	der := []byte{0x30, 0x59}
	got, err := oracle.DeriveSharedSecret(context.Background(), "test-key", der)
	require.NoError(t, err)
	assert.Equal(t, secret, got)
	assert.Equal(t, "TrentService.DeriveSharedSecret", gotTarget)
	assert.Equal(t, "test-key", gotBody["KeyId"])
	assert.Equal(t, "ECDH", gotBody["KeyAgreementAlgorithm"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(der), gotBody["PublicKey"])

	_, err = oracle.DeriveSharedSecret(context.Background(), interfaces.KeyID("missing"), der)
	assert.ErrorContains(t, err, "NotFoundException")
}
