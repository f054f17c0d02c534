package sealhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/tee-sealing-service/api"
	"github.com/ruteri/tee-sealing-service/common"
	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

// Client talks to a sealing service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the service at baseURL
// (e.g. "http://127.0.0.1:8000"). A nil httpClient uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// GenerateSecret asks the service to seal with keyID.
func (c *Client) GenerateSecret(ctx context.Context, keyID interfaces.KeyID) error {
	body, err := json.Marshal(api.GenerateSecretRequest{KeyID: keyID.String()})
	if err != nil {
		return fmt.Errorf("could not encode request: %w", err)
	}

	_, err = c.do(ctx, http.MethodPost, "/generate-secret", body)
	return err
}

// PublicKey fetches the sealed public key and checks it against the
// returned address.
func (c *Client) PublicKey(ctx context.Context) (interfaces.SealedPubkey, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/public-key", nil)
	if err != nil {
		return nil, err
	}

	var resp api.PublicKeyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("could not parse public key response: %w", err)
	}
	return resp.SealedPubkey()
}

// NumsKey fetches the server's NUMS key. Callers should Verify it.
func (c *Client) NumsKey(ctx context.Context) (*cryptoutils.NumsKey, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/nums-public-key", nil)
	if err != nil {
		return nil, err
	}

	var resp api.NumsKeyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("could not parse NUMS key response: %w", err)
	}
	return resp.NumsKey()
}

func (c *Client) AttestedPublicKey(ctx context.Context) (*api.AttestedPublicKeyResponse, error) {
	respBody, err := c.do(ctx, http.MethodGet, "/attested-public-key", nil)
	if err != nil {
		return nil, err
	}

	var resp api.AttestedPublicKeyResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("could not parse attested public key response: %w", err)
	}
	return &resp, nil
}

func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/health", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("User-Agent", common.PackageName+"/"+common.Version)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errorFromResponse(resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// errorFromResponse is the inverse of statusForError.
func errorFromResponse(status int, message string) error {
	var sentinel error
	switch status {
	case http.StatusConflict:
		sentinel = interfaces.ErrAlreadySealed
	case http.StatusNotFound:
		sentinel = interfaces.ErrNotSealed
	case http.StatusBadGateway:
		sentinel = interfaces.ErrOracle
	case http.StatusInternalServerError:
		switch message {
		case interfaces.ErrMissingSecret.Error():
			sentinel = interfaces.ErrMissingSecret
		case interfaces.ErrInvalidSecretLength.Error():
			sentinel = interfaces.ErrInvalidSecretLength
		}
	}

	if sentinel == nil {
		return fmt.Errorf("unexpected status %d: %s", status, message)
	}
	if message == sentinel.Error() {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, message)
}

// IsRetryable reports whether a failed seal may succeed if repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, interfaces.ErrOracle)
}
