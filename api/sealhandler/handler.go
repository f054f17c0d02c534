package sealhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ruteri/tee-sealing-service/api"
	"github.com/ruteri/tee-sealing-service/cryptoutils"
	"github.com/ruteri/tee-sealing-service/interfaces"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

const generateSuccessMessage = "Secret generated successfully."

// Handler processes HTTP requests for the sealing service.
type Handler struct {
	sealer   interfaces.Sealer
	nums     *cryptoutils.NumsKey
	attester cryptoutils.AttestationProvider
	log      *slog.Logger
}

// NewHandler creates a new HTTP request handler. nums must be the key the
// sealer derives against; it is published for audit and bound into
// attestations.
func NewHandler(sealer interfaces.Sealer, nums *cryptoutils.NumsKey, attester cryptoutils.AttestationProvider, log *slog.Logger) *Handler {
	return &Handler{
		sealer:   sealer,
		nums:     nums,
		attester: attester,
		log:      log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/generate-secret", h.HandleGenerateSecret)
	r.Get("/public-key", h.HandlePublicKey)
	r.Get("/nums-public-key", h.HandleNumsPublicKey)
	r.Get("/attested-public-key", h.HandleAttestedPublicKey)
	r.Get("/health", h.HandleHealth)
}

// HandleGenerateSecret seals the key pair for the requested key identifier.
//
// URL format: POST /generate-secret
// Body: {"key_id": "..."}
//
// Status codes:
//   - 200 OK: key pair sealed
//   - 400 Bad Request: malformed body or empty key_id
//   - 409 Conflict: a key pair was already sealed
//   - 502 Bad Gateway: the oracle call failed
//   - 500 Internal Server Error: the oracle returned no secret or a secret of the wrong length
func (h *Handler) HandleGenerateSecret(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req api.GenerateSecretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("Invalid generate-secret request", "err", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	keyID, err := interfaces.NewKeyID(req.KeyID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if _, err := h.sealer.Seal(r.Context(), keyID); err != nil {
		h.writeSealError(w, err, "keyId", keyID.String())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(generateSuccessMessage))
}

// HandlePublicKey returns the sealed public key.
//
// URL format: GET /public-key
//
// Response: JSON-encoded api.PublicKeyResponse
func (h *Handler) HandlePublicKey(w http.ResponseWriter, r *http.Request) {
	pubkey, err := h.sealer.PublicKey()
	if err != nil {
		h.writeSealError(w, err)
		return
	}

	resp, err := api.NewPublicKeyResponse(pubkey)
	if err != nil {
		h.log.Error("Sealed public key does not decode", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, resp)
}

// HandleNumsPublicKey publishes the NUMS key and the parameters it was
// derived from.
func (h *Handler) HandleNumsPublicKey(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, api.NewNumsKeyResponse(h.nums))
}

// HandleAttestedPublicKey returns the sealed public key with an attestation
// over SHA-256(public key) || SHA-256(NUMS DER).
func (h *Handler) HandleAttestedPublicKey(w http.ResponseWriter, r *http.Request) {
	pubkey, err := h.sealer.PublicKey()
	if err != nil {
		h.writeSealError(w, err)
		return
	}

	pubkeyResp, err := api.NewPublicKeyResponse(pubkey)
	if err != nil {
		h.log.Error("Sealed public key does not decode", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	reportData := cryptoutils.SealedKeyReportData(pubkey, h.nums.DER())
	attestation, err := h.attester.Attest(r.Context(), reportData)
	if err != nil {
		h.log.Error("Failed to attest sealed public key", "err", err)
		http.Error(w, "Failed to attest public key", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, &api.AttestedPublicKeyResponse{
		PublicKeyResponse: *pubkeyResp,
		NumsKey:           *api.NewNumsKeyResponse(h.nums),
		AttestationType:   string(h.attester.AttestationType()),
		Attestation:       attestation,
	})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// statusForError maps the sealing error values to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, interfaces.ErrAlreadySealed):
		return http.StatusConflict
	case errors.Is(err, interfaces.ErrNotSealed):
		return http.StatusNotFound
	case errors.Is(err, interfaces.ErrOracle):
		return http.StatusBadGateway
	case errors.Is(err, interfaces.ErrEmptyKeyID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeSealError(w http.ResponseWriter, err error, attrs ...any) {
	status := statusForError(err)
	message := err.Error()

	switch {
	case errors.Is(err, interfaces.ErrMissingSecret):
		message = interfaces.ErrMissingSecret.Error()
	case errors.Is(err, interfaces.ErrInvalidSecretLength):
		message = interfaces.ErrInvalidSecretLength.Error()
	case status == http.StatusInternalServerError:
		h.log.Error("Sealing failed", append(attrs, "err", err)...)
		message = "Internal server error"
	case status == http.StatusBadGateway:
		message = interfaces.ErrOracle.Error()
	}

	http.Error(w, message, status)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
}
