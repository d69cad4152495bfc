package auth

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/logging"
	httperrors "github.com/gokatarajesh/quiz-battle/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints for sessions.
type HTTPHandlers struct {
	authSvc *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for session endpoints.
func NewHTTPHandlers(authSvc *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		authSvc: authSvc,
		logger:  logger,
	}
}

type sessionResponse struct {
	PlayerID      string `json:"player_id"`
	DisplayName   string `json:"display_name"`
	WalletAddress string `json:"wallet_address"`
	AccessToken   string `json:"access_token,omitempty"`
	ExpiresAt     string `json:"expires_at,omitempty"`
}

// CreateGuest handles POST /v1/session/guest
func (h *HTTPHandlers) CreateGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.RespondMethodNotAllowed(w, http.MethodPost)
		return
	}

	var req GuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}

	session, err := h.authSvc.CreateGuest(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidDisplayName) {
			httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "Display name must be 3-24 printable characters", "display_name")
			return
		}
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("create guest session")
		httperrors.RespondInternalError(w, "Could not create session")
		return
	}

	h.respondJSON(w, http.StatusCreated, sessionResponse{
		PlayerID:      session.Player.ID.String(),
		DisplayName:   session.Player.DisplayName,
		WalletAddress: session.Player.WalletAddress,
		AccessToken:   session.AccessToken,
		ExpiresAt:     session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Me handles GET /v1/session/me
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	h.respondJSON(w, http.StatusOK, sessionResponse{
		PlayerID:      claims.PlayerID.String(),
		DisplayName:   claims.DisplayName,
		WalletAddress: claims.WalletAddress,
	})
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn().Err(err).Msg("encode response")
	}
}
