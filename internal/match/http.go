package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/auth"
	"github.com/gokatarajesh/quiz-battle/internal/logging"
	"github.com/gokatarajesh/quiz-battle/internal/question"
	httperrors "github.com/gokatarajesh/quiz-battle/pkg/http/errors"
)

// HTTPHandlers provides REST endpoints around the battle engine.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for catalog and results endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "match_http").Logger(),
	}
}

type catalogResponse struct {
	Categories []question.CategorySummary `json:"categories"`
	PowerUps   []PowerUp                  `json:"power_ups"`
	Counts     []int                      `json:"question_counts"`
}

// Catalog handles GET /v1/catalog
func (h *HTTPHandlers) Catalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	h.respondJSON(w, http.StatusOK, catalogResponse{
		Categories: h.service.Catalog().Categories(),
		PowerUps:   AllPowerUps,
		Counts:     []int{3, 5, 7},
	})
}

// Results handles GET /v1/matches/{id}/results. Results can be collected once.
func (h *HTTPHandlers) Results(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httperrors.RespondMethodNotAllowed(w, http.MethodGet)
		return
	}

	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeAuthenticationRequired, "Authentication required")
		return
	}

	matchID, err := uuid.Parse(matchIDFromPath(r))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidMatchID, "Invalid match ID")
		return
	}

	res, err := h.service.TakeResults(r.Context(), claims.PlayerID.String(), matchID)
	if err != nil {
		if errors.Is(err, ErrResultsNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeResultsNotFound, "No results waiting for this match")
			return
		}
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Str("match_id", matchID.String()).Msg("fetch results")
		httperrors.RespondInternalError(w, "Could not fetch results")
		return
	}

	h.respondJSON(w, http.StatusOK, res)
}

func matchIDFromPath(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	// /v1/matches/{id}/results
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 4 && parts[3] == "results" {
		return parts[2]
	}
	return ""
}

func (h *HTTPHandlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn().Err(err).Msg("encode response")
	}
}
