package match

import (
	"net/http"

	"github.com/gokatarajesh/quiz-battle/internal/logging"
	"github.com/gokatarajesh/quiz-battle/internal/server"
	httperrors "github.com/gokatarajesh/quiz-battle/pkg/http/errors"
)

// HandleWebSocket upgrades HTTP connection to WebSocket and authenticates the player.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Missing token")
		return
	}

	logger := logging.FromContext(r.Context())
	claims, err := h.authSvc.ValidateToken(token)
	if err != nil {
		logger.Warn().Err(err).Msg("WebSocket token validation failed")
		httperrors.RespondUnauthorized(w, httperrors.ErrCodeInvalidToken, "Invalid token")
		return
	}

	conn, err := server.WSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}

	h.HandleConnection(conn, claims.PlayerID.String())
}
