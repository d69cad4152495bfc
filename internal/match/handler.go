package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/auth"
	"github.com/gokatarajesh/quiz-battle/internal/match/queue"
	"github.com/gokatarajesh/quiz-battle/internal/metrics"
	"github.com/gokatarajesh/quiz-battle/internal/question"
	httperrors "github.com/gokatarajesh/quiz-battle/pkg/http/errors"
	ws "github.com/gokatarajesh/quiz-battle/pkg/http/ws"
)

// Handler manages WebSocket connections and routes battle messages.
type Handler struct {
	service *Service
	finder  *queue.Manager
	hub     *ws.Hub
	authSvc *auth.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger

	mu    sync.Mutex
	found map[uuid.UUID]foundOpponent // search token -> opponent awaiting start_match
}

type foundOpponent struct {
	playerID string
	cfg      MatchConfig
	opponent Opponent
}

// NewHandler creates a match WebSocket handler.
func NewHandler(service *Service, finder *queue.Manager, hub *ws.Hub, authSvc *auth.Service, m *metrics.Metrics, logger zerolog.Logger) *Handler {
	if m == nil {
		m = metrics.New(nil)
	}
	return &Handler{
		service: service,
		finder:  finder,
		hub:     hub,
		authSvc: authSvc,
		metrics: m,
		logger:  logger.With().Str("component", "match_ws").Logger(),
		found:   make(map[uuid.UUID]foundOpponent),
	}
}

// HandleConnection serves one authenticated player until the socket closes.
func (h *Handler) HandleConnection(conn *websocket.Conn, playerID string) {
	wsConn := ws.NewConnection(conn, h.logger.With().Str("player_id", playerID).Logger())
	h.hub.RegisterConnection(playerID, wsConn)
	h.metrics.Connections.Inc()

	go wsConn.WritePump()

	wsConn.ReadPump(func(msg ws.Message) error {
		return h.handleMessage(context.Background(), playerID, msg)
	})

	h.metrics.Connections.Dec()
	if h.hub.UnregisterConnection(playerID, wsConn) {
		h.dropPlayer(playerID)
	}
}

// dropPlayer abandons everything a disconnected player had in flight.
func (h *Handler) dropPlayer(playerID string) {
	searches := h.finder.CancelPlayer(playerID)

	h.mu.Lock()
	for token, f := range h.found {
		if f.playerID == playerID {
			delete(h.found, token)
		}
	}
	h.mu.Unlock()

	matches := h.service.CancelPlayer(playerID)
	if searches > 0 || matches > 0 {
		h.logger.Info().
			Str("player_id", playerID).
			Int("searches", searches).
			Int("matches", matches).
			Msg("player disconnected mid-battle")
	}
}

// handleMessage routes incoming WebSocket messages.
func (h *Handler) handleMessage(ctx context.Context, playerID string, msg ws.Message) error {
	switch msg.Type {
	case ws.TypeFindOpponent:
		return h.handleFindOpponent(playerID, msg)
	case ws.TypeCancelSearch:
		return h.handleCancelSearch(playerID, msg)
	case ws.TypeStartMatch:
		return h.handleStartMatch(ctx, playerID, msg)
	case ws.TypeSubmitAnswer:
		return h.handleSubmitAnswer(ctx, playerID, msg)
	case ws.TypeUsePowerUp:
		return h.handleUsePowerUp(ctx, playerID, msg)
	case ws.TypeCancelMatch:
		return h.handleCancelMatch(ctx, playerID, msg)
	case ws.TypeRequestState:
		return h.handleRequestState(playerID, msg)
	case ws.TypeRequestResults:
		return h.handleRequestResults(ctx, playerID, msg)
	default:
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeUnknownMessageType, fmt.Sprintf("Unknown message type: %s", msg.Type))
	}
}

func (h *Handler) handleFindOpponent(playerID string, msg ws.Message) error {
	var req ws.FindOpponentPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid find_opponent payload")
	}

	cfg := MatchConfig{
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		QuestionCount: req.QuestionCount,
		Wager:         req.Wager,
		StakeAmount:   req.StakeAmount,
	}
	if err := h.service.ValidateConfig(cfg); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidConfig, err.Error())
	}
	if !h.service.Catalog().HasCategory(cfg.Category) {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeCategoryEmpty, fmt.Sprintf("No questions in category %q", cfg.Category))
	}

	token := h.finder.Search(queue.SearchRequest{
		PlayerID:   playerID,
		Category:   cfg.Category,
		Difficulty: cfg.Difficulty,
	}, func(token uuid.UUID, cand queue.Candidate) {
		h.opponentFound(playerID, token, cfg, cand)
	})
	h.metrics.Searches.WithLabelValues("started").Inc()

	return h.send(playerID, ws.TypeSearchStarted, ws.SearchStartedPayload{SearchToken: token.String()}, msg.RequestID)
}

func (h *Handler) opponentFound(playerID string, token uuid.UUID, cfg MatchConfig, cand queue.Candidate) {
	opp := Opponent{
		ID:          cand.ID,
		DisplayName: cand.DisplayName,
		IsBot:       cand.IsBot,
		Rating:      cand.Rating,
		WinStreak:   cand.WinStreak,
		Address:     cand.Address,
	}

	h.mu.Lock()
	h.found[token] = foundOpponent{playerID: playerID, cfg: cfg, opponent: opp}
	h.mu.Unlock()
	h.metrics.Searches.WithLabelValues("found").Inc()

	payload := ws.OpponentFoundPayload{
		SearchToken: token.String(),
		Opponent: ws.Opponent{
			ID:          opp.ID,
			DisplayName: opp.DisplayName,
			IsBot:       opp.IsBot,
			Rating:      opp.Rating,
			WinStreak:   opp.WinStreak,
			Address:     opp.Address,
		},
	}
	if err := h.send(playerID, ws.TypeOpponentFound, payload, ""); err != nil {
		h.logger.Debug().Err(err).Str("player_id", playerID).Msg("opponent_found not delivered")
	}
}

func (h *Handler) handleCancelSearch(playerID string, msg ws.Message) error {
	var req ws.CancelSearchPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid cancel_search payload")
	}
	token, err := uuid.Parse(req.SearchToken)
	if err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidSearchToken, "Invalid search token")
	}

	cancelled := false
	if wp, ok := h.finder.Pending(playerID); ok && wp.SearchToken == token {
		cancelled = h.finder.Cancel(token)
	}
	if _, ok := h.takeFound(playerID, token); ok {
		cancelled = true
	}
	if !cancelled {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeSearchNotFound, "Search not found")
	}
	h.metrics.Searches.WithLabelValues("cancelled").Inc()
	return nil
}

func (h *Handler) handleStartMatch(ctx context.Context, playerID string, msg ws.Message) error {
	var req ws.StartMatchPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid start_match payload")
	}
	token, err := uuid.Parse(req.SearchToken)
	if err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidSearchToken, "Invalid search token")
	}

	f, ok := h.takeFound(playerID, token)
	if !ok {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeSearchNotFound, "No opponent found for this search")
	}

	if _, err := h.service.StartMatch(ctx, playerID, f.cfg, f.opponent, h.notifier(playerID)); err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) handleSubmitAnswer(ctx context.Context, playerID string, msg ws.Message) error {
	var req ws.SubmitAnswerPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid submit_answer payload")
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidMatchID, "Invalid match ID")
	}

	sub, err := h.service.SubmitAnswer(ctx, playerID, matchID, req.OptionIndex)
	if err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}

	return h.send(playerID, ws.TypeAnswerAck, ws.AnswerAckPayload{
		MatchID:       req.MatchID,
		QuestionIndex: sub.QuestionIndex,
		OptionIndex:   req.OptionIndex,
		Accepted:      sub.Accepted,
	}, msg.RequestID)
}

func (h *Handler) handleUsePowerUp(ctx context.Context, playerID string, msg ws.Message) error {
	var req ws.UsePowerUpPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid use_power_up payload")
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		return h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidMatchID, "Invalid match ID")
	}

	eff, err := h.service.UsePowerUp(ctx, playerID, matchID, PowerUp(req.PowerUp))
	if err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}
	if eff.Applied {
		// already pushed through the notifier
		return nil
	}
	return h.send(playerID, ws.TypePowerUp, ws.PowerUpPayload{MatchID: req.MatchID, Effect: eff}, msg.RequestID)
}

func (h *Handler) handleCancelMatch(ctx context.Context, playerID string, msg ws.Message) error {
	matchID, ok := h.matchRef(playerID, msg)
	if !ok {
		return nil
	}
	if err := h.service.CancelMatch(ctx, playerID, matchID); err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}
	return nil
}

func (h *Handler) handleRequestState(playerID string, msg ws.Message) error {
	matchID, ok := h.matchRef(playerID, msg)
	if !ok {
		return nil
	}
	state, err := h.service.Snapshot(playerID, matchID)
	if err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}
	return h.send(playerID, ws.TypeMatchState, ws.MatchStatePayload{State: state}, msg.RequestID)
}

func (h *Handler) handleRequestResults(ctx context.Context, playerID string, msg ws.Message) error {
	matchID, ok := h.matchRef(playerID, msg)
	if !ok {
		return nil
	}
	res, err := h.service.TakeResults(ctx, playerID, matchID)
	if err != nil {
		return h.sendServiceError(playerID, msg.RequestID, err)
	}
	return h.send(playerID, ws.TypeMatchComplete, ws.MatchCompletePayload{MatchID: res.MatchID, Results: res}, msg.RequestID)
}

func (h *Handler) matchRef(playerID string, msg ws.Message) (uuid.UUID, bool) {
	var req ws.MatchRefPayload
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		_ = h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidPayload, "Invalid "+msg.Type+" payload")
		return uuid.Nil, false
	}
	matchID, err := uuid.Parse(req.MatchID)
	if err != nil {
		_ = h.sendError(playerID, msg.RequestID, httperrors.ErrCodeInvalidMatchID, "Invalid match ID")
		return uuid.Nil, false
	}
	return matchID, true
}

func (h *Handler) takeFound(playerID string, token uuid.UUID) (foundOpponent, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	f, ok := h.found[token]
	if !ok || f.playerID != playerID {
		return foundOpponent{}, false
	}
	delete(h.found, token)
	return f, true
}

// notifier turns engine events into messages for the player's socket.
// Hub sends never block, so it is safe to call with the match locked.
func (h *Handler) notifier(playerID string) Notifier {
	return NotifierFunc(func(e Event) {
		msgType, payload := eventPayload(e)
		if msgType == "" {
			return
		}
		if err := h.send(playerID, msgType, payload, ""); err != nil {
			h.logger.Debug().Err(err).Str("match_id", e.State.MatchID).Str("type", msgType).Msg("event not delivered")
		}
	})
}

func eventPayload(e Event) (string, interface{}) {
	s := e.State
	switch e.Type {
	case EventCountdown:
		return ws.TypeCountdown, ws.CountdownPayload{MatchID: s.MatchID, Seconds: s.CountdownRemaining}
	case EventQuestion:
		if s.Question == nil {
			return "", nil
		}
		powerUps := make([]string, len(s.PowerUpsRemaining))
		for i, p := range s.PowerUpsRemaining {
			powerUps[i] = string(p)
		}
		return ws.TypeQuestion, ws.QuestionPayload{
			MatchID:        s.MatchID,
			Index:          s.CurrentQuestionIndex,
			Total:          s.TotalQuestions,
			ID:             s.Question.ID,
			Text:           s.Question.Text,
			Options:        s.Question.Options,
			RemovedOptions: s.Question.RemovedOptions,
			TimeLeft:       s.TimeLeftSeconds,
			PowerUps:       powerUps,
		}
	case EventQuestionTick:
		return ws.TypeQuestionTick, ws.QuestionTickPayload{
			MatchID:          s.MatchID,
			QuestionIndex:    s.CurrentQuestionIndex,
			RemainingSeconds: s.TimeLeftSeconds,
		}
	case EventAnswerReveal:
		if e.Reveal == nil {
			return "", nil
		}
		return ws.TypeAnswerReveal, ws.AnswerRevealPayload{
			MatchID:       s.MatchID,
			QuestionIndex: e.Reveal.QuestionIndex,
			CorrectIndex:  e.Reveal.CorrectIndex,
			Explanation:   e.Reveal.Explanation,
			Player:        e.Reveal.PlayerAnswer,
			Opponent:      e.Reveal.OpponentAnswer,
			PlayerScore:   s.PlayerScore,
			OpponentScore: s.OpponentScore,
			PlayerStreak:  s.PlayerStreak,
		}
	case EventOpponentAnswered:
		return ws.TypeOpponentAnswered, ws.OpponentAnsweredPayload{
			MatchID:       s.MatchID,
			QuestionIndex: s.CurrentQuestionIndex,
			PeekedOption:  s.PeekedOption,
		}
	case EventPowerUp:
		return ws.TypePowerUp, ws.PowerUpPayload{MatchID: s.MatchID, Effect: e.PowerUp}
	case EventMatchComplete:
		return ws.TypeMatchComplete, ws.MatchCompletePayload{MatchID: s.MatchID, Results: e.Results}
	case EventMatchCancelled:
		return ws.TypeMatchCancelled, ws.MatchCancelledPayload{MatchID: s.MatchID}
	}
	return "", nil
}

func (h *Handler) send(playerID, msgType string, payload interface{}, requestID string) error {
	msg, err := ws.NewMessage(msgType, payload, requestID)
	if err != nil {
		return fmt.Errorf("encode %s: %w", msgType, err)
	}
	return h.hub.SendToPlayer(playerID, msg)
}

func (h *Handler) sendServiceError(playerID, requestID string, err error) error {
	code := httperrors.ErrCodeInternalError
	switch {
	case errors.Is(err, ErrMatchNotFound):
		code = httperrors.ErrCodeMatchNotFound
	case errors.Is(err, ErrNotOwner):
		code = httperrors.ErrCodeNotOwner
	case errors.Is(err, ErrInvalidOption):
		code = httperrors.ErrCodeInvalidOption
	case errors.Is(err, ErrUnknownPowerUp):
		code = httperrors.ErrCodeUnknownPowerUp
	case errors.Is(err, ErrInvalidConfig):
		code = httperrors.ErrCodeInvalidConfig
	case errors.Is(err, question.ErrCategoryEmpty):
		code = httperrors.ErrCodeCategoryEmpty
	case errors.Is(err, ErrResultsNotFound):
		code = httperrors.ErrCodeResultsNotFound
	default:
		h.logger.Error().Err(err).Str("player_id", playerID).Msg("match operation failed")
	}
	return h.sendError(playerID, requestID, code, err.Error())
}

func (h *Handler) sendError(playerID, requestID, code, message string) error {
	return h.send(playerID, ws.TypeError, ws.ErrorPayload{Code: code, Message: message}, requestID)
}
