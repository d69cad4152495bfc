package queue

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
)

// Rand is the randomness matchmaking needs. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// Config tunes the simulated search.
type Config struct {
	SearchMin time.Duration // default: 2s
	SearchMax time.Duration // default: 6s
	BotRatio  float64       // default: 0.5
}

// DefaultConfig returns the standard search behaviour.
func DefaultConfig() Config {
	return Config{
		SearchMin: 2 * time.Second,
		SearchMax: 6 * time.Second,
		BotRatio:  0.5,
	}
}

// SearchRequest is a player looking for an opponent.
type SearchRequest struct {
	PlayerID   string
	Category   string
	Difficulty string
}

// WaitingPlayer represents a player with a search in flight.
type WaitingPlayer struct {
	Request     SearchRequest
	QueuedAt    time.Time
	SearchToken uuid.UUID
	timer       clock.Timer
}

// FoundFunc receives the opponent for a finished search.
type FoundFunc func(token uuid.UUID, opp Candidate)

// Manager simulates matchmaking: every search finds an opponent after a random wait.
type Manager struct {
	clock  clock.Clock
	cfg    Config
	logger zerolog.Logger

	mu      sync.Mutex
	rng     Rand
	waiting map[uuid.UUID]*WaitingPlayer
}

// NewManager creates a matchmaking manager.
func NewManager(clk clock.Clock, rng Rand, cfg Config, logger zerolog.Logger) *Manager {
	if cfg.SearchMax < cfg.SearchMin {
		cfg.SearchMax = cfg.SearchMin
	}
	return &Manager{
		clock:   clk,
		cfg:     cfg,
		logger:  logger.With().Str("component", "matchmaking").Logger(),
		rng:     rng,
		waiting: make(map[uuid.UUID]*WaitingPlayer),
	}
}

// Search starts looking for an opponent and returns the search token. A player
// has at most one search; starting another cancels the previous one. onFound
// runs on the clock's goroutine without the manager lock held.
func (m *Manager) Search(req SearchRequest, onFound FoundFunc) uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cancelPlayerLocked(req.PlayerID)

	token := uuid.New()
	wait := m.cfg.SearchMin + time.Duration(m.rng.Float64()*float64(m.cfg.SearchMax-m.cfg.SearchMin))
	wp := &WaitingPlayer{
		Request:     req,
		QueuedAt:    m.clock.Now(),
		SearchToken: token,
	}
	wp.timer = m.clock.AfterFunc(wait, func() { m.complete(token, onFound) })
	m.waiting[token] = wp

	m.logger.Debug().
		Str("player_id", req.PlayerID).
		Str("search_token", token.String()).
		Dur("wait", wait).
		Msg("search started")
	return token
}

func (m *Manager) complete(token uuid.UUID, onFound FoundFunc) {
	m.mu.Lock()
	wp, ok := m.waiting[token]
	if !ok {
		m.mu.Unlock()
		return
	}
	delete(m.waiting, token)
	opp := GenerateOpponent(m.rng, m.rng.Float64() < m.cfg.BotRatio)
	m.mu.Unlock()

	m.logger.Info().
		Str("player_id", wp.Request.PlayerID).
		Str("opponent", opp.DisplayName).
		Bool("bot", opp.IsBot).
		Msg("opponent found")
	if onFound != nil {
		onFound(token, opp)
	}
}

// Cancel abandons a search. It reports whether the search was still pending.
func (m *Manager) Cancel(token uuid.UUID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	wp, ok := m.waiting[token]
	if !ok {
		return false
	}
	wp.timer.Stop()
	delete(m.waiting, token)
	return true
}

// CancelPlayer abandons every search by playerID.
func (m *Manager) CancelPlayer(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancelPlayerLocked(playerID)
}

func (m *Manager) cancelPlayerLocked(playerID string) int {
	n := 0
	for token, wp := range m.waiting {
		if wp.Request.PlayerID == playerID {
			wp.timer.Stop()
			delete(m.waiting, token)
			n++
		}
	}
	return n
}

// Pending returns the player's in-flight search, if any.
func (m *Manager) Pending(playerID string) (WaitingPlayer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, wp := range m.waiting {
		if wp.Request.PlayerID == playerID {
			return *wp, true
		}
	}
	return WaitingPlayer{}, false
}

// Waiting returns the number of searches in flight.
func (m *Manager) Waiting() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiting)
}
