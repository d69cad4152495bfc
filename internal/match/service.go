package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/match/scoring"
	"github.com/gokatarajesh/quiz-battle/internal/metrics"
	"github.com/gokatarajesh/quiz-battle/internal/question"
)

const resultsSaveTimeout = 2 * time.Second

// Service owns the live matches and exposes the host-facing operations.
type Service struct {
	catalog       *question.Catalog
	clock         clock.Clock
	results       ResultsStore
	metrics       *metrics.Metrics
	validate      *validator.Validate
	timings       Timings
	scoringEngine *scoring.Engine
	simulator     *Simulator
	newRand       func() Rand
	logger        zerolog.Logger

	mu      sync.RWMutex
	matches map[uuid.UUID]*Match
	saving  map[uuid.UUID]chan struct{}
	saves   sync.WaitGroup
}

// ServiceOptions configures the match service. Zero values fall back to defaults.
type ServiceOptions struct {
	Timings         Timings
	ScoringConfig   scoring.ScoringConfig
	SimulatorConfig SimulatorConfig
	// NewRand supplies the random source for each new match.
	NewRand func() Rand
}

// NewService creates a match service with all dependencies.
func NewService(
	catalog *question.Catalog,
	clk clock.Clock,
	results ResultsStore,
	m *metrics.Metrics,
	opts ServiceOptions,
	logger zerolog.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if results == nil {
		results = NewMemoryResultsStore(clk, 10*time.Minute)
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.ScoringConfig.BaseScore == 0 {
		opts.ScoringConfig = scoring.DefaultScoringConfig()
	}
	if opts.SimulatorConfig.Delays == nil {
		opts.SimulatorConfig = DefaultSimulatorConfig()
	}
	if opts.NewRand == nil {
		opts.NewRand = func() Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}

	return &Service{
		catalog:       catalog,
		clock:         clk,
		results:       results,
		metrics:       m,
		validate:      validator.New(),
		timings:       opts.Timings,
		scoringEngine: scoring.NewEngine(opts.ScoringConfig),
		simulator:     NewSimulator(opts.SimulatorConfig),
		newRand:       opts.NewRand,
		logger:        logger.With().Str("component", "match").Logger(),
		matches:       make(map[uuid.UUID]*Match),
		saving:        make(map[uuid.UUID]chan struct{}),
	}
}

// ValidateConfig checks a player's match settings.
func (s *Service) ValidateConfig(cfg MatchConfig) error {
	if err := s.validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %s", ErrInvalidConfig, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// StartMatch selects the questions, registers the match and starts its countdown.
// Events for the match are delivered to notify.
func (s *Service) StartMatch(ctx context.Context, playerID string, cfg MatchConfig, opp Opponent, notify Notifier) (uuid.UUID, error) {
	if err := s.ValidateConfig(cfg); err != nil {
		return uuid.Nil, err
	}

	rng := s.newRand()
	questions, err := s.catalog.Select(rng, cfg.Category, cfg.Difficulty, cfg.QuestionCount)
	if err != nil {
		s.logger.Warn().Err(err).Str("category", cfg.Category).Msg("match setup failed")
		return uuid.Nil, fmt.Errorf("select questions: %w", err)
	}

	id := uuid.New()
	m, err := New(Params{
		ID:        id,
		PlayerID:  playerID,
		Config:    cfg,
		Opponent:  opp,
		Questions: questions,
		Timings:   s.timings,
		Clock:     s.clock,
		Rand:      rng,
		Scoring:   s.scoringEngine,
		Simulator: s.simulator,
		Notifier:  s.observe(id, notify),
		Logger:    s.logger.With().Str("player_id", playerID).Logger(),
	})
	if err != nil {
		return uuid.Nil, err
	}

	s.mu.Lock()
	s.matches[id] = m
	s.mu.Unlock()

	s.metrics.MatchesStarted.Inc()
	s.metrics.ActiveMatches.Inc()

	m.Start()
	return id, nil
}

// SubmitAnswer forwards the player's selection to the match.
func (s *Service) SubmitAnswer(ctx context.Context, playerID string, matchID uuid.UUID, optionIndex int) (Submission, error) {
	m, err := s.lookup(matchID, playerID)
	if err != nil {
		return Submission{}, err
	}
	return m.SubmitAnswer(optionIndex)
}

// UsePowerUp forwards a power-up to the match.
func (s *Service) UsePowerUp(ctx context.Context, playerID string, matchID uuid.UUID, p PowerUp) (PowerUpEffect, error) {
	m, err := s.lookup(matchID, playerID)
	if err != nil {
		return PowerUpEffect{}, err
	}
	return m.UsePowerUp(p)
}

// CancelMatch stops a live match.
func (s *Service) CancelMatch(ctx context.Context, playerID string, matchID uuid.UUID) error {
	m, err := s.lookup(matchID, playerID)
	if err != nil {
		return err
	}
	m.Cancel()
	return nil
}

// Snapshot returns the current state of a live match.
func (s *Service) Snapshot(playerID string, matchID uuid.UUID) (State, error) {
	m, err := s.lookup(matchID, playerID)
	if err != nil {
		return State{}, err
	}
	return m.Snapshot(), nil
}

// TakeResults hands over the stored results of a completed match once. It
// waits for a save still in flight for the match.
func (s *Service) TakeResults(ctx context.Context, playerID string, matchID uuid.UUID) (Results, error) {
	s.mu.RLock()
	done := s.saving[matchID]
	s.mu.RUnlock()

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return Results{}, ctx.Err()
		}
	}
	return s.results.Take(ctx, playerID, matchID.String())
}

// CancelPlayer cancels every live match owned by playerID.
func (s *Service) CancelPlayer(playerID string) int {
	var owned []*Match
	s.mu.RLock()
	for _, m := range s.matches {
		if m.PlayerID() == playerID {
			owned = append(owned, m)
		}
	}
	s.mu.RUnlock()

	n := 0
	for _, m := range owned {
		if m.Cancel() {
			n++
		}
	}
	return n
}

// Shutdown cancels all live matches and waits for pending result saves.
func (s *Service) Shutdown() {
	s.mu.RLock()
	all := make([]*Match, 0, len(s.matches))
	for _, m := range s.matches {
		all = append(all, m)
	}
	s.mu.RUnlock()

	for _, m := range all {
		m.Cancel()
	}
	s.saves.Wait()
	s.logger.Info().Int("cancelled", len(all)).Msg("match service stopped")
}

// ActiveMatches returns the number of live matches.
func (s *Service) ActiveMatches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// Catalog exposes the question catalog backing the service.
func (s *Service) Catalog() *question.Catalog {
	return s.catalog
}

func (s *Service) lookup(matchID uuid.UUID, playerID string) (*Match, error) {
	s.mu.RLock()
	m, ok := s.matches[matchID]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%s: %w", matchID, ErrMatchNotFound)
	}
	if m.PlayerID() != playerID {
		return nil, ErrNotOwner
	}
	return m, nil
}

func (s *Service) forget(matchID uuid.UUID) {
	s.mu.Lock()
	_, ok := s.matches[matchID]
	delete(s.matches, matchID)
	s.mu.Unlock()

	if ok {
		s.metrics.ActiveMatches.Dec()
	}
}

// saveAsync stores results off the match lock. TakeResults for the match
// blocks until the save has finished.
func (s *Service) saveAsync(matchID uuid.UUID, res Results) {
	done := make(chan struct{})
	s.mu.Lock()
	s.saving[matchID] = done
	s.mu.Unlock()

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()

		ctx, cancel := context.WithTimeout(context.Background(), resultsSaveTimeout)
		if err := s.results.Save(ctx, res); err != nil {
			s.logger.Error().Err(err).Str("match_id", matchID.String()).Msg("store results")
		}
		cancel()

		s.mu.Lock()
		delete(s.saving, matchID)
		s.mu.Unlock()
		close(done)
	}()
}

// observe records metrics and bookkeeping before passing events to the host.
// It runs with the match locked and must never take the match lock itself or
// wait on I/O.
func (s *Service) observe(matchID uuid.UUID, next Notifier) Notifier {
	return NotifierFunc(func(e Event) {
		switch e.Type {
		case EventAnswerReveal:
			s.metrics.ObserveAnswer("player", e.Reveal.PlayerAnswer.Correct)
			s.metrics.ObserveAnswer("opponent", e.Reveal.OpponentAnswer.Correct)
		case EventPowerUp:
			s.metrics.PowerUps.WithLabelValues(string(e.PowerUp.Type)).Inc()
		case EventMatchComplete:
			s.saveAsync(matchID, *e.Results)
			s.metrics.MatchesFinished.WithLabelValues(e.Results.Outcome).Inc()
			s.forget(matchID)
		case EventMatchCancelled:
			s.metrics.MatchesFinished.WithLabelValues(OutcomeCancelled).Inc()
			s.forget(matchID)
		}

		if next != nil {
			next.Notify(e)
		}
	})
}
