package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/clock"
)

// ErrResultsNotFound means the results were never stored, already taken, or expired.
var ErrResultsNotFound = errors.New("results not found")

// ResultsStore hands completed results to the host exactly once.
type ResultsStore interface {
	Save(ctx context.Context, res Results) error
	// Take returns and deletes the results playerID has waiting for matchID.
	Take(ctx context.Context, playerID, matchID string) (Results, error)
}

// RedisResultsStore keeps results in Redis with a TTL.
type RedisResultsStore struct {
	redis  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisResultsStore creates a store backed by Redis.
func NewRedisResultsStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisResultsStore {
	return &RedisResultsStore{
		redis:  client,
		ttl:    ttl,
		logger: logger,
	}
}

func resultsKey(playerID, matchID string) string {
	return fmt.Sprintf("match:results:%s:%s", playerID, matchID)
}

// Save stores res until it is taken or the TTL passes.
func (s *RedisResultsStore) Save(ctx context.Context, res Results) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := s.redis.Set(ctx, resultsKey(res.PlayerID, res.MatchID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("store results: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the results.
func (s *RedisResultsStore) Take(ctx context.Context, playerID, matchID string) (Results, error) {
	data, err := s.redis.GetDel(ctx, resultsKey(playerID, matchID)).Bytes()
	if err == redis.Nil {
		return Results{}, ErrResultsNotFound
	}
	if err != nil {
		return Results{}, fmt.Errorf("take results: %w", err)
	}

	var res Results
	if err := json.Unmarshal(data, &res); err != nil {
		s.logger.Warn().Err(err).Str("match_id", matchID).Msg("drop corrupted results")
		return Results{}, fmt.Errorf("unmarshal results: %w", err)
	}
	return res, nil
}

// MemoryResultsStore is the in-process store used when Redis is not configured.
type MemoryResultsStore struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	entries map[string]memoryEntry
}

type memoryEntry struct {
	res       Results
	expiresAt time.Time
}

// NewMemoryResultsStore creates an in-memory store. Expired entries are dropped lazily.
func NewMemoryResultsStore(clk clock.Clock, ttl time.Duration) *MemoryResultsStore {
	if clk == nil {
		clk = clock.Real()
	}
	return &MemoryResultsStore{
		clock:   clk,
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemoryResultsStore) Save(_ context.Context, res Results) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	for id, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, id)
		}
	}
	s.entries[resultsKey(res.PlayerID, res.MatchID)] = memoryEntry{res: res, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryResultsStore) Take(_ context.Context, playerID, matchID string) (Results, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := resultsKey(playerID, matchID)
	e, ok := s.entries[key]
	if !ok {
		return Results{}, ErrResultsNotFound
	}
	delete(s.entries, key)
	if !s.clock.Now().Before(e.expiresAt) {
		return Results{}, ErrResultsNotFound
	}
	return e.res, nil
}
