package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"quiz-battle"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	LogLevel                string        `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Security Security
	Gameplay Gameplay
	Catalog  Catalog
	Redis    Redis
	Results  Results
	CORS     CORS
}

// Security stores secrets for signing session tokens.
type Security struct {
	JWTSecret  string        `env:"JWT_SECRET,notEmpty"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"12h"`
}

// Gameplay groups match pacing and matchmaking knobs.
type Gameplay struct {
	CountdownSeconds int           `env:"COUNTDOWN_SECONDS" envDefault:"3"`
	QuestionWindow   time.Duration `env:"QUESTION_WINDOW" envDefault:"10s"`
	RevealDuration   time.Duration `env:"REVEAL_DURATION" envDefault:"3s"`
	ExtraTime        time.Duration `env:"EXTRA_TIME" envDefault:"10s"`
	SearchMin        time.Duration `env:"MATCHMAKING_SEARCH_MIN" envDefault:"2s"`
	SearchMax        time.Duration `env:"MATCHMAKING_SEARCH_MAX" envDefault:"6s"`
	BotRatio         float64       `env:"MATCHMAKING_BOT_RATIO" envDefault:"0.5"`
}

// Catalog points at an optional question file. Empty uses the embedded default.
type Catalog struct {
	Path string `env:"CATALOG_PATH" envDefault:""`
}

// Redis holds the results store connection. Empty Addr selects the in-memory store.
type Redis struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Results governs how long completed match results wait for collection.
type Results struct {
	TTL time.Duration `env:"RESULTS_TTL" envDefault:"10m"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	MaxAge         int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Gameplay.validate(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (g Gameplay) validate() error {
	switch {
	case g.CountdownSeconds < 0:
		return fmt.Errorf("COUNTDOWN_SECONDS must not be negative")
	case g.QuestionWindow <= 0:
		return fmt.Errorf("QUESTION_WINDOW must be positive")
	case g.SearchMax < g.SearchMin:
		return fmt.Errorf("MATCHMAKING_SEARCH_MAX is below MATCHMAKING_SEARCH_MIN")
	case g.BotRatio < 0 || g.BotRatio > 1:
		return fmt.Errorf("MATCHMAKING_BOT_RATIO must be within [0,1]")
	}
	return nil
}
