package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/gokatarajesh/quiz-battle/internal/auth"
	"github.com/gokatarajesh/quiz-battle/internal/auth/jwt"
	"github.com/gokatarajesh/quiz-battle/internal/clock"
	"github.com/gokatarajesh/quiz-battle/internal/config"
	"github.com/gokatarajesh/quiz-battle/internal/logging"
	"github.com/gokatarajesh/quiz-battle/internal/match"
	matchqueue "github.com/gokatarajesh/quiz-battle/internal/match/queue"
	"github.com/gokatarajesh/quiz-battle/internal/metrics"
	"github.com/gokatarajesh/quiz-battle/internal/question"
	"github.com/gokatarajesh/quiz-battle/internal/server"
	ws "github.com/gokatarajesh/quiz-battle/pkg/http/ws"
)

// Application aggregates shared infrastructure (results store, engine, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	redis    *redis.Client
	http     *http.Server
	matchSvc *match.Service
	hub      *ws.Hub
}

// New bootstraps logger, catalog, results store, engine and HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.WithLevel(logging.New(cfg.Name, cfg.Env), cfg.LogLevel)
	logger.Info().Msg("starting application bootstrap")

	catalog, err := question.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	clk := clock.Real()

	var redisClient *redis.Client
	var results match.ResultsStore
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			_ = redisClient.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		results = match.NewRedisResultsStore(redisClient, cfg.Results.TTL, logger)
	} else {
		logger.Warn().Msg("REDIS_ADDR not set; results are kept in memory")
		results = match.NewMemoryResultsStore(clk, cfg.Results.TTL)
	}

	tokens := jwt.NewManager(jwt.TokenConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		TTL:    cfg.Security.SessionTTL,
		Issuer: cfg.Name,
	})
	authSvc := auth.NewService(tokens, logger)
	authHandlers := auth.NewHTTPHandlers(authSvc, logger)

	g := cfg.Gameplay
	matchSvc := match.NewService(catalog, clk, results, m, match.ServiceOptions{
		Timings: match.Timings{
			CountdownSeconds: g.CountdownSeconds,
			QuestionWindow:   g.QuestionWindow,
			RevealDuration:   g.RevealDuration,
			ExtraTime:        g.ExtraTime,
		},
	}, logger)

	finder := matchqueue.NewManager(clk, rand.New(rand.NewSource(time.Now().UnixNano())), matchqueue.Config{
		SearchMin: g.SearchMin,
		SearchMax: g.SearchMax,
		BotRatio:  g.BotRatio,
	}, logger)

	hub := ws.NewHub(logger)
	matchWSHandler := match.NewHandler(matchSvc, finder, hub, authSvc, m, logger)
	matchHTTP := match.NewHTTPHandlers(matchSvc, logger)

	apiServer := server.NewHTTPServer(cfg, logger, reg, redisClient, server.Routes{
		CreateGuest:  authHandlers.CreateGuest,
		Me:           authHandlers.Me,
		Catalog:      matchHTTP.Catalog,
		MatchResults: matchHTTP.Results,
		MatchWS:      matchWSHandler.HandleWebSocket,
		Auth:         auth.AuthMiddleware(authSvc, logger),
	})

	return &Application{
		cfg:      cfg,
		logger:   logger,
		redis:    redisClient,
		http:     apiServer,
		matchSvc: matchSvc,
		hub:      hub,
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("shutdown signal received")
		return a.shutdown()
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
		errs = append(errs, err)
	}

	a.matchSvc.Shutdown()
	a.hub.CloseAll()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error().Err(err).Msg("redis shutdown error")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
