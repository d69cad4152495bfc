package server

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-battle/internal/config"
	"github.com/gokatarajesh/quiz-battle/internal/logging"
)

// RequestIDHeader carries the request id, echoed back when the client sets it.
const RequestIDHeader = "X-Request-ID"

// WSUpgrader handles WebSocket upgrades. Origins are checked by the CORS layer.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Routes are the feature handlers mounted on the API mux. Nil handlers are skipped.
type Routes struct {
	CreateGuest  http.HandlerFunc
	Me           http.HandlerFunc
	Catalog      http.HandlerFunc
	MatchResults http.HandlerFunc
	MatchWS      http.HandlerFunc
	// Auth wraps routes that read session claims.
	Auth func(http.Handler) http.Handler
}

// NewHTTPServer wires base routes (health, metrics) plus the battle API.
// redis may be nil when results are kept in memory.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, gatherer prometheus.Gatherer, redis *redis.Client, routes Routes) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if redis != nil {
			if err := redis.Ping(r.Context()).Err(); err != nil {
				logger.Error().Err(err).Msg("redis ping failed")
				http.Error(w, "upstream error", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ready":true}`))
	})

	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	auth := routes.Auth
	if auth == nil {
		auth = func(next http.Handler) http.Handler { return next }
	}

	if routes.CreateGuest != nil {
		mux.HandleFunc("/v1/session/guest", routes.CreateGuest)
	}
	if routes.Me != nil {
		mux.Handle("/v1/session/me", auth(routes.Me))
	}
	if routes.Catalog != nil {
		mux.HandleFunc("/v1/catalog", routes.Catalog)
	}
	if routes.MatchResults != nil {
		mux.Handle("/v1/matches/{id}/results", auth(routes.MatchResults))
	}

	if routes.MatchWS != nil {
		mux.HandleFunc("/ws/matches", routes.MatchWS)
	} else {
		mux.HandleFunc("/ws/matches", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "WebSocket handler not configured", http.StatusNotImplemented)
		})
	}

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: withCORS(cfg.CORS, withRequestLogger(logger, mux)),
	}
}

// withRequestLogger tags each request with an id and stores a request-scoped
// logger in its context for logging.FromContext.
func withRequestLogger(logger zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		reqLogger := logger.With().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		next.ServeHTTP(w, r.WithContext(logging.IntoContext(r.Context(), reqLogger)))
	})
}

// withCORS answers preflight requests and tags responses for allowed origins.
func withCORS(cfg config.CORS, next http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	maxAge := strconv.Itoa(cfg.MaxAge)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (slices.Contains(cfg.AllowedOrigins, origin) || slices.Contains(cfg.AllowedOrigins, "*")) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", headers)
			h.Set("Access-Control-Max-Age", maxAge)
			h.Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
