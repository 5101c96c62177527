package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"sniper-duel/internal/arena"
	"sniper-duel/internal/config"
	"sniper-duel/internal/game"
	"sniper-duel/internal/lobby"
	"sniper-duel/internal/telemetry"
)

// LobbyInterface defines the lobby methods used by the API.
// This interface enables mocking for tests without a real match registry.
type LobbyInterface interface {
	MatchResolver
	Create(settings game.Settings) (*game.Match, error)
	ByCode(code string) (*game.Match, error)
	List() []game.MatchSummary
	Count() int
	Join(code, nickname string) (lobby.Seat, error)
	Ready(matchID string) bool
	Leave(matchID, playerID string)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	limits := config.DefaultLimits()
//	limits.APIRequestsPerSecond = 1000 // High limit for tests
//	router := api.NewRouter(api.RouterConfig{Lobby: l, Limits: limits})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Lobby is the match registry (required)
	Lobby LobbyInterface

	// Arena is the map served at /api/arena. Optional.
	Arena *arena.Arena

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one is built from Limits.
	RateLimiter *IPRateLimiter

	// Limits configures the rate limiter when RateLimiter is nil.
	// Zero fields take config.DefaultLimits.
	Limits config.ResourceLimits

	// CORSOrigins are accepted in addition to localhost.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

type routerHandlers struct {
	lobby LobbyInterface
	arena *arena.Arena
}

// NewRouter constructs the HTTP router with all middleware and REST routes.
//
// IMPORTANT: This function is PURE apart from the rate limiter's cleanup
// goroutine when no RateLimiter is passed in. No listeners are opened, so it
// is safe to use with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewIPRateLimiter(cfg.Limits)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := append([]string{"http://localhost:*", "http://127.0.0.1:*"}, cfg.CORSOrigins...)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{lobby: cfg.Lobby, arena: cfg.Arena}

	r.Route("/api", func(r chi.Router) {
		r.Post("/matches", h.handleCreateMatch)
		r.Get("/matches", h.handleListMatches)
		r.Get("/matches/{code}", h.handleGetMatch)

		if cfg.Arena != nil {
			r.Get("/arena", h.handleGetArena)
			r.Get("/arena/preview.png", h.handleArenaPreview)
		}
	})

	r.Get("/health", h.handleHealth)

	return r
}

// requestMetrics records latency per route pattern so the label stays bounded.
func requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)

		endpoint := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				endpoint = p
			}
		}
		telemetry.RecordRequest(r.Method, endpoint, time.Since(start))
	})
}
