package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"sniper-duel/internal/arena"
	"sniper-duel/internal/config"
	"sniper-duel/internal/lobby"
	"sniper-duel/internal/protocol"
	"sniper-duel/internal/telemetry"
)

// maxNicknameRunes caps display names taken from the query string.
const maxNicknameRunes = 24

// ServerOptions configures a Server.
type ServerOptions struct {
	Lobby          LobbyInterface
	Arena          *arena.Arena
	Hub            *Hub
	Limits         config.ResourceLimits
	AllowedOrigins []string
	DisableLogging bool
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the match hub for real-time updates.
type Server struct {
	lobby       LobbyInterface
	hub         *Hub
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	sessions    *sessionGate
	limits      config.ResourceLimits
	origins     []string
	upgrader    websocket.Upgrader

	mu         sync.Mutex
	httpServer *http.Server
	runOnce    sync.Once
}

// NewServer creates the API server.
//
// IMPORTANT: The hub does NOT start until Start() or RunWorkers() is called.
// For testing HTTP endpoints without WebSocket support, use NewRouter() directly.
func NewServer(opts ServerOptions) *Server {
	if opts.Hub == nil {
		opts.Hub = NewHub()
	}
	if opts.Limits.MaxWSConnections == 0 {
		opts.Limits = config.DefaultLimits()
	}
	s := &Server{
		lobby:       opts.Lobby,
		hub:         opts.Hub,
		rateLimiter: NewIPRateLimiter(opts.Limits),
		sessions:    newSessionGate(opts.Limits.MaxWSConnectionsPerIP),
		limits:      opts.Limits,
		origins:     opts.AllowedOrigins,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return IsAllowedOrigin(r.Header.Get("Origin"), s.origins)
		},
	}

	s.router = NewRouter(RouterConfig{
		Lobby:          opts.Lobby,
		Arena:          opts.Arena,
		RateLimiter:    s.rateLimiter,
		CORSOrigins:    opts.AllowedOrigins,
		DisableLogging: opts.DisableLogging,
	})

	// WebSocket route needs the hub, so it is added here rather than in NewRouter
	s.router.Get("/ws", s.handleWS)

	return s
}

// RunWorkers starts the hub. Safe to call more than once.
func (s *Server) RunWorkers() {
	s.runOnce.Do(func() {
		go s.hub.Run()
	})
}

// Start runs background workers and serves HTTP until Shutdown.
func (s *Server) Start(addr string) error {
	s.RunWorkers()
	srv := &http.Server{Addr: addr, Handler: s.router}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎯 WebSocket: ws://localhost%s/ws?code=XXXXXX", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the broadcaster sessions subscribe to.
func (s *Server) Hub() *Hub {
	return s.hub
}

// AdmissionStats reports the REST and websocket per-IP limiters.
func (s *Server) AdmissionStats() map[string]LimiterStats {
	return map[string]LimiterStats{
		"http": s.rateLimiter.Stats(),
		"ws":   s.sessions.Stats(),
	}
}

// Shutdown stops accepting requests and closes every session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.hub.Stop()
	s.rateLimiter.Stop()
	return err
}

// handleWS seats the caller in the match named by ?code= and runs its
// session until the connection drops.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ip := GetClientIP(r)

	if total := s.hub.ClientCount(); total >= s.limits.MaxWSConnections {
		log.Printf("⚠️ WebSocket connection rejected: total limit reached (%d)", total)
		telemetry.RecordConnectionRejected("ws_total_limit")
		http.Error(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	origin := r.Header.Get("Origin")
	if !IsAllowedOrigin(origin, s.origins) {
		log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
		telemetry.RecordConnectionRejected("origin")
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	if !s.sessions.Acquire(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		telemetry.RecordConnectionRejected("ws_ip_limit")
		http.Error(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}
	defer s.sessions.Release(ip)

	seat, err := s.lobby.Join(r.URL.Query().Get("code"), sanitizeNickname(r.URL.Query().Get("name")))
	if err != nil {
		telemetry.RecordConnectionRejected(rejectReason(err))
		writeLobbyError(w, err)
		return
	}
	matchID := seat.Match.ID()
	defer s.lobby.Leave(matchID, seat.PlayerID)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	sess := newSession(conn, seatInfo{
		matchID:  matchID,
		playerID: seat.PlayerID,
		nickname: seat.Nickname,
	}, ip, s.lobby, sessionLimits{
		messagesPerSecond: s.limits.MessagesPerSecond,
		burst:             s.limits.MessageBurst,
		maxMessageBytes:   s.limits.MaxMessageBytes,
	})

	// Queue the joined frame first so it precedes every match broadcast
	joined, _ := protocol.Encode(protocol.EventJoined, protocol.Joined{
		PlayerID:   seat.PlayerID,
		MatchID:    matchID,
		InviteCode: seat.Match.InviteCode(),
	})
	sess.enqueue(joined)

	if !s.hub.Register(sess) {
		conn.Close()
		return
	}
	defer s.hub.Unregister(sess)

	s.lobby.Ready(matchID)

	go sess.writePump()
	sess.readPump()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, lobby.ErrMatchNotFound):
		return "not_found"
	case errors.Is(err, lobby.ErrMatchFull):
		return "full"
	default:
		return "closed"
	}
}

// sanitizeNickname trims whitespace and caps the length. Empty names are
// left for the match to default.
func sanitizeNickname(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) <= maxNicknameRunes {
		return name
	}
	runes := []rune(name)
	return string(runes[:maxNicknameRunes])
}
