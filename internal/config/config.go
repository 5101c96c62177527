// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for match rules, networking and limits.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// MATCH RULES
// =============================================================================

// GameConfig holds the server-authoritative match rules.
type GameConfig struct {
	TickRate     int           // Simulation ticks per second
	RoundTime    time.Duration // Length of a round
	RoundsToWin  int           // Default score target for new matches
	RespawnDelay time.Duration // Victim respawn delay after a fatal hit
	RoundDelay   time.Duration // Pause between ROUND_END and the next round
	RematchDelay time.Duration // Auto-rematch delay after MATCH_END

	MaxHealth    int
	MagazineSize int
	ReserveAmmo  int

	PlayerRadius    float64 // Nominal collision radius
	CollisionLeeway float64 // Multiplier applied to PlayerRadius for movement checks

	LagWindow       time.Duration // Snapshot retention window
	LagTolerance    time.Duration // Max distance to nearest snapshot
	BoltActionTime  time.Duration // Minimum gap between two accepted shots
	EnforceBoltTime bool          // Reject shots faster than BoltActionTime
}

// DefaultGame returns the default match rules.
func DefaultGame() GameConfig {
	return GameConfig{
		TickRate:     30,
		RoundTime:    180 * time.Second,
		RoundsToWin:  999, // Effectively endless deathmatch unless the host changes it
		RespawnDelay: 500 * time.Millisecond,
		RoundDelay:   500 * time.Millisecond,
		RematchDelay: 500 * time.Millisecond,

		MaxHealth:    100,
		MagazineSize: 5,
		ReserveAmmo:  20,

		PlayerRadius:    0.4,
		CollisionLeeway: 0.9,

		LagWindow:       500 * time.Millisecond,
		LagTolerance:    250 * time.Millisecond,
		BoltActionTime:  1500 * time.Millisecond,
		EnforceBoltTime: false,
	}
}

// GameFromEnv returns match rules with environment variable overrides.
func GameFromEnv() GameConfig {
	cfg := DefaultGame()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	if rt := getEnvDuration("ROUND_TIME", 0); rt > 0 {
		cfg.RoundTime = rt
	}
	if rw := getEnvInt("ROUNDS_TO_WIN", 0); rw > 0 {
		cfg.RoundsToWin = rw
	}
	if rd := getEnvDuration("RESPAWN_DELAY", 0); rd > 0 {
		cfg.RespawnDelay = rd
	}
	if lw := getEnvDuration("LAG_WINDOW", 0); lw > 0 {
		cfg.LagWindow = lw
	}
	if lt := getEnvDuration("LAG_TOLERANCE", 0); lt > 0 {
		cfg.LagTolerance = lt
	}
	if pr := getEnvFloat("PLAYER_RADIUS", 0); pr > 0 {
		cfg.PlayerRadius = pr
	}
	cfg.EnforceBoltTime = getEnvBool("ENFORCE_BOLT_ACTION", cfg.EnforceBoltTime)

	return cfg
}

// TickInterval returns the duration between two simulation ticks.
func (c GameConfig) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(c.TickRate)
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	MaxPlayers     int // Per match
	MaxMatches     int
	EventLogPath   string
	ArenaPath      string        // Optional JSON layout; empty uses the built-in map
	IdleMatchTTL   time.Duration // Matches nobody joined are reaped after this
	AllowedOrigins []string
}

// MinIdleMatchTTL is the shortest accepted IDLE_MATCH_TTL. Shorter values
// fall back to the default.
const MinIdleMatchTTL = time.Second

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:         3000,
		MaxPlayers:   6,
		MaxMatches:   500,
		EventLogPath: "events.jsonl",
		IdleMatchTTL: 10 * time.Minute,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mp := getEnvInt("MAX_PLAYERS", 0); mp > 0 {
		cfg.MaxPlayers = mp
	}
	if mm := getEnvInt("MAX_MATCHES", 0); mm > 0 {
		cfg.MaxMatches = mm
	}
	if v, ok := os.LookupEnv("EVENT_LOG_PATH"); ok {
		cfg.EventLogPath = v // Empty disables the file sink
	}
	cfg.ArenaPath = os.Getenv("ARENA_PATH")
	if ttl := getEnvDuration("IDLE_MATCH_TTL", 0); ttl >= MinIdleMatchTTL {
		cfg.IdleMatchTTL = ttl
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// =============================================================================
// TRANSPORT LIMITS
// =============================================================================

// ResourceLimits controls DoS protection for the transport layer.
type ResourceLimits struct {
	MaxWSConnections      int     // Hard cap on concurrent sessions
	MaxWSConnectionsPerIP int     // Per-IP session cap
	MessagesPerSecond     float64 // Inbound messages per session
	MessageBurst          int
	MaxMessageBytes       int64

	APIRequestsPerSecond float64       // REST requests per client IP
	APIBurst             int           // REST burst per client IP
	LimiterIdleTTL       time.Duration // Per-IP buckets unused this long are dropped
}

// DefaultLimits returns the default resource limits.
func DefaultLimits() ResourceLimits {
	return ResourceLimits{
		MaxWSConnections:      500,
		MaxWSConnectionsPerIP: 10,
		MessagesPerSecond:     120, // Movement at 60Hz plus headroom for shots
		MessageBurst:          40,
		MaxMessageBytes:       4096,

		APIRequestsPerSecond: 10,
		APIBurst:             20,
		LimiterIdleTTL:       10 * time.Minute,
	}
}

// LimitsFromEnv returns resource limits with environment variable overrides.
func LimitsFromEnv() ResourceLimits {
	cfg := DefaultLimits()

	if mc := getEnvInt("MAX_WS_CONNECTIONS", 0); mc > 0 {
		cfg.MaxWSConnections = mc
	}
	if mi := getEnvInt("MAX_WS_PER_IP", 0); mi > 0 {
		cfg.MaxWSConnectionsPerIP = mi
	}
	if mps := getEnvFloat("WS_MESSAGES_PER_SECOND", 0); mps > 0 {
		cfg.MessagesPerSecond = mps
	}
	if rps := getEnvFloat("API_RATE_LIMIT", 0); rps > 0 {
		cfg.APIRequestsPerSecond = rps
	}
	if b := getEnvInt("API_RATE_BURST", 0); b > 0 {
		cfg.APIBurst = b
	}

	return cfg
}

// =============================================================================
// OBSERVABILITY
// =============================================================================

// ObservabilityConfig configures the debug server.
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // MUST stay on localhost in production
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservability returns safe defaults.
func DefaultObservability() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// ObservabilityFromEnv returns debug server settings with env overrides.
func ObservabilityFromEnv() ObservabilityConfig {
	cfg := DefaultObservability()
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		cfg.Enabled = false
	}
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	return cfg
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Game          GameConfig
	Server        ServerConfig
	Limits        ResourceLimits
	Observability ObservabilityConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Game:          GameFromEnv(),
		Server:        ServerFromEnv(),
		Limits:        LimitsFromEnv(),
		Observability: ObservabilityFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration accepts Go duration strings ("180s") or plain milliseconds.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(v); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultVal
}
