package config

import (
	"testing"
	"time"
)

func TestDefaultGameMatchesRules(t *testing.T) {
	cfg := DefaultGame()

	if cfg.TickInterval() != time.Second/30 {
		t.Errorf("Expected 30 TPS interval, got %v", cfg.TickInterval())
	}
	if cfg.RoundTime != 180*time.Second {
		t.Errorf("Expected 180s rounds, got %v", cfg.RoundTime)
	}
	if cfg.LagWindow != 500*time.Millisecond || cfg.LagTolerance != 250*time.Millisecond {
		t.Errorf("Unexpected lag compensation window %v / %v", cfg.LagWindow, cfg.LagTolerance)
	}
	if cfg.MagazineSize != 5 || cfg.ReserveAmmo != 20 {
		t.Errorf("Unexpected ammo defaults %d/%d", cfg.MagazineSize, cfg.ReserveAmmo)
	}
}

func TestGameFromEnv(t *testing.T) {
	t.Setenv("TICK_RATE", "60")
	t.Setenv("ROUND_TIME", "90s")
	t.Setenv("RESPAWN_DELAY", "250")
	t.Setenv("ENFORCE_BOLT_ACTION", "true")

	cfg := GameFromEnv()
	if cfg.TickRate != 60 {
		t.Errorf("Expected tick rate 60, got %d", cfg.TickRate)
	}
	if cfg.RoundTime != 90*time.Second {
		t.Errorf("Expected 90s, got %v", cfg.RoundTime)
	}
	if cfg.RespawnDelay != 250*time.Millisecond {
		t.Errorf("Expected plain milliseconds to parse, got %v", cfg.RespawnDelay)
	}
	if !cfg.EnforceBoltTime {
		t.Error("Expected bolt action enforcement from env")
	}
}

func TestServerFromEnvIgnoresGarbage(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("EVENT_LOG_PATH", "")

	cfg := ServerFromEnv()
	if cfg.Port != 3000 {
		t.Errorf("Expected default port on bad input, got %d", cfg.Port)
	}
	if cfg.EventLogPath != "" {
		t.Errorf("Expected empty event log path to disable the sink, got %q", cfg.EventLogPath)
	}
}

func TestServerFromEnvOptionalFields(t *testing.T) {
	t.Setenv("ARENA_PATH", "maps/yard.json")
	t.Setenv("ALLOWED_ORIGINS", "https://duel.example.org, ,https://*.example.com")
	t.Setenv("IDLE_MATCH_TTL", "2m")

	cfg := ServerFromEnv()
	if cfg.ArenaPath != "maps/yard.json" {
		t.Errorf("Unexpected arena path %q", cfg.ArenaPath)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://*.example.com" {
		t.Errorf("Expected 2 trimmed origins, got %q", cfg.AllowedOrigins)
	}
	if cfg.IdleMatchTTL != 2*time.Minute {
		t.Errorf("Expected 2m ttl, got %v", cfg.IdleMatchTTL)
	}
}

func TestObservabilityFromEnv(t *testing.T) {
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("DEBUG_USER", "ops")
	t.Setenv("DEBUG_PASS", "secret")

	cfg := ObservabilityFromEnv()
	if cfg.Enabled {
		t.Error("Expected debug server disabled")
	}
	if cfg.BasicAuthUser != "ops" || cfg.BasicAuthPass != "secret" {
		t.Errorf("Unexpected auth %q/%q", cfg.BasicAuthUser, cfg.BasicAuthPass)
	}
	if cfg.ListenAddr != "127.0.0.1:6060" {
		t.Errorf("Expected localhost listen addr, got %q", cfg.ListenAddr)
	}
}

func TestServerFromEnvRejectsTinyIdleTTL(t *testing.T) {
	for _, v := range []string{"1ns", "500ms", "0"} {
		t.Setenv("IDLE_MATCH_TTL", v)
		if got := ServerFromEnv().IdleMatchTTL; got != 10*time.Minute {
			t.Errorf("IDLE_MATCH_TTL=%s: expected default ttl, got %v", v, got)
		}
	}

	t.Setenv("IDLE_MATCH_TTL", "1s")
	if got := ServerFromEnv().IdleMatchTTL; got != MinIdleMatchTTL {
		t.Errorf("Expected the 1s floor to be accepted, got %v", got)
	}
}

func TestLimitsFromEnv(t *testing.T) {
	t.Setenv("MAX_WS_PER_IP", "3")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("API_RATE_BURST", "-4")

	cfg := LimitsFromEnv()
	if cfg.MaxWSConnectionsPerIP != 3 {
		t.Errorf("Expected 3 sessions per IP, got %d", cfg.MaxWSConnectionsPerIP)
	}
	if cfg.APIRequestsPerSecond != 2.5 {
		t.Errorf("Expected 2.5 req/s, got %v", cfg.APIRequestsPerSecond)
	}
	if cfg.APIBurst != 20 {
		t.Errorf("Expected default burst on a negative value, got %d", cfg.APIBurst)
	}
	if cfg.MaxWSConnections != 500 || cfg.LimiterIdleTTL != 10*time.Minute {
		t.Errorf("Unexpected untouched defaults %+v", cfg)
	}
}
