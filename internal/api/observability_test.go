package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"sniper-duel/internal/config"
)

func TestDebugHandlerHealth(t *testing.T) {
	h := NewDebugHandler(config.ObservabilityConfig{}, func() map[string]interface{} {
		return map[string]interface{}{"matches": 3}
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&body)
	if body["status"] != "ok" || body["matches"] != float64(3) {
		t.Errorf("Unexpected health body %v", body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected metrics endpoint, got %d", rec.Code)
	}
}

func TestDebugHandlerBasicAuth(t *testing.T) {
	h := NewDebugHandler(config.ObservabilityConfig{BasicAuthUser: "ops", BasicAuthPass: "pw"}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without credentials, got %d", rec.Code)
	}

	req := httptest.NewRequest("GET", "/health", nil)
	req.SetBasicAuth("ops", "pw")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 with credentials, got %d", rec.Code)
	}
}

func TestIsLocalAddr(t *testing.T) {
	for addr, want := range map[string]bool{
		"127.0.0.1:6060": true,
		"localhost:7000": true,
		"0.0.0.0:6060":   false,
		":6060":          false,
	} {
		if got := isLocalAddr(addr); got != want {
			t.Errorf("isLocalAddr(%q) = %v, want %v", addr, got, want)
		}
	}
}
