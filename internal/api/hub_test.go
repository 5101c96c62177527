package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"sniper-duel/internal/protocol"
)

func testSession(matchID string, buffer int) *Session {
	return &Session{
		send:     make(chan []byte, buffer),
		matchID:  matchID,
		nickname: matchID + "-player",
		ip:       "127.0.0.1",
	}
}

func recv(t *testing.T, s *Session) []byte {
	t.Helper()
	select {
	case frame := <-s.send:
		return frame
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for frame")
		return nil
	}
}

func TestHubRoutesByMatch(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	a := testSession("m1", 4)
	b := testSession("m2", 4)
	h.Register(a)
	h.Register(b)

	if h.ClientCount() != 2 || h.RoomSize("m1") != 1 {
		t.Fatalf("Expected 2 clients in separate rooms, got %d/%d", h.ClientCount(), h.RoomSize("m1"))
	}

	h.Broadcast("m1", "roundEnd", map[string]string{"reason": "TIME_LIMIT"})

	env, err := protocol.Decode(recv(t, a))
	if err != nil || env.Event != "roundEnd" {
		t.Errorf("Expected roundEnd, got %v (%v)", env.Event, err)
	}
	select {
	case frame := <-b.send:
		t.Errorf("Other match must not receive %s", frame)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsForSlowSession(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	slow := testSession("m1", 1)
	h.Register(slow)

	for i := 0; i < 3; i++ {
		h.Broadcast("m1", "stateUpdate", i)
	}

	deadline := time.Now().Add(time.Second)
	for h.Dropped() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if h.Dropped() != 2 {
		t.Errorf("Expected 2 dropped frames, got %d", h.Dropped())
	}
	recv(t, slow)
}

func TestHubUnregisterClosesQueue(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	s := testSession("m1", 1)
	h.Register(s)
	h.Unregister(s)

	if _, ok := <-s.send; ok {
		t.Error("Expected send queue closed")
	}
	if h.RoomSize("m1") != 0 || h.ClientCount() != 0 {
		t.Error("Expected empty room removed")
	}
	h.Unregister(s) // second unregister is a no-op
}

func TestHubStop(t *testing.T) {
	h := NewHub()
	go h.Run()

	s := testSession("m1", 1)
	h.Register(s)
	h.Stop()
	h.Stop()

	if _, ok := <-s.send; ok {
		t.Error("Expected queue closed on stop")
	}
	if h.Register(testSession("m2", 1)) {
		t.Error("Register must fail after stop")
	}
}

func TestSanitizeNickname(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Alice ", "Alice"},
		{"", ""},
		{"abcdefghijklmnopqrstuvwxyz", "abcdefghijklmnopqrstuvwx"},
	}
	for _, tt := range tests {
		if got := sanitizeNickname(tt.in); got != tt.want {
			t.Errorf("sanitizeNickname(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"remote addr", nil, "10.0.0.1:5555", "10.0.0.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "1.2.3.4, 10.0.0.1"}, "10.0.0.1:1", "1.2.3.4"},
		{"real ip", map[string]string{"X-Real-IP": " 5.6.7.8 "}, "10.0.0.1:1", "5.6.7.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := GetClientIP(r); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIsAllowedOrigin(t *testing.T) {
	extra := []string{"https://duel.example.org", "https://*.example.com"}
	tests := []struct {
		origin string
		want   bool
	}{
		{"http://localhost:5173", true},
		{"http://localhost", true},
		{"http://127.0.0.1:8080", true},
		{"https://duel.example.org", true},
		{"https://play.example.com", true},
		{"https://example.com.evil.test", false},
		{"http://play.example.com", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin, extra); got != tt.want {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestSessionGate(t *testing.T) {
	g := newSessionGate(2)

	if !g.Acquire("1.1.1.1") || !g.Acquire("1.1.1.1") {
		t.Fatal("Expected two slots")
	}
	if g.Acquire("1.1.1.1") {
		t.Error("Third session must be rejected")
	}
	if !g.Acquire("2.2.2.2") {
		t.Error("Other IPs are independent")
	}

	g.Release("1.1.1.1")
	if !g.Acquire("1.1.1.1") {
		t.Error("Expected slot released")
	}

	g.Release("2.2.2.2")
	g.Release("2.2.2.2") // extra release is ignored
	if want := (LimiterStats{Allowed: 4, Rejected: 1, Clients: 1}); g.Stats() != want {
		t.Errorf("Expected %+v, got %+v", want, g.Stats())
	}
}
