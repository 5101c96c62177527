package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"sniper-duel/internal/api"
	"sniper-duel/internal/game"
	"sniper-duel/internal/lobby"
	"sniper-duel/internal/protocol"
)

type wsEnv struct {
	ts    *httptest.Server
	lobby *lobby.Lobby
	hub   *api.Hub
}

func newWSEnv(t *testing.T, origins []string) *wsEnv {
	t.Helper()
	hub := api.NewHub()
	l := newLobby(10, hub)
	srv := api.NewServer(api.ServerOptions{
		Lobby:          l,
		Hub:            hub,
		Limits:         testLimits,
		AllowedOrigins: origins,
		DisableLogging: true,
	})
	srv.RunWorkers()
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		l.Shutdown()
		hub.Stop()
	})
	return &wsEnv{ts: ts, lobby: l, hub: hub}
}

func (e *wsEnv) dial(t *testing.T, code, name, origin string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.ts.URL, "http") + "/ws?code=" + code + "&name=" + name
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

// readUntil reads frames until one with the wanted event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string) protocol.Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("Waiting for %s: %v", event, err)
		}
		env, err := protocol.Decode(frame)
		if err != nil {
			t.Fatalf("Bad frame %s: %v", frame, err)
		}
		if env.Event == event {
			return env
		}
	}
}

func TestWebSocketJoinAndStart(t *testing.T) {
	e := newWSEnv(t, nil)
	m, _ := e.lobby.Create(game.Settings{})

	a, _, err := e.dial(t, m.InviteCode(), "Alice", "http://localhost:5173")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer a.Close()

	// The joined frame is always first.
	a.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := a.ReadMessage()
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	env, _ := protocol.Decode(frame)
	if env.Event != protocol.EventJoined {
		t.Fatalf("Expected joined first, got %s", env.Event)
	}
	var joined protocol.Joined
	env.Bind(&joined)
	if joined.MatchID != m.ID() || joined.InviteCode != m.InviteCode() || joined.PlayerID == "" {
		t.Errorf("Unexpected joined payload %+v", joined)
	}

	b, _, err := e.dial(t, strings.ToLower(m.InviteCode()), "Bob", "http://localhost:5173")
	if err != nil {
		t.Fatalf("Second dial failed: %v", err)
	}
	defer b.Close()

	readUntil(t, b, protocol.EventJoined)
	readUntil(t, b, game.EventMatchStart)
	readUntil(t, a, game.EventMatchStart)
	readUntil(t, a, game.EventRoundStart)

	if m.Status() != game.StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", m.Status())
	}

	// Inbound frames are dispatched to the match.
	a.WriteMessage(websocket.TextMessage, []byte(`{"event":"settingsUpdate","data":{"infiniteAmmo":true}}`))
	readUntil(t, b, game.EventSettingsUpdated)
	if !m.Settings().InfiniteAmmo {
		t.Error("Expected settings patch applied")
	}
}

func TestWebSocketDisconnectLeavesMatch(t *testing.T) {
	e := newWSEnv(t, nil)
	m, _ := e.lobby.Create(game.Settings{})

	a, _, err := e.dial(t, m.InviteCode(), "Alice", "http://localhost:3000")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	readUntil(t, a, protocol.EventJoined)
	a.Close()

	deadline := time.Now().Add(2 * time.Second)
	for e.lobby.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if e.lobby.Count() != 0 {
		t.Error("Expected empty match torn down after disconnect")
	}
}

func TestWebSocketRejections(t *testing.T) {
	e := newWSEnv(t, []string{"https://*.example.com"})
	m, _ := e.lobby.Create(game.Settings{})

	tests := []struct {
		name       string
		code       string
		origin     string
		wantStatus int
	}{
		{"unknown code", "ZZZZZZ", "http://localhost:5173", http.StatusNotFound},
		{"foreign origin", m.InviteCode(), "https://evil.test", http.StatusForbidden},
		{"missing origin", m.InviteCode(), "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn, resp, err := e.dial(t, tt.code, "x", tt.origin)
			if err == nil {
				conn.Close()
				t.Fatal("Expected dial to fail")
			}
			if resp == nil || resp.StatusCode != tt.wantStatus {
				t.Errorf("Expected %d, got %+v", tt.wantStatus, resp)
			}
		})
	}

	if m.PlayerCount() != 0 {
		t.Errorf("Rejected dials must not take seats, got %d", m.PlayerCount())
	}

	// Configured wildcard origin is accepted.
	conn, _, err := e.dial(t, m.InviteCode(), "ok", "https://play.example.com")
	if err != nil {
		t.Fatalf("Expected wildcard origin accepted: %v", err)
	}
	conn.Close()
}

func TestWebSocketMatchFull(t *testing.T) {
	e := newWSEnv(t, nil)
	m, _ := e.lobby.Create(game.Settings{})

	for _, name := range []string{"a", "b"} {
		conn, _, err := e.dial(t, m.InviteCode(), name, "http://localhost:5173")
		if err != nil {
			t.Fatalf("Dial %s failed: %v", name, err)
		}
		defer conn.Close()
		readUntil(t, conn, protocol.EventJoined)
	}

	_, resp, err := e.dial(t, m.InviteCode(), "c", "http://localhost:5173")
	if err == nil || resp == nil || resp.StatusCode != http.StatusConflict {
		t.Errorf("Expected 409 for a full match, got %v", resp)
	}
}

func TestWebSocketIgnoresBadFrames(t *testing.T) {
	e := newWSEnv(t, nil)
	m, _ := e.lobby.Create(game.Settings{})

	a, _, err := e.dial(t, m.InviteCode(), "Alice", "http://localhost:5173")
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer a.Close()
	readUntil(t, a, protocol.EventJoined)

	for _, frame := range []string{`not json`, `{"data":{}}`, `{"event":"teleport"}`, `{"event":"shoot","data":"x"}`} {
		if err := a.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	// The session survives and still dispatches.
	a.WriteMessage(websocket.TextMessage, []byte(`{"event":"settingsUpdate","data":{"rounds":2}}`))
	env := readUntil(t, a, game.EventSettingsUpdated)
	var ev game.SettingsUpdatedEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		t.Fatalf("Bad settings payload: %v", err)
	}
	if ev.Settings.RoundsToWin != 2 {
		t.Errorf("Expected rounds 2, got %d", ev.Settings.RoundsToWin)
	}
}
