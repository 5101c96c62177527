package protocol

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sniper-duel/internal/game"
)

func TestEncodeEnvelope(t *testing.T) {
	data, err := Encode("playerFired", game.PlayerFiredEvent{ShooterID: "a"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"event":"playerFired","data":{"shooterId":"a"}}`
	if string(data) != want {
		t.Errorf("Expected %s, got %s", want, data)
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		event   string
		wantErr bool
	}{
		{"reload without data", `{"event":"reload"}`, EventReload, false},
		{"with data", `{"event":"scopeToggle","data":{"scoped":true}}`, EventScopeToggle, false},
		{"missing event", `{"data":{}}`, "", true},
		{"not json", `hello`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Decode([]byte(tt.frame))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error=%v, got %v", tt.wantErr, err)
			}
			if env.Event != tt.event {
				t.Errorf("Expected event %q, got %q", tt.event, env.Event)
			}
		})
	}

	if _, err := Decode([]byte(`{}`)); !errors.Is(err, ErrMissingEvent) {
		t.Errorf("Expected ErrMissingEvent, got %v", err)
	}
}

func TestBindShoot(t *testing.T) {
	env, err := Decode([]byte(`{"event":"shoot","data":{"position":{"x":1,"y":1.6,"z":2},"direction":{"x":0,"y":0,"z":-1},"timestamp":1700000000123,"accuracy":0.95}}`))
	if err != nil {
		t.Fatal(err)
	}
	var s Shoot
	if err := env.Bind(&s); err != nil {
		t.Fatal(err)
	}

	shot := s.Shot("p1", time.Unix(0, 0))
	if shot.ShooterID != "p1" || shot.Origin != (game.Vec3{X: 1, Y: 1.6, Z: 2}) || shot.Direction.Z != -1 {
		t.Errorf("Unexpected shot %+v", shot)
	}
	if shot.ClientTime.UnixMilli() != 1700000000123 {
		t.Errorf("Expected millisecond client time, got %v", shot.ClientTime)
	}

	received := time.Unix(500, 0)
	if got := (Shoot{}).Shot("p1", received).ClientTime; !got.Equal(received) {
		t.Errorf("Expected receive-time fallback, got %v", got)
	}
}

func TestBindMovementAndSettings(t *testing.T) {
	env, _ := Decode([]byte(`{"event":"movement","data":{"position":{"x":3,"y":0,"z":4},"rotation":{"pitch":0.1,"yaw":1.2},"velocity":{"x":0,"y":0,"z":0},"grounded":true,"crouching":false}}`))
	var m Movement
	if err := env.Bind(&m); err != nil {
		t.Fatal(err)
	}
	in := m.Input()
	if in.Position.X != 3 || in.Rotation.Yaw != 1.2 || !in.Grounded {
		t.Errorf("Unexpected movement input %+v", in)
	}

	env, _ = Decode([]byte(`{"event":"settingsUpdate","data":{"rounds":5,"infiniteAmmo":true}}`))
	var patch SettingsUpdate
	if err := env.Bind(&patch); err != nil {
		t.Fatal(err)
	}
	if patch.RoundsToWin == nil || *patch.RoundsToWin != 5 || patch.InfiniteAmmo == nil || !*patch.InfiniteAmmo || patch.AutoRematch != nil {
		t.Errorf("Unexpected patch %+v", patch)
	}
}

func TestBindNullLeavesTarget(t *testing.T) {
	env := Envelope{Event: EventScopeToggle, Data: json.RawMessage("null")}
	s := ScopeToggle{Scoped: true}
	if err := env.Bind(&s); err != nil || !s.Scoped {
		t.Errorf("Expected untouched target, got %+v (%v)", s, err)
	}
}
