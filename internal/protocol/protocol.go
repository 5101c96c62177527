// Package protocol defines the JSON messages exchanged over a match
// websocket. Every frame is an envelope {"event": name, "data": payload}.
package protocol

import (
	"encoding/json"
	"errors"
	"time"

	"sniper-duel/internal/game"
)

// Inbound events (client -> server).
const (
	EventMovement       = "movement"
	EventShoot          = "shoot"
	EventReload         = "reload"
	EventScopeToggle    = "scopeToggle"
	EventRematchRequest = "rematchRequest"
	EventSettingsUpdate = "settingsUpdate"
)

// EventJoined is unicast to a client once it has a seat.
const EventJoined = "joined"

var ErrMissingEvent = errors.New("envelope has no event")

// Envelope is one websocket frame.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// outbound is the encode-side envelope; Data is marshalled in place.
type outbound struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Encode builds a frame for event with data as payload.
func Encode(event string, data interface{}) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: data})
}

// Decode parses a frame. The payload is left raw for Bind.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, err
	}
	if env.Event == "" {
		return Envelope{}, ErrMissingEvent
	}
	return env, nil
}

// Bind unmarshals the payload into v. An absent payload leaves v untouched.
func (e Envelope) Bind(v interface{}) error {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Movement is the client-proposed transform.
type Movement struct {
	Position  game.Vec3     `json:"position"`
	Rotation  game.Rotation `json:"rotation"`
	Velocity  game.Vec3     `json:"velocity"`
	Grounded  bool          `json:"grounded"`
	Crouching bool          `json:"crouching"`
}

// Input converts to the match input type.
func (m Movement) Input() game.MovementInput {
	return game.MovementInput{
		Position:  m.Position,
		Rotation:  m.Rotation,
		Velocity:  m.Velocity,
		Grounded:  m.Grounded,
		Crouching: m.Crouching,
	}
}

// Shoot is a firing claim. Timestamp is the client clock in Unix
// milliseconds. Accuracy is the client's own spread estimate and is only
// recorded, never trusted.
type Shoot struct {
	Position  game.Vec3 `json:"position"`
	Direction game.Vec3 `json:"direction"`
	Timestamp int64     `json:"timestamp"`
	Accuracy  float64   `json:"accuracy"`
}

// Shot converts to the match shot type. A missing timestamp falls back to
// the server receive time.
func (s Shoot) Shot(shooterID string, received time.Time) game.Shot {
	at := received
	if s.Timestamp > 0 {
		at = time.UnixMilli(s.Timestamp)
	}
	return game.Shot{
		ShooterID:  shooterID,
		Origin:     s.Position,
		Direction:  s.Direction,
		ClientTime: at,
	}
}

// ScopeToggle carries the advisory scope flag.
type ScopeToggle struct {
	Scoped bool `json:"scoped"`
}

// SettingsUpdate is a partial settings patch.
type SettingsUpdate = game.SettingsPatch

// Joined tells a client who it is.
type Joined struct {
	PlayerID   string `json:"playerId"`
	MatchID    string `json:"matchId"`
	InviteCode string `json:"inviteCode"`
}
