package game

import (
	"encoding/json"
	"time"
)

// EventType enum for journal event classification
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypePlayerJoin
	EventTypePlayerLeave
	EventTypeMatchStart
	EventTypeRoundStart
	EventTypeRoundEnd
	EventTypeShot
	EventTypeHit
	EventTypeKill
	EventTypeRespawn
	EventTypeMatchEnd
	EventTypeMatchReset
	EventTypeSettings
)

// EventVersion for backwards compatibility of the journal format
const EventVersion uint8 = 1

// Event is one journal line
type Event struct {
	Version   uint8           `json:"version"`
	Type      EventType       `json:"type"`
	Name      string          `json:"name"`
	Timestamp int64           `json:"timestamp"` // Unix nano
	Sequence  uint64          `json:"sequence"`  // Monotonic sequence
	MatchID   string          `json:"matchId"`
	TickNum   uint64          `json:"tickNum"`
	PlayerID  string          `json:"playerId"` // Source player (for rate limiting)
	Payload   json.RawMessage `json:"payload"`
}

// String returns human-readable event type
func (t EventType) String() string {
	switch t {
	case EventTypePlayerJoin:
		return "player_join"
	case EventTypePlayerLeave:
		return "player_leave"
	case EventTypeMatchStart:
		return "match_start"
	case EventTypeRoundStart:
		return "round_start"
	case EventTypeRoundEnd:
		return "round_end"
	case EventTypeShot:
		return "shot"
	case EventTypeHit:
		return "hit"
	case EventTypeKill:
		return "kill"
	case EventTypeRespawn:
		return "respawn"
	case EventTypeMatchEnd:
		return "match_end"
	case EventTypeMatchReset:
		return "match_reset"
	case EventTypeSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// Typed payloads not covered by the broadcast events

// PlayerJoinPayload contains player join details
type PlayerJoinPayload struct {
	PlayerID string `json:"playerId"`
	Nickname string `json:"nickname"`
	Spawn    Vec3   `json:"spawn"`
}

// PlayerLeavePayload contains player leave details
type PlayerLeavePayload struct {
	PlayerID  string `json:"playerId"`
	Remaining int    `json:"remaining"`
}

// ShotPayload records a resolved shot
type ShotPayload struct {
	ShooterID   string  `json:"shooterId"`
	Origin      Vec3    `json:"origin"`
	Direction   Vec3    `json:"direction"`
	ClientTime  int64   `json:"clientTime"` // Unix milli
	Hit         bool    `json:"hit"`
	VictimID    string  `json:"victimId,omitempty"`
	Region      Region  `json:"region,omitempty"`
	Distance    float64 `json:"distance,omitempty"`
	Compensated bool    `json:"compensated"`
}

// EncodePayload marshals a payload to JSON bytes
func EncodePayload(payload interface{}) json.RawMessage {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, matchID string, tickNum uint64, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Name:      eventType.String(),
		Timestamp: time.Now().UnixNano(),
		MatchID:   matchID,
		TickNum:   tickNum,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
