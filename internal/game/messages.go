package game

// Outbound event names, as sent to every participant of a match.
const (
	EventMatchStart      = "matchStart"
	EventRoundStart      = "roundStart"
	EventStateUpdate     = "stateUpdate"
	EventPlayerFired     = "playerFired"
	EventHitConfirmed    = "hitConfirmed"
	EventPlayerDied      = "playerDied"
	EventPlayerRespawn   = "playerRespawn"
	EventRoundEnd        = "roundEnd"
	EventMatchEnd        = "matchEnd"
	EventMatchReset      = "matchReset"
	EventSettingsUpdated = "settingsUpdated"
)

// Round end reasons.
const (
	ReasonTimeLimit = "TIME_LIMIT"
)

// Broadcaster delivers an event to every participant of a match.
// Delivery is fire-and-forget: no ack, no retry, no backpressure.
// Broadcast is called with the match lock held and must not block.
type Broadcaster interface {
	Broadcast(matchID, event string, data interface{})
}

// BroadcasterFunc adapts a function to Broadcaster.
type BroadcasterFunc func(matchID, event string, data interface{})

// Broadcast implements Broadcaster.
func (f BroadcasterFunc) Broadcast(matchID, event string, data interface{}) {
	f(matchID, event, data)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, string, interface{}) {}

// MatchStartEvent announces WAITING -> IN_PROGRESS.
type MatchStartEvent struct {
	Round       int            `json:"round"`
	Scores      map[string]int `json:"scores"`
	RoundsToWin int            `json:"roundsToWin"`
}

// SpawnInfo is one player's starting transform for a round.
type SpawnInfo struct {
	SpawnPosition Vec3     `json:"spawnPosition"`
	SpawnRotation Rotation `json:"spawnRotation"`
}

// RosterEntry carries display data for one player.
type RosterEntry struct {
	Nickname string `json:"nickname"`
}

// RoundStartEvent is sent at the start of every round.
type RoundStartEvent struct {
	Round       int                    `json:"round"`
	Scores      map[string]int         `json:"scores"`
	Spawns      map[string]SpawnInfo   `json:"spawns"`
	Players     map[string]RosterEntry `json:"players"`
	RoundsToWin int                    `json:"roundsToWin"`
}

// PlayerStateUpdate is the per-player part of a state update.
type PlayerStateUpdate struct {
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
	Health   int      `json:"health"`
	IsDead   bool     `json:"isDead"`
	Nickname string   `json:"nickname"`
	IsScoped bool     `json:"isScoped"`
	Kills    int      `json:"kills"`
	Deaths   int      `json:"deaths"`
}

// StateUpdateEvent is broadcast once per tick.
type StateUpdateEvent struct {
	Tick          uint64                       `json:"tick"`
	Round         int                          `json:"round"`
	Scores        map[string]int               `json:"scores"`
	TimeRemaining float64                      `json:"timeRemaining"`
	RoundsToWin   int                          `json:"roundsToWin"`
	Players       map[string]PlayerStateUpdate `json:"players"`
}

// PlayerFiredEvent is audiovisual feedback for an accepted shot.
type PlayerFiredEvent struct {
	ShooterID string `json:"shooterId"`
}

// HitConfirmedEvent is sent for every hit, fatal or not.
type HitConfirmedEvent struct {
	ShooterID       string `json:"shooterId"`
	VictimID        string `json:"victimId"`
	ShooterNickname string `json:"shooterNickname"`
	VictimNickname  string `json:"victimNickname"`
	Hitbox          Region `json:"hitbox"`
	Damage          int    `json:"damage"`
	Fatal           bool   `json:"fatal"`
	ImpactPoint     Vec3   `json:"impactPoint"`
}

// PlayerDiedEvent announces a kill.
type PlayerDiedEvent struct {
	VictimID       string `json:"victimId"`
	KillerID       string `json:"killerId"`
	VictimNickname string `json:"victimNickname"`
	KillerNickname string `json:"killerNickname"`
	Hitbox         Region `json:"hitbox"`
}

// PlayerRespawnEvent announces a respawn after the delay.
type PlayerRespawnEvent struct {
	PlayerID string   `json:"playerId"`
	Position Vec3     `json:"position"`
	Rotation Rotation `json:"rotation"`
}

// RoundEndEvent closes a round. WinnerID is nil for time limit endings.
type RoundEndEvent struct {
	Reason   string         `json:"reason"`
	WinnerID *string        `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
}

// MatchEndEvent closes a match.
type MatchEndEvent struct {
	WinnerID string         `json:"winnerId"`
	Scores   map[string]int `json:"scores"`
}

// MatchResetEvent is sent right before a rematch starts.
type MatchResetEvent struct {
	Round       int            `json:"round"`
	Scores      map[string]int `json:"scores"`
	RoundsToWin int            `json:"roundsToWin"`
}

// SettingsUpdatedEvent carries the full merged settings.
type SettingsUpdatedEvent struct {
	Settings Settings `json:"settings"`
}
