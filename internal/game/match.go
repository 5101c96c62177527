package game

import (
	"fmt"
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"sniper-duel/internal/config"
	"sniper-duel/internal/telemetry"
)

// Status is the match lifecycle phase.
//
// The original protocol also declared a STARTING phase that nothing ever
// entered; WAITING -> IN_PROGRESS is immediate here.
type Status string

const (
	StatusWaiting    Status = "WAITING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusRoundEnd   Status = "ROUND_END"
	StatusMatchEnd   Status = "MATCH_END"
)

// SpawnPoint is a predefined starting transform.
type SpawnPoint struct {
	Position Vec3    `json:"position"`
	Yaw      float64 `json:"yaw"`
}

// MatchOptions configures a new match. Zero fields get defaults.
type MatchOptions struct {
	ID          string
	InviteCode  string
	Rules       config.GameConfig
	Settings    Settings
	Broadcaster Broadcaster
	Collider    Collider
	Spawns      []SpawnPoint
	Clock       Clock
	EventLog    *EventLog
	Seed        int64

	// Resolve, when set, is used by deferred tasks to look the match up
	// again by id at fire time. A nil result drops the task.
	Resolve func(matchID string) *Match
}

// Match is the authoritative state of one duel. Every exported method
// serializes on the match mutex; the tick goroutine takes the same lock.
type Match struct {
	mu sync.Mutex

	id         string
	inviteCode string
	rules      config.GameConfig
	settings   Settings

	status        Status
	round         int
	roundStart    time.Time
	timeRemaining time.Duration

	players map[string]*PlayerState
	scores  map[string]int

	history   *History
	detector  *HitDetector
	validator *MovementValidator
	spawns    []SpawnPoint
	rng       *rand.Rand

	clock   Clock
	bus     Broadcaster
	events  *EventLog
	resolve func(string) *Match

	generation   uint64
	pendingTasks int
	tickCount    uint64
	ticking      bool
	stopTicker   func()
	closed       bool
}

// NewMatch creates a match in WAITING.
func NewMatch(opts MatchOptions) *Match {
	rules := opts.Rules
	if rules.TickRate == 0 {
		rules = config.DefaultGame()
	}
	clock := opts.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	bus := opts.Broadcaster
	if bus == nil {
		bus = nopBroadcaster{}
	}
	spawns := opts.Spawns
	if len(spawns) == 0 {
		spawns = []SpawnPoint{{}}
	}
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Match{
		id:            opts.ID,
		inviteCode:    opts.InviteCode,
		rules:         rules,
		settings:      opts.Settings.normalize(rules.RoundsToWin),
		status:        StatusWaiting,
		round:         1,
		timeRemaining: rules.RoundTime,
		players:       make(map[string]*PlayerState),
		scores:        make(map[string]int),
		history:       NewHistory(rules.LagWindow, rules.LagTolerance),
		detector:      NewHitDetector(),
		validator:     NewMovementValidator(opts.Collider, rules.PlayerRadius, rules.CollisionLeeway),
		spawns:        append([]SpawnPoint(nil), spawns...),
		rng:           rand.New(rand.NewSource(seed)),
		clock:         clock,
		bus:           bus,
		events:        opts.EventLog,
		resolve:       opts.Resolve,
	}
}

// ID returns the match id.
func (m *Match) ID() string { return m.id }

// InviteCode returns the join code.
func (m *Match) InviteCode() string { return m.inviteCode }

// Status returns the current phase.
func (m *Match) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// PlayerCount returns the roster size.
func (m *Match) PlayerCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.players)
}

// Player returns a copy of one player's state.
func (m *Match) Player(id string) (PlayerView, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.players[id]
	if !ok {
		return PlayerView{}, false
	}
	return p.view(m.scores[id]), true
}

// Scores returns a copy of the score table.
func (m *Match) Scores() map[string]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.copyScores()
}

// AddPlayer seats a new player at a random spawn point with zero score.
// Capacity is the caller's responsibility. Returns false if the id is taken
// or the match is closed.
func (m *Match) AddPlayer(id, nickname string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if _, exists := m.players[id]; exists {
		return false
	}

	if nickname == "" {
		nickname = fmt.Sprintf("Player %d", len(m.players)+1)
	}

	p := &PlayerState{ID: id, Nickname: nickname, Health: m.rules.MaxHealth}
	m.refillAmmo(p)
	m.placeAtSpawn(p)

	m.players[id] = p
	m.scores[id] = 0

	m.journal(EventTypePlayerJoin, id, PlayerJoinPayload{PlayerID: id, Nickname: nickname, Spawn: p.Position})
	log.Printf("👤 %s joined match %s (%d players)", nickname, m.id, len(m.players))
	return true
}

// StartGame moves WAITING -> IN_PROGRESS when at least two players are
// seated: it announces the match, starts round 1 and arms the tick.
func (m *Match) StartGame() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startGame()
}

func (m *Match) startGame() bool {
	if m.closed || m.status != StatusWaiting || len(m.players) < 2 {
		return false
	}

	m.status = StatusInProgress
	m.emit(EventMatchStart, MatchStartEvent{
		Round:       m.round,
		Scores:      m.copyScores(),
		RoundsToWin: m.settings.RoundsToWin,
	})
	m.journal(EventTypeMatchStart, "", MatchStartEvent{Round: m.round, Scores: m.copyScores(), RoundsToWin: m.settings.RoundsToWin})

	m.startRound()
	m.armTicker()

	log.Printf("🎮 Match %s started with %d players (first to %d)", m.id, len(m.players), m.settings.RoundsToWin)
	return true
}

// startRound resets every player for a fresh round and announces spawns.
// Must be called with m.mu held.
func (m *Match) startRound() {
	m.roundStart = m.clock.Now()
	m.timeRemaining = m.rules.RoundTime
	// Everyone teleports to a new spawn; older frames would rewind into the previous round.
	m.history.Reset()

	spawns := make(map[string]SpawnInfo, len(m.players))
	roster := make(map[string]RosterEntry, len(m.players))
	for id, p := range m.players {
		p.Health = m.rules.MaxHealth
		p.IsDead = false
		m.refillAmmo(p)
		m.placeAtSpawn(p)

		spawns[id] = SpawnInfo{SpawnPosition: p.Position, SpawnRotation: p.Rotation}
		roster[id] = RosterEntry{Nickname: p.Nickname}
	}

	ev := RoundStartEvent{
		Round:       m.round,
		Scores:      m.copyScores(),
		Spawns:      spawns,
		Players:     roster,
		RoundsToWin: m.settings.RoundsToWin,
	}
	m.journal(EventTypeRoundStart, "", ev)
	m.emit(EventRoundStart, ev)
}

// armTicker starts the fixed-rate tick goroutine.
// Must be called with m.mu held.
func (m *Match) armTicker() {
	if m.ticking {
		return
	}
	ticks, stop := m.clock.NewTicker(m.rules.TickInterval())
	done := make(chan struct{})
	m.ticking = true
	m.stopTicker = func() {
		stop()
		close(done)
	}

	go func() {
		for {
			select {
			case <-ticks:
				m.Tick()
			case <-done:
				return
			}
		}
	}()
}

// disarmTicker stops the tick goroutine. Safe to call when not ticking.
// Must be called with m.mu held.
func (m *Match) disarmTicker() {
	if !m.ticking {
		return
	}
	m.ticking = false
	m.stopTicker()
	m.stopTicker = nil
}

// Tick advances the round clock, ends the round on time out, and otherwise
// records a lag-compensation snapshot and broadcasts the full state.
func (m *Match) Tick() {
	start := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || !m.ticking || m.status != StatusInProgress {
		return
	}
	m.tickCount++

	now := m.clock.Now()
	remaining := m.rules.RoundTime - now.Sub(m.roundStart)
	if remaining < 0 {
		remaining = 0
	}
	if remaining > m.timeRemaining {
		remaining = m.timeRemaining // never runs backwards
	}
	m.timeRemaining = remaining

	if m.timeRemaining <= 0 {
		m.endRound(ReasonTimeLimit, nil)
		return
	}

	m.history.Record(m.captureSnapshot(now))
	m.emit(EventStateUpdate, m.stateUpdate())

	telemetry.RecordTick(time.Since(start))
}

func (m *Match) captureSnapshot(now time.Time) Snapshot {
	frames := make(map[string]PlayerFrame, len(m.players))
	for id, p := range m.players {
		frames[id] = PlayerFrame{Position: p.Position, Rotation: p.Rotation, Health: p.Health}
	}
	return Snapshot{Timestamp: now, Tick: m.tickCount, Players: frames}
}

func (m *Match) stateUpdate() StateUpdateEvent {
	players := make(map[string]PlayerStateUpdate, len(m.players))
	for id, p := range m.players {
		players[id] = PlayerStateUpdate{
			Position: p.Position,
			Rotation: p.Rotation,
			Health:   p.Health,
			IsDead:   p.IsDead,
			Nickname: p.Nickname,
			IsScoped: p.IsScoped,
			Kills:    p.Stats.Kills,
			Deaths:   p.Stats.Deaths,
		}
	}
	return StateUpdateEvent{
		Tick:          m.tickCount,
		Round:         m.round,
		Scores:        m.copyScores(),
		TimeRemaining: m.timeRemaining.Seconds(),
		RoundsToWin:   m.settings.RoundsToWin,
		Players:       players,
	}
}

// endRound moves IN_PROGRESS -> ROUND_END and schedules the next round.
// Must be called with m.mu held.
func (m *Match) endRound(reason string, winnerID *string) {
	m.status = StatusRoundEnd

	ev := RoundEndEvent{Reason: reason, WinnerID: winnerID, Scores: m.copyScores()}
	m.journal(EventTypeRoundEnd, "", ev)
	m.emit(EventRoundEnd, ev)
	telemetry.RoundsTotal.WithLabelValues(reason).Inc()

	m.schedule(taskNextRound, "", m.rules.RoundDelay)
	log.Printf("⏱️ Match %s round %d ended (%s)", m.id, m.round, reason)
}

// endMatch moves to MATCH_END, stops the tick and optionally schedules an
// automatic rematch.
// Must be called with m.mu held.
func (m *Match) endMatch(winnerID string) {
	m.status = StatusMatchEnd
	m.disarmTicker()

	ev := MatchEndEvent{WinnerID: winnerID, Scores: m.copyScores()}
	m.journal(EventTypeMatchEnd, winnerID, ev)
	m.emit(EventMatchEnd, ev)
	telemetry.MatchesFinished.Inc()

	if m.settings.AutoRematch {
		m.schedule(taskAutoRematch, "", m.rules.RematchDelay)
	}
	log.Printf("🏆 Match %s won by %s", m.id, winnerID)
}

// resetMatch returns to WAITING with zeroed scores and immediately tries to
// start again. Every task scheduled before the reset becomes stale.
// Must be called with m.mu held.
func (m *Match) resetMatch() {
	m.generation++
	m.status = StatusWaiting
	m.round = 1
	m.timeRemaining = m.rules.RoundTime
	m.history.Reset()

	for id, p := range m.players {
		m.scores[id] = 0
		p.WantsRematch = false
		p.IsDead = false
		p.Health = m.rules.MaxHealth
		p.Stats = PlayerStats{}
		p.LastShot = time.Time{}
		m.refillAmmo(p)
	}

	ev := MatchResetEvent{Round: m.round, Scores: m.copyScores(), RoundsToWin: m.settings.RoundsToWin}
	m.journal(EventTypeMatchReset, "", ev)
	m.emit(EventMatchReset, ev)

	log.Printf("🔁 Match %s reset for rematch", m.id)
	m.startGame()
}

// respawn restores a dead player at a fresh spawn point.
// Must be called with m.mu held.
func (m *Match) respawn(p *PlayerState) {
	p.Health = m.rules.MaxHealth
	p.IsDead = false
	m.refillAmmo(p)
	m.placeAtSpawn(p)
}

func (m *Match) placeAtSpawn(p *PlayerState) {
	sp := m.spawns[m.rng.Intn(len(m.spawns))]
	p.Position = sp.Position
	p.Rotation = Rotation{Pitch: 0, Yaw: sp.Yaw}
	p.Velocity = Vec3{}
}

func (m *Match) refillAmmo(p *PlayerState) {
	p.Ammo.Unlimited = m.settings.InfiniteAmmo
	p.Ammo.Fill(m.rules.MagazineSize, m.rules.ReserveAmmo)
}

// Close tears the match down: the tick stops and every pending or future
// deferred task becomes a no-op.
func (m *Match) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	m.disarmTicker()
	log.Printf("🗑️ Match %s closed", m.id)
}

// Closed reports whether Close was called.
func (m *Match) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// MatchSummary is a read-only view of a match for the API.
type MatchSummary struct {
	ID            string         `json:"matchId"`
	InviteCode    string         `json:"inviteCode"`
	Status        Status         `json:"status"`
	Round         int            `json:"round"`
	RoundsToWin   int            `json:"roundsToWin"`
	TimeRemaining float64        `json:"timeRemaining"`
	Scores        map[string]int `json:"scores"`
	Players       []PlayerView   `json:"players"`
	Settings      Settings       `json:"settings"`
	Tick          uint64         `json:"tick"`
	Snapshots     int            `json:"snapshots"`
	PendingTasks  int            `json:"pendingTasks"`
}

// Summary returns a consistent copy of the match state.
func (m *Match) Summary() MatchSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	players := make([]PlayerView, 0, len(m.players))
	for id, p := range m.players {
		players = append(players, p.view(m.scores[id]))
	}
	sort.Slice(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].ID < players[j].ID
	})

	return MatchSummary{
		ID:            m.id,
		InviteCode:    m.inviteCode,
		Status:        m.status,
		Round:         m.round,
		RoundsToWin:   m.settings.RoundsToWin,
		TimeRemaining: m.timeRemaining.Seconds(),
		Scores:        m.copyScores(),
		Players:       players,
		Settings:      m.settings,
		Tick:          m.tickCount,
		Snapshots:     m.history.Len(),
		PendingTasks:  m.pendingTasks,
	}
}

func (m *Match) copyScores() map[string]int {
	out := make(map[string]int, len(m.scores))
	for id, s := range m.scores {
		out[id] = s
	}
	return out
}

func (m *Match) emit(event string, data interface{}) {
	m.bus.Broadcast(m.id, event, data)
}

func (m *Match) journal(t EventType, playerID string, payload interface{}) {
	m.events.EmitSimple(t, m.id, m.tickCount, playerID, payload)
}
