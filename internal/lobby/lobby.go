// Package lobby is the match registry. It mints match ids and invite codes,
// enforces seat capacity and tears matches down once the last player leaves.
package lobby

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sniper-duel/internal/config"
	"sniper-duel/internal/game"
	"sniper-duel/internal/telemetry"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrMatchFull      = errors.New("match is full")
	ErrMatchClosed    = errors.New("match is closed")
	ErrTooManyMatches = errors.New("match limit reached")
)

// InviteCodeLength is the number of characters in an invite code.
const InviteCodeLength = 6

// Unambiguous when read aloud or typed: no 0/O or 1/I.
const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Map is the static geometry a match plays on.
type Map interface {
	game.Collider
	Spawns() []game.SpawnPoint
}

// Options configures a Lobby.
type Options struct {
	Rules       config.GameConfig
	MaxPlayers  int
	MaxMatches  int
	Map         Map
	Broadcaster game.Broadcaster
	EventLog    *game.EventLog
	Clock       game.Clock
}

// Seat is a successful join.
type Seat struct {
	PlayerID string
	Nickname string
	Match    *game.Match
}

// Lobby owns every live match.
type Lobby struct {
	mu      sync.RWMutex
	matches map[string]*game.Match // by match id
	codes   map[string]string      // invite code -> match id
	created map[string]time.Time
	players int

	opts Options
	rng  *rand.Rand
}

// New creates an empty lobby.
func New(opts Options) *Lobby {
	if opts.Rules.TickRate == 0 {
		opts.Rules = config.DefaultGame()
	}
	if opts.MaxPlayers <= 0 {
		opts.MaxPlayers = config.DefaultServer().MaxPlayers
	}
	if opts.MaxMatches <= 0 {
		opts.MaxMatches = config.DefaultServer().MaxMatches
	}
	return &Lobby{
		matches: make(map[string]*game.Match),
		codes:   make(map[string]string),
		created: make(map[string]time.Time),
		opts:    opts,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create registers a new match in WAITING with the given host settings.
func (l *Lobby) Create(settings game.Settings) (*game.Match, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.matches) >= l.opts.MaxMatches {
		return nil, ErrTooManyMatches
	}

	id := uuid.NewString()
	code := l.newInviteCode()

	var collider game.Collider
	var spawns []game.SpawnPoint
	if l.opts.Map != nil {
		collider = l.opts.Map
		spawns = l.opts.Map.Spawns()
	}

	m := game.NewMatch(game.MatchOptions{
		ID:          id,
		InviteCode:  code,
		Rules:       l.opts.Rules,
		Settings:    settings,
		Broadcaster: l.opts.Broadcaster,
		Collider:    collider,
		Spawns:      spawns,
		Clock:       l.opts.Clock,
		EventLog:    l.opts.EventLog,
		Resolve:     l.Resolve,
	})

	l.matches[id] = m
	l.codes[code] = id
	l.created[id] = time.Now()
	telemetry.ActiveMatches.Set(float64(len(l.matches)))

	log.Printf("🆕 Match %s created (code %s)", id, code)
	return m, nil
}

// newInviteCode returns a code not currently in use.
// Must be called with l.mu held.
func (l *Lobby) newInviteCode() string {
	buf := make([]byte, InviteCodeLength)
	for {
		for i := range buf {
			buf[i] = inviteAlphabet[l.rng.Intn(len(inviteAlphabet))]
		}
		code := string(buf)
		if _, taken := l.codes[code]; !taken {
			return code
		}
	}
}

// Join seats a new player in the match with the given invite code. Codes
// are case-insensitive. The match is not started here; call Ready once the
// player's connection is subscribed so it sees the opening events.
func (l *Lobby) Join(code, nickname string) (Seat, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	code = NormalizeCode(code)
	id, ok := l.codes[code]
	if !ok {
		return Seat{}, fmt.Errorf("join %q: %w", code, ErrMatchNotFound)
	}
	m := l.matches[id]

	if m.PlayerCount() >= l.opts.MaxPlayers {
		return Seat{}, fmt.Errorf("join %q: %w", code, ErrMatchFull)
	}

	playerID := uuid.NewString()
	if !m.AddPlayer(playerID, nickname) {
		return Seat{}, fmt.Errorf("join %q: %w", code, ErrMatchClosed)
	}
	l.players++
	telemetry.ConnectedPlayers.Set(float64(l.players))

	p, _ := m.Player(playerID)
	return Seat{PlayerID: playerID, Nickname: p.Nickname, Match: m}, nil
}

// Ready starts the match if it is waiting and has at least two players.
// Returns whether it started.
func (l *Lobby) Ready(matchID string) bool {
	m := l.Resolve(matchID)
	if m == nil || m.Status() != game.StatusWaiting {
		return false
	}
	return m.StartGame()
}

// Leave removes a player. The match is closed and unregistered when the last
// player leaves.
func (l *Lobby) Leave(matchID, playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.matches[matchID]
	if !ok {
		return
	}
	if _, seated := m.Player(playerID); seated {
		l.players--
		telemetry.ConnectedPlayers.Set(float64(l.players))
	}
	if m.HandleDisconnect(playerID) > 0 {
		return
	}
	l.remove(m)
}

// remove closes and unregisters a match.
// Must be called with l.mu held.
func (l *Lobby) remove(m *game.Match) {
	m.Close()
	delete(l.matches, m.ID())
	delete(l.codes, m.InviteCode())
	delete(l.created, m.ID())
	telemetry.ActiveMatches.Set(float64(len(l.matches)))
}

// ReapIdle removes matches that nobody joined within maxAge of creation.
// Returns how many were removed.
func (l *Lobby) ReapIdle(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	reaped := 0
	for id, m := range l.matches {
		if l.created[id].Before(cutoff) && m.PlayerCount() == 0 {
			l.remove(m)
			reaped++
		}
	}
	if reaped > 0 {
		log.Printf("🧹 Reaped %d idle matches", reaped)
	}
	return reaped
}

// Resolve returns the live match with this id, or nil.
func (l *Lobby) Resolve(matchID string) *game.Match {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.matches[matchID]
}

// ByCode returns the live match with this invite code.
func (l *Lobby) ByCode(code string) (*game.Match, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	id, ok := l.codes[NormalizeCode(code)]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return l.matches[id], nil
}

// List returns summaries of every live match sorted by invite code.
func (l *Lobby) List() []game.MatchSummary {
	l.mu.RLock()
	matches := make([]*game.Match, 0, len(l.matches))
	for _, m := range l.matches {
		matches = append(matches, m)
	}
	l.mu.RUnlock()

	out := make([]game.MatchSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.Summary())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InviteCode < out[j].InviteCode })
	return out
}

// Count returns the number of live matches.
func (l *Lobby) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.matches)
}

// Shutdown closes every match.
func (l *Lobby) Shutdown() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.matches {
		l.remove(m)
	}
	l.players = 0
	telemetry.ConnectedPlayers.Set(0)
	log.Println("🛑 Lobby shut down")
}

// NormalizeCode upper-cases and trims an invite code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
