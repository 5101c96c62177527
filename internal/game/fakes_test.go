package game

import (
	"sort"
	"sync"
	"time"

	"sniper-duel/internal/config"
)

// fakeClock is a manually advanced Clock. Timers fire synchronously inside
// Advance, outside the clock's own lock.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []fakeTimer
	seq    int
}

type fakeTimer struct {
	at  time.Time
	seq int
	f   func()
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.timers = append(c.timers, fakeTimer{at: c.now.Add(d), seq: c.seq, f: f})
}

// NewTicker returns a channel that never fires; tests call Tick directly.
func (c *fakeClock) NewTicker(time.Duration) (<-chan time.Time, func()) {
	return make(chan time.Time), func() {}
}

// Advance moves time forward and runs every timer that came due, including
// timers scheduled by the ones that ran.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		sort.Slice(c.timers, func(i, j int) bool {
			if !c.timers[i].at.Equal(c.timers[j].at) {
				return c.timers[i].at.Before(c.timers[j].at)
			}
			return c.timers[i].seq < c.timers[j].seq
		})
		if len(c.timers) == 0 || c.timers[0].at.After(target) {
			c.now = target
			c.mu.Unlock()
			return
		}
		next := c.timers[0]
		c.timers = c.timers[1:]
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
	}
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// recorder is a Broadcaster that keeps everything it was given.
type recorder struct {
	mu     sync.Mutex
	events []recorded
}

type recorded struct {
	Event string
	Data  interface{}
}

func (r *recorder) Broadcast(_ string, event string, data interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recorded{Event: event, Data: data})
}

func (r *recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Event
	}
	return out
}

func (r *recorder) Count(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Event == event {
			n++
		}
	}
	return n
}

func (r *recorder) Last(event string) (interface{}, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Event == event {
			return r.events[i].Data, true
		}
	}
	return nil, false
}

func (r *recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// newTestMatch builds a match on a fake clock with every player spawning at
// the origin and no static geometry.
func newTestMatch(settings Settings) (*Match, *fakeClock, *recorder) {
	return newTestMatchWithRules(config.DefaultGame(), settings)
}

func newTestMatchWithRules(rules config.GameConfig, settings Settings) (*Match, *fakeClock, *recorder) {
	clock := newFakeClock()
	rec := &recorder{}
	m := NewMatch(MatchOptions{
		ID:          "match-1",
		InviteCode:  "ABC123",
		Rules:       rules,
		Settings:    settings,
		Broadcaster: rec,
		Clock:       clock,
		Spawns:      []SpawnPoint{{Position: Vec3{}}},
		Seed:        1,
	})
	return m, clock, rec
}

// place moves a player through the normal movement path.
func place(m *Match, id string, pos Vec3) {
	m.UpdateMovement(id, MovementInput{Position: pos})
}

// headshot returns a shot from `from` straight down +Z at head height of a
// player standing at victimPos.
func headshot(shooter string, victimPos Vec3, at time.Time) Shot {
	return Shot{
		ShooterID:  shooter,
		Origin:     Vec3{victimPos.X, victimPos.Y + 1.7, victimPos.Z - 5},
		Direction:  Vec3{0, 0, 1},
		ClientTime: at,
	}
}

// bodyshot aims at the upper body of a player standing at victimPos.
func bodyshot(shooter string, victimPos Vec3, at time.Time) Shot {
	return Shot{
		ShooterID:  shooter,
		Origin:     Vec3{victimPos.X, victimPos.Y + 1.35, victimPos.Z - 5},
		Direction:  Vec3{0, 0, 1},
		ClientTime: at,
	}
}
