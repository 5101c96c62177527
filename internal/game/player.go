package game

import (
	"encoding/json"
	"time"
)

// Ammo tracks a player's magazine and reserve. When Unlimited is set the
// counters are not consulted or decremented.
type Ammo struct {
	Magazine  int
	Reserve   int
	Unlimited bool
}

// wireAmmo is the client-facing form: -1 stands for unlimited.
type wireAmmo struct {
	Ammo        int  `json:"ammo"`
	ReserveAmmo int  `json:"reserveAmmo"`
	Unlimited   bool `json:"unlimited"`
}

// MarshalJSON reports both counters as -1 while unlimited.
func (a Ammo) MarshalJSON() ([]byte, error) {
	w := wireAmmo{Ammo: a.Magazine, ReserveAmmo: a.Reserve, Unlimited: a.Unlimited}
	if a.Unlimited {
		w.Ammo, w.ReserveAmmo = -1, -1
	}
	return json.Marshal(w)
}

// Fill resets both counters to capacity.
func (a *Ammo) Fill(magazine, reserve int) {
	a.Magazine = magazine
	a.Reserve = reserve
}

// CanFire reports whether a round is available.
func (a Ammo) CanFire() bool {
	return a.Unlimited || a.Magazine > 0
}

// Consume spends one round unless unlimited.
func (a *Ammo) Consume() {
	if a.Unlimited {
		return
	}
	if a.Magazine > 0 {
		a.Magazine--
	}
}

// Reload moves min(capacity-magazine, reserve) rounds into the magazine and
// returns how many were moved.
func (a *Ammo) Reload(capacity int) int {
	if a.Unlimited {
		return 0
	}
	need := capacity - a.Magazine
	if need <= 0 || a.Reserve <= 0 {
		return 0
	}
	take := need
	if a.Reserve < take {
		take = a.Reserve
	}
	a.Magazine += take
	a.Reserve -= take
	return take
}

// PlayerStats are cumulative per-match counters shown on the scoreboard.
type PlayerStats struct {
	Kills     int `json:"kills"`
	Deaths    int `json:"deaths"`
	Shots     int `json:"shots"`
	Hits      int `json:"hits"`
	Headshots int `json:"headshots"`
}

// Accuracy returns hits/shots in [0,1].
func (s PlayerStats) Accuracy() float64 {
	if s.Shots == 0 {
		return 0
	}
	return float64(s.Hits) / float64(s.Shots)
}

// PlayerState is the server-owned record of one participant. It is only
// read or written while holding the owning match's lock; outside callers get
// PlayerView copies.
type PlayerState struct {
	ID       string
	Nickname string
	Transform

	Health int
	Ammo   Ammo

	// IsScoped is advisory only: it is stored and reported but not used by
	// hit resolution or damage.
	IsScoped     bool
	IsDead       bool
	WantsRematch bool

	Grounded  bool
	Crouching bool
	LastShot  time.Time

	Stats PlayerStats
}

// applyDamage subtracts damage clamped at zero and reports whether this hit
// was the fatal one.
func (p *PlayerState) applyDamage(damage int) bool {
	if p.IsDead {
		return false
	}
	p.Health -= damage
	if p.Health > 0 {
		return false
	}
	p.Health = 0
	p.IsDead = true
	p.Stats.Deaths++
	return true
}

// PlayerView is an immutable copy of a player for callers outside the match.
type PlayerView struct {
	ID        string      `json:"id"`
	Nickname  string      `json:"nickname"`
	Position  Vec3        `json:"position"`
	Rotation  Rotation    `json:"rotation"`
	Velocity  Vec3        `json:"velocity"`
	Health    int         `json:"health"`
	Ammo      Ammo        `json:"ammo"`
	IsScoped  bool        `json:"isScoped"`
	IsDead    bool        `json:"isDead"`
	Rematch   bool        `json:"wantsRematch"`
	Stats     PlayerStats `json:"stats"`
	Score     int         `json:"score"`
	Accuracy  float64     `json:"accuracy"`
	Grounded  bool        `json:"grounded"`
	Crouching bool        `json:"crouching"`
}

func (p *PlayerState) view(score int) PlayerView {
	return PlayerView{
		ID:        p.ID,
		Nickname:  p.Nickname,
		Position:  p.Position,
		Rotation:  p.Rotation,
		Velocity:  p.Velocity,
		Health:    p.Health,
		Ammo:      p.Ammo,
		IsScoped:  p.IsScoped,
		IsDead:    p.IsDead,
		Rematch:   p.WantsRematch,
		Stats:     p.Stats,
		Score:     score,
		Accuracy:  p.Stats.Accuracy(),
		Grounded:  p.Grounded,
		Crouching: p.Crouching,
	}
}
