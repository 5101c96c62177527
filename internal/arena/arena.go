// Package arena holds the static map: obstacle boxes, world bounds and the
// spawn table. An Arena is immutable after construction and shared by every
// match that plays on it.
package arena

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"

	"sniper-duel/internal/game"
	"sniper-duel/internal/game/spatial"
)

// DefaultSize is the edge length of the square map in meters.
const DefaultSize = 100.0

// gridCell is the broad-phase cell size. Obstacles are a few meters wide, so
// a player-sized query usually touches one or two cells.
const gridCell = 8.0

var (
	ErrNoSpawns     = errors.New("arena has no spawn points")
	ErrInvalidSize  = errors.New("arena size must be positive")
	ErrBlockedSpawn = errors.New("spawn point overlaps geometry")
)

// Obstacle is one solid box.
type Obstacle struct {
	Name string    `json:"name"`
	Box  game.AABB `json:"box"`
}

// Layout is the serializable description of a map.
type Layout struct {
	Name      string            `json:"name"`
	Size      float64           `json:"size"`
	Obstacles []Obstacle        `json:"obstacles"`
	Spawns    []game.SpawnPoint `json:"spawns"`
}

// Arena answers collision queries against a Layout.
type Arena struct {
	name      string
	half      float64
	obstacles []Obstacle
	spawns    []game.SpawnPoint

	// The grid reuses a scratch buffer per query.
	mu   sync.Mutex
	grid *spatial.Grid
}

// New validates a layout and indexes its obstacles. Every spawn point must
// be clear for a sphere of spawnRadius.
func New(l Layout, spawnRadius float64) (*Arena, error) {
	if l.Size <= 0 || math.IsNaN(l.Size) || math.IsInf(l.Size, 0) {
		return nil, ErrInvalidSize
	}
	if len(l.Spawns) == 0 {
		return nil, ErrNoSpawns
	}

	a := &Arena{
		name:      l.Name,
		half:      l.Size / 2,
		obstacles: append([]Obstacle(nil), l.Obstacles...),
		spawns:    append([]game.SpawnPoint(nil), l.Spawns...),
		grid:      spatial.NewGrid(l.Size, l.Size, gridCell),
	}
	for i, o := range a.obstacles {
		a.grid.InsertRect(uint32(i), o.Box.Min.X, o.Box.Min.Z, o.Box.Max.X, o.Box.Max.Z)
	}

	for i, sp := range a.spawns {
		if a.Collides(sp.Position, spawnRadius) {
			return nil, fmt.Errorf("spawn %d at %+v: %w", i, sp.Position, ErrBlockedSpawn)
		}
	}
	return a, nil
}

// LoadFile reads a JSON Layout from disk.
func LoadFile(path string, spawnRadius float64) (*Arena, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read arena %s: %w", path, err)
	}
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("parse arena %s: %w", path, err)
	}
	return New(l, spawnRadius)
}

// Collides tests a player-sized sphere resting on point (the player's feet)
// against the world edge and every obstacle. The sphere center sits radius
// above the feet so standing on top of a box is not an overlap.
func (a *Arena) Collides(point game.Vec3, radius float64) bool {
	if math.Abs(point.X)+radius > a.half || math.Abs(point.Z)+radius > a.half {
		return true
	}

	center := game.Vec3{X: point.X, Y: point.Y + radius, Z: point.Z}

	a.mu.Lock()
	defer a.mu.Unlock()
	for _, id := range a.grid.QueryRadius(point.X, point.Z, radius) {
		if a.obstacles[id].Box.IntersectsSphere(center, radius) {
			return true
		}
	}
	return false
}

// Spawns returns a copy of the spawn table.
func (a *Arena) Spawns() []game.SpawnPoint {
	return append([]game.SpawnPoint(nil), a.spawns...)
}

// Name returns the layout name.
func (a *Arena) Name() string { return a.name }

// Obstacles returns a copy of the obstacle list.
func (a *Arena) Obstacles() []Obstacle {
	return append([]Obstacle(nil), a.obstacles...)
}

// Stats reports broad-phase occupancy.
func (a *Arena) Stats() spatial.GridStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.grid.Stats()
}

// Size returns the edge length of the map.
func (a *Arena) Size() float64 { return 2 * a.half }
