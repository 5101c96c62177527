package arena

import (
	"math"

	"sniper-duel/internal/game"
)

// box builds an obstacle resting on the floor with its footprint centered on (x, z).
func box(name string, x, z, width, height, depth float64) Obstacle {
	return Obstacle{
		Name: name,
		Box: game.AABB{
			Min: game.Vec3{X: x - width/2, Y: 0, Z: z - depth/2},
			Max: game.Vec3{X: x + width/2, Y: height, Z: z + depth/2},
		},
	}
}

// facingCenter returns a spawn at (x, z) looking at the map center.
// Yaw 0 looks down -Z.
func facingCenter(x, z float64) game.SpawnPoint {
	return game.SpawnPoint{
		Position: game.Vec3{X: x, Y: 0, Z: z},
		Yaw:      math.Atan2(x, z),
	}
}

// DefaultLayout is the built-in "Depot" map: a central tower, four
// sightline walls and scattered crates, with hidden spawns near the edges.
func DefaultLayout() Layout {
	return Layout{
		Name: "depot",
		Size: DefaultSize,
		Obstacles: []Obstacle{
			box("tower", 0, 0, 6, 8, 6),

			box("wall-north", 0, -20, 24, 3, 1),
			box("wall-south", 0, 20, 24, 3, 1),
			box("wall-east", 20, 0, 1, 3, 24),
			box("wall-west", -20, 0, 1, 3, 24),

			box("crate-ne", 12, -12, 2, 2, 2),
			box("crate-nw", -12, -12, 2, 2, 2),
			box("crate-se", 12, 12, 2, 2, 2),
			box("crate-sw", -12, 12, 2, 2, 2),

			box("container-n", -30, -38, 12, 3, 3),
			box("container-s", 30, 38, 12, 3, 3),
			box("shed-e", 38, -28, 5, 4, 8),
			box("shed-w", -38, 28, 5, 4, 8),
		},
		Spawns: []game.SpawnPoint{
			facingCenter(-42, -42),
			facingCenter(42, -42),
			facingCenter(42, 42),
			facingCenter(-42, 42),
			facingCenter(0, -44),
			facingCenter(0, 44),
			facingCenter(-44, 0),
			facingCenter(44, 0),
		},
	}
}

// Default builds the built-in map.
func Default(spawnRadius float64) *Arena {
	a, err := New(DefaultLayout(), spawnRadius)
	if err != nil {
		// The built-in layout is fixed; failing here is a programming error.
		panic(err)
	}
	return a
}
