package game

import (
	"sort"
	"time"
)

// Shot is a client's firing claim: a ray and the client clock at trigger pull.
type Shot struct {
	ShooterID  string
	Origin     Vec3
	Direction  Vec3
	ClientTime time.Time
}

// HitResult is the outcome of resolving one shot.
type HitResult struct {
	Hit         bool
	VictimID    string
	Region      Region
	ImpactPoint Vec3
	Distance    float64
	// Compensated is true when a historical snapshot was used.
	Compensated bool
}

// HitDetector resolves shots against the roster. It keeps no state; the
// snapshot history is passed in on every call.
type HitDetector struct {
	boxes []Hitbox
}

// NewHitDetector creates a detector using the standard body layout.
func NewHitDetector() *HitDetector {
	return &HitDetector{boxes: hitboxes[:]}
}

// Resolve finds the closest region struck by the shot among every living
// player except the shooter. Each candidate is placed where the nearest
// snapshot to the shot's client time saw them, or at their live position
// when no snapshot is close enough.
func (d *HitDetector) Resolve(shot Shot, roster map[string]*PlayerState, history *History) HitResult {
	var miss HitResult
	if !shot.Origin.IsFinite() || !shot.Direction.IsFinite() || shot.Direction.Length() == 0 {
		return miss
	}

	var past Snapshot
	compensated := false
	if history != nil {
		past, compensated = history.Lookup(shot.ClientTime)
	}

	// Deterministic visiting order: first found wins on equal distance.
	ids := make([]string, 0, len(roster))
	for id := range roster {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	best := miss
	for _, id := range ids {
		p := roster[id]
		if id == shot.ShooterID || p.IsDead {
			continue
		}

		origin := p.Position
		used := false
		if compensated {
			if f, ok := past.Frame(id); ok {
				origin = f.Position
				used = true
			}
		}

		for _, box := range d.boxes {
			t, ok := RayAABB(shot.Origin, shot.Direction, box.Bounds(origin))
			if !ok {
				continue
			}
			if best.Hit && t >= best.Distance {
				continue
			}
			best = HitResult{
				Hit:         true,
				VictimID:    id,
				Region:      box.Region,
				ImpactPoint: shot.Origin.Add(shot.Direction.Scale(t)),
				Distance:    t,
				Compensated: used,
			}
		}
	}

	return best
}
