package game

import (
	"math"
	"testing"
	"time"
)

func roster(players ...*PlayerState) map[string]*PlayerState {
	out := make(map[string]*PlayerState, len(players))
	for _, p := range players {
		out[p.ID] = p
	}
	return out
}

func standing(id string, pos Vec3) *PlayerState {
	return &PlayerState{ID: id, Nickname: id, Transform: Transform{Position: pos}, Health: 100}
}

func TestResolveHeadshotAtOrigin(t *testing.T) {
	d := NewHitDetector()
	players := roster(standing("shooter", Vec3{0, 0, -5}), standing("victim", Vec3{}))

	miss := d.Resolve(Shot{ShooterID: "shooter", Origin: Vec3{0, 0, -5}, Direction: Vec3{0, 0, 1}}, players, nil)
	if miss.Hit {
		t.Errorf("Expected a ray at y=0 to miss every region, got %s", miss.Region)
	}

	hit := d.Resolve(Shot{ShooterID: "shooter", Origin: Vec3{0, 1.7, -5}, Direction: Vec3{0, 0, 1}}, players, nil)
	if !hit.Hit || hit.Region != RegionHead || hit.VictimID != "victim" {
		t.Fatalf("Expected a HEAD hit on victim, got %+v", hit)
	}
	if !approx(hit.Distance, 5, 0.2) {
		t.Errorf("Expected distance ~5, got %v", hit.Distance)
	}
	if !approx(hit.ImpactPoint.X, 0, 1e-9) || !approx(hit.ImpactPoint.Y, 1.7, 1e-9) || !approx(hit.ImpactPoint.Z, 0, 0.2) {
		t.Errorf("Expected impact near (0,1.7,0), got %+v", hit.ImpactPoint)
	}
	if hit.Compensated {
		t.Error("Expected live positions without history")
	}
}

func TestResolveSkipsShooterAndDead(t *testing.T) {
	d := NewHitDetector()
	shooter := standing("a", Vec3{})
	dead := standing("b", Vec3{0, 0, 3})
	dead.IsDead = true
	players := roster(shooter, dead)

	// Origin inside the shooter's own head box.
	res := d.Resolve(Shot{ShooterID: "a", Origin: Vec3{0, 1.7, 0}, Direction: Vec3{0, 0, 1}}, players, nil)
	if res.Hit {
		t.Errorf("Expected miss, got %+v", res)
	}
}

func TestResolveClosestWins(t *testing.T) {
	d := NewHitDetector()
	players := roster(
		standing("shooter", Vec3{0, 0, -10}),
		standing("far", Vec3{0, 0, 6}),
		standing("near", Vec3{0, 0, 2}),
	)

	res := d.Resolve(Shot{ShooterID: "shooter", Origin: Vec3{0, 1.35, -10}, Direction: Vec3{0, 0, 1}}, players, nil)
	if !res.Hit || res.VictimID != "near" || res.Region != RegionUpperBody {
		t.Errorf("Expected nearest upper body hit, got %+v", res)
	}
}

func TestResolveUsesCompensatedPosition(t *testing.T) {
	d := NewHitDetector()
	base := time.Unix(1000, 0)
	history := NewHistory(500*time.Millisecond, 250*time.Millisecond)
	history.Record(Snapshot{
		Timestamp: base,
		Players:   map[string]PlayerFrame{"victim": {Position: Vec3{}}},
	})

	// Victim has since moved out of the line of fire.
	players := roster(standing("shooter", Vec3{0, 0, -5}), standing("victim", Vec3{10, 0, 0}))
	shot := Shot{ShooterID: "shooter", Origin: Vec3{0, 1.7, -5}, Direction: Vec3{0, 0, 1}, ClientTime: base.Add(50 * time.Millisecond)}

	res := d.Resolve(shot, players, history)
	if !res.Hit || !res.Compensated {
		t.Fatalf("Expected a compensated hit, got %+v", res)
	}

	shot.ClientTime = base.Add(time.Second)
	res = d.Resolve(shot, players, history)
	if res.Hit {
		t.Errorf("Expected live fallback to miss, got %+v", res)
	}
}

func TestResolveRejectsBadRays(t *testing.T) {
	d := NewHitDetector()
	players := roster(standing("s", Vec3{0, 0, -5}), standing("v", Vec3{}))

	tests := []struct {
		name string
		shot Shot
	}{
		{"zero direction", Shot{ShooterID: "s", Origin: Vec3{0, 1.7, -5}}},
		{"nan origin", Shot{ShooterID: "s", Origin: Vec3{X: nan()}, Direction: Vec3{0, 0, 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if res := d.Resolve(tt.shot, players, nil); res.Hit {
				t.Errorf("Expected miss, got %+v", res)
			}
		})
	}
}

func nan() float64 { return math.NaN() }
