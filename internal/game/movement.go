package game

// Collider is the static map geometry test. It is owned by the map, not the
// match; the match only asks whether a sphere at point would overlap it.
type Collider interface {
	Collides(point Vec3, radius float64) bool
}

// ColliderFunc adapts a plain function to Collider.
type ColliderFunc func(point Vec3, radius float64) bool

// Collides implements Collider.
func (f ColliderFunc) Collides(point Vec3, radius float64) bool {
	return f(point, radius)
}

// MovementValidator gates client-proposed positions. It never corrects a
// position: a colliding proposal is rejected as a whole.
type MovementValidator struct {
	collider Collider
	radius   float64
}

// NewMovementValidator checks positions with playerRadius scaled by leeway
// (slightly below 1 so players can stand flush against walls).
func NewMovementValidator(c Collider, playerRadius, leeway float64) *MovementValidator {
	return &MovementValidator{collider: c, radius: playerRadius * leeway}
}

// Radius returns the radius passed to the collider.
func (v *MovementValidator) Radius() float64 {
	return v.radius
}

// Accept reports whether pos may be stored.
func (v *MovementValidator) Accept(pos Vec3) bool {
	if !pos.IsFinite() {
		return false
	}
	if v == nil || v.collider == nil {
		return true
	}
	return !v.collider.Collides(pos, v.radius)
}
