package game

import "math"

// Region names one of the seven body volumes a shot can strike.
type Region string

const (
	RegionHead      Region = "HEAD"
	RegionUpperBody Region = "UPPER_BODY"
	RegionLowerBody Region = "LOWER_BODY"
	RegionLeftArm   Region = "LEFT_ARM"
	RegionRightArm  Region = "RIGHT_ARM"
	RegionLeftLeg   Region = "LEFT_LEG"
	RegionRightLeg  Region = "RIGHT_LEG"
)

// Damage values per region class. Distance never changes them.
const (
	HeadshotDamage = 100
	BodyDamage     = 75
	LimbDamage     = 50
)

// Hitbox is a fixed-size volume positioned relative to the player's origin
// (feet). Boxes stay axis-aligned: the player's yaw is not applied.
type Hitbox struct {
	Region Region
	Size   Vec3
	Offset Vec3
}

// Bounds returns the world-space box for a player standing at origin.
func (h Hitbox) Bounds(origin Vec3) AABB {
	return BoxAt(origin.Add(h.Offset), h.Size)
}

// hitboxes order is significant: on equal distance the earlier region wins.
var hitboxes = [...]Hitbox{
	{Region: RegionHead, Size: Vec3{0.3, 0.3, 0.3}, Offset: Vec3{0, 1.7, 0}},
	{Region: RegionUpperBody, Size: Vec3{0.5, 0.5, 0.3}, Offset: Vec3{0, 1.35, 0}},
	{Region: RegionLowerBody, Size: Vec3{0.45, 0.3, 0.28}, Offset: Vec3{0, 0.95, 0}},
	{Region: RegionLeftArm, Size: Vec3{0.12, 0.6, 0.12}, Offset: Vec3{-0.35, 1.35, 0.2}},
	{Region: RegionRightArm, Size: Vec3{0.12, 0.6, 0.12}, Offset: Vec3{0.35, 1.35, 0.1}},
	{Region: RegionLeftLeg, Size: Vec3{0.18, 0.9, 0.22}, Offset: Vec3{-0.15, 0.45, 0}},
	{Region: RegionRightLeg, Size: Vec3{0.18, 0.9, 0.22}, Offset: Vec3{0.15, 0.45, 0}},
}

// Hitboxes returns a copy of the body layout.
func Hitboxes() []Hitbox {
	out := make([]Hitbox, len(hitboxes))
	copy(out, hitboxes[:])
	return out
}

// DamageFor returns the fixed damage for a region. Unknown regions count as limbs.
func DamageFor(r Region) int {
	switch r {
	case RegionHead:
		return HeadshotDamage
	case RegionUpperBody, RegionLowerBody:
		return BodyDamage
	default:
		return LimbDamage
	}
}

// RayAABB intersects a ray with a box using the slab method.
// Returns the ray parameter of the entry point, or of the exit point when
// the origin is inside the box. With a unit direction this is the distance.
//
// A zero direction component means the ray is parallel to that slab; it
// misses unless the origin already lies between the two planes.
func RayAABB(origin, dir Vec3, box AABB) (float64, bool) {
	tmin := math.Inf(-1)
	tmax := math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float64{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := 0; axis < 3; axis++ {
		if d[axis] == 0 {
			if o[axis] < lo[axis] || o[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		t1 := (lo[axis] - o[axis]) / d[axis]
		t2 := (hi[axis] - o[axis]) / d[axis]
		tmin = math.Max(tmin, math.Min(t1, t2))
		tmax = math.Min(tmax, math.Max(t1, t2))
	}

	if tmax < tmin || tmax <= 0 {
		return 0, false
	}
	if tmin > 0 {
		return tmin, true
	}
	return tmax, true
}
