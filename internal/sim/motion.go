// Package sim holds the movement arithmetic shared by the server tick loop
// and the client-side predictor. Both must integrate inputs identically or
// reconciliation replay diverges from the authoritative result.
package sim

import "math"

// Vec2 is a position or direction in pixel units.
type Vec2 struct {
	X float64
	Y float64
}

func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }

func (v Vec2) Len() float64 { return math.Hypot(v.X, v.Y) }

func Dist(a, b Vec2) float64 { return a.Sub(b).Len() }

// Walkable answers whether a pixel position can be stood on. A nil Walkable
// means unchecked movement (the client predicts without full terrain data;
// the server corrects).
type Walkable interface {
	WalkableAt(x, y float64) bool
}

// ClampMove normalizes a raw input vector so diagonal movement is not faster
// than axis-aligned movement. Axes outside [-1,1] or non-finite are rejected
// as a whole (returns the zero vector) — physically impossible input is
// dropped, not repaired.
func ClampMove(mx, my float64) Vec2 {
	if math.IsNaN(mx) || math.IsNaN(my) || math.IsInf(mx, 0) || math.IsInf(my, 0) {
		return Vec2{}
	}
	if mx < -1 || mx > 1 || my < -1 || my > 1 {
		return Vec2{}
	}
	l := math.Hypot(mx, my)
	if l <= 1 {
		return Vec2{mx, my}
	}
	return Vec2{mx / l, my / l}
}

// Step advances pos by one integration step: velocity = move·speed, applied
// over dt seconds, clamped to the world rectangle [0,maxX]×[0,maxY]. If w is
// non-nil and the destination tile is blocked, the axes are resolved
// independently so the mover slides along walls instead of sticking.
func Step(pos Vec2, move Vec2, speed float64, dt float64, maxX, maxY float64, w Walkable) Vec2 {
	next := Vec2{
		X: pos.X + move.X*speed*dt,
		Y: pos.Y + move.Y*speed*dt,
	}
	next.X = clamp(next.X, 0, maxX)
	next.Y = clamp(next.Y, 0, maxY)
	if w == nil || (next == pos) || w.WalkableAt(next.X, next.Y) {
		return next
	}
	// Slide: try X-only, then Y-only.
	if xOnly := (Vec2{next.X, pos.Y}); w.WalkableAt(xOnly.X, xOnly.Y) {
		return xOnly
	}
	if yOnly := (Vec2{pos.X, next.Y}); w.WalkableAt(yOnly.X, yOnly.Y) {
		return yOnly
	}
	return pos
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
