package sim

import (
	"math"
	"testing"
)

func TestClampMoveNormalizesDiagonal(t *testing.T) {
	v := ClampMove(1, 1)
	if math.Abs(v.Len()-1) > 1e-9 {
		t.Fatalf("expected unit length after normalization, got %v", v.Len())
	}
	if v.X <= 0 || v.Y <= 0 {
		t.Fatalf("expected direction preserved, got %+v", v)
	}
}

func TestClampMoveKeepsSubUnitVectors(t *testing.T) {
	v := ClampMove(0.5, 0)
	if v.X != 0.5 || v.Y != 0 {
		t.Fatalf("expected sub-unit vector unchanged, got %+v", v)
	}
}

func TestClampMoveRejectsInvalidInput(t *testing.T) {
	cases := [][2]float64{
		{2, 0},
		{0, -1.5},
		{math.NaN(), 0},
		{0, math.Inf(1)},
		{math.Inf(-1), math.NaN()},
	}
	for _, c := range cases {
		if v := ClampMove(c[0], c[1]); v != (Vec2{}) {
			t.Fatalf("expected invalid input %v to be rejected, got %+v", c, v)
		}
	}
}

func TestStepClampsToWorldBounds(t *testing.T) {
	pos := Step(Vec2{X: 5, Y: 5}, Vec2{X: -1, Y: -1}, 100, 1, 1000, 1000, nil)
	if pos.X != 0 || pos.Y != 0 {
		t.Fatalf("expected clamp at origin, got %+v", pos)
	}
	pos = Step(Vec2{X: 995, Y: 995}, Vec2{X: 1, Y: 1}, 100, 1, 1000, 1000, nil)
	if pos.X != 1000 || pos.Y != 1000 {
		t.Fatalf("expected clamp at max extent, got %+v", pos)
	}
}

// wallAt blocks everything east of the given x coordinate.
type wallAt struct{ x float64 }

func (w wallAt) WalkableAt(x, y float64) bool { return x < w.x }

func TestStepSlidesAlongWall(t *testing.T) {
	start := Vec2{X: 95, Y: 50}
	move := ClampMove(1, 1)
	next := Step(start, move, 100, 0.1, 1000, 1000, wallAt{x: 100})

	if next.X != start.X {
		t.Fatalf("expected X blocked by wall, got %+v", next)
	}
	if next.Y <= start.Y {
		t.Fatalf("expected slide along Y, got %+v", next)
	}
}

func TestStepBlockedBothAxesStays(t *testing.T) {
	blockAll := wallAt{x: -1}
	start := Vec2{X: 50, Y: 50}
	next := Step(start, Vec2{X: 1, Y: 0}, 100, 0.1, 1000, 1000, blockAll)
	if next != start {
		t.Fatalf("expected no movement into fully blocked terrain, got %+v", next)
	}
}

func TestStepZeroMoveNoTerrainCheck(t *testing.T) {
	start := Vec2{X: 50, Y: 50}
	next := Step(start, Vec2{}, 100, 0.1, 1000, 1000, wallAt{x: -1})
	if next != start {
		t.Fatalf("expected stationary entity to stay put, got %+v", next)
	}
}
