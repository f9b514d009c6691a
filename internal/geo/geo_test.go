package geo

import (
	"testing"

	"dispatchsim/internal/types"
)

// TestDistance checks the Manhattan metric against hand-computed values.
func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b types.Point
		want int
	}{
		{"origin to 3,4", types.Point{X: 0, Y: 0}, types.Point{X: 3, Y: 4}, 7},
		{"offset pair", types.Point{X: 10, Y: 20}, types.Point{X: 15, Y: 25}, 10},
		{"same point", types.Point{X: 42, Y: 17}, types.Point{X: 42, Y: 17}, 0},
		{"negative delta", types.Point{X: 9, Y: 9}, types.Point{X: 2, Y: 11}, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Distance(tt.a, tt.b); got != tt.want {
				t.Errorf("Distance(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

// TestDistance_Symmetric verifies Distance(a,b) == Distance(b,a) over a grid sample.
func TestDistance_Symmetric(t *testing.T) {
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			a := types.Point{X: x, Y: y}
			b := types.Point{X: 9 - y, Y: x * 2}
			if Distance(a, b) != Distance(b, a) {
				t.Fatalf("Distance not symmetric for %v, %v", a, b)
			}
		}
	}
}

// TestWithinRadius covers the boundary and the radius-0 special case.
func TestWithinRadius(t *testing.T) {
	center := types.Point{X: 50, Y: 50}
	tests := []struct {
		name   string
		target types.Point
		radius int
		want   bool
	}{
		{"inside", types.Point{X: 55, Y: 52}, 10, true},
		{"exactly on boundary", types.Point{X: 55, Y: 55}, 10, true},
		{"outside", types.Point{X: 60, Y: 60}, 10, false},
		{"radius zero matches center", center, 0, true},
		{"radius zero rejects neighbor", types.Point{X: 50, Y: 51}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinRadius(center, tt.target, tt.radius); got != tt.want {
				t.Errorf("WithinRadius(%v, %v, %d) = %v, want %v",
					center, tt.target, tt.radius, got, tt.want)
			}
		})
	}
}

// TestClampToGrid checks clamping on both axes and both directions.
func TestClampToGrid(t *testing.T) {
	tests := []struct {
		name string
		in   types.Point
		want types.Point
	}{
		{"below both", types.Point{X: -5, Y: -1}, types.Point{X: 0, Y: 0}},
		{"above both", types.Point{X: 105, Y: 100}, types.Point{X: 99, Y: 99}},
		{"mixed", types.Point{X: -5, Y: 105}, types.Point{X: 0, Y: 99}},
		{"in range unchanged", types.Point{X: 50, Y: 75}, types.Point{X: 50, Y: 75}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampToGrid(tt.in, 100); got != tt.want {
				t.Errorf("ClampToGrid(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// TestClampToGrid_Idempotent verifies clamping a clamped point is a no-op for
// every valid coordinate.
func TestClampToGrid_Idempotent(t *testing.T) {
	const size = 100
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			once := ClampToGrid(types.Point{X: x, Y: y}, size)
			twice := ClampToGrid(once, size)
			if once != twice {
				t.Fatalf("clamp not idempotent at (%d,%d): %v != %v", x, y, once, twice)
			}
		}
	}
}

// TestValidateCoordinates checks the half-open grid bound.
func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name string
		p    types.Point
		want bool
	}{
		{"origin", types.Point{X: 0, Y: 0}, true},
		{"max corner", types.Point{X: 99, Y: 99}, true},
		{"x at grid size", types.Point{X: 100, Y: 0}, false},
		{"negative y", types.Point{X: 0, Y: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateCoordinates(tt.p, 100); got != tt.want {
				t.Errorf("ValidateCoordinates(%v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

// TestETA confirms the one-unit-per-tick equivalence with Manhattan distance.
func TestETA(t *testing.T) {
	a := types.Point{X: 10, Y: 10}
	b := types.Point{X: 30, Y: 5}
	if got, want := ETA(a, b), Distance(a, b); got != want {
		t.Errorf("ETA = %d, want %d", got, want)
	}
}

// TestPointsWithinRadius verifies the diamond size and grid trimming.
func TestPointsWithinRadius(t *testing.T) {
	// Full diamond of radius 2 has 1 + 4 + 8 = 13 points.
	pts := PointsWithinRadius(types.Point{X: 50, Y: 50}, 2, 100)
	if len(pts) != 13 {
		t.Errorf("interior diamond: got %d points, want 13", len(pts))
	}
	for _, p := range pts {
		if !WithinRadius(types.Point{X: 50, Y: 50}, p, 2) {
			t.Errorf("point %v outside radius", p)
		}
	}

	// At the corner the diamond is quartered: (0,0),(1,0),(0,1),(2,0),(1,1),(0,2).
	corner := PointsWithinRadius(types.Point{X: 0, Y: 0}, 2, 100)
	if len(corner) != 6 {
		t.Errorf("corner diamond: got %d points, want 6", len(corner))
	}
}
