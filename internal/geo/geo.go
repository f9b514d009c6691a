// README: Pure grid geometry helpers for the dispatch simulation.
package geo

import "dispatchsim/internal/types"

// Distance returns the Manhattan distance between two grid points. It is the
// only distance metric used anywhere in the simulation.
func Distance(a, b types.Point) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// WithinRadius reports whether target lies within radius of center under
// Manhattan distance. Radius 0 matches only the center point itself.
func WithinRadius(center, target types.Point, radius int) bool {
	return Distance(center, target) <= radius
}

// ValidateCoordinates reports whether p lies inside the grid bounds
// [0, gridSize-1] on both axes.
func ValidateCoordinates(p types.Point, gridSize int) bool {
	return p.X >= 0 && p.X < gridSize && p.Y >= 0 && p.Y < gridSize
}

// ClampToGrid clamps each coordinate independently into [0, gridSize-1].
func ClampToGrid(p types.Point, gridSize int) types.Point {
	return types.Point{
		X: clamp(p.X, 0, gridSize-1),
		Y: clamp(p.Y, 0, gridSize-1),
	}
}

// ETA returns the estimated ticks-to-arrival between two points under the
// one-grid-unit-per-tick movement model. It equals the Manhattan distance.
func ETA(from, to types.Point) int {
	return Distance(from, to)
}

// PointsWithinRadius enumerates every grid point within radius of center,
// bounded by the grid. Intended for visualization queries; the search box is
// trimmed to the radius so the whole grid is never scanned.
func PointsWithinRadius(center types.Point, radius, gridSize int) []types.Point {
	minX := clamp(center.X-radius, 0, gridSize-1)
	maxX := clamp(center.X+radius, 0, gridSize-1)
	minY := clamp(center.Y-radius, 0, gridSize-1)
	maxY := clamp(center.Y+radius, 0, gridSize-1)

	var points []types.Point
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			p := types.Point{X: x, Y: y}
			if WithinRadius(center, p, radius) {
				points = append(points, p)
			}
		}
	}
	return points
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
