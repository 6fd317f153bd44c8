package geo

// Intersection is the result of intersecting two lines. A genuine crossing
// yields one or more points. Collinear sections yield a positive overlap
// length instead of (or in addition to) points.
type Intersection struct {
	Points   []Point
	OverlapM float64
}

// Crosses reports whether the intersection contains at least one point.
func (x Intersection) Crosses() bool { return len(x.Points) > 0 }

// Overlapping reports whether the two lines share collinear sections.
func (x Intersection) Overlapping() bool { return x.OverlapM > 0 }

// Engine is the geometry capability contract consumed by the topology
// phases. Keeping it as an interface makes the same topology logic
// engine-agnostic and unit-testable without a live spatial backend.
type Engine interface {
	// Intersects reports whether the two lines share any point.
	Intersects(a, b Line) bool

	// Intersect computes the intersection of two lines.
	Intersect(a, b Line) (Intersection, error)

	// ClosestPoint returns the point on l closest to p and the ground
	// distance to it in meters.
	ClosestPoint(l Line, p Point) (Point, float64)

	// LineLocate returns the normalized position of the projection of p
	// onto l, in [0, 1] measured by ground length.
	LineLocate(l Line, p Point) float64

	// LineSubstring extracts the section of l between the normalized
	// positions r0 and r1 (r0 <= r1), including interior vertices.
	LineSubstring(l Line, r0, r1 float64) Line

	// Split cuts l at p, returning the pieces. A point at (or beyond)
	// either end returns the original line as a single piece.
	Split(l Line, p Point) []Line

	// LengthM returns the elevation-aware geodesic length of l in meters.
	LengthM(l Line) float64

	// Snap returns l with any endpoint within epsM meters of p replaced
	// by p exactly.
	Snap(l Line, p Point, epsM float64) Line

	// TangentAt returns the unit tangent direction of l at the normalized
	// position r, in local meter coordinates.
	TangentAt(l Line, r float64) (dx, dy float64)

	// Valid reports whether l is a topologically valid linestring of at
	// least two points with non-zero length.
	Valid(l Line) bool

	// SymmetricDifferenceLengthM unions each side and returns the total
	// ground length of linework present in one union but not the other.
	// It flags both missing and spuriously added sections.
	SymmetricDifferenceLengthM(before, after []Line) (float64, error)
}
