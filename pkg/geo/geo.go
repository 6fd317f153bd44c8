// Package geo provides the geometry engine consumed by the topology
// pipeline: intersection predicates, closest-point projection, linear
// referencing, geodesic length, and set-difference coverage checks.
//
// Coordinates are geographic (longitude, latitude in degrees, elevation in
// meters). All distances and tolerances are true metric distances computed
// with the haversine formula; the historical "1 degree equals 111000 m"
// shortcut is deliberately not used.
//
// Set-theoretic operations (intersection, union, symmetric difference) and
// topological validity are delegated to the simplefeatures library. Linear
// referencing (locate, substring, projection) is computed in a local
// tangent-plane frame, which keeps metric accuracy at trail scale.
package geo

import "math"

// Point is a geographic position. Elev is in meters and may be zero for
// 2-D data.
type Point struct {
	Lon  float64
	Lat  float64
	Elev float64
}

// Line is a polyline of two or more points.
type Line []Point

// Rect is a lon/lat bounding box.
type Rect struct {
	MinLon, MinLat float64
	MaxLon, MaxLat float64
}

// Start returns the first point of the line.
func (l Line) Start() Point { return l[0] }

// End returns the last point of the line.
func (l Line) End() Point { return l[len(l)-1] }

// Clone returns a deep copy of the line.
func (l Line) Clone() Line {
	out := make(Line, len(l))
	copy(out, l)
	return out
}

// Reverse returns a copy of the line with point order reversed.
func (l Line) Reverse() Line {
	out := make(Line, len(l))
	for i, p := range l {
		out[len(l)-1-i] = p
	}
	return out
}

// Bounds computes the lon/lat bounding box of the line.
func (l Line) Bounds() Rect {
	r := Rect{
		MinLon: math.Inf(1), MinLat: math.Inf(1),
		MaxLon: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range l {
		r.MinLon = math.Min(r.MinLon, p.Lon)
		r.MinLat = math.Min(r.MinLat, p.Lat)
		r.MaxLon = math.Max(r.MaxLon, p.Lon)
		r.MaxLat = math.Max(r.MaxLat, p.Lat)
	}
	return r
}

// ExpandM grows the rect by approximately m meters on every side.
// The longitude padding is scaled by the cosine of the rect's mid latitude.
func (r Rect) ExpandM(m float64) Rect {
	latPad := m / metersPerDegreeLat
	midLat := (r.MinLat + r.MaxLat) / 2
	scale := math.Cos(midLat * math.Pi / 180)
	if scale < 0.01 {
		scale = 0.01
	}
	lonPad := latPad / scale
	return Rect{
		MinLon: r.MinLon - lonPad, MinLat: r.MinLat - latPad,
		MaxLon: r.MaxLon + lonPad, MaxLat: r.MaxLat + latPad,
	}
}

// Intersects reports whether the two rects overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.MinLon <= o.MaxLon && o.MinLon <= r.MaxLon &&
		r.MinLat <= o.MaxLat && o.MinLat <= r.MaxLat
}

// SamePlace reports whether two points are within epsM meters of each other
// measured along the ground (elevation ignored).
func SamePlace(a, b Point, epsM float64) bool {
	return HaversineM(a, b) <= epsM
}
