package geo

import (
	"math"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/fellrunner/trailnet/pkg/errors"
)

// sfEngine implements Engine. Set-theoretic predicates and validity are
// delegated to simplefeatures; linear referencing and geodesic measurement
// are computed in a local tangent-plane frame because simplefeatures
// operates on planar Cartesian coordinates.
type sfEngine struct{}

// NewEngine returns the production geometry engine.
func NewEngine() Engine { return sfEngine{} }

// toGeom converts a line into a simplefeatures XY linestring. Elevation is
// dropped: set-theoretic predicates are evaluated on the ground plane.
func toGeom(l Line) geom.Geometry {
	coords := make([]float64, 0, 2*len(l))
	for _, p := range l {
		coords = append(coords, p.Lon, p.Lat)
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq).AsGeometry()
}

func (sfEngine) Intersects(a, b Line) bool {
	return geom.Intersects(toGeom(a), toGeom(b))
}

func (e sfEngine) Intersect(a, b Line) (Intersection, error) {
	g, err := geom.Intersection(toGeom(a), toGeom(b))
	if err != nil {
		return Intersection{}, errors.Wrap(errors.ErrCodeGeometryOp, err, "line intersection")
	}
	var x Intersection
	collectIntersection(g, &x)
	return x, nil
}

// collectIntersection flattens an intersection geometry into points and
// collinear overlap length.
func collectIntersection(g geom.Geometry, x *Intersection) {
	if g.IsEmpty() {
		return
	}
	switch g.Type() {
	case geom.TypePoint:
		if xy, ok := g.MustAsPoint().XY(); ok {
			x.Points = append(x.Points, Point{Lon: xy.X, Lat: xy.Y})
		}
	case geom.TypeMultiPoint:
		mp := g.MustAsMultiPoint()
		for i := 0; i < mp.NumPoints(); i++ {
			if xy, ok := mp.PointN(i).XY(); ok {
				x.Points = append(x.Points, Point{Lon: xy.X, Lat: xy.Y})
			}
		}
	case geom.TypeLineString:
		x.OverlapM += sequenceLengthM(g.MustAsLineString().Coordinates())
	case geom.TypeMultiLineString:
		mls := g.MustAsMultiLineString()
		for i := 0; i < mls.NumLineStrings(); i++ {
			x.OverlapM += sequenceLengthM(mls.LineStringN(i).Coordinates())
		}
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		for i := 0; i < gc.NumGeometries(); i++ {
			collectIntersection(gc.GeometryN(i), x)
		}
	}
}

// sequenceLengthM measures a coordinate sequence with the haversine formula.
func sequenceLengthM(seq geom.Sequence) float64 {
	var total float64
	for i := 1; i < seq.Length(); i++ {
		a, b := seq.GetXY(i-1), seq.GetXY(i)
		total += HaversineM(Point{Lon: a.X, Lat: a.Y}, Point{Lon: b.X, Lat: b.Y})
	}
	return total
}

func (sfEngine) ClosestPoint(l Line, p Point) (Point, float64) {
	pt, dist, _, _ := project(l, p)
	return pt, dist
}

func (sfEngine) LineLocate(l Line, p Point) float64 {
	_, _, r, _ := project(l, p)
	return r
}

// project finds the closest point on l to p, returning the projection, its
// ground distance in meters, its normalized position along l, and the index
// of the segment it falls on.
func project(l Line, p Point) (Point, float64, float64, int) {
	f := newLocalFrame(p)
	px, py := f.toXY(p)

	best := math.Inf(1)
	var bestPt Point
	var bestSeg int
	var bestT float64

	for i := 1; i < len(l); i++ {
		ax, ay := f.toXY(l[i-1])
		bx, by := f.toXY(l[i])
		dx, dy := bx-ax, by-ay
		segLen2 := dx*dx + dy*dy

		t := 0.0
		if segLen2 > 0 {
			t = ((px-ax)*dx + (py-ay)*dy) / segLen2
			t = math.Max(0, math.Min(1, t))
		}
		cx, cy := ax+t*dx, ay+t*dy
		d := math.Hypot(cx-px, cy-py)
		if d < best {
			best = d
			pt := f.toPoint(cx, cy)
			pt.Elev = l[i-1].Elev + t*(l[i].Elev-l[i-1].Elev)
			bestPt = pt
			bestSeg = i - 1
			bestT = t
		}
	}

	// Normalized position by cumulative ground length.
	total := groundLengthM(l)
	if total == 0 {
		return bestPt, best, 0, bestSeg
	}
	var cum float64
	for i := 1; i <= bestSeg; i++ {
		cum += HaversineM(l[i-1], l[i])
	}
	cum += bestT * HaversineM(l[bestSeg], l[bestSeg+1])
	return bestPt, best, cum / total, bestSeg
}

// groundLengthM is the 2-D haversine length used for linear referencing.
func groundLengthM(l Line) float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += HaversineM(l[i-1], l[i])
	}
	return total
}

func (sfEngine) LineSubstring(l Line, r0, r1 float64) Line {
	r0 = math.Max(0, math.Min(1, r0))
	r1 = math.Max(0, math.Min(1, r1))
	if r1 < r0 {
		r0, r1 = r1, r0
	}
	total := groundLengthM(l)
	if total == 0 || len(l) < 2 {
		return l.Clone()
	}
	d0, d1 := r0*total, r1*total

	var out Line
	var cum float64
	for i := 1; i < len(l); i++ {
		segLen := HaversineM(l[i-1], l[i])
		segStart, segEnd := cum, cum+segLen
		cum = segEnd
		if segEnd < d0 || segLen == 0 {
			continue
		}
		if len(out) == 0 {
			t := 0.0
			if d0 > segStart {
				t = (d0 - segStart) / segLen
			}
			out = append(out, interpolate(l[i-1], l[i], t))
		}
		if segEnd >= d1 {
			t := (d1 - segStart) / segLen
			out = append(out, interpolate(l[i-1], l[i], t))
			break
		}
		out = append(out, l[i])
	}
	if len(out) < 2 {
		// Degenerate slice: both positions fall on the same coordinate.
		out = append(out, out[len(out)-1])
	}
	return out
}

func interpolate(a, b Point, t float64) Point {
	if t <= 0 {
		return a
	}
	if t >= 1 {
		return b
	}
	return Point{
		Lon:  a.Lon + t*(b.Lon-a.Lon),
		Lat:  a.Lat + t*(b.Lat-a.Lat),
		Elev: a.Elev + t*(b.Elev-a.Elev),
	}
}

func (e sfEngine) Split(l Line, p Point) []Line {
	r := e.LineLocate(l, p)
	const edgeEps = 1e-9
	if r <= edgeEps || r >= 1-edgeEps {
		return []Line{l.Clone()}
	}
	first := e.LineSubstring(l, 0, r)
	second := e.LineSubstring(l, r, 1)
	// Stitch the exact cut coordinate so both pieces share a vertex.
	cut := p
	cut.Elev = first.End().Elev
	first[len(first)-1] = cut
	second[0] = cut
	return []Line{first, second}
}

func (sfEngine) LengthM(l Line) float64 {
	return Length3DM(l)
}

func (sfEngine) Snap(l Line, p Point, epsM float64) Line {
	out := l.Clone()
	if HaversineM(out.Start(), p) <= epsM {
		elev := out[0].Elev
		out[0] = p
		out[0].Elev = elev
	}
	if HaversineM(out.End(), p) <= epsM {
		elev := out[len(out)-1].Elev
		out[len(out)-1] = p
		out[len(out)-1].Elev = elev
	}
	return out
}

func (sfEngine) TangentAt(l Line, r float64) (float64, float64) {
	total := groundLengthM(l)
	target := math.Max(0, math.Min(1, r)) * total
	var cum float64
	for i := 1; i < len(l); i++ {
		segLen := HaversineM(l[i-1], l[i])
		if cum+segLen >= target || i == len(l)-1 {
			f := newLocalFrame(l[i-1])
			bx, by := f.toXY(l[i])
			n := math.Hypot(bx, by)
			if n == 0 {
				return 0, 0
			}
			return bx / n, by / n
		}
		cum += segLen
	}
	return 0, 0
}

func (sfEngine) Valid(l Line) bool {
	if len(l) < 2 {
		return false
	}
	if groundLengthM(l) == 0 {
		return false
	}
	return toGeom(l).Validate() == nil
}

func (sfEngine) SymmetricDifferenceLengthM(before, after []Line) (float64, error) {
	ub, err := unionAll(before)
	if err != nil {
		return 0, err
	}
	ua, err := unionAll(after)
	if err != nil {
		return 0, err
	}
	diff, err := geom.SymmetricDifference(ub, ua)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeGeometryOp, err, "symmetric difference")
	}
	var x Intersection
	collectIntersection(diff, &x)
	return x.OverlapM, nil
}

func unionAll(lines []Line) (geom.Geometry, error) {
	var acc geom.Geometry // zero value is the empty geometry
	for _, l := range lines {
		next, err := geom.Union(acc, toGeom(l))
		if err != nil {
			return geom.Geometry{}, errors.Wrap(errors.ErrCodeGeometryOp, err, "union")
		}
		acc = next
	}
	return acc, nil
}
