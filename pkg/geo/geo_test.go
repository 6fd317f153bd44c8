package geo

import (
	"math"
	"testing"
)

// Around Boulder, CO; matches the scale of real trail data.
const (
	testLat = 39.99
	testLon = -105.28
)

// lineEastM builds a line heading east from (testLon, testLat) with the
// given length in meters.
func lineEastM(lengthM float64) Line {
	f := newLocalFrame(Point{Lon: testLon, Lat: testLat})
	end := f.toPoint(lengthM, 0)
	return Line{{Lon: testLon, Lat: testLat}, end}
}

func TestHaversineM_KnownDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km on the sphere.
	a := Point{Lon: 0, Lat: 0}
	b := Point{Lon: 0, Lat: 1}
	got := HaversineM(a, b)
	if math.Abs(got-111194.9) > 10 {
		t.Errorf("HaversineM = %.1f, want ~111194.9", got)
	}
}

func TestHaversineM_ZeroForSamePoint(t *testing.T) {
	p := Point{Lon: testLon, Lat: testLat}
	if got := HaversineM(p, p); got != 0 {
		t.Errorf("HaversineM(p, p) = %v, want 0", got)
	}
}

func TestDistance3DM_IncludesElevation(t *testing.T) {
	a := Point{Lon: testLon, Lat: testLat, Elev: 0}
	b := Point{Lon: testLon, Lat: testLat, Elev: 30}
	if got := Distance3DM(a, b); math.Abs(got-30) > 1e-9 {
		t.Errorf("Distance3DM vertical = %v, want 30", got)
	}

	// 40m ground + 30m vertical = 50m slant.
	f := newLocalFrame(a)
	c := f.toPoint(40, 0)
	c.Elev = 30
	if got := Distance3DM(a, c); math.Abs(got-50) > 0.05 {
		t.Errorf("Distance3DM slant = %v, want ~50", got)
	}
}

func TestLengthM_SumsSegments(t *testing.T) {
	e := NewEngine()
	l := lineEastM(100)
	if got := e.LengthM(l); math.Abs(got-100) > 0.01 {
		t.Errorf("LengthM = %v, want ~100", got)
	}
}

func TestLocalFrame_RoundTrip(t *testing.T) {
	ref := Point{Lon: testLon, Lat: testLat}
	f := newLocalFrame(ref)
	p := f.toPoint(123.4, -56.7)
	x, y := f.toXY(p)
	if math.Abs(x-123.4) > 1e-6 || math.Abs(y+56.7) > 1e-6 {
		t.Errorf("round trip = (%v, %v), want (123.4, -56.7)", x, y)
	}
}

func TestBounds(t *testing.T) {
	l := Line{{Lon: 1, Lat: 4}, {Lon: 3, Lat: 2}}
	r := l.Bounds()
	if r.MinLon != 1 || r.MaxLon != 3 || r.MinLat != 2 || r.MaxLat != 4 {
		t.Errorf("Bounds = %+v", r)
	}
}

func TestRect_Intersects(t *testing.T) {
	a := Rect{MinLon: 0, MinLat: 0, MaxLon: 2, MaxLat: 2}
	b := Rect{MinLon: 1, MinLat: 1, MaxLon: 3, MaxLat: 3}
	c := Rect{MinLon: 5, MinLat: 5, MaxLon: 6, MaxLat: 6}
	if !a.Intersects(b) {
		t.Error("overlapping rects should intersect")
	}
	if a.Intersects(c) {
		t.Error("disjoint rects should not intersect")
	}
}

func TestReverse(t *testing.T) {
	l := Line{{Lon: 1}, {Lon: 2}, {Lon: 3}}
	r := l.Reverse()
	if r[0].Lon != 3 || r[2].Lon != 1 {
		t.Errorf("Reverse = %v", r)
	}
	if l[0].Lon != 1 {
		t.Error("Reverse must not mutate the receiver")
	}
}
