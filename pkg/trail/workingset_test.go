package trail

import (
	"math"
	"testing"

	"github.com/fellrunner/trailnet/pkg/geo"
)

// eastLine builds a two-point line of roughly lengthM meters heading east.
func eastLine(lat, lon, lengthM float64) geo.Line {
	dLon := lengthM / (geo.MetersPerDegreeLat * math.Cos(lat*math.Pi/180))
	return geo.Line{{Lon: lon, Lat: lat}, {Lon: lon + dLon, Lat: lat}}
}

func mustTrail(t *testing.T, name string, line geo.Line) *Trail {
	t.Helper()
	tr, err := NewTrail(name, "test", "unit", line)
	if err != nil {
		t.Fatalf("NewTrail(%s): %v", name, err)
	}
	return tr
}

func TestNewTrail_RejectsDegenerate(t *testing.T) {
	if _, err := NewTrail("bad", "", "", geo.Line{{Lon: 1, Lat: 1}}); err == nil {
		t.Fatal("single-point trail should be rejected")
	}
}

func TestNewWorkingSet_DeepCopies(t *testing.T) {
	tr := mustTrail(t, "ridge", eastLine(40, -105, 100))
	ws := NewWorkingSet([]*Trail{tr})

	got, ok := ws.Trail(tr.ID)
	if !ok {
		t.Fatal("trail missing from working set")
	}
	got.Line[0].Lon = 0
	if tr.Line[0].Lon == 0 {
		t.Error("mutating the working set must not touch the input trail")
	}
}

func TestCommit_ReplacesTrailTransactionally(t *testing.T) {
	tr := mustTrail(t, "ridge", eastLine(40, -105, 100))
	ws := NewWorkingSet([]*Trail{tr})
	inner, _ := ws.Trail(tr.ID)

	s1 := NewSegment(inner, geo.Line{inner.Line[0], interpolateMid(inner.Line)})
	s2 := NewSegment(inner, geo.Line{interpolateMid(inner.Line), inner.Line[1]})

	if err := ws.Commit(tr.ID, []*Segment{s1, s2}); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ws.TrailCount() != 0 {
		t.Errorf("TrailCount = %d, want 0 after commit", ws.TrailCount())
	}
	if ws.SegmentCount() != 2 {
		t.Errorf("SegmentCount = %d, want 2", ws.SegmentCount())
	}
}

func TestCommit_RejectsWrongParent(t *testing.T) {
	a := mustTrail(t, "a", eastLine(40, -105, 100))
	b := mustTrail(t, "b", eastLine(41, -105, 100))
	ws := NewWorkingSet([]*Trail{a, b})
	innerB, _ := ws.Trail(b.ID)

	seg := NewSegment(innerB, innerB.Line)
	if err := ws.Commit(a.ID, []*Segment{seg}); err == nil {
		t.Fatal("commit with mismatched parent should fail")
	}
	if ws.TrailCount() != 2 {
		t.Error("failed commit must leave both trails in place")
	}
}

func TestPiecesOf(t *testing.T) {
	a := mustTrail(t, "a", eastLine(40, -105, 100))
	b := mustTrail(t, "b", eastLine(41, -105, 80))
	ws := NewWorkingSet([]*Trail{a, b})
	innerA, _ := ws.Trail(a.ID)

	s1 := NewSegment(innerA, geo.Line{innerA.Line[0], interpolateMid(innerA.Line)})
	s2 := NewSegment(innerA, geo.Line{interpolateMid(innerA.Line), innerA.Line[1]})
	if err := ws.Commit(a.ID, []*Segment{s1, s2}); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	if got := len(ws.PiecesOf(a.ID)); got != 2 {
		t.Errorf("PiecesOf(split trail) = %d pieces, want 2", got)
	}
	if got := len(ws.PiecesOf(b.ID)); got != 1 {
		t.Errorf("PiecesOf(unsplit trail) = %d pieces, want 1", got)
	}
	if got := len(ws.Pieces()); got != 3 {
		t.Errorf("Pieces() = %d, want 3", got)
	}
}

func TestTotalLengthM(t *testing.T) {
	a := mustTrail(t, "a", eastLine(40, -105, 100))
	ws := NewWorkingSet([]*Trail{a})
	if got := ws.TotalLengthM(); math.Abs(got-100) > 0.5 {
		t.Errorf("TotalLengthM = %v, want ~100", got)
	}
}

func TestGrid_RegisterDeduplicates(t *testing.T) {
	g := NewGrid(0.1)
	p := geo.Point{Lon: -105.28, Lat: 39.99}

	canon, added := g.Register(p)
	if !added || canon != p {
		t.Fatalf("first Register = (%v, %v)", canon, added)
	}

	// A point 2cm away lands in the same 10cm cell.
	near := geo.Point{Lon: p.Lon + 0.02/(geo.MetersPerDegreeLat*0.766), Lat: p.Lat}
	if g.Contains(near) != true {
		t.Skip("cell boundary landed between the two points")
	}
	canon2, added2 := g.Register(near)
	if added2 {
		t.Error("second Register in the same cell should not add")
	}
	if canon2 != p {
		t.Error("canonical point should be the first registrant")
	}

	far := geo.Point{Lon: p.Lon + 0.01, Lat: p.Lat}
	if _, added := g.Register(far); !added {
		t.Error("distant point should occupy a new cell")
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
}

// interpolateMid returns the midpoint of a two-point line.
func interpolateMid(l geo.Line) geo.Point {
	return geo.Point{
		Lon:  (l[0].Lon + l[1].Lon) / 2,
		Lat:  (l[0].Lat + l[1].Lat) / 2,
		Elev: (l[0].Elev + l[1].Elev) / 2,
	}
}
