package classify

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/trail"
)

const (
	testLat = 39.99
	testLon = -105.28
)

func pt(eastM, northM float64) geo.Point {
	lonScale := geo.MetersPerDegreeLat * math.Cos(testLat*math.Pi/180)
	return geo.Point{
		Lon: testLon + eastM/lonScale,
		Lat: testLat + northM/geo.MetersPerDegreeLat,
	}
}

func piece(t *testing.T, name string, pts ...geo.Point) trail.Piece {
	t.Helper()
	id := uuid.New()
	return trail.Piece{
		ID:      id,
		TrailID: id,
		Name:    name,
		Line:    geo.Line(pts),
		LengthM: geo.Length3DM(geo.Line(pts)),
	}
}

func testClassifier() *Classifier {
	return New(geo.NewEngine(), Config{TrueToleranceM: 1, TToleranceM: 5}, nil)
}

func TestClassifyTrueCrossing(t *testing.T) {
	c := testClassifier()
	// Perpendicular crossing at the origin of the local frame.
	a := piece(t, "east-west", pt(-50, 0), pt(50, 0))
	b := piece(t, "north-south", pt(0, -40), pt(0, 40))

	pts, err := c.Classify(context.Background(), []trail.Piece{a, b})
	require.NoError(t, err)
	require.Len(t, pts, 1)
	require.Equal(t, topo.KindTrue, pts[0].Kind)
	require.ElementsMatch(t, []uuid.UUID{a.TrailID, b.TrailID}, pts[0].TrailIDs)
	require.Less(t, geo.HaversineM(pts[0].Point, pt(0, 0)), 0.5)
}

func TestClassifyYCrossing(t *testing.T) {
	c := testClassifier()
	// Oblique crossing at roughly 45 degrees.
	a := piece(t, "east-west", pt(-50, 0), pt(50, 0))
	b := piece(t, "diagonal", pt(-40, -40), pt(40, 40))

	pts, err := c.Classify(context.Background(), []trail.Piece{a, b})
	require.NoError(t, err)
	require.Len(t, pts, 1)
	require.Equal(t, topo.KindY, pts[0].Kind)
}

func TestClassifyMultipoint(t *testing.T) {
	c := testClassifier()
	// A zigzag that crosses the baseline twice.
	a := piece(t, "baseline", pt(-60, 0), pt(60, 0))
	b := piece(t, "zigzag", pt(-40, -20), pt(0, 20), pt(40, -20))

	pts, err := c.Classify(context.Background(), []trail.Piece{a, b})
	require.NoError(t, err)
	require.Len(t, pts, 2)
	for _, p := range pts {
		require.Equal(t, topo.KindMultipoint, p.Kind)
	}
}

func TestClassifyTIntersection(t *testing.T) {
	c := testClassifier()
	// The spur's endpoint stops ~3m short of the mainline interior.
	mainline := piece(t, "mainline", pt(-50, 0), pt(50, 0))
	spur := piece(t, "spur", pt(0, 40), pt(0, 3))

	pts, err := c.Classify(context.Background(), []trail.Piece{mainline, spur})
	require.NoError(t, err)
	require.Len(t, pts, 1)

	p := pts[0]
	require.Equal(t, topo.KindT, p.Kind)
	require.Equal(t, spur.ID, p.VisitorID)
	require.Equal(t, mainline.ID, p.VisitedID)
	require.InDelta(t, 3, p.DistanceM, 0.5)
	require.Less(t, geo.HaversineM(p.Projection, pt(0, 0)), 0.5)
}

func TestClassifyNearMissBeyondTolerance(t *testing.T) {
	c := testClassifier()
	mainline := piece(t, "mainline", pt(-50, 0), pt(50, 0))
	spur := piece(t, "spur", pt(0, 40), pt(0, 8)) // 8m gap, tolerance is 5

	pts, err := c.Classify(context.Background(), []trail.Piece{mainline, spur})
	require.NoError(t, err)
	require.Empty(t, pts)
}

func TestClassifyEndpointApproachIsNotT(t *testing.T) {
	c := testClassifier()
	// The spur approaches the mainline's endpoint, not its interior.
	mainline := piece(t, "mainline", pt(0, 0), pt(50, 0))
	spur := piece(t, "spur", pt(0, 40), pt(0, 3))

	pts, err := c.Classify(context.Background(), []trail.Piece{mainline, spur})
	require.NoError(t, err)
	require.Empty(t, pts)
}

func TestClassifyOverlapping(t *testing.T) {
	c := testClassifier()
	a := piece(t, "long", pt(-50, 0), pt(50, 0))
	b := piece(t, "shared", pt(-10, 0), pt(30, 0))

	pts, err := c.Classify(context.Background(), []trail.Piece{a, b})
	require.NoError(t, err)
	require.Len(t, pts, 1)
	require.Equal(t, topo.KindOverlapping, pts[0].Kind)
	require.False(t, pts[0].Splittable())
}

func TestClassifyOrdersCrossingsBeforeT(t *testing.T) {
	c := testClassifier()
	a := piece(t, "east-west", pt(-50, 0), pt(50, 0))
	b := piece(t, "north-south", pt(20, -40), pt(20, 40))
	spur := piece(t, "spur", pt(-20, 40), pt(-20, 3))

	pts, err := c.Classify(context.Background(), []trail.Piece{a, b, spur})
	require.NoError(t, err)
	require.Len(t, pts, 2)
	require.Equal(t, topo.KindTrue, pts[0].Kind)
	require.Equal(t, topo.KindT, pts[1].Kind)
}

func TestClassifyDeterministic(t *testing.T) {
	c := testClassifier()
	pieces := []trail.Piece{
		piece(t, "east-west", pt(-50, 0), pt(50, 0)),
		piece(t, "north-south", pt(0, -40), pt(0, 40)),
		piece(t, "diagonal", pt(-40, -30), pt(40, 30)),
		piece(t, "spur", pt(30, 40), pt(30, 3)),
	}

	first, err := c.Classify(context.Background(), pieces)
	require.NoError(t, err)
	for range 5 {
		next, err := c.Classify(context.Background(), pieces)
		require.NoError(t, err)
		require.Equal(t, first, next)
	}
}

func TestDedupeMergesCoincidentCandidates(t *testing.T) {
	c := testClassifier()
	id1, id2, id3 := uuid.New(), uuid.New(), uuid.New()
	at := pt(0, 0)

	out := c.dedupe([]topo.IntersectionPoint{
		{Point: at, Kind: topo.KindT, TrailIDs: []uuid.UUID{id1, id2}, DistanceM: 3},
		{Point: at, Kind: topo.KindTrue, TrailIDs: []uuid.UUID{id2, id3}},
	})
	require.Len(t, out, 1)
	require.Equal(t, topo.KindTrue, out[0].Kind)
	require.ElementsMatch(t, []uuid.UUID{id1, id2, id3}, out[0].TrailIDs)
	require.Zero(t, out[0].DistanceM)
}
