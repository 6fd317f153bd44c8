package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
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

func mustTrail(t *testing.T, name string, pts ...geo.Point) *trail.Trail {
	t.Helper()
	tr, err := trail.NewTrail(name, "test", "unit", geo.Line(pts))
	require.NoError(t, err)
	return tr
}

func testOptions() Options {
	opts := DefaultOptions()
	opts.TrueIntersectionToleranceM = 1
	opts.TIntersectionToleranceM = 5
	opts.MinSegmentLengthM = 1
	opts.MaxConnectors = 10
	opts.MinConnectorLengthM = 5
	opts.ValidationToleranceM = 10
	return opts
}

// Two trails crossing once at their midpoints split into four segments
// meeting at a new degree-4 vertex, with lengths conserved.
func TestRunCrossingTrails(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "east-west", pt(-50, 0), pt(50, 0)),
		mustTrail(t, "north-south", pt(0, -40), pt(0, 40)),
	}

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, testOptions())
	require.NoError(t, err)

	require.Equal(t, StatusConverged, result.Status)
	require.Equal(t, 4, result.Counts.SegmentsCreated)
	require.Equal(t, 2, result.Counts.TrailsSplit)
	require.GreaterOrEqual(t, result.AccuracyPct, 98.0)

	var ewLength, nsLength float64
	for _, p := range result.WorkingSet.PiecesOf(trails[0].ID) {
		ewLength += p.LengthM
	}
	for _, p := range result.WorkingSet.PiecesOf(trails[1].ID) {
		nsLength += p.LengthM
	}
	require.InDelta(t, 100, ewLength, 2)
	require.InDelta(t, 80, nsLength, 2)

	cross := netgraph.VertexKey(pt(0, 0))
	require.Equal(t, 4, result.Network.Degree(cross))
	require.InDelta(t, 1, result.Metrics.Score, 1e-9)
}

// A short trail ending 3m from the interior of a longer one gets its
// endpoint snapped onto the projection and splits the long trail there.
func TestRunTIntersection(t *testing.T) {
	mainline := mustTrail(t, "mainline", pt(-60, 0), pt(60, 0))
	spur := mustTrail(t, "spur", pt(0, 53), pt(0, 3))

	opts := testOptions()
	opts.TIntersectionToleranceM = 10

	result, err := NewRunner(nil, nil).Execute(context.Background(), []*trail.Trail{mainline, spur}, opts)
	require.NoError(t, err)

	require.Equal(t, 1, result.Counts.EndpointsSnapped)
	require.Len(t, result.WorkingSet.PiecesOf(mainline.ID), 2)

	var mainLength float64
	for _, p := range result.WorkingSet.PiecesOf(mainline.ID) {
		mainLength += p.LengthM
	}
	require.InDelta(t, 120, mainLength, 2)
	require.Equal(t, 1, result.Metrics.Components)
}

// A degree-2 chain A-B-C-D (10m, 15m, 12m) contracts to one A-D edge of
// 37m, with B and C eliminated.
func TestRunContractsChain(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "first leg", pt(0, 0), pt(10, 0)),
		mustTrail(t, "second leg", pt(10, 0), pt(25, 0)),
		mustTrail(t, "third leg", pt(25, 0), pt(37, 0)),
	}

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, testOptions())
	require.NoError(t, err)

	require.Equal(t, StatusConverged, result.Status)
	require.Equal(t, 2, result.Counts.ChainsMerged)
	require.Equal(t, 1, result.Network.EdgeCount())
	require.Equal(t, 2, result.Network.VertexCount())

	_, bExists := result.Network.Vertex(netgraph.VertexKey(pt(10, 0)))
	_, cExists := result.Network.Vertex(netgraph.VertexKey(pt(25, 0)))
	require.False(t, bExists)
	require.False(t, cExists)

	e := result.Network.Edges()[0]
	require.InDelta(t, 37, e.LengthM, 0.5)
	require.Len(t, e.SegmentIDs, 3)
}

// Disjoint trails pass through untouched: no segments, no bridges, same
// vertex and edge counts.
func TestRunDisjointTrails(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "north", pt(-50, 200), pt(50, 200)),
		mustTrail(t, "south", pt(-50, -200), pt(50, -200)),
	}

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, testOptions())
	require.NoError(t, err)

	require.Equal(t, StatusConverged, result.Status)
	require.Equal(t, 1, result.Iterations)
	require.Equal(t, 0, result.Counts.SegmentsCreated)
	require.Equal(t, 0, result.Counts.GapsBridged)
	require.Equal(t, 4, result.Network.VertexCount())
	require.Equal(t, 2, result.Network.EdgeCount())
	require.Equal(t, 2, result.Metrics.Components)
	require.Contains(t, result.Metrics.IsolatedTrails, "north")
}

// A connectivity score dropping more than 5 points between iterations is
// a regression and always fatal.
func TestMonitorFlagsRegression(t *testing.T) {
	var m monitor
	require.NoError(t, m.observe(1, 0.92))

	err := m.observe(2, 0.60)
	require.Error(t, err)
	require.True(t, errors.Is(err, errors.ErrCodeConnectivityRegression))
	require.True(t, errors.Fatal(err))

	// A small drop inside the threshold is tolerated.
	var m2 monitor
	require.NoError(t, m2.observe(1, 0.92))
	require.NoError(t, m2.observe(2, 0.90))
}

func TestRunBridgesSmallGap(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "west", pt(-50, 0), pt(0, 0)),
		mustTrail(t, "east", pt(3, 0), pt(50, 0)),
	}

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, testOptions())
	require.NoError(t, err)

	require.Equal(t, 1, result.Counts.GapsBridged)
	require.Len(t, result.Bridges, 1)
	require.True(t, result.Bridges[0].Snapped)
	require.Equal(t, 1, result.Metrics.Components)
}

func TestRunConnectorCapIsPerRun(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "west", pt(-50, 0), pt(0, 0)),
		mustTrail(t, "middle", pt(7, 0), pt(50, 0)),
		mustTrail(t, "east", pt(58, 0), pt(100, 0)),
	}
	opts := testOptions()
	opts.TIntersectionToleranceM = 10
	opts.MaxConnectors = 1

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, opts)
	require.NoError(t, err)

	// Both gaps are connector-sized but the budget allows one for the
	// whole run, not one per optimization iteration.
	require.Equal(t, 1, result.Counts.GapsBridged)
	require.Len(t, result.Bridges, 1)
	require.InDelta(t, 7, result.Bridges[0].DistanceM, 0.1)
	require.Equal(t, 2, result.Metrics.Components)
}

func TestRunRemovesOverlap(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "long", pt(-50, 0), pt(50, 0)),
		mustTrail(t, "shadow", pt(-10, 0), pt(30, 0)),
	}

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, testOptions())
	require.NoError(t, err)

	require.Equal(t, 1, result.Counts.OverlapsRemoved)
	require.Equal(t, 1, result.Network.EdgeCount())
}

func TestRunRespectsPhaseToggles(t *testing.T) {
	trails := []*trail.Trail{
		mustTrail(t, "first leg", pt(0, 0), pt(10, 0)),
		mustTrail(t, "second leg", pt(10, 0), pt(25, 0)),
		mustTrail(t, "third leg", pt(25, 0), pt(37, 0)),
	}

	opts := testOptions()
	opts.EnableDegree2Merging = false

	result, err := NewRunner(nil, nil).Execute(context.Background(), trails, opts)
	require.NoError(t, err)

	// With merging off the chain survives and the loop still converges.
	require.Equal(t, StatusConverged, result.Status)
	require.Equal(t, 0, result.Counts.ChainsMerged)
	require.Equal(t, 3, result.Network.EdgeCount())
}

func TestRunInputSurvivesExecution(t *testing.T) {
	a := mustTrail(t, "east-west", pt(-50, 0), pt(50, 0))
	b := mustTrail(t, "north-south", pt(0, -40), pt(0, 40))
	lineBefore := a.Line.Clone()

	_, err := NewRunner(nil, nil).Execute(context.Background(), []*trail.Trail{a, b}, testOptions())
	require.NoError(t, err)
	require.Equal(t, lineBefore, a.Line)
}

func TestOptionsValidate(t *testing.T) {
	valid := testOptions()
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"missing true tolerance", func(o *Options) { o.TrueIntersectionToleranceM = 0 }},
		{"missing t tolerance", func(o *Options) { o.TIntersectionToleranceM = 0 }},
		{"missing min segment length", func(o *Options) { o.MinSegmentLengthM = 0 }},
		{"missing max connectors", func(o *Options) { o.MaxConnectors = 0 }},
		{"missing min connector length", func(o *Options) { o.MinConnectorLengthM = 0 }},
		{"missing validation tolerance", func(o *Options) { o.ValidationToleranceM = 0 }},
		{"accuracy above 100", func(o *Options) { o.MinAccuracyPct = 101 }},
		{"negative accuracy", func(o *Options) { o.MinAccuracyPct = -1 }},
		{"zero iterations", func(o *Options) { o.MaxIterations = 0 }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			err := opts.Validate()
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
		})
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	require.Equal(t, float64(DefaultMinAccuracyPct), opts.MinAccuracyPct)
	require.Equal(t, DefaultMaxIterations, opts.MaxIterations)
	require.True(t, opts.EnableDegree2Merging)
	require.True(t, opts.EnableOverlapDedup)
	require.False(t, opts.ReportOnly)
}
