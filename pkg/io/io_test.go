package io

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "geometry": {
        "type": "LineString",
        "coordinates": [[-105.28, 39.99, 1650], [-105.279, 39.991, 1680]]
      },
      "properties": {"name": "Mesa Trail", "region": "Boulder", "source": "osm"}
    },
    {
      "type": "Feature",
      "geometry": {
        "type": "MultiLineString",
        "coordinates": [
          [[-105.30, 40.00], [-105.301, 40.001]],
          [[-105.302, 40.002], [-105.303, 40.003]]
        ]
      },
      "properties": {"name": "Ridge Route"}
    }
  ]
}`

func TestReadGeoJSON(t *testing.T) {
	trails, err := ReadGeoJSON(strings.NewReader(sampleGeoJSON))
	require.NoError(t, err)
	require.Len(t, trails, 3)

	mesa := trails[0]
	require.Equal(t, "Mesa Trail", mesa.Name)
	require.Equal(t, "Boulder", mesa.Region)
	require.Equal(t, "osm", mesa.Source)
	require.InDelta(t, 1650, mesa.Line[0].Elev, 0.01)
	require.Greater(t, mesa.LengthM, 0.0)

	require.Equal(t, "Ridge Route (part 1)", trails[1].Name)
	require.Equal(t, "Ridge Route (part 2)", trails[2].Name)
	require.Zero(t, trails[1].Line[0].Elev)
}

func TestReadGeoJSONRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not a collection", `{"type": "Feature"}`},
		{"unsupported geometry", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": {"type": "Polygon", "coordinates": []}}]}`},
		{"single position", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[-105.28, 39.99]]}}]}`},
		{"one ordinate", `{"type": "FeatureCollection", "features": [
			{"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[-105.28], [-105.29]]}}]}`},
		{"malformed json", `{"type": "FeatureCollection", "features":`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadGeoJSON(strings.NewReader(tc.body))
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
		})
	}
}

func TestGeoJSONRoundTrip(t *testing.T) {
	trails, err := ReadGeoJSON(strings.NewReader(sampleGeoJSON))
	require.NoError(t, err)

	n := netgraph.New()
	for _, tr := range trails {
		n.AddLine(tr.Line, []uuid.UUID{tr.ID}, []string{tr.Name}, false)
	}

	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(n, &buf))

	// Edge features re-import as trails with the same names.
	back, err := ReadGeoJSON(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, back, 3)

	names := make(map[string]bool)
	for _, tr := range back {
		names[tr.Name] = true
	}
	require.True(t, names["Mesa Trail"])
	require.True(t, names["Ridge Route (part 1)"])
}

func TestWriteGeoJSONRejectsNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGeoJSON(netgraph.New(), &buf))
	require.Contains(t, buf.String(), "FeatureCollection")
}

func TestToDOT(t *testing.T) {
	n := netgraph.New()
	e := n.AddLine(geo.Line{
		{Lon: -105.28, Lat: 39.99},
		{Lon: -105.279, Lat: 39.991},
	}, []uuid.UUID{uuid.New()}, []string{"Mesa Trail"}, false)
	conn := n.AddLine(geo.Line{
		{Lon: -105.279, Lat: 39.991},
		{Lon: -105.2789, Lat: 39.9911},
	}, nil, []string{"connector"}, true)

	dot := ToDOT(n)
	require.Contains(t, dot, "graph trailnet {")
	require.Contains(t, dot, "Mesa Trail")
	require.Contains(t, dot, fmt.Sprintf("%q -- %q", e.A, e.B))
	require.Contains(t, dot, fmt.Sprintf("%q -- %q", conn.A, conn.B))
	require.Contains(t, dot, "style=dashed")
}
