package io

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
)

// WriteGeoJSON encodes a finished network as a GeoJSON FeatureCollection
// and writes it to w. Edges become LineString features, vertices become
// Point features.
func WriteGeoJSON(n *netgraph.Network, w io.Writer) error {
	fc := featureCollection{Type: "FeatureCollection"}

	for _, e := range n.Edges() {
		coords, err := json.Marshal(lineCoords(e.Line))
		if err != nil {
			return fmt.Errorf("edge %s: %w", e.ID, err)
		}
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "LineString", Coordinates: coords},
			Properties: map[string]any{
				"id":            e.ID,
				"name":          strings.Join(e.Names, " / "),
				"length_m":      round1(e.LengthM),
				"gain_m":        round1(e.GainM),
				"loss_m":        round1(e.LossM),
				"segment_count": len(e.SegmentIDs),
				"synthetic":     e.Synthetic,
			},
		})
	}

	for _, v := range n.Vertices() {
		coords, err := json.Marshal(pointCoords(v.Point))
		if err != nil {
			return fmt.Errorf("vertex %s: %w", v.ID, err)
		}
		fc.Features = append(fc.Features, feature{
			Type:     "Feature",
			Geometry: geometry{Type: "Point", Coordinates: coords},
			Properties: map[string]any{
				"id":     v.ID,
				"degree": n.Degree(v.ID),
				"role":   n.Role(v.ID),
			},
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fc); err != nil {
		return fmt.Errorf("encode GeoJSON: %w", err)
	}
	return nil
}

// ExportGeoJSON writes the network to a GeoJSON file at path.
func ExportGeoJSON(n *netgraph.Network, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGeoJSON(n, f); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ToDOT converts a network to Graphviz DOT format for debugging. Vertices
// are labeled with their role, edges with name and length; synthetic
// connectors are dashed.
func ToDOT(n *netgraph.Network) string {
	var buf bytes.Buffer
	buf.WriteString("graph trailnet {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  node [shape=point, width=0.1];\n")
	buf.WriteString("\n")

	for _, v := range n.Vertices() {
		fmt.Fprintf(&buf, "  %q [xlabel=%q];\n", v.ID, n.Role(v.ID))
	}

	buf.WriteString("\n")
	for _, e := range n.Edges() {
		label := fmt.Sprintf("%s (%.0fm)", strings.Join(e.Names, " / "), e.LengthM)
		attrs := []string{fmt.Sprintf("label=%q", label)}
		if e.Synthetic {
			attrs = append(attrs, "style=dashed")
		}
		fmt.Fprintf(&buf, "  %q -- %q [%s];\n", e.A, e.B, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func lineCoords(l geo.Line) [][]float64 {
	out := make([][]float64, len(l))
	for i, p := range l {
		out[i] = []float64{p.Lon, p.Lat, p.Elev}
	}
	return out
}

func pointCoords(p geo.Point) []float64 {
	return []float64{p.Lon, p.Lat, p.Elev}
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
