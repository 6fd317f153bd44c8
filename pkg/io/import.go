package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/trail"
)

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

type feature struct {
	Type       string         `json:"type"`
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadGeoJSON decodes a GeoJSON FeatureCollection from r into trails.
//
// ReadGeoJSON returns an INVALID_INPUT error if:
//   - The JSON is malformed or not a FeatureCollection
//   - A feature carries a geometry type other than LineString or
//     MultiLineString
//   - A line has fewer than two positions, or a position has fewer than
//     two ordinates
//
// The returned trails are independent of r; ReadGeoJSON does not close r.
func ReadGeoJSON(r io.Reader) ([]*trail.Trail, error) {
	var fc featureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode GeoJSON")
	}
	if fc.Type != "FeatureCollection" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "expected FeatureCollection, got %q", fc.Type)
	}

	var trails []*trail.Trail
	for i, f := range fc.Features {
		name := stringProp(f.Properties, "name", fmt.Sprintf("feature %d", i))
		region := stringProp(f.Properties, "region", "")
		source := stringProp(f.Properties, "source", "")

		switch f.Geometry.Type {
		case "LineString":
			line, err := decodeLine(f.Geometry.Coordinates)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "feature %q", name)
			}
			t, err := trail.NewTrail(name, region, source, line)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "feature %q", name)
			}
			trails = append(trails, t)

		case "MultiLineString":
			var parts []json.RawMessage
			if err := json.Unmarshal(f.Geometry.Coordinates, &parts); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "feature %q", name)
			}
			for p, raw := range parts {
				line, err := decodeLine(raw)
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "feature %q part %d", name, p+1)
				}
				t, err := trail.NewTrail(fmt.Sprintf("%s (part %d)", name, p+1), region, source, line)
				if err != nil {
					return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "feature %q part %d", name, p+1)
				}
				trails = append(trails, t)
			}

		case "Point":
			// Vertex features from an exported network; not trail geometry.
			continue

		default:
			return nil, errors.New(errors.ErrCodeInvalidInput,
				"feature %q: unsupported geometry type %q", name, f.Geometry.Type)
		}
	}
	return trails, nil
}

// ImportGeoJSON reads a GeoJSON file at path and returns the decoded
// trails. It returns the same validation errors as [ReadGeoJSON].
func ImportGeoJSON(path string) ([]*trail.Trail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	trails, err := ReadGeoJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return trails, nil
}

func decodeLine(raw json.RawMessage) (geo.Line, error) {
	var coords [][]float64
	if err := json.Unmarshal(raw, &coords); err != nil {
		return nil, fmt.Errorf("decode coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("line needs at least 2 positions, got %d", len(coords))
	}
	line := make(geo.Line, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			return nil, fmt.Errorf("position %d has %d ordinates, want at least 2", i, len(c))
		}
		line[i] = geo.Point{Lon: c[0], Lat: c[1]}
		if len(c) > 2 {
			line[i].Elev = c[2]
		}
	}
	return line, nil
}

func stringProp(props map[string]any, key, fallback string) string {
	if v, ok := props[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
