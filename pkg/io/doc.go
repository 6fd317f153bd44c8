// Package io provides GeoJSON import and export for trail networks.
//
// # Overview
//
// This package reads raw trail data as GeoJSON and writes finished
// networks back out. The format is designed for:
//
//   - Ingesting route files from mapping tools and public trail datasets
//   - Handing finished networks to downstream consumers (route planners,
//     map renderers)
//   - Debugging: the graph can also be dumped as Graphviz DOT text
//
// # GeoJSON Format
//
// Input is a FeatureCollection of LineString or MultiLineString features.
// Coordinates are [lon, lat] or [lon, lat, elevation] triples; elevation
// is in meters and defaults to 0 when absent. Recognized properties:
//
//   - name: display name of the trail (defaults to the feature index)
//   - region: free-form region tag
//   - source: provenance tag (dataset, GPS import, ...)
//
// A MultiLineString expands into one trail per part, with the part number
// suffixed to the name.
//
// # Import
//
// Use [ImportGeoJSON] to read trails from a file path, or [ReadGeoJSON]
// to read from any io.Reader:
//
//	trails, err := io.ImportGeoJSON("trails.geojson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Both functions validate the structure; malformed features are rejected
// with INVALID_INPUT errors naming the offending feature.
//
// # Export
//
// Use [ExportGeoJSON] to write a finished network to a file, or
// [WriteGeoJSON] to write to any io.Writer. Edges become LineString
// features carrying length, elevation and contributing-segment counts;
// vertices become Point features carrying degree and role.
package io
