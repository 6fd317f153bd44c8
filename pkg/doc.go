// Package pkg provides the core libraries for Trailnet topology construction.
//
// # Overview
//
// Trailnet turns raw GPS trail linework into a routable network graph by
// finding where trails actually meet, cutting them there, and simplifying
// the result. The pkg directory is organized into four main areas:
//
//  1. [geo] - Geodesic primitives (points, lines, planar geometry engine)
//  2. [trail] - Trail domain model (trails, segments, working set)
//  3. [topo] - Topology construction (classify, transform, validate)
//  4. [pipeline] - Orchestration (classify → split → optimize)
//
// # Architecture
//
// The typical data flow through Trailnet:
//
//	GeoJSON trail linework
//	         ↓
//	    [topo/classify] package (detect and rank intersections)
//	         ↓
//	    [topo/transform] package (split, bridge, contract, dedup)
//	         ↓
//	    [netgraph] package (vertices, edges, connectivity metrics)
//	         ↓
//	    GeoJSON/DOT network output
//
// # Quick Start
//
// Build a network from a set of trails:
//
//	import (
//	    "context"
//	    "github.com/fellrunner/trailnet/pkg/io"
//	    "github.com/fellrunner/trailnet/pkg/pipeline"
//	)
//
//	// 1. Load trail linework
//	trails, _ := io.ImportGeoJSON("trails.geojson")
//
//	// 2. Run the pipeline
//	runner := pipeline.NewRunner(nil, nil)
//	result, _ := runner.Execute(context.Background(), trails, pipeline.DefaultOptions())
//
//	// 3. Export the network
//	_ = io.ExportGeoJSON("network.geojson", result.Network)
//
// # Main Packages
//
// ## Core Domain Logic
//
// [geo] - Geodesic and planar geometry. Points carry lon/lat/elevation,
// lines know their length and bounds, and Engine wraps the computational
// geometry used for intersection, splitting, and coverage checks.
//
// [trail] - The trail domain model. A Trail is raw input linework, a
// Segment is a piece of a trail produced by splitting, and WorkingSet
// holds both through the transactional split process.
//
// [topo/classify] - Intersection detection and classification. Finds
// true crossings, Y-junctions, T-intersections, multipoint crossings,
// and overlapping sections, and orders them for deterministic processing.
//
// [topo/transform] - Network surgery. Splitting trails at intersection
// points, bridging small gaps with snaps or synthetic connectors,
// contracting degree-2 chains, and removing duplicate overlapping edges.
//
// [topo/validate] - Data-preservation checks. Compares total length,
// coverage, and geometry validity before and after a transformation and
// reports per-check failures.
//
// ## Network Graph
//
// [netgraph] - The output network: vertices keyed by coordinates, edges
// carrying merged segment geometry, plus connectivity metrics (component
// count, connectivity score, isolated trails).
//
// ## Orchestration
//
// [pipeline] - Complete topology pipeline (classify → split → optimize)
// with convergence detection, iteration caps, and connectivity regression
// monitoring. Used by the CLI and usable as a library entry point.
//
// [io] - GeoJSON import/export for trails and networks, and DOT output
// for quick graph inspection.
//
// ## Supporting Packages
//
// [errors] - Coded error taxonomy shared across all packages.
//
// [observability] - Hook interfaces for pipeline, validation, and metrics
// events, with no-op defaults and a global registry.
//
// [buildinfo] - Version information embedded at build time.
//
// # Common Workflows
//
// Classify without modifying anything:
//
//	c := classify.New(geo.NewEngine(), classify.Config{TrueToleranceM: 1, TToleranceM: 5}, nil)
//	candidates, _ := c.Classify(ctx, ws)
//
// Inspect connectivity of a built network:
//
//	m, _ := network.Metrics()
//	fmt.Printf("score %.2f across %d components\n", m.Score, m.Components)
//
// Tune the pipeline from a TOML file via the CLI:
//
//	trailnet run trails.geojson --config trailnet.toml -o network.geojson
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                # All tests
//	go test ./pkg/topo/transform/... # Specific package
//	go test -run TestRun ./pkg/pipeline/...
//
// [geo]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/geo
// [trail]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/trail
// [topo]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/topo
// [topo/classify]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/topo/classify
// [topo/transform]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/topo/transform
// [topo/validate]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/topo/validate
// [netgraph]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/netgraph
// [pipeline]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/pipeline
// [io]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/io
// [errors]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/errors
// [observability]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/fellrunner/trailnet/pkg/buildinfo
package pkg
