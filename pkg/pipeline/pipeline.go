// Package pipeline provides the topology construction pipeline for
// trailnet.
//
// This package implements the complete classify → split → optimize
// pipeline that turns raw, overlapping trail polylines into a clean
// routable network. By centralizing this logic, CLI and library consumers
// get identical behavior from a single entry point.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Classify: pairwise intersection analysis over the working set
//  2. Split: replace trails with segments cut at the classified points
//  3. Optimize: a bounded loop of gap bridging, overlap dedup, degree-2
//     chain contraction and orphan cleanup over the graph view
//
// Destructive stages are validated against baselines captured beforehand,
// and the connectivity score is monitored across loop iterations.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(nil, logger)
//	opts := pipeline.DefaultOptions()
//	opts.TrueIntersectionToleranceM = 1
//	opts.TIntersectionToleranceM = 5
//	opts.MinSegmentLengthM = 10
//	opts.MaxConnectors = 50
//	opts.MinConnectorLengthM = 2
//	opts.ValidationToleranceM = 25
//	result, err := runner.Execute(ctx, trails, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Status, result.Metrics.Score)
package pipeline

import (
	"time"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/netgraph"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/topo/transform"
	"github.com/fellrunner/trailnet/pkg/topo/validate"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Library Consumers
// =============================================================================

const (
	// DefaultMinAccuracyPct is the minimum acceptable length-preservation
	// ratio after splitting, in percent.
	DefaultMinAccuracyPct = 98.0

	// DefaultMaxIterations bounds the optimization loop.
	DefaultMaxIterations = 10

	// RegressionThreshold is the connectivity score drop, in fractional
	// points, beyond which an iteration is treated as a regression. The
	// optimization phases only ever consolidate the network, so a drop
	// this large signals a correctness bug and is always fatal.
	RegressionThreshold = 0.05
)

// Loop states, logged as the optimization loop advances.
const (
	StateBridging      = "BRIDGING"
	StateContracting   = "CONTRACTING"
	StateOrphanCleanup = "ORPHAN_CLEANUP"
	StateValidating    = "VALIDATING"
	StateConverged     = "CONVERGED"
	StateFailed        = "FAILED"
)

// Run statuses.
const (
	StatusConverged = "converged"
	StatusWarning   = "warning"
	StatusFailed    = "failed"
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the topology pipeline. The struct
// supports TOML deserialization for config files; apply DefaultOptions
// first so absent optional keys keep their defaults.
type Options struct {
	// Classifier tolerances
	TrueIntersectionToleranceM float64 `toml:"true_intersection_tolerance_m"`
	TIntersectionToleranceM    float64 `toml:"t_intersection_tolerance_m"`

	// Splitter
	MinSegmentLengthM float64 `toml:"min_segment_length_m"`

	// Gap bridger
	MaxConnectors       int     `toml:"max_connectors"`
	MinConnectorLengthM float64 `toml:"min_connector_length_m"`

	// Validation
	MinAccuracyPct       float64 `toml:"min_accuracy_pct"`
	ValidationToleranceM float64 `toml:"validation_tolerance_m"`
	ReportOnly           bool    `toml:"report_only"`

	// Optimization loop
	EnableDegree2Merging bool `toml:"enable_degree2_merging"`
	EnableOverlapDedup   bool `toml:"enable_overlap_dedup"`
	MaxIterations        int  `toml:"max_iterations"`
}

// DefaultOptions returns Options with every optional field at its default.
// Required tolerances are left zero and must be set by the caller.
func DefaultOptions() Options {
	return Options{
		MinAccuracyPct:       DefaultMinAccuracyPct,
		MaxIterations:        DefaultMaxIterations,
		EnableDegree2Merging: true,
		EnableOverlapDedup:   true,
	}
}

// Validate checks required fields and bounds. It runs before any mutation
// so a bad configuration never touches a working set.
func (o Options) Validate() error {
	if o.TrueIntersectionToleranceM <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "true_intersection_tolerance_m must be positive, got %v", o.TrueIntersectionToleranceM)
	}
	if o.TIntersectionToleranceM <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "t_intersection_tolerance_m must be positive, got %v", o.TIntersectionToleranceM)
	}
	if o.MinSegmentLengthM <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_segment_length_m must be positive, got %v", o.MinSegmentLengthM)
	}
	if o.MaxConnectors <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_connectors must be positive, got %d", o.MaxConnectors)
	}
	if o.MinConnectorLengthM <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_connector_length_m must be positive, got %v", o.MinConnectorLengthM)
	}
	if o.ValidationToleranceM <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "validation_tolerance_m must be positive, got %v", o.ValidationToleranceM)
	}
	if o.MinAccuracyPct <= 0 || o.MinAccuracyPct > 100 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_accuracy_pct must be in (0, 100], got %v", o.MinAccuracyPct)
	}
	if o.MaxIterations <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "max_iterations must be positive, got %d", o.MaxIterations)
	}
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a pipeline run.
type Result struct {
	// Status is converged, warning (iteration cap reached) or failed.
	Status string

	// Iterations is the number of optimization-loop iterations executed.
	Iterations int

	// Counts accumulates the per-phase change counters across the run.
	Counts topo.Counts

	// AccuracyPct is the length-preservation accuracy achieved by the
	// split phase.
	AccuracyPct float64

	// Metrics is the connectivity state after the final iteration.
	Metrics netgraph.ConnectivityMetrics

	// Bridges lists every gap closed by the bridger.
	Bridges []transform.BridgeRecord

	// SplitReport is the validation report of the split phase.
	SplitReport validate.Report

	// WorkingSet is the finalized working set (segments and surviving
	// trails).
	WorkingSet *trail.WorkingSet

	// Network is the finalized graph view.
	Network *netgraph.Network

	// Stats contains timing information.
	Stats Stats
}

// Converged reports whether the optimization loop reached a fixed point.
func (r *Result) Converged() bool { return r.Status == StatusConverged }

// Stats contains pipeline execution statistics.
type Stats struct {
	ClassifyTime time.Duration
	SplitTime    time.Duration
	OptimizeTime time.Duration
}
