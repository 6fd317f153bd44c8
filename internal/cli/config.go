package cli

import (
	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/pipeline"
)

// Flag names shared between registration and override detection.
const (
	flagTrueTolerance  = "true-tolerance"
	flagTTolerance     = "t-tolerance"
	flagMinSegment     = "min-segment"
	flagMaxConnectors  = "max-connectors"
	flagMinConnector   = "min-connector"
	flagMinAccuracy    = "min-accuracy"
	flagValidationTol  = "validation-tolerance"
	flagMaxIterations  = "max-iterations"
	flagReportOnly     = "report-only"
	flagNoDegree2Merge = "no-degree2-merging"
	flagNoOverlapDedup = "no-overlap-dedup"
)

// registerOptionFlags registers pipeline tuning flags on cmd, bound to
// opts. Flag defaults come from DefaultOptions so --help shows them.
func registerOptionFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.Float64Var(&opts.TrueIntersectionToleranceM, flagTrueTolerance, opts.TrueIntersectionToleranceM,
		"snap epsilon for true/Y crossing detection (meters, required)")
	f.Float64Var(&opts.TIntersectionToleranceM, flagTTolerance, opts.TIntersectionToleranceM,
		"proximity radius for T-intersection and gap detection (meters, required)")
	f.Float64Var(&opts.MinSegmentLengthM, flagMinSegment, opts.MinSegmentLengthM,
		"drop split pieces shorter than this (meters, required)")
	f.IntVar(&opts.MaxConnectors, flagMaxConnectors, opts.MaxConnectors,
		"cap on synthetic connector edges per run (required)")
	f.Float64Var(&opts.MinConnectorLengthM, flagMinConnector, opts.MinConnectorLengthM,
		"below this gap size, bridge by snapping instead of a connector (meters, required)")
	f.Float64Var(&opts.MinAccuracyPct, flagMinAccuracy, opts.MinAccuracyPct,
		"minimum acceptable length-preservation ratio (percent)")
	f.Float64Var(&opts.ValidationToleranceM, flagValidationTol, opts.ValidationToleranceM,
		"absolute length-difference tolerance for validation (meters, required)")
	f.IntVar(&opts.MaxIterations, flagMaxIterations, opts.MaxIterations,
		"bound on the optimization loop")
	f.BoolVar(&opts.ReportOnly, flagReportOnly, opts.ReportOnly,
		"report validation failures instead of aborting")
}

// loadOptions resolves the effective options: defaults, then the TOML
// config file (if given), then explicit flag overrides.
func loadOptions(cmd *cobra.Command, configPath string, flagOpts pipeline.Options, noMerge, noDedup bool) (pipeline.Options, error) {
	opts := pipeline.DefaultOptions()
	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, &opts); err != nil {
			return opts, errors.Wrap(errors.ErrCodeInvalidConfig, err, "load config %s", configPath)
		}
	}

	f := cmd.Flags()
	if f.Changed(flagTrueTolerance) {
		opts.TrueIntersectionToleranceM = flagOpts.TrueIntersectionToleranceM
	}
	if f.Changed(flagTTolerance) {
		opts.TIntersectionToleranceM = flagOpts.TIntersectionToleranceM
	}
	if f.Changed(flagMinSegment) {
		opts.MinSegmentLengthM = flagOpts.MinSegmentLengthM
	}
	if f.Changed(flagMaxConnectors) {
		opts.MaxConnectors = flagOpts.MaxConnectors
	}
	if f.Changed(flagMinConnector) {
		opts.MinConnectorLengthM = flagOpts.MinConnectorLengthM
	}
	if f.Changed(flagMinAccuracy) {
		opts.MinAccuracyPct = flagOpts.MinAccuracyPct
	}
	if f.Changed(flagValidationTol) {
		opts.ValidationToleranceM = flagOpts.ValidationToleranceM
	}
	if f.Changed(flagMaxIterations) {
		opts.MaxIterations = flagOpts.MaxIterations
	}
	if f.Changed(flagReportOnly) {
		opts.ReportOnly = flagOpts.ReportOnly
	}
	if noMerge {
		opts.EnableDegree2Merging = false
	}
	if noDedup {
		opts.EnableOverlapDedup = false
	}
	return opts, nil
}
