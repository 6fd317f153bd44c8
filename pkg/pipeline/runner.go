package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
	"github.com/fellrunner/trailnet/pkg/observability"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/topo/classify"
	"github.com/fellrunner/trailnet/pkg/topo/transform"
	"github.com/fellrunner/trailnet/pkg/topo/validate"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// Runner executes topology pipeline runs.
//
// The Runner is stateless except for the engine and logger; it holds no
// run results. Multiple goroutines can safely use the same Runner with
// separate inputs.
type Runner struct {
	Engine geo.Engine
	Logger *log.Logger
}

// NewRunner creates a runner. A nil engine defaults to the built-in
// geometry engine, a nil logger to the package default.
func NewRunner(engine geo.Engine, logger *log.Logger) *Runner {
	if engine == nil {
		engine = geo.NewEngine()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Engine: engine, Logger: logger}
}

// Execute runs the complete classify → split → optimize pipeline on a
// fresh working set copied from the input trails. The input is never
// mutated; on fatal error the partial working set is discarded.
func (r *Runner) Execute(ctx context.Context, trails []*trail.Trail, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ws := trail.NewWorkingSet(trails)
	grid := trail.NewGrid(opts.TrueIntersectionToleranceM * 0.01)
	result := &Result{WorkingSet: ws}

	r.Logger.Info("starting topology run",
		"trails", ws.TrailCount(),
		"total_length_m", ws.TotalLengthM())

	// Stage 1: Classify
	classifyStart := time.Now()
	points, err := r.classifyPhase(ctx, ws, opts)
	if err != nil {
		return nil, err
	}
	result.Counts.IntersectionsFound = len(points)
	result.Stats.ClassifyTime = time.Since(classifyStart)

	r.Logger.Info("classified intersections",
		"points", len(points),
		"duration", result.Stats.ClassifyTime)

	// Stage 2: Split
	splitStart := time.Now()
	if err := r.splitPhase(ctx, ws, grid, points, opts, result); err != nil {
		return nil, err
	}
	result.Stats.SplitTime = time.Since(splitStart)

	r.Logger.Info("split trails",
		"trails_split", result.Counts.TrailsSplit,
		"segments", ws.SegmentCount(),
		"accuracy_pct", result.AccuracyPct,
		"duration", result.Stats.SplitTime)

	// Stage 3: Optimize
	optimizeStart := time.Now()
	network := netgraph.Build(ws)
	result.Network = network
	if err := r.optimize(ctx, network, opts, result); err != nil {
		return nil, err
	}
	result.Stats.OptimizeTime = time.Since(optimizeStart)

	r.Logger.Info("topology run finished",
		"status", result.Status,
		"iterations", result.Iterations,
		"vertices", network.VertexCount(),
		"edges", network.EdgeCount(),
		"connectivity", result.Metrics.Score,
		"duration", result.Stats.OptimizeTime)
	return result, nil
}

func (r *Runner) classifyPhase(ctx context.Context, ws *trail.WorkingSet, opts Options) ([]topo.IntersectionPoint, error) {
	pieces := ws.Pieces()
	observability.Pipeline().OnPhaseStart(ctx, "classification", len(pieces))
	start := time.Now()

	classifier := classify.New(r.Engine, classify.Config{
		TrueToleranceM: opts.TrueIntersectionToleranceM,
		TToleranceM:    opts.TIntersectionToleranceM,
	}, r.Logger)
	points, err := classifier.Classify(ctx, pieces)

	observability.Pipeline().OnPhaseComplete(ctx, "classification", len(points), time.Since(start), err)
	return points, err
}

func (r *Runner) splitPhase(ctx context.Context, ws *trail.WorkingSet, grid *trail.Grid, points []topo.IntersectionPoint, opts Options, result *Result) error {
	observability.Pipeline().OnPhaseStart(ctx, "splitting", len(points))
	start := time.Now()

	baseline := validate.Capture(ws.Lines())
	splitter := transform.NewSplitter(r.Engine, transform.SplitConfig{
		TrueToleranceM:    opts.TrueIntersectionToleranceM,
		MinSegmentLengthM: opts.MinSegmentLengthM,
	}, grid, r.Logger)

	counts, err := splitter.Apply(ws, points)
	observability.Pipeline().OnPhaseComplete(ctx, "splitting", counts.SegmentsCreated, time.Since(start), err)
	if err != nil {
		return err
	}
	result.Counts.Add(counts)

	report, err := r.validator(opts).Check(baseline, ws.Lines())
	result.SplitReport = report
	result.AccuracyPct = report.AccuracyPct
	r.emitValidation(ctx, "splitting", report)
	return err
}

// optimize runs the bounded fixed-point loop: bridge, dedup, contract,
// orphan cleanup, validate, monitor. An iteration with zero changes means
// no overlaps and no eligible through vertices remain, so the loop has
// converged.
func (r *Runner) optimize(ctx context.Context, network *netgraph.Network, opts Options, result *Result) error {
	bridger := transform.NewBridger(transform.BridgeConfig{
		GapToleranceM:       opts.TIntersectionToleranceM,
		MaxConnectors:       opts.MaxConnectors,
		MinConnectorLengthM: opts.MinConnectorLengthM,
	}, r.Logger)
	deduper := transform.NewDeduper(r.Engine, r.Logger)
	contractor := transform.NewContractor(r.Logger)
	validator := r.validator(opts)

	var mon monitor
	for iter := 1; iter <= opts.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		result.Iterations = iter
		var iterCounts topo.Counts

		r.Logger.Debug("loop state", "iteration", iter, "state", StateBridging)
		records, bridgeCounts := bridger.Apply(network)
		result.Bridges = append(result.Bridges, records...)
		iterCounts.Add(bridgeCounts)

		r.Logger.Debug("loop state", "iteration", iter, "state", StateContracting)
		if opts.EnableOverlapDedup {
			iterCounts.Add(deduper.Apply(network))
		}
		if opts.EnableDegree2Merging {
			iterCounts.Add(contractor.Apply(network))
		}

		r.Logger.Debug("loop state", "iteration", iter, "state", StateOrphanCleanup)
		iterCounts.OrphansRemoved += network.RemoveOrphans()

		r.Logger.Debug("loop state", "iteration", iter, "state", StateValidating)
		report, err := validator.CheckGeometry(edgeLines(network))
		r.emitValidation(ctx, "optimization", report)
		if err != nil {
			result.Status = StatusFailed
			return err
		}

		metrics, err := network.Metrics()
		if err != nil {
			result.Status = StatusFailed
			return errors.Wrap(errors.ErrCodeInternal, err, "connectivity metrics for iteration %d", iter)
		}
		result.Metrics = metrics
		observability.Metrics().OnConnectivity(ctx, iter, metrics.Score, metrics.Components)
		r.Logger.Info("iteration complete",
			"iteration", iter,
			"bridged", iterCounts.GapsBridged,
			"merged", iterCounts.ChainsMerged,
			"deduped", iterCounts.OverlapsRemoved,
			"orphans", iterCounts.OrphansRemoved,
			"connectivity", metrics.Score)

		prev := mon.prev
		if err := mon.observe(iter, metrics.Score); err != nil {
			observability.Metrics().OnRegression(ctx, iter, prev, metrics.Score)
			result.Status = StatusFailed
			r.Logger.Error("loop state", "iteration", iter, "state", StateFailed)
			return err
		}

		result.Counts.Add(iterCounts)
		changed := iterCounts.Changed()
		observability.Pipeline().OnIterationComplete(ctx, iter, changed)
		if !changed {
			result.Status = StatusConverged
			r.Logger.Debug("loop state", "iteration", iter, "state", StateConverged)
			return nil
		}
	}

	// Cap exhaustion is a warning, not a failure: the best-effort result
	// is still returned to the caller.
	result.Status = StatusWarning
	r.Logger.Warn("optimization stopped before convergence",
		"iterations", opts.MaxIterations,
		"code", errors.ErrCodeConvergenceNotReached)
	return nil
}

func (r *Runner) validator(opts Options) *validate.Validator {
	return validate.New(r.Engine, validate.Config{
		ToleranceM:     opts.ValidationToleranceM,
		MinAccuracyPct: opts.MinAccuracyPct,
		ReportOnly:     opts.ReportOnly,
	}, r.Logger)
}

func (r *Runner) emitValidation(ctx context.Context, phase string, report validate.Report) {
	observability.Validation().OnValidation(ctx, phase, report.Passed, report.AccuracyPct)
	for _, name := range report.Failures() {
		observability.Validation().OnCheckFailed(ctx, phase, name)
	}
}

func edgeLines(n *netgraph.Network) []geo.Line {
	edges := n.Edges()
	out := make([]geo.Line, len(edges))
	for i, e := range edges {
		out[i] = e.Line
	}
	return out
}
