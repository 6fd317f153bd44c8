// Package validate implements the splitting/merging validator: baseline
// capture before a destructive phase and a battery of conservation checks
// after it.
package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
)

// Check names as they appear in reports and logs.
const (
	CheckLength    = "length"
	CheckAccuracy  = "accuracy"
	CheckGeometry  = "geometry"
	CheckCoverage  = "coverage"
	CheckDuplicate = "duplicate"
)

// Config holds the validation thresholds.
type Config struct {
	// ToleranceM is the absolute length-difference and coverage tolerance.
	ToleranceM float64
	// MinAccuracyPct is the minimum acceptable length-preservation ratio,
	// in percent.
	MinAccuracyPct float64
	// ReportOnly downgrades failures from fatal errors to warnings.
	ReportOnly bool
}

// Baseline is the state captured before a destructive phase.
type Baseline struct {
	Count        int
	TotalLengthM float64
	Lines        []geo.Line
}

// Capture snapshots the given geometries. The lines are cloned so later
// mutation of the working set cannot corrupt the baseline.
func Capture(lines []geo.Line) Baseline {
	b := Baseline{Count: len(lines), Lines: make([]geo.Line, len(lines))}
	for i, l := range lines {
		b.Lines[i] = l.Clone()
		b.TotalLengthM += geo.Length3DM(l)
	}
	return b
}

// Outcome is the result of one check.
type Outcome struct {
	Name   string
	Passed bool
	Detail string
}

// Report collects the outcomes of a validation run.
type Report struct {
	Checks      []Outcome
	AccuracyPct float64
	Passed      bool
}

// Failures lists the names of failed checks.
func (r Report) Failures() []string {
	var out []string
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c.Name)
		}
	}
	return out
}

func (r *Report) add(name string, passed bool, detail string) {
	r.Checks = append(r.Checks, Outcome{Name: name, Passed: passed, Detail: detail})
	if !passed {
		r.Passed = false
	}
}

// Validator checks destructive phases against a captured baseline.
type Validator struct {
	engine geo.Engine
	cfg    Config
	logger *log.Logger
}

// New creates a validator. A nil logger defaults to the package default.
func New(engine geo.Engine, cfg Config, logger *log.Logger) *Validator {
	if logger == nil {
		logger = log.Default()
	}
	return &Validator{engine: engine, cfg: cfg, logger: logger}
}

// Check runs the full battery against a baseline: length conservation,
// accuracy, per-geometry validity, spatial coverage and duplicate
// detection. A failed check is fatal unless ReportOnly is set.
func (v *Validator) Check(base Baseline, after []geo.Line) (Report, error) {
	report := Report{Passed: true}

	var afterLength float64
	for _, l := range after {
		afterLength += geo.Length3DM(l)
	}
	delta := math.Abs(base.TotalLengthM - afterLength)
	report.add(CheckLength, delta <= v.cfg.ToleranceM,
		fmt.Sprintf("baseline %.1fm, result %.1fm, delta %.2fm", base.TotalLengthM, afterLength, delta))

	report.AccuracyPct = accuracyPct(base.TotalLengthM, delta)
	report.add(CheckAccuracy, report.AccuracyPct >= v.cfg.MinAccuracyPct,
		fmt.Sprintf("%.2f%% of length preserved, floor %.1f%%", report.AccuracyPct, v.cfg.MinAccuracyPct))

	v.checkGeometry(&report, after)

	diff, err := v.engine.SymmetricDifferenceLengthM(base.Lines, after)
	if err != nil {
		report.add(CheckCoverage, false, fmt.Sprintf("union failed: %v", err))
	} else {
		report.add(CheckCoverage, diff <= v.cfg.ToleranceM,
			fmt.Sprintf("%.2fm of linework differs from baseline", diff))
	}

	v.checkDuplicates(&report, after)

	return report, v.finish(report)
}

// CheckGeometry runs only the per-geometry validity and duplicate checks.
// Used inside the optimization loop, where bridging and dedup move total
// length on purpose.
func (v *Validator) CheckGeometry(after []geo.Line) (Report, error) {
	report := Report{Passed: true, AccuracyPct: 100}
	v.checkGeometry(&report, after)
	v.checkDuplicates(&report, after)
	return report, v.finish(report)
}

func (v *Validator) checkGeometry(report *Report, after []geo.Line) {
	bad := 0
	for _, l := range after {
		if !v.engine.Valid(l) {
			bad++
		}
	}
	report.add(CheckGeometry, bad == 0, fmt.Sprintf("%d of %d geometries invalid", bad, len(after)))
}

func (v *Validator) checkDuplicates(report *Report, after []geo.Line) {
	seen := make(map[string]bool, len(after))
	dups := 0
	for _, l := range after {
		k := lineFingerprint(l)
		if seen[k] {
			dups++
		}
		seen[k] = true
	}
	report.add(CheckDuplicate, dups == 0, fmt.Sprintf("%d exactly coincident geometries", dups))
}

func (v *Validator) finish(report Report) error {
	if report.Passed {
		return nil
	}
	failed := strings.Join(report.Failures(), ", ")
	if v.cfg.ReportOnly {
		v.logger.Warn("validation failed, continuing in report-only mode", "checks", failed)
		return nil
	}
	return errors.New(errors.ErrCodeValidation, "validation failed: %s", failed)
}

func accuracyPct(baseLength, delta float64) float64 {
	if baseLength == 0 {
		return 100
	}
	return (1 - delta/baseLength) * 100
}

// lineFingerprint produces an orientation-independent identity for exact
// coincidence detection.
func lineFingerprint(l geo.Line) string {
	fwd := directional(l)
	rev := directional(l.Reverse())
	if rev < fwd {
		return rev
	}
	return fwd
}

func directional(l geo.Line) string {
	var sb strings.Builder
	for _, p := range l {
		fmt.Fprintf(&sb, "%.7f,%.7f;", p.Lon, p.Lat)
	}
	return sb.String()
}
