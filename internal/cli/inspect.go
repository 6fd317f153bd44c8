package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/io"
	"github.com/fellrunner/trailnet/pkg/pipeline"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/topo/classify"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// inspectCommand creates the inspect command: a read-only classifier dry
// run over the input, reporting intersection counts by kind without
// mutating anything.
func (c *CLI) inspectCommand() *cobra.Command {
	var (
		configPath string
		noMerge    bool
		noDedup    bool
	)
	flagOpts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "inspect [trails.geojson]",
		Short: "Classify intersections without building the network",
		Long: `Classify intersections without building the network.

The inspect command runs only the read-only classifier over the input and
reports what a full run would split: intersection counts by kind, plus a
per-trail breakdown. Useful for tuning tolerances before committing to a
run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, configPath, flagOpts, noMerge, noDedup)
			if err != nil {
				return err
			}
			if err := opts.Validate(); err != nil {
				return err
			}
			return c.runInspect(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file with pipeline tolerances")
	registerOptionFlags(cmd, &flagOpts)

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, input string, opts pipeline.Options) error {
	p := newProgress(c.Logger)
	trails, err := io.ImportGeoJSON(input)
	if err != nil {
		return err
	}

	ws := trail.NewWorkingSet(trails)
	classifier := classify.New(geo.NewEngine(), classify.Config{
		TrueToleranceM: opts.TrueIntersectionToleranceM,
		TToleranceM:    opts.TIntersectionToleranceM,
	}, c.Logger)

	points, err := classifier.Classify(ctx, ws.Pieces())
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Classified %d trails", len(trails)))

	byKind := make(map[topo.Kind]int)
	for _, pt := range points {
		byKind[pt.Kind]++
	}

	fmt.Printf("\nTrails:         %d (%.1f km total)\n", len(trails), ws.TotalLengthM()/1000)
	fmt.Printf("Intersections:  %d\n", len(points))
	for _, kind := range []topo.Kind{topo.KindTrue, topo.KindY, topo.KindT, topo.KindMultipoint, topo.KindOverlapping, topo.KindUnknown} {
		if byKind[kind] > 0 {
			fmt.Printf("  %-12s %d\n", string(kind)+":", byKind[kind])
		}
	}

	for _, pt := range points {
		if pt.Kind != topo.KindT {
			continue
		}
		fmt.Printf("  t-gap %.1fm at (%.5f, %.5f)\n", pt.DistanceM, pt.Point.Lon, pt.Point.Lat)
	}
	return nil
}
