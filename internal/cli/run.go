package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fellrunner/trailnet/pkg/io"
	"github.com/fellrunner/trailnet/pkg/pipeline"
)

// runCommand creates the run command: the full ingest → topology →
// export pipeline.
func (c *CLI) runCommand() *cobra.Command {
	var (
		configPath string
		output     string
		dotOutput  string
		noMerge    bool
		noDedup    bool
	)
	flagOpts := pipeline.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "run [trails.geojson]",
		Short: "Build a routable network from raw trail data",
		Long: `Build a routable network from raw trail data.

The run command ingests a GeoJSON FeatureCollection of trail polylines,
classifies and splits their intersections, bridges small gaps, contracts
redundant degree-2 vertices, and writes the finished network back out as
GeoJSON.

Tolerances can be given as flags or in a TOML config file; flags win over
the file. A run that stops at the iteration cap still writes its
best-effort result and exits zero with a warning.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := loadOptions(cmd, configPath, flagOpts, noMerge, noDedup)
			if err != nil {
				return err
			}
			return c.runPipeline(cmd.Context(), args[0], output, dotOutput, opts)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "network.geojson", "output GeoJSON file")
	cmd.Flags().StringVar(&dotOutput, "dot", "", "also write the graph as Graphviz DOT to this file")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML config file with pipeline tolerances")
	cmd.Flags().BoolVar(&noMerge, flagNoDegree2Merge, false, "disable degree-2 chain contraction")
	cmd.Flags().BoolVar(&noDedup, flagNoOverlapDedup, false, "disable overlap deduplication")
	registerOptionFlags(cmd, &flagOpts)

	return cmd
}

func (c *CLI) runPipeline(ctx context.Context, input, output, dotOutput string, opts pipeline.Options) error {
	p := newProgress(c.Logger)
	trails, err := io.ImportGeoJSON(input)
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Loaded %d trails from %s", len(trails), input))

	runner := pipeline.NewRunner(nil, c.Logger)
	result, err := runner.Execute(ctx, trails, opts)
	if err != nil {
		return err
	}

	if err := io.ExportGeoJSON(result.Network, output); err != nil {
		return err
	}
	c.Logger.Info("wrote network", "file", output,
		"vertices", result.Network.VertexCount(),
		"edges", result.Network.EdgeCount())

	if dotOutput != "" {
		if err := os.WriteFile(dotOutput, []byte(io.ToDOT(result.Network)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", dotOutput, err)
		}
		c.Logger.Info("wrote graph", "file", dotOutput)
	}

	printSummary(result)
	return nil
}

func printSummary(result *pipeline.Result) {
	fmt.Printf("\nStatus:            %s (%d iterations)\n", result.Status, result.Iterations)
	fmt.Printf("Intersections:     %d found\n", result.Counts.IntersectionsFound)
	fmt.Printf("Splits:            %d trails into %d segments\n", result.Counts.TrailsSplit, result.Counts.SegmentsCreated)
	fmt.Printf("Gaps bridged:      %d (%d snapped)\n", result.Counts.GapsBridged, snappedCount(result))
	fmt.Printf("Chains merged:     %d\n", result.Counts.ChainsMerged)
	fmt.Printf("Overlaps removed:  %d\n", result.Counts.OverlapsRemoved)
	fmt.Printf("Accuracy:          %.2f%%\n", result.AccuracyPct)
	fmt.Printf("Connectivity:      %.1f%% (%d components)\n", result.Metrics.Score*100, result.Metrics.Components)
	for _, name := range result.Metrics.IsolatedTrails {
		fmt.Printf("  isolated: %s\n", name)
	}
}

func snappedCount(result *pipeline.Result) int {
	n := 0
	for _, b := range result.Bridges {
		if b.Snapped {
			n++
		}
	}
	return n
}
