package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/pipeline"
	"github.com/matzehuels/transitmap/pkg/solver"
)

// layoutFlags holds the layout command's flags that are not pipeline options.
type layoutFlags struct {
	output   string
	settings string
	solver   string
	noCache  bool
	silent   bool
	quiet    bool
}

// layoutCommand creates the layout command for computing schematic layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var flags layoutFlags
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [graph.json]",
		Short: "Compute a schematic layout for a network graph",
		Long: `Compute a schematic layout for a network graph.

The layout command takes a graph.json file (produced by 'extract'), writes the
optimization model into a work directory, runs SCIP on it and writes the
stations' schematic positions to a layout.json file.

The solver's progress output is shown on stderr unless --silent or
--no-solver-output is given.

SCIP must be installed and on your $PATH (or named with --solver). Solutions
are cached by model, so re-running an unchanged network skips the solver.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], opts, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().StringVar(&flags.settings, "settings", "", "TOML settings file")
	cmd.Flags().StringVar(&flags.solver, "solver", solver.DefaultExecutable, "solver executable")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&flags.silent, "silent", false, "suppress solver and status output")
	cmd.Flags().BoolVar(&flags.quiet, "no-solver-output", false, "show a spinner instead of the solver's progress output")

	cmd.Flags().StringVar(&opts.WorkDir, "work-dir", "", "directory for the model and solution files (default: a temporary directory)")
	cmd.Flags().BoolVar(&opts.KeepWorkDir, "keep", false, "keep the temporary work directory")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "stop the solver after this long (e.g. 10m)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "solve again even if a cached solution exists")

	return cmd
}

// runLayout loads the graph, runs the pipeline and writes the layout.
func (c *CLI) runLayout(ctx context.Context, input string, opts pipeline.Options, flags layoutFlags) error {
	out := newPrinter(flags.silent)

	g, err := graph.ReadGraphFile(input)
	if err != nil {
		return err
	}
	if opts.Settings, err = loadSettings(flags.settings); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()
	runner.Solver = solver.NewSCIP(
		solver.WithExecutable(flags.solver),
		solver.WithLogger(c.Logger),
	)

	opts.Logger = c.Logger
	opts.Verbose = !flags.silent && !flags.quiet
	opts.Stderr = c.stderr

	var spinner *Spinner
	if !flags.silent && flags.quiet {
		spinner = newSpinner(ctx, fmt.Sprintf("Solving layout for %d stations...", g.NodeCount()))
		spinner.Start()
	}

	result, err := runner.Run(ctx, g, opts)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		out.fail("Layout failed")
		return err
	}

	path := outputPath(input, flags.output, ".layout.json")
	if err := graph.WriteLayoutFile(result.Layout, path); err != nil {
		return err
	}

	layout := result.Layout
	out.success("Layout complete")
	out.file(path)
	out.stats(layout.NodeCount(), layout.EdgeCount(), len(layout.Lines), &result.CacheHit)
	if layout.Objective != nil {
		out.detail("objective %g", *layout.Objective)
	}
	if !result.CacheHit {
		out.detail("solved in %s", result.Stats.SolveTime.Round(time.Millisecond))
	}
	if opts.WorkDir != "" || opts.KeepWorkDir {
		out.detail("work dir %s", result.WorkDir)
	}
	if n := len(layout.Unplaced); n > 0 {
		out.warning("%d stations kept their geographic position", n)
	}
	return nil
}
