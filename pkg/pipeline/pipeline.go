// Package pipeline runs a complete metro-map layout: it writes the
// optimization model for a network graph, runs an external solver on it and
// turns the solver's answer into node positions.
//
// # Runs
//
// Each run works in its own directory, which holds two artifacts:
//
//	problem.lp     the model, written by the metro.Generator
//	solution.sol   the solver's answer, read by the solution parser
//
// The steps are strictly sequential: normalize, write the model, solve,
// parse, reconstruct. When Options.WorkDir is empty the runner allocates a
// fresh temporary directory and removes it when the run ends, whether or not
// it succeeded. A caller-supplied directory is created if needed and never
// removed. Concurrent runs are independent as long as each uses its own
// directory.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Run(ctx, g, pipeline.Options{Verbose: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph.WriteLayout(result.Layout, os.Stdout)
//
// # Caching
//
// Solutions are cached by a hash of the model text. A run whose model was
// solved before skips the solver entirely; Options.Refresh forces a new
// solve.
package pipeline

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/metro"
	"github.com/matzehuels/transitmap/pkg/solution"
)

// =============================================================================
// Artifact Names
// =============================================================================

const (
	// ModelFile is the model artifact, relative to the work directory.
	ModelFile = "problem.lp"

	// ResultFile is the solver output artifact, relative to the work directory.
	ResultFile = "solution.sol"

	// TempDirPrefix prefixes work directories allocated by the runner.
	TempDirPrefix = "transit-map-"
)

// =============================================================================
// Options - Run Configuration
// =============================================================================

// Options configures a single layout run.
type Options struct {
	// WorkDir holds the run's artifacts. Empty means a temporary directory.
	WorkDir string

	// KeepWorkDir keeps an allocated temporary directory after the run.
	KeepWorkDir bool

	// Verbose relays the solver's progress output to Stderr.
	Verbose bool

	// Timeout bounds the solver. Zero means no limit.
	Timeout time.Duration

	// Settings tunes the model. The zero value means metro.DefaultSettings.
	Settings metro.Settings

	// Refresh skips the cache lookup. The new solution is still stored.
	Refresh bool

	// Stderr receives relayed solver output. Defaults to os.Stderr.
	Stderr io.Writer

	// Logger receives progress messages. Defaults to a discarding logger.
	Logger *log.Logger

	validated bool
}

// SetDefaults fills in zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Settings == (metro.Settings{}) {
		o.Settings = metro.DefaultSettings()
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options after defaults have been applied.
func (o *Options) Validate() error {
	if o.WorkDir != "" {
		if err := errors.ValidateWorkDir(o.WorkDir); err != nil {
			return err
		}
	}
	if o.Timeout < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout must not be negative")
	}
	return o.Settings.Validate()
}

// ValidateAndSetDefaults applies defaults and validates.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result
// =============================================================================

// Result contains the outputs of a layout run.
type Result struct {
	// RunID identifies the run in log output.
	RunID string

	// WorkDir is the directory the run used. Allocated directories no
	// longer exist when Run returns unless KeepWorkDir was set.
	WorkDir string

	// Layout is the reconstructed schematic.
	Layout *graph.Layout

	// Values are the raw solver assignments.
	Values solution.Values

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit reports whether the solution came from the cache.
	CacheHit bool
}

// Stats contains run statistics.
type Stats struct {
	NormalizeTime time.Duration
	ModelTime     time.Duration
	SolveTime     time.Duration
	ParseTime     time.Duration
	ModelBytes    int64
	Variables     int
}
