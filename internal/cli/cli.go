// Package cli implements the transitmap command-line interface.
//
// The CLI is built using cobra and logs through charmbracelet/log. Status
// output goes to stdout; logs and relayed solver output go to stderr.
//
// # Commands
//
//   - extract: Build a network graph from a GeoJSON file
//   - model: Write the optimization model for a graph and stop
//   - layout: Solve the model and write the schematic layout
//   - cache: Manage the solution cache
//
// # Caching
//
// Solutions are cached under the XDG cache directory. Setting
// TRANSITMAP_CACHE_URL to a redis:// or mongodb:// URL moves the cache to a
// shared server instead; TRANSITMAP_CACHE_SCOPE keeps several users of one
// server apart.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/transitmap/pkg/buildinfo"
	"github.com/matzehuels/transitmap/pkg/cache"
	"github.com/matzehuels/transitmap/pkg/metro"
	"github.com/matzehuels/transitmap/pkg/observability"
	"github.com/matzehuels/transitmap/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "transitmap"

	// cacheURLEnv selects a remote cache backend.
	cacheURLEnv = "TRANSITMAP_CACHE_URL"

	// cacheScopeEnv prefixes cache keys, for deployments sharing one backend.
	cacheScopeEnv = "TRANSITMAP_CACHE_SCOPE"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// stderr receives relayed solver output.
	stderr io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	c := &CLI{Logger: newLogger(w, level), stderr: w}
	c.SetLogLevel(level)
	return c
}

// SetLogLevel updates the logger's level. At debug level pipeline and cache
// events are logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
	} else {
		observability.Reset()
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Transitmap draws octilinear metro maps",
		Long:         `Transitmap turns a geographic transit network into a schematic metro map by solving a mixed-integer model with SCIP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.extractCommand())
	root.AddCommand(c.modelCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	store, err := newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(store, newKeyer(), c.Logger), nil
}

func newKeyer() cache.Keyer {
	keyer := cache.NewDefaultKeyer()
	if scope := os.Getenv(cacheScopeEnv); scope != "" {
		keyer = cache.NewScopedKeyer(keyer, scope+":")
	}
	return keyer
}

func newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	url := os.Getenv(cacheURLEnv)
	dir, err := cacheDir()
	if err != nil && url == "" {
		return cache.NewNullCache(), nil
	}
	return cache.Open(ctx, url, dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/transitmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// outputPath derives an output file name from the input by replacing its
// extension with suffix.
func outputPath(input, output, suffix string) string {
	if output != "" {
		return output
	}
	base := input[:len(input)-len(filepath.Ext(input))]
	return base + suffix
}

// =============================================================================
// Options Helpers
// =============================================================================

// loadSettings reads a settings file, or returns the defaults if path is empty.
func loadSettings(path string) (metro.Settings, error) {
	if path == "" {
		return metro.DefaultSettings(), nil
	}
	return metro.LoadSettingsFile(path)
}
