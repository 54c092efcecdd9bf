package pipeline

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/transitmap/pkg/cache"
	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
	"github.com/matzehuels/transitmap/pkg/metro"
	"github.com/matzehuels/transitmap/pkg/observability"
	"github.com/matzehuels/transitmap/pkg/solution"
	"github.com/matzehuels/transitmap/pkg/solver"
)

// Runner executes layout runs.
//
// The Runner holds no per-run state. Multiple goroutines can use the same
// Runner as long as their runs use distinct work directories.
type Runner struct {
	Solver        solver.Solver
	Normalizer    metro.Normalizer
	Generator     metro.Generator
	Reconstructor metro.Reconstructor
	Cache         cache.Cache
	Keyer         cache.Keyer
	Logger        *log.Logger
}

// NewRunner creates a runner with the given cache and keyer and the default
// collaborators: SCIP on the PATH, the octilinear model and coordinate
// reconstruction.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Solver:        solver.NewSCIP(solver.WithLogger(logger)),
		Normalizer:    metro.DefaultNormalizer{},
		Generator:     metro.LPGenerator{},
		Reconstructor: metro.CoordinateReconstructor{},
		Cache:         c,
		Keyer:         keyer,
		Logger:        logger,
	}
}

// Run lays out g: it writes the model into the work directory, solves it
// and reconstructs node positions from the solution.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, opts Options) (res *Result, err error) {
	if g == nil {
		return nil, errors.New(errors.ErrCodeInvalidGraph, "graph is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run", runID)
	hooks := observability.Pipeline()
	start := time.Now()
	hooks.OnRunStart(ctx, runID, g.NodeCount(), g.EdgeCount())
	defer func() {
		hooks.OnRunComplete(ctx, runID, time.Since(start), err)
	}()

	dir, cleanup, err := workDir(opts, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	result := &Result{RunID: runID, WorkDir: dir}

	// Stage 1: Normalize
	stageStart := time.Now()
	p, err := r.normalizer().Normalize(g)
	if err != nil {
		return nil, err
	}
	result.Stats.NormalizeTime = time.Since(stageStart)
	if p.Loops > 0 {
		logger.Warn("dropped self-loop edges", "count", p.Loops)
	}

	// Stage 2: Model
	stageStart = time.Now()
	model, err := r.writeModel(filepath.Join(dir, ModelFile), p, opts.Settings)
	result.Stats.ModelTime = time.Since(stageStart)
	result.Stats.ModelBytes = int64(len(model))
	hooks.OnModelComplete(ctx, runID, result.Stats.ModelBytes, result.Stats.ModelTime, err)
	if err != nil {
		return nil, err
	}
	logger.Debug("wrote model",
		"path", filepath.Join(dir, ModelFile),
		"bytes", len(model),
		"duration", result.Stats.ModelTime)

	// Stage 3: Solve (or reuse a cached solution)
	cacheKey := r.keyer().SolutionKey(cache.Hash(model), cache.SolutionKeyOpts{Solver: r.solverName()})
	text, hit := r.cachedSolution(ctx, cacheKey, dir, opts, logger)
	if !hit {
		stageStart = time.Now()
		hooks.OnSolveStart(ctx, runID, dir)
		err = r.solve(ctx, dir, opts)
		result.Stats.SolveTime = time.Since(stageStart)
		hooks.OnSolveComplete(ctx, runID, result.Stats.SolveTime, err)
		if err != nil {
			return nil, err
		}
		logger.Info("solved model", "duration", result.Stats.SolveTime)
	}
	result.CacheHit = hit

	// Stage 4: Parse
	stageStart = time.Now()
	var values solution.Values
	var objective *float64
	if hit {
		values, objective, err = solution.ParseWithObjective(bytes.NewReader(text))
	} else {
		values, objective, text, err = readSolution(filepath.Join(dir, ResultFile))
	}
	result.Stats.ParseTime = time.Since(stageStart)
	hooks.OnParseComplete(ctx, runID, len(values), result.Stats.ParseTime, err)
	if err != nil {
		return nil, err
	}
	result.Stats.Variables = len(values)
	result.Values = values
	if bad := values.NonFinite(); len(bad) > 0 {
		logger.Warn("solution has non-finite values", "variables", bad)
	}

	// Stage 5: Reconstruct
	layout, err := r.reconstructor().Reconstruct(p, values, opts.Settings)
	if err != nil {
		return nil, err
	}
	layout.Objective = objective
	result.Layout = layout
	if len(layout.Unplaced) > 0 {
		logger.Warn("stations kept their geographic position", "ids", layout.Unplaced)
	}

	if !hit {
		r.storeSolution(ctx, cacheKey, text, logger)
	}

	logger.Info("computed layout",
		"nodes", layout.NodeCount(),
		"edges", layout.EdgeCount(),
		"cached", hit,
		"duration", time.Since(start))

	return result, nil
}

// WriteModel normalizes g and writes its model to w without solving it.
func (r *Runner) WriteModel(g *graph.Graph, opts Options, w io.Writer) error {
	if g == nil {
		return errors.New(errors.ErrCodeInvalidGraph, "graph is nil")
	}
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}
	p, err := r.normalizer().Normalize(g)
	if err != nil {
		return err
	}
	return r.generator().Generate(w, p, opts.Settings)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// =============================================================================
// Stages
// =============================================================================

// workDir returns the run's directory and a function that releases it.
func workDir(opts Options, logger *log.Logger) (string, func(), error) {
	if opts.WorkDir != "" {
		if err := os.MkdirAll(opts.WorkDir, 0o755); err != nil {
			return "", nil, errors.Wrap(errors.ErrCodeIO, err, "create work dir")
		}
		return opts.WorkDir, func() {}, nil
	}

	dir, err := os.MkdirTemp("", TempDirPrefix)
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeIO, err, "create temp dir")
	}
	if opts.KeepWorkDir {
		logger.Info("keeping work dir", "dir", dir)
		return dir, func() {}, nil
	}
	return dir, func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.Warn("failed to remove work dir", "dir", dir, "err", err)
		}
	}, nil
}

// writeModel streams the model into path and returns its text.
func (r *Runner) writeModel(path string, p *metro.Prepared, s metro.Settings) (model []byte, err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "create model file")
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeIO, cerr, "close model file")
		}
	}()

	var buf bytes.Buffer
	bw := bufio.NewWriter(f)
	if err := r.generator().Generate(io.MultiWriter(bw, &buf), p, s); err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIO, err, "write model file")
	}
	return buf.Bytes(), nil
}

// solve runs the solver on the model in dir.
func (r *Runner) solve(ctx context.Context, dir string, opts Options) error {
	solveCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		solveCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	job := solver.Job{Dir: dir, ModelPath: ModelFile, ResultPath: ResultFile}
	if opts.Verbose {
		job.Stdout = opts.Stderr
	}

	err := r.solver().Solve(solveCtx, job)
	if err != nil && ctx.Err() == nil && stderrors.Is(solveCtx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, err, "solver did not finish within %s", opts.Timeout)
	}
	return err
}

// readSolution parses the result file and returns its text for caching.
func readSolution(path string) (solution.Values, *float64, []byte, error) {
	f, err := os.Open(path)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeMissingResult, err, "solver produced no result file")
	}
	if err != nil {
		return nil, nil, nil, errors.Wrap(errors.ErrCodeIO, err, "open result file")
	}
	defer f.Close()

	var text bytes.Buffer
	values, objective, err := solution.ParseWithObjective(io.TeeReader(f, &text))
	if err != nil {
		return nil, nil, nil, err
	}
	return values, objective, text.Bytes(), nil
}

// =============================================================================
// Cache
// =============================================================================

// cachedSolution returns the cached solver output for key. On a hit the text
// is also written into dir so kept work directories stay complete.
func (r *Runner) cachedSolution(ctx context.Context, key, dir string, opts Options, logger *log.Logger) ([]byte, bool) {
	hooks := observability.Cache()
	if opts.Refresh {
		return nil, false
	}
	data, hit, err := r.cache().Get(ctx, key)
	if err != nil {
		logger.Warn("cache read failed", "err", err)
		return nil, false
	}
	if !hit || len(data) == 0 {
		hooks.OnCacheMiss(ctx, "solution")
		return nil, false
	}
	hooks.OnCacheHit(ctx, "solution")
	if err := os.WriteFile(filepath.Join(dir, ResultFile), data, 0o644); err != nil {
		logger.Warn("failed to copy cached solution", "err", err)
	}
	logger.Debug("reusing cached solution", "key", key)
	return data, true
}

func (r *Runner) storeSolution(ctx context.Context, key string, text []byte, logger *log.Logger) {
	if len(text) == 0 {
		return
	}
	if err := r.cache().Set(ctx, key, text, cache.TTLSolution); err != nil {
		logger.Warn("cache write failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "solution", len(text))
}

// =============================================================================
// Defaults
// =============================================================================

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) solver() solver.Solver {
	if r.Solver == nil {
		return solver.NewSCIP()
	}
	return r.Solver
}

// solverName identifies the solver in cache keys.
func (r *Runner) solverName() string {
	if n, ok := r.solver().(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", r.solver())
}

func (r *Runner) normalizer() metro.Normalizer {
	if r.Normalizer == nil {
		return metro.DefaultNormalizer{}
	}
	return r.Normalizer
}

func (r *Runner) generator() metro.Generator {
	if r.Generator == nil {
		return metro.LPGenerator{}
	}
	return r.Generator
}

func (r *Runner) reconstructor() metro.Reconstructor {
	if r.Reconstructor == nil {
		return metro.CoordinateReconstructor{}
	}
	return r.Reconstructor
}

func (r *Runner) cache() cache.Cache {
	if r.Cache == nil {
		return cache.NewNullCache()
	}
	return r.Cache
}

func (r *Runner) keyer() cache.Keyer {
	if r.Keyer == nil {
		return cache.NewDefaultKeyer()
	}
	return r.Keyer
}
