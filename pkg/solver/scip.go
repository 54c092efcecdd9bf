package solver

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/transitmap/pkg/errors"
)

const (
	// DefaultExecutable is the SCIP binary looked up on $PATH.
	DefaultExecutable = "scip"

	// waitDelay bounds how long Wait keeps reading pipes held open by
	// children of a killed solver.
	waitDelay = 2 * time.Second

	maxStderr = 64 << 10
)

// SCIP runs the SCIP optimization suite as a child process.
type SCIP struct {
	// Executable is the binary name or path. Empty means [DefaultExecutable].
	Executable string

	// Timeout bounds a single solve. Zero means no limit.
	Timeout time.Duration

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger
}

// Option configures a [SCIP] solver.
type Option func(*SCIP)

// WithExecutable sets the solver binary.
func WithExecutable(name string) Option {
	return func(s *SCIP) { s.Executable = name }
}

// WithTimeout limits how long a solve may run.
func WithTimeout(d time.Duration) Option {
	return func(s *SCIP) { s.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(s *SCIP) { s.Logger = l }
}

// NewSCIP creates a SCIP solver.
func NewSCIP(opts ...Option) *SCIP {
	s := &SCIP{Executable: DefaultExecutable}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Args returns the command-line directives for job.
func (s *SCIP) Args(job Job) []string {
	return []string{
		"-c", "read " + job.ModelPath,
		"-c", "optimize",
		"-c", "write solution " + job.ResultPath,
		"-c", "quit",
	}
}

// Solve runs SCIP on job and waits for it to exit.
//
// The first byte the solver writes to stderr kills it and fails the solve.
// If a child of the solver still holds the output pipes, Solve returns at
// most 2s after the kill.
func (s *SCIP) Solve(ctx context.Context, job Job) error {
	if err := validateJob(job); err != nil {
		return err
	}

	exe := s.executable()
	if err := errors.ValidateExecutable(exe); err != nil {
		return err
	}
	path, err := exec.LookPath(exe)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSolverNotFound, err,
			"solver %q could not be started, make sure `%s` is in your $PATH", exe, exe)
	}

	logger := s.logger()

	runCtx := ctx
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	runCtx, kill := context.WithCancel(runCtx)
	defer kill()

	trap := &stderrTrap{onFirstWrite: kill}
	cmd := exec.CommandContext(runCtx, path, s.Args(job)...)
	cmd.Dir = job.Dir
	cmd.Stdout = job.Stdout
	cmd.Stderr = trap
	cmd.WaitDelay = waitDelay

	logger.Debug("starting solver", "exe", path, "dir", job.Dir, "model", job.ModelPath)
	start := time.Now()
	if err := cmd.Start(); err != nil {
		return errors.Wrap(errors.ErrCodeSolverFailed, err,
			"start %s, verify the solver executable is installed and reachable", exe)
	}
	waitErr := cmd.Wait()
	logger.Debug("solver exited", "elapsed", time.Since(start).Round(time.Millisecond), "err", waitErr)

	if text := trap.String(); text != "" {
		return errors.New(errors.ErrCodeSolverFailed,
			"solver wrote to stderr: %s; verify that `%s` is installed and reachable in your $PATH",
			strings.TrimSpace(text), exe)
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if runCtx.Err() == context.DeadlineExceeded {
		return errors.New(errors.ErrCodeTimeout, "solver did not finish within %s", s.Timeout)
	}
	if waitErr != nil {
		if ee, ok := waitErr.(*exec.ExitError); ok {
			return errors.Wrap(errors.ErrCodeSolverFailed, waitErr, "solver exited with code %d", ee.ExitCode())
		}
		return errors.Wrap(errors.ErrCodeSolverFailed, waitErr, "wait for solver")
	}

	return checkResult(job)
}

// Name returns the executable the solver runs.
func (s *SCIP) Name() string { return s.executable() }

func (s *SCIP) executable() string {
	if s.Executable == "" {
		return DefaultExecutable
	}
	return s.Executable
}

func (s *SCIP) logger() *log.Logger {
	if s.Logger == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return s.Logger
}

func validateJob(job Job) error {
	if err := errors.ValidateWorkDir(job.Dir); err != nil {
		return err
	}
	if err := errors.ValidatePath(job.ModelPath); err != nil {
		return err
	}
	return errors.ValidatePath(job.ResultPath)
}

// checkResult reports ErrCodeMissingResult when the job's result file does
// not exist.
func checkResult(job Job) error {
	_, err := os.Stat(filepath.Join(job.Dir, job.ResultPath))
	if os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeMissingResult, err, "solver exited without writing %s", job.ResultPath)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "stat %s", job.ResultPath)
	}
	return nil
}

// stderrTrap collects stderr output and fires onFirstWrite once, on the
// first byte received.
type stderrTrap struct {
	onFirstWrite func()

	once sync.Once
	mu   sync.Mutex
	buf  bytes.Buffer
}

func (t *stderrTrap) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	t.once.Do(t.onFirstWrite)

	t.mu.Lock()
	defer t.mu.Unlock()
	if room := maxStderr - t.buf.Len(); room > 0 {
		t.buf.Write(p[:min(room, len(p))])
	}
	return len(p), nil
}

func (t *stderrTrap) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf.String()
}
