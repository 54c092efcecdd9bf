package solver

import (
	"context"
	"io"
)

// Job describes one solver invocation.
type Job struct {
	// Dir is the working directory of the run. The solver is started there.
	Dir string

	// ModelPath is the model file, relative to Dir.
	ModelPath string

	// ResultPath is where the solution must be written, relative to Dir.
	ResultPath string

	// Stdout, if set, receives the solver's progress output as it is produced.
	Stdout io.Writer
}

// Solver solves the model named by a job and writes the result file.
// Implementations must return an error if no result file was produced.
type Solver interface {
	Solve(ctx context.Context, job Job) error
}

// Func adapts an ordinary function to the [Solver] interface.
type Func func(ctx context.Context, job Job) error

// Solve calls f(ctx, job).
func (f Func) Solve(ctx context.Context, job Job) error {
	return f(ctx, job)
}
