// Package solver runs external MILP solvers over a model file.
//
// A [Solver] works on a [Job]: a working directory plus the names of the
// model file to read and the result file to write, both relative to that
// directory. The exchange goes through the filesystem, so an embedded solver
// only has to honor the same contract to replace the external one. [Func]
// adapts a plain function for that purpose and for tests.
//
// [SCIP] drives the scip command line:
//
//	scip -c "read problem.lp" -c optimize -c "write solution solution.sol" -c quit
//
// The executable must be on $PATH (or given as a path). Any output on its
// standard error is treated as fatal: the process is killed and the run
// fails with [errors.ErrCodeSolverFailed]. A missing executable fails with
// [errors.ErrCodeSolverNotFound] so callers can tell the two apart.
package solver
