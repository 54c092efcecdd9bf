// Package solution reads the plain-text assignment a MILP solver writes
// after optimizing a model.
//
// The format is line oriented. An optional header line starts with
// "objective value:"; every other line holds a variable name followed by its
// value, separated by whitespace. Trailing columns, such as the objective
// coefficient SCIP prints in parentheses, are ignored:
//
//	objective value:                  42
//	vx0                               10000 	(obj:0)
//	vy0                               10000 	(obj:0)
//
// Lines with fewer than two fields are skipped. When a name appears more than
// once the last value wins.
//
// Values that do not parse as numbers are kept as NaN rather than rejected.
// Use [Values.NonFinite] to find them.
package solution
