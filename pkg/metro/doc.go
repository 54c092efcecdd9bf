// Package metro formulates octilinear metro-map layout as a mixed integer
// linear program and maps solver output back onto the network.
//
// A layout run passes the network through three collaborators:
//
//   - a [Normalizer] validates the graph and derives, for every edge, the
//     octilinear directions closest to its geographic bearing ([Prepared]);
//   - a [Generator] writes the optimization model for the prepared graph;
//   - a [Reconstructor] turns the solved variable values into node positions.
//
// [DefaultNormalizer], [LPGenerator] and [CoordinateReconstructor] implement
// them for the CPLEX LP format read by SCIP. All three take tuning values
// from [Settings], which can be loaded from a TOML file.
//
// # Directions
//
// Octilinear directions are numbered counterclockwise from west, following
// the angle function 4*(atan2(dy, dx)/pi + 1):
//
//	0 W, 1 SW, 2 S, 3 SE, 4 E, 5 NE, 6 N, 7 NW
//
// # Model variables
//
// Node i has coordinates vx{i}, vy{i}. Edge j has a length l{j} and four
// binary direction flags a{j} (east), b{j} (west), c{j} (north) and d{j}
// (south). Pairs of edges sharing a station get a bend variable q{k} whose
// weight in the objective depends on whether the edges share a line.
package metro
