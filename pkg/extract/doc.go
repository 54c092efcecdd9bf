// Package extract builds a transit [graph.Graph] from GeoJSON features.
//
// Stations are Point features; route segments are LineString features whose
// first and last coordinates coincide with stations. The extractor is
// tolerant: features it cannot interpret are skipped, never rejected, so a
// partially broken export still yields the best graph it can.
//
// # Station Properties
//
//	station_id     node ID (falls back to id)
//	id             node ID fallback and label fallback
//	station_label  display label
//
// # Segment Properties
//
//	time   travel time, default 120
//	line   single line name
//	lines  array of line names, takes precedence over line
//
// # Endpoint Matching
//
// A segment endpoint matches the first station (in feature order) whose
// coordinates differ by less than the tolerance (default 1e-4) on both axes.
// Segments with an unmatched endpoint are dropped. Segments joining the same
// unordered station pair are merged into one edge whose lines are the union
// of the segments' line names.
//
// Matching scans the station list for each endpoint and the edge list for
// each merge, which is fine for networks of a few thousand stations.
//
// # Coordinates
//
// Station positions pass through a [Transform], the identity by default. The
// transform receives the bounding box of all stations so projections that
// scale or center the network can be plugged in without touching the
// extractor.
package extract
