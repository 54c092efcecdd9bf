// Package pkg provides the core libraries for transitmap metro-map layout.
//
// # Overview
//
// Transitmap turns a geographic transit network into a schematic metro map:
// stations snap to a grid, edges run horizontally, vertically or at 45
// degrees, and lines avoid needless bends. The layout is found by solving a
// mixed-integer program with the external SCIP solver.
//
// # Architecture
//
// The data flow through transitmap:
//
//	GeoJSON network
//	         ↓
//	    [extract] package (stations, edges, lines)
//	         ↓
//	    [metro] package (normalize, write the model)
//	         ↓
//	    [solver] package (run SCIP in a work directory)
//	         ↓
//	    [solution] package (read variable values)
//	         ↓
//	    [metro] package (reconstruct positions)
//	         ↓
//	    layout JSON
//
// [pipeline] runs the whole sequence and owns the work directory.
//
// # Quick Start
//
//	g, err := extract.ExtractFile("network.geojson")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, err := runner.Run(ctx, g, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	graph.WriteLayoutFile(result.Layout, "network.layout.json")
//
// # Main Packages
//
// [graph] - Serialization types for network graphs and layouts (JSON).
//
// [extract] - GeoJSON FeatureCollection to network graph.
//
// [metro] - Model settings, octilinear direction analysis, the CPLEX LP model
// writer and coordinate reconstruction.
//
// [solver] - The solver capability and its SCIP subprocess implementation.
//
// [solution] - Parser for solver result files.
//
// [pipeline] - Orchestration of a complete layout run, with solution caching.
//
// [cache] - Solution cache backends: file, Redis and MongoDB.
//
// [observability] - Hooks for run and cache events.
//
// [errors] - Structured errors with machine-readable codes.
//
// [buildinfo] - Version information stamped at build time.
package pkg
