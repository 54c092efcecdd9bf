// Package graph provides the transit network model and its serialization.
//
// This package defines the canonical wire format for transitmap's graph data,
// used for JSON files, the solver pipeline and cross-tool interoperability.
//
// # Core Types
//
//   - [Graph]: stations ([Node]), connections ([Edge]) and routes ([Line])
//   - [Layout]: a [Graph] whose node positions come from a solved model
//   - [Pair]: the unordered endpoint pair that identifies an edge
//
// # Graph Serialization
//
// Graphs use a node-link JSON format:
//
//	{
//	  "nodes": [{"id": "hbf", "label": "Hauptbahnhof", "metadata": {"x": 10.0, "y": 53.5}}],
//	  "edges": [{"source": "hbf", "target": "jungfernstieg", "relation": "subway",
//	             "metadata": {"time": 120, "lines": ["U1"]}}],
//	  "lines": [{"id": "U1", "color": "#55a822", "group": null}]
//	}
//
// Common operations:
//
//	g, _ := graph.ReadGraphFile("network.json")  // File → Graph
//	graph.WriteGraphFile(g, "output.json")       // Graph → File
//	data, _ := graph.MarshalGraph(g)             // Graph → []byte
//
// # Invariants
//
// A graph produced by the extractor satisfies [Graph.Validate]: every edge
// endpoint is in the node table and every line an edge carries is in the
// line list. Node identifiers are unique.
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
// Collaborators that need to transform a graph work on a [Graph.Clone].
package graph
