package graph

import (
	"fmt"
	"slices"

	"github.com/matzehuels/transitmap/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// RelationSubway is the relation tag of every edge the extractor produces.
const RelationSubway = "subway"

// DefaultTime is the travel cost assigned to edges without a time property.
const DefaultTime = 120

// DefaultLineColor is used for lines missing from the palette.
const DefaultLineColor = "#000000"

// =============================================================================
// Graph - Transit Network
// =============================================================================

// Graph is the canonical serialization format for transit networks.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
	Lines []Line `json:"lines"`
}

// =============================================================================
// Node - Station
// =============================================================================

// Node is a station. Position holds the source coordinates as given.
type Node struct {
	ID       string   `json:"id"`
	Label    string   `json:"label"`
	Metadata Position `json:"metadata"`
}

// Position is a point in the input (or solved) coordinate system.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// =============================================================================
// Edge - Connection between two stations
// =============================================================================

// Edge connects two stations. Its identity is the unordered [Pair] of
// endpoints, so Source/Target order carries no meaning for lookups.
type Edge struct {
	Source   string       `json:"source"`
	Target   string       `json:"target"`
	Relation string       `json:"relation"`
	Metadata EdgeMetadata `json:"metadata"`
}

// EdgeMetadata carries the travel time and the lines running on an edge.
// Lines keeps insertion order and holds no duplicates.
type EdgeMetadata struct {
	Time  float64  `json:"time"`
	Lines []string `json:"lines"`
}

// Pair returns the unordered endpoint pair of the edge.
func (e *Edge) Pair() Pair { return PairOf(e.Source, e.Target) }

// Connects reports whether the edge joins a and b in either orientation.
func (e *Edge) Connects(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Touches reports whether id is one of the edge's endpoints.
func (e *Edge) Touches(id string) bool { return e.Source == id || e.Target == id }

// HasLine reports whether the line runs on this edge.
func (e *Edge) HasLine(line string) bool { return slices.Contains(e.Metadata.Lines, line) }

// AddLine appends line unless it is already present. It reports whether the
// line was added.
func (e *Edge) AddLine(line string) bool {
	if line == "" || e.HasLine(line) {
		return false
	}
	e.Metadata.Lines = append(e.Metadata.Lines, line)
	return true
}

// SharesLine reports whether the two edges have at least one line in common.
func (e *Edge) SharesLine(o *Edge) bool {
	for _, l := range e.Metadata.Lines {
		if o.HasLine(l) {
			return true
		}
	}
	return false
}

// Pair is an unordered pair of node IDs, stored sorted.
type Pair [2]string

// PairOf returns the pair of a and b with the lexicographically smaller ID first.
func PairOf(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{a, b}
}

// String joins the pair with a dash, e.g. "a-b".
func (p Pair) String() string { return p[0] + "-" + p[1] }

// =============================================================================
// Line - Route
// =============================================================================

// Line is a transit route. Group is reserved for later assignment and is
// serialized as null while unset.
type Line struct {
	ID    string  `json:"id"`
	Color string  `json:"color"`
	Group *string `json:"group"`
}

// =============================================================================
// Graph Methods
// =============================================================================

// NodeCount returns the number of stations.
func (g *Graph) NodeCount() int { return len(g.Nodes) }

// EdgeCount returns the number of connections.
func (g *Graph) EdgeCount() int { return len(g.Edges) }

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (Node, bool) {
	if i := g.NodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

// NodeIndex returns the position of the node in Nodes, or -1.
func (g *Graph) NodeIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

// NodeIndices maps every node ID to its position in Nodes.
// Useful when many lookups follow, since NodeIndex scans.
func (g *Graph) NodeIndices() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		if _, ok := idx[n.ID]; !ok {
			idx[n.ID] = i
		}
	}
	return idx
}

// Degree returns the number of edges touching the node.
func (g *Graph) Degree(id string) int {
	d := 0
	for i := range g.Edges {
		if g.Edges[i].Touches(id) {
			d++
		}
	}
	return d
}

// HasEdge reports whether an edge between a and b exists in either orientation.
func (g *Graph) HasEdge(a, b string) bool {
	return slices.ContainsFunc(g.Edges, func(e Edge) bool { return e.Connects(a, b) })
}

// Line returns the line with the given ID.
func (g *Graph) Line(id string) (Line, bool) {
	i := slices.IndexFunc(g.Lines, func(l Line) bool { return l.ID == id })
	if i < 0 {
		return Line{}, false
	}
	return g.Lines[i], true
}

// Validate checks the structural invariants of the graph: unique node IDs,
// edge endpoints present in the node table, and edge lines present in the
// line list. The first violation is returned as an INVALID_GRAPH error.
func (g *Graph) Validate() error {
	nodes := make(map[string]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.ID == "" {
			return errors.New(errors.ErrCodeInvalidGraph, "node with empty id")
		}
		if nodes[n.ID] {
			return errors.New(errors.ErrCodeInvalidGraph, "duplicate node id %q", n.ID)
		}
		nodes[n.ID] = true
	}

	lines := make(map[string]bool, len(g.Lines))
	for _, l := range g.Lines {
		lines[l.ID] = true
	}

	for i, e := range g.Edges {
		if !nodes[e.Source] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d references unknown source %q", i, e.Source)
		}
		if !nodes[e.Target] {
			return errors.New(errors.ErrCodeInvalidGraph, "edge %d references unknown target %q", i, e.Target)
		}
		for _, l := range e.Metadata.Lines {
			if !lines[l] {
				return errors.New(errors.ErrCodeInvalidGraph, "edge %s uses unregistered line %q", e.Pair(), l)
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	out := &Graph{
		Nodes: slices.Clone(g.Nodes),
		Edges: make([]Edge, len(g.Edges)),
		Lines: make([]Line, len(g.Lines)),
	}
	for i, e := range g.Edges {
		e.Metadata.Lines = slices.Clone(e.Metadata.Lines)
		out.Edges[i] = e
	}
	for i, l := range g.Lines {
		if l.Group != nil {
			grp := *l.Group
			l.Group = &grp
		}
		out.Lines[i] = l
	}
	return out
}

// String returns a short summary such as "graph(12 nodes, 14 edges, 3 lines)".
func (g *Graph) String() string {
	return fmt.Sprintf("graph(%d nodes, %d edges, %d lines)", len(g.Nodes), len(g.Edges), len(g.Lines))
}
