package metro

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
)

// VarX names the x coordinate variable of the node at index i.
func VarX(i int) string { return "vx" + strconv.Itoa(i) }

// VarY names the y coordinate variable of the node at index i.
func VarY(i int) string { return "vy" + strconv.Itoa(i) }

// occlusionDistance is the minimum separation between non-adjacent edges
// along their separating direction.
const occlusionDistance = 1

// LPGenerator writes the layout model in CPLEX LP format.
type LPGenerator struct{}

// Generate writes the model for p to w.
func (LPGenerator) Generate(w io.Writer, p *Prepared, s Settings) error {
	if p == nil || p.Graph == nil {
		return errors.New(errors.ErrCodeInvalidGraph, "prepared graph is nil")
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m := buildModel(p, s)
	lw := &lpWriter{w: w}
	m.write(lw)
	if lw.err != nil {
		return errors.Wrap(errors.ErrCodeIO, lw.err, "write model")
	}
	return nil
}

// =============================================================================
// Model
// =============================================================================

// adjacency is a pair of edges sharing at least one station.
type adjacency struct {
	weight float64 // bend penalty per unit of q
}

type model struct {
	p *Prepared
	s Settings

	constraints []string
	lazy        []string
	adjacent    []adjacency
}

func buildModel(p *Prepared, s Settings) *model {
	m := &model{p: p, s: s}
	edges := p.Graph.Edges

	for i := range edges {
		m.link(i)
		m.octilinear(i)
		m.straighten(i)
	}

	for o := range edges {
		for i := o + 1; i < len(edges); i++ {
			if sharesNode(&edges[o], &edges[i]) {
				m.adjacent = append(m.adjacent, m.bend(o, i))
			} else {
				m.occlusion(o, i)
			}
		}
	}
	return m
}

func (m *model) add(format string, args ...any) {
	m.constraints = append(m.constraints, fmt.Sprintf(format, args...))
}

// link ties the direction flags of edge i to the coordinates of its
// endpoints: dx = pa - pb and dy = pc - pd, where each p equals the edge
// length when its flag is set and zero otherwise.
func (m *model) link(i int) {
	e := m.p.Graph.Edges[i]
	src, dst := m.p.NodeIndex(e.Source), m.p.NodeIndex(e.Target)
	big := num(m.s.MaxEdgeLength)

	m.add("%s - %s - pa%d + pb%d = 0", VarX(dst), VarX(src), i, i)
	m.add("%s - %s - pc%d + pd%d = 0", VarY(dst), VarY(src), i, i)
	for _, v := range "abcd" {
		m.add("p%c%d - %s %c%d <= 0", v, i, big, v, i)
		m.add("p%c%d - l%d <= 0", v, i, i)
		m.add("p%c%d - l%d - %s %c%d >= -%s", v, i, i, big, v, i, big)
	}
	m.add("a%d + b%d <= 1", i, i)
	m.add("c%d + d%d <= 1", i, i)
	m.add("a%d + b%d + c%d + d%d >= 1", i, i, i, i)
}

type flag struct {
	v   byte
	val int
}

// octilinearRules fixes the direction flags for each main direction and
// narrows the remaining freedom towards the secondary direction.
var octilinearRules = [8]struct {
	fixed     [2]flag
	secondary map[Direction]flag
}{
	West:      {[2]flag{{'a', 0}, {'b', 1}}, map[Direction]flag{NorthWest: {'d', 0}, SouthWest: {'c', 0}}},
	SouthWest: {[2]flag{{'a', 0}, {'c', 0}}, map[Direction]flag{South: {'d', 1}, West: {'b', 1}}},
	South:     {[2]flag{{'c', 0}, {'d', 1}}, map[Direction]flag{SouthEast: {'b', 0}, SouthWest: {'a', 0}}},
	SouthEast: {[2]flag{{'b', 0}, {'c', 0}}, map[Direction]flag{East: {'a', 1}, South: {'d', 1}}},
	East:      {[2]flag{{'a', 1}, {'b', 0}}, map[Direction]flag{NorthEast: {'d', 0}, SouthEast: {'c', 0}}},
	NorthEast: {[2]flag{{'b', 0}, {'d', 0}}, map[Direction]flag{North: {'c', 1}, East: {'a', 1}}},
	North:     {[2]flag{{'c', 1}, {'d', 0}}, map[Direction]flag{NorthWest: {'a', 0}, NorthEast: {'b', 0}}},
	NorthWest: {[2]flag{{'a', 0}, {'d', 0}}, map[Direction]flag{West: {'b', 1}, North: {'c', 1}}},
}

// octilinear keeps edge i within 45 degrees of its geographic bearing.
func (m *model) octilinear(i int) {
	pe := m.p.Edges[i]
	rule := octilinearRules[pe.Main()]
	for _, f := range rule.fixed {
		m.add("%c%d = %d", f.v, i, f.val)
	}
	if f, ok := rule.secondary[pe.Secondary()]; ok {
		m.add("%c%d = %d", f.v, i, f.val)
	}
}

// straighten forces a 180 degree angle between edge i and each neighbour on
// the same line when both run through degree-2 stations in the same
// preferred direction.
func (m *model) straighten(i int) {
	edges := m.p.Graph.Edges
	edge := &edges[i]
	for j := range edges {
		other := &edges[j]
		if !edge.SharesLine(other) || sharedNodes(edge, other) != 1 {
			continue
		}
		if !m.allDegreeTwo(edge.Source, edge.Target, other.Source, other.Target) {
			continue
		}
		if edge.Target == other.Source || edge.Source == other.Target {
			if m.p.Edges[i].SourceDirections == m.p.Edges[j].SourceDirections {
				for _, v := range "abcd" {
					m.add("%c%d - %c%d = 0", v, i, v, j)
				}
			}
			continue
		}
		if m.p.Edges[i].TargetDirections == m.p.Edges[j].SourceDirections {
			m.add("a%d - b%d = 0", i, j)
			m.add("b%d - a%d = 0", i, j)
			m.add("c%d - d%d = 0", i, j)
			m.add("d%d - c%d = 0", i, j)
		}
	}
}

func (m *model) allDegreeTwo(ids ...string) bool {
	for _, id := range ids {
		if m.p.Degree(id) != 2 {
			return false
		}
	}
	return true
}

// bend adds the bend variables for adjacent edges o and i and returns the
// penalty weight of the pair. Edges sharing a line bend at most 90 degrees.
func (m *model) bend(o, i int) adjacency {
	edges := m.p.Graph.Edges
	outer, inner := &edges[o], &edges[i]
	k := len(m.adjacent)

	weight := 0.25
	if outer.SharesLine(inner) {
		weight = 1
		m.add("q%d <= 2", k)
	}
	m.add("q%d - oa%d - ob%d - oc%d - od%d = 0", k, k, k, k, k)

	left := fmt.Sprintf("3 a%d - 3 b%d + c%d - d%d", o, o, o, o)
	if outer.Target == inner.Source || outer.Source == inner.Target {
		m.notEqual(left, fmt.Sprintf("+ 3 a%d - 3 b%d + c%d - d%d", i, i, i, i), k)
		for _, v := range "abcd" {
			m.add("%c%d + %c%d - 2 u%c%d - o%c%d = 0", v, o, v, i, v, k, v, k)
		}
	} else {
		m.notEqual(left, fmt.Sprintf("- 3 a%d + 3 b%d - c%d + d%d", i, i, i, i), k)
		m.add("a%d + b%d - 2 ua%d - oa%d = 0", o, i, k, k)
		m.add("b%d + a%d - 2 ub%d - ob%d = 0", o, i, k, k)
		m.add("c%d + d%d - 2 uc%d - oc%d = 0", o, i, k, k)
		m.add("d%d + c%d - 2 ud%d - od%d = 0", o, i, k, k)
	}
	return adjacency{weight: weight}
}

// notEqual keeps the direction codes of two edges apart by at least 0.5
// using the big-M switch h{k}.
func (m *model) notEqual(left, negRight string, k int) {
	bound := m.s.MaxEdgeLength + 1
	m.lazy = append(m.lazy,
		fmt.Sprintf("%s %s - %s h%d <= -0.5", left, negRight, num(bound), k),
		fmt.Sprintf("%s %s - %s h%d >= %s", left, negRight, num(bound), k, num(0.5-bound)),
	)
}

// separationAxes are the axes along which two edges can be kept apart, in
// order of preference when they separate equally well.
var separationAxes = []struct {
	axis func(graph.Position) float64
	term func(n int) string
}{
	{ // west-east
		func(p graph.Position) float64 { return p.X },
		func(n int) string { return VarX(n) },
	},
	{ // south-north
		func(p graph.Position) float64 { return p.Y },
		func(n int) string { return VarY(n) },
	},
	{ // southwest-northeast
		func(p graph.Position) float64 { return p.X - p.Y },
		func(n int) string { return VarX(n) + " - " + VarY(n) },
	},
	{ // northwest-southeast
		func(p graph.Position) float64 { return p.X + p.Y },
		func(n int) string { return VarX(n) + " + " + VarY(n) },
	},
}

// occlusion keeps non-adjacent edges o and i on the sides of each other they
// occupy geographically, along the axis that separates them best.
func (m *model) occlusion(o, i int) {
	g := m.p.Graph
	e1, e2 := &g.Edges[o], &g.Edges[i]
	ends1 := [2]int{m.p.NodeIndex(e1.Source), m.p.NodeIndex(e1.Target)}
	ends2 := [2]int{m.p.NodeIndex(e2.Source), m.p.NodeIndex(e2.Target)}

	best, bestPositive, bestGap := -1, 0, 0.0
	for a, ax := range separationAxes {
		positive, gap := 0, 0.0
		n := 0
		for _, u := range ends1 {
			for _, v := range ends2 {
				d := ax.axis(g.Nodes[u].Metadata) - ax.axis(g.Nodes[v].Metadata)
				if d > 0 {
					positive++
				}
				if n == 0 || math.Abs(d) < gap {
					gap = math.Abs(d)
				}
				n++
			}
		}
		if positive != 0 && positive != 4 {
			continue
		}
		if best < 0 || gap > bestGap {
			best, bestPositive, bestGap = a, positive, gap
		}
	}
	if best < 0 {
		return
	}

	rhs := ">= " + num(occlusionDistance)
	if bestPositive < 3 {
		rhs = "<= -" + num(occlusionDistance)
	}
	term := separationAxes[best].term
	for _, u := range ends1 {
		for _, v := range ends2 {
			m.add("%s - %s %s", term(u), negate(term(v)), rhs)
		}
	}
}

// negate flips the inner signs of a linear term so that "x - negate(t)"
// subtracts all of t.
func negate(t string) string {
	r := strings.NewReplacer(" - ", " + ", " + ", " - ")
	return r.Replace(t)
}

// =============================================================================
// LP Output
// =============================================================================

type lpWriter struct {
	w   io.Writer
	err error
}

func (lw *lpWriter) line(format string, args ...any) {
	if lw.err != nil {
		return
	}
	_, lw.err = fmt.Fprintf(lw.w, format+"\n", args...)
}

func (lw *lpWriter) tab(format string, args ...any) {
	lw.line(" "+format, args...)
}

func (m *model) write(lw *lpWriter) {
	nodes, edges := len(m.p.Graph.Nodes), len(m.p.Graph.Edges)

	lw.line("Minimize")
	var terms []string
	for k, adj := range m.adjacent {
		terms = append(terms, fmt.Sprintf("%s q%d", num(4*adj.weight), k))
	}
	for i := 0; i < edges; i++ {
		terms = append(terms, fmt.Sprintf("3 l%d", i))
	}
	if len(terms) == 0 {
		terms = append(terms, "0 "+VarX(0))
	}
	lw.tab("%s", strings.Join(terms, " + "))

	lw.line("Subject To")
	lw.tab("%s = %s", VarX(0), num(m.s.Offset))
	lw.tab("%s = %s", VarY(0), num(m.s.Offset))
	for _, c := range m.constraints {
		lw.tab("%s", c)
	}
	for _, c := range m.lazy {
		lw.tab("%s", c)
	}

	lw.line("Bounds")
	for i := 0; i < edges; i++ {
		lw.tab("%s <= l%d <= %s", num(m.s.MinEdgeLength), i, num(m.s.MaxEdgeLength))
	}
	for i := 0; i < nodes; i++ {
		lw.tab("%s <= %s <= %s", num(m.s.Offset-m.s.MaxWidth/2), VarX(i), num(m.s.Offset+m.s.MaxWidth/2))
	}
	for i := 0; i < nodes; i++ {
		lw.tab("%s <= %s <= %s", num(m.s.Offset-m.s.MaxHeight/2), VarY(i), num(m.s.Offset+m.s.MaxHeight/2))
	}
	for _, v := range "abcd" {
		for i := 0; i < edges; i++ {
			lw.tab("0 <= p%c%d", v, i)
		}
	}
	for k := range m.adjacent {
		lw.tab("0 <= q%d <= 3", k)
	}

	lw.line("General")
	for k := range m.adjacent {
		lw.tab("q%d", k)
	}

	lw.line("Binary")
	for _, v := range "abcd" {
		for i := 0; i < edges; i++ {
			lw.tab("%c%d", v, i)
		}
	}
	for _, prefix := range []string{"h", "oa", "ob", "oc", "od", "ua", "ub", "uc", "ud"} {
		for k := range m.adjacent {
			lw.tab("%s%d", prefix, k)
		}
	}

	lw.line("End")
}

// =============================================================================
// Helpers
// =============================================================================

func sharedNodes(a, b *graph.Edge) int {
	n := 0
	if b.Touches(a.Source) {
		n++
	}
	if a.Target != a.Source && b.Touches(a.Target) {
		n++
	}
	return n
}

func sharesNode(a, b *graph.Edge) bool { return sharedNodes(a, b) > 0 }

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
