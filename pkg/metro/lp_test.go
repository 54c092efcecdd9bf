package metro

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/transitmap/pkg/errors"
	"github.com/matzehuels/transitmap/pkg/graph"
)

func edge(src, dst string, lines ...string) graph.Edge {
	return graph.Edge{Source: src, Target: dst, Relation: graph.RelationSubway,
		Metadata: graph.EdgeMetadata{Time: graph.DefaultTime, Lines: lines}}
}

func node(id string, x, y float64) graph.Node {
	return graph.Node{ID: id, Label: id, Metadata: graph.Position{X: x, Y: y}}
}

func generate(t *testing.T, g *graph.Graph) string {
	t.Helper()
	p, err := DefaultNormalizer{}.Normalize(g)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	var buf bytes.Buffer
	if err := (LPGenerator{}).Generate(&buf, p, DefaultSettings()); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return buf.String()
}

func assertLines(t *testing.T, model string, want ...string) {
	t.Helper()
	have := make(map[string]bool)
	for _, l := range strings.Split(model, "\n") {
		have[l] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("model is missing line %q", w)
		}
	}
}

func TestGenerateSections(t *testing.T) {
	model := generate(t, &graph.Graph{
		Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 0)},
		Edges: []graph.Edge{edge("a", "b", "U1"), edge("b", "c", "U1")},
		Lines: []graph.Line{{ID: "U1"}},
	})

	var sections []string
	for _, l := range strings.Split(model, "\n") {
		if l != "" && !strings.HasPrefix(l, " ") {
			sections = append(sections, l)
		}
	}
	if got := strings.Join(sections, ","); got != "Minimize,Subject To,Bounds,General,Binary,End" {
		t.Errorf("sections = %s", got)
	}

	assertLines(t, model,
		" 4 q0 + 3 l0 + 3 l1",
		" vx0 = 10000",
		" vy0 = 10000",
		" 1 <= l0 <= 8",
		" 9850 <= vx2 <= 10150",
		" 9850 <= vy1 <= 10150",
		" 0 <= pd1",
		" 0 <= q0 <= 3",
		" q0",
		" h0",
		" ud0",
	)
}

func TestGenerateLinkConstraints(t *testing.T) {
	model := generate(t, &graph.Graph{
		Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0)},
		Edges: []graph.Edge{edge("b", "a")},
	})

	assertLines(t, model,
		" vx0 - vx1 - pa0 + pb0 = 0",
		" vy0 - vy1 - pc0 + pd0 = 0",
		" pa0 - 8 a0 <= 0",
		" pa0 - l0 <= 0",
		" pa0 - l0 - 8 a0 >= -8",
		" a0 + b0 <= 1",
		" c0 + d0 <= 1",
		" a0 + b0 + c0 + d0 >= 1",
	)
}

func TestGenerateOctilinear(t *testing.T) {
	tests := []struct {
		name   string
		dx, dy float64
		want   []string
	}{
		{"east", 1, 0, []string{" a0 = 1", " b0 = 0", " c0 = 0"}},
		{"west", -1, 0, []string{" a0 = 0", " b0 = 1", " d0 = 0"}},
		{"north", 0, 1, []string{" c0 = 1", " d0 = 0", " b0 = 0"}},
		{"south", 0, -1, []string{" c0 = 0", " d0 = 1", " a0 = 0"}},
		{"northeast", 1, 0.9, []string{" b0 = 0", " d0 = 0", " a0 = 1"}},
		{"southwest", -2, -1, []string{" a0 = 0", " c0 = 0", " b0 = 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := generate(t, &graph.Graph{
				Nodes: []graph.Node{node("a", 0, 0), node("b", tt.dx, tt.dy)},
				Edges: []graph.Edge{edge("a", "b")},
			})
			assertLines(t, model, tt.want...)
		})
	}
}

func TestGenerateBends(t *testing.T) {
	t.Run("consecutive on shared line", func(t *testing.T) {
		model := generate(t, &graph.Graph{
			Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 0)},
			Edges: []graph.Edge{edge("a", "b", "U1"), edge("b", "c", "U1")},
			Lines: []graph.Line{{ID: "U1"}},
		})
		assertLines(t, model,
			" q0 <= 2",
			" q0 - oa0 - ob0 - oc0 - od0 = 0",
			" a0 + a1 - 2 ua0 - oa0 = 0",
			" d0 + d1 - 2 ud0 - od0 = 0",
			" 3 a0 - 3 b0 + c0 - d0 + 3 a1 - 3 b1 + c1 - d1 - 9 h0 <= -0.5",
			" 3 a0 - 3 b0 + c0 - d0 + 3 a1 - 3 b1 + c1 - d1 - 9 h0 >= -8.5",
		)
	})

	t.Run("meeting ends on different lines", func(t *testing.T) {
		model := generate(t, &graph.Graph{
			Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 0)},
			Edges: []graph.Edge{edge("a", "b", "U1"), edge("c", "b", "U2")},
			Lines: []graph.Line{{ID: "U1"}, {ID: "U2"}},
		})
		if strings.Contains(model, "q0 <= 2") {
			t.Error("edges without a shared line must not limit the bend")
		}
		assertLines(t, model,
			" 1 q0 + 3 l0 + 3 l1",
			" a0 + b1 - 2 ua0 - oa0 = 0",
			" c0 + d1 - 2 uc0 - oc0 = 0",
			" 3 a0 - 3 b0 + c0 - d0 - 3 a1 + 3 b1 - c1 + d1 - 9 h0 <= -0.5",
		)
	})
}

func TestGenerateStraightening(t *testing.T) {
	// a - b - c run east along one line and close into a cycle through d,
	// so every station has degree 2.
	nodes := []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 0), node("d", 1, 1)}
	lines := []graph.Line{{ID: "U1"}}

	t.Run("same orientation", func(t *testing.T) {
		model := generate(t, &graph.Graph{
			Nodes: nodes,
			Edges: []graph.Edge{edge("a", "b", "U1"), edge("b", "c", "U1"), edge("c", "d", "U1"), edge("d", "a", "U1")},
			Lines: lines,
		})
		assertLines(t, model, " a0 - a1 = 0", " b0 - b1 = 0", " c0 - c1 = 0", " d0 - d1 = 0")
	})

	t.Run("opposite orientation", func(t *testing.T) {
		model := generate(t, &graph.Graph{
			Nodes: nodes,
			Edges: []graph.Edge{edge("a", "b", "U1"), edge("c", "b", "U1"), edge("c", "d", "U1"), edge("d", "a", "U1")},
			Lines: lines,
		})
		assertLines(t, model, " a0 - b1 = 0", " b0 - a1 = 0", " c0 - d1 = 0", " d0 - c1 = 0")
	})

	t.Run("branching station", func(t *testing.T) {
		model := generate(t, &graph.Graph{
			Nodes: nodes,
			Edges: []graph.Edge{edge("a", "b", "U1"), edge("b", "c", "U1"), edge("b", "d", "U1")},
			Lines: lines,
		})
		if strings.Contains(model, " a0 - a1 = 0") {
			t.Error("straightening applied through a station of degree 3")
		}
	})
}

func TestGenerateOcclusion(t *testing.T) {
	model := generate(t, &graph.Graph{
		Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 0, 5), node("d", 1, 5)},
		Edges: []graph.Edge{edge("a", "b"), edge("c", "d")},
	})
	assertLines(t, model,
		" vy0 - vy2 <= -1",
		" vy0 - vy3 <= -1",
		" vy1 - vy2 <= -1",
		" vy1 - vy3 <= -1",
	)
	if strings.Contains(model, "q0") {
		t.Error("disjoint edges must not get bend variables")
	}
}

func TestGenerateOcclusionDiagonal(t *testing.T) {
	// The second edge lies north-west of the first: the x-y diagonal
	// separates them by more than either axis.
	model := generate(t, &graph.Graph{
		Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 1), node("c", -4, 3), node("d", -3, 4)},
		Edges: []graph.Edge{edge("a", "b"), edge("c", "d")},
	})
	assertLines(t, model,
		" vx0 - vy0 - vx2 + vy2 >= 1",
		" vx1 - vy1 - vx3 + vy3 >= 1",
	)
}

func TestGenerateSingleNode(t *testing.T) {
	model := generate(t, &graph.Graph{Nodes: []graph.Node{node("a", 0, 0)}})
	assertLines(t, model, "Minimize", " 0 vx0", " vx0 = 10000", "End")
}

func TestGenerateDeterministic(t *testing.T) {
	g := &graph.Graph{
		Nodes: []graph.Node{node("a", 0, 0), node("b", 1, 0), node("c", 2, 1), node("d", 0, 3)},
		Edges: []graph.Edge{edge("a", "b", "U1"), edge("b", "c", "U1"), edge("c", "d", "U2"), edge("a", "d", "U2")},
		Lines: []graph.Line{{ID: "U1"}, {ID: "U2"}},
	}
	if generate(t, g) != generate(t, g) {
		t.Error("Generate is not deterministic")
	}
}

func TestGenerateErrors(t *testing.T) {
	p, err := DefaultNormalizer{}.Normalize(&graph.Graph{Nodes: []graph.Node{node("a", 0, 0)}})
	if err != nil {
		t.Fatal(err)
	}

	bad := DefaultSettings()
	bad.MaxEdgeLength = 0
	if err := (LPGenerator{}).Generate(io.Discard, p, bad); !errors.Is(err, errors.ErrCodeInvalidSettings) {
		t.Errorf("invalid settings error = %v", err)
	}

	if err := (LPGenerator{}).Generate(io.Discard, nil, DefaultSettings()); !errors.Is(err, errors.ErrCodeInvalidGraph) {
		t.Errorf("nil graph error = %v", err)
	}

	if err := (LPGenerator{}).Generate(failingWriter{}, p, DefaultSettings()); !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("write error = %v", err)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrClosedPipe }
