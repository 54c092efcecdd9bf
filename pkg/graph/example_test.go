package graph_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/transitmap/pkg/graph"
)

func ExampleWriteGraph() {
	g := &graph.Graph{
		Nodes: []graph.Node{
			{ID: "hbf", Label: "Hauptbahnhof", Metadata: graph.Position{X: 10, Y: 53.5}},
		},
		Lines: []graph.Line{{ID: "U1", Color: "#55a822"}},
	}

	if err := graph.WriteGraph(g, os.Stdout); err != nil {
		fmt.Println("Error:", err)
	}
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "hbf",
	//       "label": "Hauptbahnhof",
	//       "metadata": {
	//         "x": 10,
	//         "y": 53.5
	//       }
	//     }
	//   ],
	//   "edges": [],
	//   "lines": [
	//     {
	//       "id": "U1",
	//       "color": "#55a822",
	//       "group": null
	//     }
	//   ]
	// }
}

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [
			{"id": "a", "label": "Alpha", "metadata": {"x": 0, "y": 0}},
			{"id": "b", "label": "Beta", "metadata": {"x": 1, "y": 0}}
		],
		"edges": [
			{"source": "a", "target": "b", "relation": "subway", "metadata": {"time": 90, "lines": ["U3"]}}
		],
		"lines": [{"id": "U3", "color": "#019377", "group": null}]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Degree of a:", g.Degree("a"))
	fmt.Println("Edge key:", g.Edges[0].Pair())
	// Output:
	// Nodes: 2
	// Edges: 1
	// Degree of a: 1
	// Edge key: a-b
}

func ExampleReadGraphFile() {
	path := filepath.Join(os.TempDir(), "transitmap-example-graph.json")
	g := &graph.Graph{
		Nodes: []graph.Node{{ID: "x", Label: "X"}, {ID: "y", Label: "Y"}},
		Edges: []graph.Edge{{Source: "y", Target: "x", Relation: graph.RelationSubway,
			Metadata: graph.EdgeMetadata{Time: graph.DefaultTime}}},
	}
	if err := graph.WriteGraphFile(g, path); err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer os.Remove(path)

	loaded, err := graph.ReadGraphFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(loaded)
	fmt.Println("x-y connected:", loaded.HasEdge("x", "y"))
	// Output:
	// graph(2 nodes, 1 edges, 0 lines)
	// x-y connected: true
}
