package visualization

import (
	"github.com/dpolishuk/contribgraph/internal/models"
)

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type GraphNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Title string `json:"title"`
}

type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// BuildGraph returns one node per entity name and one edge per reference
// whose target is also in the set. References leaving the set are dropped.
// Only the first record with a given name becomes a node.
func BuildGraph(entities []*models.Entity) *GraphData {
	graph := &GraphData{
		Nodes: []GraphNode{},
		Edges: []GraphEdge{},
	}

	known := make(map[string]bool, len(entities))
	for _, e := range entities {
		if known[e.Name] {
			continue
		}
		known[e.Name] = true
		graph.Nodes = append(graph.Nodes, GraphNode{
			ID:    e.Name,
			Label: nodeLabel(e),
			Title: e.ConstType,
		})
	}

	for _, e := range entities {
		for _, ref := range e.References {
			if !known[ref] {
				continue
			}
			graph.Edges = append(graph.Edges, GraphEdge{From: e.Name, To: ref})
		}
	}

	return graph
}

func nodeLabel(e *models.Entity) string {
	if e.ConstCategory == "" {
		return e.ShortName()
	}
	return e.ShortName() + "\n(" + e.ConstCategory + ")"
}
