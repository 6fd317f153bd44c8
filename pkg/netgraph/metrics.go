package netgraph

import (
	"sort"

	"github.com/lvlath/go/bfs"
	"github.com/lvlath/go/core"

	"github.com/fellrunner/trailnet/pkg/errors"
)

// ConnectivityMetrics is the scalar health snapshot computed at the end of
// every optimization iteration. It is compared iteration-to-iteration and
// never persisted.
type ConnectivityMetrics struct {
	TotalVertices     int
	ReachableVertices int
	Components        int
	Score             float64 // reachable / total, 1.0 for an empty graph
	IsolatedTrails    []string
}

// Metrics computes undirected reachability from a fixed reference vertex
// (the lexicographically smallest ID, which makes the choice deterministic
// without being meaningful), the connected-component count, and the names
// of trails with no path to the reference component.
func (n *Network) Metrics() (ConnectivityMetrics, error) {
	m := ConnectivityMetrics{TotalVertices: n.VertexCount()}
	if m.TotalVertices == 0 {
		m.Score = 1
		return m, nil
	}

	g, err := core.NewGraph(core.WithLoops(), core.WithMultiEdges())
	if err != nil {
		return m, errors.Wrap(errors.ErrCodeInternal, err, "graph engine: new graph")
	}
	for _, v := range n.Vertices() {
		if err := g.AddVertex(v.ID); err != nil {
			return m, errors.Wrap(errors.ErrCodeInternal, err, "graph engine: add vertex")
		}
	}
	for _, e := range n.Edges() {
		if _, err := g.AddEdge(e.A, e.B, 0); err != nil {
			return m, errors.Wrap(errors.ErrCodeInternal, err, "graph engine: add edge %s", e.ID)
		}
	}

	vertices := n.Vertices()
	ref := vertices[0].ID

	refComponent, err := reachableSet(g, ref)
	if err != nil {
		return m, err
	}
	m.ReachableVertices = len(refComponent)
	m.Score = float64(m.ReachableVertices) / float64(m.TotalVertices)

	// Component count: repeated traversal over still-unvisited vertices.
	visited := make(map[string]bool, m.TotalVertices)
	for id := range refComponent {
		visited[id] = true
	}
	m.Components = 1
	isolated := make(map[string]bool)
	for _, v := range vertices {
		if visited[v.ID] {
			continue
		}
		comp, err := reachableSet(g, v.ID)
		if err != nil {
			return m, err
		}
		for id := range comp {
			visited[id] = true
		}
		m.Components++
		for _, e := range n.Edges() {
			if comp[e.A] || comp[e.B] {
				for _, name := range e.Names {
					isolated[name] = true
				}
			}
		}
	}

	m.IsolatedTrails = make([]string, 0, len(isolated))
	for name := range isolated {
		m.IsolatedTrails = append(m.IsolatedTrails, name)
	}
	sort.Strings(m.IsolatedTrails)
	return m, nil
}

// reachableSet answers the reachability query through the graph engine.
func reachableSet(g *core.Graph, from string) (map[string]bool, error) {
	res, err := bfs.BFS(g, from)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "graph engine: bfs from %s", from)
	}
	out := make(map[string]bool, len(res.Order))
	for _, id := range res.Order {
		out[id] = true
	}
	return out, nil
}
