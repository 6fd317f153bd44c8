// Package netgraph provides the graph view of a working set: vertices
// derived from piece endpoints, edges carrying geometry and elevation, and
// the mutation operations the optimization loop needs (vertex merging,
// edge merging, orphan cleanup).
//
// Reachability and connected-component queries are answered through the
// lvlath graph library rather than a hand-rolled traversal.
package netgraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// Vertex roles derived from degree.
const (
	RoleIsolated = "isolated"
	RoleLeaf     = "leaf"
	RoleBranch   = "branch"
	RoleThrough  = "through" // degree exactly 2; candidate for contraction
)

// Vertex is a point where one or more edges meet. Vertices are derived
// from edge endpoints and recomputed whenever edges change; degree is
// always the current count of incident edges.
type Vertex struct {
	ID    string
	Point geo.Point
}

// Edge connects exactly two vertices. SegmentIDs lists the contributing
// segment identities in traversal order; edges produced by chain
// contraction carry more than one. Synthetic marks connectors created by
// the gap bridger.
type Edge struct {
	ID   string
	A, B string

	Line    geo.Line
	LengthM float64
	GainM   float64
	LossM   float64

	SegmentIDs []uuid.UUID
	Names      []string
	Synthetic  bool
}

// Other returns the vertex ID at the opposite end from v. For self-loops
// it returns v itself.
func (e *Edge) Other(v string) string {
	if e.A == v {
		return e.B
	}
	return e.A
}

// Loop reports whether the edge starts and ends at the same vertex.
func (e *Edge) Loop() bool { return e.A == e.B }

// Network is the mutable graph for one run. Not safe for concurrent use.
type Network struct {
	vertices map[string]*Vertex
	edges    map[string]*Edge
	incident map[string][]string // vertex ID -> edge IDs
	nextEdge int
}

// New creates an empty network.
func New() *Network {
	return &Network{
		vertices: make(map[string]*Vertex),
		edges:    make(map[string]*Edge),
		incident: make(map[string][]string),
	}
}

// Build constructs the graph view from every piece in the working set.
func Build(ws *trail.WorkingSet) *Network {
	n := New()
	for _, p := range ws.Pieces() {
		n.AddLine(p.Line, []uuid.UUID{p.ID}, []string{p.Name}, false)
	}
	return n
}

// VertexKey quantizes a point to the coordinate resolution used for vertex
// identity (about a centimeter). Pieces that share a cut coordinate map to
// the same vertex.
func VertexKey(p geo.Point) string {
	return fmt.Sprintf("%.7f,%.7f", p.Lon, p.Lat)
}

func (n *Network) ensureVertex(p geo.Point) string {
	id := VertexKey(p)
	if _, ok := n.vertices[id]; !ok {
		n.vertices[id] = &Vertex{ID: id, Point: p}
	}
	return id
}

// AddLine creates an edge for the polyline, creating endpoint vertices as
// needed, and returns it.
func (n *Network) AddLine(line geo.Line, segIDs []uuid.UUID, names []string, synthetic bool) *Edge {
	a := n.ensureVertex(line.Start())
	b := n.ensureVertex(line.End())
	gain, loss := elevationDelta(line)
	n.nextEdge++
	e := &Edge{
		ID:         fmt.Sprintf("e%06d", n.nextEdge),
		A:          a,
		B:          b,
		Line:       line,
		LengthM:    geo.Length3DM(line),
		GainM:      gain,
		LossM:      loss,
		SegmentIDs: segIDs,
		Names:      names,
		Synthetic:  synthetic,
	}
	n.edges[e.ID] = e
	n.incident[a] = append(n.incident[a], e.ID)
	if b != a {
		n.incident[b] = append(n.incident[b], e.ID)
	}
	return e
}

func elevationDelta(line geo.Line) (gain, loss float64) {
	for i := 1; i < len(line); i++ {
		dz := line[i].Elev - line[i-1].Elev
		if dz > 0 {
			gain += dz
		} else {
			loss -= dz
		}
	}
	return gain, loss
}

// RemoveEdge deletes an edge. Endpoint vertices stay (possibly orphaned)
// until RemoveOrphans runs.
func (n *Network) RemoveEdge(id string) {
	e, ok := n.edges[id]
	if !ok {
		return
	}
	delete(n.edges, id)
	n.incident[e.A] = removeString(n.incident[e.A], id)
	if e.B != e.A {
		n.incident[e.B] = removeString(n.incident[e.B], id)
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	out := list[:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	return out
}

// Degree returns the number of incident edges, counting self-loops twice.
func (n *Network) Degree(vID string) int {
	d := 0
	for _, eid := range n.incident[vID] {
		if e := n.edges[eid]; e != nil {
			d++
			if e.Loop() {
				d++
			}
		}
	}
	return d
}

// Role classifies a vertex by its degree.
func (n *Network) Role(vID string) string {
	switch d := n.Degree(vID); {
	case d == 0:
		return RoleIsolated
	case d == 1:
		return RoleLeaf
	case d == 2:
		return RoleThrough
	default:
		return RoleBranch
	}
}

// Vertex looks up a vertex by ID.
func (n *Network) Vertex(id string) (*Vertex, bool) {
	v, ok := n.vertices[id]
	return v, ok
}

// Edge looks up an edge by ID.
func (n *Network) Edge(id string) (*Edge, bool) {
	e, ok := n.edges[id]
	return e, ok
}

// Vertices returns all vertices sorted by ID.
func (n *Network) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(n.vertices))
	for _, v := range n.vertices {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Edges returns all edges sorted by ID (creation order).
func (n *Network) Edges() []*Edge {
	out := make([]*Edge, 0, len(n.edges))
	for _, e := range n.edges {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// IncidentEdges returns the edges touching a vertex, sorted by ID.
func (n *Network) IncidentEdges(vID string) []*Edge {
	ids := append([]string(nil), n.incident[vID]...)
	sort.Strings(ids)
	out := make([]*Edge, 0, len(ids))
	for _, id := range ids {
		if e, ok := n.edges[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// VertexCount returns the number of vertices.
func (n *Network) VertexCount() int { return len(n.vertices) }

// EdgeCount returns the number of edges.
func (n *Network) EdgeCount() int { return len(n.edges) }

// MergeVertices re-points every edge at drop onto keep and rewrites the
// affected geometry endpoints so they coincide with keep's position
// exactly. The drop vertex is removed.
func (n *Network) MergeVertices(keep, drop string) error {
	kv, ok := n.vertices[keep]
	if !ok {
		return fmt.Errorf("merge vertices: unknown vertex %s", keep)
	}
	if _, ok := n.vertices[drop]; !ok {
		return fmt.Errorf("merge vertices: unknown vertex %s", drop)
	}
	if keep == drop {
		return nil
	}
	for _, eid := range append([]string(nil), n.incident[drop]...) {
		e := n.edges[eid]
		if e == nil {
			continue
		}
		line := e.Line.Clone()
		if e.A == drop {
			e.A = keep
			line[0] = snapOnto(line[0], kv.Point)
		}
		if e.B == drop {
			e.B = keep
			line[len(line)-1] = snapOnto(line[len(line)-1], kv.Point)
		}
		e.Line = line
		e.LengthM = geo.Length3DM(line)
		if !containsString(n.incident[keep], eid) {
			n.incident[keep] = append(n.incident[keep], eid)
		}
	}
	delete(n.incident, drop)
	delete(n.vertices, drop)
	return nil
}

func snapOnto(old, target geo.Point) geo.Point {
	target.Elev = old.Elev
	return target
}

// RemoveOrphans deletes all degree-0 vertices and returns the count.
func (n *Network) RemoveOrphans() int {
	removed := 0
	for id := range n.vertices {
		if len(n.incident[id]) == 0 {
			delete(n.vertices, id)
			delete(n.incident, id)
			removed++
		}
	}
	return removed
}

// TotalLengthM sums the length of every edge.
func (n *Network) TotalLengthM() float64 {
	var total float64
	for _, e := range n.edges {
		total += e.LengthM
	}
	return total
}

// ThroughVertices lists vertices of exact degree 2 that are not endpoints
// of a self-loop, sorted by ID. These are the contraction candidates.
func (n *Network) ThroughVertices() []string {
	var out []string
	for id := range n.vertices {
		if n.Degree(id) != 2 {
			continue
		}
		edges := n.IncidentEdges(id)
		if len(edges) == 1 {
			// A single self-loop; preserved as-is.
			continue
		}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NearlyEqualLengths reports whether two lengths agree within tol meters.
func NearlyEqualLengths(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
