package transform

import (
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
	"github.com/fellrunner/trailnet/pkg/topo"
)

// Contractor merges the two edges at every eliminable degree-2 vertex
// into one edge spanning both, preserving segment lists, length and
// elevation. Chains of consecutive degree-2 vertices contract
// transitively within a single Apply pass.
type Contractor struct {
	logger *log.Logger
}

// NewContractor creates a contractor. A nil logger defaults to the
// package default.
func NewContractor(logger *log.Logger) *Contractor {
	if logger == nil {
		logger = log.Default()
	}
	return &Contractor{logger: logger}
}

// Apply contracts every eligible through vertex. Self-loops are left
// alone, and a merge that would turn a cycle into a self-loop is skipped
// so cycles always keep at least two vertices.
func (c *Contractor) Apply(n *netgraph.Network) topo.Counts {
	var counts topo.Counts
	for _, vID := range n.ThroughVertices() {
		if n.Degree(vID) != 2 {
			// An earlier merge in this pass changed the degree.
			continue
		}
		edges := n.IncidentEdges(vID)
		if len(edges) != 2 || edges[0].Loop() || edges[1].Loop() {
			continue
		}
		e1, e2 := edges[0], edges[1]
		a, b := e1.Other(vID), e2.Other(vID)
		if a == b && len(n.IncidentEdges(a)) == 2 {
			// The last pair of a closed cycle; merging it would collapse
			// the cycle into a self-loop.
			continue
		}

		line := joinLines(orient(e1, a), orient(e2, vID))
		segIDs := append(append([]uuid.UUID(nil), e1.SegmentIDs...), e2.SegmentIDs...)
		names := mergeNames(e1.Names, e2.Names)

		n.RemoveEdge(e1.ID)
		n.RemoveEdge(e2.ID)
		merged := n.AddLine(line, segIDs, names, e1.Synthetic && e2.Synthetic)
		counts.ChainsMerged++
		c.logger.Debug("contracted through vertex",
			"vertex", vID, "edge", merged.ID, "length_m", merged.LengthM)
	}
	return counts
}

// orient returns the edge geometry running away from the given start
// vertex.
func orient(e *netgraph.Edge, from string) geo.Line {
	if e.A == from {
		return e.Line.Clone()
	}
	return e.Line.Reverse()
}

// joinLines concatenates two lines sharing a joint vertex, keeping the
// joint once.
func joinLines(first, second geo.Line) geo.Line {
	out := make(geo.Line, 0, len(first)+len(second)-1)
	out = append(out, first...)
	start := 0
	if len(second) > 0 && len(first) > 0 && second[0] == first[len(first)-1] {
		start = 1
	}
	out = append(out, second[start:]...)
	return out
}

func mergeNames(a, b []string) []string {
	out := append([]string(nil), a...)
	for _, name := range b {
		dup := false
		for _, have := range out {
			if have == name {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, name)
		}
	}
	return out
}
