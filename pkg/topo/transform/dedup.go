package transform

import (
	"github.com/charmbracelet/log"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
	"github.com/fellrunner/trailnet/pkg/topo"
)

// Deduper removes fully or partially overlapping duplicate edges, keeping
// the geometrically longer of each pair. Ties break on lexicographic
// trail-name order, then edge ID, so repeat runs remove the same edge.
type Deduper struct {
	engine geo.Engine
	logger *log.Logger
}

// NewDeduper creates a deduper. A nil logger defaults to the package
// default.
func NewDeduper(engine geo.Engine, logger *log.Logger) *Deduper {
	if logger == nil {
		logger = log.Default()
	}
	return &Deduper{engine: engine, logger: logger}
}

// Apply removes overlapping duplicates until none remain among the
// surviving edges.
func (d *Deduper) Apply(n *netgraph.Network) topo.Counts {
	var counts topo.Counts
	edges := n.Edges()
	gone := make(map[string]bool)

	for i := 0; i < len(edges); i++ {
		if gone[edges[i].ID] {
			continue
		}
		for j := i + 1; j < len(edges); j++ {
			if gone[edges[i].ID] {
				break
			}
			if gone[edges[j].ID] {
				continue
			}
			a, b := edges[i], edges[j]
			if !a.Line.Bounds().Intersects(b.Line.Bounds()) {
				continue
			}
			x, err := d.engine.Intersect(a.Line, b.Line)
			if err != nil {
				d.logger.Warn("overlap check failed, skipping pair",
					"a", a.ID, "b", b.ID, "err", err)
				continue
			}
			if !x.Overlapping() {
				continue
			}

			loser := pickLoser(a, b)
			n.RemoveEdge(loser.ID)
			gone[loser.ID] = true
			counts.OverlapsRemoved++
			d.logger.Debug("removed overlapping edge",
				"removed", loser.ID, "overlap_m", x.OverlapM)
		}
	}
	return counts
}

// pickLoser chooses which of two overlapping edges to remove: the shorter
// one, with deterministic tiebreaks.
func pickLoser(a, b *netgraph.Edge) *netgraph.Edge {
	if a.LengthM != b.LengthM {
		if a.LengthM < b.LengthM {
			return a
		}
		return b
	}
	na, nb := firstName(a), firstName(b)
	if na != nb {
		if na > nb {
			return a
		}
		return b
	}
	if a.ID > b.ID {
		return a
	}
	return b
}

func firstName(e *netgraph.Edge) string {
	for _, n := range e.Names {
		if n != "" {
			return n
		}
	}
	return ""
}
