package transform

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/peterstace/simplefeatures/rtree"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/netgraph"
	"github.com/fellrunner/trailnet/pkg/topo"
)

// BridgeConfig holds the gap bridger tolerances.
type BridgeConfig struct {
	// GapToleranceM is the maximum endpoint distance considered a
	// bridgeable gap.
	GapToleranceM float64
	// MaxConnectors caps synthetic connector edges per run.
	MaxConnectors int
	// MinConnectorLengthM is the threshold below which a gap is closed by
	// merging the vertices instead of creating a connector edge.
	MinConnectorLengthM float64
}

// BridgeRecord reports one closed gap.
type BridgeRecord struct {
	TrailA    string
	TrailB    string
	DistanceM float64
	// Snapped is true when the gap was closed by a vertex merge rather
	// than a connector edge.
	Snapped bool
}

// Bridger closes small gaps between dangling trail ends: pairs of
// unconnected vertices within GapToleranceM, processed closest first. The
// connector budget spans the bridger's lifetime, so repeated Apply calls
// inside the optimization loop share one MaxConnectors allowance. Gaps
// closed by snapping do not consume it.
type Bridger struct {
	cfg       BridgeConfig
	remaining int
	logger    *log.Logger
}

// NewBridger creates a bridger. A nil logger defaults to the package
// default.
func NewBridger(cfg BridgeConfig, logger *log.Logger) *Bridger {
	if logger == nil {
		logger = log.Default()
	}
	return &Bridger{cfg: cfg, remaining: cfg.MaxConnectors, logger: logger}
}

type gapCandidate struct {
	a, b  string // vertex IDs, a < b
	distM float64
}

// Apply closes gaps in the network and returns what it did. At least one
// vertex of each pair must be a dangling end (degree <= 1); interior
// vertices never attract bridges to each other.
func (b *Bridger) Apply(n *netgraph.Network) ([]BridgeRecord, topo.Counts) {
	var counts topo.Counts
	candidates := b.candidates(n)

	var records []BridgeRecord
	for _, c := range candidates {
		va, okA := n.Vertex(c.a)
		vb, okB := n.Vertex(c.b)
		if !okA || !okB {
			// One side was merged away by an earlier, closer pair.
			continue
		}
		if connected(n, c.a, c.b) {
			continue
		}

		rec := BridgeRecord{
			TrailA:    incidentName(n, c.a),
			TrailB:    incidentName(n, c.b),
			DistanceM: c.distM,
		}
		if c.distM < b.cfg.MinConnectorLengthM {
			if err := n.MergeVertices(c.a, c.b); err != nil {
				b.logger.Warn("vertex merge failed", "a", c.a, "b", c.b, "err", err)
				continue
			}
			rec.Snapped = true
		} else {
			if b.remaining <= 0 {
				// Candidates are sorted by distance, so every remaining
				// gap also needs a connector.
				b.logger.Warn("connector budget exhausted, leaving remaining gaps open",
					"cap", b.cfg.MaxConnectors)
				break
			}
			n.AddLine(geo.Line{va.Point, vb.Point}, nil,
				connectorNames(rec.TrailA, rec.TrailB), true)
			b.remaining--
		}
		records = append(records, rec)
		counts.GapsBridged++
		b.logger.Debug("bridged gap",
			"a", rec.TrailA, "b", rec.TrailB,
			"distance_m", rec.DistanceM, "snapped", rec.Snapped)
	}
	return records, counts
}

// candidates lists unconnected vertex pairs within tolerance, closest
// first. Ties break on vertex IDs so the scan order is deterministic.
func (b *Bridger) candidates(n *netgraph.Network) []gapCandidate {
	vertices := n.Vertices()
	items := make([]rtree.BulkItem, len(vertices))
	for i, v := range vertices {
		items[i] = rtree.BulkItem{
			Box:      rtree.Box{MinX: v.Point.Lon, MinY: v.Point.Lat, MaxX: v.Point.Lon, MaxY: v.Point.Lat},
			RecordID: i,
		}
	}
	tree := rtree.BulkLoad(items)

	var out []gapCandidate
	for i, v := range vertices {
		box := geo.Rect{MinLon: v.Point.Lon, MinLat: v.Point.Lat, MaxLon: v.Point.Lon, MaxLat: v.Point.Lat}.
			ExpandM(b.cfg.GapToleranceM)
		query := rtree.Box{MinX: box.MinLon, MinY: box.MinLat, MaxX: box.MaxLon, MaxY: box.MaxLat}
		_ = tree.RangeSearch(query, func(j int) error {
			if j <= i {
				return nil
			}
			w := vertices[j]
			if n.Degree(v.ID) > 1 && n.Degree(w.ID) > 1 {
				return nil
			}
			d := geo.HaversineM(v.Point, w.Point)
			if d == 0 || d > b.cfg.GapToleranceM {
				return nil
			}
			if connected(n, v.ID, w.ID) {
				return nil
			}
			a, c := v.ID, w.ID
			if c < a {
				a, c = c, a
			}
			out = append(out, gapCandidate{a: a, b: c, distM: d})
			return nil
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].distM != out[j].distM {
			return out[i].distM < out[j].distM
		}
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		return out[i].b < out[j].b
	})
	return out
}

// connected reports whether some edge already joins the two vertices.
func connected(n *netgraph.Network, a, b string) bool {
	for _, e := range n.IncidentEdges(a) {
		if e.Other(a) == b {
			return true
		}
	}
	return false
}

// incidentName picks a representative trail name for a vertex.
func incidentName(n *netgraph.Network, vID string) string {
	for _, e := range n.IncidentEdges(vID) {
		for _, name := range e.Names {
			if name != "" {
				return name
			}
		}
	}
	return vID
}

func connectorNames(a, b string) []string {
	if a == b {
		return []string{a}
	}
	return []string{a, b}
}
