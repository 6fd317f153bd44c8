// Package classify implements the intersection classifier: a read-only
// pairwise analysis over a point-in-time snapshot of the working set that
// produces classified intersection points for the splitter.
//
// Pairwise predicate evaluation is embarrassingly parallel; candidate
// pairs are fanned out over a bounded worker pool and the results are
// merged in a single-threaded deduplication step before any mutation
// occurs.
package classify

import (
	"context"
	"math"
	"runtime"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/peterstace/simplefeatures/rtree"
	"golang.org/x/sync/errgroup"

	"github.com/fellrunner/trailnet/pkg/errors"
	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// Y-angle bounds in degrees: a crossing is tagged as a Y-intersection when
// the folded tangent angle is oblique, i.e. clearly away from both
// collinear (below the lower bound) and perpendicular (above the upper).
const (
	yAngleMinDeg = 15.0
	yAngleMaxDeg = 75.0
)

// locateEps excludes projections that land on (or numerically at) an
// endpoint of the visited trail from T classification.
const locateEps = 1e-6

// Config holds the classifier tolerances.
type Config struct {
	// TrueToleranceM is the snap epsilon for true/Y crossing detection.
	TrueToleranceM float64
	// TToleranceM is the proximity radius for endpoint-to-interior
	// near-miss detection.
	TToleranceM float64
}

// Classifier runs read-only intersection analysis over working set pieces.
type Classifier struct {
	engine geo.Engine
	cfg    Config
	logger *log.Logger
}

// New creates a classifier. A nil logger defaults to the package default.
func New(engine geo.Engine, cfg Config, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{engine: engine, cfg: cfg, logger: logger}
}

// Classify evaluates every unordered pair of distinct pieces and returns
// the deduplicated, ordered intersection points: true/Y/multipoint first,
// T last, since T resolution depends on the post-split visited geometry.
func (c *Classifier) Classify(ctx context.Context, pieces []trail.Piece) ([]topo.IntersectionPoint, error) {
	pairs := c.candidatePairs(pieces)
	if len(pairs) == 0 {
		return nil, nil
	}

	// Each worker writes only its own slot; no locking needed before the
	// single-threaded reduction.
	results := make([][]topo.IntersectionPoint, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, pair := range pairs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pts, err := c.classifyPair(pieces[pair[0]], pieces[pair[1]])
			if err != nil {
				// A failed geometry operation on one candidate pair is
				// recovered locally: skip the pair and keep going.
				c.logger.Warn("geometry operation failed, skipping pair",
					"a", pieces[pair[0]].Name,
					"b", pieces[pair[1]].Name,
					"err", errors.UserMessage(err))
				return nil
			}
			results[i] = pts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var candidates []topo.IntersectionPoint
	for _, pts := range results {
		candidates = append(candidates, pts...)
	}
	return c.dedupe(candidates), nil
}

// candidatePairs prunes the O(n²) pair space with an r-tree over bounding
// boxes expanded by the T tolerance.
func (c *Classifier) candidatePairs(pieces []trail.Piece) [][2]int {
	items := make([]rtree.BulkItem, len(pieces))
	for i, p := range pieces {
		b := p.Line.Bounds()
		items[i] = rtree.BulkItem{
			Box:      rtree.Box{MinX: b.MinLon, MinY: b.MinLat, MaxX: b.MaxLon, MaxY: b.MaxLat},
			RecordID: i,
		}
	}
	tree := rtree.BulkLoad(items)

	var pairs [][2]int
	for i, p := range pieces {
		b := p.Line.Bounds().ExpandM(c.cfg.TToleranceM)
		query := rtree.Box{MinX: b.MinLon, MinY: b.MinLat, MaxX: b.MaxLon, MaxY: b.MaxLat}
		_ = tree.RangeSearch(query, func(j int) error {
			if j > i {
				pairs = append(pairs, [2]int{i, j})
			}
			return nil
		})
	}
	sort.Slice(pairs, func(a, b int) bool {
		if pairs[a][0] != pairs[b][0] {
			return pairs[a][0] < pairs[b][0]
		}
		return pairs[a][1] < pairs[b][1]
	})
	return pairs
}

// classifyPair evaluates a single unordered pair.
func (c *Classifier) classifyPair(a, b trail.Piece) ([]topo.IntersectionPoint, error) {
	if !c.engine.Intersects(a.Line, b.Line) {
		return c.classifyNearMiss(a, b), nil
	}

	x, err := c.engine.Intersect(a.Line, b.Line)
	if err != nil {
		return nil, err
	}

	ids := pairIDs(a, b)
	switch {
	case x.Overlapping():
		return []topo.IntersectionPoint{{
			Point:    overlapAnchor(c.engine, a, b, x),
			Kind:     topo.KindOverlapping,
			TrailIDs: ids,
		}}, nil

	case len(x.Points) == 1:
		kind := topo.KindTrue
		if c.isYAngle(a, b, x.Points[0]) {
			kind = topo.KindY
		}
		return []topo.IntersectionPoint{{Point: x.Points[0], Kind: kind, TrailIDs: ids}}, nil

	case len(x.Points) > 1:
		out := make([]topo.IntersectionPoint, len(x.Points))
		for i, pt := range x.Points {
			out[i] = topo.IntersectionPoint{Point: pt, Kind: topo.KindMultipoint, TrailIDs: ids}
		}
		return out, nil
	}

	// Intersects() held but the intersection came back empty.
	return []topo.IntersectionPoint{{
		Point:    a.Line.Start(),
		Kind:     topo.KindUnknown,
		TrailIDs: ids,
	}}, nil
}

// classifyNearMiss checks both directions for a T-intersection: an
// endpoint of one piece within TToleranceM of the other piece's interior.
func (c *Classifier) classifyNearMiss(a, b trail.Piece) []topo.IntersectionPoint {
	var out []topo.IntersectionPoint
	out = c.appendT(out, a, b)
	out = c.appendT(out, b, a)
	return out
}

func (c *Classifier) appendT(out []topo.IntersectionPoint, visitor, visited trail.Piece) []topo.IntersectionPoint {
	for _, endpoint := range []geo.Point{visitor.Line.Start(), visitor.Line.End()} {
		proj, dist := c.engine.ClosestPoint(visited.Line, endpoint)
		if dist > c.cfg.TToleranceM {
			continue
		}
		// The endpoint must approach the interior, not an existing vertex.
		r := c.engine.LineLocate(visited.Line, endpoint)
		if r <= locateEps || r >= 1-locateEps {
			continue
		}
		if geo.SamePlace(endpoint, proj, c.cfg.TrueToleranceM*0.01) {
			// Already coincident; nothing to bridge.
			continue
		}
		out = append(out, topo.IntersectionPoint{
			Point:      proj,
			Kind:       topo.KindT,
			TrailIDs:   pairIDs(visitor, visited),
			VisitorID:  visitor.TrailID,
			VisitedID:  visited.TrailID,
			DistanceM:  dist,
			Projection: proj,
		})
	}
	return out
}

// isYAngle measures the angle between the tangent directions of the two
// lines at the crossing, folded to [0°, 90°].
func (c *Classifier) isYAngle(a, b trail.Piece, at geo.Point) bool {
	ra := c.engine.LineLocate(a.Line, at)
	rb := c.engine.LineLocate(b.Line, at)
	ax, ay := c.engine.TangentAt(a.Line, ra)
	bx, by := c.engine.TangentAt(b.Line, rb)
	if (ax == 0 && ay == 0) || (bx == 0 && by == 0) {
		return false
	}
	dot := math.Abs(ax*bx + ay*by)
	if dot > 1 {
		dot = 1
	}
	deg := math.Acos(dot) * 180 / math.Pi // folded to [0, 90]
	return deg > yAngleMinDeg && deg < yAngleMaxDeg
}

// overlapAnchor picks a representative location for an overlapping pair.
func overlapAnchor(e geo.Engine, a, b trail.Piece, x geo.Intersection) geo.Point {
	if len(x.Points) > 0 {
		return x.Points[0]
	}
	mid := e.LineSubstring(a.Line, 0.5, 0.5)
	anchor, _ := e.ClosestPoint(b.Line, mid.Start())
	return anchor
}

// pairIDs returns the two originating trail IDs in a stable order.
func pairIDs(a, b trail.Piece) []uuid.UUID {
	if a.TrailID.String() <= b.TrailID.String() {
		return []uuid.UUID{a.TrailID, b.TrailID}
	}
	return []uuid.UUID{b.TrailID, a.TrailID}
}
