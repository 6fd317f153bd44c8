// Package transform holds the mutating topology phases: the trail
// splitter, the gap bridger, the degree-2 chain contractor and the overlap
// deduplicator. All of them require exclusive access to their working set
// or network; none are safe to run concurrently.
package transform

import (
	"math"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/topo"
	"github.com/fellrunner/trailnet/pkg/trail"
)

// splitEps excludes cut ratios at (or numerically at) a line endpoint.
const splitEps = 1e-6

// SplitConfig holds the splitter tolerances.
type SplitConfig struct {
	// TrueToleranceM is the snap epsilon deciding whether a piece passes
	// through an intersection point.
	TrueToleranceM float64
	// MinSegmentLengthM drops resulting pieces shorter than this.
	MinSegmentLengthM float64
}

// Splitter consumes classified intersection points and replaces trails
// with segments cut at those points. Each cut coordinate is registered in
// the shared grid so later passes never re-split at a coordinate already
// used.
type Splitter struct {
	engine geo.Engine
	cfg    SplitConfig
	grid   *trail.Grid
	logger *log.Logger
}

// NewSplitter creates a splitter. A nil logger defaults to the package
// default.
func NewSplitter(engine geo.Engine, cfg SplitConfig, grid *trail.Grid, logger *log.Logger) *Splitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Splitter{engine: engine, cfg: cfg, grid: grid, logger: logger}
}

// Apply mutates the working set: crossing points first, then T points,
// whose resolution depends on the post-split visited geometry. Splitting
// is transactional per trail; a failed cut keeps the original geometry.
func (s *Splitter) Apply(ws *trail.WorkingSet, points []topo.IntersectionPoint) (topo.Counts, error) {
	var counts topo.Counts
	split := make(map[uuid.UUID]bool)

	for _, pt := range points {
		if !pt.Splittable() {
			continue
		}
		if pt.Kind == topo.KindT {
			s.applyT(ws, pt, split, &counts)
			continue
		}
		if s.grid.Contains(pt.Point) {
			continue
		}
		cut, _ := s.grid.Register(pt.Point)
		for _, trailID := range pt.TrailIDs {
			if s.cutTrailAt(ws, trailID, cut, &counts) {
				split[trailID] = true
			}
		}
	}

	counts.TrailsSplit = len(split)
	return counts, nil
}

// applyT performs the two-step T transform: move the visitor's near
// endpoint onto the recorded projection, then split the visited trail
// there. When the projection lands in an already-cut cell the visitor is
// still snapped, onto that cell's canonical point, so its endpoint never
// dangles short of an existing junction.
func (s *Splitter) applyT(ws *trail.WorkingSet, pt topo.IntersectionPoint, split map[uuid.UUID]bool, counts *topo.Counts) {
	cut, added := s.grid.Register(pt.Projection)

	if s.snapVisitor(ws, pt, cut) {
		counts.EndpointsSnapped++
	}
	if !added {
		return
	}
	if s.cutTrailAt(ws, pt.VisitedID, cut, counts) {
		split[pt.VisitedID] = true
	}
}

// snapVisitor finds the visitor piece whose endpoint produced the near
// miss and rewrites that endpoint to the canonical projection.
func (s *Splitter) snapVisitor(ws *trail.WorkingSet, pt topo.IntersectionPoint, cut geo.Point) bool {
	reach := pt.DistanceM + s.cfg.TrueToleranceM
	best := math.Inf(1)
	var bestID uuid.UUID
	var bestLine geo.Line

	for _, p := range ws.PiecesOf(pt.VisitorID) {
		for _, end := range []geo.Point{p.Line.Start(), p.Line.End()} {
			d := geo.HaversineM(end, cut)
			if d <= reach && d < best {
				best = d
				bestID = p.ID
				bestLine = p.Line
			}
		}
	}
	if bestID == uuid.Nil {
		s.logger.Warn("visitor endpoint not found, skipping snap",
			"trail", pt.VisitorID, "distance_m", pt.DistanceM)
		return false
	}
	if best == 0 {
		// Already coincident, likely from an earlier pass.
		return false
	}
	snapped := s.engine.Snap(bestLine, cut, best+splitEps)
	if err := ws.SetLine(bestID, snapped); err != nil {
		s.logger.Warn("visitor snap failed", "piece", bestID, "err", err)
		return false
	}
	return true
}

// cutTrailAt cuts whichever piece of the trail passes within the snap
// epsilon of the point. Reports whether a cut was committed.
func (s *Splitter) cutTrailAt(ws *trail.WorkingSet, trailID uuid.UUID, cut geo.Point, counts *topo.Counts) bool {
	for _, p := range ws.PiecesOf(trailID) {
		_, dist := s.engine.ClosestPoint(p.Line, cut)
		if dist > s.cfg.TrueToleranceM {
			continue
		}
		r := s.engine.LineLocate(p.Line, cut)
		if r <= splitEps || r >= 1-splitEps {
			// The point coincides with an existing vertex of this piece.
			continue
		}
		return s.cutPiece(ws, p, cut, counts)
	}
	return false
}

// anchorsJunction reports whether the far end of a would-be-dropped piece
// sits on a previously registered cut coordinate. Dropping such a piece
// would disconnect the survivors from that junction.
func (s *Splitter) anchorsJunction(l geo.Line, cut geo.Point) bool {
	eps := s.cfg.TrueToleranceM * 0.01
	for _, end := range []geo.Point{l.Start(), l.End()} {
		if geo.SamePlace(end, cut, eps) {
			continue
		}
		if s.grid.Contains(end) {
			return true
		}
	}
	return false
}

// cutPiece splits one piece at the point and commits the replacement
// segments. Pieces shorter than the minimum are dropped; when nothing
// would survive the whole cut is rejected and the original kept.
func (s *Splitter) cutPiece(ws *trail.WorkingSet, p trail.Piece, cut geo.Point, counts *topo.Counts) bool {
	lines := s.engine.Split(p.Line, cut)
	if len(lines) < 2 {
		return false
	}

	kept := lines[:0:0]
	for _, l := range lines {
		if geo.Length3DM(l) < s.cfg.MinSegmentLengthM {
			if s.anchorsJunction(l, cut) {
				// The stub connects the survivors to an earlier cut.
				// Refusing the cut beats silently losing that link.
				s.logger.Warn("split rejected, short piece anchors a junction",
					"trail", p.Name, "length_m", geo.Length3DM(l))
				return false
			}
			continue
		}
		kept = append(kept, l)
	}
	if len(kept) == 0 {
		// Refusing the cut beats silently losing the trail.
		s.logger.Warn("split rejected, all pieces below minimum length",
			"trail", p.Name, "pieces", len(lines))
		return false
	}
	if len(kept) < len(lines) {
		s.logger.Debug("dropped short piece at cut",
			"trail", p.Name, "kept", len(kept), "dropped", len(lines)-len(kept))
	}

	if t, ok := ws.Trail(p.ID); ok {
		segs := make([]*trail.Segment, len(kept))
		for i, l := range kept {
			segs[i] = trail.NewSegment(t, l)
		}
		if err := ws.Commit(p.ID, segs); err != nil {
			s.logger.Warn("split commit failed", "trail", p.Name, "err", err)
			return false
		}
		counts.SegmentsCreated += len(segs)
		return true
	}

	segs := make([]*trail.Segment, len(kept))
	for i, l := range kept {
		segs[i] = &trail.Segment{
			ID:         uuid.New(),
			ParentID:   p.TrailID,
			ParentName: p.Name,
			Line:       l,
			LengthM:    geo.Length3DM(l),
		}
	}
	if err := ws.ReplaceSegment(p.ID, segs); err != nil {
		s.logger.Warn("split replace failed", "segment", p.ID, "err", err)
		return false
	}
	counts.SegmentsCreated += len(segs) - 1
	return true
}
