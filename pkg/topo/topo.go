// Package topo defines the types shared by the topology construction
// phases: classified intersection points and the per-phase change counts
// reported by a pipeline run.
package topo

import (
	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
)

// Kind classifies an intersection point.
type Kind string

const (
	// KindTrue marks a genuine geometric crossing at a single point.
	KindTrue Kind = "true"
	// KindT marks an endpoint of one trail lying near the interior of
	// another without a geometric crossing.
	KindT Kind = "t"
	// KindY marks a crossing whose tangent angle is oblique rather than
	// near-perpendicular. Split identically to KindTrue; the tag only
	// matters for downstream labeling.
	KindY Kind = "y"
	// KindMultipoint marks trails crossing at several distinct points.
	KindMultipoint Kind = "multipoint"
	// KindOverlapping marks trails sharing collinear sections.
	KindOverlapping Kind = "overlapping"
	// KindUnknown marks a degenerate result the classifier could not
	// resolve; the splitter ignores these.
	KindUnknown Kind = "unknown"
)

// IntersectionPoint is a classified meeting of two or more trails. Produced
// by the classifier, consumed and discarded by the splitter within the same
// phase; never persisted across phases.
type IntersectionPoint struct {
	Point    geo.Point
	Kind     Kind
	TrailIDs []uuid.UUID

	// T-intersection metadata: the visitor owns the near endpoint, the
	// visited owns the interior being approached.
	VisitorID  uuid.UUID
	VisitedID  uuid.UUID
	DistanceM  float64
	Projection geo.Point
}

// Splittable reports whether the point cuts trail geometry. Overlapping
// sections are handled by the overlap deduplicator, unknowns are skipped.
func (p IntersectionPoint) Splittable() bool {
	switch p.Kind {
	case KindTrue, KindY, KindMultipoint, KindT:
		return true
	}
	return false
}

// Counts accumulates per-phase change counters for a run.
type Counts struct {
	IntersectionsFound int
	TrailsSplit        int
	SegmentsCreated    int
	EndpointsSnapped   int
	GapsBridged        int
	ChainsMerged       int
	OverlapsRemoved    int
	OrphansRemoved     int
}

// Add accumulates other into c.
func (c *Counts) Add(other Counts) {
	c.IntersectionsFound += other.IntersectionsFound
	c.TrailsSplit += other.TrailsSplit
	c.SegmentsCreated += other.SegmentsCreated
	c.EndpointsSnapped += other.EndpointsSnapped
	c.GapsBridged += other.GapsBridged
	c.ChainsMerged += other.ChainsMerged
	c.OverlapsRemoved += other.OverlapsRemoved
	c.OrphansRemoved += other.OrphansRemoved
}

// Changed reports whether any optimization counter moved. Used for
// fixed-point detection in the optimization loop.
func (c Counts) Changed() bool {
	return c.EndpointsSnapped > 0 || c.GapsBridged > 0 ||
		c.ChainsMerged > 0 || c.OverlapsRemoved > 0 || c.OrphansRemoved > 0
}
