package classify

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
	"github.com/fellrunner/trailnet/pkg/topo"
)

// kindRank orders intersection kinds for processing: crossings are resolved
// before T-intersections because T resolution depends on the post-split
// visited geometry. Non-splittable kinds sort last.
var kindRank = map[topo.Kind]int{
	topo.KindTrue:        0,
	topo.KindY:           0,
	topo.KindMultipoint:  0,
	topo.KindT:           1,
	topo.KindOverlapping: 2,
	topo.KindUnknown:     3,
}

// dedupe snaps candidate points to a grid of resolution
// TrueToleranceM × 0.01 and merges candidates sharing a cell into one
// point whose trail-identity set is the union of the merged candidates'.
// Crossing kinds win over T on a merge; T metadata survives only when the
// surviving point is T-kind.
func (c *Classifier) dedupe(candidates []topo.IntersectionPoint) []topo.IntersectionPoint {
	cellM := c.cfg.TrueToleranceM * 0.01
	if cellM <= 0 {
		cellM = 0.01
	}

	type cell struct{ x, y int64 }
	merged := make(map[cell]*topo.IntersectionPoint)
	var order []cell

	for _, cand := range candidates {
		k := cell{
			x: quantize(cand.Point.Lon*math.Cos(cand.Point.Lat*math.Pi/180), cellM),
			y: quantize(cand.Point.Lat, cellM),
		}
		existing, ok := merged[k]
		if !ok {
			cp := cand
			cp.TrailIDs = append([]uuid.UUID(nil), cand.TrailIDs...)
			merged[k] = &cp
			order = append(order, k)
			continue
		}
		existing.TrailIDs = unionIDs(existing.TrailIDs, cand.TrailIDs)
		if kindRank[cand.Kind] < kindRank[existing.Kind] {
			// A crossing absorbs a coincident near-miss; drop T metadata.
			existing.Kind = cand.Kind
			existing.Point = cand.Point
			existing.VisitorID = uuid.Nil
			existing.VisitedID = uuid.Nil
			existing.DistanceM = 0
			existing.Projection = geo.Point{}
		}
	}

	out := make([]topo.IntersectionPoint, 0, len(order))
	for _, k := range order {
		out = append(out, *merged[k])
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := kindRank[out[i].Kind], kindRank[out[j].Kind]
		if ri != rj {
			return ri < rj
		}
		if out[i].Point.Lon != out[j].Point.Lon {
			return out[i].Point.Lon < out[j].Point.Lon
		}
		return out[i].Point.Lat < out[j].Point.Lat
	})
	return out
}

func quantize(deg float64, cellM float64) int64 {
	return int64(math.Round(deg * geo.MetersPerDegreeLat / cellM))
}

func unionIDs(a, b []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(a)+len(b))
	out := a
	for _, id := range a {
		seen[id] = true
	}
	for _, id := range b {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
