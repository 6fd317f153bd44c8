// Package trail holds the mutable working set the topology pipeline
// operates on: trails as ingested, the segments that replace them after
// splitting, and the spatial grid used to deduplicate cut coordinates.
//
// A working set is created fresh per run as a disposable copy of the input
// trails, mutated in place through the pipeline phases, and either handed
// to downstream consumers or discarded on fatal error. It is not safe for
// concurrent mutation.
package trail

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
)

// Trail is a raw ingested trail. Trails are destroyed (replaced by
// segments) when split.
type Trail struct {
	ID     uuid.UUID
	Name   string
	Region string
	Source string

	Line    geo.Line
	LengthM float64
	Bounds  geo.Rect
}

// NewTrail builds a trail from a polyline, caching length and bounds.
func NewTrail(name, region, source string, line geo.Line) (*Trail, error) {
	if len(line) < 2 {
		return nil, fmt.Errorf("trail %q: polyline needs at least 2 points, got %d", name, len(line))
	}
	return &Trail{
		ID:      uuid.New(),
		Name:    name,
		Region:  region,
		Source:  source,
		Line:    line,
		LengthM: geo.Length3DM(line),
		Bounds:  line.Bounds(),
	}, nil
}

// Segment is a polyline derived from exactly one parent trail. The segment
// exclusively owns its geometry; ParentID is a non-owning lookup link (the
// parent trail row is deleted once all of its segments are committed).
type Segment struct {
	ID         uuid.UUID
	ParentID   uuid.UUID
	ParentName string

	Line    geo.Line
	LengthM float64
}

// NewSegment builds a segment from a piece of its parent's geometry.
func NewSegment(parent *Trail, line geo.Line) *Segment {
	return &Segment{
		ID:         uuid.New(),
		ParentID:   parent.ID,
		ParentName: parent.Name,
		Line:       line,
		LengthM:    geo.Length3DM(line),
	}
}

// SetLine replaces the segment geometry and refreshes the cached length.
func (s *Segment) SetLine(line geo.Line) {
	s.Line = line
	s.LengthM = geo.Length3DM(line)
}

// SetLine replaces the trail geometry and refreshes cached length/bounds.
func (t *Trail) SetLine(line geo.Line) {
	t.Line = line
	t.LengthM = geo.Length3DM(line)
	t.Bounds = line.Bounds()
}
