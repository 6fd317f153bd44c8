package trail

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/fellrunner/trailnet/pkg/geo"
)

// WorkingSet is the mutable collection for one pipeline run. Trails that
// get split are replaced by segments; trails that never split stay as
// trails. Pieces gives a uniform view over both.
type WorkingSet struct {
	trails   map[uuid.UUID]*Trail
	segments map[uuid.UUID]*Segment
}

// NewWorkingSet builds a working set from a deep copy of the input trails,
// so the caller's data survives a failed run untouched.
func NewWorkingSet(trails []*Trail) *WorkingSet {
	ws := &WorkingSet{
		trails:   make(map[uuid.UUID]*Trail, len(trails)),
		segments: make(map[uuid.UUID]*Segment),
	}
	for _, t := range trails {
		cp := *t
		cp.Line = t.Line.Clone()
		ws.trails[cp.ID] = &cp
	}
	return ws
}

// Trails returns all surviving trails sorted by name then ID for
// deterministic iteration.
func (ws *WorkingSet) Trails() []*Trail {
	out := make([]*Trail, 0, len(ws.trails))
	for _, t := range ws.trails {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Segments returns all committed segments sorted by parent name then ID.
func (ws *WorkingSet) Segments() []*Segment {
	out := make([]*Segment, 0, len(ws.segments))
	for _, s := range ws.segments {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ParentName != out[j].ParentName {
			return out[i].ParentName < out[j].ParentName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Trail looks up a surviving trail by ID.
func (ws *WorkingSet) Trail(id uuid.UUID) (*Trail, bool) {
	t, ok := ws.trails[id]
	return t, ok
}

// TrailCount returns the number of surviving (unsplit) trails.
func (ws *WorkingSet) TrailCount() int { return len(ws.trails) }

// SegmentCount returns the number of committed segments.
func (ws *WorkingSet) SegmentCount() int { return len(ws.segments) }

// Commit transactionally replaces a trail with its segments: the segments
// are inserted first and the parent row removed last, so a failure never
// loses the original trail.
func (ws *WorkingSet) Commit(trailID uuid.UUID, segs []*Segment) error {
	if _, ok := ws.trails[trailID]; !ok {
		return fmt.Errorf("commit: unknown trail %s", trailID)
	}
	if len(segs) == 0 {
		return fmt.Errorf("commit: no segments for trail %s", trailID)
	}
	for _, s := range segs {
		if s.ParentID != trailID {
			return fmt.Errorf("commit: segment %s has parent %s, want %s", s.ID, s.ParentID, trailID)
		}
		if len(s.Line) < 2 || s.LengthM <= 0 {
			return fmt.Errorf("commit: segment %s has degenerate geometry", s.ID)
		}
	}
	for _, s := range segs {
		ws.segments[s.ID] = s
	}
	delete(ws.trails, trailID)
	return nil
}

// ReplaceSegment swaps one committed segment for the pieces it was
// further cut into, with the same transactional ordering as Commit: the
// replacements are inserted first and the original removed last.
func (ws *WorkingSet) ReplaceSegment(id uuid.UUID, segs []*Segment) error {
	old, ok := ws.segments[id]
	if !ok {
		return fmt.Errorf("replace segment: unknown segment %s", id)
	}
	if len(segs) == 0 {
		return fmt.Errorf("replace segment: no replacements for %s", id)
	}
	for _, s := range segs {
		if s.ParentID != old.ParentID {
			return fmt.Errorf("replace segment: %s has parent %s, want %s", s.ID, s.ParentID, old.ParentID)
		}
		if len(s.Line) < 2 || s.LengthM <= 0 {
			return fmt.Errorf("replace segment: %s has degenerate geometry", s.ID)
		}
	}
	for _, s := range segs {
		ws.segments[s.ID] = s
	}
	delete(ws.segments, id)
	return nil
}

// Piece is a uniform read view over a surviving trail or a segment.
type Piece struct {
	ID      uuid.UUID
	TrailID uuid.UUID // originating trail (self for unsplit trails)
	Name    string
	Line    geo.Line
	LengthM float64
}

// Pieces lists every geometry currently in the working set, deterministic
// order (trails first, then segments, each sorted by name).
func (ws *WorkingSet) Pieces() []Piece {
	out := make([]Piece, 0, len(ws.trails)+len(ws.segments))
	for _, t := range ws.Trails() {
		out = append(out, Piece{ID: t.ID, TrailID: t.ID, Name: t.Name, Line: t.Line, LengthM: t.LengthM})
	}
	for _, s := range ws.Segments() {
		out = append(out, Piece{ID: s.ID, TrailID: s.ParentID, Name: s.ParentName, Line: s.Line, LengthM: s.LengthM})
	}
	return out
}

// PiecesOf lists the pieces descended from the given trail: the trail
// itself if it never split, or the segments that replaced it.
func (ws *WorkingSet) PiecesOf(trailID uuid.UUID) []Piece {
	var out []Piece
	if t, ok := ws.trails[trailID]; ok {
		out = append(out, Piece{ID: t.ID, TrailID: t.ID, Name: t.Name, Line: t.Line, LengthM: t.LengthM})
	}
	for _, s := range ws.Segments() {
		if s.ParentID == trailID {
			out = append(out, Piece{ID: s.ID, TrailID: s.ParentID, Name: s.ParentName, Line: s.Line, LengthM: s.LengthM})
		}
	}
	return out
}

// SetLine rewrites the geometry of the piece with the given ID, whether it
// is a trail or a segment.
func (ws *WorkingSet) SetLine(id uuid.UUID, line geo.Line) error {
	if t, ok := ws.trails[id]; ok {
		t.SetLine(line)
		return nil
	}
	if s, ok := ws.segments[id]; ok {
		s.SetLine(line)
		return nil
	}
	return fmt.Errorf("set line: unknown piece %s", id)
}

// Lines returns the geometry of every piece. Used for validation baselines.
func (ws *WorkingSet) Lines() []geo.Line {
	pieces := ws.Pieces()
	out := make([]geo.Line, len(pieces))
	for i, p := range pieces {
		out[i] = p.Line
	}
	return out
}

// TotalLengthM sums the geodesic length of every piece.
func (ws *WorkingSet) TotalLengthM() float64 {
	var total float64
	for _, t := range ws.trails {
		total += t.LengthM
	}
	for _, s := range ws.segments {
		total += s.LengthM
	}
	return total
}
