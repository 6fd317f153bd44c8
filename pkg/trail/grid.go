package trail

import (
	"math"

	"github.com/fellrunner/trailnet/pkg/geo"
)

// Grid is a spatial hash over points with a metric cell size. The splitter
// registers every cut coordinate in it so repeated optimization passes do
// not re-split at coordinates already used. One Grid is owned by the
// orchestrator and passed by reference into each phase, which keeps runs
// isolated and reentrant.
type Grid struct {
	cellM float64
	cells map[gridKey]geo.Point
}

type gridKey struct {
	x, y int64
}

// NewGrid creates a grid with the given cell size in meters.
func NewGrid(cellM float64) *Grid {
	if cellM <= 0 {
		cellM = 0.01
	}
	return &Grid{cellM: cellM, cells: make(map[gridKey]geo.Point)}
}

func (g *Grid) key(p geo.Point) gridKey {
	scale := math.Cos(p.Lat * math.Pi / 180)
	if scale < 0.01 {
		scale = 0.01
	}
	return gridKey{
		x: int64(math.Round(p.Lon * geo.MetersPerDegreeLat * scale / g.cellM)),
		y: int64(math.Round(p.Lat * geo.MetersPerDegreeLat / g.cellM)),
	}
}

// Register adds p to the grid. If a point already occupies the same cell,
// the existing canonical point is returned and added is false.
func (g *Grid) Register(p geo.Point) (canonical geo.Point, added bool) {
	k := g.key(p)
	if existing, ok := g.cells[k]; ok {
		return existing, false
	}
	g.cells[k] = p
	return p, true
}

// Contains reports whether a point occupies the same cell as p.
func (g *Grid) Contains(p geo.Point) bool {
	_, ok := g.cells[g.key(p)]
	return ok
}

// Len returns the number of occupied cells.
func (g *Grid) Len() int { return len(g.cells) }
