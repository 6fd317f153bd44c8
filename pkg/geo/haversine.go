package geo

import "math"

// earthRadiusM is the mean Earth radius used by the haversine formula.
const earthRadiusM = 6371000.0

// MetersPerDegreeLat is the exact great-circle length of one degree of
// latitude on the sphere of radius earthRadiusM.
const MetersPerDegreeLat = earthRadiusM * math.Pi / 180

const metersPerDegreeLat = MetersPerDegreeLat

// Length3DM returns the elevation-aware geodesic length of l in meters.
func Length3DM(l Line) float64 {
	var total float64
	for i := 1; i < len(l); i++ {
		total += Distance3DM(l[i-1], l[i])
	}
	return total
}

// HaversineM returns the great-circle distance between two points in meters.
// Elevation is ignored.
func HaversineM(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return earthRadiusM * c
}

// Distance3DM returns the distance between two points accounting for the
// elevation difference, combining the haversine ground distance with the
// vertical delta.
func Distance3DM(a, b Point) float64 {
	h := HaversineM(a, b)
	dz := b.Elev - a.Elev
	return math.Sqrt(h*h + dz*dz)
}

// localFrame maps geographic coordinates into a tangent-plane meter frame
// centered on a reference point. Valid for trail-scale extents.
type localFrame struct {
	refLon, refLat float64
	lonScale       float64 // meters per degree of longitude at refLat
}

func newLocalFrame(ref Point) localFrame {
	return localFrame{
		refLon:   ref.Lon,
		refLat:   ref.Lat,
		lonScale: metersPerDegreeLat * math.Cos(ref.Lat*math.Pi/180),
	}
}

// toXY converts a point into frame meters.
func (f localFrame) toXY(p Point) (x, y float64) {
	return (p.Lon - f.refLon) * f.lonScale, (p.Lat - f.refLat) * metersPerDegreeLat
}

// toPoint converts frame meters back to geographic coordinates.
func (f localFrame) toPoint(x, y float64) Point {
	return Point{
		Lon: f.refLon + x/f.lonScale,
		Lat: f.refLat + y/metersPerDegreeLat,
	}
}
