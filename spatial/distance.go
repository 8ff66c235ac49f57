package spatial

import (
	"math"

	"github.com/cobrun/geoprefix/geo"
)

// DistanceCalculator measures the distance between two points.
type DistanceCalculator interface {
	Distance(from, to Point) float64
}

// CartesianDistance is the euclidean distance in grid units.
type CartesianDistance struct{}

// Distance implements DistanceCalculator.
func (CartesianDistance) Distance(from, to Point) float64 {
	return math.Hypot(to.X-from.X, to.Y-from.Y)
}

// GeodesicDistance is the great-circle distance in kilometers. X is longitude
// and Y latitude.
type GeodesicDistance struct{}

// Distance implements DistanceCalculator.
func (GeodesicDistance) Distance(from, to Point) float64 {
	return geo.HaversineDistance(from.Geo(), to.Geo())
}

// DistanceFromErrPct returns the positional error, in grid units, for indexing
// shape with the given fraction of its size. Points and a zero fraction
// yield 0, which asks for the finest precision.
func DistanceFromErrPct(shape Shape, distErrPct float64) float64 {
	if distErrPct == 0 {
		return 0
	}
	if _, ok := shape.(Point); ok {
		return 0
	}
	bbox := shape.Bounds()
	ctr := bbox.Center()
	// farthest corner on the equator side of the box
	y := bbox.MinY
	if ctr.Y >= 0 {
		y = bbox.MaxY
	}
	return CartesianDistance{}.Distance(ctr, Point{X: bbox.MaxX, Y: y}) * distErrPct
}
