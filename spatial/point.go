package spatial

import (
	"fmt"

	"github.com/cobrun/geoprefix/geo"
)

// Point is a position; X is longitude and Y latitude in geographic grids.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NewPoint creates a new Point.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

// PointFromGeo converts a latitude/longitude point.
func PointFromGeo(p geo.Point) Point {
	return Point{X: p.Lng, Y: p.Lat}
}

// Geo converts the point to latitude/longitude.
func (p Point) Geo() geo.Point {
	return geo.Point{Lat: p.Y, Lng: p.X}
}

// Relate implements Shape. Two points are related only when equal.
func (p Point) Relate(other Shape) Relation {
	if o, ok := other.(Point); ok {
		if p == o {
			return Contains
		}
		return Disjoint
	}
	return other.Relate(p).Transpose()
}

// Bounds implements Shape.
func (p Point) Bounds() Rectangle {
	return Rectangle{MinX: p.X, MaxX: p.X, MinY: p.Y, MaxY: p.Y}
}

// Center implements Shape.
func (p Point) Center() Point {
	return p
}

// HasArea implements Shape.
func (p Point) HasArea() bool {
	return false
}

func (p Point) String() string {
	return fmt.Sprintf("Pt(x=%g,y=%g)", p.X, p.Y)
}
