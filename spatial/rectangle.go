package spatial

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/cobrun/geoprefix/errors"
)

// Rectangle is an axis aligned box. Bounds are inclusive.
type Rectangle struct {
	MinX float64 `json:"min_x"`
	MaxX float64 `json:"max_x"`
	MinY float64 `json:"min_y"`
	MaxY float64 `json:"max_y"`
}

// NewRectangle creates a rectangle and checks that min <= max on both axes.
func NewRectangle(minX, maxX, minY, maxY float64) (Rectangle, error) {
	r := Rectangle{MinX: minX, MaxX: maxX, MinY: minY, MaxY: maxY}
	if err := r.Validate(); err != nil {
		return Rectangle{}, err
	}
	return r, nil
}

// Validate checks the rectangle is well formed.
func (r Rectangle) Validate() error {
	for _, v := range [...]float64{r.MinX, r.MaxX, r.MinY, r.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.InvalidShape("rectangle has a non-finite coordinate: %v", r)
		}
	}
	if r.MinX > r.MaxX || r.MinY > r.MaxY {
		return errors.InvalidShape("rectangle min exceeds max: %v", r)
	}
	return nil
}

// Width returns the extent along X.
func (r Rectangle) Width() float64 {
	return r.MaxX - r.MinX
}

// Height returns the extent along Y.
func (r Rectangle) Height() float64 {
	return r.MaxY - r.MinY
}

// Bounds implements Shape.
func (r Rectangle) Bounds() Rectangle {
	return r
}

// Center implements Shape.
func (r Rectangle) Center() Point {
	return Point{X: (r.MinX + r.MaxX) / 2, Y: (r.MinY + r.MaxY) / 2}
}

// HasArea implements Shape.
func (r Rectangle) HasArea() bool {
	return r.Width() > 0 && r.Height() > 0
}

// ContainsPoint reports whether p lies inside or on the boundary.
func (r Rectangle) ContainsPoint(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// covers reports whether o lies entirely inside r.
func (r Rectangle) covers(o Rectangle) bool {
	return r.MinX <= o.MinX && o.MaxX <= r.MaxX && r.MinY <= o.MinY && o.MaxY <= r.MaxY
}

// Relate implements Shape.
func (r Rectangle) Relate(other Shape) Relation {
	switch o := other.(type) {
	case Point:
		if r.ContainsPoint(o) {
			return Contains
		}
		return Disjoint
	case Rectangle:
		return r.relateRectangle(o)
	default:
		return other.Relate(r).Transpose()
	}
}

// relateRectangle treats two areal rectangles that only share an edge or a
// corner as disjoint, so adjacent grid cells never overlap.
func (r Rectangle) relateRectangle(o Rectangle) Relation {
	overlapX := math.Min(r.MaxX, o.MaxX) - math.Max(r.MinX, o.MinX)
	overlapY := math.Min(r.MaxY, o.MaxY) - math.Max(r.MinY, o.MinY)
	if overlapX < 0 || overlapY < 0 {
		return Disjoint
	}
	if r.HasArea() && o.HasArea() && (overlapX == 0 || overlapY == 0) {
		return Disjoint
	}
	if r.covers(o) {
		return Contains
	}
	if o.covers(r) {
		return Within
	}
	return Intersects
}

// Orb returns the rectangle as an orb bound.
func (r Rectangle) Orb() orb.Bound {
	return orb.Bound{Min: orb.Point{r.MinX, r.MinY}, Max: orb.Point{r.MaxX, r.MaxY}}
}

// RectangleFromOrb converts an orb bound.
func RectangleFromOrb(b orb.Bound) Rectangle {
	return Rectangle{MinX: b.Min[0], MaxX: b.Max[0], MinY: b.Min[1], MaxY: b.Max[1]}
}

func (r Rectangle) String() string {
	return fmt.Sprintf("Rect(minX=%g,maxX=%g,minY=%g,maxY=%g)", r.MinX, r.MaxX, r.MinY, r.MaxY)
}
