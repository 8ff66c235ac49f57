package spatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/cobrun/geoprefix/errors"
)

// Polygon is a simple polygon with optional holes. The first ring is the
// outer boundary.
type Polygon struct {
	poly   orb.Polygon
	bounds Rectangle
}

// NewPolygon creates a polygon from an outer ring and optional holes. Rings
// are closed automatically.
func NewPolygon(outer []Point, holes ...[]Point) (*Polygon, error) {
	poly := make(orb.Polygon, 0, 1+len(holes))
	poly = append(poly, toRing(outer))
	for _, h := range holes {
		poly = append(poly, toRing(h))
	}
	return PolygonFromOrb(poly)
}

// PolygonFromOrb wraps an orb polygon after validating its rings.
func PolygonFromOrb(p orb.Polygon) (*Polygon, error) {
	if len(p) == 0 {
		return nil, errors.InvalidShape("polygon has no rings")
	}
	rings := make(orb.Polygon, len(p))
	for i, ring := range p {
		ring = closeRing(ring)
		// a closed ring repeats its first vertex
		if len(ring) < 4 {
			return nil, errors.InvalidShape("polygon ring %d has %d vertices, need at least 3", i, len(ring)-1)
		}
		rings[i] = ring
	}
	bounds := RectangleFromOrb(rings[0].Bound())
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	return &Polygon{poly: rings, bounds: bounds}, nil
}

func toRing(points []Point) orb.Ring {
	ring := make(orb.Ring, len(points))
	for i, p := range points {
		ring[i] = orb.Point{p.X, p.Y}
	}
	return ring
}

func closeRing(r orb.Ring) orb.Ring {
	if len(r) > 0 && !r.Closed() {
		closed := make(orb.Ring, len(r), len(r)+1)
		copy(closed, r)
		return append(closed, r[0])
	}
	return r
}

// Orb returns the underlying orb polygon.
func (p *Polygon) Orb() orb.Polygon {
	return p.poly
}

// Bounds implements Shape.
func (p *Polygon) Bounds() Rectangle {
	return p.bounds
}

// Center implements Shape. It is the area centroid.
func (p *Polygon) Center() Point {
	c, area := planar.CentroidArea(p.poly)
	if area == 0 {
		return p.bounds.Center()
	}
	return Point{X: c[0], Y: c[1]}
}

// HasArea implements Shape.
func (p *Polygon) HasArea() bool {
	return planar.Area(p.poly) > 0
}

// ContainsPoint reports whether pt is inside the polygon and outside its holes.
func (p *Polygon) ContainsPoint(pt Point) bool {
	return planar.PolygonContains(p.poly, orb.Point{pt.X, pt.Y})
}

// Relate implements Shape. Polygon to polygon relations are approximated by
// their bounds.
func (p *Polygon) Relate(other Shape) Relation {
	switch o := other.(type) {
	case Point:
		if p.ContainsPoint(o) {
			return Contains
		}
		return Disjoint
	case Rectangle:
		return p.relateRectangle(o)
	case *Polygon:
		if p.bounds.Relate(o.bounds) == Disjoint {
			return Disjoint
		}
		return Intersects
	default:
		return other.Relate(p).Transpose()
	}
}

func (p *Polygon) relateRectangle(r Rectangle) Relation {
	if p.bounds.Relate(r) == Disjoint {
		return Disjoint
	}
	if p.crosses(r) {
		return Intersects
	}

	// No boundary of the polygon touches the rectangle, so every ring is
	// either wholly inside or wholly outside it.
	outer := p.poly[0]
	if r.ContainsPoint(Point{X: outer[0][0], Y: outer[0][1]}) {
		return Within
	}
	for _, hole := range p.poly[1:] {
		if r.ContainsPoint(Point{X: hole[0][0], Y: hole[0][1]}) {
			return Intersects
		}
	}
	if p.ContainsPoint(r.Center()) {
		return Contains
	}
	return Disjoint
}

// crosses reports whether any polygon edge touches any rectangle edge.
func (p *Polygon) crosses(r Rectangle) bool {
	corners := [4]orb.Point{
		{r.MinX, r.MinY},
		{r.MaxX, r.MinY},
		{r.MaxX, r.MaxY},
		{r.MinX, r.MaxY},
	}
	for _, ring := range p.poly {
		for i := 0; i+1 < len(ring); i++ {
			a, b := ring[i], ring[i+1]
			if max(a[0], b[0]) < r.MinX || min(a[0], b[0]) > r.MaxX ||
				max(a[1], b[1]) < r.MinY || min(a[1], b[1]) > r.MaxY {
				continue
			}
			for j := 0; j < 4; j++ {
				if segmentsIntersect(a, b, corners[j], corners[(j+1)%4]) {
					return true
				}
			}
		}
	}
	return false
}

func segmentsIntersect(a, b, c, d orb.Point) bool {
	d1 := orientation(c, d, a)
	d2 := orientation(c, d, b)
	d3 := orientation(a, b, c)
	d4 := orientation(a, b, d)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return (d1 == 0 && onSegment(c, d, a)) ||
		(d2 == 0 && onSegment(c, d, b)) ||
		(d3 == 0 && onSegment(a, b, c)) ||
		(d4 == 0 && onSegment(a, b, d))
}

func orientation(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// onSegment reports whether q, known to be collinear with a-b, lies on it.
func onSegment(a, b, q orb.Point) bool {
	return q[0] >= min(a[0], b[0]) && q[0] <= max(a[0], b[0]) &&
		q[1] >= min(a[1], b[1]) && q[1] <= max(a[1], b[1])
}
