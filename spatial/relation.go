// Package spatial provides the planar geometry the prefix trees decompose:
// points, rectangles and polygons, and the qualitative relation between two
// shapes.
package spatial

// Relation is the qualitative relationship between two shapes. For
// a.Relate(b), Contains means a contains b and Within means a is within b.
type Relation int

const (
	Disjoint Relation = iota
	Intersects
	Within
	Contains
)

// Transpose returns the relation seen from the other shape.
func (r Relation) Transpose() Relation {
	switch r {
	case Contains:
		return Within
	case Within:
		return Contains
	default:
		return r
	}
}

// Intersects reports whether the shapes share any area or point.
func (r Relation) Intersects() bool {
	return r != Disjoint
}

// String returns the relation name.
func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "DISJOINT"
	case Intersects:
		return "INTERSECTS"
	case Within:
		return "WITHIN"
	case Contains:
		return "CONTAINS"
	default:
		return "UNKNOWN"
	}
}

// Shape is a planar geometry that can relate itself to other shapes.
type Shape interface {
	Relate(other Shape) Relation
	Bounds() Rectangle
	Center() Point
	HasArea() bool
}
