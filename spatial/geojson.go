package spatial

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/cobrun/geoprefix/errors"
)

// ParseGeoJSON decodes a GeoJSON geometry object into a Shape. Axis aligned
// rectangular polygons come back as Rectangle.
func ParseGeoJSON(data []byte) (Shape, error) {
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidShape, "invalid GeoJSON geometry")
	}
	return FromOrb(g.Geometry())
}

// FromOrb converts an orb geometry into a Shape.
func FromOrb(g orb.Geometry) (Shape, error) {
	switch v := g.(type) {
	case orb.Point:
		return Point{X: v[0], Y: v[1]}, nil
	case orb.Bound:
		r := RectangleFromOrb(v)
		return r, r.Validate()
	case orb.Ring:
		return FromOrb(orb.Polygon{v})
	case orb.Polygon:
		if r, ok := asRectangle(v); ok {
			return r, nil
		}
		return PolygonFromOrb(v)
	case nil:
		return nil, errors.InvalidShape("geometry is empty")
	default:
		return nil, errors.InvalidShape("unsupported geometry type %s", g.GeoJSONType())
	}
}

// ToGeoJSON encodes a Shape as a GeoJSON geometry.
func ToGeoJSON(s Shape) ([]byte, error) {
	var g orb.Geometry
	switch v := s.(type) {
	case Point:
		g = orb.Point{v.X, v.Y}
	case Rectangle:
		g = v.Orb().ToPolygon()
	case *Polygon:
		g = v.Orb()
	default:
		return nil, errors.InvalidShape("cannot encode %T as GeoJSON", s)
	}
	return geojson.NewGeometry(g).MarshalJSON()
}

func asRectangle(p orb.Polygon) (Rectangle, bool) {
	if len(p) != 1 {
		return Rectangle{}, false
	}
	ring := closeRing(p[0])
	if len(ring) != 5 {
		return Rectangle{}, false
	}
	b := ring.Bound()
	for _, pt := range ring {
		onX := pt[0] == b.Min[0] || pt[0] == b.Max[0]
		onY := pt[1] == b.Min[1] || pt[1] == b.Max[1]
		if !onX || !onY {
			return Rectangle{}, false
		}
	}
	// consecutive vertices must differ in exactly one coordinate
	for i := 0; i < 4; i++ {
		a, c := ring[i], ring[i+1]
		if (a[0] == c[0]) == (a[1] == c[1]) {
			return Rectangle{}, false
		}
	}
	return RectangleFromOrb(b), true
}
