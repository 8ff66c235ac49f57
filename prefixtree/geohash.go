package prefixtree

import (
	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/geo"
	"github.com/cobrun/geoprefix/spatial"
)

// GeohashMaxLevelsPossible is the longest geohash token supported.
const GeohashMaxLevelsPossible = geo.MaxPrecision

// GeoWorldBounds is the longitude/latitude world; X is longitude.
var GeoWorldBounds = spatial.Rectangle{MinX: -180, MaxX: 180, MinY: -90, MaxY: 90}

// GeohashPrefixTree uses geohash strings as cell tokens, giving 32 children
// per cell.
type GeohashPrefixTree struct {
	tree
}

var _ Grid = (*GeohashPrefixTree)(nil)

// NewGeohashPrefixTree creates a geohash grid. bounds must be GeoWorldBounds.
func NewGeohashPrefixTree(bounds spatial.Rectangle, maxLevels int) (*GeohashPrefixTree, error) {
	if bounds != GeoWorldBounds {
		return nil, errors.InvalidConfig("geohash grid requires world bounds %v, got %v", GeoWorldBounds, bounds)
	}
	if maxLevels < 1 || maxLevels > GeohashMaxLevelsPossible {
		return nil, errors.InvalidConfig("geohash max levels %d outside [1, %d]", maxLevels, GeohashMaxLevelsPossible)
	}
	g := &GeohashPrefixTree{}
	g.tree = newTree("geohash", maxLevels, bounds, geo.Base32, g)
	return g, nil
}

// LevelForDistance returns the shortest hash length whose cells are smaller
// than dist degrees, clamped to [1, MaxLevels].
func (g *GeohashPrefixTree) LevelForDistance(dist float64) int {
	if dist == 0 {
		return g.maxLevels
	}
	level := geo.HashLenForWidthHeight(dist, dist)
	return max(min(level, g.maxLevels), 1)
}

func (g *GeohashPrefixTree) shape(token []byte) spatial.Rectangle {
	bb := geo.DecodeBounds(string(token))
	return spatial.Rectangle{MinX: bb.MinLng, MaxX: bb.MaxLng, MinY: bb.MinLat, MaxY: bb.MaxLat}
}

func (g *GeohashPrefixTree) center(token []byte) spatial.Point {
	return spatial.PointFromGeo(geo.Decode(string(token)))
}

func (g *GeohashPrefixTree) pointToken(p spatial.Point, level int) []byte {
	return []byte(geo.Encode(p.Geo(), level))
}

func (g *GeohashPrefixTree) childSymbol(c *Cell, p spatial.Point) byte {
	return geo.Encode(p.Geo(), c.Level()+1)[c.Level()]
}
