// Package prefixtree implements hierarchical spatial grids whose cells are
// addressed by string tokens. A child cell's token extends its parent's token
// by one symbol, so every cell token is a prefix of its descendants' tokens
// and the tokens can be stored as ordinary terms in an inverted index.
//
// Two grid families are provided: QuadPrefixTree (4-ary, symbols A-D) and
// GeohashPrefixTree (32-ary, geohash base32). Grids are immutable and safe for
// concurrent use. Cells are not.
package prefixtree

import (
	"math"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/spatial"
)

// LeafMarker terminates the serialized form of a leaf cell. It sorts before
// every grid symbol.
const LeafMarker byte = '+'

// Grid is a spatial prefix tree.
type Grid interface {
	// Name identifies the grid family ("quad" or "geohash").
	Name() string
	// MaxLevels is the depth of the finest cells.
	MaxLevels() int
	// WorldBounds is the area covered by the level 0 cell.
	WorldBounds() spatial.Rectangle
	// WorldCell returns the level 0 cell with the empty token.
	WorldCell() *Cell
	// LevelForDistance returns the coarsest level whose cells are no larger
	// than dist. Zero maps to MaxLevels.
	LevelForDistance(dist float64) int
	// DistanceForLevel returns the diagonal of a cell at level.
	DistanceForLevel(level int) (float64, error)
	// CellForPoint returns the cell at level containing p. A point outside
	// the world is an INVALID_SHAPE error.
	CellForPoint(p spatial.Point, level int) (*Cell, error)
	// ParseCell decodes a token, with or without the leaf marker.
	ParseCell(token string) (*Cell, error)
	// DecodeCell decodes serialized cell bytes.
	DecodeCell(b []byte) (*Cell, error)
	// DecodeCellAt decodes n bytes of b starting at off.
	DecodeCellAt(b []byte, off, n int) (*Cell, error)
	// Cells decomposes shape into a sorted covering of non-overlapping cells
	// no deeper than detailLevel.
	Cells(shape spatial.Shape, detailLevel int, includeIntermediate, simplify bool) ([]*Cell, error)
}

// cellGeometry is what a grid family supplies to the shared tree logic.
type cellGeometry interface {
	// shape returns the rectangle of a non-root token.
	shape(token []byte) spatial.Rectangle
	// center returns the center of a non-root token.
	center(token []byte) spatial.Point
	// pointToken returns the level long token of the cell containing p.
	pointToken(p spatial.Point, level int) []byte
	// childSymbol returns the symbol of the child of c that contains p.
	childSymbol(c *Cell, p spatial.Point) byte
}

// tree holds the configuration shared by both grid families. Cells keep a
// pointer to it; it is never mutated after construction.
type tree struct {
	name      string
	maxLevels int
	bounds    spatial.Rectangle
	symbols   string
	valid     [256]bool
	geom      cellGeometry
}

func newTree(name string, maxLevels int, bounds spatial.Rectangle, symbols string, geom cellGeometry) tree {
	t := tree{
		name:      name,
		maxLevels: maxLevels,
		bounds:    bounds,
		symbols:   symbols,
		geom:      geom,
	}
	for i := 0; i < len(symbols); i++ {
		t.valid[symbols[i]] = true
	}
	return t
}

func (t *tree) Name() string {
	return t.name
}

func (t *tree) MaxLevels() int {
	return t.maxLevels
}

func (t *tree) WorldBounds() spatial.Rectangle {
	return t.bounds
}

func (t *tree) WorldCell() *Cell {
	return &Cell{tree: t}
}

func (t *tree) DistanceForLevel(level int) (float64, error) {
	if level < 1 || level > t.maxLevels {
		return 0, errors.InvalidArgument("level %d outside [1, %d]", level, t.maxLevels)
	}
	cell := &Cell{tree: t, token: t.geom.pointToken(t.bounds.Center(), level)}
	bbox := cell.Shape()
	return math.Hypot(bbox.Width(), bbox.Height()), nil
}

func (t *tree) CellForPoint(p spatial.Point, level int) (*Cell, error) {
	if level < 0 || level > t.maxLevels {
		return nil, errors.InvalidArgument("level %d outside [0, %d]", level, t.maxLevels)
	}
	if !t.bounds.ContainsPoint(p) {
		return nil, errors.InvalidShape("point %v outside world bounds %v", p, t.bounds)
	}
	if level == 0 {
		return t.WorldCell(), nil
	}
	return &Cell{tree: t, token: t.geom.pointToken(p, level)}, nil
}

func (t *tree) ParseCell(token string) (*Cell, error) {
	return t.DecodeCell([]byte(token))
}

func (t *tree) DecodeCell(b []byte) (*Cell, error) {
	c := &Cell{tree: t}
	if err := c.Reset(b); err != nil {
		return nil, err
	}
	return c, nil
}

func (t *tree) DecodeCellAt(b []byte, off, n int) (*Cell, error) {
	if off < 0 || n < 0 || off+n > len(b) {
		return nil, errors.Decode("range [%d:%d] outside %d bytes", off, off+n, len(b))
	}
	return t.DecodeCell(b[off : off+n])
}

// decode splits serialized bytes into a validated bare token and leaf flag.
func (t *tree) decode(b []byte) ([]byte, bool, error) {
	leaf := false
	if n := len(b); n > 0 && b[n-1] == LeafMarker {
		if n == 1 {
			return nil, false, errors.Decode("leaf marker without a token")
		}
		b = b[:n-1]
		leaf = true
	}
	if len(b) > t.maxLevels {
		return nil, false, errors.Decode("token %q deeper than %d levels", b, t.maxLevels)
	}
	for i := 0; i < len(b); i++ {
		if !t.valid[b[i]] {
			return nil, false, errors.Decode("token %q has invalid symbol %q at %d", b, b[i], i)
		}
	}
	return b, leaf, nil
}
