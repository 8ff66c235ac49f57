package prefixtree

import (
	"bytes"
	"fmt"

	"github.com/cobrun/geoprefix/spatial"
)

// Cell is one node of a grid. Its identity is its token; the leaf flag and
// relation are annotations set during decomposition.
//
// A Cell is not safe for concurrent use. Reset rebinds it to another token so
// one instance can serve as a cursor over many decoded terms.
type Cell struct {
	tree   *tree
	token  []byte
	leaf   bool
	rel    spatial.Relation
	hasRel bool
	shape  *spatial.Rectangle
}

func (c *Cell) child(sym byte) *Cell {
	token := make([]byte, len(c.token)+1)
	copy(token, c.token)
	token[len(c.token)] = sym
	return &Cell{tree: c.tree, token: token}
}

// Level is the token length; the world cell is level 0.
func (c *Cell) Level() int {
	return len(c.token)
}

// IsLeaf reports whether the cell is marked as a leaf or is at the finest level.
func (c *Cell) IsLeaf() bool {
	return c.leaf || len(c.token) == c.tree.maxLevels
}

// SetLeaf marks the cell as a leaf.
func (c *Cell) SetLeaf() {
	c.leaf = true
}

// Token returns the bare token.
func (c *Cell) Token() string {
	return string(c.token)
}

// TokenBytes returns a copy of the bare token.
func (c *Cell) TokenBytes() []byte {
	return append([]byte(nil), c.token...)
}

// Bytes returns the serialized form: the token followed by LeafMarker when the
// cell is a leaf.
func (c *Cell) Bytes() []byte {
	b := make([]byte, len(c.token), len(c.token)+1)
	copy(b, c.token)
	if c.IsLeaf() && len(c.token) > 0 {
		b = append(b, LeafMarker)
	}
	return b
}

// String returns the serialized form as a string.
func (c *Cell) String() string {
	return string(c.Bytes())
}

// Shape returns the cell rectangle. It is computed once.
func (c *Cell) Shape() spatial.Rectangle {
	if c.shape == nil {
		var r spatial.Rectangle
		if len(c.token) == 0 {
			r = c.tree.bounds
		} else {
			r = c.tree.geom.shape(c.token)
		}
		c.shape = &r
	}
	return *c.shape
}

// Center returns the center of the cell.
func (c *Cell) Center() spatial.Point {
	if len(c.token) == 0 {
		return c.tree.bounds.Center()
	}
	return c.tree.geom.center(c.token)
}

// Relation returns the relation of this cell to the shape that produced it, if
// any.
func (c *Cell) Relation() (spatial.Relation, bool) {
	return c.rel, c.hasRel
}

func (c *Cell) setRelation(r spatial.Relation) {
	c.rel = r
	c.hasRel = true
}

// SubCellsSize is the number of children of every non-leaf cell.
func (c *Cell) SubCellsSize() int {
	return len(c.tree.symbols)
}

// SubCells returns every child cell in token order. It panics at the finest
// level.
func (c *Cell) SubCells() []*Cell {
	c.mustHaveChildren()
	cells := make([]*Cell, len(c.tree.symbols))
	for i := 0; i < len(c.tree.symbols); i++ {
		cells[i] = c.child(c.tree.symbols[i])
	}
	return cells
}

// SubCell returns the child containing p. It panics at the finest level.
func (c *Cell) SubCell(p spatial.Point) *Cell {
	c.mustHaveChildren()
	return c.child(c.tree.geom.childSymbol(c, p))
}

// FilterSubCells returns the children that intersect filter, in token order,
// with their relation to filter recorded from the child's side. Children
// within filter are marked as leaves. A point filter yields only the child
// containing it, or nothing when the point lies outside c.
func (c *Cell) FilterSubCells(filter spatial.Shape) []*Cell {
	if p, ok := filter.(spatial.Point); ok {
		if !c.Shape().ContainsPoint(p) {
			return nil
		}
		sub := c.SubCell(p)
		sub.setRelation(spatial.Contains)
		return []*Cell{sub}
	}
	all := c.SubCells()
	kept := all[:0]
	for _, sub := range all {
		rel := filter.Relate(sub.Shape()).Transpose()
		switch rel {
		case spatial.Disjoint:
			continue
		case spatial.Within:
			sub.SetLeaf()
		}
		sub.setRelation(rel)
		kept = append(kept, sub)
	}
	return kept
}

func (c *Cell) mustHaveChildren() {
	if len(c.token) >= c.tree.maxLevels {
		panic(fmt.Sprintf("prefixtree: cell %q at max level %d has no children", c.token, c.tree.maxLevels))
	}
}

// Compare orders cells by token bytes.
func (c *Cell) Compare(other *Cell) int {
	return bytes.Compare(c.token, other.token)
}

// Equal reports whether both cells have the same token.
func (c *Cell) Equal(other *Cell) bool {
	return bytes.Equal(c.token, other.token)
}

// IsAncestorOf reports whether other lies strictly below c.
func (c *Cell) IsAncestorOf(other *Cell) bool {
	return len(c.token) < len(other.token) && bytes.HasPrefix(other.token, c.token)
}

// Reset rebinds the cell to serialized bytes, clearing the relation and
// cached shape. b is copied.
func (c *Cell) Reset(b []byte) error {
	token, leaf, err := c.tree.decode(b)
	if err != nil {
		return err
	}
	c.token = append(c.token[:0], token...)
	c.leaf = leaf
	c.rel, c.hasRel = 0, false
	c.shape = nil
	return nil
}
