package strategy

import (
	"sort"

	"github.com/cobrun/geoprefix/prefixtree"
)

// Field is one indexable field produced for a shape.
type Field struct {
	Name   string
	Tokens *TokenStream
}

// TokenStream yields the index terms of a decomposition: each cell's bare
// token, directly followed by its leaf-marked token when the cell is a leaf.
//
//	for ts.Next() {
//		term := ts.Token()
//	}
type TokenStream struct {
	cells []*prefixtree.Cell
	pos   int
	leaf  bool
	cur   []byte
}

// NewTokenStream creates a stream over cells, which must be in token order.
func NewTokenStream(cells []*prefixtree.Cell) *TokenStream {
	return &TokenStream{cells: cells}
}

// Next advances to the next token.
func (ts *TokenStream) Next() bool {
	if ts.leaf {
		ts.leaf = false
		ts.cur = append(ts.cur, prefixtree.LeafMarker)
		return true
	}
	if ts.pos >= len(ts.cells) {
		ts.cur = nil
		return false
	}
	c := ts.cells[ts.pos]
	ts.pos++
	ts.cur = c.TokenBytes()
	ts.leaf = c.IsLeaf()
	return true
}

// Token returns the current token. It is valid until the next call to Next.
func (ts *TokenStream) Token() []byte {
	return ts.cur
}

// Reset rewinds the stream.
func (ts *TokenStream) Reset() {
	ts.pos = 0
	ts.leaf = false
	ts.cur = nil
}

// Cells returns the underlying cells.
func (ts *TokenStream) Cells() []*prefixtree.Cell {
	return ts.cells
}

// Len returns the number of tokens the stream yields.
func (ts *TokenStream) Len() int {
	n := len(ts.cells)
	for _, c := range ts.cells {
		if c.IsLeaf() {
			n++
		}
	}
	return n
}

// Terms returns every token as a string without moving the stream.
func (ts *TokenStream) Terms() []string {
	out := make([]string, 0, ts.Len())
	for _, c := range ts.cells {
		out = append(out, c.Token())
		if c.IsLeaf() {
			out = append(out, c.Token()+string(prefixtree.LeafMarker))
		}
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
