package prefixtree

import (
	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/spatial"
)

// Cells decomposes shape depth first from the world cell. Cells within the
// shape stop refinement and become leaves; cells that reach detailLevel
// become leaves. With includeIntermediate the non-leaf cells visited on the
// way are returned as well. With simplify, a cell one level above
// detailLevel whose children all intersect the shape is returned as a single
// leaf in place of its children. The world cell is never returned.
//
// The result is in token order without duplicates.
func (t *tree) Cells(shape spatial.Shape, detailLevel int, includeIntermediate, simplify bool) ([]*Cell, error) {
	if shape == nil {
		return nil, errors.InvalidShape("shape is nil")
	}
	if detailLevel < 1 || detailLevel > t.maxLevels {
		return nil, errors.InvalidArgument("detail level %d outside [1, %d]", detailLevel, t.maxLevels)
	}
	if p, ok := shape.(spatial.Point); ok {
		return t.pointCells(p, detailLevel, includeIntermediate)
	}
	var out []*Cell
	t.decompose(t.WorldCell(), shape, detailLevel, includeIntermediate, simplify, &out)
	return out, nil
}

func (t *tree) decompose(cell *Cell, shape spatial.Shape, detailLevel int, includeIntermediate, simplify bool, out *[]*Cell) {
	if cell.IsLeaf() {
		*out = append(*out, cell)
		return
	}
	subs := cell.FilterSubCells(shape)
	if cell.Level() == detailLevel-1 {
		if simplify && cell.Level() > 0 && len(subs) == cell.SubCellsSize() {
			cell.SetLeaf()
			*out = append(*out, cell)
			return
		}
		if includeIntermediate && cell.Level() > 0 {
			*out = append(*out, cell)
		}
		for _, sub := range subs {
			sub.SetLeaf()
		}
		*out = append(*out, subs...)
		return
	}
	if includeIntermediate && cell.Level() > 0 {
		*out = append(*out, cell)
	}
	for _, sub := range subs {
		t.decompose(sub, shape, detailLevel, includeIntermediate, simplify, out)
	}
}

// pointCells follows the single branch containing p.
func (t *tree) pointCells(p spatial.Point, detailLevel int, includeIntermediate bool) ([]*Cell, error) {
	if !t.bounds.ContainsPoint(p) {
		return nil, nil
	}
	leaf := &Cell{tree: t, token: t.geom.pointToken(p, detailLevel)}
	leaf.SetLeaf()
	leaf.setRelation(spatial.Contains)
	if !includeIntermediate {
		return []*Cell{leaf}, nil
	}
	out := make([]*Cell, 0, detailLevel)
	for level := 1; level < detailLevel; level++ {
		parent := &Cell{tree: t, token: append([]byte(nil), leaf.token[:level]...)}
		parent.setRelation(spatial.Contains)
		out = append(out, parent)
	}
	return append(out, leaf), nil
}
