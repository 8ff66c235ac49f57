package prefixtree

import (
	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/spatial"
)

const (
	// QuadMaxLevelsPossible is the deepest quad tree supported.
	QuadMaxLevelsPossible = 50
	// QuadDefaultMaxLevels is used when no precision is configured.
	QuadDefaultMaxLevels = 12

	quadSymbols = "ABCD"
)

// QuadPrefixTree splits every cell into four quadrants labeled in Z order:
// A (north west), B (north east), C (south west), D (south east).
//
// A point on a quadrant midline belongs to the west and north side.
type QuadPrefixTree struct {
	tree
	// levelW[i] and levelH[i] are the width and height of a level i+1 cell.
	levelW []float64
	levelH []float64
}

var _ Grid = (*QuadPrefixTree)(nil)

// NewQuadPrefixTree creates a quad tree over bounds with maxLevels levels.
func NewQuadPrefixTree(bounds spatial.Rectangle, maxLevels int) (*QuadPrefixTree, error) {
	if maxLevels < 1 || maxLevels > QuadMaxLevelsPossible {
		return nil, errors.InvalidConfig("quad max levels %d outside [1, %d]", maxLevels, QuadMaxLevelsPossible)
	}
	if err := bounds.Validate(); err != nil {
		return nil, errors.InvalidConfig("quad world bounds: %v", err)
	}
	if !bounds.HasArea() {
		return nil, errors.InvalidConfig("quad world bounds %v have no area", bounds)
	}

	q := &QuadPrefixTree{
		levelW: make([]float64, maxLevels),
		levelH: make([]float64, maxLevels),
	}
	w, h := bounds.Width()/2, bounds.Height()/2
	for i := 0; i < maxLevels; i++ {
		q.levelW[i] = w
		q.levelH[i] = h
		w /= 2
		h /= 2
	}
	q.tree = newTree("quad", maxLevels, bounds, quadSymbols, q)
	return q, nil
}

// LevelForDistance returns the first level whose cells are smaller than dist
// in both dimensions.
func (q *QuadPrefixTree) LevelForDistance(dist float64) int {
	if dist == 0 {
		return q.maxLevels
	}
	for i := 0; i < q.maxLevels-1; i++ {
		if dist > q.levelW[i] && dist > q.levelH[i] {
			return i + 1
		}
	}
	return q.maxLevels
}

func (q *QuadPrefixTree) shape(token []byte) spatial.Rectangle {
	xmin, ymin := q.bounds.MinX, q.bounds.MinY
	for i, sym := range token {
		switch sym {
		case 'A':
			ymin += q.levelH[i]
		case 'B':
			xmin += q.levelW[i]
			ymin += q.levelH[i]
		case 'D':
			xmin += q.levelW[i]
		}
	}
	n := len(token) - 1
	return spatial.Rectangle{
		MinX: xmin,
		MaxX: xmin + q.levelW[n],
		MinY: ymin,
		MaxY: ymin + q.levelH[n],
	}
}

func (q *QuadPrefixTree) center(token []byte) spatial.Point {
	return q.shape(token).Center()
}

func (q *QuadPrefixTree) pointToken(p spatial.Point, level int) []byte {
	token := make([]byte, level)
	cx := q.bounds.MinX + q.levelW[0]
	cy := q.bounds.MinY + q.levelH[0]
	for i := 0; i < level; i++ {
		west, north := p.X <= cx, p.Y >= cy
		token[i] = quadrant(west, north)
		dx, dy := q.levelW[i]/2, q.levelH[i]/2
		if west {
			cx -= dx
		} else {
			cx += dx
		}
		if north {
			cy += dy
		} else {
			cy -= dy
		}
	}
	return token
}

func (q *QuadPrefixTree) childSymbol(c *Cell, p spatial.Point) byte {
	ctr := c.Shape().Center()
	return quadrant(p.X <= ctr.X, p.Y >= ctr.Y)
}

func quadrant(west, north bool) byte {
	switch {
	case west && north:
		return 'A'
	case north:
		return 'B'
	case west:
		return 'C'
	default:
		return 'D'
	}
}
