package prefixtree

import (
	"testing"

	"github.com/cobrun/geoprefix/errors"
	"github.com/cobrun/geoprefix/spatial"
)

func testGrids(t *testing.T) []Grid {
	t.Helper()
	q, err := NewQuadPrefixTree(GeoWorldBounds, 10)
	if err != nil {
		t.Fatalf("NewQuadPrefixTree() error = %v", err)
	}
	g, err := NewGeohashPrefixTree(GeoWorldBounds, 6)
	if err != nil {
		t.Fatalf("NewGeohashPrefixTree() error = %v", err)
	}
	return []Grid{q, g}
}

func testShapes(t *testing.T) []spatial.Shape {
	t.Helper()
	poly, err := spatial.NewPolygon([]spatial.Point{
		{X: -5, Y: -3}, {X: 12, Y: -1}, {X: 6, Y: 14}, {X: -8, Y: 9},
	})
	if err != nil {
		t.Fatalf("NewPolygon() error = %v", err)
	}
	return []spatial.Shape{
		spatial.Point{X: 2.35, Y: 48.85},
		spatial.Rectangle{MinX: -3, MaxX: 7, MinY: 40, MaxY: 44},
		spatial.Rectangle{MinX: -30, MaxX: 30, MinY: -20, MaxY: 20},
		poly,
	}
}

func TestCells_Properties(t *testing.T) {
	for _, grid := range testGrids(t) {
		for _, shape := range testShapes(t) {
			for _, incl := range []bool{false, true} {
				for _, simplify := range []bool{false, true} {
					detail := min(4, grid.MaxLevels())
					cells, err := grid.Cells(shape, detail, incl, simplify)
					if err != nil {
						t.Fatalf("%s Cells(%v) error = %v", grid.Name(), shape, err)
					}
					if len(cells) == 0 {
						t.Fatalf("%s Cells(%v) returned no cells", grid.Name(), shape)
					}
					checkCells(t, grid, shape, cells, detail, incl)
				}
			}
		}
	}
}

func checkCells(t *testing.T, grid Grid, shape spatial.Shape, cells []*Cell, detail int, incl bool) {
	t.Helper()
	for i, c := range cells {
		if c.Level() < 1 || c.Level() > detail {
			t.Errorf("%s: cell %s level %d outside [1, %d]", grid.Name(), c, c.Level(), detail)
		}
		if i > 0 && cells[i-1].Compare(c) >= 0 {
			t.Errorf("%s: cells not strictly increasing at %d: %s then %s", grid.Name(), i, cells[i-1], c)
		}
		if rel, ok := c.Relation(); ok {
			if rel == spatial.Disjoint {
				t.Errorf("%s: disjoint cell %s in result", grid.Name(), c)
			}
			if rel == spatial.Within && !c.IsLeaf() {
				t.Errorf("%s: cell %s within the shape is not a leaf", grid.Name(), c)
			}
		}
		if !incl && !c.IsLeaf() {
			t.Errorf("%s: non-leaf %s returned without intermediates", grid.Name(), c)
		}

		back, err := grid.DecodeCell(c.Bytes())
		if err != nil {
			t.Fatalf("%s: DecodeCell(%q) error = %v", grid.Name(), c.Bytes(), err)
		}
		if back.Token() != c.Token() || back.Level() != c.Level() || back.IsLeaf() != c.IsLeaf() {
			t.Errorf("%s: round trip %s -> %s (leaf %v -> %v)", grid.Name(), c, back, c.IsLeaf(), back.IsLeaf())
		}
	}

	// in token order a descendant would directly follow its ancestor
	for i := 1; i < len(cells); i++ {
		if cells[i-1].IsLeaf() && cells[i-1].IsAncestorOf(cells[i]) {
			t.Errorf("%s: leaf %s has descendant %s", grid.Name(), cells[i-1], cells[i])
		}
	}

	ctr := shape.Center()
	covered := false
	for _, c := range cells {
		if c.IsLeaf() && c.Shape().ContainsPoint(ctr) {
			covered = true
			break
		}
	}
	if !covered {
		t.Errorf("%s: center %v of %v not covered", grid.Name(), ctr, shape)
	}
}

func TestCells_RefinementMonotonicity(t *testing.T) {
	for _, grid := range testGrids(t) {
		for _, shape := range testShapes(t) {
			coarse, err := grid.Cells(shape, 2, false, false)
			if err != nil {
				t.Fatalf("Cells() error = %v", err)
			}
			fine, err := grid.Cells(shape, 4, false, false)
			if err != nil {
				t.Fatalf("Cells() error = %v", err)
			}
			for _, f := range fine {
				found := false
				for _, c := range coarse {
					if c.Equal(f) || c.IsAncestorOf(f) {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("%s: fine cell %s has no coarse ancestor for %v", grid.Name(), f, shape)
				}
			}
		}
	}
}

func TestLevelForDistance_Monotonic(t *testing.T) {
	for _, grid := range testGrids(t) {
		if got := grid.LevelForDistance(0); got != grid.MaxLevels() {
			t.Errorf("%s LevelForDistance(0) = %d, want %d", grid.Name(), got, grid.MaxLevels())
		}
		prev := grid.MaxLevels()
		for d := 1e-7; d < 1000; d *= 1.7 {
			level := grid.LevelForDistance(d)
			if level > prev {
				t.Errorf("%s LevelForDistance(%g) = %d, larger than %d for a smaller distance", grid.Name(), d, level, prev)
			}
			if level < 1 || level > grid.MaxLevels() {
				t.Errorf("%s LevelForDistance(%g) = %d out of range", grid.Name(), d, level)
			}
			prev = level
		}
	}
}

func TestCells_InvalidArguments(t *testing.T) {
	for _, grid := range testGrids(t) {
		shape := spatial.Rectangle{MinX: 0, MaxX: 1, MinY: 0, MaxY: 1}
		for _, detail := range []int{0, -1, grid.MaxLevels() + 1} {
			if _, err := grid.Cells(shape, detail, false, false); !errors.IsInvalidArgument(err) {
				t.Errorf("%s Cells(detail=%d) error = %v, want INVALID_ARGUMENT", grid.Name(), detail, err)
			}
		}
		if _, err := grid.Cells(nil, 1, false, false); !errors.IsInvalidShape(err) {
			t.Errorf("%s Cells(nil) error = %v, want INVALID_SHAPE", grid.Name(), err)
		}
	}
}

func TestCells_OutsideWorld(t *testing.T) {
	for _, grid := range testGrids(t) {
		cells, err := grid.Cells(spatial.Point{X: 500, Y: 0}, 2, false, false)
		if err != nil {
			t.Fatalf("Cells() error = %v", err)
		}
		if len(cells) != 0 {
			t.Errorf("%s Cells(outside point) = %v, want none", grid.Name(), tokens(cells))
		}
		cells, err = grid.Cells(spatial.Rectangle{MinX: 200, MaxX: 210, MinY: 0, MaxY: 5}, 2, false, false)
		if err != nil {
			t.Fatalf("Cells() error = %v", err)
		}
		if len(cells) != 0 {
			t.Errorf("%s Cells(outside rectangle) = %v, want none", grid.Name(), tokens(cells))
		}
	}
}
