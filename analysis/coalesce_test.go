package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sheetlint/sheetlint/model"
)

func TestCoalesceSparseHits(t *testing.T) {
	// A 2x2 block plus one far-away singleton must produce exactly two
	// ranges: the block's bounding box and the lone cell.
	cells := []model.CellRef{
		{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 5, Col: 5},
	}
	assert.Equal(t, []string{"A1:B2", "F6"}, CoalesceRanges(cells))
}

func TestCoalesceSingleCell(t *testing.T) {
	assert.Equal(t, []string{"C3"}, CoalesceRanges([]model.CellRef{{Row: 2, Col: 2}}))
}

func TestCoalesceEmpty(t *testing.T) {
	assert.Nil(t, CoalesceRanges(nil))
}

func TestCoalesceDiagonalNotConnected(t *testing.T) {
	// Diagonal neighbors are not 4-connected.
	cells := []model.CellRef{{Row: 0, Col: 0}, {Row: 1, Col: 1}}
	assert.Equal(t, []string{"A1", "B2"}, CoalesceRanges(cells))
}

func TestCoalesceComponentsCoverInput(t *testing.T) {
	cells := []model.CellRef{
		{Row: 3, Col: 1}, {Row: 3, Col: 2}, {Row: 4, Col: 2},
		{Row: 0, Col: 7}, {Row: 9, Col: 0},
	}
	components := FindContiguousRanges(cells)

	seen := map[model.CellRef]bool{}
	for _, comp := range components {
		for _, c := range comp {
			seen[c] = true
		}
	}
	for _, c := range cells {
		assert.True(t, seen[c], "cell %v missing from components", c)
	}

	// Every component member must touch another member (4-neighbor) unless
	// the component is a singleton.
	for _, comp := range components {
		if len(comp) == 1 {
			continue
		}
		members := map[model.CellRef]bool{}
		for _, c := range comp {
			members[c] = true
		}
		for _, c := range comp {
			connected := members[model.CellRef{Row: c.Row - 1, Col: c.Col}] ||
				members[model.CellRef{Row: c.Row + 1, Col: c.Col}] ||
				members[model.CellRef{Row: c.Row, Col: c.Col - 1}] ||
				members[model.CellRef{Row: c.Row, Col: c.Col + 1}]
			assert.True(t, connected, "cell %v isolated inside component", c)
		}
	}
}

func TestCoalesceDeterministic(t *testing.T) {
	cells := []model.CellRef{
		{Row: 5, Col: 5}, {Row: 0, Col: 1}, {Row: 1, Col: 0}, {Row: 0, Col: 0},
	}
	first := CoalesceRanges(cells)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, CoalesceRanges(cells))
	}
}
