package rules

import (
	"sort"

	"github.com/sheetlint/sheetlint/model"
)

// sortedCells returns a sheet's cells ordered by (row, col). Rules iterate
// through this instead of the cell map so violation output is stable.
func sortedCells(sheet *model.Sheet) []model.Cell {
	cells := sheet.AllCells()
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Row != cells[j].Row {
			return cells[i].Row < cells[j].Row
		}
		return cells[i].Col < cells[j].Col
	})
	return cells
}

// formulaCells yields the sheet's formula cells in deterministic order.
func formulaCells(sheet *model.Sheet) []model.Cell {
	var out []model.Cell
	for _, cell := range sortedCells(sheet) {
		if cell.IsFormula() {
			out = append(out, cell)
		}
	}
	return out
}

// refsOf projects cells to their coordinates.
func refsOf(cells []model.Cell) []model.CellRef {
	out := make([]model.CellRef, len(cells))
	for i, c := range cells {
		out[i] = model.CellRef{Row: c.Row, Col: c.Col}
	}
	return out
}
