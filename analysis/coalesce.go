// Package analysis provides the shared primitives the lint rules build on:
// contiguous-range coalescing, the cross-sheet dependency graph with
// elementary-cycle detection, and formula scanners (nesting depth, IF
// nesting, quoted-string stripping, external-book tokens).
package analysis

import (
	"sort"

	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/model"
)

// FindContiguousRanges partitions a cell set into 4-neighbor connected
// components via BFS. Components and their members come back sorted by
// (row, col) so violation output is deterministic regardless of map
// iteration order upstream.
func FindContiguousRanges(cells []model.CellRef) [][]model.CellRef {
	if len(cells) == 0 {
		return nil
	}
	sorted := make([]model.CellRef, len(cells))
	copy(sorted, cells)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Row != sorted[j].Row {
			return sorted[i].Row < sorted[j].Row
		}
		return sorted[i].Col < sorted[j].Col
	})

	inSet := make(map[model.CellRef]bool, len(sorted))
	for _, c := range sorted {
		inSet[c] = true
	}
	visited := make(map[model.CellRef]bool, len(sorted))

	var components [][]model.CellRef
	for _, start := range sorted {
		if visited[start] {
			continue
		}
		visited[start] = true
		queue := []model.CellRef{start}
		var component []model.CellRef
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, cur)
			for _, n := range []model.CellRef{
				{Row: cur.Row - 1, Col: cur.Col},
				{Row: cur.Row + 1, Col: cur.Col},
				{Row: cur.Row, Col: cur.Col - 1},
				{Row: cur.Row, Col: cur.Col + 1},
			} {
				if inSet[n] && !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Slice(component, func(i, j int) bool {
			if component[i].Row != component[j].Row {
				return component[i].Row < component[j].Row
			}
			return component[i].Col < component[j].Col
		})
		components = append(components, component)
	}
	return components
}

// FormatRange renders a component as its bounding box: "A1" for singletons,
// "A1:B3" otherwise. The box spans the component's min/max rows and
// columns, not its exact shape — compact location reports beat precise
// ones here.
func FormatRange(component []model.CellRef) string {
	if len(component) == 0 {
		return ""
	}
	if len(component) == 1 {
		return cellref.FormatCellRef(component[0].Row, component[0].Col)
	}
	minRow, maxRow := component[0].Row, component[0].Row
	minCol, maxCol := component[0].Col, component[0].Col
	for _, c := range component[1:] {
		if c.Row < minRow {
			minRow = c.Row
		}
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col < minCol {
			minCol = c.Col
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}
	return cellref.FormatCellRef(minRow, minCol) + ":" + cellref.FormatCellRef(maxRow, maxCol)
}

// CoalesceRanges is the composition most rules want: connected components
// rendered as bounding-box strings.
func CoalesceRanges(cells []model.CellRef) []string {
	components := FindContiguousRanges(cells)
	if len(components) == 0 {
		return nil
	}
	out := make([]string, len(components))
	for i, c := range components {
		out[i] = FormatRange(c)
	}
	return out
}
