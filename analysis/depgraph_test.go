package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetlint/sheetlint/model"
)

func sheetWithFormulas(name string, formulas map[model.CellRef]string) *model.Sheet {
	sheet := model.NewSheet(name)
	for ref, f := range formulas {
		sheet.Cells[ref] = model.Cell{Row: ref.Row, Col: ref.Col, Value: model.NewFormula(f)}
	}
	return sheet
}

func TestExtractCellReferences(t *testing.T) {
	refs := ExtractCellReferences("A1+Sheet2!B2", "Main", false)
	assert.Contains(t, refs, Node{Sheet: "Main", Row: 0, Col: 0})
	assert.Contains(t, refs, Node{Sheet: "Sheet2", Row: 1, Col: 1})
}

func TestExtractQuotedSheet(t *testing.T) {
	refs := ExtractCellReferences("'My Sheet'!C3*2", "Main", false)
	assert.Contains(t, refs, Node{Sheet: "My Sheet", Row: 2, Col: 2})
}

func TestExtractIgnoresQuotedText(t *testing.T) {
	// "A1" inside a string literal is text, not a reference.
	refs := ExtractCellReferences(`CONCATENATE("see A1 for details",B2)`, "Main", false)
	assert.NotContains(t, refs, Node{Sheet: "Main", Row: 0, Col: 0})
	assert.Contains(t, refs, Node{Sheet: "Main", Row: 1, Col: 1})
}

func TestRangeCornersWithoutExpansion(t *testing.T) {
	refs := ExtractCellReferences("SUM(B1:B3)", "Main", false)
	require.Len(t, refs, 2)
	assert.Equal(t, Node{Sheet: "Main", Row: 0, Col: 1}, refs[0])
	assert.Equal(t, Node{Sheet: "Main", Row: 2, Col: 1}, refs[1])
}

func TestRangeExpansion(t *testing.T) {
	refs := ExtractCellReferences("SUM(B1:B3)", "Main", true)
	assert.Len(t, refs, 3)
	assert.Contains(t, refs, Node{Sheet: "Main", Row: 1, Col: 1})
}

func TestCrossSheetCycle(t *testing.T) {
	wb := &model.Workbook{Sheets: []*model.Sheet{
		sheetWithFormulas("Sheet1", map[model.CellRef]string{{Row: 0, Col: 0}: "Sheet2!A1"}),
		sheetWithFormulas("Sheet2", map[model.CellRef]string{{Row: 0, Col: 0}: "Sheet1!A1"}),
	}}
	graph := BuildDependencyGraph(wb, nil)
	cycles := FindCycles(graph)
	require.Len(t, cycles, 1)

	members := map[Node]bool{}
	for _, n := range cycles[0] {
		members[n] = true
	}
	assert.True(t, members[Node{Sheet: "Sheet1", Row: 0, Col: 0}])
	assert.True(t, members[Node{Sheet: "Sheet2", Row: 0, Col: 0}])
}

func TestNoCycle(t *testing.T) {
	wb := &model.Workbook{Sheets: []*model.Sheet{
		sheetWithFormulas("Main", map[model.CellRef]string{
			{Row: 0, Col: 0}: "B1+1",
			{Row: 0, Col: 1}: "C1*2",
		}),
	}}
	cycles := FindCycles(BuildDependencyGraph(wb, nil))
	assert.Empty(t, cycles)
}

func TestDirectSelfCycle(t *testing.T) {
	wb := &model.Workbook{Sheets: []*model.Sheet{
		sheetWithFormulas("Main", map[model.CellRef]string{{Row: 0, Col: 0}: "A1+1"}),
	}}
	cycles := FindCycles(BuildDependencyGraph(wb, nil))
	require.Len(t, cycles, 1)
	assert.Equal(t, []Node{{Sheet: "Main", Row: 0, Col: 0}}, cycles[0])
}

func TestRangeCycleNeedsExpansion(t *testing.T) {
	formulas := map[model.CellRef]string{
		{Row: 0, Col: 0}: "SUM(B1:B3)",
		{Row: 1, Col: 1}: "A1", // B2, interior of the range
	}

	wb := &model.Workbook{Sheets: []*model.Sheet{sheetWithFormulas("Main", formulas)}}
	assert.Empty(t, FindCycles(BuildDependencyGraph(wb, nil)),
		"corner-only approximation must not see the interior cycle")

	expand := func(string) bool { return true }
	assert.Len(t, FindCycles(BuildDependencyGraph(wb, expand)), 1,
		"expanded ranges must see the interior cycle")
}

func TestCornerCycleWithoutExpansion(t *testing.T) {
	// A1 = SUM(A2:A3); A3 = A1 — the cycle runs through a range corner, so
	// even the cheap approximation catches it.
	wb := &model.Workbook{Sheets: []*model.Sheet{
		sheetWithFormulas("Main", map[model.CellRef]string{
			{Row: 0, Col: 0}: "SUM(A2:A3)",
			{Row: 2, Col: 0}: "A1",
		}),
	}}
	assert.Len(t, FindCycles(BuildDependencyGraph(wb, nil)), 1)
}
