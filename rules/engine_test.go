package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
)

func emptyWorkbook() *model.Workbook {
	return &model.Workbook{Sheets: []*model.Sheet{model.NewSheet("Sheet1")}}
}

func TestRegistryOrderedAndComplete(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	wantIDs := []string{
		"ERR003",
		"FORM001", "FORM002", "FORM003", "FORM004", "FORM005",
		"FORM006", "FORM007", "FORM008", "FORM009",
		"PERF002", "PERF005",
		"SEC001", "SEC003", "SEC005",
		"SM002", "SM003",
		"UX001", "UX002", "UX003",
	}
	var got []string
	for _, r := range all {
		got = append(got, r.ID())
	}
	assert.Equal(t, wantIDs, got, "registry must hold every rule in ascending id order")
}

func TestValidTokens(t *testing.T) {
	tokens := ValidTokens()
	for _, tok := range []string{"ALL", "ERR", "FORM", "PERF", "SEC", "SM", "UX", "ERR003", "UX003"} {
		assert.True(t, tokens[tok], "token %s missing", tok)
	}
	assert.False(t, tokens["XYZ"])
}

func TestRunRejectsGlobalDisabledALL(t *testing.T) {
	cfg := config.Default()
	cfg.Global.DisabledRules = []string{"ALL"}
	_, err := Run(emptyWorkbook(), cfg)
	assert.Error(t, err)
}

func TestRunRejectsUnknownSelector(t *testing.T) {
	cfg := config.Default()
	cfg.Global.EnabledRules = []string{"NOPE"}
	_, err := Run(emptyWorkbook(), cfg)
	assert.Error(t, err)
}

func TestDefaultInactiveRuleNeedsOptIn(t *testing.T) {
	// A1 references itself; ERR003 would flag it — but ERR003 is
	// default-inactive, so nothing fires without an explicit enable.
	sheet := model.NewSheet("Sheet1")
	sheet.Cells[model.CellRef{Row: 0, Col: 0}] = model.Cell{
		Row: 0, Col: 0, Value: model.NewFormula("A1+1"),
	}
	wb := &model.Workbook{Sheets: []*model.Sheet{sheet}}

	violations, err := Run(wb, config.Default())
	require.NoError(t, err)
	for _, v := range violations {
		assert.NotEqual(t, "ERR003", v.RuleID)
	}

	cfg := config.Default()
	cfg.Global.EnabledRules = []string{"ERR003"}
	violations, err = Run(wb, cfg)
	require.NoError(t, err)
	found := false
	for _, v := range violations {
		if v.RuleID == "ERR003" {
			found = true
		}
	}
	assert.True(t, found, "explicitly enabled ERR003 must run")
}

func TestPerSheetMasking(t *testing.T) {
	sheet := model.NewSheet("Noisy")
	sheet.Cells[model.CellRef{Row: 0, Col: 0}] = model.Cell{
		Row: 0, Col: 0, Value: model.NewFormula("VLOOKUP(A1,B:C,2)"),
	}
	wb := &model.Workbook{Sheets: []*model.Sheet{sheet}}

	violations, err := Run(wb, config.Default())
	require.NoError(t, err)
	hasForm009 := false
	for _, v := range violations {
		if v.RuleID == "FORM009" {
			hasForm009 = true
		}
	}
	assert.True(t, hasForm009)

	cfg := config.Default()
	cfg.Sheets["Noisy"] = config.SheetConfig{DisabledRules: []string{"FORM009"}}
	violations, err = Run(wb, cfg)
	require.NoError(t, err)
	for _, v := range violations {
		assert.NotEqual(t, "FORM009", v.RuleID, "sheet-disabled rule must be masked")
	}
}

func TestRunDeterministic(t *testing.T) {
	sheet := model.NewSheet("Sheet1")
	for col := 0; col < 6; col++ {
		sheet.Cells[model.CellRef{Row: 0, Col: col}] = model.Cell{
			Row: 0, Col: col, Value: model.NewFormula("VLOOKUP(A1,B:C,2)"),
		}
	}
	wb := &model.Workbook{Sheets: []*model.Sheet{sheet}}

	first, err := Run(wb, config.Default())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Run(wb, config.Default())
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
