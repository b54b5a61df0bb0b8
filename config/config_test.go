package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTOML = `
[global]
enabled_rules = []
disabled_rules = ["SEC"]
max_formula_length = 120
date_format = "yyyy-mm-dd"
ignore_hardcoded_int_values = true
ignore_hardcoded_num_values = [0, 1, 100.5]
volatile_functions = ["NOW", "TODAY"]

[sheets."Raw Data"]
disabled_rules = ["FORM003"]
max_formula_length = 500
`

func TestParse(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)

	assert.Equal(t, []string{"SEC"}, cfg.Global.DisabledRules)
	assert.Empty(t, cfg.Global.EnabledRules)

	sheet, ok := cfg.Sheets["Raw Data"]
	require.True(t, ok, "sheet section names keep their case")
	assert.Equal(t, []string{"FORM003"}, sheet.DisabledRules)
}

func TestSelectorMatching(t *testing.T) {
	assert.True(t, matchesSelector("ALL", "ERR003"))
	assert.True(t, matchesSelector("ERR", "ERR003"))
	assert.True(t, matchesSelector("ERR003", "ERR003"))
	assert.False(t, matchesSelector("ERR", "SEC001"))
	assert.False(t, matchesSelector("SEC001", "ERR003"))
}

func TestActivation(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.IsRuleEnabled("ERR003"), "empty config enables everything")

	cfg.Global.DisabledRules = []string{"ERR003"}
	assert.False(t, cfg.IsRuleEnabled("ERR003"))
	assert.True(t, cfg.IsRuleEnabled("SEC001"))

	cfg.Global.DisabledRules = []string{"SEC"}
	assert.False(t, cfg.IsRuleEnabled("SEC001"))
	assert.True(t, cfg.IsRuleEnabled("ERR003"))

	cfg.Global.DisabledRules = nil
	cfg.Global.EnabledRules = []string{"ERR"}
	assert.True(t, cfg.IsRuleEnabled("ERR003"))
	assert.False(t, cfg.IsRuleEnabled("SEC001"))
}

func TestSheetActivation(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)

	assert.False(t, cfg.IsRuleEnabledForSheet("FORM003", "Raw Data"))
	assert.True(t, cfg.IsRuleEnabledForSheet("FORM003", "Other"))
	// Global disable applies to every sheet.
	assert.False(t, cfg.IsRuleEnabledForSheet("SEC001", "Other"))
}

func TestValidate(t *testing.T) {
	valid := map[string]bool{"ALL": true, "ERR": true, "ERR003": true, "FORM": true, "FORM003": true, "SEC": true}

	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate(valid))

	bad := Default()
	bad.Global.DisabledRules = []string{"ALL"}
	assert.Error(t, bad.Validate(valid), "ALL is forbidden in global disabled_rules")

	bad = Default()
	bad.Global.EnabledRules = []string{"XYZ"}
	assert.Error(t, bad.Validate(valid))

	bad = Default()
	bad.Sheets["S1"] = SheetConfig{DisabledRules: []string{"NOPE"}}
	assert.Error(t, bad.Validate(valid))

	// ALL is fine in enabled_rules.
	ok := Default()
	ok.Global.EnabledRules = []string{"ALL"}
	assert.NoError(t, ok.Validate(valid))
}

func TestParamFallback(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)

	// Sheet override wins on that sheet, global elsewhere.
	assert.Equal(t, int64(500), cfg.GetIntOr("max_formula_length", "Raw Data", 255))
	assert.Equal(t, int64(120), cfg.GetIntOr("max_formula_length", "Other", 255))
	assert.Equal(t, int64(255), cfg.GetIntOr("max_text_length", "Other", 255))

	assert.Equal(t, "yyyy-mm-dd", cfg.GetStringOr("date_format", "", "mm/dd/yyyy"))
	assert.True(t, cfg.GetBoolOr("ignore_hardcoded_int_values", "", false))

	nums, ok := cfg.GetFloatArray("ignore_hardcoded_num_values", "")
	require.True(t, ok)
	assert.Equal(t, []float64{0, 1, 100.5}, nums)

	funcs, ok := cfg.GetStringArray("volatile_functions", "")
	require.True(t, ok)
	assert.Equal(t, []string{"NOW", "TODAY"}, funcs)
}

func TestClone(t *testing.T) {
	cfg, err := Parse(sampleTOML)
	require.NoError(t, err)

	clone := cfg.Clone()
	clone.Global.Params["max_formula_length"] = int64(1)
	clone.Sheets["Raw Data"].Params["max_formula_length"] = int64(2)

	assert.Equal(t, int64(120), cfg.GetIntOr("max_formula_length", "", 0),
		"mutating the clone must not touch the original")
	assert.Equal(t, int64(500), cfg.GetIntOr("max_formula_length", "Raw Data", 0))
}
