package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sheetlint/sheetlint/analysis"
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	register(longFormula{})
	register(volatileFunctions{})
	register(duplicateFormulas{})
	register(wholeColumnRowRefs{})
	register(emptyStringTest{})
	register(deepFormulaNesting{})
	register(deepIFNesting{})
	register(hardcodedValues{})
	register(vlookupUsage{})
}

// ── FORM001 ──────────────────────────────────────────────────────────────────

type longFormula struct{}

func (longFormula) ID() string          { return "FORM001" }
func (longFormula) DisplayName() string { return "Long formula" }
func (longFormula) Category() string    { return CategoryFormula }
func (longFormula) DefaultActive() bool { return true }

func (r longFormula) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		threshold := int(cfg.GetIntOr("max_formula_length", sheet.Name, 255))
		var hits []model.Cell
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			if len(f.Expr) > threshold {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    SheetScope(sheet.Name),
				Message:  fmt.Sprintf("Long formulas (>%d characters) in range: %s", threshold, rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── FORM002 ──────────────────────────────────────────────────────────────────

var defaultVolatileFunctions = []string{
	"NOW", "TODAY", "RAND", "RANDBETWEEN", "OFFSET", "INDIRECT", "INFO", "CELL",
}

type volatileFunctions struct{}

func (volatileFunctions) ID() string          { return "FORM002" }
func (volatileFunctions) DisplayName() string { return "Avoid volatile functions" }
func (volatileFunctions) Category() string    { return CategoryFormula }
func (volatileFunctions) DefaultActive() bool { return true }

func (r volatileFunctions) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	functions, ok := cfg.GetStringArray("volatile_functions", "")
	if !ok {
		functions = defaultVolatileFunctions
	}

	var violations []Violation
	for _, sheet := range wb.Sheets {
		perFunction := map[string][]model.CellRef{}
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			upper := strings.ToUpper(f.Expr)
			for _, fn := range functions {
				if strings.Contains(upper, strings.ToUpper(fn)+"(") {
					perFunction[fn] = append(perFunction[fn],
						model.CellRef{Row: cell.Row, Col: cell.Col})
					break // count each cell once
				}
			}
		}
		for _, fn := range functions {
			cells := perFunction[fn]
			for _, rangeStr := range analysis.CoalesceRanges(cells) {
				violations = append(violations, Violation{
					RuleID: r.ID(),
					Scope:  SheetScope(sheet.Name),
					Message: fmt.Sprintf(
						"Volatile function %s() found in range: %s. Consider alternatives for better performance.",
						fn, rangeStr),
					Severity: SeverityInfo,
				})
			}
		}
	}
	return violations
}

// ── FORM003 ──────────────────────────────────────────────────────────────────

type duplicateFormulas struct{}

func (duplicateFormulas) ID() string          { return "FORM003" }
func (duplicateFormulas) DisplayName() string { return "Avoid duplicate formulas" }
func (duplicateFormulas) Category() string    { return CategoryFormula }
func (duplicateFormulas) DefaultActive() bool { return true }

func (r duplicateFormulas) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		groups := map[string][]model.CellRef{}
		var order []string
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			normalized := strings.TrimSpace(f.Expr)
			if _, ok := groups[normalized]; !ok {
				order = append(order, normalized)
			}
			groups[normalized] = append(groups[normalized],
				model.CellRef{Row: cell.Row, Col: cell.Col})
		}
		for _, formula := range order {
			cells := groups[formula]
			if len(cells) < 2 {
				continue
			}
			ranges := analysis.CoalesceRanges(cells)
			display := formula
			if len([]rune(display)) > 50 {
				display = string([]rune(display)[:50]) + "..."
			}
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Formula '%s' is duplicated %d times in ranges: %s. Consider using named ranges or helper cells.",
					display, len(cells), strings.Join(ranges, ", ")),
				Severity: SeverityInfo,
			})
		}
	}
	return violations
}

// ── FORM004 ──────────────────────────────────────────────────────────────────

var (
	wholeColumnRef = regexp.MustCompile(`[A-Z]+:[A-Z]+`)
	wholeRowRef    = regexp.MustCompile(`\d+:\d+`)
)

type wholeColumnRowRefs struct{}

func (wholeColumnRowRefs) ID() string          { return "FORM004" }
func (wholeColumnRowRefs) DisplayName() string { return "Whole column/row references" }
func (wholeColumnRowRefs) Category() string    { return CategoryFormula }
func (wholeColumnRowRefs) DefaultActive() bool { return true }

func (r wholeColumnRowRefs) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		var colHits, rowHits []model.CellRef
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			ref := model.CellRef{Row: cell.Row, Col: cell.Col}
			if wholeColumnRef.MatchString(f.Expr) {
				colHits = append(colHits, ref)
			}
			if wholeRowRef.MatchString(f.Expr) {
				rowHits = append(rowHits, ref)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(colHits) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Whole-column reference (e.g., A:A) found in range: %s. Use bounded ranges for better performance.",
					rangeStr),
				Severity: SeverityWarning,
			})
		}
		for _, rangeStr := range analysis.CoalesceRanges(rowHits) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Whole-row reference (e.g., 1:1) found in range: %s. Use bounded ranges for better performance.",
					rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── FORM005 ──────────────────────────────────────────────────────────────────

var (
	emptyStringCompare = regexp.MustCompile(`(=|<>)\s*""`)
	lenCompare         = regexp.MustCompile(`LEN\s*\([^)]+\)\s*(=|<>|>|<)\s*0`)
)

type emptyStringTest struct{}

func (emptyStringTest) ID() string          { return "FORM005" }
func (emptyStringTest) DisplayName() string { return "Empty string test" }
func (emptyStringTest) Category() string    { return CategoryFormula }
func (emptyStringTest) DefaultActive() bool { return true }

func (r emptyStringTest) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		var hits []model.Cell
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			upper := strings.ToUpper(f.Expr)
			if emptyStringCompare.MatchString(upper) || lenCompare.MatchString(upper) {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Empty string test (=\"\" or LEN()=0) found in range: %s. Consider using ISBLANK() for better readability.",
					rangeStr),
				Severity: SeverityInfo,
			})
		}
	}
	return violations
}

// ── FORM006 ──────────────────────────────────────────────────────────────────

type deepFormulaNesting struct{}

func (deepFormulaNesting) ID() string          { return "FORM006" }
func (deepFormulaNesting) DisplayName() string { return "Deep formula nesting" }
func (deepFormulaNesting) Category() string    { return CategoryFormula }
func (deepFormulaNesting) DefaultActive() bool { return false }

func (r deepFormulaNesting) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		maxNesting := int(cfg.GetIntOr("max_formula_nesting", sheet.Name, 5))
		var hits []model.Cell
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			if analysis.NestingDepth(f.Expr) > maxNesting {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Formula with deep nesting (>%d levels) in range: %s. Consider simplifying.",
					maxNesting, rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── FORM007 ──────────────────────────────────────────────────────────────────

type deepIFNesting struct{}

func (deepIFNesting) ID() string          { return "FORM007" }
func (deepIFNesting) DisplayName() string { return "Deep IF nesting" }
func (deepIFNesting) Category() string    { return CategoryFormula }
func (deepIFNesting) DefaultActive() bool { return true }

func (r deepIFNesting) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		maxNesting := int(cfg.GetIntOr("max_if_nesting", sheet.Name, 5))
		var hits []model.Cell
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			if analysis.IFNestingDepth(f.Expr) > maxNesting {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf(
					"Deeply nested IF statements (>%d levels) in range: %s. Consider using lookup tables or IFS function.",
					maxNesting, rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── FORM008 ──────────────────────────────────────────────────────────────────

// numberLiteral relies on word boundaries, which is also what keeps row
// numbers inside cell references from matching: "A1" has no boundary
// between A and 1.
var numberLiteral = regexp.MustCompile(`\b(\d+(\.\d+)?)\b`)

type hardcodedValues struct{}

func (hardcodedValues) ID() string          { return "FORM008" }
func (hardcodedValues) DisplayName() string { return "Hardcoded values in formulas" }
func (hardcodedValues) Category() string    { return CategoryFormula }
func (hardcodedValues) DefaultActive() bool { return true }

func (r hardcodedValues) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	ignored, _ := cfg.GetFloatArray("ignore_hardcoded_num_values", "")
	ignoreInts := cfg.GetBoolOr("ignore_hardcoded_int_values", "", false)
	ignorePow10 := cfg.GetBoolOr("ignore_hardcoded_power_of_ten", "", false)

	isIgnored := func(val float64) bool {
		for _, x := range ignored {
			if math.Abs(x-val) < 1e-12 {
				return true
			}
		}
		if ignoreInts && val == math.Trunc(val) {
			return true
		}
		if ignorePow10 && val > 0 {
			log := math.Log10(val)
			if math.Abs(log-math.Round(log)) < 1e-12 {
				return true
			}
		}
		return false
	}

	var violations []Violation
	for _, sheet := range wb.Sheets {
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			stripped := analysis.StripStrings(f.Expr)
			for _, m := range numberLiteral.FindAllStringSubmatch(stripped, -1) {
				val, err := strconv.ParseFloat(m[1], 64)
				if err != nil || isIgnored(val) {
					continue
				}
				violations = append(violations, Violation{
					RuleID:   r.ID(),
					Scope:    CellScope(sheet.Name, cell.Row, cell.Col),
					Message:  fmt.Sprintf("Hardcoded value found in formula: %v", val),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return violations
}

// ── FORM009 ──────────────────────────────────────────────────────────────────

type vlookupUsage struct{}

func (vlookupUsage) ID() string          { return "FORM009" }
func (vlookupUsage) DisplayName() string { return "VLOOKUP/HLOOKUP usage" }
func (vlookupUsage) Category() string    { return CategoryFormula }
func (vlookupUsage) DefaultActive() bool { return true }

func (r vlookupUsage) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			upper := strings.ToUpper(f.Expr)
			if strings.Contains(upper, "VLOOKUP(") || strings.Contains(upper, "HLOOKUP(") {
				violations = append(violations, Violation{
					RuleID:   r.ID(),
					Scope:    CellScope(sheet.Name, cell.Row, cell.Col),
					Message:  "Avoid using VLOOKUP/HLOOKUP. Use XLOOKUP or INDEX/MATCH instead.",
					Severity: SeverityWarning,
				})
			}
		}
	}
	return violations
}
