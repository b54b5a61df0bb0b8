package rules

import (
	"fmt"
	"strings"

	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	register(unusedSheets{})
	register(emptySheets{})
}

// referencedSheets collects every sheet name mentioned by another sheet's
// formulas or by a defined name. Bare mentions must sit on a word boundary
// so "Data2!A1" does not mark sheet "Data" as referenced; quoted mentions
// ('Sheet name'!) match verbatim.
func referencedSheets(wb *model.Workbook, filterNames func(name string) bool) map[string]bool {
	referenced := map[string]bool{}
	for _, sheet := range wb.Sheets {
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			for _, other := range wb.Sheets {
				if referenced[other.Name] {
					continue
				}
				if mentionsSheet(f.Expr, other.Name) {
					referenced[other.Name] = true
				}
			}
		}
	}
	for name, reference := range wb.DefinedNames {
		if filterNames != nil && !filterNames(name) {
			continue
		}
		for _, sheet := range wb.Sheets {
			if strings.Contains(reference, sheet.Name+"!") ||
				strings.Contains(reference, "'"+sheet.Name+"'!") {
				referenced[sheet.Name] = true
			}
		}
	}
	return referenced
}

func mentionsSheet(formula, sheetName string) bool {
	if strings.Contains(formula, "'"+sheetName+"'!") {
		return true
	}
	needle := sheetName + "!"
	start := 0
	for {
		pos := strings.Index(formula[start:], needle)
		if pos < 0 {
			return false
		}
		at := start + pos
		if at == 0 {
			return true
		}
		prev := formula[at-1]
		if !isWordChar(prev) && prev != '.' {
			return true
		}
		start = at + 1
	}
}

func isWordChar(b byte) bool {
	return b == '_' ||
		(b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}

// ── PERF002 ──────────────────────────────────────────────────────────────────

// unusedSheets flags non-empty sheets nothing points at: no formulas of
// their own, no inbound references, not the only sheet. The first sheet is
// the workbook's entry point and is never flagged; sheets with a recorded
// formula-parse error are opaque and skipped.
type unusedSheets struct{}

func (unusedSheets) ID() string          { return "PERF002" }
func (unusedSheets) DisplayName() string { return "Unused sheets" }
func (unusedSheets) Category() string    { return CategoryPerformance }
func (unusedSheets) DefaultActive() bool { return true }

func (r unusedSheets) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	referenced := referencedSheets(wb, nil)
	var violations []Violation
	for i, sheet := range wb.Sheets {
		if i == 0 || len(wb.Sheets) == 1 {
			continue
		}
		if sheet.FormulaParsingError != "" {
			continue
		}
		hasFormulas := false
		hasContent := false
		for _, cell := range sheet.Cells {
			if cell.IsFormula() {
				hasFormulas = true
			}
			if !cell.Value.IsEmpty() {
				hasContent = true
			}
		}
		if !referenced[sheet.Name] && !hasFormulas && hasContent {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  BookScope(),
				Message: fmt.Sprintf(
					"Sheet '%s' is not referenced by any other sheet and contains no formulas",
					sheet.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── PERF005 ──────────────────────────────────────────────────────────────────

// emptySheets is the zero-cell sibling of PERF002. Built-in print-area and
// filter names do not count as references — a leftover Print_Area must not
// keep a dead sheet alive.
type emptySheets struct{}

func (emptySheets) ID() string          { return "PERF005" }
func (emptySheets) DisplayName() string { return "Empty unused sheets" }
func (emptySheets) Category() string    { return CategoryPerformance }
func (emptySheets) DefaultActive() bool { return true }

func (r emptySheets) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	referenced := referencedSheets(wb, func(name string) bool {
		return !strings.Contains(name, "Print_Area") &&
			!strings.Contains(name, "Filter_Database") &&
			!strings.HasPrefix(name, "_xlnm.")
	})
	var violations []Violation
	for i, sheet := range wb.Sheets {
		if i == 0 || len(wb.Sheets) == 1 {
			continue
		}
		if sheet.FormulaParsingError != "" {
			continue
		}
		if !referenced[sheet.Name] && len(sheet.Cells) == 0 {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    BookScope(),
				Message:  fmt.Sprintf("Sheet '%s' is completely empty and unused", sheet.Name),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}
