package rules

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/sheetlint/sheetlint/analysis"
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	register(similarSheetNames{})
	register(longTextCell{})
}

// ── SM002 ──────────────────────────────────────────────────────────────────

// normalizeSheetName reduces a sheet name to its confusability class:
// NFKC-folded (so fullwidth and compatibility forms collide), lower-cased,
// non-alphanumerics dropped.
func normalizeSheetName(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(norm.NFKC.String(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// similarSheetNames reports every class of sheet names that collapse to
// the same normalized form — "Data 2", "data2" and "DATA_2" are a support
// call waiting to happen.
type similarSheetNames struct{}

func (similarSheetNames) ID() string          { return "SM002" }
func (similarSheetNames) DisplayName() string { return "Confusingly similar sheet names" }
func (similarSheetNames) Category() string    { return CategoryStructural }
func (similarSheetNames) DefaultActive() bool { return true }

func (r similarSheetNames) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	classes := map[string][]string{}
	var order []string
	for _, sheet := range wb.Sheets {
		key := normalizeSheetName(sheet.Name)
		if _, ok := classes[key]; !ok {
			order = append(order, key)
		}
		classes[key] = append(classes[key], sheet.Name)
	}
	sort.Strings(order)

	var violations []Violation
	for _, key := range order {
		variants := classes[key]
		if len(variants) < 2 {
			continue
		}
		violations = append(violations, Violation{
			RuleID:   r.ID(),
			Scope:    BookScope(),
			Message:  fmt.Sprintf("Confusingly similar sheet names: %s", strings.Join(variants, ", ")),
			Severity: SeverityWarning,
		})
	}
	return violations
}

// ── SM003 ──────────────────────────────────────────────────────────────────

type longTextCell struct{}

func (longTextCell) ID() string          { return "SM003" }
func (longTextCell) DisplayName() string { return "Long text cell" }
func (longTextCell) Category() string    { return CategoryStructural }
func (longTextCell) DefaultActive() bool { return true }

func (r longTextCell) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		threshold := int(cfg.GetIntOr("max_text_length", sheet.Name, 255))
		var hits []model.Cell
		for _, cell := range sortedCells(sheet) {
			if text, ok := cell.Value.(model.Text); ok && len(text) > threshold {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    SheetScope(sheet.Name),
				Message:  fmt.Sprintf("Long text cells (>%d characters) in range: %s", threshold, rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}
