package rules

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetlint/sheetlint/analysis"
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/internal/ooxmlnumfmt"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	register(numericText{})
	register(inconsistentDateFormat{})
	register(blankRowsColumns{})
}

// ── UX001 ──────────────────────────────────────────────────────────────────

type numericText struct{}

func (numericText) ID() string          { return "UX001" }
func (numericText) DisplayName() string { return "Numeric data stored as text" }
func (numericText) Category() string    { return CategoryUsability }
func (numericText) DefaultActive() bool { return true }

func (r numericText) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		var hits []model.Cell
		for _, cell := range sortedCells(sheet) {
			text, ok := cell.Value.(model.Text)
			if !ok {
				continue
			}
			trimmed := strings.TrimSpace(string(text))
			if trimmed == "" {
				continue
			}
			if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
				hits = append(hits, cell)
			}
		}
		for _, rangeStr := range analysis.CoalesceRanges(refsOf(hits)) {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    SheetScope(sheet.Name),
				Message:  fmt.Sprintf("Numeric data stored as text in range: %s", rangeStr),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── UX002 ──────────────────────────────────────────────────────────────────

// inconsistentDateFormat reports date-formatted cells whose format string
// differs from the required one (date_format, default mm/dd/yyyy).
// Backslash escapes are stripped from both sides before comparing.
type inconsistentDateFormat struct{}

func (inconsistentDateFormat) ID() string          { return "UX002" }
func (inconsistentDateFormat) DisplayName() string { return "Inconsistent date format" }
func (inconsistentDateFormat) Category() string    { return CategoryUsability }
func (inconsistentDateFormat) DefaultActive() bool { return true }

func (r inconsistentDateFormat) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		required := cfg.GetStringOr("date_format", sheet.Name, "mm/dd/yyyy")
		requiredNorm := ooxmlnumfmt.StripEscapes(required)

		for _, cell := range sortedCells(sheet) {
			switch cell.Value.(type) {
			case model.Number, model.Text, model.Formula:
			default:
				continue
			}
			if cell.NumFmt == "" {
				continue
			}
			normalized := ooxmlnumfmt.StripEscapes(cell.NumFmt)
			if !ooxmlnumfmt.IsDateFormat(normalized) || normalized == requiredNorm {
				continue
			}
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  CellScope(sheet.Name, cell.Row, cell.Col),
				Message: fmt.Sprintf(
					"Date format '%s' does not match required format '%s'",
					normalized, required),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// ── UX003 ──────────────────────────────────────────────────────────────────

// blankRowsColumns finds fully blank row and column bands inside the used
// range — merged regions count as occupied — and reports bands strictly
// longer than max_blank_row / max_blank_column.
type blankRowsColumns struct{}

func (blankRowsColumns) ID() string          { return "UX003" }
func (blankRowsColumns) DisplayName() string { return "Blank rows/columns in used range" }
func (blankRowsColumns) Category() string    { return CategoryUsability }
func (blankRowsColumns) DefaultActive() bool { return true }

func (r blankRowsColumns) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		if len(sheet.Cells) == 0 {
			continue
		}
		maxBlankRow := int(cfg.GetIntOr("max_blank_row", sheet.Name, 2))
		maxBlankCol := int(cfg.GetIntOr("max_blank_column", sheet.Name, 2))

		minRow, minCol := math.MaxInt, math.MaxInt
		for ref := range sheet.Cells {
			if ref.Row < minRow {
				minRow = ref.Row
			}
			if ref.Col < minCol {
				minCol = ref.Col
			}
		}
		maxRow, maxCol := sheet.UsedRangeRows-1, sheet.UsedRangeCols-1
		if maxRow < 0 || maxCol < 0 {
			lastRow, lastCol := sheet.LastDataCell()
			maxRow, maxCol = lastRow, lastCol
		}

		// Leading blank bands before the first data row/column.
		if minRow > maxBlankRow {
			violations = append(violations, blankBandViolation(r.ID(), sheet.Name,
				spanInts(0, minRow-1), true))
		}
		if minCol > maxBlankCol {
			violations = append(violations, blankBandViolation(r.ID(), sheet.Name,
				spanInts(0, minCol-1), false))
		}

		blankRows := blankLines(sheet, minRow, maxRow, minCol, maxCol, true)
		if rows := filterBands(blankRows, maxBlankRow); len(rows) > 0 {
			violations = append(violations, blankBandViolation(r.ID(), sheet.Name, rows, true))
		}
		blankCols := blankLines(sheet, minRow, maxRow, minCol, maxCol, false)
		if cols := filterBands(blankCols, maxBlankCol); len(cols) > 0 {
			violations = append(violations, blankBandViolation(r.ID(), sheet.Name, cols, false))
		}
	}
	return violations
}

// blankLines returns the row (or column) indices inside the bounding box
// with no data and no overlap with a merged region.
func blankLines(sheet *model.Sheet, minRow, maxRow, minCol, maxCol int, rows bool) []int {
	var blank []int
	outer, outerMax := minRow, maxRow
	if !rows {
		outer, outerMax = minCol, maxCol
	}
	for line := outer; line <= outerMax; line++ {
		hasData := false
		if rows {
			for col := minCol; col <= maxCol && !hasData; col++ {
				if c, ok := sheet.Cells[model.CellRef{Row: line, Col: col}]; ok && !c.Value.IsEmpty() {
					hasData = true
				}
			}
		} else {
			for row := minRow; row <= maxRow && !hasData; row++ {
				if c, ok := sheet.Cells[model.CellRef{Row: row, Col: line}]; ok && !c.Value.IsEmpty() {
					hasData = true
				}
			}
		}
		if hasData {
			continue
		}
		inMerged := false
		for _, m := range sheet.MergedCells {
			r1, c1 := m.Row, m.Col
			r2, c2 := m.Row+m.H-1, m.Col+m.W-1
			if rows {
				if line >= r1 && line <= r2 && c1 <= maxCol && c2 >= minCol {
					inMerged = true
					break
				}
			} else {
				if line >= c1 && line <= c2 && r1 <= maxRow && r2 >= minRow {
					inMerged = true
					break
				}
			}
		}
		if !inMerged {
			blank = append(blank, line)
		}
	}
	return blank
}

// filterBands keeps only the contiguous runs strictly longer than max and
// flattens them back to a sorted index list.
func filterBands(indices []int, max int) []int {
	var out []int
	for _, group := range groupConsecutive(indices) {
		if len(group) > max {
			out = append(out, group...)
		}
	}
	sort.Ints(out)
	return out
}

func spanInts(from, to int) []int {
	out := make([]int, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, i)
	}
	return out
}

func blankBandViolation(ruleID, sheetName string, indices []int, rows bool) Violation {
	var rendered string
	var kind string
	if rows {
		rendered = formatBands(indices, func(i int) string { return strconv.Itoa(i + 1) })
		kind = "rows"
	} else {
		rendered = formatBands(indices, cellref.ColToLetters)
		kind = "columns"
	}
	return Violation{
		RuleID: ruleID,
		Scope:  SheetScope(sheetName),
		Message: fmt.Sprintf(
			"Blank %s within used range: %s. Consider removing or filling these %s.",
			kind, rendered, kind),
		Severity: SeverityInfo,
	}
}

// formatBands renders sorted indices as comma-joined runs: "2-4, 7".
func formatBands(indices []int, render func(int) string) string {
	var parts []string
	for _, group := range groupConsecutive(indices) {
		if len(group) == 1 {
			parts = append(parts, render(group[0]))
		} else {
			parts = append(parts, render(group[0])+"-"+render(group[len(group)-1]))
		}
	}
	return strings.Join(parts, ", ")
}
