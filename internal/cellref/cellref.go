// Package cellref provides A1-style cell and range reference parsing and
// formatting shared by xlsxreader, odsreader, and analysis.
package cellref

import (
	"regexp"
	"strconv"
	"strings"
)

// refPattern matches a single A1 cell reference with optional $ column/row
// locks, e.g. "A1", "$B$12".
var refPattern = regexp.MustCompile(`^\$?([A-Za-z]{1,3})\$?([0-9]+)$`)

// rangePattern matches an A1:B2-style range; sheet-qualified ranges do not
// match.
var rangePattern = regexp.MustCompile(`^([^:!]+):([^:!]+)$`)

// tokenPattern finds every reference-shaped token in a formula string:
// optional sheet-qualifier (bare or 'quoted'), then one or two A1
// references joined by ':'. Compiled once at init time so callers never
// pay regexp compilation cost per formula.
var tokenPattern = regexp.MustCompile(`(?:(?:'([^']+)'|([A-Za-z_][A-Za-z0-9_. ]*))!)?(\$?[A-Za-z]{1,3}\$?[0-9]+)(?::(\$?[A-Za-z]{1,3}\$?[0-9]+))?`)

// ParseCellRef parses a bare A1 cell reference (no sheet qualifier, no
// range) into 0-based row and column. ok is false when s is not a valid
// cell reference.
func ParseCellRef(s string) (row, col int, ok bool) {
	m := refPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, 0, false
	}
	col = lettersToCol(m[1])
	rowNum, err := strconv.Atoi(m[2])
	if err != nil || rowNum < 1 {
		return 0, 0, false
	}
	return rowNum - 1, col, true
}

// ParseRange parses "A1:B2" (or a single cell "A1", treated as a 1x1 range)
// into 0-based inclusive row/col bounds.
func ParseRange(s string) (r1, c1, r2, c2 int, ok bool) {
	s = strings.TrimSpace(s)
	if m := rangePattern.FindStringSubmatch(s); m != nil {
		r1, c1, ok = ParseCellRef(m[1])
		if !ok {
			return 0, 0, 0, 0, false
		}
		r2, c2, ok = ParseCellRef(m[2])
		return r1, c1, r2, c2, ok
	}
	r1, c1, ok = ParseCellRef(s)
	return r1, c1, r1, c1, ok
}

// ColToLetters converts a 0-based column index to its spreadsheet letters
// (0 -> "A", 25 -> "Z", 26 -> "AA").
func ColToLetters(col int) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func lettersToCol(letters string) int {
	col := 0
	for _, ch := range strings.ToUpper(letters) {
		col = col*26 + int(ch-'A'+1)
	}
	return col - 1
}

// FormatCellRef renders a 0-based (row, col) pair as an A1 reference, e.g.
// (0, 0) -> "A1".
func FormatCellRef(row, col int) string {
	return ColToLetters(col) + strconv.Itoa(row+1)
}

// ShiftFormulaByDelta rewrites every relative (non-$-locked) cell reference
// in formula by (dRow, dCol), leaving absolute ($-locked) references and
// sheet-qualifiers untouched. Used when a shared formula's master cell
// formula is replicated to another cell in the shared-formula group.
func ShiftFormulaByDelta(formula string, dRow, dCol int) string {
	return tokenPattern.ReplaceAllStringFunc(formula, func(tok string) string {
		m := tokenPattern.FindStringSubmatch(tok)
		return shiftToken(m, dRow, dCol)
	})
}

func shiftToken(m []string, dRow, dCol int) string {
	sheetQuoted, sheetBare, ref1, ref2 := m[1], m[2], m[3], m[4]
	var sb strings.Builder
	switch {
	case sheetQuoted != "":
		sb.WriteByte('\'')
		sb.WriteString(sheetQuoted)
		sb.WriteString("'!")
	case sheetBare != "":
		sb.WriteString(sheetBare)
		sb.WriteByte('!')
	}
	sb.WriteString(shiftRef(ref1, dRow, dCol))
	if ref2 != "" {
		sb.WriteByte(':')
		sb.WriteString(shiftRef(ref2, dRow, dCol))
	}
	return sb.String()
}

// shiftRef shifts a single $-aware reference like "$A1" or "B$2" by the
// given delta, leaving locked axes untouched.
func shiftRef(ref string, dRow, dCol int) string {
	colLocked := strings.HasPrefix(ref, "$")
	rest := strings.TrimPrefix(ref, "$")
	dollarIdx := strings.Index(rest, "$")
	rowLocked := dollarIdx >= 0
	var letters, digits string
	if rowLocked {
		letters = rest[:dollarIdx]
		digits = rest[dollarIdx+1:]
	} else {
		i := 0
		for i < len(rest) && (rest[i] < '0' || rest[i] > '9') {
			i++
		}
		letters = rest[:i]
		digits = rest[i:]
	}
	col := lettersToCol(letters)
	row, err := strconv.Atoi(digits)
	if err != nil {
		return ref
	}
	if !colLocked {
		col += dCol
	}
	if !rowLocked {
		row += dRow
	}
	if col < 0 {
		col = 0
	}
	if row < 1 {
		row = 1
	}
	var sb strings.Builder
	if colLocked {
		sb.WriteByte('$')
	}
	sb.WriteString(ColToLetters(col))
	if rowLocked {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(row))
	return sb.String()
}
