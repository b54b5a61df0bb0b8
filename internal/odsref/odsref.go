// Package odsref implements the ODS formula-reference normalizer: it turns
// OpenDocument's bracketed reference syntax ([.A1], [$Sheet2.$A$1:.B2], …)
// into the plain Excel-style syntax (Sheet2!$A$1:B2) the rest of the module
// works with.
//
// The rewrite is a fixed-order pipeline; later steps assume earlier ones
// already ran, so the order must not be changed:
//
//  1. strip the "of:=" formula prefix
//  2. "[.A1:.B2]"            -> "A1:B2"
//  3. "[$Sheet.$A$1:.B2]"    -> "Sheet!$A$1:B2"
//  4. "$Sheet.A1:.B2"        -> "Sheet!A1:B2"   (unbracketed, database-range targets)
//  5. collapse same-sheet and whole-expression qualifiers when preserveSheet is false
//  6. "[$Sheet.A1]"/"$Sheet.A1" -> "Sheet!A1"
//  7. "[.A1]", "[.A:.C]", "[.1:.3]" -> "A1", "A:C", "1:3"
//  8. degenerate "X:X"       -> "X"
//  9. optional visible->stored row remap for the current sheet
//
// Step 9 exists because ODS stores hidden rows but formulas address visible
// row numbers; remapping restores position parity with XLSX so the
// dependency graph does not see phantom cycles.
package odsref

import (
	"regexp"
	"strconv"
	"strings"
)

// A cell half inside ODS brackets: optional $ column lock, letters, optional
// $ row lock, digits. Letters or digits may be absent for whole-column /
// whole-row references.
const refPart = `\$?[A-Z]{0,3}\$?[0-9]*`

var (
	ofPrefix = regexp.MustCompile(`^of:=`)

	// step 2: "[.A1:.B2]" (both halves same-sheet relative)
	bracketedLocalRange = regexp.MustCompile(`\[\.(` + refPart + `):\.(` + refPart + `)\]`)

	// step 3: "[$Sheet.$A$1:.B2]" or "[$Sheet.A1:$Sheet2.B2]" — first half
	// sheet-qualified, second half either local (".B2") or qualified.
	bracketedSheetRange = regexp.MustCompile(`\[\$?([^.\[\]!:]+)\.(` + refPart + `):(?:\$?([^.\[\]!:]+))?\.(` + refPart + `)\]`)

	// step 4: unbracketed "$Sheet.A1:.B2" / "$Sheet.A1:$Sheet.B2", the shape
	// table:database-range targets use.
	unbracketedSheetRange = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_ ]*)\.(` + refPart + `):(?:\$([A-Za-z_][A-Za-z0-9_ ]*))?\.(` + refPart + `)`)

	// step 6: "[$Sheet.A1]" then bare "$Sheet.A1"
	bracketedSheetCell   = regexp.MustCompile(`\[\$?([^.\[\]!:]+)\.(` + refPart + `)\]`)
	unbracketedSheetCell = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_ ]*)\.(` + refPart + `)`)

	// step 7: "[.A1]" / "[.A]" / "[.1]"
	bracketedLocalCell = regexp.MustCompile(`\[\.(` + refPart + `)\]`)

	// step 8: degenerate range
	degenerateRange = regexp.MustCompile(`\b(\$?[A-Z]{1,3}\$?[0-9]+):(\$?[A-Z]{1,3}\$?[0-9]+)\b`)

	bareCellRef = regexp.MustCompile(`(\$?[A-Z]{1,3}\$?)([0-9]+)\b`)

	qualifiedRef = regexp.MustCompile(`(?:'[^']+'|[A-Za-z_][A-Za-z0-9_ ]*)!\$?[A-Z]{1,3}\$?[0-9]+`)
)

// Normalize rewrites expr from ODS reference syntax to Excel-style syntax.
//
// sheetName is the sheet the expression belongs to; only the row remap uses
// it. When preserveSheet is false, a range whose two halves name the same
// sheet loses both qualifiers, and an expression that is a single dotted
// reference or a single qualified range loses its qualifier, whichever
// sheet it names; a qualified range inside a larger formula and a bracketed
// single cell keep their qualifier (see collapseSheetQualifiers). rowMap, if
// non-nil, remaps visible 1-based row numbers to stored 1-based row numbers
// for bare and sheetName-qualified references (cross-sheet references are
// never remapped, the map only describes this sheet's hidden rows).
func Normalize(expr string, preserveSheet bool, sheetName string, rowMap map[int]int) string {
	s := ofPrefix.ReplaceAllString(expr, "")

	s = bracketedLocalRange.ReplaceAllString(s, "$1:$2")

	s = bracketedSheetRange.ReplaceAllStringFunc(s, func(m string) string {
		g := bracketedSheetRange.FindStringSubmatch(m)
		if g[3] == "" || g[3] == g[1] {
			return g[1] + "!" + g[2] + ":" + g[4]
		}
		return g[1] + "!" + g[2] + ":" + g[3] + "!" + g[4]
	})

	s = unbracketedSheetRange.ReplaceAllStringFunc(s, func(m string) string {
		g := unbracketedSheetRange.FindStringSubmatch(m)
		if g[3] == "" || g[3] == g[1] {
			return g[1] + "!" + g[2] + ":" + g[4]
		}
		return g[1] + "!" + g[2] + ":" + g[3] + "!" + g[4]
	})

	if !preserveSheet {
		s = collapseSheetQualifiers(s)
	}

	s = bracketedSheetCell.ReplaceAllString(s, "$1!$2")
	s = unbracketedSheetCell.ReplaceAllString(s, "$1!$2")

	s = bracketedLocalCell.ReplaceAllString(s, "$1")

	s = degenerateRange.ReplaceAllStringFunc(s, func(m string) string {
		g := degenerateRange.FindStringSubmatch(m)
		if g[1] == g[2] {
			return g[1]
		}
		return m
	})

	if rowMap != nil {
		s = remapRows(s, sheetName, rowMap)
	}

	return s
}

// A reference half that is guaranteed non-empty: a column (with optional
// row) or a bare row number.
const refHalf = `(?:\$?[A-Z]{1,3}\$?[0-9]*|\$?[0-9]+)`

var (
	// "Sheet.A1:Sheet.B2" (dotted or already-banged) with BOTH halves
	// qualified — common in conditional-formatting targets.
	pairQualifiedRange = regexp.MustCompile(`([A-Za-z0-9_]+)[.!](` + refHalf + `):([A-Za-z0-9_]+)[.!](` + refHalf + `)`)
	// A lone dotted reference filling the whole expression.
	wholeDottedCell = regexp.MustCompile(`^([A-Za-z0-9_]+)\.(` + refHalf + `)$`)
	// A qualified range filling the whole expression, already in ! form.
	wholeBangedRange = regexp.MustCompile(`^([A-Za-z0-9_]+)!(` + refHalf + `):(` + refHalf + `)$`)
)

// collapseSheetQualifiers applies the preserve_sheet=false rewrites. The
// rules are independent of which sheet the expression belongs to: a
// both-halves-qualified range collapses when the halves name the same
// sheet (and turns into ! form otherwise), and an expression that IS a
// single dotted reference or a single qualified range loses its
// qualifier. A range whose second half is unqualified keeps its sheet —
// that is what preserves "Sheet2!$A$1:B2" inside larger formulas.
func collapseSheetQualifiers(s string) string {
	s = pairQualifiedRange.ReplaceAllStringFunc(s, func(m string) string {
		g := pairQualifiedRange.FindStringSubmatch(m)
		if g[1] == g[3] {
			if g[2] == g[4] {
				return g[2]
			}
			return g[2] + ":" + g[4]
		}
		return g[1] + "!" + g[2] + ":" + g[3] + "!" + g[4]
	})
	s = wholeDottedCell.ReplaceAllString(s, "$2")
	s = wholeBangedRange.ReplaceAllString(s, "$2:$3")
	return s
}

// remapRows rewrites the row number of every bare or current-sheet-qualified
// cell reference through rowMap. References qualified with another sheet's
// name are protected from the rewrite by placeholdering them out first.
func remapRows(s, sheetName string, rowMap map[int]int) string {
	placeholders := map[string]string{}
	i := 0
	protected := qualifiedRef.ReplaceAllStringFunc(s, func(m string) string {
		qualifier := m[:strings.IndexByte(m, '!')]
		qualifier = strings.Trim(qualifier, "'")
		if qualifier == sheetName {
			return m // current sheet: remapped below like a bare reference
		}
		key := "\x00q" + strconv.Itoa(i) + "\x00"
		placeholders[key] = m
		i++
		return key
	})

	var sb strings.Builder
	last := 0
	for _, loc := range bareCellRef.FindAllStringSubmatchIndex(protected, -1) {
		start, end := loc[0], loc[1]
		// Reject matches glued to the tail of a longer identifier (LOG10,
		// named ranges ending in digits).
		if start > 0 {
			prev := protected[start-1]
			if prev == '_' || prev == '$' ||
				('A' <= prev && prev <= 'Z') || ('a' <= prev && prev <= 'z') || ('0' <= prev && prev <= '9') {
				continue
			}
		}
		colPart := protected[loc[2]:loc[3]]
		row, err := strconv.Atoi(protected[loc[4]:loc[5]])
		if err != nil {
			continue
		}
		if stored, ok := rowMap[row]; ok {
			sb.WriteString(protected[last:start])
			sb.WriteString(colPart)
			sb.WriteString(strconv.Itoa(stored))
			last = end
		}
	}
	sb.WriteString(protected[last:])
	remapped := sb.String()

	for key, orig := range placeholders {
		remapped = strings.Replace(remapped, key, orig, 1)
	}
	return remapped
}
