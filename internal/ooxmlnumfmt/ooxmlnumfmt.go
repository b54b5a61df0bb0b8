// Package ooxmlnumfmt resolves OOXML number-format metadata: the canonical
// built-in numFmtId table, the custom-override resolution used when walking
// cellXfs, and date-format classification of format strings.
//
// Format-string parsing is delegated to [github.com/xuri/nfp]; this package
// only classifies the resulting token stream. A character-scan fallback
// covers format codes nfp cannot section.
package ooxmlnumfmt

import (
	"strings"

	"github.com/xuri/nfp"
)

// BuiltIn maps built-in numFmtId values to their canonical format strings
// per ECMA-376 §18.8.30. IDs absent from this map (29 among them) are
// locale-dependent or otherwise not representable as a static string;
// Resolve reports them as "General".
var BuiltIn = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "MM-DD-YY",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: `(#,##0_);(#,##0)`,
	38: `(#,##0_);[Red](#,##0)`,
	39: `(#,##0.00_);(#,##0.00)`,
	40: `(#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_(* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}

// Resolve returns the effective format string for a numFmtId: the custom
// override when one exists, the built-in string for known IDs, "General"
// otherwise.
func Resolve(id int, custom map[int]string) string {
	if s, ok := custom[id]; ok {
		return s
	}
	if s, ok := BuiltIn[id]; ok {
		return s
	}
	return "General"
}

// StripEscapes removes the backslash escapes XLSX format codes carry
// (e.g. `mm\-dd\-yyyy` -> `mm-dd-yyyy`).
func StripEscapes(fmtStr string) string {
	return strings.ReplaceAll(fmtStr, "\\", "")
}

// IsDateFormat reports whether a format string renders date values: it
// contains day or year tokens, or a month token outside a numeric context.
// "General" (and empty strings) are never date formats.
func IsDateFormat(fmtStr string) bool {
	if fmtStr == "" || strings.Contains(strings.ToLower(fmtStr), "general") {
		return false
	}
	parser := nfp.NumberFormatParser()
	sections := parser.Parse(fmtStr)
	if len(sections) == 0 {
		return scanFormatStr(fmtStr)
	}
	for _, sec := range sections {
		hasDayOrYear := false
		hasMonth := false
		hasTime := false
		for _, tok := range sec.Items {
			if tok.TType != nfp.TokenTypeDateTimes {
				continue
			}
			switch {
			case strings.ContainsAny(tok.TValue, "dDyY"):
				hasDayOrYear = true
			case strings.ContainsAny(tok.TValue, "mM"):
				hasMonth = true
			case strings.ContainsAny(tok.TValue, "hHsS"):
				hasTime = true
			}
		}
		if hasDayOrYear {
			return true
		}
		// A lone m-run between hour and second tokens means minutes, not a
		// month; month only counts when the section has no time tokens.
		if hasMonth && !hasTime {
			return true
		}
	}
	return false
}

// IsDateFormatID reports whether a numFmtId (with its optional custom
// format string) represents a date or datetime format. Built-in IDs are
// classified by the ECMA ranges; custom IDs by their format string.
func IsDateFormatID(id int, fmtStr string) bool {
	switch {
	case id >= 14 && id <= 22:
		// 14-17 dates, 18-21 times, 22 datetime.
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	if id < 164 {
		return false
	}
	return IsDateFormat(fmtStr)
}

// scanFormatStr is the character-scan fallback: date/time token characters
// outside double-quoted literals and bracket sections.
func scanFormatStr(fmtStr string) bool {
	inDoubleQuote := false
	inBracket := false
	for _, ch := range fmtStr {
		switch {
		case inDoubleQuote:
			if ch == '"' {
				inDoubleQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inDoubleQuote = true
		case ch == '[':
			inBracket = true
		case ch == 'd' || ch == 'D' ||
			ch == 'y' || ch == 'Y' ||
			ch == 'h' || ch == 'H':
			return true
		}
	}
	return false
}
