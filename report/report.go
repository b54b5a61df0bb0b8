// Package report renders violation lists for the CLI: a human-readable
// aligned table and a JSON form for tooling.
package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sheetlint/sheetlint/rules"
)

// FormatTable renders violations as an aligned text table, one row per
// violation, ordered as given.
func FormatTable(violations []rules.Violation) string {
	if len(violations) == 0 {
		return "No violations found.\n"
	}

	headers := []string{"RULE", "SEVERITY", "LOCATION", "MESSAGE"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	rows := make([][4]string, len(violations))
	for i, v := range violations {
		rows[i] = [4]string{v.RuleID, v.Severity.String(), v.Scope.Location(), v.Message}
		for j := 0; j < 3; j++ {
			if len(rows[i][j]) > widths[j] {
				widths[j] = len(rows[i][j])
			}
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-*s  %-*s  %-*s  %s\n",
		widths[0], headers[0], widths[1], headers[1], widths[2], headers[2], headers[3])
	for _, row := range rows {
		fmt.Fprintf(&sb, "%-*s  %-*s  %-*s  %s\n",
			widths[0], row[0], widths[1], row[1], widths[2], row[2], row[3])
	}
	fmt.Fprintf(&sb, "\n%d violation(s) found.\n", len(violations))
	return sb.String()
}

// jsonViolation is the stable wire shape of one violation.
type jsonViolation struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Scope    string `json:"scope"`
	Sheet    string `json:"sheet,omitempty"`
	Cell     string `json:"cell,omitempty"`
	Location string `json:"location"`
	Message  string `json:"message"`
}

// FormatJSON renders violations as an indented JSON array.
func FormatJSON(violations []rules.Violation) ([]byte, error) {
	out := make([]jsonViolation, len(violations))
	for i, v := range violations {
		jv := jsonViolation{
			Rule:     v.RuleID,
			Severity: v.Severity.String(),
			Location: v.Scope.Location(),
			Message:  v.Message,
		}
		switch v.Scope.Kind {
		case rules.ScopeBook:
			jv.Scope = "book"
		case rules.ScopeSheet:
			jv.Scope = "sheet"
			jv.Sheet = v.Scope.Sheet
		case rules.ScopeCell:
			jv.Scope = "cell"
			jv.Sheet = v.Scope.Sheet
			jv.Cell = v.Scope.Location()
		}
		out[i] = jv
	}
	return json.MarshalIndent(out, "", "  ")
}
