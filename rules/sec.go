package rules

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/sheetlint/sheetlint/analysis"
	"github.com/sheetlint/sheetlint/config"
	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	register(externalWorkbooks{})
	register(hiddenRowsColumns{})
	register(webURLs{})
}

// linkScope selects between workbook-level and per-sheet reporting for the
// link rules. Unknown values fall back to BOOK.
func linkScopeFrom(s string) string {
	if strings.ToUpper(s) == "SHEET" {
		return "SHEET"
	}
	return "BOOK"
}

// ── SEC001 ──────────────────────────────────────────────────────────────────

// externalWorkbooks reports links to other workbooks: in BOOK scope one
// violation per link-table entry, in SHEET scope the formula cells that
// actually use a "[N]" link index, coalesced into ranges and resolved to
// the linked path.
type externalWorkbooks struct{}

func (externalWorkbooks) ID() string          { return "SEC001" }
func (externalWorkbooks) DisplayName() string { return "External workbook references" }
func (externalWorkbooks) Category() string    { return CategorySecurity }
func (externalWorkbooks) DefaultActive() bool { return true }

func (r externalWorkbooks) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	scope := linkScopeFrom(cfg.GetStringOr("external_workbook_scope", "", "BOOK"))
	var violations []Violation

	if scope == "BOOK" {
		for _, ext := range wb.ExternalWorkbooks {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    BookScope(),
				Message:  fmt.Sprintf("External workbook '%s' found in metadata.", ext.Path),
				Severity: SeverityWarning,
			})
		}
		return violations
	}

	for _, sheet := range wb.Sheets {
		perIndex := map[int][]model.CellRef{}
		for _, cell := range formulaCells(sheet) {
			f, _ := cell.AsFormula()
			for _, idx := range analysis.ExternalIndexRefs(f.Expr) {
				perIndex[idx] = append(perIndex[idx],
					model.CellRef{Row: cell.Row, Col: cell.Col})
			}
		}
		indices := make([]int, 0, len(perIndex))
		for idx := range perIndex {
			indices = append(indices, idx)
		}
		sort.Ints(indices)
		for _, idx := range indices {
			name := "unknown"
			for _, ext := range wb.ExternalWorkbooks {
				if ext.Index == idx {
					name = ext.Path
					break
				}
			}
			for _, rangeStr := range analysis.CoalesceRanges(perIndex[idx]) {
				violations = append(violations, Violation{
					RuleID: r.ID(),
					Scope:  SheetScope(sheet.Name),
					Message: fmt.Sprintf(
						"External workbook reference %s found in range: %s", name, rangeStr),
					Severity: SeverityWarning,
				})
			}
		}
	}
	return violations
}

// ── SEC003 ──────────────────────────────────────────────────────────────────

// hiddenRowsColumns surfaces hidden rows and columns, one violation per
// consecutive run ("A:C", "2:5"). Hidden data is where stale numbers hide.
type hiddenRowsColumns struct{}

func (hiddenRowsColumns) ID() string          { return "SEC003" }
func (hiddenRowsColumns) DisplayName() string { return "Hidden rows/columns" }
func (hiddenRowsColumns) Category() string    { return CategorySecurity }
func (hiddenRowsColumns) DefaultActive() bool { return true }

func (r hiddenRowsColumns) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	var violations []Violation
	for _, sheet := range wb.Sheets {
		for _, group := range groupConsecutive(sheet.HiddenCols) {
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    SheetScope(sheet.Name),
				Message:  fmt.Sprintf("Hidden columns: %s", formatIndexRun(group, cellref.ColToLetters)),
				Severity: SeverityWarning,
			})
		}
		for _, group := range groupConsecutive(sheet.HiddenRows) {
			violations = append(violations, Violation{
				RuleID: r.ID(),
				Scope:  SheetScope(sheet.Name),
				Message: fmt.Sprintf("Hidden rows: %s", formatIndexRun(group, func(i int) string {
					return fmt.Sprintf("%d", i+1)
				})),
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}

// groupConsecutive splits a sorted-deduplicated copy of indices into runs
// of consecutive values.
func groupConsecutive(indices []int) [][]int {
	if len(indices) == 0 {
		return nil
	}
	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	var groups [][]int
	current := []int{sorted[0]}
	for _, idx := range sorted[1:] {
		if idx == current[len(current)-1] {
			continue
		}
		if idx == current[len(current)-1]+1 {
			current = append(current, idx)
		} else {
			groups = append(groups, current)
			current = []int{idx}
		}
	}
	groups = append(groups, current)
	return groups
}

func formatIndexRun(group []int, render func(int) string) string {
	if len(group) == 1 {
		return render(group[0])
	}
	return render(group[0]) + ":" + render(group[len(group)-1])
}

// ── SEC005 ──────────────────────────────────────────────────────────────────

// urlPattern is deliberately permissive; trailing punctuation in prose may
// end up inside the captured URL.
var urlPattern = regexp.MustCompile(`(?:https?|ftp|file)://\S+`)

// probeURL reports whether a URL answers an HTTP HEAD within the timeout.
// A package variable so tests (and offline embedders) can stub the network
// away.
var probeURL = func(url string, timeout time.Duration) bool {
	client := &http.Client{Timeout: timeout}
	resp, err := client.Head(url)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode < 400
}

// webURLs reports URLs found in text cells. Scope BOOK lists each distinct
// URL once; scope SHEET coalesces the cells holding it. Status INVALID
// HEAD-probes each URL and keeps only the unreachable ones.
type webURLs struct{}

func (webURLs) ID() string          { return "SEC005" }
func (webURLs) DisplayName() string { return "Web URL links" }
func (webURLs) Category() string    { return CategorySecurity }
func (webURLs) DefaultActive() bool { return true }

func (r webURLs) Check(wb *model.Workbook, cfg *config.LinterConfig) []Violation {
	scope := linkScopeFrom(cfg.GetStringOr("url_links_scope", "", "BOOK"))
	invalidOnly := strings.ToUpper(cfg.GetStringOr("url_links_status", "", "ALL")) == "INVALID"
	timeout := time.Duration(cfg.GetIntOr("url_timeout_seconds", "", 5)) * time.Second

	var violations []Violation
	var bookURLs []string
	seen := map[string]bool{}

	for _, sheet := range wb.Sheets {
		perURL := map[string][]model.CellRef{}
		var urlOrder []string
		for _, cell := range sortedCells(sheet) {
			text, ok := cell.Value.(model.Text)
			if !ok {
				continue
			}
			for _, url := range urlPattern.FindAllString(string(text), -1) {
				if !seen[url] {
					seen[url] = true
					bookURLs = append(bookURLs, url)
				}
				if _, ok := perURL[url]; !ok {
					urlOrder = append(urlOrder, url)
				}
				perURL[url] = append(perURL[url], model.CellRef{Row: cell.Row, Col: cell.Col})
			}
		}

		if scope != "SHEET" {
			continue
		}
		for _, url := range urlOrder {
			if invalidOnly && probeURL(url, timeout) {
				continue
			}
			for _, rangeStr := range analysis.CoalesceRanges(perURL[url]) {
				message := fmt.Sprintf("External URL '%s' found in range: %s", url, rangeStr)
				if invalidOnly {
					message = fmt.Sprintf("Invalid external URL '%s' (not accessible) in range: %s", url, rangeStr)
				}
				violations = append(violations, Violation{
					RuleID:   r.ID(),
					Scope:    SheetScope(sheet.Name),
					Message:  message,
					Severity: SeverityWarning,
				})
			}
		}
	}

	if scope == "BOOK" {
		for _, url := range bookURLs {
			if invalidOnly && probeURL(url, timeout) {
				continue
			}
			message := fmt.Sprintf("External URL '%s' found in workbook.", url)
			if invalidOnly {
				message = fmt.Sprintf("Invalid external URL '%s' (not accessible) found in workbook.", url)
			}
			violations = append(violations, Violation{
				RuleID:   r.ID(),
				Scope:    BookScope(),
				Message:  message,
				Severity: SeverityWarning,
			})
		}
	}
	return violations
}
