// Package rules hosts the lint rule registry, the engine that drives it,
// and the rule implementations. Every rule is a small value implementing
// Rule; rule files register themselves at init time and the engine runs
// them in ascending id order so output is reproducible.
package rules

import (
	"fmt"

	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/model"
)

// Severity grades a violation.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

// String returns the display name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ScopeKind discriminates what a violation points at.
type ScopeKind int

const (
	ScopeBook ScopeKind = iota
	ScopeSheet
	ScopeCell
)

// Scope locates a violation: the whole workbook, one sheet, or one cell.
type Scope struct {
	Kind  ScopeKind
	Sheet string
	Cell  model.CellRef
}

// BookScope locates a violation at workbook level.
func BookScope() Scope { return Scope{Kind: ScopeBook} }

// SheetScope locates a violation on a sheet.
func SheetScope(sheet string) Scope { return Scope{Kind: ScopeSheet, Sheet: sheet} }

// CellScope locates a violation on one cell.
func CellScope(sheet string, row, col int) Scope {
	return Scope{Kind: ScopeCell, Sheet: sheet, Cell: model.CellRef{Row: row, Col: col}}
}

// Location renders the scope for display: "workbook", the sheet name, or
// "Sheet!A1".
func (s Scope) Location() string {
	switch s.Kind {
	case ScopeSheet:
		return s.Sheet
	case ScopeCell:
		return s.Sheet + "!" + cellref.FormatCellRef(s.Cell.Row, s.Cell.Col)
	}
	return "workbook"
}

// Violation is one reported finding.
type Violation struct {
	RuleID   string
	Scope    Scope
	Message  string
	Severity Severity
}
