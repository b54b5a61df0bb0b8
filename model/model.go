// Package model holds the unified in-memory workbook representation shared
// by xlsxreader and odsreader: a single shape both format-specific readers
// populate so that everything downstream (config, rules, analysis, writer)
// never needs to know which file format it came from.
package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// CellRef identifies a cell by its 0-based row and column.  It is a plain
// comparable struct so it can be used directly as a map key.
type CellRef struct {
	Row int
	Col int
}

// Rect is an inclusive, 0-based rectangular cell range: rows Row..Row+H-1,
// columns Col..Col+W-1.
type Rect struct {
	Row, Col int
	H, W     int
}

// CellValue is the closed set of value kinds a cell can hold. The set is
// fixed and fully enumerated, so a small interface with concrete
// implementing types is used rather than an "any"-typed field.
type CellValue interface {
	isCellValue()
	// IsEmpty reports whether the value represents an absent/blank cell.
	IsEmpty() bool
}

// Empty represents a cell with no value (the zero value of CellValue's
// concrete alternatives; returned by Sheet.Cell for coordinates with no
// entry in the sparse map).
type Empty struct{}

func (Empty) isCellValue()  {}
func (Empty) IsEmpty() bool { return true }

// Number is a numeric cell value.
type Number float64

func (Number) isCellValue()  {}
func (Number) IsEmpty() bool { return false }

// Text is a string cell value.
type Text string

func (Text) isCellValue()  {}
func (Text) IsEmpty() bool { return false }

// Boolean is a boolean cell value.
type Boolean bool

func (Boolean) isCellValue()  {}
func (Boolean) IsEmpty() bool { return false }

// Formula is a formula cell: the stored expression plus an optional cached
// error code (e.g. "#DIV/0!") carried by the source document.
type Formula struct {
	Expr        string
	CachedError string
}

func (Formula) isCellValue()  {}
func (Formula) IsEmpty() bool { return false }

// IsError reports whether the formula carries a cached error result.
func (f Formula) IsError() bool { return f.CachedError != "" }

// NewFormula builds a Formula cell value with no cached error.
func NewFormula(expr string) Formula {
	return Formula{Expr: expr}
}

// NewFormulaWithError builds a Formula cell value carrying a cached error.
func NewFormulaWithError(expr, errCode string) Formula {
	return Formula{Expr: expr, CachedError: errCode}
}

// Cell is one spreadsheet cell: its coordinates, value, and the raw number
// format string applied to it (empty when the source assigns the cell no
// format; an XLSX style that resolves to the built-in format carries
// "General").
type Cell struct {
	Row    int
	Col    int
	Value  CellValue
	NumFmt string
}

// IsFormula reports whether the cell holds a formula.
func (c Cell) IsFormula() bool {
	_, ok := c.Value.(Formula)
	return ok
}

// AsFormula returns the cell's Formula value and true, or the zero Formula
// and false when the cell does not hold a formula.
func (c Cell) AsFormula() (Formula, bool) {
	f, ok := c.Value.(Formula)
	return f, ok
}

// IsError reports whether the cell is a formula with a cached error.
func (c Cell) IsError() bool {
	f, ok := c.AsFormula()
	return ok && f.IsError()
}

// Sheet is one worksheet/table within a Workbook.
type Sheet struct {
	Name    string
	Visible bool

	// Cells is sparse: absent coordinates are implicitly Empty.
	Cells map[CellRef]Cell

	// UsedRangeRows/UsedRangeCols are the 0-based exclusive bounds of the
	// sheet's used range (0 when the sheet has no data). XLSX takes the
	// document's <dimension> when present and otherwise the stored cells;
	// ODS takes the stored and styled cells. Both readers then extend the
	// range over every hidden row and column.
	UsedRangeRows int
	UsedRangeCols int

	HiddenRows []int
	HiddenCols []int

	MergedCells []Rect

	// CFRanges lists the cell-range strings (e.g. "A1:B10") that carry
	// conditional formatting; CFCount counts the individual formatting
	// rules, which can exceed len(CFRanges) when one range holds several.
	CFRanges []string
	CFCount  int

	// FormulaParsingError records a non-fatal formula-parsing failure
	// encountered while loading this sheet (e.g. a malformed shared-formula
	// reference); empty when none occurred.
	FormulaParsingError string

	// SheetPath is the archive-internal path the sheet was read from
	// (e.g. "xl/worksheets/sheet1.xml"), used by rules that need to report
	// a stable per-sheet identifier distinct from Name.
	SheetPath string
}

// NewSheet returns an empty, visible sheet named name.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name, Visible: true, Cells: map[CellRef]Cell{}}
}

// Cell returns the cell at (row, col), or a zero-value Empty cell when no
// entry exists at that coordinate.
func (s *Sheet) Cell(row, col int) Cell {
	if c, ok := s.Cells[CellRef{Row: row, Col: col}]; ok {
		return c
	}
	return Cell{Row: row, Col: col, Value: Empty{}}
}

// AllCells returns every stored cell in the sheet — including format-only
// cells whose value is Empty — in unspecified order.
func (s *Sheet) AllCells() []Cell {
	out := make([]Cell, 0, len(s.Cells))
	for _, c := range s.Cells {
		out = append(out, c)
	}
	return out
}

// CellsInColumn returns every stored cell in the given column.
func (s *Sheet) CellsInColumn(col int) []Cell {
	var out []Cell
	for ref, c := range s.Cells {
		if ref.Col == col {
			out = append(out, c)
		}
	}
	return out
}

// CellsInRow returns every stored cell in the given row.
func (s *Sheet) CellsInRow(row int) []Cell {
	var out []Cell
	for ref, c := range s.Cells {
		if ref.Row == row {
			out = append(out, c)
		}
	}
	return out
}

// LastDataCell returns the maximum row and column (independently) over all
// cells holding a value, or (-1, -1) when the sheet has no data. Cells that
// exist only to carry a number format do not count.
func (s *Sheet) LastDataCell() (row, col int) {
	row, col = -1, -1
	for ref, cell := range s.Cells {
		if cell.Value == nil || cell.Value.IsEmpty() {
			continue
		}
		if ref.Row > row {
			row = ref.Row
		}
		if ref.Col > col {
			col = ref.Col
		}
	}
	return row, col
}

// ExternalWorkbook records one entry of an external workbook link: its
// 0-based index (as referenced by formula tokens like "[1]Sheet1!A1") and
// its stored path/URL.
type ExternalWorkbook struct {
	Index int
	Path  string
}

// Workbook is the unified representation produced by xlsxreader and
// odsreader alike.
type Workbook struct {
	Path              string
	Sheets            []*Sheet
	DefinedNames      map[string]string
	HiddenSheets      []string
	HasMacros         bool
	ExternalWorkbooks []ExternalWorkbook
	// ExternalLinks is derived from ExternalWorkbooks (their Path fields),
	// kept as a separate field for callers that only need the flat list.
	ExternalLinks []string
}

// SheetByName returns the sheet with the given name, or nil if absent.
func (w *Workbook) SheetByName(name string) *Sheet {
	for _, s := range w.Sheets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// SheetNames returns the names of every sheet, in document order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// deriveExternalLinks populates ExternalLinks from ExternalWorkbooks. Open
// calls this once after the reader has supplied ExternalWorkbooks.
func (w *Workbook) deriveExternalLinks() {
	w.ExternalLinks = make([]string, len(w.ExternalWorkbooks))
	for i, ew := range w.ExternalWorkbooks {
		w.ExternalLinks[i] = ew.Path
	}
}

// WorkbookReader is the capability set a format-specific reader must
// implement; Open dispatches to one of them based on file extension.
type WorkbookReader interface {
	ReadSheets() ([]*Sheet, error)
	ReadDefinedNames() (map[string]string, error)
	ReadHiddenSheets() ([]string, error)
	HasMacros() (bool, error)
	ReadExternalWorkbooks() ([]ExternalWorkbook, error)
	Close() error
}

// OpenerFunc constructs a WorkbookReader for an archive at path. xlsxreader
// and odsreader each register one via RegisterFormat.
type OpenerFunc func(path string) (WorkbookReader, error)

var formats = map[string]OpenerFunc{}

// RegisterFormat associates a lower-case file extension (including the
// leading dot, e.g. ".xlsx") with a WorkbookReader constructor. Called from
// the init() of xlsxreader and odsreader so that importing either package
// (or both, via cmd/sheetlint) makes model.Open support that extension.
func RegisterFormat(ext string, open OpenerFunc) {
	formats[strings.ToLower(ext)] = open
}

// Open reads the workbook at path, dispatching to the registered reader for
// its file extension, and assembles the unified Workbook.
func Open(path string) (*Workbook, error) {
	ext := strings.ToLower(filepath.Ext(path))
	open, ok := formats[ext]
	if !ok {
		return nil, fmt.Errorf("model: open %s: unsupported file format %q", path, ext)
	}
	r, err := open(path)
	if err != nil {
		return nil, fmt.Errorf("model: open %s: %w", path, err)
	}
	defer r.Close()

	sheets, err := r.ReadSheets()
	if err != nil {
		return nil, fmt.Errorf("model: open %s: read sheets: %w", path, err)
	}
	definedNames, err := r.ReadDefinedNames()
	if err != nil {
		return nil, fmt.Errorf("model: open %s: read defined names: %w", path, err)
	}
	hidden, err := r.ReadHiddenSheets()
	if err != nil {
		return nil, fmt.Errorf("model: open %s: read hidden sheets: %w", path, err)
	}
	macros, err := r.HasMacros()
	if err != nil {
		return nil, fmt.Errorf("model: open %s: has macros: %w", path, err)
	}
	extWbs, err := r.ReadExternalWorkbooks()
	if err != nil {
		return nil, fmt.Errorf("model: open %s: read external workbooks: %w", path, err)
	}

	wb := &Workbook{
		Path:              path,
		Sheets:            sheets,
		DefinedNames:      definedNames,
		HiddenSheets:      hidden,
		HasMacros:         macros,
		ExternalWorkbooks: extWbs,
	}
	wb.deriveExternalLinks()
	return wb, nil
}
