package odsreader

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/sheetlint/sheetlint/internal/odsref"
	"github.com/sheetlint/sheetlint/internal/xmlpull"
	"github.com/sheetlint/sheetlint/model"
)

// sheetState accumulates one <table:table> while streaming content.xml.
type sheetState struct {
	sheet *model.Sheet

	currentRow int
	currentCol int
	rowRepeat  int

	// visibleCounter numbers visible rows 1-based the way ODS formulas
	// address them; rowMap maps that number to the stored 1-based row.
	// Hidden rows consume no visible number.
	visibleCounter int
	rowMap         map[int]int

	// rawFormulas defers reference normalization to the end of the sheet,
	// when the full visible-row map is known (a formula may point below
	// itself, past hidden rows not yet seen).
	rawFormulas map[model.CellRef]string

	// styledMaxRow/Col track the furthest styled cell; styles extend the
	// used range even where no value lives.
	styledMaxRow int
	styledMaxCol int
}

func newSheetState(name string) *sheetState {
	return &sheetState{
		sheet:          model.NewSheet(name),
		rowRepeat:      1,
		visibleCounter: 1,
		rowMap:         map[int]int{},
		rawFormulas:    map[model.CellRef]string{},
		styledMaxRow:   -1,
		styledMaxCol:   -1,
	}
}

// finalize normalizes the sheet's formulas against the completed row map
// and computes the used range in count form.
func (st *sheetState) finalize() *model.Sheet {
	for ref, raw := range st.rawFormulas {
		cell := st.sheet.Cells[ref]
		f, _ := cell.AsFormula()
		f.Expr = odsref.Normalize(raw, false, st.sheet.Name, st.rowMap)
		cell.Value = f
		st.sheet.Cells[ref] = cell
	}

	maxRow, maxCol := st.styledMaxRow, st.styledMaxCol
	for ref := range st.sheet.Cells {
		if ref.Row > maxRow {
			maxRow = ref.Row
		}
		if ref.Col > maxCol {
			maxCol = ref.Col
		}
	}
	for _, hr := range st.sheet.HiddenRows {
		if hr > maxRow {
			maxRow = hr
		}
	}
	for _, hc := range st.sheet.HiddenCols {
		if hc > maxCol {
			maxCol = hc
		}
	}
	if maxRow >= 0 || maxCol >= 0 {
		st.sheet.UsedRangeRows = maxRow + 1
		st.sheet.UsedRangeCols = maxCol + 1
	}
	return st.sheet
}

// ReadSheets parses content.xml into model sheets, in document order.
func (r *Reader) ReadSheets() ([]*model.Sheet, error) {
	data, err := r.readZipEntry("content.xml")
	if err != nil {
		return nil, fmt.Errorf("odsreader: read content.xml: %w", err)
	}
	hidden, err := r.ReadHiddenSheets()
	if err != nil {
		return nil, err
	}
	hiddenSet := map[string]bool{}
	for _, name := range hidden {
		hiddenSet[name] = true
	}
	formats := r.cellStyleFormats()

	var sheets []*model.Sheet
	var st *sheetState
	cfRange := ""

	finish := func() {
		if st != nil {
			sheet := st.finalize()
			sheet.Visible = !hiddenSet[sheet.Name]
			sheets = append(sheets, sheet)
			st = nil
		}
	}

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	for {
		ev, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("odsreader: parse content.xml: %w", err)
		}
		if ev.Kind == xmlpull.EOF {
			break
		}

		switch ev.Kind {
		case xmlpull.StartTag:
			switch ev.Name {
			case "table:table":
				finish()
				st = newSheetState(ev.AttrDefault("table:name", ""))
			case "table:table-column":
				if st == nil {
					continue
				}
				repeated := atoiDefault(ev.AttrDefault("table:number-columns-repeated", ""), 1)
				if isHiddenVisibility(ev.AttrDefault("table:visibility", "")) {
					for i := 0; i < repeated; i++ {
						st.sheet.HiddenCols = append(st.sheet.HiddenCols, st.currentCol+i)
					}
				}
				st.currentCol += repeated
			case "table:table-row":
				if st == nil {
					continue
				}
				st.rowRepeat = atoiDefault(ev.AttrDefault("table:number-rows-repeated", ""), 1)
				st.currentCol = 0
				if isHiddenVisibility(ev.AttrDefault("table:visibility", "")) {
					for i := 0; i < st.rowRepeat; i++ {
						st.sheet.HiddenRows = append(st.sheet.HiddenRows, st.currentRow+i)
					}
				} else {
					for i := 0; i < st.rowRepeat; i++ {
						st.rowMap[st.visibleCounter] = st.currentRow + i + 1
						st.visibleCounter++
					}
				}
			case "table:table-cell":
				if st == nil {
					continue
				}
				if err := r.parseCell(dec, ev, st, formats); err != nil {
					return nil, fmt.Errorf("odsreader: parse content.xml: %w", err)
				}
			case "table:covered-table-cell":
				if st == nil {
					continue
				}
				repeated := atoiDefault(ev.AttrDefault("table:number-columns-repeated", ""), 1)
				if err := dec.SkipElement(); err != nil {
					return nil, fmt.Errorf("odsreader: parse content.xml: %w", err)
				}
				st.currentCol += repeated
			case "calcext:conditional-format", "table:conditional-formatting":
				cfRange = ev.AttrDefault("calcext:target-range-address",
					ev.AttrDefault("table:target-range-address", ""))
			case "calcext:condition", "table:conditional-formatting-rule":
				if st == nil {
					continue
				}
				st.sheet.CFCount++
				if cfRange != "" {
					st.sheet.CFRanges = append(st.sheet.CFRanges,
						odsref.Normalize(cfRange, false, "", nil))
				}
			}
		case xmlpull.EndTag:
			switch ev.Name {
			case "table:table-row":
				if st != nil {
					st.currentRow += st.rowRepeat
					st.currentCol = 0
					st.rowRepeat = 1
				}
			case "calcext:conditional-format", "table:conditional-formatting":
				cfRange = ""
			case "office:spreadsheet":
				finish()
			}
		}
	}
	finish()
	return sheets, nil
}

// parseCell consumes one <table:table-cell> element, including its text
// content, and stores the resulting cells. The inner loop consumes child
// <text:p> events and returns on the matching end tag.
func (r *Reader) parseCell(dec *xmlpull.Decoder, ev xmlpull.Event, st *sheetState, formats map[string]string) error {
	colRepeat := atoiDefault(ev.AttrDefault("table:number-columns-repeated", ""), 1)
	colsSpanned := atoiDefault(ev.AttrDefault("table:number-columns-spanned", ""), 1)
	rowsSpanned := atoiDefault(ev.AttrDefault("table:number-rows-spanned", ""), 1)
	rawFormula, hasFormula := ev.Attr("table:formula")
	styleName := ev.AttrDefault("table:style-name", "")
	isError := ev.AttrDefault("calcext:value-type", "") == "error"

	var value model.CellValue = model.Empty{}
	hasValue := false
	if v, ok := ev.Attr("office:value"); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			value = model.Number(n)
		} else {
			value = model.Text(v)
		}
		hasValue = true
	} else if v, ok := ev.Attr("office:date-value"); ok {
		if serial, ok := parseODSDate(v); ok {
			value = model.Number(serial)
		} else {
			value = model.Text(v)
		}
		hasValue = true
	} else if v, ok := ev.Attr("office:boolean-value"); ok {
		value = model.Boolean(v == "true")
		hasValue = true
	} else if v, ok := ev.Attr("office:string-value"); ok {
		value = model.Text(v)
		hasValue = true
	}
	errMsg := ev.AttrDefault("calcext:value", ev.AttrDefault("office:string-value", ""))

	if colsSpanned > 1 || rowsSpanned > 1 {
		st.sheet.MergedCells = append(st.sheet.MergedCells, model.Rect{
			Row: st.currentRow, Col: st.currentCol, H: rowsSpanned, W: colsSpanned,
		})
	}

	// Inner event loop: collect <text:p> content until the cell closes.
	var text strings.Builder
	depth := 1
	inP := false
	for depth > 0 {
		inner, err := dec.Next()
		if err != nil {
			return err
		}
		switch inner.Kind {
		case xmlpull.EOF:
			depth = 0
		case xmlpull.StartTag:
			depth++
			if inner.Name == "text:p" {
				inP = true
			}
		case xmlpull.EndTag:
			depth--
			if inner.Name == "text:p" {
				inP = false
			}
		case xmlpull.Text:
			if inP {
				text.WriteString(inner.Text)
			}
		}
	}

	if text.Len() > 0 {
		if isError {
			if errMsg == "" {
				errMsg = text.String()
			}
		} else if !hasValue {
			value = model.Text(text.String())
			hasValue = true
		}
	}
	if isError {
		value = model.NewFormulaWithError("", errMsg)
		hasValue = true
	}

	numFmt := ""
	if styleName != "" {
		numFmt = formats[styleName]
	}

	if hasValue || hasFormula {
		cellValue := value
		if hasFormula {
			if f, ok := cellValue.(model.Formula); ok && f.CachedError != "" {
				cellValue = model.NewFormulaWithError("", f.CachedError)
			} else {
				cellValue = model.NewFormula("")
			}
		}

		// Replicating a formula unchanged across a repeat rectangle would
		// break relative addressing and fabricate circular references, so
		// formulas are stored only when nothing repeats; repeated values
		// replicate normally.
		if hasFormula && (colRepeat > 1 || st.rowRepeat > 1) {
			// covered cells stay empty
		} else {
			for dr := 0; dr < st.rowRepeat; dr++ {
				for dc := 0; dc < colRepeat; dc++ {
					ref := model.CellRef{Row: st.currentRow + dr, Col: st.currentCol + dc}
					st.sheet.Cells[ref] = model.Cell{
						Row: ref.Row, Col: ref.Col, Value: cellValue, NumFmt: numFmt,
					}
					if hasFormula {
						st.rawFormulas[ref] = rawFormula
					}
				}
			}
		}
	}

	if styleName != "" {
		lastRow := st.currentRow + st.rowRepeat - 1
		lastCol := st.currentCol + colRepeat - 1
		if lastRow > st.styledMaxRow {
			st.styledMaxRow = lastRow
		}
		if lastCol > st.styledMaxCol {
			st.styledMaxCol = lastCol
		}
	}

	st.currentCol += colRepeat * colsSpanned
	return nil
}

// parseODSDate converts an office:date-value ("YYYY-MM-DD[Thh:mm:ss[.f]]")
// to an Excel serial day: days since 1900-01-01 counted inclusively, plus
// one past day 59 to honor Excel's phantom 1900-02-29, plus the time
// fraction.
func parseODSDate(s string) (float64, bool) {
	datePart, timePart, _ := strings.Cut(s, "T")
	comps := strings.Split(datePart, "-")
	if len(comps) != 3 {
		return 0, false
	}
	year, err1 := strconv.Atoi(comps[0])
	month, err2 := strconv.Atoi(comps[1])
	day, err3 := strconv.Atoi(comps[2])
	if err1 != nil || err2 != nil || err3 != nil || month < 1 || month > 12 {
		return 0, false
	}

	isLeap := func(y int) bool { return (y%4 == 0 && y%100 != 0) || y%400 == 0 }
	daysInMonth := [13]int{0, 31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

	total := 0
	for y := 1900; y < year; y++ {
		if isLeap(y) {
			total += 366
		} else {
			total += 365
		}
	}
	for m := 1; m < month; m++ {
		if m == 2 && isLeap(year) {
			total += 29
		} else {
			total += daysInMonth[m]
		}
	}
	total += day
	if total > 59 {
		total++ // Excel counts the nonexistent 1900-02-29
	}

	fraction := 0.0
	if timePart != "" {
		parts := strings.Split(timePart, ":")
		if len(parts) >= 2 {
			h, _ := strconv.ParseFloat(parts[0], 64)
			m, _ := strconv.ParseFloat(parts[1], 64)
			sec := 0.0
			if len(parts) > 2 {
				sec, _ = strconv.ParseFloat(parts[2], 64)
			}
			fraction = (h*3600 + m*60 + sec) / 86400
		}
	}
	return float64(total) + fraction, true
}

func isHiddenVisibility(v string) bool {
	return v == "collapse" || v == "filter"
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}
