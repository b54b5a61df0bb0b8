package xlsxreader

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/sheetlint/sheetlint/internal/cellref"
	"github.com/sheetlint/sheetlint/internal/xmlpull"
	"github.com/sheetlint/sheetlint/model"
)

// sharedDef is one recorded shared-formula master: the formula, the master
// cell, and the declared ref range (nil when absent or unparseable).
type sharedDef struct {
	formula  string
	row, col int
	rng      *[4]int // r1, c1, r2, c2
}

// parseSheetXML decodes one worksheet stream into a model.Sheet. Parse
// failures do not abort the read: the partial sheet is returned with
// FormulaParsingError set, and rules that need parsed formulas treat such
// sheets as opaque.
func (r *Reader) parseSheetXML(name string, data []byte) *model.Sheet {
	sheet := model.NewSheet(name)

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	sharedFormulas := map[int][]sharedDef{}

	currentRow := 0
	currentCol := 0
	dimRows, dimCols := 0, 0
	haveDim := false

scan:
	for {
		ev, err := dec.Next()
		if err != nil {
			sheet.FormulaParsingError = err.Error()
			break
		}
		if ev.Kind == xmlpull.EOF {
			break
		}
		if ev.Kind != xmlpull.StartTag {
			continue
		}
		switch ev.Name {
		case "dimension":
			if ref, ok := ev.Attr("ref"); ok {
				if _, _, r2, c2, ok := cellref.ParseRange(ref); ok {
					dimRows, dimCols = r2+1, c2+1
					haveDim = true
				}
			}
		case "col":
			min := atoiDefault(ev.AttrDefault("min", ""), 1) - 1
			max := atoiDefault(ev.AttrDefault("max", ""), 1) - 1
			if isTruthy(ev.AttrDefault("hidden", "")) {
				for col := min; col <= max; col++ {
					sheet.HiddenCols = append(sheet.HiddenCols, col)
				}
			}
		case "row":
			if v, ok := ev.Attr("r"); ok {
				currentRow = atoiDefault(v, 1) - 1
			}
			if isTruthy(ev.AttrDefault("hidden", "")) {
				sheet.HiddenRows = append(sheet.HiddenRows, currentRow)
			}
			currentCol = 0
		case "c":
			row, col := currentRow, currentCol
			if v, ok := ev.Attr("r"); ok {
				if pr, pc, ok := cellref.ParseCellRef(v); ok {
					row, col = pr, pc
				}
			}
			currentCol = col + 1

			numFmt := ""
			if v, ok := ev.Attr("s"); ok {
				if idx, err := strconv.Atoi(v); err == nil && idx >= 0 && idx < len(r.styles) {
					numFmt = r.styles[idx]
				}
			}
			tAttr := ev.AttrDefault("t", "")

			cell, err := r.parseCellContents(dec, tAttr, numFmt, row, col, sharedFormulas)
			if err != nil {
				sheet.FormulaParsingError = err.Error()
				break scan
			}
			cell.Row, cell.Col = row, col
			cell.NumFmt = numFmt
			sheet.Cells[model.CellRef{Row: row, Col: col}] = cell
		case "mergeCell":
			if ref, ok := ev.Attr("ref"); ok {
				if r1, c1, r2, c2, ok := cellref.ParseRange(ref); ok {
					sheet.MergedCells = append(sheet.MergedCells, model.Rect{
						Row: r1, Col: c1, H: r2 - r1 + 1, W: c2 - c1 + 1,
					})
				}
			}
		case "conditionalFormatting":
			if sqref, ok := ev.Attr("sqref"); ok {
				sheet.CFRanges = append(sheet.CFRanges, sqref)
			}
		case "cfRule":
			sheet.CFCount++
		}
	}

	// The document dimension wins when present; otherwise derive from data.
	// Either way the range must cover hidden rows/columns that carry
	// properties but no cells, for parity with the ODS reader.
	rows, cols := dimRows, dimCols
	if !haveDim {
		maxRow, maxCol := -1, -1
		for ref := range sheet.Cells {
			if ref.Row > maxRow {
				maxRow = ref.Row
			}
			if ref.Col > maxCol {
				maxCol = ref.Col
			}
		}
		rows, cols = maxRow+1, maxCol+1
	}
	for _, hr := range sheet.HiddenRows {
		if hr+1 > rows {
			rows = hr + 1
		}
	}
	for _, hc := range sheet.HiddenCols {
		if hc+1 > cols {
			cols = hc + 1
		}
	}
	if cols > 0 && rows == 0 {
		rows = 1
	}
	if rows > 0 && cols == 0 {
		cols = 1
	}
	sheet.UsedRangeRows = rows
	sheet.UsedRangeCols = cols

	return sheet
}

// parseCellContents consumes the children of one <c> element (up to and
// including its end tag) and produces the cell value.
func (r *Reader) parseCellContents(dec *xmlpull.Decoder, tAttr, numFmt string, row, col int, shared map[int][]sharedDef) (model.Cell, error) {
	var value model.CellValue = model.Empty{}
	formula := ""
	haveFormula := false
	cachedError := ""
	sharedSI := -1
	sharedRef := ""
	isShared := false

	for {
		ev, err := dec.Next()
		if err != nil {
			return model.Cell{}, err
		}
		switch ev.Kind {
		case xmlpull.EOF:
			return model.Cell{Value: value}, nil
		case xmlpull.EndTag:
			if ev.Name == "c" {
				return r.finishCell(value, formula, haveFormula, cachedError, isShared, sharedSI, sharedRef, row, col, shared), nil
			}
		case xmlpull.StartTag:
			switch ev.Name {
			case "v":
				text, err := readElementText(dec, "v")
				if err != nil {
					return model.Cell{}, err
				}
				value = r.interpretValue(tAttr, text, numFmt, &cachedError)
			case "f":
				if v, ok := ev.Attr("t"); ok && v == "shared" {
					isShared = true
				}
				if v, ok := ev.Attr("si"); ok {
					if n, err := strconv.Atoi(v); err == nil {
						sharedSI = n
					}
				}
				if v, ok := ev.Attr("ref"); ok {
					sharedRef = v
				}
				text, err := readElementText(dec, "f")
				if err != nil {
					return model.Cell{}, err
				}
				if text != "" {
					formula = text
					haveFormula = true
				}
			case "is":
				text, err := readInlineString(dec)
				if err != nil {
					return model.Cell{}, err
				}
				value = model.Text(text)
			}
		}
	}
}

// interpretValue maps a raw <v> text to a CellValue according to the cell's
// t attribute. For t="e" the error token is stashed for finishCell, which
// decides between a cached error and an array formula.
func (r *Reader) interpretValue(tAttr, text, numFmt string, cachedError *string) model.CellValue {
	switch tAttr {
	case "s":
		idx, err := strconv.Atoi(text)
		if err != nil || idx < 0 || idx >= len(r.sharedStrings) {
			return model.Text("")
		}
		return model.Text(r.sharedStrings[idx])
	case "b":
		return model.Boolean(text == "1")
	case "e":
		*cachedError = text
		return model.Empty{}
	case "str":
		return model.Text(text)
	default:
		// Format "@" forces text even for parseable numbers.
		if numFmt == "@" {
			return model.Text(text)
		}
		if n, err := strconv.ParseFloat(text, 64); err == nil {
			return model.Number(n)
		}
		return model.Text(text)
	}
}

// finishCell resolves shared formulas and the error-versus-array-formula
// ambiguity once the whole <c> element has been consumed.
func (r *Reader) finishCell(value model.CellValue, formula string, haveFormula bool, cachedError string, isShared bool, sharedSI int, sharedRef string, row, col int, shared map[int][]sharedDef) model.Cell {
	if isShared && sharedSI >= 0 {
		if haveFormula {
			var rng *[4]int
			if sharedRef != "" {
				if r1, c1, r2, c2, ok := cellref.ParseRange(sharedRef); ok {
					rng = &[4]int{r1, c1, r2, c2}
				}
			}
			shared[sharedSI] = append(shared[sharedSI], sharedDef{
				formula: formula, row: row, col: col, rng: rng,
			})
		} else if defs := shared[sharedSI]; len(defs) > 0 {
			// Pick the definition whose declared range contains this cell,
			// falling back to the last definition seen.
			def := defs[len(defs)-1]
			for _, d := range defs {
				if d.rng != nil &&
					row >= d.rng[0] && row <= d.rng[2] &&
					col >= d.rng[1] && col <= d.rng[3] {
					def = d
					break
				}
			}
			formula = cellref.ShiftFormulaByDelta(def.formula, row-def.row, col-def.col)
			haveFormula = true
		}
	}

	if haveFormula {
		formula = strings.TrimPrefix(formula, "=")
		// t="e" with a range operator in the formula marks an
		// array-returning formula, not a cached error.
		if cachedError != "" && !strings.Contains(formula, ":") {
			return model.Cell{Value: model.NewFormulaWithError(formula, cachedError)}
		}
		return model.Cell{Value: model.NewFormula(formula)}
	}
	return model.Cell{Value: value}
}

// readInlineString collects the concatenated <t> runs of one <is> element.
func readInlineString(dec *xmlpull.Decoder) (string, error) {
	var sb strings.Builder
	inT := false
	for {
		ev, err := dec.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case xmlpull.EOF:
			return sb.String(), nil
		case xmlpull.StartTag:
			if ev.Name == "t" {
				inT = true
			}
		case xmlpull.Text:
			if inT {
				sb.WriteString(ev.Text)
			}
		case xmlpull.EndTag:
			switch ev.Name {
			case "t":
				inT = false
			case "is":
				return sb.String(), nil
			}
		}
	}
}

func atoiDefault(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func isTruthy(s string) bool {
	return s == "1" || s == "true"
}
