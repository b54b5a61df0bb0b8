// Package xlsxreader reads OOXML spreadsheet workbooks (.xlsx/.xlsm) into
// the unified model. The archive is parsed in stages: workbook metadata and
// sheet relationships first, then the optional shared-string and style
// parts, then each worksheet stream. Optional parts degrade gracefully; a
// missing workbook.xml is fatal.
package xlsxreader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sheetlint/sheetlint/internal/ooxmlnumfmt"
	"github.com/sheetlint/sheetlint/internal/relsxml"
	"github.com/sheetlint/sheetlint/internal/xmlpull"
	"github.com/sheetlint/sheetlint/model"
)

func init() {
	open := func(path string) (model.WorkbookReader, error) { return Open(path) }
	model.RegisterFormat(".xlsx", open)
	model.RegisterFormat(".xlsm", open)
}

// sheetEntry is one <sheet> element from workbook.xml with its relationship
// target resolved to an archive path.
type sheetEntry struct {
	name  string
	path  string // e.g. "xl/worksheets/sheet1.xml"
	state string // "", "visible", "hidden", "veryHidden"
}

// Reader reads one .xlsx/.xlsm archive. It implements model.WorkbookReader.
type Reader struct {
	zr *zip.ReadCloser // non-nil when opened by file name
	zf *zip.Reader     // always non-nil

	sheets        []sheetEntry
	definedNames  map[string]string
	sharedStrings []string
	// styles holds the effective number-format string per cellXfs entry, in
	// file order, escape backslashes already stripped.
	styles []string
}

// Open opens the named archive and parses its workbook metadata.
func Open(name string) (*Reader, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("xlsxreader: open %q: %w", name, err)
	}
	r := &Reader{zr: rc, zf: &rc.Reader}
	if err := r.parse(); err != nil {
		_ = rc.Close()
		return nil, err
	}
	return r, nil
}

// OpenReader parses an archive from an in-memory ReaderAt. size must be the
// total byte size of the ZIP data.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zf, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("xlsxreader: open reader: %w", err)
	}
	r := &Reader{zf: zf}
	if err := r.parse(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying file handle. It is a no-op for readers
// opened via OpenReader.
func (r *Reader) Close() error {
	if r.zr != nil {
		return r.zr.Close()
	}
	return nil
}

func (r *Reader) parse() error {
	if err := r.parseWorkbookXML(); err != nil {
		return err
	}
	if err := r.parseSharedStrings(); err != nil {
		return err
	}
	r.parseStyles() // optional, degrades to no formats
	return nil
}

// parseWorkbookXML reads xl/_rels/workbook.xml.rels and xl/workbook.xml to
// build the sheet list and the raw defined-name table.
func (r *Reader) parseWorkbookXML() error {
	relsData, err := r.readZipEntry("xl/_rels/workbook.xml.rels")
	if err != nil {
		return fmt.Errorf("xlsxreader: workbook rels: %w", err)
	}
	rels, err := relsxml.Parse(relsData)
	if err != nil {
		return fmt.Errorf("xlsxreader: workbook rels: %w", err)
	}

	data, err := r.readZipEntry("xl/workbook.xml")
	if err != nil {
		return fmt.Errorf("xlsxreader: read workbook.xml: %w", err)
	}

	r.definedNames = map[string]string{}
	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	for {
		ev, err := dec.Next()
		if err != nil {
			return fmt.Errorf("xlsxreader: parse workbook.xml: %w", err)
		}
		if ev.Kind == xmlpull.EOF {
			break
		}
		if ev.Kind != xmlpull.StartTag {
			continue
		}
		switch ev.Name {
		case "sheet":
			name, _ := ev.Attr("name")
			rid, _ := ev.Attr("r:id")
			state := ev.AttrDefault("state", "")
			target, ok := rels[rid]
			if !ok {
				// Bad sheet relationship: skip the sheet rather than abort.
				continue
			}
			r.sheets = append(r.sheets, sheetEntry{
				name:  name,
				path:  resolveTarget(target),
				state: state,
			})
		case "definedName":
			name, _ := ev.Attr("name")
			value, err := readElementText(dec, "definedName")
			if err != nil {
				return fmt.Errorf("xlsxreader: parse workbook.xml: %w", err)
			}
			if isInternalDefinedName(name) {
				continue
			}
			if name != "" && value != "" {
				r.definedNames[name] = value
			}
		}
	}
	return nil
}

// resolveTarget turns a relationship target into an archive path: absolute
// targets are used after stripping the leading slash, relative targets are
// rooted under xl/.
func resolveTarget(target string) string {
	target = strings.TrimPrefix(target, "/")
	if strings.HasPrefix(target, "xl/") {
		return target
	}
	return "xl/" + target
}

func isInternalDefinedName(name string) bool {
	return strings.HasPrefix(name, "_xlnm.") ||
		strings.Contains(name, "_FilterDatabase") ||
		strings.HasPrefix(name, "__Anonymous_Sheet_DB__")
}

// parseSharedStrings reads xl/sharedStrings.xml if present. Each <si> may
// hold a plain <t> or several rich-text runs <r><t>; runs are concatenated.
func (r *Reader) parseSharedStrings() error {
	data, err := r.readZipEntry("xl/sharedStrings.xml")
	if err != nil {
		return nil // optional
	}
	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	dec.TrimText = false // whitespace-only strings are real values

	var current strings.Builder
	inT := false
	for {
		ev, err := dec.Next()
		if err != nil {
			return fmt.Errorf("xlsxreader: shared strings: %w", err)
		}
		switch ev.Kind {
		case xmlpull.EOF:
			return nil
		case xmlpull.StartTag:
			switch ev.Name {
			case "si":
				current.Reset()
			case "t":
				inT = true
			}
		case xmlpull.Text:
			if inT {
				current.WriteString(ev.Text)
			}
		case xmlpull.EndTag:
			switch ev.Name {
			case "t":
				inT = false
			case "si":
				r.sharedStrings = append(r.sharedStrings, current.String())
			}
		}
	}
}

// parseStyles reads xl/styles.xml and emits one effective format string per
// <xf> inside <cellXfs>, in file order. <cellStyleXfs> entries are ignored.
// Failures degrade to an empty style table so workbooks with malformed or
// absent styles still open.
func (r *Reader) parseStyles() {
	data, err := r.readZipEntry("xl/styles.xml")
	if err != nil {
		return // optional
	}
	custom := map[int]string{}
	var table []string

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	inCellXfs := false
	for {
		ev, err := dec.Next()
		if err != nil {
			return // degrade gracefully
		}
		if ev.Kind == xmlpull.EOF {
			break
		}
		switch ev.Kind {
		case xmlpull.StartTag:
			switch ev.Name {
			case "numFmt":
				idStr, _ := ev.Attr("numFmtId")
				code, _ := ev.Attr("formatCode")
				if id, err := strconv.Atoi(idStr); err == nil {
					custom[id] = code
				}
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := 0
				if idStr, ok := ev.Attr("numFmtId"); ok {
					if n, err := strconv.Atoi(idStr); err == nil {
						id = n
					}
				}
				table = append(table, ooxmlnumfmt.StripEscapes(ooxmlnumfmt.Resolve(id, custom)))
			}
		case xmlpull.EndTag:
			if ev.Name == "cellXfs" {
				inCellXfs = false
			}
		}
	}
	r.styles = table
}

// ReadSheets parses every worksheet, in workbook order. Sheets whose
// archive entry is missing (dangling relationships) are skipped silently.
func (r *Reader) ReadSheets() ([]*model.Sheet, error) {
	hidden, err := r.ReadHiddenSheets()
	if err != nil {
		return nil, err
	}
	hiddenSet := map[string]bool{}
	for _, name := range hidden {
		hiddenSet[name] = true
	}

	var sheets []*model.Sheet
	for _, entry := range r.sheets {
		data, err := r.readZipEntry(entry.path)
		if err != nil {
			continue // referenced but absent: tolerate real-world archives
		}
		sheet := r.parseSheetXML(entry.name, data)
		sheet.Visible = !hiddenSet[entry.name]
		sheet.SheetPath = entry.path
		sheets = append(sheets, sheet)
	}
	return sheets, nil
}

// ReadDefinedNames returns the workbook's defined names merged with its
// table definitions (displayName preferred). Internal bookkeeping names are
// already filtered out.
func (r *Reader) ReadDefinedNames() (map[string]string, error) {
	names := make(map[string]string, len(r.definedNames))
	for k, v := range r.definedNames {
		names[k] = v
	}
	for _, f := range r.zf.File {
		if !strings.HasPrefix(f.Name, "xl/tables/") || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		data, err := r.readZipEntry(f.Name)
		if err != nil {
			continue
		}
		name, ref := parseTableXML(data)
		if name != "" && ref != "" && !isInternalDefinedName(name) {
			names[name] = ref
		}
	}
	return names, nil
}

// parseTableXML extracts the table's name (displayName preferred) and cell
// range from one xl/tables/tableN.xml part.
func parseTableXML(data []byte) (name, ref string) {
	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	for {
		ev, err := dec.Next()
		if err != nil || ev.Kind == xmlpull.EOF {
			return name, ref
		}
		if ev.Kind == xmlpull.StartTag && ev.Name == "table" {
			if v, ok := ev.Attr("displayName"); ok && v != "" {
				name = v
			} else if v, ok := ev.Attr("name"); ok {
				name = v
			}
			ref, _ = ev.Attr("ref")
			return name, ref
		}
	}
}

// ReadHiddenSheets returns the names of sheets whose state is hidden or
// veryHidden.
func (r *Reader) ReadHiddenSheets() ([]string, error) {
	var hidden []string
	for _, entry := range r.sheets {
		if entry.state == "hidden" || entry.state == "veryHidden" {
			hidden = append(hidden, entry.name)
		}
	}
	return hidden, nil
}

// HasMacros reports whether the workbook carries a VBA project
// (xl/vbaProject.bin) or any macro sheet.
func (r *Reader) HasMacros() (bool, error) {
	for _, f := range r.zf.File {
		if f.Name == "xl/vbaProject.bin" || strings.HasPrefix(f.Name, "xl/macrosheets/") {
			return true, nil
		}
	}
	return false, nil
}

// ReadExternalWorkbooks resolves the workbook's external-link table: one
// entry per externalLinkN.xml relationship, index N-1, sorted by N. The
// stored path comes from the link part's own .rels file.
func (r *Reader) ReadExternalWorkbooks() ([]model.ExternalWorkbook, error) {
	relsData, err := r.readZipEntry("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, nil
	}
	rels, err := relsxml.ParseFull(relsData)
	if err != nil {
		return nil, nil
	}

	type link struct {
		n        int
		filename string
	}
	var links []link
	for _, rel := range rels {
		if !strings.HasSuffix(rel.Type, "/externalLink") {
			continue
		}
		filename := rel.Target[strings.LastIndex(rel.Target, "/")+1:]
		numStr := strings.TrimSuffix(strings.TrimPrefix(filename, "externalLink"), ".xml")
		n, err := strconv.Atoi(numStr)
		if err != nil {
			continue
		}
		links = append(links, link{n: n, filename: filename})
	}
	sort.Slice(links, func(i, j int) bool { return links[i].n < links[j].n })

	var out []model.ExternalWorkbook
	for _, l := range links {
		extRelsData, err := r.readZipEntry("xl/externalLinks/_rels/" + l.filename + ".rels")
		if err != nil {
			continue
		}
		extRels, err := relsxml.ParseFull(extRelsData)
		if err != nil {
			continue
		}
		for _, rel := range extRels {
			if strings.HasSuffix(rel.Type, "/externalLinkPath") ||
				strings.HasSuffix(rel.Type, "/externalWorkbook") {
				out = append(out, model.ExternalWorkbook{Index: l.n - 1, Path: rel.Target})
			}
		}
	}
	return out, nil
}

// readZipEntry reads the full contents of a named entry from the archive.
func (r *Reader) readZipEntry(name string) ([]byte, error) {
	for _, f := range r.zf.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			data, readErr := io.ReadAll(rc)
			closeErr := rc.Close()
			if readErr != nil {
				return nil, readErr
			}
			if closeErr != nil {
				return nil, closeErr
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("%q not found in archive", name)
}

// readElementText collects the character data up to the matching end tag of
// the currently open element.
func readElementText(dec *xmlpull.Decoder, elem string) (string, error) {
	var sb strings.Builder
	for {
		ev, err := dec.Next()
		if err != nil {
			return "", err
		}
		switch ev.Kind {
		case xmlpull.Text:
			sb.WriteString(ev.Text)
		case xmlpull.EndTag:
			if ev.Name == elem {
				return sb.String(), nil
			}
		case xmlpull.EOF:
			return sb.String(), nil
		}
	}
}
