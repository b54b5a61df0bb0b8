// Package odsreader reads OpenDocument spreadsheets (.ods) into the unified
// model. All cell data lives in content.xml; styles.xml and settings.xml
// are optional refinements (number formats, sheet visibility). The reader
// expands repeated rows and cells, converts ISO dates to Excel serial days,
// and rewrites ODS-style references into Excel-style ones — including the
// visible-to-stored row remap that keeps hidden-row workbooks in position
// parity with their XLSX equivalents.
package odsreader

import (
	"archive/zip"
	"fmt"
	"io"
	"strings"

	"github.com/sheetlint/sheetlint/model"
)

func init() {
	model.RegisterFormat(".ods", func(path string) (model.WorkbookReader, error) {
		return Open(path)
	})
}

// Reader reads one .ods archive. It implements model.WorkbookReader.
type Reader struct {
	zr *zip.ReadCloser
	zf *zip.Reader

	// cellFormats maps a cell style name to its resolved number-format
	// string, built lazily from content.xml and styles.xml.
	cellFormats map[string]string
}

// Open opens the named .ods archive.
func Open(name string) (*Reader, error) {
	rc, err := zip.OpenReader(name)
	if err != nil {
		return nil, fmt.Errorf("odsreader: open %q: %w", name, err)
	}
	return &Reader{zr: rc, zf: &rc.Reader}, nil
}

// OpenReader parses an archive from an in-memory ReaderAt.
func OpenReader(ra io.ReaderAt, size int64) (*Reader, error) {
	zf, err := zip.NewReader(ra, size)
	if err != nil {
		return nil, fmt.Errorf("odsreader: open reader: %w", err)
	}
	return &Reader{zf: zf}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() error {
	if r.zr != nil {
		return r.zr.Close()
	}
	return nil
}

// HasMacros reports whether the archive carries Basic or script modules.
func (r *Reader) HasMacros() (bool, error) {
	for _, f := range r.zf.File {
		if strings.HasPrefix(f.Name, "Basic/") || strings.HasPrefix(f.Name, "Scripts/") {
			return true, nil
		}
	}
	return false, nil
}

// ReadExternalWorkbooks lists the external documents content.xml points at:
// linked table sources, hyperlinks, and 'file:///…'# references inside
// formulas. Indices follow discovery order since ODS has no numbered link
// table.
func (r *Reader) ReadExternalWorkbooks() ([]model.ExternalWorkbook, error) {
	links, err := r.externalLinks()
	if err != nil {
		return nil, err
	}
	out := make([]model.ExternalWorkbook, len(links))
	for i, link := range links {
		out[i] = model.ExternalWorkbook{Index: i, Path: link}
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
