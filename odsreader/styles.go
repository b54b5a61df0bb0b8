package odsreader

import (
	"bytes"

	"github.com/sheetlint/sheetlint/internal/xmlpull"
)

// cellStyleFormats builds the cellStyleName -> formatString map in one pass
// over content.xml then styles.xml. Two intermediate maps are collected:
// dataStyleName -> formatString from <number:date-style>/<number:time-style>
// children, and cellStyleName -> dataStyleName from table-cell
// <style:style> elements; their composition is the result. Data-style names
// are also kept as direct keys so a cell that names the data style itself
// still resolves — when both resolve, the composed mapping wins.
func (r *Reader) cellStyleFormats() map[string]string {
	if r.cellFormats != nil {
		return r.cellFormats
	}
	dataStyles := map[string]string{}
	cellStyles := map[string]string{}

	for _, name := range []string{"content.xml", "styles.xml"} {
		data, err := r.readZipEntry(name)
		if err != nil {
			continue
		}
		collectStyles(data, dataStyles, cellStyles)
	}

	resolved := map[string]string{}
	for cellStyle, dataStyle := range cellStyles {
		if format, ok := dataStyles[dataStyle]; ok {
			resolved[cellStyle] = format
		}
	}
	for dataStyle, format := range dataStyles {
		if _, ok := resolved[dataStyle]; !ok {
			resolved[dataStyle] = format
		}
	}
	r.cellFormats = resolved
	return resolved
}

// collectStyles scans one styles stream for date/time data styles and
// table-cell style indirections.
func collectStyles(data []byte, dataStyles, cellStyles map[string]string) {
	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	dec.TrimText = false

	inDateStyle := false
	styleName := ""
	var format bytes.Buffer

	for {
		ev, err := dec.Next()
		if err != nil {
			return
		}
		switch ev.Kind {
		case xmlpull.EOF:
			return
		case xmlpull.StartTag:
			switch ev.Name {
			case "number:date-style", "number:time-style":
				inDateStyle = true
				format.Reset()
				styleName = ev.AttrDefault("style:name", "")
			case "style:style":
				if ev.AttrDefault("style:family", "") != "table-cell" {
					continue
				}
				name := ev.AttrDefault("style:name", "")
				dataStyle := ev.AttrDefault("style:data-style-name", "")
				if name != "" && dataStyle != "" {
					cellStyles[name] = dataStyle
				}
			case "number:day":
				if inDateStyle {
					format.WriteString(pick(ev, "dd", "d"))
				}
			case "number:month":
				if inDateStyle {
					if ev.AttrDefault("number:textual", "") == "true" {
						format.WriteString(pick(ev, "mmmm", "mmm"))
					} else {
						format.WriteString(pick(ev, "mm", "m"))
					}
				}
			case "number:year":
				if inDateStyle {
					format.WriteString(pick(ev, "yyyy", "yy"))
				}
			case "number:hours":
				if inDateStyle {
					format.WriteString("hh")
				}
			case "number:minutes":
				if inDateStyle {
					format.WriteString("mm")
				}
			case "number:seconds":
				if inDateStyle {
					format.WriteString("ss")
				}
			}
		case xmlpull.Text:
			// <number:text> literal separators ("/", " ", …) arrive as
			// character data between the token elements.
			if inDateStyle {
				format.WriteString(ev.Text)
			}
		case xmlpull.EndTag:
			if ev.Name == "number:date-style" || ev.Name == "number:time-style" {
				if styleName != "" {
					dataStyles[styleName] = format.String()
				}
				inDateStyle = false
			}
		}
	}
}

// pick returns long when the element's number:style attribute says "long",
// short otherwise.
func pick(ev xmlpull.Event, long, short string) string {
	if ev.AttrDefault("number:style", "") == "long" {
		return long
	}
	return short
}
