// Package xmlpull adapts encoding/xml's token stream into the small pull
// event vocabulary the spreadsheet readers consume: start tags with
// attributes, end tags, and character data. The decoder never materializes
// a full document; memory stays bounded by element depth plus one token.
//
// Element and attribute names are reported in prefix:local form using a
// fixed table of the OOXML and OpenDocument namespaces (the SpreadsheetML
// main namespace maps to the empty prefix, so workbook parts read as plain
// "sheet", "c", "row"). Unknown namespaces fall back to the local name.
//
// Self-closing tags surface as a StartTag immediately followed by its
// EndTag, which is how encoding/xml reports them; callers that care only
// about attributes need no special empty-tag handling.
package xmlpull

import (
	"encoding/xml"
	"io"
	"strings"
)

// Kind discriminates pull events.
type Kind int

const (
	// StartTag is an opening (or self-closing) element.
	StartTag Kind = iota
	// EndTag is a closing element.
	EndTag
	// Text is character data between elements.
	Text
	// EOF marks the end of the document.
	EOF
)

// Attr is one decoded attribute, name in prefix:local form, value with
// entities already unescaped.
type Attr struct {
	Name  string
	Value string
}

// Event is one pull event.
type Event struct {
	Kind  Kind
	Name  string
	Attrs []Attr
	Text  string
}

// Attr returns the value of the named attribute and whether it was present.
func (e Event) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttrDefault returns the named attribute's value, or def when absent.
func (e Event) AttrDefault(name, def string) string {
	if v, ok := e.Attr(name); ok {
		return v
	}
	return def
}

// nsPrefix maps the namespace URIs the readers care about to their
// conventional prefixes. The SpreadsheetML main, package-relationship, and
// content-type namespaces map to "" so OOXML parts read unprefixed.
var nsPrefix = map[string]string{
	"http://schemas.openxmlformats.org/spreadsheetml/2006/main":              "",
	"http://schemas.openxmlformats.org/package/2006/relationships":           "",
	"http://schemas.openxmlformats.org/package/2006/content-types":           "",
	"http://schemas.openxmlformats.org/officeDocument/2006/relationships":    "r",
	"urn:oasis:names:tc:opendocument:xmlns:office:1.0":                       "office",
	"urn:oasis:names:tc:opendocument:xmlns:table:1.0":                        "table",
	"urn:oasis:names:tc:opendocument:xmlns:text:1.0":                         "text",
	"urn:oasis:names:tc:opendocument:xmlns:style:1.0":                        "style",
	"urn:oasis:names:tc:opendocument:xmlns:datastyle:1.0":                    "number",
	"urn:oasis:names:tc:opendocument:xmlns:config:1.0":                       "config",
	"urn:oasis:names:tc:opendocument:xmlns:fo:1.0":                           "fo",
	"urn:org:documentfoundation:names:experimental:calc:xmlns:calcext:1.0":   "calcext",
	"urn:oasis:names:tc:opendocument:xmlns:manifest:1.0":                     "manifest",
	"http://www.w3.org/1999/xlink":                                           "xlink",
}

func qualify(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	prefix, ok := nsPrefix[n.Space]
	if !ok || prefix == "" {
		return n.Local
	}
	return prefix + ":" + n.Local
}

// Decoder pulls events from an XML stream.
type Decoder struct {
	d *xml.Decoder
	// TrimText drops whitespace-only character data when set (the default);
	// readers that need verbatim text inside mixed content clear it.
	TrimText bool
}

// NewDecoder returns a Decoder reading from r with TrimText enabled.
func NewDecoder(r io.Reader) *Decoder {
	d := xml.NewDecoder(r)
	return &Decoder{d: d, TrimText: true}
}

// Next returns the next event. After the final element it returns an EOF
// event with a nil error; a malformed document yields the decoder's error.
func (d *Decoder) Next() (Event, error) {
	for {
		tok, err := d.d.Token()
		if err == io.EOF {
			return Event{Kind: EOF}, nil
		}
		if err != nil {
			return Event{}, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			ev := Event{Kind: StartTag, Name: qualify(t.Name)}
			if len(t.Attr) > 0 {
				ev.Attrs = make([]Attr, 0, len(t.Attr))
				for _, a := range t.Attr {
					if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
						continue
					}
					ev.Attrs = append(ev.Attrs, Attr{Name: qualify(a.Name), Value: a.Value})
				}
			}
			return ev, nil
		case xml.EndElement:
			return Event{Kind: EndTag, Name: qualify(t.Name)}, nil
		case xml.CharData:
			text := string(t)
			if d.TrimText && strings.TrimSpace(text) == "" {
				continue
			}
			return Event{Kind: Text, Text: text}, nil
		default:
			// Comments, directives, and processing instructions are noise.
		}
	}
}

// SkipElement consumes events until the currently open element (whose
// StartTag the caller just read) is closed. Nested elements of any name are
// consumed too.
func (d *Decoder) SkipElement() error {
	depth := 1
	for depth > 0 {
		ev, err := d.Next()
		if err != nil {
			return err
		}
		switch ev.Kind {
		case StartTag:
			depth++
		case EndTag:
			depth--
		case EOF:
			return io.ErrUnexpectedEOF
		}
	}
	return nil
}
