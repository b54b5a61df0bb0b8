package xmlpull

import (
	"strings"
	"testing"
)

func collect(t *testing.T, doc string) []Event {
	t.Helper()
	dec := NewDecoder(strings.NewReader(doc))
	var events []Event
	for {
		ev, err := dec.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if ev.Kind == EOF {
			return events
		}
		events = append(events, ev)
	}
}

func TestBasicEvents(t *testing.T) {
	events := collect(t, `<root a="1"><child>text</child><empty/></root>`)
	want := []struct {
		kind Kind
		name string
		text string
	}{
		{StartTag, "root", ""},
		{StartTag, "child", ""},
		{Text, "", "text"},
		{EndTag, "child", ""},
		{StartTag, "empty", ""},
		{EndTag, "empty", ""},
		{EndTag, "root", ""},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		if events[i].Kind != w.kind || events[i].Name != w.name || events[i].Text != w.text {
			t.Fatalf("event %d = %+v, want %+v", i, events[i], w)
		}
	}
	if v, ok := events[0].Attr("a"); !ok || v != "1" {
		t.Fatalf("attr a = %q, %v", v, ok)
	}
}

func TestWhitespaceTrimming(t *testing.T) {
	doc := "<root>\n  <a>x</a>\n</root>"
	for _, ev := range collect(t, doc) {
		if ev.Kind == Text && strings.TrimSpace(ev.Text) == "" {
			t.Fatalf("whitespace-only text not trimmed: %q", ev.Text)
		}
	}

	dec := NewDecoder(strings.NewReader(doc))
	dec.TrimText = false
	sawWhitespace := false
	for {
		ev, err := dec.Next()
		if err != nil || ev.Kind == EOF {
			break
		}
		if ev.Kind == Text && strings.TrimSpace(ev.Text) == "" {
			sawWhitespace = true
		}
	}
	if !sawWhitespace {
		t.Fatalf("TrimText=false should deliver whitespace text")
	}
}

func TestNamespaceQualification(t *testing.T) {
	doc := `<workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"
		xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
		<sheet name="S1" r:id="rId1"/>
	</workbook>`
	events := collect(t, doc)
	var sheet *Event
	for i := range events {
		if events[i].Kind == StartTag && events[i].Name == "sheet" {
			sheet = &events[i]
		}
	}
	if sheet == nil {
		t.Fatalf("no sheet event; main namespace should map to the empty prefix")
	}
	if v, ok := sheet.Attr("r:id"); !ok || v != "rId1" {
		t.Fatalf("r:id = %q, %v", v, ok)
	}
	if v, ok := sheet.Attr("name"); !ok || v != "S1" {
		t.Fatalf("name = %q, %v", v, ok)
	}
}

func TestODSNamespaces(t *testing.T) {
	doc := `<office:document-content
		xmlns:office="urn:oasis:names:tc:opendocument:xmlns:office:1.0"
		xmlns:table="urn:oasis:names:tc:opendocument:xmlns:table:1.0">
		<table:table table:name="Main"/>
	</office:document-content>`
	events := collect(t, doc)
	found := false
	for _, ev := range events {
		if ev.Kind == StartTag && ev.Name == "table:table" {
			found = true
			if v, _ := ev.Attr("table:name"); v != "Main" {
				t.Fatalf("table:name = %q", v)
			}
		}
	}
	if !found {
		t.Fatalf("table:table element not qualified")
	}
}

func TestSkipElement(t *testing.T) {
	dec := NewDecoder(strings.NewReader(`<root><skip><deep><deeper/></deep></skip><after/></root>`))
	// Consume <root> and <skip>, then skip the rest of <skip>.
	for i := 0; i < 2; i++ {
		if _, err := dec.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if err := dec.SkipElement(); err != nil {
		t.Fatal(err)
	}
	ev, err := dec.Next()
	if err != nil || ev.Kind != StartTag || ev.Name != "after" {
		t.Fatalf("after SkipElement got %+v, %v", ev, err)
	}
}
