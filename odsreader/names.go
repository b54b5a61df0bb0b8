package odsreader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sheetlint/sheetlint/internal/odsref"
	"github.com/sheetlint/sheetlint/internal/xmlpull"
)

// ReadDefinedNames collects <table:named-range> and <table:database-range>
// entries from content.xml, with range addresses rewritten to Excel style
// (sheet qualifiers preserved). LibreOffice's anonymous database ranges are
// bookkeeping, not user names, and are discarded.
func (r *Reader) ReadDefinedNames() (map[string]string, error) {
	names := map[string]string{}
	data, err := r.readZipEntry("content.xml")
	if err != nil {
		return names, nil
	}

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	inNamed := false
	inDB := false
	for {
		ev, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("odsreader: defined names: %w", err)
		}
		switch ev.Kind {
		case xmlpull.EOF:
			return names, nil
		case xmlpull.StartTag:
			switch ev.Name {
			case "table:named-expressions":
				inNamed = true
			case "table:database-ranges":
				inDB = true
			case "table:named-range":
				if !inNamed {
					continue
				}
				name := ev.AttrDefault("table:name", "")
				addr := ev.AttrDefault("table:cell-range-address", "")
				if name != "" && addr != "" {
					names[name] = odsref.Normalize(addr, true, "", nil)
				}
			case "table:database-range":
				if !inDB {
					continue
				}
				name := ev.AttrDefault("table:name", "")
				addr := ev.AttrDefault("table:target-range-address", "")
				if name == "" || addr == "" || strings.HasPrefix(name, "__Anonymous_Sheet_DB__") {
					continue
				}
				names[name] = odsref.Normalize(addr, true, "", nil)
			}
		case xmlpull.EndTag:
			switch ev.Name {
			case "table:named-expressions":
				inNamed = false
			case "table:database-ranges":
				inDB = false
			}
		}
	}
}

// ReadHiddenSheets detects hidden sheets through their table style
// (<style:table-properties table:display="false">); when the styles say
// nothing, settings.xml's Tables section serves as fallback — sheets absent
// from the visible-table list are hidden.
func (r *Reader) ReadHiddenSheets() ([]string, error) {
	data, err := r.readZipEntry("content.xml")
	if err != nil {
		return nil, nil
	}

	hiddenStyles := map[string]bool{}
	type tableRef struct{ name, style string }
	var tables []tableRef

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	styleName := ""
	for {
		ev, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("odsreader: hidden sheets: %w", err)
		}
		if ev.Kind == xmlpull.EOF {
			break
		}
		if ev.Kind != xmlpull.StartTag {
			if ev.Kind == xmlpull.EndTag && ev.Name == "style:style" {
				styleName = ""
			}
			continue
		}
		switch ev.Name {
		case "style:style":
			styleName = ev.AttrDefault("style:name", "")
		case "style:table-properties":
			if styleName != "" && ev.AttrDefault("table:display", "") == "false" {
				hiddenStyles[styleName] = true
			}
		case "table:table":
			tables = append(tables, tableRef{
				name:  ev.AttrDefault("table:name", ""),
				style: ev.AttrDefault("table:style-name", ""),
			})
		}
	}

	var hidden []string
	for _, t := range tables {
		if hiddenStyles[t.style] {
			hidden = append(hidden, t.name)
		}
	}
	if len(hidden) > 0 {
		return hidden, nil
	}

	// Style pass found nothing: complement the settings.xml visible list
	// against the full sheet list.
	visible := r.visibleSheetsFromSettings()
	if len(visible) == 0 {
		return nil, nil
	}
	for _, t := range tables {
		if !visible[t.name] {
			hidden = append(hidden, t.name)
		}
	}
	return hidden, nil
}

// visibleSheetsFromSettings reads the per-sheet view entries under the
// "Tables" config section of settings.xml. An absent or unreadable
// settings.xml yields an empty set, which callers treat as "no signal".
func (r *Reader) visibleSheetsFromSettings() map[string]bool {
	visible := map[string]bool{}
	data, err := r.readZipEntry("settings.xml")
	if err != nil {
		return visible
	}
	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	inTables := false
	for {
		ev, err := dec.Next()
		if err != nil || ev.Kind == xmlpull.EOF {
			return visible
		}
		switch ev.Kind {
		case xmlpull.StartTag:
			switch ev.Name {
			case "config:config-item-map-named":
				if ev.AttrDefault("config:name", "") == "Tables" {
					inTables = true
				}
			case "config:config-item-map-entry":
				if inTables {
					if name := ev.AttrDefault("config:name", ""); name != "" {
						visible[name] = true
					}
				}
			}
		case xmlpull.EndTag:
			if ev.Name == "config:config-item-map-named" {
				inTables = false
			}
		}
	}
}

// externalLinks scans content.xml for references to other documents:
// linked-table sources, non-fragment hyperlinks, and 'file:///…'# paths
// embedded in formulas. file:// prefixes are stripped for display parity
// with the XLSX link table.
func (r *Reader) externalLinks() ([]string, error) {
	data, err := r.readZipEntry("content.xml")
	if err != nil {
		return nil, nil
	}

	seen := map[string]bool{}
	var links []string
	add := func(link string) {
		if link == "" || seen[link] {
			return
		}
		seen[link] = true
		links = append(links, link)
	}

	dec := xmlpull.NewDecoder(bytes.NewReader(data))
	for {
		ev, err := dec.Next()
		if err != nil {
			return nil, fmt.Errorf("odsreader: external links: %w", err)
		}
		if ev.Kind == xmlpull.EOF {
			break
		}
		if ev.Kind != xmlpull.StartTag {
			continue
		}
		switch ev.Name {
		case "text:a":
			if href := ev.AttrDefault("xlink:href", ""); href != "" && !strings.HasPrefix(href, "#") {
				add(href)
			}
		case "table:table-source":
			add(ev.AttrDefault("xlink:href", ""))
		case "table:table-cell":
			formula := ev.AttrDefault("table:formula", "")
			if idx := strings.Index(formula, "'file:///"); idx >= 0 {
				rest := formula[idx+1:]
				if end := strings.Index(rest, "'#"); end >= 0 {
					add(rest[:end])
				}
			}
		}
	}

	for i, link := range links {
		links[i] = strings.TrimPrefix(link, "file://")
	}
	return links, nil
}
