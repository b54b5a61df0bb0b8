// Package relsxml parses OOXML relationship XML files (.rels) so the
// parsing logic lives in exactly one place instead of being duplicated per
// caller.
package relsxml

import (
	"encoding/xml"
	"fmt"
)

// Relationships is the root element of a .rels XML document.
type Relationships struct {
	Relationships []Relationship `xml:"Relationship"`
}

// Relationship is one entry in a .rels XML document.
type Relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// Parse parses the raw bytes of a .rels XML file and returns a map of
// relationship ID -> target string.
func Parse(data []byte) (map[string]string, error) {
	var r Relationships
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("relsxml: parse: %w", err)
	}
	m := make(map[string]string, len(r.Relationships))
	for _, rel := range r.Relationships {
		m[rel.ID] = rel.Target
	}
	return m, nil
}

// ParseFull parses the raw bytes of a .rels XML file and returns the full
// relationship list (including Type), for callers that need to filter by
// relationship type (e.g. the external-workbook-link relationship type).
func ParseFull(data []byte) ([]Relationship, error) {
	var r Relationships
	if err := xml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("relsxml: parse: %w", err)
	}
	return r.Relationships, nil
}
