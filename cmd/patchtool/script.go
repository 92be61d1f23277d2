package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf16"

	"gopkg.in/yaml.v3"

	"github.com/dshills/buffercore/internal/engine"
	"github.com/dshills/buffercore/internal/engine/point"
)

// Script is a YAML edit script:
//
//	base: "hello\n"        # optional; when set, deletions are checked against it
//	markers:
//	  - name: greeting
//	    start: {row: 0, column: 0}
//	    end: {row: 0, column: 5}
//	edits:
//	  - at: {row: 0, column: 5}
//	    insert: ", world"
//	  - at: {row: 0, column: 0}
//	    delete: "h"
//	    insert: "H"
//
// Edits apply in order, each in the coordinates left by the previous one.
type Script struct {
	Base    *string        `yaml:"base"`
	Markers []ScriptMarker `yaml:"markers"`
	Edits   []ScriptEdit   `yaml:"edits"`
}

// Position is a row/column pair in a script.
type Position struct {
	Row    uint32 `yaml:"row"`
	Column uint32 `yaml:"column"`
}

// Point converts the position.
func (p Position) Point() point.Point {
	return point.Point{Row: p.Row, Column: p.Column}
}

// ScriptEdit replaces Delete at At with Insert.
type ScriptEdit struct {
	At     Position `yaml:"at"`
	Delete string   `yaml:"delete"`
	Insert string   `yaml:"insert"`
}

// ScriptMarker is a marker placed before the edits run.
type ScriptMarker struct {
	Name      string   `yaml:"name"`
	Start     Position `yaml:"start"`
	End       Position `yaml:"end"`
	Exclusive bool     `yaml:"exclusive"`
}

// MarkerResult is the range of a script marker after every edit.
type MarkerResult struct {
	Name  string
	Range point.Range
}

// RecordResult reports the outcome of Script.Record.
type RecordResult struct {
	Markers []MarkerResult
	// Document is the edited base text, or empty when the script has none.
	Document string
}

func parseScript(data []byte) (*Script, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Script
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty script")
		}
		return nil, err
	}
	if len(s.Edits) == 0 {
		return nil, errors.New("script has no edits")
	}
	return &s, nil
}

// Record places the script's markers and applies its edits to eng.
func (s *Script) Record(eng *engine.Engine) (RecordResult, error) {
	var doc *document
	if s.Base != nil {
		doc = newDocument(*s.Base)
	}

	ids := make([]uint32, len(s.Markers))
	for i, m := range s.Markers {
		ids[i] = eng.AddMarker(m.Start.Point(), m.End.Point(), m.Exclusive)
	}

	for i, ed := range s.Edits {
		at := ed.At.Point()
		if doc != nil {
			if err := doc.replace(at, ed.Delete, ed.Insert); err != nil {
				return RecordResult{}, fmt.Errorf("edit %d: %w", i+1, err)
			}
		}
		if _, err := eng.Edit(at, ed.Delete, ed.Insert); err != nil {
			return RecordResult{}, fmt.Errorf("edit %d: %w", i+1, err)
		}
	}

	var result RecordResult
	for i, m := range s.Markers {
		r, err := eng.MarkerRange(ids[i])
		if err != nil {
			return RecordResult{}, err
		}
		result.Markers = append(result.Markers, MarkerResult{Name: m.Name, Range: r})
	}
	if doc != nil {
		result.Document = doc.String()
	}
	return result, nil
}

// document is text addressed in UTF-16 code units.
type document struct {
	units []uint16
}

func newDocument(s string) *document {
	return &document{units: utf16.Encode([]rune(s))}
}

func (d *document) String() string {
	return string(utf16.Decode(d.units))
}

// offset returns the code unit offset of p, which must lie within the text.
func (d *document) offset(p point.Point) (int, error) {
	var row, column uint32
	for i, u := range d.units {
		if row == p.Row && column == p.Column {
			return i, nil
		}
		if u == '\n' {
			if row == p.Row {
				break
			}
			row++
			column = 0
		} else {
			column++
		}
	}
	if row == p.Row && column == p.Column {
		return len(d.units), nil
	}
	return 0, fmt.Errorf("position %v is outside the document", p)
}

func (d *document) span(start, end point.Point) (int, int, error) {
	s, err := d.offset(start)
	if err != nil {
		return 0, 0, err
	}
	e, err := d.offset(end)
	if err != nil {
		return 0, 0, err
	}
	return s, e, nil
}

func (d *document) slice(start, end int) string {
	return string(utf16.Decode(d.units[start:end]))
}

// replace swaps oldText at at for newText, checking that oldText is there.
func (d *document) replace(at point.Point, oldText, newText string) error {
	start, err := d.offset(at)
	if err != nil {
		return err
	}
	old := utf16.Encode([]rune(oldText))
	if start+len(old) > len(d.units) || d.slice(start, start+len(old)) != oldText {
		end := start + len(old)
		if end > len(d.units) {
			end = len(d.units)
		}
		return fmt.Errorf("expected %q at %v, document has %q", oldText, at, d.slice(start, end))
	}

	inserted := utf16.Encode([]rune(newText))
	units := make([]uint16, 0, len(d.units)-len(old)+len(inserted))
	units = append(units, d.units[:start]...)
	units = append(units, inserted...)
	units = append(units, d.units[start+len(old):]...)
	d.units = units
	return nil
}
