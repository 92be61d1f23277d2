package patch

import (
	"unicode/utf16"

	"github.com/dshills/buffercore/internal/engine/point"
)

// Text is the literal content of one side of a change. It is either known,
// holding its UTF-16 code units, or unknown with only its size recorded.
// The zero value is unknown text of size zero.
type Text struct {
	units []uint16
	size  uint32
	known bool
}

// Known returns text with the given content.
func Known(s string) Text {
	return knownUnits(utf16.Encode([]rune(s)))
}

// SizeOnly returns text whose content is unknown but whose length in UTF-16
// code units is n.
func SizeOnly(n uint32) Text {
	return Text{size: n}
}

func knownUnits(units []uint16) Text {
	if units == nil {
		units = []uint16{}
	}
	return Text{units: units, size: uint32(len(units)), known: true}
}

// IsKnown reports whether the content is available.
func (t Text) IsKnown() bool {
	return t.known
}

// Size returns the length in UTF-16 code units.
func (t Text) Size() uint32 {
	return t.size
}

// String returns the content, or the empty string when unknown.
func (t Text) String() string {
	if !t.known {
		return ""
	}
	return string(utf16.Decode(t.units))
}

// Extent returns the row/column displacement covered by known text.
func (t Text) Extent() point.Point {
	return unitsExtent(t.units)
}

// Equal reports whether two texts are both known with identical content or
// both unknown with the same size.
func (t Text) Equal(other Text) bool {
	if t.known != other.known || t.size != other.size {
		return false
	}
	if !t.known {
		return true
	}
	for i, u := range t.units {
		if other.units[i] != u {
			return false
		}
	}
	return true
}

// concat joins known texts into a freshly allocated text.
func concat(parts ...[]uint16) Text {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	units := make([]uint16, 0, n)
	for _, p := range parts {
		units = append(units, p...)
	}
	return knownUnits(units)
}

// TextExtent returns the extent of s with columns measured in UTF-16 code
// units and rows broken on '\n'.
func TextExtent(s string) point.Point {
	return unitsExtent(utf16.Encode([]rune(s)))
}

// TextOffsetForPoint returns the UTF-16 offset of p within s, or the length
// of s when p lies beyond its end.
func TextOffsetForPoint(s string, p point.Point) int {
	return unitsOffsetForPoint(utf16.Encode([]rune(s)), p)
}

// TextPointForOffset returns the position reached after offset UTF-16 code
// units of s.
func TextPointForOffset(s string, offset int) point.Point {
	units := utf16.Encode([]rune(s))
	var row, column uint32
	for i := 0; i < offset && i < len(units); i++ {
		if units[i] == '\n' {
			row++
			column = 0
		} else {
			column++
		}
	}
	return point.Point{Row: row, Column: column}
}

func unitsExtent(units []uint16) point.Point {
	var row, column uint32
	for _, u := range units {
		if u == '\n' {
			row++
			column = 0
		} else {
			column++
		}
	}
	return point.Point{Row: row, Column: column}
}

func unitsOffsetForPoint(units []uint16, p point.Point) int {
	if p.IsZero() {
		return 0
	}
	var row, column uint32
	for i, u := range units {
		if row == p.Row && column == p.Column {
			return i
		}
		if u == '\n' {
			row++
			column = 0
		} else {
			column++
		}
	}
	return len(units)
}

// textPrefix returns the leading part of units spanning exactly extent.
func textPrefix(units []uint16, extent point.Point) ([]uint16, bool) {
	if extent.IsZero() {
		return units[:0:0], true
	}
	offset := unitsOffsetForPoint(units, extent)
	prefix := units[:offset:offset]
	if unitsExtent(prefix) != extent {
		return nil, false
	}
	return prefix, true
}

// textSuffix returns what follows the first extent of units.
func textSuffix(units []uint16, extent point.Point) ([]uint16, bool) {
	if extent.IsZero() {
		return units, true
	}
	offset := unitsOffsetForPoint(units, extent)
	if unitsExtent(units[:offset]) != extent {
		return nil, false
	}
	return units[offset:], true
}
