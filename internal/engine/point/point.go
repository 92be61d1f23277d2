// Package point provides row/column positions and the displacement
// arithmetic shared by the marker index and the patch.
//
// A Point is both an absolute position and a displacement (an extent).
// Traverse applies a displacement to a position; Traversal computes the
// displacement between two positions. Both follow the text rule that a
// displacement with a non-zero row resets the column.
package point

import (
	"fmt"
	"math"
)

// Point represents a row and column position.
// Both Row and Column are 0-indexed.
type Point struct {
	Row    uint32
	Column uint32
}

// Zero is the origin.
var Zero = Point{}

// Infinity sorts after every reachable point. It is used as the open end of
// range queries.
var Infinity = Point{Row: math.MaxUint32, Column: math.MaxUint32}

// New creates a point, clamping negative values to zero and values too large
// for a uint32 to the infinite sentinel.
func New(row, column int) Point {
	return Point{Row: clamp(row), Column: clamp(column)}
}

func clamp(v int) uint32 {
	if v < 0 {
		return 0
	}
	if uint64(v) > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// String returns a human-readable representation of the point.
func (p Point) String() string {
	if p == Infinity {
		return "(inf)"
	}
	return fmt.Sprintf("(%d, %d)", p.Row, p.Column)
}

// Compare returns -1 if p < other, 0 if p == other, 1 if p > other.
func (p Point) Compare(other Point) int {
	if p.Row < other.Row {
		return -1
	}
	if p.Row > other.Row {
		return 1
	}
	if p.Column < other.Column {
		return -1
	}
	if p.Column > other.Column {
		return 1
	}
	return 0
}

// Before returns true if p comes before other.
func (p Point) Before(other Point) bool {
	return p.Compare(other) < 0
}

// After returns true if p comes after other.
func (p Point) After(other Point) bool {
	return p.Compare(other) > 0
}

// IsZero returns true if this is the zero point.
func (p Point) IsZero() bool {
	return p.Row == 0 && p.Column == 0
}

// Traverse returns the position reached by advancing from p by the
// displacement d. Arithmetic saturates at Infinity.
func (p Point) Traverse(d Point) Point {
	if d.Row == 0 {
		return Point{Row: p.Row, Column: addSat(p.Column, d.Column)}
	}
	return Point{Row: addSat(p.Row, d.Row), Column: d.Column}
}

// Traversal returns the displacement that leads from start to p.
// p must not come before start.
func (p Point) Traversal(start Point) Point {
	if p.Row == start.Row {
		return Point{Column: subSat(p.Column, start.Column)}
	}
	return Point{Row: subSat(p.Row, start.Row), Column: p.Column}
}

func addSat(a, b uint32) uint32 {
	if a > math.MaxUint32-b {
		return math.MaxUint32
	}
	return a + b
}

func subSat(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}

// Traverse is the function form of p.Traverse(d).
func Traverse(p, d Point) Point {
	return p.Traverse(d)
}

// Traversal is the function form of p.Traversal(start).
func Traversal(p, start Point) Point {
	return p.Traversal(start)
}

// Min returns the smaller of two points.
func Min(a, b Point) Point {
	if a.Compare(b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of two points.
func Max(a, b Point) Point {
	if a.Compare(b) >= 0 {
		return a
	}
	return b
}

// Range is a pair of points. Start is inclusive.
type Range struct {
	Start Point
	End   Point
}

// NewRange creates a range, swapping the endpoints if they are reversed.
func NewRange(start, end Point) Range {
	if end.Before(start) {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// String returns a human-readable representation of the range.
func (r Range) String() string {
	return fmt.Sprintf("[%s - %s]", r.Start, r.End)
}

// IsEmpty returns true if start equals end.
func (r Range) IsEmpty() bool {
	return r.Start == r.End
}

// Extent returns the displacement from Start to End.
func (r Range) Extent() Point {
	return r.End.Traversal(r.Start)
}

// ContainsPoint returns true if p lies within the closed range.
func (r Range) ContainsPoint(p Point) bool {
	return p.Compare(r.Start) >= 0 && p.Compare(r.End) <= 0
}
