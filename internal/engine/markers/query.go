package markers

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/dshills/buffercore/internal/engine/point"
)

// Boundary is a position where at least one marker starts or ends.
type Boundary struct {
	Position point.Point
	Starting []uint32
	Ending   []uint32
}

// BoundaryQuery is the result of FindBoundariesAfter.
type BoundaryQuery struct {
	// ContainingStart lists markers starting before the query start and
	// ending at or after it, ordered by Compare.
	ContainingStart []uint32
	// Boundaries lists boundaries at or after the query start in position
	// order.
	Boundaries []Boundary
}

// FindIntersecting returns markers whose range intersects [start, end].
// Ranges touching at a single point intersect.
func (x *Index) FindIntersecting(start, end point.Point) []uint32 {
	result := roaring.New()
	x.iter.findIntersecting(start, end, result)
	return result.ToArray()
}

// FindContaining returns markers whose range contains [start, end].
func (x *Index) FindContaining(start, end point.Point) []uint32 {
	atStart := roaring.New()
	x.iter.findIntersecting(start, start, atStart)
	if end == start {
		return atStart.ToArray()
	}
	atEnd := roaring.New()
	x.iter.findIntersecting(end, end, atEnd)
	atStart.And(atEnd)
	return atStart.ToArray()
}

// FindContainedIn returns markers lying entirely within [start, end].
func (x *Index) FindContainedIn(start, end point.Point) []uint32 {
	result := roaring.New()
	x.iter.findContainedIn(start, end, result)
	return result.ToArray()
}

// FindStartingIn returns markers whose start lies in [start, end].
func (x *Index) FindStartingIn(start, end point.Point) []uint32 {
	result := roaring.New()
	x.iter.findStartingIn(start, end, result)
	return result.ToArray()
}

// FindStartingAt returns markers starting exactly at position.
func (x *Index) FindStartingAt(position point.Point) []uint32 {
	return x.FindStartingIn(position, position)
}

// FindEndingIn returns markers whose end lies in [start, end].
func (x *Index) FindEndingIn(start, end point.Point) []uint32 {
	result := roaring.New()
	x.iter.findEndingIn(start, end, result)
	return result.ToArray()
}

// FindEndingAt returns markers ending exactly at position.
func (x *Index) FindEndingAt(position point.Point) []uint32 {
	return x.FindEndingIn(position, position)
}

// FindBoundariesAfter returns the markers spanning start and up to maxCount
// boundaries at or after start.
func (x *Index) FindBoundariesAfter(start point.Point, maxCount int) BoundaryQuery {
	return x.iter.findBoundariesAfter(start, maxCount)
}
