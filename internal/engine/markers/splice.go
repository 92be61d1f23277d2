package markers

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/dshills/buffercore/internal/engine/point"
)

// Invalidation classifies the markers affected by a splice. Each slice is
// sorted by id.
type Invalidation struct {
	// Touch holds every marker that intersects or borders the edit.
	Touch []uint32
	// Inside holds markers with any part strictly inside the edited range,
	// including markers spanning the whole edit.
	Inside []uint32
	// Overlap holds markers with an endpoint inside the edited range.
	Overlap []uint32
	// Surround holds markers with both endpoints inside the edited range.
	Surround []uint32
}

// IsEmpty returns true if no marker was affected.
func (inv Invalidation) IsEmpty() bool {
	return len(inv.Touch) == 0 && len(inv.Inside) == 0 &&
		len(inv.Overlap) == 0 && len(inv.Surround) == 0
}

type invalidationSets struct {
	touch, inside, overlap, surround *roaring.Bitmap
}

func newInvalidationSets() invalidationSets {
	return invalidationSets{
		touch:    roaring.New(),
		inside:   roaring.New(),
		overlap:  roaring.New(),
		surround: roaring.New(),
	}
}

func (s invalidationSets) result() Invalidation {
	return Invalidation{
		Touch:    s.touch.ToArray(),
		Inside:   s.inside.ToArray(),
		Overlap:  s.overlap.ToArray(),
		Surround: s.surround.ToArray(),
	}
}

// Splice updates marker positions for an edit that replaces the oldExtent
// of text at start with newExtent of text.
func (x *Index) Splice(start, oldExtent, newExtent point.Point) Invalidation {
	clear(x.positionCache)

	sets := newInvalidationSets()
	if x.root == nilNode || (oldExtent.IsZero() && newExtent.IsZero()) {
		return sets.result()
	}

	isInsertion := oldExtent.IsZero()
	startNode := x.iter.insertSpliceBoundary(start, false)
	endNode := x.iter.insertSpliceBoundary(start.Traverse(oldExtent), isInsertion)

	// Lift both boundaries to the top: endNode becomes the root and
	// startNode its left child, so everything strictly inside the edit is
	// startNode's right subtree.
	x.node(startNode).priority = spliceStartPriority
	x.bubbleUp(startNode)
	x.node(endNode).priority = spliceEndPriority
	x.bubbleUp(endNode)

	s, e := x.node(startNode), x.node(endNode)
	startingInside := roaring.New()
	endingInside := roaring.New()

	if isInsertion {
		for _, id := range s.startMarkers.ToArray() {
			if x.exclusive.Contains(id) {
				s.startMarkers.Remove(id)
				s.rightMarkers.Remove(id)
				e.startMarkers.Add(id)
				x.startNodes[id] = endNode
			}
		}
		for _, id := range s.endMarkers.ToArray() {
			if !x.exclusive.Contains(id) || e.startMarkers.Contains(id) {
				s.endMarkers.Remove(id)
				if !e.startMarkers.Contains(id) {
					s.rightMarkers.Add(id)
				}
				e.endMarkers.Add(id)
				x.endNodes[id] = endNode
			}
		}
	} else {
		x.collectSubtreeMarkers(s.right, startingInside, endingInside)

		endingInside.Iterate(func(id uint32) bool {
			e.endMarkers.Add(id)
			if !startingInside.Contains(id) {
				s.rightMarkers.Add(id)
			}
			x.endNodes[id] = endNode
			return true
		})

		e.endMarkers.Iterate(func(id uint32) bool {
			if x.exclusive.Contains(id) && !e.startMarkers.Contains(id) {
				endingInside.Add(id)
			}
			return true
		})

		startingInside.Iterate(func(id uint32) bool {
			e.startMarkers.Add(id)
			x.startNodes[id] = endNode
			return true
		})

		for _, id := range s.startMarkers.ToArray() {
			if x.exclusive.Contains(id) && !s.endMarkers.Contains(id) {
				s.startMarkers.Remove(id)
				s.rightMarkers.Remove(id)
				e.startMarkers.Add(id)
				x.startNodes[id] = endNode
				startingInside.Add(id)
			}
		}
	}

	populateInvalidation(sets, s, e, startingInside, endingInside)

	if s.right != nilNode {
		x.deleteSubtree(s.right)
		s.right = nilNode
	}

	e.leftExtent = start.Traverse(newExtent)

	if s.leftExtent == e.leftExtent {
		x.mergeBoundaries(startNode, endNode)
	} else if e.isMarkerEndpoint() {
		e.priority = x.randomPriority()
		x.bubbleDown(endNode)
	} else {
		x.deleteNode(endNode)
	}

	s = x.node(startNode)
	if s.isMarkerEndpoint() {
		s.priority = x.randomPriority()
		x.bubbleDown(startNode)
	} else {
		x.deleteNode(startNode)
	}

	return sets.result()
}

// mergeBoundaries folds the end boundary into the start boundary when a
// deletion collapses them onto the same position.
func (x *Index) mergeBoundaries(startNode, endNode nodeID) {
	s, e := x.node(startNode), x.node(endNode)

	e.startMarkers.Iterate(func(id uint32) bool {
		s.startMarkers.Add(id)
		s.rightMarkers.Add(id)
		x.startNodes[id] = startNode
		return true
	})
	e.endMarkers.Iterate(func(id uint32) bool {
		s.endMarkers.Add(id)
		if e.leftMarkers.Contains(id) {
			s.leftMarkers.Add(id)
			e.leftMarkers.Remove(id)
		}
		x.endNodes[id] = startNode
		return true
	})
	x.deleteNode(endNode)
}

// collectSubtreeMarkers gathers the start and end ids of every node under n.
func (x *Index) collectSubtreeMarkers(n nodeID, starting, ending *roaring.Bitmap) {
	if n == nilNode {
		return
	}
	stack := []nodeID{n}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := x.node(id)
		starting.Or(nd.startMarkers)
		ending.Or(nd.endMarkers)
		if nd.left != nilNode {
			stack = append(stack, nd.left)
		}
		if nd.right != nilNode {
			stack = append(stack, nd.right)
		}
	}
}

func populateInvalidation(sets invalidationSets, s, e *node, startingInside, endingInside *roaring.Bitmap) {
	// Markers ending at the splice start or starting at its end only touch.
	sets.touch.Or(s.endMarkers)
	sets.touch.Or(e.startMarkers)

	// Markers spanning the whole splice.
	for _, spanning := range []*roaring.Bitmap{s.rightMarkers, e.leftMarkers} {
		sets.touch.Or(spanning)
		sets.inside.Or(spanning)
	}

	for _, inside := range []*roaring.Bitmap{startingInside, endingInside} {
		sets.touch.Or(inside)
		sets.inside.Or(inside)
		sets.overlap.Or(inside)
	}
	sets.surround.Or(roaring.And(startingInside, endingInside))
}
