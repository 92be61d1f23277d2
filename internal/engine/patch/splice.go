package patch

import "github.com/dshills/buffercore/internal/engine/point"

// splice applies an edit in new coordinates. It returns false, leaving the
// patch untouched, when the literal texts of the edit and the changes it
// overlaps cannot be sliced to the extents the tree requires.
func (p *Patch) splice(newStart, oldExtent, newExtent point.Point, oldText, newText Text) bool {
	if oldExtent.IsZero() && newExtent.IsZero() {
		return true
	}
	if !newText.IsKnown() {
		// The wire format has no slot for the size of unknown new text.
		newText = Text{}
	}

	newDeletionEnd := newStart.Traverse(oldExtent)
	newInsertionEnd := newStart.Traverse(newExtent)

	if p.root == nilNode {
		p.root = p.buildNode(nilNode, nilNode, newStart, newStart, oldExtent, newExtent, oldText, newText)
		return true
	}

	lowerBound := p.splayNodeStartingBefore(newSpace, newStart)

	deletedText, ok := p.computeOldText(oldText, newStart, newDeletionEnd)
	if !ok {
		return false
	}
	if !deletedText.IsKnown() {
		deletedText = SizeOnly(p.computeOldTextSize(oldText.Size(), newStart, newDeletionEnd))
	}

	upperBound := p.splayNodeEndingAfter(newSpace, newDeletionEnd, newStart)
	if lowerBound != nilNode && upperBound != nilNode && lowerBound != upperBound {
		if left := p.node(upperBound).left; left != lowerBound {
			p.rotateRight(lowerBound, left, upperBound)
		}
	}

	e := edit{
		newStart:        newStart,
		newDeletionEnd:  newDeletionEnd,
		newInsertionEnd: newInsertionEnd,
		newExtent:       newExtent,
		oldText:         deletedText,
		newText:         newText,
	}
	switch {
	case lowerBound != nilNode && upperBound != nilNode:
		return p.spliceBetween(e, lowerBound, upperBound)
	case lowerBound != nilNode:
		return p.spliceAfter(e, lowerBound)
	case upperBound != nilNode:
		return p.spliceBefore(e, upperBound)
	default:
		p.spliceReplacingAll(e)
		return true
	}
}

// edit carries the derived quantities of one splice.
type edit struct {
	newStart        point.Point
	newDeletionEnd  point.Point
	newInsertionEnd point.Point
	newExtent       point.Point
	oldText         Text
	newText         Text
}

// overlapsEnd reports whether an edit starting at start reaches a change
// ending at end.
func (p *Patch) overlapsEnd(start, end point.Point) bool {
	return start.Before(end) || (p.mergeAdjacent && start == end)
}

// overlapsStart reports whether an edit ending at end reaches a change
// starting at start.
func (p *Patch) overlapsStart(end, start point.Point) bool {
	return end.After(start) || (p.mergeAdjacent && end == start)
}

// spliceBetween handles an edit with a change on each side. lower is either
// upper itself or upper's left child.
func (p *Patch) spliceBetween(e edit, lower, upper nodeID) bool {
	lo, up := p.node(lower), p.node(upper)
	lowerOldStart := lo.oldDistanceFromLeftAncestor
	lowerNewStart := lo.newDistanceFromLeftAncestor
	upperOldStart := up.oldDistanceFromLeftAncestor
	upperNewStart := up.newDistanceFromLeftAncestor
	lowerOldEnd := lowerOldStart.Traverse(lo.oldExtent)
	lowerNewEnd := lowerNewStart.Traverse(lo.newExtent)
	upperOldEnd := upperOldStart.Traverse(up.oldExtent)
	upperNewEnd := upperNewStart.Traverse(up.newExtent)

	var overlapsLower, overlapsUpper bool
	if p.mergeAdjacent {
		overlapsLower = e.newStart.Compare(lowerNewEnd) <= 0
		overlapsUpper = e.newDeletionEnd.Compare(upperNewStart) >= 0
	} else {
		// Both bounds may be the same change; an edit touching it at either
		// end overlaps neither side.
		overlapsLower = e.newStart.Before(lowerNewEnd) && e.newDeletionEnd.After(lowerNewStart)
		overlapsUpper = e.newStart.Before(upperNewEnd) && e.newDeletionEnd.After(upperNewStart)
	}

	switch {
	case overlapsLower && overlapsUpper:
		prefixExtent := e.newStart.Traversal(lowerNewStart)
		suffixExtent := upperNewEnd.Traversal(e.newDeletionEnd)
		var merged Text
		if e.newText.IsKnown() && lo.newText.IsKnown() && up.newText.IsKnown() {
			prefix, ok := textPrefix(lo.newText.units, prefixExtent)
			if !ok {
				return false
			}
			suffix, ok := textSuffix(up.newText.units, e.newDeletionEnd.Traversal(upperNewStart))
			if !ok {
				return false
			}
			merged = concat(prefix, e.newText.units, suffix)
		}

		up.newText = merged
		up.oldText = e.oldText
		up.oldExtent = upperOldEnd.Traversal(lowerOldStart)
		up.newExtent = prefixExtent.Traverse(e.newExtent).Traverse(suffixExtent)
		up.oldDistanceFromLeftAncestor = lowerOldStart
		up.newDistanceFromLeftAncestor = lowerNewStart

		if lower == upper {
			if up.oldExtent.IsZero() && up.newExtent.IsZero() {
				p.deleteRoot()
				return true
			}
		} else {
			up.left = lo.left
			lo.left = nilNode
			p.deleteSubtree(lower)
		}
		p.computeSubtreeTextSizes(upper)

	case overlapsUpper:
		oldSpliceStart := lowerOldEnd.Traverse(e.newStart.Traversal(lowerNewEnd))
		var merged Text
		if e.newText.IsKnown() && up.newText.IsKnown() {
			suffix, ok := textSuffix(up.newText.units, e.newDeletionEnd.Traversal(upperNewStart))
			if !ok {
				return false
			}
			merged = concat(e.newText.units, suffix)
		}

		up.newText = merged
		up.oldText = e.oldText
		up.oldDistanceFromLeftAncestor = oldSpliceStart
		up.newDistanceFromLeftAncestor = e.newStart
		up.oldExtent = upperOldEnd.Traversal(oldSpliceStart)
		up.newExtent = e.newExtent.Traverse(upperNewEnd.Traversal(e.newDeletionEnd))

		p.deleteSubtree(lo.right)
		lo.right = nilNode
		if up.left != lower {
			p.deleteSubtree(up.left)
			up.left = nilNode
		}
		p.computeSubtreeTextSizes(lower)
		p.computeSubtreeTextSizes(upper)

	case overlapsLower:
		rightmostOldEnd, rightmostNewEnd := p.subtreeEnd(lower)
		oldDeletionEnd := rightmostOldEnd.Traverse(e.newDeletionEnd.Traversal(rightmostNewEnd))
		prefixExtent := e.newStart.Traversal(lowerNewStart)
		var merged Text
		if e.newText.IsKnown() && lo.newText.IsKnown() {
			prefix, ok := textPrefix(lo.newText.units, prefixExtent)
			if !ok {
				return false
			}
			merged = concat(prefix, e.newText.units)
		}

		up.newDistanceFromLeftAncestor = e.newInsertionEnd.Traverse(upperNewStart.Traversal(e.newDeletionEnd))
		lo.oldExtent = oldDeletionEnd.Traversal(lowerOldStart)
		lo.newExtent = prefixExtent.Traverse(e.newExtent)
		lo.newText = merged
		lo.oldText = e.oldText
		p.deleteSubtree(lo.right)
		lo.right = nilNode
		p.rotateRight(lower, upper, nilNode)

	case lower == upper:
		// Insertion exactly at the start of an existing change.
		newRoot := p.buildNode(p.node(upper).left, upper, upperOldStart, upperNewStart, point.Zero, e.newExtent, e.oldText, e.newText)
		p.root = newRoot
		up = p.node(upper)
		up.left = nilNode
		up.oldDistanceFromLeftAncestor = point.Zero
		up.newDistanceFromLeftAncestor = point.Zero
		p.computeSubtreeTextSizes(upper)
		p.computeSubtreeTextSizes(newRoot)

	default:
		rightmostOldEnd, rightmostNewEnd := p.subtreeEnd(lower)
		oldSpliceStart := lowerOldEnd.Traverse(e.newStart.Traversal(lowerNewEnd))
		oldDeletionEnd := rightmostOldEnd.Traverse(e.newDeletionEnd.Traversal(rightmostNewEnd))
		newRoot := p.buildNode(lower, upper, oldSpliceStart, e.newStart, oldDeletionEnd.Traversal(oldSpliceStart), e.newExtent, e.oldText, e.newText)
		p.root = newRoot
		lo, up = p.node(lower), p.node(upper)
		p.deleteSubtree(lo.right)
		lo.right = nilNode
		up.left = nilNode
		up.oldDistanceFromLeftAncestor = upperOldStart.Traversal(oldDeletionEnd)
		up.newDistanceFromLeftAncestor = upperNewStart.Traversal(e.newDeletionEnd)
		p.computeSubtreeTextSizes(lower)
		p.computeSubtreeTextSizes(upper)
		p.computeSubtreeTextSizes(newRoot)
	}
	return true
}

// spliceAfter handles an edit with a change before it and none after.
// lower is the root.
func (p *Patch) spliceAfter(e edit, lower nodeID) bool {
	lo := p.node(lower)
	lowerOldStart := lo.oldDistanceFromLeftAncestor
	lowerNewStart := lo.newDistanceFromLeftAncestor
	lowerOldEnd := lowerOldStart.Traverse(lo.oldExtent)
	lowerNewEnd := lowerNewStart.Traverse(lo.newExtent)
	rightmostOldEnd, rightmostNewEnd := p.subtreeEnd(lower)
	oldDeletionEnd := rightmostOldEnd.Traverse(e.newDeletionEnd.Traversal(rightmostNewEnd))

	if p.overlapsEnd(e.newStart, lowerNewEnd) {
		var merged Text
		if e.newText.IsKnown() && lo.newText.IsKnown() {
			prefix, ok := textPrefix(lo.newText.units, e.newStart.Traversal(lowerNewStart))
			if !ok {
				return false
			}
			merged = concat(prefix, e.newText.units)
		}
		lo.newText = merged
		lo.oldText = e.oldText
		lo.oldExtent = oldDeletionEnd.Traversal(lowerOldStart)
		lo.newExtent = e.newInsertionEnd.Traversal(lowerNewStart)
		p.deleteSubtree(lo.right)
		lo.right = nilNode
		p.computeSubtreeTextSizes(lower)
		return true
	}

	oldSpliceStart := lowerOldEnd.Traverse(e.newStart.Traversal(lowerNewEnd))
	newRoot := p.buildNode(lower, nilNode, oldSpliceStart, e.newStart, oldDeletionEnd.Traversal(oldSpliceStart), e.newExtent, e.oldText, e.newText)
	p.root = newRoot
	lo = p.node(lower)
	p.deleteSubtree(lo.right)
	lo.right = nilNode
	p.computeSubtreeTextSizes(lower)
	p.computeSubtreeTextSizes(newRoot)
	return true
}

// spliceBefore handles an edit with a change after it and none before.
// upper is the root.
func (p *Patch) spliceBefore(e edit, upper nodeID) bool {
	up := p.node(upper)
	upperOldStart := up.oldDistanceFromLeftAncestor
	upperNewStart := up.newDistanceFromLeftAncestor
	upperNewEnd := upperNewStart.Traverse(up.newExtent)

	oldDeletionEnd := e.newDeletionEnd
	if up.left != nilNode {
		rightmostOldEnd, rightmostNewEnd := p.subtreeEnd(up.left)
		oldDeletionEnd = rightmostOldEnd.Traverse(e.newDeletionEnd.Traversal(rightmostNewEnd))
	}

	if p.overlapsStart(e.newDeletionEnd, upperNewStart) {
		var merged Text
		if e.newText.IsKnown() && up.newText.IsKnown() {
			suffix, ok := textSuffix(up.newText.units, e.newDeletionEnd.Traversal(upperNewStart))
			if !ok {
				return false
			}
			merged = concat(e.newText.units, suffix)
		}
		up.newText = merged
		up.oldText = e.oldText
		up.oldExtent = upperOldStart.Traversal(e.newStart).Traverse(up.oldExtent)
		up.newExtent = e.newExtent.Traverse(upperNewEnd.Traversal(e.newDeletionEnd))
		up.oldDistanceFromLeftAncestor = e.newStart
		up.newDistanceFromLeftAncestor = e.newStart
		p.deleteSubtree(up.left)
		up.left = nilNode
		p.computeSubtreeTextSizes(upper)
		return true
	}

	newRoot := p.buildNode(nilNode, upper, e.newStart, e.newStart, oldDeletionEnd.Traversal(e.newStart), e.newExtent, e.oldText, e.newText)
	p.root = newRoot
	up = p.node(upper)
	distance := upperNewStart.Traversal(e.newDeletionEnd)
	up.oldDistanceFromLeftAncestor = distance
	up.newDistanceFromLeftAncestor = distance
	p.deleteSubtree(up.left)
	up.left = nilNode
	p.computeSubtreeTextSizes(upper)
	p.computeSubtreeTextSizes(newRoot)
	return true
}

// spliceReplacingAll handles an edit that swallows every existing change.
func (p *Patch) spliceReplacingAll(e edit) {
	rightmostOldEnd, rightmostNewEnd := p.subtreeEnd(p.root)
	oldDeletionEnd := rightmostOldEnd.Traverse(e.newDeletionEnd.Traversal(rightmostNewEnd))
	p.deleteSubtree(p.root)
	p.root = p.buildNode(nilNode, nilNode, e.newStart, e.newStart, oldDeletionEnd.Traversal(e.newStart), e.newExtent, e.oldText, e.newText)
}

// deleteRoot removes the root by rotating it down to a leaf.
func (p *Patch) deleteRoot() {
	n := p.root
	nd := p.node(n)
	nd.oldText, nd.newText = Text{}, Text{}
	p.computeSubtreeTextSizes(n)

	parent := nilNode
	for {
		nd := p.node(n)
		switch {
		case nd.left != nilNode:
			pivot := nd.left
			p.rotateRight(pivot, n, parent)
			parent = pivot
		case nd.right != nilNode:
			pivot := nd.right
			p.rotateLeft(pivot, n, parent)
			parent = pivot
		default:
			p.replaceChild(parent, n, nilNode)
			p.nodes[n] = node{}
			p.free = append(p.free, n)
			return
		}
	}
}

// computeOldText reconstructs the old-space text replaced by deleting
// [start, end) in new space, given the new-space text being deleted. The
// result is unknown when any piece of it is. ok is false when the deleted
// text does not line up with an overlapping change.
func (p *Patch) computeOldText(deleted Text, start, end point.Point) (Text, bool) {
	if !deleted.IsKnown() {
		return Text{}, true
	}

	var parts [][]uint16
	remaining := deleted.units
	sliceStart := start
	for _, c := range p.grabChangesInRange(newSpace, start, end, p.mergeAdjacent) {
		if !c.OldText.IsKnown() {
			return Text{}, true
		}
		if c.NewStart.After(sliceStart) {
			prefixExtent := c.NewStart.Traversal(sliceStart)
			prefix, ok := textPrefix(remaining, prefixExtent)
			if !ok {
				return Text{}, false
			}
			parts = append(parts, prefix)
			remaining = remaining[len(prefix):]
			sliceStart = c.NewStart
		}
		parts = append(parts, c.OldText.units)

		consumed := point.Min(unitsExtent(remaining), c.NewEnd.Traversal(sliceStart))
		rest, ok := textSuffix(remaining, consumed)
		if !ok {
			return Text{}, false
		}
		remaining = rest
		sliceStart = c.NewEnd
	}
	parts = append(parts, remaining)
	return concat(parts...), true
}

// computeOldTextSize estimates the old-space size replaced by deleting
// [start, end) in new space when the old text itself is unknown. It returns
// zero when an overlapping change has unknown new text.
func (p *Patch) computeOldTextSize(deletedSize uint32, start, end point.Point) uint32 {
	size := int64(deletedSize)
	for _, c := range p.grabChangesInRange(newSpace, start, end, p.mergeAdjacent) {
		if !c.NewText.IsKnown() {
			return 0
		}
		overlapping := c.NewText.units
		if end.Before(c.NewEnd) {
			if prefix, ok := textPrefix(overlapping, end.Traversal(c.NewStart)); ok {
				overlapping = prefix
			}
		}
		if start.After(c.NewStart) {
			if suffix, ok := textSuffix(overlapping, start.Traversal(c.NewStart)); ok {
				overlapping = suffix
			}
		}
		size -= int64(len(overlapping))
		size += int64(c.OldTextSize)
	}
	if size < 0 {
		return 0
	}
	return uint32(size)
}
