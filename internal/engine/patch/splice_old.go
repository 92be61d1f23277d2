package patch

import "github.com/dshills/buffercore/internal/engine/point"

// SpliceOld rebases the patch onto an edit of its old text: the region of
// oldDeletionExtent at oldStart is replaced by oldInsertionExtent of text.
// Changes inside the deleted region are dropped, changes after it shift, and
// changes that end up adjacent in old space are merged.
func (p *Patch) SpliceOld(oldStart, oldDeletionExtent, oldInsertionExtent point.Point) {
	if p.root == nilNode {
		return
	}

	oldDeletionEnd := oldStart.Traverse(oldDeletionExtent)
	oldInsertionEnd := oldStart.Traverse(oldInsertionExtent)

	lowerBound := p.splayNodeEndingBefore(oldSpace, oldStart)
	upperBound := p.splayNodeStartingAfter(oldSpace, oldDeletionEnd, oldStart)

	if lowerBound == nilNode && upperBound == nilNode {
		p.Clear()
		return
	}

	if lowerBound == upperBound {
		r := p.node(p.root)
		r.oldDistanceFromLeftAncestor = r.oldDistanceFromLeftAncestor.Traverse(oldInsertionExtent)
		r.newDistanceFromLeftAncestor = r.newDistanceFromLeftAncestor.Traverse(oldInsertionExtent)
		return
	}

	if lowerBound != nilNode && upperBound != nilNode {
		if left := p.node(upperBound).left; left != lowerBound {
			p.rotateRight(lowerBound, left, upperBound)
		}
	}

	newInsertionEnd := oldInsertionEnd
	if lowerBound != nilNode {
		lo := p.node(lowerBound)
		lowerOldEnd := lo.oldDistanceFromLeftAncestor.Traverse(lo.oldExtent)
		lowerNewEnd := lo.newDistanceFromLeftAncestor.Traverse(lo.newExtent)
		newInsertionEnd = lowerNewEnd.Traverse(oldInsertionEnd.Traversal(lowerOldEnd))
		p.deleteSubtree(lo.right)
		lo.right = nilNode
	}

	if upperBound == nilNode {
		p.computeSubtreeTextSizes(lowerBound)
		return
	}

	up := p.node(upperBound)
	distanceToUpper := up.oldDistanceFromLeftAncestor.Traversal(oldDeletionEnd)
	up.oldDistanceFromLeftAncestor = oldInsertionEnd.Traverse(distanceToUpper)
	up.newDistanceFromLeftAncestor = newInsertionEnd.Traverse(distanceToUpper)

	if lowerBound == nilNode {
		p.deleteSubtree(up.left)
		up.left = nilNode
		p.computeSubtreeTextSizes(upperBound)
		return
	}

	lo := p.node(lowerBound)
	if lo.oldDistanceFromLeftAncestor.Traverse(lo.oldExtent) != up.oldDistanceFromLeftAncestor {
		p.computeSubtreeTextSizes(lowerBound)
		p.computeSubtreeTextSizes(upperBound)
		return
	}

	// The neighbors now touch in old space; fold lower into upper.
	up.oldDistanceFromLeftAncestor = lo.oldDistanceFromLeftAncestor
	up.newDistanceFromLeftAncestor = lo.newDistanceFromLeftAncestor
	up.oldExtent = lo.oldExtent.Traverse(up.oldExtent)
	up.newExtent = lo.newExtent.Traverse(up.newExtent)
	up.oldText = joinTexts(lo.oldText, up.oldText, true)
	up.newText = joinTexts(lo.newText, up.newText, false)
	up.left = lo.left
	lo.left = nilNode
	p.deleteSubtree(lowerBound)
	p.computeSubtreeTextSizes(upperBound)
}

// joinTexts concatenates two texts. When either is unknown the result is
// unknown, keeping the combined size only if keepSize is set.
func joinTexts(a, b Text, keepSize bool) Text {
	if a.IsKnown() && b.IsKnown() {
		return concat(a.units, b.units)
	}
	if keepSize {
		return SizeOnly(a.Size() + b.Size())
	}
	return Text{}
}

// removeNoopChange drops the root change when its old and new text are
// identical.
func (p *Patch) removeNoopChange() {
	if p.root == nilNode {
		return
	}
	r := p.node(p.root)
	if r.oldText.IsKnown() && r.newText.IsKnown() && r.oldText.Equal(r.newText) {
		p.SpliceOld(r.oldDistanceFromLeftAncestor, point.Zero, point.Zero)
	}
}
