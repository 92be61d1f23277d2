package markers

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/dshills/buffercore/internal/engine/point"
)

// iterator walks the treap while tracking the absolute position of the
// current node and of its nearest left and right ancestors.
type iterator struct {
	index *Index

	node                  nodeID
	nodePosition          point.Point
	leftAncestorPosition  point.Point
	rightAncestorPosition point.Point

	leftAncestorStack  []point.Point
	rightAncestorStack []point.Point
}

func (it *iterator) reset() {
	it.node = it.index.root
	if it.node != nilNode {
		it.nodePosition = it.index.node(it.node).leftExtent
	} else {
		it.nodePosition = point.Zero
	}
	it.leftAncestorPosition = point.Zero
	it.rightAncestorPosition = point.Infinity
	it.leftAncestorStack = it.leftAncestorStack[:0]
	it.rightAncestorStack = it.rightAncestorStack[:0]
}

func (it *iterator) current() *node {
	return it.index.node(it.node)
}

func (it *iterator) cacheNodePosition() {
	it.index.positionCache[it.node] = it.nodePosition
}

func (it *iterator) descendLeft() {
	it.leftAncestorStack = append(it.leftAncestorStack, it.leftAncestorPosition)
	it.rightAncestorStack = append(it.rightAncestorStack, it.rightAncestorPosition)
	it.rightAncestorPosition = it.nodePosition
	it.node = it.current().left
	it.nodePosition = it.leftAncestorPosition.Traverse(it.current().leftExtent)
}

func (it *iterator) descendRight() {
	it.leftAncestorStack = append(it.leftAncestorStack, it.leftAncestorPosition)
	it.rightAncestorStack = append(it.rightAncestorStack, it.rightAncestorPosition)
	it.leftAncestorPosition = it.nodePosition
	it.node = it.current().right
	it.nodePosition = it.leftAncestorPosition.Traverse(it.current().leftExtent)
}

func (it *iterator) ascend() {
	parent := it.current().parent
	if parent == nilNode {
		it.node = nilNode
		it.nodePosition = point.Zero
		it.leftAncestorPosition = point.Zero
		it.rightAncestorPosition = point.Infinity
		return
	}

	if it.index.node(parent).left == it.node {
		it.nodePosition = it.rightAncestorPosition
	} else {
		it.nodePosition = it.leftAncestorPosition
	}
	last := len(it.leftAncestorStack) - 1
	it.leftAncestorPosition = it.leftAncestorStack[last]
	it.rightAncestorPosition = it.rightAncestorStack[last]
	it.leftAncestorStack = it.leftAncestorStack[:last]
	it.rightAncestorStack = it.rightAncestorStack[:last]
	it.node = parent
}

func (it *iterator) moveToSuccessor() {
	if it.node == nilNode {
		return
	}
	if it.current().right != nilNode {
		it.descendRight()
		for it.current().left != nilNode {
			it.descendLeft()
		}
		return
	}
	for {
		parent := it.current().parent
		if parent == nilNode || it.index.node(parent).right != it.node {
			break
		}
		it.ascend()
	}
	it.ascend()
}

func (it *iterator) seekToFirstNodeGTE(position point.Point) {
	for {
		it.cacheNodePosition()
		c := position.Compare(it.nodePosition)
		if c == 0 {
			break
		}
		if c < 0 {
			if it.current().left == nilNode {
				break
			}
			it.descendLeft()
		} else {
			if it.current().right == nilNode {
				break
			}
			it.descendRight()
		}
	}
	if it.nodePosition.Before(position) {
		it.moveToSuccessor()
	}
}

func (it *iterator) markRight(id uint32, start, end point.Point) {
	if it.leftAncestorPosition.Before(start) &&
		start.Compare(it.nodePosition) <= 0 &&
		it.rightAncestorPosition.Compare(end) <= 0 {
		it.current().rightMarkers.Add(id)
	}
}

func (it *iterator) markLeft(id uint32, start, end point.Point) {
	if !it.nodePosition.IsZero() &&
		start.Compare(it.leftAncestorPosition) <= 0 &&
		it.nodePosition.Compare(end) <= 0 {
		it.current().leftMarkers.Add(id)
	}
}

func (it *iterator) insertLeftChild(position point.Point) nodeID {
	child := it.index.newNode(it.node, position.Traversal(it.leftAncestorPosition))
	it.current().left = child
	return child
}

func (it *iterator) insertRightChild(position point.Point) nodeID {
	child := it.index.newNode(it.node, position.Traversal(it.nodePosition))
	it.current().right = child
	return child
}

func (it *iterator) insertMarkerStart(id uint32, start, end point.Point) nodeID {
	it.reset()
	if it.node == nilNode {
		it.index.root = it.index.newNode(nilNode, start)
		return it.index.root
	}

	for {
		c := start.Compare(it.nodePosition)
		switch {
		case c == 0:
			it.markRight(id, start, end)
			return it.node
		case c < 0:
			it.markRight(id, start, end)
			if it.current().left == nilNode {
				it.insertLeftChild(start)
				it.descendLeft()
				it.markRight(id, start, end)
				return it.node
			}
			it.descendLeft()
		default:
			if it.current().right == nilNode {
				it.insertRightChild(start)
				it.descendRight()
				it.markRight(id, start, end)
				return it.node
			}
			it.descendRight()
		}
	}
}

func (it *iterator) insertMarkerEnd(id uint32, start, end point.Point) nodeID {
	it.reset()
	if it.node == nilNode {
		it.index.root = it.index.newNode(nilNode, end)
		return it.index.root
	}

	for {
		c := end.Compare(it.nodePosition)
		switch {
		case c == 0:
			it.markLeft(id, start, end)
			return it.node
		case c < 0:
			if it.current().left == nilNode {
				it.insertLeftChild(end)
				it.descendLeft()
				it.markLeft(id, start, end)
				return it.node
			}
			it.descendLeft()
		default:
			it.markLeft(id, start, end)
			if it.current().right == nilNode {
				it.insertRightChild(end)
				it.descendRight()
				it.markLeft(id, start, end)
				return it.node
			}
			it.descendRight()
		}
	}
}

// insertSpliceBoundary finds or creates the node at position. The end
// boundary of an insertion is always a fresh node to the right of any
// existing node at the same position.
func (it *iterator) insertSpliceBoundary(position point.Point, isInsertionEnd bool) nodeID {
	it.reset()

	for {
		c := position.Compare(it.nodePosition)
		switch {
		case c == 0 && !isInsertionEnd:
			return it.node
		case c < 0:
			if it.current().left == nilNode {
				return it.insertLeftChild(position)
			}
			it.descendLeft()
		default:
			if it.current().right == nilNode {
				return it.insertRightChild(position)
			}
			it.descendRight()
		}
	}
}

func (it *iterator) checkIntersection(start, end point.Point, result *roaring.Bitmap) {
	n := it.current()
	if it.leftAncestorPosition.Compare(end) <= 0 && start.Compare(it.nodePosition) <= 0 {
		result.Or(n.leftMarkers)
	}
	if start.Compare(it.nodePosition) <= 0 && it.nodePosition.Compare(end) <= 0 {
		result.Or(n.startMarkers)
		result.Or(n.endMarkers)
	}
	if it.nodePosition.Compare(end) <= 0 && start.Compare(it.rightAncestorPosition) <= 0 {
		result.Or(n.rightMarkers)
	}
}

func (it *iterator) findIntersecting(start, end point.Point, result *roaring.Bitmap) {
	it.reset()
	if it.node == nilNode {
		return
	}

	for {
		it.cacheNodePosition()
		if start.Before(it.nodePosition) {
			if it.current().left == nilNode {
				break
			}
			it.checkIntersection(start, end, result)
			it.descendLeft()
		} else {
			if it.current().right == nilNode {
				break
			}
			it.checkIntersection(start, end, result)
			it.descendRight()
		}
	}

	for {
		it.checkIntersection(start, end, result)
		it.moveToSuccessor()
		if it.node == nilNode {
			break
		}
		it.cacheNodePosition()
		if it.nodePosition.After(end) {
			break
		}
	}
}

// scan visits every node positioned within [start, end] in order.
func (it *iterator) scan(start, end point.Point, visit func(n *node)) {
	it.reset()
	if it.node == nilNode {
		return
	}

	it.seekToFirstNodeGTE(start)
	for it.node != nilNode && it.nodePosition.Compare(end) <= 0 {
		visit(it.current())
		it.cacheNodePosition()
		it.moveToSuccessor()
	}
}

func (it *iterator) findContainedIn(start, end point.Point, result *roaring.Bitmap) {
	started := roaring.New()
	it.scan(start, end, func(n *node) {
		started.Or(n.startMarkers)
		result.Or(roaring.And(n.endMarkers, started))
	})
}

func (it *iterator) findStartingIn(start, end point.Point, result *roaring.Bitmap) {
	it.scan(start, end, func(n *node) {
		result.Or(n.startMarkers)
	})
}

func (it *iterator) findEndingIn(start, end point.Point, result *roaring.Bitmap) {
	it.scan(start, end, func(n *node) {
		result.Or(n.endMarkers)
	})
}

func (it *iterator) findBoundariesAfter(start point.Point, maxCount int) BoundaryQuery {
	var result BoundaryQuery
	it.reset()
	if it.node == nilNode {
		return result
	}

	containing := roaring.New()
	for {
		it.cacheNodePosition()
		if start.Compare(it.nodePosition) <= 0 {
			if it.leftAncestorPosition.Before(start) {
				containing.Or(it.current().leftMarkers)
			}
			if it.current().left == nilNode {
				break
			}
			it.descendLeft()
		} else {
			if it.rightAncestorPosition.Compare(start) >= 0 {
				containing.Or(it.current().rightMarkers)
			}
			if it.current().right == nilNode {
				break
			}
			it.descendRight()
		}
	}
	result.ContainingStart = it.index.sortByRange(containing.ToArray())

	if it.nodePosition.Before(start) {
		it.moveToSuccessor()
	}

	for it.node != nilNode && maxCount > 0 {
		it.cacheNodePosition()
		n := it.current()
		result.Boundaries = append(result.Boundaries, Boundary{
			Position: it.nodePosition,
			Starting: n.startMarkers.ToArray(),
			Ending:   n.endMarkers.ToArray(),
		})
		it.moveToSuccessor()
		maxCount--
	}
	return result
}

func (it *iterator) dump() map[uint32]point.Range {
	snapshot := make(map[uint32]point.Range)
	it.reset()
	if it.node == nilNode {
		return snapshot
	}

	for it.current().left != nilNode {
		it.cacheNodePosition()
		it.descendLeft()
	}

	for it.node != nilNode {
		n := it.current()
		pos := it.nodePosition
		n.startMarkers.Iterate(func(id uint32) bool {
			r := snapshot[id]
			r.Start = pos
			snapshot[id] = r
			return true
		})
		n.endMarkers.Iterate(func(id uint32) bool {
			r := snapshot[id]
			r.End = pos
			snapshot[id] = r
			return true
		})
		it.cacheNodePosition()
		it.moveToSuccessor()
	}
	return snapshot
}
