package patch

import (
	"fmt"

	"github.com/dshills/buffercore/internal/engine/point"
)

// nodeID addresses a node in the patch arena. Slot 0 is the nil handle.
type nodeID uint32

const nilNode nodeID = 0

// node is one change record. Its start in each space is a displacement from
// the end of its left ancestor, or from the origin when it has none.
type node struct {
	left, right nodeID

	oldDistanceFromLeftAncestor point.Point
	newDistanceFromLeftAncestor point.Point
	oldExtent                   point.Point
	newExtent                   point.Point

	oldText Text
	newText Text

	oldSubtreeTextSize uint32
	newSubtreeTextSize uint32
}

// space selects one of the two coordinate frames of a node.
type space int

const (
	oldSpace space = iota
	newSpace
)

func (s space) distance(n *node) point.Point {
	if s == oldSpace {
		return n.oldDistanceFromLeftAncestor
	}
	return n.newDistanceFromLeftAncestor
}

func (s space) extent(n *node) point.Point {
	if s == oldSpace {
		return n.oldExtent
	}
	return n.newExtent
}

// debugInvariants enables extent conservation checks on every rotation.
var debugInvariants = false

func (p *Patch) node(id nodeID) *node {
	return &p.nodes[id]
}

// buildNode allocates a detached node and computes its aggregates.
// Pointers into the arena are invalidated by this call.
func (p *Patch) buildNode(left, right nodeID, oldDistance, newDistance, oldExtent, newExtent point.Point, oldText, newText Text) nodeID {
	var id nodeID
	if n := len(p.free); n > 0 {
		id = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		p.nodes = append(p.nodes, node{})
		id = nodeID(len(p.nodes) - 1)
	}
	p.nodes[id] = node{
		left:                        left,
		right:                       right,
		oldDistanceFromLeftAncestor: oldDistance,
		newDistanceFromLeftAncestor: newDistance,
		oldExtent:                   oldExtent,
		newExtent:                   newExtent,
		oldText:                     oldText,
		newText:                     newText,
	}
	p.computeSubtreeTextSizes(id)
	return id
}

// deleteSubtree frees n and all its descendants.
func (p *Patch) deleteSubtree(n nodeID) {
	if n == nilNode {
		return
	}
	stack := []nodeID{n}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		nd := p.node(id)
		if nd.left != nilNode {
			stack = append(stack, nd.left)
		}
		if nd.right != nilNode {
			stack = append(stack, nd.right)
		}
		p.nodes[id] = node{}
		p.free = append(p.free, id)
	}
}

func (p *Patch) subtreeOldTextSize(n nodeID) uint32 {
	if n == nilNode {
		return 0
	}
	return p.node(n).oldSubtreeTextSize
}

func (p *Patch) subtreeNewTextSize(n nodeID) uint32 {
	if n == nilNode {
		return 0
	}
	return p.node(n).newSubtreeTextSize
}

func (p *Patch) computeSubtreeTextSizes(n nodeID) {
	nd := p.node(n)
	nd.oldSubtreeTextSize = nd.oldText.Size() + p.subtreeOldTextSize(nd.left) + p.subtreeOldTextSize(nd.right)
	nd.newSubtreeTextSize = nd.newText.Size() + p.subtreeNewTextSize(nd.left) + p.subtreeNewTextSize(nd.right)
}

// recomputeSubtreeTextSizes refreshes the aggregates of every node under n.
func (p *Patch) recomputeSubtreeTextSizes(n nodeID) {
	if n == nilNode {
		return
	}
	var order []nodeID
	stack := []nodeID{n}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		order = append(order, id)
		nd := p.node(id)
		if nd.left != nilNode {
			stack = append(stack, nd.left)
		}
		if nd.right != nilNode {
			stack = append(stack, nd.right)
		}
	}
	// Children precede parents in reverse pre-order.
	for i := len(order) - 1; i >= 0; i-- {
		p.computeSubtreeTextSizes(order[i])
	}
}

// subtreeEnd returns the end of the rightmost change under n, relative to
// the end of n's left ancestor.
func (p *Patch) subtreeEnd(n nodeID) (oldEnd, newEnd point.Point) {
	for cur := n; cur != nilNode; cur = p.node(cur).right {
		nd := p.node(cur)
		oldEnd = oldEnd.Traverse(nd.oldDistanceFromLeftAncestor.Traverse(nd.oldExtent))
		newEnd = newEnd.Traverse(nd.newDistanceFromLeftAncestor.Traverse(nd.newExtent))
	}
	return oldEnd, newEnd
}

// subtreeSpan returns the start of the leftmost and the end of the rightmost
// change under n in both spaces.
func (p *Patch) subtreeSpan(n nodeID) [4]point.Point {
	cur := n
	for p.node(cur).left != nilNode {
		cur = p.node(cur).left
	}
	oldEnd, newEnd := p.subtreeEnd(n)
	return [4]point.Point{
		p.node(cur).oldDistanceFromLeftAncestor,
		p.node(cur).newDistanceFromLeftAncestor,
		oldEnd,
		newEnd,
	}
}

func (p *Patch) replaceChild(parent, old, child nodeID) {
	switch {
	case parent == nilNode:
		p.root = child
	case p.node(parent).left == old:
		p.node(parent).left = child
	default:
		p.node(parent).right = child
	}
}

// rotateLeft lifts pivot, the right child of root, above it. Distances are
// rebased in both spaces.
func (p *Patch) rotateLeft(pivot, root, rootParent nodeID) {
	var before [4]point.Point
	if debugInvariants {
		before = p.subtreeSpan(root)
	}

	p.replaceChild(rootParent, root, pivot)
	pv, r := p.node(pivot), p.node(root)
	r.right = pv.left
	pv.left = root

	pv.oldDistanceFromLeftAncestor = r.oldDistanceFromLeftAncestor.Traverse(r.oldExtent).Traverse(pv.oldDistanceFromLeftAncestor)
	pv.newDistanceFromLeftAncestor = r.newDistanceFromLeftAncestor.Traverse(r.newExtent).Traverse(pv.newDistanceFromLeftAncestor)

	p.computeSubtreeTextSizes(root)
	p.computeSubtreeTextSizes(pivot)

	if debugInvariants {
		p.assertSpan("rotateLeft", pivot, before)
	}
}

// rotateRight lifts pivot, the left child of root, above it.
func (p *Patch) rotateRight(pivot, root, rootParent nodeID) {
	var before [4]point.Point
	if debugInvariants {
		before = p.subtreeSpan(root)
	}

	p.replaceChild(rootParent, root, pivot)
	pv, r := p.node(pivot), p.node(root)
	r.left = pv.right
	pv.right = root

	r.oldDistanceFromLeftAncestor = r.oldDistanceFromLeftAncestor.Traversal(pv.oldDistanceFromLeftAncestor.Traverse(pv.oldExtent))
	r.newDistanceFromLeftAncestor = r.newDistanceFromLeftAncestor.Traversal(pv.newDistanceFromLeftAncestor.Traverse(pv.newExtent))

	p.computeSubtreeTextSizes(root)
	p.computeSubtreeTextSizes(pivot)

	if debugInvariants {
		p.assertSpan("rotateRight", pivot, before)
	}
}

func (p *Patch) assertSpan(op string, n nodeID, want [4]point.Point) {
	if got := p.subtreeSpan(n); got != want {
		panic(fmt.Sprintf("patch: %s changed subtree span from %v to %v", op, want, got))
	}
}
