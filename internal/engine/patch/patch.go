package patch

import (
	"github.com/dshills/buffercore/internal/engine/point"
)

// Patch is an ordered, non-overlapping set of changes mapping regions of an
// old text to regions of a new text. The zero value is not usable; create
// one with New.
type Patch struct {
	nodes []node
	free  []nodeID
	root  nodeID

	mergeAdjacent bool

	nodeStack []nodeID
}

// New creates an empty patch.
func New(opts ...Option) *Patch {
	p := &Patch{
		nodes:         make([]node, 1),
		mergeAdjacent: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// MergesAdjacentChanges reports whether edits touching an existing change
// are merged into it.
func (p *Patch) MergesAdjacentChanges() bool {
	return p.mergeAdjacent
}

// ChangeCount returns the number of changes in the patch.
func (p *Patch) ChangeCount() int {
	return len(p.nodes) - 1 - len(p.free)
}

// IsEmpty returns true if the patch holds no changes.
func (p *Patch) IsEmpty() bool {
	return p.root == nilNode
}

// Splice records an edit that replaces oldExtent of text at newStart, in
// the coordinates of the text produced by the patch so far, with newExtent
// of text. oldText and newText may be unknown.
//
// Unknown new text is not tracked by size: the resulting change reports a
// NewText of size 0 whatever newExtent was. Only known new text carries its
// size into Changes and Serialize.
//
// It returns ErrPatchDoesNotApply when oldText cannot be reconciled with the
// changes it overlaps. The patch is left unchanged in that case.
func (p *Patch) Splice(newStart, oldExtent, newExtent point.Point, oldText, newText Text) error {
	if !p.splice(newStart, oldExtent, newExtent, oldText, newText) {
		return ErrPatchDoesNotApply
	}
	return nil
}

// Copy returns a deep copy of the patch.
func (p *Patch) Copy() *Patch {
	c := &Patch{
		nodes:         make([]node, len(p.nodes)),
		free:          append([]nodeID(nil), p.free...),
		root:          p.root,
		mergeAdjacent: p.mergeAdjacent,
	}
	copy(c.nodes, p.nodes)
	return c
}

// Invert returns a patch describing the reverse edit: old and new text
// trade places in every change.
func (p *Patch) Invert() *Patch {
	c := p.Copy()
	for i := range c.nodes {
		nd := &c.nodes[i]
		nd.oldDistanceFromLeftAncestor, nd.newDistanceFromLeftAncestor = nd.newDistanceFromLeftAncestor, nd.oldDistanceFromLeftAncestor
		nd.oldExtent, nd.newExtent = nd.newExtent, nd.oldExtent
		nd.oldText, nd.newText = nd.newText, nd.oldText
		nd.oldSubtreeTextSize, nd.newSubtreeTextSize = nd.newSubtreeTextSize, nd.oldSubtreeTextSize
	}
	return c
}

// Clear removes every change.
func (p *Patch) Clear() {
	p.nodes = p.nodes[:1]
	p.free = p.free[:0]
	p.root = nilNode
}

// Rebalance reshapes the tree into a minimum-height tree using the
// Day-Stout-Warren algorithm.
func (p *Patch) Rebalance() {
	if p.root == nilNode {
		return
	}

	// Flatten into a right-leaning vine.
	pseudo, pseudoParent := p.root, nilNode
	for pseudo != nilNode {
		if left := p.node(pseudo).left; left != nilNode {
			p.rotateRight(left, pseudo, pseudoParent)
			pseudo = left
		} else {
			pseudoParent = pseudo
			pseudo = p.node(pseudo).right
		}
	}

	n := p.ChangeCount()
	m := 1
	for m <= n+1 {
		m <<= 1
	}
	m = m>>1 - 1
	p.performRebalancingRotations(n - m)
	for m > 1 {
		m /= 2
		p.performRebalancingRotations(m)
	}
}

func (p *Patch) performRebalancingRotations(count int) {
	pseudo, pseudoParent := p.root, nilNode
	for i := 0; i < count; i++ {
		if pseudo == nilNode {
			return
		}
		rightChild := p.node(pseudo).right
		if rightChild == nilNode {
			return
		}
		p.rotateLeft(rightChild, pseudo, pseudoParent)
		pseudo = p.node(rightChild).right
		pseudoParent = rightChild
	}
}

// height returns the depth of the deepest node.
func (p *Patch) height() int {
	type frame struct {
		n     nodeID
		depth int
	}
	maxDepth := 0
	if p.root == nilNode {
		return 0
	}
	stack := []frame{{p.root, 1}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxDepth {
			maxDepth = f.depth
		}
		nd := p.node(f.n)
		if nd.left != nilNode {
			stack = append(stack, frame{nd.left, f.depth + 1})
		}
		if nd.right != nilNode {
			stack = append(stack, frame{nd.right, f.depth + 1})
		}
	}
	return maxDepth
}
