package patch

import "github.com/dshills/buffercore/internal/engine/point"

// leftAncestor describes the end of a node's left ancestor and the text
// sizes of everything before that end.
type leftAncestor struct {
	oldEnd, newEnd           point.Point
	oldTextSize, newTextSize uint32
}

// walker performs an in-order traversal that tracks absolute positions.
type walker struct {
	p         *Patch
	node      nodeID
	nodes     []nodeID
	ancestors []leftAncestor
}

func newWalker(p *Patch) *walker {
	return &walker{p: p, ancestors: []leftAncestor{{}}}
}

func (w *walker) top() leftAncestor {
	return w.ancestors[len(w.ancestors)-1]
}

// descendLeft moves to the left child.
func (w *walker) descendLeft() {
	w.nodes = append(w.nodes, w.node)
	w.node = w.p.node(w.node).left
}

// descendRight moves to the right child, recording the current node as its
// left ancestor.
func (w *walker) descendRight() {
	c := w.change()
	nd := w.p.node(w.node)
	w.ancestors = append(w.ancestors, leftAncestor{
		oldEnd:      c.OldEnd,
		newEnd:      c.NewEnd,
		oldTextSize: c.PrecedingOldTextSize + nd.oldText.Size(),
		newTextSize: c.PrecedingNewTextSize + nd.newText.Size(),
	})
	w.nodes = append(w.nodes, w.node)
	w.node = nd.right
}

// change materializes the current node.
func (w *walker) change() Change {
	nd := w.p.node(w.node)
	la := w.top()
	oldStart := la.oldEnd.Traverse(nd.oldDistanceFromLeftAncestor)
	newStart := la.newEnd.Traverse(nd.newDistanceFromLeftAncestor)
	return Change{
		OldStart:             oldStart,
		OldEnd:               oldStart.Traverse(nd.oldExtent),
		NewStart:             newStart,
		NewEnd:               newStart.Traverse(nd.newExtent),
		OldText:              nd.oldText,
		NewText:              nd.newText,
		PrecedingOldTextSize: la.oldTextSize + w.p.subtreeOldTextSize(nd.left),
		PrecedingNewTextSize: la.newTextSize + w.p.subtreeNewTextSize(nd.left),
		OldTextSize:          nd.oldText.Size(),
	}
}

// next moves to the in-order successor, or to nilNode after the last node.
func (w *walker) next() {
	if w.p.node(w.node).right != nilNode {
		w.descendRight()
		for w.p.node(w.node).left != nilNode {
			w.descendLeft()
		}
		return
	}
	for len(w.nodes) > 0 && w.p.node(w.nodes[len(w.nodes)-1]).right == w.node {
		w.node = w.nodes[len(w.nodes)-1]
		w.nodes = w.nodes[:len(w.nodes)-1]
		w.ancestors = w.ancestors[:len(w.ancestors)-1]
	}
	if len(w.nodes) == 0 {
		w.node = nilNode
		return
	}
	w.node = w.nodes[len(w.nodes)-1]
	w.nodes = w.nodes[:len(w.nodes)-1]
}

func (c Change) start(s space) point.Point {
	if s == oldSpace {
		return c.OldStart
	}
	return c.NewStart
}

func (c Change) end(s space) point.Point {
	if s == oldSpace {
		return c.OldEnd
	}
	return c.NewEnd
}

// inRange reports whether a change with the given bounds overlaps
// [start, end]. Touching counts only when inclusive.
func inRange(changeStart, changeEnd, start, end point.Point, inclusive bool) bool {
	if inclusive {
		return changeStart.Compare(end) <= 0 && changeEnd.Compare(start) >= 0
	}
	return changeStart.Before(end) && changeEnd.After(start)
}

// pastRange reports whether a change starting at changeStart, and every
// change after it, lies beyond end.
func pastRange(changeStart, end point.Point, inclusive bool) bool {
	if inclusive {
		return changeStart.After(end)
	}
	return changeStart.Compare(end) >= 0
}

// changesInRange lists the changes overlapping [start, end] in space s
// without restructuring the tree.
func (p *Patch) changesInRange(s space, start, end point.Point, inclusive bool) []Change {
	var result []Change
	if p.root == nilNode {
		return result
	}

	// Find the first node whose end reaches start.
	w := newWalker(p)
	found := nilNode
	foundNodes, foundAncestors := 0, 0
	w.node = p.root
	for w.node != nilNode {
		c := w.change()
		reached := c.end(s).After(start) || (inclusive && c.end(s) == start)
		if reached {
			found = w.node
			foundNodes, foundAncestors = len(w.nodes), len(w.ancestors)
			if p.node(w.node).left == nilNode {
				break
			}
			w.descendLeft()
		} else {
			if p.node(w.node).right == nilNode {
				break
			}
			w.descendRight()
		}
	}

	w.node = found
	w.nodes = w.nodes[:foundNodes]
	w.ancestors = w.ancestors[:foundAncestors]

	for w.node != nilNode {
		c := w.change()
		if pastRange(c.start(s), end, inclusive) {
			break
		}
		result = append(result, c)
		w.next()
	}
	return result
}

// grabChangesInRange lists the changes overlapping [start, end] in space s.
// It splays the last change starting at or before start to the root first.
func (p *Patch) grabChangesInRange(s space, start, end point.Point, inclusive bool) []Change {
	var result []Change
	if p.root == nilNode {
		return result
	}

	lower := p.splayNodeStartingBefore(s, start)

	w := newWalker(p)
	w.node = p.root
	if lower == nilNode {
		for p.node(w.node).left != nilNode {
			w.descendLeft()
		}
	}

	for w.node != nilNode {
		c := w.change()
		if pastRange(c.start(s), end, inclusive) {
			break
		}
		if inRange(c.start(s), c.end(s), start, end, inclusive) {
			result = append(result, c)
		}
		w.next()
	}
	return result
}
