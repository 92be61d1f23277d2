package patch

import (
	"fmt"
	"strings"

	"github.com/dshills/buffercore/internal/engine/point"
)

// Change is a materialized change record with absolute coordinates.
type Change struct {
	OldStart point.Point
	OldEnd   point.Point
	NewStart point.Point
	NewEnd   point.Point

	OldText Text
	NewText Text

	// PrecedingOldTextSize and PrecedingNewTextSize sum the text sizes of
	// every change before this one.
	PrecedingOldTextSize uint32
	PrecedingNewTextSize uint32
	OldTextSize          uint32
}

// String returns a compact representation of the change.
func (c Change) String() string {
	return fmt.Sprintf("[%v-%v] %s -> [%v-%v] %s",
		c.OldStart, c.OldEnd, quoteText(c.OldText), c.NewStart, c.NewEnd, quoteText(c.NewText))
}

func quoteText(t Text) string {
	if !t.IsKnown() {
		return fmt.Sprintf("<%d units>", t.Size())
	}
	return fmt.Sprintf("%q", t.String())
}

// Bounds is the region covered by all changes of a patch.
type Bounds struct {
	OldStart point.Point
	OldEnd   point.Point
	NewStart point.Point
	NewEnd   point.Point
}

// Changes returns every change in order.
func (p *Patch) Changes() []Change {
	return p.changesInRange(newSpace, point.Zero, point.Infinity, true)
}

// ChangesInOldRange returns the changes overlapping [start, end) in old
// coordinates. Changes that only touch the range are excluded.
func (p *Patch) ChangesInOldRange(start, end point.Point) []Change {
	return p.changesInRange(oldSpace, start, end, false)
}

// ChangesInNewRange returns the changes overlapping [start, end) in new
// coordinates. Changes that only touch the range are excluded.
func (p *Patch) ChangesInNewRange(start, end point.Point) []Change {
	return p.changesInRange(newSpace, start, end, false)
}

// ChangeForOldPosition returns the last change starting at or before pos in
// old coordinates.
func (p *Patch) ChangeForOldPosition(pos point.Point) (Change, bool) {
	return p.changeStartingBefore(oldSpace, pos)
}

// ChangeForNewPosition returns the last change starting at or before pos in
// new coordinates.
func (p *Patch) ChangeForNewPosition(pos point.Point) (Change, bool) {
	return p.changeStartingBefore(newSpace, pos)
}

func (p *Patch) changeStartingBefore(s space, target point.Point) (Change, bool) {
	w := newWalker(p)
	found := nilNode
	var foundAncestor leftAncestor
	for n := p.root; n != nilNode; {
		w.node = n
		c := w.change()
		nd := p.node(n)
		if c.start(s).Compare(target) <= 0 {
			found = n
			foundAncestor = w.top()
			if nd.right == nilNode {
				break
			}
			w.descendRight()
			n = w.node
		} else {
			if nd.left == nilNode {
				break
			}
			n = nd.left
		}
	}
	if found == nilNode {
		return Change{}, false
	}
	w.node = found
	w.ancestors = append(w.ancestors[:0], foundAncestor)
	return w.change(), true
}

// Bounds returns the extremes of the changed regions, or false when the
// patch is empty.
func (p *Patch) Bounds() (Bounds, bool) {
	if p.root == nilNode {
		return Bounds{}, false
	}
	leftmost := p.root
	for p.node(leftmost).left != nilNode {
		leftmost = p.node(leftmost).left
	}
	oldEnd, newEnd := p.subtreeEnd(p.root)
	return Bounds{
		OldStart: p.node(leftmost).oldDistanceFromLeftAncestor,
		OldEnd:   oldEnd,
		NewStart: p.node(leftmost).newDistanceFromLeftAncestor,
		NewEnd:   newEnd,
	}, true
}

// String lists the changes one per line.
func (p *Patch) String() string {
	var sb strings.Builder
	for _, c := range p.Changes() {
		sb.WriteString(c.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
