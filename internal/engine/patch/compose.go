package patch

// Combine replays the changes of other, which apply to the new text of p,
// onto p. When leftToRight is true they are spliced at their new positions
// in order; otherwise at their old positions in reverse order. Changes that
// end up with identical old and new text are dropped.
//
// On failure p is left unchanged and ErrPatchDoesNotApply is returned.
func (p *Patch) Combine(other *Patch, leftToRight bool) error {
	if other == nil {
		return ErrPatchDoesNotApply
	}
	work := p.Copy()
	if !work.combine(other.Changes(), leftToRight) {
		return ErrPatchDoesNotApply
	}
	p.nodes, p.free, p.root = work.nodes, work.free, work.root
	return nil
}

func (p *Patch) combine(changes []Change, leftToRight bool) bool {
	for i := range changes {
		c := changes[i]
		start := c.NewStart
		if !leftToRight {
			c = changes[len(changes)-1-i]
			start = c.OldStart
		}
		if !p.splice(start, c.OldEnd.Traversal(c.OldStart), c.NewEnd.Traversal(c.NewStart), c.OldText, c.NewText) {
			return false
		}
		p.removeNoopChange()
	}
	return true
}

// Compose folds patches into a single patch describing their combined
// effect. Consecutive patches alternate direction, starting left to right.
func Compose(patches []*Patch, opts ...Option) (*Patch, error) {
	result := New(opts...)
	leftToRight := true
	for _, other := range patches {
		if other == nil {
			return nil, ErrPatchDoesNotApply
		}
		if !result.combine(other.Changes(), leftToRight) {
			return nil, ErrPatchDoesNotApply
		}
		leftToRight = !leftToRight
	}
	return result, nil
}
