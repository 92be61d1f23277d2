package patch

// Option configures a Patch during creation.
type Option func(*Patch)

// WithMergeAdjacentChanges controls whether an edit that exactly touches an
// existing change is merged into it. The default is true.
func WithMergeAdjacentChanges(merge bool) Option {
	return func(p *Patch) {
		p.mergeAdjacent = merge
	}
}
