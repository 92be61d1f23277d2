// Package patch records text changes as a sequence of old-range to
// new-range mappings.
//
// A Patch is a splay tree of change records. Each node stores its start as a
// displacement from the end of its left ancestor in two coordinate spaces at
// once: the old text the patch applies to and the new text it produces.
// Recording an edit only rewrites the nodes around the edited region, and
// the structure supports composition, inversion and a compact binary form.
//
// # Recording Edits
//
// Splice describes an edit in new-space coordinates. Edits that overlap or
// touch an existing change are merged into it:
//
//	p := patch.New()
//	p.Splice(point.Zero, point.Zero, point.Point{Column: 5}, patch.Known(""), patch.Known("hello"))
//	p.Splice(point.Point{Column: 5}, point.Zero, point.Point{Column: 6}, patch.Known(""), patch.Known(" world"))
//
//	changes := p.Changes() // one change: "" -> "hello world"
//
// Literal text is optional. Text that is not supplied is tracked by size
// only, and the patch degrades gracefully when merging known and unknown
// text. Splice fails with ErrPatchDoesNotApply only when the supplied old
// text cannot be sliced to match the changes it overlaps; a failed splice
// leaves the patch unchanged.
//
// # Units
//
// Columns and text sizes are counted in UTF-16 code units and rows break on
// '\n', matching the serialized form.
//
// # Concurrency
//
// A Patch is not safe for concurrent use. Queries do not restructure the
// tree, so they may run concurrently with each other but not with edits.
package patch
