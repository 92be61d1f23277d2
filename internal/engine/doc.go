// Package engine provides the buffercore engine: the change and marker
// bookkeeping for a text document stored elsewhere.
//
// The engine combines a marker index, a patch of the changes since the last
// save and named snapshots into a unified, thread-safe API.
//
// # Architecture
//
// The engine is built on several sub-packages:
//
//   - point: row/column positions and extent arithmetic
//   - markers: ranges that move with edits (a treap keyed by position)
//   - patch: the changes between two versions of a document (a splay tree
//     with old and new coordinates)
//   - tracking: named snapshots of recorded changes
//
// # Basic Usage
//
// Edits name the text they remove so the patch can keep the old document
// recoverable:
//
//	e := engine.New()
//	id := e.AddMarker(engine.Point{Row: 0, Column: 0}, engine.Point{Row: 0, Column: 5}, false)
//
//	// "hello world" -> "hello, world"
//	inv, err := e.Edit(engine.Point{Row: 0, Column: 5}, "", ",")
//
//	r, _ := e.MarkerRange(id) // (0,0)-(0,6): inclusive markers absorb the comma
//
// # Saving
//
// Save hands the current changes to a Sink together with a generation
// number. Saves may overlap; a save only becomes the new baseline if no
// save with a higher generation has committed first:
//
//	err := e.Save(ctx, engine.SinkFunc(func(ctx context.Context, req engine.SaveRequest) error {
//	    return store.Write(ctx, req.Token, req.Changes.Serialize())
//	}))
//
// # Thread Safety
//
// All Engine operations are thread-safe. Change queries share a read lock;
// edits, marker operations and save commits take the write lock.
package engine
