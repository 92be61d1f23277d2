// Package tracking keeps named checkpoints of the changes recorded by an
// engine.
//
// A Snapshot stores a copy of the patch that maps the saved baseline onto
// the document as it was when the snapshot was taken. Comparing a snapshot
// against the live patch yields the edits made since the checkpoint without
// storing any document text:
//
//	sm := tracking.NewSnapshotManager()
//	id := sm.Create("before_refactor", changes, version)
//
//	snap, _ := sm.Get(id)
//	undo, _ := patch.Compose([]*patch.Patch{current.Invert(), snap.Changes()})
//
// When the baseline moves (after a save), every snapshot is rebased onto
// the new baseline with Rebase.
package tracking
