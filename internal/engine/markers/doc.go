// Package markers tracks named ranges over text that survive edits.
//
// An Index maps integer marker ids to (start, end) point ranges. Markers
// have no storage of their own: every distinct endpoint position is a node
// in a randomized balanced tree (a treap), and a marker is the pair of nodes
// holding its id in their start and end sets. Nodes store their position as
// a displacement from their left ancestor, so an edit shifts every later
// marker by touching only O(log n) nodes.
//
// # Range Queries
//
// Each node also carries the ids of markers that span the boundary between
// the node and its left or right ancestor. A point query collects these sets
// along a single root-to-leaf path instead of visiting every marker:
//
//	idx := markers.New(markers.WithSeed(42))
//	idx.Insert(1, point.Point{Row: 0, Column: 0}, point.Point{Row: 0, Column: 5})
//	idx.Insert(2, point.Point{Row: 0, Column: 3}, point.Point{Row: 2, Column: 0})
//
//	ids := idx.FindContaining(point.Point{Row: 0, Column: 4}, point.Point{Row: 0, Column: 4}) // [1 2]
//
// # Edits
//
// Splice shifts markers across an edit and reports which markers the edit
// invalidated:
//
//	inv := idx.Splice(point.Point{Row: 0, Column: 2}, point.Zero, point.Point{Row: 0, Column: 2})
//	// inv.Touch contains 1; marker 1 now ends at (0, 7)
//
// Markers are inclusive by default: text inserted exactly at a boundary is
// absorbed into the marker. Exclusive markers (SetExclusive) keep such text
// outside their range.
//
// # Concurrency
//
// An Index is not safe for concurrent use. Every method runs to completion
// synchronously, and query results are plain slices that stay valid after
// later mutation.
package markers
