package markers

import (
	"sort"

	"github.com/RoaringBitmap/roaring"

	"github.com/dshills/buffercore/internal/engine/point"
)

// Index maps marker ids to point ranges and keeps them correct across
// edits. The zero value is not usable; create one with New.
type Index struct {
	nodes []node
	free  []nodeID
	root  nodeID
	rng   RandomSource

	startNodes map[uint32]nodeID
	endNodes   map[uint32]nodeID
	exclusive  *roaring.Bitmap

	// positionCache memoizes resolved node positions. Splice clears it.
	positionCache map[nodeID]point.Point

	iter iterator
}

// New creates an empty marker index.
func New(opts ...Option) *Index {
	x := &Index{
		nodes:         make([]node, 1),
		rng:           NewXorshift(0),
		startNodes:    make(map[uint32]nodeID),
		endNodes:      make(map[uint32]nodeID),
		exclusive:     roaring.New(),
		positionCache: make(map[nodeID]point.Point),
	}
	x.iter.index = x

	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Len returns the number of markers in the index.
func (x *Index) Len() int {
	return len(x.startNodes)
}

func (x *Index) randomPriority() int64 {
	return int64(x.rng.Next())
}

// Insert adds a marker spanning [start, end]. A reversed range is collapsed
// to start. Inserting an id that is already present replaces its range.
func (x *Index) Insert(id uint32, start, end point.Point) {
	if x.Has(id) {
		x.Remove(id)
	}
	if end.Before(start) {
		end = start
	}

	startNode := x.iter.insertMarkerStart(id, start, end)
	endNode := x.iter.insertMarkerEnd(id, start, end)

	x.positionCache[startNode] = start
	x.positionCache[endNode] = end

	x.node(startNode).startMarkers.Add(id)
	x.node(endNode).endMarkers.Add(id)

	if x.node(startNode).priority == unassignedPriority {
		x.node(startNode).priority = x.randomPriority()
		x.bubbleUp(startNode)
	}
	if x.node(endNode).priority == unassignedPriority {
		x.node(endNode).priority = x.randomPriority()
		x.bubbleUp(endNode)
	}

	x.startNodes[id] = startNode
	x.endNodes[id] = endNode
}

// Remove deletes a marker. Removing an unknown id is a no-op.
func (x *Index) Remove(id uint32) {
	startNode, ok := x.startNodes[id]
	if !ok {
		return
	}
	endNode := x.endNodes[id]

	for n := startNode; n != nilNode; n = x.node(n).parent {
		x.node(n).rightMarkers.Remove(id)
	}
	for n := endNode; n != nilNode; n = x.node(n).parent {
		x.node(n).leftMarkers.Remove(id)
	}

	x.node(startNode).startMarkers.Remove(id)
	x.node(endNode).endMarkers.Remove(id)

	if !x.node(startNode).isMarkerEndpoint() {
		x.deleteNode(startNode)
	}
	if endNode != startNode && !x.node(endNode).isMarkerEndpoint() {
		x.deleteNode(endNode)
	}

	delete(x.startNodes, id)
	delete(x.endNodes, id)
}

// Has reports whether id is in the index.
func (x *Index) Has(id uint32) bool {
	_, ok := x.startNodes[id]
	return ok
}

// SetExclusive controls whether text inserted exactly at the marker's
// boundaries is kept outside its range.
func (x *Index) SetExclusive(id uint32, exclusive bool) {
	if exclusive {
		x.exclusive.Add(id)
	} else {
		x.exclusive.Remove(id)
	}
}

// IsExclusive reports whether id is an exclusive marker.
func (x *Index) IsExclusive(id uint32) bool {
	return x.exclusive.Contains(id)
}

// nodePosition resolves the absolute position of n by walking to the root.
func (x *Index) nodePosition(n nodeID) point.Point {
	if p, ok := x.positionCache[n]; ok {
		return p
	}

	position := x.node(n).leftExtent
	for cur := n; x.node(cur).parent != nilNode; cur = x.node(cur).parent {
		parent := x.node(cur).parent
		if x.node(parent).right == cur {
			position = x.node(parent).leftExtent.Traverse(position)
		}
	}
	x.positionCache[n] = position
	return position
}

// Start returns the start of a marker, or the origin for an unknown id.
func (x *Index) Start(id uint32) point.Point {
	n, ok := x.startNodes[id]
	if !ok {
		return point.Zero
	}
	return x.nodePosition(n)
}

// End returns the end of a marker, or the origin for an unknown id.
func (x *Index) End(id uint32) point.Point {
	n, ok := x.endNodes[id]
	if !ok {
		return point.Zero
	}
	return x.nodePosition(n)
}

// Range returns the range of a marker and whether it exists.
func (x *Index) Range(id uint32) (point.Range, bool) {
	if !x.Has(id) {
		return point.Range{}, false
	}
	return point.Range{Start: x.Start(id), End: x.End(id)}, true
}

// Compare orders markers by start ascending, then by end descending, so a
// marker sorts before the markers nested inside it that share its start.
func (x *Index) Compare(id1, id2 uint32) int {
	if c := x.Start(id1).Compare(x.Start(id2)); c != 0 {
		return c
	}
	return x.End(id2).Compare(x.End(id1))
}

// sortByRange sorts ids by Compare, breaking ties by id.
func (x *Index) sortByRange(ids []uint32) []uint32 {
	sort.SliceStable(ids, func(i, j int) bool {
		c := x.Compare(ids[i], ids[j])
		if c != 0 {
			return c < 0
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Dump returns the range of every marker.
func (x *Index) Dump() map[uint32]point.Range {
	return x.iter.dump()
}
