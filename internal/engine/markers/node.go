package markers

import (
	"math"

	"github.com/RoaringBitmap/roaring"

	"github.com/dshills/buffercore/internal/engine/point"
)

// nodeID addresses a node in the index arena. The zero value is the nil
// handle; slot 0 of the arena is never used.
type nodeID uint32

const nilNode nodeID = 0

// Sentinel priorities. Random priorities lie in [1, MaxInt32).
const (
	unassignedPriority  int64 = 0
	spliceStartPriority int64 = -1
	spliceEndPriority   int64 = -2
	deletedPriority     int64 = math.MaxInt64
)

// node is one endpoint position in the treap.
//
// leftExtent is the displacement from the node's left ancestor (the nearest
// ancestor whose right subtree holds the node), or from the origin when
// there is none. leftMarkers holds markers covering the span between the
// left ancestor and the node; rightMarkers those covering the span between
// the node and its right ancestor.
type node struct {
	parent, left, right nodeID
	leftExtent          point.Point
	priority            int64

	leftMarkers  *roaring.Bitmap
	rightMarkers *roaring.Bitmap
	startMarkers *roaring.Bitmap
	endMarkers   *roaring.Bitmap
}

func (n *node) isMarkerEndpoint() bool {
	return !n.startMarkers.IsEmpty() || !n.endMarkers.IsEmpty()
}

// newNode allocates a node, reusing a freed slot when one is available.
// Pointers into the arena are invalidated by this call.
func (x *Index) newNode(parent nodeID, leftExtent point.Point) nodeID {
	var id nodeID
	if n := len(x.free); n > 0 {
		id = x.free[n-1]
		x.free = x.free[:n-1]
		nd := &x.nodes[id]
		nd.leftMarkers.Clear()
		nd.rightMarkers.Clear()
		nd.startMarkers.Clear()
		nd.endMarkers.Clear()
	} else {
		x.nodes = append(x.nodes, node{
			leftMarkers:  roaring.New(),
			rightMarkers: roaring.New(),
			startMarkers: roaring.New(),
			endMarkers:   roaring.New(),
		})
		id = nodeID(len(x.nodes) - 1)
	}

	nd := &x.nodes[id]
	nd.parent = parent
	nd.left = nilNode
	nd.right = nilNode
	nd.leftExtent = leftExtent
	nd.priority = unassignedPriority
	return id
}

// freeNode returns a detached node's slot to the arena.
func (x *Index) freeNode(id nodeID) {
	delete(x.positionCache, id)
	nd := &x.nodes[id]
	nd.parent, nd.left, nd.right = nilNode, nilNode, nilNode
	x.free = append(x.free, id)
}

// node returns the arena entry for id.
func (x *Index) node(id nodeID) *node {
	return &x.nodes[id]
}

// nodeCount returns the number of live nodes.
func (x *Index) nodeCount() int {
	return len(x.nodes) - 1 - len(x.free)
}
