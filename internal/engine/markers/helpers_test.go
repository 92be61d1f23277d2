package markers

import (
	"math/rand"
	"slices"
	"sort"
	"testing"

	"github.com/dshills/buffercore/internal/engine/point"
)

func pt(row, column uint32) point.Point {
	return point.Point{Row: row, Column: column}
}

// model is a brute-force reference for marker positions.
type model struct {
	ranges    map[uint32]point.Range
	exclusive map[uint32]bool
}

func newModel() *model {
	return &model{
		ranges:    make(map[uint32]point.Range),
		exclusive: make(map[uint32]bool),
	}
}

func (m *model) insert(id uint32, start, end point.Point) {
	if end.Before(start) {
		end = start
	}
	m.ranges[id] = point.Range{Start: start, End: end}
}

func (m *model) remove(id uint32) {
	delete(m.ranges, id)
}

func (m *model) splice(start, oldExtent, newExtent point.Point) {
	if len(m.ranges) == 0 || (oldExtent.IsZero() && newExtent.IsZero()) {
		return
	}
	oldEnd := start.Traverse(oldExtent)
	newEnd := start.Traverse(newExtent)
	insertion := oldExtent.IsZero()

	shift := func(p point.Point) point.Point {
		return newEnd.Traverse(p.Traversal(oldEnd))
	}

	for id, r := range m.ranges {
		excl := m.exclusive[id]
		var s, e point.Point

		switch c := r.Start.Compare(start); {
		case c < 0:
			s = r.Start
		case c == 0:
			moves := excl
			if !insertion && r.End == start {
				moves = false
			}
			if moves {
				s = newEnd
			} else {
				s = start
			}
		case r.Start.Compare(oldEnd) <= 0:
			s = newEnd
		default:
			s = shift(r.Start)
		}

		switch c := r.End.Compare(start); {
		case c < 0:
			e = r.End
		case c == 0:
			if insertion && (!excl || r.Start == start) {
				e = newEnd
			} else {
				e = start
			}
		case r.End.Compare(oldEnd) <= 0:
			e = newEnd
		default:
			e = shift(r.End)
		}

		m.ranges[id] = point.Range{Start: s, End: e}
	}
}

func (m *model) query(match func(r point.Range) bool) []uint32 {
	var ids []uint32
	for id, r := range m.ranges {
		if match(r) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (m *model) intersecting(start, end point.Point) []uint32 {
	return m.query(func(r point.Range) bool {
		return r.Start.Compare(end) <= 0 && r.End.Compare(start) >= 0
	})
}

func (m *model) containing(start, end point.Point) []uint32 {
	return m.query(func(r point.Range) bool {
		return r.Start.Compare(start) <= 0 && r.End.Compare(end) >= 0
	})
}

func (m *model) containedIn(start, end point.Point) []uint32 {
	return m.query(func(r point.Range) bool {
		return r.Start.Compare(start) >= 0 && r.End.Compare(end) <= 0
	})
}

func (m *model) startingIn(start, end point.Point) []uint32 {
	return m.query(func(r point.Range) bool {
		return r.Start.Compare(start) >= 0 && r.Start.Compare(end) <= 0
	})
}

func (m *model) endingIn(start, end point.Point) []uint32 {
	return m.query(func(r point.Range) bool {
		return r.End.Compare(start) >= 0 && r.End.Compare(end) <= 0
	})
}

func randomPoint(rng *rand.Rand) point.Point {
	return pt(uint32(rng.Intn(4)), uint32(rng.Intn(12)))
}

func randomRange(rng *rand.Rand) (point.Point, point.Point) {
	a, b := randomPoint(rng), randomPoint(rng)
	if b.Before(a) {
		a, b = b, a
	}
	return a, b
}

func randomExtent(rng *rand.Rand) point.Point {
	if rng.Intn(3) == 0 {
		return point.Zero
	}
	return pt(uint32(rng.Intn(2)), uint32(rng.Intn(6)))
}

func equalIDs(a, b []uint32) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return slices.Equal(a, b)
}

// checkQueries compares every query against the model for the given range.
func checkQueries(t *testing.T, x *Index, m *model, start, end point.Point) {
	t.Helper()
	checks := []struct {
		name string
		got  []uint32
		want []uint32
	}{
		{"FindIntersecting", x.FindIntersecting(start, end), m.intersecting(start, end)},
		{"FindContaining", x.FindContaining(start, end), m.containing(start, end)},
		{"FindContainedIn", x.FindContainedIn(start, end), m.containedIn(start, end)},
		{"FindStartingIn", x.FindStartingIn(start, end), m.startingIn(start, end)},
		{"FindEndingIn", x.FindEndingIn(start, end), m.endingIn(start, end)},
	}
	for _, c := range checks {
		if !equalIDs(c.got, c.want) {
			t.Fatalf("%s(%v, %v) = %v, want %v", c.name, start, end, c.got, c.want)
		}
	}
}

func checkPositions(t *testing.T, x *Index, m *model) {
	t.Helper()
	if x.Len() != len(m.ranges) {
		t.Fatalf("Len() = %d, want %d", x.Len(), len(m.ranges))
	}
	dump := x.Dump()
	for id, want := range m.ranges {
		if got := dump[id]; got != want {
			t.Fatalf("Dump()[%d] = %v, want %v", id, got, want)
		}
		if got, _ := x.Range(id); got != want {
			t.Fatalf("Range(%d) = %v, want %v", id, got, want)
		}
		if x.Start(id).After(x.End(id)) {
			t.Fatalf("marker %d start %v after end %v", id, x.Start(id), x.End(id))
		}
	}
}

// checkStructure verifies tree links, search order, heap order and that
// every left/right marker id really spans the recorded boundary.
func checkStructure(t *testing.T, x *Index) {
	t.Helper()
	checkTree(t, x, true)
}

func checkTree(t *testing.T, x *Index, heapOrder bool) {
	t.Helper()
	if x.root == nilNode {
		if x.nodeCount() != 0 {
			t.Fatalf("empty tree holds %d nodes", x.nodeCount())
		}
		return
	}
	if x.node(x.root).parent != nilNode {
		t.Fatalf("root has a parent")
	}

	ranges := x.Dump()
	visited := 0
	var last *point.Point

	var walk func(n nodeID, leftAncestor, rightAncestor point.Point)
	walk = func(n nodeID, leftAncestor, rightAncestor point.Point) {
		nd := x.node(n)
		pos := leftAncestor.Traverse(nd.leftExtent)

		if nd.left != nilNode {
			if x.node(nd.left).parent != n {
				t.Fatalf("node %d: left child parent link broken", n)
			}
			if heapOrder && x.node(nd.left).priority < nd.priority {
				t.Fatalf("node %d: heap order violated on left", n)
			}
			walk(nd.left, leftAncestor, pos)
		}

		visited++
		if last != nil && !last.Before(pos) {
			t.Fatalf("node %d at %v does not follow %v", n, pos, *last)
		}
		p := pos
		last = &p

		if !nd.isMarkerEndpoint() {
			t.Fatalf("node %d at %v holds no endpoint", n, pos)
		}
		if got := x.nodePosition(n); got != pos {
			t.Fatalf("nodePosition(%d) = %v, want %v", n, got, pos)
		}
		nd.leftMarkers.Iterate(func(id uint32) bool {
			r := ranges[id]
			if r.Start.After(leftAncestor) || r.End.Before(pos) {
				t.Fatalf("node %d: marker %d %v does not span left [%v, %v]", n, id, r, leftAncestor, pos)
			}
			return true
		})
		nd.rightMarkers.Iterate(func(id uint32) bool {
			r := ranges[id]
			if r.Start.After(pos) || r.End.Before(rightAncestor) {
				t.Fatalf("node %d: marker %d %v does not span right [%v, %v]", n, id, r, pos, rightAncestor)
			}
			return true
		})

		if nd.right != nilNode {
			if x.node(nd.right).parent != n {
				t.Fatalf("node %d: right child parent link broken", n)
			}
			if heapOrder && x.node(nd.right).priority < nd.priority {
				t.Fatalf("node %d: heap order violated on right", n)
			}
			walk(nd.right, pos, rightAncestor)
		}
	}
	walk(x.root, point.Zero, point.Infinity)

	if visited != x.nodeCount() {
		t.Fatalf("reachable nodes = %d, live nodes = %d", visited, x.nodeCount())
	}
}

// subtreeNodes lists the nodes of the tree in order.
func subtreeNodes(x *Index) []nodeID {
	var ids []nodeID
	var walk func(n nodeID)
	walk = func(n nodeID) {
		if n == nilNode {
			return
		}
		walk(x.node(n).left)
		ids = append(ids, n)
		walk(x.node(n).right)
	}
	walk(x.root)
	return ids
}

func sortedKeys(m map[uint32]point.Range) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
