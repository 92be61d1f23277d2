package markers

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/dshills/buffercore/internal/engine/point"
)

func TestSpliceInclusiveInsertion(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 0), pt(0, 5))

	inv := x.Splice(pt(0, 2), point.Zero, pt(0, 2))

	r, _ := x.Range(1)
	if want := (point.Range{Start: pt(0, 0), End: pt(0, 7)}); r != want {
		t.Errorf("Range(1) = %v, want %v", r, want)
	}
	if !slices.Contains(inv.Touch, 1) {
		t.Errorf("Touch = %v, want to contain 1", inv.Touch)
	}
	checkStructure(t, x)
}

func TestSpliceExclusiveEndInsertion(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 0), pt(0, 5))
	x.SetExclusive(1, true)

	inv := x.Splice(pt(0, 5), point.Zero, pt(0, 2))

	r, _ := x.Range(1)
	if want := (point.Range{Start: pt(0, 0), End: pt(0, 5)}); r != want {
		t.Errorf("Range(1) = %v, want %v", r, want)
	}
	if !slices.Contains(inv.Touch, 1) {
		t.Errorf("Touch = %v, want to contain 1", inv.Touch)
	}
	checkStructure(t, x)
}

func TestSpliceInsertionAtBoundaries(t *testing.T) {
	tests := []struct {
		name      string
		exclusive bool
		start     point.Point
		end       point.Point
		at        point.Point
		want      point.Range
	}{
		{"inclusive at start", false, pt(0, 5), pt(0, 10), pt(0, 5), point.Range{Start: pt(0, 5), End: pt(0, 13)}},
		{"exclusive at start", true, pt(0, 5), pt(0, 10), pt(0, 5), point.Range{Start: pt(0, 8), End: pt(0, 13)}},
		{"inclusive at end", false, pt(0, 5), pt(0, 10), pt(0, 10), point.Range{Start: pt(0, 5), End: pt(0, 13)}},
		{"exclusive at end", true, pt(0, 5), pt(0, 10), pt(0, 10), point.Range{Start: pt(0, 5), End: pt(0, 10)}},
		{"inclusive empty", false, pt(0, 5), pt(0, 5), pt(0, 5), point.Range{Start: pt(0, 5), End: pt(0, 8)}},
		{"exclusive empty", true, pt(0, 5), pt(0, 5), pt(0, 5), point.Range{Start: pt(0, 8), End: pt(0, 8)}},
		{"before marker", false, pt(1, 5), pt(1, 10), pt(0, 0), point.Range{Start: pt(1, 5), End: pt(1, 10)}},
		{"same row before", false, pt(1, 5), pt(1, 10), pt(1, 1), point.Range{Start: pt(1, 8), End: pt(1, 13)}},
		{"after marker", false, pt(0, 5), pt(0, 10), pt(0, 11), point.Range{Start: pt(0, 5), End: pt(0, 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New()
			x.Insert(1, tt.start, tt.end)
			x.SetExclusive(1, tt.exclusive)

			x.Splice(tt.at, point.Zero, pt(0, 3))

			if got, _ := x.Range(1); got != tt.want {
				t.Errorf("Range(1) = %v, want %v", got, tt.want)
			}
			checkStructure(t, x)
		})
	}
}

func TestSpliceMultilineInsertion(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 8), pt(0, 12))
	x.Insert(2, pt(1, 4), pt(2, 0))

	// Insert "ab\ncd" at (0, 2).
	x.Splice(pt(0, 2), point.Zero, pt(1, 2))

	want := map[uint32]point.Range{
		1: {Start: pt(1, 8), End: pt(1, 12)},
		2: {Start: pt(2, 4), End: pt(3, 0)},
	}
	for id, w := range want {
		if got, _ := x.Range(id); got != w {
			t.Errorf("Range(%d) = %v, want %v", id, got, w)
		}
	}
}

func TestSpliceDeletion(t *testing.T) {
	x := New(WithSeed(3))
	x.Insert(1, pt(0, 2), pt(0, 8))  // spans the deletion
	x.Insert(2, pt(0, 5), pt(0, 10)) // starts inside
	x.Insert(3, pt(0, 0), pt(0, 4))  // ends at the deletion start
	x.Insert(4, pt(0, 5), pt(0, 5))  // entirely inside
	x.Insert(5, pt(0, 0), pt(0, 1))  // untouched

	// Delete (0, 4)..(0, 6).
	inv := x.Splice(pt(0, 4), pt(0, 2), point.Zero)

	want := map[uint32]point.Range{
		1: {Start: pt(0, 2), End: pt(0, 6)},
		2: {Start: pt(0, 4), End: pt(0, 8)},
		3: {Start: pt(0, 0), End: pt(0, 4)},
		4: {Start: pt(0, 4), End: pt(0, 4)},
		5: {Start: pt(0, 0), End: pt(0, 1)},
	}
	for id, w := range want {
		if got, _ := x.Range(id); got != w {
			t.Errorf("Range(%d) = %v, want %v", id, got, w)
		}
	}
	checkStructure(t, x)

	sets := []struct {
		name string
		got  []uint32
		want []uint32
	}{
		{"Touch", inv.Touch, []uint32{1, 2, 3, 4}},
		{"Inside", inv.Inside, []uint32{1, 2, 4}},
		{"Overlap", inv.Overlap, []uint32{2, 4}},
		{"Surround", inv.Surround, []uint32{4}},
	}
	for _, s := range sets {
		if !slices.Equal(s.got, s.want) {
			t.Errorf("%s = %v, want %v", s.name, s.got, s.want)
		}
	}
}

func TestSpliceReplacementAcrossRows(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 0), pt(3, 4))
	x.Insert(2, pt(3, 6), pt(3, 9))

	// Replace (1, 2)..(2, 5) with "xyz".
	x.Splice(pt(1, 2), pt(1, 3), pt(0, 3))

	want := map[uint32]point.Range{
		1: {Start: pt(0, 0), End: pt(2, 4)},
		2: {Start: pt(2, 6), End: pt(2, 9)},
	}
	for id, w := range want {
		if got, _ := x.Range(id); got != w {
			t.Errorf("Range(%d) = %v, want %v", id, got, w)
		}
	}
	checkStructure(t, x)
}

func TestSpliceNoop(t *testing.T) {
	x := New(WithSeed(11))
	x.Insert(1, pt(0, 0), pt(0, 5))
	x.Insert(2, pt(1, 0), pt(1, 5))
	before := x.Dump()
	nodes := x.nodeCount()

	inv := x.Splice(pt(0, 3), point.Zero, point.Zero)

	if !inv.IsEmpty() {
		t.Errorf("Splice with zero extents = %+v, want empty", inv)
	}
	after := x.Dump()
	for id, r := range before {
		if after[id] != r {
			t.Errorf("Range(%d) = %v, want %v", id, after[id], r)
		}
	}
	if x.nodeCount() != nodes {
		t.Errorf("nodeCount() = %d, want %d", x.nodeCount(), nodes)
	}
}

func TestSpliceEmptyIndex(t *testing.T) {
	x := New()
	inv := x.Splice(point.Zero, pt(0, 3), pt(1, 0))
	if !inv.IsEmpty() {
		t.Errorf("Splice on empty index = %+v, want empty", inv)
	}
	if x.root != nilNode {
		t.Error("Splice on empty index created nodes")
	}
}

func TestSpliceDeleteEverything(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 2), pt(0, 4))
	x.Insert(2, pt(0, 5), pt(1, 0))

	x.Splice(point.Zero, pt(2, 0), point.Zero)

	for _, id := range []uint32{1, 2} {
		if got, _ := x.Range(id); got != (point.Range{}) {
			t.Errorf("Range(%d) = %v, want empty at origin", id, got)
		}
	}
	checkStructure(t, x)
}

func TestSpliceRandomized(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		rng := rand.New(rand.NewSource(seed))
		x := New(WithSeed(uint32(seed)))
		m := newModel()

		for step := 0; step < 80; step++ {
			switch op := rng.Intn(10); {
			case op < 4:
				id := uint32(rng.Intn(20) + 1)
				s, e := randomRange(rng)
				x.Insert(id, s, e)
				m.insert(id, s, e)
				excl := rng.Intn(3) == 0
				x.SetExclusive(id, excl)
				m.exclusive[id] = excl
			case op < 5:
				id := uint32(rng.Intn(20) + 1)
				x.Remove(id)
				m.remove(id)
			default:
				start := randomPoint(rng)
				oldExtent, newExtent := randomExtent(rng), randomExtent(rng)
				x.Splice(start, oldExtent, newExtent)
				m.splice(start, oldExtent, newExtent)
			}

			checkStructure(t, x)
			checkPositions(t, x, m)
			s, e := randomRange(rng)
			checkQueries(t, x, m, s, e)
		}
	}
}
