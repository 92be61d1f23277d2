package markers

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/dshills/buffercore/internal/engine/point"
)

func TestFindQueries(t *testing.T) {
	x := New(WithSeed(17))
	x.Insert(1, pt(0, 0), pt(0, 10))
	x.Insert(2, pt(0, 2), pt(0, 4))
	x.Insert(3, pt(0, 4), pt(0, 8))
	x.Insert(4, pt(1, 0), pt(1, 0))

	tests := []struct {
		name string
		got  []uint32
		want []uint32
	}{
		{"intersecting touching end", x.FindIntersecting(pt(0, 4), pt(0, 4)), []uint32{1, 2, 3}},
		{"intersecting span", x.FindIntersecting(pt(0, 9), pt(1, 0)), []uint32{1, 4}},
		{"containing point", x.FindContaining(pt(0, 3), pt(0, 3)), []uint32{1, 2}},
		{"containing range", x.FindContaining(pt(0, 3), pt(0, 5)), []uint32{1}},
		{"contained in", x.FindContainedIn(pt(0, 2), pt(0, 8)), []uint32{2, 3}},
		{"starting in", x.FindStartingIn(pt(0, 1), pt(0, 4)), []uint32{2, 3}},
		{"ending in", x.FindEndingIn(pt(0, 4), pt(0, 10)), []uint32{1, 2, 3}},
		{"starting at", x.FindStartingAt(pt(0, 4)), []uint32{3}},
		{"ending at", x.FindEndingAt(pt(0, 4)), []uint32{2}},
		{"empty marker", x.FindContaining(pt(1, 0), pt(1, 0)), []uint32{4}},
		{"past all", x.FindIntersecting(pt(2, 0), pt(3, 0)), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !equalIDs(tt.got, tt.want) {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestFindBoundariesAfter(t *testing.T) {
	x := New(WithSeed(5))
	x.Insert(1, pt(0, 0), pt(0, 10))
	x.Insert(2, pt(0, 0), pt(0, 6))
	x.Insert(3, pt(0, 4), pt(0, 8))
	x.Insert(4, pt(0, 6), pt(0, 12))

	q := x.FindBoundariesAfter(pt(0, 5), 3)

	// 1 and 2 share a start; the longer one sorts first.
	if want := []uint32{1, 2, 3}; !slices.Equal(q.ContainingStart, want) {
		t.Errorf("ContainingStart = %v, want %v", q.ContainingStart, want)
	}

	want := []Boundary{
		{Position: pt(0, 6), Starting: []uint32{4}, Ending: []uint32{2}},
		{Position: pt(0, 8), Starting: nil, Ending: []uint32{3}},
		{Position: pt(0, 10), Starting: nil, Ending: []uint32{1}},
	}
	if len(q.Boundaries) != len(want) {
		t.Fatalf("len(Boundaries) = %d, want %d", len(q.Boundaries), len(want))
	}
	for i, b := range q.Boundaries {
		w := want[i]
		if b.Position != w.Position || !equalIDs(b.Starting, w.Starting) || !equalIDs(b.Ending, w.Ending) {
			t.Errorf("Boundaries[%d] = %+v, want %+v", i, b, w)
		}
	}
}

func TestFindBoundariesAfterAtBoundary(t *testing.T) {
	x := New()
	x.Insert(1, pt(0, 2), pt(0, 6))
	x.Insert(2, pt(0, 0), pt(0, 8))

	q := x.FindBoundariesAfter(pt(0, 2), 1)

	// A marker starting exactly at the query point is reported as a
	// boundary, not as containing it.
	if want := []uint32{2}; !slices.Equal(q.ContainingStart, want) {
		t.Errorf("ContainingStart = %v, want %v", q.ContainingStart, want)
	}
	if len(q.Boundaries) != 1 || q.Boundaries[0].Position != pt(0, 2) {
		t.Fatalf("Boundaries = %+v, want one at (0, 2)", q.Boundaries)
	}
	if !slices.Equal(q.Boundaries[0].Starting, []uint32{1}) {
		t.Errorf("Starting = %v, want [1]", q.Boundaries[0].Starting)
	}
}

func TestFindBoundariesAfterRandomized(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		x, m := buildRandomIndex(seed, 25)
		rng := rand.New(rand.NewSource(seed))

		for q := 0; q < 10; q++ {
			start := randomPoint(rng)
			got := x.FindBoundariesAfter(start, 1<<20)

			containing := m.query(func(r point.Range) bool {
				return r.Start.Before(start) && r.End.Compare(start) >= 0
			})
			slices.Sort(got.ContainingStart)
			if !equalIDs(got.ContainingStart, containing) {
				t.Fatalf("seed %d: ContainingStart(%v) = %v, want %v", seed, start, got.ContainingStart, containing)
			}

			var endpoints []point.Point
			for _, r := range m.ranges {
				for _, p := range []point.Point{r.Start, r.End} {
					if p.Compare(start) >= 0 && !slices.Contains(endpoints, p) {
						endpoints = append(endpoints, p)
					}
				}
			}
			slices.SortFunc(endpoints, point.Point.Compare)
			if len(got.Boundaries) != len(endpoints) {
				t.Fatalf("seed %d: %d boundaries after %v, want %d", seed, len(got.Boundaries), start, len(endpoints))
			}
			for i, b := range got.Boundaries {
				if b.Position != endpoints[i] {
					t.Fatalf("seed %d: Boundaries[%d] at %v, want %v", seed, i, b.Position, endpoints[i])
				}
			}
		}
	}
}
