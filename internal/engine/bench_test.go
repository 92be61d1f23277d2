package engine

import (
	"context"
	"testing"
)

// ============================================================================
// Setup Helpers
// ============================================================================

// setupEngine records n single-character insertions spread over n rows.
func setupEngine(b *testing.B, n int) *Engine {
	b.Helper()
	e := New()
	for i := 0; i < n; i++ {
		if _, err := e.Edit(Point{Row: uint32(i), Column: 0}, "", "x\n"); err != nil {
			b.Fatal(err)
		}
		e.AddMarker(Point{Row: uint32(i)}, Point{Row: uint32(i), Column: 1}, i%2 == 0)
	}
	return e
}

// ============================================================================
// Edit Benchmarks
// ============================================================================

func BenchmarkEngineEditAppend(b *testing.B) {
	e := New()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := e.Edit(Point{Column: uint32(i)}, "", "a"); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineEditScattered(b *testing.B) {
	e := setupEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		row := uint32(i*7919) % 1000
		if _, err := e.Edit(Point{Row: row}, "", "y"); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Query Benchmarks
// ============================================================================

func BenchmarkEngineChanges(b *testing.B) {
	e := setupEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_ = e.Changes()
	}
}

func BenchmarkEngineFindMarkers(b *testing.B) {
	e := setupEngine(b, 1000)
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		row := uint32(i) % 1000
		_ = e.FindMarkersIntersecting(Point{Row: row}, Point{Row: row + 10})
	}
}

func BenchmarkEngineSnapshotCompare(b *testing.B) {
	e := setupEngine(b, 200)
	id := e.CreateSnapshot("bench")
	for i := 0; i < 50; i++ {
		if _, err := e.Edit(Point{Row: uint32(i * 3)}, "x", "z"); err != nil {
			b.Fatal(err)
		}
	}
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := e.InvertedChanges(id); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEngineSave(b *testing.B) {
	ctx := context.Background()
	e := New()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := e.Edit(Point{}, "", "s"); err != nil {
			b.Fatal(err)
		}
		if err := e.Save(ctx, nopSink()); err != nil {
			b.Fatal(err)
		}
	}
}
