package tracking

import (
	"testing"
	"time"

	"github.com/dshills/buffercore/internal/engine/patch"
	"github.com/dshills/buffercore/internal/engine/point"
)

// edit records the replacement of oldText by newText at byte offset in doc.
func edit(t *testing.T, p *patch.Patch, doc string, offset int, oldText, newText string) string {
	t.Helper()
	start := patch.TextPointForOffset(doc, offset)
	err := p.Splice(start, patch.TextExtent(oldText), patch.TextExtent(newText), patch.Known(oldText), patch.Known(newText))
	if err != nil {
		t.Fatalf("Splice(%v, %q, %q) error = %v", start, oldText, newText, err)
	}
	return doc[:offset] + newText + doc[offset+len(oldText):]
}

func applyChanges(doc string, p *patch.Patch) string {
	out := ""
	offset := 0
	for _, c := range p.Changes() {
		start := patch.TextOffsetForPoint(doc, c.OldStart)
		end := patch.TextOffsetForPoint(doc, c.OldEnd)
		out += doc[offset:start] + c.NewText.String()
		offset = end
	}
	return out + doc[offset:]
}

func TestSnapshotManager(t *testing.T) {
	sm := NewSnapshotManager()
	p := patch.New()
	edit(t, p, "hello", 0, "", "X")

	id1 := sm.Create("first", p, 1)
	id2 := sm.Create("", p, 2)
	if id1 == id2 {
		t.Fatal("Create() returned duplicate ids")
	}
	if got := sm.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	snap, ok := sm.Get(id1)
	if !ok {
		t.Fatal("Get(id1) not found")
	}
	if snap.Name != "first" || snap.Version != 1 || snap.ChangeCount() != 1 {
		t.Errorf("snapshot = {%q, %d, %d changes}, want {first, 1, 1 changes}", snap.Name, snap.Version, snap.ChangeCount())
	}

	byName, ok := sm.GetByName("first")
	if !ok || byName.ID != id1 {
		t.Errorf("GetByName(first) = %v, %v, want id %v", byName, ok, id1)
	}

	// Snapshots hold their own copy of the patch.
	p.Clear()
	if snap.ChangeCount() != 1 {
		t.Error("snapshot changed when the source patch was cleared")
	}
	snap.Changes().Clear()
	if snap.ChangeCount() != 1 {
		t.Error("snapshot changed through the copy returned by Changes")
	}

	if names := sm.Names(); len(names) != 1 || names[0] != "first" {
		t.Errorf("Names() = %v, want [first]", names)
	}

	list := sm.List()
	if len(list) != 2 || list[0].ID != id1 || list[1].ID != id2 {
		t.Errorf("List() is not in creation order")
	}

	if !sm.Delete(id2) || sm.Delete(id2) {
		t.Error("Delete(id2) should succeed once")
	}
	if !sm.DeleteByName("first") || sm.DeleteByName("first") {
		t.Error("DeleteByName(first) should succeed once")
	}
	if sm.Count() != 0 {
		t.Errorf("Count() = %d after deletes, want 0", sm.Count())
	}
}

func TestSnapshotManagerReplaceByName(t *testing.T) {
	sm := NewSnapshotManager()
	p := patch.New()

	old := sm.Create("cp", p, 1)
	replacement := sm.Create("cp", p, 2)

	if _, ok := sm.Get(old); ok {
		t.Error("replaced snapshot is still reachable by id")
	}
	snap, ok := sm.GetByName("cp")
	if !ok || snap.ID != replacement {
		t.Errorf("GetByName(cp) = %v, want id %v", snap, replacement)
	}
	if sm.Count() != 1 {
		t.Errorf("Count() = %d, want 1", sm.Count())
	}
}

func TestSnapshotManagerPrune(t *testing.T) {
	sm := NewSnapshotManager()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := base
	sm.now = func() time.Time { return clock }

	p := patch.New()
	for i := 0; i < 4; i++ {
		sm.Create("", p, uint64(i))
		clock = clock.Add(time.Minute)
	}

	// Snapshots at +0m, +1m, +2m, +3m; now is +4m.
	if got := sm.Prune(150 * time.Second); got != 2 {
		t.Errorf("Prune() = %d, want 2", got)
	}
	if got := sm.Count(); got != 2 {
		t.Errorf("Count() = %d, want 2", got)
	}

	if got := sm.PruneKeepN(1); got != 1 {
		t.Errorf("PruneKeepN(1) = %d, want 1", got)
	}
	list := sm.List()
	if len(list) != 1 || list[0].Version != 3 {
		t.Errorf("remaining snapshot version = %v, want 3", list)
	}
	if got := sm.PruneKeepN(5); got != 0 {
		t.Errorf("PruneKeepN(5) = %d, want 0", got)
	}
	if got := sm.PruneKeepN(-1); got != 1 {
		t.Errorf("PruneKeepN(-1) = %d, want 1", got)
	}

	sm.Create("x", p, 9)
	sm.Clear()
	if sm.Count() != 0 || len(sm.Names()) != 0 {
		t.Error("Clear() left snapshots behind")
	}
}

func TestSnapshotManagerRebase(t *testing.T) {
	const base = "one two three\n"
	changes := patch.New()

	doc := edit(t, changes, base, 4, "two", "2")
	sm := NewSnapshotManager()
	id := sm.Create("mid", changes, 1)
	mid := doc

	doc = edit(t, changes, doc, 0, "one", "1")

	// Save at the current document: it becomes the new baseline.
	if err := sm.Rebase(changes); err != nil {
		t.Fatalf("Rebase() error = %v", err)
	}

	snap, _ := sm.Get(id)
	if got := applyChanges(doc, snap.Changes()); got != mid {
		t.Errorf("rebased snapshot maps %q to %q, want %q", doc, got, mid)
	}
	if byName, _ := sm.GetByName("mid"); byName.ChangeCount() != snap.ChangeCount() {
		t.Error("name index was not updated by Rebase")
	}

	want := []patch.Change{{OldStart: point.Zero, OldEnd: point.Point{Column: 1}, NewStart: point.Zero, NewEnd: point.Point{Column: 3}}}
	got := snap.Changes().Changes()
	if len(got) != 1 || got[0].OldEnd != want[0].OldEnd || got[0].NewEnd != want[0].NewEnd {
		t.Errorf("rebased changes = %v, want one change 1 -> one", got)
	}
}
