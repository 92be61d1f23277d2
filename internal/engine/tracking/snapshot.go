package tracking

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/buffercore/internal/engine/patch"
)

// Errors returned by snapshot operations.
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotID uniquely identifies a snapshot.
type SnapshotID = uuid.UUID

// Snapshot is a named checkpoint of recorded changes.
// Snapshots are immutable and can be safely shared across goroutines.
type Snapshot struct {
	// ID uniquely identifies this snapshot.
	ID SnapshotID

	// Name is the human-readable name for this snapshot. It may be empty.
	Name string

	// Timestamp when this snapshot was created.
	Timestamp time.Time

	// Version is the edit version the snapshot was taken at.
	Version uint64

	seq     uint64
	changes *patch.Patch
}

// Changes returns a copy of the patch mapping the baseline onto the
// snapshot's document.
func (s *Snapshot) Changes() *patch.Patch {
	return s.changes.Copy()
}

// ChangeCount returns the number of changes recorded at the snapshot.
func (s *Snapshot) ChangeCount() int {
	return s.changes.ChangeCount()
}

// SnapshotManager manages snapshots.
// All operations are thread-safe.
type SnapshotManager struct {
	mu        sync.RWMutex
	snapshots map[SnapshotID]*Snapshot
	byName    map[string]*Snapshot
	seq       uint64
	now       func() time.Time
}

// NewSnapshotManager creates a new snapshot manager.
func NewSnapshotManager() *SnapshotManager {
	return &SnapshotManager{
		snapshots: make(map[SnapshotID]*Snapshot),
		byName:    make(map[string]*Snapshot),
		now:       time.Now,
	}
}

// Create stores a copy of changes as a new snapshot.
// If a snapshot with the same non-empty name exists, it is replaced.
func (sm *SnapshotManager) Create(name string, changes *patch.Patch, version uint64) SnapshotID {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if existing, ok := sm.byName[name]; ok {
		delete(sm.snapshots, existing.ID)
	}

	sm.seq++
	snap := &Snapshot{
		ID:        uuid.New(),
		Name:      name,
		Timestamp: sm.now(),
		Version:   version,
		seq:       sm.seq,
		changes:   changes.Copy(),
	}

	sm.snapshots[snap.ID] = snap
	if name != "" {
		sm.byName[name] = snap
	}
	return snap.ID
}

// Get retrieves a snapshot by ID.
func (sm *SnapshotManager) Get(id SnapshotID) (*Snapshot, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	snap, ok := sm.snapshots[id]
	return snap, ok
}

// GetByName retrieves a snapshot by name.
func (sm *SnapshotManager) GetByName(name string) (*Snapshot, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	snap, ok := sm.byName[name]
	return snap, ok
}

// Delete removes a snapshot by ID.
func (sm *SnapshotManager) Delete(id SnapshotID) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	snap, ok := sm.snapshots[id]
	if !ok {
		return false
	}
	sm.remove(snap)
	return true
}

// DeleteByName removes a snapshot by name.
func (sm *SnapshotManager) DeleteByName(name string) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	snap, ok := sm.byName[name]
	if !ok {
		return false
	}
	sm.remove(snap)
	return true
}

func (sm *SnapshotManager) remove(snap *Snapshot) {
	if snap.Name != "" && sm.byName[snap.Name] == snap {
		delete(sm.byName, snap.Name)
	}
	delete(sm.snapshots, snap.ID)
}

// List returns all snapshots, oldest first.
func (sm *SnapshotManager) List() []*Snapshot {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sorted()
}

func (sm *SnapshotManager) sorted() []*Snapshot {
	snapshots := make([]*Snapshot, 0, len(sm.snapshots))
	for _, snap := range sm.snapshots {
		snapshots = append(snapshots, snap)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].seq < snapshots[j].seq
	})
	return snapshots
}

// Count returns the number of snapshots.
func (sm *SnapshotManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.snapshots)
}

// Clear removes all snapshots.
func (sm *SnapshotManager) Clear() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.snapshots = make(map[SnapshotID]*Snapshot)
	sm.byName = make(map[string]*Snapshot)
}

// Names returns all snapshot names in creation order.
func (sm *SnapshotManager) Names() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	names := make([]string, 0, len(sm.byName))
	for _, snap := range sm.sorted() {
		if snap.Name != "" {
			names = append(names, snap.Name)
		}
	}
	return names
}

// Rebase rewrites every snapshot's changes relative to a new baseline.
// moved maps the old baseline onto the new one; each snapshot becomes
// the composition of moved's inverse with its own changes. Either every
// snapshot is rebased or, on error, none is.
func (sm *SnapshotManager) Rebase(moved *patch.Patch) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	back := moved.Invert()
	rebased := make(map[SnapshotID]*patch.Patch, len(sm.snapshots))
	for id, snap := range sm.snapshots {
		p, err := patch.Compose([]*patch.Patch{back, snap.changes}, patch.WithMergeAdjacentChanges(snap.changes.MergesAdjacentChanges()))
		if err != nil {
			return fmt.Errorf("rebasing snapshot %s: %w", id, err)
		}
		rebased[id] = p
	}

	for id, p := range rebased {
		old := sm.snapshots[id]
		snap := *old
		snap.changes = p
		sm.snapshots[id] = &snap
		if snap.Name != "" {
			sm.byName[snap.Name] = &snap
		}
	}
	return nil
}

// Prune removes snapshots older than the given duration.
// Returns the number of snapshots removed.
func (sm *SnapshotManager) Prune(maxAge time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cutoff := sm.now().Add(-maxAge)
	var removed int
	for _, snap := range sm.sorted() {
		if snap.Timestamp.Before(cutoff) {
			sm.remove(snap)
			removed++
		}
	}
	return removed
}

// PruneKeepN removes the oldest snapshots, keeping only the n most recent.
// Returns the number of snapshots removed.
func (sm *SnapshotManager) PruneKeepN(n int) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if n < 0 {
		n = 0
	}
	snapshots := sm.sorted()
	if len(snapshots) <= n {
		return 0
	}
	removed := 0
	for _, snap := range snapshots[:len(snapshots)-n] {
		sm.remove(snap)
		removed++
	}
	return removed
}
