package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/buffercore/internal/engine/markers"
	"github.com/dshills/buffercore/internal/engine/patch"
	"github.com/dshills/buffercore/internal/engine/point"
	"github.com/dshills/buffercore/internal/engine/tracking"
	"github.com/dshills/buffercore/internal/logging"
)

// Re-export commonly used types for convenience.
type (
	// Point represents a row/column position.
	Point = point.Point

	// Range represents a pair of points.
	Range = point.Range

	// Change is a recorded change between the saved baseline and the
	// current document.
	Change = patch.Change

	// Invalidation classifies the markers affected by an edit.
	Invalidation = markers.Invalidation

	// BoundaryQuery lists marker boundaries after a position.
	BoundaryQuery = markers.BoundaryQuery

	// SnapshotID uniquely identifies a snapshot.
	SnapshotID = tracking.SnapshotID

	// Snapshot is a named checkpoint of recorded changes.
	Snapshot = tracking.Snapshot
)

// Engine records edits to a document held elsewhere. It keeps the markers
// placed on the document and a patch of every change since the last saved
// baseline. The document text itself is never stored: each edit supplies
// the text it removes and the text it inserts.
//
// All operations are thread-safe and can be called from multiple goroutines.
type Engine struct {
	mu sync.RWMutex

	markers   *markers.Index
	changes   *patch.Patch
	snapshots *tracking.SnapshotManager
	log       *logging.Logger

	version      uint64
	nextMarkerID uint32

	// saveGeneration is the last generation handed to a save; baseGeneration
	// is the generation whose document is the current baseline. pending
	// holds, per save in flight, the changes it is persisting.
	saveGeneration uint64
	baseGeneration uint64
	pending        map[uint64]*patch.Patch

	mergeAdjacent bool
	markerSeed    uint32
}

// New creates a new Engine with the given options.
func New(opts ...Option) *Engine {
	e := &Engine{
		log:           logging.Null(),
		mergeAdjacent: DefaultMergeAdjacentChanges,
		markerSeed:    DefaultMarkerSeed,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.log = e.log.WithComponent("engine")
	e.markers = markers.New(markers.WithSeed(e.markerSeed))
	e.changes = e.newPatch()
	e.snapshots = tracking.NewSnapshotManager()
	e.pending = make(map[uint64]*patch.Patch)
	return e
}

func (e *Engine) newPatch() *patch.Patch {
	return patch.New(patch.WithMergeAdjacentChanges(e.mergeAdjacent))
}

// ============================================================================
// Edit Operations
// ============================================================================

// Edit records the replacement of oldText at start by newText and moves
// the markers across it. oldText must be the document text at start; where
// it overlaps earlier edits it must match the text they inserted, otherwise
// the edit is rejected with patch.ErrPatchDoesNotApply and nothing changes.
func (e *Engine) Edit(start Point, oldText, newText string) (Invalidation, error) {
	if oldText == "" && newText == "" {
		return Invalidation{}, nil
	}
	oldExtent := patch.TextExtent(oldText)
	newExtent := patch.TextExtent(newText)

	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.changes.Splice(start, oldExtent, newExtent, patch.Known(oldText), patch.Known(newText))
	if err != nil {
		e.log.Warn("rejected edit at %v replacing %v with %v: %v", start, oldExtent, newExtent, err)
		return Invalidation{}, fmt.Errorf("edit at %v: %w", start, err)
	}
	inv := e.markers.Splice(start, oldExtent, newExtent)
	e.version++

	if e.log.Enabled(logging.LevelDebug) {
		e.log.WithFields(map[string]any{
			"version": e.version,
			"changes": e.changes.ChangeCount(),
		}).Debug("edit at %v replaced %v with %v", start, oldExtent, newExtent)
	}
	return inv, nil
}

// Version returns the number of edits applied since creation.
func (e *Engine) Version() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.version
}

// ============================================================================
// Change Queries
// ============================================================================

// IsModified reports whether the document differs from the saved baseline.
func (e *Engine) IsModified() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return hasEffectiveChanges(e.changes)
}

// Changes returns the changes between the saved baseline and the current
// document, in order.
func (e *Engine) Changes() []Change {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.changes.Changes()
}

// ChangesInRange returns the changes overlapping [start, end) in current
// document coordinates.
func (e *Engine) ChangesInRange(start, end Point) []Change {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.changes.ChangesInNewRange(start, end)
}

// ChangeCount returns the number of recorded changes.
func (e *Engine) ChangeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.changes.ChangeCount()
}

// SerializeChanges encodes the changes since the saved baseline.
func (e *Engine) SerializeChanges() []byte {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.changes.Serialize()
}

// DeserializeChanges replaces the recorded changes with the decoded patch.
// Markers are left in place: the document they describe is unchanged.
func (e *Engine) DeserializeChanges(data []byte) error {
	p, err := patch.Deserialize(data, patch.WithMergeAdjacentChanges(e.mergeAdjacent))
	if err != nil {
		return fmt.Errorf("deserializing changes: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.changes = p
	e.version++
	e.log.Info("loaded %d changes", p.ChangeCount())
	return nil
}

// hasEffectiveChanges reports whether p contains a change that is not
// known to restore the text it replaced.
func hasEffectiveChanges(p *patch.Patch) bool {
	for _, c := range p.Changes() {
		if !c.OldText.IsKnown() || !c.NewText.IsKnown() || !c.OldText.Equal(c.NewText) {
			return true
		}
	}
	return false
}

// ============================================================================
// Snapshot Operations
// ============================================================================

// CreateSnapshot records the current changes under name. An existing
// snapshot with the same non-empty name is replaced.
func (e *Engine) CreateSnapshot(name string) SnapshotID {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snapshots.Create(name, e.changes, e.version)
}

// GetSnapshot retrieves a snapshot by ID.
func (e *Engine) GetSnapshot(id SnapshotID) (*Snapshot, error) {
	snap, ok := e.snapshots.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	return snap, nil
}

// GetSnapshotByName retrieves a snapshot by name.
func (e *Engine) GetSnapshotByName(name string) (*Snapshot, error) {
	snap, ok := e.snapshots.GetByName(name)
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrSnapshotNotFound)
	}
	return snap, nil
}

// DeleteSnapshot removes a snapshot.
func (e *Engine) DeleteSnapshot(id SnapshotID) error {
	if !e.snapshots.Delete(id) {
		return fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	return nil
}

// ListSnapshots returns all snapshots, oldest first.
func (e *Engine) ListSnapshots() []*Snapshot {
	return e.snapshots.List()
}

// SnapshotCount returns the number of snapshots.
func (e *Engine) SnapshotCount() int {
	return e.snapshots.Count()
}

// InvertedChanges returns a patch mapping the current document back to the
// document at the snapshot.
func (e *Engine) InvertedChanges(id SnapshotID) (*patch.Patch, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.invertedChangesLocked(id)
}

func (e *Engine) invertedChangesLocked(id SnapshotID) (*patch.Patch, error) {
	snap, ok := e.snapshots.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrSnapshotNotFound)
	}
	p, err := patch.Compose([]*patch.Patch{e.changes.Invert(), snap.Changes()},
		patch.WithMergeAdjacentChanges(e.mergeAdjacent))
	if err != nil {
		return nil, fmt.Errorf("comparing with snapshot %s: %w", id, err)
	}
	return p, nil
}

// IsModifiedSince reports whether the document differs from the document
// at the snapshot.
func (e *Engine) IsModifiedSince(id SnapshotID) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, err := e.invertedChangesLocked(id)
	if err != nil {
		return false, err
	}
	return hasEffectiveChanges(p), nil
}

// ============================================================================
// Save Operations
// ============================================================================

// SaveRequest describes the document state handed to a Sink.
type SaveRequest struct {
	// Token uniquely identifies the save.
	Token uuid.UUID
	// Generation orders concurrent saves; later saves have higher generations.
	Generation uint64
	// Version is the edit version being saved.
	Version uint64
	// Changes maps the current baseline onto the saved document. The sink
	// owns this copy.
	Changes *patch.Patch
}

// Sink persists a document. Save is called without the engine lock held, so
// saves may run concurrently with edits and with each other.
type Sink interface {
	Save(ctx context.Context, req SaveRequest) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, req SaveRequest) error

// Save implements Sink.
func (f SinkFunc) Save(ctx context.Context, req SaveRequest) error {
	return f(ctx, req)
}

// Save hands the current state to sink under a new generation. When the
// sink succeeds the saved document becomes the new baseline, unless a save
// with a higher generation has already committed, in which case the result
// is discarded and ErrStaleSave is returned. Changes and snapshots are
// rebased onto the new baseline, including edits made while the sink ran.
func (e *Engine) Save(ctx context.Context, sink Sink) error {
	if sink == nil {
		return ErrNilSink
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e.mu.Lock()
	e.saveGeneration++
	req := SaveRequest{
		Token:      uuid.New(),
		Generation: e.saveGeneration,
		Version:    e.version,
		Changes:    e.changes.Copy(),
	}
	e.pending[req.Generation] = e.changes.Copy()
	e.mu.Unlock()

	log := e.log.WithFields(map[string]any{"generation": req.Generation, "token": req.Token})
	sinkErr := sink.Save(ctx, req)

	e.mu.Lock()
	defer e.mu.Unlock()

	saved := e.pending[req.Generation]
	delete(e.pending, req.Generation)

	if sinkErr != nil {
		log.Warn("save failed: %v", sinkErr)
		return fmt.Errorf("save generation %d: %w", req.Generation, sinkErr)
	}
	if req.Generation <= e.baseGeneration {
		log.Info("discarded stale save; generation %d already committed", e.baseGeneration)
		return ErrStaleSave
	}
	if err := e.commitLocked(req, saved); err != nil {
		log.Error("%v", err)
		return err
	}
	log.Info("committed save of version %d", req.Version)
	return nil
}

// commitLocked moves the baseline to the document saved by req. saved maps
// the current baseline onto that document. Every dependent patch is
// recomputed before any is replaced.
func (e *Engine) commitLocked(req SaveRequest, saved *patch.Patch) error {
	opt := patch.WithMergeAdjacentChanges(e.mergeAdjacent)
	back := saved.Invert()

	changes := e.newPatch()
	if e.version != req.Version {
		var err error
		changes, err = patch.Compose([]*patch.Patch{back, e.changes}, opt)
		if err != nil {
			return fmt.Errorf("rebasing changes onto generation %d: %w", req.Generation, err)
		}
	}

	// Later saves still in flight were captured against the old baseline.
	pending := make(map[uint64]*patch.Patch, len(e.pending))
	for gen, p := range e.pending {
		if gen < req.Generation {
			continue
		}
		rebased, err := patch.Compose([]*patch.Patch{back, p}, opt)
		if err != nil {
			return fmt.Errorf("rebasing save generation %d: %w", gen, err)
		}
		pending[gen] = rebased
	}

	if err := e.snapshots.Rebase(saved); err != nil {
		return fmt.Errorf("rebasing snapshots onto generation %d: %w", req.Generation, err)
	}

	for gen, p := range pending {
		e.pending[gen] = p
	}
	e.changes = changes
	e.baseGeneration = req.Generation
	return nil
}

// SaveGenerations returns the last generation handed to a sink and the
// generation of the current baseline.
func (e *Engine) SaveGenerations() (issued, committed uint64) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.saveGeneration, e.baseGeneration
}

// ============================================================================
// Marker Operations
// ============================================================================
//
// Marker queries take the write lock: the index caches resolved positions.

// AddMarker places a new marker over [start, end] and returns its id.
// Reversed endpoints are swapped.
func (e *Engine) AddMarker(start, end Point, exclusive bool) uint32 {
	r := point.NewRange(start, end)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextMarkerID++
	id := e.nextMarkerID
	e.markers.Insert(id, r.Start, r.End)
	if exclusive {
		e.markers.SetExclusive(id, true)
	}
	return id
}

// RemoveMarker removes a marker.
func (e *Engine) RemoveMarker(id uint32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.markers.Has(id) {
		return fmt.Errorf("marker %d: %w", id, ErrMarkerNotFound)
	}
	e.markers.Remove(id)
	return nil
}

// SetMarkerExclusive sets whether text inserted at the marker's boundaries
// stays outside it.
func (e *Engine) SetMarkerExclusive(id uint32, exclusive bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.markers.Has(id) {
		return fmt.Errorf("marker %d: %w", id, ErrMarkerNotFound)
	}
	e.markers.SetExclusive(id, exclusive)
	return nil
}

// MarkerRange returns the current range of a marker.
func (e *Engine) MarkerRange(id uint32) (Range, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r, ok := e.markers.Range(id)
	if !ok {
		return Range{}, fmt.Errorf("marker %d: %w", id, ErrMarkerNotFound)
	}
	return r, nil
}

// MarkerCount returns the number of markers.
func (e *Engine) MarkerCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.markers.Len()
}

// FindMarkersIntersecting returns markers intersecting [start, end].
func (e *Engine) FindMarkersIntersecting(start, end Point) []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markers.FindIntersecting(start, end)
}

// FindMarkersContaining returns markers containing [start, end].
func (e *Engine) FindMarkersContaining(start, end Point) []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markers.FindContaining(start, end)
}

// FindMarkersContainedIn returns markers lying within [start, end].
func (e *Engine) FindMarkersContainedIn(start, end Point) []uint32 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markers.FindContainedIn(start, end)
}

// MarkerBoundariesAfter returns up to maxCount marker boundaries at or after
// start, with the markers already open at start.
func (e *Engine) MarkerBoundariesAfter(start Point, maxCount int) BoundaryQuery {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markers.FindBoundariesAfter(start, maxCount)
}

// Markers returns the range of every marker.
func (e *Engine) Markers() map[uint32]Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.markers.Dump()
}
