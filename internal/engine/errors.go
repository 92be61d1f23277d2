package engine

import (
	"errors"

	"github.com/dshills/buffercore/internal/engine/tracking"
)

// Errors returned by engine operations.
var (
	// ErrSnapshotNotFound indicates a snapshot was not found.
	ErrSnapshotNotFound = tracking.ErrSnapshotNotFound

	// ErrMarkerNotFound indicates a marker id is not in the index.
	ErrMarkerNotFound = errors.New("marker not found")

	// ErrStaleSave indicates a save completed after a newer save had already
	// committed its baseline. The stale save's result is discarded.
	ErrStaleSave = errors.New("save superseded by a newer save")

	// ErrNilSink indicates Save was called without a sink.
	ErrNilSink = errors.New("nil save sink")
)
