package engine

import (
	"github.com/dshills/buffercore/internal/logging"
)

// Default configuration values.
const (
	DefaultMergeAdjacentChanges = true
	DefaultMarkerSeed           = 0
)

// Option configures an Engine during creation.
type Option func(*Engine)

// WithLogger sets the logger. The engine logs under the "engine" component.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithMarkerSeed seeds the marker index priority generator so tree shapes
// are reproducible.
func WithMarkerSeed(seed uint32) Option {
	return func(e *Engine) {
		e.markerSeed = seed
	}
}

// WithMergeAdjacentChanges controls whether edits that touch an existing
// change are folded into it.
func WithMergeAdjacentChanges(merge bool) Option {
	return func(e *Engine) {
		e.mergeAdjacent = merge
	}
}
