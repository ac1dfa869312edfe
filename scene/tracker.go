// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

import "sync/atomic"

// StateTracker caches a derived pipeline-state hash for an object whose
// relevant state changes rarely (a drawable's zone, geometry layout, and so
// on). The hash is recomputed lazily on first read after MarkDirty.
//
// Hash is safe to call from multiple threads as long as the underlying
// object is not mutated concurrently; the cached value is stored atomically.
type StateTracker struct {
	hash    atomic.Uint32
	recompute func() uint32
}

// NewStateTracker creates a tracker that recomputes the hash with fn.
// fn may return any value; zero results are remapped to 1, since zero is
// reserved as the "dirty" marker.
func NewStateTracker(fn func() uint32) *StateTracker {
	return &StateTracker{recompute: fn}
}

// Hash returns the cached hash, recomputing it if the tracker is dirty.
// The returned value is never zero.
func (t *StateTracker) Hash() uint32 {
	if h := t.hash.Load(); h != 0 {
		return h
	}

	h := uint32(1)
	if t.recompute != nil {
		if v := t.recompute(); v != 0 {
			h = v
		}
	}
	t.hash.Store(h)
	return h
}

// MarkDirty forces the next Hash call to recompute.
func (t *StateTracker) MarkDirty() {
	t.hash.Store(0)
}
