// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package parallel

// Sharded is an append-only accumulator split into one independent buffer
// per worker. During a parallel phase each worker appends only to its own
// shard, so no locks or atomics are needed; the merged view is read
// single-threaded after the phase barrier.
//
// The merged order is shard index first, then insertion order within the
// shard. Callers that need a user-visible order must sort the merged slice
// with an explicit total key; callers that need deduplication must enforce
// it themselves (typically with a per-element atomic flag) before appending.
type Sharded[T any] struct {
	shards [][]T
}

// NewSharded creates an accumulator with the given number of shards,
// normally one per pool worker.
func NewSharded[T any](shards int) *Sharded[T] {
	s := &Sharded[T]{}
	s.Reset(shards)
	return s
}

// Reset clears all shards and adjusts the shard count, keeping allocated
// capacity where possible. Called at the start of every frame.
func (s *Sharded[T]) Reset(shards int) {
	if cap(s.shards) < shards {
		old := s.shards
		s.shards = make([][]T, shards)
		copy(s.shards, old)
	} else {
		s.shards = s.shards[:shards]
	}
	for i := range s.shards {
		s.shards[i] = s.shards[i][:0]
	}
}

// Append adds a value to the given worker's shard.
// Safe to call concurrently as long as each worker uses its own index.
func (s *Sharded[T]) Append(worker int, v T) {
	s.shards[worker] = append(s.shards[worker], v)
}

// Len returns the total number of accumulated values across all shards.
func (s *Sharded[T]) Len() int {
	n := 0
	for i := range s.shards {
		n += len(s.shards[i])
	}
	return n
}

// Collect appends all accumulated values to dst and returns the result.
// Pass nil to get a fresh slice, or a recycled frame buffer to avoid
// allocation. Must not run concurrently with Append.
func (s *Sharded[T]) Collect(dst []T) []T {
	for i := range s.shards {
		dst = append(dst, s.shards[i]...)
	}
	return dst
}

// Each invokes fn for every accumulated value, shard by shard.
// Must not run concurrently with Append.
func (s *Sharded[T]) Each(fn func(v T)) {
	for i := range s.shards {
		for _, v := range s.shards[i] {
			fn(v)
		}
	}
}
