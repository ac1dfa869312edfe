// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package parallel provides the worker pool and per-worker sharded storage
// the collector runs its fork-join phases on.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a pool of goroutines for fork-join work over scene collections.
//
// The pool distributes work items across multiple workers, each with their own
// queue. Workers can steal work from other workers when their own queue is
// empty. Every work item receives the index of the worker executing it, so
// callers can write to per-worker scratch storage (see Sharded) without any
// synchronization inside the hot path.
//
// Thread safety: Pool is safe for concurrent use. Post and Wait are intended
// to be called from a single orchestrator goroutine per phase.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker work queues.
	// Each worker primarily pulls from its own queue but can steal from others.
	queues []chan func(worker int)

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// pending tracks posted-but-unfinished work for Wait barriers.
	pending sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool

	// next distributes Post round-robin across workers.
	next atomic.Uint64
}

// NewPool creates a new worker pool with the specified number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
// The pool starts immediately and workers begin waiting for work.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(worker int), workers),
		done:    make(chan struct{}),
	}

	for i := range workers {
		p.queues[i] = make(chan func(worker int), queueSize)
	}

	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}

	return p
}

// worker is the main loop for each worker goroutine.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	myQueue := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(id, myQueue)
			return

		case work := <-myQueue:
			if work != nil {
				work(id)
			}

		default:
			// Try to steal work from another worker.
			if stolen := p.steal(id); stolen != nil {
				stolen(id)
			} else {
				// No work available anywhere, block on own queue.
				select {
				case <-p.done:
					p.drain(id, myQueue)
					return
				case work := <-myQueue:
					if work != nil {
						work(id)
					}
				}
			}
		}
	}
}

// drain executes all remaining work in a queue.
func (p *Pool) drain(id int, queue chan func(worker int)) {
	for {
		select {
		case work := <-queue:
			if work != nil {
				work(id)
			}
		default:
			return
		}
	}
}

// steal attempts to take work from another worker's queue.
// Returns nil if no work is available. Stolen work runs with the stealing
// worker's index, which is the index the sharded accumulators care about.
func (p *Pool) steal(myID int) func(worker int) {
	for i := range p.workers {
		if i == myID {
			continue
		}

		select {
		case work := <-p.queues[i]:
			return work
		default:
			// Queue is empty, try next.
		}
	}
	return nil
}

// Post submits a single work item to the pool. The item runs on some worker
// and receives that worker's index. Use Wait to block until every posted
// item has completed.
//
// If the pool is closed, the item runs inline on the calling goroutine with
// worker index 0 so that Wait never deadlocks.
func (p *Pool) Post(fn func(worker int)) {
	if fn == nil {
		return
	}

	p.pending.Add(1)
	wrapped := func(worker int) {
		defer p.pending.Done()
		fn(worker)
	}

	if !p.running.Load() {
		wrapped(0)
		return
	}

	target := int(p.next.Add(1) % uint64(p.workers))
	select {
	case p.queues[target] <- wrapped:
	case <-p.done:
		wrapped(0)
	}
}

// Wait blocks until all previously posted work items have completed.
// This is the explicit barrier between pipeline phases: no work posted
// before Wait overlaps with work posted after it returns.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Close gracefully shuts down the pool.
// It stops accepting new work, waits for all queued work to complete,
// and then stops all workers.
// Close is safe to call multiple times.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}

	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning returns true if the pool is still accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// ForEach runs fn over every element of items on the pool and blocks until
// all elements have been processed. Elements are grouped into contiguous
// chunks of at least threshold items to amortize scheduling overhead; fn
// receives the executing worker's index alongside the element index.
//
// fn must be safe to invoke concurrently for disjoint elements.
func ForEach[T any](p *Pool, threshold int, items []T, fn func(worker, index int, item T)) {
	n := len(items)
	if n == 0 {
		return
	}
	if threshold < 1 {
		threshold = 1
	}

	// Aim for a few chunks per worker so stealing can balance uneven costs.
	chunk := (n + p.workers*4 - 1) / (p.workers * 4)
	if chunk < threshold {
		chunk = threshold
	}

	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		s, e := start, end
		p.Post(func(worker int) {
			for i := s; i < e; i++ {
				fn(worker, i, items[i])
			}
		})
	}
	p.Wait()
}
