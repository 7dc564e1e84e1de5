// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package workerspool implements a soft-limited pool of goroutines used to run graph nodes and
// to split kernel loops.
package workerspool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool limits the number of tasks running in parallel.
//
// The limit is soft: a task blocked waiting for other tasks can call WorkerIsAsleep to temporarily
// free its slot.
type Pool struct {
	// maxParallelism: 0 disables parallelism (tasks run inline), negative means unlimited.
	maxParallelism int
	mu             sync.Mutex
	cond           sync.Cond // Signaled whenever numRunning decreases.
	numRunning     int

	// extraParallelism is increased while workers are asleep.
	extraParallelism atomic.Int32
}

// New returns a Pool with the given target parallelism.
// If maxParallelism is 0 tasks are run inline, if negative the parallelism is unlimited.
func New(maxParallelism int) *Pool {
	w := &Pool{maxParallelism: maxParallelism}
	w.cond = sync.Cond{L: &w.mu}
	return w
}

// NewForCPUs returns a Pool with parallelism set to runtime.NumCPU().
func NewForCPUs() *Pool {
	return New(runtime.NumCPU())
}

// IsEnabled returns whether tasks run in their own goroutines.
func (w *Pool) IsEnabled() bool {
	return w.maxParallelism != 0
}

// MaxParallelism returns the configured target parallelism.
func (w *Pool) MaxParallelism() int {
	return w.maxParallelism
}

// NumRunning returns the number of tasks currently running in the pool.
func (w *Pool) NumRunning() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.numRunning
}

// lockedIsFull must be called with w.mu held.
func (w *Pool) lockedIsFull() bool {
	if w.maxParallelism == 0 {
		return true
	} else if w.maxParallelism < 0 {
		return false
	}
	return w.numRunning >= w.maxParallelism+int(w.extraParallelism.Load())
}

// WaitToStart blocks until a slot is available and starts task in a new goroutine.
//
// If parallelism is disabled the task is run inline, and WaitToStart only returns when it finishes.
func (w *Pool) WaitToStart(task func()) {
	if w.maxParallelism == 0 {
		task()
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for w.lockedIsFull() {
		w.cond.Wait()
	}
	w.lockedStart(task)
}

// StartIfAvailable starts task in a new goroutine if a slot is free, and reports whether it did.
func (w *Pool) StartIfAvailable(task func()) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.lockedIsFull() {
		return false
	}
	w.lockedStart(task)
	return true
}

// lockedStart must be called with w.mu held.
func (w *Pool) lockedStart(task func()) {
	w.numRunning++
	go func() {
		defer func() {
			w.mu.Lock()
			w.numRunning--
			w.cond.Signal()
			w.mu.Unlock()
		}()
		task()
	}()
}

// WorkerIsAsleep marks the calling task as blocked, freeing its slot until WorkerRestarted is called.
func (w *Pool) WorkerIsAsleep() {
	w.extraParallelism.Add(1)
	w.mu.Lock()
	w.cond.Signal()
	w.mu.Unlock()
}

// WorkerRestarted undoes WorkerIsAsleep.
func (w *Pool) WorkerRestarted() {
	w.extraParallelism.Add(-1)
}

// ParallelFor splits the range [0, n) in contiguous chunks of at least minChunk elements and calls
// fn(start, end) for each, using the free slots of the pool. The calling goroutine also takes part, and
// it only returns when all chunks are done.
//
// If the pool is nil or disabled, fn(0, n) is called inline.
func (w *Pool) ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	minChunk = max(minChunk, 1)
	numChunks := 1
	if w != nil && w.IsEnabled() {
		parallelism := w.maxParallelism
		if parallelism < 0 {
			parallelism = runtime.NumCPU()
		}
		numChunks = min(parallelism, (n+minChunk-1)/minChunk)
	}
	if numChunks <= 1 {
		fn(0, n)
		return
	}

	chunkSize := (n + numChunks - 1) / numChunks
	var wg sync.WaitGroup
	for start := chunkSize; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		task := func() {
			defer wg.Done()
			fn(start, end)
		}
		wg.Add(1)
		if !w.StartIfAvailable(task) {
			task()
		}
	}
	fn(0, min(chunkSize, n))
	w.WorkerIsAsleep()
	wg.Wait()
	w.WorkerRestarted()
}
