// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graphexec

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
)

// Config of a GraphExecutor.
type Config struct {
	// EnableProfiling times graph runs and nodes.
	EnableProfiling bool

	// EnableOptimization computes the schedule when the graph is loaded, instead of on the first run.
	EnableOptimization bool

	// EnableMemoryReuse resets the scratch pool after each node in sequential runs, instead of only
	// at the start of each run.
	EnableMemoryReuse bool

	// Policy is ops.Serial or ops.Parallel. Other policies are rejected.
	Policy ops.ExecPolicy

	// NumWorkers is the number of nodes run concurrently under ops.Parallel. If 0, runtime.NumCPU() is used.
	NumWorkers int

	// MaxBatchSize is the maximum number of entries accepted by RunBatch.
	MaxBatchSize int

	// MemoryLimit in bytes for the tensors of a loaded graph. 0 means no limit.
	MemoryLimit uint64

	// Deadline for each run. 0 means no deadline.
	Deadline time.Duration
}

// DefaultConfig returns the default configuration: sequential, no profiling, no limits.
func DefaultConfig() Config {
	return Config{
		Policy:       ops.Serial,
		MaxBatchSize: 1,
	}
}

// String implements fmt.Stringer.
func (c Config) String() string {
	limit := "none"
	if c.MemoryLimit > 0 {
		limit = humanize.IBytes(c.MemoryLimit)
	}
	return fmt.Sprintf("policy=%s, workers=%d, profiling=%v, optimization=%v, memory_reuse=%v, batch=%d, memory_limit=%s, deadline=%s",
		c.Policy, c.NumWorkers, c.EnableProfiling, c.EnableOptimization, c.EnableMemoryReuse, c.MaxBatchSize, limit, c.Deadline)
}

// Stats accumulated by a GraphExecutor. They are only reset by GraphExecutor.ResetStats.
type Stats struct {
	TotalGraphsExecuted uint64
	TotalNodesExecuted  uint64
	FailedExecutions    uint64

	// ProfiledGraphs is the number of runs timed (with profiling enabled), TotalExecutionTime their summed
	// duration and AvgGraphExecutionTime = TotalExecutionTime / ProfiledGraphs.
	ProfiledGraphs        uint64
	TotalExecutionTime    time.Duration
	AvgGraphExecutionTime time.Duration

	// PeakMemoryUsage is the high-water mark of tensor memory plus scratch memory, in bytes.
	PeakMemoryUsage uint64
}
