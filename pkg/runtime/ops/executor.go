// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"fmt"
	"sync"
	"time"

	"github.com/gomlx/cmatrix/internal/workerspool"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// KernelResolver selects a specialized kernel for an operation given the context it will run on.
// It is implemented by dispatch.Dispatcher.
type KernelResolver interface {
	// ResolveKernel returns the kernel for opName and ctx, or false if there is none.
	ResolveKernel(opName string, ctx *Context) (KernelFn, bool)

	// Generation changes whenever the set of kernels changes. Used to invalidate cached resolutions.
	Generation() uint64
}

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// EnableProfiling times each operation and accumulates the durations in the Stats.
	EnableProfiling bool

	// EnableValidation checks contexts against the operation's declared arity before executing it.
	EnableValidation bool

	// EnableCaching caches kernel resolutions.
	EnableCaching bool

	// MaxThreads is the number of threads kernels may use. If > 1 the executor owns a worker pool.
	MaxThreads int

	// ScratchPoolSize in bytes of the scratch pool allocated at creation. 0 disables the pool.
	ScratchPoolSize int

	DefaultBackend Backend
	DefaultPolicy  ExecPolicy
}

// DefaultExecutorConfig returns the default configuration: validation enabled, single threaded, no scratch pool.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		EnableValidation: true,
		MaxThreads:       1,
		DefaultBackend:   DefaultBackend,
		DefaultPolicy:    DefaultPolicy,
	}
}

// Stats accumulated by an Executor. They are only reset by Executor.ResetStats.
type Stats struct {
	TotalOps, SuccessfulOps, FailedOps uint64

	// ProfiledOps is the number of operations timed, TotalExecutionTime their summed duration and
	// AvgExecutionTime = TotalExecutionTime / ProfiledOps.
	ProfiledOps        uint64
	TotalExecutionTime time.Duration
	AvgExecutionTime   time.Duration

	CacheHits, CacheMisses uint64
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("ops: %d total, %d ok, %d failed; time: %s total, %s avg; cache: %d hits, %d misses",
		s.TotalOps, s.SuccessfulOps, s.FailedOps, s.TotalExecutionTime, s.AvgExecutionTime, s.CacheHits, s.CacheMisses)
}

type kernelCacheKey struct {
	opName                  string
	backend                 Backend
	inputDType, outputDType dtypes.DType
	inputRank, outputRank   int
}

type cachedKernel struct {
	kernel     KernelFn
	generation uint64
}

// Executor executes operations registered in a Registry, with kernels resolved by an optional KernelResolver.
//
// It owns a scratch pool and a worker pool, if configured. It is safe for concurrent use by the nodes of
// one graph run, but executing concurrently from several runs requires external synchronization of the
// scratch pool resets.
type Executor struct {
	registry *Registry
	resolver KernelResolver
	config   ExecutorConfig

	scratch *ScratchPool
	workers *workerspool.Pool

	muStats sync.Mutex
	stats   Stats

	muCache sync.Mutex
	cache   map[kernelCacheKey]cachedKernel
}

// NewExecutor creates an Executor for the operations in registry. The resolver may be nil, in which case
// operations run their own entry point.
func NewExecutor(registry *Registry, resolver KernelResolver, config ExecutorConfig) (*Executor, error) {
	if registry == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "NewExecutor requires a registry")
	}
	e := &Executor{registry: registry, resolver: resolver}
	if err := e.SetConfig(config); err != nil {
		return nil, err
	}
	return e, nil
}

// SetConfig replaces the configuration, re-creating the scratch and worker pools if their sizes changed.
func (e *Executor) SetConfig(config ExecutorConfig) error {
	if !config.DefaultPolicy.IsImplemented() {
		return errors.Wrapf(ErrInvalidArgument, "execution policy %s is not implemented", config.DefaultPolicy)
	}
	if config.MaxThreads < 1 {
		config.MaxThreads = 1
	}
	if config.ScratchPoolSize < 0 {
		return errors.Wrapf(ErrInvalidArgument, "invalid scratch pool size %d", config.ScratchPoolSize)
	}
	if config.ScratchPoolSize != e.config.ScratchPoolSize || e.scratch == nil {
		e.scratch = nil
		if config.ScratchPoolSize > 0 {
			pool, err := NewScratchPool(config.ScratchPoolSize, DefaultPoolAlignment)
			if err != nil {
				return err
			}
			e.scratch = pool
		}
	}
	if config.MaxThreads != e.config.MaxThreads || e.workers == nil {
		e.workers = nil
		if config.MaxThreads > 1 {
			e.workers = workerspool.New(config.MaxThreads)
		}
	}
	e.config = config
	e.clearCache()
	return nil
}

// Config returns the current configuration.
func (e *Executor) Config() ExecutorConfig { return e.config }

// Registry returns the registry the executor runs operations from.
func (e *Executor) Registry() *Registry { return e.registry }

// Workers returns the worker pool used by kernels, or nil if MaxThreads <= 1.
func (e *Executor) Workers() *workerspool.Pool { return e.workers }

// ExecuteOp executes the operation registered under name on ctx.
func (e *Executor) ExecuteOp(name string, ctx *Context) error {
	if ctx == nil {
		return errors.Wrapf(ErrInvalidArgument, "nil context executing %q", name)
	}
	op, found := e.registry.Op(name)
	if !found {
		err := errors.Wrapf(ErrUnsupportedOp, "operation %q is not registered", name)
		ctx.SetError(StatusUnsupportedOp, err.Error())
		return err
	}
	return e.ExecuteOpDesc(op, ctx)
}

// ExecuteOpDesc executes op on ctx. op doesn't need to be registered.
func (e *Executor) ExecuteOpDesc(op Op, ctx *Context) error {
	if ctx == nil {
		return errors.Wrapf(ErrInvalidArgument, "nil context executing %q", op.Name)
	}
	ctx.OpName = op.Name
	ctx.ClearError()
	if ctx.Backend == DefaultBackend {
		ctx.Backend = e.config.DefaultBackend
	}
	if ctx.Policy == DefaultPolicy {
		ctx.Policy = e.config.DefaultPolicy
	}
	if ctx.threadCount <= 1 && e.config.MaxThreads > 1 {
		ctx.SetThreadCount(e.config.MaxThreads)
	}
	if ctx.workers == nil {
		ctx.workers = e.workers
	}
	if ctx.pool == nil {
		ctx.pool = e.scratch
	}

	err := e.execute(op, ctx)
	if err != nil {
		ctx.SetError(StatusOf(err), err.Error())
	}
	return err
}

func (e *Executor) execute(op Op, ctx *Context) error {
	if e.config.EnableValidation {
		if err := validateArity(op, ctx); err != nil {
			e.recordResult(err, 0, false)
			return err
		}
	}
	kernel := e.resolveKernel(op, ctx)
	if kernel == nil {
		err := errors.Wrapf(ErrUnsupportedOp, "no kernel available for %q on backend %s", op.Name, ctx.Backend)
		e.recordResult(err, 0, false)
		return err
	}

	profiling := e.config.EnableProfiling
	if profiling {
		ctx.StartProfiling()
	}
	err := invokeKernel(op.Name, kernel, ctx)
	var elapsed time.Duration
	if profiling {
		ctx.EndProfiling()
		elapsed = ctx.ExecutionTime()
	}
	e.recordResult(err, elapsed, profiling)
	if klog.V(3).Enabled() {
		klog.Infof("executed %q (backend=%s, policy=%s) in %s: err=%v", op.Name, ctx.Backend, ctx.Policy, elapsed, err)
	}
	return err
}

// validateArity checks ctx provides the tensors op declares.
func validateArity(op Op, ctx *Context) error {
	if ctx.NumInputs() < op.NumInputs || ctx.NumOutputs() < op.NumOutputs {
		return errors.Wrapf(ErrContextMismatch, "%q requires %d inputs and %d outputs, context has %d and %d",
			op.Name, op.NumInputs, op.NumOutputs, ctx.NumInputs(), ctx.NumOutputs())
	}
	return ctx.Validate()
}

// invokeKernel runs the kernel, converting returned errors and panics to *KernelError.
func invokeKernel(opName string, kernel KernelFn, ctx *Context) error {
	var kernelErr error
	exception := exceptions.Try(func() { kernelErr = kernel(ctx) })
	if exception != nil {
		if err, ok := exception.(error); ok {
			kernelErr = errors.WithMessage(err, "kernel panicked")
		} else {
			kernelErr = errors.Errorf("kernel panicked: %v", exception)
		}
	}
	if kernelErr != nil {
		return &KernelError{Op: opName, Err: kernelErr}
	}
	return nil
}

// resolveKernel returns the resolver's kernel if there is one, or the op's own entry point otherwise.
func (e *Executor) resolveKernel(op Op, ctx *Context) KernelFn {
	if e.resolver == nil {
		return op.Execute
	}
	if !e.config.EnableCaching {
		if kernel, found := e.resolver.ResolveKernel(op.Name, ctx); found {
			return kernel
		}
		return op.Execute
	}

	key := cacheKeyFor(op.Name, ctx)
	generation := e.resolver.Generation()
	e.muCache.Lock()
	cached, found := e.cache[key]
	e.muCache.Unlock()
	if found && cached.generation == generation {
		e.muStats.Lock()
		e.stats.CacheHits++
		e.muStats.Unlock()
		return cached.kernel
	}

	kernel, found := e.resolver.ResolveKernel(op.Name, ctx)
	if !found {
		kernel = op.Execute
	}
	e.muCache.Lock()
	if e.cache == nil {
		e.cache = make(map[kernelCacheKey]cachedKernel)
	}
	e.cache[key] = cachedKernel{kernel: kernel, generation: generation}
	e.muCache.Unlock()
	e.muStats.Lock()
	e.stats.CacheMisses++
	e.muStats.Unlock()
	return kernel
}

func cacheKeyFor(opName string, ctx *Context) kernelCacheKey {
	key := kernelCacheKey{opName: opName, backend: ctx.Backend, inputDType: dtypes.Float32, outputDType: dtypes.Float32}
	if input := ctx.FirstInput(); input != nil {
		key.inputDType, key.inputRank = input.DType, input.Rank()
	}
	if output := ctx.FirstOutput(); output != nil {
		key.outputDType, key.outputRank = output.DType, output.Rank()
	}
	return key
}

func (e *Executor) clearCache() {
	e.muCache.Lock()
	defer e.muCache.Unlock()
	clear(e.cache)
}

func (e *Executor) recordResult(err error, elapsed time.Duration, profiled bool) {
	e.muStats.Lock()
	defer e.muStats.Unlock()
	e.stats.TotalOps++
	if err == nil {
		e.stats.SuccessfulOps++
	} else {
		e.stats.FailedOps++
	}
	if profiled {
		e.stats.ProfiledOps++
		e.stats.TotalExecutionTime += elapsed
		e.stats.AvgExecutionTime = e.stats.TotalExecutionTime / time.Duration(e.stats.ProfiledOps)
	}
}

// ExecuteOps executes the operations in order, one context per operation, stopping at the first error.
func (e *Executor) ExecuteOps(names []string, contexts []*Context) error {
	if len(names) != len(contexts) {
		return errors.Wrapf(ErrInvalidArgument, "ExecuteOps got %d operations and %d contexts", len(names), len(contexts))
	}
	for ii, name := range names {
		if err := e.ExecuteOp(name, contexts[ii]); err != nil {
			return errors.WithMessagef(err, "while executing operation #%d of batch", ii)
		}
	}
	return nil
}

// Stats returns a copy of the accumulated statistics.
func (e *Executor) Stats() Stats {
	e.muStats.Lock()
	defer e.muStats.Unlock()
	return e.stats
}

// ResetStats zeroes the statistics.
func (e *Executor) ResetStats() {
	e.muStats.Lock()
	defer e.muStats.Unlock()
	e.stats = Stats{}
}

// ScratchPool returns the executor's scratch pool, or nil if ScratchPoolSize is 0.
func (e *Executor) ScratchPool() *ScratchPool { return e.scratch }

// AllocateScratch allocates from the scratch pool. Without a pool, the memory is allocated from the heap.
func (e *Executor) AllocateScratch(size, alignment int) ([]byte, error) {
	if e.scratch != nil {
		return e.scratch.Allocate(size, alignment)
	}
	if size <= 0 {
		return nil, errors.Wrapf(ErrInvalidArgument, "invalid scratch allocation size %d", size)
	}
	if alignment == 0 {
		alignment = DefaultScratchAlignment
	}
	if !isPowerOf2(alignment) {
		return nil, errors.Wrapf(ErrInvalidArgument, "scratch alignment %d is not a power of 2", alignment)
	}
	return alignedBytes(size, alignment)
}

// FreeScratch is a no-op: the pool is reclaimed in bulk with ResetScratch.
func (e *Executor) FreeScratch(buf []byte) {
	if e.scratch != nil {
		e.scratch.Free(buf)
	}
}

// ResetScratch reclaims all scratch pool allocations.
func (e *Executor) ResetScratch() {
	if e.scratch != nil {
		e.scratch.Reset()
	}
}

// ScratchHighWater returns the scratch pool high-water mark in bytes, or 0 without a pool.
func (e *Executor) ScratchHighWater() int {
	if e.scratch == nil {
		return 0
	}
	return e.scratch.HighWater()
}
