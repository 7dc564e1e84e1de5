// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"time"

	"github.com/gomlx/cmatrix/internal/workerspool"
	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Capacity limits of a Context.
const (
	MaxInputs          = 8
	MaxOutputs         = 4
	MaxAttrs           = 16
	MaxErrorMessageLen = 256

	// DefaultScratchAlignment is used when a scratch allocation doesn't specify an alignment.
	DefaultScratchAlignment = 32

	// minParallelChunk is the minimum number of elements per chunk in Context.ParallelFor.
	minParallelChunk = 1024
)

// Attr is a named attribute stored in a Context.
type Attr struct {
	Name  string
	Value graph.AttrValue
}

// Scratch describes the scratch memory bound to a Context.
type Scratch struct {
	Buf       []byte
	Alignment int

	// Owned is true if the buffer was allocated by the context (and it is dropped on Release),
	// false if it was borrowed from a ScratchPool.
	Owned bool
}

// Context holds the state of one operation invocation: the tensors, attributes and scratch memory the kernel
// operates on, the backend and policy it runs under, timing and error state.
//
// Its arrays have fixed capacity, and Reset clears it without allocating, so one Context can be reused across
// invocations. A Context is not safe for concurrent use.
type Context struct {
	inputs     [MaxInputs]*tensors.Tensor
	numInputs  int
	outputs    [MaxOutputs]*tensors.Tensor
	numOutputs int
	attrs      [MaxAttrs]Attr
	numAttrs   int

	scratch Scratch
	pool    *ScratchPool

	Backend     Backend
	Policy      ExecPolicy
	threadCount int
	workers     *workerspool.Pool

	startTime, endTime time.Time

	// OpID and OpName identify the invocation, for logging and error messages.
	OpID   uint32
	OpName string

	errStatus Status
	errLen    int
	errBuf    [MaxErrorMessageLen]byte
}

// NewContext returns a Context with default settings.
func NewContext() *Context {
	ctx := &Context{}
	ctx.Reset()
	return ctx
}

// Reset clears all tensors, attributes, timing and error state, and restores the default backend, policy
// and thread count. Owned scratch memory is released, borrowed one is dropped.
func (ctx *Context) Reset() {
	clear(ctx.inputs[:])
	clear(ctx.outputs[:])
	clear(ctx.attrs[:])
	ctx.numInputs, ctx.numOutputs, ctx.numAttrs = 0, 0, 0
	ctx.scratch = Scratch{}
	ctx.pool = nil
	ctx.Backend = DefaultBackend
	ctx.Policy = DefaultPolicy
	ctx.threadCount = 1
	ctx.workers = nil
	ctx.startTime, ctx.endTime = time.Time{}, time.Time{}
	ctx.OpID, ctx.OpName = 0, ""
	ctx.ClearError()
}

// Release frees the resources held by the context. It can still be reused after a Reset.
func (ctx *Context) Release() {
	ctx.ReleaseScratch()
	ctx.workers = nil
}

// SetInput sets the input tensor at index, growing the number of inputs to index+1 if needed.
func (ctx *Context) SetInput(index int, tensor *tensors.Tensor) error {
	if index < 0 || index >= MaxInputs {
		return errors.Wrapf(ErrInvalidArgument, "input index %d out of range [0, %d)", index, MaxInputs)
	}
	ctx.inputs[index] = tensor
	ctx.numInputs = max(ctx.numInputs, index+1)
	return nil
}

// SetOutput sets the output tensor at index, growing the number of outputs to index+1 if needed.
func (ctx *Context) SetOutput(index int, tensor *tensors.Tensor) error {
	if index < 0 || index >= MaxOutputs {
		return errors.Wrapf(ErrInvalidArgument, "output index %d out of range [0, %d)", index, MaxOutputs)
	}
	ctx.outputs[index] = tensor
	ctx.numOutputs = max(ctx.numOutputs, index+1)
	return nil
}

// Input returns the input tensor at index, or nil if out of range.
func (ctx *Context) Input(index int) *tensors.Tensor {
	if index < 0 || index >= ctx.numInputs {
		return nil
	}
	return ctx.inputs[index]
}

// Output returns the output tensor at index, or nil if out of range.
func (ctx *Context) Output(index int) *tensors.Tensor {
	if index < 0 || index >= ctx.numOutputs {
		return nil
	}
	return ctx.outputs[index]
}

// Inputs returns the input tensors. The slice is backed by the context and must not be retained.
func (ctx *Context) Inputs() []*tensors.Tensor { return ctx.inputs[:ctx.numInputs] }

// Outputs returns the output tensors. The slice is backed by the context and must not be retained.
func (ctx *Context) Outputs() []*tensors.Tensor { return ctx.outputs[:ctx.numOutputs] }

// FirstInput returns the first non-nil input, or nil. Kernel lookups are keyed by it.
func (ctx *Context) FirstInput() *tensors.Tensor { return firstTensor(ctx.Inputs()) }

// FirstOutput returns the first non-nil output, or nil. Kernel lookups are keyed by it.
func (ctx *Context) FirstOutput() *tensors.Tensor { return firstTensor(ctx.Outputs()) }

func firstTensor(list []*tensors.Tensor) *tensors.Tensor {
	for _, t := range list {
		if t != nil {
			return t
		}
	}
	return nil
}

// NumInputs returns the number of inputs set.
func (ctx *Context) NumInputs() int { return ctx.numInputs }

// NumOutputs returns the number of outputs set.
func (ctx *Context) NumOutputs() int { return ctx.numOutputs }

// SetAttr sets the attribute name, replacing a previous value with the same name.
func (ctx *Context) SetAttr(name string, value graph.AttrValue) error {
	if name == "" || value == nil {
		return errors.Wrap(ErrInvalidArgument, "attribute requires a name and a value")
	}
	for ii := range ctx.numAttrs {
		if ctx.attrs[ii].Name == name {
			ctx.attrs[ii].Value = value
			return nil
		}
	}
	if ctx.numAttrs == MaxAttrs {
		return errors.Wrapf(ErrResourceExhausted, "cannot set attribute %q: context holds at most %d attributes",
			name, MaxAttrs)
	}
	ctx.attrs[ctx.numAttrs] = Attr{Name: name, Value: value}
	ctx.numAttrs++
	return nil
}

// Attr returns the attribute name, if set.
func (ctx *Context) Attr(name string) (graph.AttrValue, bool) {
	for ii := range ctx.numAttrs {
		if ctx.attrs[ii].Name == name {
			return ctx.attrs[ii].Value, true
		}
	}
	return nil, false
}

// Attrs returns the attributes in the order they were set. The slice must not be retained.
func (ctx *Context) Attrs() []Attr { return ctx.attrs[:ctx.numAttrs] }

// NumAttrs returns the number of attributes set.
func (ctx *Context) NumAttrs() int { return ctx.numAttrs }

// IntAttrOr returns the integer attribute name, or defaultValue if not set or of another type.
func (ctx *Context) IntAttrOr(name string, defaultValue int32) int32 {
	if v, found := ctx.Attr(name); found {
		if i, ok := v.(graph.IntAttr); ok {
			return int32(i)
		}
	}
	return defaultValue
}

// FloatAttrOr returns the float attribute name, or defaultValue if not set or of another type.
func (ctx *Context) FloatAttrOr(name string, defaultValue float32) float32 {
	if v, found := ctx.Attr(name); found {
		if f, ok := v.(graph.FloatAttr); ok {
			return float32(f)
		}
	}
	return defaultValue
}

// AllocateScratch allocates owned scratch memory of the given size. The alignment must be a power of 2;
// if 0, DefaultScratchAlignment is used. Any previously bound scratch is released.
func (ctx *Context) AllocateScratch(size, alignment int) error {
	if size <= 0 {
		return errors.Wrapf(ErrInvalidArgument, "invalid scratch size %d", size)
	}
	if alignment == 0 {
		alignment = DefaultScratchAlignment
	}
	if !isPowerOf2(alignment) {
		return errors.Wrapf(ErrInvalidArgument, "scratch alignment %d is not a power of 2", alignment)
	}
	buf, err := alignedBytes(size, alignment)
	if err != nil {
		return err
	}
	ctx.ReleaseScratch()
	ctx.scratch = Scratch{Buf: buf, Alignment: alignment, Owned: true}
	return nil
}

// BindScratch binds borrowed scratch memory (e.g. from a ScratchPool) to the context.
func (ctx *Context) BindScratch(buf []byte, alignment int) {
	ctx.ReleaseScratch()
	ctx.scratch = Scratch{Buf: buf, Alignment: alignment}
}

// SetScratchPool sets the pool used by RequestScratch.
func (ctx *Context) SetScratchPool(pool *ScratchPool) { ctx.pool = pool }

// RequestScratch binds size bytes of scratch memory to the context and returns them. The memory comes from
// the scratch pool if one is set, otherwise it is allocated and owned by the context.
func (ctx *Context) RequestScratch(size, alignment int) ([]byte, error) {
	if ctx.pool == nil {
		if err := ctx.AllocateScratch(size, alignment); err != nil {
			return nil, err
		}
		return ctx.scratch.Buf, nil
	}
	if alignment == 0 {
		alignment = DefaultScratchAlignment
	}
	buf, err := ctx.pool.Allocate(size, alignment)
	if err != nil {
		return nil, errors.WithMessagef(err, "scratch for %q", ctx.OpName)
	}
	ctx.BindScratch(buf, alignment)
	return buf, nil
}

// ReleaseScratch drops the scratch memory bound to the context.
func (ctx *Context) ReleaseScratch() {
	ctx.scratch = Scratch{}
}

// Scratch returns the scratch descriptor.
func (ctx *Context) Scratch() Scratch { return ctx.scratch }

// SetThreadCount sets the number of threads a kernel may use. Values below 1 are clamped to 1.
func (ctx *Context) SetThreadCount(n int) {
	ctx.threadCount = max(n, 1)
}

// ThreadCount returns the number of threads a kernel may use.
func (ctx *Context) ThreadCount() int { return ctx.threadCount }

// SetWorkers sets the pool used by ParallelFor.
func (ctx *Context) SetWorkers(pool *workerspool.Pool) { ctx.workers = pool }

// ParallelFor calls fn(start, end) over chunks covering [0, n). Chunks run concurrently only if the
// policy is Parallel and a worker pool is set; otherwise fn(0, n) is called inline.
func (ctx *Context) ParallelFor(n int, fn func(start, end int)) {
	if ctx.Policy != Parallel || ctx.workers == nil || ctx.threadCount <= 1 {
		if n > 0 {
			fn(0, n)
		}
		return
	}
	ctx.workers.ParallelFor(n, minParallelChunk, fn)
}

// StartProfiling records the start timestamp.
func (ctx *Context) StartProfiling() {
	ctx.startTime = time.Now()
	ctx.endTime = time.Time{}
}

// EndProfiling records the end timestamp.
func (ctx *Context) EndProfiling() {
	ctx.endTime = time.Now()
}

// ExecutionTime returns the time between StartProfiling and EndProfiling, or 0 if not profiled.
func (ctx *Context) ExecutionTime() time.Duration {
	if ctx.startTime.IsZero() || ctx.endTime.IsZero() {
		return 0
	}
	return ctx.endTime.Sub(ctx.startTime)
}

// SetError records an error status and message. Messages longer than MaxErrorMessageLen are truncated.
func (ctx *Context) SetError(status Status, msg string) {
	ctx.errStatus = status
	ctx.errLen = copy(ctx.errBuf[:], msg)
}

// Error returns the recorded status and message. The status is StatusOK if no error was recorded.
func (ctx *Context) Error() (Status, string) {
	return ctx.errStatus, string(ctx.errBuf[:ctx.errLen])
}

// HasError returns whether an error was recorded.
func (ctx *Context) HasError() bool { return ctx.errStatus != StatusOK }

// ClearError clears the error state.
func (ctx *Context) ClearError() {
	ctx.errStatus = StatusOK
	ctx.errLen = 0
}

// Validate checks that every input and output tensor is set and has data.
func (ctx *Context) Validate() error {
	for ii, t := range ctx.Inputs() {
		if !t.HasData() {
			return errors.Wrapf(ErrInvalidContext, "input #%d of %q is nil or has no data", ii, ctx.OpName)
		}
	}
	for ii, t := range ctx.Outputs() {
		if !t.HasData() {
			return errors.Wrapf(ErrInvalidContext, "output #%d of %q is nil or has no data", ii, ctx.OpName)
		}
	}
	return nil
}
