// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package dispatch selects the kernel to run for an operation, given the backend, dtypes and ranks of
// the tensors in its context.
//
// Kernels are registered under a Key. Lookups go from the most specific to the most generic:
//
//  1. The exact key.
//  2. The key with ranks set to 0 (any rank).
//  3. The key with ranks set to 0 and dtypes set to DefaultDType.
//  4. If the backend is not ops.DefaultBackend, the exact key on the default backend.
//  5. The fallback kernels registered for the operation: the highest priority wins, ties are broken by
//     registration order.
//
// Hardware specific kernel libraries register their kernels with higher priorities to override the
// generic ones.
package dispatch

import (
	"fmt"
	"slices"
	"sync"

	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// DefaultDType is the dtype used for relaxed lookups, and when a context has no tensor to take it from.
const DefaultDType = dtypes.Float32

// AnyRank matches tensors of any rank in relaxed lookups.
const AnyRank = 0

// Key identifies what a kernel was written for.
type Key struct {
	OpName                  string
	Backend                 ops.Backend
	InputDType, OutputDType dtypes.DType
	InputRank, OutputRank   int
}

// String implements fmt.Stringer.
func (k Key) String() string {
	return fmt.Sprintf("%s[%s, %s(rank %d) -> %s(rank %d)]",
		k.OpName, k.Backend, k.InputDType, k.InputRank, k.OutputDType, k.OutputRank)
}

// anyRank returns the key with ranks relaxed.
func (k Key) anyRank() Key {
	k.InputRank, k.OutputRank = AnyRank, AnyRank
	return k
}

// anyDType returns the key with ranks relaxed and dtypes set to DefaultDType.
func (k Key) anyDType() Key {
	k = k.anyRank()
	k.InputDType, k.OutputDType = DefaultDType, DefaultDType
	return k
}

// KernelInfo describes a registered kernel.
type KernelInfo struct {
	Kernel     ops.KernelFn
	Name       string
	Priority   int
	IsFallback bool
}

type fallbackEntry struct {
	opName string
	info   KernelInfo
}

// Entry is a registered kernel, as listed by Dispatcher.Entries.
type Entry struct {
	Key  Key
	Info KernelInfo
}

// Dispatcher holds the table of kernels. It is safe for concurrent use.
type Dispatcher struct {
	mu         sync.RWMutex
	kernels    map[Key]KernelInfo
	fallbacks  []fallbackEntry
	generation uint64
}

var _ ops.KernelResolver = (*Dispatcher)(nil)

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{kernels: make(map[Key]KernelInfo)}
}

// Register adds a kernel under key.
//
// For fallback kernels (info.IsFallback) only key.OpName is used, and they are always accepted.
// Otherwise, if a kernel is already registered under key, it's only replaced if info.Priority is strictly
// higher, or else it fails with ops.ErrAlreadyExists.
func (d *Dispatcher) Register(key Key, info KernelInfo) error {
	if info.Kernel == nil {
		return errors.Wrapf(ops.ErrInvalidArgument, "cannot register nil kernel for %s", key)
	}
	if key.OpName == "" {
		return errors.Wrap(ops.ErrInvalidArgument, "cannot register kernel without an operation name")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if info.IsFallback {
		d.fallbacks = append(d.fallbacks, fallbackEntry{opName: key.OpName, info: info})
		d.generation++
		klog.V(2).Infof("registered fallback kernel %q for %q with priority %d", info.Name, key.OpName, info.Priority)
		return nil
	}
	if existing, found := d.kernels[key]; found {
		if info.Priority <= existing.Priority {
			return errors.Wrapf(ops.ErrAlreadyExists,
				"kernel %q (priority %d) already registered for %s, cannot register %q with priority %d",
				existing.Name, existing.Priority, key, info.Name, info.Priority)
		}
		klog.Warningf("kernel %q (priority %d) for %s replaced by %q (priority %d)",
			existing.Name, existing.Priority, key, info.Name, info.Priority)
	}
	d.kernels[key] = info
	d.generation++
	klog.V(2).Infof("registered kernel %q for %s with priority %d", info.Name, key, info.Priority)
	return nil
}

// RegisterKernel registers a primary kernel for the default backend, with any rank.
func (d *Dispatcher) RegisterKernel(opName string, dtype dtypes.DType, name string, priority int, kernel ops.KernelFn) error {
	key := Key{OpName: opName, Backend: ops.DefaultBackend, InputDType: dtype, OutputDType: dtype}
	return d.Register(key, KernelInfo{Kernel: kernel, Name: name, Priority: priority})
}

// RegisterFallback registers a fallback kernel for opName.
func (d *Dispatcher) RegisterFallback(opName, name string, priority int, kernel ops.KernelFn) error {
	key := Key{OpName: opName, Backend: ops.DefaultBackend, InputDType: DefaultDType, OutputDType: DefaultDType}
	return d.Register(key, KernelInfo{Kernel: kernel, Name: name, Priority: priority, IsFallback: true})
}

// KeyFor builds the lookup key for opName from the first non-nil input and output of ctx.
// Missing tensors use DefaultDType and AnyRank.
func KeyFor(opName string, ctx *ops.Context) Key {
	key := Key{
		OpName:      opName,
		Backend:     ops.DefaultBackend,
		InputDType:  DefaultDType,
		OutputDType: DefaultDType,
	}
	if ctx == nil {
		return key
	}
	key.Backend = ctx.Backend
	if input := ctx.FirstInput(); input != nil {
		key.InputDType, key.InputRank = input.DType, input.Rank()
	}
	if output := ctx.FirstOutput(); output != nil {
		key.OutputDType, key.OutputRank = output.DType, output.Rank()
	}
	return key
}

// Dispatch returns the kernel for opName to run on ctx.
func (d *Dispatcher) Dispatch(opName string, ctx *ops.Context) (KernelInfo, bool) {
	return d.Lookup(KeyFor(opName, ctx))
}

// Lookup searches for the kernel for key, relaxing it step by step (see package documentation).
func (d *Dispatcher) Lookup(key Key) (KernelInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	candidates := []Key{key, key.anyRank(), key.anyDType()}
	if key.Backend != ops.DefaultBackend {
		defaultBackend := key
		defaultBackend.Backend = ops.DefaultBackend
		candidates = append(candidates, defaultBackend)
	}
	for _, candidate := range candidates {
		if info, found := d.kernels[candidate]; found {
			return info, true
		}
	}
	return d.lockedFallback(key.OpName)
}

// lockedFallback must be called with d.mu held.
func (d *Dispatcher) lockedFallback(opName string) (best KernelInfo, found bool) {
	for _, entry := range d.fallbacks {
		if entry.opName != opName {
			continue
		}
		if !found || entry.info.Priority > best.Priority {
			best, found = entry.info, true
		}
	}
	return
}

// ResolveKernel implements ops.KernelResolver.
func (d *Dispatcher) ResolveKernel(opName string, ctx *ops.Context) (ops.KernelFn, bool) {
	info, found := d.Dispatch(opName, ctx)
	if !found {
		return nil, false
	}
	return info.Kernel, true
}

// Generation implements ops.KernelResolver: it changes whenever the table changes.
func (d *Dispatcher) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// HasKernel returns whether a primary kernel is registered exactly under key.
func (d *Dispatcher) HasKernel(key Key) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, found := d.kernels[key]
	return found
}

// KernelInfo returns the primary kernel registered exactly under key.
func (d *Dispatcher) KernelInfo(key Key) (KernelInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	info, found := d.kernels[key]
	return info, found
}

// Len returns the number of registered kernels, primary and fallback.
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.kernels) + len(d.fallbacks)
}

// Entries lists the registered kernels: the primary ones sorted by key, followed by the fallbacks in
// registration order.
func (d *Dispatcher) Entries() []Entry {
	d.mu.RLock()
	defer d.mu.RUnlock()
	entries := make([]Entry, 0, len(d.kernels)+len(d.fallbacks))
	for key, info := range d.kernels {
		entries = append(entries, Entry{Key: key, Info: info})
	}
	slices.SortFunc(entries, func(a, b Entry) int { return compareKeys(a.Key, b.Key) })
	for _, entry := range d.fallbacks {
		entries = append(entries, Entry{
			Key:  Key{OpName: entry.opName, Backend: ops.DefaultBackend, InputDType: DefaultDType, OutputDType: DefaultDType},
			Info: entry.info,
		})
	}
	return entries
}

func compareKeys(a, b Key) int {
	if a.OpName != b.OpName {
		if a.OpName < b.OpName {
			return -1
		}
		return 1
	}
	for _, diff := range []int{
		int(a.Backend) - int(b.Backend),
		int(a.InputDType) - int(b.InputDType),
		int(a.OutputDType) - int(b.OutputDType),
		a.InputRank - b.InputRank,
		a.OutputRank - b.OutputRank,
	} {
		if diff != 0 {
			return diff
		}
	}
	return 0
}

// Clear removes all kernels. Used mostly for test isolation.
func (d *Dispatcher) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	clear(d.kernels)
	d.fallbacks = nil
	d.generation++
}
