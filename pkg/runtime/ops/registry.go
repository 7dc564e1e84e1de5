// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"sync"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// KernelFn is the entry point of a kernel: it reads the inputs and attributes of ctx and writes its outputs.
// A returned error is reported as an execution failure.
type KernelFn func(ctx *Context) error

// Op describes a registered operation.
type Op struct {
	Name string

	// Execute is the operation's own entry point, used when the dispatcher has no specialized kernel.
	// It may be nil if all kernels are provided through the dispatcher.
	Execute KernelFn

	// NumInputs and NumOutputs are the minimum number of tensors a context must provide.
	NumInputs, NumOutputs int

	// NumAttrs is the number of attributes the operation understands. Informative only.
	NumAttrs int

	SupportsInPlace bool
	Version         int
}

// DefaultRegistryCapacity is the capacity of registries created with NewRegistry(0).
const DefaultRegistryCapacity = 256

// Registry maps operation names to their descriptors.
//
// Its capacity is fixed at creation: registering beyond it fails with ErrResourceExhausted.
// It is safe for concurrent use, but it is meant to be populated before graphs are run.
type Registry struct {
	mu    sync.RWMutex
	slots []Op
	index map[string]int
}

// NewRegistry creates an empty registry with the given capacity. If capacity <= 0, DefaultRegistryCapacity is used.
func NewRegistry(capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultRegistryCapacity
	}
	return &Registry{
		slots: make([]Op, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

// Register adds op. Names are unique: registering a name twice fails with ErrAlreadyExists.
func (r *Registry) Register(op Op) error {
	if op.Name == "" {
		return errors.Wrap(ErrInvalidArgument, "cannot register operation with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, found := r.index[op.Name]; found {
		return errors.Wrapf(ErrAlreadyExists, "operation %q already registered", op.Name)
	}
	if len(r.slots) == cap(r.slots) {
		return errors.Wrapf(ErrResourceExhausted, "operation registry full (capacity %d), cannot register %q",
			cap(r.slots), op.Name)
	}
	r.index[op.Name] = len(r.slots)
	r.slots = append(r.slots, op)
	klog.V(2).Infof("registered operation %q (inputs=%d, outputs=%d)", op.Name, op.NumInputs, op.NumOutputs)
	return nil
}

// Op returns the operation registered under name.
func (r *Registry) Op(name string) (Op, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, found := r.index[name]
	if !found {
		return Op{}, false
	}
	return r.slots[idx], true
}

// IsRegistered returns whether name is registered.
func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, found := r.index[name]
	return found
}

// Names returns the registered names, in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.slots))
	for ii, op := range r.slots {
		names[ii] = op.Name
	}
	return names
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.slots)
}

// Cap returns the capacity of the registry.
func (r *Registry) Cap() int {
	return cap(r.slots)
}

// Clear removes all registrations, keeping the capacity. Used mostly for test isolation.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.slots)
	r.slots = r.slots[:0]
	clear(r.index)
}
