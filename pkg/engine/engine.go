// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package engine bundles the operation registry and the kernel dispatcher that executors share,
// and parses the runtime configuration.
//
// Most programs use Default(), populated with the reference kernels. Tests and programs that need
// isolated tables create their own with New.
package engine

import (
	"sync"

	"github.com/gomlx/cmatrix/pkg/kernels/reference"
	"github.com/gomlx/cmatrix/pkg/runtime/dispatch"
	"github.com/gomlx/cmatrix/pkg/runtime/graphexec"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Engine holds the tables used to resolve operations and their kernels.
type Engine struct {
	Registry   *ops.Registry
	Dispatcher *dispatch.Dispatcher
}

// New creates an Engine with empty tables.
func New() *Engine {
	return &Engine{
		Registry:   ops.NewRegistry(ops.DefaultRegistryCapacity),
		Dispatcher: dispatch.New(),
	}
}

// NewWithReferenceKernels creates an Engine with the reference kernels registered.
func NewWithReferenceKernels() (*Engine, error) {
	e := New()
	if err := reference.Register(e.Registry, e.Dispatcher); err != nil {
		return nil, errors.WithMessage(err, "registering reference kernels")
	}
	return e, nil
}

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide Engine, created on first use with the reference kernels.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		var err error
		defaultEngine, err = NewWithReferenceKernels()
		if err != nil {
			klog.Fatalf("failed to create default engine: %+v", err)
		}
	})
	return defaultEngine
}

// NewExecutor creates an ops.Executor that resolves kernels with the engine's dispatcher.
func (e *Engine) NewExecutor(config ops.ExecutorConfig) (*ops.Executor, error) {
	return ops.NewExecutor(e.Registry, e.Dispatcher, config)
}

// NewGraphExecutor creates a GraphExecutor, with its own ops.Executor, configured by config.
func (e *Engine) NewGraphExecutor(config Config) (*graphexec.GraphExecutor, error) {
	exec, err := e.NewExecutor(config.Executor)
	if err != nil {
		return nil, err
	}
	return graphexec.New(exec, config.Graph)
}

// Clear removes all operations and kernels.
func (e *Engine) Clear() {
	e.Registry.Clear()
	e.Dispatcher.Clear()
}
