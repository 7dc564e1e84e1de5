// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package reference implements portable elementwise kernels for the CPU.
//
// Register adds the operations to an ops.Registry, and their dtype specialized kernels to a
// dispatch.Dispatcher. Kernels work over the smallest number of elements of their tensors, and binary
// operations broadcast scalars (tensors with one element) on either side.
package reference

import (
	"math"

	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/runtime/dispatch"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"go.uber.org/multierr"
	"golang.org/x/exp/constraints"
)

// Float32Priority is the dispatch priority of the float32 kernels. Other dtypes use priority 0, and the
// dtype-switching fallbacks priority -1.
const Float32Priority = 1

type binaryOp struct {
	name string
	fn   func(a, b float64) float64
}

type unaryOp struct {
	name string
	fn   func(x float64) float64
}

var (
	binaryOps = []binaryOp{
		{"ADD", func(a, b float64) float64 { return a + b }},
		{"SUB", func(a, b float64) float64 { return a - b }},
		{"MUL", func(a, b float64) float64 { return a * b }},
		{"DIV", func(a, b float64) float64 { return a / b }},
	}

	unaryOps = []unaryOp{
		{"RELU", func(x float64) float64 { return max(x, 0) }},
		{"SIGMOID", func(x float64) float64 { return 1 / (1 + math.Exp(-x)) }},
		{"TANH", math.Tanh},
	}
)

// OpNames returns the names of the operations implemented.
func OpNames() []string {
	names := make([]string, 0, len(binaryOps)+len(unaryOps))
	for _, op := range binaryOps {
		names = append(names, op.name)
	}
	for _, op := range unaryOps {
		names = append(names, op.name)
	}
	return names
}

// Register adds the reference operations to registry, and their kernels to dispatcher if it is not nil.
//
// Operations already registered are reported as errors, but the remaining ones are still registered.
func Register(registry *ops.Registry, dispatcher *dispatch.Dispatcher) error {
	var err error
	for _, op := range binaryOps {
		kernels := map[dtypes.DType]ops.KernelFn{
			dtypes.Float32:  binaryKernel(op, identity[float32], identity[float32]),
			dtypes.Float64:  binaryKernel(op, identity[float64], identity[float64]),
			dtypes.Float16:  binaryKernel(op, float16.Float16.Float32, float16.Fromfloat32),
			dtypes.BFloat16: binaryKernel(op, bfloat16.BFloat16.Float32, bfloat16.FromFloat32),
		}
		err = multierr.Append(err, register(registry, dispatcher, ops.Op{Name: op.name, NumInputs: 2, NumOutputs: 1,
			SupportsInPlace: true, Version: 1}, kernels))
	}
	for _, op := range unaryOps {
		kernels := map[dtypes.DType]ops.KernelFn{
			dtypes.Float32:  unaryKernel(op, identity[float32], identity[float32]),
			dtypes.Float64:  unaryKernel(op, identity[float64], identity[float64]),
			dtypes.Float16:  unaryKernel(op, float16.Float16.Float32, float16.Fromfloat32),
			dtypes.BFloat16: unaryKernel(op, bfloat16.BFloat16.Float32, bfloat16.FromFloat32),
		}
		err = multierr.Append(err, register(registry, dispatcher, ops.Op{Name: op.name, NumInputs: 1, NumOutputs: 1,
			SupportsInPlace: true, Version: 1}, kernels))
	}
	return err
}

func register(registry *ops.Registry, dispatcher *dispatch.Dispatcher, op ops.Op, kernels map[dtypes.DType]ops.KernelFn) error {
	op.Execute = dtypeSwitch(op.Name, kernels)
	if err := registry.Register(op); err != nil {
		return err
	}
	if dispatcher == nil {
		return nil
	}
	var err error
	for dtype, kernel := range kernels {
		priority := 0
		if dtype == dtypes.Float32 {
			priority = Float32Priority
		}
		err = multierr.Append(err, dispatcher.RegisterKernel(op.Name, dtype, kernelName(op.Name, dtype), priority, kernel))
	}
	return multierr.Append(err, dispatcher.RegisterFallback(op.Name, kernelName(op.Name, dtypes.InvalidDType), -1, op.Execute))
}

func kernelName(opName string, dtype dtypes.DType) string {
	if dtype == dtypes.InvalidDType {
		return "reference." + opName
	}
	return "reference." + opName + "." + dtype.String()
}

// dtypeSwitch returns a kernel that picks the one for the dtype of the first input.
func dtypeSwitch(opName string, kernels map[dtypes.DType]ops.KernelFn) ops.KernelFn {
	return func(ctx *ops.Context) error {
		input := ctx.Input(0)
		if input == nil {
			return errors.Errorf("%s requires an input tensor", opName)
		}
		kernel, found := kernels[input.DType]
		if !found {
			return errors.Errorf("%s not implemented for dtype %s", opName, input.DType)
		}
		return kernel(ctx)
	}
}

func identity[T any](x T) T { return x }

// flatOf returns the flat storage of t, with an error if t doesn't hold values of type T.
func flatOf[T dtypes.Supported](opName, what string, t *tensors.Tensor) ([]T, error) {
	flat := tensors.Flat[T](t)
	if flat == nil {
		dtype := dtypes.InvalidDType
		if t != nil {
			dtype = t.DType
		}
		return nil, errors.Errorf("%s %s has dtype %s, expected %s", opName, what, dtype, dtypes.FromGenericsType[T]())
	}
	return flat, nil
}

// binaryKernel builds the kernel of op for values of type T, computed on type C.
func binaryKernel[T dtypes.Supported, C constraints.Float](op binaryOp, toCompute func(T) C, fromCompute func(C) T) ops.KernelFn {
	return func(ctx *ops.Context) error {
		lhs, err := flatOf[T](op.name, "lhs", ctx.Input(0))
		if err != nil {
			return err
		}
		rhs, err := flatOf[T](op.name, "rhs", ctx.Input(1))
		if err != nil {
			return err
		}
		output, err := flatOf[T](op.name, "output", ctx.Output(0))
		if err != nil {
			return err
		}
		size := min(len(lhs), len(rhs))
		if size == 1 {
			size = max(len(lhs), len(rhs))
		}
		size = min(size, len(output))
		lhsStep, rhsStep := min(len(lhs)-1, 1), min(len(rhs)-1, 1)
		ctx.ParallelFor(size, func(start, end int) {
			for ii := start; ii < end; ii++ {
				a := float64(toCompute(lhs[ii*lhsStep]))
				b := float64(toCompute(rhs[ii*rhsStep]))
				output[ii] = fromCompute(C(op.fn(a, b)))
			}
		})
		return nil
	}
}

// unaryKernel builds the kernel of op for values of type T, computed on type C.
func unaryKernel[T dtypes.Supported, C constraints.Float](op unaryOp, toCompute func(T) C, fromCompute func(C) T) ops.KernelFn {
	return func(ctx *ops.Context) error {
		input, err := flatOf[T](op.name, "input", ctx.Input(0))
		if err != nil {
			return err
		}
		output, err := flatOf[T](op.name, "output", ctx.Output(0))
		if err != nil {
			return err
		}
		ctx.ParallelFor(min(len(input), len(output)), func(start, end int) {
			for ii := start; ii < end; ii++ {
				output[ii] = fromCompute(C(op.fn(float64(toCompute(input[ii])))))
			}
		})
		return nil
	}
}
