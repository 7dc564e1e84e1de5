// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds returned by the execution core. They are wrapped with context, so test with errors.Is.
var (
	// ErrInvalidArgument is returned for nil or out-of-range arguments.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned when registering a name or kernel that is already registered.
	ErrAlreadyExists = errors.New("already exists")

	// ErrGraphStructure is returned for cycles and dangling tensor references.
	ErrGraphStructure = errors.New("invalid graph structure")

	// ErrUnsupportedOp is returned when an operation is not registered, or no kernel is available for it.
	ErrUnsupportedOp = errors.New("unsupported operation")

	// ErrResourceExhausted is returned when a fixed capacity or a memory limit is exceeded.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrExecutionFailed is returned when a kernel fails.
	ErrExecutionFailed = errors.New("execution failed")

	// ErrContextMismatch is returned when a context doesn't provide the inputs/outputs an operation declares.
	ErrContextMismatch = errors.New("context mismatch")

	// ErrInvalidContext is returned for nil tensors or data in a context, or for executors used before loading.
	ErrInvalidContext = errors.New("invalid context")

	// ErrCanceled is returned when a run is canceled between node executions.
	ErrCanceled = errors.New("execution canceled")

	// ErrDeadlineExceeded is returned when a run exceeds its deadline.
	ErrDeadlineExceeded = errors.New("execution deadline exceeded")
)

// KernelError is returned when a kernel returns an error or panics.
// It matches ErrExecutionFailed with errors.Is, and unwraps to the kernel's error.
type KernelError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *KernelError) Error() string {
	return fmt.Sprintf("kernel for %q failed: %v", e.Op, e.Err)
}

// Unwrap returns the kernel's error.
func (e *KernelError) Unwrap() error { return e.Err }

// Is makes KernelError match ErrExecutionFailed.
func (e *KernelError) Is(target error) bool { return target == ErrExecutionFailed }

// Status is the numeric code of an error kind, stored in Context error state.
type Status uint8

//go:generate go tool enumer -type=Status -linecomment -output=gen_status_enumer.go errors.go

const (
	StatusOK               Status = iota // OK
	StatusInvalidArgs                    // INVALID_ARGS
	StatusAlreadyExists                  // ALREADY_EXISTS
	StatusGraphStructure                 // GRAPH_STRUCTURE
	StatusUnsupportedOp                  // UNSUPPORTED_OP
	StatusOutOfMemory                    // OUT_OF_MEMORY
	StatusExecutionFailed                // EXECUTION_FAILED
	StatusTensorMismatch                 // TENSOR_MISMATCH
	StatusInvalidContext                 // INVALID_CONTEXT
	StatusCanceled                       // CANCELED
	StatusDeadlineExceeded               // DEADLINE_EXCEEDED
)

var statusKinds = []struct {
	status Status
	err    error
}{
	{StatusExecutionFailed, ErrExecutionFailed},
	{StatusUnsupportedOp, ErrUnsupportedOp},
	{StatusAlreadyExists, ErrAlreadyExists},
	{StatusInvalidArgs, ErrInvalidArgument},
	{StatusGraphStructure, ErrGraphStructure},
	{StatusOutOfMemory, ErrResourceExhausted},
	{StatusTensorMismatch, ErrContextMismatch},
	{StatusInvalidContext, ErrInvalidContext},
	{StatusDeadlineExceeded, ErrDeadlineExceeded},
	{StatusCanceled, ErrCanceled},
}

// StatusOf returns the Status of err: StatusOK for nil, StatusExecutionFailed for errors of unknown kind.
func StatusOf(err error) Status {
	if err == nil {
		return StatusOK
	}
	for _, kind := range statusKinds {
		if errors.Is(err, kind.err) {
			return kind.status
		}
	}
	return StatusExecutionFailed
}
