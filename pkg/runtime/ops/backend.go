// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"strings"

	"github.com/pkg/errors"
)

// Backend identifies the compute target a kernel is written for.
type Backend uint8

//go:generate go tool enumer -type=Backend -linecomment -output=gen_backend_enumer.go backend.go

const (
	CPUScalar     Backend = iota // cpu_scalar
	CPUSIMD                      // cpu_simd
	GPUOpenCL                    // gpu_opencl
	GPUVulkan                    // gpu_vulkan
	DSP                          // dsp
	NPU                          // npu
	CustomBackend                // custom
)

// DefaultBackend is the backend used when none is requested, and the target of the dispatcher's backend fallback.
const DefaultBackend = CPUScalar

// BackendFromString parses a backend name, as returned by Backend.String (case-insensitive).
func BackendFromString(name string) (Backend, error) {
	b, err := BackendString(strings.TrimSpace(name))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidArgument, "unknown backend %q, valid values are %v", name, BackendStrings())
	}
	return b, nil
}

// ExecPolicy selects how work is executed.
type ExecPolicy uint8

//go:generate go tool enumer -type=ExecPolicy -linecomment -output=gen_execpolicy_enumer.go backend.go

const (
	// Serial executes one operation at a time, on the calling goroutine.
	Serial ExecPolicy = iota // serial

	// Parallel allows independent graph nodes, and chunks of kernel loops, to run concurrently.
	Parallel // parallel

	// Async and Pipeline are reserved. Executors reject them at construction time.
	Async    // async
	Pipeline // pipeline
)

// DefaultPolicy is the policy used when none is requested.
const DefaultPolicy = Serial

// ExecPolicyFromString parses a policy name, as returned by ExecPolicy.String (case-insensitive).
func ExecPolicyFromString(name string) (ExecPolicy, error) {
	p, err := ExecPolicyString(strings.TrimSpace(name))
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidArgument, "unknown execution policy %q, valid values are %v",
			name, ExecPolicyStrings())
	}
	return p, nil
}

// IsImplemented returns whether executors support the policy.
func (p ExecPolicy) IsImplemented() bool {
	return p == Serial || p == Parallel
}
