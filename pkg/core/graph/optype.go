// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import "strings"

// OpType enumerates the kinds of operations a Node can hold.
//
// The numeric values are stable (they are used by serialized graphs), and grouped by families.
// CustomOp is the escape hatch for operations identified only by name.
type OpType uint16

//go:generate go tool enumer -type=OpType -linecomment -output=gen_optype_enumer.go optype.go

const (
	UnknownOp OpType = 0 // UNKNOWN

	// Elementwise arithmetic.
	AddOp OpType = 1 // ADD
	SubOp OpType = 2 // SUB
	MulOp OpType = 3 // MUL
	DivOp OpType = 4 // DIV

	// Activations.
	ReluOp    OpType = 10 // RELU
	SigmoidOp OpType = 11 // SIGMOID
	TanhOp    OpType = 12 // TANH
	SoftmaxOp OpType = 13 // SOFTMAX

	// Convolutions.
	Conv2DOp          OpType = 20 // CONV2D
	DepthwiseConv2DOp OpType = 21 // DEPTHWISE_CONV2D
	TransposeConv2DOp OpType = 22 // TRANSPOSE_CONV2D

	// Pooling.
	MaxPool2DOp       OpType = 30 // MAX_POOL2D
	AvgPool2DOp       OpType = 31 // AVG_POOL2D
	GlobalAvgPool2DOp OpType = 32 // GLOBAL_AVG_POOL2D

	// Linear algebra.
	MatMulOp      OpType = 40 // MATMUL
	BatchMatMulOp OpType = 41 // BATCH_MATMUL

	// Normalization.
	BatchNormOp    OpType = 50 // BATCH_NORM
	LayerNormOp    OpType = 51 // LAYER_NORM
	InstanceNormOp OpType = 52 // INSTANCE_NORM

	// Shape manipulation.
	ReshapeOp   OpType = 60 // RESHAPE
	TransposeOp OpType = 61 // TRANSPOSE
	SqueezeOp   OpType = 62 // SQUEEZE
	UnsqueezeOp OpType = 63 // UNSQUEEZE

	// Reductions.
	ReduceMeanOp OpType = 70 // REDUCE_MEAN
	ReduceSumOp  OpType = 71 // REDUCE_SUM
	ReduceMaxOp  OpType = 72 // REDUCE_MAX
	ReduceMinOp  OpType = 73 // REDUCE_MIN

	// Tensor manipulation.
	ConcatOp OpType = 80 // CONCAT
	SplitOp  OpType = 81 // SPLIT
	PadOp    OpType = 82 // PAD
	SliceOp  OpType = 83 // SLICE

	CustomOp OpType = 1000 // CUSTOM
)

// IsSupported returns whether op is a known kind, other than UnknownOp.
func (op OpType) IsSupported() bool {
	return op.IsAOpType() && op != UnknownOp
}

// OpTypeFromString converts a name (case-insensitive) to its OpType.
// It returns UnknownOp if the name is not known.
func OpTypeFromString(name string) OpType {
	op, err := OpTypeString(strings.TrimSpace(name))
	if err != nil {
		return UnknownOp
	}
	return op
}

// Family cost groups used by Node.ComputationCost.
func (op OpType) computationCost() uint64 {
	switch op {
	case AddOp, SubOp, MulOp, DivOp:
		return 1
	case ReluOp, SigmoidOp, TanhOp:
		return 2
	case Conv2DOp, DepthwiseConv2DOp:
		return 100
	case MatMulOp, BatchMatMulOp:
		return 50
	case BatchNormOp, LayerNormOp:
		return 10
	default:
		return 5
	}
}

// Status of a node during one execution.
type Status uint8

//go:generate go tool enumer -type=Status -linecomment -output=gen_status_enumer.go optype.go

const (
	StatusReady     Status = iota // READY
	StatusRunning                 // RUNNING
	StatusCompleted               // COMPLETED
	StatusFailed                  // FAILED
)
