// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"slices"
	"strings"
	"unsafe"
)

// NodeID identifies a Node within one Graph. InvalidNodeID (0) is never assigned.
type NodeID uint32

// TensorID identifies a tensor within one Graph. InvalidTensorID (0) is never assigned.
type TensorID uint32

const (
	InvalidNodeID   NodeID   = 0
	InvalidTensorID TensorID = 0
)

// Node is one operation instance in a Graph. It references its input and output tensors by TensorID.
//
// A Node holds no reference to the Graph it belongs to. Its ID is set when added to a Graph.
type Node struct {
	id       NodeID
	opType   OpType
	opName   string
	name     string
	inputs   []TensorID
	outputs  []TensorID
	attrs    map[string]AttrValue
	status   Status
	executed bool
}

// NewNode creates a node for a built-in operation kind.
func NewNode(opType OpType, name string) *Node {
	return &Node{opType: opType, opName: opType.String(), name: name}
}

// NewCustomNode creates a CustomOp node for the operation registered under opName.
func NewCustomNode(opName, name string) *Node {
	return &Node{opType: CustomOp, opName: opName, name: name}
}

// ID of the node within its Graph, or InvalidNodeID if it was never added to one.
func (n *Node) ID() NodeID { return n.id }

// OpType returns the kind of operation.
func (n *Node) OpType() OpType { return n.opType }

// OpName returns the name under which the operation is registered: the OpType name for built-in
// kinds, or the user given name for CustomOp.
func (n *Node) OpName() string { return n.opName }

// Name returns the display name.
func (n *Node) Name() string { return n.name }

// SetName sets the display name.
func (n *Node) SetName(name string) { n.name = name }

// Inputs returns the ordered input tensors. The slice must not be modified.
func (n *Node) Inputs() []TensorID { return n.inputs }

// Outputs returns the ordered output tensors. The slice must not be modified.
func (n *Node) Outputs() []TensorID { return n.outputs }

// AddInput appends an input tensor. It returns the node, to allow chaining.
//
// Edges are derived from tensors when a node is added to a Graph, so inputs and outputs should be set before that.
func (n *Node) AddInput(ids ...TensorID) *Node {
	n.inputs = append(n.inputs, ids...)
	return n
}

// AddOutput appends an output tensor. It returns the node, to allow chaining.
func (n *Node) AddOutput(ids ...TensorID) *Node {
	n.outputs = append(n.outputs, ids...)
	return n
}

// WithAttr sets an attribute and returns the node, to allow chaining.
func (n *Node) WithAttr(name string, value AttrValue) *Node {
	n.SetAttr(name, value)
	return n
}

// Status returns the execution status of the node.
func (n *Node) Status() Status { return n.status }

// SetStatus is used by executors to advance the node state.
func (n *Node) SetStatus(status Status) { n.status = status }

// IsExecuted returns whether the node completed during the current execution.
func (n *Node) IsExecuted() bool { return n.executed }

// SetExecuted is used by executors to mark the node as executed.
func (n *Node) SetExecuted(executed bool) { n.executed = executed }

// Validate returns whether all the tensors referenced by the node are valid ids.
func (n *Node) Validate() bool {
	return !slices.Contains(n.inputs, InvalidTensorID) && !slices.Contains(n.outputs, InvalidTensorID)
}

// MemoryUsage estimates the memory held by the node descriptor itself, not by its tensors.
func (n *Node) MemoryUsage() uint64 {
	usage := uint64(unsafe.Sizeof(*n))
	usage += uint64(len(n.name) + len(n.opName))
	usage += uint64(len(n.inputs)+len(n.outputs)) * uint64(unsafe.Sizeof(TensorID(0)))
	for name, value := range n.attrs {
		usage += uint64(len(name))
		switch v := value.(type) {
		case StringAttr:
			usage += uint64(len(v))
		case IntsAttr:
			usage += uint64(len(v)) * 4
		case FloatsAttr:
			usage += uint64(len(v)) * 4
		default:
			usage += 4
		}
	}
	return usage
}

// ComputationCost is a rough relative cost of executing the node, used for scheduling heuristics and reports.
func (n *Node) ComputationCost() uint64 {
	return n.opType.computationCost()
}

// Clone returns a deep copy of the node, including attributes, with no ID and reset execution state.
func (n *Node) Clone() *Node {
	clone := &Node{
		opType:  n.opType,
		opName:  n.opName,
		name:    n.name,
		inputs:  slices.Clone(n.inputs),
		outputs: slices.Clone(n.outputs),
	}
	if len(n.attrs) > 0 {
		clone.attrs = make(map[string]AttrValue, len(n.attrs))
		for name, value := range n.attrs {
			clone.attrs[name] = CloneAttr(value)
		}
	}
	return clone
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "#%d %s", n.id, n.opName)
	if n.name != "" {
		fmt.Fprintf(&sb, " %q", n.name)
	}
	fmt.Fprintf(&sb, " inputs=%v outputs=%v", n.inputs, n.outputs)
	if len(n.attrs) > 0 {
		parts := make([]string, 0, len(n.attrs))
		for _, name := range n.AttrNames() {
			parts = append(parts, fmt.Sprintf("%s=%s", name, n.attrs[name]))
		}
		fmt.Fprintf(&sb, " {%s}", strings.Join(parts, ", "))
	}
	return sb.String()
}
