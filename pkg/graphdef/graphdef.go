// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphdef reads and writes graphs in HCL.
//
// A definition has tensor and node blocks, in any order:
//
//	tensor "x" {
//	  dtype = "float32"
//	  shape = [2]
//	  data  = [1, 2]
//	}
//	tensor "y" {
//	  dtype = "float32"
//	  shape = [2]
//	}
//	node "relu" {
//	  op         = "RELU"
//	  inputs     = ["x"]
//	  outputs    = ["y"]
//	  attributes = { alpha = 0.5 }
//	}
//
// A tensor without shape is a scalar, and tensors without data are zero-filled. A node op that is not
// a known graph.OpType is a custom operation. Attribute values are numbers, strings or lists of numbers.
package graphdef

import (
	"os"
	"slices"
	"strings"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"k8s.io/klog/v2"
)

type hclFile struct {
	Tensors []*hclTensor `hcl:"tensor,block"`
	Nodes   []*hclNode   `hcl:"node,block"`
}

type hclTensor struct {
	Name  string    `hcl:"name,label"`
	DType string    `hcl:"dtype"`
	Shape []int     `hcl:"shape,optional"`
	Data  cty.Value `hcl:"data,optional"`
}

type hclNode struct {
	Name       string    `hcl:"name,label"`
	Op         string    `hcl:"op"`
	Inputs     []string  `hcl:"inputs,optional"`
	Outputs    []string  `hcl:"outputs,optional"`
	Attributes cty.Value `hcl:"attributes,optional"`
}

// Definition is a graph read from HCL, with the ids of its named tensors and nodes.
type Definition struct {
	Graph   *graph.Graph
	Tensors map[string]graph.TensorID
	Nodes   map[string]graph.NodeID
}

// Tensor returns the tensor with the given name, or nil.
func (d *Definition) Tensor(name string) *tensors.Tensor {
	id, found := d.Tensors[name]
	if !found {
		return nil
	}
	return d.Graph.Tensor(id)
}

// ParseFile reads the definition in path.
func ParseFile(path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading graph definition")
	}
	return Parse(src, path)
}

// Parse reads the definition in src. The filename is only used in error messages.
func Parse(src []byte, filename string) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "failed to parse graph definition %s: %s", filename, diags.Error())
	}
	var parsed hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "failed to decode graph definition %s: %s", filename, diags.Error())
	}

	def := &Definition{
		Graph:   graph.New(),
		Tensors: make(map[string]graph.TensorID, len(parsed.Tensors)),
		Nodes:   make(map[string]graph.NodeID, len(parsed.Nodes)),
	}
	for _, block := range parsed.Tensors {
		if _, found := def.Tensors[block.Name]; found {
			return nil, errors.Wrapf(ops.ErrInvalidArgument, "%s: tensor %q defined twice", filename, block.Name)
		}
		t, err := block.build()
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: tensor %q", filename, block.Name)
		}
		def.Tensors[block.Name] = def.Graph.AddTensor(t)
	}
	for _, block := range parsed.Nodes {
		if _, found := def.Nodes[block.Name]; found {
			return nil, errors.Wrapf(ops.ErrInvalidArgument, "%s: node %q defined twice", filename, block.Name)
		}
		node, err := block.build(def.Tensors)
		if err != nil {
			return nil, errors.WithMessagef(err, "%s: node %q", filename, block.Name)
		}
		def.Nodes[block.Name] = def.Graph.AddNode(node)
	}
	klog.V(1).Infof("parsed graph definition %s: %d tensors, %d nodes", filename, len(def.Tensors), len(def.Nodes))
	return def, nil
}

// DTypeFromString parses a dtype name, case-insensitive, e.g. "float32" or "Int8".
func DTypeFromString(name string) (dtypes.DType, error) {
	name = strings.TrimSpace(name)
	for _, dtype := range supportedDTypes {
		if strings.EqualFold(dtype.String(), name) {
			return dtype, nil
		}
	}
	return dtypes.InvalidDType, errors.Wrapf(ops.ErrInvalidArgument, "unknown dtype %q", name)
}

var supportedDTypes = []dtypes.DType{
	dtypes.Bool,
	dtypes.Int8, dtypes.Int16, dtypes.Int32, dtypes.Int64,
	dtypes.Uint8, dtypes.Uint16, dtypes.Uint32, dtypes.Uint64,
	dtypes.Float16, dtypes.BFloat16, dtypes.Float32, dtypes.Float64,
}

func (block *hclTensor) build() (*tensors.Tensor, error) {
	dtype, err := DTypeFromString(block.DType)
	if err != nil {
		return nil, err
	}
	t, err := tensors.Zeros(dtype, block.Shape...)
	if err != nil {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "%v", err)
	}
	t.Name = block.Name
	if block.Data.IsNull() {
		return t, nil
	}
	values, err := numbers(block.Data)
	if err != nil {
		return nil, errors.WithMessage(err, "data")
	}
	if len(values) != t.Size() {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "data has %d values, shape %v requires %d",
			len(values), block.Shape, t.Size())
	}
	if err := fillFlat(t.Flat, values); err != nil {
		return nil, err
	}
	return t, nil
}

func (block *hclNode) build(tensorIDs map[string]graph.TensorID) (*graph.Node, error) {
	var node *graph.Node
	if opType := graph.OpTypeFromString(block.Op); opType != graph.UnknownOp {
		node = graph.NewNode(opType, block.Name)
	} else if block.Op != "" {
		node = graph.NewCustomNode(block.Op, block.Name)
	} else {
		return nil, errors.Wrap(ops.ErrInvalidArgument, "empty op")
	}
	lookup := func(kind string, names []string) ([]graph.TensorID, error) {
		ids := make([]graph.TensorID, 0, len(names))
		for _, name := range names {
			id, found := tensorIDs[name]
			if !found {
				return nil, errors.Wrapf(ops.ErrInvalidArgument, "%s references unknown tensor %q", kind, name)
			}
			ids = append(ids, id)
		}
		return ids, nil
	}
	inputs, err := lookup("input", block.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := lookup("output", block.Outputs)
	if err != nil {
		return nil, err
	}
	node.AddInput(inputs...).AddOutput(outputs...)

	if block.Attributes.IsNull() {
		return node, nil
	}
	if !block.Attributes.Type().IsObjectType() && !block.Attributes.Type().IsMapType() {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "attributes must be an object, got %s",
			block.Attributes.Type().FriendlyName())
	}
	names := make([]string, 0, block.Attributes.LengthInt())
	values := make(map[string]cty.Value, len(names))
	for it := block.Attributes.ElementIterator(); it.Next(); {
		key, value := it.Element()
		names = append(names, key.AsString())
		values[key.AsString()] = value
	}
	slices.Sort(names)
	for _, name := range names {
		attr, err := attrFromValue(values[name])
		if err != nil {
			return nil, errors.WithMessagef(err, "attribute %q", name)
		}
		node.SetAttr(name, attr)
	}
	return node, nil
}
