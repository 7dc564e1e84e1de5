// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graphdef

import (
	"fmt"
	"os"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
)

// Format writes g as an HCL definition that Parse reads back.
//
// Tensors and nodes keep their names if they are unique, otherwise they are named "t<id>" and "n<id>".
// Tensor data is written when the tensor has storage.
func Format(g *graph.Graph) ([]byte, error) {
	tensorNames := make(map[graph.TensorID]string)
	used := make(map[string]bool)
	for _, id := range g.TensorIDs() {
		name := g.Tensor(id).Name
		if name == "" || used[name] {
			name = fmt.Sprintf("t%d", id)
		}
		used[name] = true
		tensorNames[id] = name
	}

	file := hclwrite.NewEmptyFile()
	body := file.Body()
	for _, id := range g.TensorIDs() {
		t := g.Tensor(id)
		block := body.AppendNewBlock("tensor", []string{tensorNames[id]}).Body()
		block.SetAttributeValue("dtype", cty.StringVal(t.DType.String()))
		shape := make([]cty.Value, len(t.Shape))
		for ii, dim := range t.Shape {
			shape[ii] = cty.NumberIntVal(int64(dim))
		}
		block.SetAttributeValue("shape", listOf(shape))
		if !t.HasData() {
			continue
		}
		values, ok := flatValues(t.Flat)
		if !ok {
			return nil, errors.Errorf("tensor %q: cannot write storage of type %T", tensorNames[id], t.Flat)
		}
		data := make([]cty.Value, len(values))
		for ii, v := range values {
			data[ii] = cty.NumberFloatVal(v)
		}
		block.SetAttributeValue("data", listOf(data))
	}

	used = make(map[string]bool)
	for _, id := range g.NodeIDs() {
		node := g.Node(id)
		name := node.Name()
		if name == "" || used[name] {
			name = fmt.Sprintf("n%d", id)
		}
		used[name] = true
		body.AppendNewline()
		block := body.AppendNewBlock("node", []string{name}).Body()
		block.SetAttributeValue("op", cty.StringVal(node.OpName()))
		block.SetAttributeValue("inputs", namesOf(node.Inputs(), tensorNames))
		block.SetAttributeValue("outputs", namesOf(node.Outputs(), tensorNames))
		if node.NumAttrs() == 0 {
			continue
		}
		attrs := make(map[string]cty.Value, node.NumAttrs())
		for _, attrName := range node.AttrNames() {
			attr, _ := node.Attr(attrName)
			value, err := valueFromAttr(attr)
			if err != nil {
				return nil, errors.WithMessagef(err, "node %q attribute %q", name, attrName)
			}
			attrs[attrName] = value
		}
		block.SetAttributeValue("attributes", cty.ObjectVal(attrs))
	}
	return file.Bytes(), nil
}

func namesOf(ids []graph.TensorID, names map[graph.TensorID]string) cty.Value {
	values := make([]cty.Value, len(ids))
	for ii, id := range ids {
		name, found := names[id]
		if !found {
			name = fmt.Sprintf("t%d", id)
		}
		values[ii] = cty.StringVal(name)
	}
	if len(values) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	return cty.ListVal(values)
}

// WriteFile writes g to path, see Format.
func WriteFile(path string, g *graph.Graph) error {
	src, err := Format(g)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.WriteFile(path, src, 0o644), "writing graph definition to %s", path)
}
