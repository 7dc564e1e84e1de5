// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graphdef

import (
	"math/big"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes/bfloat16"
	"github.com/pkg/errors"
	"github.com/x448/float16"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/exp/constraints"
)

// numbers converts a list or tuple of numbers (or bools) to float64.
func numbers(v cty.Value) ([]float64, error) {
	if !v.IsKnown() || !v.CanIterateElements() || v.Type().IsMapType() || v.Type().IsObjectType() {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "expected a list of numbers, got %s", v.Type().FriendlyName())
	}
	values := make([]float64, 0, v.LengthInt())
	for it := v.ElementIterator(); it.Next(); {
		_, element := it.Element()
		switch {
		case element.IsNull():
			return nil, errors.Wrapf(ops.ErrInvalidArgument, "null value at position %d", len(values))
		case element.Type() == cty.Number:
			f, _ := element.AsBigFloat().Float64()
			values = append(values, f)
		case element.Type() == cty.Bool:
			values = append(values, boolToFloat(element.True()))
		default:
			return nil, errors.Wrapf(ops.ErrInvalidArgument, "expected a number at position %d, got %s",
				len(values), element.Type().FriendlyName())
		}
	}
	return values, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func convertInto[T constraints.Integer | constraints.Float](flat []T, values []float64) {
	for ii, v := range values {
		flat[ii] = T(v)
	}
}

// fillFlat copies values into the flat storage of a tensor, converting them to its dtype.
func fillFlat(flat any, values []float64) error {
	switch flat := flat.(type) {
	case []float32:
		convertInto(flat, values)
	case []float64:
		convertInto(flat, values)
	case []int8:
		convertInto(flat, values)
	case []int16:
		convertInto(flat, values)
	case []int32:
		convertInto(flat, values)
	case []int64:
		convertInto(flat, values)
	case []uint8:
		convertInto(flat, values)
	case []uint16:
		convertInto(flat, values)
	case []uint32:
		convertInto(flat, values)
	case []uint64:
		convertInto(flat, values)
	case []float16.Float16:
		for ii, v := range values {
			flat[ii] = float16.Fromfloat32(float32(v))
		}
	case []bfloat16.BFloat16:
		for ii, v := range values {
			flat[ii] = bfloat16.FromFloat32(float32(v))
		}
	case []bool:
		for ii, v := range values {
			flat[ii] = v != 0
		}
	default:
		return errors.Wrapf(ops.ErrInvalidArgument, "cannot set values of storage type %T", flat)
	}
	return nil
}

func convertFrom[T constraints.Integer | constraints.Float](flat []T) []float64 {
	values := make([]float64, len(flat))
	for ii, v := range flat {
		values[ii] = float64(v)
	}
	return values
}

// flatValues converts flat storage of a tensor to float64. It returns false for unsupported storage types.
func flatValues(flat any) ([]float64, bool) {
	switch flat := flat.(type) {
	case []float32:
		return convertFrom(flat), true
	case []float64:
		return convertFrom(flat), true
	case []int8:
		return convertFrom(flat), true
	case []int16:
		return convertFrom(flat), true
	case []int32:
		return convertFrom(flat), true
	case []int64:
		return convertFrom(flat), true
	case []uint8:
		return convertFrom(flat), true
	case []uint16:
		return convertFrom(flat), true
	case []uint32:
		return convertFrom(flat), true
	case []uint64:
		return convertFrom(flat), true
	case []float16.Float16:
		values := make([]float64, len(flat))
		for ii, v := range flat {
			values[ii] = float64(v.Float32())
		}
		return values, true
	case []bfloat16.BFloat16:
		values := make([]float64, len(flat))
		for ii, v := range flat {
			values[ii] = float64(v.Float32())
		}
		return values, true
	case []bool:
		values := make([]float64, len(flat))
		for ii, v := range flat {
			values[ii] = boolToFloat(v)
		}
		return values, true
	}
	return nil, false
}

// attrFromValue converts an HCL value to a node attribute.
// Whole numbers become IntAttr, other numbers FloatAttr, and lists become IntsAttr if all their
// values are whole numbers, FloatsAttr otherwise.
func attrFromValue(v cty.Value) (graph.AttrValue, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, errors.Wrap(ops.ErrInvalidArgument, "null value")
	}
	switch {
	case v.Type() == cty.String:
		return graph.StringAttr(v.AsString()), nil
	case v.Type() == cty.Bool:
		return graph.IntAttr(boolToFloat(v.True())), nil
	case v.Type() == cty.Number:
		bf := v.AsBigFloat()
		if i, ok := int32Of(bf); ok {
			return graph.IntAttr(i), nil
		}
		f, _ := bf.Float32()
		return graph.FloatAttr(f), nil
	}
	values, err := numbers(v)
	if err != nil {
		return nil, err
	}
	ints := make(graph.IntsAttr, len(values))
	for ii, value := range values {
		i, ok := int32Of(big.NewFloat(value))
		if !ok {
			floats := make(graph.FloatsAttr, len(values))
			for jj, value := range values {
				floats[jj] = float32(value)
			}
			return floats, nil
		}
		ints[ii] = i
	}
	return ints, nil
}

// int32Of returns bf as an int32, if it is a whole number in range.
func int32Of(bf *big.Float) (int32, bool) {
	if !bf.IsInt() {
		return 0, false
	}
	i, accuracy := bf.Int64()
	if accuracy != big.Exact || i < -1<<31 || i > 1<<31-1 {
		return 0, false
	}
	return int32(i), true
}

// valueFromAttr converts a node attribute to an HCL value.
func valueFromAttr(attr graph.AttrValue) (cty.Value, error) {
	switch attr := attr.(type) {
	case graph.IntAttr:
		return cty.NumberIntVal(int64(attr)), nil
	case graph.FloatAttr:
		return cty.NumberFloatVal(float64(attr)), nil
	case graph.StringAttr:
		return cty.StringVal(string(attr)), nil
	case graph.IntsAttr:
		values := make([]cty.Value, len(attr))
		for ii, v := range attr {
			values[ii] = cty.NumberIntVal(int64(v))
		}
		return listOf(values), nil
	case graph.FloatsAttr:
		values := make([]cty.Value, len(attr))
		for ii, v := range attr {
			values[ii] = cty.NumberFloatVal(float64(v))
		}
		return listOf(values), nil
	}
	return cty.NilVal, errors.Wrapf(ops.ErrInvalidArgument, "unsupported attribute type %T", attr)
}

func listOf(values []cty.Value) cty.Value {
	if len(values) == 0 {
		return cty.ListValEmpty(cty.Number)
	}
	return cty.ListVal(values)
}
