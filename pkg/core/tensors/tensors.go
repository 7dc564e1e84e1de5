// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package tensors defines the tensor descriptor consumed by the graph-execution core.
//
// A Tensor is a thin handle: an element dtype, a per-axis shape and a flat Go slice holding the values
// (e.g. `[]float32` for dtypes.Float32). The execution core only reads these fields; storage is allocated
// by whoever builds the descriptor (a graph loader, a test, the embedding application).
package tensors

import (
	"fmt"
	"math"
	"math/bits"
	"reflect"
	"strings"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// MaxRank is the maximum number of axes a tensor may have.
const MaxRank = 8

// Tensor describes one tensor: its dtype, shape and (optionally) its flat storage.
type Tensor struct {
	// Name is informative only.
	Name string

	DType dtypes.DType
	Shape []int

	// Flat holds the values as a Go slice of the type matching DType, in row-major order.
	// It may be nil for tensors that only carry metadata.
	Flat any
}

// New creates a descriptor without storage.
func New(dtype dtypes.DType, shape ...int) *Tensor {
	return &Tensor{DType: dtype, Shape: shape}
}

// Zeros creates a tensor with zero-initialized storage for the given dtype and shape.
func Zeros(dtype dtypes.DType, shape ...int) (*Tensor, error) {
	if dtype == dtypes.InvalidDType {
		return nil, errors.New("cannot allocate tensor with invalid dtype")
	}
	if len(shape) > MaxRank {
		return nil, errors.Errorf("tensor rank %d exceeds maximum rank %d", len(shape), MaxRank)
	}
	t := New(dtype, shape...)
	size := t.Size()
	if size < 0 {
		return nil, errors.Errorf("invalid shape %v: negative dimension or too many elements", shape)
	}
	goType := dtype.GoType()
	if goType == nil {
		return nil, errors.Errorf("dtype %s has no Go representation", dtype)
	}
	t.Flat = reflect.MakeSlice(reflect.SliceOf(goType), size, size).Interface()
	return t, nil
}

// FromFlat creates a tensor owning (by reference) the given flat values.
// If no shape is given, it is a 1D tensor with len(flat) elements.
func FromFlat[T dtypes.Supported](flat []T, shape ...int) *Tensor {
	if len(shape) == 0 {
		shape = []int{len(flat)}
	}
	return &Tensor{DType: dtypes.FromGenericsType[T](), Shape: shape, Flat: flat}
}

// Flat returns the typed flat storage of t, or nil if t has no storage of type T.
func Flat[T dtypes.Supported](t *Tensor) []T {
	if t == nil || t.Flat == nil {
		return nil
	}
	flat, _ := t.Flat.([]T)
	return flat
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int {
	return len(t.Shape)
}

// Size returns the number of elements: the product of the dimensions, 1 for scalars.
// It returns -1 if any dimension is negative, or if the product doesn't fit in an int.
func (t *Tensor) Size() int {
	elements, ok := t.numElements()
	if !ok || elements > math.MaxInt {
		return -1
	}
	return int(elements)
}

// ByteSize returns the declared memory footprint of the tensor.
// It saturates at math.MaxUint64 if the footprint doesn't fit in an uint64.
func (t *Tensor) ByteSize() uint64 {
	if t.DType == dtypes.InvalidDType {
		return 0
	}
	elements, ok := t.numElements()
	if !ok {
		if elements == 0 {
			return 0
		}
		return math.MaxUint64
	}
	hi, bytes := bits.Mul64(elements, uint64(t.DType.Size()))
	if hi != 0 {
		return math.MaxUint64
	}
	return bytes
}

// numElements returns the product of the dimensions. ok is false if a dimension is negative (elements is 0)
// or if the product overflows an uint64 (elements is math.MaxUint64).
func (t *Tensor) numElements() (elements uint64, ok bool) {
	elements = 1
	for _, dim := range t.Shape {
		if dim < 0 {
			return 0, false
		}
		if dim == 0 {
			return 0, true
		}
	}
	for _, dim := range t.Shape {
		hi, lo := bits.Mul64(elements, uint64(dim))
		if hi != 0 {
			return math.MaxUint64, false
		}
		elements = lo
	}
	return elements, true
}

// HasData returns whether the tensor has backing storage.
func (t *Tensor) HasData() bool {
	if t == nil || t.Flat == nil {
		return false
	}
	v := reflect.ValueOf(t.Flat)
	return v.Kind() == reflect.Slice && !v.IsNil()
}

// Len returns the number of elements in the backing storage, or 0 if there is none.
func (t *Tensor) Len() int {
	if !t.HasData() {
		return 0
	}
	return reflect.ValueOf(t.Flat).Len()
}

// Strides returns the row-major strides (in elements) for each axis.
func (t *Tensor) Strides() []int {
	strides := make([]int, len(t.Shape))
	stride := 1
	for axis := len(t.Shape) - 1; axis >= 0; axis-- {
		strides[axis] = stride
		stride *= t.Shape[axis]
	}
	return strides
}

// Clone returns a copy of the descriptor. The storage is shared.
func (t *Tensor) Clone() *Tensor {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Shape = append([]int(nil), t.Shape...)
	return &clone
}

// DeepClone returns a copy of the descriptor and of its storage.
func (t *Tensor) DeepClone() *Tensor {
	clone := t.Clone()
	if clone == nil || !t.HasData() {
		return clone
	}
	src := reflect.ValueOf(t.Flat)
	dst := reflect.MakeSlice(src.Type(), src.Len(), src.Len())
	reflect.Copy(dst, src)
	clone.Flat = dst.Interface()
	return clone
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil tensor>"
	}
	var sb strings.Builder
	if t.Name != "" {
		fmt.Fprintf(&sb, "%s:", t.Name)
	}
	dims := make([]string, len(t.Shape))
	for ii, dim := range t.Shape {
		dims[ii] = fmt.Sprint(dim)
	}
	fmt.Fprintf(&sb, "(%s)[%s]", t.DType, strings.Join(dims, " "))
	if t.HasData() {
		fmt.Fprintf(&sb, " %v", t.Flat)
	}
	return sb.String()
}
