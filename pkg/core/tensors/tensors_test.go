package tensors

import (
	"math"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"
)

func TestFromFlat(t *testing.T) {
	tensor := FromFlat([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, dtypes.Float32, tensor.DType)
	assert.Equal(t, 2, tensor.Rank())
	assert.Equal(t, 6, tensor.Size())
	assert.Equal(t, uint64(24), tensor.ByteSize())
	assert.Equal(t, []int{3, 1}, tensor.Strides())
	assert.True(t, tensor.HasData())
	assert.Equal(t, []float32{1, 2, 3, 4, 5, 6}, Flat[float32](tensor))
	assert.Nil(t, Flat[float64](tensor))

	vector := FromFlat([]float16.Float16{float16.Fromfloat32(1)})
	assert.Equal(t, dtypes.Float16, vector.DType)
	assert.Equal(t, []int{1}, vector.Shape)
	assert.Equal(t, uint64(2), vector.ByteSize())
}

func TestZeros(t *testing.T) {
	tensor, err := Zeros(dtypes.Int32, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, make([]int32, 6), Flat[int32](tensor))

	scalar, err := Zeros(dtypes.Float64)
	require.NoError(t, err)
	assert.Equal(t, 1, scalar.Size())
	assert.Equal(t, 0, scalar.Rank())

	_, err = Zeros(dtypes.InvalidDType, 2)
	require.Error(t, err)
	_, err = Zeros(dtypes.Float32, 1, 1, 1, 1, 1, 1, 1, 1, 1)
	require.Error(t, err)
}

func TestMetadataOnly(t *testing.T) {
	tensor := New(dtypes.Float32, 4, 4)
	assert.False(t, tensor.HasData())
	assert.Equal(t, 0, tensor.Len())
	assert.Equal(t, uint64(64), tensor.ByteSize())

	var nilTensor *Tensor
	assert.False(t, nilTensor.HasData())
	assert.Equal(t, "<nil tensor>", nilTensor.String())
}

func TestSizeOverflow(t *testing.T) {
	huge := New(dtypes.Float32, 1<<32, 1<<32)
	assert.Equal(t, -1, huge.Size())
	assert.Equal(t, uint64(math.MaxUint64), huge.ByteSize(), "byte size saturates")

	// The element count fits, the byte size doesn't.
	large := New(dtypes.Float64, 1<<31, 1<<31)
	assert.Equal(t, 1<<62, large.Size())
	assert.Equal(t, uint64(math.MaxUint64), large.ByteSize())

	empty := New(dtypes.Float32, 1<<32, 1<<32, 0)
	assert.Equal(t, 0, empty.Size())
	assert.Equal(t, uint64(0), empty.ByteSize())

	negative := New(dtypes.Float32, 2, -1)
	assert.Equal(t, -1, negative.Size())
	assert.Equal(t, uint64(0), negative.ByteSize())

	_, err := Zeros(dtypes.Float32, 1<<32, 1<<32)
	require.Error(t, err)
}

func TestClone(t *testing.T) {
	tensor := FromFlat([]float32{1, 2})
	tensor.Name = "x"

	shallow := tensor.Clone()
	shallow.Shape[0] = 7
	assert.Equal(t, []int{2}, tensor.Shape)
	Flat[float32](shallow)[0] = 10
	assert.Equal(t, float32(10), Flat[float32](tensor)[0], "Clone shares storage")

	deep := tensor.DeepClone()
	Flat[float32](deep)[1] = 20
	assert.Equal(t, float32(2), Flat[float32](tensor)[1], "DeepClone copies storage")
	assert.Equal(t, "x:(Float32)[2] [10 2]", tensor.String())
}
