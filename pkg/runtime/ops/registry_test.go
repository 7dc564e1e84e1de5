package ops

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noopKernel(*Context) error { return nil }

func TestRegistry(t *testing.T) {
	reg := NewRegistry(0)
	assert.Equal(t, DefaultRegistryCapacity, reg.Cap())

	require.NoError(t, reg.Register(Op{Name: "ADD", Execute: noopKernel, NumInputs: 2, NumOutputs: 1}))
	require.NoError(t, reg.Register(Op{Name: "RELU", Execute: noopKernel, NumInputs: 1, NumOutputs: 1}))
	assert.True(t, reg.IsRegistered("ADD"))
	assert.False(t, reg.IsRegistered("SUB"))
	assert.Equal(t, []string{"ADD", "RELU"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	op, found := reg.Op("ADD")
	require.True(t, found)
	assert.Equal(t, 2, op.NumInputs)
	_, found = reg.Op("SUB")
	assert.False(t, found)

	err := reg.Register(Op{Name: "ADD", Execute: noopKernel, NumInputs: 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	op, _ = reg.Op("ADD")
	assert.Equal(t, 2, op.NumInputs, "duplicate registration must not override")

	err = reg.Register(Op{})
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	reg.Clear()
	assert.Equal(t, 0, reg.Len())
	assert.False(t, reg.IsRegistered("ADD"))
	require.NoError(t, reg.Register(Op{Name: "ADD", Execute: noopKernel}))
}

func TestRegistryCapacity(t *testing.T) {
	reg := NewRegistry(3)
	for ii := range 3 {
		require.NoError(t, reg.Register(Op{Name: fmt.Sprintf("op%d", ii), Execute: noopKernel}))
	}
	err := reg.Register(Op{Name: "overflow", Execute: noopKernel})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResourceExhausted))
	assert.Equal(t, StatusOutOfMemory, StatusOf(err))
	assert.Equal(t, 3, reg.Len())
	assert.False(t, reg.IsRegistered("overflow"))
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	assert.Equal(t, StatusUnsupportedOp, StatusOf(errors.Wrap(ErrUnsupportedOp, "x")))
	assert.Equal(t, StatusExecutionFailed, StatusOf(errors.New("unknown")))
	kernelErr := &KernelError{Op: "ADD", Err: errors.Wrap(ErrInvalidArgument, "bad dtype")}
	assert.Equal(t, StatusExecutionFailed, StatusOf(errors.WithMessage(kernelErr, "while executing")))
	assert.True(t, errors.Is(kernelErr, ErrInvalidArgument), "KernelError unwraps to the kernel error")
	assert.Equal(t, "DEADLINE_EXCEEDED", StatusDeadlineExceeded.String())
	assert.Equal(t, "Status(42)", Status(42).String())
}

func TestBackendAndPolicyNames(t *testing.T) {
	assert.Len(t, BackendValues(), 7)
	for _, b := range BackendValues() {
		parsed, err := BackendFromString(b.String())
		require.NoError(t, err)
		assert.Equal(t, b, parsed)
	}
	_, err := BackendFromString("tpu")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	policy, err := ExecPolicyFromString("PARALLEL")
	require.NoError(t, err)
	assert.Equal(t, Parallel, policy)
	assert.True(t, Parallel.IsImplemented())
	assert.False(t, Pipeline.IsImplemented())
	assert.Equal(t, "async", Async.String())
	assert.Equal(t, "ExecPolicy(7)", ExecPolicy(7).String())
	_, err = ExecPolicyFromString("eager")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	assert.Contains(t, err.Error(), "[serial parallel async pipeline]")
}
