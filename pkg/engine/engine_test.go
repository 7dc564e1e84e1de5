package engine

import (
	"context"
	"testing"
	"time"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/runtime/dispatch"
	"github.com/gomlx/cmatrix/pkg/runtime/graphexec"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	c, err := ParseConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), c)

	c, err = ParseConfig(" policy=Parallel, workers=4,threads=2, profiling,caching , optimization,memory_reuse," +
		"novalidation,scratch=64KiB,memory_limit=1MiB,backend=cpu_simd,batch=8,deadline=10ms")
	require.NoError(t, err)
	want := Config{
		Executor: ops.ExecutorConfig{
			EnableProfiling: true,
			EnableCaching:   true,
			MaxThreads:      2,
			ScratchPoolSize: 64 * 1024,
			DefaultBackend:  ops.CPUSIMD,
			DefaultPolicy:   ops.Parallel,
		},
		Graph: graphexec.Config{
			EnableProfiling:    true,
			EnableOptimization: true,
			EnableMemoryReuse:  true,
			Policy:             ops.Parallel,
			NumWorkers:         4,
			MaxBatchSize:       8,
			MemoryLimit:        1 << 20,
			Deadline:           10 * time.Millisecond,
		},
	}
	if diff := cmp.Diff(want, c); diff != "" {
		t.Errorf("ParseConfig() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"unknown", "speed=fast", "policy=fastest", "workers=-1", "threads=x",
		"scratch=lots", "deadline=-1s", "profiling=true", "backend=tpu"} {
		_, err := ParseConfig(bad)
		require.Error(t, err, "config %q", bad)
		assert.True(t, errors.Is(err, ops.ErrInvalidArgument), "config %q: %v", bad, err)
		assert.Contains(t, err.Error(), bad)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv(ConfigEnvVar, "policy=parallel,workers=3")
	c, err := ConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ops.Parallel, c.Graph.Policy)
	assert.Equal(t, 3, c.Graph.NumWorkers)

	t.Setenv(ConfigEnvVar, "bogus")
	_, err = ConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), ConfigEnvVar)
}

func TestEngine(t *testing.T) {
	e, err := NewWithReferenceKernels()
	require.NoError(t, err)
	assert.True(t, e.Registry.IsRegistered("ADD"))
	_, found := e.Dispatcher.Dispatch("RELU", nil)
	assert.True(t, found)

	_, err = e.NewGraphExecutor(Config{Executor: ops.DefaultExecutorConfig(), Graph: graphexec.Config{Policy: ops.Async}})
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))

	e.Clear()
	assert.Zero(t, e.Registry.Len())
	assert.Zero(t, e.Dispatcher.Len())

	assert.Same(t, Default(), Default())
	assert.True(t, Default().Registry.IsRegistered("SIGMOID"))
}

// TestEndToEnd runs RELU(ADD(x, y)) with the reference kernels, under both policies.
func TestEndToEnd(t *testing.T) {
	e, err := NewWithReferenceKernels()
	require.NoError(t, err)
	for _, config := range []string{"", "policy=parallel,workers=2,threads=2,caching,profiling,scratch=4KiB"} {
		t.Run(config, func(t *testing.T) {
			c, err := ParseConfig(config)
			require.NoError(t, err)
			ge, err := e.NewGraphExecutor(c)
			require.NoError(t, err)

			g := graph.New()
			t1 := g.AddTensor(tensors.FromFlat([]float32{1, 2}))
			t2 := g.AddTensor(tensors.FromFlat([]float32{3, -5}))
			sum := make([]float32, 2)
			t3 := g.AddTensor(tensors.FromFlat(sum))
			result := make([]float32, 2)
			t4 := g.AddTensor(tensors.FromFlat(result))
			n1 := g.AddNode(graph.NewNode(graph.AddOp, "add").AddInput(t1, t2).AddOutput(t3))
			n2 := g.AddNode(graph.NewNode(graph.ReluOp, "relu").AddInput(t3).AddOutput(t4))
			assert.Equal(t, []graph.NodeID{n1, n2}, g.TopologicalSort())

			require.NoError(t, ge.LoadFromGraph(g))
			require.NoError(t, ge.Run(context.Background()))
			assert.Equal(t, []float32{4, -3}, sum)
			assert.Equal(t, []float32{4, 0}, result)

			stats := ge.Executor().Stats()
			assert.Equal(t, uint64(2), stats.SuccessfulOps)
			if c.Executor.EnableCaching {
				require.NoError(t, ge.Run(context.Background()))
				assert.Equal(t, uint64(2), ge.Executor().Stats().CacheHits)
			}
		})
	}
}

// TestOverride checks that a higher priority kernel replaces the reference one.
func TestOverride(t *testing.T) {
	e, err := NewWithReferenceKernels()
	require.NoError(t, err)
	var calls int
	key := dispatch.Key{OpName: "RELU", Backend: ops.DefaultBackend, InputDType: dispatch.DefaultDType,
		OutputDType: dispatch.DefaultDType}
	require.NoError(t, e.Dispatcher.Register(key, dispatch.KernelInfo{Name: "tuned", Priority: 10,
		Kernel: func(ctx *ops.Context) error {
			calls++
			return nil
		}}))
	exec, err := e.NewExecutor(ops.DefaultExecutorConfig())
	require.NoError(t, err)
	ctx := ops.NewContext()
	require.NoError(t, ctx.SetInput(0, tensors.FromFlat([]float32{-1})))
	require.NoError(t, ctx.SetOutput(0, tensors.FromFlat([]float32{7})))
	require.NoError(t, exec.ExecuteOp("RELU", ctx))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []float32{7}, tensors.Flat[float32](ctx.Output(0)))
}

// TestCachedKernelMatchesDispatch checks that cached kernels are keyed like the dispatcher lookups,
// by the first non-nil input.
func TestCachedKernelMatchesDispatch(t *testing.T) {
	e := New()
	require.NoError(t, e.Registry.Register(ops.Op{Name: "MIX", NumInputs: 2, NumOutputs: 1,
		Execute: func(*ops.Context) error { return errors.New("no kernel resolved") }}))
	var ran []string
	for _, dtype := range []dtypes.DType{dtypes.Float64, dtypes.Float32} {
		key := dispatch.Key{OpName: "MIX", Backend: ops.DefaultBackend, InputDType: dtype, OutputDType: dtypes.Float64}
		name := dtype.String()
		require.NoError(t, e.Dispatcher.Register(key, dispatch.KernelInfo{Name: name,
			Kernel: func(*ops.Context) error {
				ran = append(ran, name)
				return nil
			}}))
	}
	config := ops.DefaultExecutorConfig()
	config.EnableValidation = false
	config.EnableCaching = true
	exec, err := e.NewExecutor(config)
	require.NoError(t, err)

	var want []string
	for _, input := range []*tensors.Tensor{tensors.FromFlat([]float64{1}), tensors.FromFlat([]float32{1})} {
		ctx := ops.NewContext()
		require.NoError(t, ctx.SetInput(1, input))
		require.NoError(t, ctx.SetOutput(0, tensors.FromFlat([]float64{0})))
		require.Nil(t, ctx.Input(0))
		info, found := e.Dispatcher.Dispatch("MIX", ctx)
		require.True(t, found)
		want = append(want, info.Name)
		require.NoError(t, exec.ExecuteOp("MIX", ctx))
	}
	assert.Equal(t, []string{"Float64", "Float32"}, want)
	assert.Equal(t, want, ran)
	assert.Equal(t, uint64(2), exec.Stats().CacheMisses)
}
