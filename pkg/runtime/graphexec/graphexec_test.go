package graphexec

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryKernel(fn func(a, b float32) float32) ops.KernelFn {
	return func(ctx *ops.Context) error {
		a, b := tensors.Flat[float32](ctx.Input(0)), tensors.Flat[float32](ctx.Input(1))
		out := tensors.Flat[float32](ctx.Output(0))
		for ii := range min(len(a), len(b), len(out)) {
			out[ii] = fn(a[ii], b[ii])
		}
		return nil
	}
}

func unaryKernel(fn func(x float32) float32) ops.KernelFn {
	return func(ctx *ops.Context) error {
		x, out := tensors.Flat[float32](ctx.Input(0)), tensors.Flat[float32](ctx.Output(0))
		for ii := range min(len(x), len(out)) {
			out[ii] = fn(x[ii])
		}
		return nil
	}
}

// testOps registers ADD, MUL, RELU, FAIL and SLEEP (a RELU that takes 5ms).
func testOps(t *testing.T) *ops.Registry {
	reg := ops.NewRegistry(0)
	relu := unaryKernel(func(x float32) float32 { return max(x, 0) })
	for _, op := range []ops.Op{
		{Name: "ADD", NumInputs: 2, NumOutputs: 1, Execute: binaryKernel(func(a, b float32) float32 { return a + b })},
		{Name: "MUL", NumInputs: 2, NumOutputs: 1, Execute: binaryKernel(func(a, b float32) float32 { return a * b })},
		{Name: "RELU", NumInputs: 1, NumOutputs: 1, Execute: relu},
		{Name: "FAIL", Execute: func(*ops.Context) error { return errors.New("broken kernel") }},
		{Name: "SLEEP", NumInputs: 1, NumOutputs: 1, Execute: func(ctx *ops.Context) error {
			time.Sleep(5 * time.Millisecond)
			return relu(ctx)
		}},
	} {
		require.NoError(t, reg.Register(op))
	}
	return reg
}

func newTestExecutor(t *testing.T, config Config) *GraphExecutor {
	exec, err := ops.NewExecutor(testOps(t), nil, ops.DefaultExecutorConfig())
	require.NoError(t, err)
	ge, err := New(exec, config)
	require.NoError(t, err)
	return ge
}

// newAddReluGraph builds RELU(ADD([1, 2], [3, -5])).
func newAddReluGraph() (g *graph.Graph, add, relu graph.NodeID, sum, result []float32) {
	g = graph.New()
	sum, result = make([]float32, 2), make([]float32, 2)
	t1 := g.AddTensor(tensors.FromFlat([]float32{1, 2}))
	t2 := g.AddTensor(tensors.FromFlat([]float32{3, -5}))
	t3 := g.AddTensor(tensors.FromFlat(sum))
	t4 := g.AddTensor(tensors.FromFlat(result))
	add = g.AddNode(graph.NewNode(graph.AddOp, "add").AddInput(t1, t2).AddOutput(t3))
	relu = g.AddNode(graph.NewNode(graph.ReluOp, "relu").AddInput(t3).AddOutput(t4))
	return
}

func TestRun_AddRelu(t *testing.T) {
	for _, policy := range []ops.ExecPolicy{ops.Serial, ops.Parallel} {
		t.Run(policy.String(), func(t *testing.T) {
			config := DefaultConfig()
			config.Policy = policy
			ge := newTestExecutor(t, config)
			g, add, relu, sum, result := newAddReluGraph()
			require.NoError(t, ge.LoadFromGraph(g))
			assert.Empty(t, ge.Schedule(), "schedule only computed on first run")

			require.NoError(t, ge.Run(context.Background()))
			assert.Equal(t, []float32{4, -3}, sum)
			assert.Equal(t, []float32{4, 0}, result)
			assert.Equal(t, []graph.NodeID{add, relu}, ge.Schedule())
			for _, id := range []graph.NodeID{add, relu} {
				status, err := ge.NodeStatus(id)
				require.NoError(t, err)
				assert.Equal(t, graph.StatusCompleted, status)
				assert.True(t, ge.Node(id).IsExecuted())
				assert.False(t, g.Node(id).IsExecuted(), "original graph not touched")
			}

			stats := ge.Stats()
			assert.Equal(t, uint64(1), stats.TotalGraphsExecuted)
			assert.Equal(t, uint64(2), stats.TotalNodesExecuted)
			assert.Zero(t, stats.FailedExecutions)
			assert.Zero(t, stats.TotalExecutionTime, "only timed when profiling")
		})
	}
}

func TestLoad(t *testing.T) {
	ge := newTestExecutor(t, DefaultConfig())
	err := ge.Run(context.Background())
	assert.True(t, errors.Is(err, ops.ErrInvalidContext), "run before load")
	assert.True(t, errors.Is(ge.LoadFromGraph(nil), ops.ErrInvalidArgument))

	g, _, _, _, _ := newAddReluGraph()
	require.NoError(t, ge.LoadFromGraph(g))
	assert.Equal(t, uint64(4*2*4), ge.MemoryUsage())
	assert.Equal(t, 2, ge.NumNodes())
	assert.Equal(t, 2, ge.NumInputs())
	assert.Equal(t, 1, ge.NumOutputs())
	assert.Equal(t, []float32{3, -5}, tensors.Flat[float32](ge.Input(1)))
	assert.Nil(t, ge.Input(2))
	assert.GreaterOrEqual(t, ge.Stats().PeakMemoryUsage, ge.MemoryUsage())

	config := DefaultConfig()
	config.MemoryLimit = 16
	limited := newTestExecutor(t, config)
	err = limited.LoadFromGraph(g)
	assert.True(t, errors.Is(err, ops.ErrResourceExhausted))
	assert.Contains(t, err.Error(), "32 B")
	assert.False(t, limited.IsLoaded())

	config.MemoryLimit = 32
	limited = newTestExecutor(t, config)
	require.NoError(t, limited.LoadFromGraph(g))

	// Optimization computes the schedule at load time.
	config = DefaultConfig()
	config.EnableOptimization = true
	optimized := newTestExecutor(t, config)
	require.NoError(t, optimized.LoadFromGraph(g))
	assert.Len(t, optimized.Schedule(), 2)
}

func TestLoad_MemoryOverflow(t *testing.T) {
	config := DefaultConfig()
	config.MemoryLimit = 1 << 20

	// A declared tensor whose byte size overflows.
	g, _, _, _, _ := newAddReluGraph()
	g.AddTensor(tensors.New(dtypes.Float32, 1<<32, 1<<32))
	ge := newTestExecutor(t, config)
	err := ge.LoadFromGraph(g)
	assert.True(t, errors.Is(err, ops.ErrResourceExhausted))
	assert.False(t, ge.IsLoaded())

	// Tensors whose sizes fit, but whose sum overflows.
	g = graph.New()
	for range 4 {
		g.AddTensor(tensors.New(dtypes.Uint8, 1<<62))
	}
	err = ge.LoadFromGraph(g)
	assert.True(t, errors.Is(err, ops.ErrResourceExhausted))

	unlimited := newTestExecutor(t, DefaultConfig())
	require.NoError(t, unlimited.LoadFromGraph(g))
	assert.Equal(t, uint64(math.MaxUint64), unlimited.MemoryUsage())
}

func TestNew(t *testing.T) {
	_, err := New(nil, DefaultConfig())
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))

	exec, err := ops.NewExecutor(testOps(t), nil, ops.DefaultExecutorConfig())
	require.NoError(t, err)
	for _, policy := range []ops.ExecPolicy{ops.Async, ops.Pipeline} {
		config := DefaultConfig()
		config.Policy = policy
		_, err = New(exec, config)
		assert.True(t, errors.Is(err, ops.ErrInvalidArgument), "policy %s", policy)
	}
	config := DefaultConfig()
	config.NumWorkers = -1
	_, err = New(exec, config)
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))
}

func TestRun_Chain(t *testing.T) {
	g := graph.New()
	values := tensors.FromFlat([]float32{-1, 2, -3})
	current := g.AddTensor(values)
	var ids []graph.NodeID
	var last []float32
	for range 3 {
		last = make([]float32, 3)
		next := g.AddTensor(tensors.FromFlat(last))
		ids = append(ids, g.AddNode(graph.NewNode(graph.ReluOp, "").AddInput(current).AddOutput(next)))
		current = next
	}
	ge := newTestExecutor(t, DefaultConfig())
	require.NoError(t, ge.LoadFromGraph(g))
	require.NoError(t, ge.Run(context.Background()))
	assert.Equal(t, ids, ge.Schedule())
	assert.Equal(t, []float32{0, 2, 0}, last)
	assert.Equal(t, uint64(3), ge.Stats().TotalNodesExecuted)

	// Runs accumulate.
	require.NoError(t, ge.Run(context.Background()))
	assert.Equal(t, uint64(6), ge.Stats().TotalNodesExecuted)
	assert.Equal(t, uint64(2), ge.Stats().TotalGraphsExecuted)
}

func TestRun_Validation(t *testing.T) {
	g, add, _, sum, _ := newAddReluGraph()
	t5 := g.AddTensor(tensors.New(dtypes.Float32, 2))
	g.AddNode(graph.NewNode(graph.SoftmaxOp, "softmax").AddInput(g.Node(add).Outputs()...).AddOutput(t5))
	g.AddNode(graph.NewCustomNode("MY_OP", "custom").AddInput(t5))

	ge := newTestExecutor(t, DefaultConfig())
	require.NoError(t, ge.LoadFromGraph(g))
	err := ge.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ops.ErrUnsupportedOp))
	assert.Contains(t, err.Error(), "SOFTMAX")
	assert.Contains(t, err.Error(), "MY_OP", "all missing operations reported")
	assert.Equal(t, []float32{0, 0}, sum, "no node executed")
	assert.Equal(t, uint64(1), ge.Stats().FailedExecutions)
	assert.Zero(t, ge.Stats().TotalNodesExecuted)

	// Unknown tensor.
	g = graph.New()
	g.AddNode(graph.NewNode(graph.ReluOp, "").AddInput(7).AddOutput(8))
	require.NoError(t, ge.LoadFromGraph(g))
	err = ge.Run(context.Background())
	assert.True(t, errors.Is(err, ops.ErrGraphStructure))
}

func TestRun_Cycle(t *testing.T) {
	g := graph.New()
	t1 := g.AddTensor(tensors.New(dtypes.Float32, 1))
	t2 := g.AddTensor(tensors.New(dtypes.Float32, 1))
	g.AddNode(graph.NewNode(graph.ReluOp, "a").AddInput(t1).AddOutput(t2))
	g.AddNode(graph.NewNode(graph.ReluOp, "b").AddInput(t2).AddOutput(t1))
	require.Empty(t, g.TopologicalSort())

	ge := newTestExecutor(t, DefaultConfig())
	require.NoError(t, ge.LoadFromGraph(g))
	err := ge.Run(context.Background())
	assert.True(t, errors.Is(err, ops.ErrGraphStructure))
	assert.Contains(t, err.Error(), "cycle")

	config := DefaultConfig()
	config.EnableOptimization = true
	ge = newTestExecutor(t, config)
	assert.True(t, errors.Is(ge.LoadFromGraph(g), ops.ErrGraphStructure))
}

// newDiamondGraph builds (x + y) * relu(x). With sleep the relu node takes 5ms.
func newDiamondGraph(sleep bool) (g *graph.Graph, result []float32) {
	g = graph.New()
	x := g.AddTensor(tensors.FromFlat([]float32{1, -2, 3}))
	y := g.AddTensor(tensors.FromFlat([]float32{10, 20, 30}))
	sum := g.AddTensor(tensors.FromFlat(make([]float32, 3)))
	rectified := g.AddTensor(tensors.FromFlat(make([]float32, 3)))
	result = make([]float32, 3)
	out := g.AddTensor(tensors.FromFlat(result))
	reluOp := "RELU"
	if sleep {
		reluOp = "SLEEP"
	}
	g.AddNode(graph.NewNode(graph.AddOp, "sum").AddInput(x, y).AddOutput(sum))
	g.AddNode(graph.NewCustomNode(reluOp, "relu").AddInput(x).AddOutput(rectified))
	g.AddNode(graph.NewNode(graph.MulOp, "mul").AddInput(sum, rectified).AddOutput(out))
	return
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	want := []float32{11 * 1, 0, 33 * 3}
	for _, policy := range []ops.ExecPolicy{ops.Serial, ops.Parallel} {
		config := DefaultConfig()
		config.Policy = policy
		config.NumWorkers = 2
		ge := newTestExecutor(t, config)
		g, result := newDiamondGraph(false)
		require.NoError(t, ge.LoadFromGraph(g))
		for range 10 {
			clear(result)
			require.NoError(t, ge.Run(context.Background()))
			assert.Equal(t, want, result, "policy %s", policy)
		}
		assert.Equal(t, uint64(30), ge.Stats().TotalNodesExecuted)
	}
}

func TestRun_ParallelFailure(t *testing.T) {
	g := graph.New()
	x := g.AddTensor(tensors.FromFlat([]float32{1}))
	y := g.AddTensor(tensors.FromFlat([]float32{0}))
	g.AddNode(graph.NewCustomNode("FAIL", "fail").AddInput(x))
	g.AddNode(graph.NewNode(graph.ReluOp, "relu").AddInput(x).AddOutput(y))
	after := g.AddNode(graph.NewCustomNode("FAIL", "after"))
	require.True(t, g.Connect(1, after))

	config := DefaultConfig()
	config.Policy = ops.Parallel
	ge := newTestExecutor(t, config)
	require.NoError(t, ge.LoadFromGraph(g))
	err := ge.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ops.ErrExecutionFailed))
	assert.Contains(t, err.Error(), "broken kernel")
	status, _ := ge.NodeStatus(1)
	assert.Equal(t, graph.StatusFailed, status)
	status, _ = ge.NodeStatus(after)
	assert.Equal(t, graph.StatusReady, status, "successor of failed node never runs")
	assert.Equal(t, uint64(1), ge.Stats().FailedExecutions)
}

func TestRun_Cancellation(t *testing.T) {
	g := graph.New()
	current := g.AddTensor(tensors.FromFlat([]float32{1}))
	for range 20 {
		next := g.AddTensor(tensors.FromFlat([]float32{0}))
		g.AddNode(graph.NewCustomNode("SLEEP", "").AddInput(current).AddOutput(next))
		current = next
	}

	for _, policy := range []ops.ExecPolicy{ops.Serial, ops.Parallel} {
		t.Run(policy.String(), func(t *testing.T) {
			config := DefaultConfig()
			config.Policy = policy
			ge := newTestExecutor(t, config)
			require.NoError(t, ge.LoadFromGraph(g))

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := ge.Run(ctx)
			assert.True(t, errors.Is(err, ops.ErrCanceled))
			assert.Zero(t, ge.Stats().TotalNodesExecuted)

			config.Deadline = 12 * time.Millisecond
			require.NoError(t, ge.SetConfig(config))
			err = ge.Run(context.Background())
			assert.True(t, errors.Is(err, ops.ErrDeadlineExceeded))
			assert.Equal(t, ops.StatusDeadlineExceeded, ops.StatusOf(err))
			executed := ge.Stats().TotalNodesExecuted
			assert.Greater(t, executed, uint64(0))
			assert.Less(t, executed, uint64(20))
			assert.Equal(t, uint64(2), ge.Stats().FailedExecutions)
		})
	}
}

func TestRun_Concurrent(t *testing.T) {
	reg := testOps(t)
	started, release := make(chan struct{}), make(chan struct{})
	var calls atomic.Int32
	require.NoError(t, reg.Register(ops.Op{Name: "BLOCK", Execute: func(*ops.Context) error {
		if calls.Add(1) == 1 {
			close(started)
			<-release
		}
		return nil
	}}))
	exec, err := ops.NewExecutor(reg, nil, ops.DefaultExecutorConfig())
	require.NoError(t, err)
	ge, err := New(exec, DefaultConfig())
	require.NoError(t, err)
	g := graph.New()
	g.AddNode(graph.NewCustomNode("BLOCK", ""))
	require.NoError(t, ge.LoadFromGraph(g))

	done := make(chan error)
	go func() { done <- ge.Run(context.Background()) }()
	<-started
	err = ge.Run(context.Background())
	assert.True(t, errors.Is(err, ops.ErrInvalidContext))
	assert.True(t, errors.Is(ge.LoadFromGraph(g), ops.ErrInvalidContext))
	close(release)
	require.NoError(t, <-done)
	require.NoError(t, ge.Run(context.Background()))
}

func TestRunWithIO(t *testing.T) {
	config := DefaultConfig()
	config.MaxBatchSize = 2
	ge := newTestExecutor(t, config)
	g, _, _, _, original := newAddReluGraph()
	require.NoError(t, ge.LoadFromGraph(g))

	result := make([]float32, 2)
	inputs := []*tensors.Tensor{tensors.FromFlat([]float32{-1, 1}), tensors.FromFlat([]float32{-1, 1})}
	require.NoError(t, ge.RunWithIO(context.Background(), inputs, []*tensors.Tensor{tensors.FromFlat(result)}))
	assert.Equal(t, []float32{0, 2}, result)
	assert.Equal(t, []float32{0, 0}, original, "output rebound")

	err := ge.RunWithIO(context.Background(), inputs[:1], []*tensors.Tensor{tensors.FromFlat(result)})
	assert.True(t, errors.Is(err, ops.ErrContextMismatch))

	results := [][]float32{make([]float32, 2), make([]float32, 2)}
	batchInputs := [][]*tensors.Tensor{
		{tensors.FromFlat([]float32{1, 1}), tensors.FromFlat([]float32{1, 1})},
		{tensors.FromFlat([]float32{2, 2}), tensors.FromFlat([]float32{-5, 5})},
	}
	batchOutputs := [][]*tensors.Tensor{{tensors.FromFlat(results[0])}, {tensors.FromFlat(results[1])}}
	require.NoError(t, ge.RunBatch(context.Background(), batchInputs, batchOutputs))
	assert.Equal(t, []float32{2, 2}, results[0])
	assert.Equal(t, []float32{0, 7}, results[1])

	tooLarge := append(batchInputs, batchInputs[0])
	err = ge.RunBatch(context.Background(), tooLarge, append(batchOutputs, batchOutputs[0]))
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))
	err = ge.RunBatch(context.Background(), batchInputs, batchOutputs[:1])
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))
}

func TestRunWithIO_Binding(t *testing.T) {
	config := DefaultConfig()
	config.MemoryLimit = 32
	ge := newTestExecutor(t, config)
	g, _, _, _, result := newAddReluGraph()
	require.NoError(t, ge.LoadFromGraph(g))

	// A failed binding leaves every tensor in place.
	inputs := []*tensors.Tensor{tensors.FromFlat([]float32{7, 7}), tensors.FromFlat([]float32{1, 2, 3})}
	err := ge.RunWithIO(context.Background(), inputs, []*tensors.Tensor{tensors.FromFlat(make([]float32, 2))})
	assert.True(t, errors.Is(err, ops.ErrResourceExhausted))
	assert.Equal(t, []float32{1, 2}, tensors.Flat[float32](ge.Input(0)))
	assert.Equal(t, []float32{3, -5}, tensors.Flat[float32](ge.Input(1)))
	assert.Equal(t, uint64(32), ge.MemoryUsage())

	err = ge.RunWithIO(context.Background(), inputs[:1:1], nil)
	assert.True(t, errors.Is(err, ops.ErrContextMismatch))
	err = ge.RunWithIO(context.Background(), []*tensors.Tensor{inputs[0], nil}, []*tensors.Tensor{nil})
	assert.True(t, errors.Is(err, ops.ErrInvalidArgument))
	assert.Equal(t, []float32{1, 2}, tensors.Flat[float32](ge.Input(0)))

	// SetInput applies the memory limit too.
	err = ge.SetInput(1, inputs[1])
	assert.True(t, errors.Is(err, ops.ErrResourceExhausted))
	assert.Equal(t, []float32{3, -5}, tensors.Flat[float32](ge.Input(1)))
	require.NoError(t, ge.SetInput(1, tensors.FromFlat([]float32{-2, 2})))
	assert.Equal(t, uint64(32), ge.MemoryUsage())

	require.NoError(t, ge.Run(context.Background()))
	assert.Equal(t, []float32{0, 4}, result)
}

func TestExecuteNode(t *testing.T) {
	ge := newTestExecutor(t, DefaultConfig())
	g, add, relu, sum, result := newAddReluGraph()
	require.NoError(t, ge.LoadFromGraph(g))

	err := ge.ExecuteNode(relu)
	assert.True(t, errors.Is(err, ops.ErrExecutionFailed), "predecessor not executed")
	assert.Contains(t, err.Error(), "not ready")

	require.NoError(t, ge.ExecuteNode(add))
	assert.Equal(t, []float32{4, -3}, sum)
	require.NoError(t, ge.ExecuteNode(relu))
	assert.Equal(t, []float32{4, 0}, result)

	assert.True(t, errors.Is(ge.ExecuteNode(99), ops.ErrInvalidArgument))
}

func TestStats(t *testing.T) {
	config := DefaultConfig()
	config.EnableProfiling = true
	ge := newTestExecutor(t, config)
	g, _ := newDiamondGraph(true)
	require.NoError(t, ge.LoadFromGraph(g))
	for range 2 {
		require.NoError(t, ge.Run(context.Background()))
	}
	stats := ge.Stats()
	assert.Equal(t, uint64(2), stats.ProfiledGraphs)
	assert.GreaterOrEqual(t, stats.TotalExecutionTime, 10*time.Millisecond)
	assert.Equal(t, stats.TotalExecutionTime/2, stats.AvgGraphExecutionTime)
	assert.Equal(t, ge.MemoryUsage(), stats.PeakMemoryUsage)
	duration, err := ge.NodeProfile(2)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, duration, 5*time.Millisecond)

	ge.ResetStats()
	assert.Equal(t, Stats{}, ge.Stats())
}
