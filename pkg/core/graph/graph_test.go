package graph

import (
	"math/rand/v2"
	"testing"

	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAddRelu builds N1: ADD(T1, T2) -> T3; N2: RELU(T3) -> T4.
func buildAddRelu(t *testing.T) (*Graph, NodeID, NodeID) {
	g := New()
	for id := TensorID(1); id <= 4; id++ {
		require.True(t, g.RegisterTensor(id, tensors.New(dtypes.Float32, 2)))
	}
	n1 := g.AddNode(NewNode(AddOp, "add").AddInput(1, 2).AddOutput(3))
	n2 := g.AddNode(NewNode(ReluOp, "relu").AddInput(3).AddOutput(4))
	return g, n1, n2
}

func TestAddNode(t *testing.T) {
	g := New()
	assert.Equal(t, InvalidNodeID, g.AddNode(nil))
	assert.Equal(t, 0, g.NumNodes())

	g, n1, n2 := buildAddRelu(t)
	assert.Equal(t, NodeID(1), n1)
	assert.Equal(t, NodeID(2), n2)
	assert.Equal(t, n1, g.Node(n1).ID())
	assert.Equal(t, []NodeID{n2}, g.Successors(n1))
	assert.Equal(t, []NodeID{n1}, g.Predecessors(n2))
	assert.Equal(t, []NodeID{n1}, g.InputNodes())
	assert.Equal(t, []NodeID{n2}, g.OutputNodes())
	assert.Equal(t, []TensorID{1, 2}, g.InputTensors())
	assert.Equal(t, []TensorID{4}, g.OutputTensors())

	// Unknown ids return empty results.
	assert.Nil(t, g.Node(42))
	assert.Empty(t, g.Successors(42))
	assert.Empty(t, g.Predecessors(42))
	assert.False(t, g.HasNode(42))
}

func TestConsumerAddedBeforeProducer(t *testing.T) {
	g := New()
	consumer := g.AddNode(NewNode(ReluOp, "").AddInput(7).AddOutput(8))
	producer := g.AddNode(NewNode(TanhOp, "").AddInput(6).AddOutput(7))
	assert.Equal(t, []NodeID{producer}, g.Predecessors(consumer))
	assert.Equal(t, []NodeID{producer, consumer}, g.TopologicalSort())
}

func TestConnect(t *testing.T) {
	g := New()
	a := g.AddNode(NewNode(AddOp, "a"))
	b := g.AddNode(NewNode(AddOp, "b"))
	assert.True(t, g.Connect(a, b))
	assert.True(t, g.Connect(a, b))
	assert.Equal(t, 1, g.NumEdges())
	assert.False(t, g.Connect(a, a))
	assert.False(t, g.Connect(a, 99))
}

func TestTopologicalSort(t *testing.T) {
	t.Run("AddRelu", func(t *testing.T) {
		g, n1, n2 := buildAddRelu(t)
		assert.Equal(t, []NodeID{n1, n2}, g.TopologicalSort())
		assert.True(t, g.Validate())
	})

	t.Run("Empty", func(t *testing.T) {
		g := New()
		assert.Empty(t, g.TopologicalSort())
		assert.True(t, g.Validate())
	})

	t.Run("Cycle", func(t *testing.T) {
		g := New()
		a := g.AddNode(NewNode(AddOp, "a"))
		b := g.AddNode(NewNode(AddOp, "b"))
		c := g.AddNode(NewNode(AddOp, "c"))
		g.Connect(a, b)
		g.Connect(b, c)
		g.Connect(c, b)
		assert.Empty(t, g.TopologicalSort())
		assert.False(t, g.Validate(), "empty sort on non-empty graph must be a cycle")
	})

	t.Run("RandomAcyclic", func(t *testing.T) {
		rng := rand.New(rand.NewPCG(1, 2))
		for trial := range 20 {
			g := New()
			numNodes := 1 + rng.IntN(40)
			ids := make([]NodeID, numNodes)
			for ii := range ids {
				ids[ii] = g.AddNode(NewNode(SubOp, ""))
			}
			perm := rng.Perm(numNodes)
			for range numNodes * 3 {
				from, to := rng.IntN(numNodes), rng.IntN(numNodes)
				if perm[from] < perm[to] {
					g.Connect(ids[from], ids[to])
				}
			}
			order := g.TopologicalSort()
			require.Len(t, order, numNodes, "trial %d", trial)
			assertTopologicalOrder(t, g, order)
			assert.True(t, g.Validate())
		}
	})
}

func assertTopologicalOrder(t *testing.T, g *Graph, order []NodeID) {
	t.Helper()
	position := make(map[NodeID]int, len(order))
	for ii, id := range order {
		_, repeated := position[id]
		require.False(t, repeated, "node %d repeated in order", id)
		position[id] = ii
	}
	require.Len(t, position, g.NumNodes())
	for _, from := range g.NodeIDs() {
		for _, to := range g.Successors(from) {
			assert.Less(t, position[from], position[to], "edge %d->%d out of order", from, to)
		}
	}
}

func TestRemoveNode(t *testing.T) {
	g, n1, n2 := buildAddRelu(t)
	n3 := g.AddNode(NewNode(TanhOp, "tanh").AddInput(4).AddOutput(5))
	require.Equal(t, []NodeID{n3}, g.Successors(n2))

	before := g.String()
	assert.False(t, g.RemoveNode(99))
	assert.Equal(t, before, g.String(), "removing unknown node must not mutate")

	assert.True(t, g.RemoveNode(n2))
	assert.Nil(t, g.Node(n2))
	assert.False(t, g.HasNode(n2))
	assert.Empty(t, g.Successors(n1))
	assert.Empty(t, g.Predecessors(n3))
	assert.Equal(t, 2, g.NumNodes())
	assert.False(t, g.RemoveNode(n2))

	// Ids are never reused.
	n4 := g.AddNode(NewNode(ReluOp, "relu2").AddInput(3).AddOutput(4))
	assert.Equal(t, NodeID(4), n4)
	assert.Equal(t, []NodeID{n4}, g.Successors(n1))
	assert.Equal(t, []NodeID{n4}, g.Predecessors(n3))

	for _, id := range []NodeID{n1, n3, n4} {
		require.True(t, g.RemoveNode(id))
		assert.Nil(t, g.Node(id))
	}
	assert.Equal(t, 0, g.NumNodes())
	assert.Equal(t, 0, g.NumEdges())
}

func TestRemoveNode_SharedOutput(t *testing.T) {
	g, n1, n2 := buildAddRelu(t)
	mul := g.AddNode(NewNode(MulOp, "mul").AddInput(1, 2).AddOutput(3))
	tanh := g.AddNode(NewNode(TanhOp, "tanh").AddInput(3).AddOutput(5))
	assert.Equal(t, []NodeID{n1, mul}, g.Predecessors(n2))
	assert.Equal(t, []NodeID{n1}, g.Predecessors(tanh))

	require.True(t, g.RemoveNode(n1))
	assert.Equal(t, []TensorID{1, 2}, g.InputTensors(), "tensor 3 is still produced by mul")
	assert.Equal(t, []NodeID{mul}, g.Predecessors(n2))
	assert.Equal(t, []NodeID{mul}, g.Predecessors(tanh))
	assert.Equal(t, []NodeID{mul}, g.TopologicalSort()[:1])

	require.True(t, g.RemoveNode(mul))
	assert.Equal(t, []TensorID{3}, g.InputTensors())
	assert.Empty(t, g.Predecessors(tanh))
}

func TestClone(t *testing.T) {
	g, n1, _ := buildAddRelu(t)
	g.Node(n1).SetAttr("axes", IntsAttr{0, 1})
	g.Node(n1).SetAttr("alpha", FloatAttr(0.5))

	clone, mapping := g.CloneWithMapping()
	assert.Equal(t, g.NumNodes(), clone.NumNodes())
	assert.Equal(t, g.NumTensors(), clone.NumTensors())
	assert.Equal(t, g.NumEdges(), clone.NumEdges())
	for from, to := range mapping {
		original, copied := g.Node(from), clone.Node(to)
		assert.Equal(t, original.OpType(), copied.OpType())
		assert.Equal(t, original.AttrNames(), copied.AttrNames())
		for _, name := range original.AttrNames() {
			want, _ := original.Attr(name)
			got, _ := copied.Attr(name)
			assert.True(t, cmp.Equal(want, got), "attribute %q differs: %s", name, cmp.Diff(want, got))
		}
	}
	assert.Equal(t, g.TopologicalSort(), clone.TopologicalSort())

	// Mutating the clone doesn't affect the original.
	cloneN1 := clone.Node(mapping[n1])
	cloneN1.IntsAttrOr("axes", nil)[0] = 7
	cloneN1.SetAttr("alpha", FloatAttr(2))
	clone.RemoveNode(mapping[n1])
	clone.AddNode(NewNode(SoftmaxOp, ""))
	clone.Tensor(1).Shape[0] = 100

	assert.Equal(t, []int32{0, 1}, g.Node(n1).IntsAttrOr("axes", nil))
	assert.Equal(t, float32(0.5), g.Node(n1).FloatAttrOr("alpha", 0))
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, []int{2}, g.Tensor(1).Shape)
}

func TestExtractSubgraph(t *testing.T) {
	g := New()
	a := g.AddNode(NewNode(AddOp, "a").AddInput(1).AddOutput(2))
	b := g.AddNode(NewNode(MulOp, "b").AddInput(2).AddOutput(3))
	c := g.AddNode(NewNode(SubOp, "c").AddInput(3).AddOutput(4))
	for id := TensorID(1); id <= 4; id++ {
		g.RegisterTensor(id, tensors.New(dtypes.Float32, 1))
	}

	sub := g.ExtractSubgraph([]NodeID{b, c, c, 42})
	require.Equal(t, 2, sub.NumNodes())
	assert.Equal(t, 1, sub.NumEdges(), "edge a->b is dropped")
	assert.Equal(t, []TensorID{2, 3, 4}, sub.TensorIDs())
	order := sub.TopologicalSort()
	require.Len(t, order, 2)
	assert.Equal(t, "b", sub.Node(order[0]).Name())
	assert.Equal(t, "c", sub.Node(order[1]).Name())

	// Original untouched.
	assert.Equal(t, []NodeID{b}, g.Successors(a))
	assert.Empty(t, g.ExtractSubgraph(nil).NodeIDs())
}

func TestTensors(t *testing.T) {
	g := New()
	assert.False(t, g.RegisterTensor(InvalidTensorID, tensors.New(dtypes.Float32)))
	assert.False(t, g.RegisterTensor(3, nil))
	assert.True(t, g.RegisterTensor(3, tensors.New(dtypes.Int32, 2)))
	assert.Equal(t, TensorID(4), g.AddTensor(tensors.New(dtypes.Float32, 2)))
	assert.Equal(t, InvalidTensorID, g.AddTensor(nil))
	assert.Equal(t, []TensorID{3, 4}, g.TensorIDs())
	assert.Equal(t, dtypes.Int32, g.Tensor(3).DType)
	assert.Nil(t, g.Tensor(5))
}

func TestStats(t *testing.T) {
	g, _, _ := buildAddRelu(t)
	assert.Equal(t, Stats{Nodes: 2, Tensors: 4, InputNodes: 1, OutputNodes: 1, Edges: 1}, g.Stats())
	assert.Contains(t, g.String(), `#1 ADD "add" inputs=[1 2] outputs=[3] -> [2]`)
}
