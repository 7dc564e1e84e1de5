// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph defines the computation graph: a DAG of Node entities referencing tensors by TensorID.
//
// Edges are derived from the tensors: when a node is added, any already present node producing one of
// its inputs becomes its predecessor, and any already present node consuming one of its outputs becomes
// its successor. Explicit edges (e.g. ordering constraints) can be added with Graph.Connect.
//
// Mutations never fail and acyclicity is not enforced on mutation: use Graph.Validate before scheduling.
// Read queries on unknown ids return empty results, use Graph.HasNode when the distinction matters.
package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/cmatrix/pkg/core/tensors"
)

// nodeRecord is the arena entry for a node. Adjacency references other nodes by id.
type nodeRecord struct {
	node         *Node
	successors   []NodeID
	predecessors []NodeID
}

// Graph of nodes and tensors. It exclusively owns its nodes and tensor descriptors.
//
// A Graph is not safe for concurrent mutation.
type Graph struct {
	records map[NodeID]*nodeRecord
	nextID  NodeID

	tensors      map[TensorID]*tensors.Tensor
	nextTensorID TensorID

	// producers maps a tensor to the node that outputs it, consumers to the nodes that read it.
	producers map[TensorID]NodeID
	consumers map[TensorID][]NodeID
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		records:      make(map[NodeID]*nodeRecord),
		nextID:       1,
		tensors:      make(map[TensorID]*tensors.Tensor),
		nextTensorID: 1,
		producers:    make(map[TensorID]NodeID),
		consumers:    make(map[TensorID][]NodeID),
	}
}

// AddNode takes ownership of node and returns its newly assigned id.
// It returns InvalidNodeID if node is nil.
func (g *Graph) AddNode(node *Node) NodeID {
	if node == nil {
		return InvalidNodeID
	}
	id := g.nextID
	g.nextID++
	node.id = id
	g.records[id] = &nodeRecord{node: node}

	for _, input := range node.inputs {
		if input == InvalidTensorID {
			continue
		}
		if producer, found := g.producers[input]; found {
			g.link(producer, id)
		}
		if !slices.Contains(g.consumers[input], id) {
			g.consumers[input] = append(g.consumers[input], id)
		}
	}
	for _, output := range node.outputs {
		if output == InvalidTensorID {
			continue
		}
		for _, consumer := range g.consumers[output] {
			if consumer != id {
				g.link(id, consumer)
			}
		}
		if _, found := g.producers[output]; !found {
			g.producers[output] = id
		}
	}
	return id
}

// link adds the edge from->to, if not yet present. Both must exist.
func (g *Graph) link(from, to NodeID) {
	fromRecord, toRecord := g.records[from], g.records[to]
	if slices.Contains(fromRecord.successors, to) {
		return
	}
	fromRecord.successors = append(fromRecord.successors, to)
	toRecord.predecessors = append(toRecord.predecessors, from)
}

// Connect adds an explicit edge from->to. Adding an existing edge is a no-op.
// It returns false if either node is unknown or if from == to.
func (g *Graph) Connect(from, to NodeID) bool {
	if from == to || !g.HasNode(from) || !g.HasNode(to) {
		return false
	}
	g.link(from, to)
	return true
}

// HasNode returns whether id is a node of the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, found := g.records[id]
	return found
}

// Node returns the node with the given id, or nil if unknown.
func (g *Graph) Node(id NodeID) *Node {
	if record, found := g.records[id]; found {
		return record.node
	}
	return nil
}

// Predecessors returns the nodes with an edge into id. The slice must not be modified.
func (g *Graph) Predecessors(id NodeID) []NodeID {
	if record, found := g.records[id]; found {
		return record.predecessors
	}
	return nil
}

// Successors returns the nodes with an edge from id. The slice must not be modified.
func (g *Graph) Successors(id NodeID) []NodeID {
	if record, found := g.records[id]; found {
		return record.successors
	}
	return nil
}

// RemoveNode removes the node and every edge referencing it.
// It returns false, and changes nothing, if id is unknown.
func (g *Graph) RemoveNode(id NodeID) bool {
	record, found := g.records[id]
	if !found {
		return false
	}
	delete(g.records, id)
	for _, other := range g.records {
		other.successors = slices.DeleteFunc(other.successors, func(s NodeID) bool { return s == id })
		other.predecessors = slices.DeleteFunc(other.predecessors, func(p NodeID) bool { return p == id })
	}
	for _, input := range record.node.inputs {
		remaining := slices.DeleteFunc(g.consumers[input], func(c NodeID) bool { return c == id })
		if len(remaining) == 0 {
			delete(g.consumers, input)
		} else {
			g.consumers[input] = remaining
		}
	}
	for _, output := range record.node.outputs {
		if g.producers[output] != id {
			continue
		}
		delete(g.producers, output)
		// Another node writing the same tensor takes over, with the edges it would have had.
		if next := g.firstProducer(output); next != InvalidNodeID {
			g.producers[output] = next
			for _, consumer := range g.consumers[output] {
				if consumer != next {
					g.link(next, consumer)
				}
			}
		}
	}
	record.node.id = InvalidNodeID
	return true
}

// firstProducer returns the lowest NodeID that outputs tensor, or InvalidNodeID.
func (g *Graph) firstProducer(tensor TensorID) NodeID {
	first := InvalidNodeID
	for id, record := range g.records {
		if (first == InvalidNodeID || id < first) && slices.Contains(record.node.outputs, tensor) {
			first = id
		}
	}
	return first
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int {
	return len(g.records)
}

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int {
	var count int
	for _, record := range g.records {
		count += len(record.successors)
	}
	return count
}

// NodeIDs returns all node ids in ascending order.
func (g *Graph) NodeIDs() []NodeID {
	ids := make([]NodeID, 0, len(g.records))
	for id := range g.records {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// InputNodes returns the nodes without predecessors, in ascending id order.
func (g *Graph) InputNodes() []NodeID {
	return slices.DeleteFunc(g.NodeIDs(), func(id NodeID) bool { return len(g.records[id].predecessors) > 0 })
}

// OutputNodes returns the nodes without successors, in ascending id order.
func (g *Graph) OutputNodes() []NodeID {
	return slices.DeleteFunc(g.NodeIDs(), func(id NodeID) bool { return len(g.records[id].successors) > 0 })
}

// TopologicalSort returns the nodes ordered such that for every edge u->v, u comes before v.
//
// It uses Kahn's algorithm, seeded in ascending id order, so the result is deterministic.
// If the graph has a cycle it returns an empty slice, as it does for an empty graph: use Validate
// to tell them apart.
func (g *Graph) TopologicalSort() []NodeID {
	inDegree := make(map[NodeID]int, len(g.records))
	queue := make([]NodeID, 0, len(g.records))
	for _, id := range g.NodeIDs() {
		inDegree[id] = len(g.records[id].predecessors)
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	order := make([]NodeID, 0, len(g.records))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, successor := range g.records[id].successors {
			inDegree[successor]--
			if inDegree[successor] == 0 {
				queue = append(queue, successor)
			}
		}
	}
	if len(order) != len(g.records) {
		return []NodeID{}
	}
	return order
}

// Validate returns whether the graph is acyclic. It runs a three-color depth-first search, independent
// of TopologicalSort.
func (g *Graph) Validate() bool {
	const (
		white = iota
		gray
		black
	)
	color := make(map[NodeID]int, len(g.records))
	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		color[id] = gray
		for _, successor := range g.records[id].successors {
			switch color[successor] {
			case gray:
				return false
			case white:
				if !visit(successor) {
					return false
				}
			}
		}
		color[id] = black
		return true
	}
	for _, id := range g.NodeIDs() {
		if color[id] == white && !visit(id) {
			return false
		}
	}
	return true
}

// RegisterTensor stores (or replaces) the tensor descriptor under id.
// It returns false if id is InvalidTensorID or tensor is nil.
func (g *Graph) RegisterTensor(id TensorID, tensor *tensors.Tensor) bool {
	if id == InvalidTensorID || tensor == nil {
		return false
	}
	g.tensors[id] = tensor
	if id >= g.nextTensorID {
		g.nextTensorID = id + 1
	}
	return true
}

// AddTensor registers tensor under the next free id, and returns it.
// It returns InvalidTensorID if tensor is nil.
func (g *Graph) AddTensor(tensor *tensors.Tensor) TensorID {
	id := g.nextTensorID
	if !g.RegisterTensor(id, tensor) {
		return InvalidTensorID
	}
	return id
}

// Tensor returns the tensor registered under id, or nil.
func (g *Graph) Tensor(id TensorID) *tensors.Tensor {
	return g.tensors[id]
}

// NumTensors returns the number of registered tensors.
func (g *Graph) NumTensors() int {
	return len(g.tensors)
}

// TensorIDs returns the registered tensor ids in ascending order.
func (g *Graph) TensorIDs() []TensorID {
	ids := make([]TensorID, 0, len(g.tensors))
	for id := range g.tensors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// InputTensors returns the tensors consumed by some node but not produced by any, in ascending id order.
// These are the graph inputs to be fed by the caller.
func (g *Graph) InputTensors() []TensorID {
	var ids []TensorID
	for id := range g.consumers {
		if _, produced := g.producers[id]; !produced {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// OutputTensors returns the tensors produced by some node but not consumed by any, in ascending id order.
func (g *Graph) OutputTensors() []TensorID {
	var ids []TensorID
	for id := range g.producers {
		if _, consumed := g.consumers[id]; !consumed {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Clone returns a deep copy of the graph: nodes and attributes are copied and given new ids.
// Tensor descriptors are copied under the same ids, sharing their storage.
func (g *Graph) Clone() *Graph {
	clone, _ := g.CloneWithMapping()
	return clone
}

// CloneWithMapping is like Clone, and also returns the mapping from the original node ids to the clone's.
func (g *Graph) CloneWithMapping() (*Graph, map[NodeID]NodeID) {
	return g.copyNodes(g.NodeIDs(), true)
}

// ExtractSubgraph returns a new graph with copies of the given nodes (unknown or repeated ids are skipped),
// the edges among them and the tensors they reference. Edges to nodes outside ids are dropped.
func (g *Graph) ExtractSubgraph(ids []NodeID) *Graph {
	sub, _ := g.copyNodes(ids, false)
	return sub
}

func (g *Graph) copyNodes(ids []NodeID, allTensors bool) (*Graph, map[NodeID]NodeID) {
	dst := New()
	mapping := make(map[NodeID]NodeID, len(ids))
	for _, id := range ids {
		record, found := g.records[id]
		if !found {
			continue
		}
		if _, done := mapping[id]; done {
			continue
		}
		mapping[id] = dst.AddNode(record.node.Clone())
	}
	for _, id := range ids {
		newFrom, found := mapping[id]
		if !found {
			continue
		}
		for _, successor := range g.records[id].successors {
			if newTo, included := mapping[successor]; included {
				dst.link(newFrom, newTo)
			}
		}
	}
	if allTensors {
		for id, tensor := range g.tensors {
			dst.RegisterTensor(id, tensor.Clone())
		}
		dst.nextTensorID = max(dst.nextTensorID, g.nextTensorID)
	} else {
		for id := range mapping {
			node := g.records[id].node
			for _, tensorID := range slices.Concat(node.inputs, node.outputs) {
				if tensor, found := g.tensors[tensorID]; found {
					dst.RegisterTensor(tensorID, tensor.Clone())
				}
			}
		}
	}
	return dst, mapping
}

// Stats summarizes the graph structure.
type Stats struct {
	Nodes, Tensors          int
	InputNodes, OutputNodes int
	Edges                   int
}

// Stats returns the graph summary.
func (g *Graph) Stats() Stats {
	return Stats{
		Nodes:       g.NumNodes(),
		Tensors:     g.NumTensors(),
		InputNodes:  len(g.InputNodes()),
		OutputNodes: len(g.OutputNodes()),
		Edges:       g.NumEdges(),
	}
}

// String implements fmt.Stringer. It lists the nodes in ascending id order.
func (g *Graph) String() string {
	var sb strings.Builder
	stats := g.Stats()
	fmt.Fprintf(&sb, "Graph: %d nodes, %d tensors, %d edges\n", stats.Nodes, stats.Tensors, stats.Edges)
	for _, id := range g.NodeIDs() {
		record := g.records[id]
		fmt.Fprintf(&sb, "  %s", record.node)
		if len(record.successors) > 0 {
			fmt.Fprintf(&sb, " -> %v", record.successors)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
