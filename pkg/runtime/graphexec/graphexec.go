// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graphexec executes a graph.Graph: it validates and schedules the graph, binds one ops.Context
// per node and runs the nodes through an ops.Executor, sequentially or in parallel.
//
// A GraphExecutor works on a private copy of the loaded graph: later changes to the original graph are not
// seen, but the tensor storage is shared, so outputs are written to the caller's tensors.
package graphexec

import (
	"context"
	"math"
	"math/bits"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/cmatrix/internal/workerspool"
	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"
)

// nodeState holds the per-node execution state of a loaded graph.
type nodeState struct {
	id    graph.NodeID
	node  *graph.Node
	ctx   *ops.Context
	attrs []ops.Attr

	// lastDuration of the node execution, only measured when profiling.
	lastDuration time.Duration
}

// GraphExecutor runs a loaded graph.
//
// It is not safe to call Run concurrently on the same GraphExecutor: it returns an error instead.
type GraphExecutor struct {
	config   Config
	executor *ops.Executor
	workers  *workerspool.Pool

	graph    *graph.Graph
	localIDs map[graph.NodeID]graph.NodeID // From ids in the loaded graph to ids in the private copy.
	nodes    map[graph.NodeID]*nodeState
	schedule []graph.NodeID

	inputIDs, outputIDs []graph.TensorID
	memoryUsage         uint64

	running atomic.Bool

	muStats sync.Mutex
	stats   Stats
}

// New creates a GraphExecutor that runs nodes with executor.
func New(executor *ops.Executor, config Config) (*GraphExecutor, error) {
	if executor == nil {
		return nil, errors.Wrap(ops.ErrInvalidArgument, "graphexec.New requires an executor")
	}
	ge := &GraphExecutor{executor: executor}
	if err := ge.SetConfig(config); err != nil {
		return nil, err
	}
	return ge, nil
}

// SetConfig changes the configuration. It can't be called while running, and the memory limit is only
// checked on the next load.
func (ge *GraphExecutor) SetConfig(config Config) error {
	if ge.running.Load() {
		return errors.Wrap(ops.ErrInvalidContext, "cannot change configuration while running")
	}
	if !config.Policy.IsImplemented() {
		return errors.Wrapf(ops.ErrInvalidArgument, "execution policy %s is not implemented, use %s or %s",
			config.Policy, ops.Serial, ops.Parallel)
	}
	if config.NumWorkers < 0 || config.MaxBatchSize < 0 || config.Deadline < 0 {
		return errors.Wrapf(ops.ErrInvalidArgument, "invalid configuration: %s", config)
	}
	if config.MaxBatchSize == 0 {
		config.MaxBatchSize = 1
	}
	ge.workers = nil
	if config.Policy == ops.Parallel {
		numWorkers := config.NumWorkers
		if numWorkers == 0 {
			numWorkers = runtime.NumCPU()
		}
		ge.workers = workerspool.New(numWorkers)
	}
	ge.config = config
	return nil
}

// Config returns the current configuration.
func (ge *GraphExecutor) Config() Config { return ge.config }

// Executor returns the ops.Executor used to run the nodes.
func (ge *GraphExecutor) Executor() *ops.Executor { return ge.executor }

// LoadFromGraph loads a private copy of g, replacing any previously loaded graph.
//
// It fails with ops.ErrResourceExhausted if the tensors declared in g add up to more than Config.MemoryLimit,
// or if a node has more inputs, outputs or attributes than an ops.Context holds.
func (ge *GraphExecutor) LoadFromGraph(g *graph.Graph) error {
	if g == nil {
		return errors.Wrap(ops.ErrInvalidArgument, "cannot load nil graph")
	}
	if ge.running.Load() {
		return errors.Wrap(ops.ErrInvalidContext, "cannot load a graph while running")
	}
	clone, mapping := g.CloneWithMapping()

	memoryUsage := tensorBytes(clone, nil)
	if err := ge.checkMemoryLimit(memoryUsage); err != nil {
		return err
	}

	nodes := make(map[graph.NodeID]*nodeState, clone.NumNodes())
	for _, id := range clone.NodeIDs() {
		node := clone.Node(id)
		if len(node.Inputs()) > ops.MaxInputs || len(node.Outputs()) > ops.MaxOutputs || node.NumAttrs() > ops.MaxAttrs {
			return errors.Wrapf(ops.ErrResourceExhausted,
				"node #%d (%s) has %d inputs, %d outputs and %d attributes, the limits are %d, %d and %d",
				id, node.OpName(), len(node.Inputs()), len(node.Outputs()), node.NumAttrs(),
				ops.MaxInputs, ops.MaxOutputs, ops.MaxAttrs)
		}
		state := &nodeState{id: id, node: node, ctx: ops.NewContext()}
		for _, name := range node.AttrNames() {
			value, _ := node.Attr(name)
			state.attrs = append(state.attrs, ops.Attr{Name: name, Value: value})
		}
		nodes[id] = state
	}

	ge.releaseContexts()
	ge.graph = clone
	ge.localIDs = mapping
	ge.nodes = nodes
	ge.schedule = nil
	ge.inputIDs = clone.InputTensors()
	ge.outputIDs = clone.OutputTensors()
	ge.memoryUsage = memoryUsage
	ge.updatePeakMemory()
	klog.V(1).Infof("loaded graph with %d nodes and %d tensors (%s)",
		clone.NumNodes(), clone.NumTensors(), humanize.IBytes(memoryUsage))

	if ge.config.EnableOptimization {
		return ge.computeSchedule()
	}
	return nil
}

// IsLoaded returns whether a graph was loaded.
func (ge *GraphExecutor) IsLoaded() bool { return ge.graph != nil }

func (ge *GraphExecutor) releaseContexts() {
	for _, state := range ge.nodes {
		state.ctx.Release()
	}
}

// computeSchedule sets ge.schedule, or fails if the graph has a cycle.
func (ge *GraphExecutor) computeSchedule() error {
	order := ge.graph.TopologicalSort()
	if len(order) != ge.graph.NumNodes() || (len(order) == 0 && !ge.graph.Validate()) {
		return errors.Wrapf(ops.ErrGraphStructure, "cycle detected in graph with %d nodes", ge.graph.NumNodes())
	}
	ge.schedule = order
	return nil
}

// validate checks that all operations are registered and all tensors referenced are known.
// All missing operations are reported.
func (ge *GraphExecutor) validate() error {
	registry := ge.executor.Registry()
	var unsupported error
	missing := make(map[string]bool)
	for _, id := range ge.graph.NodeIDs() {
		node := ge.graph.Node(id)
		if !registry.IsRegistered(node.OpName()) && !missing[node.OpName()] {
			missing[node.OpName()] = true
			unsupported = multierr.Append(unsupported,
				errors.Errorf("node #%d (%s) uses unregistered operation %q", id, node.Name(), node.OpName()))
		}
	}
	if unsupported != nil {
		return errors.Wrapf(ops.ErrUnsupportedOp, "%v", unsupported)
	}
	for _, id := range ge.graph.NodeIDs() {
		node := ge.graph.Node(id)
		if !node.Validate() {
			return errors.Wrapf(ops.ErrGraphStructure, "node #%d (%s) references the invalid tensor id 0", id, node.OpName())
		}
		for _, tensorID := range slices.Concat(node.Inputs(), node.Outputs()) {
			if ge.graph.Tensor(tensorID) == nil {
				return errors.Wrapf(ops.ErrGraphStructure, "node #%d (%s) references unknown tensor #%d",
					id, node.OpName(), tensorID)
			}
		}
	}
	return nil
}

// Run executes the loaded graph.
//
// The first failing node aborts the run: outputs already written by earlier nodes are not rolled back.
// Cancellation of ctx, and the configured deadline, are checked between node executions.
func (ge *GraphExecutor) Run(ctx context.Context) error {
	if ge.graph == nil {
		return errors.Wrap(ops.ErrInvalidContext, "no graph loaded")
	}
	if !ge.running.CompareAndSwap(false, true) {
		return errors.Wrap(ops.ErrInvalidContext, "graph is already running")
	}
	defer ge.running.Store(false)

	err := ge.run(ctx)
	if err != nil {
		ge.muStats.Lock()
		ge.stats.FailedExecutions++
		ge.muStats.Unlock()
	}
	return err
}

func (ge *GraphExecutor) run(ctx context.Context) error {
	if err := ge.validate(); err != nil {
		return err
	}
	if ge.schedule == nil {
		if err := ge.computeSchedule(); err != nil {
			return err
		}
	}
	for _, state := range ge.nodes {
		state.node.SetStatus(graph.StatusReady)
		state.node.SetExecuted(false)
		state.lastDuration = 0
	}
	ge.executor.ResetScratch()

	if ctx == nil {
		ctx = context.Background()
	}
	if ge.config.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ge.config.Deadline)
		defer cancel()
	}

	runID := uuid.NewString()
	klog.V(1).Infof("run %s: executing %d nodes (policy %s)", runID, len(ge.schedule), ge.config.Policy)
	start := time.Now()
	var err error
	if ge.config.Policy == ops.Parallel && len(ge.schedule) > 1 {
		err = ge.executeParallel(ctx)
	} else {
		err = ge.executeSequentially(ctx)
	}
	elapsed := time.Since(start)
	ge.updatePeakMemory()
	if err != nil {
		if ops.StatusOf(err) == ops.StatusCanceled || ops.StatusOf(err) == ops.StatusDeadlineExceeded {
			klog.Warningf("run %s interrupted after %s: %v", runID, elapsed, err)
		}
		klog.V(1).Infof("run %s failed after %s: %v", runID, elapsed, err)
		return err
	}

	ge.muStats.Lock()
	ge.stats.TotalGraphsExecuted++
	if ge.config.EnableProfiling {
		ge.stats.ProfiledGraphs++
		ge.stats.TotalExecutionTime += elapsed
		ge.stats.AvgGraphExecutionTime = ge.stats.TotalExecutionTime / time.Duration(ge.stats.ProfiledGraphs)
	}
	ge.muStats.Unlock()
	klog.V(1).Infof("run %s: done in %s", runID, elapsed)
	return nil
}

// interrupted returns a non-nil error if ctx is done.
func interrupted(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.Wrapf(ops.ErrDeadlineExceeded, "%v", err)
	}
	return errors.Wrapf(ops.ErrCanceled, "%v", err)
}

func (ge *GraphExecutor) executeSequentially(ctx context.Context) error {
	for _, id := range ge.schedule {
		if err := interrupted(ctx); err != nil {
			return err
		}
		if err := ge.executeNode(ge.nodes[id]); err != nil {
			return err
		}
		if ge.config.EnableMemoryReuse {
			ge.executor.ResetScratch()
		}
	}
	return nil
}

// executeParallel runs nodes as soon as all their predecessors completed, using the worker pool.
func (ge *GraphExecutor) executeParallel(ctx context.Context) error {
	var (
		execMu        sync.Mutex
		collectErrors []error // protected by execMu
		remainingDeps = make(map[graph.NodeID]int, len(ge.schedule))
		inFlight      sync.WaitGroup
	)
	expected := len(ge.schedule)
	completed := 0 // protected by execMu
	readyToExecute := make(chan graph.NodeID, expected)
	stopExecutionFn := sync.OnceFunc(func() { close(readyToExecute) })

	for _, id := range ge.schedule {
		remainingDeps[id] = len(ge.graph.Predecessors(id))
		if remainingDeps[id] == 0 {
			readyToExecute <- id
		}
	}

	appendErrorFn := func(err error) {
		execMu.Lock()
		defer execMu.Unlock()
		collectErrors = append(collectErrors, err)
		stopExecutionFn()
	}

	for id := range readyToExecute {
		if err := interrupted(ctx); err != nil {
			appendErrorFn(err)
			break
		}
		nodeExecFn := func() {
			defer inFlight.Done()
			if err := ge.executeNode(ge.nodes[id]); err != nil {
				appendErrorFn(err)
				return
			}
			execMu.Lock()
			defer execMu.Unlock()
			if len(collectErrors) > 0 {
				return
			}
			completed++
			if completed == expected {
				stopExecutionFn()
				return
			}
			for _, successor := range ge.graph.Successors(id) {
				remainingDeps[successor]--
				if remainingDeps[successor] == 0 {
					readyToExecute <- successor
				}
			}
		}
		inFlight.Add(1)
		ge.workers.WaitToStart(nodeExecFn)
	}
	inFlight.Wait()

	execMu.Lock()
	defer execMu.Unlock()
	if len(collectErrors) == 0 {
		return nil
	}
	if len(collectErrors) > 1 {
		klog.V(1).Infof("parallel run had %d failures: %v", len(collectErrors), multierr.Combine(collectErrors...))
	}
	return collectErrors[0]
}

// executeNode checks that all predecessors were executed, binds the node context and executes it.
func (ge *GraphExecutor) executeNode(state *nodeState) error {
	node := state.node
	for _, predecessor := range ge.graph.Predecessors(state.id) {
		if !ge.graph.Node(predecessor).IsExecuted() {
			node.SetStatus(graph.StatusFailed)
			return errors.Wrapf(ops.ErrExecutionFailed,
				"node #%d (%s) is not ready: predecessor #%d was not executed", state.id, node.OpName(), predecessor)
		}
	}
	if err := ge.bind(state); err != nil {
		node.SetStatus(graph.StatusFailed)
		return errors.WithMessagef(err, "while binding node #%d (%s)", state.id, node.OpName())
	}

	node.SetStatus(graph.StatusRunning)
	var start time.Time
	if ge.config.EnableProfiling {
		start = time.Now()
	}
	err := ge.executor.ExecuteOp(node.OpName(), state.ctx)
	if ge.config.EnableProfiling {
		state.lastDuration = time.Since(start)
	}
	if err != nil {
		node.SetStatus(graph.StatusFailed)
		return errors.WithMessagef(err, "while executing node #%d (%s)", state.id, node.OpName())
	}
	node.SetStatus(graph.StatusCompleted)
	node.SetExecuted(true)

	ge.muStats.Lock()
	ge.stats.TotalNodesExecuted++
	ge.muStats.Unlock()
	klog.V(2).Infof("executed node #%d (%s %q) in %s", state.id, node.OpName(), node.Name(), state.lastDuration)
	return nil
}

// bind resets the node context and sets its tensors and attributes.
func (ge *GraphExecutor) bind(state *nodeState) error {
	ctx := state.ctx
	ctx.Reset()
	ctx.OpID = uint32(state.id)
	if ge.config.Policy == ops.Parallel {
		ctx.Policy = ops.Parallel
	}
	for ii, id := range state.node.Inputs() {
		if err := ctx.SetInput(ii, ge.graph.Tensor(id)); err != nil {
			return err
		}
	}
	for ii, id := range state.node.Outputs() {
		if err := ctx.SetOutput(ii, ge.graph.Tensor(id)); err != nil {
			return err
		}
	}
	for _, attr := range state.attrs {
		if err := ctx.SetAttr(attr.Name, attr.Value); err != nil {
			return err
		}
	}
	return nil
}

// ExecuteNode executes one node of the loaded graph, given its id in the loaded graph.
// All its predecessors must have been executed in the current run, or it fails with ops.ErrExecutionFailed.
func (ge *GraphExecutor) ExecuteNode(id graph.NodeID) error {
	state, err := ge.state(id)
	if err != nil {
		return err
	}
	return ge.executeNode(state)
}

func (ge *GraphExecutor) state(id graph.NodeID) (*nodeState, error) {
	if ge.graph == nil {
		return nil, errors.Wrap(ops.ErrInvalidContext, "no graph loaded")
	}
	localID, found := ge.localIDs[id]
	if !found {
		return nil, errors.Wrapf(ops.ErrInvalidArgument, "unknown node #%d", id)
	}
	return ge.nodes[localID], nil
}

func (ge *GraphExecutor) updatePeakMemory() {
	usage := addBytes(ge.memoryUsage, uint64(ge.executor.ScratchHighWater()))
	ge.muStats.Lock()
	defer ge.muStats.Unlock()
	ge.stats.PeakMemoryUsage = max(ge.stats.PeakMemoryUsage, usage)
}

// RunWithIO binds inputs and outputs to the graph input and output tensors, in ascending TensorID order,
// and runs the graph. See InputTensorIDs and OutputTensorIDs.
func (ge *GraphExecutor) RunWithIO(ctx context.Context, inputs, outputs []*tensors.Tensor) error {
	if ge.graph == nil {
		return errors.Wrap(ops.ErrInvalidContext, "no graph loaded")
	}
	if len(inputs) != len(ge.inputIDs) || len(outputs) != len(ge.outputIDs) {
		return errors.Wrapf(ops.ErrContextMismatch, "graph has %d inputs and %d outputs, got %d and %d",
			len(ge.inputIDs), len(ge.outputIDs), len(inputs), len(outputs))
	}
	bindings := make(map[graph.TensorID]*tensors.Tensor, len(inputs)+len(outputs))
	for ii, t := range inputs {
		if err := ge.addBinding(bindings, "input", ge.inputIDs, ii, t); err != nil {
			return err
		}
	}
	for ii, t := range outputs {
		if err := ge.addBinding(bindings, "output", ge.outputIDs, ii, t); err != nil {
			return err
		}
	}
	if err := ge.bindTensors(bindings); err != nil {
		return err
	}
	return ge.Run(ctx)
}

// RunBatch calls RunWithIO for each entry of the batch, stopping at the first error.
// The batch can't have more than Config.MaxBatchSize entries.
func (ge *GraphExecutor) RunBatch(ctx context.Context, inputs, outputs [][]*tensors.Tensor) error {
	if len(inputs) != len(outputs) {
		return errors.Wrapf(ops.ErrInvalidArgument, "batch has %d inputs and %d outputs", len(inputs), len(outputs))
	}
	if len(inputs) > ge.config.MaxBatchSize {
		return errors.Wrapf(ops.ErrInvalidArgument, "batch size %d exceeds the maximum of %d",
			len(inputs), ge.config.MaxBatchSize)
	}
	for ii := range inputs {
		if err := ge.RunWithIO(ctx, inputs[ii], outputs[ii]); err != nil {
			return errors.WithMessagef(err, "batch entry #%d", ii)
		}
	}
	return nil
}

// InputTensorIDs returns the ids of the graph inputs: tensors consumed but not produced by any node.
func (ge *GraphExecutor) InputTensorIDs() []graph.TensorID { return ge.inputIDs }

// OutputTensorIDs returns the ids of the graph outputs: tensors produced but not consumed by any node.
func (ge *GraphExecutor) OutputTensorIDs() []graph.TensorID { return ge.outputIDs }

// NumInputs returns the number of graph inputs.
func (ge *GraphExecutor) NumInputs() int { return len(ge.inputIDs) }

// NumOutputs returns the number of graph outputs.
func (ge *GraphExecutor) NumOutputs() int { return len(ge.outputIDs) }

// SetInput replaces the descriptor of the index-th graph input.
func (ge *GraphExecutor) SetInput(index int, t *tensors.Tensor) error {
	return ge.setTensor("input", ge.inputIDs, index, t)
}

// SetOutput replaces the descriptor of the index-th graph output.
func (ge *GraphExecutor) SetOutput(index int, t *tensors.Tensor) error {
	return ge.setTensor("output", ge.outputIDs, index, t)
}

func (ge *GraphExecutor) setTensor(kind string, ids []graph.TensorID, index int, t *tensors.Tensor) error {
	bindings := make(map[graph.TensorID]*tensors.Tensor, 1)
	if err := ge.addBinding(bindings, kind, ids, index, t); err != nil {
		return err
	}
	return ge.bindTensors(bindings)
}

// addBinding checks that t can be bound to the index-th tensor of ids, and adds it to bindings.
func (ge *GraphExecutor) addBinding(bindings map[graph.TensorID]*tensors.Tensor, kind string,
	ids []graph.TensorID, index int, t *tensors.Tensor) error {
	if ge.graph == nil {
		return errors.Wrap(ops.ErrInvalidContext, "no graph loaded")
	}
	if ge.running.Load() {
		return errors.Wrapf(ops.ErrInvalidContext, "cannot set %s while running", kind)
	}
	if index < 0 || index >= len(ids) || t == nil {
		return errors.Wrapf(ops.ErrInvalidArgument, "invalid %s #%d (graph has %d)", kind, index, len(ids))
	}
	bindings[ids[index]] = t
	return nil
}

// bindTensors registers all the bindings, or none of them if the resulting tensors exceed the memory limit.
func (ge *GraphExecutor) bindTensors(bindings map[graph.TensorID]*tensors.Tensor) error {
	usage := tensorBytes(ge.graph, bindings)
	if err := ge.checkMemoryLimit(usage); err != nil {
		return err
	}
	for id, t := range bindings {
		ge.graph.RegisterTensor(id, t)
	}
	ge.memoryUsage = usage
	return nil
}

func (ge *GraphExecutor) checkMemoryLimit(usage uint64) error {
	if ge.config.MemoryLimit > 0 && usage > ge.config.MemoryLimit {
		return errors.Wrapf(ops.ErrResourceExhausted, "graph tensors require %s, exceeding the memory limit of %s",
			humanize.IBytes(usage), humanize.IBytes(ge.config.MemoryLimit))
	}
	return nil
}

// tensorBytes sums the byte size of the tensors of g, with the tensors in replacements taking the place of
// the ones registered under the same id. The sum saturates at math.MaxUint64.
func tensorBytes(g *graph.Graph, replacements map[graph.TensorID]*tensors.Tensor) uint64 {
	var total uint64
	for _, id := range g.TensorIDs() {
		t, found := replacements[id]
		if !found {
			t = g.Tensor(id)
		}
		total = addBytes(total, t.ByteSize())
	}
	for id, t := range replacements {
		if g.Tensor(id) == nil {
			total = addBytes(total, t.ByteSize())
		}
	}
	return total
}

func addBytes(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return math.MaxUint64
	}
	return sum
}

// Input returns the index-th graph input, or nil.
func (ge *GraphExecutor) Input(index int) *tensors.Tensor {
	if index < 0 || index >= len(ge.inputIDs) {
		return nil
	}
	return ge.graph.Tensor(ge.inputIDs[index])
}

// Output returns the index-th graph output, or nil.
func (ge *GraphExecutor) Output(index int) *tensors.Tensor {
	if index < 0 || index >= len(ge.outputIDs) {
		return nil
	}
	return ge.graph.Tensor(ge.outputIDs[index])
}

// Tensor returns the descriptor of a tensor of the loaded graph, or nil.
func (ge *GraphExecutor) Tensor(id graph.TensorID) *tensors.Tensor {
	if ge.graph == nil {
		return nil
	}
	return ge.graph.Tensor(id)
}

// NumNodes returns the number of nodes in the loaded graph.
func (ge *GraphExecutor) NumNodes() int {
	return len(ge.nodes)
}

// Node returns the executor's copy of a node, given its id in the loaded graph, or nil.
func (ge *GraphExecutor) Node(id graph.NodeID) *graph.Node {
	state, err := ge.state(id)
	if err != nil {
		return nil
	}
	return state.node
}

// Schedule returns the execution order, with ids of the loaded graph. It is empty until computed:
// on the first run, or at load time with Config.EnableOptimization.
func (ge *GraphExecutor) Schedule() []graph.NodeID {
	toOriginal := make(map[graph.NodeID]graph.NodeID, len(ge.localIDs))
	for original, local := range ge.localIDs {
		toOriginal[local] = original
	}
	order := make([]graph.NodeID, len(ge.schedule))
	for ii, local := range ge.schedule {
		order[ii] = toOriginal[local]
	}
	return order
}

// NodeStatus returns the status of a node in the current or last run.
func (ge *GraphExecutor) NodeStatus(id graph.NodeID) (graph.Status, error) {
	state, err := ge.state(id)
	if err != nil {
		return graph.StatusReady, err
	}
	return state.node.Status(), nil
}

// NodeProfile returns how long the node took in the last run. It is 0 unless profiling is enabled.
func (ge *GraphExecutor) NodeProfile(id graph.NodeID) (time.Duration, error) {
	state, err := ge.state(id)
	if err != nil {
		return 0, err
	}
	return state.lastDuration, nil
}

// MemoryUsage returns the bytes declared by the tensors of the loaded graph.
func (ge *GraphExecutor) MemoryUsage() uint64 {
	return ge.memoryUsage
}

// Stats returns a copy of the accumulated statistics.
func (ge *GraphExecutor) Stats() Stats {
	ge.muStats.Lock()
	defer ge.muStats.Unlock()
	return ge.stats
}

// ResetStats zeroes the statistics, including the peak memory usage.
func (ge *GraphExecutor) ResetStats() {
	ge.muStats.Lock()
	defer ge.muStats.Unlock()
	ge.stats = Stats{}
}
