// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// cmxrun loads a graph definition (see package graphdef), runs it with the reference kernels and
// reports the statistics.
//
// Without -graph it runs a built-in RELU(ADD(x, y)) graph. The configuration is taken from $CMX_CONFIG,
// or from -config, see engine.ParseConfig.
//
// Example:
//
//	cmxrun -graph=model.hcl -config=policy=parallel,profiling -n=100 -show
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/core/tensors"
	"github.com/gomlx/cmatrix/pkg/engine"
	"github.com/gomlx/cmatrix/pkg/graphdef"
	"github.com/gomlx/cmatrix/pkg/runtime/graphexec"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagGraph   = flag.String("graph", "", "HCL graph definition to run. If empty, a built-in RELU(ADD(x, y)) graph is used.")
	flagConfig  = flag.String("config", "", fmt.Sprintf("Configuration options, overrides $%s. See engine.ParseConfig.", engine.ConfigEnvVar))
	flagRepeat  = flag.Int("n", 1, "Number of times to run the graph. A progress bar is shown if > 1.")
	flagShow    = flag.Bool("show", false, "Print the output tensors after the last run.")
	flagKernels = flag.Bool("kernels", false, "List the registered kernels.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %v. See 'cmxrun -help'.", flag.Args())
		os.Exit(1)
	}

	config := must.M1(loadConfig())
	e := engine.Default()
	if *flagKernels {
		fmt.Println(kernelsTable(e))
	}

	def := must.M1(loadGraph())
	ge := must.M1(e.NewGraphExecutor(config))
	must.M(ge.LoadFromGraph(def.Graph))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := runGraph(ctx, ge, *flagRepeat); err != nil {
		klog.Errorf("Failed to run graph: %+v", err)
		os.Exit(1)
	}

	if *flagShow {
		fmt.Println(outputsTable(def, ge))
	}
	fmt.Println(statsTable(def.Graph, ge))
}

func loadConfig() (engine.Config, error) {
	if *flagConfig != "" {
		return engine.ParseConfig(*flagConfig)
	}
	return engine.ConfigFromEnv()
}

func loadGraph() (*graphdef.Definition, error) {
	if *flagGraph != "" {
		return graphdef.ParseFile(*flagGraph)
	}
	return demoGraph(), nil
}

// demoGraph builds RELU(ADD([1, 2], [3, -5])).
func demoGraph() *graphdef.Definition {
	def := &graphdef.Definition{
		Graph:   graph.New(),
		Tensors: make(map[string]graph.TensorID),
		Nodes:   make(map[string]graph.NodeID),
	}
	addTensor := func(name string, values ...float32) graph.TensorID {
		t := tensors.FromFlat(values)
		t.Name = name
		id := def.Graph.AddTensor(t)
		def.Tensors[name] = id
		return id
	}
	x, y := addTensor("x", 1, 2), addTensor("y", 3, -5)
	sum, result := addTensor("sum", 0, 0), addTensor("result", 0, 0)
	def.Nodes["add"] = def.Graph.AddNode(graph.NewNode(graph.AddOp, "add").AddInput(x, y).AddOutput(sum))
	def.Nodes["relu"] = def.Graph.AddNode(graph.NewNode(graph.ReluOp, "relu").AddInput(sum).AddOutput(result))
	return def
}

func runGraph(ctx context.Context, ge *graphexec.GraphExecutor, n int) error {
	if n <= 1 {
		return ge.Run(ctx)
	}
	bar := progressbar.NewOptions(n,
		progressbar.OptionSetDescription("Running"),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("runs"),
		progressbar.OptionSetTheme(progressbar.ThemeASCII),
		progressbar.OptionClearOnFinish(),
	)
	for range n {
		if err := ge.Run(ctx); err != nil {
			_ = bar.Exit()
			return err
		}
		_ = bar.Add(1)
	}
	return bar.Finish()
}
