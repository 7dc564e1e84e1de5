// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/cmatrix/pkg/core/graph"
	"github.com/gomlx/cmatrix/pkg/engine"
	"github.com/gomlx/cmatrix/pkg/graphdef"
	"github.com/gomlx/cmatrix/pkg/runtime/graphexec"
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)
)

func newPlainTable(alignments ...lipgloss.Position) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if row == lgtable.HeaderRow {
				return headerRowStyle
			}
			if row%2 == 0 {
				s = oddRowStyle
			} else {
				s = evenRowStyle
			}
			alignment := lipgloss.Left
			if col < len(alignments) {
				alignment = alignments[col]
			}
			return s.Align(alignment)
		})
}

func statsTable(g *graph.Graph, ge *graphexec.GraphExecutor) *lgtable.Table {
	graphStats := g.Stats()
	runStats := ge.Stats()
	opStats := ge.Executor().Stats()
	count := func(n uint64) string { return humanize.Comma(int64(n)) }
	table := newPlainTable(lipgloss.Left, lipgloss.Right).Headers("Statistic", "Value")
	table.Rows(
		[]string{"Nodes", humanize.Comma(int64(graphStats.Nodes))},
		[]string{"Edges", humanize.Comma(int64(graphStats.Edges))},
		[]string{"Tensors", humanize.Comma(int64(graphStats.Tensors))},
		[]string{"Tensor memory", humanize.IBytes(ge.MemoryUsage())},
		[]string{"Peak memory", humanize.IBytes(runStats.PeakMemoryUsage)},
		[]string{"Graphs executed", count(runStats.TotalGraphsExecuted)},
		[]string{"Nodes executed", count(runStats.TotalNodesExecuted)},
		[]string{"Failed runs", count(runStats.FailedExecutions)},
		[]string{"Ops executed", count(opStats.TotalOps)},
		[]string{"Ops failed", count(opStats.FailedOps)},
		[]string{"Kernel cache hits", count(opStats.CacheHits)},
	)
	if runStats.ProfiledGraphs > 0 {
		table.Row("Average run time", runStats.AvgGraphExecutionTime.String())
		table.Row("Average op time", opStats.AvgExecutionTime.String())
	}
	return table
}

func kernelsTable(e *engine.Engine) *lgtable.Table {
	table := newPlainTable(lipgloss.Left, lipgloss.Left, lipgloss.Right, lipgloss.Center).
		Headers("Kernel", "Key", "Priority", "Fallback")
	for _, entry := range e.Dispatcher.Entries() {
		fallback := ""
		if entry.Info.IsFallback {
			fallback = "✓"
		}
		key := entry.Key.String()
		if entry.Info.IsFallback {
			key = entry.Key.OpName
		}
		table.Row(entry.Info.Name, key, fmt.Sprintf("%d", entry.Info.Priority), fallback)
	}
	return table
}

func outputsTable(def *graphdef.Definition, ge *graphexec.GraphExecutor) *lgtable.Table {
	names := make(map[graph.TensorID]string, len(def.Tensors))
	for name, id := range def.Tensors {
		names[id] = name
	}
	table := newPlainTable().Headers("Output", "Tensor")
	for _, id := range slices.Sorted(maps.Keys(names)) {
		if !slices.Contains(ge.OutputTensorIDs(), id) {
			continue
		}
		t := ge.Tensor(id)
		table.Row(names[id], strings.TrimPrefix(t.String(), t.Name+":"))
	}
	return table
}
