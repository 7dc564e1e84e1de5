// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package engine

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/cmatrix/pkg/runtime/graphexec"
	"github.com/gomlx/cmatrix/pkg/runtime/ops"
	"github.com/pkg/errors"
)

// ConfigEnvVar is the environment variable read by ConfigFromEnv.
const ConfigEnvVar = "CMX_CONFIG"

// Config of the operation and graph executors.
type Config struct {
	Executor ops.ExecutorConfig
	Graph    graphexec.Config
}

// DefaultConfig returns the default configurations of both executors.
func DefaultConfig() Config {
	return Config{
		Executor: ops.DefaultExecutorConfig(),
		Graph:    graphexec.DefaultConfig(),
	}
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("executor: {%s}, graph: {%s}", executorConfigString(c.Executor), c.Graph)
}

func executorConfigString(c ops.ExecutorConfig) string {
	return fmt.Sprintf("backend=%s, policy=%s, threads=%d, scratch=%s, profiling=%v, validation=%v, caching=%v",
		c.DefaultBackend, c.DefaultPolicy, c.MaxThreads, humanize.IBytes(uint64(c.ScratchPoolSize)),
		c.EnableProfiling, c.EnableValidation, c.EnableCaching)
}

// ParseConfig parses a comma-separated list of options, applied over DefaultConfig. Options:
//
//   - "profiling": times operations and graph runs.
//   - "validation" / "novalidation": enables or disables the validation of operation contexts.
//   - "caching": caches kernel resolutions.
//   - "optimization": computes the graph schedule at load time.
//   - "memory_reuse": recycles scratch memory after every node.
//   - "policy=<name>": one of serial, parallel, async or pipeline. It sets both executors policy.
//   - "workers=<n>": number of graph nodes executed concurrently with the parallel policy.
//   - "threads=<n>": number of threads a kernel may use.
//   - "scratch=<size>": scratch pool size, e.g. "64KiB".
//   - "memory_limit=<size>": maximum memory for the tensors of a graph, e.g. "1MiB".
//   - "backend=<name>": default backend, e.g. "cpu_simd".
//   - "batch=<n>": maximum batch size.
//   - "deadline=<duration>": deadline for each graph run, e.g. "10ms".
//
// Example: "policy=parallel,workers=4,profiling,memory_limit=64MiB".
func ParseConfig(config string) (Config, error) {
	c := DefaultConfig()
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, hasValue := strings.Cut(part, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if err := c.apply(key, value, hasValue); err != nil {
			return Config{}, errors.WithMessagef(err, "parsing configuration option %q", part)
		}
	}
	return c, nil
}

func (c *Config) apply(key, value string, hasValue bool) error {
	flags := map[string]func(){
		"profiling": func() {
			c.Executor.EnableProfiling = true
			c.Graph.EnableProfiling = true
		},
		"validation":   func() { c.Executor.EnableValidation = true },
		"novalidation": func() { c.Executor.EnableValidation = false },
		"caching":      func() { c.Executor.EnableCaching = true },
		"optimization": func() { c.Graph.EnableOptimization = true },
		"memory_reuse": func() { c.Graph.EnableMemoryReuse = true },
	}
	if set, found := flags[key]; found {
		if hasValue {
			return errors.Wrapf(ops.ErrInvalidArgument, "option %q takes no value", key)
		}
		set()
		return nil
	}
	if !hasValue {
		return errors.Wrapf(ops.ErrInvalidArgument, "unknown option %q", key)
	}

	var err error
	switch key {
	case "policy":
		var policy ops.ExecPolicy
		policy, err = ops.ExecPolicyFromString(value)
		c.Executor.DefaultPolicy, c.Graph.Policy = policy, policy
	case "backend":
		c.Executor.DefaultBackend, err = ops.BackendFromString(value)
	case "workers":
		c.Graph.NumWorkers, err = parseCount(value)
	case "threads":
		c.Executor.MaxThreads, err = parseCount(value)
	case "batch":
		c.Graph.MaxBatchSize, err = parseCount(value)
	case "scratch":
		var size uint64
		size, err = humanize.ParseBytes(value)
		c.Executor.ScratchPoolSize = int(size)
	case "memory_limit":
		c.Graph.MemoryLimit, err = humanize.ParseBytes(value)
	case "deadline":
		c.Graph.Deadline, err = time.ParseDuration(value)
		if err == nil && c.Graph.Deadline < 0 {
			err = errors.Errorf("negative deadline %s", value)
		}
	default:
		return errors.Wrapf(ops.ErrInvalidArgument, "unknown option %q", key)
	}
	if err != nil {
		return errors.Wrapf(ops.ErrInvalidArgument, "%v", err)
	}
	return nil
}

func parseCount(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.Errorf("negative count %d", n)
	}
	return n, nil
}

// ConfigFromEnv parses the configuration in the environment variable ConfigEnvVar.
// If it is not set, it returns DefaultConfig().
func ConfigFromEnv() (Config, error) {
	config, found := os.LookupEnv(ConfigEnvVar)
	if !found {
		return DefaultConfig(), nil
	}
	c, err := ParseConfig(config)
	if err != nil {
		return Config{}, errors.WithMessagef(err, "in $%s", ConfigEnvVar)
	}
	return c, nil
}
