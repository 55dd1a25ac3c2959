package flow

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/kbukum/flowgraph/dag"
	"github.com/kbukum/flowgraph/logger"
)

// Instance is a Definition with every input bound. Its graph is frozen.
type Instance struct {
	def    *Definition
	graph  *dag.Graph
	values map[string]any
	cfg    runConfig

	mu   sync.RWMutex
	last Results
}

// New binds inputs and returns a runnable Instance. Every input without a
// binding or a default is reported in one *MissingInputError, in input
// order. Bindings for names that are not inputs are ignored with a warning.
func (d *Definition) New(bindings map[string]any, opts ...Option) (*Instance, error) {
	cfg := newRunConfig(opts)

	values := make(map[string]any, len(d.inputs))
	var missing []string
	for _, name := range d.inputs {
		if v, ok := bindings[name]; ok {
			values[name] = v
			continue
		}
		if v, ok := d.index[name].Default(); ok {
			values[name] = v
			continue
		}
		missing = append(missing, name)
	}
	if len(missing) > 0 {
		return nil, newMissingInputError(d.name, missing)
	}

	for _, name := range slices.Sorted(maps.Keys(bindings)) {
		if _, ok := values[name]; !ok {
			cfg.log.Warn("binding ignored, not an input", logger.Fields(
				logger.FieldGraph, d.name,
				logger.FieldNode, name,
			))
		}
	}

	g := d.graph.Clone()
	g.Freeze()

	return &Instance{def: d, graph: g, values: values, cfg: cfg}, nil
}

// Definition returns the definition the instance was created from.
func (inst *Instance) Definition() *Definition { return inst.def }

// Inputs returns the input names in execution order.
func (inst *Instance) Inputs() []string { return inst.def.Inputs() }

// Outputs returns the output names in execution order.
func (inst *Instance) Outputs() []string { return inst.def.Outputs() }

// Order returns the execution order.
func (inst *Instance) Order() []string { return inst.graph.Order() }

// Graph returns the frozen dependency graph. Mutations fail with
// GRAPH_FROZEN.
func (inst *Instance) Graph() *dag.Graph { return inst.graph }

// Bindings returns the bound input values, defaults included.
func (inst *Instance) Bindings() map[string]any { return maps.Clone(inst.values) }

// String returns "Name(a=1, b=2)" with inputs in input order.
func (inst *Instance) String() string {
	parts := make([]string, 0, len(inst.def.inputs))
	for _, name := range inst.def.inputs {
		parts = append(parts, fmt.Sprintf("%s=%v", name, inst.values[name]))
	}
	return fmt.Sprintf("%s(%s)", inst.def.name, strings.Join(parts, ", "))
}

// Execute runs every node once in dependency order and returns the results
// table. Each call starts from an empty table; results are never reused
// across calls.
func (inst *Instance) Execute(ctx context.Context) (Results, error) {
	res, err := inst.newRun().execute(ctx)
	if err != nil {
		return nil, err
	}

	inst.mu.Lock()
	inst.last = maps.Clone(res)
	inst.mu.Unlock()
	return res, nil
}

// Result returns the value of name from the last successful Execute.
func (inst *Instance) Result(name string) (any, error) {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return inst.last.Get(name)
}

// Results returns a copy of the last successful Execute, or nil before the
// first one.
func (inst *Instance) Results() Results {
	inst.mu.RLock()
	defer inst.mu.RUnlock()
	return maps.Clone(inst.last)
}
