package flow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/flowgraph/errors"
	"github.com/kbukum/flowgraph/logger"
)

// run is the execution context of one Execute call. It owns its results
// table and is discarded when the call returns.
type run struct {
	id      string
	inst    *Instance
	results *resultTable
	step    Step
}

func (inst *Instance) newRun() *run {
	r := &run{
		id:      uuid.NewString(),
		inst:    inst,
		results: newResultTable(inst.graph.Len()),
	}
	r.step = chain(r.invoke, inst.cfg.middleware)
	return r
}

func (r *run) execute(ctx context.Context) (Results, error) {
	start := time.Now()
	ctx = logger.ContextWithRunID(ctx, r.id)
	log := r.inst.cfg.log.WithContext(ctx).WithFields(logger.Fields(logger.FieldGraph, r.inst.def.name))
	log.Debug("flow run started", logger.Fields("concurrency", r.inst.cfg.concurrency))

	var err error
	if r.inst.cfg.concurrency <= 1 {
		err = r.sequential(ctx)
	} else {
		err = r.parallel(ctx, r.inst.cfg.concurrency)
	}
	if err != nil {
		log.Debug("flow run failed", logger.MergeWithError(logger.DurationFields("run", time.Since(start)), err))
		return nil, err
	}

	log.Debug("flow run completed", logger.DurationFields("run", time.Since(start)))
	return r.results.snapshot(), nil
}

func (r *run) sequential(ctx context.Context) error {
	for _, name := range r.inst.graph.Order() {
		if err := ctx.Err(); err != nil {
			return errors.Canceled(err)
		}
		if err := r.node(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// parallel runs one level at a time. Nodes of a level only depend on nodes
// of earlier levels, so every dependency is final before dispatch.
func (r *run) parallel(ctx context.Context, limit int) error {
	for _, level := range r.inst.graph.Levels() {
		if err := ctx.Err(); err != nil {
			return errors.Canceled(err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(limit)
		for _, name := range level {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return errors.Canceled(err)
				}
				return r.node(gctx, name)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

// node computes and stores the result of one node.
func (r *run) node(ctx context.Context, name string) error {
	n := r.inst.def.index[name]
	r.emit(ctx, Event{RunID: r.id, Graph: r.inst.def.name, Node: name, Phase: PhaseStart})
	if r.inst.cfg.verbose {
		r.inst.cfg.log.Info("flow node started", logger.Fields(
			logger.FieldGraph, r.inst.def.name,
			logger.FieldRunID, r.id,
			logger.FieldNode, name,
		))
	}

	start := time.Now()
	value, err := r.compute(ctx, n)
	r.emit(ctx, Event{
		RunID:    r.id,
		Graph:    r.inst.def.name,
		Node:     name,
		Phase:    PhaseEnd,
		Duration: time.Since(start),
		Err:      err,
	})
	if err != nil {
		return err
	}

	if err := r.results.set(name, value); err != nil {
		return errors.Internal(err)
	}
	return nil
}

func (r *run) compute(ctx context.Context, n *Node) (any, error) {
	if n.IsInput() {
		return r.inst.values[n.name], nil
	}

	args := make([]any, 0, len(n.args))
	for _, a := range n.args {
		v, err := a.resolve(n.name, r.results.get)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}

	value, err := r.step(ctx, Call{Graph: r.inst.def.name, RunID: r.id, Node: n.name, Args: args})
	if err != nil {
		return nil, newNodeExecutionError(n.name, err)
	}
	return value, nil
}

// invoke is the innermost Step: it calls the node's Func and turns a panic
// into an error.
func (r *run) invoke(ctx context.Context, call Call) (value any, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("flow: node %q panicked: %v", call.Node, p)
		}
	}()
	return r.inst.def.index[call.Node].fn(ctx, call.Args...)
}

func (r *run) emit(ctx context.Context, ev Event) {
	for _, h := range r.inst.cfg.hooks {
		h(ctx, ev)
	}
}
