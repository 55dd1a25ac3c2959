package flow

import (
	"context"
	"time"

	"github.com/kbukum/flowgraph/logger"
	"github.com/kbukum/flowgraph/observability"
)

// Call describes one computed node invocation.
type Call struct {
	Graph string
	RunID string
	Node  string
	Args  []any
}

// Step invokes a computed node.
type Step func(ctx context.Context, call Call) (any, error)

// Middleware decorates a Step.
type Middleware func(next Step) Step

// Phase marks whether an Event is emitted before or after a node runs.
type Phase string

const (
	PhaseStart Phase = "start"
	PhaseEnd   Phase = "end"
)

// Event is delivered to hooks at every node start and end. Input nodes emit
// events too; their Duration is zero.
type Event struct {
	RunID    string
	Graph    string
	Node     string
	Phase    Phase
	Duration time.Duration
	Err      error
}

// Hook observes node execution. Hooks run on the goroutine executing the
// node and must be safe for concurrent use when concurrency is above 1.
type Hook func(ctx context.Context, ev Event)

// WithTracing opens an OpenTelemetry span named "{prefix}.{node}" around
// every computed node.
func WithTracing(prefix string) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context, call Call) (any, error) {
			ctx, span := observability.StartSpan(ctx, prefix+"."+call.Node)
			defer span.End()

			observability.SetSpanAttribute(ctx, "flow.node", call.Node)
			observability.SetSpanAttribute(ctx, "flow.graph", call.Graph)
			observability.SetSpanAttribute(ctx, "flow.run_id", call.RunID)

			result, err := next(ctx, call)
			if err != nil {
				observability.SetSpanError(ctx, err)
			}
			return result, err
		}
	}
}

// WithMetrics records node count, duration and errors.
func WithMetrics(metrics *observability.Metrics) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context, call Call) (any, error) {
			start := time.Now()
			result, err := next(ctx, call)
			duration := time.Since(start)

			status := "ok"
			if err != nil {
				status = "error"
				metrics.RecordError(ctx, "node", call.Node)
			}
			metrics.RecordNode(ctx, call.Graph, call.Node, status, duration)
			return result, err
		}
	}
}

// WithLogging logs every computed node: debug on success, error on failure.
func WithLogging(log *logger.Logger) Middleware {
	return func(next Step) Step {
		return func(ctx context.Context, call Call) (any, error) {
			start := time.Now()
			result, err := next(ctx, call)

			fields := logger.Fields(
				logger.FieldNode, call.Node,
				logger.FieldGraph, call.Graph,
				logger.FieldRunID, call.RunID,
				logger.FieldDuration, time.Since(start).Milliseconds(),
			)
			if err != nil {
				log.Error("flow node failed", logger.MergeWithError(fields, err))
			} else {
				log.Debug("flow node completed", fields)
			}
			return result, err
		}
	}
}

func chain(step Step, mw []Middleware) Step {
	for i := len(mw) - 1; i >= 0; i-- {
		step = mw[i](step)
	}
	return step
}
