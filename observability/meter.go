package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/flowgraph/logger"
)

// InitMeter installs an OTLP/HTTP meter provider globally, exporting every
// cfg.Interval. The caller shuts it down on exit.
func InitMeter(ctx context.Context, cfg MetricsConfig, id Identity) (*sdkmetric.MeterProvider, error) {
	endpoint := endpointOr(cfg.Endpoint)
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter for %s: %w", endpoint, err)
	}

	res, err := newResource(id)
	if err != nil {
		return nil, fmt.Errorf("metric resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("metric export enabled", logger.Fields(
		"endpoint", endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded for graph runs:
//
//	flow.node.total     counter    graph, node, status
//	flow.node.duration  histogram  graph, node (seconds)
//	flow.run.total      counter    graph, status
//	flow.run.duration   histogram  graph (seconds)
//	flow.run.active     gauge      graph
//	flow.error.total    counter    type, component
type Metrics struct {
	nodeTotal    metric.Int64Counter
	nodeDuration metric.Float64Histogram
	runTotal     metric.Int64Counter
	runDuration  metric.Float64Histogram
	runActive    metric.Int64UpDownCounter
	errorTotal   metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m    Metrics
		errs []error
	)
	counter := func(name, desc string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(desc))
		errs = append(errs, err)
		return c
	}
	seconds := func(name, desc string) metric.Float64Histogram {
		h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
		errs = append(errs, err)
		return h
	}

	m.nodeTotal = counter("flow.node.total", "Computed node invocations")
	m.nodeDuration = seconds("flow.node.duration", "Computed node duration")
	m.runTotal = counter("flow.run.total", "Graph runs")
	m.runDuration = seconds("flow.run.duration", "Graph run duration")
	m.errorTotal = counter("flow.error.total", "Errors by type and component")

	active, err := meter.Int64UpDownCounter("flow.run.active", metric.WithDescription("Graph runs in progress"))
	errs = append(errs, err)
	m.runActive = active

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("creating flow instruments: %w", err)
		}
	}
	return &m, nil
}

func graphAttrs(graph string, extra ...attribute.KeyValue) metric.MeasurementOption {
	return metric.WithAttributes(append([]attribute.KeyValue{attribute.String(AttrGraph, graph)}, extra...)...)
}

// RecordNode records one computed node invocation.
func (m *Metrics) RecordNode(ctx context.Context, graph, node, status string, duration time.Duration) {
	n := attribute.String(AttrNode, node)
	m.nodeTotal.Add(ctx, 1, graphAttrs(graph, n, attribute.String(AttrStatus, status)))
	m.nodeDuration.Record(ctx, duration.Seconds(), graphAttrs(graph, n))
}

// RecordRunStart increments the in-progress run count.
func (m *Metrics) RecordRunStart(ctx context.Context, graph string) {
	m.runActive.Add(ctx, 1, graphAttrs(graph))
}

// RecordRun ends a run started with RecordRunStart.
func (m *Metrics) RecordRun(ctx context.Context, graph, status string, duration time.Duration) {
	m.runActive.Add(ctx, -1, graphAttrs(graph))
	m.runTotal.Add(ctx, 1, graphAttrs(graph, attribute.String(AttrStatus, status)))
	m.runDuration.Record(ctx, duration.Seconds(), graphAttrs(graph))
}

// RecordError counts an error of errType raised by component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
