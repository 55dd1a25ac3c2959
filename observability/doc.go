// Package observability exports OpenTelemetry spans and metrics for graph
// runs over OTLP/HTTP.
//
// Setup installs what the config enables and always returns usable Metrics;
// with exporters disabled the global no-op providers stay in place:
//
//	p, err := observability.Setup(ctx, cfg.Observability, observability.Identity{Service: "flowgraph"})
//	defer p.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, "flow.sum")
//	defer span.End()
//	p.Metrics.RecordNode(ctx, "calc", "sum", "ok", duration)
package observability
