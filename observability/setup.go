package observability

import (
	"context"
	stderrors "errors"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// DefaultEndpoint is the OTLP/HTTP collector used when a section leaves
// Endpoint empty.
const DefaultEndpoint = "localhost:4318"

// Config selects which exporters Setup installs.
type Config struct {
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}

// TracingConfig enables span export.
type TracingConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Endpoint is the collector host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the fraction of runs traced, from 0 to 1.
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
}

// MetricsConfig enables metric export.
type MetricsConfig struct {
	Enabled  bool          `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool          `yaml:"insecure" mapstructure:"insecure"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// Identity names the process on exported telemetry.
type Identity struct {
	Service     string
	Version     string
	Environment string
}

func endpointOr(endpoint string) string {
	if endpoint == "" {
		return DefaultEndpoint
	}
	return endpoint
}

// Provider holds what Setup installed.
type Provider struct {
	Metrics *Metrics

	tracer *sdktrace.TracerProvider
	meter  *sdkmetric.MeterProvider
}

// Setup installs the enabled exporters and creates Metrics on the global
// meter. Disabled exporters leave the global no-op providers in place, so
// the returned Metrics and StartSpan are always safe to use.
func Setup(ctx context.Context, cfg Config, id Identity) (*Provider, error) {
	p := &Provider{}
	fail := func(err error) (*Provider, error) {
		_ = p.Shutdown(ctx)
		return nil, err
	}

	if cfg.Tracing.Enabled {
		tp, err := InitTracer(ctx, cfg.Tracing, id)
		if err != nil {
			return nil, err
		}
		p.tracer = tp
	}
	if cfg.Metrics.Enabled {
		mp, err := InitMeter(ctx, cfg.Metrics, id)
		if err != nil {
			return fail(err)
		}
		p.meter = mp
	}

	metrics, err := NewMetrics(Meter(id.Service))
	if err != nil {
		return fail(err)
	}
	p.Metrics = metrics
	return p, nil
}

// TracingEnabled reports whether spans are exported.
func (p *Provider) TracingEnabled() bool { return p.tracer != nil }

// Shutdown flushes and stops the installed providers.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.tracer != nil {
		errs = append(errs, p.tracer.Shutdown(ctx))
	}
	if p.meter != nil {
		errs = append(errs, p.meter.Shutdown(ctx))
	}
	return stderrors.Join(errs...)
}
