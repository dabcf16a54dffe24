package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/microhttp/component"
	"github.com/kbukum/microhttp/dispatch"
)

// Component owns the tracer and meter providers for the process.
type Component struct {
	config  Config
	service ServiceInfo
	tp      *sdktrace.TracerProvider
	mp      *sdkmetric.MeterProvider
	metrics *Metrics
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates the telemetry component. Nothing is exported until
// Start, and only for the exporters enabled in cfg.
func NewComponent(cfg Config, svc ServiceInfo) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, service: svc}
}

// Name returns the component name.
func (c *Component) Name() string { return "observability" }

// Start initializes the enabled providers and the transport metrics.
func (c *Component) Start(ctx context.Context) error {
	if err := c.config.Validate(); err != nil {
		return err
	}
	if c.config.TracingEnabled {
		tp, err := InitTracer(ctx, c.config, c.service)
		if err != nil {
			return err
		}
		c.tp = tp
	}
	if c.config.MetricsEnabled {
		mp, err := InitMeter(ctx, c.config, c.service)
		if err != nil {
			return err
		}
		c.mp = mp
		m, err := NewMetrics(mp.Meter(instrumentationName))
		if err != nil {
			return fmt.Errorf("creating transport metrics: %w", err)
		}
		c.metrics = m
	}
	return nil
}

// Stop flushes and shuts down the providers.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	return errors.Join(errs...)
}

// Health reports degraded when an enabled exporter has not started.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if (c.config.TracingEnabled && c.tp == nil) || (c.config.MetricsEnabled && c.mp == nil) {
		h.Status = component.StatusDegraded
		h.Message = "exporter not running"
	}
	return h
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name: "OpenTelemetry",
		Type: "telemetry",
		Details: fmt.Sprintf("endpoint=%s tracing=%t metrics=%t",
			c.config.Endpoint, c.config.TracingEnabled, c.config.MetricsEnabled),
	}
}

// Metrics returns the transport metrics, nil when metrics are disabled.
func (c *Component) Metrics() *Metrics { return c.metrics }

// Instrument wraps f with InstrumentFactory using this component's metrics.
func (c *Component) Instrument(f dispatch.ClientFactory) dispatch.ClientFactory {
	if !c.config.Enabled() {
		return f
	}
	return InstrumentFactory(f, c.metrics)
}
