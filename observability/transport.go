package observability

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/microhttp/dispatch"
)

// InstrumentOption configures InstrumentFactory.
type InstrumentOption func(*instrumentedFactory)

// WithTracerProvider uses tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) InstrumentOption {
	return func(f *instrumentedFactory) { f.tracer = tp.Tracer(instrumentationName) }
}

// WithPropagator uses p instead of the global propagator to inject trace
// headers into outbound messages.
func WithPropagator(p propagation.TextMapPropagator) InstrumentOption {
	return func(f *instrumentedFactory) { f.propagator = p }
}

// InstrumentFactory decorates every client created by f. Each Send runs in
// an http.client.send span, carries the trace context in its headers and
// is recorded on metrics. metrics may be nil.
func InstrumentFactory(f dispatch.ClientFactory, metrics *Metrics, opts ...InstrumentOption) dispatch.ClientFactory {
	inf := &instrumentedFactory{
		next:       f,
		metrics:    metrics,
		tracer:     otel.Tracer(instrumentationName),
		propagator: otel.GetTextMapPropagator(),
	}
	for _, opt := range opts {
		opt(inf)
	}
	return inf
}

type instrumentedFactory struct {
	next       dispatch.ClientFactory
	metrics    *Metrics
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator
}

func (f *instrumentedFactory) CreateClient(name string) (dispatch.Client, error) {
	c, err := f.next.CreateClient(name)
	if err != nil {
		return nil, err
	}
	label := name
	if label == "" {
		label = "default"
	}
	return &instrumentedClient{name: label, next: c, factory: f}, nil
}

type instrumentedClient struct {
	name    string
	next    dispatch.Client
	factory *instrumentedFactory
}

func (c *instrumentedClient) Send(ctx context.Context, msg *dispatch.OutboundMessage, mode dispatch.CompletionMode) (*dispatch.InboundMessage, error) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrClient, c.name),
		attribute.String(AttrMethod, msg.Method),
		attribute.String(AttrURL, msg.URL),
	}
	if msg.Header == nil {
		msg.Header = make(http.Header)
	}
	if id := msg.Header.Get(dispatch.HeaderRequestID); id != "" {
		attrs = append(attrs, attribute.String(AttrRequestID, id))
	}

	ctx, span := c.factory.tracer.Start(ctx, SpanClientSend,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	c.factory.propagator.Inject(ctx, propagation.HeaderCarrier(msg.Header))

	metrics := c.factory.metrics
	metrics.RecordRequestStart(ctx)
	start := time.Now()

	resp, err := c.next.Send(ctx, msg, mode)

	status := "error"
	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		metrics.RecordError(ctx, errorType(err), c.name)
	case resp != nil:
		status = strconv.Itoa(resp.StatusCode)
		span.SetAttributes(attribute.Int(AttrStatusCode, resp.StatusCode))
		if resp.StatusCode >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
		}
	}
	metrics.RecordRequestEnd(ctx, c.name, msg.Method, status, time.Since(start))
	return resp, err
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport"
	}
}
