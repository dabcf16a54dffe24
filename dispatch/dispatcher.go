package dispatch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/kbukum/microhttp/codec"
	"github.com/kbukum/microhttp/logger"
	"github.com/kbukum/microhttp/resilience"
	"github.com/kbukum/microhttp/validation"
)

// Dispatcher runs logical HTTP operations through interceptors and a named
// transport client. It is safe for concurrent use.
type Dispatcher struct {
	factory  ClientFactory
	codec    *codec.Codec
	log      *logger.Logger
	defaults *RequestContext
	bulkhead *resilience.Bulkhead
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithCodec sets the payload codec. Defaults to codec.Default().
func WithCodec(c *codec.Codec) Option {
	return func(d *Dispatcher) {
		if c != nil {
			d.codec = c
		}
	}
}

// WithLogger sets the logger. Defaults to the "dispatch" registry logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDefaultContext sets the context used when a call passes nil.
func WithDefaultContext(rc *RequestContext) Option {
	return func(d *Dispatcher) {
		if rc != nil {
			d.defaults = rc
		}
	}
}

// WithBatchConcurrency caps how many batch items run at once. Zero or
// negative means unbounded.
func WithBatchConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n <= 0 {
			d.bulkhead = nil
			return
		}
		d.bulkhead = resilience.NewBulkhead("dispatch.batch", n)
	}
}

// New creates a Dispatcher over factory.
func New(factory ClientFactory, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		factory:  factory,
		codec:    codec.Default(),
		log:      logger.Get("dispatch"),
		defaults: DefaultContext(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Codec returns the payload codec.
func (d *Dispatcher) Codec() *codec.Codec {
	return d.codec
}

// content fills the body of an outbound message.
type content func(msg *OutboundMessage) error

func (d *Dispatcher) jsonContent(v any) content {
	if v == nil {
		return nil
	}
	return func(msg *OutboundMessage) error {
		data, err := d.codec.Encode(v)
		if err != nil {
			return newEncodingError(err)
		}
		msg.Body = bytesReader(data)
		msg.ContentType = d.codec.ContentType()
		return nil
	}
}

func (d *Dispatcher) resolve(rc *RequestContext) *RequestContext {
	if rc == nil {
		return d.defaults
	}
	return rc
}

// build creates the outbound message. Context headers are layered on top;
// Content-Type targets the body and is dropped when there is none.
func (d *Dispatcher) build(method, url string, body content, rc *RequestContext) (*OutboundMessage, error) {
	msg := NewOutboundMessage(method, url)
	if body != nil {
		if err := body(msg); err != nil {
			_ = msg.Release()
			return nil, err
		}
	}
	if err := validation.Required("url", url); err != nil {
		_ = msg.Release()
		return nil, newValidationError(err)
	}
	for k, v := range rc.Headers {
		if http.CanonicalHeaderKey(k) == "Content-Type" {
			if msg.Body != nil {
				msg.ContentType = v
			}
			continue
		}
		msg.Header.Set(k, v)
	}
	return msg, nil
}

// do runs one dispatch: build, request interceptors, a single transport call,
// response interceptors and status validation, then hands the response to
// handle. The exchange is released on every path; a release failure is only
// reported when nothing else failed.
func (d *Dispatcher) do(ctx context.Context, method, url string, body content, rc *RequestContext, handle func(*InboundMessage) error) error {
	rc = d.resolve(rc)
	start := time.Now()

	err := d.run(ctx, method, url, body, rc, handle)
	if err != nil && d.log.Enabled(debugLevel) {
		fields := logger.Fields(
			logger.FieldMethod, method,
			logger.FieldURL, url,
			logger.FieldClient, rc.ClientName,
		)
		if code := StatusCode(err); code > 0 {
			fields[logger.FieldStatusCode] = code
		}
		d.log.WithContext(ctx).Debug("dispatch failed", logger.MergeWithDuration(logger.MergeWithError(fields, err), time.Since(start)))
	}
	return err
}

func (d *Dispatcher) run(ctx context.Context, method, url string, body content, rc *RequestContext, handle func(*InboundMessage) error) (err error) {
	req, err := d.build(method, url, body, rc)
	if err != nil {
		return err
	}
	x := &exchange{req: req}
	defer func() {
		if relErr := x.release(); relErr != nil && err == nil {
			err = &Error{Code: ErrCodeTransport, Message: "failed to release messages", Err: relErr}
		}
	}()

	if err := x.interceptRequest(ctx, rc.RequestInterceptors); err != nil {
		return err
	}

	client, err := d.factory.CreateClient(rc.ClientName)
	if err != nil {
		return newTransportError("no client named "+quote(rc.ClientName), err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	resp, err := client.Send(WithCachePolicyContext(ctx, rc.CachePolicy), x.req, CompleteHeadersRead)
	x.resp = resp
	if err != nil {
		return transportError(ctx, err)
	}
	if resp == nil {
		return newTransportError("HTTP request failed", errNoResponse)
	}

	if err := x.interceptResponse(ctx, rc.ResponseInterceptors); err != nil {
		return err
	}

	if !x.resp.IsSuccess() {
		data, _ := io.ReadAll(io.LimitReader(x.resp.Body, maxErrorBody))
		return newStatusError(x.resp.StatusCode, data)
	}

	if handle == nil {
		return nil
	}
	return handle(x.resp)
}

// fetch runs a dispatch and decodes the body into T.
func fetch[T any](ctx context.Context, d *Dispatcher, method, url string, body content, rc *RequestContext) (T, error) {
	var out T
	err := d.do(ctx, method, url, body, rc, func(resp *InboundMessage) error {
		v, err := decodeBody[T](ctx, d, resp.Body)
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// decodeBody reads the body once. A string target receives the raw text;
// anything else must decode into a usable value.
func decodeBody[T any](ctx context.Context, d *Dispatcher, r io.Reader) (T, error) {
	var out T
	data, err := io.ReadAll(r)
	if err != nil {
		return out, transportError(ctx, err)
	}
	if s, ok := any(&out).(*string); ok {
		*s = string(data)
		return out, nil
	}
	if err := d.codec.Decode(data, &out); err != nil {
		var zero T
		return zero, newDecodingError(data, err)
	}
	return out, nil
}

// Get sends a GET and decodes the response into T.
func Get[T any](ctx context.Context, d *Dispatcher, url string, rc *RequestContext) (T, error) {
	return fetch[T](ctx, d, http.MethodGet, url, nil, rc)
}

// Post sends body as JSON and decodes the response into T. A nil body sends no content.
func Post[T any](ctx context.Context, d *Dispatcher, url string, body any, rc *RequestContext) (T, error) {
	return fetch[T](ctx, d, http.MethodPost, url, d.jsonContent(body), rc)
}

// Put sends body as JSON and decodes the response into T.
func Put[T any](ctx context.Context, d *Dispatcher, url string, body any, rc *RequestContext) (T, error) {
	return fetch[T](ctx, d, http.MethodPut, url, d.jsonContent(body), rc)
}

// Patch sends body as JSON and decodes the response into T.
func Patch[T any](ctx context.Context, d *Dispatcher, url string, body any, rc *RequestContext) (T, error) {
	return fetch[T](ctx, d, http.MethodPatch, url, d.jsonContent(body), rc)
}

// Delete sends a DELETE and decodes the response into T.
func Delete[T any](ctx context.Context, d *Dispatcher, url string, rc *RequestContext) (T, error) {
	return fetch[T](ctx, d, http.MethodDelete, url, nil, rc)
}

// Get sends a GET and discards the body.
func (d *Dispatcher) Get(ctx context.Context, url string, rc *RequestContext) error {
	return d.do(ctx, http.MethodGet, url, nil, rc, nil)
}

// Post sends body as JSON and discards the response body.
func (d *Dispatcher) Post(ctx context.Context, url string, body any, rc *RequestContext) error {
	return d.do(ctx, http.MethodPost, url, d.jsonContent(body), rc, nil)
}

// Put sends body as JSON and discards the response body.
func (d *Dispatcher) Put(ctx context.Context, url string, body any, rc *RequestContext) error {
	return d.do(ctx, http.MethodPut, url, d.jsonContent(body), rc, nil)
}

// Patch sends body as JSON and discards the response body.
func (d *Dispatcher) Patch(ctx context.Context, url string, body any, rc *RequestContext) error {
	return d.do(ctx, http.MethodPatch, url, d.jsonContent(body), rc, nil)
}

// Delete sends a DELETE and discards the response body.
func (d *Dispatcher) Delete(ctx context.Context, url string, rc *RequestContext) error {
	return d.do(ctx, http.MethodDelete, url, nil, rc, nil)
}
