package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/kbukum/microhttp/logger"
)

// RequestInterceptor transforms an outbound message before it is sent.
// Returning nil or the same pointer keeps the message; returning a different
// message replaces it, and the dispatcher then releases the one it passed in.
type RequestInterceptor interface {
	InterceptRequest(ctx context.Context, msg *OutboundMessage) (*OutboundMessage, error)
}

// ResponseInterceptor transforms an inbound message before status
// validation, with the same replace-and-release contract.
type ResponseInterceptor interface {
	InterceptResponse(ctx context.Context, msg *InboundMessage) (*InboundMessage, error)
}

// RequestInterceptorFunc adapts a function to RequestInterceptor.
type RequestInterceptorFunc func(ctx context.Context, msg *OutboundMessage) (*OutboundMessage, error)

// InterceptRequest calls f.
func (f RequestInterceptorFunc) InterceptRequest(ctx context.Context, msg *OutboundMessage) (*OutboundMessage, error) {
	return f(ctx, msg)
}

// ResponseInterceptorFunc adapts a function to ResponseInterceptor.
type ResponseInterceptorFunc func(ctx context.Context, msg *InboundMessage) (*InboundMessage, error)

// InterceptResponse calls f.
func (f ResponseInterceptorFunc) InterceptResponse(ctx context.Context, msg *InboundMessage) (*InboundMessage, error) {
	return f(ctx, msg)
}

// HeaderRequestID is the header stamped by RequestIDInterceptor.
const HeaderRequestID = "X-Request-ID"

// RequestIDInterceptor sets X-Request-ID on outbound messages that lack one,
// using the request id carried by ctx (logger.ContextWithRequestID) or a new UUID.
func RequestIDInterceptor() RequestInterceptor {
	return RequestInterceptorFunc(func(ctx context.Context, msg *OutboundMessage) (*OutboundMessage, error) {
		if msg.Header.Get(HeaderRequestID) != "" {
			return msg, nil
		}
		id := logger.RequestIDFromContext(ctx)
		if id == "" {
			id = uuid.NewString()
		}
		msg.Header.Set(HeaderRequestID, id)
		return msg, nil
	})
}

// HeaderInterceptor sets a fixed header on every outbound message.
func HeaderInterceptor(key, value string) RequestInterceptor {
	return RequestInterceptorFunc(func(_ context.Context, msg *OutboundMessage) (*OutboundMessage, error) {
		msg.Header.Set(key, value)
		return msg, nil
	})
}

// exchange tracks the messages one dispatch currently owns. Whatever it holds
// at exit is what release frees.
type exchange struct {
	req         *OutboundMessage
	resp        *InboundMessage
	releaseErrs []error
}

func (x *exchange) interceptRequest(ctx context.Context, chain []RequestInterceptor) error {
	for _, step := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := step.InterceptRequest(ctx, x.req)
		if err != nil {
			if next != nil && next != x.req {
				x.keep(next.Release())
			}
			return interceptorError(err)
		}
		if next != nil && next != x.req {
			x.keep(x.req.Release())
			x.req = next
		}
	}
	return nil
}

func (x *exchange) interceptResponse(ctx context.Context, chain []ResponseInterceptor) error {
	for _, step := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		next, err := step.InterceptResponse(ctx, x.resp)
		if err != nil {
			if next != nil && next != x.resp {
				x.keep(next.Release())
			}
			return interceptorError(err)
		}
		if next != nil && next != x.resp {
			x.keep(x.resp.Release())
			x.resp = next
		}
	}
	return nil
}

// release frees the response stream, then the response, then the request.
func (x *exchange) release() error {
	if x.resp != nil {
		x.keep(x.resp.CloseBody())
		x.keep(x.resp.Release())
	}
	x.keep(x.req.Release())
	return errors.Join(x.releaseErrs...)
}

func (x *exchange) keep(err error) {
	if err != nil {
		x.releaseErrs = append(x.releaseErrs, err)
	}
}

func interceptorError(err error) error {
	if isCancellation(err) {
		return err
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Code: ErrCodeInterceptor, Message: "interceptor failed", Err: err}
}
