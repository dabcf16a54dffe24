package dispatch

import (
	"context"
	"io"
	"net/http"

	"github.com/kbukum/microhttp/codec"
)

// StreamConsumer reads a live response body. The body is only valid until
// the consumer returns.
type StreamConsumer func(ctx context.Context, body io.Reader) error

// GetStream sends a GET and hands the validated response body to consume
// without buffering it. After consume returns (or fails) the stream, the
// response and the request are released in that order. Errors from consume
// are returned unchanged.
func (d *Dispatcher) GetStream(ctx context.Context, url string, consume StreamConsumer, rc *RequestContext) error {
	if consume == nil {
		return newValidationError(errNilConsumer)
	}
	return d.do(ctx, http.MethodGet, url, nil, rc, func(resp *InboundMessage) error {
		return consume(ctx, resp.Body)
	})
}

// GetJSONStream sends a GET and decodes a top-level JSON array element by
// element straight from the response stream. A null body yields an empty slice.
func GetJSONStream[T any](ctx context.Context, d *Dispatcher, url string, rc *RequestContext) ([]T, error) {
	var items []T
	err := d.GetStream(ctx, url, func(ctx context.Context, body io.Reader) error {
		v, err := codec.DecodeStream[T](d.codec, body)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return newDecodingError(nil, err)
		}
		items = v
		return nil
	}, rc)
	if err != nil {
		return nil, err
	}
	return items, nil
}
