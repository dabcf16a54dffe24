package dispatch

import (
	"maps"
	"net/textproto"
)

// Headers holds single-valued request headers. Keys are canonicalised, so
// "content-type" and "Content-Type" address the same entry and the later
// write wins.
type Headers map[string]string

// Set stores value under the canonical form of key.
func (h Headers) Set(key, value string) {
	h[textproto.CanonicalMIMEHeaderKey(key)] = value
}

// Get returns the value stored under key, ignoring case.
func (h Headers) Get(key string) string {
	return h[textproto.CanonicalMIMEHeaderKey(key)]
}

// Del removes key, ignoring case.
func (h Headers) Del(key string) {
	delete(h, textproto.CanonicalMIMEHeaderKey(key))
}

// Clone returns a copy of h.
func (h Headers) Clone() Headers {
	if h == nil {
		return Headers{}
	}
	return maps.Clone(h)
}

// RequestContext configures a single dispatch: which named client to use,
// extra headers, an optional cache policy and the interceptor chains.
// Cancellation travels separately as the context.Context argument of every
// operation. The dispatcher only reads a RequestContext, so one value can be
// shared across calls.
type RequestContext struct {
	// ClientName selects the transport client. Empty means the factory default.
	ClientName string
	// Headers are layered onto the outbound message. A Content-Type entry sets
	// the body content type and is ignored when there is no body.
	Headers Headers
	// CachePolicy is carried to the transport untouched; nothing here enforces it.
	CachePolicy *CachePolicy
	// RequestInterceptors run in order before the transport call.
	RequestInterceptors []RequestInterceptor
	// ResponseInterceptors run in order after the transport call, before status validation.
	ResponseInterceptors []ResponseInterceptor
}

// ContextOption configures a RequestContext.
type ContextOption func(*RequestContext)

// NewContext builds a RequestContext from options.
func NewContext(opts ...ContextOption) *RequestContext {
	rc := &RequestContext{Headers: Headers{}}
	for _, opt := range opts {
		opt(rc)
	}
	return rc
}

// DefaultContext returns an empty context: default client, no headers, no interceptors.
func DefaultContext() *RequestContext {
	return NewContext()
}

// WithClient selects a named transport client.
func WithClient(name string) ContextOption {
	return func(rc *RequestContext) { rc.ClientName = name }
}

// WithHeader sets one header.
func WithHeader(key, value string) ContextOption {
	return func(rc *RequestContext) {
		if rc.Headers == nil {
			rc.Headers = Headers{}
		}
		rc.Headers.Set(key, value)
	}
}

// WithHeaders sets several headers. Keys are canonicalised.
func WithHeaders(headers map[string]string) ContextOption {
	return func(rc *RequestContext) {
		if rc.Headers == nil {
			rc.Headers = Headers{}
		}
		for k, v := range headers {
			rc.Headers.Set(k, v)
		}
	}
}

// WithCachePolicy attaches a cache policy.
func WithCachePolicy(p *CachePolicy) ContextOption {
	return func(rc *RequestContext) { rc.CachePolicy = p }
}

// WithRequestInterceptors appends request interceptors.
func WithRequestInterceptors(interceptors ...RequestInterceptor) ContextOption {
	return func(rc *RequestContext) {
		rc.RequestInterceptors = append(rc.RequestInterceptors, interceptors...)
	}
}

// WithResponseInterceptors appends response interceptors.
func WithResponseInterceptors(interceptors ...ResponseInterceptor) ContextOption {
	return func(rc *RequestContext) {
		rc.ResponseInterceptors = append(rc.ResponseInterceptors, interceptors...)
	}
}

// With returns a copy of rc with opts applied. Slices and headers are copied,
// so rc itself is left untouched.
func (rc *RequestContext) With(opts ...ContextOption) *RequestContext {
	c := &RequestContext{}
	if rc != nil {
		c.ClientName = rc.ClientName
		c.CachePolicy = rc.CachePolicy
		c.RequestInterceptors = append([]RequestInterceptor(nil), rc.RequestInterceptors...)
		c.ResponseInterceptors = append([]ResponseInterceptor(nil), rc.ResponseInterceptors...)
		c.Headers = rc.Headers.Clone()
	} else {
		c.Headers = Headers{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
