package dispatch

import (
	"errors"
	"io"
	"net/http"
)

// CompletionMode tells a Client when Send may return.
type CompletionMode int

const (
	// CompleteHeadersRead returns once headers arrive; the body stays a live stream.
	CompleteHeadersRead CompletionMode = iota
	// CompleteContentRead buffers the whole body before returning.
	CompleteContentRead
)

// String returns the mode name.
func (m CompletionMode) String() string {
	switch m {
	case CompleteHeadersRead:
		return "headers_read"
	case CompleteContentRead:
		return "content_read"
	default:
		return "unknown"
	}
}

// OutboundMessage is a request owned by exactly one dispatch. Resources
// registered with Own are closed once by Release.
type OutboundMessage struct {
	Method      string
	URL         string
	Header      http.Header
	Body        io.Reader
	ContentType string

	owned    []io.Closer
	released bool
}

// NewOutboundMessage creates a message with an empty header set and no body.
func NewOutboundMessage(method, url string) *OutboundMessage {
	return &OutboundMessage{Method: method, URL: url, Header: make(http.Header)}
}

// Own registers c to be closed when the message is released. Resources are
// closed in registration order.
func (m *OutboundMessage) Own(c io.Closer) {
	m.owned = append(m.owned, c)
}

// Released reports whether Release has run.
func (m *OutboundMessage) Released() bool {
	return m.released
}

// Release closes every owned resource. Subsequent calls do nothing.
func (m *OutboundMessage) Release() error {
	if m == nil || m.released {
		return nil
	}
	m.released = true
	var errs []error
	for _, c := range m.owned {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.owned = nil
	return errors.Join(errs...)
}

// InboundMessage is a response owned by exactly one dispatch.
type InboundMessage struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser

	onRelease  func() error
	bodyClosed bool
	released   bool
}

// NewInboundMessage wraps a response. onRelease, when set, runs once after
// the body is closed, so a transport can return connection state it holds.
func NewInboundMessage(statusCode int, header http.Header, body io.ReadCloser, onRelease func() error) *InboundMessage {
	if header == nil {
		header = make(http.Header)
	}
	if body == nil {
		body = http.NoBody
	}
	return &InboundMessage{StatusCode: statusCode, Header: header, Body: body, onRelease: onRelease}
}

// IsSuccess reports a 2xx status.
func (m *InboundMessage) IsSuccess() bool {
	return m.StatusCode >= 200 && m.StatusCode < 300
}

// Released reports whether Release has run.
func (m *InboundMessage) Released() bool {
	return m.released
}

// CloseBody closes the body stream once.
func (m *InboundMessage) CloseBody() error {
	if m == nil || m.bodyClosed || m.Body == nil {
		return nil
	}
	m.bodyClosed = true
	return m.Body.Close()
}

// Release closes the body (if still open) and then runs the release hook.
// Subsequent calls do nothing.
func (m *InboundMessage) Release() error {
	if m == nil || m.released {
		return nil
	}
	m.released = true
	err := m.CloseBody()
	if m.onRelease != nil {
		err = errors.Join(err, m.onRelease())
	}
	return err
}
