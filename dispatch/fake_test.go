package dispatch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// recorded is a snapshot of one message seen by the fake transport.
type recorded struct {
	Method      string
	URL         string
	Header      http.Header
	Body        string
	ContentType string
	Mode        CompletionMode
	Client      string
}

type reply struct {
	status int
	header http.Header
	body   string
	err    error
}

type handlerFunc func(ctx context.Context, req recorded) reply

// fakeTransport counts transport calls and every close/release of the
// response resources it hands out.
type fakeTransport struct {
	handler handlerFunc

	sends      atomic.Int32
	bodyCloses atomic.Int32
	releases   atomic.Int32
	releaseErr error

	mu       sync.Mutex
	requests []recorded
	events   []string
}

func newFake(h handlerFunc) *fakeTransport {
	return &fakeTransport{handler: h}
}

func jsonReply(body string) handlerFunc {
	return func(context.Context, recorded) reply {
		return reply{status: http.StatusOK, body: body}
	}
}

func (f *fakeTransport) event(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, name)
}

func (f *fakeTransport) Events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func (f *fakeTransport) Requests() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func (f *fakeTransport) last() recorded {
	reqs := f.Requests()
	if len(reqs) == 0 {
		return recorded{}
	}
	return reqs[len(reqs)-1]
}

func (f *fakeTransport) CreateClient(name string) (Client, error) {
	if name == "missing" {
		return nil, errors.New("client not configured")
	}
	return ClientFunc(func(ctx context.Context, msg *OutboundMessage, mode CompletionMode) (*InboundMessage, error) {
		return f.send(ctx, name, msg, mode)
	}), nil
}

func (f *fakeTransport) send(ctx context.Context, client string, msg *OutboundMessage, mode CompletionMode) (*InboundMessage, error) {
	f.sends.Add(1)
	rec := recorded{
		Method:      msg.Method,
		URL:         msg.URL,
		Header:      msg.Header.Clone(),
		ContentType: msg.ContentType,
		Mode:        mode,
		Client:      client,
	}
	if msg.Body != nil {
		data, err := io.ReadAll(msg.Body)
		if err != nil {
			return nil, err
		}
		rec.Body = string(data)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	f.mu.Unlock()

	r := f.handler(ctx, rec)
	if r.err != nil {
		return nil, r.err
	}
	body := &trackedBody{Reader: strings.NewReader(r.body), onClose: func() {
		f.bodyCloses.Add(1)
		f.event("stream")
	}}
	return NewInboundMessage(r.status, r.header, body, func() error {
		f.releases.Add(1)
		f.event("response")
		return f.releaseErr
	}), nil
}

type trackedBody struct {
	io.Reader
	onClose func()
}

func (b *trackedBody) Close() error {
	b.onClose()
	return nil
}

// countingCloser counts Close calls and optionally logs an event.
type countingCloser struct {
	n     atomic.Int32
	event func()
}

func (c *countingCloser) Close() error {
	c.n.Add(1)
	if c.event != nil {
		c.event()
	}
	return nil
}

type widget struct {
	ID    int
	Name  string
	Price float64
}
