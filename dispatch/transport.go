package dispatch

import "context"

// Client sends one message. With CompleteHeadersRead the returned
// InboundMessage must hold the live body stream; the dispatcher releases it.
type Client interface {
	Send(ctx context.Context, msg *OutboundMessage, mode CompletionMode) (*InboundMessage, error)
}

// ClientFactory looks up a named Client. The dispatcher only reads from it.
// An empty name selects the default client.
type ClientFactory interface {
	CreateClient(name string) (Client, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, msg *OutboundMessage, mode CompletionMode) (*InboundMessage, error)

// Send calls f.
func (f ClientFunc) Send(ctx context.Context, msg *OutboundMessage, mode CompletionMode) (*InboundMessage, error) {
	return f(ctx, msg, mode)
}
