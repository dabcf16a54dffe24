// Package dispatch turns logical HTTP operations into transport calls.
//
// A Dispatcher builds an OutboundMessage, runs the RequestContext's request
// interceptors, sends the message through a named Client obtained from a
// ClientFactory (headers-only completion), runs the response interceptors,
// validates the status and finally decodes the body with a codec.Codec.
// Every message is released on every exit path.
//
//	d := dispatch.New(factory)
//	user, err := dispatch.Get[User](ctx, d, "/users/1", nil)
//
// Batches run items concurrently and report results by index:
//
//	b := dispatch.NewBatch()
//	i, _ := dispatch.AddGet[User](b, "/users/1", nil)
//	results, _ := d.ExecuteBatch(ctx, b, nil)
//	user, err := dispatch.BatchResult[User](results, i)
package dispatch
