// Package httpclient is the net/http transport behind the dispatcher. It
// implements dispatch.ClientFactory with a set of named clients, each with
// its own base URL, default headers, authentication, TLS settings, optional
// HTTP/2 and request pacing.
//
// # Basic Usage
//
//	f, err := httpclient.NewFactory(httpclient.FactoryConfig{
//	    Default: httpclient.Config{Timeout: 30 * time.Second},
//	    Clients: map[string]httpclient.Config{
//	        "api": {
//	            BaseURL: "https://api.example.com",
//	            Auth:    httpclient.BearerAuth("my-token"),
//	            HTTP2:   true,
//	        },
//	    },
//	})
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	d := dispatch.New(f)
//	user, err := dispatch.Get[User](ctx, d, "/users/123",
//	    dispatch.NewContext(dispatch.WithClient("api")))
//
// Relative URLs are resolved against the client's BaseURL. Authentication is
// applied by the client's RoundTripper, so interceptors and the dispatcher
// never see credentials.
package httpclient
