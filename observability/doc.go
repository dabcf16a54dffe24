// Package observability traces and counts the requests a Dispatcher sends.
//
// The Component owns the OTLP providers; its Instrument method wraps a
// dispatch.ClientFactory so every Send runs in an "http.client.send"
// client span, carries W3C trace headers and is counted by client, method
// and status:
//
//	telemetry := observability.NewComponent(cfg, observability.ServiceInfo{Name: "microhttp"})
//	clients := httpclient.NewComponent(factoryCfg, httpclient.WithFactoryWrapper(telemetry.Instrument))
//
// InstrumentFactory does the same without the component, for tests or
// callers that manage their own providers.
package observability
