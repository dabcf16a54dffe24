package httpclient

import (
	"fmt"
	"maps"
	"slices"

	"github.com/kbukum/microhttp/dispatch"
)

// Factory holds every configured client. It is built once and only read
// afterwards, so lookups need no locking.
type Factory struct {
	def     *Client
	clients map[string]*Client
}

var _ dispatch.ClientFactory = (*Factory)(nil)

// NewFactory builds the default client and every named client eagerly.
func NewFactory(cfg FactoryConfig) (*Factory, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	def, err := New("", cfg.Default)
	if err != nil {
		return nil, fmt.Errorf("httpclient: default client: %w", err)
	}
	f := &Factory{def: def, clients: make(map[string]*Client, len(cfg.Clients))}
	for name, c := range cfg.Clients {
		client, err := New(name, c)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("httpclient: client %q: %w", name, err)
		}
		f.clients[name] = client
	}
	return f, nil
}

// CreateClient returns the client registered under name. An empty name
// selects the default client.
func (f *Factory) CreateClient(name string) (dispatch.Client, error) {
	c, err := f.Client(name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Client is CreateClient returning the concrete type.
func (f *Factory) Client(name string) (*Client, error) {
	if name == "" {
		return f.def, nil
	}
	c, ok := f.clients[name]
	if !ok {
		return nil, fmt.Errorf("httpclient: no client named %q", name)
	}
	return c, nil
}

// Names returns the named clients in sorted order.
func (f *Factory) Names() []string {
	return slices.Sorted(maps.Keys(f.clients))
}

// Close releases idle pooled connections of every client.
func (f *Factory) Close() {
	if f.def != nil {
		f.def.httpClient.CloseIdleConnections()
	}
	for _, c := range f.clients {
		c.httpClient.CloseIdleConnections()
	}
}
