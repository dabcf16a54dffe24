package httpclient

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/kbukum/microhttp/component"
	"github.com/kbukum/microhttp/dispatch"
)

// Component owns a Factory and the Dispatcher built on it. Both are created
// in Start and torn down in Stop.
type Component struct {
	name       string
	config     FactoryConfig
	opts       []dispatch.Option
	wrap       func(dispatch.ClientFactory) dispatch.ClientFactory
	factory    *Factory
	dispatcher *dispatch.Dispatcher
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// ComponentOption configures a Component.
type ComponentOption func(*Component)

// WithDispatchOptions passes options through to dispatch.New.
func WithDispatchOptions(opts ...dispatch.Option) ComponentOption {
	return func(c *Component) { c.opts = append(c.opts, opts...) }
}

// WithFactoryWrapper decorates the factory before the dispatcher sees it,
// e.g. with observability.InstrumentFactory.
func WithFactoryWrapper(fn func(dispatch.ClientFactory) dispatch.ClientFactory) ComponentOption {
	return func(c *Component) { c.wrap = fn }
}

// WithName overrides the component name. Defaults to "http".
func WithName(name string) ComponentOption {
	return func(c *Component) { c.name = name }
}

// NewComponent creates a new dispatcher component.
func NewComponent(cfg FactoryConfig, opts ...ComponentOption) *Component {
	c := &Component{name: "http", config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// Start builds every configured client and the dispatcher.
func (c *Component) Start(_ context.Context) error {
	f, err := NewFactory(c.config)
	if err != nil {
		return err
	}
	var factory dispatch.ClientFactory = f
	if c.wrap != nil {
		factory = c.wrap(factory)
	}
	c.factory = f
	c.dispatcher = dispatch.New(factory, c.opts...)
	return nil
}

// Stop releases pooled connections.
func (c *Component) Stop(_ context.Context) error {
	if c.factory != nil {
		c.factory.Close()
		c.factory = nil
	}
	c.dispatcher = nil
	return nil
}

// Health reports healthy once the dispatcher is available.
func (c *Component) Health(_ context.Context) component.Health {
	if c.dispatcher == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

// Describe returns component description for the startup summary.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("default=%s", orNone(c.config.Default.BaseURL))
	if len(c.config.Clients) > 0 {
		details += " clients=" + strings.Join(slices.Sorted(maps.Keys(c.config.Clients)), ",")
	}
	return component.Description{
		Name:    "HTTP Dispatcher",
		Type:    "http-client",
		Details: details,
	}
}

// Dispatcher returns the dispatcher. Must be called after Start().
func (c *Component) Dispatcher() *dispatch.Dispatcher {
	return c.dispatcher
}

// Factory returns the client factory. Must be called after Start().
func (c *Component) Factory() *Factory {
	return c.factory
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}
