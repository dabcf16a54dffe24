package httpclient

import (
	"context"
	"slices"
	"testing"

	"github.com/kbukum/microhttp/component"
	"github.com/kbukum/microhttp/dispatch"
)

func TestFactory_CreateClient(t *testing.T) {
	f, err := NewFactory(FactoryConfig{
		Default: Config{BaseURL: "http://default.local"},
		Clients: map[string]Config{
			"users":   {BaseURL: "http://users.local"},
			"billing": {BaseURL: "http://billing.local"},
		},
	})
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	defer f.Close()

	tests := []struct {
		name     string
		client   string
		wantBase string
		wantErr  bool
	}{
		{"empty name is default", "", "http://default.local", false},
		{"named", "users", "http://users.local", false},
		{"unknown", "search", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := f.CreateClient(tt.client)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error for unknown client")
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateClient failed: %v", err)
			}
			if got := c.(*Client).BaseURL(); got != tt.wantBase {
				t.Errorf("expected %s, got %s", tt.wantBase, got)
			}
		})
	}

	if got := f.Names(); !slices.Equal(got, []string{"billing", "users"}) {
		t.Errorf("expected [billing users], got %v", got)
	}
}

func TestFactory_InvalidConfig(t *testing.T) {
	_, err := NewFactory(FactoryConfig{
		Clients: map[string]Config{"bad": {BaseURL: "not-absolute"}},
	})
	if err == nil {
		t.Error("expected error for invalid client config")
	}
}

func TestFactory_UnknownClientThroughDispatcher(t *testing.T) {
	f, err := NewFactory(FactoryConfig{})
	if err != nil {
		t.Fatalf("NewFactory failed: %v", err)
	}
	d := dispatch.New(f)
	err = d.Get(context.Background(), "http://example.invalid/", dispatch.NewContext(dispatch.WithClient("nope")))
	if !dispatch.IsTransport(err) {
		t.Errorf("expected transport error for unknown client, got %v", err)
	}
}

func TestComponent_Lifecycle(t *testing.T) {
	wrapped := false
	c := NewComponent(FactoryConfig{
		Default: Config{BaseURL: "http://default.local"},
		Clients: map[string]Config{"api": {BaseURL: "http://api.local"}},
	}, WithFactoryWrapper(func(f dispatch.ClientFactory) dispatch.ClientFactory {
		wrapped = true
		return f
	}))

	if c.Name() != "http" {
		t.Errorf("expected name http, got %s", c.Name())
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %s", h.Status)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !wrapped {
		t.Error("expected factory wrapper to run")
	}
	if c.Dispatcher() == nil || c.Factory() == nil {
		t.Fatal("expected dispatcher and factory after start")
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %s", h.Status)
	}

	desc := c.Describe()
	if desc.Type != "http-client" {
		t.Errorf("expected http-client, got %s", desc.Type)
	}
	if desc.Details != "default=http://default.local clients=api" {
		t.Errorf("unexpected details %q", desc.Details)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.Dispatcher() != nil {
		t.Error("expected dispatcher cleared after stop")
	}
}

func TestComponent_StartInvalidConfig(t *testing.T) {
	c := NewComponent(FactoryConfig{Default: Config{BaseURL: "relative"}}, WithName("api"))
	if c.Name() != "api" {
		t.Errorf("expected name api, got %s", c.Name())
	}
	if err := c.Start(context.Background()); err == nil {
		t.Error("expected start error for invalid config")
	}
}
