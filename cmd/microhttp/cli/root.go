package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kbukum/microhttp/bootstrap"
	"github.com/kbukum/microhttp/codec"
	"github.com/kbukum/microhttp/config"
	"github.com/kbukum/microhttp/dispatch"
	"github.com/kbukum/microhttp/httpclient"
	"github.com/kbukum/microhttp/observability"
	"github.com/kbukum/microhttp/version"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	envFile    string
	logLevel   string
}

// session is what a command task works with once components are started.
type session struct {
	cfg        *Config
	dispatcher *dispatch.Dispatcher
	base       *dispatch.RequestContext
	out        io.Writer
}

// requestContext derives a per-call context from the session defaults.
func (s *session) requestContext(client string, headers map[string]string) *dispatch.RequestContext {
	return s.base.With(dispatch.WithClient(client), dispatch.WithHeaders(headers))
}

// NewRootCommand builds the microhttp command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "microhttp",
		Short: "Typed HTTP requests, streams, uploads and batches from the command line",
		Long: `microhttp sends HTTP requests through named, configured clients.

Get started:
  microhttp get /users/1              GET and print the body
  microhttp send post /users -d '{}'  Send a JSON body
  microhttp stream /export            Stream a response to stdout
  microhttp upload /files report.pdf  Upload a file as multipart/form-data
  microhttp batch requests.yaml       Run many requests concurrently`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVarP(&g.configFile, "config", "c", "", "Path to configuration file")
	pf.StringVar(&g.envFile, "env-file", "", "Path to a .env file")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")

	root.AddCommand(
		newGetCommand(g),
		newSendCommand(g),
		newStreamCommand(g),
		newUploadCommand(g),
		newBatchCommand(g),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCommand()
	if err := root.ExecuteContext(context.Background()); err != nil {
		renderError(os.Stderr, err)
		return 1
	}
	return 0
}

func (g *globalOptions) loadConfig() (*Config, error) {
	cfg := DefaultConfig()
	opts := []config.LoaderOption{config.WithEnvPrefix(envPrefix)}
	if g.configFile != "" {
		opts = append(opts, config.WithConfigFile(g.configFile))
	}
	if g.envFile != "" {
		opts = append(opts, config.WithEnvFile(g.envFile))
	}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}
	return cfg, nil
}

// run loads the configuration, starts telemetry and the HTTP client
// component, runs task and stops everything again.
func (g *globalOptions) run(cmd *cobra.Command, task func(ctx context.Context, s *session) error) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	app, err := bootstrap.NewApp(cfg)
	if err != nil {
		return err
	}

	telemetry := observability.NewComponent(cfg.Observability, cfg.serviceInfo())
	base := dispatch.NewContext(dispatch.WithRequestInterceptors(dispatch.RequestIDInterceptor()))
	clients := httpclient.NewComponent(cfg.HTTP,
		httpclient.WithFactoryWrapper(telemetry.Instrument),
		httpclient.WithDispatchOptions(
			dispatch.WithCodec(codec.New(cfg.Codec)),
			dispatch.WithBatchConcurrency(cfg.Batch.MaxConcurrency),
			dispatch.WithDefaultContext(base),
			dispatch.WithLogger(app.Logger.WithComponent("dispatch")),
		),
	)
	if err := app.RegisterComponent(telemetry); err != nil {
		return err
	}
	if err := app.RegisterComponent(clients); err != nil {
		return err
	}

	return app.RunTask(cmd.Context(), func(ctx context.Context) error {
		return task(ctx, &session{
			cfg:        cfg,
			dispatcher: clients.Dispatcher(),
			base:       base,
			out:        cmd.OutOrStdout(),
		})
	})
}

// parsePairs turns repeated key=value flags into a map.
func parsePairs(flag string, pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("--%s: expected key=value, got %q", flag, p)
		}
		out[k] = v
	}
	return out, nil
}
