package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/microhttp/dispatch"
)

// requestFlags are the per-request flags shared by the single-request commands.
type requestFlags struct {
	client  string
	headers []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.client, "client", "", "Named client from the configuration (default client when empty)")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header as key=value (repeatable)")
}

func (f *requestFlags) context(s *session) (*dispatch.RequestContext, error) {
	headers, err := parsePairs("header", f.headers)
	if err != nil {
		return nil, err
	}
	return s.requestContext(f.client, headers), nil
}

func newGetCommand(g *globalOptions) *cobra.Command {
	var rf requestFlags
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Send a GET and print the response body",
		Example: `  microhttp get /users/1
  microhttp get https://api.example.com/health --client status -H accept=text/plain`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session) error {
				rc, err := rf.context(s)
				if err != nil {
					return err
				}
				body, err := dispatch.Get[string](ctx, s.dispatcher, args[0], rc)
				if err != nil {
					return err
				}
				return printBody(s.out, body)
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newSendCommand(g *globalOptions) *cobra.Command {
	var (
		rf   requestFlags
		data string
	)
	cmd := &cobra.Command{
		Use:   "send <method> <url>",
		Short: "Send a request with an optional JSON body and print the response body",
		Example: `  microhttp send post /users --data '{"name":"ada"}'
  microhttp send delete /users/1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			verb, err := dispatch.ParseVerb(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				rc, err := rf.context(s)
				if err != nil {
					return err
				}
				var body any
				if data != "" {
					if err := s.dispatcher.Codec().Decode([]byte(data), &body); err != nil {
						return fmt.Errorf("--data: %w", err)
					}
				}
				out, err := send(ctx, s.dispatcher, verb, args[1], body, rc)
				if err != nil {
					return err
				}
				return printBody(s.out, out)
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	return cmd
}

// send dispatches one typed request. GET and DELETE carry no body.
func send(ctx context.Context, d *dispatch.Dispatcher, verb dispatch.Verb, url string, body any, rc *dispatch.RequestContext) (string, error) {
	switch verb {
	case dispatch.VerbGet, dispatch.VerbDelete:
		if body != nil {
			return "", fmt.Errorf("%s does not take a body", verb)
		}
		if verb == dispatch.VerbGet {
			return dispatch.Get[string](ctx, d, url, rc)
		}
		return dispatch.Delete[string](ctx, d, url, rc)
	case dispatch.VerbPost:
		return dispatch.Post[string](ctx, d, url, body, rc)
	case dispatch.VerbPut:
		return dispatch.Put[string](ctx, d, url, body, rc)
	case dispatch.VerbPatch:
		return dispatch.Patch[string](ctx, d, url, body, rc)
	}
	return "", fmt.Errorf("unsupported verb %s", verb)
}

func newStreamCommand(g *globalOptions) *cobra.Command {
	var rf requestFlags
	cmd := &cobra.Command{
		Use:     "stream <url>",
		Short:   "Send a GET and copy the response stream to stdout without buffering",
		Example: `  microhttp stream /exports/latest.csv > latest.csv`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd, func(ctx context.Context, s *session) error {
				rc, err := rf.context(s)
				if err != nil {
					return err
				}
				return s.dispatcher.GetStream(ctx, args[0], func(ctx context.Context, body io.Reader) error {
					_, err := io.Copy(s.out, body)
					return err
				}, rc)
			})
		},
	}
	rf.register(cmd)
	return cmd
}

func newUploadCommand(g *globalOptions) *cobra.Command {
	var (
		rf     requestFlags
		field  string
		fields []string
	)
	cmd := &cobra.Command{
		Use:   "upload <url> <file>",
		Short: "POST a file as multipart/form-data and print the response body",
		Example: `  microhttp upload /documents report.pdf --field document -F owner=ada`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			form, err := parsePairs("form", fields)
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				rc, err := rf.context(s)
				if err != nil {
					return err
				}
				part, err := dispatch.FileFromPath(args[1], field)
				if err != nil {
					return err
				}
				upload := &dispatch.FileUpload{File: part, FormFields: form}
				body, err := dispatch.PostFile[string](ctx, s.dispatcher, args[0], upload, rc)
				if err != nil {
					return err
				}
				return printBody(s.out, body)
			})
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&field, "field", "", "Form field name of the file (default \"file\")")
	cmd.Flags().StringArrayVarP(&fields, "form", "F", nil, "Extra form field as key=value (repeatable)")
	return cmd
}

func printBody(w io.Writer, body string) error {
	if body == "" {
		return nil
	}
	if body[len(body)-1] != '\n' {
		body += "\n"
	}
	_, err := io.WriteString(w, body)
	return err
}
