package cli

import (
	"context"
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/microhttp/dispatch"
	apperrors "github.com/kbukum/microhttp/errors"
	"github.com/kbukum/microhttp/observability"
)

// batchFile is the YAML document read by the batch command.
//
//	items:
//	  - method: get
//	    url: /users/1
//	  - method: post
//	    url: /users
//	    client: admin
//	    headers: {x-tenant: acme}
//	    body: {name: ada}
type batchFile struct {
	Items []batchFileItem `yaml:"items"`
}

type batchFileItem struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Body    any               `yaml:"body"`
	Client  string            `yaml:"client"`
	Headers map[string]string `yaml:"headers"`
}

// batchReport is printed as JSON once every item finished.
type batchReport struct {
	Size      int          `json:"size"`
	Succeeded int          `json:"succeeded"`
	Failed    int          `json:"failed"`
	Items     []batchEntry `json:"items"`
}

type batchEntry struct {
	Index  int                  `json:"index"`
	Method string               `json:"method"`
	URL    string               `json:"url"`
	Result jsoniter.RawMessage  `json:"result,omitempty"`
	Error  *apperrors.ErrorBody `json:"error,omitempty"`
}

func newBatchCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run every request of a YAML batch file concurrently and print a JSON report",
		Long: `Run every request of a YAML batch file concurrently.

Each item reports its own result or failure at its index; one failing item
never affects the others. The command fails only when the file itself is
unreadable, or exits with status 1 after printing the report when any item
failed.`,
		Example: `  microhttp batch requests.yaml --config config.yml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := readBatchFile(args[0])
			if err != nil {
				return err
			}
			return g.run(cmd, func(ctx context.Context, s *session) error {
				report, err := runBatch(ctx, s, file)
				if err != nil {
					return err
				}
				data, err := s.dispatcher.Codec().Encode(report)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
					return err
				}
				if report.Failed > 0 {
					return errBatchFailed{failed: report.Failed, size: report.Size}
				}
				return nil
			})
		},
	}
}

func readBatchFile(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}
	var f batchFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse batch file %s: %w", path, err)
	}
	return &f, nil
}

// runBatch executes the file's items and builds the per-index report. Items
// the batch cannot accept (unknown method, missing url) fail at their index
// without being sent.
func runBatch(ctx context.Context, s *session, f *batchFile) (*batchReport, error) {
	ctx, span := observability.StartSpan(ctx, observability.SpanBatch,
		trace.WithAttributes(attribute.Int(observability.AttrBatchSize, len(f.Items))))
	defer span.End()

	report := &batchReport{Size: len(f.Items), Items: make([]batchEntry, len(f.Items))}
	batch := dispatch.NewBatch()
	slots := make(map[int]int, len(f.Items))

	for i, item := range f.Items {
		report.Items[i] = batchEntry{Index: i, Method: item.Method, URL: item.URL}

		verb, err := dispatch.ParseVerb(item.Method)
		if err != nil {
			report.Items[i].Error = errorBody(apperrors.Unsupported("batch item", err.Error()))
			continue
		}
		report.Items[i].Method = verb.String()

		idx, err := dispatch.AddItem[string](batch, dispatch.BatchItem{
			URL:     item.URL,
			Verb:    verb,
			Body:    item.Body,
			Context: s.requestContext(item.Client, item.Headers),
		})
		if err != nil {
			report.Items[i].Error = errorBody(apperrors.FromError(err))
			continue
		}
		slots[i] = idx
	}

	results, err := s.dispatcher.ExecuteBatch(ctx, batch, nil)
	if err != nil {
		observability.SetSpanError(ctx, err)
		return nil, err
	}

	for i, idx := range slots {
		body, err := dispatch.BatchResult[string](results, idx)
		if err != nil {
			report.Items[i].Error = errorBody(apperrors.FromError(err))
			continue
		}
		raw, err := rawResult(s, body)
		if err != nil {
			report.Items[i].Error = errorBody(apperrors.EncodingFailed(err))
			continue
		}
		report.Items[i].Result = raw
	}

	for _, e := range report.Items {
		if e.Error != nil {
			report.Failed++
		} else {
			report.Succeeded++
		}
	}
	return report, nil
}

// rawResult embeds a JSON response as is and any other body as a JSON string.
func rawResult(s *session, body string) (jsoniter.RawMessage, error) {
	if body != "" && jsoniter.Valid([]byte(body)) {
		return jsoniter.RawMessage(body), nil
	}
	data, err := s.dispatcher.Codec().Encode(body)
	if err != nil {
		return nil, err
	}
	return jsoniter.RawMessage(data), nil
}

func errorBody(e *apperrors.AppError) *apperrors.ErrorBody {
	body := e.ToResponse().Error
	return &body
}

// errBatchFailed reports a completed batch with failing items. The report
// has already been printed, so it renders as a one-line summary.
type errBatchFailed struct {
	failed, size int
}

func (e errBatchFailed) Error() string {
	return fmt.Sprintf("%d of %d batch items failed", e.failed, e.size)
}
