package dispatch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/microhttp/logger"
	"github.com/kbukum/microhttp/validation"
)

// Verb is the closed set of methods a batch item can use. The zero value is
// not a method, so an item built without a Verb fails as unsupported.
type Verb int

const (
	verbUnset Verb = iota
	VerbGet
	VerbPost
	VerbPut
	VerbPatch
	VerbDelete
)

// String returns the HTTP method name.
func (v Verb) String() string {
	switch v {
	case verbUnset:
		return "Verb(unset)"
	case VerbGet:
		return http.MethodGet
	case VerbPost:
		return http.MethodPost
	case VerbPut:
		return http.MethodPut
	case VerbPatch:
		return http.MethodPatch
	case VerbDelete:
		return http.MethodDelete
	default:
		return fmt.Sprintf("Verb(%d)", int(v))
	}
}

// ParseVerb maps an HTTP method name (any case) to a Verb.
func ParseVerb(s string) (Verb, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case http.MethodGet:
		return VerbGet, nil
	case http.MethodPost:
		return VerbPost, nil
	case http.MethodPut:
		return VerbPut, nil
	case http.MethodPatch:
		return VerbPatch, nil
	case http.MethodDelete:
		return VerbDelete, nil
	}
	return verbUnset, fmt.Errorf("unsupported verb %q", s)
}

type decodeFunc func(ctx context.Context, d *Dispatcher, body io.Reader) (any, error)

func decoderFor[T any]() decodeFunc {
	return func(ctx context.Context, d *Dispatcher, body io.Reader) (any, error) {
		return decodeBody[T](ctx, d, body)
	}
}

// BatchItem is one request of a batch.
type BatchItem struct {
	URL  string `json:"url" validate:"required"`
	Verb Verb   `json:"verb"`
	// Body is encoded as JSON. POST, PUT and PATCH items require one; GET and
	// DELETE items must leave it nil.
	Body any `json:"body" validate:"-"`
	// Context overrides the batch-level context for this item.
	Context *RequestContext `json:"-" validate:"-"`

	decode decodeFunc
}

// Batch collects independent requests for ExecuteBatch. Items are addressed
// by the index returned when they were added.
type Batch struct {
	mu    sync.Mutex
	items []BatchItem
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Len returns the number of items.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Add appends an item whose result is decoded into an untyped value
// (map[string]any, []any, string, float64 or bool).
func (b *Batch) Add(item BatchItem) (int, error) {
	return AddItem[any](b, item)
}

// AddItem appends an item whose result is decoded into T.
func AddItem[T any](b *Batch, item BatchItem) (int, error) {
	if err := validation.Validate(item); err != nil {
		return -1, newValidationError(err)
	}
	item.decode = decoderFor[T]()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, item)
	return len(b.items) - 1, nil
}

// AddGet appends a GET item decoded into T.
func AddGet[T any](b *Batch, url string, rc *RequestContext) (int, error) {
	return AddItem[T](b, BatchItem{URL: url, Verb: VerbGet, Context: rc})
}

// AddPost appends a POST item decoded into T.
func AddPost[T any](b *Batch, url string, body any, rc *RequestContext) (int, error) {
	return AddItem[T](b, BatchItem{URL: url, Verb: VerbPost, Body: body, Context: rc})
}

// AddPut appends a PUT item decoded into T.
func AddPut[T any](b *Batch, url string, body any, rc *RequestContext) (int, error) {
	return AddItem[T](b, BatchItem{URL: url, Verb: VerbPut, Body: body, Context: rc})
}

// AddPatch appends a PATCH item decoded into T.
func AddPatch[T any](b *Batch, url string, body any, rc *RequestContext) (int, error) {
	return AddItem[T](b, BatchItem{URL: url, Verb: VerbPatch, Body: body, Context: rc})
}

// AddDelete appends a DELETE item decoded into T.
func AddDelete[T any](b *Batch, url string, rc *RequestContext) (int, error) {
	return AddItem[T](b, BatchItem{URL: url, Verb: VerbDelete, Context: rc})
}

func (b *Batch) snapshot() []BatchItem {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BatchItem(nil), b.items...)
}

// BatchResults holds one outcome per batch index: a result or a failure,
// never both.
type BatchResults struct {
	values []any
	errs   []error
}

func newBatchResults(n int) *BatchResults {
	return &BatchResults{values: make([]any, n), errs: make([]error, n)}
}

// Len returns the number of items in the batch.
func (r *BatchResults) Len() int {
	return len(r.errs)
}

// Count returns the number of successful items.
func (r *BatchResults) Count() int {
	return r.Len() - r.FailedCount()
}

// FailedCount returns the number of failed items.
func (r *BatchResults) FailedCount() int {
	n := 0
	for _, err := range r.errs {
		if err != nil {
			n++
		}
	}
	return n
}

// Result returns the decoded value at index i and whether the item succeeded.
func (r *BatchResults) Result(i int) (any, bool) {
	if i < 0 || i >= r.Len() || r.errs[i] != nil {
		return nil, false
	}
	return r.values[i], true
}

// Err returns the failure recorded at index i, or nil.
func (r *BatchResults) Err(i int) error {
	if i < 0 || i >= r.Len() {
		return fmt.Errorf("batch index %d out of range [0,%d)", i, r.Len())
	}
	return r.errs[i]
}

// Failures returns the failed indices and their errors.
func (r *BatchResults) Failures() map[int]error {
	out := make(map[int]error)
	for i, err := range r.errs {
		if err != nil {
			out[i] = err
		}
	}
	return out
}

// BatchResult returns the value at index i as T. It fails when the item
// failed, i is out of range, or the item was added with a different type.
func BatchResult[T any](r *BatchResults, i int) (T, error) {
	var zero T
	if err := r.Err(i); err != nil {
		return zero, err
	}
	v, ok := r.values[i].(T)
	if !ok {
		return zero, fmt.Errorf("batch index %d holds %T, not %T", i, r.values[i], zero)
	}
	return v, nil
}

// ExecuteBatch runs every item concurrently and waits for all of them. Each
// item uses its own context, else rc, else the dispatcher default. A failing
// item is recorded at its index and never affects its siblings. The returned
// error is reserved for an invalid batch.
func (d *Dispatcher) ExecuteBatch(ctx context.Context, b *Batch, rc *RequestContext) (*BatchResults, error) {
	if b == nil {
		return nil, newValidationError(errNilBatch)
	}
	items := b.snapshot()
	results := newBatchResults(len(items))
	start := time.Now()

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := d.runItem(ctx, i, item, rc)
			// Each goroutine owns its slot; wg.Wait publishes the writes.
			results.values[i] = v
			results.errs[i] = err
		}()
	}
	wg.Wait()

	d.log.WithContext(ctx).Info("batch completed", logger.MergeWithDuration(logger.Fields(
		logger.FieldBatchSize, results.Len(),
		logger.FieldSucceeded, results.Count(),
		logger.FieldFailed, results.FailedCount(),
	), time.Since(start)))
	return results, nil
}

func (d *Dispatcher) runItem(ctx context.Context, index int, item BatchItem, batchCtx *RequestContext) (v any, err error) {
	defer func() {
		if p := recover(); p != nil {
			v = nil
			err = &Error{Code: ErrCodeInternal, Message: fmt.Sprintf("batch item %d panicked: %v", index, p)}
		}
		if err != nil {
			d.log.Debug("batch item failed", logger.Fields(
				logger.FieldBatchIndex, index,
				logger.FieldMethod, item.Verb.String(),
				logger.FieldURL, item.URL,
				logger.FieldError, err.Error(),
			))
		}
	}()

	rc := item.Context
	if rc == nil {
		rc = batchCtx
	}

	method, body, err := d.itemRequest(item)
	if err != nil {
		return nil, err
	}
	decode := item.decode
	if decode == nil {
		decode = decoderFor[any]()
	}

	send := func() error {
		return d.do(ctx, method, item.URL, body, rc, func(resp *InboundMessage) error {
			var decErr error
			v, decErr = decode(ctx, d, resp.Body)
			return decErr
		})
	}
	if d.bulkhead != nil {
		err = d.bulkhead.Do(ctx, send)
	} else {
		err = send()
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

// itemRequest maps a verb to its sending routine.
func (d *Dispatcher) itemRequest(item BatchItem) (string, content, error) {
	switch item.Verb {
	case VerbGet, VerbDelete:
		if item.Body != nil {
			return "", nil, newUnsupportedError(item.Verb.String() + " does not take a body")
		}
		return item.Verb.String(), nil, nil
	case VerbPost, VerbPut, VerbPatch:
		if item.Body == nil {
			return "", nil, newUnsupportedError(item.Verb.String() + " requires a body")
		}
		return item.Verb.String(), d.jsonContent(item.Body), nil
	case verbUnset:
		return "", nil, newUnsupportedError("batch item has no verb")
	default:
		return "", nil, newUnsupportedError("unknown verb " + item.Verb.String())
	}
}
