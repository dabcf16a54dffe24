package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// ContentTypeJSON is the content type produced by Encode.
const ContentTypeJSON = "application/json"

const (
	// maxEncodeDepth bounds pointer/container nesting on write; deeper values
	// are treated as cyclic.
	maxEncodeDepth = 1000
	// streamBufferSize is the read buffer used by DecodeStream.
	streamBufferSize = 4096
)

var (
	// ErrEmpty is returned when a payload is empty, whitespace, or the JSON literal null.
	ErrEmpty = errors.New("codec: empty or null payload")
	// ErrCyclic is returned when a value nests deeper than the encoder allows.
	ErrCyclic = errors.New("codec: value is cyclic or nested too deeply")
)

// Codec encodes and decodes JSON bodies with a fixed set of Options.
type Codec struct {
	api  jsoniter.API
	opts Options
}

// New builds a Codec for opts.
func New(opts Options) *Codec {
	opts.ApplyDefaults()
	api := jsoniter.Config{
		EscapeHTML:             false,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		CaseSensitive:          !opts.CaseInsensitive,
	}.Froze()

	api.RegisterExtension(&namingExtension{policy: opts.Naming})
	api.RegisterExtension(&depthExtension{})
	if opts.OmitNull {
		api.RegisterExtension(&omitNullExtension{})
	}
	if opts.LenientNumbers {
		api.RegisterExtension(&lenientNumberExtension{})
	}
	return &Codec{api: api, opts: opts}
}

// Default returns a Codec built from DefaultOptions.
func Default() *Codec {
	return New(DefaultOptions())
}

// Options returns the options the codec was built with.
func (c *Codec) Options() Options {
	return c.opts
}

// ContentType returns the content type of encoded bodies.
func (c *Codec) ContentType() string {
	return ContentTypeJSON
}

// Encode serializes v.
func (c *Codec) Encode(v any) ([]byte, error) {
	stream := c.api.BorrowStream(nil)
	defer c.api.ReturnStream(stream)

	state := &encodeState{}
	stream.Attachment = state
	stream.WriteVal(v)
	if state.exceeded {
		return nil, fmt.Errorf("codec: encode %T: %w", v, ErrCyclic)
	}
	if stream.Error != nil {
		return nil, fmt.Errorf("codec: encode %T: %w", v, stream.Error)
	}
	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// Decode parses data into target, which must be a non-nil pointer.
// Empty, whitespace-only and null payloads return ErrEmpty.
func (c *Codec) Decode(data []byte, target any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrEmpty
	}
	if err := c.api.Unmarshal(trimmed, target); err != nil {
		return fmt.Errorf("codec: decode into %T: %w", target, err)
	}
	return nil
}

// DecodeStream reads a top-level JSON array from r element by element.
// A null document yields an empty slice; an empty document returns ErrEmpty.
// An array cut off before its ']' fails with io.ErrUnexpectedEOF, and
// anything but whitespace after the ']' is an error.
func DecodeStream[T any](c *Codec, r io.Reader) ([]T, error) {
	iter := jsoniter.Parse(c.api, r, streamBufferSize)
	items := make([]T, 0)

	switch next := iter.WhatIsNext(); next {
	case jsoniter.NilValue:
		iter.Skip()
		if iter.Error != nil && iter.Error != io.EOF {
			return nil, fmt.Errorf("codec: decode stream: %w", iter.Error)
		}
		return items, nil
	case jsoniter.ArrayValue:
	case jsoniter.InvalidValue:
		if iter.Error == nil || iter.Error == io.EOF {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("codec: decode stream: %w", iter.Error)
	default:
		return nil, fmt.Errorf("codec: decode stream: expected array, got %s", valueTypeName(next))
	}

	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		var item T
		it.ReadVal(&item)
		if it.Error != nil {
			return false
		}
		items = append(items, item)
		return true
	})
	// A closed array never reads past its ']', so EOF here means the
	// stream was cut off inside the array.
	switch iter.Error {
	case nil:
	case io.EOF:
		return nil, fmt.Errorf("codec: decode stream element %d: %w", len(items), io.ErrUnexpectedEOF)
	default:
		return nil, fmt.Errorf("codec: decode stream element %d: %w", len(items), iter.Error)
	}

	iter.WhatIsNext()
	switch iter.Error {
	case io.EOF:
		return items, nil
	case nil:
		return nil, fmt.Errorf("codec: decode stream: unexpected data after array")
	default:
		return nil, fmt.Errorf("codec: decode stream: %w", iter.Error)
	}
}

func valueTypeName(t jsoniter.ValueType) string {
	switch t {
	case jsoniter.StringValue:
		return "string"
	case jsoniter.NumberValue:
		return "number"
	case jsoniter.BoolValue:
		return "bool"
	case jsoniter.ObjectValue:
		return "object"
	case jsoniter.ArrayValue:
		return "array"
	case jsoniter.NilValue:
		return "null"
	default:
		return "invalid"
	}
}
