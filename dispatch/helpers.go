package dispatch

import (
	"bytes"
	"errors"
	"io"
	"strconv"

	"github.com/rs/zerolog"
)

var (
	errNoResponse  = errors.New("transport returned no response")
	errNilConsumer = errors.New("stream consumer is required")
	errNilBatch    = errors.New("batch is required")
	errNilUpload   = errors.New("file upload is required")
)

const debugLevel = zerolog.DebugLevel

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func quote(s string) string {
	if s == "" {
		return `"" (default)`
	}
	return strconv.Quote(s)
}
