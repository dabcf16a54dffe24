package cli

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	apperrors "github.com/kbukum/microhttp/errors"
)

var reportJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// renderError writes err to w. Dispatch and application errors render as
// their JSON error response; anything else (flags, files) as a plain line.
func renderError(w io.Writer, err error) {
	var conv apperrors.Converter
	if !errors.As(err, &conv) && !apperrors.IsAppError(err) {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	data, mErr := reportJSON.MarshalIndent(apperrors.FromError(err).ToResponse(), "", "  ")
	if mErr != nil {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	_, _ = fmt.Fprintln(w, string(data))
}
