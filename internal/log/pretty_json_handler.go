package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
)

type PrettyJSONHandlerOptions struct {
	slog.HandlerOptions
	PrettyPrint bool
}

// NewPrettyJSONHandler creates a JSON handler which optionally indents every record. Indenting is
// meant for local development, use compact JSON when logs are shipped.
func NewPrettyJSONHandler(w io.Writer, opts *PrettyJSONHandlerOptions) slog.Handler {
	if opts == nil {
		opts = &PrettyJSONHandlerOptions{}
	}

	if !opts.PrettyPrint {
		return slog.NewJSONHandler(w, &opts.HandlerOptions)
	}

	return slog.NewJSONHandler(indentWriter{w: w}, &opts.HandlerOptions)
}

// indentWriter relies on slog.JSONHandler writing each record using a single call to Write.
type indentWriter struct {
	w io.Writer
}

func (iw indentWriter) Write(p []byte) (int, error) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, p, "", "  "); err != nil {
		return iw.w.Write(p)
	}

	if _, err := iw.w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}
