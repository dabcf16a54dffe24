package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func newBufferLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(&Config{Level: level, Format: "json", Writer: &buf}, "microhttp")
	return l, &buf
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
	if !l.Enabled(zerolog.InfoLevel) || l.Enabled(zerolog.DebugLevel) {
		t.Error("expected info enabled and debug filtered by default")
	}
}

func TestNew_JSONWritesServiceField(t *testing.T) {
	l, buf := newBufferLogger("info")
	l.Info("hello", Fields(FieldClient, "api"))

	out := buf.String()
	if !strings.Contains(out, `"service":"microhttp"`) {
		t.Errorf("expected service field, got %s", out)
	}
	if !strings.Contains(out, `"client":"api"`) {
		t.Errorf("expected client field, got %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("expected message, got %s", out)
	}
}

func TestNew_LevelFilters(t *testing.T) {
	l, buf := newBufferLogger("warn")
	l.Info("dropped")
	l.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("expected info to be filtered, got %s", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("expected warn to be written, got %s", out)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := newBufferLogger("invalid-level")
	l.Info("fallback")
	if !strings.Contains(buf.String(), "fallback") {
		t.Error("expected invalid level to fall back to info")
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("nothing", Fields("a", 1))
	l.WithComponent("x").Info("still nothing")
	if l.Enabled(zerolog.ErrorLevel) {
		t.Error("expected nop logger to report levels disabled")
	}
}

func TestWithComponent(t *testing.T) {
	l, buf := newBufferLogger("info")
	cl := l.WithComponent("dispatch")
	if cl.service != "microhttp" {
		t.Errorf("service should be preserved, got %q", cl.service)
	}
	cl.Info("x")
	if !strings.Contains(buf.String(), `"component":"dispatch"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestWithContext_RequestID(t *testing.T) {
	l, buf := newBufferLogger("info")
	ctx := ContextWithRequestID(context.Background(), "req-1")
	l.WithContext(ctx).Info("x")
	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Errorf("expected request_id field, got %s", buf.String())
	}
}

func TestWithContext_NoRequestID(t *testing.T) {
	l := NewDefault("test")
	if l.WithContext(context.Background()) != l {
		t.Error("expected the same logger when ctx carries no request id")
	}
}

func TestRequestIDFromContext(t *testing.T) {
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("expected output 'stderr', got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp=true")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "info", Format: "json", Output: "stdout"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestConsoleLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Config{Level: "info", Format: "console", NoColor: true, Writer: &buf}, "microhttp")
	l.Info("console line")
	out := buf.String()
	if !strings.Contains(out, "[MIC][INF]") {
		t.Errorf("expected service and level tags, got %q", out)
	}

	buf.Reset()
	New(&Config{Level: "info", Format: FormatPretty, NoColor: true, Writer: &buf}, "").Warn("no prefix")
	if !strings.Contains(buf.String(), "[WRN] no prefix") {
		t.Errorf("expected bare level tag, got %q", buf.String())
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields %v", m)
	}
	if len(m) != 2 {
		t.Errorf("expected 2 fields, got %d", len(m))
	}
}

func TestMergeHelpers(t *testing.T) {
	m := MergeWithError(nil, errors.New("x"))
	if m[FieldError] != "x" {
		t.Errorf("expected error field, got %v", m)
	}
	if got := MergeWithError(Fields("k", 1), nil); len(got) != 1 {
		t.Errorf("expected nil error to add nothing, got %v", got)
	}
	m = MergeWithDuration(m, 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}
