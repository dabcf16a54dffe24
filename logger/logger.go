package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// FormatPretty is an alias of the console format.
const FormatPretty = "pretty"

// Logger is a zerolog.Logger that takes its fields as maps.
type Logger struct {
	zl      zerolog.Logger
	service string
}

var global atomic.Pointer[Logger]

// Init builds the process-wide logger from cfg.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	global.Store(New(&cfg, cfg.ServiceName))
}

// GetGlobalLogger returns the process-wide logger. Before Init it is a
// console logger at info level on stderr.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	l := NewDefault("")
	if global.CompareAndSwap(nil, l) {
		return l
	}
	return global.Load()
}

// New creates a logger for serviceName. An unknown level falls back to info.
func New(cfg *Config, serviceName string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var ctx zerolog.Context
	if isConsole(cfg.Format) {
		ctx = zerolog.New(consoleWriter(cfg, serviceName)).With().Timestamp()
	} else {
		ctx = zerolog.New(outputWriter(cfg)).With()
		if cfg.Timestamp {
			ctx = ctx.Timestamp()
		}
	}
	if serviceName != "" {
		ctx = ctx.Str(FieldService, serviceName)
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	return &Logger{zl: ctx.Logger().Level(level), service: serviceName}
}

// NewDefault creates an info-level console logger on stderr.
func NewDefault(serviceName string) *Logger {
	cfg := Config{}
	cfg.ApplyDefaults()
	return New(&cfg, serviceName)
}

// Nop returns a logger that writes nothing.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func (l *Logger) derive(zl zerolog.Logger) *Logger {
	return &Logger{zl: zl, service: l.service}
}

// WithComponent tags every entry with name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.derive(l.zl.With().Str(FieldComponent, name).Logger())
}

// WithContext tags every entry with the request id carried by ctx. Without
// one, l is returned as is.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	id := RequestIDFromContext(ctx)
	if id == "" {
		return l
	}
	return l.derive(l.zl.With().Str(FieldRequestID, id).Logger())
}

// Enabled reports whether an entry at level would be written.
func (l *Logger) Enabled(level zerolog.Level) bool {
	return level >= l.zl.GetLevel() && level >= zerolog.GlobalLevel()
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

// Debug logs on the process-wide logger.
func Debug(msg string, fields ...map[string]any) { GetGlobalLogger().Debug(msg, fields...) }

// Info logs on the process-wide logger.
func Info(msg string, fields ...map[string]any) { GetGlobalLogger().Info(msg, fields...) }

// Warn logs on the process-wide logger.
func Warn(msg string, fields ...map[string]any) { GetGlobalLogger().Warn(msg, fields...) }

// Error logs on the process-wide logger.
func Error(msg string, fields ...map[string]any) { GetGlobalLogger().Error(msg, fields...) }

// WithComponent returns the process-wide logger tagged with name.
func WithComponent(name string) *Logger {
	return GetGlobalLogger().WithComponent(name)
}

type requestIDKey struct{}

// ContextWithRequestID stores id in ctx for loggers and interceptors.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id stored by ContextWithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func emit(e *zerolog.Event, msg string, fields []map[string]any) {
	if e == nil {
		return
	}
	for _, m := range fields {
		e.Fields(m)
	}
	e.Msg(msg)
}

func isConsole(format string) bool {
	switch strings.ToLower(format) {
	case "console", FormatPretty:
		return true
	}
	return false
}

func outputWriter(cfg *Config) io.Writer {
	if cfg.Writer != nil {
		return cfg.Writer
	}
	if strings.EqualFold(cfg.Output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

const (
	ansiReset = "\033[0m"
	ansiBlue  = "\033[34m"
)

var levelTags = map[string]struct{ short, color string }{
	"trace": {"TRC", "\033[90m"},
	"debug": {"DBG", "\033[36m"},
	"info":  {"INF", "\033[32m"},
	"warn":  {"WRN", "\033[33m"},
	"error": {"ERR", "\033[31m"},
	"fatal": {"FTL", "\033[35m"},
}

// consoleWriter prints "[SVC][LVL] message key:value", with the first
// three letters of the service as a prefix.
func consoleWriter(cfg *Config, serviceName string) zerolog.ConsoleWriter {
	prefix := ""
	if len(serviceName) >= 3 {
		prefix = "[" + strings.ToUpper(serviceName[:3]) + "]"
		if !cfg.NoColor {
			prefix = ansiBlue + prefix + ansiReset
		}
	}
	return zerolog.ConsoleWriter{
		Out:        outputWriter(cfg),
		TimeFormat: "15:04:05",
		NoColor:    cfg.NoColor,
		FormatLevel: func(i any) string {
			name := strings.ToLower(fmt.Sprint(i))
			lt, ok := levelTags[name]
			if !ok {
				return prefix + "[" + strings.ToUpper(name) + "]"
			}
			if cfg.NoColor {
				return prefix + "[" + lt.short + "]"
			}
			return prefix + lt.color + "[" + lt.short + "]" + ansiReset
		},
		FormatFieldName: func(i any) string { return fmt.Sprint(i) + ":" },
	}
}
