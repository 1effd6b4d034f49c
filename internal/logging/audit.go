package logging

import (
	"context"
	"log/slog"
)

// Logger wraps slog for structured audit lines about D-Bus calls.
type Logger struct {
	*slog.Logger
	client string
}

// New creates an audit logger on top of base. A nil base uses the
// process default.
func New(base *slog.Logger, client string) *Logger {
	if base == nil {
		base = slog.Default()
	}
	return &Logger{
		Logger: base,
		client: client,
	}
}

// WithClient returns a new Logger with the specified client name.
func (l *Logger) WithClient(client string) *Logger {
	return &Logger{
		Logger: l.Logger,
		client: client,
	}
}

// LogMethod logs a D-Bus method call with its result.
func (l *Logger) LogMethod(ctx context.Context, method string, args map[string]any, result string, err error) {
	attrs := []slog.Attr{
		slog.String("client", l.client),
		slog.String("method", method),
		slog.String("result", result),
	}
	for k, v := range args {
		attrs = append(attrs, slog.Any(k, v))
	}
	level := slog.LevelInfo
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		level = slog.LevelWarn
	}

	l.LogAttrs(ctx, level, "dbus_call", attrs...)
}

// LogGetFacts logs a GetFacts call and whether the cache served it.
func (l *Logger) LogGetFacts(ctx context.Context, count int, cached bool, result string, err error) {
	l.LogMethod(ctx, "GetFacts", map[string]any{
		"fact_count": count,
		"cached":     cached,
	}, result, err)
}

// LogRefresh logs a forced recollection.
func (l *Logger) LogRefresh(ctx context.Context, count int, result string, err error) {
	l.LogMethod(ctx, "Refresh", map[string]any{"fact_count": count}, result, err)
}

// LogSetProperty logs a property write on a read-write bag.
func (l *Logger) LogSetProperty(ctx context.Context, iface, property string, value any, result string, err error) {
	l.LogMethod(ctx, "Set", map[string]any{
		"interface": iface,
		"property":  property,
		"value":     value,
	}, result, err)
}
