package logger

import (
	"context"
	"io"
	"net/http"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/angelmondragon/estatedesk-backend/pkg/env"
	pkgerrors "github.com/angelmondragon/estatedesk-backend/pkg/errors"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures the structured logger.
type Options struct {
	ServiceName string
	Level       zerolog.Level
	WarnStack   bool
	Output      io.Writer
	// Format is FormatJSON or FormatConsole; empty reads LOG_FORMAT.
	Format string
}

// Logger writes zerolog entries enriched with the fields carried on the context.
type Logger struct {
	base      *zerolog.Logger
	warnStack bool
}

type entryKey struct{}

// Scope identifies the unit sale a log entry belongs to. Empty fields are skipped.
type Scope struct {
	BuildingID string
	UnitID     string
	SaleID     string
	State      string
}

func New(opts Options) *Logger {
	if opts.Level == zerolog.NoLevel {
		opts.Level = zerolog.InfoLevel
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	format := opts.Format
	if format == "" {
		format = env.Get("LOG_FORMAT", FormatJSON)
	}
	if strings.EqualFold(format, FormatConsole) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	base := zerolog.New(out).
		With().
		Timestamp().
		Str("service", opts.ServiceName).
		Logger().
		Level(opts.Level)
	return &Logger{base: &base, warnStack: opts.WarnStack}
}

// Nop returns a logger that discards every entry.
func Nop() *Logger {
	base := zerolog.Nop()
	return &Logger{base: &base}
}

func ParseLevel(value string) zerolog.Level {
	raw := strings.ToLower(strings.TrimSpace(value))
	if raw == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(raw)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (l *Logger) entry(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if e, ok := ctx.Value(entryKey{}).(*zerolog.Logger); ok {
			return e
		}
	}
	return l.base
}

func (l *Logger) extend(ctx context.Context, build func(zerolog.Context) zerolog.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	next := build(l.entry(ctx).With()).Logger()
	return context.WithValue(ctx, entryKey{}, &next)
}

func (l *Logger) WithField(ctx context.Context, key string, value any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Interface(key, value)
	})
}

func (l *Logger) WithFields(ctx context.Context, fields map[string]any) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		return c.Fields(fields)
	})
}

func (l *Logger) WithRequestID(ctx context.Context, requestID string) context.Context {
	return l.WithField(ctx, "request_id", requestID)
}

func (l *Logger) WithUserID(ctx context.Context, userID string) context.Context {
	return l.WithField(ctx, "user_id", userID)
}

func (l *Logger) WithActorRole(ctx context.Context, role string) context.Context {
	return l.WithField(ctx, "actor_role", role)
}

// WithScope tags every later entry with the sale it concerns.
func (l *Logger) WithScope(ctx context.Context, s Scope) context.Context {
	return l.extend(ctx, func(c zerolog.Context) zerolog.Context {
		if s.BuildingID != "" {
			c = c.Str("building_id", s.BuildingID)
		}
		if s.UnitID != "" {
			c = c.Str("unit_id", s.UnitID)
		}
		if s.SaleID != "" {
			c = c.Str("sale_id", s.SaleID)
		}
		if s.State != "" {
			c = c.Str("sale_state", s.State)
		}
		return c
	})
}

func (l *Logger) Info(ctx context.Context, msg string) {
	l.entry(ctx).Info().Msg(msg)
}

func (l *Logger) Warn(ctx context.Context, msg string) {
	event := l.entry(ctx).Warn()
	if l.warnStack {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

// Error logs err. Coded errors add their code, reason, the state they stopped
// at and the collections already written. Client errors (4xx) carry no stack.
func (l *Logger) Error(ctx context.Context, msg string, err error) {
	event := l.entry(ctx).Error()
	if err == nil {
		event.Str("stack", stackTrace()).Msg(msg)
		return
	}
	event = event.Err(err)
	typed := pkgerrors.As(err)
	if typed != nil {
		event = event.Str("error_code", string(typed.Code()))
		if details, ok := typed.Details().(map[string]any); ok {
			if reason, ok := details["reason"].(string); ok && reason != "" {
				event = event.Str("error_reason", reason)
			}
			if state, ok := details["state"].(string); ok && state != "" {
				event = event.Str("error_state", state)
			}
			if mutated, ok := details["mutated"].([]string); ok {
				event = event.Strs("error_mutated", mutated)
			}
		}
	}
	if typed == nil || pkgerrors.MetadataFor(typed.Code()).HTTPStatus >= http.StatusInternalServerError {
		event = event.Str("stack", stackTrace())
	}
	event.Msg(msg)
}

func stackTrace() string {
	return strings.TrimSpace(string(debug.Stack()))
}
