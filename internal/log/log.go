package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olusolaa/appliance-converge/internal/core/ports"
	apperrors "github.com/olusolaa/appliance-converge/internal/errors"
)

type slogAdapter struct {
	logger *slog.Logger
}

// NewLogger builds a logger writing to stderr.
func NewLogger(cfg Config) (ports.Logger, error) {
	return NewLoggerWithWriter(cfg, os.Stderr)
}

func NewLoggerWithWriter(cfg Config, w io.Writer) (ports.Logger, error) {
	level, err := cfg.Level.slogLevel()
	if err != nil {
		return nil, err
	}
	handler, err := cfg.Format.handler(w, &slog.HandlerOptions{Level: level})
	if err != nil {
		return nil, err
	}
	return &slogAdapter{logger: slog.New(handler)}, nil
}

func (s *slogAdapter) log(ctx context.Context, level slog.Level, err error, format string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !s.logger.Enabled(ctx, level) {
		return
	}

	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	var attrs []slog.Attr
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			attrs = append(attrs, slog.String("error_code", string(appErr.Code)))
			if appErr.InternalDetails != "" {
				attrs = append(attrs, slog.String("error_details", appErr.InternalDetails))
			}
			if appErr.WrappedError != nil {
				attrs = append(attrs, slog.String("error_wrapped", appErr.WrappedError.Error()))
			} else {
				attrs = append(attrs, slog.String("error", appErr.Message))
			}
		} else {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
	}

	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

func (s *slogAdapter) Debugf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelDebug, nil, format, args...)
}

func (s *slogAdapter) Infof(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelInfo, nil, format, args...)
}

func (s *slogAdapter) Warnf(ctx context.Context, format string, args ...any) {
	s.log(ctx, slog.LevelWarn, nil, format, args...)
}

func (s *slogAdapter) Errorf(ctx context.Context, err error, format string, args ...any) {
	s.log(ctx, slog.LevelError, err, format, args...)
}

func (s *slogAdapter) WithFields(fields map[string]any) ports.Logger {
	anyAttrs := make([]any, 0, len(fields))
	for k, v := range fields {
		anyAttrs = append(anyAttrs, slog.Any(k, v))
	}
	return &slogAdapter{logger: s.logger.With(anyAttrs...)}
}

type nopLogger struct{}

// Nop returns a logger that discards everything.
func Nop() ports.Logger { return nopLogger{} }

func (nopLogger) Debugf(context.Context, string, ...any)        {}
func (nopLogger) Infof(context.Context, string, ...any)         {}
func (nopLogger) Warnf(context.Context, string, ...any)         {}
func (nopLogger) Errorf(context.Context, error, string, ...any) {}
func (n nopLogger) WithFields(map[string]any) ports.Logger      { return n }
