package log

import (
	"fmt"
	"io"
	"log/slog"

	apperrors "github.com/olusolaa/appliance-converge/internal/errors"
)

// Level and Format mirror settings.log_level and settings.log_format
// (CONVERGE_SETTINGS_LOG_LEVEL, CONVERGE_SETTINGS_LOG_FORMAT).
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var slogLevels = map[Level]slog.Level{
	LevelDebug: slog.LevelDebug,
	LevelInfo:  slog.LevelInfo,
	LevelWarn:  slog.LevelWarn,
	LevelError: slog.LevelError,
}

// slogLevel maps l onto slog. Empty means info.
func (l Level) slogLevel() (slog.Level, error) {
	if l == "" {
		return slog.LevelInfo, nil
	}
	if lvl, ok := slogLevels[l]; ok {
		return lvl, nil
	}
	return slog.LevelInfo, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
		fmt.Sprintf("unknown log level %q", l),
		"Set settings.log_level (or --log-level) to one of debug, info, warn, error.")
}

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

func (f Format) handler(w io.Writer, opts *slog.HandlerOptions) (slog.Handler, error) {
	switch f {
	case FormatText, "":
		return slog.NewTextHandler(w, opts), nil
	case FormatJSON:
		return slog.NewJSONHandler(w, opts), nil
	}
	return nil, apperrors.NewUserFacing(apperrors.CodeConfigValidation,
		fmt.Sprintf("unknown log format %q", f),
		"Set settings.log_format (or --log-format) to text or json.")
}

// Config selects the logger built by NewLogger. The zero value logs text at
// info level.
type Config struct {
	Level  Level
	Format Format
}
