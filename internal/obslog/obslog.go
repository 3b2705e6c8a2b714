// Package obslog configures structured logging for cmd/lendingd.
package obslog

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileRotation configures on-disk log rotation via lumberjack. A zero value
// disables rotation and logs are written to stdout only.
type FileRotation struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Setup configures the standard library logger to emit structured JSON and
// returns the underlying slog.Logger. All log lines include the service name
// and environment when provided. When rotation.Path is non-empty, log output
// is duplicated to a lumberjack-managed rotating file alongside stdout.
func Setup(service, env string, rotation FileRotation) *slog.Logger {
	var writer io.Writer = os.Stdout
	if strings.TrimSpace(rotation.Path) != "" {
		rotator := &lumberjack.Logger{
			Filename:   rotation.Path,
			MaxSize:    nonZero(rotation.MaxSizeMB, 100),
			MaxBackups: nonZero(rotation.MaxBackups, 5),
			MaxAge:     nonZero(rotation.MaxAgeDays, 28),
			Compress:   rotation.Compress,
		}
		writer = io.MultiWriter(os.Stdout, rotator)
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{
		AddSource: false,
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.TimeKey:
				return slog.Attr{Key: "timestamp", Value: attr.Value}
			case slog.LevelKey:
				return slog.String("severity", strings.ToUpper(attr.Value.String()))
			case slog.MessageKey:
				return slog.Attr{Key: "message", Value: attr.Value}
			default:
				return attr
			}
		},
	})

	attrs := []any{slog.String("service", strings.TrimSpace(service))}
	if env = strings.TrimSpace(env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}

	logger := slog.New(handler).With(attrs...)
	slog.SetDefault(logger)
	return logger
}

func nonZero(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}
