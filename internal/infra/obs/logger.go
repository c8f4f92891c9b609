package obs

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// NewLogger configures slog with colourful output for dev/local and JSON
// elsewhere. Dev environments also log at debug level.
func NewLogger(env string) *slog.Logger {
	return NewLoggerTo(os.Stdout, env)
}

func NewLoggerTo(w io.Writer, env string) *slog.Logger {
	if env == "dev" || env == "local" {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.RFC3339,
			AddSource:  true,
		}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     slog.LevelInfo,
		AddSource: true,
	})).With("service", "staybook", "env", env)
}

// Discard returns a logger that drops every record; used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
