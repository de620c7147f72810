package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Services receive it via constructor options
// rather than reaching for a global.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}
