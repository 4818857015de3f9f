// Package logging configures the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
)

// New builds an slog text logger writing to stdout. Debug mode lowers the
// level and adds source locations.
func New(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})

	return slog.New(handler)
}
