package internal

import (
	"log/slog"
	"os"
	"strings"
)

// Logger builds the process-wide slog logger from the LOG_LEVEL setting.
// Unknown values fall back to info rather than failing startup.
func Logger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: l}))
}
