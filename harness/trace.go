package harness

import (
	"context"
	"log/slog"
)

// LevelTrace sits just above Info so notable simulation events stand out
// from regular logs.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a notable simulation event through the default slog handler.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}
