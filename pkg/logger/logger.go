package logger

import (
	"log"
	"log/slog"
)

// New returns a stdlib-compatible logger that forwards into base with a component attribute.
// Libraries that only accept Printf/Println loggers (the Telegram client) log through it.
func New(base *slog.Logger, component string) *log.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.NewLogLogger(base.With("component", component).Handler(), slog.LevelDebug)
}
