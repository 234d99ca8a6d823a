// Package logging builds the process logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New returns a text logger at debug level in development and a JSON logger
// at info level everywhere else.
func New(env string) *slog.Logger {
	return NewWithWriter(env, os.Stdout)
}

func NewWithWriter(env string, w io.Writer) *slog.Logger {
	if strings.EqualFold(strings.TrimSpace(env), "development") {
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// Discard is a logger that drops everything, for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Event logs one service action with the module/action keys every service
// uses. Payloads must be summarized by the caller; secrets never go here.
func Event(l *slog.Logger, requestID, module, action, msg string, args ...any) {
	attrs := append([]any{"module", module, "action", action, "request_id", requestID}, args...)
	l.Info(msg, attrs...)
}
