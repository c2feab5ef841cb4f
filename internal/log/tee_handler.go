package log

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// TeeHandler fans every log record out to multiple slog handlers.
// It is used to write the same record to the console and to the run's
// log file, each at its own level.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because:
//  1. It integrates seamlessly with standard slog APIs
//  2. Each destination keeps its own handler options and level
//  3. Callers hold a plain *slog.Logger and never see the fan-out
type TeeHandler struct {
	// handlers are the underlying handlers that receive each record.
	handlers []slog.Handler
}

// NewTeeHandler creates a TeeHandler fanning out to the given handlers.
// Nil handlers are skipped.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	kept := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	return &TeeHandler{handlers: kept}
}

// Enabled reports whether any underlying handler handles records at the
// given level.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle passes the record to every underlying handler that accepts its
// level. A failing destination does not stop the others.
func (h *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WithAttrs returns a new handler with the given attributes added to
// every underlying handler.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		handlers[i] = hh.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: handlers}
}

// WithGroup returns a new handler with the given group name applied to
// every underlying handler.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		handlers[i] = hh.WithGroup(name)
	}
	return &TeeHandler{handlers: handlers}
}

// consoleLevel maps the verbose flag to the console log level.
func consoleLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewLogger creates a slog.Logger writing text records to w.
//
// Parameters:
//   - w: The io.Writer to write log output to (typically os.Stderr)
//   - verbose: If true, sets log level to Debug; otherwise Info
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: consoleLevel(verbose)}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewRunLogger creates a slog.Logger fanning out to the console and the
// run log file. The console honors the verbose flag; the log file
// always records debug level so the run directory keeps a full trace.
func NewRunLogger(console, logFile io.Writer, verbose bool) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{
		Level: consoleLevel(verbose),
	})

	var fileHandler slog.Handler
	if logFile != nil {
		fileHandler = slog.NewTextHandler(logFile, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	return slog.New(NewTeeHandler(consoleHandler, fileHandler))
}

// OpenRunLog opens the run log file for appending, creating it if
// needed.
func OpenRunLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return f, nil
}
