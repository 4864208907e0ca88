// Package logger writes structured logs to a file, since the terminal is
// owned by the UI while the program runs.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	mu       sync.Mutex
	base     *slog.Logger
	logFile  *os.File
	levelVar = new(slog.LevelVar)
)

// Init opens path for appending and routes all component loggers to it.
// Calling Init again replaces the previous destination.
func Init(path string, debug bool) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file %s: %w", path, err)
	}

	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
	}
	logFile = f
	setLevelLocked(debug)
	base = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: levelVar}))
	base.Info("logger initialized", "path", path)
	return nil
}

// InitWriter is Init for an arbitrary writer; used by tests.
func InitWriter(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	setLevelLocked(debug)
	base = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: levelVar}))
}

func setLevelLocked(debug bool) {
	if debug {
		levelVar.Set(slog.LevelDebug)
	} else {
		levelVar.Set(slog.LevelInfo)
	}
}

// ComponentLogger returns a logger tagged with component. Before Init it
// discards everything so that library code and tests never write to stderr
// underneath the UI.
func ComponentLogger(component string) *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil)).With(slog.String("component", component))
	}
	return base.With(slog.String("component", component))
}

func Close() {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	base = nil
}
