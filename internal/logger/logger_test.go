package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWritesToFile(t *testing.T) {
	t.Cleanup(Close)
	path := filepath.Join(t.TempDir(), "taskmesh.log")
	if err := Init(path, false); err != nil {
		t.Fatalf("init: %v", err)
	}

	ComponentLogger("update").Info("entered profile", "profile", "work")

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "entered profile") || !strings.Contains(out, "component=update") {
		t.Fatalf("expected component log line, got %q", out)
	}
}

func TestDebugLevelToggle(t *testing.T) {
	t.Cleanup(Close)
	var buf bytes.Buffer
	InitWriter(&buf, false)

	log := ComponentLogger("test")
	log.Debug("hidden")
	InitWriter(&buf, true)
	ComponentLogger("test").Debug("shown")

	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line written at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("expected debug line with debug enabled: %q", buf.String())
	}
}

func TestComponentLoggerBeforeInitDiscards(t *testing.T) {
	Close()
	ComponentLogger("quiet").Error("nobody sees this")
}

func TestInitFailsForMissingDirectory(t *testing.T) {
	if err := Init(filepath.Join(t.TempDir(), "missing", "x.log"), false); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
