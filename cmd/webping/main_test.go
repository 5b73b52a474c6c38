package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// executeCmd runs the root command with args and returns captured output.
func executeCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestVersionCmd(t *testing.T) {
	output, err := executeCmd(t, "version")
	if err != nil {
		t.Fatalf("version command error = %v", err)
	}
	if output != "webping dev\n  commit: none\n  built:  unknown\n" {
		t.Errorf("unexpected version output:\n%s", output)
	}
}

func TestNewLogger_JSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, false, false)
	logger.Info("hello", "k", "v")
	logger.Debug("hidden")

	out := buf.String()
	if !bytes.HasPrefix([]byte(out), []byte("{")) {
		t.Errorf("expected JSON output, got %q", out)
	}
	if bytes.Contains([]byte(out), []byte("hidden")) {
		t.Errorf("debug record logged at info level: %q", out)
	}
}

func TestNewLogger_Debug(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, true, true)
	logger.Debug("shown")

	if !bytes.Contains(buf.Bytes(), []byte(`"msg":"shown"`)) {
		t.Errorf("expected debug record, got %q", buf.String())
	}
}
