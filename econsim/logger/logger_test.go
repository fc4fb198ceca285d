package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"testing"
	"time"
)

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() error = %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading captured output: %v", err)
	}
	return string(out)
}

func testRecord(level slog.Level, msg string) slog.Record {
	var pcs [1]uintptr
	runtime.Callers(1, pcs[:])
	return slog.NewRecord(time.Now(), level, msg, pcs[0])
}

func TestHandlerEnabled(t *testing.T) {
	h := NewHandler(slog.LevelInfo, false)
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled at info level")
	}
	if !h.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("warn disabled at info level")
	}
}

func TestHandlerSourceLocation(t *testing.T) {
	tests := []struct {
		name       string
		addSource  bool
		wantSource bool
	}{
		{"source attached", true, true},
		{"source omitted", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(slog.LevelInfo, tt.addSource)
			out := captureOutput(t, func() {
				if err := h.Handle(context.Background(), testRecord(slog.LevelInfo, "tick started")); err != nil {
					t.Errorf("Handle() error = %v", err)
				}
			})
			if got := strings.Contains(out, "source=logger_test.go:"); got != tt.wantSource {
				t.Errorf("output %q source presence = %v, want %v", out, got, tt.wantSource)
			}
			if !strings.Contains(out, "tick started") {
				t.Errorf("output %q missing message", out)
			}
		})
	}
}
