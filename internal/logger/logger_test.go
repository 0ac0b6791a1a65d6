package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/promptarena/promptarena/internal/config"
)

func TestNew(t *testing.T) {
	l, closer := New(config.Logging{Level: "debug", Service: "test-svc"})
	defer closer.Close()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewAsync(t *testing.T) {
	l, closer := New(config.Logging{Level: "debug", Service: "test-svc", Async: true})
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	l.Info("buffered record")
	closer.Close()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debug", "DEBUG"},
		{"info", "INFO"},
		{"warn", "WARN"},
		{"warning", "WARN"},
		{"error", "ERROR"},
		{"unknown", "INFO"},
		{"", "INFO"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input).String()
			if got != tt.want {
				t.Errorf("parseLevel(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()

	if got := RequestID(ctx); got != "" {
		t.Errorf("expected empty request ID, got %q", got)
	}

	ctx = WithRequestID(ctx, "abc123")
	if got := RequestID(ctx); got != "abc123" {
		t.Errorf("expected abc123, got %q", got)
	}
}

// countingHandler records how many records it handled.
type countingHandler struct {
	mu    sync.Mutex
	count int
}

func (h *countingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *countingHandler) Handle(context.Context, slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	return nil
}

func (h *countingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *countingHandler) WithGroup(string) slog.Handler      { return h }

func TestAsyncHandlerDeliversAll(t *testing.T) {
	inner := &countingHandler{}
	async := NewAsyncHandler(inner, 64, 2)
	l := slog.New(async)

	for i := 0; i < 50; i++ {
		l.Info("msg")
	}
	async.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.count != 50 {
		t.Errorf("expected 50 records handled, got %d", inner.count)
	}
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	inner := &countingHandler{}
	// Zero workers: nothing drains, so the buffer fills immediately.
	async := NewAsyncHandler(inner, 2, 0)

	l := slog.New(async)
	for i := 0; i < 10; i++ {
		l.Info("msg")
	}

	if async.Dropped() != 8 {
		t.Errorf("expected 8 dropped records, got %d", async.Dropped())
	}
}

func TestAsyncHandlerDerivedSharesBuffer(t *testing.T) {
	inner := &countingHandler{}
	async := NewAsyncHandler(inner, 64, 1)

	l := slog.New(async).With("service", "test")
	l.Info("derived record")
	async.Close()

	inner.mu.Lock()
	defer inner.mu.Unlock()
	if inner.count != 1 {
		t.Errorf("expected derived logger record handled, got %d", inner.count)
	}
}
