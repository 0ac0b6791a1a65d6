package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// queued pairs a record with the derived handler that must process it, so
// handlers produced by WithAttrs/WithGroup share one buffer and worker pool.
type queued struct {
	rec   slog.Record
	inner slog.Handler
}

// asyncCore is the shared buffer and worker pool behind every AsyncHandler
// derived from the same root.
type asyncCore struct {
	mu      sync.RWMutex // guards ch against send-after-close
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
	closed  atomic.Bool
}

func (c *asyncCore) drain() {
	defer c.wg.Done()
	for q := range c.ch {
		_ = q.inner.Handle(context.Background(), q.rec)
	}
}

func (c *asyncCore) enqueue(q queued) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed.Load() {
		c.dropped.Add(1)
		return
	}
	select {
	case c.ch <- q:
	default:
		c.dropped.Add(1)
	}
}

// AsyncHandler decouples log emission from IO with a buffered channel and a
// small worker pool. Records are dropped (and counted) when the buffer is
// full rather than blocking the caller.
type AsyncHandler struct {
	core  *asyncCore
	inner slog.Handler
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and
// worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	core := &asyncCore{ch: make(chan queued, chanSize)}
	for i := 0; i < workers; i++ {
		core.wg.Add(1)
		go core.drain()
	}
	return &AsyncHandler{core: core, inner: inner}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record. Drops if the buffer is full or the handler
// is closed.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler requires a value receiver argument
	h.core.enqueue(queued{rec: rec, inner: h.inner})
	return nil
}

// WithAttrs returns a handler sharing this handler's buffer and workers.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{core: h.core, inner: h.inner.WithAttrs(attrs)}
}

// WithGroup returns a handler sharing this handler's buffer and workers.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{core: h.core, inner: h.inner.WithGroup(name)}
}

// Dropped returns the number of records dropped due to a full buffer.
func (h *AsyncHandler) Dropped() int64 {
	return h.core.dropped.Load()
}

// Close stops accepting records, drains the buffer, and waits for workers.
// Closing any derived handler closes the shared pool.
func (h *AsyncHandler) Close() {
	h.core.mu.Lock()
	if h.core.closed.Swap(true) {
		h.core.mu.Unlock()
		return
	}
	close(h.core.ch)
	h.core.mu.Unlock()
	h.core.wg.Wait()
}
