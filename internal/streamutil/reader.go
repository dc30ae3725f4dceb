// Package streamutil provides streaming helpers shared by the API layer.
package streamutil

import (
	"context"
	"io"
	"sync"
	"sync/atomic"

	log "github.com/nvbach/llm-bridge/internal/logging"
)

// Reader wraps an upstream response body with context-aware cancellation.
// When the context is cancelled the body is closed immediately, unblocking
// any pending Read so the consumer goroutine can exit. The translator core
// carries no timeout logic; cancellation is the caller's responsibility and
// arrives through the context.
type Reader struct {
	body      io.ReadCloser
	ctx       context.Context
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
	stop      chan struct{}
	name      string
}

// NewReader creates a context-aware reader over body. name is used for
// logging only.
func NewReader(ctx context.Context, body io.ReadCloser, name string) *Reader {
	r := &Reader{
		body: body,
		ctx:  ctx,
		stop: make(chan struct{}),
		name: name,
	}
	go r.watchContext()
	return r
}

// watchContext closes the body when the context is cancelled, immediately
// unblocking any pending Read.
func (r *Reader) watchContext() {
	select {
	case <-r.ctx.Done():
		r.closeWithReason("context cancelled")
	case <-r.stop:
	}
}

// Read implements io.Reader.
func (r *Reader) Read(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, io.EOF
	}
	return r.body.Read(p)
}

func (r *Reader) closeWithReason(reason string) {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		r.closeErr = r.body.Close()
		log.Debugf("%s: stream closed: %s", r.name, reason)
	})
}

// Close implements io.Closer. Safe to call multiple times.
func (r *Reader) Close() error {
	r.closeWithReason("explicit close")
	select {
	case <-r.stop:
	default:
		close(r.stop)
	}
	return r.closeErr
}
