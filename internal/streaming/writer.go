package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/theayooolofin/Ilovevideo/internal/logging"
)

// Sentinel errors for streaming operations.
var (
	// ErrWriteTimeout indicates that a write exceeded the configured
	// timeout, typically a client receiving data too slowly.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone indicates that the client disconnected before the
	// stream completed, detected via request context cancellation.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamCanceled indicates the stream was canceled
	// programmatically.
	ErrStreamCanceled = errors.New("stream canceled")
)

// Config controls the timeout writer behavior.
type Config struct {
	// WriteTimeout is the maximum time for a single write.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between successful writes.
	IdleTimeout time.Duration
	// ChunkSize is the size of chunks to write (0 = write as received).
	ChunkSize int
}

// DefaultConfig returns the defaults used for video responses.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    256 * 1024,
	}
}

// Writer wraps an http.ResponseWriter with timeout protection so a stalled
// or vanished client cannot pin a transcode job's resources forever.
type Writer struct {
	w         http.ResponseWriter
	ctx       context.Context
	cancel    context.CancelFunc
	config    Config
	lastWrite time.Time
	written   int64
	mu        sync.Mutex
	closed    bool
	flusher   http.Flusher
}

// NewWriter creates a timeout-protected writer bound to ctx.
func NewWriter(ctx context.Context, w http.ResponseWriter, config Config) *Writer {
	writerCtx, cancel := context.WithCancel(ctx)

	sw := &Writer{
		w:         w,
		ctx:       writerCtx,
		cancel:    cancel,
		config:    config,
		lastWrite: time.Now(),
	}

	if flusher, ok := w.(http.Flusher); ok {
		sw.flusher = flusher
	}

	go sw.idleChecker()

	return sw
}

// Write implements io.Writer with timeout protection.
func (sw *Writer) Write(p []byte) (int, error) {
	sw.mu.Lock()
	closed := sw.closed
	sw.mu.Unlock()
	if closed {
		return 0, ErrStreamCanceled
	}

	select {
	case <-sw.ctx.Done():
		return 0, sw.contextError()
	default:
	}

	if sw.config.ChunkSize > 0 && len(p) > sw.config.ChunkSize {
		return sw.writeChunked(p)
	}

	return sw.writeWithTimeout(p)
}

// writeChunked writes data in smaller flushed chunks so the client sees
// bytes as soon as the external process produces them.
func (sw *Writer) writeChunked(p []byte) (int, error) {
	total := 0

	for len(p) > 0 {
		select {
		case <-sw.ctx.Done():
			return total, sw.contextError()
		default:
		}

		chunk := sw.config.ChunkSize
		if len(p) < chunk {
			chunk = len(p)
		}

		n, err := sw.writeWithTimeout(p[:chunk])
		total += n
		if err != nil {
			return total, err
		}

		p = p[chunk:]

		if sw.flusher != nil {
			sw.flusher.Flush()
		}
	}

	return total, nil
}

func (sw *Writer) writeWithTimeout(p []byte) (int, error) {
	type writeResult struct {
		n   int
		err error
	}
	resultCh := make(chan writeResult, 1)

	go func() {
		n, err := sw.w.Write(p)
		resultCh <- writeResult{n, err}
	}()

	select {
	case result := <-resultCh:
		if result.err == nil {
			sw.mu.Lock()
			sw.lastWrite = time.Now()
			sw.written += int64(result.n)
			sw.mu.Unlock()
		}
		return result.n, result.err

	case <-time.After(sw.config.WriteTimeout):
		sw.cancel()
		return 0, ErrWriteTimeout

	case <-sw.ctx.Done():
		return 0, sw.contextError()
	}
}

// idleChecker cancels streams that stop making progress.
func (sw *Writer) idleChecker() {
	if sw.config.IdleTimeout <= 0 {
		return
	}

	ticker := time.NewTicker(sw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sw.mu.Lock()
			idle := time.Since(sw.lastWrite)
			closed := sw.closed
			sw.mu.Unlock()

			if closed {
				return
			}

			if idle > sw.config.IdleTimeout {
				logging.Warn("Stream idle timeout exceeded: %v", idle)
				sw.cancel()
				return
			}

		case <-sw.ctx.Done():
			return
		}
	}
}

func (sw *Writer) contextError() error {
	if errors.Is(sw.ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ErrStreamCanceled
}

// Close marks the writer as closed. Safe to call multiple times.
func (sw *Writer) Close() error {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	if sw.closed {
		return nil
	}

	sw.closed = true
	sw.cancel()
	return nil
}

// BytesWritten returns the number of bytes successfully written.
func (sw *Writer) BytesWritten() int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.written
}

// Copy streams from r to the HTTP response with timeout protection and
// returns the number of bytes written.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, config Config) (int64, error) {
	sw := NewWriter(ctx, w, config)
	defer func() {
		if err := sw.Close(); err != nil {
			logging.Warn("Failed to close stream writer: %v", err)
		}
	}()

	w.Header().Set("X-Content-Type-Options", "nosniff")

	_, err := io.Copy(sw, r)

	logging.Debug("Stream completed: %d bytes", sw.BytesWritten())
	return sw.BytesWritten(), err
}
