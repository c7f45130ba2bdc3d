package streaming

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWriterBasic(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewWriter(context.Background(), rec, DefaultConfig())
	defer sw.Close()

	data := []byte("hello, world")
	n, err := sw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}
	if got := rec.Body.String(); got != "hello, world" {
		t.Errorf("Expected body %q, got %q", "hello, world", got)
	}
	if sw.BytesWritten() != int64(len(data)) {
		t.Errorf("Expected BytesWritten %d, got %d", len(data), sw.BytesWritten())
	}
}

func TestWriterChunked(t *testing.T) {
	rec := httptest.NewRecorder()
	config := DefaultConfig()
	config.ChunkSize = 4

	sw := NewWriter(context.Background(), rec, config)
	defer sw.Close()

	data := []byte(strings.Repeat("abcd", 10))
	n, err := sw.Write(data)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if n != len(data) {
		t.Errorf("Expected %d bytes written, got %d", len(data), n)
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("Chunked write corrupted data")
	}
}

func TestWriterClientGone(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	sw := NewWriter(ctx, rec, DefaultConfig())
	defer sw.Close()

	cancel()
	// Give the derived context a moment to observe cancellation.
	time.Sleep(10 * time.Millisecond)

	_, err := sw.Write([]byte("data"))
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("Expected ErrClientGone, got %v", err)
	}
}

func TestWriterClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	sw := NewWriter(context.Background(), rec, DefaultConfig())

	if err := sw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := sw.Close(); err != nil {
		t.Errorf("Second Close should be nil, got %v", err)
	}

	_, err := sw.Write([]byte("data"))
	if !errors.Is(err, ErrStreamCanceled) {
		t.Errorf("Expected ErrStreamCanceled after Close, got %v", err)
	}
}

func TestCopy(t *testing.T) {
	rec := httptest.NewRecorder()
	src := strings.Repeat("x", 1024)

	n, err := Copy(context.Background(), rec, strings.NewReader(src), DefaultConfig())
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if n != int64(len(src)) {
		t.Errorf("Expected %d bytes, got %d", len(src), n)
	}
	if rec.Body.String() != src {
		t.Error("Copy corrupted data")
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff header, got %q", got)
	}
}
