package transcode

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// writeStub creates a fake encoder script that writes output bytes of a
// given size, or fails with a message on stderr.
func writeStub(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("stub encoder scripts require a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-encoder")
	content := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("Failed to write stub encoder: %v", err)
	}
	return path
}

// scratchDirs returns fresh upload and output directories.
func scratchDirs(t *testing.T) (string, string) {
	t.Helper()
	base := t.TempDir()
	uploads := filepath.Join(base, "uploads")
	outputs := filepath.Join(base, "outputs")
	for _, dir := range []string{uploads, outputs} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}
	return uploads, outputs
}

func newTestJob(t *testing.T, input string) *Job {
	t.Helper()
	uploads, outputs := scratchDirs(t)
	job, err := NewJob(uploads, outputs, strings.NewReader(input), ".mp4")
	if err != nil {
		t.Fatalf("NewJob failed: %v", err)
	}
	t.Cleanup(job.Close)
	return job
}

func TestNewJob(t *testing.T) {
	job := newTestJob(t, "fake video data")

	if job.InputBytes != int64(len("fake video data")) {
		t.Errorf("Expected %d input bytes, got %d", len("fake video data"), job.InputBytes)
	}

	data, err := os.ReadFile(job.InputPath)
	if err != nil {
		t.Fatalf("Failed to read scratch file: %v", err)
	}
	if string(data) != "fake video data" {
		t.Errorf("Scratch file content mismatch: %q", data)
	}

	if job.InputPath == job.OutputPath {
		t.Error("Input and output paths should differ")
	}
}

func TestJobClose(t *testing.T) {
	job := newTestJob(t, "data")

	if err := os.WriteFile(job.OutputPath, []byte("out"), 0o644); err != nil {
		t.Fatalf("Failed to create output file: %v", err)
	}

	job.Close()
	job.Close() // idempotent

	for _, path := range []string{job.InputPath, job.OutputPath} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("Expected %s removed after Close", path)
		}
	}
}

func TestRunnerSuccess(t *testing.T) {
	// Writes a 4-byte output: smaller than any realistic input.
	stub := writeStub(t, `for out; do :; done; printf "out!" > "$out"`)
	job := newTestJob(t, strings.Repeat("x", 1024))

	runner := NewRunner(stub, 2)
	result, err := runner.Run(context.Background(), job, []string{"-c:v", "libx264"}, RunOptions{Kind: "compress"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AlreadyOptimized {
		t.Error("Expected AlreadyOptimized false for smaller output")
	}
	if result.OutputBytes != 4 {
		t.Errorf("Expected 4 output bytes, got %d", result.OutputBytes)
	}
	if result.Path != job.OutputPath {
		t.Errorf("Expected result path %s, got %s", job.OutputPath, result.Path)
	}

	rc, err := result.Open()
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "out!" {
		t.Errorf("Expected output %q, got %q", "out!", data)
	}
}

func TestRunnerSizeGuard(t *testing.T) {
	// Output larger than input with the guard on: the original must be
	// served.
	stub := writeStub(t, `for out; do :; done; head -c 2048 /dev/zero > "$out"`)
	job := newTestJob(t, "tiny")

	runner := NewRunner(stub, 0)
	result, err := runner.Run(context.Background(), job, nil, RunOptions{Kind: "resize", SizeGuard: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.AlreadyOptimized {
		t.Error("Expected AlreadyOptimized true for larger output")
	}
	if result.Path != job.InputPath {
		t.Errorf("Expected original path %s, got %s", job.InputPath, result.Path)
	}
	if result.OutputBytes != job.InputBytes {
		t.Errorf("Expected output bytes %d, got %d", job.InputBytes, result.OutputBytes)
	}
}

func TestRunnerSizeGuardOff(t *testing.T) {
	// Without the guard a larger encode is still the result. Compress
	// runs take whatever the encoder produced.
	stub := writeStub(t, `for out; do :; done; head -c 2048 /dev/zero > "$out"`)
	job := newTestJob(t, "tiny")

	runner := NewRunner(stub, 0)
	result, err := runner.Run(context.Background(), job, nil, RunOptions{Kind: "compress"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.AlreadyOptimized {
		t.Error("Expected AlreadyOptimized false with the guard off")
	}
	if result.Path != job.OutputPath {
		t.Errorf("Expected encoder output path %s, got %s", job.OutputPath, result.Path)
	}
	if result.OutputBytes != 2048 {
		t.Errorf("Expected 2048 output bytes, got %d", result.OutputBytes)
	}
}

func TestRunnerProcessError(t *testing.T) {
	stub := writeStub(t, `echo "codec not supported" >&2; exit 1`)
	job := newTestJob(t, "data")

	runner := NewRunner(stub, 0)
	_, err := runner.Run(context.Background(), job, nil, RunOptions{Kind: "compress"})

	var procErr *ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("Expected ProcessError, got %v", err)
	}
	if procErr.ExitCode != 1 {
		t.Errorf("Expected exit code 1, got %d", procErr.ExitCode)
	}
	if !strings.Contains(procErr.Tail, "codec not supported") {
		t.Errorf("Expected stderr tail in error, got %q", procErr.Tail)
	}
}

func TestRunnerNoOutput(t *testing.T) {
	// Zero exit but no output file.
	stub := writeStub(t, `exit 0`)
	job := newTestJob(t, "data")

	runner := NewRunner(stub, 0)
	_, err := runner.Run(context.Background(), job, nil, RunOptions{Kind: "compress"})

	var procErr *ProcessError
	if !errors.As(err, &procErr) {
		t.Fatalf("Expected ProcessError for missing output, got %v", err)
	}
	if procErr.ExitCode != 0 {
		t.Errorf("Expected exit code 0, got %d", procErr.ExitCode)
	}
}

func TestRunnerBinaryNotFound(t *testing.T) {
	job := newTestJob(t, "data")

	runner := NewRunner("/nonexistent/encoder-binary", 0)
	_, err := runner.Run(context.Background(), job, nil, RunOptions{Kind: "compress"})
	if !errors.Is(err, ErrBinaryNotFound) {
		t.Errorf("Expected ErrBinaryNotFound, got %v", err)
	}
}

func TestRunnerCanceled(t *testing.T) {
	stub := writeStub(t, `sleep 10`)
	job := newTestJob(t, "data")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(stub, 0)
	_, err := runner.Run(ctx, job, nil, RunOptions{Kind: "compress"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestProcessErrorMessage(t *testing.T) {
	err := &ProcessError{ExitCode: 187, Tail: "moov atom not found"}
	msg := err.Error()
	if !strings.Contains(msg, "187") || !strings.Contains(msg, "moov atom not found") {
		t.Errorf("Unexpected error message: %s", msg)
	}

	bare := &ProcessError{ExitCode: 1}
	if bare.Error() != "transcoder exited with code 1" {
		t.Errorf("Unexpected bare message: %s", bare.Error())
	}
}

func TestSavingsPercent(t *testing.T) {
	tests := []struct {
		name     string
		in, out  int64
		expected float64
	}{
		{"half", 1000, 500, 50},
		{"none", 1000, 1000, 0},
		{"zero input", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Result{InputBytes: tt.in, OutputBytes: tt.out}
			if got := r.SavingsPercent(); got != tt.expected {
				t.Errorf("Expected %.1f%%, got %.1f%%", tt.expected, got)
			}
		})
	}
}
