package transcode

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/metrics"
)

// stderrTailBytes bounds how much process output is retained for error
// reporting.
const stderrTailBytes = 500

// ErrBinaryNotFound indicates the transcoder binary is not installed or
// not on PATH.
var ErrBinaryNotFound = errors.New("transcoder binary not found")

// ProcessError reports a transcoder process that started but did not
// produce usable output.
type ProcessError struct {
	ExitCode int
	Tail     string
}

func (e *ProcessError) Error() string {
	if e.Tail == "" {
		return fmt.Sprintf("transcoder exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("transcoder exited with code %d: %s", e.ExitCode, e.Tail)
}

// Result describes a finished transcode. When the output came out larger
// than the input, Path points back at the original upload and
// AlreadyOptimized is set.
type Result struct {
	Path             string
	InputBytes       int64
	OutputBytes      int64
	AlreadyOptimized bool
}

// Open returns a reader over the bytes to serve to the client.
func (r *Result) Open() (io.ReadCloser, error) {
	return os.Open(r.Path)
}

// SavingsPercent returns the size reduction as a percentage of the input.
func (r *Result) SavingsPercent() float64 {
	if r.InputBytes == 0 {
		return 0
	}
	return float64(r.InputBytes-r.OutputBytes) / float64(r.InputBytes) * 100
}

// RunOptions controls a single Run.
type RunOptions struct {
	// Kind labels the operation for metrics and logs ("compress" or
	// "resize").
	Kind string
	// SizeGuard serves the original input when the encode comes out no
	// smaller. Resize jobs want this; compress jobs return the encoder
	// output as-is.
	SizeGuard bool
}

// Runner executes transcoder processes with bounded concurrency.
type Runner struct {
	binary string
	sem    chan struct{}
}

// NewRunner creates a runner using the given binary. maxConcurrent <= 0
// means unbounded.
func NewRunner(binary string, maxConcurrent int) *Runner {
	r := &Runner{binary: binary}
	if maxConcurrent > 0 {
		r.sem = make(chan struct{}, maxConcurrent)
	}
	return r
}

// Run transcodes the job's input into its output path using the given
// encoder arguments.
func (r *Runner) Run(ctx context.Context, job *Job, args []string, opts RunOptions) (*Result, error) {
	if r.sem != nil {
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			metrics.JobsTotal.WithLabelValues(opts.Kind, "aborted").Inc()
			return nil, ctx.Err()
		}
	}

	metrics.ProcessesActive.Inc()
	defer metrics.ProcessesActive.Dec()

	start := time.Now()
	result, err := r.run(ctx, job, args, opts.SizeGuard)
	duration := time.Since(start)

	metrics.JobDuration.WithLabelValues(opts.Kind).Observe(duration.Seconds())

	switch {
	case err == nil:
		metrics.JobsTotal.WithLabelValues(opts.Kind, "success").Inc()
		metrics.JobInputBytes.Add(float64(result.InputBytes))
		metrics.JobOutputBytes.Add(float64(result.OutputBytes))
		if result.AlreadyOptimized {
			metrics.JobSizeGuardFallbacks.Inc()
		}
		logging.Info("Job %s: %s finished in %v (%d -> %d bytes)",
			job.ID, opts.Kind, duration.Round(time.Millisecond), result.InputBytes, result.OutputBytes)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.JobsTotal.WithLabelValues(opts.Kind, "aborted").Inc()
		logging.Info("Job %s: %s aborted after %v", job.ID, opts.Kind, duration.Round(time.Millisecond))
	default:
		metrics.JobsTotal.WithLabelValues(opts.Kind, "failed").Inc()
		logging.Error("Job %s: %s failed after %v: %v", job.ID, opts.Kind, duration.Round(time.Millisecond), err)
	}

	return result, err
}

func (r *Runner) run(ctx context.Context, job *Job, args []string, sizeGuard bool) (*Result, error) {
	cmdArgs := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", job.InputPath}
	cmdArgs = append(cmdArgs, args...)
	cmdArgs = append(cmdArgs, job.OutputPath)

	logging.Debug("Job %s: running %s %s", job.ID, r.binary, strings.Join(cmdArgs, " "))

	cmd := exec.CommandContext(ctx, r.binary, cmdArgs...)
	var stderr tailWriter
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, ErrBinaryNotFound
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ProcessError{
				ExitCode: exitErr.ExitCode(),
				Tail:     stderr.Tail(),
			}
		}

		return nil, fmt.Errorf("failed to run transcoder: %w", err)
	}

	info, err := os.Stat(job.OutputPath)
	if err != nil {
		// Zero exit but no output file still counts as a process failure.
		return nil, &ProcessError{ExitCode: 0, Tail: stderr.Tail()}
	}

	result := &Result{
		Path:        job.OutputPath,
		InputBytes:  job.InputBytes,
		OutputBytes: info.Size(),
	}

	// Size guard: if the encode came out no smaller, the original wins.
	if sizeGuard && result.OutputBytes >= job.InputBytes {
		result.Path = job.InputPath
		result.OutputBytes = job.InputBytes
		result.AlreadyOptimized = true
		logging.Debug("Job %s: output not smaller than input, serving original", job.ID)
	}

	return result, nil
}

// tailWriter retains the last stderrTailBytes of everything written to it.
type tailWriter struct {
	buf []byte
}

func (w *tailWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	if len(w.buf) > stderrTailBytes {
		w.buf = w.buf[len(w.buf)-stderrTailBytes:]
	}
	return len(p), nil
}

func (w *tailWriter) Tail() string {
	return strings.TrimSpace(string(w.buf))
}
