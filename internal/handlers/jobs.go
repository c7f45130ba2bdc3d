package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/theayooolofin/Ilovevideo/internal/logging"
	"github.com/theayooolofin/Ilovevideo/internal/metrics"
	"github.com/theayooolofin/Ilovevideo/internal/preset"
	"github.com/theayooolofin/Ilovevideo/internal/streaming"
	"github.com/theayooolofin/Ilovevideo/internal/transcode"
)

// Compress transcodes an upload with a named preset.
func (h *Handlers) Compress(w http.ResponseWriter, r *http.Request) {
	h.runJob(w, r, transcode.RunOptions{Kind: "compress"}, func(r *http.Request) ([]string, string, error) {
		id := r.FormValue("preset")
		if id == "" {
			id = "web"
		}
		p, err := preset.Lookup(id)
		if err != nil {
			return nil, "", fmt.Errorf("unknown preset %q (available: %s)", id, strings.Join(preset.IDs(), ", "))
		}
		return p.Args, p.ContentType, nil
	})
}

// Resize transcodes an upload to explicit dimensions.
func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	// Resizing can inflate small inputs, so the size guard is on: when
	// the encode comes out no smaller the original bytes are served.
	h.runJob(w, r, transcode.RunOptions{Kind: "resize", SizeGuard: true}, func(r *http.Request) ([]string, string, error) {
		spec, err := preset.ParseResize(
			r.FormValue("width"),
			r.FormValue("height"),
			r.FormValue("fit"),
			r.FormValue("quality"),
		)
		if err != nil {
			return nil, "", err
		}
		return spec.Args(), spec.ContentType(), nil
	})
}

// argsFunc builds encoder arguments from request parameters. It runs
// after the multipart form is parsed and before any quota is spent.
type argsFunc func(r *http.Request) ([]string, string, error)

// runJob is the shared admission and execution path for transcode
// endpoints: identity, quota, upload validation, commit, run, stream.
func (h *Handlers) runJob(w http.ResponseWriter, r *http.Request, opts transcode.RunOptions, buildArgs argsFunc) {
	ident := h.resolver.Resolve(r)

	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSONError(w, fmt.Sprintf("upload exceeds the %d MiB limit", h.config.MaxUploadSize>>20), http.StatusRequestEntityTooLarge)
			return
		}
		writeJSONError(w, "multipart form field 'file' is required", http.StatusBadRequest)
		return
	}
	defer closeUpload(file)

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !preset.AllowedExtension(header.Filename) {
		writeJSONError(w, fmt.Sprintf("unsupported file type %q", ext), http.StatusUnsupportedMediaType)
		return
	}

	args, contentType, err := buildArgs(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := h.limitFor(ident.Tier)
	admitted, err := h.store.Admit(r.Context(), ident.Key, limit)
	if err != nil {
		logging.Error("Quota admission failed: %v", err)
		writeJSONError(w, "quota check failed", http.StatusInternalServerError)
		return
	}
	if !admitted {
		metrics.QuotaRejections.WithLabelValues(string(ident.Tier)).Inc()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		writeJSON(w, map[string]interface{}{
			"error": "LIMIT_REACHED",
			"limit": *limit,
		})
		return
	}

	job, err := transcode.NewJob(h.config.UploadDir, h.config.OutputDir, file, ext)
	if err != nil {
		logging.Error("Failed to stage upload: %v", err)
		writeJSONError(w, "failed to store upload", http.StatusInternalServerError)
		return
	}
	defer job.Close()

	// Usage is spent once the job is admitted and staged. A failed run
	// still counts: the work was attempted.
	if err := h.store.Commit(r.Context(), ident.Key); err != nil {
		logging.Error("Quota commit failed: %v", err)
		writeJSONError(w, "failed to record usage", http.StatusInternalServerError)
		return
	}

	result, err := h.runner.Run(r.Context(), job, args, opts)
	if err != nil {
		h.writeJobError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(result.OutputBytes, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outputName(header.Filename)))
	w.Header().Set("X-Original-Size", strconv.FormatInt(result.InputBytes, 10))
	w.Header().Set("X-Compressed-Size", strconv.FormatInt(result.OutputBytes, 10))
	w.Header().Set("X-Savings-Percent", fmt.Sprintf("%.1f", result.SavingsPercent()))
	if result.AlreadyOptimized {
		w.Header().Set("X-Already-Optimized", "true")
	}

	out, err := result.Open()
	if err != nil {
		logging.Error("Failed to open job output: %v", err)
		writeJSONError(w, "failed to read output", http.StatusInternalServerError)
		return
	}
	defer closeUpload(out)

	if _, err := streaming.Copy(r.Context(), w, out, streaming.DefaultConfig()); err != nil {
		// Headers are gone at this point; just record why the stream died.
		logging.Warn("Response stream ended early: %v", err)
	}
}

// writeJobError translates runner failures into client responses without
// leaking internal paths.
func (h *Handlers) writeJobError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// Client gone; nothing useful to write.

	case errors.Is(err, transcode.ErrBinaryNotFound):
		writeJSONError(w, "transcoding is temporarily unavailable", http.StatusServiceUnavailable)

	default:
		var procErr *transcode.ProcessError
		if errors.As(err, &procErr) {
			message := "could not process this video"
			if procErr.Tail != "" {
				message = fmt.Sprintf("could not process this video: %s", procErr.Tail)
			}
			writeJSONError(w, message, http.StatusUnprocessableEntity)
			return
		}
		logging.Error("Transcode failed: %v", err)
		writeJSONError(w, "transcode failed", http.StatusInternalServerError)
	}
}

// outputName derives the download filename from the upload's name.
func outputName(uploaded string) string {
	base := filepath.Base(uploaded)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" || stem == "." {
		stem = "video"
	}
	return stem + ".mp4"
}

func closeUpload(c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		logging.Debug("close: %v", err)
	}
}
