package transcode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/theayooolofin/Ilovevideo/internal/logging"
)

// Job holds the scratch files for a single transcode operation. Both the
// input and output paths are uniquely named so concurrent jobs never
// collide, and Close removes them regardless of how the job ended.
type Job struct {
	ID         string
	InputPath  string
	OutputPath string
	InputBytes int64

	closeOnce sync.Once
}

// NewJob drains the upload stream into a scratch file and prepares a
// unique output path. The caller must Close the job when finished.
func NewJob(uploadDir, outputDir string, src io.Reader, ext string) (*Job, error) {
	id := uuid.New().String()

	job := &Job{
		ID:         id,
		InputPath:  filepath.Join(uploadDir, id+ext),
		OutputPath: filepath.Join(outputDir, id+".mp4"),
	}

	in, err := os.Create(job.InputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch file: %w", err)
	}

	written, err := io.Copy(in, src)
	if closeErr := in.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		job.Close()
		return nil, fmt.Errorf("failed to buffer upload: %w", err)
	}

	job.InputBytes = written
	logging.Debug("Job %s: buffered %d input bytes", id, written)
	return job, nil
}

// Close removes the job's scratch files. Safe to call multiple times;
// missing files are not an error since the sweeper may get there first.
func (j *Job) Close() {
	j.closeOnce.Do(func() {
		for _, path := range []string{j.InputPath, j.OutputPath} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				logging.Warn("Job %s: failed to remove %s: %v", j.ID, path, err)
			}
		}
	})
}
