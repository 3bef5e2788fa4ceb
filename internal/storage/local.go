package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// LocalStorage implements the Storage interface using local disk.
// Outputs live in a single flat directory; names are reduced to their
// base component so callers cannot escape it.
type LocalStorage struct {
	outputDir string
}

// NewLocalStorage creates a new LocalStorage instance rooted at
// outputDir. If outputDir is empty, a directory under os.TempDir() is
// used. The directory is created if it doesn't exist.
func NewLocalStorage(outputDir string) (*LocalStorage, error) {
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), "speakersplit")
	}

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	return &LocalStorage{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path.
func (s *LocalStorage) OutputDir() string {
	return s.outputDir
}

// OutputPath returns the path inside the output directory for the
// given name, reduced to its base component.
func (s *LocalStorage) OutputPath(name string) string {
	return filepath.Join(s.outputDir, filepath.Base(name))
}

// OpenOutput opens a previously written output for reading.
func (s *LocalStorage) OpenOutput(ctx context.Context, name string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	f, err := os.Open(s.OutputPath(name)) // #nosec G304 - path is confined to the output directory
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}

	return f, nil
}

// RemoveOutputs deletes the named outputs. It continues even if some
// files fail to delete, returning the first error encountered.
func (s *LocalStorage) RemoveOutputs(ctx context.Context, names []string) error {
	var firstErr error
	for _, name := range names {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(s.OutputPath(name)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove output file %s: %w", name, err)
			}
		}
	}
	return firstErr
}

// UploadOutput is not supported by LocalStorage and returns
// ErrS3NotConfigured.
func (s *LocalStorage) UploadOutput(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
