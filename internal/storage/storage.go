// Package storage provides output file storage for exported crops.
// It defines the Storage port together with a local-disk implementation
// and an optional S3-backed one for durable delivery.
package storage

import (
	"context"
	"io"
)

// Storage defines the interface for storing and serving exported crop
// files.
type Storage interface {
	// OutputPath returns the on-disk path an output with the given
	// name should be written to. The name is sanitized to its base
	// component.
	OutputPath(name string) string

	// OpenOutput opens a previously written output for reading.
	// The caller is responsible for closing the returned ReadCloser.
	OpenOutput(ctx context.Context, name string) (io.ReadCloser, error)

	// RemoveOutputs deletes the named outputs. It continues even if
	// some files fail to delete.
	RemoveOutputs(ctx context.Context, names []string) error

	// UploadOutput uploads an output to S3 and returns the public URL.
	// Returns ErrS3NotConfigured if S3 is not configured.
	UploadOutput(ctx context.Context, key string, data io.Reader) (url string, err error)
}
