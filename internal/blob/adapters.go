package blob

import (
	"context"

	fsstore "keibacore/internal/infra/blob/fs"
	memorystore "keibacore/internal/infra/blob/memory"
	s3store "keibacore/internal/infra/blob/s3"
)

// NewFilesystem constructs a filesystem-backed blob.Store rooted at the
// provided path. Returns the interface so call sites depend on it rather
// than the concrete implementation.
func NewFilesystem(root string) (Store, error) {
	return fsstore.New(root)
}

// NewMemory returns an in-memory blob.Store suitable for tests.
func NewMemory() Store { return memorystore.New() }

// S3Config re-exports the infra S3 configuration type.
type S3Config = s3store.Config

// NewS3 constructs an S3-backed blob.Store from the provided configuration.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return s3store.New(ctx, cfg)
}

// OpenS3FromEnv constructs an S3 store using environment variables.
func OpenS3FromEnv(ctx context.Context) (Store, error) {
	return s3store.OpenFromEnv(ctx)
}

// NewMockS3ForTests exposes the lightweight in-memory mock for
// cross-package tests.
func NewMockS3ForTests() Store { return s3store.NewMockForTests() }
