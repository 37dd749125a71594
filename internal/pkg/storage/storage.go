// Package storage abstracts the object store holding exported audit
// archives. S3, Google Cloud Storage and MinIO are supported; the
// driver is chosen once at startup via Open.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Driver names accepted by Open.
const (
	DriverS3    = "s3"
	DriverGCS   = "gcs"
	DriverMinIO = "minio"
)

var (
	// ErrUnknownDriver indicates a driver name Open does not recognize.
	ErrUnknownDriver = errors.New("storage: unknown driver")

	// ErrMissingSigner indicates the driver cannot produce signed URLs
	// with its current credentials.
	ErrMissingSigner = errors.New("storage: url signer is not configured")
)

// Storage reads and writes objects in a bucket.
type Storage interface {
	io.Closer

	// PutObject streams r into bucket/key and returns the stored
	// object's metadata.
	PutObject(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)

	// GetObject opens bucket/key for reading. The caller closes the
	// reader.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)

	// DeleteObject removes bucket/key.
	DeleteObject(ctx context.Context, bucket, key string) error

	// ListObjects returns objects under the prefix, up to limit when
	// limit is positive.
	ListObjects(ctx context.Context, bucket, prefix string, limit int32) ([]ObjectInfo, error)

	// PresignGet returns a time-limited download URL for bucket/key.
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions describes the object being uploaded.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is the metadata of a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	Size        int64
	ETag        string
	ContentType string
	Metadata    map[string]string
	UpdatedAt   time.Time
}

// DriverConfig carries the per-driver settings; only the block matching
// the selected driver is read.
type DriverConfig struct {
	S3    S3Options
	GCS   GCSOptions
	MinIO MinIOOptions
}

// Open builds the Storage named by driver.
func Open(ctx context.Context, driver string, cfg DriverConfig) (Storage, error) {
	switch strings.ToLower(driver) {
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	case DriverGCS:
		return NewGCS(ctx, cfg.GCS)
	case DriverMinIO:
		return NewMinIO(cfg.MinIO)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
