package storage

import (
	"context"
	"time"
)

// DefaultPresignedURLExpiry bounds how long an attachment URL stays usable.
const DefaultPresignedURLExpiry = 15 * time.Minute

// FileStorage is the object store behind entry attachments (progress photos,
// form-check videos). Uploads and downloads go straight to the provider via
// presigned URLs; the API server never proxies file bytes.
type FileStorage interface {
	// GeneratePresignedUploadURL creates a temporary URL accepting a PUT of
	// the object. The uploader must send the same Content-Type it was
	// presigned with.
	GeneratePresignedUploadURL(ctx context.Context, objectKey string, contentType string, expires time.Duration) (string, error)

	// GeneratePresignedDownloadURL creates a temporary URL allowing a GET of
	// the object.
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error)

	// DeleteObject removes an object from the store.
	DeleteObject(ctx context.Context, objectKey string) error
}
