// Package storage defines the boundary between the upload orchestrator and an
// object store that speaks the multipart-upload protocol.
package storage

import (
	"context"
	"sort"
	"time"
)

// DefaultPresignExpiry is how long a part upload URL stays valid when the
// caller does not configure an expiry.
const DefaultPresignExpiry = time.Hour

// MaxPartNumber is the highest part number the multipart protocol accepts.
const MaxPartNumber = 10000

// Gateway is the capability set the orchestrator needs from a backend.
// Implementations are built once at startup and shared by all requests.
type Gateway interface {
	// CreateMultipartUpload opens a new upload session for key and returns
	// the backend-issued upload id.
	CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error)

	// PresignPartUpload returns a URL that allows a single PUT of one part
	// of the given upload session, valid for expiry.
	PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int32, expiry time.Duration) (string, error)

	// CompleteMultipartUpload assembles the uploaded parts into the final
	// object. The backend verifies part numbers and ETags.
	CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []CompletedPart) (*CompletionResult, error)

	// AbortMultipartUpload discards the upload session and any uploaded parts.
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error
}

// CompletedPart is a part the caller uploaded, identified by its number and
// the ETag storage returned for it.
type CompletedPart struct {
	PartNumber int32  `json:"part_number"`
	ETag       string `json:"etag"`
}

// CompletionResult describes the object produced by a completed upload.
type CompletionResult struct {
	Location  string `json:"location"`
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ETag      string `json:"etag,omitempty"`
	VersionID string `json:"version_id,omitempty"`
}

// SortedParts returns a copy of parts in ascending part-number order, which is
// the order the completion APIs require on the wire.
func SortedParts(parts []CompletedPart) []CompletedPart {
	sorted := make([]CompletedPart, len(parts))
	copy(sorted, parts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PartNumber < sorted[j].PartNumber
	})
	return sorted
}
