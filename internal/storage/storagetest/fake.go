// Package storagetest provides an in-memory storage.Gateway for tests.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/stefando/multipartUpload/internal/storage"
)

type session struct {
	bucket    string
	key       string
	completed bool
}

// Fake is a storage.Gateway that keeps upload sessions in memory and mimics
// the backend's rejection of unknown or already completed uploads.
type Fake struct {
	// BaseURL prefixes generated part URLs.
	BaseURL string

	// PresignDelay, when set, is slept before presigning a part. It lets tests
	// make presign calls finish out of order.
	PresignDelay func(partNumber int32) time.Duration

	// Per-operation failure injection. A non-nil return aborts the call.
	CreateErr   func(key string) error
	PresignErr  func(partNumber int32) error
	CompleteErr func(key, uploadID string) error

	CreateCalls   atomic.Int32
	PresignCalls  atomic.Int32
	CompleteCalls atomic.Int32
	AbortCalls    atomic.Int32

	mu       sync.Mutex
	sessions map[string]*session
	// LastContentType is the content type passed to the most recent create.
	LastContentType string
	// LastParts holds the parts passed to the most recent completion.
	LastParts []storage.CompletedPart
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		BaseURL:  "https://storage.test",
		sessions: make(map[string]*session),
	}
}

// TotalCalls reports how many gateway calls were made.
func (f *Fake) TotalCalls() int32 {
	return f.CreateCalls.Load() + f.PresignCalls.Load() + f.CompleteCalls.Load() + f.AbortCalls.Load()
}

func (f *Fake) CreateMultipartUpload(_ context.Context, bucket, key, contentType string) (string, error) {
	f.CreateCalls.Add(1)
	if f.CreateErr != nil {
		if err := f.CreateErr(key); err != nil {
			return "", &storage.StorageError{Op: "createMultipartUpload", Bucket: bucket, Key: key, Err: err}
		}
	}

	id := uuid.NewString()
	f.mu.Lock()
	f.sessions[id] = &session{bucket: bucket, key: key}
	f.LastContentType = contentType
	f.mu.Unlock()
	return id, nil
}

func (f *Fake) PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int32, expiry time.Duration) (string, error) {
	f.PresignCalls.Add(1)
	if f.PresignDelay != nil {
		select {
		case <-time.After(f.PresignDelay(partNumber)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.PresignErr != nil {
		if err := f.PresignErr(partNumber); err != nil {
			return "", &storage.StorageError{Op: "presignPartUpload", Bucket: bucket, Key: key, UploadID: uploadID, Err: err}
		}
	}
	return fmt.Sprintf("%s/%s/%s?uploadId=%s&partNumber=%d&expires=%d",
		f.BaseURL, bucket, key, uploadID, partNumber, int(expiry.Seconds())), nil
}

func (f *Fake) CompleteMultipartUpload(_ context.Context, bucket, key, uploadID string, parts []storage.CompletedPart) (*storage.CompletionResult, error) {
	f.CompleteCalls.Add(1)
	if f.CompleteErr != nil {
		if err := f.CompleteErr(key, uploadID); err != nil {
			return nil, &storage.StorageError{Op: "completeMultipartUpload", Bucket: bucket, Key: key, UploadID: uploadID, Err: err}
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.LastParts = parts

	s, ok := f.sessions[uploadID]
	if !ok || s.completed || s.key != key || s.bucket != bucket {
		return nil, &storage.StorageError{
			Op: "completeMultipartUpload", Bucket: bucket, Key: key, UploadID: uploadID,
			Code:    storage.CodeNoSuchUpload,
			Message: "The specified upload does not exist.",
		}
	}
	if len(parts) == 0 {
		return nil, &storage.StorageError{
			Op: "completeMultipartUpload", Bucket: bucket, Key: key, UploadID: uploadID,
			Code:    storage.CodeMalformedXML,
			Message: "The XML you provided was not well-formed.",
		}
	}
	s.completed = true

	return &storage.CompletionResult{
		Location: fmt.Sprintf("%s/%s/%s", f.BaseURL, bucket, key),
		Bucket:   bucket,
		Key:      key,
		ETag:     fmt.Sprintf("\"%s-%d\"", uploadID[:8], len(parts)),
	}, nil
}

func (f *Fake) AbortMultipartUpload(_ context.Context, bucket, key, uploadID string) error {
	f.AbortCalls.Add(1)

	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[uploadID]
	if !ok || s.key != key || s.bucket != bucket {
		return &storage.StorageError{
			Op: "abortMultipartUpload", Bucket: bucket, Key: key, UploadID: uploadID,
			Code:    storage.CodeNoSuchUpload,
			Message: "The specified upload does not exist.",
		}
	}
	delete(f.sessions, uploadID)
	return nil
}
