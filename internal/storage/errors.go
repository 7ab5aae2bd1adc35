package storage

import (
	"errors"
	"fmt"
)

// Backend error codes that callers commonly branch on.
const (
	CodeNoSuchUpload     = "NoSuchUpload"
	CodeNoSuchKey        = "NoSuchKey"
	CodeNoSuchBucket     = "NoSuchBucket"
	CodeAccessDenied     = "AccessDenied"
	CodeInvalidPart      = "InvalidPart"
	CodeInvalidPartOrder = "InvalidPartOrder"
	CodeEntityTooSmall   = "EntityTooSmall"
	CodeMalformedXML     = "MalformedXML"
)

// StorageError wraps any failure reported by a backend. Code and Message carry
// the backend's own diagnostics when it provided them.
type StorageError struct {
	// Op is the gateway operation that failed (e.g. "createMultipartUpload")
	Op       string
	Bucket   string
	Key      string
	UploadID string
	Code     string
	Message  string
	Err      error
}

func (e *StorageError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	target := e.Key
	if e.Bucket != "" {
		target = e.Bucket + "/" + e.Key
	}
	if e.Code != "" {
		return fmt.Sprintf("storage.%s %s: %s: %s", e.Op, target, e.Code, msg)
	}
	return fmt.Sprintf("storage.%s %s: %s", e.Op, target, msg)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a StorageError for a missing upload,
// object or bucket.
func IsNotFound(err error) bool {
	var se *StorageError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case CodeNoSuchUpload, CodeNoSuchKey, CodeNoSuchBucket:
		return true
	}
	return false
}

// IsAccessDenied reports whether err is a StorageError for a permission failure.
func IsAccessDenied(err error) bool {
	var se *StorageError
	return errors.As(err, &se) && se.Code == CodeAccessDenied
}

// IsInvalidRequest reports whether the backend rejected the caller's parts list.
func IsInvalidRequest(err error) bool {
	var se *StorageError
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code {
	case CodeInvalidPart, CodeInvalidPartOrder, CodeEntityTooSmall, CodeMalformedXML:
		return true
	}
	return false
}
