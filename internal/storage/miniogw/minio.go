// Package miniogw implements storage.Gateway for MinIO and other
// S3-compatible servers through the minio-go low-level Core API.
package miniogw

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/stefando/multipartUpload/internal/storage"
)

// coreAPI is the subset of *minio.Core used by the gateway.
type coreAPI interface {
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)
	CompleteMultipartUpload(ctx context.Context, bucket, object, uploadID string, parts []minio.CompletePart, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error
	Presign(ctx context.Context, method, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error)
}

// Options configures the MinIO connection.
type Options struct {
	Endpoint        string // host[:port], or a URL whose scheme selects TLS
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	UseSSL          bool
}

// Gateway talks to a MinIO server.
type Gateway struct {
	core coreAPI
}

var _ storage.Gateway = (*Gateway)(nil)

// New connects a minio Core client. No request is made until first use.
func New(opts Options) (*Gateway, error) {
	endpoint, secure := splitEndpoint(opts.Endpoint, opts.UseSSL)
	if endpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}

	core, err := minio.NewCore(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: secure,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio core client: %w", err)
	}

	slog.Info("minio gateway initialized", "endpoint", endpoint, "secure", secure)
	return NewWithCore(core), nil
}

// NewWithCore wraps an existing core client.
func NewWithCore(core coreAPI) *Gateway {
	return &Gateway{core: core}
}

func splitEndpoint(endpoint string, useSSL bool) (string, bool) {
	if !strings.Contains(endpoint, "://") {
		return endpoint, useSSL
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return endpoint, useSSL
	}
	return u.Host, u.Scheme == "https"
}

func (g *Gateway) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	uploadID, err := g.core.NewMultipartUpload(ctx, bucket, key, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", convertError("createMultipartUpload", bucket, key, "", err)
	}
	return uploadID, nil
}

func (g *Gateway) PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int32, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = storage.DefaultPresignExpiry
	}

	params := url.Values{}
	params.Set("partNumber", strconv.Itoa(int(partNumber)))
	params.Set("uploadId", uploadID)

	u, err := g.core.Presign(ctx, http.MethodPut, bucket, key, expiry, params)
	if err != nil {
		se := convertError("presignPartUpload", bucket, key, uploadID, err)
		se.Err = fmt.Errorf("part %d: %w", partNumber, err)
		return "", se
	}
	return u.String(), nil
}

func (g *Gateway) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []storage.CompletedPart) (*storage.CompletionResult, error) {
	sorted := storage.SortedParts(parts)
	minioParts := make([]minio.CompletePart, 0, len(sorted))
	for _, p := range sorted {
		minioParts = append(minioParts, minio.CompletePart{
			PartNumber: int(p.PartNumber),
			ETag:       p.ETag,
		})
	}

	info, err := g.core.CompleteMultipartUpload(ctx, bucket, key, uploadID, minioParts, minio.PutObjectOptions{})
	if err != nil {
		return nil, convertError("completeMultipartUpload", bucket, key, uploadID, err)
	}

	result := &storage.CompletionResult{
		Location:  info.Location,
		Bucket:    info.Bucket,
		Key:       info.Key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
	}
	if result.Bucket == "" {
		result.Bucket = bucket
	}
	if result.Key == "" {
		result.Key = key
	}
	return result, nil
}

func (g *Gateway) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := g.core.AbortMultipartUpload(ctx, bucket, key, uploadID); err != nil {
		return convertError("abortMultipartUpload", bucket, key, uploadID, err)
	}
	return nil
}

func convertError(op, bucket, key, uploadID string, err error) *storage.StorageError {
	resp := minio.ToErrorResponse(err)
	return &storage.StorageError{
		Op:       op,
		Bucket:   bucket,
		Key:      key,
		UploadID: uploadID,
		Code:     resp.Code,
		Message:  resp.Message,
		Err:      err,
	}
}
