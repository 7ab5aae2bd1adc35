// Package upload orchestrates multipart uploads: it opens an upload session on
// the storage backend, hands out per-part upload URLs and finalizes the object.
// The backend is the only holder of session state.
package upload

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stefando/multipartUpload/internal/auth"
	"github.com/stefando/multipartUpload/internal/storage"
)

// DefaultPresignConcurrency bounds in-flight presign calls per request.
const DefaultPresignConcurrency = 16

const (
	// tokenExpiryBuffer is kept between a part URL's expiry and the caller's
	// token expiry.
	tokenExpiryBuffer = 5 * time.Minute
	// MinPresignExpiry is the shortest validity handed out when the caller's
	// token is about to expire.
	MinPresignExpiry = 5 * time.Minute
)

// ErrNoParts is returned when fewer than one part URL is requested.
var ErrNoParts = errors.New("at least one part must be requested")

// Session correlates the phases of one multipart upload. Both values are
// opaque and passed back by the caller unchanged.
type Session struct {
	FileKey  string
	UploadID string
}

// Options configures a Service.
type Options struct {
	Bucket             string
	KeyPrefix          string
	PresignExpiry      time.Duration
	PresignConcurrency int
	Logger             *slog.Logger
}

// Service runs the multipart-upload protocol against a storage gateway. It has
// no mutable state and is safe for concurrent use.
type Service struct {
	gateway     storage.Gateway
	bucket      string
	prefix      string
	expiry      time.Duration
	concurrency int
	logger      *slog.Logger
}

// NewService creates a Service for the given gateway and bucket.
func NewService(gateway storage.Gateway, opts Options) *Service {
	if opts.PresignExpiry <= 0 {
		opts.PresignExpiry = storage.DefaultPresignExpiry
	}
	if opts.PresignConcurrency <= 0 {
		opts.PresignConcurrency = DefaultPresignConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Service{
		gateway:     gateway,
		bucket:      opts.Bucket,
		prefix:      opts.KeyPrefix,
		expiry:      opts.PresignExpiry,
		concurrency: opts.PresignConcurrency,
		logger:      opts.Logger,
	}
}

// Initiate opens a multipart upload for fileName under the configured prefix.
func (s *Service) Initiate(ctx context.Context, fileName, contentType string) (Session, error) {
	key := ObjectKey(s.prefix, fileName)

	uploadID, err := s.gateway.CreateMultipartUpload(ctx, s.bucket, key, contentType)
	if err != nil {
		return Session{}, err
	}

	s.logger.DebugContext(ctx, "upload initiated", "key", key, "upload_id", uploadID)
	return Session{FileKey: key, UploadID: uploadID}, nil
}

// AuthorizeParts returns one upload URL per part number 1..parts, in part
// order. URLs are generated concurrently; if any of them fails the whole batch
// fails and no URLs are returned. When ctx carries caller claims with an
// expiry, URLs do not outlive the caller's token (see PresignExpiry).
func (s *Service) AuthorizeParts(ctx context.Context, fileKey string, parts int32, uploadID string) ([]string, error) {
	if parts < 1 {
		return nil, ErrNoParts
	}

	expiry := s.PresignExpiry(ctx)
	urls := make([]string, parts)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := int32(0); i < parts; i++ {
		if gctx.Err() != nil {
			break
		}
		partNumber := i + 1
		g.Go(func() error {
			url, err := s.gateway.PresignPartUpload(gctx, s.bucket, fileKey, uploadID, partNumber, expiry)
			if err != nil {
				return err
			}
			urls[partNumber-1] = url
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the loop may have stopped early because the caller went away
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "part urls authorized",
		"key", fileKey, "upload_id", uploadID, "parts", parts, "expiry", expiry)
	return urls, nil
}

// PresignExpiry is the part URL validity for a request: the configured expiry,
// shortened to the caller's remaining token lifetime minus a buffer, but not
// below MinPresignExpiry unless the configured expiry is itself shorter.
func (s *Service) PresignExpiry(ctx context.Context) time.Duration {
	claims, ok := auth.ClaimsFrom(ctx)
	if !ok || claims.Expiry.IsZero() {
		return s.expiry
	}
	remaining := max(time.Until(claims.Expiry)-tokenExpiryBuffer, MinPresignExpiry)
	return min(s.expiry, remaining)
}

// Complete asks the backend to assemble the uploaded parts. The parts are
// passed through unmodified and backend rejections are returned as-is.
func (s *Service) Complete(ctx context.Context, fileKey, uploadID string, parts []storage.CompletedPart) (*storage.CompletionResult, error) {
	result, err := s.gateway.CompleteMultipartUpload(ctx, s.bucket, fileKey, uploadID, parts)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "upload completed", "key", fileKey, "upload_id", uploadID, "parts", len(parts))
	return result, nil
}

// Abort discards an in-progress upload and its uploaded parts.
func (s *Service) Abort(ctx context.Context, fileKey, uploadID string) error {
	if err := s.gateway.AbortMultipartUpload(ctx, s.bucket, fileKey, uploadID); err != nil {
		return err
	}

	s.logger.DebugContext(ctx, "upload aborted", "key", fileKey, "upload_id", uploadID)
	return nil
}
