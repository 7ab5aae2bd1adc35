// Package s3gw implements storage.Gateway on top of Amazon S3.
package s3gw

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/credentials/stscreds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/stefando/multipartUpload/internal/storage"
)

// s3API is the subset of *s3.Client used by the gateway.
type s3API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
}

// presignAPI is the subset of *s3.PresignClient used by the gateway.
type presignAPI interface {
	PresignUploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Options configures the S3 client.
type Options struct {
	Region          string
	Endpoint        string // custom endpoint for S3-compatible services
	AccessKeyID     string // empty means the default credential chain
	SecretAccessKey string
	ForcePathStyle  bool
	RoleARN         string // assumed through STS when set
}

// Gateway talks to S3 through a single client shared by all requests.
type Gateway struct {
	client    s3API
	presigner presignAPI
}

var _ storage.Gateway = (*Gateway)(nil)

// New loads the AWS configuration and builds the S3 and presign clients.
func New(ctx context.Context, opts Options) (*Gateway, error) {
	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	if opts.RoleARN != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			stscreds.NewAssumeRoleProvider(sts.NewFromConfig(cfg), opts.RoleARN, func(o *stscreds.AssumeRoleOptions) {
				o.RoleSessionName = fmt.Sprintf("multipart-upload-%d", time.Now().Unix())
			}),
		)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return NewWithClient(client, s3.NewPresignClient(client)), nil
}

// NewWithClient builds a gateway from already constructed clients.
func NewWithClient(client s3API, presigner presignAPI) *Gateway {
	return &Gateway{client: client, presigner: presigner}
}

func (g *Gateway) CreateMultipartUpload(ctx context.Context, bucket, key, contentType string) (string, error) {
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	out, err := g.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", convertError("createMultipartUpload", bucket, key, "", err)
	}
	if out.UploadId == nil || *out.UploadId == "" {
		return "", &storage.StorageError{
			Op: "createMultipartUpload", Bucket: bucket, Key: key,
			Message: "backend returned no upload id",
		}
	}
	return *out.UploadId, nil
}

func (g *Gateway) PresignPartUpload(ctx context.Context, bucket, key, uploadID string, partNumber int32, expiry time.Duration) (string, error) {
	if expiry <= 0 {
		expiry = storage.DefaultPresignExpiry
	}

	req, err := g.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
		Bucket:     aws.String(bucket),
		Key:        aws.String(key),
		PartNumber: aws.Int32(partNumber),
		UploadId:   aws.String(uploadID),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = expiry
	})
	if err != nil {
		return "", convertError("presignPartUpload", bucket, key, uploadID,
			fmt.Errorf("part %d: %w", partNumber, err))
	}
	return req.URL, nil
}

func (g *Gateway) CompleteMultipartUpload(ctx context.Context, bucket, key, uploadID string, parts []storage.CompletedPart) (*storage.CompletionResult, error) {
	sorted := storage.SortedParts(parts)
	completed := make([]types.CompletedPart, len(sorted))
	for i, part := range sorted {
		completed[i] = types.CompletedPart{
			ETag:       aws.String(part.ETag),
			PartNumber: aws.Int32(part.PartNumber),
		}
	}

	out, err := g.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return nil, convertError("completeMultipartUpload", bucket, key, uploadID, err)
	}

	result := &storage.CompletionResult{
		Location:  aws.ToString(out.Location),
		Bucket:    aws.ToString(out.Bucket),
		Key:       aws.ToString(out.Key),
		ETag:      aws.ToString(out.ETag),
		VersionID: aws.ToString(out.VersionId),
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
	_, err := g.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(bucket),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		return convertError("abortMultipartUpload", bucket, key, uploadID, err)
	}
	return nil
}

// convertError wraps an SDK error, lifting the service error code and message
// out of the smithy error chain when present.
func convertError(op, bucket, key, uploadID string, err error) error {
	se := &storage.StorageError{
		Op:       op,
		Bucket:   bucket,
		Key:      key,
		UploadID: uploadID,
		Err:      err,
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		se.Code = apiErr.ErrorCode()
		se.Message = apiErr.ErrorMessage()
	}
	return se
}
