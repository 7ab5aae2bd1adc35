// Package app assembles the HTTP handler from configuration. Both the
// standalone server and the Lambda entry point use it.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/stefando/multipartUpload/internal/api"
	"github.com/stefando/multipartUpload/internal/auth"
	"github.com/stefando/multipartUpload/internal/config"
	"github.com/stefando/multipartUpload/internal/storage"
	"github.com/stefando/multipartUpload/internal/storage/miniogw"
	"github.com/stefando/multipartUpload/internal/storage/s3gw"
	"github.com/stefando/multipartUpload/internal/upload"
)

// NewGateway builds the storage backend selected by cfg.Backend.
func NewGateway(ctx context.Context, cfg config.StorageConfig) (storage.Gateway, error) {
	switch cfg.Backend {
	case "s3":
		return s3gw.New(ctx, s3gw.Options{
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			ForcePathStyle:  cfg.ForcePathStyle,
			RoleARN:         cfg.RoleARN,
		})
	case "minio":
		return miniogw.New(miniogw.Options{
			Endpoint:        cfg.Endpoint,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Region:          cfg.Region,
			UseSSL:          cfg.UseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// NewHandler wires gateway, upload service, optional token verification and
// router together.
func NewHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*chi.Mux, error) {
	gw, err := NewGateway(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s gateway: %w", cfg.Storage.Backend, err)
	}
	return newHandler(ctx, cfg, gw, logger)
}

func newHandler(ctx context.Context, cfg *config.Config, gw storage.Gateway, logger *slog.Logger) (*chi.Mux, error) {
	if logger == nil {
		logger = slog.Default()
	}
	svc := upload.NewService(gw, upload.Options{
		Bucket:             cfg.Storage.Bucket,
		KeyPrefix:          cfg.Upload.KeyPrefix,
		PresignExpiry:      cfg.Upload.PresignExpiry,
		PresignConcurrency: cfg.Upload.PresignConcurrency,
		Logger:             logger,
	})

	opts := api.RouterOptions{RequireTenant: cfg.Auth.RequireTenant}
	if cfg.Auth.Issuer != "" {
		v, err := auth.NewVerifier(ctx, cfg.Auth.Issuer, cfg.Auth.ClientID)
		if err != nil {
			return nil, err
		}
		opts.Verifier = v
		logger.Info("bearer token verification enabled", "issuer", cfg.Auth.Issuer)
	}

	logger.Info("upload service ready",
		"backend", cfg.Storage.Backend,
		"bucket", cfg.Storage.Bucket,
		"key_prefix", cfg.Upload.KeyPrefix,
	)
	return api.NewRouter(api.NewHandler(svc, logger), opts), nil
}
