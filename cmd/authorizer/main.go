// Command authorizer is an API Gateway REQUEST authorizer for the upload
// function. It verifies bearer tokens against the configured OIDC issuer.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stefando/multipartUpload/internal/auth"
	"github.com/stefando/multipartUpload/internal/config"
	"github.com/stefando/multipartUpload/internal/lambdaproxy"
	"github.com/stefando/multipartUpload/internal/logging"
)

func main() {
	cfg, err := config.LoadAuth(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(os.Stdout, os.Getenv("LOG_LEVEL"))

	// Key discovery happens once per cold start.
	verifier, err := auth.NewVerifier(context.Background(), cfg.Issuer, cfg.ClientID)
	if err != nil {
		logger.Error("failed to initialize token verifier", "error", err)
		os.Exit(1)
	}

	lambda.Start(lambdaproxy.NewAuthorizer(verifier, cfg.RequireTenant))
}
