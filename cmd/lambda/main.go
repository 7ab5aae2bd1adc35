package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/stefando/multipartUpload/internal/app"
	"github.com/stefando/multipartUpload/internal/config"
	"github.com/stefando/multipartUpload/internal/lambdaproxy"
	"github.com/stefando/multipartUpload/internal/logging"
)

func main() {
	// Lambda has no flags; configuration comes from the function environment.
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(os.Stdout, cfg.Log.Level)

	router, err := app.NewHandler(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize upload handler", "error", err)
		os.Exit(1)
	}

	lambda.Start(lambdaproxy.New(router))
}
