// Command codebuilder-lambda is the Lambda function behind every task state
// of the pipeline. It is configured from CODEBUILDER_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"

	awslambda "github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/build"
	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/config"
	"github.com/ariel-frischer/codebuilder/internal/dispatch"
	"github.com/ariel-frischer/codebuilder/internal/lambda"
	"github.com/ariel-frischer/codebuilder/internal/logging"
	"github.com/ariel-frischer/codebuilder/internal/notify"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

func main() {
	handler, err := setup(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "codebuilder-lambda: %v\n", err)
		os.Exit(1)
	}
	awslambda.Start(handler)
}

func setup(ctx context.Context) (lambda.HandlerFunc, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	// The function runs in the region of its resources unless told otherwise.
	if r := os.Getenv("AWS_REGION"); r != "" && os.Getenv(config.EnvPrefix+"REGION") == "" {
		cfg.Region = r
	}

	logger, err := logging.New(cfg.LogLevel, true)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("version", build.Version))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS configuration: %w", err)
	}

	builds := codebuild.NewFromConfig(awsCfg, cfg.ProjectName, logger)
	notifier := notify.NewHandler(cfg.Notifications, logger)
	d := dispatch.New(steps.New(builds, notifier, logger), logger)

	logger.Info("dispatcher ready",
		zap.String("project", cfg.ProjectName),
		zap.String("region", cfg.Region))
	return lambda.Handler(d, logger), nil
}
