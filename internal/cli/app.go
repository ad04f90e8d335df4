package cli

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/config"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/logging"
)

// app is what every command needs after flag parsing.
type app struct {
	cfg    *config.Configuration
	logger *zap.Logger
}

func loadApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if debug {
		level = "debug"
	}
	logger, err := logging.NewWithWriter(cmd.ErrOrStderr(), level, false)
	if err != nil {
		return nil, cberrors.Wrap(err, cberrors.Configuration)
	}
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) awsConfig(ctx context.Context) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(a.cfg.Region))
	if err != nil {
		return aws.Config{}, cberrors.AWSConfigError(err)
	}
	return cfg, nil
}
