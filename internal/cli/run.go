package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ariel-frischer/codebuilder/internal/config"
	"github.com/ariel-frischer/codebuilder/internal/envfile"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/event"
	"github.com/ariel-frischer/codebuilder/internal/git"
	"github.com/ariel-frischer/codebuilder/internal/history"
	"github.com/ariel-frischer/codebuilder/internal/launcher"
	"github.com/ariel-frischer/codebuilder/internal/notify"
	"github.com/ariel-frischer/codebuilder/internal/progress"
)

// Build environment variables the CLI fills in when the env file omits them.
const (
	envCommit = "CI_COMMIT"
	envRepo   = "CI_REPO"
	envBucket = "BUCKET"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a pipeline run and print the build link",
	Long: `Start an execution of the pipeline state machine and wait until its
first step has started the CodeBuild build, then print the build link.

The env file is a YAML mapping of build environment overrides, passed to
CodeBuild in file order. CI_COMMIT defaults to the current branch of the
repository at --repo, and CI_REPO to its origin remote. When 'bucket' is
configured it is passed as BUCKET.`,
	Example: `  # Build the current branch
  codebuilder run --env-file env.yml

  # Build a specific commit and report to Slack
  codebuilder run --env-file env.yml --commit 4f2a9e1 \
    --slack-response-url https://hooks.slack.com/commands/T000/123/abc`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()

		var opts runOptions
		opts.EnvFile, _ = cmd.Flags().GetString("env-file")
		opts.Commit, _ = cmd.Flags().GetString("commit")
		opts.ResponseURL, _ = cmd.Flags().GetString("slack-response-url")
		opts.RepoPath, _ = cmd.Flags().GetString("repo")

		if err := a.cfg.ValidateLaunch(); err != nil {
			return err
		}

		awsCfg, err := a.awsConfig(cmd.Context())
		if err != nil {
			return err
		}

		l := launcher.New(sfn.NewFromConfig(awsCfg), launcher.Options{
			StateMachineARN: a.cfg.StateMachineARN(),
			Region:          a.cfg.Region,
			MaxTries:        a.cfg.Launch.MaxTries,
			Interval:        a.cfg.Launch.Interval,
		}, a.logger)

		return runPipeline(cmd.Context(), cmd.OutOrStdout(), runDeps{
			cfg:      a.cfg,
			launcher: l,
			history:  history.NewWriter(a.cfg.StateDir, a.cfg.MaxHistoryEntries, a.logger),
			caps:     progress.DetectTerminalCapabilities(),
			logger:   a.logger,
		}, opts)
	},
}

func init() {
	runCmd.GroupID = GroupPipeline
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("env-file", "e", "env.yml", "YAML file of build environment overrides")
	runCmd.Flags().String("commit", "", "Commit or branch to build (overrides CI_COMMIT)")
	runCmd.Flags().String("slack-response-url", "", "Slack response_url to report progress to")
	runCmd.Flags().String("repo", ".", "Local repository used for CI_COMMIT and CI_REPO defaults")
}

type runOptions struct {
	EnvFile     string
	Commit      string
	ResponseURL string
	RepoPath    string
}

type pipelineLauncher interface {
	Run(ctx context.Context, req launcher.Request) (*launcher.Result, error)
}

type runDeps struct {
	cfg      *config.Configuration
	launcher pipelineLauncher
	history  *history.Writer
	caps     progress.TerminalCapabilities
	logger   *zap.Logger
}

func runPipeline(ctx context.Context, out io.Writer, deps runDeps, opts runOptions) error {
	env, err := envfile.Load(opts.EnvFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cberrors.EnvFileNotFound(opts.EnvFile)
		}
		return cberrors.EnvFileInvalid(opts.EnvFile, err)
	}

	env = applyDefaults(env, deps.cfg, opts, deps.logger)
	commit, _ := envfile.Get(env, envCommit)

	req := launcher.Request{Env: env}
	if opts.ResponseURL != "" {
		req.Notification = notify.NewContext(opts.ResponseURL)
	}

	ind := progress.NewIndicator(out, deps.caps)
	ind.Start("Starting pipeline")
	res, err := deps.launcher.Run(ctx, req)
	if deps.history != nil {
		deps.history.LogRun(res, commit, err)
	}
	if err != nil {
		ind.Stop(false, "pipeline did not report a build")
		if res != nil {
			fmt.Fprintf(out, "Execution: %s\n", res.ExecutionARN)
		}
		return cberrors.ExecutionFailed(err)
	}
	ind.Stop(true, "build started")

	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(out, "%s %s\n", bold("Execution:"), res.ExecutionARN)
	fmt.Fprintf(out, "%s %s\n", bold("Build:"), res.BuildID)
	fmt.Fprintf(out, "%s %s\n", bold("Link:"), color.CyanString(res.BuildLink))
	return nil
}

// applyDefaults fills CI_COMMIT, CI_REPO and BUCKET. An explicit --commit
// always wins; git lookups are best effort.
func applyDefaults(env []event.EnvVar, cfg *config.Configuration, opts runOptions, logger *zap.Logger) []event.EnvVar {
	switch {
	case opts.Commit != "":
		env = envfile.Set(env, envCommit, opts.Commit)
	default:
		if _, ok := envfile.Get(env, envCommit); !ok {
			if ref, err := git.Ref(opts.RepoPath); err == nil {
				env = envfile.Set(env, envCommit, ref)
			} else {
				logger.Debug("no CI_COMMIT default", zap.Error(err))
			}
		}
	}

	if _, ok := envfile.Get(env, envRepo); !ok {
		if slug, err := git.RemoteSlug(opts.RepoPath, "origin"); err == nil {
			env = envfile.Set(env, envRepo, slug)
		} else {
			logger.Debug("no CI_REPO default", zap.Error(err))
		}
	}

	if cfg.Bucket != "" {
		env = envfile.Set(env, envBucket, cfg.Bucket)
	}
	return env
}
