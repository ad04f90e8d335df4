// Package cli implements the codebuilder command line: launching pipeline
// runs, rendering the state machine, and inspecting builds.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/codebuilder/internal/build"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
)

// Command groups shown in help output.
const (
	GroupPipeline      = "pipeline"
	GroupInspect       = "inspect"
	GroupConfiguration = "configuration"
)

var rootCmd = &cobra.Command{
	Use:   "codebuilder",
	Short: "Run CodeBuild builds through a Step Functions pipeline",
	Long: `codebuilder starts AWS CodeBuild builds through a Step Functions state
machine whose every step is handled by the codebuilder Lambda. Progress and
results can be reported to the Slack channel that asked for the build.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (CODEBUILDER_*)
  2. Config file (--config, default ~/.config/codebuilder/config.yml)
  3. Built-in defaults`,
	Example: `  # Start a build with overrides from env.yml
  codebuilder run --env-file env.yml

  # Render the state machine definition
  codebuilder definition > state_machine.json

  # Check on a build
  codebuilder status codebuilder:0b7a9c1e-1234-4c2d-8f00-5e7d1a2b3c4d`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupPipeline, Title: "Pipeline:"},
		&cobra.Group{ID: GroupInspect, Title: "Inspect:"},
		&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"},
	)

	rootCmd.Version = build.Version
	rootCmd.SetVersionTemplate(build.String() + "\n")

	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default ~/.config/codebuilder/config.yml)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return cberrors.NewArgumentErrorWithUsage(err.Error(), cmd.UseLine(),
			"Run '"+cmd.CommandPath()+" --help' for usage")
	})
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		cberrors.FprintError(rootCmd.ErrOrStderr(), err)
	}
	return ExitCode(err)
}
