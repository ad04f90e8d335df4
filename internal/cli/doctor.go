package cli

import (
	"context"
	"fmt"
	"io"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/codebuilder/internal/config"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/health"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that a pipeline run can be started",
	Long: `Run pre-flight checks for 'codebuilder run':
  - configuration loads, and account and bucket are not placeholders
  - the env file exists and is a flat YAML mapping
  - a git repository is available for CI_COMMIT (warning only)
  - AWS credentials resolve`,
	Example: `  codebuilder doctor
  codebuilder doctor --env-file staging.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		envFile, _ := cmd.Flags().GetString("env-file")
		repo, _ := cmd.Flags().GetString("repo")

		opts := health.Options{EnvFile: envFile, RepoPath: repo}
		opts.Config, opts.ConfigErr = config.Load(configPath)
		if opts.ConfigErr == nil {
			awsCfg, err := awsconfig.LoadDefaultConfig(cmd.Context(), awsconfig.WithRegion(opts.Config.Region))
			if err == nil {
				opts.Credentials = awsCfg.Credentials
			}
		}
		return runDoctor(cmd.Context(), cmd.OutOrStdout(), opts)
	},
}

func init() {
	doctorCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.Flags().StringP("env-file", "e", "env.yml", "Env file to check")
	doctorCmd.Flags().String("repo", ".", "Local repository used for CI_COMMIT")
}

func runDoctor(ctx context.Context, out io.Writer, opts health.Options) error {
	report := health.RunHealthChecks(ctx, opts)
	fmt.Fprint(out, health.FormatReport(report))
	if !report.Passed {
		return cberrors.NewPrerequisiteError("pre-flight checks failed",
			"Fix the checks marked ✗ and run 'codebuilder doctor' again")
	}
	return nil
}
