package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/codebuilder/internal/config"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/statemachine"
)

var definitionCmd = &cobra.Command{
	Use:   "definition",
	Short: "Print the state machine definition (Amazon States Language)",
	Long: `Render the Step Functions definition for the pipeline. Every task runs
the codebuilder Lambda; wait_for_build is retried on BuildInProgressError using
the retry.* settings, which bounds how long a build may run.`,
	Example: `  # Print with the configured account and project
  codebuilder definition

  # Point at a specific function and write to a file
  codebuilder definition --lambda-arn arn:aws:lambda:us-west-2:210987654321:function:codebuilder -o sm.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		lambdaARN, _ := cmd.Flags().GetString("lambda-arn")
		output, _ := cmd.Flags().GetString("output")

		out := cmd.OutOrStdout()
		if output != "" && output != "-" {
			f, err := os.Create(output)
			if err != nil {
				return cberrors.WrapWithMessage(err, cberrors.Runtime, "creating output file")
			}
			defer f.Close()
			out = f
		}
		return writeDefinition(out, a.cfg, lambdaARN)
	},
}

func init() {
	definitionCmd.GroupID = GroupPipeline
	rootCmd.AddCommand(definitionCmd)
	definitionCmd.Flags().String("lambda-arn", "", "Dispatcher function ARN (default: derived from region, account and project_name)")
	definitionCmd.Flags().StringP("output", "o", "", "Write to file instead of stdout")
}

func writeDefinition(w io.Writer, cfg *config.Configuration, lambdaARN string) error {
	if lambdaARN == "" {
		if cfg.Account == "" {
			return cberrors.MissingSetting("account")
		}
		lambdaARN = cfg.LambdaARN()
	}

	doc, err := statemachine.Definition(statemachine.Options{
		LambdaARN: lambdaARN,
		Retry:     cfg.Retry,
		Comment:   fmt.Sprintf("%s pipeline", cfg.ProjectName),
	})
	if err != nil {
		return cberrors.Wrap(err, cberrors.Configuration)
	}
	_, err = fmt.Fprintf(w, "%s\n", doc)
	return err
}
