package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	"github.com/ariel-frischer/codebuilder/internal/dispatch"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/lambda"
	"github.com/ariel-frischer/codebuilder/internal/notify"
	"github.com/ariel-frischer/codebuilder/internal/statemachine"
	"github.com/ariel-frischer/codebuilder/internal/steps"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Run one pipeline step locally against AWS",
	Long: `Run a single pipeline step exactly as the Lambda would, using local AWS
credentials. The event is read as JSON from --event (or stdin with '-'); the
resulting event is printed on success. On failure the error type the state
machine would see is printed, e.g. BuildInProgressError.`,
	Example: `  echo '{"step_name":"wait_for_build","buildId":"codebuilder:0b7a9c1e"}' | codebuilder dispatch

  codebuilder dispatch --event start.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = a.logger.Sync() }()

		path, _ := cmd.Flags().GetString("event")
		in := cmd.InOrStdin()
		if path != "-" {
			f, err := os.Open(path)
			if err != nil {
				return cberrors.NewArgumentError(fmt.Sprintf("cannot open event file: %v", err))
			}
			defer f.Close()
			in = f
		}

		awsCfg, err := a.awsConfig(cmd.Context())
		if err != nil {
			return err
		}
		builds := codebuild.NewFromConfig(awsCfg, a.cfg.ProjectName, a.logger)
		notifier := notify.NewHandler(a.cfg.Notifications, a.logger)
		d := dispatch.New(steps.New(builds, notifier, a.logger), a.logger)

		return runDispatch(cmd.Context(), in, cmd.OutOrStdout(), lambda.Handler(d, a.logger))
	},
}

func init() {
	dispatchCmd.GroupID = GroupInspect
	rootCmd.AddCommand(dispatchCmd)
	dispatchCmd.Flags().StringP("event", "f", "-", "Event JSON file, '-' for stdin")
}

func runDispatch(ctx context.Context, in io.Reader, out io.Writer, handler lambda.HandlerFunc) error {
	payload, err := io.ReadAll(in)
	if err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "reading event")
	}
	if !json.Valid(payload) {
		return cberrors.NewArgumentError("invalid event JSON",
			"The event must be a JSON object, e.g. {\"step_name\":\"start_build\"}")
	}

	next, err := handler(ctx, json.RawMessage(payload))
	if err != nil {
		fmt.Fprintf(out, "errorType: %s\nerrorMessage: %s\n", statemachine.ErrorName(err), err)
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "step failed")
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(next)
}
