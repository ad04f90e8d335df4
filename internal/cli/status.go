package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ariel-frischer/codebuilder/internal/codebuild"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
)

// statusConcurrency bounds parallel BatchGetBuilds calls.
const statusConcurrency = 4

var statusCmd = &cobra.Command{
	Use:   "status <build-id>...",
	Short: "Show the status and log link of builds",
	Example: `  codebuilder status codebuilder:0b7a9c1e-1234-4c2d-8f00-5e7d1a2b3c4d

  # Several at once
  codebuilder status $(codebuilder history --ids)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cberrors.MissingBuildIDs()
		}
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		awsCfg, err := a.awsConfig(cmd.Context())
		if err != nil {
			return err
		}
		client := codebuild.NewFromConfig(awsCfg, a.cfg.ProjectName, a.logger)
		return printStatuses(cmd.Context(), cmd.OutOrStdout(), client, args)
	},
}

func init() {
	statusCmd.GroupID = GroupInspect
	rootCmd.AddCommand(statusCmd)
}

type buildStatus struct {
	id    string
	build *codebuild.Build
	err   error
}

func printStatuses(ctx context.Context, out io.Writer, getter codebuild.Getter, ids []string) error {
	results := make([]buildStatus, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(statusConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			b, err := getter.GetBuild(gctx, id)
			if err == nil && b == nil {
				err = &codebuild.BuildNotFoundError{ID: id}
			}
			results[i] = buildStatus{id: id, build: b, err: err}
			return nil
		})
	}
	_ = g.Wait()

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.id, color.RedString("ERROR"), r.err)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.id, colorStatus(r.build.Status), r.build.Logs)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failed > 0 {
		return cberrors.NewRuntimeError(fmt.Sprintf("%d of %d builds could not be read", failed, len(ids)),
			"Check the build ids with: codebuilder history",
			"Verify the project name in your configuration")
	}
	return nil
}

func colorStatus(s codebuild.Status) string {
	switch {
	case s.Succeeded():
		return color.GreenString(string(s))
	case !s.Terminal():
		return color.YellowString(string(s))
	default:
		return color.RedString(string(s))
	}
}
