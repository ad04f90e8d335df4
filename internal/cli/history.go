package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
	"github.com/ariel-frischer/codebuilder/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List pipeline runs started from this machine",
	Long:  `List recorded 'codebuilder run' invocations with their build id and link, oldest first.`,
	Example: `  codebuilder history -n 5

  # Only the build ids, for piping into status
  codebuilder history --ids

  # Keep printing runs as they are recorded
  codebuilder history --follow`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp(cmd)
		if err != nil {
			return err
		}
		var opts historyOptions
		opts.limit, _ = cmd.Flags().GetInt("limit")
		opts.clear, _ = cmd.Flags().GetBool("clear")
		opts.idsOnly, _ = cmd.Flags().GetBool("ids")
		opts.follow, _ = cmd.Flags().GetBool("follow")
		return runHistory(cmd.Context(), cmd.OutOrStdout(), a.cfg.StateDir, opts)
	},
}

func init() {
	historyCmd.GroupID = GroupInspect
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 0, "Limit to last N entries (most recent)")
	historyCmd.Flags().BoolP("clear", "c", false, "Clear all history")
	historyCmd.Flags().Bool("ids", false, "Print only build ids")
	historyCmd.Flags().BoolP("follow", "f", false, "Wait for new runs and print them as they are recorded")
}

type historyOptions struct {
	limit   int
	clear   bool
	idsOnly bool
	follow  bool
}

func runHistory(ctx context.Context, out io.Writer, stateDir string, opts historyOptions) error {
	if opts.limit < 0 {
		return cberrors.NewArgumentError(fmt.Sprintf("limit must be positive, got %d", opts.limit))
	}

	if opts.clear && opts.follow {
		return cberrors.NewArgumentError("--clear and --follow cannot be combined")
	}

	if opts.clear {
		if err := history.ClearHistory(stateDir); err != nil {
			return cberrors.Wrap(err, cberrors.Runtime)
		}
		fmt.Fprintln(out, "History cleared.")
		return nil
	}

	h, err := history.LoadHistory(stateDir)
	if err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "loading history")
	}

	entries := h.Entries
	if opts.limit > 0 && len(entries) > opts.limit {
		entries = entries[len(entries)-opts.limit:]
	}

	if len(entries) == 0 && !opts.idsOnly && !opts.follow {
		fmt.Fprintln(out, "No history available.")
		return nil
	}
	if err := printEntries(out, entries, opts.idsOnly); err != nil {
		return err
	}
	if !opts.follow {
		return nil
	}
	return followHistory(ctx, out, stateDir, opts.idsOnly)
}

func followHistory(ctx context.Context, out io.Writer, stateDir string, idsOnly bool) error {
	f, err := history.NewFollower(stateDir)
	if err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "watching history")
	}
	defer f.Close()

	ch, err := f.Follow(ctx)
	if err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "loading history")
	}
	for e := range ch {
		if err := printEntries(out, []history.RunEntry{e}, idsOnly); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printEntries(out io.Writer, entries []history.RunEntry, idsOnly bool) error {
	if idsOnly {
		for _, e := range entries {
			if e.BuildID != "" {
				fmt.Fprintln(out, e.BuildID)
			}
		}
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range entries {
		ts := e.Timestamp.Local().Format(time.DateTime)
		if e.Error != "" {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", ts, color.RedString("failed"), e.Error)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ts, e.BuildID, e.BuildLink)
	}
	return tw.Flush()
}
