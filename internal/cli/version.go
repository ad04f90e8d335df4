package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ariel-frischer/codebuilder/internal/build"
)

var versionCmd = &cobra.Command{
	Use:     "version",
	Aliases: []string{"v"},
	Short:   "Display version information (v)",
	Example: `  codebuilder version

  # Plain output (for scripts)
  codebuilder version --plain`,
	Run: func(cmd *cobra.Command, args []string) {
		plain, _ := cmd.Flags().GetBool("plain")
		printVersion(cmd.OutOrStdout(), plain)
	},
}

func init() {
	versionCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("plain", false, "Plain output without formatting")
}

func printVersion(w io.Writer, plain bool) {
	if plain {
		fmt.Fprintf(w, "codebuilder %s\n", build.Version)
		fmt.Fprintf(w, "commit: %s\n", build.Commit)
		fmt.Fprintf(w, "built: %s\n", build.BuildDate)
		fmt.Fprintf(w, "go: %s\n", runtime.Version())
		fmt.Fprintf(w, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		return
	}

	label := color.New(color.FgCyan).SprintFunc()
	fmt.Fprintf(w, "%s %s\n", color.New(color.Bold).Sprint("codebuilder"), build.Version)
	fmt.Fprintf(w, "  %s %s\n", label("commit:"), build.Commit)
	fmt.Fprintf(w, "  %s %s\n", label("built:"), build.BuildDate)
	fmt.Fprintf(w, "  %s %s %s/%s\n", label("go:"), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if build.IsDevBuild() {
		fmt.Fprintf(w, "  %s\n", color.YellowString("development build"))
	}
}
