package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ariel-frischer/codebuilder/internal/config"
	cberrors "github.com/ariel-frischer/codebuilder/internal/errors"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create codebuilder configuration",
	Long: `Inspect and create codebuilder configuration.

Configuration is loaded with the following priority (highest to lowest):
  1. Environment variables (CODEBUILDER_*, '__' separates nested keys)
  2. Config file (--config, default ~/.config/codebuilder/config.yml)
  3. Built-in defaults`,
	Example: `  # Show the effective configuration
  codebuilder config show

  # List every key and its environment variable
  codebuilder config keys

  # Write a commented starter file
  codebuilder config init`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		return showConfig(cmd.OutOrStdout(), config.LoadOptions{ConfigPath: configPath})
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys",
	Run: func(cmd *cobra.Command, args []string) {
		listConfigKeys(cmd.OutOrStdout())
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			p, err := config.UserConfigPath()
			if err != nil {
				return cberrors.Wrap(err, cberrors.Configuration)
			}
			path = p
		}
		force, _ := cmd.Flags().GetBool("force")
		if err := writeConfigTemplate(path, force); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\nReplace account and bucket before running 'codebuilder run'.\n", path)
		return nil
	},
}

func init() {
	configCmd.GroupID = GroupConfiguration
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configKeysCmd, configInitCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
}

func showConfig(w io.Writer, opts config.LoadOptions) error {
	// Validate first so invalid values are reported rather than printed.
	if _, err := config.LoadWithOptions(opts); err != nil {
		return err
	}
	raw, err := config.Effective(opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return cberrors.Wrap(err, cberrors.Runtime)
	}
	return enc.Close()
}

func listConfigKeys(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tENV\tDESCRIPTION")
	for _, k := range config.SortedKeys() {
		typ := k.Type.String()
		if len(k.AllowedValues) > 0 {
			typ = fmt.Sprintf("%s%v", typ, k.AllowedValues)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k.Path, typ, k.EnvVar(), k.Description)
	}
	_ = tw.Flush()
}

func writeConfigTemplate(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return cberrors.NewConfigError(
			fmt.Sprintf("config file already exists: %s", path),
			"Use --force to overwrite it",
		)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "creating config directory")
	}
	if err := os.WriteFile(path, []byte(config.GetDefaultConfigTemplate()), 0o644); err != nil {
		return cberrors.WrapWithMessage(err, cberrors.Runtime, "writing config file")
	}
	return nil
}
