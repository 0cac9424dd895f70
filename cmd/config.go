// =============================================================================
// YPBank Converter - Config Command
// =============================================================================
//
// This file defines the 'config' command and its subcommands.
//
// COMMAND USAGE:
//   ypbank config show       Print the merged configuration as YAML
//   ypbank config validate   Load and check the configuration
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// configCmd groups the configuration subcommands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// configShowCmd prints the effective configuration.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Long: `Print the configuration after merging defaults, the configuration file,
YPBANK_* environment variables and command-line flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.WriteYAML(cmd.OutOrStdout()); err != nil {
			return ioError(err)
		}
		return nil
	},
}

// configValidateCmd checks the configuration. Loading already validates it,
// so reaching RunE means it is valid.
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration without processing anything",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range []string{cfg.DefaultInputFormat, cfg.DefaultOutputFormat} {
			if name == "" {
				continue
			}
			if _, err := resolveCodec(name, "", ""); err != nil {
				return err
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Configuration OK")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configValidateCmd)
	rootCmd.AddCommand(configCmd)
}
