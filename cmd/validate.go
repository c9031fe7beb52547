package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumen-press/lumen/internal/config"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration for errors and likely mistakes",
		Long: `Load the configuration the other commands would use (file, environment and
defaults) and report every problem with a hint on how to fix it. Warnings,
such as a missing Sanity project id, do not fail the command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Unmarshal(viper.GetViper())
			if err != nil {
				return fmt.Errorf("failed to read configuration: %w", err)
			}

			result := config.ValidateConfigWithDetails(cfg)
			out := cmd.OutOrStdout()
			if report := result.String(); report != "" {
				fmt.Fprint(out, report)
			}
			if result.HasErrors() {
				return fmt.Errorf("configuration has %d error(s)", len(result.Errors))
			}
			if _, err := config.LoadFrom(viper.GetViper()); err != nil {
				return err
			}

			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(out, "%s is valid\n", used)
			} else {
				fmt.Fprintln(out, "Configuration is valid (no config file found, using defaults)")
			}
			return nil
		},
	}
}
