package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/config"
)

func newInitCmd() *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:     "init [dir]",
		Aliases: []string{"i"},
		Short:   "Write a .lumen.yml for a new site",
		Long: `Write a .lumen.yml with default settings and create the static directory.
With --interactive, a short wizard asks for the site title, URL, Sanity
project and locales first.

Examples:
  lumen init                  # Initialize the current directory
  lumen init my-blog          # Initialize ./my-blog
  lumen init --interactive    # Answer a few questions first`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(cmd, dir, interactive, force)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "I", false, "Run the configuration wizard")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, interactive, force bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	cfg := config.Default()
	if interactive {
		var err error
		cfg, err = config.NewConfigWizard(cmd.InOrStdin(), cmd.OutOrStdout()).Run()
		if err != nil {
			return err
		}
	}

	path := filepath.Join(dir, config.FileName)
	if err := config.Write(path, cfg, force); err != nil {
		return err
	}

	if cfg.Site.StaticDir != "" {
		if err := os.MkdirAll(filepath.Join(dir, cfg.Site.StaticDir), 0o755); err != nil {
			return fmt.Errorf("failed to create static directory: %w", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n", path)
	if cfg.Sanity.ProjectID == "" {
		fmt.Fprintln(out, "Set sanity.project_id (or LUMEN_SANITY_PROJECT_ID) before running `lumen build`.")
	}
	return nil
}
