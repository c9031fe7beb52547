package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/logging"
	"github.com/lumen-press/lumen/internal/server"
	"github.com/lumen-press/lumen/internal/site"
)

type buildOptions struct {
	output      string
	clean       bool
	concurrency int
	noPrerender bool
}

func newBuildCmd() *cobra.Command {
	var opts buildOptions

	cmd := &cobra.Command{
		Use:     "build",
		Aliases: []string{"b"},
		Short:   "Fetch content and write the site",
		Long: `Fetch every post and category from Sanity and write one tree of pages per
locale plus an RSS feed into the output directory.

Pages that fail are reported at the end; the command exits non-zero when any
page could not be built.

Examples:
  lumen build                   # Build into site.output_dir
  lumen build --output public   # Build into ./public
  lumen build --clean           # Empty the output directory first`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			return runBuild(cmd, cfg, logger, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output directory (default: site.output_dir)")
	cmd.Flags().BoolVar(&opts.clean, "clean", false, "Remove the output directory before building")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 8, "Pages fetched or rendered at once")
	cmd.Flags().BoolVar(&opts.noPrerender, "no-prerender", false, "Leave reveal animations to a client-side script")
	return cmd
}

func runBuild(cmd *cobra.Command, cfg *config.Config, logger logging.Logger, opts buildOptions) error {
	if opts.output != "" {
		cfg.Site.OutputDir = opts.output
	}
	if opts.noPrerender {
		cfg.Animation.Prerender = false
	}
	if opts.clean {
		if err := cleanOutput(cfg.Site.OutputDir); err != nil {
			return err
		}
	}

	client, err := newSanityClient(cfg, logger)
	if err != nil {
		return err
	}

	gen := site.NewGenerator(cfg, client,
		site.WithLogger(logger),
		site.WithConcurrency(opts.concurrency))

	return reportBuild(cmd, cfg, gen)
}

// reportBuild runs builder and prints its summary.
func reportBuild(cmd *cobra.Command, cfg *config.Config, builder server.Builder) error {
	res, err := builder.Build(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Built %d pages for %d posts in %d locale(s) into %s (%s)\n",
		res.Pages, res.Posts, len(res.Locales), cfg.Site.OutputDir, res.Duration.Round(time.Millisecond))
	if res.Assets > 0 {
		fmt.Fprintf(out, "Copied %d static file(s)\n", res.Assets)
	}
	if res.Errors.HasErrors() {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Errors.Summary())
	}
	if res.Errors.Failed() {
		return fmt.Errorf("build finished with %d problem(s)", len(res.Errors.GetAllErrors()))
	}
	return nil
}

// cleanOutput removes dir, refusing anything that is not a subdirectory of
// the working directory.
func cleanOutput(dir string) error {
	clean := filepath.Clean(dir)
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || filepath.Dir(clean) == ".." {
		return fmt.Errorf("refusing to clean output directory %q", dir)
	}
	if err := os.RemoveAll(clean); err != nil {
		return fmt.Errorf("failed to clean output directory: %w", err)
	}
	return nil
}
