package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/dom"
	"github.com/lumen-press/lumen/internal/site"
	"github.com/lumen-press/lumen/internal/theme"
)

func newRevealCmd() *cobra.Command {
	var (
		output    string
		inPlace   bool
		themeName string
	)

	cmd := &cobra.Command{
		Use:   "reveal FILE",
		Short: "Prerender scroll reveal animations in an HTML file",
		Long: `Apply the final state of every scroll and load reveal animation to an HTML
page, including staggered children, so it renders without JavaScript.
Timing comes from the animation section of the config. Use "-" for stdin.

Examples:
  lumen reveal dist/index.html --in-place
  lumen reveal page.html -o page.static.html --theme dark`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if inPlace && output != "" {
				return fmt.Errorf("--in-place and --output are mutually exclusive")
			}
			if inPlace && args[0] == "-" {
				return fmt.Errorf("--in-place needs a file, not stdin")
			}
			var t theme.Theme
			if themeName != "" {
				var err error
				if t, err = theme.Parse(themeName); err != nil {
					return err
				}
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}

			doc, err := readHTML(cmd, args[0])
			if err != nil {
				return err
			}
			if t != "" {
				if root := doc.Root(); root != nil {
					theme.Apply(root, t)
				}
			}
			n := site.Prerender(doc, cfg.Animation.Reveal(), logger.WithComponent("reveal"))
			logger.Debug(cmd.Context(), "Prerendered reveals", "elements", n)

			var buf bytes.Buffer
			if err := doc.Render(&buf); err != nil {
				return fmt.Errorf("failed to render document: %w", err)
			}

			switch {
			case inPlace:
				output = args[0]
			case output == "":
				_, err := cmd.OutOrStdout().Write(buf.Bytes())
				return err
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Revealed %d element(s) in %s\n", n, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVar(&inPlace, "in-place", false, "Overwrite the input file")
	cmd.Flags().StringVar(&themeName, "theme", "", "Also apply a theme (light, dark)")
	return cmd
}

func readHTML(cmd *cobra.Command, name string) (*dom.Document, error) {
	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		defer f.Close()
		r = f
	}
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return doc, nil
}
