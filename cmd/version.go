package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/version"
)

func newVersionCmd() *cobra.Command {
	var (
		output OutputFlags
		short  bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := output.Validate("text", "json"); err != nil {
				return err
			}
			info := version.Get()
			out := cmd.OutOrStdout()

			switch {
			case output.Format == "json":
				return writeJSON(out, info)
			case short:
				fmt.Fprintln(out, info.Short())
			default:
				fmt.Fprintln(out, info.String())
			}
			return nil
		},
	}

	cmd.Flags().AddFlagSet(output.FlagSet())
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version and commit")
	return cmd
}
