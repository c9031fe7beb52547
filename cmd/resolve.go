package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lumen-press/lumen/internal/content"
	"github.com/lumen-press/lumen/internal/locale"
)

// Resolution modes of `lumen resolve`.
const (
	modeDocument = "document"
	modeString   = "string"
	modeTree     = "tree"
	modePlain    = "plain"
)

func newResolveCmd() *cobra.Command {
	var (
		localeFlags LocaleFlags
		mode        string
		field       string
	)

	cmd := &cobra.Command{
		Use:   "resolve FILE",
		Short: "Resolve a JSON content file for one locale",
		Long: `Read a JSON document (a post exported from Sanity, or any localized value)
and print it as the given locale would see it. Use "-" to read stdin.

Modes:
  document  resolve every localized field and print JSON (default)
  string    collapse the value to one string
  tree      select the rich-text document and print it as JSON
  plain     flatten rich text to one line of plain text

Examples:
  lumen resolve post.json --locale fr
  lumen resolve post.json --field content --mode plain --locale de
  lumen resolve post.json --field title --mode string`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			res, err := localeFlags.Resolver(cfg)
			if err != nil {
				return err
			}

			value, err := readContent(cmd, args[0])
			if err != nil {
				return err
			}
			if field != "" {
				if value, err = selectField(value, field); err != nil {
					return err
				}
			}
			return printResolved(cmd.OutOrStdout(), res, mode, value)
		},
	}

	cmd.Flags().AddFlagSet(localeFlags.FlagSet())
	cmd.Flags().StringVarP(&mode, "mode", "m", modeDocument, "Resolution mode (document, string, tree, plain)")
	cmd.Flags().StringVar(&field, "field", "", "Dotted path of the value to resolve, e.g. content or seo.metaTitle")
	return cmd
}

func readContent(cmd *cobra.Command, name string) (any, error) {
	var r io.Reader
	if name == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open content file: %w", err)
		}
		defer f.Close()
		r = f
	}
	v, err := content.DecodeReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return v, nil
}

// selectField walks a dotted path through objects; numeric segments index
// arrays.
func selectField(value any, path string) (any, error) {
	cur := value
	for _, seg := range strings.Split(path, ".") {
		switch v := cur.(type) {
		case *content.Object:
			next, ok := v.Get(seg)
			if !ok {
				return nil, fmt.Errorf("field %q not found", path)
			}
			cur = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, fmt.Errorf("field %q: %q is not an index of a %d-element array", path, seg, len(v))
			}
			cur = v[i]
		default:
			return nil, fmt.Errorf("field %q not found", path)
		}
	}
	return cur, nil
}

func printResolved(w io.Writer, res locale.Resolver, mode string, value any) error {
	switch mode {
	case modeString:
		_, err := fmt.Fprintln(w, res.Text(value))
		return err
	case modePlain:
		_, err := fmt.Fprintln(w, res.PlainText(value))
		return err
	case modeTree:
		return writeJSON(w, res.Tree(value))
	case modeDocument:
		return writeJSON(w, res.Document(value))
	default:
		return fmt.Errorf("unsupported mode %q (supported: document, string, tree, plain)", mode)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
