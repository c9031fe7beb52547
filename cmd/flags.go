package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/locale"
)

// ServerFlags override the server section of the config for one run.
type ServerFlags struct {
	Port         int
	Host         string
	NoLiveReload bool
}

// FlagSet returns the server flags.
func (f *ServerFlags) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("server", pflag.ContinueOnError)
	fs.IntVarP(&f.Port, "port", "p", 8080, "Port to serve on")
	fs.StringVar(&f.Host, "host", "localhost", "Host to bind to")
	fs.BoolVar(&f.NoLiveReload, "no-live-reload", false, "Do not watch files or reload open pages")
	return fs
}

// Apply copies the flags the user set onto cfg; unset flags keep the
// configured values.
func (f *ServerFlags) Apply(fs *pflag.FlagSet, cfg *config.ServerConfig) error {
	if fs.Changed("port") {
		if f.Port < 0 || f.Port > 65535 {
			return fmt.Errorf("port must be between 0 and 65535, got %d", f.Port)
		}
		cfg.Port = f.Port
	}
	if fs.Changed("host") {
		if strings.TrimSpace(f.Host) == "" {
			return fmt.Errorf("host cannot be empty")
		}
		cfg.Host = f.Host
	}
	if fs.Changed("no-live-reload") {
		cfg.LiveReload = !f.NoLiveReload
	}
	return nil
}

// LocaleFlags pick the display locale of a one-off command.
type LocaleFlags struct {
	Locale   string
	Fallback string
}

// FlagSet returns the locale flags.
func (f *LocaleFlags) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("locale", pflag.ContinueOnError)
	fs.StringVar(&f.Locale, "locale", "", "Display locale (default: locale.default from the config)")
	fs.StringVar(&f.Fallback, "fallback", "", "Fallback locale (default: locale.fallback from the config)")
	return fs
}

// Resolver builds a resolver, filling blanks from cfg.
func (f *LocaleFlags) Resolver(cfg *config.Config) (locale.Resolver, error) {
	loc, fallback := f.Locale, f.Fallback
	if loc == "" {
		loc = cfg.Locale.Default
	}
	if fallback == "" {
		fallback = cfg.Locale.Fallback
	}
	if err := locale.ValidateLocales([]string{loc}); err != nil {
		return locale.Resolver{}, err
	}
	if fallback != loc {
		if err := locale.ValidateLocales([]string{fallback}); err != nil {
			return locale.Resolver{}, fmt.Errorf("fallback: %w", err)
		}
	}
	return locale.NewResolver(loc, fallback), nil
}

// OutputFlags select how results are printed.
type OutputFlags struct {
	Format string
}

// FlagSet returns the output flags.
func (f *OutputFlags) FlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("output", pflag.ContinueOnError)
	fs.StringVarP(&f.Format, "format", "f", "text", "Output format (text, json)")
	return fs
}

// Validate rejects formats outside allowed.
func (f *OutputFlags) Validate(allowed ...string) error {
	for _, a := range allowed {
		if f.Format == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported format %s (supported: %s)", f.Format, strings.Join(allowed, ", "))
}
