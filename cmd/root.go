// Package cmd provides the lumen command-line interface.
//
// Configuration is read from, in order of precedence:
//
//  1. command-line flags (--config, --port, ...)
//  2. the LUMEN_CONFIG_FILE environment variable naming a config file
//  3. individual environment variables (LUMEN_SANITY_PROJECT_ID, LUMEN_SERVER_PORT, ...)
//  4. .lumen.yml in the current directory
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/logging"
	"github.com/lumen-press/lumen/internal/sanity"
)

// newRootCmd assembles the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "lumen",
		Short: "A multilingual static blog generator backed by Sanity",
		Long: `lumen builds a static, multilingual blog from a Sanity dataset.

Every localized field is resolved per locale with a fallback chain, pages are
rendered for each published locale together with an RSS feed, and scroll
reveal animations are prerendered so pages work without JavaScript.

Quick Start:
  lumen init                  Write a .lumen.yml
  lumen build                 Fetch content and write the site
  lumen serve                 Development server with live reload
  lumen resolve post.json     Resolve a content file for one locale
  lumen reveal page.html      Prerender reveal animations in an HTML file`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig(cmd, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .lumen.yml, can also use LUMEN_CONFIG_FILE env var)")
	root.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log-level", root.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-format", root.PersistentFlags().Lookup("log-format"))

	root.AddCommand(
		newInitCmd(),
		newBuildCmd(),
		newServeCmd(),
		newResolveCmd(),
		newRevealCmd(),
		newValidateCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

// initConfig points viper at the config file and enables LUMEN_ environment
// overrides. A missing file is not an error: defaults apply.
func initConfig(cmd *cobra.Command, cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LUMEN_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(strings.TrimSuffix(config.FileName, ".yml"))
	}

	viper.SetEnvPrefix("LUMEN")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Using config file:", viper.ConfigFileUsed())
	}
}

// configPath is the file `serve` watches for edits.
func configPath() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return config.FileName
}

// newLogger builds the process logger from --log-level and --log-format.
func newLogger(cmd *cobra.Command) (logging.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	format := viper.GetString("log-format")
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("unsupported log format %q (supported: text, json)", format)
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: format,
		Output: cmd.ErrOrStderr(),
	}), nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newSanityClient(cfg *config.Config, logger logging.Logger) (*sanity.Client, error) {
	if cfg.Sanity.ProjectID == "" {
		return nil, fmt.Errorf("sanity.project_id is not set; run `lumen init` or set LUMEN_SANITY_PROJECT_ID")
	}
	return sanity.NewClient(sanity.Config{
		ProjectID:  cfg.Sanity.ProjectID,
		Dataset:    cfg.Sanity.Dataset,
		APIVersion: cfg.Sanity.APIVersion,
		Token:      cfg.Sanity.Token,
		UseCDN:     cfg.Sanity.UseCDN,
		Timeout:    cfg.Sanity.Timeout,
		CacheTTL:   cfg.Sanity.CacheTTL,
		CacheSize:  cfg.Sanity.CacheSize,
	}, sanity.WithLogger(logger))
}
