package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ConfigWizard asks for the handful of settings a new site needs and fills
// in defaults for everything else.
type ConfigWizard struct {
	reader *bufio.Reader
	out    io.Writer
	config *Config
}

// NewConfigWizard creates a wizard reading answers from in and writing
// prompts to out.
func NewConfigWizard(in io.Reader, out io.Writer) *ConfigWizard {
	return &ConfigWizard{
		reader: bufio.NewReader(in),
		out:    out,
		config: Default(),
	}
}

// Run executes the interactive configuration wizard
func (w *ConfigWizard) Run() (*Config, error) {
	fmt.Fprintln(w.out, "lumen configuration")
	fmt.Fprintln(w.out, "-------------------")

	w.config.Site.Title = w.askString("Site title", w.config.Site.Title)
	w.config.Site.URL = w.askString("Public site URL", w.config.Site.URL)
	w.config.Site.Author = w.askString("Default author", w.config.Site.Author)

	w.config.Sanity.ProjectID = w.askString("Sanity project id", w.config.Sanity.ProjectID)
	w.config.Sanity.Dataset = w.askString("Sanity dataset", w.config.Sanity.Dataset)
	w.config.Sanity.UseCDN = w.askBool("Use the API CDN", w.config.Sanity.UseCDN)

	w.config.Locale.Default = w.askString("Default locale", w.config.Locale.Default)
	supported := w.askString("Other locales (comma separated)", "")
	w.config.Locale.Supported = []string{w.config.Locale.Default}
	for _, loc := range strings.Split(supported, ",") {
		if loc = strings.TrimSpace(loc); loc != "" && loc != w.config.Locale.Default {
			w.config.Locale.Supported = append(w.config.Locale.Supported, loc)
		}
	}

	port, err := w.askInt("Dev server port", w.config.Server.Port, 1, 65535)
	if err != nil {
		return nil, err
	}
	w.config.Server.Port = port

	w.config.Feed.Title = w.config.Site.Title

	if err := validateConfig(w.config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return w.config, nil
}

func (w *ConfigWizard) readLine() (string, bool) {
	input, err := w.reader.ReadString('\n')
	if err != nil && input == "" {
		return "", false
	}
	return strings.TrimSpace(input), true
}

func (w *ConfigWizard) askString(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(w.out, "%s: ", prompt)
	}

	input, ok := w.readLine()
	if !ok || input == "" {
		return defaultValue
	}
	return input
}

func (w *ConfigWizard) askInt(prompt string, defaultValue, min, max int) (int, error) {
	for {
		fmt.Fprintf(w.out, "%s [%d]: ", prompt, defaultValue)

		input, ok := w.readLine()
		if !ok || input == "" {
			return defaultValue, nil
		}

		value, err := strconv.Atoi(input)
		if err != nil || value < min || value > max {
			fmt.Fprintf(w.out, "Please enter a number between %d and %d.\n", min, max)
			continue
		}
		return value, nil
	}
}

func (w *ConfigWizard) askBool(prompt string, defaultValue bool) bool {
	defaultStr := "n"
	if defaultValue {
		defaultStr = "y"
	}
	fmt.Fprintf(w.out, "%s [%s]: ", prompt, defaultStr)

	input, ok := w.readLine()
	if !ok || input == "" {
		return defaultValue
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes" || input == "true"
}
