// Package config provides configuration management for lumen using Viper
// for loading from files, environment variables, and command-line flags.
//
// The configuration lives in .lumen.yml. Every key can be overridden with an
// environment variable carrying the LUMEN_ prefix, with dots replaced by
// underscores (LUMEN_SANITY_PROJECT_ID, LUMEN_SERVER_PORT, ...).
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lumen-press/lumen/internal/locale"
	"github.com/lumen-press/lumen/internal/reveal"
	"github.com/lumen-press/lumen/internal/theme"
)

// FileName is the default config file name.
const FileName = ".lumen.yml"

type Config struct {
	Site      SiteConfig      `mapstructure:"site" yaml:"site"`
	Sanity    SanityConfig    `mapstructure:"sanity" yaml:"sanity"`
	Locale    LocaleConfig    `mapstructure:"locale" yaml:"locale"`
	Feed      FeedConfig      `mapstructure:"feed" yaml:"feed"`
	Animation AnimationConfig `mapstructure:"animation" yaml:"animation"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Theme     ThemeConfig     `mapstructure:"theme" yaml:"theme"`
}

type SiteConfig struct {
	Title       string `mapstructure:"title" yaml:"title"`
	Description string `mapstructure:"description" yaml:"description"`
	URL         string `mapstructure:"url" yaml:"url"`
	Author      string `mapstructure:"author" yaml:"author"`
	OGImage     string `mapstructure:"og_image" yaml:"og_image"`
	OutputDir   string `mapstructure:"output_dir" yaml:"output_dir"`
	// StaticDir is copied verbatim into OutputDir after every build.
	StaticDir string `mapstructure:"static_dir" yaml:"static_dir"`
}

type SanityConfig struct {
	ProjectID  string        `mapstructure:"project_id" yaml:"project_id"`
	Dataset    string        `mapstructure:"dataset" yaml:"dataset"`
	APIVersion string        `mapstructure:"api_version" yaml:"api_version"`
	UseCDN     bool          `mapstructure:"use_cdn" yaml:"use_cdn"`
	Token      string        `mapstructure:"token" yaml:"token,omitempty"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl" yaml:"cache_ttl"`
	CacheSize  int64         `mapstructure:"cache_size" yaml:"cache_size"`
}

type LocaleConfig struct {
	Default   string   `mapstructure:"default" yaml:"default"`
	Fallback  string   `mapstructure:"fallback" yaml:"fallback"`
	Supported []string `mapstructure:"supported" yaml:"supported"`
}

type FeedConfig struct {
	Title       string `mapstructure:"title" yaml:"title"`
	Description string `mapstructure:"description" yaml:"description"`
	TTL         int    `mapstructure:"ttl" yaml:"ttl"`
	Stylesheet  string `mapstructure:"stylesheet" yaml:"stylesheet"`
	Path        string `mapstructure:"path" yaml:"path"`
}

type AnimationConfig struct {
	Threshold  float64 `mapstructure:"threshold" yaml:"threshold"`
	RootMargin string  `mapstructure:"root_margin" yaml:"root_margin"`
	PlayOnce   bool    `mapstructure:"play_once" yaml:"play_once"`
	// Prerender reveals every animated element at build time so pages work
	// without a client runtime.
	Prerender bool `mapstructure:"prerender" yaml:"prerender"`
}

type ServerConfig struct {
	Host       string `mapstructure:"host" yaml:"host"`
	Port       int    `mapstructure:"port" yaml:"port"`
	LiveReload bool   `mapstructure:"live_reload" yaml:"live_reload"`
}

type ThemeConfig struct {
	StorageKey string `mapstructure:"storage_key" yaml:"storage_key"`
	Default    string `mapstructure:"default" yaml:"default"`
}

// Reveal converts the animation section to scheduler options.
func (a AnimationConfig) Reveal() reveal.Config {
	return reveal.Config{
		Threshold:  a.Threshold,
		RootMargin: a.RootMargin,
		PlayOnce:   a.PlayOnce,
	}
}

// Locales returns the default locale followed by the other supported ones.
func (l LocaleConfig) Locales() []string {
	out := []string{l.Default}
	for _, loc := range l.Supported {
		if loc != l.Default {
			out = append(out, loc)
		}
	}
	return out
}

var defaults = map[string]any{
	"site.title":            "My Blog",
	"site.description":      "",
	"site.url":              "http://localhost:8080",
	"site.author":           "",
	"site.og_image":         "/og-image.png",
	"site.output_dir":       "dist",
	"site.static_dir":       "public",
	"sanity.project_id":     "",
	"sanity.dataset":        "production",
	"sanity.api_version":    "2026-02-02",
	"sanity.use_cdn":        true,
	"sanity.token":          "",
	"sanity.timeout":        30 * time.Second,
	"sanity.cache_ttl":      5 * time.Minute,
	"sanity.cache_size":     int64(32 << 20),
	"locale.default":        "en",
	"locale.fallback":       "en",
	"locale.supported":      []string{"en"},
	"feed.title":            "",
	"feed.description":      "",
	"feed.ttl":              60,
	"feed.stylesheet":       "/rss-styles.xsl",
	"feed.path":             "/rss.xml",
	"animation.threshold":   0.5,
	"animation.root_margin": "0px",
	"animation.play_once":   true,
	"animation.prerender":   true,
	"server.host":           "localhost",
	"server.port":           8080,
	"server.live_reload":    true,
	"theme.storage_key":     theme.StorageKey,
	"theme.default":         string(theme.Light),
}

// SetDefaults registers every default on v so environment overrides are
// picked up for keys missing from the file.
func SetDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := LoadFrom(v)
	if err != nil {
		panic(fmt.Sprintf("config: defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads the configuration from the global viper instance.
func Load() (*Config, error) {
	return LoadFrom(viper.GetViper())
}

// LoadFrom reads and validates the configuration held by v.
func LoadFrom(v *viper.Viper) (*Config, error) {
	config, err := Unmarshal(v)
	if err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

// Unmarshal reads the configuration held by v and fills derived defaults
// without validating it.
func Unmarshal(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.Locale.Fallback == "" {
		config.Locale.Fallback = locale.DefaultFallback
	}
	if config.Feed.Title == "" {
		config.Feed.Title = config.Site.Title
	}
	if config.Feed.Description == "" {
		config.Feed.Description = config.Site.Description
	}

	return &config, nil
}

var (
	projectIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	datasetPattern   = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
)

// validateConfig validates configuration values for security and correctness
func validateConfig(config *Config) error {
	if err := validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config: %w", err)
	}
	if err := validateSiteConfig(&config.Site); err != nil {
		return fmt.Errorf("site config: %w", err)
	}
	if err := validateSanityConfig(&config.Sanity); err != nil {
		return fmt.Errorf("sanity config: %w", err)
	}
	if err := validateLocaleConfig(&config.Locale); err != nil {
		return fmt.Errorf("locale config: %w", err)
	}
	if t := config.Animation.Threshold; t < 0 || t > 1 {
		return fmt.Errorf("animation config: threshold %v is not in range 0-1", t)
	}
	if _, err := theme.Parse(config.Theme.Default); err != nil {
		return fmt.Errorf("theme config: %w", err)
	}
	if config.Feed.TTL < 0 {
		return fmt.Errorf("feed config: ttl must not be negative")
	}
	return nil
}

// validateServerConfig validates server configuration values
func validateServerConfig(config *ServerConfig) error {
	// Validate port range (allow 0 for system-assigned ports in testing)
	if config.Port < 0 || config.Port > 65535 {
		return fmt.Errorf("port %d is not in valid range 0-65535", config.Port)
	}

	if config.Host != "" {
		dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'", "\\"}
		for _, char := range dangerousChars {
			if strings.Contains(config.Host, char) {
				return fmt.Errorf("host contains dangerous character: %s", char)
			}
		}
	}

	return nil
}

func validateSiteConfig(config *SiteConfig) error {
	u, err := url.Parse(config.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("url %q must be an absolute http(s) URL", config.URL)
	}
	if err := validatePath(config.OutputDir); err != nil {
		return err
	}
	if config.StaticDir != "" {
		if err := validatePath(config.StaticDir); err != nil {
			return fmt.Errorf("static_dir: %w", err)
		}
	}
	return nil
}

func validateSanityConfig(config *SanityConfig) error {
	// project id may be left empty until the site is connected
	if config.ProjectID != "" && !projectIDPattern.MatchString(config.ProjectID) {
		return fmt.Errorf("project_id %q may only contain a-z, 0-9 and dashes", config.ProjectID)
	}
	if !datasetPattern.MatchString(config.Dataset) {
		return fmt.Errorf("dataset %q may only contain a-z, 0-9, _ and -", config.Dataset)
	}
	if config.Timeout < 0 || config.CacheTTL < 0 || config.CacheSize < 0 {
		return fmt.Errorf("timeout, cache_ttl and cache_size must not be negative")
	}
	return nil
}

func validateLocaleConfig(config *LocaleConfig) error {
	if err := locale.ValidateLocales(config.Locales()); err != nil {
		return err
	}
	return locale.ValidateLocales([]string{config.Fallback})
}

// validatePath validates a file path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	cleanPath := filepath.Clean(path)

	if strings.Contains(cleanPath, "..") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	dangerousChars := []string{";", "&", "|", "$", "`", "(", ")", "<", ">", "\"", "'"}
	for _, char := range dangerousChars {
		if strings.Contains(cleanPath, char) {
			return fmt.Errorf("path contains dangerous character: %s", char)
		}
	}

	return nil
}

// Write stores cfg as YAML at path. Existing files are left untouched unless
// overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file %s already exists", path)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	header := "# lumen configuration\n# Environment variables with the LUMEN_ prefix override these values.\n\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}
