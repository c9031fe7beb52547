package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/lumen-press/lumen/internal/locale"
	"github.com/lumen-press/lumen/internal/theme"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	if len(vr.Errors) > 0 {
		builder.WriteString("Validation errors:\n")
		for _, err := range vr.Errors {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
			for _, suggestion := range err.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
		builder.WriteString("\n")
	}

	if len(vr.Warnings) > 0 {
		builder.WriteString("Validation warnings:\n")
		for _, warning := range vr.Warnings {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", warning.Field, warning.Message))
			for _, suggestion := range warning.Suggestions {
				builder.WriteString(fmt.Sprintf("      hint: %s\n", suggestion))
			}
		}
	}

	return builder.String()
}

// ValidateConfigWithDetails performs comprehensive validation with detailed
// feedback. Unlike Load it also reports things that are legal but likely
// mistakes, such as a missing project id.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	validateServerConfigDetails(&config.Server, result)
	validateSiteConfigDetails(&config.Site, result)
	validateSanityConfigDetails(&config.Sanity, result)
	validateLocaleConfigDetails(&config.Locale, result)
	validateAnimationConfigDetails(&config.Animation, result)

	if _, err := theme.Parse(config.Theme.Default); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "theme.default",
			Value:       config.Theme.Default,
			Message:     err.Error(),
			Suggestions: []string{"Use 'light' or 'dark'"},
		})
	}

	result.Valid = !result.HasErrors()
	return result
}

func validateServerConfigDetails(config *ServerConfig, result *ValidationResult) {
	if config.Port < 0 || config.Port > 65535 {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: fmt.Sprintf("port %d is not in valid range 0-65535", config.Port),
			Suggestions: []string{
				"Use a port between 1024-65535 for non-privileged access",
				"Port 0 allows system to assign an available port",
			},
		})
	} else if config.Port > 0 && config.Port < 1024 {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "server.port",
			Value:   config.Port,
			Message: "port below 1024 requires elevated privileges",
			Suggestions: []string{
				"Consider using a port above 1024 for development",
			},
		})
	}

	if config.Host != "" {
		if err := validateHostname(config.Host); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:   "server.host",
				Value:   config.Host,
				Message: err.Error(),
				Suggestions: []string{
					"Use 'localhost' for local development",
					"Use '0.0.0.0' to bind to all interfaces",
				},
			})
		}
	}
}

func validateSiteConfigDetails(config *SiteConfig, result *ValidationResult) {
	u, err := url.Parse(config.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "site.url",
			Value:       config.URL,
			Message:     "site url must be an absolute http(s) URL",
			Suggestions: []string{"Example: https://example.com"},
		})
	} else if h := u.Hostname(); h == "localhost" || h == "127.0.0.1" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "site.url",
			Value:       config.URL,
			Message:     "feed and canonical links will point at a local address",
			Suggestions: []string{"Set site.url to the public address before deploying"},
		})
	}

	if err := validatePath(config.OutputDir); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "site.output_dir",
			Value:   config.OutputDir,
			Message: err.Error(),
			Suggestions: []string{
				"Use relative paths like 'dist'",
				"Avoid parent directory references (..)",
			},
		})
	}
	if config.StaticDir != "" {
		if err := validatePath(config.StaticDir); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Field:       "site.static_dir",
				Value:       config.StaticDir,
				Message:     err.Error(),
				Suggestions: []string{"Use a relative path like 'public'"},
			})
		}
	}
}

func validateSanityConfigDetails(config *SanityConfig, result *ValidationResult) {
	if config.ProjectID == "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "sanity.project_id",
			Value:   config.ProjectID,
			Message: "no project id configured; build and serve cannot fetch content",
			Suggestions: []string{
				"Set sanity.project_id in " + FileName,
				"Or export LUMEN_SANITY_PROJECT_ID",
			},
		})
	} else if !projectIDPattern.MatchString(config.ProjectID) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "sanity.project_id",
			Value:   config.ProjectID,
			Message: "project id may only contain a-z, 0-9 and dashes",
		})
	}

	if !datasetPattern.MatchString(config.Dataset) {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "sanity.dataset",
			Value:       config.Dataset,
			Message:     "dataset may only contain a-z, 0-9, _ and -",
			Suggestions: []string{"The default dataset is 'production'"},
		})
	}

	if config.UseCDN && config.Token != "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "sanity.use_cdn",
			Value:   config.UseCDN,
			Message: "authenticated requests bypass the CDN",
		})
	}
}

func validateLocaleConfigDetails(config *LocaleConfig, result *ValidationResult) {
	if err := locale.ValidateLocales(config.Locales()); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "locale.supported",
			Value:       config.Supported,
			Message:     err.Error(),
			Suggestions: []string{"Locales look like 'en' or 'en-US'"},
		})
	}
	if !locale.IsLocaleCode(config.Fallback) {
		result.Errors = append(result.Errors, ValidationError{
			Field:   "locale.fallback",
			Value:   config.Fallback,
			Message: "fallback is not a locale code",
		})
	} else if !contains(config.Locales(), config.Fallback) {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "locale.fallback",
			Value:   config.Fallback,
			Message: "fallback locale is not one of the published locales",
		})
	}
}

func validateAnimationConfigDetails(config *AnimationConfig, result *ValidationResult) {
	if config.Threshold < 0 || config.Threshold > 1 {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "animation.threshold",
			Value:       config.Threshold,
			Message:     "threshold must be between 0 and 1",
			Suggestions: []string{"0.5 reveals an element once half of it is visible"},
		})
	}
}

func validateHostname(host string) error {
	if net.ParseIP(host) != nil || host == "localhost" {
		return nil
	}
	if len(host) > 253 {
		return fmt.Errorf("hostname too long")
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" || len(label) > 63 {
			return fmt.Errorf("invalid hostname label in %q", host)
		}
		for _, r := range label {
			if !(r == '-' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return fmt.Errorf("hostname %q contains invalid character %q", host, r)
			}
		}
	}
	return nil
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
