package locale

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Tag returns the canonical BCP 47 form of locale, e.g. "en-us" -> "en-US".
// Unparseable input is returned lower-cased.
func Tag(locale string) string {
	t, err := language.Parse(locale)
	if err != nil {
		return strings.ToLower(locale)
	}
	return t.String()
}

// FeedLanguage formats locale the way RSS <language> expects ("en-us").
func FeedLanguage(locale string) string {
	return strings.ToLower(Tag(locale))
}

// ValidateLocales checks that every configured locale matches the locale
// code pattern and parses as a language tag.
func ValidateLocales(locales []string) error {
	seen := make(map[string]bool, len(locales))
	for _, l := range locales {
		if !IsLocaleCode(l) {
			return fmt.Errorf("locale %q does not match the locale code pattern", l)
		}
		if _, err := language.Parse(l); err != nil {
			return fmt.Errorf("locale %q: %w", l, err)
		}
		if seen[l] {
			return fmt.Errorf("locale %q listed twice", l)
		}
		seen[l] = true
	}
	return nil
}
