// Package locale collapses localized CMS content to a single display locale.
//
// Content fields arrive in one of four shapes: a plain string, a locale map
// ({"en": "Title", "cs": "Nadpis"}), a rich-text document ([]any of blocks)
// or a map of rich-text documents per locale. The shape is decided by
// inspecting the value, never by the schema, since authoring tools may store
// either form for the same field.
//
// Nothing in this package returns an error. Bad content degrades to the empty
// string, an empty document or an unchanged pass-through so a page always
// renders something.
package locale

import (
	"regexp"
	"sort"

	"github.com/lumen-press/lumen/internal/content"
)

// Kind classifies a raw content value.
type Kind int

const (
	KindEmpty Kind = iota
	KindPlain
	KindLocaleMap
	KindRichText
	KindLocaleRichText
	KindUnknown
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindPlain:
		return "plain"
	case KindLocaleMap:
		return "locale-map"
	case KindRichText:
		return "rich-text"
	case KindLocaleRichText:
		return "locale-rich-text"
	default:
		return "unknown"
	}
}

var localeCodePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Za-z]{2})?$`)

// IsLocaleCode reports whether s looks like "en", "cs" or "en-US".
func IsLocaleCode(s string) bool {
	return localeCodePattern.MatchString(s)
}

// Classify inspects a raw value and reports which localizable shape it has.
// Objects are locale maps only when IsLocaleObject holds, and per-locale
// rich-text maps only when every key is a locale code and every value is nil
// or an array. Anything else, such as a reference object, is KindUnknown.
func Classify(v any) Kind {
	switch val := v.(type) {
	case nil:
		return KindEmpty
	case string:
		if val == "" {
			return KindEmpty
		}
		return KindPlain
	case []any:
		return KindRichText
	}

	ents, ok := entries(v)
	switch {
	case !ok:
		return KindUnknown
	case len(ents) == 0:
		return KindEmpty
	case IsLocaleObject(v):
		return KindLocaleMap
	case isRichTextLocaleObject(v):
		return KindLocaleRichText
	}
	return KindUnknown
}

// IsLocaleObject reports whether v should be collapsed as a locale map rather
// than walked as nested structure. Every key must look like a locale code and
// every value must be nil or a string. A single non-locale key (for example
// "_ref" on a reference object) rules it out.
func IsLocaleObject(v any) bool {
	if _, isArray := v.([]any); isArray {
		return false
	}
	ents, ok := entries(v)
	if !ok || len(ents) == 0 {
		return false
	}
	for _, e := range ents {
		if !IsLocaleCode(e.key) {
			return false
		}
		switch e.value.(type) {
		case nil, string:
		default:
			return false
		}
	}
	return true
}

// isRichTextLocaleObject reports whether every key is a locale code and
// every value is nil or an array, with at least one array.
func isRichTextLocaleObject(v any) bool {
	ents, ok := entries(v)
	if !ok || len(ents) == 0 {
		return false
	}
	arrays := 0
	for _, e := range ents {
		if !IsLocaleCode(e.key) {
			return false
		}
		switch e.value.(type) {
		case nil:
		case []any:
			arrays++
		default:
			return false
		}
	}
	return arrays > 0
}

type entry struct {
	key   string
	value any
}

// entries lists the key/value pairs of an object value. Ordered objects keep
// source order; plain maps are sorted by key so results are deterministic.
func entries(v any) ([]entry, bool) {
	switch obj := v.(type) {
	case *content.Object:
		ents := make([]entry, 0, obj.Len())
		obj.Range(func(k string, val any) bool {
			ents = append(ents, entry{key: k, value: val})
			return true
		})
		return ents, true
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ents := make([]entry, 0, len(keys))
		for _, k := range keys {
			ents = append(ents, entry{key: k, value: obj[k]})
		}
		return ents, true
	case map[string]string:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ents := make([]entry, 0, len(keys))
		for _, k := range keys {
			ents = append(ents, entry{key: k, value: obj[k]})
		}
		return ents, true
	}
	return nil, false
}

// lookup returns the value stored under key in an object value.
func lookup(v any, key string) (any, bool) {
	switch obj := v.(type) {
	case *content.Object:
		return obj.Get(key)
	case map[string]any:
		val, ok := obj[key]
		return val, ok
	case map[string]string:
		val, ok := obj[key]
		return val, ok
	}
	return nil, false
}
