package locale

import (
	"strings"

	"github.com/lumen-press/lumen/internal/content"
)

// DefaultFallback is used when no fallback locale is given.
const DefaultFallback = "en"

func fallbackOf(fallback []string) string {
	if len(fallback) > 0 && fallback[0] != "" {
		return fallback[0]
	}
	return DefaultFallback
}

// ResolveString collapses a plain string or locale map to one string.
//
// Strings come back unchanged. For maps the exact locale wins, then the
// fallback locale, then the first string entry in the map's own key order.
// Anything else resolves to "".
func ResolveString(value any, locale string, fallback ...string) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	}

	if s, ok := stringAt(value, locale); ok {
		return s
	}
	if fb := fallbackOf(fallback); locale != fb {
		if s, ok := stringAt(value, fb); ok {
			return s
		}
	}

	ents, _ := entries(value)
	for _, e := range ents {
		if s, ok := e.value.(string); ok {
			return s
		}
	}
	return ""
}

// ResolveRichText selects the rich-text document for locale using the same
// cascade as ResolveString, over array-valued entries. The selected slice is
// returned as is; use ResolveTree to collapse nested fields too.
func ResolveRichText(value any, locale string, fallback ...string) []any {
	switch v := value.(type) {
	case nil:
		return []any{}
	case []any:
		return v
	}

	if doc, ok := arrayAt(value, locale); ok {
		return doc
	}
	if fb := fallbackOf(fallback); locale != fb {
		if doc, ok := arrayAt(value, fb); ok {
			return doc
		}
	}

	ents, _ := entries(value)
	for _, e := range ents {
		if doc, ok := e.value.([]any); ok {
			return doc
		}
	}
	return []any{}
}

// ResolveTree selects the document for locale and walks it, collapsing every
// nested locale map to a string. The result is a fresh tree; value is not
// modified. Objects in the result are *content.Object.
func ResolveTree(value any, locale string, fallback ...string) []any {
	fb := fallbackOf(fallback)
	doc := ResolveRichText(value, locale, fb)

	out := make([]any, len(doc))
	for i, node := range doc {
		out[i] = resolveNode(node, locale, fb)
	}
	return out
}

func resolveNode(node any, locale, fallback string) any {
	switch v := node.(type) {
	case string:
		return ResolveString(v, locale, fallback)
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = resolveNode(child, locale, fallback)
		}
		return out
	}

	if Classify(node) == KindLocaleMap {
		return ResolveString(node, locale, fallback)
	}

	ents, ok := entries(node)
	if !ok {
		return node
	}

	obj := content.NewObject()
	for _, e := range ents {
		switch {
		case e.value == nil:
			obj.Set(e.key, nil)
		case e.key == "text", isString(e.value), Classify(e.value) == KindLocaleMap:
			obj.Set(e.key, ResolveString(e.value, locale, fallback))
		default:
			obj.Set(e.key, resolveNode(e.value, locale, fallback))
		}
	}
	return obj
}

// FlattenToPlainText resolves a rich-text value and returns the text of its
// top-level "block" nodes as one whitespace-normalised line. Used for feed
// descriptions and structured-data summaries; never emits markup.
func FlattenToPlainText(value any, locale string, fallback ...string) string {
	tree := ResolveTree(value, locale, fallback...)

	blocks := make([]string, 0, len(tree))
	for _, node := range tree {
		if t, _ := lookup(node, "_type"); t != "block" {
			continue
		}
		children, _ := lookup(node, "children")
		list, _ := children.([]any)

		texts := make([]string, 0, len(list))
		for _, child := range list {
			text, _ := lookup(child, "text")
			s, _ := text.(string)
			texts = append(texts, s)
		}
		blocks = append(blocks, strings.Join(texts, " "))
	}

	return strings.Join(strings.Fields(strings.Join(blocks, " ")), " ")
}

func stringAt(value any, key string) (string, bool) {
	v, ok := lookup(value, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func arrayAt(value any, key string) ([]any, bool) {
	v, ok := lookup(value, key)
	if !ok {
		return nil, false
	}
	arr, ok := v.([]any)
	return arr, ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// ResolveDocument resolves every localized field of a whole document, such
// as a post fetched from the CMS. String locale maps collapse to strings and
// locale maps of block arrays collapse to the resolved document for locale.
// Other objects and arrays are walked.
func ResolveDocument(value any, locale string, fallback ...string) any {
	return resolveDocument(value, locale, fallbackOf(fallback))
}

func resolveDocument(node any, locale, fallback string) any {
	switch v := node.(type) {
	case nil, string:
		return v
	case []any:
		out := make([]any, len(v))
		for i, child := range v {
			out[i] = resolveDocument(child, locale, fallback)
		}
		return out
	}

	switch Classify(node) {
	case KindLocaleMap:
		return ResolveString(node, locale, fallback)
	case KindLocaleRichText:
		return ResolveTree(node, locale, fallback)
	}

	ents, ok := entries(node)
	if !ok {
		return node
	}
	obj := content.NewObject()
	for _, e := range ents {
		obj.Set(e.key, resolveDocument(e.value, locale, fallback))
	}
	return obj
}
