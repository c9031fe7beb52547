package locale

// Resolver binds a display locale and fallback so callers rendering a whole
// page do not repeat them on every field.
type Resolver struct {
	Locale   string
	Fallback string
}

// NewResolver returns a resolver for locale. An empty fallback means
// DefaultFallback.
func NewResolver(locale, fallback string) Resolver {
	if fallback == "" {
		fallback = DefaultFallback
	}
	return Resolver{Locale: locale, Fallback: fallback}
}

// Text resolves a plain string or locale map.
func (r Resolver) Text(value any) string {
	return ResolveString(value, r.Locale, r.Fallback)
}

// RichText selects the rich-text document without deep resolution.
func (r Resolver) RichText(value any) []any {
	return ResolveRichText(value, r.Locale, r.Fallback)
}

// Tree deep-resolves a rich-text value.
func (r Resolver) Tree(value any) []any {
	return ResolveTree(value, r.Locale, r.Fallback)
}

// PlainText flattens a rich-text value to one line of text.
func (r Resolver) PlainText(value any) string {
	return FlattenToPlainText(value, r.Locale, r.Fallback)
}

// Document resolves every localized field of a whole document.
func (r Resolver) Document(value any) any {
	return ResolveDocument(value, r.Locale, r.Fallback)
}
