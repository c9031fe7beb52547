package locale

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-press/lumen/internal/content"
)

func mustDecode(t *testing.T, s string) any {
	t.Helper()
	v, err := content.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

// plain converts resolved trees back into comparable JSON-like values.
func plain(v any) any {
	switch val := v.(type) {
	case *content.Object:
		m := make(map[string]any, val.Len())
		val.Range(func(k string, child any) bool {
			m[k] = plain(child)
			return true
		})
		return m
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = plain(child)
		}
		return out
	default:
		return v
	}
}

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		locale   string
		fallback []string
		expected string
	}{
		{"null", `null`, "cs", nil, ""},
		{"plain string", `"Hello"`, "cs", nil, "Hello"},
		{"exact locale", `{"en":"Hello","cs":"Ahoj"}`, "cs", nil, "Ahoj"},
		{"falls back to en", `{"en":"Hello","de":"Hallo"}`, "cs", nil, "Hello"},
		{"custom fallback", `{"en":"Hello","de":"Hallo"}`, "cs", []string{"de"}, "Hallo"},
		{"first string in key order", `{"de":"Hallo","fr":"Bonjour"}`, "cs", nil, "Hallo"},
		{"skips non-string entries", `{"de":null,"fr":"Bonjour"}`, "cs", nil, "Bonjour"},
		{"non-string exact value", `{"cs":["x"],"en":"Hello"}`, "cs", nil, "Hello"},
		{"empty map", `{}`, "cs", nil, ""},
		{"no string values", `{"en":null,"cs":1}`, "cs", nil, ""},
		{"empty string is a string", `{"cs":"","en":"Hello"}`, "cs", nil, ""},
		{"number", `42`, "en", nil, ""},
		{"array", `["a"]`, "en", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value := mustDecode(t, tt.value)
			assert.Equal(t, tt.expected, ResolveString(value, tt.locale, tt.fallback...))
		})
	}
}

func TestResolveStringFallbackEqualsLocale(t *testing.T) {
	value := mustDecode(t, `{"de":"Hallo"}`)
	assert.Equal(t, "Hallo", ResolveString(value, "en", "en"))
}

func TestResolveStringPlainMaps(t *testing.T) {
	assert.Equal(t, "Ahoj", ResolveString(map[string]string{"cs": "Ahoj", "en": "Hi"}, "cs"))
	// plain maps iterate in sorted key order
	assert.Equal(t, "Hallo", ResolveString(map[string]any{"fr": "Bonjour", "de": "Hallo"}, "cs"))
}

func TestResolveRichText(t *testing.T) {
	en := []any{"en-block"}
	cs := []any{"cs-block"}
	de := []any{"de-block"}

	tests := []struct {
		name     string
		value    any
		locale   string
		expected []any
	}{
		{"nil", nil, "cs", []any{}},
		{"array passes through", en, "cs", en},
		{"exact", content.ObjectOf("en", en, "cs", cs), "cs", cs},
		{"fallback", content.ObjectOf("de", de, "en", en), "cs", en},
		{"first array", content.ObjectOf("fr", "not an array", "de", de), "cs", de},
		{"nothing usable", content.ObjectOf("fr", "text"), "cs", []any{}},
		{"string", "just text", "cs", []any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ResolveRichText(tt.value, tt.locale))
		})
	}
}

func TestResolveRichTextReturnsSelectedSlice(t *testing.T) {
	cs := []any{content.ObjectOf("_type", "block")}
	got := ResolveRichText(content.ObjectOf("cs", cs), "cs")
	require.Len(t, got, 1)
	assert.Same(t, cs[0].(*content.Object), got[0].(*content.Object))
}

func TestResolveTree(t *testing.T) {
	value := mustDecode(t, `{
		"cs": [{
			"_type": "block",
			"_key": "b1",
			"children": [
				{"_type": "span", "text": {"cs": "Ahoj", "en": "Hello"}, "marks": ["m1"]},
				{"_type": "span", "text": "svete"}
			],
			"markDefs": [
				{"_key": "m1", "_type": "link", "href": "https://example.com", "title": {"en": "Site", "cs": "Web"}}
			],
			"image": {"asset": {"_ref": "image-abc-10x20-png", "_type": "reference"}, "alt": {"en": "Cat"}},
			"caption": null,
			"level": 2
		}],
		"en": []
	}`)

	got := ResolveTree(value, "cs")

	want := []any{
		map[string]any{
			"_type": "block",
			"_key":  "b1",
			"children": []any{
				map[string]any{"_type": "span", "text": "Ahoj", "marks": []any{"m1"}},
				map[string]any{"_type": "span", "text": "svete"},
			},
			"markDefs": []any{
				map[string]any{"_key": "m1", "_type": "link", "href": "https://example.com", "title": "Web"},
			},
			"image": map[string]any{
				"asset": map[string]any{"_ref": "image-abc-10x20-png", "_type": "reference"},
				"alt":   "Cat",
			},
			"caption": nil,
			"level":   mustDecode(t, `2`),
		},
	}

	if diff := cmp.Diff(want, plain(got)); diff != "" {
		t.Errorf("ResolveTree mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveTreeKeepsKeyOrder(t *testing.T) {
	value := mustDecode(t, `[{"z":1,"_type":"block","a":{"en":"x"}}]`)
	got := ResolveTree(value, "en")
	require.Len(t, got, 1)
	assert.Equal(t, []string{"z", "_type", "a"}, got[0].(*content.Object).Keys())
}

func TestResolveTreeDoesNotMutateInput(t *testing.T) {
	const raw = `{"en":[{"_type":"block","children":[{"text":{"en":"Hi","cs":"Ahoj"}}]}]}`
	value := mustDecode(t, raw)

	_ = ResolveTree(value, "cs")

	if diff := cmp.Diff(plain(mustDecode(t, raw)), plain(value)); diff != "" {
		t.Errorf("input was modified (-want +got):\n%s", diff)
	}
}

func TestResolveTreeLeavesReferenceObjects(t *testing.T) {
	// _ref and _type are not locale codes, so the object is walked, not collapsed
	value := []any{content.ObjectOf("_ref", "x", "_type", "reference")}
	got := ResolveTree(value, "cs")

	if diff := cmp.Diff([]any{map[string]any{"_ref": "x", "_type": "reference"}}, plain(got)); diff != "" {
		t.Errorf("reference object changed (-want +got):\n%s", diff)
	}
}

func TestResolveTreeCollapsesLocaleShapedArrayItems(t *testing.T) {
	value := []any{content.ObjectOf("en", "Hello", "cs", "Ahoj")}
	assert.Equal(t, []any{"Ahoj"}, ResolveTree(value, "cs"))
}

func TestResolveTreeTextKeyAlwaysCollapsed(t *testing.T) {
	value := []any{content.ObjectOf("text", []any{"odd"})}
	got := ResolveTree(value, "en")
	text, _ := got[0].(*content.Object).Get("text")
	assert.Equal(t, "", text)
}

func TestFlattenToPlainText(t *testing.T) {
	value := mustDecode(t, `[
		{"_type": "block", "children": [{"text": "  Hello  "}]},
		{"_type": "image", "alt": "skip me"},
		{"_type": "block", "children": [{"text": "World   "}]}
	]`)

	assert.Equal(t, "Hello World", FlattenToPlainText(value, "en"))
}

func TestFlattenToPlainTextLocalized(t *testing.T) {
	value := mustDecode(t, `{
		"en": [{"_type":"block","children":[{"text":"One"},{"text":"two"}]}],
		"cs": [{"_type":"block","children":[{"text":{"cs":"Jedna","en":"One"}},{"text":"\n dva\t"}]}]
	}`)

	assert.Equal(t, "Jedna dva", FlattenToPlainText(value, "cs"))
	assert.Equal(t, "One two", FlattenToPlainText(value, "de"))
}

func TestFlattenToPlainTextEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenToPlainText(nil, "en"))
	assert.Equal(t, "", FlattenToPlainText(mustDecode(t, `[{"_type":"block"}]`), "en"))
}

func TestResolver(t *testing.T) {
	r := NewResolver("cs", "")
	assert.Equal(t, DefaultFallback, r.Fallback)

	title := content.ObjectOf("en", "Title", "cs", "Nadpis")
	assert.Equal(t, "Nadpis", r.Text(title))

	body := content.ObjectOf("en", []any{
		content.ObjectOf("_type", "block", "children", []any{content.ObjectOf("text", "Body")}),
	})
	assert.Len(t, r.RichText(body), 1)
	assert.Len(t, r.Tree(body), 1)
	assert.Equal(t, "Body", r.PlainText(body))
}

func TestResolveDocument(t *testing.T) {
	doc := mustDecode(t, `{
		"_id": "p1",
		"title": {"en": "Hello", "fr": "Bonjour"},
		"views": 12,
		"slug": {"current": "hello"},
		"content": {
			"en": [{"_type": "block", "children": [{"text": "Body"}]}],
			"fr": [{"_type": "block", "children": [{"text": {"en": "Body", "fr": "Corps"}}]}]
		},
		"tags": [{"en": "go", "fr": "golang"}],
		"draft": null
	}`)

	got := ResolveDocument(doc, "fr")

	want := map[string]any{
		"_id":     "p1",
		"title":   "Bonjour",
		"views":   mustDecode(t, `12`),
		"slug":    map[string]any{"current": "hello"},
		"content": []any{map[string]any{"_type": "block", "children": []any{map[string]any{"text": "Corps"}}}},
		"tags":    []any{"golang"},
		"draft":   nil,
	}
	if diff := cmp.Diff(want, plain(got)); diff != "" {
		t.Errorf("ResolveDocument mismatch (-want +got):\n%s", diff)
	}

	obj, ok := got.(*content.Object)
	require.True(t, ok)
	assert.Equal(t, []string{"_id", "title", "views", "slug", "content", "tags", "draft"}, obj.Keys())
}

func TestResolveDocumentRichTextFallback(t *testing.T) {
	doc := mustDecode(t, `{"content": {"en": [{"_type": "block", "children": [{"text": "Only English"}]}], "de": null}}`)

	got := NewResolver("de", "en").Document(doc)
	assert.Equal(t, "Only English", FlattenToPlainText(plainContent(got), "de"))
}

func plainContent(doc any) any {
	v, _ := doc.(*content.Object).Get("content")
	return v
}

func TestResolveDocumentWalksMixedKeyObjects(t *testing.T) {
	doc := mustDecode(t, `{
		"image": {"_ref": "image-abc", "_type": "reference"},
		"caption": {"en": "Hi", "_key": "k1"},
		"body": {"en": [{"_type": "block"}], "_type": "localeBlocks"}
	}`)

	got := ResolveDocument(doc, "fr")

	want := map[string]any{
		"image":   map[string]any{"_ref": "image-abc", "_type": "reference"},
		"caption": map[string]any{"en": "Hi", "_key": "k1"},
		"body":    map[string]any{"en": []any{map[string]any{"_type": "block"}}, "_type": "localeBlocks"},
	}
	if diff := cmp.Diff(want, plain(got)); diff != "" {
		t.Errorf("mixed-key objects must be walked, not collapsed (-want +got):\n%s", diff)
	}
}
