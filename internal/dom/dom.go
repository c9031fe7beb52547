// Package dom adapts a parsed HTML tree (golang.org/x/net/html) to the
// reveal and theme element interfaces, so the same scheduling code that runs
// against a browser can rewrite static pages at build time.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/lumen-press/lumen/internal/reveal"
)

// Document is a parsed HTML document.
type Document struct {
	root *html.Node

	mu    sync.Mutex
	elems map[*html.Node]*Element
}

var _ reveal.Document = (*Document)(nil)

// Parse parses an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{root: root, elems: make(map[*html.Node]*Element)}, nil
}

// ParseString parses an HTML document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// Render writes the document back out as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning "" on error.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// Root returns the <html> element.
func (d *Document) Root() reveal.Element {
	for c := d.root.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Html {
			return d.wrap(c)
		}
	}
	return nil
}

// QueryByClass returns elements carrying any of classes in document order.
func (d *Document) QueryByClass(classes ...string) []reveal.Element {
	var out []reveal.Element
	d.walk(d.root, func(n *html.Node) {
		el := d.wrap(n)
		for _, c := range classes {
			if el.HasClass(c) {
				out = append(out, el)
				return
			}
		}
	})
	return out
}

// ByID returns the element with the given id attribute, or nil.
func (d *Document) ByID(id string) *Element {
	var found *Element
	d.walk(d.root, func(n *html.Node) {
		if found != nil {
			return
		}
		if v, ok := attr(n, "id"); ok && v == id {
			found = d.wrap(n)
		}
	})
	return found
}

func (d *Document) walk(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.ElementNode {
		fn(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		d.walk(c, fn)
	}
}

// wrap returns the single Element for n so identity comparisons hold.
func (d *Document) wrap(n *html.Node) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	if el, ok := d.elems[n]; ok {
		return el
	}
	el := &Element{node: n, doc: d}
	d.elems[n] = el
	return el
}

// Element is an HTML element node.
type Element struct {
	node *html.Node
	doc  *Document
}

var _ reveal.Element = (*Element)(nil)

// Tag returns the element's tag name.
func (e *Element) Tag() string {
	return e.node.Data
}

// Attr returns the value of an attribute.
func (e *Element) Attr(name string) (string, bool) {
	return attr(e.node, name)
}

// SetAttr sets or replaces an attribute.
func (e *Element) SetAttr(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// Classes returns the class list.
func (e *Element) Classes() []string {
	v, _ := e.Attr("class")
	return strings.Fields(v)
}

// HasClass reports whether the class list contains name.
func (e *Element) HasClass(name string) bool {
	for _, c := range e.Classes() {
		if c == name {
			return true
		}
	}
	return false
}

// AddClass appends classes not already present.
func (e *Element) AddClass(names ...string) {
	classes := e.Classes()
	changed := false
	for _, name := range names {
		if name == "" || contains(classes, name) {
			continue
		}
		classes = append(classes, name)
		changed = true
	}
	if changed {
		e.SetAttr("class", strings.Join(classes, " "))
	}
}

// RemoveClass drops the given classes.
func (e *Element) RemoveClass(names ...string) {
	classes := e.Classes()
	kept := classes[:0]
	for _, c := range classes {
		if !contains(names, c) {
			kept = append(kept, c)
		}
	}
	if _, ok := e.Attr("class"); ok {
		e.SetAttr("class", strings.Join(kept, " "))
	}
}

// Style returns one inline style property.
func (e *Element) Style(property string) string {
	for _, decl := range parseStyle(e.node) {
		if decl[0] == property {
			return decl[1]
		}
	}
	return ""
}

// SetStyle sets one inline style property, keeping the others.
func (e *Element) SetStyle(property, value string) {
	decls := parseStyle(e.node)
	replaced := false
	for i := range decls {
		if decls[i][0] == property {
			decls[i][1] = value
			replaced = true
		}
	}
	if !replaced {
		decls = append(decls, [2]string{property, value})
	}

	parts := make([]string, len(decls))
	for i, decl := range decls {
		parts[i] = decl[0] + ": " + decl[1]
	}
	e.SetAttr("style", strings.Join(parts, "; "))
}

// Children returns the immediate child elements.
func (e *Element) Children() []reveal.Element {
	var out []reveal.Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c))
		}
	}
	return out
}

// Text returns the concatenated text content.
func (e *Element) Text() string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(e.node)
	return b.String()
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func parseStyle(n *html.Node) [][2]string {
	raw, _ := attr(n, "style")
	var decls [][2]string
	for _, part := range strings.Split(raw, ";") {
		prop, val, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.TrimSpace(prop)
		if prop == "" {
			continue
		}
		decls = append(decls, [2]string{prop, strings.TrimSpace(val)})
	}
	return decls
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
