package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-press/lumen/internal/reveal"
)

func TestQueryByClass(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<div id="a" class="animate-on-scroll"></div>
		<div id="b" class="x animate-on-load animate-on-scroll"></div>
		<div id="c" class="other"></div>
	</body></html>`)
	require.NoError(t, err)

	got := doc.QueryByClass("animate-on-scroll", "animate-on-load")
	require.Len(t, got, 2)
	assert.Same(t, doc.ByID("a"), got[0])
	assert.Same(t, doc.ByID("b"), got[1])
}

func TestElementIdentityIsStable(t *testing.T) {
	doc, err := ParseString(`<ul id="l"><li>1</li></ul>`)
	require.NoError(t, err)

	l := doc.ByID("l")
	assert.Same(t, l.Children()[0], l.Children()[0])
}

func TestClassEditing(t *testing.T) {
	doc, err := ParseString(`<p id="p" class="opacity-0  translate-y-4 keep"></p>`)
	require.NoError(t, err)
	p := doc.ByID("p")

	p.AddClass("animate-triggered", "keep")
	p.RemoveClass("opacity-0", "translate-y-4", "missing")

	assert.Equal(t, []string{"keep", "animate-triggered"}, p.Classes())
	v, _ := p.Attr("class")
	assert.Equal(t, "keep animate-triggered", v)
}

func TestAddClassCreatesAttribute(t *testing.T) {
	doc, err := ParseString(`<p id="p"></p>`)
	require.NoError(t, err)
	p := doc.ByID("p")

	p.RemoveClass("x")
	_, ok := p.Attr("class")
	assert.False(t, ok)

	p.AddClass("dark")
	assert.True(t, p.HasClass("dark"))
}

func TestSetStyle(t *testing.T) {
	doc, err := ParseString(`<p id="p" style="color: red; opacity:0"></p>`)
	require.NoError(t, err)
	p := doc.ByID("p")

	p.SetStyle("opacity", "1")
	p.SetStyle("transform", "translateY(0)")

	assert.Equal(t, "1", p.Style("opacity"))
	assert.Equal(t, "red", p.Style("color"))
	v, _ := p.Attr("style")
	assert.Equal(t, "color: red; opacity: 1; transform: translateY(0)", v)
}

func TestRootAndRender(t *testing.T) {
	doc, err := ParseString(`<!DOCTYPE html><html><body><p>hi</p></body></html>`)
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	root.AddClass("dark")

	out := doc.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, `<html class="dark">`)
}

func TestTextAndTag(t *testing.T) {
	doc, err := ParseString(`<div id="d">Hello <b>World</b></div>`)
	require.NoError(t, err)
	d := doc.ByID("d")
	assert.Equal(t, "div", d.Tag())
	assert.Equal(t, "Hello World", d.Text())
	assert.Nil(t, doc.ByID("missing"))
}

func TestStaticEnvironmentRevealsEverything(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<div id="a" class="animate-on-scroll opacity-0"></div>
		<ul id="b" class="animate-on-load" data-animation-stagger="100"><li class="opacity-0"></li></ul>
	</body></html>`)
	require.NoError(t, err)

	s := reveal.New(doc, StaticEnvironment{})
	s.Initialize(nil)

	assert.True(t, doc.ByID("a").HasClass(reveal.ClassTriggered))
	assert.False(t, doc.ByID("a").HasClass("opacity-0"))
	assert.True(t, doc.ByID("b").HasClass(reveal.ClassTriggered))
	assert.Equal(t, 0, s.Groups())
}
