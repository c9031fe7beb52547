package site

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/lumen-press/lumen/internal/locale"
	"github.com/lumen-press/lumen/internal/reveal"
	"github.com/lumen-press/lumen/internal/sanity"
)

// revealCSS backs the hidden-state utility classes the reveal scheduler
// removes.
const revealCSS = `.opacity-0{opacity:0}` +
	`.translate-y-4{transform:translateY(1rem)}` +
	`.translate-y-2{transform:translateY(.5rem)}` +
	`.scale-95,.animate-type-scale{transform:scale(.95)}` +
	`.animate-triggered{transition:opacity .6s ease-out,transform .6s ease-out}` +
	`@media (prefers-reduced-motion:reduce){.animate-triggered{transition:none}}`

// Page carries what every page needs to render its shell.
type Page struct {
	SiteTitle   string
	SiteURL     string
	Author      string
	OGImage     string
	Locale      string
	Locales     []string
	Default     string
	Path        string
	Title       string
	Description string
	FeedPath    string
	ThemeScript string
	Year        int
}

// prefix is the URL prefix of p's locale: empty for the default locale.
func (p Page) prefix(loc string) string {
	if loc == p.Default {
		return ""
	}
	return "/" + loc
}

// Link returns an absolute path inside p's locale.
func (p Page) Link(path string) string {
	return p.prefix(p.Locale) + path
}

func (p Page) absolute(path string) string {
	return strings.TrimRight(p.SiteURL, "/") + path
}

// Layout wraps body in the document shell.
func Layout(p Page, body templ.Component) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		title := p.SiteTitle
		if p.Title != "" && p.Title != p.SiteTitle {
			title = p.Title + " | " + p.SiteTitle
		}

		h.raw("<!DOCTYPE html><html")
		h.attr("lang", locale.Tag(p.Locale))
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title)
		h.raw("</title>")
		if p.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", p.Description)
			h.raw(">")
		}
		h.raw(`<link rel="canonical"`)
		h.attr("href", p.absolute(p.Link(p.Path)))
		h.raw(">")
		for _, loc := range p.Locales {
			h.raw(`<link rel="alternate"`)
			h.attr("hreflang", locale.Tag(loc))
			h.attr("href", p.absolute(p.prefix(loc)+p.Path))
			h.raw(">")
		}
		h.raw(`<link rel="alternate" type="application/rss+xml"`)
		h.attr("title", p.SiteTitle)
		h.attr("href", p.Link(p.FeedPath))
		h.raw(">")
		h.raw(`<meta property="og:title"`)
		h.attr("content", title)
		h.raw(">")
		if p.OGImage != "" {
			h.raw(`<meta property="og:image"`)
			h.attr("content", p.absolute(p.OGImage))
			h.raw(">")
		}
		h.raw("<style>" + revealCSS + "</style>")
		h.raw("<script>" + p.ThemeScript + "</script>")
		h.raw("</head><body>")

		h.raw(`<header class="site-header"><a class="site-title"`)
		h.href(p.Link("/"))
		h.raw(">")
		h.text(p.SiteTitle)
		h.raw("</a>")
		if len(p.Locales) > 1 {
			h.raw(`<nav class="locales">`)
			for _, loc := range p.Locales {
				h.raw("<a")
				h.href(p.prefix(loc) + p.Path)
				h.attr("hreflang", locale.Tag(loc))
				if loc == p.Locale {
					h.raw(` aria-current="page"`)
				}
				h.raw(">")
				h.text(strings.ToUpper(loc))
				h.raw("</a>")
			}
			h.raw("</nav>")
		}
		h.raw("</header><main>")
		h.render(ctx, body)
		h.raw("</main><footer>")
		h.rawf("&copy; %d ", p.Year)
		h.text(p.Author)
		h.raw("</footer></body></html>")
	})
}

// PostList renders post cards that fade in one after another.
func PostList(p Page, res locale.Resolver, heading string, posts []sanity.BlogPostPreview, images func(*sanity.Image) string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<section class="posts"><h1 class="` + reveal.ClassOnLoad + ` opacity-0 translate-y-4">`)
		h.text(heading)
		h.raw("</h1>")
		if len(posts) == 0 {
			h.raw(`<p class="empty">No posts yet.</p></section>`)
			return
		}
		h.raw(`<ul class="post-list ` + reveal.ClassOnScroll + `" data-animation-stagger="100">`)
		for _, post := range posts {
			h.raw(`<li class="post-card opacity-0 translate-y-4 scale-95"><a`)
			h.href(p.Link("/blog/" + post.Slug.Current + "/"))
			h.raw(">")
			if images != nil && post.FeaturedImage != nil {
				if src := images(post.FeaturedImage); src != "" {
					h.raw("<img")
					h.attr("src", src)
					h.attr("alt", res.Text(post.FeaturedImage.Alt.Raw))
					h.raw(` loading="lazy">`)
				}
			}
			h.raw("<h2>")
			h.text(res.Text(post.Title.Raw))
			h.raw("</h2>")
			writeDate(h, post.PublishedAt)
			if excerpt := res.Text(post.Excerpt.Raw); excerpt != "" {
				h.raw("<p>")
				h.text(excerpt)
				h.raw("</p>")
			}
			h.raw("</a>")
			writeCategories(h, p, res, post.Categories)
			h.raw("</li>")
		}
		h.raw("</ul></section>")
	})
}

// PostPage renders a full article.
func PostPage(p Page, res locale.Resolver, post *sanity.BlogPost, images func(*sanity.Image) string) templ.Component {
	return component(func(ctx context.Context, h *htmlWriter) {
		h.raw(`<article class="post"><header class="` + reveal.ClassOnLoad + ` opacity-0 translate-y-4"><h1>`)
		h.text(res.Text(post.Title.Raw))
		h.raw(`</h1><p class="byline">`)
		if post.Author != nil {
			if name := res.Text(post.Author.Name.Raw); name != "" {
				h.raw(`<span class="author">`)
				h.text(name)
				h.raw("</span> ")
			}
		}
		writeDate(h, post.PublishedAt)
		h.raw("</p>")
		writeCategories(h, p, res, post.Categories)
		h.raw("</header>")

		if images != nil && post.FeaturedImage != nil {
			if src := images(post.FeaturedImage); src != "" {
				dims := sanity.ImageDimensions(post.FeaturedImage)
				h.raw(`<figure class="featured ` + reveal.ClassOnScroll + ` opacity-0 animate-type-scale" data-animation-delay="100"><img`)
				h.attr("src", src)
				h.attr("alt", res.Text(post.FeaturedImage.Alt.Raw))
				if dims.Width > 0 && dims.Height > 0 {
					h.attr("width", strconv.Itoa(dims.Width))
					h.attr("height", strconv.Itoa(dims.Height))
				}
				h.raw(">")
				if caption := res.Text(post.FeaturedImage.Caption.Raw); caption != "" {
					h.raw("<figcaption>")
					h.text(caption)
					h.raw("</figcaption>")
				}
				h.raw("</figure>")
			}
		}

		h.raw(`<div class="prose ` + reveal.ClassOnScroll + ` opacity-0 translate-y-2" data-animation-delay="150">`)
		h.render(ctx, PortableText(res.Tree(post.Content.Raw), images))
		h.raw("</div></article>")
	})
}

func writeDate(h *htmlWriter, t time.Time) {
	if t.IsZero() {
		return
	}
	h.raw("<time")
	h.attr("datetime", t.UTC().Format(time.RFC3339))
	h.raw(">")
	h.text(t.UTC().Format("January 2, 2006"))
	h.raw("</time>")
}

func writeCategories(h *htmlWriter, p Page, res locale.Resolver, cats []sanity.Category) {
	if len(cats) == 0 {
		return
	}
	h.raw(`<ul class="categories">`)
	for _, cat := range cats {
		title := res.Text(cat.Title.Raw)
		if title == "" || cat.Slug.Current == "" {
			continue
		}
		h.raw("<li><a")
		h.href(p.Link("/category/" + cat.Slug.Current + "/"))
		h.raw(">")
		h.text(title)
		h.raw("</a></li>")
	}
	h.raw("</ul>")
}
