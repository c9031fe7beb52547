// Package feed renders the blog's RSS 2.0 feed.
package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/lumen-press/lumen/internal/locale"
	"github.com/lumen-press/lumen/internal/sanity"
)

const (
	atomNamespace = "http://www.w3.org/2005/Atom"
	rssDocs       = "https://www.rssboard.org/rss-specification"
	dateLayout    = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// RSS is the document root.
type RSS struct {
	XMLName xml.Name `xml:"rss"`
	Version string   `xml:"version,attr"`
	AtomNS  string   `xml:"xmlns:atom,attr"`
	Channel *Channel `xml:"channel"`

	stylesheet string
}

// Channel is the feed's channel element.
type Channel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language,omitempty"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Generator     string    `xml:"generator,omitempty"`
	Docs          string    `xml:"docs,omitempty"`
	TTL           int       `xml:"ttl,omitempty"`
	Image         *Image    `xml:"image,omitempty"`
	AtomLink      *AtomLink `xml:"atom:link,omitempty"`
	Items         []Item    `xml:"item"`
}

// Image is the channel logo.
type Image struct {
	URL   string `xml:"url"`
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// AtomLink is the self reference recommended for RSS feeds.
type AtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

// Item is one post in the feed.
type Item struct {
	Title       string     `xml:"title"`
	Link        string     `xml:"link"`
	GUID        GUID       `xml:"guid"`
	Description string     `xml:"description"`
	PubDate     string     `xml:"pubDate,omitempty"`
	Author      string     `xml:"author,omitempty"`
	Categories  []string   `xml:"category"`
	Enclosure   *Enclosure `xml:"enclosure,omitempty"`
}

// GUID identifies an item.
type GUID struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

// Enclosure attaches media to an item.
type Enclosure struct {
	URL    string `xml:"url,attr"`
	Type   string `xml:"type,attr"`
	Length int64  `xml:"length,attr"`
}

// Options describe the channel. SiteURL is required.
type Options struct {
	Title         string
	Description   string
	SiteURL       string
	Locale        string
	Fallback      string
	DefaultAuthor string
	Generator     string
	TTL           int
	// BasePath prefixes post links, e.g. "/fr" for a translated feed.
	BasePath  string
	ImagePath string
	SelfPath  string
	// Stylesheet is an XSL path emitted as an xml-stylesheet instruction.
	Stylesheet string
	// ImageURL renders a post's featured image; nil disables enclosures.
	ImageURL func(*sanity.Image) string
	Now      func() time.Time
}

func (o *Options) setDefaults() {
	if o.Generator == "" {
		o.Generator = "lumen"
	}
	if o.TTL == 0 {
		o.TTL = 60
	}
	if o.ImagePath == "" {
		o.ImagePath = "/og-image.png"
	}
	if o.SelfPath == "" {
		o.SelfPath = "/rss.xml"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// Build maps post previews to a feed document. Localized fields are resolved
// to opts.Locale.
func Build(posts []sanity.BlogPostPreview, opts Options) (*RSS, error) {
	opts.setDefaults()
	site, err := url.Parse(opts.SiteURL)
	if err != nil || site.Scheme == "" || site.Host == "" {
		return nil, fmt.Errorf("feed: invalid site url %q", opts.SiteURL)
	}
	res := locale.NewResolver(opts.Locale, opts.Fallback)

	ch := &Channel{
		Title:         opts.Title,
		Link:          site.String(),
		Description:   opts.Description,
		Language:      locale.FeedLanguage(res.Locale),
		LastBuildDate: opts.Now().UTC().Format(dateLayout),
		Generator:     opts.Generator,
		Docs:          rssDocs,
		TTL:           opts.TTL,
		Image: &Image{
			URL:   resolveRef(site, opts.ImagePath),
			Title: opts.Title,
			Link:  site.String(),
		},
		AtomLink: &AtomLink{
			Href: resolveRef(site, opts.SelfPath),
			Rel:  "self",
			Type: "application/rss+xml",
		},
		Items: make([]Item, 0, len(posts)),
	}

	for _, post := range posts {
		ch.Items = append(ch.Items, buildItem(post, site, res, opts))
	}

	return &RSS{
		Version:    "2.0",
		AtomNS:     atomNamespace,
		Channel:    ch,
		stylesheet: opts.Stylesheet,
	}, nil
}

func buildItem(post sanity.BlogPostPreview, site *url.URL, res locale.Resolver, opts Options) Item {
	link := resolveRef(site, strings.TrimRight(opts.BasePath, "/")+"/blog/"+post.Slug.Current)

	item := Item{
		Title:       res.Text(post.Title.Raw),
		Link:        link,
		GUID:        GUID{Value: link, IsPermaLink: true},
		Description: excerpt(post, res),
		Author:      opts.DefaultAuthor,
		Categories:  []string{},
	}
	if !post.PublishedAt.IsZero() {
		item.PubDate = post.PublishedAt.UTC().Format(dateLayout)
	}
	if post.Author != nil {
		if name := res.Text(post.Author.Name.Raw); name != "" {
			item.Author = name
		}
	}
	for _, cat := range post.Categories {
		if title := res.Text(cat.Title.Raw); title != "" {
			item.Categories = append(item.Categories, title)
		}
	}
	if opts.ImageURL != nil && post.FeaturedImage != nil && post.FeaturedImage.Asset != nil {
		if u := opts.ImageURL(post.FeaturedImage); u != "" {
			item.Enclosure = &Enclosure{URL: u, Type: "image/jpeg"}
		}
	}
	return item
}

// excerpt prefers a plain or per-locale string and falls back to flattening
// rich text.
func excerpt(post sanity.BlogPostPreview, res locale.Resolver) string {
	if s := res.Text(post.Excerpt.Raw); s != "" {
		return s
	}
	return res.PlainText(post.Excerpt.Raw)
}

func resolveRef(base *url.URL, path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return base.String()
	}
	return base.ResolveReference(ref).String()
}

// Write serialises the feed with an XML declaration and, when configured,
// an xml-stylesheet processing instruction.
func Write(w io.Writer, doc *RSS) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("feed: write header: %w", err)
	}
	if doc.stylesheet != "" {
		pi := fmt.Sprintf(`<?xml-stylesheet href="%s" type="text/xsl"?>`+"\n", escapeAttr(doc.stylesheet))
		if _, err := io.WriteString(w, pi); err != nil {
			return fmt.Errorf("feed: write stylesheet: %w", err)
		}
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("feed: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("feed: encode: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func escapeAttr(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
