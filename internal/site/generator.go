// Package site renders the static blog: one tree of pages per locale plus an
// RSS feed, built from the content source with bounded concurrency.
package site

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/sync/errgroup"

	"github.com/lumen-press/lumen/internal/config"
	"github.com/lumen-press/lumen/internal/dom"
	"github.com/lumen-press/lumen/internal/errors"
	"github.com/lumen-press/lumen/internal/feed"
	"github.com/lumen-press/lumen/internal/locale"
	"github.com/lumen-press/lumen/internal/logging"
	"github.com/lumen-press/lumen/internal/reveal"
	"github.com/lumen-press/lumen/internal/sanity"
	"github.com/lumen-press/lumen/internal/theme"
)

// Source is where content comes from. *sanity.Client implements it.
type Source interface {
	AllPosts(ctx context.Context) ([]sanity.BlogPostPreview, error)
	PostBySlug(ctx context.Context, slug string) (*sanity.BlogPost, error)
	AllCategories(ctx context.Context) ([]sanity.Category, error)
}

var _ Source = (*sanity.Client)(nil)

// Result summarises a build.
type Result struct {
	Pages    int
	Posts    int
	Assets   int
	Locales  []string
	Duration time.Duration
	Errors   *errors.ErrorCollector
}

// Generator builds the site described by a config.
type Generator struct {
	cfg         *config.Config
	source      Source
	logger      logging.Logger
	images      sanity.ImageURLBuilder
	concurrency int
	now         func() time.Time
}

// Option customises a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithConcurrency bounds how many pages are fetched or rendered at once.
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = n
		}
	}
}

// WithClock replaces time.Now, for reproducible output.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// NewGenerator creates a generator writing into cfg.Site.OutputDir.
func NewGenerator(cfg *config.Config, source Source, opts ...Option) *Generator {
	g := &Generator{
		cfg:         cfg,
		source:      source,
		logger:      logging.NewNopLogger(),
		images:      sanity.NewImageURLBuilder(cfg.Sanity.ProjectID, cfg.Sanity.Dataset),
		concurrency: 8,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.WithComponent("site")
	return g
}

// ImageURL renders the CDN URL of img at the default content width.
func (g *Generator) ImageURL(img *sanity.Image) string {
	return g.images.Image(img).Width(1200).Auto("format").URL()
}

func (g *Generator) feedImageURL(img *sanity.Image) string {
	return g.images.Image(img).Width(1200).Height(630).Auto("format").URL()
}

// content fetched once per build and shared by every locale.
type siteContent struct {
	posts      []sanity.BlogPostPreview
	full       map[string]*sanity.BlogPost
	categories []sanity.Category
}

// Build fetches content and writes every page. Per-page failures are
// collected in the result; the returned error is reserved for failures that
// make the whole build meaningless, such as the post list being unavailable.
func (g *Generator) Build(ctx context.Context) (*Result, error) {
	start := time.Now()
	collector := errors.NewErrorCollector()
	perf := logging.StartOperation(g.logger, "site_build")

	data, err := g.fetch(ctx, collector)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, err
	}

	var pages int64
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)

	locales := g.cfg.Locale.Locales()
	for _, loc := range locales {
		for _, task := range g.tasks(loc, data) {
			eg.Go(func() error {
				if err := egctx.Err(); err != nil {
					return err
				}
				if err := g.writeTask(egctx, task); err != nil {
					collector.Add(errors.BuildError{
						Page:     task.file,
						Locale:   task.locale,
						Stage:    task.stage,
						Severity: errors.ErrorSeverityError,
						Err:      err,
					})
					g.logger.Error(egctx, err, "page failed", "page", task.file, "locale", task.locale)
					return nil
				}
				atomic.AddInt64(&pages, 1)
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		perf.EndWithError(ctx, err)
		return nil, fmt.Errorf("build cancelled: %w", err)
	}

	assets, err := g.copyStatic(ctx)
	if err != nil {
		collector.Add(errors.BuildError{
			Page:     g.cfg.Site.StaticDir,
			Stage:    errors.StageWrite,
			Severity: errors.ErrorSeverityError,
			Err:      err,
		})
	}

	res := &Result{
		Pages:    int(pages),
		Posts:    len(data.full),
		Assets:   assets,
		Locales:  locales,
		Duration: time.Since(start),
		Errors:   collector,
	}
	perf.End(ctx, "pages", res.Pages, "posts", res.Posts, "assets", res.Assets, "problems", len(collector.GetAllErrors()))
	return res, nil
}

func (g *Generator) fetch(ctx context.Context, collector *errors.ErrorCollector) (*siteContent, error) {
	data := &siteContent{full: make(map[string]*sanity.BlogPost)}

	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		posts, err := g.source.AllPosts(egctx)
		if err != nil {
			return err
		}
		data.posts = posts
		return nil
	})
	eg.Go(func() error {
		cats, err := g.source.AllCategories(egctx)
		if err != nil {
			return err
		}
		data.categories = cats
		return nil
	})
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("fetching site content: %w", err)
	}

	type fetched struct {
		slug string
		post *sanity.BlogPost
	}
	results := make(chan fetched, len(data.posts))

	eg, egctx = errgroup.WithContext(ctx)
	eg.SetLimit(g.concurrency)
	for _, preview := range data.posts {
		slug := preview.Slug.Current
		if err := validateSlug(slug); err != nil {
			collector.Add(errors.BuildError{
				Page:     "blog/" + slug,
				Stage:    errors.StageFetch,
				Severity: errors.ErrorSeverityError,
				Err:      err,
			})
			continue
		}
		eg.Go(func() error {
			post, err := g.source.PostBySlug(egctx, slug)
			if err != nil {
				if egctx.Err() != nil {
					return egctx.Err()
				}
				collector.Add(errors.BuildError{
					Page:     "blog/" + slug,
					Stage:    errors.StageFetch,
					Severity: errors.ErrorSeverityError,
					Err:      err,
				})
				return nil
			}
			if post == nil {
				collector.Add(errors.BuildError{
					Page:     "blog/" + slug,
					Stage:    errors.StageFetch,
					Severity: errors.ErrorSeverityWarning,
					Message:  "post disappeared between list and fetch",
				})
				return nil
			}
			results <- fetched{slug: slug, post: post}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("fetching posts: %w", err)
	}
	close(results)
	for r := range results {
		data.full[r.slug] = r.post
	}

	g.logger.Info(ctx, "content fetched",
		"posts", len(data.posts),
		"full_posts", len(data.full),
		"categories", len(data.categories))
	return data, nil
}

func validateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("post has no slug")
	}
	if strings.ContainsAny(slug, `/\`) || slug == "." || slug == ".." {
		return fmt.Errorf("slug %q is not a single path segment", slug)
	}
	return nil
}

// task is one output file.
type task struct {
	locale string
	file   string
	stage  string
	render func(ctx context.Context) ([]byte, error)
}

func (g *Generator) localeDir(loc string) string {
	if loc == g.cfg.Locale.Default {
		return ""
	}
	return loc
}

func (g *Generator) page(loc, pagePath, title, description string) Page {
	return Page{
		SiteTitle:   g.cfg.Site.Title,
		SiteURL:     g.cfg.Site.URL,
		Author:      g.cfg.Site.Author,
		OGImage:     g.cfg.Site.OGImage,
		Locale:      loc,
		Locales:     g.cfg.Locale.Locales(),
		Default:     g.cfg.Locale.Default,
		Path:        pagePath,
		Title:       title,
		Description: description,
		FeedPath:    g.cfg.Feed.Path,
		ThemeScript: theme.InitScriptFor(g.cfg.Theme.StorageKey),
		Year:        g.now().Year(),
	}
}

func (g *Generator) tasks(loc string, data *siteContent) []task {
	res := locale.NewResolver(loc, g.cfg.Locale.Fallback)
	dir := g.localeDir(loc)
	var tasks []task

	tasks = append(tasks, task{
		locale: loc,
		file:   path.Join(dir, "index.html"),
		stage:  errors.StageRender,
		render: func(ctx context.Context) ([]byte, error) {
			p := g.page(loc, "/", g.cfg.Site.Title, g.cfg.Site.Description)
			return g.renderHTML(ctx, Layout(p, PostList(p, res, g.cfg.Site.Title, data.posts, g.ImageURL)))
		},
	})

	slugs := make([]string, 0, len(data.full))
	for slug := range data.full {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	for _, slug := range slugs {
		post := data.full[slug]
		tasks = append(tasks, task{
			locale: loc,
			file:   path.Join(dir, "blog", slug, "index.html"),
			stage:  errors.StageRender,
			render: func(ctx context.Context) ([]byte, error) {
				title := res.Text(post.Title.Raw)
				description := res.Text(post.Excerpt.Raw)
				if post.SEO != nil {
					if t := res.Text(post.SEO.MetaTitle.Raw); t != "" {
						title = t
					}
					if d := res.Text(post.SEO.MetaDescription.Raw); d != "" {
						description = d
					}
				}
				p := g.page(loc, "/blog/"+slug+"/", title, description)
				return g.renderHTML(ctx, Layout(p, PostPage(p, res, post, g.ImageURL)))
			},
		})
	}

	for _, cat := range data.categories {
		if validateSlug(cat.Slug.Current) != nil {
			continue
		}
		tasks = append(tasks, task{
			locale: loc,
			file:   path.Join(dir, "category", cat.Slug.Current, "index.html"),
			stage:  errors.StageRender,
			render: func(ctx context.Context) ([]byte, error) {
				title := res.Text(cat.Title.Raw)
				p := g.page(loc, "/category/"+cat.Slug.Current+"/", title, res.Text(cat.Description.Raw))
				return g.renderHTML(ctx, Layout(p, PostList(p, res, title, inCategory(data.posts, cat.Slug.Current), g.ImageURL)))
			},
		})
	}

	tasks = append(tasks, task{
		locale: loc,
		file:   path.Join(dir, strings.TrimPrefix(g.cfg.Feed.Path, "/")),
		stage:  errors.StageFeed,
		render: func(ctx context.Context) ([]byte, error) {
			return g.renderFeed(loc, data.posts)
		},
	})
	return tasks
}

func inCategory(posts []sanity.BlogPostPreview, slug string) []sanity.BlogPostPreview {
	var out []sanity.BlogPostPreview
	for _, p := range posts {
		for _, c := range p.Categories {
			if c.Slug.Current == slug {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (g *Generator) renderFeed(loc string, posts []sanity.BlogPostPreview) ([]byte, error) {
	basePath := ""
	if dir := g.localeDir(loc); dir != "" {
		basePath = "/" + dir
	}
	doc, err := feed.Build(posts, feed.Options{
		Title:         g.cfg.Feed.Title,
		Description:   g.cfg.Feed.Description,
		SiteURL:       g.cfg.Site.URL,
		Locale:        loc,
		Fallback:      g.cfg.Locale.Fallback,
		DefaultAuthor: g.cfg.Site.Author,
		TTL:           g.cfg.Feed.TTL,
		BasePath:      basePath,
		ImagePath:     g.cfg.Site.OGImage,
		SelfPath:      basePath + g.cfg.Feed.Path,
		Stylesheet:    g.cfg.Feed.Stylesheet,
		ImageURL:      g.feedImageURL,
		Now:           g.now,
	})
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := feed.Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderHTML renders c and applies the build-time document passes: the
// configured default theme and, when enabled, prerendered reveals.
func (g *Generator) renderHTML(ctx context.Context, c templ.Component) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Render(ctx, &buf); err != nil {
		return nil, err
	}
	dark := g.cfg.Theme.Default == string(theme.Dark)
	if !dark && !g.cfg.Animation.Prerender {
		return buf.Bytes(), nil
	}

	doc, err := dom.Parse(&buf)
	if err != nil {
		return nil, err
	}
	if dark {
		if root := doc.Root(); root != nil {
			theme.Apply(root, theme.Dark)
		}
	}
	if g.cfg.Animation.Prerender {
		Prerender(doc, g.cfg.Animation.Reveal(), g.logger)
	}

	var out bytes.Buffer
	if err := doc.Render(&out); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Prerender reveals every animated element of doc, including staggered
// children, so the page renders fully without a client-side scheduler.
// It returns the number of elements touched. logger may be nil.
func Prerender(doc *dom.Document, cfg reveal.Config, logger logging.Logger) int {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	s := reveal.New(doc, dom.StaticEnvironment{ReducedMotion: true}, reveal.WithLogger(logger))
	s.Initialize(&cfg)
	defer s.Destroy()
	marked := len(doc.QueryByClass(reveal.ClassOnScroll, reveal.ClassOnLoad))
	return marked + reveal.RevealStaggered(doc)
}

func (g *Generator) writeTask(ctx context.Context, t task) error {
	data, err := t.render(ctx)
	if err != nil {
		return err
	}
	target := filepath.Join(g.cfg.Site.OutputDir, filepath.FromSlash(t.file))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", t.file, err)
	}
	g.logger.Debug(ctx, "page written", "page", t.file, "bytes", len(data))
	return nil
}

// copyStatic mirrors the static directory into the output directory. A
// missing static directory is not an error.
func (g *Generator) copyStatic(ctx context.Context) (int, error) {
	dir := g.cfg.Site.StaticDir
	if dir == "" {
		return 0, nil
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return 0, nil
	}

	copied := 0
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		target := filepath.Join(g.cfg.Site.OutputDir, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(p, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("copying static files: %w", err)
	}
	g.logger.Debug(ctx, "static files copied", "dir", dir, "files", copied)
	return copied, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
