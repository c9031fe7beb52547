package sanity

import (
	"context"
	"fmt"
	"math"
)

const postPreviewFields = `
  _id,
  title,
  slug,
  excerpt,
  publishedAt,
  featuredImage {
    asset,
    alt
  },
  author-> {
    _id,
    name,
    image
  },
  categories[]-> {
    _id,
    title,
    slug
  }
`

// GROQ queries used by the site.
const (
	AllPostsQuery = `*[_type == "post" && defined(publishedAt)] | order(publishedAt desc) {` +
		postPreviewFields + `}`

	PostBySlugQuery = `*[_type == "post" && slug.current == $slug][0] {
  _id,
  _type,
  _createdAt,
  _updatedAt,
  title,
  slug,
  excerpt,
  content,
  publishedAt,
  featuredImage {
    asset,
    alt,
    caption,
    hotspot,
    crop
  },
  author-> {
    _id,
    _type,
    name,
    slug,
    bio,
    image,
    socialLinks
  },
  categories[]-> {
    _id,
    _type,
    title,
    slug,
    description
  },
  seo {
    metaTitle,
    metaDescription,
    keywords,
    ogImage
  },
  featured
}`

	FeaturedPostsQuery = `*[_type == "post" && defined(publishedAt)] | order(featured desc, publishedAt desc) [0...$limit] {` +
		postPreviewFields + `}`

	PostsByCategoryQuery = `*[_type == "post" && defined(publishedAt) && $categorySlug in categories[]->slug.current] | order(publishedAt desc) {` +
		postPreviewFields + `}`

	AllCategoriesQuery = `*[_type == "category"] | order(title asc) {
  _id,
  _type,
  title,
  slug,
  description
}`

	paginatedFilter = `_type == "post" && defined(publishedAt)
    && ($category == "" || $category in categories[]->slug.current)
    && ($search == "" || title match $search || excerpt match $search)`

	PaginatedPostsQuery = `{
  "items": *[` + paginatedFilter + `
  ] | order(publishedAt desc) [$start...$end] {` + postPreviewFields + `},
  "total": count(*[` + paginatedFilter + `
  ])
}`

	AllPostSlugsQuery = `*[_type == "post" && defined(publishedAt)].slug.current`
)

// PostQueryOptions filters and pages PaginatedPosts.
type PostQueryOptions struct {
	Page     int
	PageSize int
	Category string
	Search   string
}

// PaginatedResult is one page of results.
type PaginatedResult[T any] struct {
	Items       []T  `json:"items"`
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

// AllPosts returns every published post, newest first.
func (c *Client) AllPosts(ctx context.Context) ([]BlogPostPreview, error) {
	var posts []BlogPostPreview
	if err := c.Fetch(ctx, AllPostsQuery, nil, &posts); err != nil {
		return nil, fmt.Errorf("fetch all posts: %w", err)
	}
	return posts, nil
}

// PaginatedPosts returns one page of published posts. Page defaults to 1 and
// PageSize to 10.
func (c *Client) PaginatedPosts(ctx context.Context, opts PostQueryOptions) (*PaginatedResult[BlogPostPreview], error) {
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.PageSize < 1 {
		opts.PageSize = 10
	}
	start := (opts.Page - 1) * opts.PageSize
	search := ""
	if opts.Search != "" {
		search = "*" + opts.Search + "*"
	}

	var raw struct {
		Items []BlogPostPreview `json:"items"`
		Total int               `json:"total"`
	}
	params := map[string]any{
		"start":    start,
		"end":      start + opts.PageSize,
		"category": opts.Category,
		"search":   search,
	}
	if err := c.Fetch(ctx, PaginatedPostsQuery, params, &raw); err != nil {
		return nil, fmt.Errorf("fetch paginated posts: %w", err)
	}

	totalPages := int(math.Ceil(float64(raw.Total) / float64(opts.PageSize)))
	return &PaginatedResult[BlogPostPreview]{
		Items:       raw.Items,
		Total:       raw.Total,
		Page:        opts.Page,
		PageSize:    opts.PageSize,
		TotalPages:  totalPages,
		HasNextPage: opts.Page < totalPages,
		HasPrevPage: opts.Page > 1,
	}, nil
}

// AllPostSlugs returns the slug of every published post.
func (c *Client) AllPostSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := c.Fetch(ctx, AllPostSlugsQuery, nil, &slugs); err != nil {
		return nil, fmt.Errorf("fetch post slugs: %w", err)
	}
	return slugs, nil
}

// PostBySlug returns the full post, or nil when no post has that slug.
func (c *Client) PostBySlug(ctx context.Context, slug string) (*BlogPost, error) {
	var post *BlogPost
	if err := c.Fetch(ctx, PostBySlugQuery, map[string]any{"slug": slug}, &post); err != nil {
		return nil, fmt.Errorf("fetch post %q: %w", slug, err)
	}
	return post, nil
}

// FeaturedPosts returns featured posts first, then the most recent, up to
// limit. A limit below one means 3.
func (c *Client) FeaturedPosts(ctx context.Context, limit int) ([]BlogPostPreview, error) {
	if limit < 1 {
		limit = 3
	}
	var posts []BlogPostPreview
	if err := c.Fetch(ctx, FeaturedPostsQuery, map[string]any{"limit": limit}, &posts); err != nil {
		return nil, fmt.Errorf("fetch featured posts: %w", err)
	}
	return posts, nil
}

// PostsByCategory returns published posts in the category with that slug.
func (c *Client) PostsByCategory(ctx context.Context, categorySlug string) ([]BlogPostPreview, error) {
	var posts []BlogPostPreview
	if err := c.Fetch(ctx, PostsByCategoryQuery, map[string]any{"categorySlug": categorySlug}, &posts); err != nil {
		return nil, fmt.Errorf("fetch posts in %q: %w", categorySlug, err)
	}
	return posts, nil
}

// AllCategories returns every category ordered by title.
func (c *Client) AllCategories(ctx context.Context) ([]Category, error) {
	var cats []Category
	if err := c.Fetch(ctx, AllCategoriesQuery, nil, &cats); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}
	return cats, nil
}
