package sanity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-press/lumen/internal/content"
	"github.com/lumen-press/lumen/internal/locale"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, cfg Config) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	if cfg.ProjectID == "" {
		cfg.ProjectID = "abc123"
	}
	if cfg.Dataset == "" {
		cfg.Dataset = "production"
	}
	c, err := NewClient(cfg, WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{ProjectID: "", Dataset: "production"})
	assert.Error(t, err)

	_, err = NewClient(Config{ProjectID: "Bad Project", Dataset: "production"})
	assert.Error(t, err)

	_, err = NewClient(Config{ProjectID: "abc", Dataset: "no spaces"})
	assert.Error(t, err)

	c, err := NewClient(Config{ProjectID: "abc", Dataset: "production", UseCDN: true})
	require.NoError(t, err)
	assert.Equal(t, "https://abc.apicdn.sanity.io", c.baseURL)
	assert.Equal(t, DefaultAPIVersion, c.cfg.APIVersion)
	assert.Nil(t, c.Cache())

	c, err = NewClient(Config{ProjectID: "abc", Dataset: "production", UseCDN: true, Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "https://abc.api.sanity.io", c.baseURL, "authenticated requests bypass the CDN")
}

func TestClient_FetchRequestShape(t *testing.T) {
	var gotPath, gotQuery, gotSlug, gotAuth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("query")
		gotSlug = r.URL.Query().Get("$slug")
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"result": {"ok": true}}`)
	}, Config{Token: "tok"})

	var out struct {
		OK bool `json:"ok"`
	}
	err := c.Fetch(context.Background(), PostBySlugQuery, map[string]any{"slug": "hello"}, &out)
	require.NoError(t, err)

	assert.True(t, out.OK)
	assert.Equal(t, "/v2026-02-02/data/query/production", gotPath)
	assert.Equal(t, PostBySlugQuery, gotQuery)
	assert.Equal(t, `"hello"`, gotSlug)
	assert.Equal(t, "Bearer tok", gotAuth)
}

func TestClient_QueryError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"description": "expected '}'", "type": "queryParseError"}}`)
	}, Config{})

	err := c.Fetch(context.Background(), "*[", nil, nil)
	require.Error(t, err)

	var qerr *QueryError
	require.True(t, errors.As(err, &qerr))
	assert.Equal(t, http.StatusBadRequest, qerr.Status)
	assert.Equal(t, "queryParseError", qerr.Type)
	assert.Contains(t, qerr.Error(), "expected '}'")
}

func TestClient_NonJSONError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}, Config{})

	_, err := c.Raw(context.Background(), "*", nil)
	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, http.StatusBadGateway, qerr.Status)
	assert.Empty(t, qerr.Description)
}

func TestClient_Cache(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `{"result": ["a", "b"]}`)
	}, Config{CacheSize: 1 << 20, CacheTTL: time.Minute})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		slugs, err := c.AllPostSlugs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, slugs)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, int64(2), c.Cache().Hits())

	// different params miss the cache
	_, err := c.PostsByCategory(ctx, "go")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestClient_LongQueryIsPosted(t *testing.T) {
	var method string
	var body map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		if r.Method == http.MethodPost {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}
		_, _ = io.WriteString(w, `{"result": null}`)
	}, Config{})

	query := "*[" + strings.Repeat(`_type == "post" || `, 1000) + "false]"
	err := c.Fetch(context.Background(), query, map[string]any{"limit": 3}, nil)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, method)
	assert.Equal(t, query, body["query"])
	assert.Equal(t, map[string]any{"limit": float64(3)}, body["params"])
}

func TestClient_PostBySlug(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"result": {
				"_id": "p1",
				"title": {"en": "Hello", "fr": "Bonjour"},
				"slug": {"current": "hello"},
				"publishedAt": "2026-01-02T03:04:05Z",
				"content": {"en": [{"_type": "block", "children": [{"text": "Hi"}]}]},
				"author": {"_id": "a1", "name": "Ada"}
			}}`)
		}, Config{})

		post, err := c.PostBySlug(context.Background(), "hello")
		require.NoError(t, err)
		require.NotNil(t, post)

		assert.Equal(t, "Bonjour", locale.ResolveString(post.Title.Raw, "fr"))
		assert.Equal(t, "Hi", locale.FlattenToPlainText(post.Content.Raw, "en"))
		assert.Equal(t, "hello", post.Slug.Current)
		assert.Equal(t, 2026, post.PublishedAt.Year())
		assert.Equal(t, "Ada", locale.ResolveString(post.Author.Name.Raw, "en"))

		obj, ok := post.Title.Raw.(*content.Object)
		require.True(t, ok)
		assert.Equal(t, []string{"en", "fr"}, obj.Keys())
	})

	t.Run("missing", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"result": null}`)
		}, Config{})

		post, err := c.PostBySlug(context.Background(), "nope")
		require.NoError(t, err)
		assert.Nil(t, post)
	})
}

func TestClient_PaginatedPosts(t *testing.T) {
	var params map[string]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		params = map[string]string{}
		for k, v := range r.URL.Query() {
			params[k] = v[0]
		}
		_, _ = io.WriteString(w, `{"result": {"items": [{"_id": "p3"}], "total": 21}}`)
	}, Config{})

	res, err := c.PaginatedPosts(context.Background(), PostQueryOptions{Page: 2, Search: "go"})
	require.NoError(t, err)

	assert.Equal(t, "10", params["$start"])
	assert.Equal(t, "20", params["$end"])
	assert.Equal(t, `"*go*"`, params["$search"])
	assert.Equal(t, `""`, params["$category"])

	assert.Len(t, res.Items, 1)
	assert.Equal(t, 21, res.Total)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 10, res.PageSize)
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNextPage)
	assert.True(t, res.HasPrevPage)
}

func TestClient_FeaturedPostsDefaultLimit(t *testing.T) {
	var limit string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		limit = r.URL.Query().Get("$limit")
		_, _ = io.WriteString(w, `{"result": []}`)
	}, Config{})

	posts, err := c.FeaturedPosts(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, posts)
	assert.Equal(t, "3", limit)
}

func TestClient_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"result": []}`)
	}, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.AllCategories(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
