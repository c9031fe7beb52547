// Package sanity is a small client for the hosted content API: GROQ queries
// over HTTP, the site's schema types and image URL helpers.
package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lumen-press/lumen/internal/logging"
)

// DefaultAPIVersion is the dated API version queries are pinned to.
const DefaultAPIVersion = "2026-02-02"

// maxGetURL is the longest query URL sent as GET; longer queries are POSTed.
const maxGetURL = 11264

var (
	projectIDPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	datasetPattern   = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)
)

// Config configures a Client.
type Config struct {
	ProjectID  string
	Dataset    string
	APIVersion string
	Token      string
	UseCDN     bool
	Timeout    time.Duration
	CacheTTL   time.Duration
	// CacheSize is the response cache budget in bytes. Zero disables caching.
	CacheSize int64
}

// QueryError is returned when the API answers with a non-2xx status.
type QueryError struct {
	Status      int
	Type        string
	Description string
}

func (e *QueryError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("sanity: query failed with status %d", e.Status)
	}
	return fmt.Sprintf("sanity: query failed with status %d: %s", e.Status, e.Description)
}

// Client runs GROQ queries against one project and dataset.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	cache   *ResponseCache
	logger  logging.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBaseURL points the client at a different host, typically a test server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient validates cfg and returns a ready client.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if !projectIDPattern.MatchString(cfg.ProjectID) {
		return nil, fmt.Errorf("sanity: invalid project id %q", cfg.ProjectID)
	}
	if !datasetPattern.MatchString(cfg.Dataset) {
		return nil, fmt.Errorf("sanity: invalid dataset %q", cfg.Dataset)
	}
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	host := "api"
	if cfg.UseCDN && cfg.Token == "" {
		host = "apicdn"
	}

	c := &Client{
		cfg:     cfg,
		baseURL: fmt.Sprintf("https://%s.%s.sanity.io", cfg.ProjectID, host),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logging.NewNopLogger(),
	}
	if cfg.CacheSize > 0 && cfg.CacheTTL > 0 {
		c.cache = NewResponseCache(cfg.CacheSize, cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.WithComponent("sanity")
	return c, nil
}

// Cache returns the response cache, or nil when caching is off.
func (c *Client) Cache() *ResponseCache {
	return c.cache
}

// Fetch runs query with params and decodes the result into out.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any, out any) error {
	raw, err := c.Raw(ctx, query, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("sanity: decode result: %w", err)
	}
	return nil
}

// Raw runs query and returns the undecoded result member of the response.
func (c *Client) Raw(ctx context.Context, query string, params map[string]any) (json.RawMessage, error) {
	values, err := encodeParams(query, params)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s", c.baseURL, c.cfg.APIVersion, c.cfg.Dataset)
	key := values.Encode()

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			c.logger.Debug(ctx, "query cache hit", "bytes", len(cached))
			return cached, nil
		}
	}

	req, err := c.newRequest(ctx, endpoint, query, params, values)
	if err != nil {
		return nil, err
	}

	perf := logging.StartOperation(c.logger, "sanity_query")
	resp, err := c.http.Do(req)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, fmt.Errorf("sanity: request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		perf.EndWithError(ctx, err)
		return nil, fmt.Errorf("sanity: read response: %w", err)
	}

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Description string `json:"description"`
			Type        string `json:"type"`
		} `json:"error"`
	}
	decodeErr := json.Unmarshal(body, &envelope)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		qerr := &QueryError{Status: resp.StatusCode}
		if decodeErr == nil && envelope.Error != nil {
			qerr.Description = envelope.Error.Description
			qerr.Type = envelope.Error.Type
		}
		perf.EndWithError(ctx, qerr)
		return nil, qerr
	}
	if decodeErr != nil {
		perf.EndWithError(ctx, decodeErr)
		return nil, fmt.Errorf("sanity: decode response: %w", decodeErr)
	}
	perf.End(ctx, "status", resp.StatusCode, "bytes", len(body))

	result := envelope.Result
	if len(result) == 0 {
		result = json.RawMessage("null")
	}
	if c.cache != nil {
		c.cache.Set(key, result)
	}
	return result, nil
}

func (c *Client) newRequest(ctx context.Context, endpoint, query string, params map[string]any, values url.Values) (*http.Request, error) {
	var (
		req *http.Request
		err error
	)
	full := endpoint + "?" + values.Encode()
	if len(full) <= maxGetURL {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, full, nil)
	} else {
		body, merr := json.Marshal(map[string]any{"query": query, "params": params})
		if merr != nil {
			return nil, fmt.Errorf("sanity: encode body: %w", merr)
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if req != nil {
			req.Header.Set("Content-Type", "application/json")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("sanity: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	return req, nil
}

// encodeParams builds the query string. Parameter values are JSON encoded
// and named with a leading "$".
func encodeParams(query string, params map[string]any) (url.Values, error) {
	values := url.Values{}
	values.Set("query", query)

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		encoded, err := json.Marshal(params[name])
		if err != nil {
			return nil, fmt.Errorf("sanity: encode param %s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}
	return values, nil
}
