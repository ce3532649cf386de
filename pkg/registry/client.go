package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/depscout/depscout/pkg/cache"
	"github.com/depscout/depscout/pkg/httputil"
	"github.com/depscout/depscout/pkg/observability"
)

const httpTimeout = 10 * time.Second

// HTTPClient provides shared HTTP functionality for registry clients:
// response caching, retry with backoff, and status-code mapping.
type HTTPClient struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	headers map[string]string
	retry   httputil.Policy
}

// NewHTTPClient creates an HTTPClient backed by the given cache. Pass
// cache.NewNullCache() to disable caching. Headers, if non-nil, are applied
// to every request.
func NewHTTPClient(backend cache.Cache, ttl time.Duration, headers map[string]string) *HTTPClient {
	if backend == nil {
		backend = cache.NewNullCache()
	}
	return &HTTPClient{
		http:    &http.Client{Timeout: httpTimeout},
		cache:   backend,
		ttl:     ttl,
		headers: headers,
		retry:   httputil.DefaultPolicy,
	}
}

// SetRetryPolicy overrides how transient fetch failures are retried.
func (c *HTTPClient) SetRetryPolicy(p httputil.Policy) {
	c.retry = p
}

// Cached retrieves a JSON value from cache or executes fetch and caches the
// result. If refresh is true, the cache is bypassed and fetch always runs.
// The fetch function should populate v; on success, v is stored under key.
func (c *HTTPClient) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			if err := json.Unmarshal(data, v); err == nil {
				observability.Cache().OnHit(ctx, "lookup")
				return nil
			}
		}
		observability.Cache().OnMiss(ctx, "lookup")
	}

	if err := c.retry.Do(ctx, fetch); err != nil {
		return err
	}

	if data, err := json.Marshal(v); err == nil {
		_ = c.cache.Set(ctx, key, data, c.ttl)
		observability.Cache().OnSet(ctx, "lookup", len(data))
	}
	return nil
}

// Get performs an HTTP GET and JSON-decodes the response into v.
// Status mapping: 200 decodes, 404 returns ErrNotFound, 5xx returns a
// retryable ErrNetwork, anything else a plain ErrNetwork.
func (c *HTTPClient) Get(ctx context.Context, url string, v any) error {
	body, err := c.do(ctx, url)
	if err != nil {
		return err
	}
	defer body.Close()
	return json.NewDecoder(body).Decode(v)
}

func (c *HTTPClient) do(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}

	if err := checkStatus(resp.StatusCode); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
