// Package pypi implements the registry client for the Python Package
// Index.
//
// Existence is checked against the JSON API (GET /pypi/<name>/json): a 200
// whose body decodes is EXISTS, a 404 is NOT_FOUND, and everything else is
// a lookup error. Names are folded per PEP 503 before hitting the API, so
// "Foo_Bar" and "foo-bar" resolve to the same project.
package pypi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/depscout/depscout/pkg/cache"
	deperrors "github.com/depscout/depscout/pkg/errors"
	"github.com/depscout/depscout/pkg/httputil"
	"github.com/depscout/depscout/pkg/registry"
)

// DefaultBaseURL is the public PyPI endpoint.
const DefaultBaseURL = "https://pypi.org"

// Client answers existence lookups against PyPI.
// All methods are safe for concurrent use.
type Client struct {
	http    *registry.HTTPClient
	baseURL string
	refresh bool
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint (an internal
// mirror, or a test server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithRefresh bypasses the lookup cache for every request.
func WithRefresh(refresh bool) Option {
	return func(c *Client) { c.refresh = refresh }
}

// WithRetries overrides how many attempts each lookup gets before its
// failure is reported. The backoff delay keeps its default.
func WithRetries(attempts int) Option {
	return func(c *Client) {
		c.http.SetRetryPolicy(httputil.Policy{Attempts: attempts})
	}
}

// NewClient creates a PyPI client with the given cache backend. Use
// cache.NewNullCache() to disable caching; ttl bounds how long existence
// answers are reused.
func NewClient(backend cache.Cache, ttl time.Duration, opts ...Option) *Client {
	c := &Client{
		http:    registry.NewHTTPClient(backend, ttl, map[string]string{"Accept": "application/json"}),
		baseURL: DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns "pypi".
func (c *Client) Name() string { return "pypi" }

// lookupEntry is the cached form of one existence answer. Both outcomes
// are cached: NOT_FOUND is as much an answer as EXISTS.
type lookupEntry struct {
	Exists bool `json:"exists"`
}

// apiResponse is the minimal slice of the PyPI JSON API response needed to
// confirm the body is well-formed.
type apiResponse struct {
	Info struct {
		Name string `json:"name"`
	} `json:"info"`
}

// Lookup resolves one canonical package name against PyPI.
// The returned error, when non-nil, is always a *registry.LookupError.
//
// Names are validated before URL construction; a name that could not be a
// PyPI project (traversal sequences, control characters) never produces a
// request and surfaces as a lookup error, not a verdict.
func (c *Client) Lookup(ctx context.Context, name string) (registry.Existence, error) {
	if err := deperrors.ValidatePythonPackageName(name); err != nil {
		return registry.NotFound, &registry.LookupError{Reason: registry.ReasonInvalidName, Err: err}
	}
	normalized := registry.NormalizeName(name)
	key := "pypi:exists:" + normalized

	var entry lookupEntry
	err := c.http.Cached(ctx, key, c.refresh, &entry, func() error {
		return c.check(ctx, normalized, &entry)
	})
	if err != nil {
		return registry.NotFound, classifyErr(err)
	}
	if entry.Exists {
		return registry.Exists, nil
	}
	return registry.NotFound, nil
}

func (c *Client) check(ctx context.Context, name string, entry *lookupEntry) error {
	var data apiResponse
	err := c.http.Get(ctx, fmt.Sprintf("%s/pypi/%s/json", c.baseURL, name), &data)
	switch {
	case errors.Is(err, registry.ErrNotFound):
		entry.Exists = false
		return nil
	case err != nil:
		return err
	case data.Info.Name == "":
		return fmt.Errorf("empty project metadata for %s", name)
	default:
		entry.Exists = true
		return nil
	}
}

// classifyErr maps transport and decode failures onto LookupError reasons.
func classifyErr(err error) *registry.LookupError {
	reason := registry.ReasonMalformed

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = registry.ReasonTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		reason = registry.ReasonTimeout
	case errors.Is(err, context.Canceled):
		reason = registry.ReasonNetwork
	case errors.Is(err, registry.ErrNetwork):
		reason = registry.ReasonNetwork
	}

	return &registry.LookupError{Reason: reason, Err: err}
}
