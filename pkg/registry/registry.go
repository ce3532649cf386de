// Package registry defines the client interface for public package
// registry existence lookups, plus shared HTTP machinery for
// implementations.
//
// The scanner core consumes a [Client] as an injected capability. Retry
// policy and response caching live behind the client; the core sees only a
// three-way outcome per name: exists, not found, or a [LookupError].
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Existence is the two-way registry answer for a package name.
type Existence int

const (
	// NotFound means the registry has no package under this name. For
	// dependency confusion this is the vulnerability signal: the name is
	// claimable by anyone.
	NotFound Existence = iota
	// Exists means the registry serves a package under this name.
	Exists
)

// String returns "exists" or "not_found".
func (e Existence) String() string {
	if e == Exists {
		return "exists"
	}
	return "not_found"
}

// Reason classifies why a lookup failed without producing an answer.
type Reason string

const (
	// ReasonTimeout: the request or its context deadline expired.
	ReasonTimeout Reason = "timeout"
	// ReasonNetwork: transport failure or unexpected HTTP status.
	ReasonNetwork Reason = "network"
	// ReasonMalformed: the registry answered but the response could not
	// be decoded.
	ReasonMalformed Reason = "malformed-response"
	// ReasonInvalidName: the name failed safety validation before any
	// request was made.
	ReasonInvalidName Reason = "invalid-name"
)

// LookupError reports a lookup that produced no answer. It is never
// coerced into Exists or NotFound: an unchecked name must surface as
// indeterminate, not as a false verdict either way.
type LookupError struct {
	Reason Reason
	Err    error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("lookup failed (%s): %v", e.Reason, e.Err)
}

func (e *LookupError) Unwrap() error { return e.Err }

// Client answers existence queries against one registry.
// Implementations must be safe for concurrent use; the classifier calls
// Lookup from a pool of workers.
type Client interface {
	// Lookup resolves one canonical package name. The error, when
	// non-nil, is always a *LookupError.
	Lookup(ctx context.Context, name string) (Existence, error)
	// Name identifies the registry (e.g. "pypi").
	Name() string
}

// Sentinel errors used by implementations when mapping HTTP status codes.
var (
	// ErrNotFound marks a definitive 404 from the registry.
	ErrNotFound = errors.New("package not found")
	// ErrNetwork marks transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")
)

// NormalizeName folds a package name per PEP 503 for URL construction:
// lowercase, runs of "-", "_" and "." collapse to a single "-".
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r == '-' || r == '_' || r == '.' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}
