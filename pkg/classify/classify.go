// Package classify resolves candidate package names against a registry and
// assigns each a three-way status.
//
// EXISTS and NOT_FOUND are definitive registry answers. LOOKUP_ERROR means
// the registry could not be consulted; it is a distinct outcome and is never
// folded into either verdict. A name whose lookup failed must show up as
// indeterminate in the report, because treating it as present would hide a
// claimable name and treating it as absent would raise a false alarm.
package classify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/depscout/depscout/pkg/observability"
	"github.com/depscout/depscout/pkg/registry"
	"github.com/depscout/depscout/pkg/requirement"
)

// Status is the classification outcome for one name.
type Status string

const (
	// StatusExists: the registry serves a package under this name.
	StatusExists Status = "exists"
	// StatusNotFound: no package under this name. For dependency confusion
	// this is the signal worth reporting.
	StatusNotFound Status = "not_found"
	// StatusLookupError: the lookup itself failed; existence is unknown.
	StatusLookupError Status = "lookup_error"
)

// Result is the classification of one canonical name.
type Result struct {
	Name      requirement.Name
	Status    Status
	Err       error // non-nil iff Status is StatusLookupError
	CheckedAt time.Time
}

// DefaultConcurrency is the worker pool size when none is configured.
const DefaultConcurrency = 8

// Classifier runs existence lookups through a bounded worker pool.
type Classifier struct {
	client  registry.Client
	workers int
}

// New creates a Classifier. workers <= 0 falls back to DefaultConcurrency.
func New(client registry.Client, workers int) *Classifier {
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	return &Classifier{client: client, workers: workers}
}

// Classify resolves every distinct name and returns a result per canonical
// name. Names are deduplicated before lookup, so each hits the registry at
// most once per call.
//
// Every input name appears in the returned map. On cancellation the names
// still unresolved are recorded as StatusLookupError with the context's
// error; none are dropped.
func (c *Classifier) Classify(ctx context.Context, names []requirement.Name) map[string]Result {
	start := time.Now()

	distinct := make([]requirement.Name, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n.Value] {
			continue
		}
		seen[n.Value] = true
		distinct = append(distinct, n)
	}

	observability.Scan().OnClassifyStart(ctx, len(distinct))

	results := make(map[string]Result, len(distinct))
	var mu sync.Mutex

	jobs := make(chan requirement.Name)
	var wg sync.WaitGroup

	workers := c.workers
	if workers > len(distinct) {
		workers = len(distinct)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				res := c.lookup(ctx, name)
				mu.Lock()
				results[name.Value] = res
				mu.Unlock()
			}
		}()
	}

feed:
	for _, n := range distinct {
		select {
		case jobs <- n:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	// Anything not resolved before cancellation still gets an entry.
	for _, n := range distinct {
		if _, ok := results[n.Value]; !ok {
			results[n.Value] = Result{
				Name:      n,
				Status:    StatusLookupError,
				Err:       cancelError(ctx),
				CheckedAt: time.Now(),
			}
		}
	}

	observability.Scan().OnClassifyComplete(ctx, len(distinct), time.Since(start), ctx.Err())
	return results
}

func (c *Classifier) lookup(ctx context.Context, name requirement.Name) Result {
	start := time.Now()
	existence, err := c.client.Lookup(ctx, name.Value)

	res := Result{Name: name, CheckedAt: time.Now()}
	switch {
	case err != nil:
		res.Status = StatusLookupError
		res.Err = err
	case existence == registry.Exists:
		res.Status = StatusExists
	default:
		res.Status = StatusNotFound
	}

	observability.Lookup().OnLookup(ctx, c.client.Name(), name.Value, string(res.Status), time.Since(start))
	return res
}

// cancelError wraps the context error so unresolved names carry the same
// error shape as failed lookups.
func cancelError(ctx context.Context) error {
	err := ctx.Err()
	if err == nil {
		err = context.Canceled
	}
	reason := registry.ReasonNetwork
	if errors.Is(err, context.DeadlineExceeded) {
		reason = registry.ReasonTimeout
	}
	return &registry.LookupError{Reason: reason, Err: err}
}
