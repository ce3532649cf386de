package classify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/depscout/depscout/pkg/registry"
	"github.com/depscout/depscout/pkg/requirement"
)

// fakeClient answers lookups from a fixed set of existing names and counts
// how many lookups it served.
type fakeClient struct {
	mu       sync.Mutex
	existing map[string]bool
	failing  map[string]bool
	calls    int
	onLookup func(name string)
}

func (f *fakeClient) Lookup(ctx context.Context, name string) (registry.Existence, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.onLookup != nil {
		f.onLookup(name)
	}
	if err := ctx.Err(); err != nil {
		return registry.NotFound, &registry.LookupError{Reason: registry.ReasonNetwork, Err: err}
	}
	if f.failing[name] {
		return registry.NotFound, &registry.LookupError{Reason: registry.ReasonTimeout, Err: errors.New("timed out")}
	}
	if f.existing[name] {
		return registry.Exists, nil
	}
	return registry.NotFound, nil
}

func (f *fakeClient) Name() string { return "fake" }

func (f *fakeClient) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func names(values ...string) []requirement.Name {
	out := make([]requirement.Name, len(values))
	for i, v := range values {
		out[i] = requirement.Name{Value: v, Display: v}
	}
	return out
}

func TestClassifyStatuses(t *testing.T) {
	client := &fakeClient{
		existing: map[string]bool{"requests": true, "numpy": true},
		failing:  map[string]bool{"flaky-pkg": true},
	}
	c := New(client, 4)

	results := c.Classify(context.Background(), names("requests", "numpy", "fake-internal-pkg123", "flaky-pkg"))

	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	tests := []struct {
		name string
		want Status
	}{
		{"requests", StatusExists},
		{"numpy", StatusExists},
		{"fake-internal-pkg123", StatusNotFound},
		{"flaky-pkg", StatusLookupError},
	}
	for _, tt := range tests {
		res, ok := results[tt.name]
		if !ok {
			t.Fatalf("missing result for %q", tt.name)
		}
		if res.Status != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.name, res.Status, tt.want)
		}
	}

	if err := results["flaky-pkg"].Err; err == nil {
		t.Error("lookup_error result should carry its error")
	} else {
		var le *registry.LookupError
		if !errors.As(err, &le) {
			t.Errorf("lookup_error result should wrap *registry.LookupError, got %T", err)
		}
	}
	if results["requests"].CheckedAt.IsZero() {
		t.Error("CheckedAt should be set")
	}
}

func TestClassifyDeduplicates(t *testing.T) {
	client := &fakeClient{existing: map[string]bool{"requests": true}}
	c := New(client, 2)

	in := names("requests", "requests", "requests", "fake-pkg", "fake-pkg")
	results := c.Classify(context.Background(), in)

	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if got := client.lookupCount(); got != 2 {
		t.Errorf("registry saw %d lookups, want 2 (one per distinct name)", got)
	}
}

func TestClassifyEmptyInput(t *testing.T) {
	client := &fakeClient{}
	c := New(client, 4)

	results := c.Classify(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("got %d results for empty input, want 0", len(results))
	}
	if client.lookupCount() != 0 {
		t.Error("no lookups should run for empty input")
	}
}

func TestClassifyCancellationNeverDropsNames(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	client := &fakeClient{existing: map[string]bool{"requests": true}}
	// Cancel mid-flight: the first lookup succeeds, then the context dies
	// before the rest resolve.
	var once sync.Once
	client.onLookup = func(name string) {
		if name != "requests" {
			once.Do(cancel)
		}
	}

	c := New(client, 1)
	results := c.Classify(ctx, names("requests", "pkg-a", "pkg-b"))

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3: cancellation must not drop names", len(results))
	}
	if results["requests"].Status != StatusExists {
		t.Errorf("requests: status = %s, want %s", results["requests"].Status, StatusExists)
	}
	for _, name := range []string{"pkg-a", "pkg-b"} {
		res, ok := results[name]
		if !ok {
			t.Fatalf("missing result for %q after cancellation", name)
		}
		if res.Status != StatusLookupError {
			t.Errorf("%s: status = %s, want %s", name, res.Status, StatusLookupError)
		}
		if res.Err == nil {
			t.Errorf("%s: cancelled result should carry an error", name)
		}
	}
}
