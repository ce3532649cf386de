package cache

import (
	"context"
	"testing"
	"time"
)

// backends that need no external service.
func localBackends(t *testing.T) map[string]Cache {
	t.Helper()
	fc, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return map[string]Cache{
		"file":   fc,
		"memory": NewMemoryCache(),
	}
}

func TestSetGetDelete(t *testing.T) {
	ctx := context.Background()

	for name, c := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "pypi:exists:requests", []byte(`{"exists":true}`), time.Hour); err != nil {
				t.Fatal(err)
			}

			data, ok, err := c.Get(ctx, "pypi:exists:requests")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("expected hit")
			}
			if string(data) != `{"exists":true}` {
				t.Errorf("data = %s", data)
			}

			if err := c.Delete(ctx, "pypi:exists:requests"); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := c.Get(ctx, "pypi:exists:requests"); ok {
				t.Error("expected miss after delete")
			}
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()

	for name, c := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := c.Get(ctx, "never-set")
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Error("expected miss")
			}
		})
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()

	for name, c := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "short-lived", []byte("x"), time.Millisecond); err != nil {
				t.Fatal(err)
			}
			time.Sleep(10 * time.Millisecond)

			if _, ok, _ := c.Get(ctx, "short-lived"); ok {
				t.Error("expired entry should be a miss")
			}
		})
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()

	for name, c := range localBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := c.Set(ctx, "forever", []byte("x"), 0); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := c.Get(ctx, "forever"); !ok {
				t.Error("zero TTL entry should not expire")
			}
		})
	}
}

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Error("null cache should never hit")
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestFileCacheSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Set(ctx, "persisted", []byte("v"), time.Hour); err != nil {
		t.Fatal(err)
	}

	second, err := NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	data, ok, err := second.Get(ctx, "persisted")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(data) != "v" {
		t.Errorf("entry should survive reopen, got ok=%v data=%s", ok, data)
	}
}

func TestHashIsStable(t *testing.T) {
	a := Hash([]byte("pypi:exists:requests"))
	b := Hash([]byte("pypi:exists:requests"))
	if a != b {
		t.Error("hash must be deterministic")
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if a == Hash([]byte("pypi:exists:numpy")) {
		t.Error("distinct keys should hash differently")
	}
}
