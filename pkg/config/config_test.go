package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/depscout/depscout/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "depscout.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Registry.BaseURL != "https://pypi.org" {
		t.Errorf("BaseURL = %q, want public PyPI", cfg.Registry.BaseURL)
	}
	if cfg.Lookup.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Lookup.Concurrency)
	}
	if cfg.Lookup.Retries != 3 {
		t.Errorf("Retries = %d, want 3", cfg.Lookup.Retries)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("Backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Scan.DynamicAttribution != "all" {
		t.Errorf("DynamicAttribution = %q, want all", cfg.Scan.DynamicAttribution)
	}
}

func TestLoadLayersOverDefaults(t *testing.T) {
	path := writeConfig(t, `
[registry]
base_url = "https://mirror.internal.example"

[lookup]
concurrency = 16

[cache]
backend = "memory"

[scan]
dynamic_attribution = "first"
deny = ["internal-common"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Registry.BaseURL != "https://mirror.internal.example" {
		t.Errorf("BaseURL = %q", cfg.Registry.BaseURL)
	}
	if cfg.Lookup.Concurrency != 16 {
		t.Errorf("Concurrency = %d, want 16", cfg.Lookup.Concurrency)
	}
	if cfg.Cache.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Cache.Backend)
	}
	// Untouched fields keep their defaults.
	if cfg.Cache.TTLHours != 24 {
		t.Errorf("TTLHours = %d, want default 24", cfg.Cache.TTLHours)
	}
	if cfg.Scan.DynamicAttribution != "first" {
		t.Errorf("DynamicAttribution = %q, want first", cfg.Scan.DynamicAttribution)
	}
	if len(cfg.Scan.Deny) != 1 || cfg.Scan.Deny[0] != "internal-common" {
		t.Errorf("Deny = %v", cfg.Scan.Deny)
	}
}

func TestLoadRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `registry = [`},
		{"bad scheme", "[registry]\nbase_url = \"ftp://mirror\""},
		{"zero concurrency", "[lookup]\nconcurrency = 0"},
		{"zero retries", "[lookup]\nretries = 0"},
		{"unknown backend", "[cache]\nbackend = \"etcd\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"mongo without uri", "[cache]\nbackend = \"mongo\""},
		{"bad attribution", "[scan]\ndynamic_attribution = \"some\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("error code = %v, want INVALID_CONFIG", errors.GetCode(err))
			}
		})
	}
}

func TestLoadMissingFileIsError(t *testing.T) {
	_, err := Load("/does/not/exist.toml")
	if err == nil {
		t.Fatal("explicitly named config file must exist")
	}
}
