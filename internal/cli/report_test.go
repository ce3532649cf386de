package cli

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/depscout/depscout/pkg/classify"
	"github.com/depscout/depscout/pkg/findings"
	"github.com/depscout/depscout/pkg/manifest"
)

func sampleReport() *findings.Report {
	return &findings.Report{
		ScanID:      "0b7e3c84-1111-2222-3333-444455556666",
		GeneratedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Registry:    "pypi",
		Findings: []findings.Finding{
			{
				Name:    "fake-internal-pkg123",
				Display: "fake-internal-pkg123",
				Occurrences: []findings.Occurrence{
					{
						Manifest: "setup.py",
						Section:  manifest.SectionInstall,
						Span:     manifest.Span{Line: 7, Col: 9, EndLine: 7, EndCol: 31},
						Raw:      "fake-internal-pkg123",
					},
				},
			},
		},
		Indeterminate: []findings.Indeterminate{
			{Name: "flaky-pkg", Reason: "lookup failed (timeout): deadline exceeded"},
		},
		Results: map[string]findings.Classification{
			"requests":             {Status: classify.StatusExists, Display: "requests"},
			"fake-internal-pkg123": {Status: classify.StatusNotFound, Display: "fake-internal-pkg123"},
			"flaky-pkg":            {Status: classify.StatusLookupError, Reason: "lookup failed (timeout): deadline exceeded"},
		},
		Stats: findings.Stats{Manifests: 1, Candidates: 3, Exists: 1, NotFound: 1, LookupErrors: 1},
	}
}

func TestWriteJSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSONReport(&buf, sampleReport()); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if decoded["scan_id"] != "0b7e3c84-1111-2222-3333-444455556666" {
		t.Errorf("scan_id = %v", decoded["scan_id"])
	}
	if decoded["registry"] != "pypi" {
		t.Errorf("registry = %v", decoded["registry"])
	}

	fs, ok := decoded["findings"].([]any)
	if !ok || len(fs) != 1 {
		t.Fatalf("findings = %v", decoded["findings"])
	}
	f := fs[0].(map[string]any)
	if f["name"] != "fake-internal-pkg123" {
		t.Errorf("finding name = %v", f["name"])
	}
	occs := f["occurrences"].([]any)
	occ := occs[0].(map[string]any)
	if occ["section"] != "install" {
		t.Errorf("section = %v", occ["section"])
	}

	inds, ok := decoded["indeterminate"].([]any)
	if !ok || len(inds) != 1 {
		t.Fatalf("indeterminate = %v", decoded["indeterminate"])
	}

	results, ok := decoded["results"].(map[string]any)
	if !ok || len(results) != 3 {
		t.Fatalf("results = %v, want the full per-name mapping", decoded["results"])
	}
	entry, ok := results["requests"].(map[string]any)
	if !ok || entry["status"] != "exists" {
		t.Errorf("results[requests] = %v, want status exists", results["requests"])
	}
}

func TestPrintReportDoesNotPanic(t *testing.T) {
	// Rendering goes to stdout; this only guards against nil derefs on
	// partially filled reports.
	printReport(sampleReport())
	printReport(&findings.Report{ScanID: "empty", Registry: "pypi"})
}
