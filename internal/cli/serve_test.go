package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/depscout/depscout/pkg/classify"
	"github.com/depscout/depscout/pkg/findings"
	"github.com/depscout/depscout/pkg/pipeline"
	"github.com/depscout/depscout/pkg/registry"
)

type stubClient struct {
	existing map[string]bool
}

func (s *stubClient) Lookup(ctx context.Context, name string) (registry.Existence, error) {
	if s.existing[name] {
		return registry.Exists, nil
	}
	return registry.NotFound, nil
}

func (s *stubClient) Name() string { return "stub" }

func testScanHandler(t *testing.T) http.HandlerFunc {
	t.Helper()
	runner, err := pipeline.NewRunner(&stubClient{existing: map[string]bool{"requests": true}}, pipeline.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return handleScan(runner)
}

func TestHandleScan(t *testing.T) {
	body := `{"manifests": [{"label": "setup.py", "text": "setup(install_requires=[\"requests\", \"ghost-pkg\"])"}]}`

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(body))
	rec := httptest.NewRecorder()
	testScanHandler(t)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var report findings.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("response is not a report: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Name != "ghost-pkg" {
		t.Errorf("findings = %+v, want one finding for ghost-pkg", report.Findings)
	}
	if len(report.Results) != 2 {
		t.Fatalf("results = %+v, want both names classified", report.Results)
	}
	if report.Results["requests"].Status != classify.StatusExists {
		t.Errorf("results[requests] = %+v, want exists", report.Results["requests"])
	}
	if report.Results["ghost-pkg"].Status != classify.StatusNotFound {
		t.Errorf("results[ghost-pkg] = %+v, want not_found", report.Results["ghost-pkg"])
	}
}

func TestHandleScanRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"no manifests", `{"manifests": []}`},
		{"empty label", `{"manifests": [{"label": "", "text": "x"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/scans", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			testScanHandler(t)(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			var apiErr apiError
			if err := json.Unmarshal(rec.Body.Bytes(), &apiErr); err != nil {
				t.Fatalf("error envelope is not JSON: %v", err)
			}
			if apiErr.Code == "" {
				t.Error("error envelope should carry a code")
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handleHealth(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("body = %s", rec.Body.String())
	}
}
