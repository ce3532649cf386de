package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/depscout/depscout/pkg/classify"
	"github.com/depscout/depscout/pkg/findings"
	"github.com/depscout/depscout/pkg/manifest"
	"github.com/depscout/depscout/pkg/observability"
	"github.com/depscout/depscout/pkg/registry"
	"github.com/depscout/depscout/pkg/requirement"
	"github.com/depscout/depscout/pkg/source"
)

// Runner executes scans against one registry client.
type Runner struct {
	client registry.Client
	opts   Options
}

// NewRunner creates a Runner. The options are validated once here; a bad
// configuration fails fast instead of mid-scan.
func NewRunner(client registry.Client, opts Options) (*Runner, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Runner{client: client, opts: opts}, nil
}

// Scan extracts candidates from every manifest, classifies the distinct
// names, and assembles the report.
//
// Malformed manifest content is not fatal: extraction is a best-effort
// over-approximation and a manifest that yields no candidates simply
// contributes nothing. Only input-level failures (unreadable sources,
// cancellation) abort the scan.
func (r *Runner) Scan(ctx context.Context, manifests []source.Manifest) (*findings.Report, error) {
	logger := r.opts.Logger

	var names []requirement.Name
	var skipped []findings.Skipped
	occurrences := make(map[string][]findings.Occurrence)
	filter := requirement.NewFilter(r.opts.ExtraDeny...)

	skip := func(m source.Manifest, req manifest.RawRequirement, reason string) {
		skipped = append(skipped, findings.Skipped{
			Manifest: m.Label,
			Raw:      req.Text,
			Span:     req.Span,
			Reason:   reason,
		})
		logger.Debug("skipping candidate", "manifest", m.Label, "span", req.Span.String(), "reason", reason)
	}

	for _, m := range manifests {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		start := time.Now()
		observability.Scan().OnExtractStart(ctx, m.Label)

		raw := manifest.Extract(m.Text, manifest.WalkOptions{Attribution: r.opts.attributionPolicy()})
		kept := 0
		for _, req := range raw {
			if req.Malformed {
				skip(m, req, "malformed string literal")
				continue
			}
			name, err := requirement.Normalize(req.Text)
			if err != nil {
				skip(m, req, err.Error())
				continue
			}
			if !filter.Allow(name) {
				skip(m, req, "denied")
				continue
			}

			names = append(names, name)
			occurrences[name.Value] = append(occurrences[name.Value], findings.Occurrence{
				Manifest:    m.Label,
				Section:     req.Section,
				ExtrasGroup: req.ExtrasGroup,
				Span:        req.Span,
				Raw:         req.Text,
			})
			kept++
		}

		observability.Scan().OnExtractComplete(ctx, m.Label, kept, time.Since(start), nil)
		logger.Debug("extracted manifest", "manifest", m.Label, "raw", len(raw), "candidates", kept)
	}

	results := classify.New(r.client, r.opts.Concurrency).Classify(ctx, names)
	found, indeterminate := findings.Assemble(results, occurrences)

	stats := findings.Summarize(results)
	stats.Manifests = len(manifests)
	stats.Skipped = len(skipped)

	report := &findings.Report{
		ScanID:        uuid.NewString(),
		GeneratedAt:   time.Now().UTC(),
		Registry:      r.client.Name(),
		Findings:      found,
		Indeterminate: indeterminate,
		Results:       findings.Classifications(results),
		Skipped:       skipped,
		Stats:         stats,
	}

	logger.Info("scan complete",
		"scan_id", report.ScanID,
		"manifests", stats.Manifests,
		"candidates", stats.Candidates,
		"not_found", stats.NotFound,
		"lookup_errors", stats.LookupErrors)

	return report, nil
}
