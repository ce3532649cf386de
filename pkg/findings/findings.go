// Package findings turns classification results back into manifest-anchored
// report entries.
//
// A finding is one NOT_FOUND name plus every place it was declared. Names
// that exist on the registry produce no finding; names whose lookup failed
// are reported separately as indeterminate so they are never mistaken for
// either verdict.
package findings

import (
	"sort"
	"time"

	"github.com/depscout/depscout/pkg/classify"
	"github.com/depscout/depscout/pkg/manifest"
)

// Occurrence is one declaration site of a candidate name.
type Occurrence struct {
	Manifest    string               `json:"manifest"`
	Section     manifest.SectionKind `json:"section"`
	ExtrasGroup string               `json:"extras_group,omitempty"`
	Span        manifest.Span        `json:"span"`
	Raw         string               `json:"raw"`
}

// Finding is one claimable name with all of its declaration sites.
type Finding struct {
	Name        string       `json:"name"`
	Display     string       `json:"display,omitempty"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Indeterminate is one name whose registry lookup failed.
type Indeterminate struct {
	Name        string       `json:"name"`
	Reason      string       `json:"reason"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Classification is the recorded lookup outcome for one canonical name.
// The report carries one entry per distinct candidate whatever the outcome,
// so a renderer can build exists, missing, and indeterminate sections
// without re-deriving verdicts from the findings list.
type Classification struct {
	Status    classify.Status `json:"status"`
	Display   string          `json:"display,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Skipped is one extracted candidate that never reached classification:
// a malformed literal, a normalization reject, or a denylisted name.
type Skipped struct {
	Manifest string        `json:"manifest"`
	Raw      string        `json:"raw"`
	Span     manifest.Span `json:"span"`
	Reason   string        `json:"reason"`
}

// Stats summarizes one scan.
type Stats struct {
	Manifests    int `json:"manifests"`
	Candidates   int `json:"candidates"`
	Exists       int `json:"exists"`
	NotFound     int `json:"not_found"`
	LookupErrors int `json:"lookup_errors"`
	Skipped      int `json:"skipped"`
}

// Report is the full output of one scan.
type Report struct {
	ScanID        string                    `json:"scan_id"`
	GeneratedAt   time.Time                 `json:"generated_at"`
	Registry      string                    `json:"registry"`
	Findings      []Finding                 `json:"findings"`
	Indeterminate []Indeterminate           `json:"indeterminate"`
	Results       map[string]Classification `json:"results"`
	Skipped       []Skipped                 `json:"skipped,omitempty"`
	Stats         Stats                     `json:"stats"`
}

// Assemble builds findings and indeterminate entries from classification
// results and the occurrence index collected during extraction.
//
// Findings are ordered by the position of each name's first occurrence
// (manifest label, then span), so output is stable across runs regardless
// of lookup completion order.
func Assemble(results map[string]classify.Result, occurrences map[string][]Occurrence) ([]Finding, []Indeterminate) {
	var findings []Finding
	var indeterminate []Indeterminate

	for value, res := range results {
		occs := occurrences[value]
		switch res.Status {
		case classify.StatusNotFound:
			findings = append(findings, Finding{
				Name:        value,
				Display:     res.Name.Display,
				Occurrences: occs,
			})
		case classify.StatusLookupError:
			reason := "lookup failed"
			if res.Err != nil {
				reason = res.Err.Error()
			}
			indeterminate = append(indeterminate, Indeterminate{
				Name:        value,
				Reason:      reason,
				Occurrences: occs,
			})
		}
	}

	sortByFirstOccurrence(findings, func(f Finding) []Occurrence { return f.Occurrences })
	sort.Slice(indeterminate, func(i, j int) bool {
		return lessOccurrences(indeterminate[i].Occurrences, indeterminate[j].Occurrences,
			indeterminate[i].Name, indeterminate[j].Name)
	})
	return findings, indeterminate
}

// Classifications converts classifier output into the report's per-name
// mapping, keyed by canonical name.
func Classifications(results map[string]classify.Result) map[string]Classification {
	out := make(map[string]Classification, len(results))
	for value, res := range results {
		c := Classification{
			Status:    res.Status,
			Display:   res.Name.Display,
			CheckedAt: res.CheckedAt,
		}
		if res.Err != nil {
			c.Reason = res.Err.Error()
		}
		out[value] = c
	}
	return out
}

// Summarize counts classification outcomes for the report header.
func Summarize(results map[string]classify.Result) Stats {
	var s Stats
	s.Candidates = len(results)
	for _, res := range results {
		switch res.Status {
		case classify.StatusExists:
			s.Exists++
		case classify.StatusNotFound:
			s.NotFound++
		case classify.StatusLookupError:
			s.LookupErrors++
		}
	}
	return s
}

func sortByFirstOccurrence(findings []Finding, occs func(Finding) []Occurrence) {
	sort.Slice(findings, func(i, j int) bool {
		return lessOccurrences(occs(findings[i]), occs(findings[j]), findings[i].Name, findings[j].Name)
	})
}

// lessOccurrences orders by first occurrence; names with no recorded
// occurrence sort last, ties fall back to the name itself.
func lessOccurrences(a, b []Occurrence, nameA, nameB string) bool {
	switch {
	case len(a) == 0 && len(b) == 0:
		return nameA < nameB
	case len(a) == 0:
		return false
	case len(b) == 0:
		return true
	}
	if a[0].Manifest != b[0].Manifest {
		return a[0].Manifest < b[0].Manifest
	}
	if a[0].Span != b[0].Span {
		return a[0].Span.Before(b[0].Span)
	}
	return nameA < nameB
}
