// Package pipeline wires extraction, classification, and assembly into one
// scan entry point shared by the CLI and the serve API.
//
// # Architecture
//
// A scan runs in three stages:
//
//  1. Extract: collect candidate requirement strings from each manifest
//  2. Classify: resolve every distinct candidate name against the registry
//  3. Assemble: turn NOT_FOUND names back into manifest-anchored findings
//
// Extraction is per-manifest and purely local; only classification touches
// the network. Centralizing the stages here keeps CLI and API behavior
// identical.
//
// # Usage
//
//	runner := pipeline.NewRunner(client, pipeline.Options{Concurrency: 8})
//	report, err := runner.Scan(ctx, manifests)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range report.Findings {
//	    fmt.Println(f.Name)
//	}
package pipeline

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/depscout/depscout/pkg/classify"
	"github.com/depscout/depscout/pkg/errors"
	"github.com/depscout/depscout/pkg/manifest"
)

// DefaultConcurrency is the lookup worker pool size when none is set.
const DefaultConcurrency = classify.DefaultConcurrency

// Attribution modes for dynamic list handling.
const (
	AttributionAll   = "all"
	AttributionFirst = "first"
)

// Options configures a scan run.
type Options struct {
	// Concurrency bounds the registry lookup worker pool.
	Concurrency int `json:"concurrency,omitempty"`

	// DynamicAttribution is "all" (every referenced dynamic list feeds the
	// section, the over-approximating default) or "first".
	DynamicAttribution string `json:"dynamic_attribution,omitempty"`

	// ExtraDeny adds names to the built-in denylist.
	ExtraDeny []string `json:"deny,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}

	if o.Concurrency < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "concurrency cannot be negative")
	}
	if o.Concurrency == 0 {
		o.Concurrency = DefaultConcurrency
	}

	switch o.DynamicAttribution {
	case "":
		o.DynamicAttribution = AttributionAll
	case AttributionAll, AttributionFirst:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid dynamic_attribution: %q (must be %q or %q)",
			o.DynamicAttribution, AttributionAll, AttributionFirst)
	}

	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	o.validated = true
	return nil
}

// attributionPolicy maps the option string onto the walker policy.
func (o *Options) attributionPolicy() manifest.AttributionPolicy {
	if o.DynamicAttribution == AttributionFirst {
		return manifest.AttributeFirst
	}
	return manifest.AttributeAll
}
