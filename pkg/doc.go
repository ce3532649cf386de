// Package pkg provides the core libraries for depscout dependency scanning.
//
// # Overview
//
// depscout statically extracts dependency declarations from Python setup.py
// manifests and checks each distinct name against the public registry. A
// declared name that no registry serves is claimable by anyone, which is
// the precondition for a dependency confusion attack. The pkg directory is
// organized into four main areas:
//
//  1. [manifest], [requirement] - Extraction (lexing, walking, normalizing)
//  2. [registry], [classify] - Existence lookups and classification
//  3. [cache], [httputil] - Infrastructure (lookup caching, retry)
//  4. [pipeline], [findings] - Orchestration and report assembly
//
// # Architecture
//
// The typical data flow through depscout:
//
//	setup.py source
//	         ↓
//	    [manifest] package (lex + walk, collect raw requirement strings)
//	         ↓
//	    [requirement] package (normalize to canonical names, filter)
//	         ↓
//	    [classify] package (bounded worker pool over [registry] lookups)
//	         ↓
//	    [findings] package (NOT_FOUND names back to declaration sites)
//	         ↓
//	    text or JSON report
//
// # Quick Start
//
//	client := pypi.NewClient(cache.NewMemoryCache(), time.Hour)
//	runner, err := pipeline.NewRunner(client, pipeline.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report, err := runner.Scan(ctx, []source.Manifest{{Label: "setup.py", Text: src}})
//
// Supporting packages: [errors] for coded errors, [observability] for
// instrumentation hooks, [config] for TOML configuration, [source] for
// manifest loading, and [buildinfo] for version stamping.
package pkg
