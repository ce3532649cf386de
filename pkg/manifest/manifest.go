// Package manifest extracts declared dependency names from Python packaging
// descriptors (setup.py and similar declarative manifests) without executing
// them.
//
// Extraction is a two-stage process:
//
//  1. A Scanner lexes the source into tokens, tracking quote state so that
//     comment characters inside string literals are treated as data and so
//     that every string literal carries its exact source span.
//  2. A Walker consumes the token stream and decides which string literals
//     are requirement declarations, based on the assignment target they
//     belong to (install_requires, extras_require, ...) or on a heuristic
//     for lists assembled at runtime through append/extend calls.
//
// The walker deliberately over-collects: a name extracted twice is
// deduplicated downstream, but a name silently dropped is a missed
// dependency-confusion candidate.
package manifest

import "fmt"

// SectionKind identifies which part of a manifest a requirement came from.
type SectionKind string

const (
	// SectionInstall covers install_requires lists.
	SectionInstall SectionKind = "install"
	// SectionSetup covers setup_requires lists.
	SectionSetup SectionKind = "setup"
	// SectionTests covers tests_require lists.
	SectionTests SectionKind = "tests"
	// SectionExtras covers extras_require dict values.
	SectionExtras SectionKind = "extras"
	// SectionDynamic covers lists assembled through assignments that are
	// later referenced by append/extend calls or fed into a setup keyword.
	SectionDynamic SectionKind = "dynamic"
)

// Span is a half-open source location: Line and Col address the first
// character, EndLine and EndCol the position just past the last one.
// Lines and columns are 1-based.
type Span struct {
	Line    int `json:"line"`
	Col     int `json:"col"`
	EndLine int `json:"end_line"`
	EndCol  int `json:"end_col"`
}

// String formats the span start as "line:col".
func (s Span) String() string { return fmt.Sprintf("%d:%d", s.Line, s.Col) }

// Before reports whether s starts before other in source order.
func (s Span) Before(other Span) bool {
	if s.Line != other.Line {
		return s.Line < other.Line
	}
	return s.Col < other.Col
}

// RawRequirement is a single requirement string as it appears in the source,
// before normalization. Immutable once produced by the walker.
type RawRequirement struct {
	// Text is the literal content, quotes removed, comments untouched.
	Text string
	// Span locates the literal in the manifest source.
	Span Span
	// Section is the manifest section the literal was found in.
	Section SectionKind
	// ExtrasGroup is the dict key for SectionExtras requirements
	// (e.g. "dev" for extras_require={"dev": [...]}), empty otherwise.
	ExtrasGroup string
	// Malformed marks text recovered from an unterminated literal. The
	// requirement still propagates, with its span, but must be dropped
	// before any registry lookup.
	Malformed bool
}

// Extract lexes src and walks it for requirement declarations in one call.
// It is the usual entry point; use Scanner and Walk separately when token
// level access is needed.
func Extract(src string, opts WalkOptions) []RawRequirement {
	return Walk(ScanAll(src), opts)
}
