// Package requirement normalizes raw requirement strings into canonical
// registry-lookup names and filters out candidates that cannot be package
// identifiers.
package requirement

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrRejected is returned by Normalize for candidates that are not
// plausible package names. Rejection is an expected outcome, not a fault:
// callers log the candidate as skipped and move on.
var ErrRejected = errors.New("rejected requirement")

// Name is a canonical package name derived from a raw requirement string.
type Name struct {
	// Value is the lowercase form used for registry comparison.
	Value string `json:"value"`
	// Display is the original-case form, for reporting.
	Display string `json:"display"`
}

// shapeRE is the package-identifier shape check: leading alphanumeric,
// interior alphanumerics plus "-", "_" and ".".
var shapeRE = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]*$`)

// versionOps are the constraint operators that terminate a name, longest
// first so "~=" wins over a would-be "~" at the same offset.
var versionOps = []string{"==", ">=", "<=", "~=", "!=", ">", "<", "="}

// Normalize reduces one raw requirement string to its canonical base name.
//
// Stripping order is a contract, not an accident: comment, then environment
// marker, then extras qualifier, then version constraint. Reversing extras
// and version stripping misparses "pkg[extra]>=1.0", and the version
// operator search must stop at the first match so that multi-constraint
// tails (">=1.26.0,<2.0") are discarded wholesale. Each step is idempotent
// against already-clean input, so normalizing a canonical name returns it
// unchanged.
func Normalize(raw string) (Name, error) {
	s := raw

	// 1. trailing comment (quote context was already resolved by the scanner)
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[:i]
	}

	// 2. environment marker
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}

	// 3. extras qualifier
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}

	// 4. version constraints
	s = strings.TrimSpace(s)
	if i := firstOperator(s); i >= 0 {
		s = s[:i]
	}
	s = trimBareVersion(s)

	// 5. surrounding whitespace and stray quotes
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `'"`)
	s = strings.TrimSpace(s)

	// 6. shape check
	if s == "" || !shapeRE.MatchString(s) || allPunct(s) {
		return Name{}, fmt.Errorf("%w: %q", ErrRejected, raw)
	}

	return Name{Value: strings.ToLower(s), Display: s}, nil
}

// firstOperator returns the byte offset of the leftmost version-constraint
// operator in s, or -1. The scan is strictly left to right: constraint
// tails can contain further operator-like substrings that must not win.
func firstOperator(s string) int {
	for i := 0; i < len(s); i++ {
		for _, op := range versionOps {
			if strings.HasPrefix(s[i:], op) {
				return i
			}
		}
	}
	return -1
}

// trimBareVersion truncates a "name 1.2.3" style spec where whitespace,
// not an operator, separates name from version.
func trimBareVersion(s string) string {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s
	}
	rest := strings.TrimSpace(s[i:])
	if rest == "" {
		return s[:i]
	}
	if c := rest[0]; c >= '0' && c <= '9' {
		return s[:i]
	}
	return s
}

// allPunct reports whether s consists solely of separator punctuation.
// The shape check already rejects these; this guards the denylist cases
// explicitly ("...", ".", "..") should the regexp ever loosen.
func allPunct(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '.', ',', '#', '/', '\\':
		default:
			return false
		}
	}
	return true
}
