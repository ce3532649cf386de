package requirement

import "strings"

// defaultDeny lists structurally-valid-but-meaningless tokens that must
// never reach the registry. Normalize already rejects these; the filter is
// a second line of defense against extraction bugs, not a replacement.
var defaultDeny = []string{".", ".."}

// Filter performs the final validity check on canonical names.
// The zero value is not usable; construct with NewFilter.
type Filter struct {
	deny map[string]struct{}
}

// NewFilter builds a Filter with the built-in denylist plus any extra
// entries (compared case-insensitively).
func NewFilter(extra ...string) *Filter {
	deny := make(map[string]struct{}, len(defaultDeny)+len(extra))
	for _, d := range defaultDeny {
		deny[d] = struct{}{}
	}
	for _, d := range extra {
		deny[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
	}
	return &Filter{deny: deny}
}

// Allow reports whether a canonical name may proceed to classification.
// It re-applies the identifier shape check and consults the denylist.
func (f *Filter) Allow(n Name) bool {
	if n.Value == "" || !shapeRE.MatchString(n.Value) {
		return false
	}
	_, denied := f.deny[n.Value]
	return !denied
}
