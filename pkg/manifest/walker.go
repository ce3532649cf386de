package manifest

// AttributionPolicy controls how requirements are attributed when a
// dynamically built list is assigned or extended at several distinct sites.
type AttributionPolicy string

const (
	// AttributeAll collects every assignment and extend/append site.
	// This is the default: static analysis has no execution order, so the
	// union over all sites is the safe over-approximation.
	AttributeAll AttributionPolicy = "all"
	// AttributeFirst collects only the first site in source order.
	AttributeFirst AttributionPolicy = "first"
)

// WalkOptions configures the structural walk.
type WalkOptions struct {
	// Attribution selects the dynamic-list attribution policy.
	// Empty means AttributeAll.
	Attribution AttributionPolicy
}

// sectionKeywords maps recognized setup keyword targets to section kinds.
var sectionKeywords = map[string]SectionKind{
	"install_requires": SectionInstall,
	"setup_requires":   SectionSetup,
	"tests_require":    SectionTests,
}

// Walk identifies requirement declarations in a token stream.
//
// Recognition, in priority order: keyword list sections
// (install_requires=[...] and friends), the extras_require dict, and bare
// list assignments whose name is later referenced by a setup keyword or an
// extend/append call. A keyword target assigned more than once contributes
// all of its assignments; completeness of name discovery wins over fidelity
// to whichever assignment would run last.
func Walk(toks []Token, opts WalkOptions) []RawRequirement {
	w := &walker{
		toks:   toks,
		policy: opts.Attribution,
		refs:   make(map[string]bool),
		sites:  make(map[string][]dynSite),
	}
	if w.policy == "" {
		w.policy = AttributeAll
	}
	w.run()
	return w.emit()
}

// dynSite is one assignment or extend/append call contributing literals to a
// dynamically built list.
type dynSite struct {
	order int
	reqs  []RawRequirement
}

type walker struct {
	toks   []Token
	policy AttributionPolicy

	out []RawRequirement

	// dynamic-list bookkeeping
	refs     map[string]bool
	sites    map[string][]dynSite
	siteSeq  int
	dynOrder []string
}

func (w *walker) at(i int) Token {
	if i < 0 || i >= len(w.toks) {
		return Token{Kind: TokenPunct, Text: ""}
	}
	return w.toks[i]
}

func (w *walker) punctAt(i int, text string) bool {
	t := w.at(i)
	return t.Kind == TokenPunct && t.Text == text
}

func (w *walker) run() {
	for i := 0; i < len(w.toks); i++ {
		tok := w.toks[i]
		if tok.Kind != TokenIdent {
			continue
		}

		// attribute access: receiver.extend(...) / receiver.append(...)
		if w.punctAt(i-1, ".") {
			if tok.Text == "extend" || tok.Text == "append" {
				if recv := w.at(i - 2); recv.Kind == TokenIdent {
					w.refs[recv.Text] = true
					if w.punctAt(i+1, "(") {
						reqs, next := w.collectRegion(i+1, "(", ")")
						w.addSite(recv.Text, reqs)
						i = next - 1
					}
				}
			}
			continue
		}

		switch {
		case tok.Text == "extras_require" && w.punctAt(i+1, "="):
			i = w.walkExtras(i+2) - 1
		default:
			if kind, ok := sectionKeywords[tok.Text]; ok && w.punctAt(i+1, "=") {
				i = w.walkSectionValue(i+2, kind) - 1
				continue
			}
			// bare list assignment: candidate dynamic list
			if w.punctAt(i+1, "=") && w.punctAt(i+2, "[") {
				reqs, next := w.collectRegion(i+2, "[", "]")
				w.addSite(tok.Text, reqs)
				i = next - 1
			}
		}
	}
}

// walkSectionValue walks the right-hand side of a recognized keyword
// assignment starting at index i. List literals contribute requirements
// directly; identifier operands are marked as referenced so their
// assignments surface as dynamic requirements. Handles concatenations like
// BASE + ["extra"]. Returns the index just past the value.
func (w *walker) walkSectionValue(i int, kind SectionKind) int {
	for {
		switch t := w.at(i); {
		case t.Kind == TokenPunct && t.Text == "[":
			reqs, next := w.collectRegion(i, "[", "]")
			for _, r := range reqs {
				r.Section = kind
				w.out = append(w.out, r)
			}
			i = next
		case t.Kind == TokenIdent:
			w.refs[t.Text] = true
			i++
			if w.punctAt(i, "(") {
				_, i = w.collectDiscard(i, "(", ")")
			}
		default:
			return i
		}
		if w.punctAt(i, "+") {
			i++
			continue
		}
		return i
	}
}

// walkExtras walks an extras_require dict literal starting at index i.
// Each dict value that is itself a list contributes requirements tagged
// with the dict key as the extras group. A dict with no parsable list
// values yields nothing; an empty extras section is valid.
func (w *walker) walkExtras(i int) int {
	if !w.punctAt(i, "{") {
		// value is not a dict literal (identifier, call, ...): treat an
		// identifier as a dynamic-list reference, otherwise skip.
		if t := w.at(i); t.Kind == TokenIdent {
			w.refs[t.Text] = true
		}
		return i + 1
	}
	i++ // past "{"

	for i < len(w.toks) {
		t := w.at(i)
		if t.Kind == TokenPunct && t.Text == "}" {
			return i + 1
		}
		if t.Kind == TokenString && w.punctAt(i+1, ":") {
			group := t.Text
			if w.punctAt(i+2, "[") {
				reqs, next := w.collectRegion(i+2, "[", "]")
				for _, r := range reqs {
					r.Section = SectionExtras
					r.ExtrasGroup = group
					w.out = append(w.out, r)
				}
				i = next
			} else {
				i = w.skipValue(i + 2)
			}
			if w.punctAt(i, ",") {
				i++
			}
			continue
		}
		i++
	}
	return i
}

// skipValue advances past one dict value, balancing any nested brackets,
// and returns the index of the terminating "," or "}".
func (w *walker) skipValue(i int) int {
	depth := 0
	for ; i < len(w.toks); i++ {
		t := w.at(i)
		if t.Kind != TokenPunct {
			continue
		}
		switch t.Text {
		case "[", "{", "(":
			depth++
		case "]", ")":
			depth--
		case "}":
			if depth == 0 {
				return i
			}
			depth--
		case ",":
			if depth == 0 {
				return i
			}
		}
	}
	return i
}

// collectRegion gathers string literals inside a balanced bracket region
// opening at index i. Strings at any nesting depth are collected, except
// dict keys (a string immediately followed by ":" inside a brace region).
// Line breaks carry no meaning here; only bracket depth does.
// Returns the requirements and the index just past the closing bracket.
func (w *walker) collectRegion(i int, open, close string) ([]RawRequirement, int) {
	if !w.punctAt(i, open) {
		return nil, i + 1
	}
	var reqs []RawRequirement
	var stack []string
	stack = append(stack, open)
	i++

	for i < len(w.toks) && len(stack) > 0 {
		t := w.at(i)
		switch t.Kind {
		case TokenString:
			inBraces := stack[len(stack)-1] == "{"
			if inBraces && w.punctAt(i+1, ":") {
				// dict key, not a requirement
				i++
				continue
			}
			reqs = append(reqs, RawRequirement{Text: t.Text, Span: t.Span, Section: SectionDynamic, Malformed: t.Malformed})
			i++
		case TokenPunct:
			switch t.Text {
			case "[", "{", "(":
				stack = append(stack, t.Text)
			case "]", "}", ")":
				stack = stack[:len(stack)-1]
			}
			i++
		default:
			i++
		}
	}
	return reqs, i
}

// collectDiscard balances a bracket region without keeping its contents.
func (w *walker) collectDiscard(i int, open, close string) ([]RawRequirement, int) {
	_, next := w.collectRegion(i, open, close)
	return nil, next
}

func (w *walker) addSite(name string, reqs []RawRequirement) {
	if _, seen := w.sites[name]; !seen {
		w.dynOrder = append(w.dynOrder, name)
	}
	w.sites[name] = append(w.sites[name], dynSite{order: w.siteSeq, reqs: reqs})
	w.siteSeq++
}

// emit appends dynamic-list requirements for every referenced name and
// returns the full result. Unreferenced bare lists are dropped: a module
// level list that never flows toward a setup keyword or a mutation call is
// plain data, not a requirement declaration.
func (w *walker) emit() []RawRequirement {
	for _, name := range w.dynOrder {
		if !w.refs[name] {
			continue
		}
		sites := w.sites[name]
		if w.policy == AttributeFirst && len(sites) > 1 {
			sites = sites[:1]
		}
		for _, site := range sites {
			w.out = append(w.out, site.reqs...)
		}
	}
	return w.out
}
