package manifest

import "testing"

func stringToks(toks []Token) []Token {
	var out []Token
	for _, t := range toks {
		if t.Kind == TokenString {
			out = append(out, t)
		}
	}
	return out
}

func TestScanStringVariants(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"single quotes", `'requests'`, "requests"},
		{"double quotes", `"requests"`, "requests"},
		{"raw prefix", `r"pkg-name"`, "pkg-name"},
		{"byte prefix", `b'pkg'`, "pkg"},
		{"unicode prefix", `u'pkg'`, "pkg"},
		{"combined prefix", `rb"pkg"`, "pkg"},
		{"triple double", `"""pkg"""`, "pkg"},
		{"triple single", `'''pkg'''`, "pkg"},
		{"escaped quote", `'it\'s'`, "it's"},
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"unknown escape kept", `"a\d"`, `a\d`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks := stringToks(ScanAll(tt.src))
			if len(toks) != 1 {
				t.Fatalf("got %d string tokens, want 1", len(toks))
			}
			if toks[0].Text != tt.want {
				t.Errorf("text = %q, want %q", toks[0].Text, tt.want)
			}
			if toks[0].Malformed {
				t.Error("well-formed literal flagged malformed")
			}
		})
	}
}

func TestScanHashInsideStringIsData(t *testing.T) {
	toks := stringToks(ScanAll(`deps = ["pkg # not a comment", "other"]`))
	if len(toks) != 2 {
		t.Fatalf("got %d string tokens, want 2", len(toks))
	}
	if toks[0].Text != "pkg # not a comment" {
		t.Errorf("text = %q: '#' inside quotes must stay data", toks[0].Text)
	}
}

func TestScanCommentOutsideString(t *testing.T) {
	toks := stringToks(ScanAll("deps = [\"pkg\"]  # [\"ghost\"]\n"))
	if len(toks) != 1 {
		t.Fatalf("got %d string tokens, want 1: comment content must not tokenize", len(toks))
	}
	if toks[0].Text != "pkg" {
		t.Errorf("text = %q", toks[0].Text)
	}
}

func TestScanUnterminatedStrings(t *testing.T) {
	t.Run("at newline", func(t *testing.T) {
		toks := stringToks(ScanAll("\"abc\nnext = 1\n"))
		if len(toks) != 1 {
			t.Fatalf("got %d string tokens, want 1", len(toks))
		}
		if !toks[0].Malformed {
			t.Error("literal cut by newline should be malformed")
		}
		if toks[0].Text != "abc" {
			t.Errorf("text = %q, want content up to the break", toks[0].Text)
		}
	})

	t.Run("at end of input", func(t *testing.T) {
		toks := stringToks(ScanAll(`"abc`))
		if len(toks) != 1 || !toks[0].Malformed {
			t.Fatal("literal cut by EOF should be one malformed token")
		}
	})

	t.Run("triple at end of input", func(t *testing.T) {
		toks := stringToks(ScanAll("\"\"\"abc\ndef"))
		if len(toks) != 1 || !toks[0].Malformed {
			t.Fatal("unterminated triple quote should be one malformed token")
		}
	})
}

func TestScanTripleQuoteSpansLines(t *testing.T) {
	toks := stringToks(ScanAll("'''line one\nline two'''"))
	if len(toks) != 1 {
		t.Fatalf("got %d string tokens, want 1", len(toks))
	}
	if toks[0].Malformed {
		t.Error("closed triple quote is not malformed")
	}
	if toks[0].Span.Line != 1 || toks[0].Span.EndLine != 2 {
		t.Errorf("span = %+v, want lines 1-2", toks[0].Span)
	}
}

func TestScanOperators(t *testing.T) {
	toks := ScanAll("a == b >= c = d")
	var ops []string
	for _, tok := range toks {
		if tok.Kind == TokenPunct {
			ops = append(ops, tok.Text)
		}
	}
	want := []string{"==", ">=", "="}
	if len(ops) != len(want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	for i := range want {
		if ops[i] != want[i] {
			t.Fatalf("ops = %v, want %v: '==' must not split into two '='", ops, want)
		}
	}
}

func TestScanLineContinuation(t *testing.T) {
	toks := ScanAll("deps = \\\n['pkg']")
	var found bool
	for _, tok := range toks {
		if tok.Kind == TokenString && tok.Text == "pkg" {
			found = true
		}
	}
	if !found {
		t.Error("backslash-newline should continue the logical line")
	}
}

func TestScanSpans(t *testing.T) {
	toks := stringToks(ScanAll("deps = [\n    \"requests\",\n]"))
	if len(toks) != 1 {
		t.Fatalf("got %d string tokens, want 1", len(toks))
	}
	span := toks[0].Span
	if span.Line != 2 {
		t.Errorf("line = %d, want 2", span.Line)
	}
	if span.Col != 5 {
		t.Errorf("col = %d, want 5 (1-based)", span.Col)
	}
}
