package manifest

import "strings"

// TokenKind discriminates scanner output.
type TokenKind int

const (
	// TokenString is a string literal; Text holds the unquoted content.
	TokenString TokenKind = iota
	// TokenIdent is an identifier or keyword.
	TokenIdent
	// TokenPunct is a single operator or delimiter ("[", "==", ...).
	TokenPunct
)

// Token is one lexical element of a manifest source.
type Token struct {
	Kind TokenKind
	// Text is the decoded literal content for strings and the raw text
	// for identifiers and punctuation.
	Text string
	Span Span
	// Malformed marks a string literal that reached end of line or end of
	// input without a closing quote. The content up to that point is kept;
	// the validity filter drops it later if it is not a plausible name.
	Malformed bool
}

// Scanner lexes manifest source text into a lazy token sequence.
// It never fails: lexical irregularities surface as Malformed tokens,
// not as errors.
type Scanner struct {
	src  string
	pos  int
	line int
	col  int
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src, line: 1, col: 1}
}

// ScanAll drains a new Scanner over src and returns every token.
func ScanAll(src string) []Token {
	s := NewScanner(src)
	var toks []Token
	for {
		tok, ok := s.Next()
		if !ok {
			return toks
		}
		toks = append(toks, tok)
	}
}

// twoCharOps are the multi-character operators emitted as single tokens.
// Folding "==" and friends keeps a bare "=" token meaning assignment or
// keyword argument, which the walker relies on.
var twoCharOps = map[string]bool{
	"==": true, "!=": true, ">=": true, "<=": true, "~=": true, "**": true, "//": true,
}

// Next returns the next token, or ok=false at end of input.
func (s *Scanner) Next() (Token, bool) {
	s.skipBlank()
	if s.pos >= len(s.src) {
		return Token{}, false
	}

	c := s.src[s.pos]
	switch {
	case c == '\'' || c == '"':
		return s.lexString(s.mark(), false), true
	case isIdentStart(c):
		return s.lexIdentOrPrefixed(), true
	default:
		return s.lexPunct(), true
	}
}

// skipBlank consumes whitespace and comments. A '#' here is always a real
// comment: '#' inside string literals is consumed by lexString.
func (s *Scanner) skipBlank() {
	for s.pos < len(s.src) {
		switch c := s.src[s.pos]; {
		case c == '#':
			for s.pos < len(s.src) && s.src[s.pos] != '\n' {
				s.advance()
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == '\\' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n':
			// explicit line continuation
			s.advance()
			s.advance()
		default:
			return
		}
	}
}

type pos struct {
	off, line, col int
}

func (s *Scanner) mark() pos { return pos{s.pos, s.line, s.col} }

func (s *Scanner) spanFrom(start pos) Span {
	return Span{Line: start.line, Col: start.col, EndLine: s.line, EndCol: s.col}
}

func (s *Scanner) advance() {
	if s.src[s.pos] == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	s.pos++
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// lexIdentOrPrefixed lexes an identifier, converting it into a string token
// when it turns out to be a literal prefix (r"...", b'...', rb"...").
func (s *Scanner) lexIdentOrPrefixed() Token {
	start := s.mark()
	for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
		s.advance()
	}
	text := s.src[start.off:s.pos]

	if s.pos < len(s.src) && (s.src[s.pos] == '\'' || s.src[s.pos] == '"') && isStringPrefix(text) {
		raw := strings.ContainsAny(text, "rR")
		return s.lexString(start, raw)
	}
	return Token{Kind: TokenIdent, Text: text, Span: s.spanFrom(start)}
}

func isStringPrefix(text string) bool {
	if len(text) > 2 {
		return false
	}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case 'r', 'R', 'b', 'B', 'u', 'U', 'f', 'F':
		default:
			return false
		}
	}
	return true
}

// lexString lexes a quoted literal starting at the current position (a quote
// character). start may precede the quote when a prefix was consumed.
// Unterminated single-line literals end at the newline, unterminated
// triple-quoted literals at end of input; both are marked Malformed.
func (s *Scanner) lexString(start pos, raw bool) Token {
	quote := s.src[s.pos]
	s.advance()

	triple := strings.HasPrefix(s.src[s.pos:], string([]byte{quote, quote}))
	if triple {
		s.advance()
		s.advance()
	}

	var b strings.Builder
	for s.pos < len(s.src) {
		c := s.src[s.pos]

		if !triple && c == '\n' {
			return Token{Kind: TokenString, Text: b.String(), Span: s.spanFrom(start), Malformed: true}
		}

		if c == '\\' && !raw && s.pos+1 < len(s.src) {
			next := s.src[s.pos+1]
			s.advance()
			s.advance()
			switch next {
			case '\\', '\'', '"':
				b.WriteByte(next)
			case '\n':
				// escaped newline inside a literal: joined line
			default:
				b.WriteByte('\\')
				b.WriteByte(next)
			}
			continue
		}

		if c == quote {
			if !triple {
				s.advance()
				return Token{Kind: TokenString, Text: b.String(), Span: s.spanFrom(start)}
			}
			if strings.HasPrefix(s.src[s.pos:], string([]byte{quote, quote, quote})) {
				s.advance()
				s.advance()
				s.advance()
				return Token{Kind: TokenString, Text: b.String(), Span: s.spanFrom(start)}
			}
		}

		b.WriteByte(c)
		s.advance()
	}

	return Token{Kind: TokenString, Text: b.String(), Span: s.spanFrom(start), Malformed: true}
}

// lexPunct lexes one operator or delimiter, folding two-character
// comparison operators into a single token.
func (s *Scanner) lexPunct() Token {
	start := s.mark()
	if s.pos+1 < len(s.src) {
		if op := s.src[s.pos : s.pos+2]; twoCharOps[op] {
			s.advance()
			s.advance()
			return Token{Kind: TokenPunct, Text: op, Span: s.spanFrom(start)}
		}
	}
	c := s.src[s.pos]
	s.advance()
	return Token{Kind: TokenPunct, Text: string(c), Span: s.spanFrom(start)}
}
