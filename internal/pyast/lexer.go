package pyast

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ParseError reports a position the parser or lexer could not get past.
type ParseError struct {
	Filename string
	Line     int
	Col      int
	Msg      string
}

func (e *ParseError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filename, e.Line, e.Col, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNewline
	tokIndent
	tokDedent
	tokName
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind   tokenKind
	val    string
	prefix string // string literals only
	pos    Pos
}

// tabSize matches CPython's tokenizer tab stop.
const tabSize = 8

// Multi-character operators, longest first so greedy matching works.
var multiOps = []string{
	"**=", "//=", ">>=", "<<=", "...", "!=", ">=", "<=", "==",
	"->", ":=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "@=",
	"**", "//", ">>", "<<",
}

const singleOps = "+-*/%@&|^~<>()[]{},:.;="

type lexer struct {
	src      string
	filename string
	off      int
	line     int
	col      int
	indents  []int
	depth    int // bracket nesting depth
	openPos  Pos // position of the outermost unclosed bracket
	toks     []token
}

func lex(src, filename string) ([]token, error) {
	lx := &lexer{src: src, filename: filename, line: 1, col: 1, indents: []int{0}}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) errf(p Pos, format string, args ...any) error {
	return &ParseError{Filename: lx.filename, Line: p.Line, Col: p.Col, Msg: fmt.Sprintf(format, args...)}
}

func (lx *lexer) emit(kind tokenKind, val string, p Pos) {
	lx.toks = append(lx.toks, token{kind: kind, val: val, pos: p})
}

func (lx *lexer) eof() bool { return lx.off >= len(lx.src) }

func (lx *lexer) peek() byte {
	if lx.eof() {
		return 0
	}
	return lx.src[lx.off]
}

func (lx *lexer) peekAt(n int) byte {
	if lx.off+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.off+n]
}

func (lx *lexer) advance() byte {
	c := lx.src[lx.off]
	lx.off++
	if c == '\n' {
		lx.line++
		lx.col = 1
	} else if utf8.RuneStart(c) {
		// Columns count runes; continuation bytes don't advance.
		lx.col++
	}
	return c
}

func (lx *lexer) here() Pos { return Pos{Line: lx.line, Col: lx.col} }

func (lx *lexer) run() error {
	for {
		if err := lx.lexLineStart(); err != nil {
			return err
		}
		if lx.eof() {
			break
		}
		if err := lx.lexLogicalLine(); err != nil {
			return err
		}
	}
	if lx.depth > 0 {
		return lx.errf(lx.openPos, "unexpected EOF: unclosed bracket")
	}
	for len(lx.indents) > 1 {
		lx.indents = lx.indents[:len(lx.indents)-1]
		lx.emit(tokDedent, "", lx.here())
	}
	lx.emit(tokEOF, "", lx.here())
	return nil
}

// lexLineStart consumes blank and comment-only lines, then measures the
// indentation of the next code line and emits INDENT/DEDENT tokens.
func (lx *lexer) lexLineStart() error {
	for {
		width := 0
		for !lx.eof() {
			switch lx.peek() {
			case ' ':
				width++
				lx.advance()
			case '\t':
				width = width/tabSize*tabSize + tabSize
				lx.advance()
			default:
				goto measured
			}
		}
	measured:
		if lx.eof() {
			return nil
		}
		c := lx.peek()
		if c == '\n' || c == '\r' {
			lx.advance()
			continue // blank line
		}
		if c == '#' {
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
			continue
		}
		top := lx.indents[len(lx.indents)-1]
		switch {
		case width > top:
			lx.indents = append(lx.indents, width)
			lx.emit(tokIndent, "", lx.here())
		case width < top:
			for len(lx.indents) > 1 && lx.indents[len(lx.indents)-1] > width {
				lx.indents = lx.indents[:len(lx.indents)-1]
				lx.emit(tokDedent, "", lx.here())
			}
			if lx.indents[len(lx.indents)-1] != width {
				return lx.errf(lx.here(), "unindent does not match any outer indentation level")
			}
		}
		return nil
	}
}

// lexLogicalLine tokenizes until a NEWLINE outside brackets.
func (lx *lexer) lexLogicalLine() error {
	for !lx.eof() {
		c := lx.peek()
		switch {
		case c == ' ' || c == '\t':
			lx.advance()
		case c == '\r':
			lx.advance()
		case c == '\n':
			p := lx.here()
			lx.advance()
			if lx.depth == 0 {
				lx.emit(tokNewline, "", p)
				return nil
			}
			// Implicit continuation inside brackets: swallow the
			// newline and any leading whitespace/comments.
		case c == '\\' && (lx.peekAt(1) == '\n' || lx.peekAt(1) == '\r'):
			lx.advance()
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
			if !lx.eof() {
				lx.advance()
			}
		case c == '#':
			for !lx.eof() && lx.peek() != '\n' {
				lx.advance()
			}
		case c == '\'' || c == '"':
			if err := lx.lexString(""); err != nil {
				return err
			}
		case c >= '0' && c <= '9':
			lx.lexNumber()
		case isNameStart(rune(c)) || c >= utf8.RuneSelf:
			if err := lx.lexNameOrPrefixedString(); err != nil {
				return err
			}
		default:
			if err := lx.lexOp(); err != nil {
				return err
			}
		}
	}
	lx.emit(tokNewline, "", lx.here())
	return nil
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameCont(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (lx *lexer) lexNameOrPrefixedString() error {
	start := lx.here()
	begin := lx.off
	for !lx.eof() {
		r, size := utf8.DecodeRuneInString(lx.src[lx.off:])
		if !isNameCont(r) {
			break
		}
		lx.off += size
		lx.col++
	}
	name := lx.src[begin:lx.off]
	if len(name) <= 2 && !lx.eof() && (lx.peek() == '\'' || lx.peek() == '"') && isStringPrefix(name) {
		return lx.lexStringAt(start, strings.ToLower(name))
	}
	lx.emit(tokName, name, start)
	return nil
}

func isStringPrefix(s string) bool {
	for _, r := range strings.ToLower(s) {
		switch r {
		case 'r', 'b', 'f', 'u':
		default:
			return false
		}
	}
	return len(s) > 0
}

func (lx *lexer) lexString(prefix string) error {
	return lx.lexStringAt(lx.here(), prefix)
}

func (lx *lexer) lexStringAt(start Pos, prefix string) error {
	quote := lx.advance()
	raw := strings.Contains(prefix, "r")
	triple := lx.peek() == quote && lx.peekAt(1) == quote
	if triple {
		lx.advance()
		lx.advance()
	}
	begin := lx.off
	for {
		if lx.eof() {
			return lx.errf(start, "unterminated string literal")
		}
		c := lx.peek()
		if !triple && (c == '\n' || c == '\r') {
			return lx.errf(start, "EOL while scanning string literal")
		}
		if c == '\\' && !raw {
			lx.advance()
			if !lx.eof() {
				lx.advance()
			}
			continue
		}
		if c == quote {
			if !triple {
				val := lx.src[begin:lx.off]
				lx.advance()
				lx.toks = append(lx.toks, token{kind: tokString, val: val, prefix: prefix, pos: start})
				return nil
			}
			if lx.peekAt(1) == quote && lx.peekAt(2) == quote {
				val := lx.src[begin:lx.off]
				lx.advance()
				lx.advance()
				lx.advance()
				lx.toks = append(lx.toks, token{kind: tokString, val: val, prefix: prefix, pos: start})
				return nil
			}
		}
		lx.advance()
	}
}

func (lx *lexer) lexNumber() {
	start := lx.here()
	begin := lx.off
	for !lx.eof() {
		c := lx.peek()
		switch {
		case c >= '0' && c <= '9', c == '.', c == '_',
			c >= 'a' && c <= 'f', c >= 'A' && c <= 'F',
			c == 'o' || c == 'O' || c == 'x' || c == 'X' || c == 'j' || c == 'J':
			lx.advance()
		case (c == '+' || c == '-') && (lx.src[lx.off-1] == 'e' || lx.src[lx.off-1] == 'E'):
			lx.advance()
		default:
			lx.emit(tokNumber, lx.src[begin:lx.off], start)
			return
		}
	}
	lx.emit(tokNumber, lx.src[begin:lx.off], start)
}

func (lx *lexer) lexOp() error {
	start := lx.here()
	rest := lx.src[lx.off:]
	for _, op := range multiOps {
		if strings.HasPrefix(rest, op) {
			for i := 0; i < len(op); i++ {
				lx.advance()
			}
			lx.emit(tokOp, op, start)
			return nil
		}
	}
	c := lx.peek()
	if strings.IndexByte(singleOps, c) < 0 {
		// Unknown character (e.g. stray punctuation in badly encoded
		// source). Tolerate it as an opaque operator token.
		lx.advance()
		lx.emit(tokOp, string(c), start)
		return nil
	}
	switch c {
	case '(', '[', '{':
		if lx.depth == 0 {
			lx.openPos = start
		}
		lx.depth++
	case ')', ']', '}':
		if lx.depth == 0 {
			return lx.errf(start, "unmatched %q", string(c))
		}
		lx.depth--
	}
	lx.advance()
	lx.emit(tokOp, string(c), start)
	return nil
}
