// Copyright 2026 The WEFT Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

// Package lex implements the WEFT lexer (spec.md §4.1): a single pass
// over source text producing a vector of tokens, each carrying a kind,
// literal text, and source location. Whitespace and line comments are
// discarded.
package lex

import (
	"strings"

	"github.com/weft-lang/weft/internal/errs"
	"github.com/weft-lang/weft/internal/location"
	"github.com/weft-lang/weft/token"
)

// Lexer scans one source string into tokens.
type Lexer struct {
	src  []byte
	file string
	pos  int
	row  int
	col  int
}

// New returns a Lexer over src. file is used only for location reporting.
func New(src, file string) *Lexer {
	return &Lexer{src: []byte(src), file: file, row: 1, col: 1}
}

// Tokenize scans the full input and returns its tokens (always ending in
// an EOF token) or the first lexError encountered.
func Tokenize(src, file string) ([]token.Token, *errs.Error) {
	l := New(src, file)
	var toks []token.Token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

func (l *Lexer) loc() *location.Location {
	return location.New(nil, l.file, l.row, l.col)
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekAt(n int) byte {
	if l.pos+n >= len(l.src) {
		return 0
	}
	return l.src[l.pos+n]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.row++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isAlphaNum(c byte) bool { return isAlpha(c) || isDigit(c) }

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.src) {
		c := l.peek()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '/' && l.peekAt(1) == '/':
			for l.pos < len(l.src) && l.peek() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// next scans and returns the next token.
func (l *Lexer) next() (token.Token, *errs.Error) {
	l.skipWhitespaceAndComments()

	start := l.loc()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Loc: start}, nil
	}

	c := l.peek()

	switch {
	case isDigit(c):
		return l.scanNumber(start)
	case isAlpha(c):
		return l.scanIdent(start)
	case c == '"':
		return l.scanString(start)
	}

	// Two-dot-is-not-a-decimal: handled by scanNumber not consuming a
	// second dot; here a bare ".." is only reached when it doesn't follow
	// a digit run.
	two := l.twoCharOp()
	if two != token.ILLEGAL {
		text := string(l.src[l.pos : l.pos+2])
		l.advance()
		l.advance()
		return token.Token{Kind: two, Text: text, Loc: start}, nil
	}

	one, ok := singleCharOps[c]
	if !ok {
		l.advance()
		return token.Token{}, errs.New(errs.LexErr, start, "unexpected character %q", rune(c))
	}
	l.advance()
	return token.Token{Kind: one, Text: string(c), Loc: start}, nil
}

var singleCharOps = map[byte]token.Kind{
	'+': token.PLUS, '-': token.MINUS, '*': token.STAR, '/': token.SLASH,
	'%': token.PERCENT, '^': token.CARET, '<': token.LT, '>': token.GT,
	'!': token.NOT, '~': token.TILDE, '.': token.DOT, ',': token.COMMA,
	'(': token.LPAREN, ')': token.RPAREN, '[': token.LBRACKET, ']': token.RBRACKET,
	'{': token.LBRACE, '}': token.RBRACE, '=': token.ASSIGN,
}

// twoCharOp recognizes two-character operators at the current position
// without consuming input. It returns token.ILLEGAL if none match.
func (l *Lexer) twoCharOp() token.Kind {
	c0, c1 := l.peek(), l.peekAt(1)
	switch {
	case c0 == '=' && c1 == '=':
		return token.EQ
	case c0 == '!' && c1 == '=':
		return token.NEQ
	case c0 == '<' && c1 == '=':
		return token.LE
	case c0 == '>' && c1 == '=':
		return token.GE
	case c0 == '&' && c1 == '&':
		return token.AND
	case c0 == '|' && c1 == '|':
		return token.OR
	case c0 == '-' && c1 == '>':
		return token.ARROW
	case c0 == '.' && c1 == '.':
		return token.DOTDOT
	}
	return token.ILLEGAL
}

// scanNumber scans an integer or float literal. A dot immediately
// followed by another dot is never consumed as a decimal point — it is
// left for the caller to re-scan as token.DOTDOT (spec.md §4.1).
func (l *Lexer) scanNumber(start *location.Location) (token.Token, *errs.Error) {
	var sb strings.Builder
	for isDigit(l.peek()) {
		sb.WriteByte(l.advance())
	}
	if l.peek() == '.' && l.peekAt(1) != '.' && isDigit(l.peekAt(1)) {
		sb.WriteByte(l.advance()) // '.'
		for isDigit(l.peek()) {
			sb.WriteByte(l.advance())
		}
	}
	return token.Token{Kind: token.NUMBER, Text: sb.String(), Loc: start}, nil
}

func (l *Lexer) scanIdent(start *location.Location) (token.Token, *errs.Error) {
	var sb strings.Builder
	for isAlphaNum(l.peek()) {
		sb.WriteByte(l.advance())
	}
	text := sb.String()
	if kw, ok := token.Keywords[text]; ok {
		return token.Token{Kind: kw, Text: text, Loc: start}, nil
	}
	return token.Token{Kind: token.IDENT, Text: text, Loc: start}, nil
}

func (l *Lexer) scanString(start *location.Location) (token.Token, *errs.Error) {
	l.advance() // opening quote
	var sb strings.Builder
	for {
		if l.pos >= len(l.src) {
			return token.Token{}, errs.New(errs.LexErr, start, "unterminated string literal")
		}
		c := l.peek()
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			l.advance()
			if l.pos >= len(l.src) {
				return token.Token{}, errs.New(errs.LexErr, start, "unterminated escape sequence")
			}
			esc := l.advance()
			switch esc {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			default:
				sb.WriteByte(esc)
			}
			continue
		}
		sb.WriteByte(l.advance())
	}
	return token.Token{Kind: token.STRING, Text: sb.String(), Loc: start}, nil
}
