package offline

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tEOF tokenType = iota
	tIdent
	tNumber
	tString
	tSymbol
	tParam
)

type token struct {
	typ    tokenType
	val    string
	pos    int
	quoted bool
}

type lexer struct {
	s   string
	pos int
}

func (lx *lexer) peek() rune {
	if lx.pos >= len(lx.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.s[lx.pos:])
	return r
}

func (lx *lexer) peekAt(n int) rune {
	p := lx.pos
	for i := 0; i < n; i++ {
		if p >= len(lx.s) {
			return 0
		}
		_, sz := utf8.DecodeRuneInString(lx.s[p:])
		p += sz
	}
	if p >= len(lx.s) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(lx.s[p:])
	return r
}

func (lx *lexer) next() rune {
	if lx.pos >= len(lx.s) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(lx.s[lx.pos:])
	lx.pos += size
	return r
}

func (lx *lexer) skipSpaceAndComments() {
	for {
		r := lx.peek()
		switch {
		case r == 0:
			return
		case unicode.IsSpace(r):
			lx.next()
		case r == '-' && lx.peekAt(1) == '-':
			for r := lx.next(); r != 0 && r != '\n'; r = lx.next() {
			}
		default:
			return
		}
	}
}

// tokenize splits a statement into tokens.
func tokenize(s string) ([]token, error) {
	lx := &lexer{s: s}
	var out []token
	for {
		tok, err := lx.nextToken()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.typ == tEOF {
			return out, nil
		}
	}
}

func (lx *lexer) nextToken() (token, error) {
	lx.skipSpaceAndComments()
	start := lx.pos
	r := lx.peek()

	switch {
	case r == 0:
		return token{typ: tEOF, pos: start}, nil

	case r == '\'' || r == '"':
		quote := lx.next()
		var sb strings.Builder
		for {
			ch := lx.next()
			if ch == 0 {
				return token{}, fmt.Errorf("unterminated quoted text at offset %d", start)
			}
			if ch == quote {
				if lx.peek() == quote {
					lx.next()
					sb.WriteRune(quote)
					continue
				}
				break
			}
			sb.WriteRune(ch)
		}
		if quote == '"' {
			return token{typ: tIdent, val: sb.String(), pos: start, quoted: true}, nil
		}
		return token{typ: tString, val: sb.String(), pos: start}, nil

	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekAt(1))):
		var sb strings.Builder
		dot, exp := false, false
		for {
			ch := lx.peek()
			switch {
			case unicode.IsDigit(ch):
			case ch == '.' && !dot && !exp:
				dot = true
			case (ch == 'e' || ch == 'E') && !exp:
				exp = true
				sb.WriteRune(lx.next())
				if s := lx.peek(); s == '+' || s == '-' {
					sb.WriteRune(lx.next())
				}
				continue
			default:
				return token{typ: tNumber, val: sb.String(), pos: start}, nil
			}
			sb.WriteRune(lx.next())
		}

	case unicode.IsLetter(r) || r == '_':
		var sb strings.Builder
		for ch := lx.peek(); unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'; ch = lx.peek() {
			sb.WriteRune(lx.next())
		}
		return token{typ: tIdent, val: sb.String(), pos: start}, nil

	case r == '?':
		lx.next()
		return token{typ: tParam, val: "?", pos: start}, nil
	}

	switch r {
	case '(', ')', ',', '*', ';', '-', '+':
		lx.next()
		return token{typ: tSymbol, val: string(r), pos: start}, nil
	case '=', '<', '>', '!':
		a := lx.next()
		b := lx.peek()
		if (a == '<' && (b == '=' || b == '>')) || (a == '>' && b == '=') || (a == '!' && b == '=') {
			lx.next()
			return token{typ: tSymbol, val: string(a) + string(b), pos: start}, nil
		}
		if a == '!' {
			return token{}, fmt.Errorf("unexpected '!' at offset %d", start)
		}
		if a == '=' && b == '=' {
			lx.next()
		}
		return token{typ: tSymbol, val: string(a), pos: start}, nil
	}
	return token{}, fmt.Errorf("unexpected character %q at offset %d", r, start)
}
