// File: lexer.go
// Title: Calc Lexical Analyzer (Tokenizer)
// Description: Pull-based scanner that turns a calc character stream into
//              tokens with line and column information. Lexical errors are
//              fatal and sticky.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial lexer implementation

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// DefaultMaxTokenLength is the identifier length at which scanning fails
const DefaultMaxTokenLength = 128

// LexError is a fatal lexical error. Once returned, the lexer keeps
// returning it.
type LexError struct {
	Message string
	Line    int
	Column  int
}

// Error implements the error interface
func (e *LexError) Error() string {
	return fmt.Sprintf("lexical error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// LexerOption configures a Lexer
type LexerOption func(*Lexer)

// WithMaxTokenLength sets the identifier length limit. Values below 1 keep
// the default.
func WithMaxTokenLength(n int) LexerOption {
	return func(l *Lexer) {
		if n > 0 {
			l.maxTokenLength = n
		}
	}
}

// Lexer performs lexical analysis of calc source text
type Lexer struct {
	reader *bufio.Reader
	ch     byte // current char under examination
	eof    bool // no current char
	primed bool

	position int // byte offset of ch
	line     int
	column   int

	maxTokenLength int
	err            error
}

var keywords = map[string]TokenType{
	"read":  TokenRead,
	"write": TokenWrite,
	"if":    TokenIf,
	"while": TokenWhile,
	"end":   TokenEnd,
}

// NewLexer creates a lexer reading from r. Nothing is read before the
// first call to NextToken.
func NewLexer(r io.Reader, opts ...LexerOption) *Lexer {
	l := &Lexer{
		reader:         bufio.NewReader(r),
		position:       -1,
		line:           1,
		maxTokenLength: DefaultMaxTokenLength,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLexerString creates a lexer over an in-memory program
func NewLexerString(input string, opts ...LexerOption) *Lexer {
	return NewLexer(strings.NewReader(input), opts...)
}

// NextToken returns the next token. After the end of input it keeps
// returning TokenEOF.
func (l *Lexer) NextToken() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	if !l.primed {
		l.primed = true
		l.readChar()
	}

	l.skipWhitespace()
	if l.err != nil {
		return Token{}, l.err
	}

	pos, line, column := l.position, l.line, l.column
	tok := func(tt TokenType, value string) (Token, error) {
		return Token{Type: tt, Value: value, Position: pos, Line: line, Column: column}, nil
	}

	if l.eof {
		return Token{Type: TokenEOF, Position: l.position + 1, Line: l.line, Column: l.column + 1}, nil
	}

	switch {
	case isLetter(l.ch):
		ident, err := l.readIdentifier()
		if err != nil {
			return Token{}, err
		}
		if tt, ok := keywords[ident]; ok {
			return tok(tt, ident)
		}
		return tok(TokenID, ident)
	case isDigit(l.ch):
		return tok(TokenLiteral, l.readNumber())
	}

	ch := l.ch
	l.readChar()
	switch ch {
	case ':':
		if l.eof || l.ch != '=' {
			return Token{}, l.fail("expected '=' after ':'", line, column)
		}
		l.readChar()
		return tok(TokenGets, ":=")
	case '(':
		return tok(TokenLeftParen, "(")
	case ')':
		return tok(TokenRightParen, ")")
	case '+':
		return tok(TokenAdd, "+")
	case '-':
		return tok(TokenSub, "-")
	case '*':
		return tok(TokenMul, "*")
	case '/':
		return tok(TokenDiv, "/")
	case '=':
		return tok(TokenEqual, "=")
	case '<':
		if !l.eof && l.ch == '>' {
			l.readChar()
			return tok(TokenNotEqual, "<>")
		}
		if !l.eof && l.ch == '=' {
			l.readChar()
			return tok(TokenLessEqual, "<=")
		}
		return tok(TokenLess, "<")
	case '>':
		if !l.eof && l.ch == '=' {
			l.readChar()
			return tok(TokenGreaterEqual, ">=")
		}
		return tok(TokenGreater, ">")
	}

	return Token{}, l.fail(fmt.Sprintf("unexpected character %q", ch), line, column)
}

// Tokenize returns all tokens up to and including TokenEOF
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token
	for {
		tok, err := l.NextToken()
		if err != nil {
			return tokens, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			return tokens, nil
		}
	}
}

// Tokenize scans a whole program from r
func Tokenize(r io.Reader, opts ...LexerOption) ([]Token, error) {
	return NewLexer(r, opts...).Tokenize()
}

// readChar advances to the next input byte and updates position tracking
func (l *Lexer) readChar() {
	if l.eof {
		return
	}
	if l.position >= 0 && l.ch == '\n' {
		l.line++
		l.column = 0
	}

	b, err := l.reader.ReadByte()
	if err != nil {
		l.eof = true
		l.ch = 0
		if !errors.Is(err, io.EOF) {
			l.err = fmt.Errorf("read input: %w", err)
		}
		return
	}

	l.ch = b
	l.position++
	l.column++
}

func (l *Lexer) readIdentifier() (string, error) {
	line, column := l.line, l.column
	var sb strings.Builder
	for !l.eof && (isLetter(l.ch) || isDigit(l.ch) || l.ch == '_') {
		sb.WriteByte(l.ch)
		if sb.Len() >= l.maxTokenLength {
			return "", l.fail(fmt.Sprintf("max token length exceeded (%d)", l.maxTokenLength), line, column)
		}
		l.readChar()
	}
	if l.err != nil {
		return "", l.err
	}
	return sb.String(), nil
}

func (l *Lexer) readNumber() string {
	var sb strings.Builder
	for !l.eof && isDigit(l.ch) {
		sb.WriteByte(l.ch)
		l.readChar()
	}
	return sb.String()
}

func (l *Lexer) skipWhitespace() {
	for !l.eof && isSpace(l.ch) {
		l.readChar()
	}
}

func (l *Lexer) fail(msg string, line, column int) error {
	l.err = &LexError{Message: msg, Line: line, Column: column}
	return l.err
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isSpace(ch byte) bool {
	switch ch {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
