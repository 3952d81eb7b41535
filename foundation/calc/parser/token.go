// File: token.go
// Title: Calc Token Definitions
// Description: Token types, tokens and token sets of the calc language.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial token definitions

package parser

import (
	"fmt"
	"strings"
)

// TokenType represents the type of a lexical token
type TokenType int

const (
	// Keywords and identifiers
	TokenRead    TokenType = iota // read
	TokenWrite                    // write
	TokenID                       // x, total_1
	TokenLiteral                  // 42
	TokenGets                     // :=
	TokenIf                       // if
	TokenWhile                    // while
	TokenEnd                      // end

	// Relational operators
	TokenEqual        // =
	TokenNotEqual     // <>
	TokenLess         // <
	TokenGreater      // >
	TokenLessEqual    // <=
	TokenGreaterEqual // >=

	// Arithmetic operators
	TokenAdd // +
	TokenSub // -
	TokenMul // *
	TokenDiv // /

	// Delimiters
	TokenLeftParen  // (
	TokenRightParen // )

	// End of input
	TokenEOF

	tokenTypeCount
)

var tokenNames = [tokenTypeCount]string{
	TokenRead:         "read",
	TokenWrite:        "write",
	TokenID:           "id",
	TokenLiteral:      "literal",
	TokenGets:         "gets",
	TokenIf:           "if",
	TokenWhile:        "while",
	TokenEnd:          "end",
	TokenEqual:        "equal",
	TokenNotEqual:     "nequal",
	TokenLess:         "smaller",
	TokenGreater:      "larger",
	TokenLessEqual:    "smaller_or_equal",
	TokenGreaterEqual: "larger_or_equal",
	TokenAdd:          "add",
	TokenSub:          "sub",
	TokenMul:          "mul",
	TokenDiv:          "div",
	TokenLeftParen:    "lparen",
	TokenRightParen:   "rparen",
	TokenEOF:          "eof",
}

// String returns the name used for the token type in diagnostics
func (tt TokenType) String() string {
	if tt < 0 || tt >= tokenTypeCount {
		return fmt.Sprintf("TokenType(%d)", int(tt))
	}
	return tokenNames[tt]
}

// Token represents a lexical token with position information. Value is the
// source text for identifiers and literals and the canonical spelling for
// everything else; it is empty for TokenEOF.
type Token struct {
	Type     TokenType `json:"type"`
	Value    string    `json:"value"`
	Position int       `json:"offset"` // Byte offset in input
	Line     int       `json:"line"`   // Line number (1-based)
	Column   int       `json:"column"` // Column number (1-based)
}

// String returns a string representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "eof"
	case TokenID, TokenLiteral:
		return fmt.Sprintf("%s(%s)", t.Type, t.Value)
	default:
		return t.Type.String()
	}
}

// MarshalText lets token types appear by name in JSON and YAML output
func (tt TokenType) MarshalText() ([]byte, error) {
	return []byte(tt.String()), nil
}

// UnmarshalText parses a token type name
func (tt *TokenType) UnmarshalText(text []byte) error {
	for i, name := range tokenNames {
		if name == string(text) {
			*tt = TokenType(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token type %q", text)
}

// TokenSource is the pull interface between the lexer and the parser. After
// TokenEOF it keeps returning TokenEOF. A non-nil error is fatal.
type TokenSource interface {
	NextToken() (Token, error)
}

// TokenSet is a set of token types
type TokenSet uint32

// NewTokenSet builds a set from the given types
func NewTokenSet(types ...TokenType) TokenSet {
	var s TokenSet
	for _, tt := range types {
		s |= 1 << uint(tt)
	}
	return s
}

// Has reports whether the set contains tt
func (s TokenSet) Has(tt TokenType) bool {
	return tt >= 0 && tt < tokenTypeCount && s&(1<<uint(tt)) != 0
}

// Union returns the union of both sets
func (s TokenSet) Union(other TokenSet) TokenSet {
	return s | other
}

// Types returns the members in declaration order
func (s TokenSet) Types() []TokenType {
	var out []TokenType
	for tt := TokenType(0); tt < tokenTypeCount; tt++ {
		if s.Has(tt) {
			out = append(out, tt)
		}
	}
	return out
}

// String returns "one of a, b, c", or the single member's name
func (s TokenSet) String() string {
	types := s.Types()
	if len(types) == 1 {
		return types[0].String()
	}
	names := make([]string, len(types))
	for i, tt := range types {
		names[i] = tt.String()
	}
	return "one of " + strings.Join(names, ", ")
}

// SliceSource replays a fixed token sequence, then TokenEOF forever
type SliceSource struct {
	tokens []Token
	next   int
}

// NewSliceSource creates a source over tokens. A trailing TokenEOF is optional.
func NewSliceSource(tokens []Token) *SliceSource {
	return &SliceSource{tokens: tokens}
}

// NextToken implements TokenSource
func (s *SliceSource) NextToken() (Token, error) {
	if s.next >= len(s.tokens) {
		return Token{Type: TokenEOF}, nil
	}
	tok := s.tokens[s.next]
	s.next++
	return tok, nil
}
