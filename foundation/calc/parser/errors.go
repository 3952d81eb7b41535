// File: errors.go
// Title: Calc Syntax Errors
// Description: Recoverable syntax error raised by match and by failed
//              predictions.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial syntax error type

package parser

import (
	"errors"
	"fmt"
)

// SyntaxError reports a token that does not fit the grammar. Expected is a
// token type name, or "one of a, b, c" when a prediction failed.
type SyntaxError struct {
	Expected string    `json:"expected"`
	Actual   TokenType `json:"actual"`
	Value    string    `json:"value"`
	Line     int       `json:"line"`
	Column   int       `json:"column"`
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Expected %s, got %s: %s", e.Expected, e.Actual, e.Value)
}

func newSyntaxError(expected string, tok Token) *SyntaxError {
	return &SyntaxError{
		Expected: expected,
		Actual:   tok.Type,
		Value:    tok.Value,
		Line:     tok.Line,
		Column:   tok.Column,
	}
}

// IsSyntaxError reports whether err is, or wraps, a *SyntaxError
func IsSyntaxError(err error) bool {
	var syntaxErr *SyntaxError
	return errors.As(err, &syntaxErr)
}

// IsLexError reports whether err is, or wraps, a *LexError
func IsLexError(err error) bool {
	var lexErr *LexError
	return errors.As(err, &lexErr)
}
