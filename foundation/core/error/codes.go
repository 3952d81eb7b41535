// File: codes.go
// Title: Error Code Definitions
// Description: Defines error codes for classifying failures of the calc toolchain.
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-15
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-15 v0.2.0: Calc codes replace the TCOL codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"

	// Language front end
	CodeCalcSyntax  Code = "CALC_SYNTAX"
	CodeCalcLexical Code = "CALC_LEXICAL"

	// Infrastructure
	CodeIO            Code = "IO_ERROR"
	CodeDatabaseError Code = "DATABASE_ERROR"
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeNetworkError  Code = "NETWORK_ERROR"
)

// String returns the code as string
func (c Code) String() string {
	return string(c)
}

// IsUserError reports whether the code describes bad input rather than a
// malfunction of the toolchain
func (c Code) IsUserError() bool {
	switch c {
	case CodeInvalidInput, CodeNotFound, CodeCalcSyntax, CodeCalcLexical:
		return true
	default:
		return false
	}
}
