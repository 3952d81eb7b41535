// ============================================================================
// calcparse - Calc Language Front End
// ============================================================================
//
// Package:     logging
// Description: Severity levels of the key/value logging API
// Author:      msto63
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package logging

// Level represents log severity
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}
