// ============================================================================
// calcparse - Calc Language Front End
// ============================================================================
//
// Package:     viewer
// Description: Message types for async operations in the run viewer
// Author:      msto63
// Created:     2026-10-15
// License:     MIT
// ============================================================================

package viewer

import (
	"time"

	"github.com/msto63/calcparse/internal/store"
)

// Message types for tea.Cmd async operations

// runsLoadedMsg is sent when runs are loaded
type runsLoadedMsg struct {
	entries []*store.RunEntry
	err     error
}

// tickMsg is used for periodic reloads
type tickMsg time.Time
