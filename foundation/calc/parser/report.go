// File: report.go
// Title: Calc Parse Diagnostics
// Description: Diagnostics emitted during parsing and the reporter
//              interface that streams them, plus the optional production
//              and match trace.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial diagnostics and reporters

package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// DiagnosticKind classifies a diagnostic
type DiagnosticKind int

const (
	DiagnosticError DiagnosticKind = iota // a syntax error was caught
	DiagnosticRetry                       // recovery restarts the rule
	DiagnosticSkip                        // recovery abandons the rule
)

// String returns the kind name
func (k DiagnosticKind) String() string {
	switch k {
	case DiagnosticError:
		return "error"
	case DiagnosticRetry:
		return "retry"
	case DiagnosticSkip:
		return "skip"
	default:
		return fmt.Sprintf("DiagnosticKind(%d)", int(k))
	}
}

// Diagnostic is one recovery event
type Diagnostic struct {
	Kind  DiagnosticKind
	Rule  Nonterminal
	Token Token        // lookahead when the event happened
	Err   *SyntaxError // set for DiagnosticError
}

// String returns the one-line text printed for the diagnostic
func (d Diagnostic) String() string {
	switch d.Kind {
	case DiagnosticError:
		if d.Err == nil {
			return "Error: syntax error in " + d.Rule.String()
		}
		return "Error: " + d.Err.Error()
	case DiagnosticRetry:
		return fmt.Sprintf("Retry %s on %s: %s", d.Rule, d.Token.Type, d.Token.Value)
	case DiagnosticSkip:
		return "Skip " + d.Rule.String()
	default:
		return d.Kind.String()
	}
}

// MarshalJSON encodes the diagnostic with its rendered message
func (d Diagnostic) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind    string `json:"kind"`
		Rule    string `json:"rule"`
		Message string `json:"message"`
		Line    int    `json:"line"`
		Column  int    `json:"column"`
	}{d.Kind.String(), d.Rule.String(), d.String(), d.Token.Line, d.Token.Column})
}

// Reporter receives parse events as they happen
type Reporter interface {
	Diagnostic(d Diagnostic)
	Predict(p *Production)
	Match(tok Token)
}

// WriterReporter prints diagnostics, one per line. With Trace set it also
// prints every prediction and every matched token.
type WriterReporter struct {
	mu    sync.Mutex
	w     io.Writer
	Trace bool
}

// NewWriterReporter creates a reporter writing to w
func NewWriterReporter(w io.Writer, trace bool) *WriterReporter {
	return &WriterReporter{w: w, Trace: trace}
}

// Diagnostic implements Reporter
func (r *WriterReporter) Diagnostic(d Diagnostic) {
	r.println(d.String())
}

// Predict implements Reporter
func (r *WriterReporter) Predict(p *Production) {
	if r.Trace {
		r.println("predict " + p.String())
	}
}

// Match implements Reporter
func (r *WriterReporter) Match(tok Token) {
	if r.Trace {
		r.println(MatchTrace(tok))
	}
}

func (r *WriterReporter) println(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintln(r.w, line)
}

// MatchTrace renders the trace line of a matched token
func MatchTrace(tok Token) string {
	if tok.Value == "" || (tok.Type != TokenID && tok.Type != TokenLiteral) {
		return "matched " + tok.Type.String()
	}
	return "matched " + tok.Type.String() + ": " + tok.Value
}

// nopReporter discards all events
type nopReporter struct{}

func (nopReporter) Diagnostic(Diagnostic) {}
func (nopReporter) Predict(*Production)  {}
func (nopReporter) Match(Token)          {}
