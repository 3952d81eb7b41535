// File: engine_test.go
// Title: Calc Engine Tests
// Description: Tests for run outcomes, error classification and recording.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial test suite

package calc

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	mdwerror "github.com/msto63/calcparse/foundation/core/error"
	mdwlog "github.com/msto63/calcparse/foundation/core/log"
)

type memoryRecorder struct {
	runs []*Run
	err  error
}

func (m *memoryRecorder) Record(_ context.Context, run *Run) error {
	m.runs = append(m.runs, run)
	return m.err
}

func newTestEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = mdwlog.Discard()
	}
	engine, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return engine
}

func TestEngine_CompileSuccess(t *testing.T) {
	rec := &memoryRecorder{}
	engine := newTestEngine(t, Options{Recorder: rec})

	run, err := engine.CompileString(context.Background(), "read a write a * 2")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !run.Succeeded() || run.Status != StatusOK {
		t.Errorf("Expected ok status, got %s", run.Status)
	}
	if got := mdwast.Format(run.Result.Root, mdwast.StyleCompact); got != "(program [(read (id 'a')) (write (* (id 'a') (literal '2')))])" {
		t.Errorf("Unexpected tree %s", got)
	}
	if run.Source != "read a write a * 2" {
		t.Errorf("Expected source to be captured, got %q", run.Source)
	}
	if run.Finished.Before(run.Started) {
		t.Errorf("Expected finish after start")
	}
	if len(rec.runs) != 1 || rec.runs[0] != run {
		t.Errorf("Expected run to be recorded once, got %d", len(rec.runs))
	}
}

func TestEngine_CompileFailure(t *testing.T) {
	var out bytes.Buffer
	engine := newTestEngine(t, Options{Output: &out})

	run, err := engine.CompileString(context.Background(), "x := + 2")
	if err != nil {
		t.Fatalf("Syntax errors must not be returned as errors, got %v", err)
	}
	if run.Status != StatusFailed || run.Succeeded() {
		t.Errorf("Expected failed status, got %s", run.Status)
	}
	expected := "Error: Expected one of id, literal, lparen, got add: +\nRetry expr on literal: 2\n"
	if out.String() != expected {
		t.Errorf("Expected diagnostics %q, got %q", expected, out.String())
	}
}

func TestEngine_CompileLexicalError(t *testing.T) {
	rec := &memoryRecorder{}
	engine := newTestEngine(t, Options{Recorder: rec})

	run, err := engine.CompileString(context.Background(), "write 1 ? 2")
	if err == nil {
		t.Fatalf("Expected lexical error")
	}
	if !mdwerror.HasCode(err, mdwerror.CodeCalcLexical) {
		t.Errorf("Expected code %s, got %s", mdwerror.CodeCalcLexical, mdwerror.CodeOf(err))
	}
	if run == nil || run.Status != StatusAborted || run.Result != nil {
		t.Errorf("Expected aborted run without result, got %+v", run)
	}
	if len(rec.runs) != 1 {
		t.Errorf("Expected aborted run to be recorded")
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestEngine_CompileReadError(t *testing.T) {
	engine := newTestEngine(t, Options{})
	_, err := engine.Compile(context.Background(), brokenReader{})
	if !mdwerror.HasCode(err, mdwerror.CodeIO) {
		t.Errorf("Expected code %s, got %v", mdwerror.CodeIO, err)
	}
}

func TestEngine_RecorderErrorIsNotFatal(t *testing.T) {
	engine := newTestEngine(t, Options{Recorder: &memoryRecorder{err: errors.New("db locked")}})
	if _, err := engine.CompileString(context.Background(), "write 1"); err != nil {
		t.Errorf("Expected recorder failure to be ignored, got %v", err)
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	engine := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := engine.CompileString(ctx, "write 1"); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

// cancelReader cancels its context on the first read
type cancelReader struct {
	r      *strings.Reader
	cancel context.CancelFunc
}

func (c *cancelReader) Read(b []byte) (int, error) {
	c.cancel()
	return c.r.Read(b)
}

func TestEngine_CancelDuringParse(t *testing.T) {
	rec := &memoryRecorder{}
	engine := newTestEngine(t, Options{Recorder: rec})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancelReader{r: strings.NewReader(strings.Repeat("write 1 ", 1000)), cancel: cancel}
	run, err := engine.Compile(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if run.Status != StatusAborted {
		t.Errorf("Expected aborted status, got %s", run.Status)
	}
	if len(rec.runs) != 1 {
		t.Errorf("Expected the aborted run to be recorded, got %d runs", len(rec.runs))
	}
}

func TestEngine_TokensCancelled(t *testing.T) {
	engine := newTestEngine(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &cancelReader{r: strings.NewReader("read x write x"), cancel: cancel}
	tokens, err := engine.Tokens(ctx, src)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(tokens) > 1 {
		t.Errorf("Expected scanning to stop early, got %d tokens", len(tokens))
	}
}

func TestEngine_SelfTest(t *testing.T) {
	rec := &memoryRecorder{}
	var out bytes.Buffer
	engine := newTestEngine(t, Options{Recorder: rec, Output: &out, Trace: true})

	if err := engine.SelfTest(context.Background()); err != nil {
		t.Fatalf("SelfTest() error = %v", err)
	}
	if len(rec.runs) != 0 {
		t.Errorf("Expected no recorded runs, got %d", len(rec.runs))
	}
	if out.Len() != 0 {
		t.Errorf("Expected no output, got %q", out.String())
	}
}

func TestEngine_MaxTokenLength(t *testing.T) {
	engine := newTestEngine(t, Options{MaxTokenLength: 3})
	if _, err := engine.CompileString(context.Background(), "write abc"); !mdwerror.HasCode(err, mdwerror.CodeCalcLexical) {
		t.Errorf("Expected lexical error for long identifier, got %v", err)
	}
	if _, err := New(Options{MaxTokenLength: -1, Logger: mdwlog.Discard()}); err == nil {
		t.Errorf("Expected error for negative max token length")
	}
}

func TestEngine_Tokens(t *testing.T) {
	engine := newTestEngine(t, Options{})
	tokens, err := engine.Tokens(context.Background(), strings.NewReader("x := 1"))
	if err != nil {
		t.Fatalf("Tokens() error = %v", err)
	}
	if len(tokens) != 4 {
		t.Errorf("Expected 4 tokens, got %d", len(tokens))
	}
}

func TestEngine_Trace(t *testing.T) {
	var out bytes.Buffer
	engine := newTestEngine(t, Options{Output: &out, Trace: true})
	if _, err := engine.CompileString(context.Background(), "write 1"); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if !strings.Contains(out.String(), "predict stmt --> write expr\nmatched write\n") {
		t.Errorf("Expected production trace, got:\n%s", out.String())
	}
}
