// File: engine.go
// Title: Calc High-Level Engine Interface
// Description: Provides a high-level interface that integrates the lexer,
//              the recovering parser and run recording. Every compile is a
//              Run with its own ID, timing and outcome.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial high-level engine implementation
// - 2026-10-15 v0.1.0: Check ctx before every token

package calc

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	mdwparser "github.com/msto63/calcparse/foundation/calc/parser"
	mdwerror "github.com/msto63/calcparse/foundation/core/error"
	mdwlog "github.com/msto63/calcparse/foundation/core/log"
)

// FailureMessage is printed instead of the tree when a run reported errors
const FailureMessage = "Compilation failed"

// Status is the outcome of a run
type Status string

const (
	StatusOK      Status = "ok"      // tree is valid
	StatusFailed  Status = "failed"  // syntax errors were reported
	StatusAborted Status = "aborted" // lexical or I/O error, no tree
)

// Recorder persists finished runs
type Recorder interface {
	Record(ctx context.Context, run *Run) error
}

// Options configures the engine
type Options struct {
	Logger         *mdwlog.Logger
	MaxTokenLength int

	// Output receives diagnostics as they occur. Ignored when Reporter is set.
	Output io.Writer
	// Trace adds the production and match trace to Output
	Trace bool

	Reporter mdwparser.Reporter
	Recorder Recorder
}

// Run is a single compile of one program
type Run struct {
	ID       uuid.UUID         `json:"id"`
	Source   string            `json:"source"`
	Result   *mdwparser.Result `json:"result,omitempty"`
	Status   Status            `json:"status"`
	Err      error             `json:"-"`
	Started  time.Time         `json:"started"`
	Finished time.Time         `json:"finished"`
	Duration time.Duration     `json:"duration"`
}

// Succeeded reports whether the run produced a valid tree
func (r *Run) Succeeded() bool {
	return r.Status == StatusOK
}

// Engine compiles calc programs
type Engine struct {
	logger   *mdwlog.Logger
	reporter mdwparser.Reporter
	recorder Recorder
	options  Options
}

// New creates a new engine
func New(opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = mdwlog.GetDefault()
	}
	if opts.MaxTokenLength == 0 {
		opts.MaxTokenLength = mdwparser.DefaultMaxTokenLength
	}
	if opts.MaxTokenLength < 0 {
		return nil, mdwerror.Newf("max token length must be positive, got %d", opts.MaxTokenLength).
			WithCode(mdwerror.CodeInvalidInput)
	}

	reporter := opts.Reporter
	if reporter == nil && opts.Output != nil {
		reporter = mdwparser.NewWriterReporter(opts.Output, opts.Trace)
	}

	logger := opts.Logger.WithField("component", "calc-engine")
	logger.Debug("Calc engine initialized", mdwlog.Fields{
		"maxTokenLength": opts.MaxTokenLength,
		"trace":          opts.Trace,
		"hasRecorder":    opts.Recorder != nil,
	})

	return &Engine{
		logger:   logger,
		reporter: reporter,
		recorder: opts.Recorder,
		options:  opts,
	}, nil
}

// Compile scans and parses one program read from r. Syntax errors are part
// of the returned run; the error is non-nil only when the run was aborted
// by a lexical or I/O error or by ctx. ctx is checked before every token, so
// a deadline stops a long parse midway.
func (e *Engine) Compile(ctx context.Context, r io.Reader) (*Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	run := &Run{ID: uuid.New(), Started: time.Now()}
	logger := e.logger.WithRequestID(run.ID.String())
	logger.Debug("Compiling program")

	var source bytes.Buffer
	lexer := mdwparser.NewLexer(io.TeeReader(r, &source), mdwparser.WithMaxTokenLength(e.options.MaxTokenLength))
	p := mdwparser.New(mdwparser.Options{Logger: logger, Reporter: e.reporter})

	result, err := p.Parse(&contextSource{ctx: ctx, src: lexer})
	run.Finished = time.Now()
	run.Duration = run.Finished.Sub(run.Started)
	run.Source = source.String()
	run.Result = result

	switch {
	case err != nil:
		run.Status = StatusAborted
		run.Err = classify(err)
	case result.Failed:
		run.Status = StatusFailed
	default:
		run.Status = StatusOK
	}

	logger.Info("Program compiled", mdwlog.Fields{
		"status":   string(run.Status),
		"duration": run.Duration.String(),
	})

	e.record(context.WithoutCancel(ctx), logger, run)
	return run, run.Err
}

// CompileString compiles an in-memory program
func (e *Engine) CompileString(ctx context.Context, source string) (*Run, error) {
	return e.Compile(ctx, strings.NewReader(source))
}

// Tokens scans a program without parsing it
func (e *Engine) Tokens(ctx context.Context, r io.Reader) ([]mdwparser.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := &contextSource{
		ctx: ctx,
		src: mdwparser.NewLexer(r, mdwparser.WithMaxTokenLength(e.options.MaxTokenLength)),
	}
	var tokens []mdwparser.Token
	for {
		tok, err := src.NextToken()
		if err != nil {
			return tokens, classify(err)
		}
		tokens = append(tokens, tok)
		if tok.Type == mdwparser.TokenEOF {
			return tokens, nil
		}
	}
}

// contextSource stops a token source once ctx is done
type contextSource struct {
	ctx context.Context
	src mdwparser.TokenSource
}

func (c *contextSource) NextToken() (mdwparser.Token, error) {
	if err := c.ctx.Err(); err != nil {
		return mdwparser.Token{}, err
	}
	return c.src.NextToken()
}

// selfTestProgram is compiled by SelfTest
const selfTestProgram = "read x write x * 2"

// SelfTest compiles a fixed program. Nothing is reported or recorded.
func (e *Engine) SelfTest(ctx context.Context) error {
	lexer := mdwparser.NewLexerString(selfTestProgram, mdwparser.WithMaxTokenLength(e.options.MaxTokenLength))
	p := mdwparser.New(mdwparser.Options{Logger: e.logger})

	result, err := p.Parse(&contextSource{ctx: ctx, src: lexer})
	if err != nil {
		return classify(err)
	}
	if result.Failed {
		return mdwerror.New("self-test program did not parse").WithCode(mdwerror.CodeCalcSyntax)
	}
	return nil
}

func (e *Engine) record(ctx context.Context, logger *mdwlog.Logger, run *Run) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, run); err != nil {
		logger.WarnWithErr("Failed to record run", err)
	}
}

// classify turns token source failures into coded errors. Context errors
// are returned as is.
func classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var lexErr *mdwparser.LexError
	if errors.As(err, &lexErr) {
		return mdwerror.Wrap(err, "scan failed").
			WithCode(mdwerror.CodeCalcLexical).
			WithDetail("line", lexErr.Line).
			WithDetail("column", lexErr.Column)
	}
	return mdwerror.Wrap(err, "failed to read program").WithCode(mdwerror.CodeIO)
}
