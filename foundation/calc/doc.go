// File: doc.go
// Title: Calc Engine Package Documentation
// Description: High-level entry point that ties lexer, parser, logging and
//              run recording together.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial engine package

/*
Package calc is the high-level interface to the calc front end.

An Engine compiles programs from any io.Reader: it scans and parses the
input, streams diagnostics to a reporter, assigns every run an ID and hands
finished runs to an optional Recorder (see internal/store).

	engine, err := calc.New(calc.Options{Output: os.Stdout})
	if err != nil {
		return err
	}
	run, err := engine.CompileString(ctx, "read x write x")
	if err != nil {
		return err // lexical or I/O failure
	}
	if run.Result.Failed {
		fmt.Println(calc.FailureMessage)
	}

Syntax errors never surface as Go errors: they are recovered from inside the
parser and show up as run.Result.Diagnostics with run.Result.Failed set.
*/
package calc
