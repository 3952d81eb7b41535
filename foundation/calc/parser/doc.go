// File: doc.go
// Title: Calc Parser Package Documentation
// Description: Lexical analyzer and recursive-descent parser with panic-mode
//              error recovery for the calc language.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial parser implementation

/*
Package parser turns calc programs into syntax trees.

It contains:

  • Lexer, a pull-based tokenizer over an io.Reader
  • the grammar's FIRST/FOLLOW sets and productions, declared once as data
  • Parser, one procedure per nonterminal, predicting on one token of
    lookahead and building ast.Node values
  • panic-mode recovery in program, stmt_list, stmt, cond and expr

A syntax error never stops the parse. The nearest recovering procedure
reports it, discards tokens until one in its FIRST or FOLLOW set shows up,
then retries itself or gives up on its subtree. The run is marked failed
from the first error on. Lexical errors are fatal and returned as *LexError.

	p, _ := parser.New(parser.Options{})
	res, err := p.Parse(parser.NewLexer(strings.NewReader("read x write x")))
	if err == nil && !res.Failed {
		fmt.Print(ast.Format(res.Root, ast.StyleIndented))
	}
*/
package parser
