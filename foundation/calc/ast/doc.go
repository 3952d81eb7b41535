// File: doc.go
// Title: Calc Abstract Syntax Tree Package Documentation
// Description: Defines the labelled tree used to represent parsed calc
//              programs and the bracketed text form it is printed in.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial AST implementation

/*
Package ast defines the syntax tree of the calc language.

Every grammar symbol is represented by the same Node type: terminals become
leaves, nonterminals become interior nodes labelled with their governing
operator or keyword. The statement list is the one unlabelled node kind and
prints as a bracket group:

	(program
	  [
	    (read
	      (id 'x')
	    )
	  ]
	)

The compact form of the same tree is "(program [(read (id 'x'))])" and can be
read back with ParseCompact.
*/
package ast
