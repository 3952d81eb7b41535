// File: grammar.go
// Title: Calc Grammar Data
// Description: Declares the calc grammar as data: productions with their
//              predict sets and, per nonterminal, the FIRST and FOLLOW sets
//              that drive prediction and panic-mode recovery.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial grammar tables

package parser

import (
	"fmt"
	"strings"
)

// Nonterminal identifies a grammar rule
type Nonterminal int

const (
	NtProgram Nonterminal = iota
	NtStmtList
	NtStmt
	NtCond
	NtExpr
	NtTerm
	NtTermTail
	NtFactor
	NtFactorTail
	NtAddOp
	NtMulOp
	NtROp

	nonterminalCount
)

var nonterminalNames = [nonterminalCount]string{
	NtProgram:    "program",
	NtStmtList:   "stmt_list",
	NtStmt:       "stmt",
	NtCond:       "cond",
	NtExpr:       "expr",
	NtTerm:       "term",
	NtTermTail:   "term_tail",
	NtFactor:     "factor",
	NtFactorTail: "factor_tail",
	NtAddOp:      "add_op",
	NtMulOp:      "mul_op",
	NtROp:        "r_op",
}

// String returns the rule name used in diagnostics
func (nt Nonterminal) String() string {
	if nt < 0 || nt >= nonterminalCount {
		return fmt.Sprintf("Nonterminal(%d)", int(nt))
	}
	return nonterminalNames[nt]
}

// MarshalText lets rules appear by name in JSON and YAML output
func (nt Nonterminal) MarshalText() ([]byte, error) {
	return []byte(nt.String()), nil
}

// Production is one alternative of a rule. An empty Body is the ε
// alternative.
type Production struct {
	Head    Nonterminal
	Body    []string
	Predict TokenSet
}

// String renders the production the way the trace prints it
func (p *Production) String() string {
	body := "epsilon"
	if len(p.Body) > 0 {
		body = strings.Join(p.Body, " ")
	}
	return p.Head.String() + " --> " + body
}

// IsEpsilon reports whether the production derives the empty string
func (p *Production) IsEpsilon() bool {
	return len(p.Body) == 0
}

// Rule holds the grammar data of one nonterminal
type Rule struct {
	Name        Nonterminal
	First       TokenSet
	Follow      TokenSet
	Nullable    bool
	Recovers    bool // runs panic-mode recovery on syntax errors
	Productions []*Production
}

// Predict returns the production selected by the lookahead token type
func (r *Rule) Predict(tt TokenType) (*Production, bool) {
	for _, p := range r.Productions {
		if p.Predict.Has(tt) {
			return p, true
		}
	}
	return nil, false
}

// PredictSet is the union of all predict sets of the rule
func (r *Rule) PredictSet() TokenSet {
	var s TokenSet
	for _, p := range r.Productions {
		s = s.Union(p.Predict)
	}
	return s
}

// Lookup returns the grammar data for nt
func Lookup(nt Nonterminal) *Rule {
	if nt < 0 || nt >= nonterminalCount {
		return nil
	}
	return rules[nt]
}

// Rules returns all rules in declaration order
func Rules() []*Rule {
	out := make([]*Rule, len(rules))
	copy(out, rules[:])
	return out
}

var (
	firstStmt    = NewTokenSet(TokenID, TokenRead, TokenWrite, TokenIf, TokenWhile)
	firstExpr    = NewTokenSet(TokenID, TokenLiteral, TokenLeftParen)
	relationalOp = NewTokenSet(TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual)

	// Statement-level recovery sets of the protected rules
	followStmt = NewTokenSet(TokenEnd, TokenEOF)
	followExpr = NewTokenSet(TokenRead, TokenWrite, TokenIf, TokenWhile, TokenEnd, TokenEOF)

	// LL(1) FOLLOW of the nullable tails
	followTermTail   = NewTokenSet(TokenRightParen, TokenID, TokenRead, TokenWrite, TokenIf, TokenWhile, TokenEnd, TokenEOF).Union(relationalOp)
	followFactorTail = followTermTail.Union(NewTokenSet(TokenAdd, TokenSub))
)

var (
	prodProgram = &Production{Head: NtProgram, Body: []string{"stmt_list", "eof"}, Predict: firstStmt.Union(NewTokenSet(TokenEOF))}

	prodStmtListSeq   = &Production{Head: NtStmtList, Body: []string{"stmt", "stmt_list"}, Predict: firstStmt}
	prodStmtListEmpty = &Production{Head: NtStmtList, Predict: followStmt}

	prodStmtAssign = &Production{Head: NtStmt, Body: []string{"id", "gets", "expr"}, Predict: NewTokenSet(TokenID)}
	prodStmtRead   = &Production{Head: NtStmt, Body: []string{"read", "id"}, Predict: NewTokenSet(TokenRead)}
	prodStmtWrite  = &Production{Head: NtStmt, Body: []string{"write", "expr"}, Predict: NewTokenSet(TokenWrite)}
	prodStmtIf     = &Production{Head: NtStmt, Body: []string{"if", "cond", "stmt_list", "end"}, Predict: NewTokenSet(TokenIf)}
	prodStmtWhile  = &Production{Head: NtStmt, Body: []string{"while", "cond", "stmt_list", "end"}, Predict: NewTokenSet(TokenWhile)}

	prodCond = &Production{Head: NtCond, Body: []string{"expr", "r_op", "expr"}, Predict: firstExpr}
	prodExpr = &Production{Head: NtExpr, Body: []string{"term", "term_tail"}, Predict: firstExpr}
	prodTerm = &Production{Head: NtTerm, Body: []string{"factor", "factor_tail"}, Predict: firstExpr}

	prodTermTailOp    = &Production{Head: NtTermTail, Body: []string{"add_op", "term", "term_tail"}, Predict: NewTokenSet(TokenAdd, TokenSub)}
	prodTermTailEmpty = &Production{Head: NtTermTail, Predict: followTermTail}

	prodFactorTailOp    = &Production{Head: NtFactorTail, Body: []string{"mul_op", "factor", "factor_tail"}, Predict: NewTokenSet(TokenMul, TokenDiv)}
	prodFactorTailEmpty = &Production{Head: NtFactorTail, Predict: followFactorTail}

	prodFactorParen   = &Production{Head: NtFactor, Body: []string{"lparen", "expr", "rparen"}, Predict: NewTokenSet(TokenLeftParen)}
	prodFactorID      = &Production{Head: NtFactor, Body: []string{"id"}, Predict: NewTokenSet(TokenID)}
	prodFactorLiteral = &Production{Head: NtFactor, Body: []string{"literal"}, Predict: NewTokenSet(TokenLiteral)}
)

var rules = [nonterminalCount]*Rule{
	NtProgram:  {Name: NtProgram, Recovers: true, Productions: []*Production{prodProgram}},
	NtStmtList: {Name: NtStmtList, Follow: followStmt, Recovers: true, Productions: []*Production{prodStmtListSeq, prodStmtListEmpty}},
	NtStmt: {Name: NtStmt, Follow: followStmt, Recovers: true, Productions: []*Production{
		prodStmtAssign, prodStmtRead, prodStmtWrite, prodStmtIf, prodStmtWhile,
	}},
	NtCond:       {Name: NtCond, Follow: followExpr, Recovers: true, Productions: []*Production{prodCond}},
	NtExpr:       {Name: NtExpr, Follow: followExpr, Recovers: true, Productions: []*Production{prodExpr}},
	NtTerm:       {Name: NtTerm, Productions: []*Production{prodTerm}},
	NtTermTail:   {Name: NtTermTail, Follow: followTermTail, Productions: []*Production{prodTermTailOp, prodTermTailEmpty}},
	NtFactor:     {Name: NtFactor, Productions: []*Production{prodFactorParen, prodFactorID, prodFactorLiteral}},
	NtFactorTail: {Name: NtFactorTail, Follow: followFactorTail, Productions: []*Production{prodFactorTailOp, prodFactorTailEmpty}},
	NtAddOp:      {Name: NtAddOp, Productions: operatorProductions(NtAddOp, TokenAdd, TokenSub)},
	NtMulOp:      {Name: NtMulOp, Productions: operatorProductions(NtMulOp, TokenMul, TokenDiv)},
	NtROp: {Name: NtROp, Productions: operatorProductions(NtROp,
		TokenEqual, TokenNotEqual, TokenLess, TokenGreater, TokenLessEqual, TokenGreaterEqual)},
}

func init() {
	for _, r := range rules {
		for _, p := range r.Productions {
			if p.IsEpsilon() {
				r.Nullable = true
				continue
			}
			r.First = r.First.Union(p.Predict)
		}
	}
}

// operatorProductions builds one single-terminal production per operator
func operatorProductions(head Nonterminal, ops ...TokenType) []*Production {
	prods := make([]*Production, len(ops))
	for i, op := range ops {
		prods[i] = &Production{Head: head, Body: []string{op.String()}, Predict: NewTokenSet(op)}
	}
	return prods
}
