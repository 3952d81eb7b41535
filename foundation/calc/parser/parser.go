// File: parser.go
// Title: Calc Recursive-Descent Parser
// Description: One procedure per nonterminal, predicting on a single token
//              of lookahead. program, stmt_list, stmt, cond and expr catch
//              syntax errors from their subtree and run panic-mode recovery
//              driven by the grammar's FIRST and FOLLOW sets.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial parser implementation

package parser

import (
	"errors"

	"github.com/msto63/calcparse/foundation/calc/ast"
	mdwlog "github.com/msto63/calcparse/foundation/core/log"
)

// Options configures a Parser
type Options struct {
	Logger   *mdwlog.Logger
	Reporter Reporter // receives diagnostics and trace events as they occur
}

// Result is the outcome of one parse. Root is always set; when Failed is
// true it may be missing skipped subtrees and must not be used as a valid
// program.
type Result struct {
	Root        *ast.Node    `json:"root"`
	Failed      bool         `json:"failed"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Tokens      int          `json:"tokens"`    // tokens consumed, including discarded ones
	Discarded   int          `json:"discarded"` // tokens thrown away during recovery
}

// Parser holds the state of a single parse: the token source, the one-token
// lookahead and the failure flag. It is not safe for concurrent use.
type Parser struct {
	logger   *mdwlog.Logger
	reporter Reporter

	src         TokenSource
	lookahead   Token
	failedFlag  bool
	diagnostics []Diagnostic
	consumed    int
	discarded   int
}

// New creates a parser
func New(opts Options) *Parser {
	logger := opts.Logger
	if logger == nil {
		logger = mdwlog.Discard()
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Parser{
		logger:   logger.WithField("component", "calc-parser"),
		reporter: reporter,
	}
}

// Parse reads a whole program from src. Syntax errors are recovered from and
// show up in the result; the returned error is non-nil only when src fails
// (a lexical or read error), which aborts the parse.
func (p *Parser) Parse(src TokenSource) (*Result, error) {
	p.reset(src)
	p.logger.Debug("Starting parse")

	if err := p.advance(); err != nil {
		return nil, p.abort(err)
	}
	root, err := p.program()
	if err != nil {
		return nil, p.abort(err)
	}

	result := &Result{
		Root:        root,
		Failed:      p.failed(),
		Diagnostics: p.diagnostics,
		Tokens:      p.consumed,
		Discarded:   p.discarded,
	}
	p.logger.Debug("Parse completed", mdwlog.Fields{
		"failed":      result.Failed,
		"diagnostics": len(result.Diagnostics),
		"tokens":      result.Tokens,
	})
	return result, nil
}

// ParseString parses an in-memory program with default lexer settings
func ParseString(input string) (*Result, error) {
	return New(Options{}).Parse(NewLexerString(input))
}

func (p *Parser) reset(src TokenSource) {
	p.src = src
	p.lookahead = Token{}
	p.failedFlag = false
	p.diagnostics = nil
	p.consumed = 0
	p.discarded = 0
}

func (p *Parser) abort(err error) error {
	p.markFailed()
	p.logger.ErrorWithErr("Parse aborted", err, mdwlog.Field("diagnostics", len(p.diagnostics)))
	return err
}

// current returns the lookahead token
func (p *Parser) current() Token {
	return p.lookahead
}

// advance pulls the next token from the source into the lookahead
func (p *Parser) advance() error {
	tok, err := p.src.NextToken()
	if err != nil {
		return err
	}
	if p.lookahead.Type != TokenEOF || p.consumed == 0 {
		p.consumed++
	}
	p.lookahead = tok
	return nil
}

func (p *Parser) markFailed() {
	p.failedFlag = true
}

func (p *Parser) failed() bool {
	return p.failedFlag
}

func (p *Parser) report(d Diagnostic) {
	p.diagnostics = append(p.diagnostics, d)
	p.reporter.Diagnostic(d)
}

// match consumes the lookahead if it has the expected type and returns its
// leaf. Otherwise nothing is consumed.
func (p *Parser) match(expected TokenType) (*ast.Node, error) {
	tok := p.current()
	if tok.Type != expected {
		return nil, newSyntaxError(expected.String(), tok)
	}
	p.reporter.Match(tok)
	if err := p.advance(); err != nil {
		return nil, err
	}
	return leaf(tok), nil
}

// predict selects the production of nt for the lookahead
func (p *Parser) predict(nt Nonterminal) (*Production, error) {
	rule := rules[nt]
	prod, ok := rule.Predict(p.current().Type)
	if !ok {
		return nil, newSyntaxError(rule.PredictSet().String(), p.current())
	}
	p.reporter.Predict(prod)
	return prod, nil
}

// recover runs panic-mode recovery for nt after err escaped its body. It
// discards tokens until the lookahead is in FIRST(nt), where it calls retry,
// or in FOLLOW(nt), where it gives up on nt and returns a nil node. Errors
// other than *SyntaxError pass through untouched.
func (p *Parser) recover(nt Nonterminal, err error, retry func() (*ast.Node, error)) (*ast.Node, error) {
	var syntaxErr *SyntaxError
	if !errors.As(err, &syntaxErr) {
		return nil, err
	}

	p.report(Diagnostic{Kind: DiagnosticError, Rule: nt, Token: p.current(), Err: syntaxErr})
	p.markFailed()

	rule := rules[nt]
	for {
		tok := p.current()
		if rule.First.Has(tok.Type) {
			p.report(Diagnostic{Kind: DiagnosticRetry, Rule: nt, Token: tok})
			p.logger.Debug("Retrying rule", mdwlog.Fields{"rule": nt.String(), "token": tok.String(), "line": tok.Line})
			return retry()
		}
		if rule.Follow.Has(tok.Type) {
			p.report(Diagnostic{Kind: DiagnosticSkip, Rule: nt, Token: tok})
			p.logger.Debug("Skipping rule", mdwlog.Fields{"rule": nt.String(), "token": tok.String(), "line": tok.Line})
			return nil, nil
		}
		p.discarded++
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
}

// program -> stmt_list eof
func (p *Parser) program() (*ast.Node, error) {
	n, err := p.parseProgram()
	if err != nil {
		return p.recover(NtProgram, err, p.program)
	}
	return n, nil
}

func (p *Parser) parseProgram() (*ast.Node, error) {
	if _, err := p.predict(NtProgram); err != nil {
		return nil, err
	}
	pos := p.position()
	list, err := p.stmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(TokenEOF); err != nil {
		return nil, err
	}
	return ast.NewNode(ast.RootLabel, pos).Append(list), nil
}

// stmt_list -> stmt stmt_list | ε
//
// All levels of one statement list append to the same node, so the list
// stays flat without copying the tail at every level.
func (p *Parser) stmtList() (*ast.Node, error) {
	list := ast.NewList()
	list.Pos = p.position()
	return p.stmtListInto(list)
}

// stmtListInto parses one stmt_list level into list. It returns nil when
// recovery skipped the level.
func (p *Parser) stmtListInto(list *ast.Node) (*ast.Node, error) {
	if err := p.parseStmtList(list); err != nil {
		return p.recover(NtStmtList, err, func() (*ast.Node, error) {
			return p.stmtListInto(list)
		})
	}
	return list, nil
}

func (p *Parser) parseStmtList(list *ast.Node) error {
	prod, err := p.predict(NtStmtList)
	if err != nil {
		return err
	}
	if prod.IsEpsilon() {
		return nil
	}

	head, err := p.stmt()
	if err != nil {
		return err
	}
	list.Append(head)
	_, err = p.stmtListInto(list)
	return err
}

// stmt -> id gets expr | read id | write expr
//       | if cond stmt_list end | while cond stmt_list end
func (p *Parser) stmt() (*ast.Node, error) {
	n, err := p.parseStmt()
	if err != nil {
		return p.recover(NtStmt, err, p.stmt)
	}
	return n, nil
}

func (p *Parser) parseStmt() (*ast.Node, error) {
	prod, err := p.predict(NtStmt)
	if err != nil {
		return nil, err
	}

	switch prod {
	case prodStmtAssign:
		target, err := p.match(TokenID)
		if err != nil {
			return nil, err
		}
		gets, err := p.match(TokenGets)
		if err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return gets.Append(target, value), nil

	case prodStmtRead:
		kw, err := p.match(TokenRead)
		if err != nil {
			return nil, err
		}
		target, err := p.match(TokenID)
		if err != nil {
			return nil, err
		}
		return kw.Append(target), nil

	case prodStmtWrite:
		kw, err := p.match(TokenWrite)
		if err != nil {
			return nil, err
		}
		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		return kw.Append(value), nil

	case prodStmtIf:
		return p.block(TokenIf)

	default:
		return p.block(TokenWhile)
	}
}

// block parses "keyword cond stmt_list end" for if and while
func (p *Parser) block(keyword TokenType) (*ast.Node, error) {
	kw, err := p.match(keyword)
	if err != nil {
		return nil, err
	}
	cond, err := p.cond()
	if err != nil {
		return nil, err
	}
	body, err := p.stmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(TokenEnd); err != nil {
		return nil, err
	}
	return kw.Append(cond, body), nil
}

// cond -> expr r_op expr
func (p *Parser) cond() (*ast.Node, error) {
	n, err := p.parseCond()
	if err != nil {
		return p.recover(NtCond, err, p.cond)
	}
	return n, nil
}

func (p *Parser) parseCond() (*ast.Node, error) {
	if _, err := p.predict(NtCond); err != nil {
		return nil, err
	}
	left, err := p.expr()
	if err != nil {
		return nil, err
	}
	op, err := p.rOp()
	if err != nil {
		return nil, err
	}
	right, err := p.expr()
	if err != nil {
		return nil, err
	}
	return op.Append(left, right), nil
}

// expr -> term term_tail
func (p *Parser) expr() (*ast.Node, error) {
	n, err := p.parseExpr()
	if err != nil {
		return p.recover(NtExpr, err, p.expr)
	}
	return n, nil
}

func (p *Parser) parseExpr() (*ast.Node, error) {
	if _, err := p.predict(NtExpr); err != nil {
		return nil, err
	}
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	return p.termTail(left)
}

// term -> factor factor_tail
func (p *Parser) term() (*ast.Node, error) {
	if _, err := p.predict(NtTerm); err != nil {
		return nil, err
	}
	left, err := p.factor()
	if err != nil {
		return nil, err
	}
	return p.factorTail(left)
}

// term_tail -> add_op term term_tail | ε
//
// left is the operand parsed so far. Each operator takes it as its first
// child, so chains associate to the left.
func (p *Parser) termTail(left *ast.Node) (*ast.Node, error) {
	prod, err := p.predict(NtTermTail)
	if err != nil {
		return nil, err
	}
	if prod.IsEpsilon() {
		return left, nil
	}
	op, err := p.addOp()
	if err != nil {
		return nil, err
	}
	right, err := p.term()
	if err != nil {
		return nil, err
	}
	return p.termTail(op.Append(left, right))
}

// factor -> ( expr ) | id | literal
func (p *Parser) factor() (*ast.Node, error) {
	prod, err := p.predict(NtFactor)
	if err != nil {
		return nil, err
	}
	switch prod {
	case prodFactorLiteral:
		return p.match(TokenLiteral)
	case prodFactorID:
		return p.match(TokenID)
	}

	if _, err := p.match(TokenLeftParen); err != nil {
		return nil, err
	}
	inner, err := p.expr()
	if err != nil {
		return nil, err
	}
	if _, err := p.match(TokenRightParen); err != nil {
		return nil, err
	}
	return inner, nil
}

// factor_tail -> mul_op factor factor_tail | ε
func (p *Parser) factorTail(left *ast.Node) (*ast.Node, error) {
	prod, err := p.predict(NtFactorTail)
	if err != nil {
		return nil, err
	}
	if prod.IsEpsilon() {
		return left, nil
	}
	op, err := p.mulOp()
	if err != nil {
		return nil, err
	}
	right, err := p.factor()
	if err != nil {
		return nil, err
	}
	return p.factorTail(op.Append(left, right))
}

// add_op -> + | -
func (p *Parser) addOp() (*ast.Node, error) {
	return p.operator(NtAddOp)
}

// mul_op -> * | /
func (p *Parser) mulOp() (*ast.Node, error) {
	return p.operator(NtMulOp)
}

// r_op -> = | <> | < | > | <= | >=
func (p *Parser) rOp() (*ast.Node, error) {
	return p.operator(NtROp)
}

// operator matches the single-terminal production predicted for nt
func (p *Parser) operator(nt Nonterminal) (*ast.Node, error) {
	if _, err := p.predict(nt); err != nil {
		return nil, err
	}
	return p.match(p.current().Type)
}

func (p *Parser) position() ast.Position {
	tok := p.current()
	return ast.Position{Line: tok.Line, Column: tok.Column}
}

// leaf builds the tree node for a matched token
func leaf(tok Token) *ast.Node {
	pos := ast.Position{Line: tok.Line, Column: tok.Column}
	switch tok.Type {
	case TokenID:
		return ast.NewNode(ast.IdentLabel(tok.Value), pos)
	case TokenLiteral:
		return ast.NewNode(ast.LiteralLabel(tok.Value), pos)
	default:
		return ast.NewNode(tok.Value, pos)
	}
}
