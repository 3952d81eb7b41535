// File: parser_test.go
// Title: Calc Parser Unit Tests
// Description: Tests for tree construction, associativity, panic-mode
//              recovery, diagnostics and the production trace.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial test suite

package parser

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/msto63/calcparse/foundation/calc/ast"
)

func parseCompact(t *testing.T, input string) (*Result, string) {
	t.Helper()
	res, err := ParseString(input)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", input, err)
	}
	return res, ast.Format(res.Root, ast.StyleCompact)
}

func TestParser_ValidPrograms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "Empty program",
			input:    "",
			expected: "(program [])",
		},
		{
			name:     "Read and write",
			input:    "read x write x",
			expected: "(program [(read (id 'x')) (write (id 'x'))])",
		},
		{
			name:     "Assignment",
			input:    "x := 2",
			expected: "(program [(:= (id 'x') (literal '2'))])",
		},
		{
			name:     "Addition is left associative",
			input:    "write 1+2+3",
			expected: "(program [(write (+ (+ (literal '1') (literal '2')) (literal '3')))])",
		},
		{
			name:     "Subtraction is left associative",
			input:    "write 8-4-2",
			expected: "(program [(write (- (- (literal '8') (literal '4')) (literal '2')))])",
		},
		{
			name:     "Division is left associative",
			input:    "write a/b*c",
			expected: "(program [(write (* (/ (id 'a') (id 'b')) (id 'c')))])",
		},
		{
			name:     "Multiplication binds tighter",
			input:    "write 1+2*3",
			expected: "(program [(write (+ (literal '1') (* (literal '2') (literal '3'))))])",
		},
		{
			name:     "Parentheses group",
			input:    "write (1+2)*3",
			expected: "(program [(write (* (+ (literal '1') (literal '2')) (literal '3')))])",
		},
		{
			name:     "If statement",
			input:    "if a < 10 write a end",
			expected: "(program [(if (< (id 'a') (literal '10')) [(write (id 'a'))])])",
		},
		{
			name:  "While loop with nested if",
			input: "read n\nwhile n <> 0\n  if n >= 5 write n end\n  n := n - 1\nend",
			expected: "(program [(read (id 'n')) (while (<> (id 'n') (literal '0')) " +
				"[(if (>= (id 'n') (literal '5')) [(write (id 'n'))]) (:= (id 'n') (- (id 'n') (literal '1')))])])",
		},
		{
			name:     "Empty loop body",
			input:    "while x = x end",
			expected: "(program [(while (= (id 'x') (id 'x')) [])])",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, got := parseCompact(t, tt.input)
			if res.Failed {
				t.Fatalf("Expected success, got diagnostics %v", res.Diagnostics)
			}
			if len(res.Diagnostics) != 0 {
				t.Errorf("Expected no diagnostics, got %v", res.Diagnostics)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParser_GroupingChangesTree(t *testing.T) {
	_, grouped := parseCompact(t, "write (1+2)*3")
	_, plain := parseCompact(t, "write 1+2*3")
	if grouped == plain {
		t.Errorf("Expected different trees, both were %s", plain)
	}
}

func TestParser_Recovery(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		diagnostics []string
		expected    string
	}{
		{
			name:  "Expression retried after bad operand",
			input: "x := + 2",
			diagnostics: []string{
				"Error: Expected one of id, literal, lparen, got add: +",
				"Retry expr on literal: 2",
			},
			expected: "(program [(:= (id 'x') (literal '2'))])",
		},
		{
			name:  "Statement retried after bad read target",
			input: "read 5 write x",
			diagnostics: []string{
				"Error: Expected id, got literal: 5",
				"Retry stmt on write: write",
			},
			expected: "(program [(write (id 'x'))])",
		},
		{
			name:  "Program retried after stray end",
			input: "write 1 end write 2",
			diagnostics: []string{
				"Error: Expected eof, got end: end",
				"Retry program on write: write",
			},
			expected: "(program [(write (literal '2'))])",
		},
		{
			name:  "Condition skipped when operator is missing",
			input: "if x write x end",
			diagnostics: []string{
				"Error: Expected one of equal, nequal, smaller, larger, smaller_or_equal, larger_or_equal, got write: write",
				"Skip cond",
			},
			expected: "(program [(if [(write (id 'x'))])])",
		},
		{
			name:  "Expression skipped at end of input",
			input: "x := (1 + 2",
			diagnostics: []string{
				"Error: Expected rparen, got eof: ",
				"Skip expr",
			},
			expected: "(program [(:= (id 'x'))])",
		},
		{
			name:  "Statement list skipped inside block",
			input: "while a > 1 ) end write a",
			diagnostics: []string{
				"Error: Expected one of read, write, id, if, while, end, eof, got rparen: )",
				"Skip stmt_list",
			},
			expected: "(program [(while (> (id 'a') (literal '1'))) (write (id 'a'))])",
		},
		{
			name:  "Statement list retried after stray token",
			input: "read x ) write x",
			diagnostics: []string{
				"Error: Expected one of read, write, id, if, while, end, eof, got rparen: )",
				"Retry stmt_list on write: write",
			},
			expected: "(program [(read (id 'x')) (write (id 'x'))])",
		},
		{
			name:  "Condition retried after leading operator",
			input: "if + x < 1 write x end",
			diagnostics: []string{
				"Error: Expected one of id, literal, lparen, got add: +",
				"Retry cond on id: x",
			},
			expected: "(program [(if (< (id 'x') (literal '1')) [(write (id 'x'))])])",
		},
		{
			name:  "Statement skipped when end is missing",
			input: "if x < 1 write x",
			diagnostics: []string{
				"Error: Expected end, got eof: ",
				"Skip stmt",
			},
			expected: "(program [])",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, got := parseCompact(t, tt.input)
			if !res.Failed {
				t.Errorf("Expected failed result")
			}
			var lines []string
			for _, d := range res.Diagnostics {
				lines = append(lines, d.String())
			}
			if strings.Join(lines, "\n") != strings.Join(tt.diagnostics, "\n") {
				t.Errorf("Expected diagnostics:\n%s\ngot:\n%s", strings.Join(tt.diagnostics, "\n"), strings.Join(lines, "\n"))
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParser_LongStatementList(t *testing.T) {
	const n = 50000

	start := time.Now()
	res, err := ParseString(strings.Repeat("write 1 ", n))
	elapsed := time.Since(start)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if res.Failed {
		t.Fatalf("Expected success, got diagnostics %v", res.Diagnostics)
	}
	if got := len(res.Root.Children[0].Children); got != n {
		t.Errorf("Expected %d statements, got %d", n, got)
	}
	if elapsed > 5*time.Second {
		t.Errorf("Parsing %d statements took %v", n, elapsed)
	}
}

func TestParser_FailureIsSticky(t *testing.T) {
	res, _ := parseCompact(t, "read 1 read a write a x := a + 1")
	if !res.Failed {
		t.Fatalf("Expected failure to persist after recovery")
	}
	if res.Diagnostics[0].Kind != DiagnosticError || res.Diagnostics[0].Rule != NtStmt {
		t.Errorf("Expected first diagnostic to be a stmt error, got %+v", res.Diagnostics[0])
	}
	if res.Discarded != 1 {
		t.Errorf("Expected 1 discarded token, got %d", res.Discarded)
	}
}

func TestParser_LexicalErrorIsFatal(t *testing.T) {
	res, err := ParseString("x := 1 # 2")
	if res != nil {
		t.Errorf("Expected no result, got %+v", res)
	}
	if !IsLexError(err) {
		t.Fatalf("Expected lexical error, got %v", err)
	}

	// Lexical errors pass through recovering rules untouched
	var out bytes.Buffer
	p := New(Options{Reporter: NewWriterReporter(&out, false)})
	if _, err := p.Parse(NewLexerString("x := + $")); !IsLexError(err) {
		t.Fatalf("Expected lexical error, got %v", err)
	}
	if !strings.HasPrefix(out.String(), "Error: Expected one of id, literal, lparen, got add: +\n") {
		t.Errorf("Expected syntax error before the lexical error, got %q", out.String())
	}
}

func TestParser_Trace(t *testing.T) {
	var out bytes.Buffer
	p := New(Options{Reporter: NewWriterReporter(&out, true)})
	if _, err := p.Parse(NewLexerString("read x")); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	expected := strings.Join([]string{
		"predict program --> stmt_list eof",
		"predict stmt_list --> stmt stmt_list",
		"predict stmt --> read id",
		"matched read",
		"matched id: x",
		"predict stmt_list --> epsilon",
		"matched eof",
	}, "\n") + "\n"
	if out.String() != expected {
		t.Errorf("Expected trace:\n%s\ngot:\n%s", expected, out.String())
	}
}

func TestParser_Reuse(t *testing.T) {
	p := New(Options{})
	first, err := p.Parse(NewLexerString("read 1"))
	if err != nil || !first.Failed {
		t.Fatalf("Expected failed first parse, got %+v, %v", first, err)
	}
	second, err := p.Parse(NewLexerString("read x write x"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if second.Failed || len(second.Diagnostics) != 0 {
		t.Errorf("Expected clean second parse, got %+v", second)
	}
	if second.Tokens != 5 {
		t.Errorf("Expected 5 tokens, got %d", second.Tokens)
	}
}

func TestParser_SliceSource(t *testing.T) {
	src := NewSliceSource([]Token{
		{Type: TokenWrite, Value: "write"},
		{Type: TokenID, Value: "y"},
	})
	res, err := New(Options{}).Parse(src)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := ast.Format(res.Root, ast.StyleCompact); got != "(program [(write (id 'y'))])" {
		t.Errorf("Unexpected tree %s", got)
	}
}

func TestParser_IndentedOutput(t *testing.T) {
	res, err := ParseString("x := 2")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	expected := "(program\n  [\n    (:=\n      (id 'x')\n      (literal '2')\n    )\n  ]\n)\n"
	if got := ast.Format(res.Root, ast.StyleIndented); got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}
