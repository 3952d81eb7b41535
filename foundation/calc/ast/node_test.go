// File: node_test.go
// Title: Calc AST Unit Tests
// Description: Tests for node construction, printing and the compact reader.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial test suite

package ast

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func sampleProgram() *Node {
	read := NewNode("read", Position{1, 1}).Append(NewNode(IdentLabel("x"), Position{1, 6}))
	write := NewNode("write", Position{1, 8}).Append(NewNode(IdentLabel("x"), Position{1, 14}))
	return NewNode(RootLabel, Position{1, 1}).Append(NewList().Append(read, write))
}

func TestFormat_Indented(t *testing.T) {
	expected := strings.Join([]string{
		"(program",
		"  [",
		"    (read",
		"      (id 'x')",
		"    )",
		"    (write",
		"      (id 'x')",
		"    )",
		"  ]",
		")",
		"",
	}, "\n")

	if got := Format(sampleProgram(), StyleIndented); got != expected {
		t.Errorf("Expected:\n%s\ngot:\n%s", expected, got)
	}
}

func TestFormat_Compact(t *testing.T) {
	expected := "(program [(read (id 'x')) (write (id 'x'))])"
	if got := Format(sampleProgram(), StyleCompact); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestFormat_EmptyProgram(t *testing.T) {
	root := NewNode(RootLabel, Position{}).Append(NewList())

	if got := Format(root, StyleIndented); got != "(program\n  []\n)\n" {
		t.Errorf("Expected empty list layout, got %q", got)
	}
	if got := root.String(); got != "(program [])" {
		t.Errorf("Expected compact empty program, got %q", got)
	}
}

func TestPrinter_Decorate(t *testing.T) {
	p := Printer{
		Style: StyleCompact,
		Decorate: func(n *Node, label string) string {
			return strings.ToUpper(label)
		},
	}

	if got := p.Sprint(sampleProgram()); got != "(PROGRAM [(READ (ID 'X')) (WRITE (ID 'X'))])" {
		t.Errorf("Expected decorated labels, got %q", got)
	}
}

func TestAppend_IgnoresNil(t *testing.T) {
	n := NewNode("write", Position{}).Append(nil)
	if !n.IsLeaf() {
		t.Errorf("Expected nil child to be ignored, got %d children", len(n.Children))
	}
}

func TestParseCompact_RoundTrip(t *testing.T) {
	inputs := []string{
		"(program [])",
		"(program [(read (id 'x')) (write (id 'x'))])",
		"(program [(:= (id 'y') (* (+ (literal '1') (literal '2')) (literal '3')))])",
		"(program [(while (<= (id 'i') (literal '10')) [(write (id 'i'))])])",
	}

	for _, in := range inputs {
		n, err := ParseCompact(in)
		if err != nil {
			t.Errorf("ParseCompact(%q) failed: %v", in, err)
			continue
		}
		if got := n.String(); got != in {
			t.Errorf("Expected round trip %q, got %q", in, got)
		}
	}
}

func TestParseCompact_Errors(t *testing.T) {
	inputs := []string{
		"",
		"program",
		"(program [",
		"(program [])x",
	}

	for _, in := range inputs {
		if _, err := ParseCompact(in); err == nil {
			t.Errorf("Expected error for %q", in)
		}
	}
}

func TestEqual(t *testing.T) {
	a := sampleProgram()
	b := MustParseCompact("(program [(read (id 'x')) (write (id 'x'))])")
	c := MustParseCompact("(program [(read (id 'x'))])")

	if !Equal(a, b) {
		t.Error("Expected trees to be equal regardless of positions")
	}
	if Equal(a, c) {
		t.Error("Expected trees with different children to differ")
	}
	if !Equal(nil, nil) || Equal(a, nil) {
		t.Error("Expected nil handling to be symmetric")
	}
}

func TestWalkAndCount(t *testing.T) {
	root := sampleProgram()
	if got := Count(root); got != 6 {
		t.Errorf("Expected 6 nodes, got %d", got)
	}

	maxDepth := 0
	Walk(root, func(n *Node, depth int) bool {
		if depth > maxDepth {
			maxDepth = depth
		}
		return !n.List
	})
	if maxDepth != 1 {
		t.Errorf("Expected walk to stop below the list, reached depth %d", maxDepth)
	}
}

func TestNode_Encoding(t *testing.T) {
	root := MustParseCompact("(program [(write (literal '7'))])")

	data, err := json.Marshal(root)
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"list":true`) {
		t.Errorf("Expected list flag in JSON, got %s", data)
	}

	var decoded Node
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if !Equal(root, &decoded) {
		t.Errorf("Expected JSON round trip, got %s", decoded.String())
	}

	out, err := yaml.Marshal(root)
	if err != nil {
		t.Fatalf("yaml.Marshal failed: %v", err)
	}
	if !strings.Contains(string(out), "label: program") {
		t.Errorf("Expected YAML label, got %s", out)
	}
}
