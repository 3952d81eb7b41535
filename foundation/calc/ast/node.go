// File: node.go
// Title: Calc AST Node Definition
// Description: Labelled tree node with an ordered list of owned children.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial node definition

package ast

import "fmt"

// RootLabel is the label of the node returned for a whole program
const RootLabel = "program"

// Position represents a position in the source text
type Position struct {
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// String returns "line:column"
func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Node is a syntax tree node. A node with no children is a leaf. List marks
// the unlabelled statement list.
type Node struct {
	Label    string   `json:"label,omitempty" yaml:"label,omitempty"`
	List     bool     `json:"list,omitempty" yaml:"list,omitempty"`
	Children []*Node  `json:"children,omitempty" yaml:"children,omitempty"`
	Pos      Position `json:"-" yaml:"-"`
}

// NewNode creates a labelled node
func NewNode(label string, pos Position) *Node {
	return &Node{Label: label, Pos: pos}
}

// NewList creates an empty statement list
func NewList() *Node {
	return &Node{List: true}
}

// IdentLabel returns the leaf label used for an identifier
func IdentLabel(name string) string {
	return "id '" + name + "'"
}

// LiteralLabel returns the leaf label used for an integer literal
func LiteralLabel(image string) string {
	return "literal '" + image + "'"
}

// Append attaches children in order. Nil children are ignored so that a
// sub-result abandoned by error recovery leaves no hole in the tree.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c != nil {
			n.Children = append(n.Children, c)
		}
	}
	return n
}

// IsLeaf reports whether the node has no children
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// String returns the compact bracketed form of the subtree
func (n *Node) String() string {
	return Format(n, StyleCompact)
}

// Walk visits the subtree depth-first in pre-order. Returning false from fn
// skips the children of the visited node.
func Walk(n *Node, fn func(node *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Count returns the number of nodes in the subtree
func Count(n *Node) int {
	count := 0
	Walk(n, func(*Node, int) bool {
		count++
		return true
	})
	return count
}

// Equal compares two trees structurally, ignoring positions
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Label != b.Label || a.List != b.List || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
