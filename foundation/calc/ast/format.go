// File: format.go
// Title: Calc AST Printer
// Description: Renders trees as nested bracketed text, either one node per
//              line with indentation or on a single line.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial printer

package ast

import (
	"bufio"
	"io"
	"strings"
)

// Style selects the layout of printed trees
type Style int

const (
	// StyleIndented prints one node per line, children indented
	StyleIndented Style = iota

	// StyleCompact prints the whole tree on one line
	StyleCompact
)

// Printer renders trees as bracketed text
type Printer struct {
	Style Style

	// Indent is the number of spaces per level for StyleIndented (default 2)
	Indent int

	// Decorate, if set, rewrites the label text of every printed node,
	// e.g. to colour it. It is not called for statement lists.
	Decorate func(n *Node, label string) string
}

// Format renders a tree with the given style
func Format(n *Node, style Style) string {
	return Printer{Style: style}.Sprint(n)
}

// Sprint renders a tree to a string
func (p Printer) Sprint(n *Node) string {
	var b strings.Builder
	p.Fprint(&b, n)
	return b.String()
}

// Fprint renders a tree to w
func (p Printer) Fprint(w io.Writer, n *Node) error {
	bw := bufio.NewWriter(w)
	if n != nil {
		if p.Style == StyleCompact {
			p.compact(bw, n)
		} else {
			p.indented(bw, n, 0)
		}
	}
	return bw.Flush()
}

func (p Printer) brackets(n *Node) (open, label, close string) {
	if n.List {
		return "[", "", "]"
	}
	label = n.Label
	if p.Decorate != nil {
		label = p.Decorate(n, label)
	}
	return "(", label, ")"
}

func (p Printer) indented(w *bufio.Writer, n *Node, depth int) {
	indent := p.Indent
	if indent <= 0 {
		indent = 2
	}
	pad := strings.Repeat(" ", depth*indent)
	open, label, close := p.brackets(n)

	if n.IsLeaf() {
		w.WriteString(pad + open + label + close + "\n")
		return
	}

	w.WriteString(pad + open + label + "\n")
	for _, c := range n.Children {
		p.indented(w, c, depth+1)
	}
	w.WriteString(pad + close + "\n")
}

func (p Printer) compact(w *bufio.Writer, n *Node) {
	open, label, close := p.brackets(n)
	w.WriteString(open + label)
	for i, c := range n.Children {
		if i > 0 || label != "" {
			w.WriteByte(' ')
		}
		p.compact(w, c)
	}
	w.WriteString(close)
}
