// File: compact.go
// Title: Compact Tree Reader
// Description: Reads the single-line bracketed form produced by StyleCompact
//              back into a tree.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-15
// Modified: 2026-10-15
//
// Change History:
// - 2026-10-15 v0.1.0: Initial reader

package ast

import (
	"fmt"
	"strings"
)

// ParseCompact reads a tree in compact form, e.g. "(+ (literal '1') (id 'x'))".
// Labels run up to the next bracket; they never contain brackets because
// parentheses are not represented in the tree.
func ParseCompact(s string) (*Node, error) {
	r := &compactReader{src: s}
	r.skipSpace()
	n, err := r.node()
	if err != nil {
		return nil, err
	}
	r.skipSpace()
	if r.pos < len(r.src) {
		return nil, fmt.Errorf("unexpected %q at offset %d", r.src[r.pos:], r.pos)
	}
	return n, nil
}

// MustParseCompact is ParseCompact for literals known to be well formed
func MustParseCompact(s string) *Node {
	n, err := ParseCompact(s)
	if err != nil {
		panic(err)
	}
	return n
}

type compactReader struct {
	src string
	pos int
}

func (r *compactReader) skipSpace() {
	for r.pos < len(r.src) && r.src[r.pos] == ' ' {
		r.pos++
	}
}

func (r *compactReader) node() (*Node, error) {
	if r.pos >= len(r.src) {
		return nil, fmt.Errorf("unexpected end of input")
	}

	var n *Node
	var close byte
	switch r.src[r.pos] {
	case '[':
		n, close = NewList(), ']'
	case '(':
		n, close = &Node{}, ')'
	default:
		return nil, fmt.Errorf("expected '(' or '[' at offset %d", r.pos)
	}
	r.pos++

	if close == ')' {
		end := strings.IndexAny(r.src[r.pos:], "()[]")
		if end < 0 {
			return nil, fmt.Errorf("unterminated node at offset %d", r.pos)
		}
		n.Label = strings.TrimSpace(r.src[r.pos : r.pos+end])
		r.pos += end
	}

	for {
		r.skipSpace()
		if r.pos >= len(r.src) {
			return nil, fmt.Errorf("missing %q", close)
		}
		if r.src[r.pos] == close {
			r.pos++
			return n, nil
		}
		child, err := r.node()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
}
