package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
)

// runCLI executes the root command with a temp config and returns stdout
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "calc.toml")
	cfg := "[general]\nlog_level = \"error\"\n\n[output]\ncolor = \"never\"\n\n[store]\npath = \"" +
		filepath.ToSlash(filepath.Join(dir, "history.db")) + "\"\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	resetFlags()
	var stdout, stderr bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// resetFlags restores flag variables between runs of the shared command tree
func resetFlags() {
	cfgFile, verbose = "", false
	parseFormat, parseTrace, parseRecord = "", false, false
	tokensJSON = false
	historyLimit, historyFailed, historySince, historyJSON, historyPrune, historyStats = 20, false, 0, false, 0, false
	remoteAddr, remoteFormat = "", ""
}

func TestParse_CompactTree(t *testing.T) {
	out, err := runCLI(t, "read a write a * 2", "parse", "--format", "compact")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	expected := "(program [(read (id 'a')) (write (* (id 'a') (literal '2')))])\n"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestParse_IndentedTree(t *testing.T) {
	out, err := runCLI(t, "", "parse")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	if out != "(program\n  []\n)\n" {
		t.Errorf("Unexpected tree layout %q", out)
	}
}

func TestParse_SyntaxErrorsPrintFailure(t *testing.T) {
	out, err := runCLI(t, "x := + 2", "parse")
	if err != nil {
		t.Fatalf("Syntax errors must not fail the command, got %v", err)
	}
	expected := "Error: Expected one of id, literal, lparen, got add: +\n" +
		"Retry expr on literal: 2\n" +
		"Compilation failed\n"
	if out != expected {
		t.Errorf("Expected %q, got %q", expected, out)
	}
}

func TestParse_LexicalErrorExitCode(t *testing.T) {
	_, err := runCLI(t, "write $", "parse")
	var exit *exitError
	if !errors.As(err, &exit) || exit.code != 2 {
		t.Fatalf("Expected exit code 2, got %v", err)
	}
}

func TestParse_JSONTree(t *testing.T) {
	out, err := runCLI(t, "write 1", "parse", "--format", "json")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	var root mdwast.Node
	if err := json.Unmarshal([]byte(out), &root); err != nil {
		t.Fatalf("Output is not JSON: %v\n%s", err, out)
	}
	if got := root.String(); got != "(program [(write (literal '1'))])" {
		t.Errorf("Unexpected decoded tree %s", got)
	}
}

func TestParse_Trace(t *testing.T) {
	out, err := runCLI(t, "write x", "parse", "--trace", "--format", "compact")
	if err != nil {
		t.Fatalf("parse error = %v", err)
	}
	for _, want := range []string{"predict stmt --> write expr", "matched write", "matched id: x"} {
		if !strings.Contains(out, want) {
			t.Errorf("Trace missing %q:\n%s", want, out)
		}
	}
}

func TestParse_UnknownFormat(t *testing.T) {
	if _, err := runCLI(t, "write 1", "parse", "--format", "xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestTokens(t *testing.T) {
	out, err := runCLI(t, "x := 1", "tokens")
	if err != nil {
		t.Fatalf("tokens error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected header and 4 tokens, got %d lines:\n%s", len(lines), out)
	}
	for i, want := range []string{"gets", "literal", "eof"} {
		if !strings.Contains(lines[i+2], want) {
			t.Errorf("Line %d = %q, want %s", i+2, lines[i+2], want)
		}
	}
}

func TestRecordAndHistory(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "calc.yaml")
	cfg := "output:\n  color: never\nstore:\n  path: " + filepath.ToSlash(filepath.Join(dir, "history.db")) + "\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	execute := func(stdin string, args ...string) string {
		t.Helper()
		resetFlags()
		var stdout bytes.Buffer
		rootCmd.SetIn(strings.NewReader(stdin))
		rootCmd.SetOut(&stdout)
		rootCmd.SetErr(io.Discard)
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		if err := rootCmd.ExecuteContext(context.Background()); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		return stdout.String()
	}

	execute("write 1", "parse", "--record")
	execute("write", "parse", "--record")

	out := execute("", "history", "--json")
	var entries []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("history output is not JSON: %v\n%s", err, out)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 recorded runs, got %d", len(entries))
	}

	failed := execute("", "history", "--failed")
	if !strings.Contains(failed, "failed") || strings.Contains(failed, "write 1") {
		t.Errorf("Expected only the failed run:\n%s", failed)
	}

	stats := execute("", "history", "--stats")
	if !strings.Contains(stats, "ok       1") || !strings.Contains(stats, "failed   1") {
		t.Errorf("Unexpected stats:\n%s", stats)
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "", "version")
	if err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out, "calc v") {
		t.Errorf("Unexpected version output %q", out)
	}
}

type scriptedPrompter struct {
	lines   []string
	history []string
}

func (p *scriptedPrompter) Prompt(string) (string, error) {
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	return line, nil
}

func (p *scriptedPrompter) AppendHistory(item string) {
	p.history = append(p.history, item)
}

func TestReadProgram(t *testing.T) {
	p := &scriptedPrompter{lines: []string{"read a", "write a", "", "write 2"}}

	source, ok, err := readProgram(p)
	if err != nil || !ok {
		t.Fatalf("readProgram() = %v, %v", ok, err)
	}
	if source != "read a\nwrite a" {
		t.Errorf("Expected first program, got %q", source)
	}

	source, ok, _ = readProgram(p)
	if !ok || source != "write 2" {
		t.Errorf("Expected program ended by EOF, got %q (%v)", source, ok)
	}

	if _, ok, _ = readProgram(p); ok {
		t.Error("Expected end of input")
	}
	if len(p.history) != 3 {
		t.Errorf("Expected 3 history items, got %v", p.history)
	}
}

func TestReadProgram_Command(t *testing.T) {
	p := &scriptedPrompter{lines: []string{":quit", "write 1"}}

	source, ok, err := readProgram(p)
	if err != nil || !ok || source != ":quit" {
		t.Errorf("Expected :quit command, got %q, %v, %v", source, ok, err)
	}
}

func TestFirstLine(t *testing.T) {
	tests := []struct {
		source   string
		expected string
	}{
		{"write 1", "write 1"},
		{"read a\nwrite a", "read a ..."},
		{strings.Repeat("x", 50), strings.Repeat("x", 39) + "~"},
	}
	for _, tt := range tests {
		if got := firstLine(tt.source, 40); got != tt.expected {
			t.Errorf("firstLine(%q) = %q, want %q", tt.source, got, tt.expected)
		}
	}
}
