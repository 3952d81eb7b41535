package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/msto63/calcparse/foundation/calc"
	mdwast "github.com/msto63/calcparse/foundation/calc/ast"
	mdwparser "github.com/msto63/calcparse/foundation/calc/parser"
	"github.com/msto63/calcparse/internal/store"
	"github.com/msto63/calcparse/pkg/core/config"
)

var (
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	retryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	skipStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#94A3B8"))
	traceStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748B"))
	identStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#06B6D4"))
	literalStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	operatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8B5CF6")).Bold(true)
)

// setColorMode applies output.color: auto leaves terminal detection to
// lipgloss
func setColorMode(mode string) {
	switch mode {
	case "always":
		lipgloss.SetColorProfile(termenv.TrueColor)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// openInput opens the program named by args, or stdin for none or "-"
func openInput(cmd interface{ InOrStdin() io.Reader }, args []string) (io.ReadCloser, string, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), "<stdin>", nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, "", err
	}
	return f, args[0], nil
}

// styledReporter prints diagnostics and the trace inline, coloured
type styledReporter struct {
	w     io.Writer
	trace bool
}

func (r *styledReporter) Diagnostic(d mdwparser.Diagnostic) {
	line := d.String()
	switch d.Kind {
	case mdwparser.DiagnosticError:
		line = errorStyle.Render(line)
	case mdwparser.DiagnosticRetry:
		line = retryStyle.Render(line)
	default:
		line = skipStyle.Render(line)
	}
	fmt.Fprintln(r.w, line)
}

func (r *styledReporter) Predict(p *mdwparser.Production) {
	if r.trace {
		fmt.Fprintln(r.w, traceStyle.Render("predict "+p.String()))
	}
}

func (r *styledReporter) Match(tok mdwparser.Token) {
	if r.trace {
		fmt.Fprintln(r.w, traceStyle.Render(mdwparser.MatchTrace(tok)))
	}
}

// engineOptions builds engine options from the loaded configuration
func engineOptions(diagnostics io.Writer, trace bool, recorder calc.Recorder) calc.Options {
	opts := calc.Options{
		Logger:         appLogger,
		MaxTokenLength: appConfig.Parser.MaxTokenLength,
		Recorder:       recorder,
	}
	if diagnostics != nil {
		opts.Reporter = &styledReporter{w: diagnostics, trace: trace || appConfig.Parser.Trace}
	}
	return opts
}

// openStore opens the run history database
func openStore() (*store.SQLiteRunStore, error) {
	return store.NewSQLiteRunStore(store.SQLiteRunConfig{Path: appConfig.Store.Path})
}

// decorateLabel colours tree labels
func decorateLabel(n *mdwast.Node, label string) string {
	switch {
	case strings.HasPrefix(label, "id '"):
		return identStyle.Render(label)
	case strings.HasPrefix(label, "literal '"):
		return literalStyle.Render(label)
	case n.IsLeaf():
		return label
	default:
		return operatorStyle.Render(label)
	}
}

// printTree writes a tree in one of the output formats
func printTree(w io.Writer, root *mdwast.Node, format string) error {
	switch format {
	case config.FormatCompact:
		_, err := fmt.Fprintln(w, mdwast.Printer{Style: mdwast.StyleCompact, Decorate: decorateLabel}.Sprint(root))
		return err
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(root)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(root); err != nil {
			return err
		}
		return enc.Close()
	default:
		return mdwast.Printer{Style: mdwast.StyleIndented, Decorate: decorateLabel}.Fprint(w, root)
	}
}

// structuredFormat reports whether format is machine readable, in which
// case diagnostics go to stderr
func structuredFormat(format string) bool {
	return format == config.FormatJSON || format == config.FormatYAML
}
