package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	mdwerror "github.com/msto63/calcparse/foundation/core/error"
	"github.com/msto63/calcparse/pkg/core/config"
)

var (
	parseFormat string
	parseTrace  bool
	parseRecord bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a program and print its syntax tree",
	Long: `Parses one program read from file, or from stdin when no file or "-"
is given. Syntax errors are printed as they are found, followed by
"Compilation failed" instead of the tree.

Exit status is 0 whenever the program could be read and scanned, even if
it had syntax errors; 2 for lexical errors, 1 for anything else.

Examples:
  calc parse prog.calc
  echo "read a write a * 2" | calc parse --format compact
  calc parse --trace prog.calc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "", "tree output format: tree, compact, json, yaml (default from config)")
	parseCmd.Flags().BoolVar(&parseTrace, "trace", false, "print predicted productions and matched tokens")
	parseCmd.Flags().BoolVar(&parseRecord, "record", false, "record the run in the history database")
}

func runParse(cmd *cobra.Command, args []string) error {
	format := parseFormat
	if format == "" {
		format = appConfig.Output.Format
	}
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q", format)
	}

	in, _, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	var recorder calc.Recorder
	if parseRecord || appConfig.Store.Enabled {
		runs, err := openStore()
		if err != nil {
			return err
		}
		defer runs.Close()
		recorder = runs
	}

	out := cmd.OutOrStdout()
	diagnostics := out
	if structuredFormat(format) {
		diagnostics = cmd.ErrOrStderr()
	}

	engine, err := calc.New(engineOptions(diagnostics, parseTrace, recorder))
	if err != nil {
		return err
	}

	run, err := engine.Compile(cmd.Context(), in)
	if err != nil {
		return compileExit(err)
	}
	return printRun(out, run, format)
}

// printRun prints the tree of a successful run or the failure message
func printRun(w io.Writer, run *calc.Run, format string) error {
	if !run.Succeeded() {
		_, err := fmt.Fprintln(w, errorStyle.Render(calc.FailureMessage))
		return err
	}
	return printTree(w, run.Result.Root, format)
}

// compileExit maps an aborted run to the process exit code
func compileExit(err error) error {
	if mdwerror.HasCode(err, mdwerror.CodeCalcLexical) {
		return &exitError{code: 2, err: err}
	}
	return err
}

func validFormat(format string) bool {
	switch format {
	case config.FormatTree, config.FormatCompact, config.FormatJSON, config.FormatYAML:
		return true
	}
	return false
}
