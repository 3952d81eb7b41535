package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	"github.com/msto63/calcparse/pkg/core/version"
)

const (
	historyFile = ".calc_history"
	promptMain  = "calc> "
	promptCont  = "  ... "
)

var (
	replTrace  bool
	replRecord bool
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Parse programs interactively",
	Long: `Reads programs line by line. A blank line ends a program and parses it.
Type :quit or press Ctrl+D to leave.`,
	Args: cobra.NoArgs,
	RunE: runRepl,
}

func init() {
	rootCmd.AddCommand(replCmd)
	replCmd.Flags().BoolVar(&replTrace, "trace", false, "print predicted productions and matched tokens")
	replCmd.Flags().BoolVar(&replRecord, "record", false, "record every run in the history database")
}

// prompter is the part of liner.State the loop needs
type prompter interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

func runRepl(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "calc v%s, blank line parses, :quit exits\n", version.Version)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	var recorder calc.Recorder
	if replRecord || appConfig.Store.Enabled {
		runs, err := openStore()
		if err != nil {
			return err
		}
		defer runs.Close()
		recorder = runs
	}

	engine, err := calc.New(engineOptions(out, replTrace, recorder))
	if err != nil {
		return err
	}
	return replLoop(cmd, ln, engine, out)
}

func replLoop(cmd *cobra.Command, p prompter, engine *calc.Engine, out io.Writer) error {
	for {
		source, ok, err := readProgram(p)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(out)
			return nil
		}

		switch strings.TrimSpace(source) {
		case "":
			continue
		case ":quit", ":q":
			return nil
		}

		run, err := engine.CompileString(cmd.Context(), source)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		if err := printRun(out, run, appConfig.Output.Format); err != nil {
			return err
		}
	}
}

// readProgram collects lines until a blank line. ok is false at end of
// input with nothing collected.
func readProgram(p prompter) (source string, ok bool, err error) {
	var lines []string
	for {
		prompt := promptMain
		if len(lines) > 0 {
			prompt = promptCont
		}

		line, err := p.Prompt(prompt)
		switch {
		case errors.Is(err, io.EOF):
			return strings.Join(lines, "\n"), len(lines) > 0, nil
		case errors.Is(err, liner.ErrPromptAborted):
			return "", true, nil
		case err != nil:
			return "", false, err
		}

		if strings.TrimSpace(line) == "" {
			return strings.Join(lines, "\n"), true, nil
		}
		p.AppendHistory(line)
		if len(lines) == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			return line, true, nil
		}
		lines = append(lines, line)
	}
}
