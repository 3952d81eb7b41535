package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
)

var tokensJSON bool

var tokensCmd = &cobra.Command{
	Use:   "tokens [file]",
	Short: "Print the token stream of a program",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.Flags().BoolVar(&tokensJSON, "json", false, "print tokens as JSON")
}

func runTokens(cmd *cobra.Command, args []string) error {
	in, _, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()

	engine, err := calc.New(engineOptions(nil, false, nil))
	if err != nil {
		return err
	}

	tokens, err := engine.Tokens(cmd.Context(), in)
	if tokensJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(tokens); encErr != nil {
			return encErr
		}
	} else {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "LINE:COL\tTYPE\tVALUE")
		for _, tok := range tokens {
			fmt.Fprintf(tw, "%d:%d\t%s\t%s\n", tok.Line, tok.Column, tok.Type, tok.Value)
		}
		tw.Flush()
	}
	if err != nil {
		return compileExit(err)
	}
	return nil
}
