package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	"github.com/msto63/calcparse/internal/server"
)

var (
	remoteAddr   string
	remoteFormat string
)

var remoteCmd = &cobra.Command{
	Use:   "remote [file]",
	Short: "Parse a program on a calc server",
	Long: `Sends the program to a running "calc serve" and prints the result the
same way "calc parse" does.

Examples:
  calc remote prog.calc
  calc remote --addr 10.0.0.5:9310 --format compact prog.calc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRemote,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.Flags().StringVar(&remoteAddr, "addr", "", "server address (default from config)")
	remoteCmd.Flags().StringVarP(&remoteFormat, "format", "f", "", "tree output format: tree, compact, json, yaml")
}

func runRemote(cmd *cobra.Command, args []string) error {
	format := remoteFormat
	if format == "" {
		format = appConfig.Output.Format
	}
	if !validFormat(format) {
		return fmt.Errorf("unknown format %q", format)
	}
	addr := remoteAddr
	if addr == "" {
		addr = appConfig.ServerAddress()
	}

	in, _, err := openInput(cmd, args)
	if err != nil {
		return err
	}
	defer in.Close()
	source, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	client, err := server.Dial(addr, appConfig.Server.Timeout.Duration)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := client.Parse(cmd.Context(), string(source))
	if err != nil {
		return fmt.Errorf("remote parse at %s: %w", addr, err)
	}

	out := cmd.OutOrStdout()
	diagnostics := out
	if structuredFormat(format) {
		diagnostics = cmd.ErrOrStderr()
	}
	for _, d := range result.Diagnostics {
		fmt.Fprintln(diagnostics, d)
	}
	if result.Failed() {
		fmt.Fprintln(out, errorStyle.Render(calc.FailureMessage))
		return nil
	}
	return printTree(out, result.Tree, format)
}
