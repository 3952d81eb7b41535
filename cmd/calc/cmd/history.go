package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	"github.com/msto63/calcparse/internal/store"
)

var (
	historyLimit  int
	historyFailed bool
	historySince  time.Duration
	historyJSON   bool
	historyPrune  time.Duration
	historyStats  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs",
	Long: `Lists runs recorded with --record or store.enabled, newest first.

Examples:
  calc history --limit 10
  calc history --failed --since 24h
  calc history --prune 720h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only runs with syntax errors")
	historyCmd.Flags().DurationVar(&historySince, "since", 0, "only runs newer than this")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print runs as JSON")
	historyCmd.Flags().DurationVar(&historyPrune, "prune", 0, "delete runs older than this and exit")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print run counts per status and exit")
}

func runHistory(cmd *cobra.Command, args []string) error {
	runs, err := openStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case historyPrune > 0:
		n, err := runs.Prune(ctx, historyPrune)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Pruned %d runs\n", n)
		return nil

	case historyStats:
		stats, err := runs.Stats(ctx)
		if err != nil {
			return err
		}
		for _, status := range []calc.Status{calc.StatusOK, calc.StatusFailed, calc.StatusAborted} {
			fmt.Fprintf(out, "%-8s %d\n", status, stats[status])
		}
		return nil
	}

	filter := store.RunFilter{Limit: historyLimit}
	if historyFailed {
		filter.Status = calc.StatusFailed
	}
	if historySince > 0 {
		filter.StartTime = time.Now().Add(-historySince)
	}

	entries, err := runs.Query(ctx, filter)
	if err != nil {
		return err
	}

	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tERRORS\tTOKENS\tSOURCE")
	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			id,
			e.Timestamp.Local().Format("2006-01-02 15:04:05"),
			e.Status,
			errorCount(e),
			e.Tokens,
			firstLine(e.Source, 40),
		)
	}
	return tw.Flush()
}

func errorCount(e *store.RunEntry) int {
	n := 0
	for _, d := range e.Diagnostics {
		if strings.HasPrefix(d, "Error:") {
			n++
		}
	}
	return n
}

// firstLine shortens source text to one line of at most max runes
func firstLine(source string, max int) string {
	line := strings.TrimSpace(source)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i] + " ..."
	}
	if r := []rune(line); len(r) > max {
		line = string(r[:max-1]) + "~"
	}
	return line
}
