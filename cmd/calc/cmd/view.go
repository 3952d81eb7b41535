package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	"github.com/msto63/calcparse/internal/store"
	"github.com/msto63/calcparse/internal/tui/viewer"
)

var (
	viewLimit   int
	viewRefresh time.Duration
)

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "Browse runs in an interactive viewer",
	Long: `Without a file, browses the recorded run history. With a file, parses it
and shows the single run: numbered source, diagnostics and syntax tree.

Keys:
  1-3         toggle ok / failed / aborted runs
  0           show all
  ←/→ n/N     next / previous run
  ↑/↓ PgUp/Dn scroll
  p / Space   pause reloading
  r           reload
  q / Ctrl+C  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().IntVar(&viewLimit, "limit", 200, "maximum number of runs loaded from history")
	viewCmd.Flags().DurationVar(&viewRefresh, "refresh", 2*time.Second, "history reload interval (0 disables)")
}

func runView(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		in, _, err := openInput(cmd, args)
		if err != nil {
			return err
		}
		defer in.Close()

		engine, err := calc.New(engineOptions(nil, false, nil))
		if err != nil {
			return err
		}
		// aborted runs are still shown
		run, _ := engine.Compile(cmd.Context(), in)
		if run == nil {
			return cmd.Context().Err()
		}
		return viewer.Run(viewer.Config{Loader: viewer.StaticLoader(store.EntryFromRun(run))})
	}

	runs, err := openStore()
	if err != nil {
		return err
	}
	defer runs.Close()

	return viewer.Run(viewer.Config{
		Loader:  viewer.StoreLoader(runs, viewLimit),
		Refresh: viewRefresh,
	})
}
