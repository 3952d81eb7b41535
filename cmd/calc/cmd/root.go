package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	mdwlog "github.com/msto63/calcparse/foundation/core/log"
	"github.com/msto63/calcparse/pkg/core/config"
	coreGrpc "github.com/msto63/calcparse/pkg/core/grpc"
	"github.com/msto63/calcparse/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool

	appConfig *config.Config
	appLogger *mdwlog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "calc",
	Short: "calc - parser for the calc language",
	Long: `calc scans and parses programs of the small calc language and prints
their syntax tree. Syntax errors are reported inline; the parser recovers
and keeps going, so one run reports every error it can find.

Statements:
  read <id>                 write <expr>
  <id> := <expr>            if <cond> <stmts> end
  while <cond> <stmts> end`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// exitError carries a specific process exit code
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute runs the CLI and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printError(err)
		var exit *exitError
		if errors.As(err, &exit) {
			return exit.code
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $CALC_CONFIG or ~/.config/calc/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
}

// setup loads the configuration and installs the default logger
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		appConfig, err = config.Load(cfgFile)
	} else {
		appConfig, err = config.LoadFromEnv()
	}
	if err != nil {
		return err
	}

	level := appConfig.General.LogLevel
	if verbose {
		level = "debug"
	}
	appLogger = logging.NewLogger(logging.LoggerConfig{
		ServiceName: "calc",
		Level:       level,
		Format:      appConfig.General.LogFormat,
		Output:      cmd.ErrOrStderr(),
	})
	mdwlog.SetDefault(appLogger)
	coreGrpc.SetLogger(logging.Wrap(appLogger, "grpc"))

	setColorMode(appConfig.Output.Color)
	return nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
}
