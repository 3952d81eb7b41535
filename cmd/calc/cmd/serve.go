package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/calcparse/foundation/calc"
	"github.com/msto63/calcparse/internal/server"
	"github.com/msto63/calcparse/internal/store"
	"github.com/msto63/calcparse/pkg/core/health"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the calc.v1.Parser gRPC service",
	Long: `Serves calc.v1.Parser/Parse and calc.v1.Parser/Tokenize plus the standard
grpc.health.v1 service. With store.enabled every request is recorded in the
run history.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := server.DefaultConfig()
	cfg.Host = appConfig.Server.Host
	cfg.Port = appConfig.Server.Port
	cfg.Timeout = appConfig.Server.Timeout.Duration
	cfg.Reflection = appConfig.Server.Reflection
	cfg.Logger = appLogger
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	var recorder calc.Recorder
	if appConfig.Store.Enabled {
		runs, err := openStore()
		if err != nil {
			return err
		}
		defer runs.Close()
		recorder = runs
		cfg.Checks = append(cfg.Checks, storeCheck(runs))
	}

	engine, err := calc.New(engineOptions(nil, false, recorder))
	if err != nil {
		return err
	}

	srv, err := server.New(cfg, engine)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Stop(shutdownCtx)
	return nil
}

// storeCheck reports the history database as a health check
func storeCheck(runs *store.SQLiteRunStore) health.Checker {
	return health.NewChecker("store", func(ctx context.Context) health.CheckResult {
		if _, err := runs.Stats(ctx); err != nil {
			return health.CheckResult{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.CheckResult{Status: health.StatusHealthy, Message: "history database reachable"}
	})
}
