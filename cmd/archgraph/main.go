package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yungbote/archgraph/internal/app"
	"github.com/yungbote/archgraph/internal/platform/envutil"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

const (
	exitOK    = 0
	exitBuild = 1
	exitUsage = 2
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// globalOptions override the environment for one invocation.
type globalOptions struct {
	backend     string
	ledger      bool
	noLedger    bool
	metricsFile string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "archgraph:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func newRootCmd() *cobra.Command {
	var opts globalOptions
	root := &cobra.Command{
		Use:           "archgraph",
		Short:         "Build enterprise architecture graphs in Neo4j from declarative datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.backend, "backend", "", "Graph backend: neo4j or memory (default from ARCHGRAPH_BACKEND)")
	root.PersistentFlags().BoolVar(&opts.ledger, "ledger", false, "Record the build in the run ledger even if LEDGER_ENABLED is off")
	root.PersistentFlags().BoolVar(&opts.noLedger, "no-ledger", false, "Do not touch the run ledger")
	root.PersistentFlags().StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	root.AddCommand(
		newSeedCmd(&opts),
		newPlanCmd(),
		newDatasetsCmd(),
		newRunsCmd(&opts),
	)
	return root
}

// openApp loads the environment, applies the flag overrides and wires the app.
func openApp(ctx context.Context, opts *globalOptions) (*app.App, error) {
	if err := envutil.Load(); err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("load .env: %w", err))
	}
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, withCode(exitUsage, fmt.Errorf("init logger: %w", err))
	}
	cfg := app.LoadConfig(log)
	switch opts.backend {
	case "":
	case app.BackendNeo4j, app.BackendMemory:
		cfg.Backend = opts.backend
	default:
		return nil, withCode(exitUsage, fmt.Errorf("invalid --backend %q", opts.backend))
	}
	if opts.ledger {
		cfg.LedgerEnabled = true
	}
	if opts.noLedger {
		cfg.LedgerEnabled = false
	}
	if opts.metricsFile != "" {
		cfg.MetricsFile = opts.metricsFile
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, withCode(exitBuild, err)
	}
	return a, nil
}
