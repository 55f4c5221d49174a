package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/archgraph/internal/catalog"
	"github.com/yungbote/archgraph/internal/data/db"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/graphdb/memgraph"
	"github.com/yungbote/archgraph/internal/observability"
	"github.com/yungbote/archgraph/internal/platform/envutil"
	"github.com/yungbote/archgraph/internal/platform/lock"
	"github.com/yungbote/archgraph/internal/platform/logger"
	"github.com/yungbote/archgraph/internal/platform/neo4jdb"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Catalog *catalog.Catalog
	Ledger  *db.LedgerService
	Repos   Repos
	Locker  *lock.Locker
	Metrics *observability.BuildMetrics

	// memory backend graph, kept for the lifetime of the process
	mem          *memgraph.Graph
	otelShutdown func(context.Context) error
}

// NewFromEnv loads .env and the environment, then wires the app.
func NewFromEnv(ctx context.Context) (*App, error) {
	if err := envutil.Load(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a, err := New(ctx, LoadConfig(log), log)
	if err != nil {
		log.Sync()
		return nil, err
	}
	return a, nil
}

// New wires the optional collaborators named by cfg. The graph store is only
// contacted when a build runs.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	a := &App{
		Log:     log,
		Cfg:     cfg,
		Catalog: catalog.Default(),
		Metrics: observability.NewBuildMetrics(),
		mem:     memgraph.New(),
	}
	if cfg.BatchSize > 0 {
		a.Catalog.BatchSize = cfg.BatchSize
	}
	a.otelShutdown = observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: "archgraph",
		Environment: cfg.Environment,
	})

	if cfg.LedgerEnabled {
		ledgerSvc, err := db.NewLedgerService(cfg.Ledger, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init ledger: %w", err)
		}
		a.Ledger = ledgerSvc
		a.Repos = wireRepos(ledgerSvc.DB(), log)
	}

	if cfg.RedisAddr != "" {
		locker, err := lock.Connect(ctx, cfg.RedisAddr, cfg.LockTTL, log)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init build lock: %w", err)
		}
		a.Locker = locker
	}
	return a, nil
}

// lockTarget names the graph a build writes to.
func (a *App) lockTarget() string {
	if a.Cfg.Backend == BackendMemory {
		return BackendMemory
	}
	return a.Cfg.Neo4j.URI + "/" + a.Cfg.Neo4j.Database
}

// withExecutor hands fn the executor of the configured backend. For Neo4j the
// driver lives exactly as long as fn and all statements share one session.
func (a *App) withExecutor(ctx context.Context, fn func(exec graphdb.Executor) error) error {
	if a.Cfg.Backend == BackendMemory {
		return fn(a.mem)
	}
	client, err := neo4jdb.New(ctx, a.Cfg.Neo4j, a.Log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := client.Close(context.Background()); cerr != nil {
			a.Log.Warn("neo4j driver close failed", "error", cerr)
		}
	}()
	return client.WithSession(ctx, fn)
}

// Graph exposes the in-memory store of the memory backend.
func (a *App) Graph() *memgraph.Graph { return a.mem }

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Locker != nil {
		if err := a.Locker.Close(); err != nil {
			a.Log.Warn("redis close failed", "error", err)
		}
		a.Locker = nil
	}
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Log.Warn("ledger close failed", "error", err)
		}
		a.Ledger = nil
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(ctx)
		cancel()
		a.otelShutdown = nil
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
