package app

import (
	"strings"
	"time"

	"github.com/yungbote/archgraph/internal/data/db"
	"github.com/yungbote/archgraph/internal/platform/envutil"
	"github.com/yungbote/archgraph/internal/platform/logger"
	"github.com/yungbote/archgraph/internal/platform/neo4jdb"
)

const (
	BackendNeo4j  = "neo4j"
	BackendMemory = "memory"
)

type Config struct {
	LogMode     string
	Environment string
	Backend     string

	Neo4j neo4jdb.Config

	LedgerEnabled bool
	Ledger        db.LedgerConfig

	RedisAddr string
	LockTTL   time.Duration

	BatchSize   int
	MetricsFile string
}

// LoadConfig reads the process environment. Call envutil.Load first so a
// .env file is honoured.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		LogMode:       envutil.String("LOG_MODE", "development"),
		Environment:   envutil.String("ARCHGRAPH_ENV", "dev"),
		Backend:       strings.ToLower(envutil.String("ARCHGRAPH_BACKEND", BackendNeo4j)),
		Neo4j:         neo4jdb.ConfigFromEnv(),
		LedgerEnabled: envutil.Bool("LEDGER_ENABLED", true),
		Ledger:        db.LedgerConfigFromEnv(),
		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		LockTTL:       envutil.Seconds("BUILD_LOCK_TTL_SECONDS", 30*time.Minute),
		BatchSize:     envutil.Int("ARCHGRAPH_BATCH_SIZE", 0),
		MetricsFile:   envutil.String("ARCHGRAPH_METRICS_FILE", ""),
	}
	if cfg.Backend != BackendNeo4j && cfg.Backend != BackendMemory {
		if log != nil {
			log.Warn("unknown ARCHGRAPH_BACKEND; using neo4j", "backend", cfg.Backend)
		}
		cfg.Backend = BackendNeo4j
	}
	return cfg
}
