package db

import (
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/archgraph/internal/platform/envutil"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

const defaultSQLitePath = "archgraph-ledger.db"

type LedgerConfig struct {
	// DSN selects Postgres; empty means the local SQLite file at SQLitePath.
	DSN        string
	SQLitePath string
}

func LedgerConfigFromEnv() LedgerConfig {
	return LedgerConfig{
		DSN:        envutil.String("LEDGER_DSN", ""),
		SQLitePath: envutil.String("LEDGER_SQLITE_PATH", defaultSQLitePath),
	}
}

type LedgerService struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewLedgerService opens the build ledger and migrates its tables.
func NewLedgerService(cfg LedgerConfig, logg *logger.Logger) (*LedgerService, error) {
	serviceLog := logg.With("service", "LedgerService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		db      *gorm.DB
		err     error
		dialect string
	)
	if cfg.DSN != "" {
		dialect = "postgres"
		db, err = gorm.Open(postgres.Open(cfg.DSN), gcfg)
	} else {
		dialect = "sqlite"
		path := cfg.SQLitePath
		if path == "" {
			path = defaultSQLitePath
		}
		db, err = gorm.Open(sqlite.Open(path), gcfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s ledger: %w", dialect, err)
	}
	if err := AutoMigrateAll(db); err != nil {
		return nil, fmt.Errorf("failed to migrate ledger: %w", err)
	}

	serviceLog.Info("ledger ready", "dialect", dialect, "dsn", cfg.DSN)
	return &LedgerService{db: db, log: serviceLog}, nil
}

func (s *LedgerService) DB() *gorm.DB { return s.db }

func (s *LedgerService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
