package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/archgraph/internal/data/repos/ledger"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

type Repos struct {
	BuildRuns ledger.BuildRunRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Debug("Wiring repos...")
	return Repos{
		BuildRuns: ledger.NewBuildRunRepo(db, log),
	}
}
