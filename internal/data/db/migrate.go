package db

import (
	"gorm.io/gorm"

	types "github.com/yungbote/archgraph/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.BuildRun{},
	)
}
