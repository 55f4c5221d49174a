package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/archgraph/internal/domain"
)

func SeedBuildRun(tb testing.TB, ctx context.Context, tx *gorm.DB, dataset, status string, startedAt time.Time) *types.BuildRun {
	tb.Helper()
	run := &types.BuildRun{
		ID:        uuid.New(),
		Dataset:   dataset,
		Backend:   "memory",
		Status:    status,
		Counts:    datatypes.JSON([]byte("{}")),
		Phases:    datatypes.JSON([]byte("[]")),
		StartedAt: startedAt,
	}
	if err := tx.WithContext(ctx).Create(run).Error; err != nil {
		tb.Fatalf("seed build run: %v", err)
	}
	return run
}
