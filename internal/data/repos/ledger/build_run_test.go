package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/archgraph/internal/data/repos/testutil"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/pkg/dbctx"
)

func TestBuildRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewBuildRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()
	older := testutil.SeedBuildRun(t, ctx, tx, "heatpump", types.BuildStatusSucceeded, now.Add(-2*time.Hour))
	failed := testutil.SeedBuildRun(t, ctx, tx, "heatpump", types.BuildStatusFailed, now.Add(-90*time.Minute))
	newer := testutil.SeedBuildRun(t, ctx, tx, "heatpump", types.BuildStatusSucceeded, now.Add(-1*time.Hour))
	testutil.SeedBuildRun(t, ctx, tx, "solar", types.BuildStatusSucceeded, now)

	t.Run("Create", func(t *testing.T) {
		run, err := repo.Create(dbc, &types.BuildRun{Dataset: "heatpump", Backend: "neo4j"})
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, run.ID)
		assert.Equal(t, types.BuildStatusRunning, run.Status)
		assert.False(t, run.StartedAt.IsZero())

		got, err := repo.GetByID(dbc, run.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "neo4j", got.Backend)
	})

	t.Run("Finish", func(t *testing.T) {
		err := repo.Finish(dbc, failed.ID, map[string]interface{}{
			"status":       types.BuildStatusFailed,
			"failed_phase": "relationships",
			"error":        "dangling reference",
			"counts":       datatypes.JSON([]byte(`{"Person":6}`)),
		})
		require.NoError(t, err)

		got, err := repo.GetByID(dbc, failed.ID)
		require.NoError(t, err)
		require.NotNil(t, got.FinishedAt)
		assert.Equal(t, "relationships", got.FailedPhase)
		assert.JSONEq(t, `{"Person":6}`, string(got.Counts))

		err = repo.Finish(dbc, uuid.New(), map[string]interface{}{"status": types.BuildStatusSucceeded})
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("LatestSucceeded", func(t *testing.T) {
		runs, err := repo.LatestSucceeded(dbc, "heatpump", 2)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, newer.ID, runs[0].ID)
		assert.Equal(t, older.ID, runs[1].ID)
	})

	t.Run("ListByDataset", func(t *testing.T) {
		runs, err := repo.ListByDataset(dbc, "solar", 10)
		require.NoError(t, err)
		assert.Len(t, runs, 1)

		all, err := repo.ListByDataset(dbc, "", 0)
		require.NoError(t, err)
		assert.Len(t, all, 5)
	})

	t.Run("GetByIDMissing", func(t *testing.T) {
		got, err := repo.GetByID(dbc, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
