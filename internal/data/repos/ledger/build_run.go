package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/pkg/dbctx"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

type BuildRunRepo interface {
	Create(dbc dbctx.Context, run *types.BuildRun) (*types.BuildRun, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BuildRun, error)
	Finish(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	ListByDataset(dbc dbctx.Context, dataset string, limit int) ([]*types.BuildRun, error)
	LatestSucceeded(dbc dbctx.Context, dataset string, limit int) ([]*types.BuildRun, error)
}

type buildRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBuildRunRepo(db *gorm.DB, baseLog *logger.Logger) BuildRunRepo {
	return &buildRunRepo{
		db:  db,
		log: baseLog.With("repo", "BuildRunRepo"),
	}
}

func (r *buildRunRepo) Create(dbc dbctx.Context, run *types.BuildRun) (*types.BuildRun, error) {
	if run == nil {
		return nil, errors.New("nil build run")
	}
	if run.Status == "" {
		run.Status = types.BuildStatusRunning
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if err := dbc.Handle(r.db).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *buildRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.BuildRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var run types.BuildRun
	if err := dbc.Handle(r.db).Where("id = ?", id).Limit(1).Find(&run).Error; err != nil {
		return nil, err
	}
	if run.ID == uuid.Nil {
		return nil, nil
	}
	return &run, nil
}

// Finish applies the final fields of a run and stamps finished_at.
func (r *buildRunRepo) Finish(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return errors.New("missing build run id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	now := time.Now().UTC()
	updates["finished_at"] = now
	updates["updated_at"] = now
	res := dbc.Handle(r.db).Model(&types.BuildRun{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *buildRunRepo) ListByDataset(dbc dbctx.Context, dataset string, limit int) ([]*types.BuildRun, error) {
	var out []*types.BuildRun
	q := dbc.Handle(r.db).Order("started_at DESC")
	if dataset != "" {
		q = q.Where("dataset = ?", dataset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *buildRunRepo) LatestSucceeded(dbc dbctx.Context, dataset string, limit int) ([]*types.BuildRun, error) {
	var out []*types.BuildRun
	q := dbc.Handle(r.db).
		Where("dataset = ? AND status = ?", dataset, types.BuildStatusSucceeded).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
