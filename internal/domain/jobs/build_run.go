package jobs

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BuildStatusRunning   = "running"
	BuildStatusSucceeded = "succeeded"
	BuildStatusFailed    = "failed"
)

// BuildRun is one execution of the builder against a graph store.
type BuildRun struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Dataset     string         `gorm:"column:dataset;not null;index" json:"dataset"`
	Backend     string         `gorm:"column:backend;not null" json:"backend"`
	Status      string         `gorm:"column:status;not null;index" json:"status"`
	FailedPhase string         `gorm:"column:failed_phase" json:"failed_phase,omitempty"`
	Error       string         `gorm:"column:error" json:"error,omitempty"`
	Nodes       int            `gorm:"column:nodes;not null;default:0" json:"nodes"`
	Edges       int            `gorm:"column:edges;not null;default:0" json:"edges"`
	Counts      datatypes.JSON `gorm:"column:counts" json:"counts"`
	Phases      datatypes.JSON `gorm:"column:phases" json:"phases"`
	StartedAt   time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt  *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
}

func (BuildRun) TableName() string { return "build_run" }

func (r *BuildRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
