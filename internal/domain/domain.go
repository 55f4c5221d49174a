package domain

import "github.com/yungbote/archgraph/internal/domain/jobs"

type BuildRun = jobs.BuildRun

const (
	BuildStatusRunning   = jobs.BuildStatusRunning
	BuildStatusSucceeded = jobs.BuildStatusSucceeded
	BuildStatusFailed    = jobs.BuildStatusFailed
)
