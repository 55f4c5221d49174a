package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/archgraph/internal/build"
	"github.com/yungbote/archgraph/internal/datasets"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/pkg/dbctx"
	"github.com/yungbote/archgraph/internal/report"
	"github.com/yungbote/archgraph/internal/schema"
)

// ErrReportMismatch fails a tested build whose report shows a discrepancy.
var ErrReportMismatch = errors.New("report shows discrepancies")

// SeedOptions selects one "initialize scenario" run. File wins over Dataset.
type SeedOptions struct {
	Dataset string
	File    string
	Reset   bool
	Test    bool
}

type SeedResult struct {
	RunID   uuid.UUID
	Plan    *build.Plan
	Summary *build.Summary
	Report  *report.Report
}

// LoadPlan resolves the dataset and expands the declared phases against it.
// Nothing is contacted.
func (a *App) LoadPlan(opts SeedOptions) (*build.Plan, error) {
	var (
		model *types.Model
		err   error
	)
	if opts.File != "" {
		model, err = datasets.LoadFile(opts.File)
	} else {
		model, err = datasets.Load(opts.Dataset)
	}
	if err != nil {
		return nil, err
	}
	phases, err := build.LoadPhases(a.Log)
	if err != nil {
		return nil, err
	}
	return build.NewPlan(model, phases)
}

// Seed builds one dataset into the configured graph store: optional reset,
// every phase in order, then the report when opts.Test is set. The returned
// error is a *build.PhaseError naming the phase that failed.
func (a *App) Seed(ctx context.Context, opts SeedOptions) (*SeedResult, error) {
	plan, err := a.LoadPlan(opts)
	if err != nil {
		return nil, &build.PhaseError{Phase: "plan", Step: "load", Err: err}
	}
	dataset := plan.Model.Name
	log := a.Log.With("dataset", dataset, "backend", a.Cfg.Backend)

	if a.Locker != nil {
		lease, err := a.Locker.Acquire(ctx, a.lockTarget())
		if err != nil {
			return nil, &build.PhaseError{Phase: "lock", Step: "acquire", Err: err}
		}
		defer func() {
			if rerr := lease.Release(context.Background()); rerr != nil {
				log.Warn("build lock release failed", "error", rerr)
			}
		}()
	}

	started := time.Now().UTC()
	res := &SeedResult{Plan: plan}
	res.RunID = a.startRun(ctx, dataset, started)

	err = a.withExecutor(ctx, func(exec graphdb.Executor) error {
		if opts.Reset {
			if err := schema.NewManager(exec, a.Catalog, a.Log).Prepare(ctx); err != nil {
				return &build.PhaseError{Phase: "reset", Step: "prepare", Err: err}
			}
		}
		summary, err := build.NewOrchestrator(exec, a.Catalog, a.Log).Run(ctx, plan)
		res.Summary = summary
		if err != nil {
			return err
		}
		if !opts.Test {
			return nil
		}
		rep, err := report.NewReporter(exec, a.Catalog, a.Log).Collect(ctx, plan)
		if err != nil {
			return &build.PhaseError{Phase: "report", Step: "collect", Err: err}
		}
		res.Report = rep
		if !rep.OK() {
			return &build.PhaseError{Phase: "report", Step: "validate", Err: ErrReportMismatch}
		}
		return nil
	})
	var pe *build.PhaseError
	if err != nil && !errors.As(err, &pe) {
		err = &build.PhaseError{Phase: "connect", Step: "open session", Err: err}
	}

	a.recordMetrics(dataset, res, err)
	a.finishRun(ctx, res, err)
	if err != nil {
		log.Error("seed failed", "error", err)
		return res, err
	}
	nodes, edges := res.Summary.Totals()
	log.Info("seed complete", "nodes", nodes, "edges", edges, "duration", time.Since(started))
	return res, nil
}

// startRun records a running ledger entry. The ledger is bookkeeping only, so
// a failed write is logged and the build goes on.
func (a *App) startRun(ctx context.Context, dataset string, started time.Time) uuid.UUID {
	if a.Repos.BuildRuns == nil {
		return uuid.Nil
	}
	run, err := a.Repos.BuildRuns.Create(dbctx.Context{Ctx: ctx}, &types.BuildRun{
		Dataset:   dataset,
		Backend:   a.Cfg.Backend,
		Status:    types.BuildStatusRunning,
		StartedAt: started,
	})
	if err != nil {
		a.Log.Warn("ledger create failed", "dataset", dataset, "error", err)
		return uuid.Nil
	}
	return run.ID
}

type phaseRecord struct {
	Name       string `json:"name"`
	Nodes      int    `json:"nodes"`
	Edges      int    `json:"edges"`
	DurationMS int64  `json:"duration_ms"`
}

func (a *App) finishRun(ctx context.Context, res *SeedResult, buildErr error) {
	if a.Repos.BuildRuns == nil || res.RunID == uuid.Nil {
		return
	}
	updates := map[string]interface{}{"status": types.BuildStatusSucceeded}
	if buildErr != nil {
		updates["status"] = types.BuildStatusFailed
		updates["error"] = buildErr.Error()
		var pe *build.PhaseError
		if errors.As(buildErr, &pe) {
			updates["failed_phase"] = pe.Phase
		}
	}
	if res.Summary != nil {
		nodes, edges := res.Summary.Totals()
		updates["nodes"] = nodes
		updates["edges"] = edges
		phases := make([]phaseRecord, 0, len(res.Summary.Phases))
		for _, p := range res.Summary.Phases {
			phases = append(phases, phaseRecord{Name: p.Name, Nodes: p.NodesCreated, Edges: p.EdgesCreated, DurationMS: p.Duration.Milliseconds()})
		}
		if raw, err := json.Marshal(phases); err == nil {
			updates["phases"] = datatypes.JSON(raw)
		}
	}
	if res.Report != nil {
		updates["nodes"] = res.Report.TotalNodes()
		updates["edges"] = res.Report.TotalEdges()
		if raw, err := json.Marshal(res.Report.Counts()); err == nil {
			updates["counts"] = datatypes.JSON(raw)
		}
	}
	if err := a.Repos.BuildRuns.Finish(dbctx.Context{Ctx: ctx}, res.RunID, updates); err != nil {
		a.Log.Warn("ledger finish failed", "run_id", res.RunID, "error", err)
	}
}

func (a *App) recordMetrics(dataset string, res *SeedResult, buildErr error) {
	if a.Metrics == nil {
		return
	}
	status := types.BuildStatusSucceeded
	if buildErr != nil {
		status = types.BuildStatusFailed
	}
	if res.Summary != nil {
		var failedPhase string
		var pe *build.PhaseError
		if errors.As(buildErr, &pe) {
			failedPhase = pe.Phase
		}
		for _, p := range res.Summary.Phases {
			phaseStatus := "ok"
			if p.Name == failedPhase {
				phaseStatus = "failed"
			}
			a.Metrics.ObservePhase(dataset, p.Name, phaseStatus, p.Duration)
		}
	}
	if res.Report != nil {
		for _, c := range res.Report.Nodes {
			a.Metrics.SetNodeCount(dataset, c.Name, c.Actual)
		}
		for _, c := range res.Report.Edges {
			a.Metrics.SetEdgeCount(dataset, c.Name, c.Actual)
		}
	}
	a.Metrics.ObserveBuild(dataset, status, time.Now())
	if a.Cfg.MetricsFile != "" {
		if err := a.Metrics.WriteFile(a.Cfg.MetricsFile, a.Log); err != nil {
			a.Log.Warn("metrics textfile write failed", "path", a.Cfg.MetricsFile, "error", err)
		}
	}
}

// DescribeFailure is the one-line diagnostic printed when a seed fails.
func DescribeFailure(err error) string {
	var pe *build.PhaseError
	if errors.As(err, &pe) {
		return fmt.Sprintf("build failed in phase %q (step %q): %v", pe.Phase, pe.Step, pe.Err)
	}
	return fmt.Sprintf("build failed: %v", err)
}
