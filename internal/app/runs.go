package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/pkg/dbctx"
)

var ErrLedgerDisabled = errors.New("build ledger is disabled")

func (a *App) ListRuns(ctx context.Context, dataset string, limit int) ([]*types.BuildRun, error) {
	if a.Repos.BuildRuns == nil {
		return nil, ErrLedgerDisabled
	}
	return a.Repos.BuildRuns.ListByDataset(dbctx.Context{Ctx: ctx}, dataset, limit)
}

type CountDiff struct {
	Name     string
	Previous int
	Latest   int
}

// RunComparison holds the two most recent successful runs of a dataset.
// Previous is nil when only one run exists.
type RunComparison struct {
	Latest   *types.BuildRun
	Previous *types.BuildRun
	Diffs    []CountDiff
}

// Stable is true when both runs produced the same graph.
func (c *RunComparison) Stable() bool {
	return c != nil && c.Previous != nil && len(c.Diffs) == 0
}

// CompareRuns diffs the counts of the last two successful runs, which shows
// whether rebuilding a dataset is idempotent.
func (a *App) CompareRuns(ctx context.Context, dataset string) (*RunComparison, error) {
	if a.Repos.BuildRuns == nil {
		return nil, ErrLedgerDisabled
	}
	runs, err := a.Repos.BuildRuns.LatestSucceeded(dbctx.Context{Ctx: ctx}, dataset, 2)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no successful run of %s", dataset)
	}
	cmp := &RunComparison{Latest: runs[0]}
	if len(runs) < 2 {
		return cmp, nil
	}
	cmp.Previous = runs[1]
	cmp.Diffs, err = diffRuns(cmp.Previous, cmp.Latest)
	if err != nil {
		return nil, err
	}
	return cmp, nil
}

func diffRuns(prev, latest *types.BuildRun) ([]CountDiff, error) {
	before, err := decodeCounts(prev)
	if err != nil {
		return nil, err
	}
	after, err := decodeCounts(latest)
	if err != nil {
		return nil, err
	}
	before["nodes"], after["nodes"] = prev.Nodes, latest.Nodes
	before["edges"], after["edges"] = prev.Edges, latest.Edges

	names := map[string]bool{}
	for k := range before {
		names[k] = true
	}
	for k := range after {
		names[k] = true
	}
	var out []CountDiff
	for name := range names {
		if before[name] != after[name] {
			out = append(out, CountDiff{Name: name, Previous: before[name], Latest: after[name]})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func decodeCounts(run *types.BuildRun) (map[string]int, error) {
	out := map[string]int{}
	if len(run.Counts) == 0 {
		return out, nil
	}
	if err := json.Unmarshal([]byte(run.Counts), &out); err != nil {
		return nil, fmt.Errorf("decode counts of run %s: %w", run.ID, err)
	}
	return out, nil
}
