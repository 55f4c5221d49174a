package build

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/archgraph/internal/catalog"
	"github.com/yungbote/archgraph/internal/datasets"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

var testNow = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC) }

func ent(cat *catalog.Catalog, label types.Label, id string, props map[string]any) types.Entity {
	et, _ := cat.Entity(label)
	p := map[string]any{}
	for _, k := range et.Required {
		p[k] = "x"
	}
	for k, v := range props {
		p[k] = v
	}
	return types.Entity{Label: label, ID: id, Name: id, Props: p}
}

// tinyModel is a company with one person, a two level capability tree and
// one application supporting the child capability.
func tinyModel(cat *catalog.Catalog) *types.Model {
	return &types.Model{
		Name:      "tiny",
		Namespace: "t",
		Company:   ent(cat, types.LabelCompany, "t-company-acme", nil),
		Entities: []types.Entity{
			ent(cat, types.LabelPerson, "t-person-ann", nil),
			ent(cat, types.LabelBusinessCapability, "t-cap-manufacturing", map[string]any{"level": 1, "businessValue": 9}),
			ent(cat, types.LabelBusinessCapability, "t-cap-quality", map[string]any{"level": 2, "businessValue": 8}),
			ent(cat, types.LabelApplication, "t-app-qms", nil),
		},
		Ownership: []types.Link{
			{Type: types.RelEmployedBy, From: "t-person-ann", FromLabel: types.LabelPerson, To: "t-company-acme", ToLabel: types.LabelCompany},
			{Type: types.RelOwnedBy, From: "t-app-qms", FromLabel: types.LabelApplication, To: "t-person-ann", ToLabel: types.LabelPerson},
		},
		Hierarchy: []types.Link{
			{Type: types.RelHasParent, From: "t-cap-quality", FromLabel: types.LabelBusinessCapability, To: "t-cap-manufacturing", ToLabel: types.LabelBusinessCapability},
		},
		Relationships: []types.Link{
			{Type: types.RelSupports, From: "t-app-qms", FromLabel: types.LabelApplication, To: "t-cap-quality", ToLabel: types.LabelBusinessCapability},
		},
	}
}

func defaultPlan(t *testing.T, m *types.Model) *Plan {
	t.Helper()
	p, err := NewPlan(m, fallbackPhases)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	return p
}

func datasetPlan(t *testing.T, name string) *Plan {
	t.Helper()
	m, err := datasets.Load(name)
	if err != nil {
		t.Fatalf("Load %s: %v", name, err)
	}
	return defaultPlan(t, m)
}

func newTestOrchestrator(exec graphdb.Executor, cat *catalog.Catalog) *Orchestrator {
	return NewOrchestrator(exec, cat, logger.Nop()).WithClock(testNow)
}

var errInjected = errors.New("injected failure")

// failingExec fails the first statement with op and passes everything else through.
type failingExec struct {
	next graphdb.Executor
	op   graphdb.Op
	seen []graphdb.Op
}

func (f *failingExec) Execute(ctx context.Context, stmt graphdb.Statement) (*graphdb.Result, error) {
	f.seen = append(f.seen, stmt.Op)
	if stmt.Op == f.op {
		return nil, &graphdb.StatementError{Intent: stmt.Intent, Err: errInjected}
	}
	return f.next.Execute(ctx, stmt)
}
