package report

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/yungbote/archgraph/internal/build"
	"github.com/yungbote/archgraph/internal/catalog"
	"github.com/yungbote/archgraph/internal/datasets"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/graphdb/memgraph"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

func plan(t *testing.T, name string) *build.Plan {
	t.Helper()
	m, err := datasets.Load(name)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	phases, err := build.LoadPhases(logger.Nop())
	if err != nil {
		t.Fatalf("LoadPhases: %v", err)
	}
	p, err := build.NewPlan(m, phases)
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	return p
}

func built(t *testing.T, name string) (*memgraph.Graph, *build.Plan) {
	t.Helper()
	g := memgraph.New()
	p := plan(t, name)
	if _, err := build.NewOrchestrator(g, catalog.Default(), logger.Nop()).Run(context.Background(), p); err != nil {
		t.Fatalf("build %s: %v", name, err)
	}
	return g, p
}

func TestCollectAfterBuild(t *testing.T) {
	g, p := built(t, "heatpump")
	before := len(g.Executed())

	rep, err := NewReporter(g, catalog.Default(), logger.Nop()).Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if !rep.OK() {
		var buf bytes.Buffer
		_ = rep.Render(&buf)
		t.Fatalf("report not OK:\n%s", buf.String())
	}
	if rep.TotalNodes() != 36 || rep.TotalEdges() != 123 {
		t.Fatalf("totals=%d/%d", rep.TotalNodes(), rep.TotalEdges())
	}
	counts := rep.Counts()
	if counts["Person"] != 6 || counts["BELONGS_TO"] != 28 || counts["OWNED_BY"] != 26 {
		t.Fatalf("counts=%v", counts)
	}

	for _, stmt := range g.Executed()[before:] {
		switch stmt.Op {
		case graphdb.OpCountNodes, graphdb.OpCountEdges, graphdb.OpResolveIDs, graphdb.OpTreeEdges:
		default:
			t.Fatalf("reporter issued %s", stmt.Op)
		}
	}
}

func TestRollup(t *testing.T) {
	g, p := built(t, "hp")
	rep, err := NewReporter(g, catalog.Default(), logger.Nop()).Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	want := []Rollup{
		{ID: "hp-cap-manufacturing", Name: "Manufacturing", Own: 9, Children: 2, Total: 24},
		{ID: "hp-cap-sales", Name: "Sales", Own: 7, Children: 1, Total: 13},
		{ID: "hp-cap-service", Name: "Customer Service", Own: 6, Children: 1, Total: 11},
	}
	if len(rep.Rollups) != len(want) {
		t.Fatalf("rollups=%+v", rep.Rollups)
	}
	for i := range want {
		if rep.Rollups[i] != want[i] {
			t.Fatalf("rollup %d=%+v want %+v", i, rep.Rollups[i], want[i])
		}
	}
}

func TestCollectOnEmptyGraphReportsEverything(t *testing.T) {
	g := memgraph.New()
	p := plan(t, "sol")
	rep, err := NewReporter(g, catalog.Default(), logger.Nop()).Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if rep.OK() {
		t.Fatalf("empty graph reported OK")
	}
	if len(rep.MissingIDs) != len(p.Model.Expected.IDs) {
		t.Fatalf("missing=%v", rep.MissingIDs)
	}
	if len(rep.Dangling) != len(p.ReferencedIDs()) {
		t.Fatalf("dangling=%d want %d", len(rep.Dangling), len(p.ReferencedIDs()))
	}

	var buf bytes.Buffer
	if err := rep.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"status: MISMATCH", "missing expected id: sol-app-mes", "Person"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render lacks %q:\n%s", want, out)
		}
	}
}

func TestRenderAndJSON(t *testing.T) {
	g, p := built(t, "sol")
	rep, err := NewReporter(g, catalog.Default(), logger.Nop()).Collect(context.Background(), p)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var buf bytes.Buffer
	if err := rep.Render(&buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "status: OK") || !strings.Contains(out, "Production") || strings.Contains(out, "HOSTS") {
		t.Fatalf("render:\n%s", out)
	}

	buf.Reset()
	if err := rep.WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded Report
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Dataset != "solar" || len(decoded.Nodes) != len(rep.Nodes) {
		t.Fatalf("decoded=%+v", decoded)
	}
}

func TestCountMismatch(t *testing.T) {
	if (Count{Actual: 3, Expected: -1}).Mismatch() {
		t.Fatalf("undeclared count flagged")
	}
	if !(Count{Actual: 3, Expected: 2}).Mismatch() {
		t.Fatalf("wrong count not flagged")
	}
	var nilReport *Report
	if nilReport.OK() {
		t.Fatalf("nil report OK")
	}
}
