// Package report reads back a built graph and compares it with what the plan
// said it would create. It never writes.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/yungbote/archgraph/internal/build"
	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/hierarchy"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

// Count is one label or relationship type. Expected is -1 when nothing was
// declared for it.
type Count struct {
	Name     string `json:"name"`
	Actual   int    `json:"actual"`
	Expected int    `json:"expected"`
}

func (c Count) Mismatch() bool { return c.Expected >= 0 && c.Actual != c.Expected }

// Rollup sums businessValue below one level-1 capability.
type Rollup struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Own      int    `json:"own"`
	Children int    `json:"children"`
	Total    int    `json:"total"`
}

type Report struct {
	Dataset    string   `json:"dataset"`
	Nodes      []Count  `json:"nodes"`
	Edges      []Count  `json:"edges"`
	MissingIDs []string `json:"missingIds,omitempty"`
	Dangling   []string `json:"dangling,omitempty"`
	Rollups    []Rollup `json:"rollups,omitempty"`
}

// OK is true when every declared count matches and every id is present.
func (r *Report) OK() bool {
	if r == nil {
		return false
	}
	if len(r.MissingIDs) > 0 || len(r.Dangling) > 0 {
		return false
	}
	for _, c := range append(append([]Count(nil), r.Nodes...), r.Edges...) {
		if c.Mismatch() {
			return false
		}
	}
	return true
}

func (r *Report) TotalNodes() int { return sum(r.Nodes) }
func (r *Report) TotalEdges() int { return sum(r.Edges) }

func sum(cs []Count) int {
	n := 0
	for _, c := range cs {
		n += c.Actual
	}
	return n
}

// Counts flattens the report into label and type totals, keyed by name.
func (r *Report) Counts() map[string]int {
	out := make(map[string]int, len(r.Nodes)+len(r.Edges))
	for _, c := range r.Nodes {
		out[c.Name] = c.Actual
	}
	for _, c := range r.Edges {
		out[c.Name] = c.Actual
	}
	return out
}

type Reporter struct {
	exec graphdb.Executor
	cat  *catalog.Catalog
	log  *logger.Logger
}

func NewReporter(exec graphdb.Executor, cat *catalog.Catalog, log *logger.Logger) *Reporter {
	return &Reporter{exec: exec, cat: cat, log: log.With("component", "Reporter")}
}

// Collect counts every label and relationship type within the dataset's id
// prefixes, checks the ids the dataset expects and the ids its links
// reference, and rolls business value up to the level-1 capabilities.
func (r *Reporter) Collect(ctx context.Context, p *build.Plan) (*Report, error) {
	if p == nil || p.Model == nil {
		return nil, fmt.Errorf("report: missing plan")
	}
	m := p.Model
	rep := &Report{Dataset: m.Name}
	// other datasets may share the graph
	scope := r.cat.IDPrefixes(m.Namespace)

	for _, l := range types.AllLabels {
		n, err := r.count(ctx, graphdb.CountNodes(string(l), scope...))
		if err != nil {
			return nil, err
		}
		want, ok := m.Expected.Counts[l]
		if !ok {
			want = -1
		}
		rep.Nodes = append(rep.Nodes, Count{Name: string(l), Actual: n, Expected: want})
	}

	expectedEdges := p.ExpectedEdgeCounts(r.cat)
	for _, rel := range types.AllRelTypes {
		n, err := r.count(ctx, graphdb.CountEdges(string(rel), scope...))
		if err != nil {
			return nil, err
		}
		want := expectedEdges[rel]
		if rel == types.RelBelongsTo {
			// depends on what the other phases left unattached
			want = -1
		}
		rep.Edges = append(rep.Edges, Count{Name: string(rel), Actual: n, Expected: want})
	}

	var err error
	if rep.MissingIDs, err = r.absent(ctx, m.Expected.IDs); err != nil {
		return nil, err
	}
	if rep.Dangling, err = r.absent(ctx, p.ReferencedIDs()); err != nil {
		return nil, err
	}

	nodes, err := hierarchy.Load(ctx, r.exec, hierarchy.CapabilityTree, "businessValue", scope...)
	if err != nil {
		return nil, err
	}
	rep.Rollups = rollup(nodes)

	r.log.Info("report collected", "dataset", m.Name, "nodes", rep.TotalNodes(), "edges", rep.TotalEdges(), "ok", rep.OK())
	return rep, nil
}

func (r *Reporter) count(ctx context.Context, stmt graphdb.Statement) (int, error) {
	res, err := r.exec.Execute(ctx, stmt)
	if err != nil {
		return 0, err
	}
	if len(res.Records) == 0 {
		return 0, nil
	}
	return res.Records[0].Int("count"), nil
}

// absent returns the ids that resolve to no node, sorted.
func (r *Reporter) absent(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	res, err := r.exec.Execute(ctx, graphdb.ResolveIDs(ids))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, rec := range res.Records {
		if len(rec.Strings("labels")) == 0 {
			out = append(out, rec.String("id"))
		}
	}
	sort.Strings(out)
	return out, nil
}

func rollup(nodes []hierarchy.Node) []Rollup {
	byRoot := map[string]*Rollup{}
	for _, n := range nodes {
		if n.Level == 1 {
			byRoot[n.ID] = &Rollup{ID: n.ID, Name: n.Name, Own: n.Value, Total: n.Value}
		}
	}
	for _, n := range nodes {
		if n.Level != 2 || len(n.Parents) != 1 {
			continue
		}
		if root, ok := byRoot[n.Parents[0]]; ok {
			root.Children++
			root.Total += n.Value
		}
	}
	out := make([]Rollup, 0, len(byRoot))
	for _, r := range byRoot {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Render prints the report as aligned tables.
func (r *Report) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "dataset: %s\n\n", r.Dataset)
	fmt.Fprintln(tw, "LABEL\tACTUAL\tEXPECTED\t")
	for _, c := range r.Nodes {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Name, c.Actual, expected(c), flag(c))
	}
	fmt.Fprintf(tw, "total\t%d\t\t\n\n", r.TotalNodes())
	fmt.Fprintln(tw, "RELATIONSHIP\tACTUAL\tEXPECTED\t")
	for _, c := range r.Edges {
		if c.Actual == 0 && c.Expected <= 0 {
			continue
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", c.Name, c.Actual, expected(c), flag(c))
	}
	fmt.Fprintf(tw, "total\t%d\t\t\n", r.TotalEdges())
	if len(r.Rollups) > 0 {
		fmt.Fprintln(tw, "\nCAPABILITY\tOWN\tCHILDREN\tTOTAL")
		for _, ro := range r.Rollups {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", ro.Name, ro.Own, ro.Children, ro.Total)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, id := range r.MissingIDs {
		fmt.Fprintf(w, "missing expected id: %s\n", id)
	}
	for _, id := range r.Dangling {
		fmt.Fprintf(w, "referenced id not in graph: %s\n", id)
	}
	if r.OK() {
		_, err := fmt.Fprintln(w, "status: OK")
		return err
	}
	_, err := fmt.Fprintln(w, "status: MISMATCH")
	return err
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func expected(c Count) string {
	if c.Expected < 0 {
		return "-"
	}
	return fmt.Sprint(c.Expected)
}

func flag(c Count) string {
	if c.Mismatch() {
		return "!"
	}
	return ""
}
