package hierarchy

import (
	"context"
	"errors"
	"testing"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/graphdb/memgraph"
)

func kindOf(t *testing.T, err error) string {
	t.Helper()
	var se *types.StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if !errors.Is(err, types.ErrStructural) {
		t.Fatalf("StructuralError does not unwrap to ErrStructural")
	}
	return se.Kind
}

func TestCheckCapabilityTree(t *testing.T) {
	valid := []Node{
		{ID: "cap-m", Name: "Manufacturing", Level: 1},
		{ID: "cap-q", Name: "Quality Management", Level: 2, Parents: []string{"cap-m"}},
		{ID: "cap-s", Name: "Sales", Level: 1},
	}
	if err := Check(valid, CapabilityTree); err != nil {
		t.Fatalf("valid tree rejected: %v", err)
	}

	cases := []struct {
		name  string
		nodes []Node
		kind  string
		node  string
	}{
		{
			name:  "orphan level 2",
			nodes: []Node{{ID: "cap-m", Level: 1}, {ID: "cap-q", Level: 2}},
			kind:  "missing_parent",
			node:  "cap-q",
		},
		{
			name:  "two parents",
			nodes: []Node{{ID: "cap-a", Level: 1}, {ID: "cap-b", Level: 1}, {ID: "cap-q", Level: 2, Parents: []string{"cap-a", "cap-b"}}},
			kind:  "multiple_parents",
			node:  "cap-q",
		},
		{
			name:  "parent on same level",
			nodes: []Node{{ID: "cap-a", Level: 1}, {ID: "cap-p", Level: 2, Parents: []string{"cap-a"}}, {ID: "cap-q", Level: 2, Parents: []string{"cap-p"}}},
			kind:  "parent_level",
			node:  "cap-q",
		},
		{
			name:  "root with parent",
			nodes: []Node{{ID: "cap-a", Level: 1}, {ID: "cap-b", Level: 1, Parents: []string{"cap-a"}}},
			kind:  "root_has_parent",
			node:  "cap-b",
		},
		{
			name:  "level out of range",
			nodes: []Node{{ID: "cap-a", Level: 3}},
			kind:  "parent_level",
			node:  "cap-a",
		},
		{
			name:  "parent not in tree",
			nodes: []Node{{ID: "cap-q", Level: 2, Parents: []string{"app-x"}}},
			kind:  "missing_parent",
			node:  "cap-q",
		},
	}
	for _, tc := range cases {
		err := Check(tc.nodes, CapabilityTree)
		if got := kindOf(t, err); got != tc.kind {
			t.Fatalf("%s: kind=%s want %s (%v)", tc.name, got, tc.kind, err)
		}
		var se *types.StructuralError
		errors.As(err, &se)
		if se.NodeID != tc.node {
			t.Fatalf("%s: node=%s want %s", tc.name, se.NodeID, tc.node)
		}
	}
}

func TestCheckUnlevelledCycle(t *testing.T) {
	chain := []Node{
		{ID: "arch-a", Parents: []string{"arch-b"}},
		{ID: "arch-b", Parents: []string{"arch-c"}},
		{ID: "arch-c"},
	}
	if err := Check(chain, ArchitectureChain); err != nil {
		t.Fatalf("valid chain rejected: %v", err)
	}
	chain[2].Parents = []string{"arch-a"}
	if kind := kindOf(t, Check(chain, ArchitectureChain)); kind != "cycle" {
		t.Fatalf("kind=%s want cycle", kind)
	}
	self := []Node{{ID: "arch-x", Parents: []string{"arch-x"}}}
	if kind := kindOf(t, Check(self, ArchitectureChain)); kind != "cycle" {
		t.Fatalf("self loop kind=%s", kind)
	}
}

func TestAncestors(t *testing.T) {
	nodes := []Node{
		{ID: "cap-m", Name: "Manufacturing", Level: 1},
		{ID: "cap-q", Name: "Quality Management", Level: 2, Parents: []string{"cap-m"}},
	}
	got := Ancestors(nodes, "cap-q")
	if len(got) != 1 || got[0] != "Manufacturing" {
		t.Fatalf("Ancestors=%v", got)
	}
	if got := Ancestors(nodes, "cap-m"); len(got) != 0 {
		t.Fatalf("root ancestors=%v", got)
	}
	loop := []Node{{ID: "a", Name: "A", Parents: []string{"b"}}, {ID: "b", Name: "B", Parents: []string{"a"}}}
	if got := Ancestors(loop, "a"); len(got) != 1 || got[0] != "B" {
		t.Fatalf("loop ancestors=%v", got)
	}
}

// two-level scenario built through the store: Quality Management under Manufacturing
func TestValidateAgainstStore(t *testing.T) {
	ctx := context.Background()
	g := memgraph.New()
	exec := func(stmt graphdb.Statement) {
		t.Helper()
		if _, err := g.Execute(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt.Intent, err)
		}
	}
	exec(graphdb.CreateNodes("BusinessCapability", []map[string]any{
		{"id": "cap-m", "name": "Manufacturing", "level": 1, "businessValue": 9},
		{"id": "cap-q", "name": "Quality Management", "level": 2, "businessValue": 8},
	}))
	exec(graphdb.CreateEdges("HAS_PARENT", "BusinessCapability", "BusinessCapability", []map[string]any{{"from": "cap-q", "to": "cap-m"}}, false, "now"))

	if err := Validate(ctx, g, CapabilityTree); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	nodes, err := Load(ctx, g, CapabilityTree, "businessValue")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := Ancestors(nodes, "cap-q"); len(got) != 1 || got[0] != "Manufacturing" {
		t.Fatalf("Ancestors=%v", got)
	}
	for _, n := range nodes {
		if n.ID == "cap-m" && n.Value != 9 {
			t.Fatalf("value=%d", n.Value)
		}
	}

	exec(graphdb.CreateNodes("BusinessCapability", []map[string]any{{"id": "cap-x", "name": "Orphan", "level": 2}}))
	if kind := kindOf(t, Validate(ctx, g, CapabilityTree)); kind != "missing_parent" {
		t.Fatalf("kind=%s", kind)
	}
}
