// Package hierarchy checks tree invariants of self-referential relationships:
// one parent per node, parents exactly one level up, no node its own ancestor.
package hierarchy

import (
	"context"
	"fmt"
	"sort"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
)

// Rule describes one tree. With LevelProperty empty the tree is unlevelled:
// every node may have zero or one parent and cycles are rejected.
type Rule struct {
	Label         types.Label
	Relationship  types.RelType
	LevelProperty string
	Levels        int
}

var (
	CapabilityTree = Rule{
		Label:         types.LabelBusinessCapability,
		Relationship:  types.RelHasParent,
		LevelProperty: "level",
		Levels:        2,
	}
	ArchitectureChain = Rule{
		Label:        types.LabelArchitecture,
		Relationship: types.RelPartOf,
	}
)

type Node struct {
	ID      string
	Name    string
	Level   int
	Value   int
	Parents []string
}

// Load reads every rule node with its outgoing parent edges. valueProperty is
// optional and fills Node.Value. With prefixes only nodes whose id starts with
// one of them are read.
func Load(ctx context.Context, exec graphdb.Executor, rule Rule, valueProperty string, prefixes ...string) ([]Node, error) {
	res, err := exec.Execute(ctx, graphdb.TreeEdges(string(rule.Label), string(rule.Relationship), rule.LevelProperty, valueProperty, prefixes...))
	if err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(res.Records))
	for _, rec := range res.Records {
		nodes = append(nodes, Node{
			ID:      rec.String("id"),
			Name:    rec.String("name"),
			Level:   rec.Int("level"),
			Value:   rec.Int("value"),
			Parents: rec.Strings("parents"),
		})
	}
	return nodes, nil
}

// Validate loads the tree from the store and checks it.
func Validate(ctx context.Context, exec graphdb.Executor, rule Rule, prefixes ...string) error {
	nodes, err := Load(ctx, exec, rule, "", prefixes...)
	if err != nil {
		return err
	}
	return Check(nodes, rule)
}

// Check returns the first violation as a *types.StructuralError. Nodes are
// visited in id order so the reported node is deterministic.
func Check(nodes []Node, rule Rule) error {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	sorted := append([]Node(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	fail := func(id, kind, msg string) error {
		return &types.StructuralError{Relationship: rule.Relationship, NodeID: id, Kind: kind, Msg: msg}
	}

	for _, n := range sorted {
		if len(n.Parents) > 1 {
			return fail(n.ID, "multiple_parents", fmt.Sprintf("has %d parents %v", len(n.Parents), n.Parents))
		}
		if rule.LevelProperty == "" {
			continue
		}
		if n.Level < 1 || (rule.Levels > 0 && n.Level > rule.Levels) {
			return fail(n.ID, "parent_level", fmt.Sprintf("level %d outside 1..%d", n.Level, rule.Levels))
		}
		if n.Level == 1 {
			if len(n.Parents) != 0 {
				return fail(n.ID, "root_has_parent", fmt.Sprintf("level 1 node has parent %s", n.Parents[0]))
			}
			continue
		}
		if len(n.Parents) == 0 {
			return fail(n.ID, "missing_parent", fmt.Sprintf("level %d node has no parent", n.Level))
		}
		parent, ok := byID[n.Parents[0]]
		if !ok {
			return fail(n.ID, "missing_parent", fmt.Sprintf("parent %s is not a %s", n.Parents[0], rule.Label))
		}
		if parent.Level != n.Level-1 {
			return fail(n.ID, "parent_level", fmt.Sprintf("parent %s is level %d, want %d", parent.ID, parent.Level, n.Level-1))
		}
	}

	// colouring DFS: 1 in progress, 2 done
	color := make(map[string]int, len(sorted))
	var path []string
	var visit func(id string) error
	visit = func(id string) error {
		color[id] = 1
		path = append(path, id)
		for _, p := range byID[id].Parents {
			switch color[p] {
			case 1:
				start := 0
				for i, x := range path {
					if x == p {
						start = i
						break
					}
				}
				cycle := append(append([]string(nil), path[start:]...), p)
				return fail(p, "cycle", fmt.Sprintf("node is its own ancestor: %v", cycle))
			case 0:
				if _, ok := byID[p]; ok {
					if err := visit(p); err != nil {
						return err
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = 2
		return nil
	}
	for _, n := range sorted {
		if color[n.ID] == 0 {
			if err := visit(n.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

// Ancestors returns the names along the parent chain of id, nearest first.
// It stops at a repeated node, so it terminates on malformed input.
func Ancestors(nodes []Node, id string) []string {
	byID := make(map[string]Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	var out []string
	seen := map[string]bool{id: true}
	cur := byID[id]
	for len(cur.Parents) > 0 {
		next, ok := byID[cur.Parents[0]]
		if !ok || seen[next.ID] {
			break
		}
		seen[next.ID] = true
		out = append(out, next.Name)
		cur = next
	}
	return out
}
