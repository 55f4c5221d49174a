// Package memgraph is an in-process property graph that executes the
// statements built by package graphdb. It mirrors the Neo4j semantics the
// builder depends on: MATCH on a missing node silently yields no rows,
// uniqueness constraints reject duplicates, dropping an unknown constraint fails.
package memgraph

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/yungbote/archgraph/internal/graphdb"
)

type node struct {
	labels []string
	props  map[string]any
}

func (n *node) id() string {
	s, _ := n.props["id"].(string)
	return s
}

func (n *node) hasLabel(label string) bool {
	for _, l := range n.labels {
		if l == label {
			return true
		}
	}
	return false
}

type edge struct {
	typ   string
	from  *node
	to    *node
	props map[string]any
}

type constraint struct {
	label    string
	property string
}

// Graph is safe for concurrent use, although the builder never shares it.
type Graph struct {
	mu          sync.Mutex
	nodes       []*node
	edges       []*edge
	constraints map[string]constraint
	executed    []graphdb.Statement
}

func New() *Graph {
	return &Graph{constraints: map[string]constraint{}}
}

func (g *Graph) Execute(ctx context.Context, stmt graphdb.Statement) (*graphdb.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.executed = append(g.executed, stmt)

	p := stmt.Params
	switch stmt.Op {
	case graphdb.OpCreateNodes:
		return g.createNodes(str(p, "label"), rows(p, "rows"))
	case graphdb.OpResolveIDs:
		return g.resolve(strs(p, "ids")), nil
	case graphdb.OpCreateEdges:
		return g.createEdges(str(p, "type"), str(p, "source_label"), str(p, "target_label"), rows(p, "rels"), p["merge"] == true, p["now"]), nil
	case graphdb.OpDegree:
		return g.degree(str(p, "type"), p["out"] == true, strs(p, "ids")), nil
	case graphdb.OpAttachUnassociated:
		return g.attach(str(p, "company"), strs(p, "prefixes"), str(p, "type"), p["now"]), nil
	case graphdb.OpDeleteBatch:
		limit, _ := p["limit"].(int)
		return g.deleteBatch(limit), nil
	case graphdb.OpDropConstraint:
		return g.dropConstraint(str(p, "name"))
	case graphdb.OpCreateConstraint:
		return g.createConstraint(str(p, "name"), str(p, "label"), str(p, "property"))
	case graphdb.OpCountNodes:
		label, scope := str(p, "label"), strs(p, "prefixes")
		n := 0
		for _, nd := range g.nodes {
			if nd.hasLabel(label) && inScope(nd, scope) {
				n++
			}
		}
		return &graphdb.Result{Records: []graphdb.Record{{"count": int64(n)}}}, nil
	case graphdb.OpCountEdges:
		typ, scope := str(p, "type"), strs(p, "prefixes")
		n := 0
		for _, e := range g.edges {
			if e.typ == typ && inScope(e.from, scope) {
				n++
			}
		}
		return &graphdb.Result{Records: []graphdb.Record{{"count": int64(n)}}}, nil
	case graphdb.OpTreeEdges:
		return g.tree(str(p, "label"), str(p, "type"), str(p, "level"), str(p, "value"), strs(p, "prefixes")), nil
	case graphdb.OpPing:
		return &graphdb.Result{Records: []graphdb.Record{{"ok": int64(1)}}}, nil
	}
	return nil, fmt.Errorf("memgraph: unsupported statement op %q", stmt.Op)
}

func (g *Graph) createNodes(label string, in []map[string]any) (*graphdb.Result, error) {
	for _, c := range g.constraints {
		if c.label != label {
			continue
		}
		seen := map[any]bool{}
		for _, nd := range g.nodes {
			if nd.hasLabel(label) {
				seen[nd.props[c.property]] = true
			}
		}
		for _, row := range in {
			v := row[c.property]
			if seen[v] {
				return nil, fmt.Errorf("%w: node(%s) already exists with %s = %v", graphdb.ErrConstraintViolation, label, c.property, v)
			}
			seen[v] = true
		}
	}
	for _, row := range in {
		props := make(map[string]any, len(row))
		for k, v := range row {
			props[k] = v
		}
		g.nodes = append(g.nodes, &node{labels: []string{label}, props: props})
	}
	return &graphdb.Result{Counters: graphdb.Counters{NodesCreated: len(in)}}, nil
}

func (g *Graph) find(id, label string) []*node {
	var out []*node
	for _, nd := range g.nodes {
		if nd.id() != id {
			continue
		}
		if label != "" && !nd.hasLabel(label) {
			continue
		}
		out = append(out, nd)
	}
	return out
}

func (g *Graph) resolve(ids []string) *graphdb.Result {
	res := &graphdb.Result{}
	for _, id := range ids {
		matches := g.find(id, "")
		if len(matches) == 0 {
			res.Records = append(res.Records, graphdb.Record{"id": id, "labels": []any{}})
			continue
		}
		for _, nd := range matches {
			labels := make([]any, 0, len(nd.labels))
			for _, l := range nd.labels {
				labels = append(labels, l)
			}
			res.Records = append(res.Records, graphdb.Record{"id": id, "labels": labels})
		}
	}
	return res
}

func (g *Graph) connected(a, b *node, typ string) bool {
	for _, e := range g.edges {
		if e.from == a && e.to == b && (typ == "" || e.typ == typ) {
			return true
		}
	}
	return false
}

func (g *Graph) createEdges(typ, sourceLabel, targetLabel string, pairs []map[string]any, merge bool, now any) *graphdb.Result {
	res := &graphdb.Result{}
	for _, pair := range pairs {
		from, _ := pair["from"].(string)
		to, _ := pair["to"].(string)
		for _, a := range g.find(from, sourceLabel) {
			for _, b := range g.find(to, targetLabel) {
				if merge && g.connected(a, b, typ) {
					continue
				}
				g.edges = append(g.edges, &edge{typ: typ, from: a, to: b, props: map[string]any{"createdAt": now}})
				res.Counters.RelationshipsCreated++
			}
		}
	}
	return res
}

func (g *Graph) degree(typ string, out bool, ids []string) *graphdb.Result {
	res := &graphdb.Result{}
	for _, id := range ids {
		for _, nd := range g.find(id, "") {
			n := 0
			for _, e := range g.edges {
				if e.typ != typ {
					continue
				}
				if (out && e.from == nd) || (!out && e.to == nd) {
					n++
				}
			}
			res.Records = append(res.Records, graphdb.Record{"id": id, "degree": int64(n)})
		}
	}
	return res
}

// hasPrefix is false for an empty prefix list.
func hasPrefix(nd *node, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(nd.id(), p) {
			return true
		}
	}
	return false
}

// inScope is true for every node when prefixes is empty.
func inScope(nd *node, prefixes []string) bool {
	return len(prefixes) == 0 || hasPrefix(nd, prefixes)
}

func (g *Graph) attach(companyID string, prefixes []string, typ string, now any) *graphdb.Result {
	res := &graphdb.Result{}
	for _, c := range g.find(companyID, "Company") {
		for _, nd := range g.nodes {
			if nd.hasLabel("Company") || !hasPrefix(nd, prefixes) {
				continue
			}
			if g.connected(nd, c, "") || g.connected(c, nd, "") {
				continue
			}
			g.edges = append(g.edges, &edge{typ: typ, from: nd, to: c, props: map[string]any{"createdAt": now}})
			res.Counters.RelationshipsCreated++
		}
	}
	return res
}

func (g *Graph) deleteBatch(limit int) *graphdb.Result {
	if limit <= 0 || limit > len(g.nodes) {
		limit = len(g.nodes)
	}
	doomed := map[*node]bool{}
	for _, nd := range g.nodes[:limit] {
		doomed[nd] = true
	}
	res := &graphdb.Result{}
	kept := g.edges[:0]
	for _, e := range g.edges {
		if doomed[e.from] || doomed[e.to] {
			res.Counters.RelationshipsDeleted++
			continue
		}
		kept = append(kept, e)
	}
	g.edges = kept
	g.nodes = append([]*node(nil), g.nodes[limit:]...)
	res.Counters.NodesDeleted = limit
	res.Records = []graphdb.Record{{"deleted": int64(limit)}}
	return res
}

func (g *Graph) dropConstraint(name string) (*graphdb.Result, error) {
	if _, ok := g.constraints[name]; !ok {
		return nil, fmt.Errorf("%w: %s", graphdb.ErrConstraintNotFound, name)
	}
	delete(g.constraints, name)
	return &graphdb.Result{Counters: graphdb.Counters{ConstraintsRemoved: 1}}, nil
}

func (g *Graph) createConstraint(name, label, property string) (*graphdb.Result, error) {
	if _, ok := g.constraints[name]; ok {
		return nil, fmt.Errorf("memgraph: constraint %s already exists", name)
	}
	seen := map[any]bool{}
	for _, nd := range g.nodes {
		if !nd.hasLabel(label) {
			continue
		}
		v := nd.props[property]
		if seen[v] {
			return nil, fmt.Errorf("%w: existing %s nodes share %s = %v", graphdb.ErrConstraintViolation, label, property, v)
		}
		seen[v] = true
	}
	g.constraints[name] = constraint{label: label, property: property}
	return &graphdb.Result{Counters: graphdb.Counters{ConstraintsAdded: 1}}, nil
}

func (g *Graph) tree(label, typ, levelProp, valueProp string, scope []string) *graphdb.Result {
	res := &graphdb.Result{}
	for _, nd := range g.nodes {
		if !nd.hasLabel(label) || !inScope(nd, scope) {
			continue
		}
		parents := []any{}
		for _, e := range g.edges {
			if e.typ == typ && e.from == nd {
				parents = append(parents, e.to.id())
			}
		}
		rec := graphdb.Record{"id": nd.id(), "name": nd.props["name"], "parents": parents, "level": nil, "value": nil}
		if levelProp != "" {
			rec["level"] = nd.props[levelProp]
		}
		if valueProp != "" {
			rec["value"] = nd.props[valueProp]
		}
		res.Records = append(res.Records, rec)
	}
	return res
}

func str(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

func strs(p map[string]any, key string) []string {
	switch v := p[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func rows(p map[string]any, key string) []map[string]any {
	v, _ := p[key].([]map[string]any)
	return v
}
