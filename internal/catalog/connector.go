package catalog

import (
	"context"
	"fmt"
	"sort"
	"time"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

// Connector creates edges after resolving both endpoints itself, because the
// graph store silently skips a MATCH on a missing node.
type Connector struct {
	exec    graphdb.Executor
	cat     *Catalog
	log     *logger.Logger
	origins map[types.Label]string
	now     func() time.Time
}

// NewConnector wires a connector. origins maps each label to the phase that
// creates its nodes, so dangling references can name where they were expected.
func NewConnector(exec graphdb.Executor, cat *Catalog, log *logger.Logger, origins map[types.Label]string) *Connector {
	return &Connector{
		exec:    exec,
		cat:     cat,
		log:     log.With("component", "Connector"),
		origins: origins,
		now:     time.Now,
	}
}

// WithClock overrides the edge timestamp source.
func (c *Connector) WithClock(now func() time.Time) *Connector {
	c.now = now
	return c
}

// Connect creates exactly one rel edge from sourceID to targetID.
func (c *Connector) Connect(ctx context.Context, phase, sourceID string, rel types.RelType, targetID string) error {
	_, err := c.ConnectAll(ctx, phase, []types.Link{{Type: rel, From: sourceID, To: targetID}})
	return err
}

type groupKey struct {
	rel    types.RelType
	source types.Label
	target types.Label
}

// ConnectAll resolves every endpoint of links first and creates nothing when
// any of them is missing, mislabelled or would break a cardinality rule.
// It returns the number of edges created.
func (c *Connector) ConnectAll(ctx context.Context, phase string, links []types.Link) (int, error) {
	if len(links) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(links)*2)
	seenID := map[string]bool{}
	for _, l := range links {
		if _, ok := c.cat.Relationship(l.Type); !ok {
			return 0, fmt.Errorf("catalog: unknown relationship type %q", l.Type)
		}
		for _, id := range []string{l.From, l.To} {
			if !seenID[id] {
				seenID[id] = true
				ids = append(ids, id)
			}
		}
	}

	res, err := c.exec.Execute(ctx, graphdb.ResolveIDs(ids))
	if err != nil {
		return 0, err
	}
	resolved := make(map[string][]types.Label, len(ids))
	for _, rec := range res.Records {
		id := rec.String("id")
		for _, l := range rec.Strings("labels") {
			resolved[id] = append(resolved[id], types.Label(l))
		}
	}

	var order []groupKey
	groups := map[groupKey][]map[string]any{}
	pairSeen := map[string]bool{}
	perSource := map[types.RelType]map[string]int{}
	perTarget := map[types.RelType]map[string]int{}

	for _, l := range links {
		rt, _ := c.cat.Relationship(l.Type)
		from, err := c.endpoint(phase, rt, l.From, l.FromLabel, rt.Sources, "source", resolved)
		if err != nil {
			return 0, err
		}
		to, err := c.endpoint(phase, rt, l.To, l.ToLabel, rt.Targets, "target", resolved)
		if err != nil {
			return 0, err
		}
		if !rt.Allows(from, to) {
			return 0, &types.EndpointError{Relationship: l.Type, From: l.From, FromLabel: from, To: l.To, ToLabel: to}
		}

		pk := string(l.Type) + "\x00" + l.From + "\x00" + l.To
		if pairSeen[pk] {
			if rt.Discipline == Merge {
				continue
			}
			return 0, &types.PlanError{Phase: phase, Msg: fmt.Sprintf("duplicate %s link %s -> %s", l.Type, l.From, l.To)}
		}
		pairSeen[pk] = true

		switch rt.Cardinality {
		case ManyToOne:
			if perSource[l.Type] == nil {
				perSource[l.Type] = map[string]int{}
			}
			perSource[l.Type][l.From]++
		case OneToMany:
			if perTarget[l.Type] == nil {
				perTarget[l.Type] = map[string]int{}
			}
			perTarget[l.Type][l.To]++
		}

		key := groupKey{rel: l.Type, source: from, target: to}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], map[string]any{"from": l.From, "to": l.To})
	}

	if err := c.checkCardinality(ctx, perSource, true, "source"); err != nil {
		return 0, err
	}
	if err := c.checkCardinality(ctx, perTarget, false, "target"); err != nil {
		return 0, err
	}

	now := c.now().UTC().Format(time.RFC3339Nano)
	created := 0
	for _, key := range order {
		rt, _ := c.cat.Relationship(key.rel)
		pairs := groups[key]
		res, err := c.exec.Execute(ctx, graphdb.CreateEdges(string(key.rel), string(key.source), string(key.target), pairs, rt.Discipline == Merge, now))
		if err != nil {
			return created, err
		}
		if rt.Discipline == Create && res.Counters.RelationshipsCreated != len(pairs) {
			return created, fmt.Errorf("connect %s %s->%s: created %d of %d edges", key.rel, key.source, key.target, res.Counters.RelationshipsCreated, len(pairs))
		}
		created += res.Counters.RelationshipsCreated
	}
	c.log.Debug("edges connected", "phase", phase, "links", len(links), "created", created)
	return created, nil
}

// endpoint picks the label an endpoint resolves to, preferring the declared one.
func (c *Connector) endpoint(phase string, rt RelationshipType, id string, declared types.Label, allowed []types.Label, role string, resolved map[string][]types.Label) (types.Label, error) {
	labels := resolved[id]
	if declared != "" && hasLabel(labels, declared) {
		return declared, nil
	}
	if len(labels) == 0 || (declared != "" && !hasLabel(labels, declared)) {
		expected := declared
		if expected == "" && len(allowed) == 1 {
			expected = allowed[0]
		}
		if len(labels) > 0 {
			// exists, but under another label
			if role == "source" {
				return "", &types.EndpointError{Relationship: rt.Type, From: id, FromLabel: labels[0]}
			}
			return "", &types.EndpointError{Relationship: rt.Type, To: id, ToLabel: labels[0]}
		}
		return "", &types.DanglingReferenceError{
			ID:           id,
			Label:        expected,
			Role:         role,
			Relationship: rt.Type,
			Phase:        phase,
			ExpectedIn:   c.origins[expected],
		}
	}
	for _, l := range labels {
		if hasLabel(allowed, l) {
			return l, nil
		}
	}
	return labels[0], nil
}

func (c *Connector) checkCardinality(ctx context.Context, counts map[types.RelType]map[string]int, out bool, side string) error {
	rels := make([]types.RelType, 0, len(counts))
	for rel := range counts {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool { return rels[i] < rels[j] })

	for _, rel := range rels {
		byID := counts[rel]
		ids := make([]string, 0, len(byID))
		for id := range byID {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			if n := byID[id]; n > 1 {
				return &types.CardinalityError{Relationship: rel, NodeID: id, Side: side, Count: n}
			}
		}
		res, err := c.exec.Execute(ctx, graphdb.Degree(string(rel), out, ids))
		if err != nil {
			return err
		}
		for _, rec := range res.Records {
			id := rec.String("id")
			if existing := rec.Int("degree"); existing+byID[id] > 1 {
				return &types.CardinalityError{Relationship: rel, NodeID: id, Side: side, Count: existing + byID[id]}
			}
		}
	}
	return nil
}
