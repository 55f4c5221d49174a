package build

import (
	"fmt"

	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
)

type created struct {
	label types.Label
	phase int
}

// VerifyPlan replays the plan without a store. It checks that every entity is
// valid and created once, and that every link endpoint exists with its
// declared label in a phase strictly before the link's phase. Cardinality
// limits are checked over the whole plan.
func VerifyPlan(p *Plan, cat *catalog.Catalog) error {
	if p == nil || p.Model == nil {
		return &types.PlanError{Msg: "missing plan"}
	}
	origins := p.Origins()
	avail := map[string]created{}
	pairs := map[string]bool{}
	perSource := map[types.RelType]map[string]int{}
	perTarget := map[types.RelType]map[string]int{}

	for i, ph := range p.Phases {
		for _, s := range ph.Steps {
			switch s.Kind {
			case StepCreate:
				for _, e := range s.Entities {
					if err := cat.ValidateEntity(p.Model.Namespace, e); err != nil {
						return err
					}
					if prev, dup := avail[e.ID]; dup {
						return &types.PlanError{Phase: ph.Name, Msg: fmt.Sprintf("%s %q is already created in phase %q", e.Label, e.ID, p.Phases[prev.phase].Name)}
					}
					avail[e.ID] = created{label: e.Label, phase: i}
				}
			case StepConnect:
				for _, l := range s.Links {
					if err := cat.CheckLink(l); err != nil {
						return err
					}
					for _, end := range []struct {
						id, role string
						label    types.Label
					}{{l.From, "source", l.FromLabel}, {l.To, "target", l.ToLabel}} {
						c, ok := avail[end.id]
						if !ok || c.phase >= i {
							return &types.DanglingReferenceError{
								ID:           end.id,
								Label:        end.label,
								Role:         end.role,
								Relationship: l.Type,
								Phase:        ph.Name,
								ExpectedIn:   origins[end.label],
							}
						}
						if end.label != "" && c.label != end.label {
							if end.role == "source" {
								return &types.EndpointError{Relationship: l.Type, From: end.id, FromLabel: c.label, To: l.To, ToLabel: l.ToLabel}
							}
							return &types.EndpointError{Relationship: l.Type, From: l.From, FromLabel: l.FromLabel, To: end.id, ToLabel: c.label}
						}
					}

					rt, _ := cat.Relationship(l.Type)
					key := string(l.Type) + "\x00" + l.From + "\x00" + l.To
					if pairs[key] {
						if rt.Discipline == catalog.Merge {
							continue
						}
						return &types.PlanError{Phase: ph.Name, Msg: fmt.Sprintf("duplicate %s link %s -> %s", l.Type, l.From, l.To)}
					}
					pairs[key] = true
					if err := countCardinality(rt, l, perSource, perTarget); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func countCardinality(rt catalog.RelationshipType, l types.Link, perSource, perTarget map[types.RelType]map[string]int) error {
	switch rt.Cardinality {
	case catalog.ManyToOne:
		if perSource[l.Type] == nil {
			perSource[l.Type] = map[string]int{}
		}
		perSource[l.Type][l.From]++
		if n := perSource[l.Type][l.From]; n > 1 {
			return &types.CardinalityError{Relationship: l.Type, NodeID: l.From, Side: "source", Count: n}
		}
	case catalog.OneToMany:
		if perTarget[l.Type] == nil {
			perTarget[l.Type] = map[string]int{}
		}
		perTarget[l.Type][l.To]++
		if n := perTarget[l.Type][l.To]; n > 1 {
			return &types.CardinalityError{Relationship: l.Type, NodeID: l.To, Side: "target", Count: n}
		}
	}
	return nil
}
