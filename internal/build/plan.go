package build

import (
	"fmt"
	"sort"

	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/hierarchy"
)

const (
	PhaseCompany             = "company"
	PhaseEntities            = "entities"
	PhaseOwnership           = "ownership"
	PhaseCapabilityHierarchy = "capability_hierarchy"
	PhaseRelationships       = "relationships"
	PhaseAIWiring            = "ai_wiring"
	PhaseCompanyAssociation  = "company_association"
)

type StepKind string

const (
	StepCreate   StepKind = "create"
	StepConnect  StepKind = "connect"
	StepValidate StepKind = "validate"
	StepAttach   StepKind = "attach"
)

// Step is one logical unit inside a phase. Only the fields of its kind are set.
type Step struct {
	Kind StepKind
	Name string

	Label    types.Label
	Entities []types.Entity

	Links []types.Link

	Rule hierarchy.Rule

	CompanyID string
}

type PlannedPhase struct {
	Name        string
	Description string
	Steps       []Step
}

// Plan is the ordered list of phases computed from a model. Building the plan
// never touches the store.
type Plan struct {
	Model  *types.Model
	Phases []PlannedPhase
}

type planner func(m *types.Model) []Step

var planners = map[string]planner{
	PhaseCompany:             planCompany,
	PhaseEntities:            planEntities,
	PhaseOwnership:           planOwnership,
	PhaseCapabilityHierarchy: planHierarchy,
	PhaseRelationships:       planRelationships,
	PhaseAIWiring:            planAIWiring,
	PhaseCompanyAssociation:  planCompanyAssociation,
}

// NewPlan expands every phase of phases against m.
func NewPlan(m *types.Model, phases []PhaseSpec) (*Plan, error) {
	if m == nil {
		return nil, &types.PlanError{Msg: "missing model"}
	}
	p := &Plan{Model: m}
	for _, spec := range phases {
		fn, ok := planners[spec.Name]
		if !ok {
			return nil, &types.PlanError{Phase: spec.Name, Msg: "no planner registered"}
		}
		p.Phases = append(p.Phases, PlannedPhase{Name: spec.Name, Description: spec.Description, Steps: fn(m)})
	}
	return p, nil
}

func planCompany(m *types.Model) []Step {
	return []Step{{Kind: StepCreate, Name: "create Company", Label: types.LabelCompany, Entities: m.EntitiesByLabel(types.LabelCompany)}}
}

var independentLabels = []types.Label{
	types.LabelPerson,
	types.LabelApplication,
	types.LabelDataObject,
	types.LabelInfrastructure,
	types.LabelApplicationInterface,
	types.LabelArchitecturePrinciple,
	types.LabelArchitecture,
	types.LabelAIComponent,
}

func planEntities(m *types.Model) []Step {
	var steps []Step
	for _, label := range independentLabels {
		if es := m.EntitiesByLabel(label); len(es) > 0 {
			steps = append(steps, Step{Kind: StepCreate, Name: "create " + string(label), Label: label, Entities: es})
		}
	}
	// capabilities in two passes so every level is complete before the next
	byLevel := map[int][]types.Entity{}
	var levels []int
	for _, e := range m.EntitiesByLabel(types.LabelBusinessCapability) {
		lvl := e.Level()
		if _, ok := byLevel[lvl]; !ok {
			levels = append(levels, lvl)
		}
		byLevel[lvl] = append(byLevel[lvl], e)
	}
	sort.Ints(levels)
	for _, lvl := range levels {
		steps = append(steps, Step{
			Kind:     StepCreate,
			Name:     fmt.Sprintf("create BusinessCapability L%d", lvl),
			Label:    types.LabelBusinessCapability,
			Entities: byLevel[lvl],
		})
	}
	return steps
}

func planOwnership(m *types.Model) []Step {
	links := append(append([]types.Link(nil), m.Ownership...), fallbackInterfaceOwners(m)...)
	return connectSteps(links, []types.RelType{types.RelOwnedBy, types.RelEmployedBy})
}

func planHierarchy(m *types.Model) []Step {
	steps := connectSteps(m.Hierarchy, []types.RelType{types.RelHasParent})
	return append(steps, Step{Kind: StepValidate, Name: "validate capability tree", Rule: hierarchy.CapabilityTree})
}

var relationshipOrder = []types.RelType{
	types.RelSupports,
	types.RelUses,
	types.RelDataSource,
	types.RelHostedOn,
	types.RelInterfaceSource,
	types.RelInterfaceTarget,
	types.RelTransfers,
	types.RelContains,
	types.RelAppliesPrinciple,
	types.RelImplementsPrinciple,
	types.RelPartOf,
	types.RelSuccessorOf,
	types.RelReplicatesTo,
	types.RelHosts,
	types.RelConnects,
}

func planRelationships(m *types.Model) []Step {
	steps := connectSteps(m.Relationships, relationshipOrder)
	for _, s := range steps {
		if len(s.Links) > 0 && s.Links[0].Type == types.RelPartOf {
			steps = append(steps, Step{Kind: StepValidate, Name: "validate architecture chain", Rule: hierarchy.ArchitectureChain})
			break
		}
	}
	return steps
}

func planAIWiring(m *types.Model) []Step {
	return connectSteps(m.AIWiring, []types.RelType{types.RelSupports, types.RelUses, types.RelHostedOn})
}

func planCompanyAssociation(m *types.Model) []Step {
	if m.Company.ID == "" {
		return nil
	}
	return []Step{{
		Kind:      StepAttach,
		Name:      "attach unassociated entities",
		CompanyID: m.Company.ID,
	}}
}

// connectSteps groups links by type in the given order. Types not listed
// are appended in first-seen order so nothing declared is dropped.
func connectSteps(links []types.Link, order []types.RelType) []Step {
	byType := map[types.RelType][]types.Link{}
	var seen []types.RelType
	for _, l := range links {
		if _, ok := byType[l.Type]; !ok {
			seen = append(seen, l.Type)
		}
		byType[l.Type] = append(byType[l.Type], l)
	}
	var steps []Step
	done := map[types.RelType]bool{}
	emit := func(rel types.RelType) {
		if done[rel] || len(byType[rel]) == 0 {
			return
		}
		done[rel] = true
		steps = append(steps, Step{Kind: StepConnect, Name: "connect " + string(rel), Links: byType[rel]})
	}
	for _, rel := range order {
		emit(rel)
	}
	for _, rel := range seen {
		emit(rel)
	}
	return steps
}

// Origins maps each label to the first phase that creates nodes of it.
func (p *Plan) Origins() map[types.Label]string {
	out := map[types.Label]string{}
	for _, ph := range p.Phases {
		for _, s := range ph.Steps {
			if s.Kind != StepCreate {
				continue
			}
			if _, ok := out[s.Label]; !ok {
				out[s.Label] = ph.Name
			}
		}
	}
	return out
}

// ExpectedEdgeCounts is the number of edges each connect step should leave
// in the graph. Merge links are counted once per distinct pair.
func (p *Plan) ExpectedEdgeCounts(cat *catalog.Catalog) map[types.RelType]int {
	out := map[types.RelType]int{}
	seen := map[string]bool{}
	for _, ph := range p.Phases {
		for _, s := range ph.Steps {
			for _, l := range s.Links {
				if rt, ok := cat.Relationship(l.Type); ok && rt.Discipline == catalog.Merge {
					key := string(l.Type) + "\x00" + l.From + "\x00" + l.To
					if seen[key] {
						continue
					}
					seen[key] = true
				}
				out[l.Type]++
			}
		}
	}
	return out
}

// ReferencedIDs lists every id used as an edge endpoint, sorted.
func (p *Plan) ReferencedIDs() []string {
	set := map[string]bool{}
	for _, ph := range p.Phases {
		for _, s := range ph.Steps {
			for _, l := range s.Links {
				set[l.From] = true
				set[l.To] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
