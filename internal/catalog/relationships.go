package catalog

import (
	"fmt"

	types "github.com/yungbote/archgraph/internal/domain"
)

type Cardinality string

const (
	// ManyToMany puts no limit on either side.
	ManyToMany Cardinality = "many-to-many"
	// ManyToOne allows each source at most one edge of the type.
	ManyToOne Cardinality = "many-to-one"
	// OneToMany allows each target at most one edge of the type.
	OneToMany Cardinality = "one-to-many"
)

// Discipline decides whether re-running a connect step may duplicate edges.
type Discipline string

const (
	// Create always adds an edge; a repeated link is an authoring error.
	Create Discipline = "create"
	// Merge adds the edge only when the same typed edge is absent.
	Merge Discipline = "merge"
)

// RelationshipType declares one edge type. Every combination of a source and a
// target label is allowed.
type RelationshipType struct {
	Type        types.RelType
	Sources     []types.Label
	Targets     []types.Label
	Cardinality Cardinality
	Discipline  Discipline
}

func (rt RelationshipType) Allows(source, target types.Label) bool {
	return hasLabel(rt.Sources, source) && hasLabel(rt.Targets, target)
}

var ownable = []types.Label{
	types.LabelPerson,
	types.LabelBusinessCapability,
	types.LabelApplication,
	types.LabelDataObject,
	types.LabelInfrastructure,
	types.LabelApplicationInterface,
	types.LabelArchitecture,
	types.LabelArchitecturePrinciple,
	types.LabelAIComponent,
}

var (
	appOrAI = []types.Label{types.LabelApplication, types.LabelAIComponent}
	infra   = []types.Label{types.LabelInfrastructure}
)

var relationshipTypes = []RelationshipType{
	{Type: types.RelOwnedBy, Sources: ownable, Targets: []types.Label{types.LabelPerson, types.LabelCompany}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelEmployedBy, Sources: []types.Label{types.LabelPerson}, Targets: []types.Label{types.LabelCompany}, Cardinality: ManyToOne, Discipline: Create},
	{Type: types.RelHasParent, Sources: []types.Label{types.LabelBusinessCapability}, Targets: []types.Label{types.LabelBusinessCapability}, Cardinality: ManyToOne, Discipline: Create},
	{Type: types.RelSupports, Sources: appOrAI, Targets: []types.Label{types.LabelBusinessCapability}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelUses, Sources: appOrAI, Targets: []types.Label{types.LabelDataObject}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelDataSource, Sources: []types.Label{types.LabelDataObject}, Targets: []types.Label{types.LabelApplication}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelHostedOn, Sources: appOrAI, Targets: infra, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelInterfaceSource, Sources: []types.Label{types.LabelApplication}, Targets: []types.Label{types.LabelApplicationInterface}, Cardinality: OneToMany, Discipline: Create},
	{Type: types.RelInterfaceTarget, Sources: []types.Label{types.LabelApplication}, Targets: []types.Label{types.LabelApplicationInterface}, Cardinality: OneToMany, Discipline: Create},
	{Type: types.RelTransfers, Sources: []types.Label{types.LabelApplicationInterface}, Targets: []types.Label{types.LabelDataObject}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelContains, Sources: []types.Label{types.LabelArchitecture}, Targets: ownable, Cardinality: ManyToMany, Discipline: Merge},
	{Type: types.RelAppliesPrinciple, Sources: []types.Label{types.LabelArchitecture}, Targets: []types.Label{types.LabelArchitecturePrinciple}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelImplementsPrinciple, Sources: []types.Label{types.LabelApplication}, Targets: []types.Label{types.LabelArchitecturePrinciple}, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelPartOf, Sources: []types.Label{types.LabelArchitecture}, Targets: []types.Label{types.LabelArchitecture}, Cardinality: ManyToOne, Discipline: Create},
	{Type: types.RelSuccessorOf, Sources: []types.Label{types.LabelApplication}, Targets: []types.Label{types.LabelApplication}, Cardinality: ManyToOne, Discipline: Create},
	{Type: types.RelReplicatesTo, Sources: infra, Targets: infra, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelHosts, Sources: infra, Targets: infra, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelConnects, Sources: infra, Targets: infra, Cardinality: ManyToMany, Discipline: Create},
	{Type: types.RelBelongsTo, Sources: ownable, Targets: []types.Label{types.LabelCompany}, Cardinality: ManyToOne, Discipline: Merge},
}

func (c *Catalog) Relationship(rel types.RelType) (RelationshipType, bool) {
	rt, ok := c.relationships[rel]
	return rt, ok
}

// CheckLink validates a link against the declared endpoint labels without
// touching the store.
func (c *Catalog) CheckLink(l types.Link) error {
	rt, ok := c.relationships[l.Type]
	if !ok {
		return fmt.Errorf("catalog: unknown relationship type %q", l.Type)
	}
	if !rt.Allows(l.FromLabel, l.ToLabel) {
		return &types.EndpointError{Relationship: l.Type, From: l.From, FromLabel: l.FromLabel, To: l.To, ToLabel: l.ToLabel}
	}
	return nil
}

func hasLabel(labels []types.Label, l types.Label) bool {
	for _, x := range labels {
		if x == l {
			return true
		}
	}
	return false
}
