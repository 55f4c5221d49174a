package build

import (
	"errors"
	"strings"
	"testing"

	"github.com/yungbote/archgraph/internal/catalog"
	"github.com/yungbote/archgraph/internal/datasets"
	types "github.com/yungbote/archgraph/internal/domain"
)

func TestEmbeddedDatasetsVerify(t *testing.T) {
	cat := catalog.Default()
	for _, name := range []string{"heatpump", "solar"} {
		if err := VerifyPlan(datasetPlan(t, name), cat); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestPlanOrdersCapabilitiesByLevel(t *testing.T) {
	p := datasetPlan(t, "hp")
	var names []string
	for _, ph := range p.Phases {
		if ph.Name != PhaseEntities {
			continue
		}
		for _, s := range ph.Steps {
			names = append(names, s.Name)
		}
	}
	n := len(names)
	if n < 2 || names[n-2] != "create BusinessCapability L1" || names[n-1] != "create BusinessCapability L2" {
		t.Fatalf("entity steps=%v", names)
	}
	origins := p.Origins()
	if origins[types.LabelCompany] != PhaseCompany || origins[types.LabelBusinessCapability] != PhaseEntities {
		t.Fatalf("origins=%v", origins)
	}
}

func TestPlanValidatesTreesAfterConnecting(t *testing.T) {
	p := datasetPlan(t, "hp")
	for _, ph := range p.Phases {
		switch ph.Name {
		case PhaseCapabilityHierarchy:
			last := ph.Steps[len(ph.Steps)-1]
			if last.Kind != StepValidate || last.Rule.Relationship != types.RelHasParent {
				t.Fatalf("hierarchy phase ends with %+v", last)
			}
		case PhaseRelationships:
			last := ph.Steps[len(ph.Steps)-1]
			if last.Kind != StepValidate || last.Rule.Relationship != types.RelPartOf {
				t.Fatalf("relationships phase ends with %+v", last)
			}
		case PhaseCompanyAssociation:
			if len(ph.Steps) != 1 || ph.Steps[0].Kind != StepAttach || ph.Steps[0].CompanyID != "hp-company-thermowerk" {
				t.Fatalf("association steps=%+v", ph.Steps)
			}
		}
	}
}

// Every connect step only references nodes created in a strictly earlier
// phase; moving ownership in front of the entities breaks that.
func TestVerifyPlanRejectsOutOfOrderPhases(t *testing.T) {
	cat := catalog.Default()
	m := tinyModel(cat)
	p, err := NewPlan(m, []PhaseSpec{{Name: PhaseCompany}, {Name: PhaseOwnership}, {Name: PhaseEntities}})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	err = VerifyPlan(p, cat)
	var dre *types.DanglingReferenceError
	if !errors.As(err, &dre) {
		t.Fatalf("expected DanglingReferenceError, got %v", err)
	}
	if dre.Phase != PhaseOwnership || dre.ExpectedIn != PhaseEntities {
		t.Fatalf("error=%+v", dre)
	}
}

func TestVerifyPlanRejectsDanglingReference(t *testing.T) {
	cat := catalog.Default()
	m := tinyModel(cat)
	m.Relationships = append(m.Relationships, types.Link{
		Type: types.RelSupports, From: "t-app-qms", FromLabel: types.LabelApplication,
		To: "t-cap-missing", ToLabel: types.LabelBusinessCapability,
	})
	err := VerifyPlan(defaultPlan(t, m), cat)
	var dre *types.DanglingReferenceError
	if !errors.As(err, &dre) || dre.ID != "t-cap-missing" || dre.Role != "target" {
		t.Fatalf("err=%v", err)
	}
}

func TestVerifyPlanRejectsAuthoringErrors(t *testing.T) {
	cat := catalog.Default()

	dup := tinyModel(cat)
	dup.Entities = append(dup.Entities, ent(cat, types.LabelPerson, "t-person-ann", nil))
	if err := VerifyPlan(defaultPlan(t, dup), cat); !errors.Is(err, types.ErrPlan) {
		t.Fatalf("duplicate entity: %v", err)
	}

	wrongLabel := tinyModel(cat)
	wrongLabel.Relationships[0].ToLabel = types.LabelApplication
	wrongLabel.Relationships[0].To = "t-app-qms"
	if err := VerifyPlan(defaultPlan(t, wrongLabel), cat); !errors.Is(err, types.ErrEndpoint) {
		t.Fatalf("wrong endpoint label: %v", err)
	}

	twoParents := tinyModel(cat)
	twoParents.Entities = append(twoParents.Entities, ent(cat, types.LabelBusinessCapability, "t-cap-sales", map[string]any{"level": 1}))
	twoParents.Hierarchy = append(twoParents.Hierarchy, types.Link{
		Type: types.RelHasParent, From: "t-cap-quality", FromLabel: types.LabelBusinessCapability,
		To: "t-cap-sales", ToLabel: types.LabelBusinessCapability,
	})
	if err := VerifyPlan(defaultPlan(t, twoParents), cat); !errors.Is(err, types.ErrCardinality) {
		t.Fatalf("two parents: %v", err)
	}

	invalid := tinyModel(cat)
	delete(invalid.Entities[0].Props, "role")
	if err := VerifyPlan(defaultPlan(t, invalid), cat); !errors.Is(err, types.ErrInvalidEntity) {
		t.Fatalf("invalid entity: %v", err)
	}

	if _, err := NewPlan(tinyModel(cat), []PhaseSpec{{Name: "teleport"}}); !errors.Is(err, types.ErrPlan) {
		t.Fatalf("unknown phase: %v", err)
	}
}

func TestVerifyPlanRejectsNestedProperties(t *testing.T) {
	cat := catalog.Default()
	doc := `
name: nested
namespace: n
company: {id: n-company-acme, name: Acme, industry: Testing, size: 3}
applications:
  - id: n-app-erp
    name: ERP
    criticality: high
    lifecycle: active
    technologyStack: [ABAP, HANA]
    hosting: on-premise
    cost: 100
    contract:
      vendor: SAP
`
	m, err := datasets.Parse([]byte(doc), cat)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	err = VerifyPlan(defaultPlan(t, m), cat)
	var ee *types.EntityError
	if !errors.As(err, &ee) || ee.ID != "n-app-erp" || !strings.Contains(ee.Msg, "contract") {
		t.Fatalf("err=%v", err)
	}
}

func TestExpectedEdgeCountsCollapseMergeLinks(t *testing.T) {
	cat := catalog.Default()
	m := tinyModel(cat)
	m.Entities = append(m.Entities, ent(cat, types.LabelArchitecture, "t-arch-now", nil))
	contains := types.Link{Type: types.RelContains, From: "t-arch-now", FromLabel: types.LabelArchitecture, To: "t-app-qms", ToLabel: types.LabelApplication}
	m.Relationships = append(m.Relationships, contains, contains)

	got := defaultPlan(t, m).ExpectedEdgeCounts(cat)
	if got[types.RelContains] != 1 || got[types.RelSupports] != 1 || got[types.RelHasParent] != 1 {
		t.Fatalf("counts=%v", got)
	}
	ids := defaultPlan(t, m).ReferencedIDs()
	if len(ids) != 6 || ids[0] != "t-app-qms" || ids[5] != "t-person-ann" {
		t.Fatalf("referenced ids=%v", ids)
	}
}

func TestFallbackOwnerIsDeterministic(t *testing.T) {
	pool := []string{"p-1", "p-2", "p-3"}
	first := fallbackOwner("hp-if-mes-qms", pool)
	for i := 0; i < 10; i++ {
		if got := fallbackOwner("hp-if-mes-qms", pool); got != first {
			t.Fatalf("owner changed: %s then %s", first, got)
		}
	}
	if fallbackOwner("x", nil) != "" {
		t.Fatalf("empty pool returned an owner")
	}

	p := datasetPlan(t, "hp")
	persons := p.Model.PersonIDs()
	var fallbacks []types.Link
	for _, ph := range p.Phases {
		if ph.Name != PhaseOwnership {
			continue
		}
		for _, s := range ph.Steps {
			for _, l := range s.Links {
				if l.From == "hp-if-mes-qms" || l.From == "hp-if-crm-erp" {
					fallbacks = append(fallbacks, l)
				}
			}
		}
	}
	if len(fallbacks) != 2 {
		t.Fatalf("fallback links=%v", fallbacks)
	}
	for _, l := range fallbacks {
		if l.To != fallbackOwner(l.From, persons) || l.ToLabel != types.LabelPerson {
			t.Fatalf("fallback link=%+v", l)
		}
	}
}
