package catalog

import (
	"errors"
	"strings"
	"testing"
	"time"

	types "github.com/yungbote/archgraph/internal/domain"
)

// entity returns a valid entity of label with every required attribute set.
func entity(cat *Catalog, label types.Label, id string) types.Entity {
	et, _ := cat.Entity(label)
	props := map[string]any{}
	for _, k := range et.Required {
		props[k] = "x"
	}
	if label == types.LabelBusinessCapability {
		props["level"] = 1
	}
	return types.Entity{Label: label, ID: id, Name: id, Props: props}
}

func TestValidateEntity(t *testing.T) {
	cat := Default()
	if err := cat.ValidateEntity("hp", entity(cat, types.LabelApplication, "hp-app-erp")); err != nil {
		t.Fatalf("valid entity rejected: %v", err)
	}

	cases := map[string]types.Entity{
		"wrong prefix":  entity(cat, types.LabelApplication, "hp-cap-erp"),
		"no namespace":  entity(cat, types.LabelApplication, "app-erp"),
		"bare prefix":   entity(cat, types.LabelApplication, "hp-app-"),
		"unknown label": {Label: "Robot", ID: "hp-robot-1", Name: "r"},
	}
	noName := entity(cat, types.LabelApplication, "hp-app-x")
	noName.Name = " "
	cases["no name"] = noName
	missing := entity(cat, types.LabelApplication, "hp-app-y")
	delete(missing.Props, "cost")
	cases["missing attribute"] = missing
	nested := entity(cat, types.LabelApplication, "hp-app-z")
	nested.Props["contract"] = map[string]any{"vendor": "SAP"}
	cases["map attribute"] = nested
	mixed := entity(cat, types.LabelApplication, "hp-app-w")
	mixed.Props["technologyStack"] = []any{"Java", 17}
	cases["mixed list attribute"] = mixed

	for name, e := range cases {
		err := cat.ValidateEntity("hp", e)
		if !errors.Is(err, types.ErrInvalidEntity) {
			t.Fatalf("%s: expected ErrInvalidEntity, got %v", name, err)
		}
	}
}

func TestValidateEntityAcceptsScalarLists(t *testing.T) {
	cat := Default()
	e := entity(cat, types.LabelApplication, "hp-app-erp")
	e.Props["technologyStack"] = []any{"ABAP", "HANA"}
	e.Props["cost"] = 120000
	e.Props["retired"] = false
	e.Props["notes"] = nil
	if err := cat.ValidateEntity("hp", e); err != nil {
		t.Fatalf("ValidateEntity: %v", err)
	}
}

func TestIDPrefixes(t *testing.T) {
	cat := Default()
	hp := cat.IDPrefixes("hp")
	if len(hp) != len(types.AllLabels) {
		t.Fatalf("hp prefixes=%v", hp)
	}
	for i, p := range hp {
		if !strings.HasPrefix(p, "hp-") || !strings.HasSuffix(p, "-") {
			t.Fatalf("prefix %q", p)
		}
		if i > 0 && hp[i-1] >= p {
			t.Fatalf("prefixes not sorted: %v", hp)
		}
	}
	for _, p := range cat.IDPrefixes("") {
		if strings.HasPrefix("hp-person-anna", p) {
			t.Fatalf("empty namespace prefix %q matches a namespaced id", p)
		}
	}
}

func TestLabelOf(t *testing.T) {
	cat := Default()
	cases := map[string]types.Label{
		"hp-company-thermowerk": types.LabelCompany,
		"hp-cap-sales":          types.LabelBusinessCapability,
		"hp-if-crm-erp":         types.LabelApplicationInterface,
		"hp-infra-dc-main":      types.LabelInfrastructure,
		"hp-principle-x":        types.LabelArchitecturePrinciple,
		"hp-ai-vision":          types.LabelAIComponent,
		"hp-app-":               "",
		"sol-app-erp":           "",
	}
	for id, want := range cases {
		if got := cat.LabelOf("hp", id); got != want {
			t.Fatalf("LabelOf(%s)=%q want %q", id, got, want)
		}
	}
	if got := cat.LabelOf("", "cap-y"); got != types.LabelBusinessCapability {
		t.Fatalf("LabelOf without namespace=%q", got)
	}
}

func TestCreateStatementsBatches(t *testing.T) {
	cat := Default()
	cat.BatchSize = 2
	var es []types.Entity
	for _, id := range []string{"app-a", "app-b", "app-c", "app-d", "app-e"} {
		es = append(es, entity(cat, types.LabelApplication, id))
	}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	stmts, err := cat.CreateStatements("", types.LabelApplication, es, now)
	if err != nil {
		t.Fatalf("CreateStatements: %v", err)
	}
	if len(stmts) != 3 {
		t.Fatalf("statements=%d want 3", len(stmts))
	}
	rows := stmts[0].Params["rows"].([]map[string]any)
	if len(rows) != 2 || rows[0]["id"] != "app-a" || rows[0]["createdAt"] != "2024-05-01T12:00:00Z" {
		t.Fatalf("first batch=%v", rows)
	}

	if _, err := cat.CreateStatements("", types.LabelPerson, es, now); !errors.Is(err, types.ErrInvalidEntity) {
		t.Fatalf("label mismatch accepted: %v", err)
	}
	if stmts, err := cat.CreateStatements("", types.LabelPerson, nil, now); err != nil || stmts != nil {
		t.Fatalf("empty input: %v %v", stmts, err)
	}
}

func TestCheckLink(t *testing.T) {
	cat := Default()
	ok := types.Link{Type: types.RelSupports, From: "app-x", FromLabel: types.LabelApplication, To: "cap-y", ToLabel: types.LabelBusinessCapability}
	if err := cat.CheckLink(ok); err != nil {
		t.Fatalf("valid link rejected: %v", err)
	}
	bad := ok
	bad.ToLabel = types.LabelPerson
	if err := cat.CheckLink(bad); !errors.Is(err, types.ErrEndpoint) {
		t.Fatalf("expected ErrEndpoint, got %v", err)
	}
	if err := cat.CheckLink(types.Link{Type: "LIKES"}); err == nil {
		t.Fatalf("unknown relationship accepted")
	}
}

func TestEveryRelationshipIsDeclared(t *testing.T) {
	cat := Default()
	for _, rel := range types.AllRelTypes {
		rt, ok := cat.Relationship(rel)
		if !ok {
			t.Fatalf("%s not declared", rel)
		}
		if len(rt.Sources) == 0 || len(rt.Targets) == 0 {
			t.Fatalf("%s has no endpoints", rel)
		}
	}
	for _, l := range types.AllLabels {
		if _, ok := cat.Entity(l); !ok {
			t.Fatalf("%s not declared", l)
		}
	}
}
