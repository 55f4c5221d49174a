package build

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yungbote/archgraph/internal/platform/logger"
)

func TestEmbeddedPhasesParse(t *testing.T) {
	data, err := phaseSpecFS.ReadFile("phases.yaml")
	if err != nil {
		t.Fatalf("read embedded spec: %v", err)
	}
	phases, err := ParsePhases(data)
	if err != nil {
		t.Fatalf("ParsePhases: %v", err)
	}
	want := []string{PhaseCompany, PhaseEntities, PhaseOwnership, PhaseCapabilityHierarchy, PhaseRelationships, PhaseAIWiring, PhaseCompanyAssociation}
	if len(phases) != len(want) {
		t.Fatalf("phases=%d want %d", len(phases), len(want))
	}
	for i, p := range phases {
		if p.Name != want[i] {
			t.Fatalf("phase %d=%s want %s", i, p.Name, want[i])
		}
		if p.Description == "" {
			t.Fatalf("phase %s has no description", p.Name)
		}
	}
	if len(fallbackPhases) != len(want) {
		t.Fatalf("fallback list drifted from the embedded spec")
	}
}

func TestParsePhasesRejectsBadSpecs(t *testing.T) {
	cases := map[string]string{
		"wrong pipeline": "pipeline: other\nphases:\n  - name: company\n",
		"no phases":      "pipeline: graph_build\n",
		"unnamed":        "pipeline: graph_build\nphases:\n  - description: x\n",
		"duplicate":      "pipeline: graph_build\nphases:\n  - name: company\n  - name: company\n",
		"no planner":     "pipeline: graph_build\nphases:\n  - name: teleport\n",
		"forward dep":    "pipeline: graph_build\nphases:\n  - name: ownership\n    depends_on: [entities]\n  - name: entities\n",
		"unknown dep":    "pipeline: graph_build\nphases:\n  - name: company\n    depends_on: [nothing]\n",
		"bad yaml":       "pipeline: [graph_build\n",
	}
	for name, doc := range cases {
		if _, err := ParsePhases([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestParsePhasesSkipsDisabled(t *testing.T) {
	doc := `
pipeline: graph_build
phases:
  - name: company
  - name: entities
    depends_on: [company, company]
  - name: ai_wiring
    enabled: false
  - name: company_association
    depends_on: [entities]
`
	phases, err := ParsePhases([]byte(doc))
	if err != nil {
		t.Fatalf("ParsePhases: %v", err)
	}
	if len(phases) != 3 || phases[2].Name != PhaseCompanyAssociation {
		t.Fatalf("phases=%+v", phases)
	}
	if len(phases[1].DependsOn) != 1 {
		t.Fatalf("depends_on not deduped: %v", phases[1].DependsOn)
	}

	// depending on a disabled phase is an error
	bad := strings.Replace(doc, "depends_on: [entities]", "depends_on: [ai_wiring]", 1)
	if _, err := ParsePhases([]byte(bad)); err == nil {
		t.Fatalf("dependency on disabled phase accepted")
	}
}

func TestLoadPhasesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phases.yaml")
	if err := os.WriteFile(path, []byte("pipeline: graph_build\nphases:\n  - name: company\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(phasesEnv, path)
	phases, err := LoadPhases(logger.Nop())
	if err != nil || len(phases) != 1 || phases[0].Name != PhaseCompany {
		t.Fatalf("phases=%v err=%v", phases, err)
	}

	t.Setenv(phasesEnv, filepath.Join(dir, "missing.yaml"))
	if _, err := LoadPhases(logger.Nop()); err == nil {
		t.Fatalf("missing override accepted")
	}

	t.Setenv(phasesEnv, "")
	phases, err = LoadPhases(logger.Nop())
	if err != nil || len(phases) != 7 {
		t.Fatalf("embedded: phases=%d err=%v", len(phases), err)
	}
}
