package build

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/archgraph/internal/platform/logger"
)

const phasesEnv = "ARCHGRAPH_PHASES_YAML"

//go:embed phases.yaml
var phaseSpecFS embed.FS

// fallback phase list used when the embedded YAML is unreadable
var fallbackPhases = []PhaseSpec{
	{Name: PhaseCompany},
	{Name: PhaseEntities, DependsOn: []string{PhaseCompany}},
	{Name: PhaseOwnership, DependsOn: []string{PhaseEntities}},
	{Name: PhaseCapabilityHierarchy, DependsOn: []string{PhaseEntities}},
	{Name: PhaseRelationships, DependsOn: []string{PhaseOwnership, PhaseCapabilityHierarchy}},
	{Name: PhaseAIWiring, DependsOn: []string{PhaseRelationships}},
	{Name: PhaseCompanyAssociation, DependsOn: []string{PhaseAIWiring}},
}

// PhaseSpec is one declared phase. A phase may only depend on phases listed
// before it.
type PhaseSpec struct {
	Name        string
	Description string
	DependsOn   []string
}

type yamlPipelineSpec struct {
	Pipeline string          `yaml:"pipeline"`
	Version  int             `yaml:"version"`
	Phases   []yamlPhaseSpec `yaml:"phases"`
}

type yamlPhaseSpec struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	DependsOn   []string `yaml:"depends_on"`
	Enabled     *bool    `yaml:"enabled"`
}

// LoadPhases returns the declared phase list. An override file named by
// ARCHGRAPH_PHASES_YAML must be valid; a broken embedded list falls back to
// the built-in order.
func LoadPhases(log *logger.Logger) ([]PhaseSpec, error) {
	if path := strings.TrimSpace(os.Getenv(phasesEnv)); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return ParsePhases(data)
	}
	data, err := phaseSpecFS.ReadFile("phases.yaml")
	if err == nil {
		var phases []PhaseSpec
		if phases, err = ParsePhases(data); err == nil {
			return phases, nil
		}
	}
	if log != nil {
		log.Warn("graph_build: phase spec load failed; using fallback", "error", err)
	}
	return fallbackPhases, nil
}

func ParsePhases(data []byte) ([]PhaseSpec, error) {
	var spec yamlPipelineSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, err
	}
	if err := validatePhaseSpec(&spec); err != nil {
		return nil, err
	}
	out := make([]PhaseSpec, 0, len(spec.Phases))
	for _, p := range spec.Phases {
		if p.Enabled != nil && !*p.Enabled {
			continue
		}
		out = append(out, PhaseSpec{
			Name:        strings.TrimSpace(p.Name),
			Description: strings.TrimSpace(p.Description),
			DependsOn:   dedupeStrings(p.DependsOn),
		})
	}
	return out, nil
}

func validatePhaseSpec(spec *yamlPipelineSpec) error {
	if spec == nil {
		return errors.New("missing spec")
	}
	if strings.TrimSpace(spec.Pipeline) != "graph_build" {
		return fmt.Errorf("unexpected pipeline: %s", spec.Pipeline)
	}
	if len(spec.Phases) == 0 {
		return errors.New("no phases defined")
	}

	declared := map[string]bool{}
	orderIndex := map[string]int{}
	for _, p := range spec.Phases {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return errors.New("phase name is required")
		}
		if declared[name] {
			return fmt.Errorf("duplicate phase name: %s", name)
		}
		declared[name] = true
		if _, ok := planners[name]; !ok {
			return fmt.Errorf("phase %s: no planner registered", name)
		}
		if p.Enabled != nil && !*p.Enabled {
			continue
		}
		orderIndex[name] = len(orderIndex)
	}

	for _, p := range spec.Phases {
		name := strings.TrimSpace(p.Name)
		if _, enabled := orderIndex[name]; !enabled {
			continue
		}
		for _, dep := range p.DependsOn {
			dep = strings.TrimSpace(dep)
			if dep == "" {
				continue
			}
			idx, ok := orderIndex[dep]
			if !ok {
				return fmt.Errorf("phase %s: unknown dependency %s", name, dep)
			}
			if idx >= orderIndex[name] {
				return fmt.Errorf("phase %s: dependency %s appears after phase in order", name, dep)
			}
		}
	}
	return nil
}

func dedupeStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := map[string]bool{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
