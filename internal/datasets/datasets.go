// Package datasets turns declarative company descriptions (YAML) into the
// model the builder plans from. The demo companies are embedded.
package datasets

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
)

//go:embed data/*.yaml
var datasetFS embed.FS

var ErrUnknownDataset = errors.New("unknown dataset")

type datasetDoc struct {
	Name           string      `yaml:"name"`
	Namespace      string      `yaml:"namespace"`
	Company        entityDoc   `yaml:"company"`
	People         []entityDoc `yaml:"people"`
	Capabilities   []entityDoc `yaml:"capabilities"`
	Applications   []entityDoc `yaml:"applications"`
	DataObjects    []entityDoc `yaml:"data_objects"`
	Infrastructure []entityDoc `yaml:"infrastructure"`
	Interfaces     []entityDoc `yaml:"interfaces"`
	Principles     []entityDoc `yaml:"principles"`
	Architectures  []entityDoc `yaml:"architectures"`
	AIComponents   []entityDoc `yaml:"ai_components"`
	OwnerPool      []string    `yaml:"owner_pool"`
	Expected       struct {
		Counts map[string]int `yaml:"counts"`
		IDs    []string       `yaml:"ids"`
	} `yaml:"expected"`
}

// entityDoc is one entity with its outgoing references. Keys that are not
// reference fields become graph properties unchanged.
type entityDoc struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Owners       []string `yaml:"owners"`
	Parent       string   `yaml:"parent"`
	Supports     []string `yaml:"supports"`
	Uses         []string `yaml:"uses"`
	HostedOn     []string `yaml:"hosted_on"`
	Sources      []string `yaml:"sources"`
	Implements   []string `yaml:"implements"`
	SuccessorOf  string   `yaml:"successor_of"`
	Source       string   `yaml:"source"`
	Target       string   `yaml:"target"`
	Transfers    []string `yaml:"transfers"`
	Contains     []string `yaml:"contains"`
	Applies      []string `yaml:"applies"`
	PartOf       string   `yaml:"part_of"`
	ReplicatesTo []string `yaml:"replicates_to"`
	Hosts        []string `yaml:"hosts"`
	Connects     []string `yaml:"connects"`

	Props map[string]any `yaml:",inline"`
}

// Names lists the embedded datasets, sorted.
func Names() []string {
	entries, err := datasetFS.ReadDir("data")
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".yaml") {
			out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
		}
	}
	sort.Strings(out)
	return out
}

// Load parses an embedded dataset by name or by namespace ("hp" finds heatpump).
func Load(name string) (*types.Model, error) {
	name = strings.TrimSpace(name)
	if data, err := datasetFS.ReadFile(path.Join("data", name+".yaml")); err == nil {
		return Parse(data, catalog.Default())
	}
	for _, n := range Names() {
		data, err := datasetFS.ReadFile(path.Join("data", n+".yaml"))
		if err != nil {
			continue
		}
		var head struct {
			Namespace string `yaml:"namespace"`
		}
		if yaml.Unmarshal(data, &head) == nil && head.Namespace == name {
			return Parse(data, catalog.Default())
		}
	}
	return nil, fmt.Errorf("%w: %q (have %s)", ErrUnknownDataset, name, strings.Join(Names(), ", "))
}

// LoadFile parses a dataset from disk.
func LoadFile(file string) (*types.Model, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", file, err)
	}
	return Parse(data, catalog.Default())
}

// Parse decodes a dataset. Reference labels are derived from identifier
// prefixes, so a reference to an undeclared id still carries the label it
// was meant to have and surfaces as a dangling reference when planned.
func Parse(data []byte, cat *catalog.Catalog) (*types.Model, error) {
	var doc datasetDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return nil, errors.New("dataset name is required")
	}
	if doc.Company.ID == "" {
		return nil, fmt.Errorf("dataset %s: company is required", doc.Name)
	}

	m := &types.Model{
		Name:      doc.Name,
		Namespace: doc.Namespace,
		Company:   toEntity(types.LabelCompany, doc.Company),
	}
	b := &linkBuilder{cat: cat, namespace: doc.Namespace, model: m}

	sections := []struct {
		label types.Label
		docs  []entityDoc
	}{
		{types.LabelPerson, doc.People},
		{types.LabelBusinessCapability, doc.Capabilities},
		{types.LabelApplication, doc.Applications},
		{types.LabelDataObject, doc.DataObjects},
		{types.LabelInfrastructure, doc.Infrastructure},
		{types.LabelApplicationInterface, doc.Interfaces},
		{types.LabelArchitecturePrinciple, doc.Principles},
		{types.LabelArchitecture, doc.Architectures},
		{types.LabelAIComponent, doc.AIComponents},
	}
	for _, s := range sections {
		for _, d := range s.docs {
			m.Entities = append(m.Entities, toEntity(s.label, d))
			b.add(s.label, d)
		}
	}
	for _, p := range doc.People {
		b.link(&m.Ownership, types.RelEmployedBy, p.ID, types.LabelPerson, m.Company.ID)
	}

	m.OwnerPool = dedupeSorted(doc.OwnerPool)
	m.Expected.IDs = doc.Expected.IDs
	if len(doc.Expected.Counts) > 0 {
		m.Expected.Counts = make(map[types.Label]int, len(doc.Expected.Counts))
		for k, v := range doc.Expected.Counts {
			label := types.Label(k)
			if _, ok := cat.Entity(label); !ok {
				return nil, fmt.Errorf("dataset %s: expected count for unknown label %q", doc.Name, k)
			}
			m.Expected.Counts[label] = v
		}
	}
	return m, nil
}

func toEntity(label types.Label, d entityDoc) types.Entity {
	props := make(map[string]any, len(d.Props))
	for k, v := range d.Props {
		props[k] = v
	}
	return types.Entity{Label: label, ID: d.ID, Name: d.Name, Description: d.Description, Props: props}
}

type linkBuilder struct {
	cat       *catalog.Catalog
	namespace string
	model     *types.Model
}

func (b *linkBuilder) link(dst *[]types.Link, rel types.RelType, from string, fromLabel types.Label, to string) {
	*dst = append(*dst, types.Link{
		Type:      rel,
		From:      from,
		FromLabel: fromLabel,
		To:        to,
		ToLabel:   b.cat.LabelOf(b.namespace, to),
	})
}

// add expands every reference field of d. Edges leaving an AI component go
// to the AI wiring group.
func (b *linkBuilder) add(label types.Label, d entityDoc) {
	m := b.model
	rels := &m.Relationships
	if label == types.LabelAIComponent {
		rels = &m.AIWiring
	}
	for _, o := range d.Owners {
		b.link(&m.Ownership, types.RelOwnedBy, d.ID, label, o)
	}
	if d.Parent != "" {
		b.link(&m.Hierarchy, types.RelHasParent, d.ID, label, d.Parent)
	}

	out := []struct {
		rel types.RelType
		ids []string
	}{
		{types.RelSupports, d.Supports},
		{types.RelUses, d.Uses},
		{types.RelDataSource, d.Sources},
		{types.RelHostedOn, d.HostedOn},
		{types.RelTransfers, d.Transfers},
		{types.RelContains, d.Contains},
		{types.RelAppliesPrinciple, d.Applies},
		{types.RelImplementsPrinciple, d.Implements},
		{types.RelPartOf, single(d.PartOf)},
		{types.RelSuccessorOf, single(d.SuccessorOf)},
		{types.RelReplicatesTo, d.ReplicatesTo},
		{types.RelHosts, d.Hosts},
		{types.RelConnects, d.Connects},
	}
	for _, o := range out {
		for _, id := range o.ids {
			b.link(rels, o.rel, d.ID, label, id)
		}
	}

	// interface wiring points from the applications to the interface
	if d.Source != "" {
		*rels = append(*rels, types.Link{Type: types.RelInterfaceSource, From: d.Source, FromLabel: b.cat.LabelOf(b.namespace, d.Source), To: d.ID, ToLabel: label})
	}
	if d.Target != "" {
		*rels = append(*rels, types.Link{Type: types.RelInterfaceTarget, From: d.Target, FromLabel: b.cat.LabelOf(b.namespace, d.Target), To: d.ID, ToLabel: label})
	}
}

func single(id string) []string {
	if id == "" {
		return nil
	}
	return []string{id}
}

func dedupeSorted(in []string) []string {
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
	sort.Strings(out)
	return out
}
