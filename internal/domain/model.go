package domain

import "sort"

// Entity is one node to be created. Props holds the label specific scalar
// attributes; id and name are kept outside so every label shares them.
type Entity struct {
	Label       Label
	ID          string
	Name        string
	Description string
	Props       map[string]any
}

// Level returns the integer "level" attribute, 0 when absent.
func (e Entity) Level() int {
	switch v := e.Props["level"].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

// Link is one directed edge declaration. FromLabel and ToLabel are the labels
// the declaring dataset expects the endpoints to carry.
type Link struct {
	Type      RelType
	From      string
	FromLabel Label
	To        string
	ToLabel   Label
}

// Expectations are the fixed per-dataset facts checked after a build.
type Expectations struct {
	Counts map[Label]int
	IDs    []string
}

// Model is a complete dataset ready to be planned: entities plus the edges
// between them, grouped by the concern that declares them.
type Model struct {
	Name      string
	Namespace string
	Company   Entity
	Entities  []Entity

	Ownership     []Link
	Hierarchy     []Link
	Relationships []Link
	AIWiring      []Link

	// OwnerPool is the sorted set of person ids used for interfaces that
	// declare no owner.
	OwnerPool []string

	Expected Expectations
}

// EntitiesByLabel returns the entities carrying label in declaration order.
func (m *Model) EntitiesByLabel(label Label) []Entity {
	if m == nil {
		return nil
	}
	if label == LabelCompany {
		if m.Company.ID == "" {
			return nil
		}
		return []Entity{m.Company}
	}
	var out []Entity
	for _, e := range m.Entities {
		if e.Label == label {
			out = append(out, e)
		}
	}
	return out
}

// PersonIDs returns the sorted ids of all Person entities.
func (m *Model) PersonIDs() []string {
	var ids []string
	for _, e := range m.EntitiesByLabel(LabelPerson) {
		ids = append(ids, e.ID)
	}
	sort.Strings(ids)
	return ids
}
