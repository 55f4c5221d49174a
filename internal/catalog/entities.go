package catalog

import (
	"fmt"
	"sort"
	"strings"
	"time"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
)

const DefaultBatchSize = 500

// EntityType declares one node label: its identifier prefix and the attributes
// every instance must carry besides id, name and description.
type EntityType struct {
	Label    types.Label
	Prefix   string
	Required []string
}

var entityTypes = []EntityType{
	{Label: types.LabelCompany, Prefix: "company", Required: []string{"industry", "size"}},
	{Label: types.LabelPerson, Prefix: "person", Required: []string{"department", "role", "contact"}},
	{Label: types.LabelBusinessCapability, Prefix: "cap", Required: []string{"level", "maturity", "businessValue", "sequenceNumber"}},
	{Label: types.LabelApplication, Prefix: "app", Required: []string{"criticality", "lifecycle", "technologyStack", "hosting", "cost"}},
	{Label: types.LabelDataObject, Prefix: "data", Required: []string{"classification", "format"}},
	{Label: types.LabelInfrastructure, Prefix: "infra", Required: []string{"infrastructureType", "vendor", "capacity"}},
	{Label: types.LabelApplicationInterface, Prefix: "if", Required: []string{"protocol", "interfaceType", "version"}},
	{Label: types.LabelArchitecture, Prefix: "arch", Required: []string{"domain", "type", "timestamp"}},
	{Label: types.LabelArchitecturePrinciple, Prefix: "principle", Required: []string{"category", "priority", "rationale"}},
	{Label: types.LabelAIComponent, Prefix: "ai", Required: []string{"aiType", "accuracy", "version"}},
}

// Catalog holds the entity and relationship declarations of the graph model.
type Catalog struct {
	BatchSize int

	entities      map[types.Label]EntityType
	relationships map[types.RelType]RelationshipType
}

// Default returns the catalog of the enterprise architecture model.
func Default() *Catalog {
	c := &Catalog{
		BatchSize:     DefaultBatchSize,
		entities:      make(map[types.Label]EntityType, len(entityTypes)),
		relationships: make(map[types.RelType]RelationshipType, len(relationshipTypes)),
	}
	for _, et := range entityTypes {
		c.entities[et.Label] = et
	}
	for _, rt := range relationshipTypes {
		c.relationships[rt.Type] = rt
	}
	return c
}

func (c *Catalog) Entity(label types.Label) (EntityType, bool) {
	et, ok := c.entities[label]
	return et, ok
}

// IDPrefix is the leading part every identifier of label must have within namespace.
func (c *Catalog) IDPrefix(namespace string, label types.Label) string {
	et, ok := c.entities[label]
	if !ok {
		return ""
	}
	if namespace == "" {
		return et.Prefix + "-"
	}
	return namespace + "-" + et.Prefix + "-"
}

// IDPrefixes lists the per-label prefixes of namespace, sorted. Together they
// scope a dataset inside a graph that other datasets share.
func (c *Catalog) IDPrefixes(namespace string) []string {
	out := make([]string, 0, len(c.entities))
	for label := range c.entities {
		out = append(out, c.IDPrefix(namespace, label))
	}
	sort.Strings(out)
	return out
}

// LabelOf derives the label of id from its prefix. It returns "" when no
// prefix of namespace matches.
func (c *Catalog) LabelOf(namespace, id string) types.Label {
	for _, et := range entityTypes {
		if _, ok := c.entities[et.Label]; !ok {
			continue
		}
		prefix := c.IDPrefix(namespace, et.Label)
		if strings.HasPrefix(id, prefix) && len(id) > len(prefix) {
			return et.Label
		}
	}
	return ""
}

// ValidateEntity checks the identifier convention and required attributes.
func (c *Catalog) ValidateEntity(namespace string, e types.Entity) error {
	et, ok := c.entities[e.Label]
	if !ok {
		return &types.EntityError{Label: e.Label, ID: e.ID, Msg: "unknown label"}
	}
	prefix := c.IDPrefix(namespace, e.Label)
	if !strings.HasPrefix(e.ID, prefix) || len(e.ID) == len(prefix) {
		return &types.EntityError{Label: e.Label, ID: e.ID, Msg: fmt.Sprintf("identifier must look like %s<slug>", prefix)}
	}
	if strings.TrimSpace(e.Name) == "" {
		return &types.EntityError{Label: e.Label, ID: e.ID, Msg: "name is required"}
	}
	for _, key := range et.Required {
		if isEmpty(e.Props[key]) {
			return &types.EntityError{Label: e.Label, ID: e.ID, Msg: fmt.Sprintf("attribute %q is required", key)}
		}
	}
	keys := make([]string, 0, len(e.Props))
	for k := range e.Props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !isProperty(e.Props[key]) {
			return &types.EntityError{Label: e.Label, ID: e.ID, Msg: fmt.Sprintf("attribute %q must be a scalar or a list of one scalar type", key)}
		}
	}
	return nil
}

// CreateStatements validates entities and turns them into batched CREATE
// statements. Entities of another label are rejected.
func (c *Catalog) CreateStatements(namespace string, label types.Label, entities []types.Entity, now time.Time) ([]graphdb.Statement, error) {
	if len(entities) == 0 {
		return nil, nil
	}
	batch := c.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	ts := now.UTC().Format(time.RFC3339Nano)

	rows := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		if e.Label != label {
			return nil, &types.EntityError{Label: e.Label, ID: e.ID, Msg: fmt.Sprintf("expected label %s", label)}
		}
		if err := c.ValidateEntity(namespace, e); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(e.Props)+5)
		for k, v := range e.Props {
			row[k] = v
		}
		row["id"] = e.ID
		row["name"] = e.Name
		row["description"] = e.Description
		row["createdAt"] = ts
		row["updatedAt"] = ts
		rows = append(rows, row)
	}

	stmts := make([]graphdb.Statement, 0, len(rows)/batch+1)
	for start := 0; start < len(rows); start += batch {
		end := start + batch
		if end > len(rows) {
			end = len(rows)
		}
		stmts = append(stmts, graphdb.CreateNodes(string(label), rows[start:end]))
	}
	return stmts, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}

// isProperty reports whether Neo4j can store v as a node property. Maps and
// mixed lists are rejected by the server only when the statement runs.
func isProperty(v any) bool {
	switch t := v.(type) {
	case nil, []string:
		return true
	case []any:
		kind := ""
		for _, item := range t {
			k := scalarKind(item)
			if k == "" || (kind != "" && k != kind) {
				return false
			}
			kind = k
		}
		return true
	}
	return scalarKind(v) != ""
}

func scalarKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return "int"
	case float32, float64:
		return "float"
	case time.Time:
		return "time"
	}
	return ""
}
