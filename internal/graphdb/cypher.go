package graphdb

import (
	"fmt"
	"strings"
)

// Labels, relationship types and constraint names cannot be parameters in
// Cypher, so they are interpolated as quoted identifiers.
func quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func CreateNodes(label string, rows []map[string]any) Statement {
	return Statement{
		Op:     OpCreateNodes,
		Intent: fmt.Sprintf("create %d %s nodes", len(rows), label),
		Cypher: fmt.Sprintf(`
UNWIND $rows AS row
CREATE (n:%s)
SET n = row
`, quote(label)),
		Params: map[string]any{"label": label, "rows": rows},
	}
}

// ResolveIDs returns one record per id with the labels of the matching node
// (an empty list when nothing matches).
func ResolveIDs(ids []string) Statement {
	return Statement{
		Op:     OpResolveIDs,
		Intent: fmt.Sprintf("resolve %d identifiers", len(ids)),
		Cypher: `
UNWIND $ids AS ref
OPTIONAL MATCH (n {id: ref})
RETURN ref AS id, coalesce(labels(n), []) AS labels
`,
		Params: map[string]any{"ids": ids},
	}
}

// CreateEdges connects pre-resolved endpoints. With merge the edge is only
// created when absent.
func CreateEdges(rel, sourceLabel, targetLabel string, pairs []map[string]any, merge bool, now string) Statement {
	verb := "CREATE (a)-[e:%s]->(b)\nSET e.createdAt = $now"
	if merge {
		verb = "MERGE (a)-[e:%s]->(b)\nON CREATE SET e.createdAt = $now"
	}
	return Statement{
		Op:     OpCreateEdges,
		Intent: fmt.Sprintf("connect %d %s edges %s->%s", len(pairs), rel, sourceLabel, targetLabel),
		Cypher: fmt.Sprintf(`
UNWIND $rels AS r
MATCH (a:%s {id: r.from})
MATCH (b:%s {id: r.to})
`+verb+"\n", quote(sourceLabel), quote(targetLabel), quote(rel)),
		Params: map[string]any{
			"type":         rel,
			"source_label": sourceLabel,
			"target_label": targetLabel,
			"rels":         pairs,
			"merge":        merge,
			"now":          now,
		},
	}
}

// Degree counts existing rel edges leaving (out) or entering (in) each id.
func Degree(rel string, out bool, ids []string) Statement {
	pattern := "(n)-[e:%s]->()"
	dir := "out"
	if !out {
		pattern = "(n)<-[e:%s]-()"
		dir = "in"
	}
	return Statement{
		Op:     OpDegree,
		Intent: fmt.Sprintf("count %s %s-degree of %d nodes", rel, dir, len(ids)),
		Cypher: fmt.Sprintf(`
UNWIND $ids AS ref
MATCH (n {id: ref})
OPTIONAL MATCH `+pattern+`
RETURN ref AS id, count(e) AS degree
`, quote(rel)),
		Params: map[string]any{"type": rel, "out": out, "ids": ids},
	}
}

// AttachUnassociated links every node whose id starts with one of prefixes and
// that has no edge to the company yet. No prefixes match no node.
func AttachUnassociated(companyID string, prefixes []string, rel, now string) Statement {
	return Statement{
		Op:     OpAttachUnassociated,
		Intent: fmt.Sprintf("attach unassociated nodes to %s", companyID),
		Cypher: fmt.Sprintf(`
MATCH (c:Company {id: $company})
MATCH (n)
WHERE any(p IN $prefixes WHERE n.id STARTS WITH p) AND NOT n:Company AND NOT (n)--(c)
MERGE (n)-[e:%s]->(c)
ON CREATE SET e.createdAt = $now
`, quote(rel)),
		Params: map[string]any{"company": companyID, "prefixes": prefixes, "type": rel, "now": now},
	}
}

func DeleteBatch(limit int) Statement {
	return Statement{
		Op:     OpDeleteBatch,
		Intent: fmt.Sprintf("delete up to %d nodes", limit),
		Cypher: `
MATCH (n)
WITH n LIMIT $limit
DETACH DELETE n
RETURN count(*) AS deleted
`,
		Params: map[string]any{"limit": limit},
	}
}

func DropConstraint(name string) Statement {
	return Statement{
		Op:     OpDropConstraint,
		Intent: "drop constraint " + name,
		Cypher: "DROP CONSTRAINT " + quote(name),
		Params: map[string]any{"name": name},
	}
}

func CreateUniqueConstraint(name, label, property string) Statement {
	return Statement{
		Op:     OpCreateConstraint,
		Intent: "create constraint " + name,
		Cypher: fmt.Sprintf("CREATE CONSTRAINT %s FOR (n:%s) REQUIRE n.%s IS UNIQUE", quote(name), quote(label), quote(property)),
		Params: map[string]any{"name": name, "label": label, "property": property},
	}
}

// scopeClause restricts variable v to ids starting with one of prefixes. An
// empty prefix list leaves the match unscoped.
func scopeClause(v string, prefixes []string) string {
	if len(prefixes) == 0 {
		return ""
	}
	return fmt.Sprintf("WHERE any(p IN $prefixes WHERE %s.id STARTS WITH p)\n", v)
}

func CountNodes(label string, prefixes ...string) Statement {
	return Statement{
		Op:     OpCountNodes,
		Intent: "count " + label + " nodes",
		Cypher: fmt.Sprintf("MATCH (n:%s)\n%sRETURN count(n) AS count", quote(label), scopeClause("n", prefixes)),
		Params: map[string]any{"label": label, "prefixes": prefixes},
	}
}

// CountEdges counts rel edges, scoped by the id of their source node.
func CountEdges(rel string, prefixes ...string) Statement {
	return Statement{
		Op:     OpCountEdges,
		Intent: "count " + rel + " edges",
		Cypher: fmt.Sprintf("MATCH (a)-[e:%s]->()\n%sRETURN count(e) AS count", quote(rel), scopeClause("a", prefixes)),
		Params: map[string]any{"type": rel, "prefixes": prefixes},
	}
}

// TreeEdges lists every label node with its level, an optional value
// property and the ids of its rel targets.
func TreeEdges(label, rel, levelProperty, valueProperty string, prefixes ...string) Statement {
	return Statement{
		Op:     OpTreeEdges,
		Intent: fmt.Sprintf("load %s %s edges", label, rel),
		Cypher: fmt.Sprintf(`
MATCH (n:%s)
%sOPTIONAL MATCH (n)-[:%s]->(p)
RETURN n.id AS id, n.name AS name, n[$level] AS level, n[$value] AS value, collect(p.id) AS parents
`, quote(label), scopeClause("n", prefixes), quote(rel)),
		Params: map[string]any{"label": label, "type": rel, "level": levelProperty, "value": valueProperty, "prefixes": prefixes},
	}
}

func Ping() Statement {
	return Statement{Op: OpPing, Intent: "ping", Cypher: "RETURN 1 AS ok"}
}
