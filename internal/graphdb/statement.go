package graphdb

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Op identifies the shape of a statement. The Neo4j gateway only looks at
// Cypher and Params; the in-memory engine dispatches on Op.
type Op string

const (
	OpCreateNodes        Op = "create_nodes"
	OpResolveIDs         Op = "resolve_ids"
	OpCreateEdges        Op = "create_edges"
	OpDegree             Op = "degree"
	OpAttachUnassociated Op = "attach_unassociated"
	OpDeleteBatch        Op = "delete_batch"
	OpDropConstraint     Op = "drop_constraint"
	OpCreateConstraint   Op = "create_constraint"
	OpCountNodes         Op = "count_nodes"
	OpCountEdges         Op = "count_edges"
	OpTreeEdges          Op = "tree_edges"
	OpPing               Op = "ping"
)

// Statement is one unit of work submitted to the store. Intent is a short
// human description used in logs and error messages.
type Statement struct {
	Op     Op
	Intent string
	Cypher string
	Params map[string]any
}

type Counters struct {
	NodesCreated         int
	NodesDeleted         int
	RelationshipsCreated int
	RelationshipsDeleted int
	ConstraintsAdded     int
	ConstraintsRemoved   int
}

type Record map[string]any

type Result struct {
	Records  []Record
	Counters Counters
}

// Executor runs one statement and returns once its result is fully known.
type Executor interface {
	Execute(ctx context.Context, stmt Statement) (*Result, error)
}

var (
	// ErrConstraintNotFound is returned when dropping a constraint that does not exist.
	ErrConstraintNotFound = errors.New("constraint not found")
	// ErrConstraintViolation is returned when a write breaks a uniqueness constraint.
	ErrConstraintViolation = errors.New("constraint violation")
)

// StatementError wraps any other failure of a statement together with its intent.
type StatementError struct {
	Intent string
	Err    error
}

func (e *StatementError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("statement %q failed: %v", e.Intent, e.Err)
}

func (e *StatementError) Unwrap() error { return e.Err }

func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func (r Record) Int(key string) int {
	switch v := r[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (r Record) Bool(key string) bool {
	v, _ := r[key].(bool)
	return v
}

// Strings reads a list value; the Neo4j driver returns []any.
func (r Record) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
