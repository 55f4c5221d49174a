package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Every typed error below unwraps to one
// of them.
var (
	// ErrConnectivity means the graph store could not be reached or refused the credentials.
	ErrConnectivity = errors.New("connectivity error")
	// ErrDanglingReference means a relationship endpoint does not resolve to a node.
	ErrDanglingReference = errors.New("dangling reference")
	// ErrStructural means a hierarchy invariant is violated.
	ErrStructural = errors.New("structural integrity error")
	// ErrEndpoint means a relationship connects labels the catalog does not allow.
	ErrEndpoint = errors.New("invalid endpoint")
	// ErrCardinality means a single-valued relationship would get a second edge.
	ErrCardinality = errors.New("cardinality violation")
	// ErrPlan means the phase plan is not well ordered or declares an entity twice.
	ErrPlan = errors.New("plan error")
	// ErrInvalidEntity means an entity breaks the identifier rule or misses attributes.
	ErrInvalidEntity = errors.New("invalid entity")
)

type ConnectivityError struct {
	URI string
	Err error
}

func (e *ConnectivityError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", ErrConnectivity, e.URI)
	}
	return fmt.Sprintf("%s: %s: %v", ErrConnectivity, e.URI, e.Err)
}

func (e *ConnectivityError) Unwrap() []error { return []error{ErrConnectivity, e.Err} }

// DanglingReferenceError names an identifier that a relationship step could
// not resolve. ExpectedIn is the phase that should have created it.
type DanglingReferenceError struct {
	ID           string
	Label        Label
	Role         string // "source" or "target"
	Relationship RelType
	Phase        string
	ExpectedIn   string
}

func (e *DanglingReferenceError) Error() string {
	if e == nil {
		return ""
	}
	label := string(e.Label)
	if label == "" {
		label = "node"
	}
	msg := fmt.Sprintf("%s: %s %q (%s of %s) does not exist", ErrDanglingReference, label, e.ID, e.Role, e.Relationship)
	if e.ExpectedIn != "" {
		msg += fmt.Sprintf("; expected to be created in phase %q", e.ExpectedIn)
	}
	if e.Phase != "" {
		msg += fmt.Sprintf(" before phase %q", e.Phase)
	}
	return msg
}

func (e *DanglingReferenceError) Unwrap() error { return ErrDanglingReference }

// StructuralError reports a broken hierarchy. Kind is one of missing_parent,
// multiple_parents, parent_level, root_has_parent, cycle.
type StructuralError struct {
	Relationship RelType
	NodeID       string
	Kind         string
	Msg          string
}

func (e *StructuralError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %s on %q: %s", ErrStructural, e.Relationship, e.Kind, e.NodeID, e.Msg)
}

func (e *StructuralError) Unwrap() error { return ErrStructural }

type EndpointError struct {
	Relationship RelType
	From         string
	FromLabel    Label
	To           string
	ToLabel      Label
}

func (e *EndpointError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s cannot connect %s %q to %s %q", ErrEndpoint, e.Relationship, e.FromLabel, e.From, e.ToLabel, e.To)
}

func (e *EndpointError) Unwrap() error { return ErrEndpoint }

type CardinalityError struct {
	Relationship RelType
	NodeID       string
	Side         string // "source" or "target"
	Count        int
}

func (e *CardinalityError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s allows one edge per %s, %q would have %d", ErrCardinality, e.Relationship, e.Side, e.NodeID, e.Count)
}

func (e *CardinalityError) Unwrap() error { return ErrCardinality }

type EntityError struct {
	Label Label
	ID    string
	Msg   string
}

func (e *EntityError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s %q: %s", ErrInvalidEntity, e.Label, e.ID, e.Msg)
}

func (e *EntityError) Unwrap() error { return ErrInvalidEntity }

type PlanError struct {
	Phase string
	Msg   string
}

func (e *PlanError) Error() string {
	if e == nil {
		return ""
	}
	if e.Phase == "" {
		return fmt.Sprintf("%s: %s", ErrPlan, e.Msg)
	}
	return fmt.Sprintf("%s: phase %q: %s", ErrPlan, e.Phase, e.Msg)
}

func (e *PlanError) Unwrap() error { return ErrPlan }
