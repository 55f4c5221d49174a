package build

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/hierarchy"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

// PhaseError is the first failure of a build, tagged with where it happened.
type PhaseError struct {
	Phase string
	Step  string
	Err   error
}

func (e *PhaseError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("phase %q failed at %q: %v", e.Phase, e.Step, e.Err)
}

func (e *PhaseError) Unwrap() error { return e.Err }

type PhaseStats struct {
	Name         string
	NodesCreated int
	EdgesCreated int
	Duration     time.Duration
}

type Summary struct {
	Phases []PhaseStats
}

func (s *Summary) Totals() (nodes, edges int) {
	for _, p := range s.Phases {
		nodes += p.NodesCreated
		edges += p.EdgesCreated
	}
	return nodes, edges
}

// Orchestrator runs a plan phase by phase through one executor. Statements are
// issued one at a time; the first error stops the build.
type Orchestrator struct {
	exec   graphdb.Executor
	cat    *catalog.Catalog
	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

func NewOrchestrator(exec graphdb.Executor, cat *catalog.Catalog, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		exec:   exec,
		cat:    cat,
		log:    log.With("component", "Orchestrator"),
		tracer: otel.Tracer("archgraph/build"),
		now:    time.Now,
	}
}

// WithClock fixes the timestamps written on nodes and edges.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Run verifies the plan, then executes it. Nothing is written when
// verification fails.
func (o *Orchestrator) Run(ctx context.Context, p *Plan) (*Summary, error) {
	if err := VerifyPlan(p, o.cat); err != nil {
		return nil, &PhaseError{Phase: "plan", Step: "verify", Err: err}
	}

	ctx, span := o.tracer.Start(ctx, "build.run", trace.WithAttributes(
		attribute.String("dataset", p.Model.Name),
		attribute.Int("phases", len(p.Phases)),
	))
	defer span.End()

	connector := catalog.NewConnector(o.exec, o.cat, o.log, p.Origins()).WithClock(o.now)
	summary := &Summary{}
	for _, ph := range p.Phases {
		stats, err := o.runPhase(ctx, p.Model, ph, connector)
		summary.Phases = append(summary.Phases, stats)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "phase failed")
			o.log.Error("phase failed; aborting build", "phase", ph.Name, "error", err)
			return summary, err
		}
	}
	nodes, edges := summary.Totals()
	o.log.Info("build complete", "dataset", p.Model.Name, "nodes", nodes, "edges", edges)
	return summary, nil
}

func (o *Orchestrator) runPhase(ctx context.Context, m *types.Model, ph PlannedPhase, connector *catalog.Connector) (PhaseStats, error) {
	ctx, span := o.tracer.Start(ctx, "build.phase."+ph.Name)
	defer span.End()

	start := time.Now()
	stats := PhaseStats{Name: ph.Name}
	o.log.Info("phase start", "phase", ph.Name, "steps", len(ph.Steps))

	for _, step := range ph.Steps {
		if err := o.runStep(ctx, m, ph.Name, step, connector, &stats); err != nil {
			stats.Duration = time.Since(start)
			span.RecordError(err)
			span.SetStatus(codes.Error, step.Name)
			return stats, &PhaseError{Phase: ph.Name, Step: step.Name, Err: err}
		}
	}
	stats.Duration = time.Since(start)
	span.SetAttributes(
		attribute.Int("nodes_created", stats.NodesCreated),
		attribute.Int("edges_created", stats.EdgesCreated),
	)
	o.log.Info("phase done", "phase", ph.Name, "nodes", stats.NodesCreated, "edges", stats.EdgesCreated, "duration", stats.Duration)
	return stats, nil
}

func (o *Orchestrator) runStep(ctx context.Context, m *types.Model, phase string, step Step, connector *catalog.Connector, stats *PhaseStats) error {
	switch step.Kind {
	case StepCreate:
		stmts, err := o.cat.CreateStatements(m.Namespace, step.Label, step.Entities, o.now())
		if err != nil {
			return err
		}
		for _, stmt := range stmts {
			res, err := o.exec.Execute(ctx, stmt)
			if err != nil {
				return err
			}
			stats.NodesCreated += res.Counters.NodesCreated
		}
	case StepConnect:
		n, err := connector.ConnectAll(ctx, phase, step.Links)
		stats.EdgesCreated += n
		if err != nil {
			return err
		}
	case StepValidate:
		if err := hierarchy.Validate(ctx, o.exec, step.Rule, o.cat.IDPrefixes(m.Namespace)...); err != nil {
			return err
		}
	case StepAttach:
		res, err := o.exec.Execute(ctx, graphdb.AttachUnassociated(step.CompanyID, o.cat.IDPrefixes(m.Namespace), string(types.RelBelongsTo), o.now().UTC().Format(time.RFC3339Nano)))
		if err != nil {
			return err
		}
		stats.EdgesCreated += res.Counters.RelationshipsCreated
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
	return nil
}
