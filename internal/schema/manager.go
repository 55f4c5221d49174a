// Package schema owns the destructive side of the builder: wiping the graph and
// reinstalling the uniqueness constraints on node identifiers.
package schema

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yungbote/archgraph/internal/catalog"
	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

const DefaultResetBatch = 10000

type Manager struct {
	exec      graphdb.Executor
	log       *logger.Logger
	labels    []types.Label
	BatchSize int
}

func NewManager(exec graphdb.Executor, cat *catalog.Catalog, log *logger.Logger) *Manager {
	var labels []types.Label
	for _, l := range types.AllLabels {
		if _, ok := cat.Entity(l); ok {
			labels = append(labels, l)
		}
	}
	return &Manager{
		exec:      exec,
		log:       log.With("component", "SchemaManager"),
		labels:    labels,
		BatchSize: DefaultResetBatch,
	}
}

// ConstraintName is the name of the id uniqueness constraint of label.
func ConstraintName(label types.Label) string {
	return strings.ToLower(string(label)) + "_id_unique"
}

// Reset deletes every node and edge, one batch per statement, until a batch
// deletes nothing. Any failure stops the reset.
func (m *Manager) Reset(ctx context.Context) (int, error) {
	batch := m.BatchSize
	if batch <= 0 {
		batch = DefaultResetBatch
	}
	total := 0
	for {
		res, err := m.exec.Execute(ctx, graphdb.DeleteBatch(batch))
		if err != nil {
			return total, fmt.Errorf("reset: %w", err)
		}
		n := res.Counters.NodesDeleted
		if n == 0 && len(res.Records) > 0 {
			n = res.Records[0].Int("deleted")
		}
		if n == 0 {
			break
		}
		total += n
		m.log.Debug("reset batch deleted", "nodes", n, "total", total)
	}
	m.log.Info("graph reset", "nodes_deleted", total)
	return total, nil
}

// Reinstall drops the id constraint of every label, ignoring absent ones, and
// creates them again.
func (m *Manager) Reinstall(ctx context.Context) error {
	for _, l := range m.labels {
		name := ConstraintName(l)
		if _, err := m.exec.Execute(ctx, graphdb.DropConstraint(name)); err != nil {
			if errors.Is(err, graphdb.ErrConstraintNotFound) {
				m.log.Debug("constraint absent", "constraint", name)
				continue
			}
			return fmt.Errorf("drop constraint %s: %w", name, err)
		}
	}
	for _, l := range m.labels {
		name := ConstraintName(l)
		if _, err := m.exec.Execute(ctx, graphdb.CreateUniqueConstraint(name, string(l), "id")); err != nil {
			return fmt.Errorf("create constraint %s: %w", name, err)
		}
	}
	m.log.Info("constraints installed", "count", len(m.labels))
	return nil
}

// Prepare is the full pre-build sequence: wipe, then reinstall constraints.
func (m *Manager) Prepare(ctx context.Context) error {
	if _, err := m.Reset(ctx); err != nil {
		return err
	}
	return m.Reinstall(ctx)
}
