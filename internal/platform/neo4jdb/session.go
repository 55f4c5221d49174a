package neo4jdb

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

// session is the part of neo4j.SessionWithContext a build uses.
type session interface {
	Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (neo4j.ResultWithContext, error)
	Close(ctx context.Context) error
}

// WithSession opens the one write session used for a whole build, hands it to
// fn and closes it whether fn succeeds or not.
func (c *Client) WithSession(ctx context.Context, fn func(exec graphdb.Executor) error) error {
	if c == nil || (c.Driver == nil && c.openSession == nil) {
		return &types.ConnectivityError{Err: fmt.Errorf("neo4j client not initialized")}
	}
	sess := c.newSession(ctx)
	defer func() {
		if err := sess.Close(ctx); err != nil {
			c.log.Warn("neo4j session close failed", "error", err)
		}
	}()
	return fn(&sessionExecutor{session: sess, uri: c.URI, log: c.log})
}

func (c *Client) newSession(ctx context.Context) session {
	if c.openSession != nil {
		return c.openSession(ctx)
	}
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
}

type sessionExecutor struct {
	session session
	uri     string
	log     *logger.Logger
}

// Execute runs stmt as an auto-commit transaction and drains the result, so
// the next statement is never sent before this one is known to have finished.
func (s *sessionExecutor) Execute(ctx context.Context, stmt graphdb.Statement) (*graphdb.Result, error) {
	res, err := s.session.Run(ctx, stmt.Cypher, stmt.Params)
	if err != nil {
		return nil, s.translate(stmt, err)
	}
	records, err := res.Collect(ctx)
	if err != nil {
		return nil, s.translate(stmt, err)
	}
	summary, err := res.Consume(ctx)
	if err != nil {
		return nil, s.translate(stmt, err)
	}

	out := &graphdb.Result{Records: make([]graphdb.Record, 0, len(records))}
	for _, rec := range records {
		out.Records = append(out.Records, graphdb.Record(rec.AsMap()))
	}
	counters := summary.Counters()
	out.Counters = graphdb.Counters{
		NodesCreated:         counters.NodesCreated(),
		NodesDeleted:         counters.NodesDeleted(),
		RelationshipsCreated: counters.RelationshipsCreated(),
		RelationshipsDeleted: counters.RelationshipsDeleted(),
		ConstraintsAdded:     counters.ConstraintsAdded(),
		ConstraintsRemoved:   counters.ConstraintsRemoved(),
	}
	return out, nil
}

func (s *sessionExecutor) translate(stmt graphdb.Statement, err error) error {
	return translateError(s.uri, stmt.Intent, err)
}

func translateError(uri, intent string, err error) error {
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) {
		switch {
		case strings.Contains(nerr.Code, "ConstraintDropFailed"), strings.Contains(nerr.Code, "ConstraintNotFound"):
			return fmt.Errorf("%w: %s", graphdb.ErrConstraintNotFound, nerr.Msg)
		case strings.Contains(nerr.Code, "ConstraintValidationFailed"):
			return &graphdb.StatementError{Intent: intent, Err: fmt.Errorf("%w: %s", graphdb.ErrConstraintViolation, nerr.Msg)}
		case strings.HasPrefix(nerr.Code, "Neo.ClientError.Security."):
			return &types.ConnectivityError{URI: uri, Err: err}
		}
	}
	if neo4j.IsConnectivityError(err) {
		return &types.ConnectivityError{URI: uri, Err: err}
	}
	return &graphdb.StatementError{Intent: intent, Err: err}
}
