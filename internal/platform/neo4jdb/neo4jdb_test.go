package neo4jdb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/archgraph/internal/domain"
	"github.com/yungbote/archgraph/internal/graphdb"
	"github.com/yungbote/archgraph/internal/platform/logger"
)

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NEO4J_URI", "")
	t.Setenv("NEO4J_USER", "")
	t.Setenv("NEO4J_PASSWORD", "")
	t.Setenv("NEO4J_DATABASE", "")
	t.Setenv("NEO4J_TIMEOUT_SECONDS", "")
	t.Setenv("NEO4J_MAX_POOL_SIZE", "")
	cfg := ConfigFromEnv()
	if cfg.URI != "neo4j://localhost:7687" || cfg.User != "neo4j" || cfg.Password != "password" {
		t.Fatalf("defaults=%+v", cfg)
	}
	if cfg.Timeout != 10*time.Second || cfg.MaxPoolSize != 10 || cfg.Database != "" {
		t.Fatalf("defaults=%+v", cfg)
	}

	t.Setenv("NEO4J_URI", "bolt://graph:7687")
	t.Setenv("NEO4J_DATABASE", "architecture")
	t.Setenv("NEO4J_TIMEOUT_SECONDS", "3")
	cfg = ConfigFromEnv()
	if cfg.URI != "bolt://graph:7687" || cfg.Database != "architecture" || cfg.Timeout != 3*time.Second {
		t.Fatalf("overrides=%+v", cfg)
	}
}

func TestTranslateError(t *testing.T) {
	const uri = "neo4j://localhost:7687"

	err := translateError(uri, "drop constraint x", &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintDropFailed", Msg: "no such constraint"})
	if !errors.Is(err, graphdb.ErrConstraintNotFound) {
		t.Fatalf("drop failure: %v", err)
	}

	err = translateError(uri, "create 3 Person nodes", &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintValidationFailed", Msg: "already exists"})
	var se *graphdb.StatementError
	if !errors.Is(err, graphdb.ErrConstraintViolation) || !errors.As(err, &se) || se.Intent != "create 3 Person nodes" {
		t.Fatalf("violation: %v", err)
	}

	err = translateError(uri, "ping", &neo4j.Neo4jError{Code: "Neo.ClientError.Security.Unauthorized", Msg: "bad credentials"})
	var ce *types.ConnectivityError
	if !errors.Is(err, types.ErrConnectivity) || !errors.As(err, &ce) || ce.URI != uri {
		t.Fatalf("auth: %v", err)
	}

	plain := errors.New("syntax error")
	err = translateError(uri, "count edges", plain)
	if !errors.As(err, &se) || !errors.Is(err, plain) {
		t.Fatalf("other: %v", err)
	}
}

func TestNewRequiresURIAndLogger(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, Config{URI: "neo4j://localhost:7687"}, nil); err == nil {
		t.Fatalf("nil logger accepted")
	}
	_, err := New(ctx, Config{}, logger.Nop())
	if !errors.Is(err, types.ErrConnectivity) {
		t.Fatalf("missing URI: %v", err)
	}

	var c *Client
	if err := c.WithSession(ctx, func(graphdb.Executor) error { return nil }); !errors.Is(err, types.ErrConnectivity) {
		t.Fatalf("nil client: %v", err)
	}
	if err := c.Close(ctx); err != nil {
		t.Fatalf("nil close: %v", err)
	}
}

type fakeSession struct {
	runErr   error
	closeErr error
	ran      []string
	closed   int
}

func (f *fakeSession) Run(ctx context.Context, cypher string, params map[string]any, configurers ...func(*neo4j.TransactionConfig)) (neo4j.ResultWithContext, error) {
	f.ran = append(f.ran, cypher)
	return nil, f.runErr
}

func (f *fakeSession) Close(ctx context.Context) error {
	f.closed++
	return f.closeErr
}

func fakeClient(sess *fakeSession) *Client {
	return &Client{
		URI:         "neo4j://localhost:7687",
		log:         logger.Nop(),
		openSession: func(context.Context) session { return sess },
	}
}

func TestWithSessionClosesWhenFnFails(t *testing.T) {
	sess := &fakeSession{}
	boom := errors.New("phase failed")
	err := fakeClient(sess).WithSession(context.Background(), func(graphdb.Executor) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v", err)
	}
	if sess.closed != 1 {
		t.Fatalf("session closed %d times", sess.closed)
	}
}

func TestWithSessionClosesAfterStatementError(t *testing.T) {
	sess := &fakeSession{runErr: &neo4j.Neo4jError{Code: "Neo.ClientError.Schema.ConstraintValidationFailed", Msg: "already exists"}}
	err := fakeClient(sess).WithSession(context.Background(), func(exec graphdb.Executor) error {
		_, err := exec.Execute(context.Background(), graphdb.CreateNodes("Person", []map[string]any{{"id": "hp-person-a"}}))
		return err
	})
	var se *graphdb.StatementError
	if !errors.Is(err, graphdb.ErrConstraintViolation) || !errors.As(err, &se) {
		t.Fatalf("err=%v", err)
	}
	if len(sess.ran) != 1 || sess.closed != 1 {
		t.Fatalf("ran=%d closed=%d", len(sess.ran), sess.closed)
	}
}

func TestWithSessionKeepsFnResultWhenCloseFails(t *testing.T) {
	sess := &fakeSession{closeErr: errors.New("connection reset")}
	if err := fakeClient(sess).WithSession(context.Background(), func(graphdb.Executor) error { return nil }); err != nil {
		t.Fatalf("close failure leaked: %v", err)
	}
	if sess.closed != 1 {
		t.Fatalf("session closed %d times", sess.closed)
	}
}
