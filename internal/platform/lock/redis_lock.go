// Package lock keeps two operators from building into the same graph at once.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/archgraph/internal/platform/logger"
)

var ErrHeld = errors.New("build lock is held by another run")

// release only deletes the key when it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type Locker struct {
	rdb *goredis.Client
	ttl time.Duration
	log *logger.Logger
}

// Connect dials addr and pings it before returning.
func Connect(ctx context.Context, addr string, ttl time.Duration, log *logger.Logger) (*Locker, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, ttl, log), nil
}

func New(rdb *goredis.Client, ttl time.Duration, log *logger.Logger) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Locker{rdb: rdb, ttl: ttl, log: log.With("service", "BuildLock")}
}

func (l *Locker) Close() error { return l.rdb.Close() }

// Lease is a held lock. Release is safe to call more than once.
type Lease struct {
	key   string
	token string
	l     *Locker
}

func Key(target string) string { return "archgraph:build:" + target }

// Acquire takes the lock for target, typically the graph URI plus database.
func (l *Locker) Acquire(ctx context.Context, target string) (*Lease, error) {
	key := Key(target)
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHeld, key)
	}
	l.log.Debug("build lock acquired", "key", key, "ttl", l.ttl)
	return &Lease{key: key, token: token, l: l}, nil
}

func (s *Lease) Release(ctx context.Context) error {
	if s == nil || s.token == "" {
		return nil
	}
	n, err := releaseScript.Run(ctx, s.l.rdb, []string{s.key}, s.token).Int()
	if err != nil {
		return fmt.Errorf("release %s: %w", s.key, err)
	}
	if n == 0 {
		s.l.log.Warn("build lock expired before release", "key", s.key)
	}
	s.token = ""
	return nil
}
