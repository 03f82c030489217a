// Package postgres holds the shared PostgreSQL plumbing used by the remote adapters.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UniqueViolationCode is the SQLSTATE for a unique constraint violation.
const UniqueViolationCode = "23505"

// PoolOptions locate the remote database. URL carries everything except the
// password, which is supplied separately as AccessKey.
type PoolOptions struct {
	URL            string
	AccessKey      string
	ConnectTimeout time.Duration
}

// NewPool builds a pool and verifies the database answers a ping within ConnectTimeout.
func NewPool(ctx context.Context, opts PoolOptions) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if opts.AccessKey != "" {
		cfg.ConnConfig.Password = opts.AccessKey
	}
	if opts.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = opts.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx := ctx
	if opts.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.ConnectTimeout)
		defer cancel()
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping remote: %w", err)
	}
	return pool, nil
}

// AsPgError unwraps a server-reported PostgreSQL error.
func AsPgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsUnavailable reports whether err means the database could not be reached,
// as opposed to the database rejecting a statement.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := AsPgError(err); ok {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return true
	}
	var ce *pgconn.ConnectError
	if errors.As(err, &ce) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	return errors.Is(err, net.ErrClosed)
}
