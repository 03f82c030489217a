package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestAsPgError(t *testing.T) {
	t.Parallel()

	pe := &pgconn.PgError{Code: UniqueViolationCode, ConstraintName: "users_email_unique"}
	got, ok := AsPgError(fmt.Errorf("insert: %w", pe))
	if !ok || got.Code != UniqueViolationCode {
		t.Fatalf("AsPgError()=(%v,%v), want unique violation", got, ok)
	}
	if _, ok := AsPgError(errors.New("plain")); ok {
		t.Fatalf("AsPgError(plain)=ok, want false")
	}
}

func TestIsUnavailable(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", fmt.Errorf("query: %w", context.DeadlineExceeded), true},
		{"net op", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"closed", fmt.Errorf("read: %w", net.ErrClosed), true},
		{"server error", &pgconn.PgError{Code: UniqueViolationCode}, false},
		{"other", errors.New("syntax"), false},
	}
	for _, tc := range cases {
		if got := IsUnavailable(tc.err); got != tc.want {
			t.Fatalf("%s: IsUnavailable()=%v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestNewPool_Unreachable(t *testing.T) {
	t.Parallel()

	// Port 1 on loopback refuses connections.
	_, err := NewPool(context.Background(), PoolOptions{
		URL:            "postgres://flavorhub@127.0.0.1:1/flavorhub?sslmode=disable",
		AccessKey:      "key",
		ConnectTimeout: 2 * time.Second,
	})
	if err == nil {
		t.Fatalf("NewPool() err=nil, want connection error")
	}
	if !IsUnavailable(err) {
		t.Fatalf("IsUnavailable(%v)=false, want true", err)
	}
}

func TestNewPool_BadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewPool(context.Background(), PoolOptions{URL: "::not a url::"}); err == nil {
		t.Fatalf("NewPool() err=nil, want parse error")
	}
}
