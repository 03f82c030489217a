package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/flavorhub/community-api/internal/ports/out/idempotency"
)

var errNilPool = errors.New("nil postgres pool")

// Store keeps replayable responses in the idempotency_keys table.
// The first response stored for a fingerprint wins.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const selectRecord = `
	SELECT body_hash, status_code, content_type, body, created_at
	FROM idempotency_keys
	WHERE idempotency_key = $1 AND subject = $2 AND method = $3 AND route = $4`

func (s *Store) Get(ctx context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	if s.pool == nil {
		return idempotency.Record{}, false, errNilPool
	}
	var rec idempotency.Record
	err := s.pool.QueryRow(ctx, selectRecord, string(fp.Key), fp.Subject, fp.Method, fp.Route).
		Scan(&rec.BodyHash, &rec.StatusCode, &rec.ContentType, &rec.Body, &rec.CreatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return idempotency.Record{}, false, nil
	case err != nil:
		return idempotency.Record{}, false, fmt.Errorf("load idempotency record: %w", err)
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

const insertRecord = `
	INSERT INTO idempotency_keys
		(idempotency_key, subject, method, route, body_hash, status_code, content_type, body, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
	ON CONFLICT (idempotency_key, subject, method, route) DO NOTHING`

func (s *Store) Put(ctx context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	if s.pool == nil {
		return errNilPool
	}
	var createdAt *time.Time
	if !rec.CreatedAt.IsZero() {
		t := rec.CreatedAt.UTC()
		createdAt = &t
	}
	body := rec.Body
	if body == nil {
		body = []byte{}
	}
	if _, err := s.pool.Exec(ctx, insertRecord,
		string(fp.Key), fp.Subject, fp.Method, fp.Route,
		rec.BodyHash, rec.StatusCode, rec.ContentType, body, createdAt,
	); err != nil {
		return fmt.Errorf("store idempotency record: %w", err)
	}
	return nil
}
