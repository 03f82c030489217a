package idempotency

import (
	"context"
	"time"
)

// Key is the caller-provided idempotency key (Idempotency-Key header).
type Key string

// Fingerprint identifies the replay slot for a request.
//
// Subject is the client session id, so two clients never share a slot even
// when they pick the same key. The body hash is part of the stored Record
// rather than the fingerprint so a reused key with a different body can be
// detected.
type Fingerprint struct {
	Key     Key
	Subject string
	Method  string
	Route   string
}

// Record is the stored response we can replay for a duplicate request.
type Record struct {
	BodyHash    string
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store persists idempotency records for replaying responses on retries.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}
