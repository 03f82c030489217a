package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/flavorhub/community-api/internal/ports/out/idempotency"
)

func TestStore_PutThenGet(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{
		Key:    "k1",
		Method: "POST",
		Route:  "/signup",
	}
	rec := idempotency.Record{
		BodyHash:    "abc123",
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"ok":true}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}

	if err := s.Put(context.Background(), fp, rec); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), fp)
	if err != nil {
		t.Fatalf("Get() err=%v", err)
	}
	if !ok {
		t.Fatalf("Get() ok=false, want true")
	}
	if got.StatusCode != rec.StatusCode || got.BodyHash != rec.BodyHash || string(got.Body) != string(rec.Body) {
		t.Fatalf("Get()=%+v, want %+v", got, rec)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	fp := idempotency.Fingerprint{Key: "k2", Method: "POST", Route: "/signup"}
	if err := s.Put(context.Background(), fp, idempotency.Record{Body: []byte("abc")}); err != nil {
		t.Fatalf("Put() err=%v", err)
	}

	got, _, _ := s.Get(context.Background(), fp)
	got.Body[0] = 'z'

	again, _, _ := s.Get(context.Background(), fp)
	if string(again.Body) != "abc" {
		t.Fatalf("stored body mutated through returned record: %q", again.Body)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewStore()
	fp := idempotency.Fingerprint{Key: "k3", Method: "POST", Route: "/signup"}
	if err := s.Put(ctx, fp, idempotency.Record{}); err == nil {
		t.Fatalf("Put() with canceled ctx err=nil")
	}
	if _, _, err := s.Get(ctx, fp); err == nil {
		t.Fatalf("Get() with canceled ctx err=nil")
	}
}
