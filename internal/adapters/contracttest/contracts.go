package contracttest

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	memclock "github.com/flavorhub/community-api/internal/adapters/memory/clock"
	"github.com/flavorhub/community-api/internal/domain"
	clockport "github.com/flavorhub/community-api/internal/ports/out/clock"
	idempotencyport "github.com/flavorhub/community-api/internal/ports/out/idempotency"
	userdirport "github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type CleanupFunc = func()

// DirectoryFactory builds an empty directory that reads time from clk.
type DirectoryFactory func(t *testing.T, clk clockport.Clock) (userdirport.Directory, CleanupFunc)
type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:     "k-1",
		Subject: "client-a",
		Method:  "POST",
		Route:   "/signup",
	}
	if _, ok, err := store.Get(ctx, fp); err != nil || ok {
		t.Fatalf("Get before Put: ok=%v err=%v", ok, err)
	}

	rec := idempotencyport.Record{
		BodyHash:    "hash-abc",
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"id":"1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"id":"1"}` || got.BodyHash != "hash-abc" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// A different route with the same key is a separate slot.
	other := fp
	other.Route = "/login"
	if _, ok, err := store.Get(ctx, other); err != nil || ok {
		t.Fatalf("Get other route: ok=%v err=%v", ok, err)
	}

	// Another client with the same key is a separate slot.
	otherClient := fp
	otherClient.Subject = "client-b"
	if _, ok, err := store.Get(ctx, otherClient); err != nil || ok {
		t.Fatalf("Get other client: ok=%v err=%v", ok, err)
	}

	// The first stored response keeps being replayed.
	rec2 := rec
	rec2.Body = []byte(`{"id":"2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("second Put: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"id":"1"}` {
		t.Fatalf("expected first record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}

// RunUserDirectory exercises the behavior every Directory implementation must share.
// Each subtest gets a fresh directory from newDir.
func RunUserDirectory(t *testing.T, newDir DirectoryFactory) {
	t.Helper()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	open := func(t *testing.T) (userdirport.Directory, *memclock.ManualClock) {
		t.Helper()
		clk := memclock.NewManualClock(start)
		dir, cleanup := newDir(t, clk)
		if cleanup != nil {
			t.Cleanup(cleanup)
		}
		return dir, clk
	}

	t.Run("empty directory lists nothing", func(t *testing.T) {
		dir, _ := open(t)
		got, err := dir.ListAll(context.Background())
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("ListAll()=%#v, want empty non-nil slice", got)
		}
	})

	t.Run("create then find round-trips", func(t *testing.T) {
		ctx := context.Background()
		dir, _ := open(t)

		in := newUser("a@x.com", "p1")
		created, err := dir.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if created.ID == "" {
			t.Fatalf("Create returned empty id")
		}
		if created.PasswordHash == "" || created.PasswordHash == in.AccountPassword {
			t.Fatalf("account password not hashed: %q", created.PasswordHash)
		}
		if created.SocialPasswordHash == "" || created.SocialPasswordHash == in.SocialPassword {
			t.Fatalf("social password not hashed: %q", created.SocialPasswordHash)
		}

		found, err := dir.FindByEmail(ctx, "a@x.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		assertSameRecord(t, found, created)
		if found.FullName != in.FullName || found.SocialHandle != in.SocialHandle || found.InterestCategory != in.InterestCategory {
			t.Fatalf("FindByEmail()=%+v, want fields of %+v", found, in)
		}
		if !found.SocialLinked {
			t.Fatalf("SocialLinked=false, want true")
		}
		if !found.RegisteredAt.Equal(start) {
			t.Fatalf("RegisteredAt=%v, want %v", found.RegisteredAt, start)
		}
	})

	t.Run("long and multibyte credentials round-trip", func(t *testing.T) {
		ctx := context.Background()
		dir, _ := open(t)

		accountPassword := strings.Repeat("é", 40)
		in := newUser("long@x.com", accountPassword)
		in.SocialPassword = strings.Repeat("s", 100)
		created, err := dir.Create(ctx, in)
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		found, err := dir.FindByEmail(ctx, "long@x.com")
		if err != nil {
			t.Fatalf("FindByEmail: %v", err)
		}
		assertSameRecord(t, found, created)

		got, err := dir.Authenticate(ctx, "long@x.com", accountPassword)
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		assertSameRecord(t, got, created)
		if _, err := dir.Authenticate(ctx, "long@x.com", accountPassword+"é"); !errors.Is(err, userdirport.ErrNotFound) {
			t.Fatalf("Authenticate with longer password err=%v, want ErrNotFound", err)
		}
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		ctx := context.Background()
		dir, clk := open(t)

		if _, err := dir.Create(ctx, newUser("a@x.com", "p1")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		clk.Advance(time.Second)
		_, err := dir.Create(ctx, newUser("a@x.com", "other"))
		if !errors.Is(err, userdirport.ErrDuplicateEmail) {
			t.Fatalf("Create duplicate err=%v, want ErrDuplicateEmail", err)
		}
		all, err := dir.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("ListAll len=%d, want 1", len(all))
		}
	})

	t.Run("find is exact and case-sensitive", func(t *testing.T) {
		ctx := context.Background()
		dir, _ := open(t)

		if _, err := dir.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, userdirport.ErrNotFound) {
			t.Fatalf("FindByEmail unknown err=%v, want ErrNotFound", err)
		}
		if _, err := dir.Create(ctx, newUser("a@x.com", "p1")); err != nil {
			t.Fatalf("Create: %v", err)
		}
		if _, err := dir.FindByEmail(ctx, "A@x.com"); !errors.Is(err, userdirport.ErrNotFound) {
			t.Fatalf("FindByEmail different case err=%v, want ErrNotFound", err)
		}
	})

	t.Run("authenticate requires exact email and password", func(t *testing.T) {
		ctx := context.Background()
		dir, _ := open(t)

		created, err := dir.Create(ctx, newUser("a@x.com", "p1"))
		if err != nil {
			t.Fatalf("Create: %v", err)
		}

		got, err := dir.Authenticate(ctx, "a@x.com", "p1")
		if err != nil {
			t.Fatalf("Authenticate: %v", err)
		}
		assertSameRecord(t, got, created)

		for _, tc := range []struct{ email, password string }{
			{"a@x.com", "wrong"},
			{"a@x.com", ""},
			{"a@x.com", "social-secret"},
			{"b@x.com", "p1"},
			{"A@x.com", "p1"},
		} {
			if _, err := dir.Authenticate(ctx, tc.email, tc.password); !errors.Is(err, userdirport.ErrNotFound) {
				t.Fatalf("Authenticate(%q,%q) err=%v, want ErrNotFound", tc.email, tc.password, err)
			}
		}
	})

	t.Run("list orders newest first", func(t *testing.T) {
		ctx := context.Background()
		dir, clk := open(t)

		for _, email := range []string{"r1@x.com", "r2@x.com", "r3@x.com"} {
			if _, err := dir.Create(ctx, newUser(email, "pw")); err != nil {
				t.Fatalf("Create %s: %v", email, err)
			}
			clk.Advance(time.Minute)
		}
		all, err := dir.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll: %v", err)
		}
		var got []string
		for _, r := range all {
			got = append(got, r.Email)
		}
		want := []string{"r3@x.com", "r2@x.com", "r1@x.com"}
		if len(got) != len(want) {
			t.Fatalf("ListAll emails=%v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("ListAll emails=%v, want %v", got, want)
			}
		}
	})

	t.Run("ids are unique within one instant", func(t *testing.T) {
		ctx := context.Background()
		dir, _ := open(t)

		a, err := dir.Create(ctx, newUser("a@x.com", "pw"))
		if err != nil {
			t.Fatalf("Create a: %v", err)
		}
		b, err := dir.Create(ctx, newUser("b@x.com", "pw"))
		if err != nil {
			t.Fatalf("Create b: %v", err)
		}
		if a.ID == b.ID {
			t.Fatalf("Create assigned duplicate id %q", a.ID)
		}
	})
}

func newUser(email, password string) userdirport.NewUser {
	return userdirport.NewUser{
		FullName:         "Test Cook",
		Email:            email,
		SocialHandle:     "@testcook",
		SocialPassword:   "social-secret",
		AccountPassword:  password,
		InterestCategory: domain.InterestBaking,
	}
}

func assertSameRecord(t *testing.T, got, want domain.UserRecord) {
	t.Helper()
	if got.ID != want.ID || got.Email != want.Email || got.PasswordHash != want.PasswordHash {
		t.Fatalf("record mismatch: got %+v, want %+v", got, want)
	}
	if !got.RegisteredAt.Equal(want.RegisteredAt) {
		t.Fatalf("RegisteredAt=%v, want %v", got.RegisteredAt, want.RegisteredAt)
	}
}
