package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	memclock "github.com/flavorhub/community-api/internal/adapters/memory/clock"
	memidempotency "github.com/flavorhub/community-api/internal/adapters/memory/idempotency"
	memkvslot "github.com/flavorhub/community-api/internal/adapters/memory/kvslot"
	localuserdir "github.com/flavorhub/community-api/internal/adapters/local/userdir"
	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }
func (plainHasher) Matches(h, p string) bool     { return h == "h:"+p }

func localOpener(calls *int) Opener {
	return func(context.Context) (Opened, error) {
		*calls++
		dir := localuserdir.NewStore(memkvslot.NewStore(), "", plainHasher{}, memclock.NewManualClock(time.Unix(0, 0)))
		return Opened{Directory: dir, Replays: memidempotency.NewStore()}, nil
	}
}

func TestSelector_NotConfiguredUsesLocal(t *testing.T) {
	t.Parallel()

	remoteCalls, localCalls := 0, 0
	s := NewSelector(false, func(context.Context) (Opened, error) {
		remoteCalls++
		return Opened{}, nil
	}, localOpener(&localCalls), nil)

	sel, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() err=%v", err)
	}
	if sel.Backend != BackendLocal {
		t.Fatalf("Backend=%s, want local", sel.Backend)
	}
	if remoteCalls != 0 || localCalls != 1 {
		t.Fatalf("calls remote=%d local=%d, want 0/1", remoteCalls, localCalls)
	}
}

func TestSelector_RemoteReachable(t *testing.T) {
	t.Parallel()

	localCalls := 0
	closed := false
	remoteDir := localuserdir.NewStore(memkvslot.NewStore(), "", plainHasher{}, memclock.NewManualClock(time.Unix(0, 0)))
	s := NewSelector(true, func(context.Context) (Opened, error) {
		return Opened{Directory: remoteDir, Close: func() { closed = true }}, nil
	}, localOpener(&localCalls), nil)

	sel, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() err=%v", err)
	}
	if sel.Backend != BackendRemote || sel.Directory != remoteDir {
		t.Fatalf("Select()=%+v, want remote", sel)
	}
	if localCalls != 0 {
		t.Fatalf("local opened %d times, want 0", localCalls)
	}
	sel.Close()
	if !closed {
		t.Fatalf("Close() did not release remote backend")
	}
}

func TestSelector_ChoiceIsStickyAfterRemoteFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	remoteUp := false
	remoteCalls, localCalls := 0, 0
	remoteDir := localuserdir.NewStore(memkvslot.NewStore(), "", plainHasher{}, memclock.NewManualClock(time.Unix(0, 0)))
	s := NewSelector(true, func(context.Context) (Opened, error) {
		remoteCalls++
		if !remoteUp {
			return Opened{}, errors.New("connection refused")
		}
		return Opened{Directory: remoteDir}, nil
	}, localOpener(&localCalls), nil)

	first, err := s.Select(ctx)
	if err != nil {
		t.Fatalf("Select() err=%v", err)
	}
	if first.Backend != BackendLocal {
		t.Fatalf("Backend=%s, want local", first.Backend)
	}

	created, err := first.Directory.Create(ctx, userdir.NewUser{
		FullName: "A", Email: "a@x.com", SocialHandle: "@aa", AccountPassword: "p1",
		InterestCategory: domain.InterestBaking,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	remoteUp = true
	second, err := s.Select(ctx)
	if err != nil {
		t.Fatalf("Select() again err=%v", err)
	}
	if second.Backend != BackendLocal || second.Directory != first.Directory {
		t.Fatalf("selection changed after remote came back: %+v", second)
	}
	got, err := second.Directory.FindByEmail(ctx, "a@x.com")
	if err != nil || got.ID != created.ID {
		t.Fatalf("FindByEmail()=(%+v,%v), want record %s", got, err, created.ID)
	}
	if remoteCalls != 1 || localCalls != 1 {
		t.Fatalf("calls remote=%d local=%d, want 1/1", remoteCalls, localCalls)
	}
}

func TestSelector_LocalFailure(t *testing.T) {
	t.Parallel()

	s := NewSelector(false, nil, func(context.Context) (Opened, error) {
		return Opened{}, errors.New("disk full")
	}, nil)
	if _, err := s.Select(context.Background()); err == nil {
		t.Fatalf("Select() err=nil, want error")
	}
}
