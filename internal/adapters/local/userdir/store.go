// Package userdir implements the user directory on top of a single key/value slot.
//
// The whole directory lives in one slot as a JSON array. Every write reads the
// array, modifies it and writes it back. Writers in this process are serialised;
// writers in other processes sharing the slot can still lose each other's updates.
package userdir

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/ports/out/clock"
	"github.com/flavorhub/community-api/internal/ports/out/kvslot"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

// DefaultSlotKey is the slot holding the directory array.
const DefaultSlotKey = "flavorhub_users"

type storedUser struct {
	ID                 string    `json:"id"`
	FullName           string    `json:"fullName"`
	Email              string    `json:"email"`
	SocialHandle       string    `json:"socialHandle"`
	SocialPasswordHash string    `json:"socialPasswordHash"`
	PasswordHash       string    `json:"passwordHash"`
	InterestCategory   string    `json:"interestCategory"`
	SocialLinked       bool      `json:"socialLinked"`
	RegisteredAt       time.Time `json:"registeredAt"`
}

// Store is the local implementation of userdir.Directory.
type Store struct {
	mu     sync.Mutex
	slots  kvslot.Store
	key    string
	hasher userdir.PasswordHasher
	clk    clock.Clock
}

func NewStore(slots kvslot.Store, key string, hasher userdir.PasswordHasher, clk clock.Clock) *Store {
	if key == "" {
		key = DefaultSlotKey
	}
	return &Store{slots: slots, key: key, hasher: hasher, clk: clk}
}

func (s *Store) Create(ctx context.Context, in userdir.NewUser) (domain.UserRecord, error) {
	passwordHash, err := s.hasher.Hash(in.AccountPassword)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("%w: %v", userdir.ErrBackend, err)
	}
	socialHash, err := s.hasher.Hash(in.SocialPassword)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("%w: %v", userdir.ErrBackend, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.load(ctx)
	if err != nil {
		return domain.UserRecord{}, err
	}
	ids := make(map[string]struct{}, len(users))
	for _, u := range users {
		if u.Email == in.Email {
			return domain.UserRecord{}, userdir.ErrDuplicateEmail
		}
		ids[u.ID] = struct{}{}
	}

	now := s.clk.Now().UTC()
	u := storedUser{
		ID:                 nextID(now, ids),
		FullName:           in.FullName,
		Email:              in.Email,
		SocialHandle:       in.SocialHandle,
		SocialPasswordHash: socialHash,
		PasswordHash:       passwordHash,
		InterestCategory:   string(in.InterestCategory),
		SocialLinked:       true,
		RegisteredAt:       now,
	}
	if err := s.save(ctx, append(users, u)); err != nil {
		return domain.UserRecord{}, err
	}
	return u.record(), nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	s.mu.Lock()
	users, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return domain.UserRecord{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u.record(), nil
		}
	}
	return domain.UserRecord{}, userdir.ErrNotFound
}

func (s *Store) ListAll(ctx context.Context) ([]domain.UserRecord, error) {
	s.mu.Lock()
	users, err := s.load(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	// Newest first; records registered in the same instant keep reverse insertion order.
	out := make([]domain.UserRecord, 0, len(users))
	for i := len(users) - 1; i >= 0; i-- {
		out = append(out, users[i].record())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RegisteredAt.After(out[j].RegisteredAt)
	})
	return out, nil
}

func (s *Store) Authenticate(ctx context.Context, email, password string) (domain.UserRecord, error) {
	rec, err := s.FindByEmail(ctx, email)
	if err != nil {
		return domain.UserRecord{}, err
	}
	if !s.hasher.Matches(rec.PasswordHash, password) {
		return domain.UserRecord{}, userdir.ErrNotFound
	}
	return rec, nil
}

func (s *Store) load(ctx context.Context) ([]storedUser, error) {
	raw, ok, err := s.slots.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", userdir.ErrBackendUnavailable, err)
	}
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	var users []storedUser
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("%w: decode slot %q: %v", userdir.ErrBackend, s.key, err)
	}
	return users, nil
}

func (s *Store) save(ctx context.Context, users []storedUser) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("%w: encode slot %q: %v", userdir.ErrBackend, s.key, err)
	}
	if err := s.slots.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("%w: %v", userdir.ErrBackendUnavailable, err)
	}
	return nil
}

// nextID derives an id from the registration time in milliseconds, bumping it
// until it does not collide with an existing id.
func nextID(now time.Time, taken map[string]struct{}) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, ok := taken[id]; !ok {
			return id
		}
		ms++
	}
}

func (u storedUser) record() domain.UserRecord {
	return domain.UserRecord{
		ID:                 domain.UserID(u.ID),
		FullName:           u.FullName,
		Email:              u.Email,
		SocialHandle:       u.SocialHandle,
		SocialPasswordHash: u.SocialPasswordHash,
		PasswordHash:       u.PasswordHash,
		InterestCategory:   domain.InterestCategory(u.InterestCategory),
		SocialLinked:       u.SocialLinked,
		RegisteredAt:       u.RegisteredAt.UTC(),
	}
}
