package userdir

import (
	"context"

	"github.com/flavorhub/community-api/internal/domain"
)

// NewUser carries the fields submitted at signup. Passwords are plain text here
// and are hashed by the store before anything is persisted.
type NewUser struct {
	FullName         string
	Email            string
	SocialHandle     string
	SocialPassword   string
	AccountPassword  string
	InterestCategory domain.InterestCategory
}

// Directory is the storage-agnostic user directory.
//
// Implementations never retry. Failures are reported with the sentinel errors
// in this package so callers can branch with errors.Is.
type Directory interface {
	// Create stores a new record, failing with ErrDuplicateEmail when the email is taken.
	Create(ctx context.Context, in NewUser) (domain.UserRecord, error)

	// FindByEmail returns the record with exactly this email, or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (domain.UserRecord, error)

	// ListAll returns every record ordered by RegisteredAt descending.
	// An empty directory yields an empty, non-nil slice.
	ListAll(ctx context.Context) ([]domain.UserRecord, error)

	// Authenticate returns the record whose email and account password both match.
	Authenticate(ctx context.Context, email, password string) (domain.UserRecord, error)
}

// PasswordHasher turns plain-text secrets into stored hashes and checks candidates against them.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(hash, plain string) bool
}
