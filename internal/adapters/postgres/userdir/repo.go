package userdir

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/flavorhub/community-api/internal/adapters/postgres"
	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/ports/out/clock"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

const emailUniqueConstraint = "users_email_unique"

const selectColumns = `
	id, full_name, email, social_handle, social_password_hash, password_hash,
	interest_category, social_linked, created_at`

// Repo is the remote implementation of userdir.Directory.
// Email uniqueness is enforced by the users_email_unique constraint.
type Repo struct {
	pool   *pgxpool.Pool
	hasher userdir.PasswordHasher
	clk    clock.Clock
}

func NewRepo(pool *pgxpool.Pool, hasher userdir.PasswordHasher, clk clock.Clock) *Repo {
	return &Repo{pool: pool, hasher: hasher, clk: clk}
}

func (r *Repo) Create(ctx context.Context, in userdir.NewUser) (domain.UserRecord, error) {
	if r.pool == nil {
		return domain.UserRecord{}, errors.New("nil postgres pool")
	}
	passwordHash, err := r.hasher.Hash(in.AccountPassword)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("%w: %v", userdir.ErrBackend, err)
	}
	socialHash, err := r.hasher.Hash(in.SocialPassword)
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("%w: %v", userdir.ErrBackend, err)
	}

	rec := domain.UserRecord{
		FullName:           in.FullName,
		Email:              in.Email,
		SocialHandle:       in.SocialHandle,
		SocialPasswordHash: socialHash,
		PasswordHash:       passwordHash,
		InterestCategory:   in.InterestCategory,
		SocialLinked:       true,
		RegisteredAt:       r.clk.Now().UTC(),
	}

	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO users (
			full_name,
			email,
			social_handle,
			social_password_hash,
			password_hash,
			interest_category,
			social_linked,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		rec.FullName,
		rec.Email,
		rec.SocialHandle,
		rec.SocialPasswordHash,
		rec.PasswordHash,
		string(rec.InterestCategory),
		rec.SocialLinked,
		rec.RegisteredAt,
	).Scan(&id)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == emailUniqueConstraint {
			return domain.UserRecord{}, userdir.ErrDuplicateEmail
		}
		return domain.UserRecord{}, classify(err)
	}
	rec.ID = domain.UserID(strconv.FormatInt(id, 10))
	return rec, nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (domain.UserRecord, error) {
	if r.pool == nil {
		return domain.UserRecord{}, errors.New("nil postgres pool")
	}
	row := r.pool.QueryRow(ctx, `SELECT `+selectColumns+` FROM users WHERE email = $1`, email)
	rec, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserRecord{}, userdir.ErrNotFound
		}
		return domain.UserRecord{}, classify(err)
	}
	return rec, nil
}

func (r *Repo) ListAll(ctx context.Context) ([]domain.UserRecord, error) {
	if r.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := r.pool.Query(ctx, `SELECT `+selectColumns+` FROM users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	out := make([]domain.UserRecord, 0)
	for rows.Next() {
		rec, err := scanUser(rows)
		if err != nil {
			return nil, classify(err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// Authenticate looks the record up by email and compares the password hash in
// process; an unknown email and a wrong password both yield ErrNotFound.
func (r *Repo) Authenticate(ctx context.Context, email, password string) (domain.UserRecord, error) {
	rec, err := r.FindByEmail(ctx, email)
	if err != nil {
		return domain.UserRecord{}, err
	}
	if !r.hasher.Matches(rec.PasswordHash, password) {
		return domain.UserRecord{}, userdir.ErrNotFound
	}
	return rec, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (domain.UserRecord, error) {
	var (
		rec      domain.UserRecord
		id       int64
		interest string
	)
	if err := row.Scan(
		&id,
		&rec.FullName,
		&rec.Email,
		&rec.SocialHandle,
		&rec.SocialPasswordHash,
		&rec.PasswordHash,
		&interest,
		&rec.SocialLinked,
		&rec.RegisteredAt,
	); err != nil {
		return domain.UserRecord{}, err
	}
	rec.ID = domain.UserID(strconv.FormatInt(id, 10))
	rec.InterestCategory = domain.InterestCategory(interest)
	rec.RegisteredAt = rec.RegisteredAt.UTC()
	return rec, nil
}

func classify(err error) error {
	if postgres.IsUnavailable(err) {
		return fmt.Errorf("%w: %v", userdir.ErrBackendUnavailable, err)
	}
	return fmt.Errorf("%w: %v", userdir.ErrBackend, err)
}
