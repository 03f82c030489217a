// Package session implements the per-client session state machine: signup,
// login, logout and the admin-only user listing.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/platform/logging"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

// Controller owns one client's Session. Calls are serialised.
type Controller struct {
	dir  userdir.Directory
	auth AuthenticationBackend
	log  *slog.Logger

	mu      sync.Mutex
	session Session
}

func NewController(dir userdir.Directory, auth AuthenticationBackend, log *slog.Logger) *Controller {
	if log == nil {
		log = logging.Discard()
	}
	return &Controller{dir: dir, auth: auth, log: log}
}

// Session returns the current session value.
func (c *Controller) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// SubmitSignup registers a new member. It never signs the new member in.
func (c *Controller) SubmitSignup(ctx context.Context, in userdir.NewUser) SignupOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	in.FullName = domain.NormalizeHumanName(in.FullName)
	in.Email = strings.TrimSpace(in.Email)
	in.SocialHandle = strings.TrimSpace(in.SocialHandle)
	if err := validateSignup(in); err != nil {
		return SignupOutcome{Result: SignupFailed, Reason: err}
	}

	_, err := c.dir.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		c.log.Info("signup rejected: email already registered")
		return SignupOutcome{Result: SignupRejected, Reason: userdir.ErrDuplicateEmail}
	case !errors.Is(err, userdir.ErrNotFound):
		c.log.Error("signup lookup failed", logging.Err(err))
		return SignupOutcome{Result: SignupFailed, Reason: err}
	}

	rec, err := c.dir.Create(ctx, in)
	if err != nil {
		if errors.Is(err, userdir.ErrDuplicateEmail) {
			c.log.Info("signup rejected: email registered concurrently")
			return SignupOutcome{Result: SignupRejected, Reason: err}
		}
		c.log.Error("signup create failed", logging.Err(err))
		return SignupOutcome{Result: SignupFailed, Reason: err}
	}
	c.log.Info("signup created", slog.String("user_id", string(rec.ID)))
	return SignupOutcome{Result: SignupCreated, Record: rec}
}

// SubmitLogin authenticates an anonymous session as admin or as a member.
func (c *Controller) SubmitLogin(ctx context.Context, email, password string) LoginOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsAnonymous() {
		return LoginOutcome{Result: LoginFailed, Reason: ErrAlreadyAuthenticated}
	}
	email = strings.TrimSpace(email)

	if c.auth != nil && c.auth.IsAdmin(email, password) {
		c.session = AuthenticatedAdmin()
		c.log.Info("admin signed in")
		return LoginOutcome{Result: LoginAdmin}
	}

	rec, err := c.dir.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, userdir.ErrNotFound) {
			c.log.Info("login rejected")
			return LoginOutcome{Result: LoginRejected}
		}
		c.log.Error("login failed", logging.Err(err))
		return LoginOutcome{Result: LoginFailed, Reason: err}
	}
	c.session = AuthenticatedUser(rec)
	c.log.Info("member signed in", slog.String("user_id", string(rec.ID)))
	return LoginOutcome{Result: LoginUser, Record: rec}
}

// Logout resets the session to Anonymous from any state.
func (c *Controller) Logout() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = Anonymous()
	return c.session
}

// ListUsers returns the directory, newest first. Only admin sessions may call it.
func (c *Controller) ListUsers(ctx context.Context) ([]domain.UserRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsAdmin() {
		return nil, ErrForbidden
	}
	return c.dir.ListAll(ctx)
}

func validateSignup(in userdir.NewUser) error {
	fields := map[string]string{}
	if in.FullName == "" {
		fields["fullName"] = "must be non-empty"
	}
	if err := validateEmail(in.Email); err != nil {
		fields["email"] = err.Error()
	}
	if !domain.ValidSocialHandle(in.SocialHandle) {
		fields["socialHandle"] = "must start with @ and have at least two more characters"
	}
	if in.SocialPassword == "" {
		fields["socialPassword"] = "must be non-empty"
	}
	if in.AccountPassword == "" {
		fields["password"] = "must be non-empty"
	}
	if !in.InterestCategory.Known() {
		fields["interestCategory"] = "must be one of the offered categories"
	}
	if len(fields) > 0 {
		return &InputError{Fields: fields}
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("must be a valid email address")
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}
