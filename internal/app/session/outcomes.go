package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/flavorhub/community-api/internal/domain"
)

var (
	// ErrForbidden is returned when a non-admin session asks for the user list.
	ErrForbidden = errors.New("admin session required")

	// ErrAlreadyAuthenticated is the failure reason for a login attempt on a
	// session that is not anonymous. Switching identity requires a logout first.
	ErrAlreadyAuthenticated = errors.New("session already authenticated")
)

// InputError reports signup fields that failed validation.
type InputError struct {
	Fields map[string]string
}

func (e *InputError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

type SignupResult int

const (
	SignupCreated SignupResult = iota + 1
	SignupRejected
	SignupFailed
)

// SignupOutcome is the result of a signup submission.
// Record is set for SignupCreated; Reason is set otherwise.
type SignupOutcome struct {
	Result SignupResult
	Record domain.UserRecord
	Reason error
}

type LoginResult int

const (
	LoginAdmin LoginResult = iota + 1
	LoginUser
	LoginRejected
	LoginFailed
)

// LoginOutcome is the result of a login submission.
// Record is set for LoginUser; Reason is set for LoginFailed.
type LoginOutcome struct {
	Result LoginResult
	Record domain.UserRecord
	Reason error
}
