package session

import "github.com/flavorhub/community-api/internal/domain"

// State is the authentication state of one client.
type State int

const (
	StateAnonymous State = iota
	StateUser
	StateAdmin
)

func (s State) String() string {
	switch s {
	case StateUser:
		return "user"
	case StateAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Session is an immutable snapshot of a client's authentication state.
// The zero value is Anonymous.
type Session struct {
	state State
	user  domain.UserRecord
}

func Anonymous() Session { return Session{} }

func AuthenticatedUser(u domain.UserRecord) Session {
	return Session{state: StateUser, user: u}
}

func AuthenticatedAdmin() Session { return Session{state: StateAdmin} }

func (s Session) State() State { return s.state }

func (s Session) IsAnonymous() bool { return s.state == StateAnonymous }

func (s Session) IsAdmin() bool { return s.state == StateAdmin }

// User returns the signed-in record when the state is StateUser.
func (s Session) User() (domain.UserRecord, bool) {
	if s.state != StateUser {
		return domain.UserRecord{}, false
	}
	return s.user, true
}
