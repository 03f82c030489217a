package session

import "crypto/subtle"

// AuthenticationBackend decides whether a credential pair grants admin access.
// It is consulted before the directory, so an admin can sign in even when the
// directory is empty or unreachable.
type AuthenticationBackend interface {
	IsAdmin(email, password string) bool
}

// StaticAdminCredentials grants admin access to one configured credential pair.
type StaticAdminCredentials struct {
	email    string
	password string
}

func NewStaticAdminCredentials(email, password string) StaticAdminCredentials {
	return StaticAdminCredentials{email: email, password: password}
}

func (c StaticAdminCredentials) IsAdmin(email, password string) bool {
	if c.email == "" || c.password == "" {
		return false
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(c.email))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(c.password))
	return emailOK&passOK == 1
}
