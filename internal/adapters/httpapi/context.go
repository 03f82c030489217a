package httpapi

import (
	"context"

	"github.com/flavorhub/community-api/internal/app/session"
)

type sessionKey struct{}

type boundSession struct {
	id   string
	ctrl *session.Controller
}

// WithSession binds a client id and its controller to ctx. id is empty for
// detached sessions.
func WithSession(ctx context.Context, id string, c *session.Controller) context.Context {
	return context.WithValue(ctx, sessionKey{}, boundSession{id: id, ctrl: c})
}

func ControllerFromContext(ctx context.Context) (*session.Controller, bool) {
	b, ok := ctx.Value(sessionKey{}).(boundSession)
	return b.ctrl, ok && b.ctrl != nil
}

// SessionIDFromContext returns the client id bound by WithSession.
func SessionIDFromContext(ctx context.Context) string {
	b, _ := ctx.Value(sessionKey{}).(boundSession)
	return b.id
}
