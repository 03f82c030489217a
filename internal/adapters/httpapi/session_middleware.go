package httpapi

import (
	"net/http"

	"github.com/flavorhub/community-api/internal/app/session"
)

// SessionCookieName carries the opaque client id.
const SessionCookieName = "flavorhub_session"

// NewSessionMiddleware binds each request to its client's session controller.
//
// Safe methods from unknown clients get a detached anonymous session and no
// cookie. Any other method starts a tracked session and sets the cookie.
func NewSessionMiddleware(m *session.Manager, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var presented string
			if c, err := r.Cookie(SessionCookieName); err == nil {
				presented = c.Value
			}

			if isSafeMethod(r.Method) {
				ctrl, tracked := m.Peek(presented)
				id := presented
				if !tracked {
					id = ""
				}
				next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), id, ctrl)))
				return
			}

			id, ctrl := m.Acquire(presented)
			if id != presented {
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), id, ctrl)))
		})
	}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
