package middleware

import (
	"context"
	"net/http"

	"github.com/luvima/image-editor/internal/auth"
)

type ctxKey struct{}

// SessionVerifier resolves a session token to a username.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Username returns the authenticated username stored by RequireAuth.
func Username(ctx context.Context) (string, bool) {
	u, ok := ctx.Value(ctxKey{}).(string)
	return u, ok && u != ""
}

// WithUsername returns a copy of ctx carrying username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// RequireAuth validates the session cookie and injects the username into the
// request context. API callers get a 401 JSON body.
func RequireAuth(sessions SessionVerifier) func(http.Handler) http.Handler {
	return gate(sessions, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"not authenticated"}`))
	})
}

// RequirePage is RequireAuth for HTML pages: unauthenticated visitors are
// redirected to the login page.
func RequirePage(sessions SessionVerifier) func(http.Handler) http.Handler {
	return gate(sessions, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

func gate(sessions SessionVerifier, deny http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil || cookie.Value == "" {
				deny(w, r)
				return
			}

			username, err := sessions.Verify(r.Context(), cookie.Value)
			if err != nil || username == "" {
				deny(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUsername(r.Context(), username)))
		})
	}
}
