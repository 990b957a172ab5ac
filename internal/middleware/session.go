package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/darahtanyoe/mitra-dashboard/internal/models"
	"github.com/darahtanyoe/mitra-dashboard/internal/session"
)

// SessionCookie carries the opaque session id; everything else lives in Redis.
const SessionCookie = "mitra_session"

type contextKey string

const (
	sidKey  contextKey = "session_id"
	userKey contextKey = "session_user"
)

// SessionID returns the session id stashed by RequireSession.
func SessionID(ctx context.Context) string {
	sid, _ := ctx.Value(sidKey).(string)
	return sid
}

// CurrentUser returns the profile stashed by RequireSession.
func CurrentUser(ctx context.Context) models.UserProfile {
	user, _ := ctx.Value(userKey).(models.UserProfile)
	return user
}

// RequireSession gates protected routes on a live session. Browsers get a
// redirect to the login view; JSON action endpoints under /api/ get a 401.
func RequireSession(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := cookieValue(r)
			if sid == "" || !store.IsAuthenticated(r.Context(), sid) {
				deny(w, r)
				return
			}
			user, err := store.User(r.Context(), sid)
			if err != nil {
				deny(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), sidKey, sid)
			ctx = context.WithValue(ctx, userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectAuthenticated bounces an already-signed-in browser off the login
// view back to the dashboard.
func RedirectAuthenticated(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if sid := cookieValue(r); sid != "" && store.IsAuthenticated(r.Context(), sid) {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func cookieValue(r *http.Request) string {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func deny(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"not_authenticated"}`))
		return
	}
	http.Redirect(w, r, "/login", http.StatusFound)
}
