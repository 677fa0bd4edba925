// Package middleware carries the HTTP cross-cutting pieces: CORS and the
// identity/role layer. Authentication itself happens upstream; these
// handlers trust the identity headers the gateway injects and only enforce
// role capability per route.
package middleware

import (
	"context"
	"net/http"

	"github.com/daem-platform/daem-backend/internal/model/therapy"
	"github.com/daem-platform/daem-backend/pkg/utils"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

const (
	headerUserID   = "X-User-ID"
	headerUserRole = "X-User-Role"
)

// Identity resolves the caller from the gateway headers and rejects requests
// without one. No credential check happens here.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(headerUserID)
		role := therapy.Role(r.Header.Get(headerUserRole))

		if id == "" || !role.Valid() {
			utils.RespondError(w, http.StatusUnauthorized, "missing or invalid identity")
			return
		}

		user := therapy.User{ID: id, Role: role}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user therapy.User) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}

// UserFrom returns the authenticated user placed by Identity.
func UserFrom(ctx context.Context) (therapy.User, bool) {
	user, ok := ctx.Value(ctxKeyUser).(therapy.User)
	return user, ok
}

// RequireRole allows only the listed roles through.
func RequireRole(roles ...therapy.Role) func(http.Handler) http.Handler {
	allowed := make(map[therapy.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFrom(r.Context())
			if !ok {
				utils.RespondError(w, http.StatusUnauthorized, "missing or invalid identity")
				return
			}
			if !allowed[user.Role] {
				utils.RespondError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
