package middleware

import (
	"context"
	"net/http"
)

// Headers set by the trusted gateway in front of the service.
const (
	UserIDHeader   = "X-User-Id"
	UserRoleHeader = "X-User-Role"
)

type identityKey struct{}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   string
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the caller stored by RequireIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok && id.UserID != ""
}

// RequireIdentity rejects requests without a gateway-supplied user id.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(UserIDHeader)
		if userID == "" {
			http.Error(w, "Missing caller identity", http.StatusUnauthorized)
			return
		}
		id := Identity{UserID: userID, Role: r.Header.Get(UserRoleHeader)}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}
