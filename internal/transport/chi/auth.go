package chi

import (
	"context"
	"net/http"
	"strings"

	"github.com/pagesight/pagesight/internal/config"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// DefaultOwner scopes all data when authentication is disabled.
const DefaultOwner = "default"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// OwnerFromContext returns the authenticated owner, or DefaultOwner when the
// request carried none.
func OwnerFromContext(ctx context.Context) string {
	if owner, ok := ctx.Value(ownerContextKey).(string); ok && owner != "" {
		return owner
	}
	return DefaultOwner
}

// BearerAuthMiddleware validates Bearer tokens and resolves them to owners.
// Every key maps to one owner; all data access is scoped by that owner. If
// apiKeys is empty, authentication is disabled and everything runs as
// DefaultOwner.
func BearerAuthMiddleware(apiKeys []config.APIKey) func(http.Handler) http.Handler {
	owners := make(map[string]string, len(apiKeys))
	for _, k := range apiKeys {
		if k.Key != "" {
			owners[k.Key] = k.Owner
		}
	}

	return func(next http.Handler) http.Handler {
		if len(owners) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "authorization header must use Bearer scheme")
				return
			}

			owner, ok := owners[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid api key")
				return
			}

			ctx := context.WithValue(r.Context(), ownerContextKey, owner)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
