package middleware

import (
	"net/http"

	"github.com/havenandoak/storefront-backend/api/responses"
	"github.com/havenandoak/storefront-backend/pkg/access"
	"github.com/havenandoak/storefront-backend/pkg/enums"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

// RequireOperation gates a route on the role allowlist for the named
// operation. Runs after Auth, which seeds the role into the context.
func RequireOperation(op access.Operation, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := enums.Role(RoleFromContext(r.Context()))
			if err := access.Authorize(role, op); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
