package middleware

import (
	"context"
	"net/http"
	"strings"

	pkgAuth "github.com/havenandoak/storefront-backend/pkg/auth"
	"github.com/havenandoak/storefront-backend/pkg/auth/session"
	"github.com/havenandoak/storefront-backend/pkg/config"
	"github.com/havenandoak/storefront-backend/pkg/logger"
)

// OptionalAuth seeds the context with claims when a valid bearer token is
// present, and lets the request through anonymously otherwise. Checkout uses
// this so logged-in customers get per-user coupon tracking without forcing
// guests to register.
func OptionalAuth(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil || claims.ID == "" {
				next.ServeHTTP(w, r)
				return
			}

			if verifier != nil {
				ok, checkErr := verifier.HasSession(r.Context(), claims.ID)
				if checkErr != nil || !ok {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := context.WithValue(r.Context(), ctxUserID, claims.UserID.String())
			ctx = context.WithValue(ctx, ctxRole, string(claims.Role))
			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{"user_id": claims.UserID.String()})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
