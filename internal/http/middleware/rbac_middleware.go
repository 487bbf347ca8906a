package middleware

import (
	"net/http"
	"strings"

	"github.com/sandeepkv93/session-auth-service/internal/domain"
	"github.com/sandeepkv93/session-auth-service/internal/http/response"
)

// RequireRole must run after AuthMiddleware.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, string(role))
	}
	message := strings.Join(names, " or ") + " role required"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				response.Error(w, r, http.StatusUnauthorized, "invalid_token", "missing auth context", nil)
				return
			}
			for _, role := range roles {
				if strings.EqualFold(claims.Role, string(role)) {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Error(w, r, http.StatusForbidden, "forbidden", message, nil)
		})
	}
}
