package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-directory/internal/api/metrics"
	"github.com/userhub/user-directory/internal/core/ports"
)

// Context keys set by Auth and read by the other guards and handlers.
const (
	CtxUserID   = "user_id"
	CtxUsername = "username"
	CtxRole     = "role"
)

// Auth is the authenticated-session guard: it validates the bearer token
// and injects the decoded identity into the request context. Token parsing
// is delegated to the credential service so the signing rules live in one
// place.
func Auth(creds ports.CredentialService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				metrics.GuardDenialsTotal.WithLabelValues("auth").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				metrics.GuardDenialsTotal.WithLabelValues("auth").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims, err := creds.ParseToken(parts[1])
			if err != nil {
				metrics.GuardDenialsTotal.WithLabelValues("auth").Inc()
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(CtxUserID, claims.UserID)
			c.Set(CtxUsername, claims.Username)
			c.Set(CtxRole, claims.Role)

			return next(c)
		}
	}
}
