package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-directory/internal/api/metrics"
)

// RequireRoles is the role-membership guard: the authenticated identity's
// role must be in the allow-list or the request is denied before the
// handler runs.
func RequireRoles(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(CtxRole).(string)
			if _, ok := allowed[role]; !ok {
				metrics.GuardDenialsTotal.WithLabelValues("role").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
