package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/userhub/user-directory/internal/api/metrics"
)

// RequireSelf is the ownership guard: the authenticated identity must be
// the resource addressed by the :id path parameter. Used on operations a
// user may perform only on their own record.
func RequireSelf() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID, _ := c.Get(CtxUserID).(string)
			if userID == "" || userID != c.Param("id") {
				metrics.GuardDenialsTotal.WithLabelValues("self").Inc()
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
