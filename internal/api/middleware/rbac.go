package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RBAC lets the request through when the session holds any of allowedRoles.
// It must run after Session.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, _ := c.Get(ContextKeyRoles).([]string)
			for _, role := range roles {
				if _, ok := allowed[role]; ok {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
		}
	}
}

// SelfOrRole lets the request through when the path parameter param names
// the authenticated user, or when the session holds any of allowedRoles.
// It must run after Session.
func SelfOrRole(param string, allowedRoles ...string) echo.MiddlewareFunc {
	byRole := RBAC(allowedRoles...)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		gated := byRole(next)
		return func(c echo.Context) error {
			if id := UserIDFrom(c); id != "" && id == c.Param(param) {
				return next(c)
			}
			return gated(c)
		}
	}
}
