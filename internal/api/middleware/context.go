package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// Keys under which the auth middlewares store request identity.
const (
	ContextKeySession = "session"
	ContextKeyUserID  = "user_id"
	ContextKeyRoles   = "roles"
)

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header.
func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// SessionFrom returns the session stored by the Session middleware.
func SessionFrom(c echo.Context) (*domain.Session, bool) {
	sess, ok := c.Get(ContextKeySession).(*domain.Session)
	return sess, ok && sess != nil
}

// UserIDFrom returns the authenticated user id stored by any auth middleware.
func UserIDFrom(c echo.Context) string {
	id, _ := c.Get(ContextKeyUserID).(string)
	return id
}
