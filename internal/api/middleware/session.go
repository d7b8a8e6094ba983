package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

// Session validates the bearer session token and injects the session, user
// id and role names into the context.
func Session(verifier ports.SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return err
			}

			sess, err := verifier.VerifySessionToken(token)
			if err != nil {
				return domain.ErrInvalidToken
			}

			c.Set(ContextKeySession, sess)
			c.Set(ContextKeyUserID, sess.UserID)
			c.Set(ContextKeyRoles, sess.Roles)

			return next(c)
		}
	}
}
