package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

// Andes authorizes requests from the Andes platform. Missing or rejected
// tokens and unknown subjects all answer 417 "must sign in".
func Andes(verifier ports.DelegatedVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := bearerToken(c)
			if err != nil {
				return mustSignIn(c)
			}

			userID, err := verifier.Verify(c.Request().Context(), token)
			switch {
			case errors.Is(err, domain.ErrInvalidToken), errors.Is(err, domain.ErrSessionExpired):
				return mustSignIn(c)
			case err != nil:
				return err
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}

func mustSignIn(c echo.Context) error {
	return c.JSON(http.StatusExpectationFailed, map[string]string{"error": domain.ErrSessionExpired.Error()})
}
