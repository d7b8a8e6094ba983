package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/api/metrics"
	"github.com/recetar/recetar-api/internal/core/domain"
)

// Authenticator checks a username and password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (string, error)
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Credentials authenticates the username and password in the request body
// and stores the resulting user id in the context.
func Credentials(auth Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var req credentials
			if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
			}

			userID, err := auth.Authenticate(c.Request().Context(), strings.TrimSpace(req.Username), req.Password)
			if err != nil {
				if errors.Is(err, domain.ErrInvalidCredentials) {
					metrics.AuthLoginsTotal.WithLabelValues("invalid_credentials").Inc()
				} else {
					metrics.AuthLoginsTotal.WithLabelValues("error").Inc()
				}
				return err
			}

			c.Set(ContextKeyUserID, userID)
			return next(c)
		}
	}
}
