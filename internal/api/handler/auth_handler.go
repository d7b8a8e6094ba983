package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/api/metrics"
	"github.com/recetar/recetar-api/internal/api/middleware"
	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

const (
	msgPasswordChanged = "Se ha modificado la contraseña correctamente!"
	msgRecoverySent    = "Se ha enviado un correo a su casilla!"
	msgRecoveryUnknown = "Usuario no encontrado! Por favor revise sus datos"
)

type AuthHandler struct {
	authService ports.AuthService
}

func NewAuthHandler(authService ports.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Register creates a new user account.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      200   {object}  registerResponse
// @Failure      400   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.Register(c.Request().Context(), ports.RegisterInput{
		Username:     req.Username,
		Email:        req.Email,
		Password:     req.Password,
		Enrollment:   req.Enrollment,
		Cuil:         req.Cuil,
		BusinessName: req.BusinessName,
		RoleType:     req.RoleType,
	})
	if err != nil {
		return err
	}

	metrics.UsersRegisteredTotal.WithLabelValues(roleLabel(req.RoleType)).Inc()
	return c.JSON(http.StatusOK, registerResponse{NewUser: user})
}

// roleLabel keeps the metric label set bounded; role names are free-form.
func roleLabel(roleType string) string {
	switch r := strings.ToLower(strings.TrimSpace(roleType)); r {
	case domain.RoleAdmin, domain.RolePharmacist:
		return r
	default:
		return "other"
	}
}

// Login issues a token pair for the user the Credentials middleware
// authenticated. GET /auth/jwt-login reuses it behind the Session middleware.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      object  true  "username and password"
// @Success      200   {object}  tokenPairResponse
// @Failure      401   {object}  map[string]string
// @Failure      417   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	userID := middleware.UserIDFrom(c)
	if userID == "" {
		return domain.ErrSessionExpired
	}

	pair, err := h.authService.Login(c.Request().Context(), userID)
	if err != nil {
		metrics.AuthLoginsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenPairResponse{JWT: pair.SessionToken, RefreshToken: pair.RefreshToken})
}

// Refresh exchanges a refresh token for a new pair.
//
// @Summary      Refresh session
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      refreshRequest  true  "Refresh token"
// @Success      200   {object}  tokenPairResponse
// @Failure      417   {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	pair, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrSessionExpired) {
			metrics.AuthRefreshTotal.WithLabelValues("expired").Inc()
		} else {
			metrics.AuthRefreshTotal.WithLabelValues("error").Inc()
		}
		return err
	}

	metrics.AuthRefreshTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, tokenPairResponse{JWT: pair.SessionToken, RefreshToken: pair.RefreshToken})
}

// Logout revokes a refresh token.
//
// @Summary      Logout
// @Tags         auth
// @Accept       json
// @Param        body  body  refreshRequest  true  "Refresh token"
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := h.authService.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword changes the caller's password.
//
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      resetPasswordRequest  true  "Old and new password"
// @Success      200   {object}  messageResponse
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPassword(c.Request().Context(), middleware.UserIDFrom(c), req.OldPassword, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgPasswordChanged})
}

// RequestRecovery mails a password recovery link.
//
// @Summary      Request password recovery
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      recoveryRequest  true  "Username"
// @Success      200   {object}  recoveryResponse
// @Failure      400   {object}  map[string]string
// @Failure      429   {object}  map[string]string
// @Router       /auth/setValidationTokenAndNotify [post]
func (h *AuthHandler) RequestRecovery(c echo.Context) error {
	var req recoveryRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Usuario) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "usuario is required")
	}

	sent, err := h.authService.RequestPasswordRecovery(c.Request().Context(), req.Usuario)
	switch {
	case errors.Is(err, domain.ErrTooManyRequests):
		metrics.RecoveryRequestsTotal.WithLabelValues("throttled").Inc()
		return err
	case err != nil:
		metrics.RecoveryRequestsTotal.WithLabelValues("error").Inc()
		return err
	case !sent:
		metrics.RecoveryRequestsTotal.WithLabelValues("not_found").Inc()
		return c.JSON(http.StatusOK, recoveryResponse{Status: "notfound", Msg: msgRecoveryUnknown})
	}

	metrics.RecoveryRequestsTotal.WithLabelValues("sent").Inc()
	return c.JSON(http.StatusOK, recoveryResponse{Status: "ok", Msg: msgRecoverySent})
}

// RecoverPassword sets a new password using a recovery token.
//
// @Summary      Recover password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      recoverPasswordRequest  true  "Recovery token and new password"
// @Success      200   {object}  messageResponse
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /auth/recovery-password [post]
func (h *AuthHandler) RecoverPassword(c echo.Context) error {
	var req recoverPasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.authService.RecoverPassword(c.Request().Context(), req.AuthenticationToken, req.NewPassword); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msgPasswordChanged})
}

// ServiceToken issues a session token for another user. Admin only.
//
// @Summary      Issue a service token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      serviceTokenRequest  true  "Username"
// @Success      200   {object}  serviceTokenResponse
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/token [post]
func (h *AuthHandler) ServiceToken(c echo.Context) error {
	var req serviceTokenRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	token, err := h.authService.GetToken(c.Request().Context(), req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, serviceTokenResponse{JWT: token})
}
