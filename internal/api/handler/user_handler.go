package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

type UserHandler struct {
	authService ports.AuthService
}

func NewUserHandler(authService ports.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

// Update applies a profile patch. Only email, password, username,
// enrollment, cuil and businessName are honoured. Callers may only patch
// themselves unless they hold the admin role.
//
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User id"
// @Param        body  body      object  true  "Fields to change"
// @Success      200   {object}  domain.UserProfile
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      422   {object}  map[string]any
// @Router       /users/{id} [patch]
func (h *UserHandler) Update(c echo.Context) error {
	patch, err := bindPatch(c)
	if err != nil {
		return err
	}

	user, err := h.authService.UpdateUser(c.Request().Context(), c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// Search finds users by email, username or cuil.
//
// @Summary      Search users
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      userSearchRequest  true  "Identifiers"
// @Success      200   {array}   domain.UserProfile
// @Router       /users/search [post]
func (h *UserHandler) Search(c echo.Context) error {
	var req userSearchRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	users, err := h.authService.FindUsers(c.Request().Context(), domain.UserQuery{
		Email:    req.Email,
		Username: req.Username,
		Cuil:     req.Cuil,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// AssignRole replaces the user's role. Admin only.
//
// @Summary      Assign a role
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      assignRoleRequest  true  "Role id"
// @Success      200   {object}  domain.User
// @Failure      404   {object}  map[string]string
// @Router       /users/{id}/roles [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	var req assignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	user, err := h.authService.AssignRole(c.Request().Context(), c.Param("id"), req.RoleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
