package handler

import "github.com/recetar/recetar-api/internal/core/domain"

type registerRequest struct {
	Username     string `json:"username"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	Enrollment   string `json:"enrollment"`
	Cuil         string `json:"cuil"`
	BusinessName string `json:"businessName"`
	RoleType     string `json:"roleType"`
}

type registerResponse struct {
	NewUser *domain.User `json:"newUser"`
}

type tokenPairResponse struct {
	JWT          string `json:"jwt"`
	RefreshToken string `json:"refreshToken"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetPasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type recoverPasswordRequest struct {
	AuthenticationToken string `json:"authenticationToken"`
	NewPassword         string `json:"newPassword"`
}

type recoveryRequest struct {
	Usuario string `json:"usuario"`
}

type recoveryResponse struct {
	Status string `json:"status"`
	Msg    string `json:"msg"`
}

type serviceTokenRequest struct {
	Username string `json:"username" validate:"required"`
}

type serviceTokenResponse struct {
	JWT string `json:"jwt"`
}

type userSearchRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Cuil     string `json:"cuil"`
}

type assignRoleRequest struct {
	RoleID string `json:"roleId" validate:"required"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type supplyRequest struct {
	Name               string `json:"name"`
	ActivePrinciple    string `json:"activePrinciple"`
	Power              string `json:"power"`
	Unity              string `json:"unity"`
	FirstPresentation  string `json:"firstPresentation"`
	SecondPresentation string `json:"secondPresentation"`
	Description        string `json:"description"`
	Observation        string `json:"observation"`
	PharmaceuticalForm string `json:"pharmaceutical_form"`
}

type supplyListResponse struct {
	Supplies []*domain.Supply `json:"supplies"`
}

type newSupplyResponse struct {
	NewSupply *domain.Supply `json:"newSupply"`
}

type andesResponse struct {
	Msg  string `json:"msg"`
	Body any    `json:"body"`
}
