package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

// stubAuthService answers every call with the matching fn, or zero values
// when it is unset.
type stubAuthService struct {
	registerFn        func(ctx context.Context, in ports.RegisterInput) (*domain.User, error)
	loginFn           func(ctx context.Context, userID string) (*domain.TokenPair, error)
	refreshFn         func(ctx context.Context, token string) (*domain.TokenPair, error)
	logoutFn          func(ctx context.Context, token string) error
	resetFn           func(ctx context.Context, userID, oldPassword, newPassword string) error
	requestRecoveryFn func(ctx context.Context, username string) (bool, error)
	recoverFn         func(ctx context.Context, token, newPassword string) error
	updateFn          func(ctx context.Context, id string, patch map[string]any) (*domain.UserProfile, error)
	findFn            func(ctx context.Context, q domain.UserQuery) ([]*domain.UserProfile, error)
	assignRoleFn      func(ctx context.Context, userID, roleID string) (*domain.User, error)
	getTokenFn        func(ctx context.Context, username string) (string, error)
}

var _ ports.AuthService = (*stubAuthService)(nil)

func (s *stubAuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	if s.registerFn == nil {
		return &domain.User{}, nil
	}
	return s.registerFn(ctx, in)
}

func (s *stubAuthService) Authenticate(context.Context, string, string) (string, error) {
	return "", domain.ErrInvalidCredentials
}

func (s *stubAuthService) Login(ctx context.Context, userID string) (*domain.TokenPair, error) {
	if s.loginFn == nil {
		return &domain.TokenPair{}, nil
	}
	return s.loginFn(ctx, userID)
}

func (s *stubAuthService) Refresh(ctx context.Context, token string) (*domain.TokenPair, error) {
	if s.refreshFn == nil {
		return &domain.TokenPair{}, nil
	}
	return s.refreshFn(ctx, token)
}

func (s *stubAuthService) Logout(ctx context.Context, token string) error {
	if s.logoutFn == nil {
		return nil
	}
	return s.logoutFn(ctx, token)
}

func (s *stubAuthService) ResetPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if s.resetFn == nil {
		return nil
	}
	return s.resetFn(ctx, userID, oldPassword, newPassword)
}

func (s *stubAuthService) RequestPasswordRecovery(ctx context.Context, username string) (bool, error) {
	if s.requestRecoveryFn == nil {
		return true, nil
	}
	return s.requestRecoveryFn(ctx, username)
}

func (s *stubAuthService) RecoverPassword(ctx context.Context, token, newPassword string) error {
	if s.recoverFn == nil {
		return nil
	}
	return s.recoverFn(ctx, token, newPassword)
}

func (s *stubAuthService) UpdateUser(ctx context.Context, id string, patch map[string]any) (*domain.UserProfile, error) {
	if s.updateFn == nil {
		return &domain.UserProfile{ID: id}, nil
	}
	return s.updateFn(ctx, id, patch)
}

func (s *stubAuthService) FindUsers(ctx context.Context, q domain.UserQuery) ([]*domain.UserProfile, error) {
	if s.findFn == nil {
		return []*domain.UserProfile{}, nil
	}
	return s.findFn(ctx, q)
}

func (s *stubAuthService) AssignRole(ctx context.Context, userID, roleID string) (*domain.User, error) {
	if s.assignRoleFn == nil {
		return &domain.User{ID: userID, RoleIDs: []string{roleID}}, nil
	}
	return s.assignRoleFn(ctx, userID, roleID)
}

func (s *stubAuthService) GetToken(ctx context.Context, username string) (string, error) {
	if s.getTokenFn == nil {
		return "", nil
	}
	return s.getTokenFn(ctx, username)
}

type stubSupplyService struct {
	listFn   func(ctx context.Context) ([]*domain.Supply, error)
	createFn func(ctx context.Context, in ports.SupplyInput) (*domain.Supply, error)
	getFn    func(ctx context.Context, id string) (*domain.Supply, error)
	updateFn func(ctx context.Context, id string, patch map[string]any) (*domain.Supply, error)
	deleteFn func(ctx context.Context, id string) error
	searchFn func(ctx context.Context, query string) ([]domain.SupplyMatch, error)
}

var _ ports.SupplyService = (*stubSupplyService)(nil)

func (s *stubSupplyService) List(ctx context.Context) ([]*domain.Supply, error) {
	return s.listFn(ctx)
}

func (s *stubSupplyService) Create(ctx context.Context, in ports.SupplyInput) (*domain.Supply, error) {
	return s.createFn(ctx, in)
}

func (s *stubSupplyService) Get(ctx context.Context, id string) (*domain.Supply, error) {
	return s.getFn(ctx, id)
}

func (s *stubSupplyService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Supply, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubSupplyService) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}

func (s *stubSupplyService) SearchByName(ctx context.Context, query string) ([]domain.SupplyMatch, error) {
	return s.searchFn(ctx, query)
}

// newJSONContext builds an echo context for a JSON request with the package
// validator installed.
func newJSONContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}
