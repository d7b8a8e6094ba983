package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// RegisterInput carries the fields accepted on registration.
type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Enrollment   string
	Cuil         string
	BusinessName string
	RoleType     string
}

// AuthService is the authentication and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	// Authenticate checks username and password and returns the user id.
	Authenticate(ctx context.Context, username, password string) (string, error)
	Login(ctx context.Context, userID string) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error

	ResetPassword(ctx context.Context, userID, oldPassword, newPassword string) error
	RequestPasswordRecovery(ctx context.Context, username string) (bool, error)
	RecoverPassword(ctx context.Context, token, newPassword string) error

	UpdateUser(ctx context.Context, id string, patch map[string]any) (*domain.UserProfile, error)
	FindUsers(ctx context.Context, q domain.UserQuery) ([]*domain.UserProfile, error)
	AssignRole(ctx context.Context, userID, roleID string) (*domain.User, error)
	GetToken(ctx context.Context, username string) (string, error)
}

// SessionVerifier validates session tokens presented by clients.
type SessionVerifier interface {
	VerifySessionToken(token string) (*domain.Session, error)
}

// DelegatedVerifier maps an externally issued bearer token to a local user id.
type DelegatedVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}
