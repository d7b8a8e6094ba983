package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// UserRepository defines persistence for user accounts. Lookups return users
// with their role names resolved; a missing user yields domain.ErrUserNotFound.
type UserRepository interface {
	// Create inserts the user. Duplicate usernames or emails surface as a
	// *domain.ValidationError naming the offending field.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Search(ctx context.Context, q domain.UserQuery) ([]*domain.User, error)
	ExistsByID(ctx context.Context, id string) (bool, error)

	// SetRefreshToken overwrites the single active refresh token of the user.
	SetRefreshToken(ctx context.Context, id, token string) error
	// RotateRefreshToken swaps oldToken for newToken on the user holding
	// oldToken and returns that user. Once rotated, oldToken matches nobody.
	RotateRefreshToken(ctx context.Context, oldToken, newToken string) (*domain.User, error)
	// ClearRefreshToken empties the refresh token of whichever user holds
	// token. No match is not an error.
	ClearRefreshToken(ctx context.Context, token string) error

	SetRecoveryToken(ctx context.Context, id, token string) error
	// ConsumeRecoveryToken replaces the password of the user holding token and
	// clears the token in the same write.
	ConsumeRecoveryToken(ctx context.Context, token string, password domain.Password) error

	UpdatePassword(ctx context.Context, id string, password domain.Password) error
	// Update applies changes keyed by field name (see domain.UserSchema) and
	// returns the updated user. A "password" change carries the encoded hash.
	Update(ctx context.Context, id string, changes map[string]string) (*domain.User, error)
	SetRoles(ctx context.Context, id string, roleIDs []string) error
}
