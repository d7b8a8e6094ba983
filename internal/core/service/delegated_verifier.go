package service

import (
	"context"
	"fmt"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

// DelegatedVerifier authorizes requests carrying a token issued for the Andes
// integration. It only checks that the token's subject is a known user; it
// never issues tokens itself.
type DelegatedVerifier struct {
	tokens ports.SessionVerifier
	users  ports.UserRepository
}

func NewDelegatedVerifier(tokens ports.SessionVerifier, users ports.UserRepository) *DelegatedVerifier {
	return &DelegatedVerifier{tokens: tokens, users: users}
}

// Verify returns the local user id behind token. Bad tokens yield
// domain.ErrInvalidToken and unknown subjects domain.ErrSessionExpired.
func (v *DelegatedVerifier) Verify(ctx context.Context, token string) (string, error) {
	sess, err := v.tokens.VerifySessionToken(token)
	if err != nil {
		return "", domain.ErrInvalidToken
	}

	ok, err := v.users.ExistsByID(ctx, sess.UserID)
	if err != nil {
		return "", fmt.Errorf("delegated verify: %w", err)
	}
	if !ok {
		return "", domain.ErrSessionExpired
	}
	return sess.UserID, nil
}
