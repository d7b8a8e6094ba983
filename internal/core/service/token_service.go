package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// ErrMissingSigningSecret is returned when a TokenService is built without a key.
var ErrMissingSigningSecret = errors.New("token service: signing secret is required")

// sessionClaims is the wire layout of a session token.
type sessionClaims struct {
	Username     string   `json:"usrn"`
	BusinessName string   `json:"bsname"`
	Roles        []string `json:"rl"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 session tokens and mints refresh tokens.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) (*TokenService, error) {
	if secret == "" {
		return nil, ErrMissingSigningSecret
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// IssueSessionToken signs a token for the given identity. A ttl of zero or
// less produces a token without an exp claim.
func (s *TokenService) IssueSessionToken(userID, username, businessName string, roles []string, ttl time.Duration) (string, error) {
	now := s.now()
	if roles == nil {
		roles = []string{}
	}
	claims := sessionClaims{
		Username:     username,
		BusinessName: businessName,
		Roles:        roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   domain.TokenIssuer,
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// VerifySessionToken checks signature and, when present, expiry.
func (s *TokenService) VerifySessionToken(token string) (*domain.Session, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}

	sess := &domain.Session{
		UserID:       claims.Subject,
		Username:     claims.Username,
		BusinessName: claims.BusinessName,
		Roles:        claims.Roles,
	}
	if claims.IssuedAt != nil {
		sess.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// IssueRefreshToken returns a random version-4 UUID.
func (s *TokenService) IssueRefreshToken() string {
	return uuid.NewString()
}
