package domain

import "time"

// TokenIssuer is the iss claim of every session token this service signs.
const TokenIssuer = "recetar.andes"

// Session is the verified content of a session token.
type Session struct {
	UserID       string
	Username     string
	BusinessName string
	Roles        []string
	IssuedAt     time.Time
	ExpiresAt    time.Time // zero when the token carries no expiry
}

// HasRole reports whether the session carries role name.
func (s *Session) HasRole(name string) bool {
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// TokenPair is handed to a client after login or refresh.
type TokenPair struct {
	SessionToken string
	RefreshToken string
}
