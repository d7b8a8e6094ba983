package domain

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Password is a salted bcrypt hash. The plaintext never leaves NewPassword,
// and the hash is only ever compared through Verify.
type Password struct {
	hash string
}

// NewPassword hashes plain with bcrypt's default cost.
func NewPassword(plain string) (Password, error) {
	if plain == "" {
		return Password{}, errors.New("password is required")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return Password{}, err
	}
	return Password{hash: string(h)}, nil
}

// PasswordFromHash wraps a hash loaded from storage.
func PasswordFromHash(hash string) Password {
	return Password{hash: hash}
}

// Verify reports whether candidate matches the stored hash.
func (p Password) Verify(candidate string) bool {
	if p.hash == "" || candidate == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(p.hash), []byte(candidate)) == nil
}

// Hash returns the encoded hash for persistence.
func (p Password) Hash() string { return p.hash }

// IsZero reports whether no password has been set.
func (p Password) IsZero() bool { return p.hash == "" }
