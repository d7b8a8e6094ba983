package domain

import "time"

const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
)

// User models a registered account: a pharmacist, a prescriber or an operator.
type User struct {
	ID            string    `json:"_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	Password      Password  `json:"-"`
	Enrollment    string    `json:"enrollment,omitempty"`
	Cuil          string    `json:"cuil,omitempty"`
	BusinessName  string    `json:"businessName,omitempty"`
	RoleIDs       []string  `json:"roles"`
	RoleNames     []string  `json:"-"`
	RefreshToken  string    `json:"-"`
	RecoveryToken string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasRole reports whether the user's resolved role names include name.
func (u *User) HasRole(name string) bool {
	for _, r := range u.RoleNames {
		if r == name {
			return true
		}
	}
	return false
}

// Sanitized returns the public projection of the user: id and the profile
// fields only, without credentials or role references.
func (u *User) Sanitized() *UserProfile {
	return &UserProfile{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Enrollment:   u.Enrollment,
		Cuil:         u.Cuil,
		BusinessName: u.BusinessName,
	}
}

// UserProfile is the sanitized user view returned by update and search paths.
type UserProfile struct {
	ID           string `json:"_id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Enrollment   string `json:"enrollment,omitempty"`
	Cuil         string `json:"cuil,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

// UserQuery selects users matching any of its non-empty identifiers.
type UserQuery struct {
	Email    string
	Username string
	Cuil     string
}

// IsEmpty reports whether no identifier was supplied.
func (q UserQuery) IsEmpty() bool {
	return q.Email == "" && q.Username == "" && q.Cuil == ""
}
