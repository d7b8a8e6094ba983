package domain

// Role is a named permission grouping. Names are unique and roles are created
// on first reference.
type Role struct {
	ID      string   `json:"_id"`
	Name    string   `json:"role"`
	UserIDs []string `json:"users"`
}
