package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// RoleRepository persists named roles.
type RoleRepository interface {
	// FindOrCreate returns the role called name, inserting it when absent.
	// Concurrent callers for the same name all receive the same record.
	FindOrCreate(ctx context.Context, name string) (*domain.Role, error)
	FindByID(ctx context.Context, id string) (*domain.Role, error)
	// AddUser records userID as a member of the role (set semantics).
	AddUser(ctx context.Context, roleID, userID string) error
}
