package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// SupplyRepository persists the medication catalog.
type SupplyRepository interface {
	List(ctx context.Context) ([]*domain.Supply, error)
	Create(ctx context.Context, s *domain.Supply) (*domain.Supply, error)
	FindByID(ctx context.Context, id string) (*domain.Supply, error)
	Update(ctx context.Context, id string, changes map[string]string) (*domain.Supply, error)
	Delete(ctx context.Context, id string) error

	// TextSearch runs a full-text query over supply names.
	TextSearch(ctx context.Context, query string, limit int) ([]domain.SupplyMatch, error)
	// NameMatch runs a case-insensitive regular expression over supply names.
	NameMatch(ctx context.Context, pattern string, limit int) ([]domain.SupplyMatch, error)
}
