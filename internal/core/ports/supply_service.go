package ports

import (
	"context"

	"github.com/recetar/recetar-api/internal/core/domain"
)

// SupplyInput carries the fields accepted when creating a supply.
type SupplyInput struct {
	Name               string
	ActivePrinciple    string
	Power              string
	Unity              string
	FirstPresentation  string
	SecondPresentation string
	Description        string
	Observation        string
	PharmaceuticalForm string
}

// SupplyService defines the catalog use cases.
type SupplyService interface {
	List(ctx context.Context) ([]*domain.Supply, error)
	Create(ctx context.Context, in SupplyInput) (*domain.Supply, error)
	Get(ctx context.Context, id string) (*domain.Supply, error)
	Update(ctx context.Context, id string, patch map[string]any) (*domain.Supply, error)
	Delete(ctx context.Context, id string) error
	SearchByName(ctx context.Context, query string) ([]domain.SupplyMatch, error)
}
