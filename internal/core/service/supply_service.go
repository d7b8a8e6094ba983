package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

type SupplyService struct {
	repo   ports.SupplyRepository
	logger zerolog.Logger
}

func NewSupplyService(repo ports.SupplyRepository, logger zerolog.Logger) *SupplyService {
	return &SupplyService{repo: repo, logger: logger}
}

func (s *SupplyService) List(ctx context.Context) ([]*domain.Supply, error) {
	supplies, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list supplies: %w", err)
	}
	return supplies, nil
}

func (s *SupplyService) Create(ctx context.Context, in ports.SupplyInput) (*domain.Supply, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.NewValidationError("name", "name is required")
	}

	now := time.Now().UTC()
	created, err := s.repo.Create(ctx, &domain.Supply{
		Name:               name,
		ActivePrinciple:    in.ActivePrinciple,
		Power:              in.Power,
		Unity:              in.Unity,
		FirstPresentation:  in.FirstPresentation,
		SecondPresentation: in.SecondPresentation,
		Description:        in.Description,
		Observation:        in.Observation,
		PharmaceuticalForm: in.PharmaceuticalForm,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create supply")
		return nil, err
	}

	s.logger.Info().Str("supply_id", created.ID).Str("name", created.Name).Msg("supply created")
	return created, nil
}

func (s *SupplyService) Get(ctx context.Context, id string) (*domain.Supply, error) {
	return s.repo.FindByID(ctx, id)
}

// Update applies the mutable fields of patch (see domain.SupplySchema).
func (s *SupplyService) Update(ctx context.Context, id string, patch map[string]any) (*domain.Supply, error) {
	changes := domain.SupplySchema.Patch(patch)
	if len(changes) == 0 {
		return s.repo.FindByID(ctx, id)
	}
	return s.repo.Update(ctx, id, changes)
}

func (s *SupplyService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("supply_id", id).Msg("supply deleted")
	return nil
}

// SearchByName looks supplies up by name. A multi-word query runs a text
// search requiring every word; a single word is matched as a
// case-insensitive substring.
func (s *SupplyService) SearchByName(ctx context.Context, query string) ([]domain.SupplyMatch, error) {
	words := strings.Fields(query)
	if len(words) == 0 {
		return []domain.SupplyMatch{}, nil
	}

	var (
		matches []domain.SupplyMatch
		err     error
	)
	if len(words) > 1 {
		matches, err = s.repo.TextSearch(ctx, phraseQuery(words), domain.SupplySearchLimit)
	} else {
		matches, err = s.repo.NameMatch(ctx, regexp.QuoteMeta(words[0]), domain.SupplySearchLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("search supplies: %w", err)
	}
	if matches == nil {
		matches = []domain.SupplyMatch{}
	}
	return matches, nil
}

// phraseQuery quotes each word so a $text search requires all of them.
func phraseQuery(words []string) string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = `"` + strings.ReplaceAll(w, `"`, ``) + `"`
	}
	return strings.Join(quoted, " ")
}
