package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recetar/recetar-api/internal/core/domain"
	"github.com/recetar/recetar-api/internal/core/ports"
)

type searchCall struct {
	mode    string
	pattern string
	limit   int
}

type stubSupplyRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Supply
	nextID  int
	calls   []searchCall
	matches []domain.SupplyMatch
	err     error
}

func newStubSupplyRepo() *stubSupplyRepo {
	return &stubSupplyRepo{byID: make(map[string]*domain.Supply)}
}

func (r *stubSupplyRepo) List(_ context.Context) ([]*domain.Supply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.Supply, 0, len(r.byID))
	for _, s := range r.byID {
		clone := *s
		out = append(out, &clone)
	}
	return out, r.err
}

func (r *stubSupplyRepo) Create(_ context.Context, s *domain.Supply) (*domain.Supply, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *s
	clone.ID = "supply-" + strconv.Itoa(r.nextID)
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubSupplyRepo) FindByID(_ context.Context, id string) (*domain.Supply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSupplyNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSupplyRepo) Update(_ context.Context, id string, changes map[string]string) (*domain.Supply, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrSupplyNotFound
	}
	for k, v := range changes {
		switch k {
		case "name":
			s.Name = v
		case "activePrinciple":
			s.ActivePrinciple = v
		case "power":
			s.Power = v
		case "description":
			s.Description = v
		}
	}
	clone := *s
	return &clone, nil
}

func (r *stubSupplyRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrSupplyNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubSupplyRepo) TextSearch(_ context.Context, query string, limit int) ([]domain.SupplyMatch, error) {
	r.calls = append(r.calls, searchCall{mode: "text", pattern: query, limit: limit})
	return r.matches, r.err
}

func (r *stubSupplyRepo) NameMatch(_ context.Context, pattern string, limit int) ([]domain.SupplyMatch, error) {
	r.calls = append(r.calls, searchCall{mode: "regex", pattern: pattern, limit: limit})
	return r.matches, r.err
}

func TestSupplyService_CreateRequiresName(t *testing.T) {
	repo := newStubSupplyRepo()
	svc := NewSupplyService(repo, discardLogger)

	_, err := svc.Create(context.Background(), ports.SupplyInput{Name: "  ", Power: "500mg"})
	ve, ok := domain.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Contains(t, ve.Fields, "name")
	assert.Empty(t, repo.byID)
}

func TestSupplyService_CreateAndGet(t *testing.T) {
	svc := NewSupplyService(newStubSupplyRepo(), discardLogger)

	created, err := svc.Create(context.Background(), ports.SupplyInput{
		Name:               " Ibuprofeno ",
		ActivePrinciple:    "ibuprofeno",
		Power:              "400",
		Unity:              "mg",
		PharmaceuticalForm: "comprimido",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofeno", created.Name)
	assert.False(t, created.CreatedAt.IsZero())

	got, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "comprimido", got.PharmaceuticalForm)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrSupplyNotFound)
}

func TestSupplyService_UpdateAllowList(t *testing.T) {
	repo := newStubSupplyRepo()
	svc := NewSupplyService(repo, discardLogger)
	created, err := svc.Create(context.Background(), ports.SupplyInput{Name: "Amoxicilina", Power: "500"})
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), created.ID, map[string]any{
		"power":     "875",
		"name":      "",
		"_id":       "forged",
		"createdAt": "2000-01-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "875", updated.Power)
	assert.Equal(t, "Amoxicilina", updated.Name)
	assert.Equal(t, created.ID, updated.ID)

	unchanged, err := svc.Update(context.Background(), created.ID, map[string]any{"unknown": "x"})
	require.NoError(t, err)
	assert.Equal(t, "875", unchanged.Power)

	_, err = svc.Update(context.Background(), "missing", map[string]any{"power": "1"})
	assert.ErrorIs(t, err, domain.ErrSupplyNotFound)
}

func TestSupplyService_Delete(t *testing.T) {
	svc := NewSupplyService(newStubSupplyRepo(), discardLogger)
	created, _ := svc.Create(context.Background(), ports.SupplyInput{Name: "Paracetamol"})

	require.NoError(t, svc.Delete(context.Background(), created.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), created.ID), domain.ErrSupplyNotFound)
}

func TestSupplyService_SearchByName_Modes(t *testing.T) {
	cases := []struct {
		name    string
		query   string
		mode    string
		pattern string
	}{
		{"single word uses regex", "ibupro", "regex", "ibupro"},
		{"single word escapes metacharacters", "a.b*(c", "regex", `a\.b\*\(c`},
		{"surrounding space is ignored", "  amox  ", "regex", "amox"},
		{"multiple words use text search", "acido folico", "text", `"acido" "folico"`},
		{"quotes are stripped from words", `ibu"profeno 400`, "text", `"ibuprofeno" "400"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newStubSupplyRepo()
			svc := NewSupplyService(repo, discardLogger)

			_, err := svc.SearchByName(context.Background(), tc.query)
			require.NoError(t, err)
			require.Len(t, repo.calls, 1)
			assert.Equal(t, tc.mode, repo.calls[0].mode)
			assert.Equal(t, tc.pattern, repo.calls[0].pattern)
			assert.Equal(t, domain.SupplySearchLimit, repo.calls[0].limit)
		})
	}
}

func TestSupplyService_SearchByName_EmptyQuery(t *testing.T) {
	repo := newStubSupplyRepo()
	svc := NewSupplyService(repo, discardLogger)

	got, err := svc.SearchByName(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, repo.calls, "blank queries must not reach the store")
}

func TestSupplyService_SearchByName_NoMatchesIsEmptySlice(t *testing.T) {
	svc := NewSupplyService(newStubSupplyRepo(), discardLogger)

	got, err := svc.SearchByName(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestSupplyService_SearchByName_StoreError(t *testing.T) {
	repo := newStubSupplyRepo()
	repo.err = errors.New("connection reset")
	svc := NewSupplyService(repo, discardLogger)

	_, err := svc.SearchByName(context.Background(), "ibu")
	assert.ErrorIs(t, err, repo.err)
}
