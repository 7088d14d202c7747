package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"persreg/internal/individual/models"
	"persreg/pkg/platform/sentinel"
)

// InMemory mirrors the Postgres store's semantics for unit and handler
// tests, including the partial-uniqueness rule and the literal-substring
// search.
type InMemory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*models.Individual
}

// NewInMemory constructs an empty in-memory individual store.
func NewInMemory() *InMemory {
	return &InMemory{records: make(map[uuid.UUID]*models.Individual)}
}

func (s *InMemory) List(_ context.Context, q models.ListQuery) ([]*models.Individual, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Individual
	for _, ind := range s.records {
		if ind.IsDeleted != q.Deleted {
			continue
		}
		if q.Search != "" && !matchesSearch(ind, q.Search) {
			continue
		}
		matched = append(matched, clone(ind))
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := q.Offset()
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ind, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("find individual: %w", sentinel.ErrNotFound)
	}
	return clone(ind), nil
}

func (s *InMemory) FindActiveByCode(_ context.Context, code string) (*models.Individual, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if ind := s.activeByCode(code); ind != nil {
		return clone(ind), nil
	}
	return nil, fmt.Errorf("find individual by code: %w", sentinel.ErrNotFound)
}

func (s *InMemory) Create(_ context.Context, ind *models.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Same rule the partial unique index enforces in Postgres.
	if existing := s.activeByCode(ind.NationalCode); existing != nil {
		return fmt.Errorf("create individual: %w", sentinel.ErrConflict)
	}
	s.records[ind.ID] = clone(ind)
	return nil
}

func (s *InMemory) Update(_ context.Context, ind *models.Individual) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.records[ind.ID]
	if !ok {
		return fmt.Errorf("update individual: %w", sentinel.ErrNotFound)
	}
	current.Rename(ind.Surname, ind.GivenName, ind.Patronymic, ind.UpdatedAt)
	return nil
}

func (s *InMemory) SetDeleted(_ context.Context, id uuid.UUID, deleted bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ind, ok := s.records[id]
	if !ok {
		return fmt.Errorf("set individual deleted: %w", sentinel.ErrNotFound)
	}
	if deleted {
		ind.MarkDeleted(now)
	} else {
		ind.MarkRestored(now)
	}
	return nil
}

// activeByCode must be called with the lock held.
func (s *InMemory) activeByCode(code string) *models.Individual {
	for _, ind := range s.records {
		if !ind.IsDeleted && ind.NationalCode == code {
			return ind
		}
	}
	return nil
}

func matchesSearch(ind *models.Individual, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{ind.NationalCode, ind.DisplayName, ind.Surname, ind.GivenName, ind.Patronymic} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

func clone(ind *models.Individual) *models.Individual {
	cp := *ind
	if ind.DeletedAt != nil {
		t := *ind.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}
