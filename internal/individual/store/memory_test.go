package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"persreg/internal/individual/models"
	"persreg/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) newIndividual(code, surname, given string, createdAt time.Time) *models.Individual {
	return models.NewIndividual(uuid.New(), models.CreateRequest{
		NationalCode: code,
		Surname:      surname,
		GivenName:    given,
	}, createdAt)
}

func (s *InMemoryStoreSuite) TestCreateAndFind() {
	ind := s.newIndividual("123456789012", "Smith", "John", s.now)
	s.Require().NoError(s.store.Create(s.ctx, ind))

	found, err := s.store.FindByID(s.ctx, ind.ID)
	s.Require().NoError(err)
	s.Equal("Smith John", found.DisplayName)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestActiveCodeUniqueness() {
	first := s.newIndividual("123456789012", "Smith", "John", s.now)
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("duplicate active code conflicts", func() {
		dup := s.newIndividual("123456789012", "Doe", "Jane", s.now)
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("code is reusable once the holder is deleted", func() {
		s.Require().NoError(s.store.SetDeleted(s.ctx, first.ID, true, s.now))
		dup := s.newIndividual("123456789012", "Doe", "Jane", s.now)
		s.Require().NoError(s.store.Create(s.ctx, dup))
	})
}

func (s *InMemoryStoreSuite) TestListFiltersDeletionSlice() {
	active := s.newIndividual("111111111111", "Smith", "John", s.now)
	deleted := s.newIndividual("222222222222", "Doe", "Jane", s.now.Add(time.Second))
	s.Require().NoError(s.store.Create(s.ctx, active))
	s.Require().NoError(s.store.Create(s.ctx, deleted))
	s.Require().NoError(s.store.SetDeleted(s.ctx, deleted.ID, true, s.now))

	rows, total, err := s.store.List(s.ctx, normalized(models.ListQuery{}))
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(rows, 1)
	s.Equal(active.ID, rows[0].ID)

	rows, total, err = s.store.List(s.ctx, normalized(models.ListQuery{Deleted: true}))
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(rows, 1)
	s.Equal(deleted.ID, rows[0].ID)
}

func (s *InMemoryStoreSuite) TestListOrderingAndPagination() {
	// 25 records with strictly increasing creation times.
	var newest uuid.UUID
	for i := 0; i < 25; i++ {
		ind := s.newIndividual(fmt.Sprintf("%012d", i), "Smith", "John", s.now.Add(time.Duration(i)*time.Minute))
		s.Require().NoError(s.store.Create(s.ctx, ind))
		newest = ind.ID
	}

	rows, total, err := s.store.List(s.ctx, normalized(models.ListQuery{Page: 1, Limit: 10}))
	s.Require().NoError(err)
	s.Equal(25, total)
	s.Require().Len(rows, 10)
	s.Equal(newest, rows[0].ID, "newest record comes first")

	rows, _, err = s.store.List(s.ctx, normalized(models.ListQuery{Page: 3, Limit: 10}))
	s.Require().NoError(err)
	s.Len(rows, 5)

	rows, total, err = s.store.List(s.ctx, normalized(models.ListQuery{Page: 4, Limit: 10}))
	s.Require().NoError(err)
	s.Len(rows, 0)
	s.Equal(25, total)
}

func (s *InMemoryStoreSuite) TestListTieBreakIsDeterministic() {
	a := s.newIndividual("111111111111", "Smith", "John", s.now)
	b := s.newIndividual("222222222222", "Doe", "Jane", s.now)
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	first, _, err := s.store.List(s.ctx, normalized(models.ListQuery{Page: 1, Limit: 1}))
	s.Require().NoError(err)
	second, _, err := s.store.List(s.ctx, normalized(models.ListQuery{Page: 2, Limit: 1}))
	s.Require().NoError(err)

	s.Require().Len(first, 1)
	s.Require().Len(second, 1)
	s.NotEqual(first[0].ID, second[0].ID, "equal timestamps must not repeat rows across pages")
	s.Less(first[0].ID.String(), second[0].ID.String())
}

func (s *InMemoryStoreSuite) TestSearchMatchesLiterally() {
	smith := s.newIndividual("123456789012", "Smith", "John", s.now)
	percent := models.NewIndividual(uuid.New(), models.CreateRequest{
		NationalCode: "999999999999",
		Surname:      "Wild",
		GivenName:    "Card",
	}, s.now)
	percent.DisplayName = "100% Wild Card"
	s.Require().NoError(s.store.Create(s.ctx, smith))
	s.Require().NoError(s.store.Create(s.ctx, percent))

	s.Run("case-insensitive substring", func() {
		rows, _, err := s.store.List(s.ctx, normalized(models.ListQuery{Search: "smi"}))
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(smith.ID, rows[0].ID)
	})

	s.Run("percent matches only literal occurrences", func() {
		rows, _, err := s.store.List(s.ctx, normalized(models.ListQuery{Search: "100%"}))
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(percent.ID, rows[0].ID)
	})

	s.Run("search by national code", func() {
		rows, _, err := s.store.List(s.ctx, normalized(models.ListQuery{Search: "1234567"}))
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(smith.ID, rows[0].ID)
	})
}

func (s *InMemoryStoreSuite) TestSetDeletedToggle() {
	ind := s.newIndividual("123456789012", "Smith", "John", s.now)
	s.Require().NoError(s.store.Create(s.ctx, ind))

	first := s.now.Add(time.Minute)
	s.Require().NoError(s.store.SetDeleted(s.ctx, ind.ID, true, first))

	got, err := s.store.FindByID(s.ctx, ind.ID)
	s.Require().NoError(err)
	s.True(got.IsDeleted)
	s.Require().NotNil(got.DeletedAt)

	// Second delete is a toggle-to-true: still succeeds, still bumps updated_at.
	second := first.Add(time.Minute)
	s.Require().NoError(s.store.SetDeleted(s.ctx, ind.ID, true, second))
	got, err = s.store.FindByID(s.ctx, ind.ID)
	s.Require().NoError(err)
	s.True(got.IsDeleted)
	s.Equal(second, got.UpdatedAt)

	s.Require().NoError(s.store.SetDeleted(s.ctx, ind.ID, false, second.Add(time.Minute)))
	got, err = s.store.FindByID(s.ctx, ind.ID)
	s.Require().NoError(err)
	s.False(got.IsDeleted)
	s.Nil(got.DeletedAt)

	s.Require().ErrorIs(s.store.SetDeleted(s.ctx, uuid.New(), true, second), sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestUpdateMissingRecord() {
	ghost := s.newIndividual("123456789012", "Smith", "John", s.now)
	s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
}

func normalized(q models.ListQuery) models.ListQuery {
	q.Normalize()
	return q
}
