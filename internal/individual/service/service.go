// Package service implements the individual lifecycle: filtered listing,
// lookup, create with uniqueness enforcement, update, soft delete, restore.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"persreg/internal/individual/models"
	"persreg/internal/platform/metrics"
	dErrors "persreg/pkg/domain-errors"
	"persreg/pkg/platform/sentinel"
	"persreg/pkg/requestcontext"
)

// Store is the persistence surface the service needs. Both the Postgres and
// the in-memory implementations satisfy it.
type Store interface {
	List(ctx context.Context, q models.ListQuery) ([]*models.Individual, int, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Individual, error)
	FindActiveByCode(ctx context.Context, code string) (*models.Individual, error)
	Create(ctx context.Context, ind *models.Individual) error
	Update(ctx context.Context, ind *models.Individual) error
	SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, now time.Time) error
}

// Service orchestrates individual record management.
type Service struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns one page of either the active or the deleted slice, with the
// paging math computed from the same filter.
func (s *Service) List(ctx context.Context, q models.ListQuery) (*models.ListResult, error) {
	q.Normalize()

	rows, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list individuals")
	}

	totalPages := (total + q.Limit - 1) / q.Limit
	return &models.ListResult{
		Rows:       rows,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// Get fetches one record by id, deleted or not.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Individual, error) {
	ind, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "individual not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load individual")
	}
	return ind, nil
}

// Create validates the request, enforces national-code uniqueness among
// active records, and inserts the new individual.
//
// The pre-check and the insert are two independent statements; two
// concurrent creates can both pass the pre-check. The partial unique index
// is the authoritative guard, so the losing insert still comes back as a
// conflict rather than a duplicate row.
func (s *Service) Create(ctx context.Context, req models.CreateRequest) (*models.Individual, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if _, err := s.store.FindActiveByCode(ctx, req.NationalCode); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "individual with this nationalCode already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check nationalCode uniqueness")
	}

	ind := models.NewIndividual(uuid.New(), req, requestcontext.Now(ctx))
	if err := s.store.Create(ctx, ind); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "individual with this nationalCode already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create individual")
	}

	s.logAudit(ctx, "individual_created", "individual_id", ind.ID)
	if s.metrics != nil {
		s.metrics.IndividualsCreated.Inc()
	}
	return ind, nil
}

// Update replaces the name triple of an existing record. The national code
// is immutable and not part of the request. Validation runs before the
// existence check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req models.UpdateRequest) (*models.Individual, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ind, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "individual not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load individual")
	}

	ind.Rename(req.Surname, req.GivenName, req.Patronymic, requestcontext.Now(ctx))
	if err := s.store.Update(ctx, ind); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "individual not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update individual")
	}

	s.logAudit(ctx, "individual_updated", "individual_id", ind.ID)
	return ind, nil
}

// SoftDelete marks a record deleted. The transition is a toggle-to-true:
// deleting an already deleted record succeeds and still bumps updatedAt.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.setDeleted(ctx, id, true); err != nil {
		return err
	}
	s.logAudit(ctx, "individual_deleted", "individual_id", id)
	if s.metrics != nil {
		s.metrics.IndividualsDeleted.Inc()
	}
	return nil
}

// Restore clears the soft-delete marker, symmetric to SoftDelete.
func (s *Service) Restore(ctx context.Context, id uuid.UUID) error {
	if err := s.setDeleted(ctx, id, false); err != nil {
		return err
	}
	s.logAudit(ctx, "individual_restored", "individual_id", id)
	if s.metrics != nil {
		s.metrics.IndividualsRestored.Inc()
	}
	return nil
}

func (s *Service) setDeleted(ctx context.Context, id uuid.UUID, deleted bool) error {
	err := s.store.SetDeleted(ctx, id, deleted, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "individual not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to change individual deletion state")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	s.logger.InfoContext(ctx, event, args...)
}
