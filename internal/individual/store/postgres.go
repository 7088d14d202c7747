// Package store persists individuals. The Postgres store is the production
// implementation; the in-memory store mirrors its semantics for tests.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"persreg/internal/individual/models"
	"persreg/internal/platform/postgres"
	"persreg/pkg/platform/sentinel"
)

const individualColumns = `id, national_code, display_name, surname, given_name, patronymic, created_at, updated_at, deleted_at, is_deleted`

// Postgres stores individuals in PostgreSQL through the persistence gateway.
type Postgres struct {
	gw *postgres.Gateway
}

// NewPostgres constructs a PostgreSQL-backed individual store.
func NewPostgres(gw *postgres.Gateway) *Postgres {
	return &Postgres{gw: gw}
}

// List returns one page of records plus the total matching the same filter.
// The two reads run concurrently and are not snapshot-isolated from each
// other; the pagination block may be slightly stale under concurrent writes.
func (s *Postgres) List(ctx context.Context, q models.ListQuery) ([]*models.Individual, int, error) {
	where, params := buildFilter(q)
	dataStmt := fmt.Sprintf(
		`SELECT %s FROM individuals %s ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		individualColumns, where, len(params)+1, len(params)+2,
	)
	countStmt := fmt.Sprintf(`SELECT COUNT(*) FROM individuals %s`, where)

	var (
		records []*models.Individual
		total   int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		args := append(append([]any{}, params...), q.Limit, q.Offset())
		rows, err := s.gw.QueryContext(gctx, dataStmt, args...)
		if err != nil {
			return fmt.Errorf("list individuals: %w", err)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			ind, err := scanIndividual(rows)
			if err != nil {
				return fmt.Errorf("scan individual: %w", err)
			}
			records = append(records, ind)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list individuals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := s.gw.QueryRowContext(gctx, countStmt, params...).Scan(&total); err != nil {
			return fmt.Errorf("count individuals: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// FindByID returns a record regardless of its deletion state.
func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Individual, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM individuals WHERE id = $1`, individualColumns)
	ind, err := scanIndividual(s.gw.QueryRowContext(ctx, stmt, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find individual: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find individual: %w", err)
	}
	return ind, nil
}

// FindActiveByCode looks up the non-deleted record holding a national code.
// Used by the uniqueness pre-check; the partial unique index remains the
// authoritative guard.
func (s *Postgres) FindActiveByCode(ctx context.Context, code string) (*models.Individual, error) {
	stmt := fmt.Sprintf(`SELECT %s FROM individuals WHERE national_code = $1 AND is_deleted = false`, individualColumns)
	ind, err := scanIndividual(s.gw.QueryRowContext(ctx, stmt, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find individual by code: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find individual by code: %w", err)
	}
	return ind, nil
}

// Create inserts a new record. A duplicate active national code trips the
// partial unique index, which the gateway surfaces as sentinel.ErrConflict.
func (s *Postgres) Create(ctx context.Context, ind *models.Individual) error {
	stmt := `
		INSERT INTO individuals (id, national_code, display_name, surname, given_name, patronymic, created_at, updated_at, deleted_at, is_deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.gw.ExecContext(ctx, stmt,
		ind.ID, ind.NationalCode, ind.DisplayName, ind.Surname, ind.GivenName, ind.Patronymic,
		ind.CreatedAt, ind.UpdatedAt, nullTime(ind.DeletedAt), ind.IsDeleted,
	)
	if err != nil {
		return fmt.Errorf("create individual: %w", err)
	}
	return nil
}

// Update writes the mutable name fields and the updated timestamp.
func (s *Postgres) Update(ctx context.Context, ind *models.Individual) error {
	stmt := `
		UPDATE individuals
		SET display_name = $1, surname = $2, given_name = $3, patronymic = $4, updated_at = $5
		WHERE id = $6
	`
	res, err := s.gw.ExecContext(ctx, stmt,
		ind.DisplayName, ind.Surname, ind.GivenName, ind.Patronymic, ind.UpdatedAt, ind.ID,
	)
	if err != nil {
		return fmt.Errorf("update individual: %w", err)
	}
	return checkAffected(res, "update individual")
}

// SetDeleted toggles the soft-delete marker pair in a single statement.
// The write is unconditional on the current state: re-deleting a deleted
// record still bumps updated_at.
func (s *Postgres) SetDeleted(ctx context.Context, id uuid.UUID, deleted bool, now time.Time) error {
	stmt := `
		UPDATE individuals
		SET is_deleted = $2, deleted_at = CASE WHEN $2 THEN $3 ELSE NULL END, updated_at = $3
		WHERE id = $1
	`
	res, err := s.gw.ExecContext(ctx, stmt, id, deleted, now)
	if err != nil {
		return fmt.Errorf("set individual deleted: %w", err)
	}
	return checkAffected(res, "set individual deleted")
}

// buildFilter assembles the WHERE clause structurally: conditions and
// params grow together, so placeholder numbering cannot drift. The deleted
// flag is a toggle — it selects either the active or the deleted slice,
// never both.
func buildFilter(q models.ListQuery) (string, []any) {
	conditions := []string{"is_deleted = $1"}
	params := []any{q.Deleted}

	if q.Search != "" {
		p := fmt.Sprintf("$%d", len(params)+1)
		conditions = append(conditions, fmt.Sprintf(
			`(national_code ILIKE %[1]s OR display_name ILIKE %[1]s OR surname ILIKE %[1]s OR given_name ILIKE %[1]s OR patronymic ILIKE %[1]s)`,
			p,
		))
		params = append(params, "%"+escapeLike(q.Search)+"%")
	}
	return "WHERE " + strings.Join(conditions, " AND "), params
}

// escapeLike neutralizes pattern metacharacters so the search term matches
// literally once wildcarded on both sides.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIndividual(r rowScanner) (*models.Individual, error) {
	var (
		ind       models.Individual
		deletedAt sql.NullTime
	)
	err := r.Scan(
		&ind.ID, &ind.NationalCode, &ind.DisplayName, &ind.Surname, &ind.GivenName, &ind.Patronymic,
		&ind.CreatedAt, &ind.UpdatedAt, &deletedAt, &ind.IsDeleted,
	)
	if err != nil {
		return nil, err
	}
	if deletedAt.Valid {
		ind.DeletedAt = &deletedAt.Time
	}
	return &ind, nil
}

func checkAffected(res sql.Result, op string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
