package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

// FilterRepository persists derived triage records. The primary key on email
// is the de-duplication mechanism for concurrent analysis attempts: the
// losing insert surfaces ErrConflict and the caller discards its result.
type FilterRepository struct {
	db *sql.DB
}

func NewFilterRepository(db *sql.DB) *FilterRepository {
	return &FilterRepository{db: db}
}

func (r *FilterRepository) Create(ctx context.Context, filter *domain.Filter) error {
	createdAt := filter.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO filters (email, gpa_form, gpa_ai, f, completeness, done, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`, filter.Email, filter.GPAForm, filter.GPAAI, filter.F, filter.Completeness, filter.Done, createdAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert filter", errors.New(filter.Email))
		}
		return fmt.Errorf("insert filter: %w", err)
	}
	return nil
}

func (r *FilterRepository) Exists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
SELECT EXISTS (SELECT 1 FROM filters WHERE email = $1)
`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check filter existence: %w", err)
	}
	return exists, nil
}

func (r *FilterRepository) GetByEmail(ctx context.Context, email string) (*domain.Filter, error) {
	var filter domain.Filter
	err := r.db.QueryRowContext(ctx, `
SELECT email, gpa_form, gpa_ai, f, completeness, done, created_at
FROM filters WHERE email = $1
`, email).Scan(&filter.Email, &filter.GPAForm, &filter.GPAAI, &filter.F, &filter.Completeness, &filter.Done, &filter.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get filter", email)
		}
		return nil, fmt.Errorf("scan filter: %w", err)
	}
	return &filter, nil
}

func (r *FilterRepository) List(ctx context.Context, done *bool) ([]domain.Filter, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT email, gpa_form, gpa_ai, f, completeness, done, created_at
FROM filters
WHERE $1::boolean IS NULL OR done = $1
ORDER BY created_at DESC
`, nullableBool(done))
	if err != nil {
		return nil, fmt.Errorf("list filters: %w", err)
	}
	defer rows.Close()

	var filters []domain.Filter
	for rows.Next() {
		var filter domain.Filter
		if err := rows.Scan(&filter.Email, &filter.GPAForm, &filter.GPAAI, &filter.F, &filter.Completeness, &filter.Done, &filter.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
		filters = append(filters, filter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filters: %w", err)
	}
	return filters, nil
}

func (r *FilterRepository) SetDone(ctx context.Context, email string, done bool) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE filters SET done = $2 WHERE email = $1
`, email, done)
	if err != nil {
		return fmt.Errorf("set filter done: %w", err)
	}
	return requireRow(res, "set filter done", email)
}

func (r *FilterRepository) Delete(ctx context.Context, email string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM filters WHERE email = $1
`, email)
	if err != nil {
		return fmt.Errorf("delete filter: %w", err)
	}
	return requireRow(res, "delete filter", email)
}

func nullableBool(v *bool) sql.NullBool {
	if v == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *v, Valid: true}
}
