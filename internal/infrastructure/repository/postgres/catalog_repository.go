package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(ctx context.Context, test *domain.CatalogTest) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
INSERT INTO skill_test_catalog (name, position, pdf_url, created_at) VALUES ($1,$2,$3,$4)
`, test.Name, test.Position, test.PDF, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert catalog test", errors.New(test.Name))
		}
		return fmt.Errorf("insert catalog test: %w", err)
	}
	test.CreatedAt = now
	return nil
}

func (r *CatalogRepository) GetByName(ctx context.Context, name string) (*domain.CatalogTest, error) {
	var test domain.CatalogTest
	err := r.db.QueryRowContext(ctx, `
SELECT name, position, pdf_url, created_at FROM skill_test_catalog WHERE name = $1
`, name).Scan(&test.Name, &test.Position, &test.PDF, &test.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get catalog test", name)
		}
		return nil, fmt.Errorf("scan catalog test: %w", err)
	}
	return &test, nil
}

func (r *CatalogRepository) List(ctx context.Context) ([]domain.CatalogTest, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT name, position, pdf_url, created_at FROM skill_test_catalog ORDER BY created_at DESC
`)
	if err != nil {
		return nil, fmt.Errorf("list catalog tests: %w", err)
	}
	defer rows.Close()

	var tests []domain.CatalogTest
	for rows.Next() {
		var test domain.CatalogTest
		if err := rows.Scan(&test.Name, &test.Position, &test.PDF, &test.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog test: %w", err)
		}
		tests = append(tests, test)
	}
	return tests, rows.Err()
}

func (r *CatalogRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM skill_test_catalog WHERE name = $1
`, name)
	if err != nil {
		return fmt.Errorf("delete catalog test: %w", err)
	}
	return requireRow(res, "delete catalog test", name)
}
