package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

type CandidateRepository struct {
	db *sql.DB
}

func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

func (r *CandidateRepository) Status(ctx context.Context, email string) (domain.CandidateStatus, error) {
	var status domain.CandidateStatus
	err := r.db.QueryRowContext(ctx, `
SELECT status FROM candidates WHERE email = $1
`, email).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", notFound("get candidate status", email)
		}
		return "", fmt.Errorf("scan candidate status: %w", err)
	}
	return status, nil
}

func (r *CandidateRepository) SetStatus(ctx context.Context, email string, status domain.CandidateStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE candidates SET status = $2, updated_at = $3 WHERE email = $1
`, email, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update candidate status: %w", err)
	}
	return requireRow(res, "update candidate status", email)
}
