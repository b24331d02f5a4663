package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

// OfferRepository stores offers normalized across three tables so file-set
// and status writes stay row-scoped. Concurrent submissions to different
// tests of one offer never conflict.
type OfferRepository struct {
	db *sql.DB
}

func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: db}
}

func (r *OfferRepository) Create(ctx context.Context, offer *domain.Offer) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
INSERT INTO offers (email, due_time, created_at, updated_at) VALUES ($1,$2,$3,$3)
`, offer.Email, offer.DueTime, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrConflict, "insert offer", errors.New(offer.Email))
		}
		return fmt.Errorf("insert offer: %w", err)
	}

	for i, st := range offer.SkillTests {
		_, err = tx.ExecContext(ctx, `
INSERT INTO offer_skill_tests (offer_email, name, status, rank, explanation, position)
VALUES ($1,$2,$3,$4,$5,$6)
`, offer.Email, st.Name, string(domain.TestDoing), st.Rank, st.Explanation, i)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.WrapError(domain.ErrConflict, "insert skill test", errors.New(st.Name))
			}
			return fmt.Errorf("insert skill test %q: %w", st.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit offer: %w", err)
	}
	return nil
}

func (r *OfferRepository) GetByEmail(ctx context.Context, email string) (*domain.Offer, error) {
	var offer domain.Offer
	err := r.db.QueryRowContext(ctx, `
SELECT email, due_time, created_at, updated_at FROM offers WHERE email = $1
`, email).Scan(&offer.Email, &offer.DueTime, &offer.CreatedAt, &offer.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("get offer", email)
		}
		return nil, fmt.Errorf("scan offer: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT name, status, rank, explanation FROM offer_skill_tests
WHERE offer_email = $1 ORDER BY position
`, email)
	if err != nil {
		return nil, fmt.Errorf("query skill tests: %w", err)
	}
	defer rows.Close()

	index := map[string]int{}
	for rows.Next() {
		var st domain.SkillTest
		var status string
		if err := rows.Scan(&st.Name, &status, &st.Rank, &st.Explanation); err != nil {
			return nil, fmt.Errorf("scan skill test: %w", err)
		}
		st.Status = domain.SkillTestStatus(status)
		st.UploadedFiles = []string{}
		index[st.Name] = len(offer.SkillTests)
		offer.SkillTests = append(offer.SkillTests, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate skill tests: %w", err)
	}

	fileRows, err := r.db.QueryContext(ctx, `
SELECT test_name, url FROM offer_skill_test_files
WHERE offer_email = $1 ORDER BY test_name, position
`, email)
	if err != nil {
		return nil, fmt.Errorf("query test files: %w", err)
	}
	defer fileRows.Close()

	for fileRows.Next() {
		var test, url string
		if err := fileRows.Scan(&test, &url); err != nil {
			return nil, fmt.Errorf("scan test file: %w", err)
		}
		if i, ok := index[test]; ok {
			offer.SkillTests[i].UploadedFiles = append(offer.SkillTests[i].UploadedFiles, url)
		}
	}
	if err := fileRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test files: %w", err)
	}

	return &offer, nil
}

func (r *OfferRepository) UpdateDueTime(ctx context.Context, email string, dueTime time.Time) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE offers SET due_time = $2, updated_at = $3 WHERE email = $1
`, email, dueTime, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update due time: %w", err)
	}
	return requireRow(res, "update due time", email)
}

func (r *OfferRepository) UpdateTestMeta(ctx context.Context, email, test string, rank *int, explanation *string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE offer_skill_tests
SET rank = COALESCE($3, rank), explanation = COALESCE($4, explanation)
WHERE offer_email = $1 AND name = $2
`, email, test, nullableInt(rank), nullableString(explanation))
	if err != nil {
		return fmt.Errorf("update test meta: %w", err)
	}
	return requireRow(res, "update test meta", test)
}

func (r *OfferRepository) SetTestStatus(ctx context.Context, email, test string, status domain.SkillTestStatus) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE offer_skill_tests SET status = $3 WHERE offer_email = $1 AND name = $2
`, email, test, string(status))
	if err != nil {
		return fmt.Errorf("set test status: %w", err)
	}
	return requireRow(res, "set test status", test)
}

// ReplaceTestFiles makes keep the exact stored set. The whole replacement
// runs in one transaction with the test row locked, so a concurrent append
// cannot interleave with the prune.
func (r *OfferRepository) ReplaceTestFiles(ctx context.Context, email, test string, keep []string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockTest(ctx, tx, email, test); err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx, `
SELECT url FROM offer_skill_test_files
WHERE offer_email = $1 AND test_name = $2 ORDER BY position
`, email, test)
	if err != nil {
		return nil, fmt.Errorf("query stored files: %w", err)
	}
	stored := []string{}
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan stored file: %w", err)
		}
		stored = append(stored, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stored files: %w", err)
	}

	kept := map[string]bool{}
	for _, url := range keep {
		kept[url] = true
	}
	var removed []string
	for _, url := range stored {
		if !kept[url] {
			removed = append(removed, url)
		}
	}

	if _, err := tx.ExecContext(ctx, `
DELETE FROM offer_skill_test_files WHERE offer_email = $1 AND test_name = $2
`, email, test); err != nil {
		return nil, fmt.Errorf("clear file set: %w", err)
	}
	for i, url := range keep {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO offer_skill_test_files (offer_email, test_name, url, position) VALUES ($1,$2,$3,$4)
`, email, test, url, i); err != nil {
			return nil, fmt.Errorf("insert kept file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace: %w", err)
	}
	return removed, nil
}

// AppendTestFiles enforces the per-test cap under the test row lock.
func (r *OfferRepository) AppendTestFiles(ctx context.Context, email, test string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := lockTest(ctx, tx, email, test); err != nil {
		return err
	}

	var current int
	if err := tx.QueryRowContext(ctx, `
SELECT COUNT(*) FROM offer_skill_test_files WHERE offer_email = $1 AND test_name = $2
`, email, test).Scan(&current); err != nil {
		return fmt.Errorf("count stored files: %w", err)
	}
	if current+len(urls) > domain.MaxFilesPerTest {
		return domain.WrapError(domain.ErrCapacityExceeded, "append files",
			fmt.Errorf("test %q holds %d files, incoming %d, max %d", test, current, len(urls), domain.MaxFilesPerTest))
	}

	for i, url := range urls {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO offer_skill_test_files (offer_email, test_name, url, position) VALUES ($1,$2,$3,$4)
`, email, test, url, current+i); err != nil {
			return fmt.Errorf("insert file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	return nil
}

func (r *OfferRepository) RemoveTest(ctx context.Context, email, test string) ([]string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
SELECT url FROM offer_skill_test_files
WHERE offer_email = $1 AND test_name = $2 ORDER BY position
`, email, test)
	if err != nil {
		return nil, fmt.Errorf("query test files: %w", err)
	}
	var removed []string
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan test file: %w", err)
		}
		removed = append(removed, url)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate test files: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
DELETE FROM offer_skill_tests WHERE offer_email = $1 AND name = $2
`, email, test)
	if err != nil {
		return nil, fmt.Errorf("delete skill test: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, notFound("remove skill test", test)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit remove: %w", err)
	}
	return removed, nil
}

func (r *OfferRepository) AllSubmitted(ctx context.Context, email string) (bool, error) {
	var all bool
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) > 0 AND bool_and(status = 'submitted')
FROM offer_skill_tests WHERE offer_email = $1
`, email).Scan(&all)
	if err != nil {
		return false, fmt.Errorf("check all submitted: %w", err)
	}
	return all, nil
}

func (r *OfferRepository) ListCompleted(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT offer_email FROM offer_skill_tests
GROUP BY offer_email HAVING bool_and(status = 'submitted')
ORDER BY offer_email
`)
	if err != nil {
		return nil, fmt.Errorf("list completed offers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan completed offer: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed offers: %w", err)
	}
	return emails, nil
}

func lockTest(ctx context.Context, tx *sql.Tx, email, test string) error {
	var one int
	err := tx.QueryRowContext(ctx, `
SELECT 1 FROM offer_skill_tests WHERE offer_email = $1 AND name = $2 FOR UPDATE
`, email, test).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return notFound("lock skill test", test)
		}
		return fmt.Errorf("lock skill test: %w", err)
	}
	return nil
}

func requireRow(res sql.Result, operation, identity string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return notFound(operation, identity)
	}
	return nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
