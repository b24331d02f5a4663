package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/flyup/recruit-backend/internal/core/domain"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/sweeper startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS candidates (
	email TEXT PRIMARY KEY,
	status TEXT NOT NULL DEFAULT 'waiting',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS offers (
	email TEXT PRIMARY KEY,
	due_time TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS offer_skill_tests (
	offer_email TEXT NOT NULL REFERENCES offers(email) ON DELETE CASCADE,
	name TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'doing',
	rank INTEGER NOT NULL DEFAULT 0,
	explanation TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (offer_email, name)
);

CREATE TABLE IF NOT EXISTS offer_skill_test_files (
	offer_email TEXT NOT NULL,
	test_name TEXT NOT NULL,
	url TEXT NOT NULL,
	position INTEGER NOT NULL,
	FOREIGN KEY (offer_email, test_name)
		REFERENCES offer_skill_tests(offer_email, name) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_offer_files ON offer_skill_test_files(offer_email, test_name, position);

CREATE TABLE IF NOT EXISTS personal_infos (
	email TEXT PRIMARY KEY,
	due_time TIMESTAMPTZ NOT NULL,
	name TEXT NOT NULL DEFAULT '',
	nickname TEXT NOT NULL DEFAULT '',
	mobile TEXT NOT NULL DEFAULT '',
	address TEXT NOT NULL DEFAULT '',
	dob TEXT NOT NULL DEFAULT '',
	blood_type TEXT NOT NULL DEFAULT '',
	line_id TEXT NOT NULL DEFAULT '',
	university TEXT NOT NULL DEFAULT '',
	qualification TEXT NOT NULL DEFAULT '',
	major TEXT NOT NULL DEFAULT '',
	gpa DOUBLE PRECISION,
	reason TEXT NOT NULL DEFAULT '',
	other_reason TEXT NOT NULL DEFAULT '',
	strength TEXT NOT NULL DEFAULT '',
	weakness TEXT NOT NULL DEFAULT '',
	opportunity TEXT NOT NULL DEFAULT '',
	threats TEXT NOT NULL DEFAULT '',
	recruitment_source TEXT NOT NULL DEFAULT '',
	video_clip TEXT NOT NULL DEFAULT '',
	grade_report TEXT NOT NULL DEFAULT '',
	home_registration TEXT NOT NULL DEFAULT '',
	id_card TEXT NOT NULL DEFAULT '',
	slide_presentation TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS filters (
	email TEXT PRIMARY KEY,
	gpa_form DOUBLE PRECISION NOT NULL DEFAULT 0,
	gpa_ai DOUBLE PRECISION NOT NULL DEFAULT 0,
	f DOUBLE PRECISION NOT NULL DEFAULT 0,
	completeness DOUBLE PRECISION NOT NULL DEFAULT 0,
	done BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS skill_test_catalog (
	name TEXT PRIMARY KEY,
	position TEXT NOT NULL,
	pdf_url TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func notFound(operation, identity string) error {
	return domain.WrapError(domain.ErrNotFound, operation, errors.New(identity))
}
