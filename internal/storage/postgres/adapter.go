package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
)

// postgresStore implements the Store interface for PostgreSQL
type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL report history store
func NewPostgresStore(connStr string) (storage.Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, err
	}

	s := &postgresStore{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *postgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		label TEXT NOT NULL,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_reports_owner_repo ON reports(owner, repo);
	CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveReport records the metadata of one generated report
func (s *postgresStore) SaveReport(ctx context.Context, record *domain.ReportRecord) error {
	query := `
	INSERT INTO reports (id, owner, repo, label, title, path, item_count, generated_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		record.ID, record.Owner, record.Repo, record.Label, record.Title,
		record.Path, record.ItemCount, record.GeneratedAt, createdAt,
	)
	return err
}

// ListReports returns the most recent records, newest first
func (s *postgresStore) ListReports(ctx context.Context, limit int) ([]*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	ORDER BY generated_at DESC
	LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListReportsByRepo returns the most recent records for one repository
func (s *postgresStore) ListReportsByRepo(ctx context.Context, owner, repo string, limit int) ([]*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	WHERE owner = $1 AND repo = $2
	ORDER BY generated_at DESC
	LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, owner, repo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetReport retrieves one record by ID
func (s *postgresStore) GetReport(ctx context.Context, id string) (*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	WHERE id = $1
	`
	record := &domain.ReportRecord{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID, &record.Owner, &record.Repo, &record.Label, &record.Title,
		&record.Path, &record.ItemCount, &record.GeneratedAt, &record.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("report")
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// Close closes the database connection
func (s *postgresStore) Close() error {
	return s.db.Close()
}

func scanRecords(rows *sql.Rows) ([]*domain.ReportRecord, error) {
	var records []*domain.ReportRecord
	for rows.Next() {
		record := &domain.ReportRecord{}
		if err := rows.Scan(
			&record.ID, &record.Owner, &record.Repo, &record.Label, &record.Title,
			&record.Path, &record.ItemCount, &record.GeneratedAt, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
