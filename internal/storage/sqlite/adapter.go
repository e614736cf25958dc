package sqlite

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
)

// sqliteStore implements the Store interface for SQLite
type sqliteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite report history store
func NewSQLiteStore(dbPath string) (storage.Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	s := &sqliteStore{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		return nil, err
	}

	return s, nil
}

// Migrate runs database migrations
func (s *sqliteStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		label TEXT NOT NULL,
		title TEXT NOT NULL,
		path TEXT NOT NULL,
		item_count INTEGER NOT NULL,
		generated_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_reports_owner_repo ON reports(owner, repo);
	CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SaveReport records the metadata of one generated report
func (s *sqliteStore) SaveReport(ctx context.Context, record *domain.ReportRecord) error {
	query := `
	INSERT INTO reports (id, owner, repo, label, title, path, item_count, generated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
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
func (s *sqliteStore) ListReports(ctx context.Context, limit int) ([]*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	ORDER BY generated_at DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListReportsByRepo returns the most recent records for one repository
func (s *sqliteStore) ListReportsByRepo(ctx context.Context, owner, repo string, limit int) ([]*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	WHERE owner = ? AND repo = ?
	ORDER BY generated_at DESC
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, owner, repo, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecords(rows)
}

// GetReport retrieves one record by ID
func (s *sqliteStore) GetReport(ctx context.Context, id string) (*domain.ReportRecord, error) {
	query := `
	SELECT id, owner, repo, label, title, path, item_count, generated_at, created_at
	FROM reports
	WHERE id = ?
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
func (s *sqliteStore) Close() error {
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
