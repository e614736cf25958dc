package storage

import (
	"context"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// Store is the abstract interface for the report history layer
type Store interface {
	// SaveReport records the metadata of one generated report
	SaveReport(ctx context.Context, record *domain.ReportRecord) error

	// ListReports returns the most recent records, newest first
	ListReports(ctx context.Context, limit int) ([]*domain.ReportRecord, error)

	// ListReportsByRepo returns the most recent records for one
	// repository, newest first
	ListReportsByRepo(ctx context.Context, owner, repo string, limit int) ([]*domain.ReportRecord, error)

	// GetReport retrieves one record by ID
	GetReport(ctx context.Context, id string) (*domain.ReportRecord, error)

	// Migration
	Migrate(ctx context.Context) error

	// Connection management
	Close() error
}
