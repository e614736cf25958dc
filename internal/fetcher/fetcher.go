package fetcher

import (
	"context"
	"time"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// Fetcher defines the interface for fetching repository updates
type Fetcher interface {
	// Fetch collects updates for every category the subscription tracks.
	// Category failures do not abort the fetch: items from successful
	// categories are returned together with a joined error describing the
	// failed ones, so the caller can log per-category failures. The result
	// is nil only when every tracked category fails.
	Fetch(ctx context.Context, sub domain.Subscription, lookbackDays int) (*domain.FetchResult, error)

	// Releases retrieves the most recent releases, regardless of age
	Releases(ctx context.Context, owner, repo string) ([]domain.UpdateItem, error)

	// Issues retrieves issues updated since the given time
	Issues(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error)

	// PullRequests retrieves pull requests updated since the given time
	PullRequests(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error)

	// Commits retrieves commits authored since the given time
	Commits(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error)
}
