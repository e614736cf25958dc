package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/go-github/v55/github"
	"golang.org/x/oauth2"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

const (
	// releaseLimit is how many recent releases to fetch per repository
	releaseLimit = 5
	// pageLimit is the single-page size for time-windowed categories
	pageLimit = 20
	// releaseBodyLimit truncates overlong release descriptions
	releaseBodyLimit = 500
	// requestTimeout bounds every update-source call
	requestTimeout = 30 * time.Second
)

// githubFetcher implements Fetcher using the GitHub API
type githubFetcher struct {
	client      *github.Client
	rateLimiter RateLimiter
}

// NewGitHubFetcher creates a new GitHub fetcher
func NewGitHubFetcher(token string) Fetcher {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = requestTimeout

	return NewWithClient(github.NewClient(tc))
}

// NewWithClient creates a fetcher around an existing GitHub client
func NewWithClient(client *github.Client) Fetcher {
	return &githubFetcher{
		client:      client,
		rateLimiter: NewRateLimiter(),
	}
}

// Fetch collects updates for every tracked category of one subscription
func (f *githubFetcher) Fetch(ctx context.Context, sub domain.Subscription, lookbackDays int) (*domain.FetchResult, error) {
	since := time.Now().UTC().AddDate(0, 0, -lookbackDays)

	result := &domain.FetchResult{
		Owner:     sub.Owner,
		Repo:      sub.Repo,
		Label:     sub.DisplayLabel(),
		FetchedAt: time.Now().UTC(),
	}

	tracked := make(map[domain.Category]bool)
	for _, c := range sub.Categories() {
		tracked[c] = true
	}

	var errs []error
	attempted := 0
	for _, category := range domain.AllCategories {
		if !tracked[category] {
			continue
		}
		attempted++

		var items []domain.UpdateItem
		var err error
		switch category {
		case domain.CategoryReleases:
			items, err = f.Releases(ctx, sub.Owner, sub.Repo)
		case domain.CategoryIssues:
			items, err = f.Issues(ctx, sub.Owner, sub.Repo, since)
		case domain.CategoryPullRequests:
			items, err = f.PullRequests(ctx, sub.Owner, sub.Repo, since)
		case domain.CategoryCommits:
			items, err = f.Commits(ctx, sub.Owner, sub.Repo, since)
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result.Items = append(result.Items, items...)
	}

	if len(errs) == attempted {
		return nil, apperrors.NewRemoteAPIError(
			fmt.Sprintf("all categories failed for %s/%s", sub.Owner, sub.Repo),
			errors.Join(errs...),
		)
	}
	return result, errors.Join(errs...)
}

// Releases retrieves the most recent releases, unconditionally
func (f *githubFetcher) Releases(ctx context.Context, owner, repo string) ([]domain.UpdateItem, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	releases, resp, err := f.client.Repositories.ListReleases(ctx, owner, repo, &github.ListOptions{
		PerPage: releaseLimit,
	})
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(fmt.Sprintf("failed to list releases for %s/%s", owner, repo), err)
	}
	f.updateRateLimitFromResponse(resp)

	items := make([]domain.UpdateItem, 0, len(releases))
	for _, r := range releases {
		body := truncateRunes(r.GetBody(), releaseBodyLimit)
		items = append(items, domain.Release{
			Type:        domain.ItemTypeRelease,
			Tag:         r.GetTagName(),
			Name:        r.GetName(),
			URL:         r.GetHTMLURL(),
			PublishedAt: r.GetPublishedAt().Time,
			Body:        body,
		})
	}
	return items, nil
}

// Issues retrieves issues updated since the given time. The issues API
// conflates pull requests, so those entries are filtered out.
func (f *githubFetcher) Issues(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	issues, resp, err := f.client.Issues.ListByRepo(ctx, owner, repo, &github.IssueListByRepoOptions{
		State:       "all",
		Since:       since,
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: pageLimit},
	})
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(fmt.Sprintf("failed to list issues for %s/%s", owner, repo), err)
	}
	f.updateRateLimitFromResponse(resp)

	var items []domain.UpdateItem
	for _, i := range issues {
		if i.IsPullRequest() {
			continue
		}
		items = append(items, domain.Issue{
			Type:      domain.ItemTypeIssue,
			Number:    i.GetNumber(),
			Title:     i.GetTitle(),
			State:     i.GetState(),
			URL:       i.GetHTMLURL(),
			CreatedAt: i.GetCreatedAt().Time,
			UpdatedAt: i.GetUpdatedAt().Time,
			Author:    i.GetUser().GetLogin(),
		})
	}
	return items, nil
}

// PullRequests retrieves pull requests updated since the given time. The
// pulls API has no server-side since filter, so the most-recent-updated
// page is walked and the scan stops at the first item older than the
// cutoff. This assumes the server returns strictly descending update
// times; an out-of-order page would drop items without error.
func (f *githubFetcher) PullRequests(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	prs, resp, err := f.client.PullRequests.List(ctx, owner, repo, &github.PullRequestListOptions{
		State:       "all",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: pageLimit},
	})
	if err != nil {
		return nil, apperrors.NewRemoteAPIError(fmt.Sprintf("failed to list pull requests for %s/%s", owner, repo), err)
	}
	f.updateRateLimitFromResponse(resp)

	var items []domain.UpdateItem
	for _, pr := range prs {
		if pr.GetUpdatedAt().Time.Before(since) {
			break
		}
		items = append(items, domain.PullRequest{
			Type:      domain.ItemTypePullRequest,
			Number:    pr.GetNumber(),
			Title:     pr.GetTitle(),
			State:     pr.GetState(),
			URL:       pr.GetHTMLURL(),
			CreatedAt: pr.GetCreatedAt().Time,
			UpdatedAt: pr.GetUpdatedAt().Time,
			Author:    pr.GetUser().GetLogin(),
			Merged:    pr.MergedAt != nil,
		})
	}
	return items, nil
}

// Commits retrieves commits authored since the given time, keeping only
// the first line of each message
func (f *githubFetcher) Commits(ctx context.Context, owner, repo string, since time.Time) ([]domain.UpdateItem, error) {
	if err := f.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	commits, resp, err := f.client.Repositories.ListCommits(ctx, owner, repo, &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: pageLimit},
	})
	if err != nil {
		// An empty repository has no commits to report
		if resp != nil && resp.StatusCode == 409 {
			return nil, nil
		}
		return nil, apperrors.NewRemoteAPIError(fmt.Sprintf("failed to list commits for %s/%s", owner, repo), err)
	}
	f.updateRateLimitFromResponse(resp)

	items := make([]domain.UpdateItem, 0, len(commits))
	for _, c := range commits {
		sha := c.GetSHA()
		if len(sha) > 7 {
			sha = sha[:7]
		}
		message, _, _ := strings.Cut(c.GetCommit().GetMessage(), "\n")

		items = append(items, domain.Commit{
			Type:    domain.ItemTypeCommit,
			SHA:     sha,
			Message: message,
			URL:     c.GetHTMLURL(),
			Date:    c.GetCommit().GetCommitter().GetDate().Time,
			Author:  c.GetCommit().GetAuthor().GetName(),
		})
	}
	return items, nil
}

// truncateRunes caps s at limit characters without splitting a multi-byte
// rune at the boundary
func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

// updateRateLimitFromResponse updates the rate limiter from API response
func (f *githubFetcher) updateRateLimitFromResponse(resp *github.Response) {
	if resp != nil && resp.Rate.Remaining >= 0 {
		f.rateLimiter.UpdateLimit(resp.Rate.Remaining, resp.Rate.Reset.Time)
	}
}
