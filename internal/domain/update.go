package domain

import "time"

// ItemType identifies the concrete type of an UpdateItem
type ItemType string

const (
	ItemTypeRelease     ItemType = "release"
	ItemTypeIssue       ItemType = "issue"
	ItemTypePullRequest ItemType = "pull_request"
	ItemTypeCommit      ItemType = "commit"
)

// UpdateItem is one piece of repository activity fetched during a run.
// Items live only for the duration of a single pipeline run.
type UpdateItem interface {
	Kind() ItemType
}

// Release represents a published release
type Release struct {
	Type        ItemType  `json:"type"`
	Tag         string    `json:"tag"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Body        string    `json:"body"`
}

// Kind implements UpdateItem
func (Release) Kind() ItemType { return ItemTypeRelease }

// Issue represents an issue updated inside the lookback window
type Issue struct {
	Type      ItemType  `json:"type"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    string    `json:"user"`
}

// Kind implements UpdateItem
func (Issue) Kind() ItemType { return ItemTypeIssue }

// PullRequest represents a pull request updated inside the lookback window
type PullRequest struct {
	Type      ItemType  `json:"type"`
	Number    int       `json:"number"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    string    `json:"user"`
	Merged    bool      `json:"merged"`
}

// Kind implements UpdateItem
func (PullRequest) Kind() ItemType { return ItemTypePullRequest }

// Commit represents a commit authored inside the lookback window
type Commit struct {
	Type    ItemType  `json:"type"`
	SHA     string    `json:"sha"`
	Message string    `json:"message"`
	URL     string    `json:"url"`
	Date    time.Time `json:"date"`
	Author  string    `json:"author"`
}

// Kind implements UpdateItem
func (Commit) Kind() ItemType { return ItemTypeCommit }

// FetchResult holds everything fetched for one subscription in one run
type FetchResult struct {
	Owner     string       `json:"owner"`
	Repo      string       `json:"repo"`
	Label     string       `json:"label"`
	FetchedAt time.Time    `json:"fetched_at"`
	Items     []UpdateItem `json:"items"`
}

// Slug returns the owner_repo form used in report filenames
func (r *FetchResult) Slug() string {
	return r.Owner + "_" + r.Repo
}
