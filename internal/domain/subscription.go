package domain

// Category represents a type of repository activity to track
type Category string

const (
	CategoryReleases     Category = "releases"
	CategoryIssues       Category = "issues"
	CategoryPullRequests Category = "pull_requests"
	CategoryCommits      Category = "commits"
)

// AllCategories lists every known category in fetch order
var AllCategories = []Category{
	CategoryReleases,
	CategoryIssues,
	CategoryPullRequests,
	CategoryCommits,
}

// DefaultCategories is the tracked set applied when a subscription
// specifies none. Commits are deliberately absent; long-standing behavior
// that existing subscription files rely on.
var DefaultCategories = []Category{
	CategoryReleases,
	CategoryIssues,
	CategoryPullRequests,
}

// IsValidCategory reports whether s names a known category
func IsValidCategory(s string) bool {
	switch Category(s) {
	case CategoryReleases, CategoryIssues, CategoryPullRequests, CategoryCommits:
		return true
	}
	return false
}

// Subscription represents a tracked GitHub repository
type Subscription struct {
	Owner string   `json:"owner"`
	Repo  string   `json:"repo"`
	Label string   `json:"label"`
	Track []string `json:"track"`
}

// DisplayLabel returns the label, falling back to owner/repo
func (s *Subscription) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Owner + "/" + s.Repo
}

// Slug returns the owner_repo form used in report filenames
func (s *Subscription) Slug() string {
	return s.Owner + "_" + s.Repo
}

// Categories returns the tracked categories, applying the default set when
// the subscription lists none
func (s *Subscription) Categories() []Category {
	if len(s.Track) == 0 {
		return DefaultCategories
	}
	categories := make([]Category, 0, len(s.Track))
	for _, t := range s.Track {
		if IsValidCategory(t) {
			categories = append(categories, Category(t))
		}
	}
	if len(categories) == 0 {
		return DefaultCategories
	}
	return categories
}

// Tracks reports whether the subscription tracks the given category
func (s *Subscription) Tracks(category Category) bool {
	for _, c := range s.Categories() {
		if c == category {
			return true
		}
	}
	return false
}
