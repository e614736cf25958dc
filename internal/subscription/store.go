package subscription

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// Store manages the subscription list in a flat JSON file. The file is
// read fully on construction and written fully on every mutation. Safe for
// concurrent use within one process; there is no file locking against
// concurrent writer processes.
type Store struct {
	path string

	mu   sync.RWMutex
	data fileData
}

type fileData struct {
	Subscriptions []domain.Subscription `json:"subscriptions"`
}

// NewStore loads the subscription file at path. An absent file yields an
// empty list, not an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read subscriptions file: %w", err)
	}

	if err := json.Unmarshal(data, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse subscriptions file: %w", err)
	}
	return s, nil
}

// List returns a copy of the subscriptions in stored order
func (s *Store) List() []domain.Subscription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Subscription, len(s.data.Subscriptions))
	copy(out, s.data.Subscriptions)
	return out
}

// Get returns the subscription for (owner, repo), if present
func (s *Store) Get(owner, repo string) (domain.Subscription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(owner, repo)
}

func (s *Store) get(owner, repo string) (domain.Subscription, bool) {
	for _, sub := range s.data.Subscriptions {
		if sub.Owner == owner && sub.Repo == repo {
			return sub, true
		}
	}
	return domain.Subscription{}, false
}

// Add appends a subscription and persists the list. Adding an existing
// (owner, repo) pair is a no-op that reports false; the first entry's
// label and categories are preserved.
func (s *Store) Add(sub domain.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.get(sub.Owner, sub.Repo); exists {
		return false, nil
	}
	if sub.Label == "" {
		sub.Label = sub.Owner + "/" + sub.Repo
	}
	if len(sub.Track) == 0 {
		sub.Track = categoryStrings(domain.DefaultCategories)
	}

	previous := s.data.Subscriptions
	s.data.Subscriptions = append(previous, sub)
	if err := s.save(); err != nil {
		s.data.Subscriptions = previous
		return false, err
	}
	return true, nil
}

// Remove deletes the subscription for (owner, repo) and persists the list.
// Reports whether an entry was removed. A failed save leaves the in-memory
// list unchanged.
func (s *Store) Remove(owner, repo string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]domain.Subscription, 0, len(s.data.Subscriptions))
	for _, sub := range s.data.Subscriptions {
		if sub.Owner == owner && sub.Repo == repo {
			continue
		}
		kept = append(kept, sub)
	}
	if len(kept) == len(s.data.Subscriptions) {
		return false, nil
	}

	previous := s.data.Subscriptions
	s.data.Subscriptions = kept
	if err := s.save(); err != nil {
		s.data.Subscriptions = previous
		return false, err
	}
	return true, nil
}

// save writes the whole list back to disk, creating the parent directory
// if absent
func (s *Store) save() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create subscriptions directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(&s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal subscriptions: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write subscriptions file: %w", err)
	}
	return nil
}

func categoryStrings(categories []domain.Category) []string {
	out := make([]string, len(categories))
	for i, c := range categories {
		out[i] = string(c)
	}
	return out
}

var repoURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/\s]+)`)

// ParseRepoRef parses "owner/repo" or a full GitHub URL into its parts
func ParseRepoRef(ref string) (owner, repo string, ok bool) {
	ref = strings.TrimSpace(ref)

	if m := repoURLPattern.FindStringSubmatch(ref); m != nil {
		return m[1], strings.TrimSuffix(m[2], "/"), true
	}

	parts := strings.Split(strings.Trim(ref, "/"), "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return parts[0], parts[1], true
	}
	return "", "", false
}
