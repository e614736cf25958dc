package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	"github.com/kurihiro0119/github-sentinel/internal/llm"
)

const systemPrompt = `You are a professional GitHub project analyst.
Your task is to turn raw GitHub repository update data into a clear, structured summary report.

Report requirements:
1. Group the summary by category (releases, issues, pull requests, commits)
2. Highlight important changes and anything worth attention
3. Keep the language terse and use Markdown formatting
4. Skip any category that has no data
5. End the report with a one-line overall verdict`

// Reporter defines the interface for generating update reports
type Reporter interface {
	// Generate produces a Markdown summary for one subscription's updates
	Generate(ctx context.Context, result *domain.FetchResult) (string, error)

	// GenerateDigest produces one combined document for multiple
	// subscriptions, one section per repository. Empty input yields an
	// empty document.
	GenerateDigest(ctx context.Context, results []*domain.FetchResult) (string, error)
}

// llmReporter implements Reporter on top of a completion backend
type llmReporter struct {
	client   llm.Client
	language string
}

// NewReporter creates a reporter. language is the natural language the
// summaries are requested in.
func NewReporter(client llm.Client, language string) Reporter {
	if language == "" {
		language = "English"
	}
	return &llmReporter{
		client:   client,
		language: language,
	}
}

// Generate produces a Markdown summary for one subscription's updates
func (r *llmReporter) Generate(ctx context.Context, result *domain.FetchResult) (string, error) {
	userPrompt, err := buildUserPrompt(result, r.language)
	if err != nil {
		return "", err
	}
	return r.client.Generate(ctx, systemPrompt, userPrompt)
}

// GenerateDigest produces one combined document for multiple subscriptions
func (r *llmReporter) GenerateDigest(ctx context.Context, results []*domain.FetchResult) (string, error) {
	parts := make([]string, 0, len(results))
	for _, result := range results {
		report, err := r.Generate(ctx, result)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("# %s\n\n%s", result.Label, report))
	}
	return strings.Join(parts, "\n\n---\n\n"), nil
}

// buildUserPrompt serializes one fetch result into the prompt sent to the
// model: a header line, one JSON section per non-empty category, and a
// trailing summary instruction
func buildUserPrompt(result *domain.FetchResult, language string) (string, error) {
	groups := groupItems(result.Items)

	parts := []string{
		fmt.Sprintf("Repository: %s (%s/%s)", result.Label, result.Owner, result.Repo),
		fmt.Sprintf("Fetched at: %s", result.FetchedAt.Format(time.RFC3339)),
	}

	sections := []struct {
		heading string
		kind    domain.ItemType
	}{
		{"## Releases", domain.ItemTypeRelease},
		{"## Issues", domain.ItemTypeIssue},
		{"## Pull Requests", domain.ItemTypePullRequest},
		{"## Commits", domain.ItemTypeCommit},
	}

	empty := true
	for _, section := range sections {
		items := groups[section.kind]
		if len(items) == 0 {
			continue
		}
		empty = false

		data, err := json.MarshalIndent(items, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode %s items: %w", section.kind, err)
		}
		parts = append(parts, section.heading, string(data))
	}

	if empty {
		parts = append(parts, "(no updates in this period)")
	}

	parts = append(parts, fmt.Sprintf("Based on the data above, write a summary report in %s, formatted as Markdown.", language))
	return strings.Join(parts, "\n\n"), nil
}

// groupItems splits items into per-category groups, preserving order
func groupItems(items []domain.UpdateItem) map[domain.ItemType][]domain.UpdateItem {
	groups := make(map[domain.ItemType][]domain.UpdateItem)
	for _, item := range items {
		groups[item.Kind()] = append(groups[item.Kind()], item)
	}
	return groups
}
