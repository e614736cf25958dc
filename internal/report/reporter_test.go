package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
)

// fakeClient records prompts and replays canned completions
type fakeClient struct {
	systemPrompts []string
	userPrompts   []string
	responses     []string
	err           error
}

func (f *fakeClient) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.userPrompts = append(f.userPrompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	resp := f.responses[0]
	if len(f.responses) > 1 {
		f.responses = f.responses[1:]
	}
	return resp, nil
}

func sampleResult(label string, items ...domain.UpdateItem) *domain.FetchResult {
	return &domain.FetchResult{
		Owner:     "acme",
		Repo:      "widget",
		Label:     label,
		FetchedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
		Items:     items,
	}
}

func TestGeneratePromptSections(t *testing.T) {
	client := &fakeClient{responses: []string{"summary text"}}
	r := NewReporter(client, "")

	result := sampleResult("acme/widget",
		domain.Release{Type: domain.ItemTypeRelease, Tag: "v1.0.0", Name: "First"},
		domain.Issue{Type: domain.ItemTypeIssue, Number: 7, Title: "Crash on start"},
	)

	out, err := r.Generate(context.Background(), result)
	require.NoError(t, err)
	assert.Equal(t, "summary text", out)

	require.Len(t, client.userPrompts, 1)
	prompt := client.userPrompts[0]

	assert.Contains(t, prompt, "Repository: acme/widget (acme/widget)")
	assert.Contains(t, prompt, "## Releases")
	assert.Contains(t, prompt, `"v1.0.0"`)
	assert.Contains(t, prompt, "## Issues")
	assert.Contains(t, prompt, "Crash on start")
	assert.NotContains(t, prompt, "## Pull Requests", "empty categories must be omitted")
	assert.NotContains(t, prompt, "## Commits")
	assert.NotContains(t, prompt, "(no updates in this period)")
	assert.Contains(t, prompt, "write a summary report in English")

	require.Len(t, client.systemPrompts, 1)
	assert.Contains(t, client.systemPrompts[0], "GitHub project analyst")
}

func TestGenerateEmptyPeriod(t *testing.T) {
	client := &fakeClient{responses: []string{"quiet week"}}
	r := NewReporter(client, "Japanese")

	_, err := r.Generate(context.Background(), sampleResult("acme/widget"))
	require.NoError(t, err)

	prompt := client.userPrompts[0]
	assert.Contains(t, prompt, "(no updates in this period)")
	assert.NotContains(t, prompt, "##")
	assert.Contains(t, prompt, "write a summary report in Japanese")
}

func TestGeneratePropagatesClientError(t *testing.T) {
	client := &fakeClient{err: errors.New("backend down")}
	r := NewReporter(client, "")

	_, err := r.Generate(context.Background(), sampleResult("acme/widget"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestGenerateDigest(t *testing.T) {
	client := &fakeClient{responses: []string{"first summary", "second summary"}}
	r := NewReporter(client, "")

	results := []*domain.FetchResult{
		sampleResult("acme/widget", domain.Release{Type: domain.ItemTypeRelease, Tag: "v1.0.0"}),
		sampleResult("acme/gadget"),
	}

	digest, err := r.GenerateDigest(context.Background(), results)
	require.NoError(t, err)

	sections := strings.Split(digest, "\n\n---\n\n")
	require.Len(t, sections, 2)
	assert.Equal(t, "# acme/widget\n\nfirst summary", sections[0])
	assert.Equal(t, "# acme/gadget\n\nsecond summary", sections[1])
}

func TestGenerateDigestEmpty(t *testing.T) {
	client := &fakeClient{responses: []string{"unused"}}
	r := NewReporter(client, "")

	digest, err := r.GenerateDigest(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, digest)
	assert.Empty(t, client.userPrompts)
}

func TestGenerateDigestStopsOnError(t *testing.T) {
	client := &fakeClient{err: errors.New("backend down")}
	r := NewReporter(client, "")

	_, err := r.GenerateDigest(context.Background(), []*domain.FetchResult{sampleResult("acme/widget")})
	require.Error(t, err)
}
