package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kurihiro0119/github-sentinel/internal/domain"
	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
	"github.com/kurihiro0119/github-sentinel/internal/fetcher"
	"github.com/kurihiro0119/github-sentinel/internal/notifier"
	"github.com/kurihiro0119/github-sentinel/internal/report"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
	"github.com/kurihiro0119/github-sentinel/internal/subscription"
)

// ErrNoSubscriptions signals that a run had nothing to do
var ErrNoSubscriptions = errors.New("no subscriptions configured")

// maxConcurrentFetches bounds the fan-out across subscriptions
const maxConcurrentFetches = 5

// Pipeline runs the fetch → generate → sink path over the subscription
// list. One unreachable repository never prevents reports for the rest.
type Pipeline struct {
	subs     *subscription.Store
	fetcher  fetcher.Fetcher
	reporter report.Reporter
	notifier notifier.Notifier
	history  storage.Store // optional, may be nil
	interval domain.Interval
	logger   *log.Logger
}

// New creates a pipeline. history may be nil to skip report bookkeeping.
func New(subs *subscription.Store, f fetcher.Fetcher, r report.Reporter, n notifier.Notifier, history storage.Store, interval domain.Interval) *Pipeline {
	return &Pipeline{
		subs:     subs,
		fetcher:  f,
		reporter: r,
		notifier: n,
		history:  history,
		interval: interval,
		logger:   log.Default(),
	}
}

// Options control a single run
type Options struct {
	// Owner and Repo restrict the run to one subscription when both set
	Owner string
	Repo  string

	// LookbackDays overrides the interval-derived window when positive
	LookbackDays int

	// Digest combines every repository into one document instead of
	// writing one report per repository
	Digest bool
}

// Result describes what a run produced
type Result struct {
	Reports            []*domain.ReportRecord
	FetchFailures      int
	GenerationFailures int
}

// Run executes one full pipeline pass
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Result, error) {
	subs := p.subs.List()
	if opts.Owner != "" && opts.Repo != "" {
		sub, ok := p.subs.Get(opts.Owner, opts.Repo)
		if !ok {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("subscription %s/%s", opts.Owner, opts.Repo))
		}
		subs = []domain.Subscription{sub}
	}
	if len(subs) == 0 {
		return nil, ErrNoSubscriptions
	}

	days := opts.LookbackDays
	if days <= 0 {
		days = p.interval.LookbackDays()
	}
	p.logger.Printf("fetching updates for %d subscription(s), lookback %d day(s)", len(subs), days)

	result := &Result{}
	fetched := p.fetchAll(ctx, subs, days, result)
	if len(fetched) == 0 {
		return nil, apperrors.NewRemoteAPIError("every subscription failed to fetch, no report generated", nil)
	}

	if opts.Digest {
		if err := p.writeDigest(ctx, fetched, result); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := p.writeReports(ctx, fetched, result); err != nil {
		return nil, err
	}
	return result, nil
}

// fetchAll fans out across subscriptions with bounded concurrency and
// joins the results back into stored order. Failed subscriptions are
// logged and dropped.
func (p *Pipeline) fetchAll(ctx context.Context, subs []domain.Subscription, days int, result *Result) []*domain.FetchResult {
	results := make([]*domain.FetchResult, len(subs))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, maxConcurrentFetches)

	for i, sub := range subs {
		wg.Add(1)
		go func(index int, sub domain.Subscription) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			res, err := p.fetcher.Fetch(ctx, sub, days)
			if res == nil {
				p.logger.Printf("Warning: failed to fetch %s/%s: %v", sub.Owner, sub.Repo, err)
				return
			}
			if err != nil {
				// Partial result: some categories failed
				p.logger.Printf("Warning: partial fetch for %s/%s: %v", sub.Owner, sub.Repo, err)
			}
			results[index] = res
		}(i, sub)
	}
	wg.Wait()

	fetched := make([]*domain.FetchResult, 0, len(results))
	for _, res := range results {
		if res == nil {
			result.FetchFailures++
			continue
		}
		fetched = append(fetched, res)
	}
	return fetched
}

// writeReports generates and sinks one report per fetched repository.
// Generation failures are fatal only when there is nothing else to report.
func (p *Pipeline) writeReports(ctx context.Context, fetched []*domain.FetchResult, result *Result) error {
	for _, res := range fetched {
		text, err := p.reporter.Generate(ctx, res)
		if err != nil {
			result.GenerationFailures++
			if len(fetched) == 1 {
				return err
			}
			p.logger.Printf("Warning: failed to generate report for %s: %v", res.Label, err)
			continue
		}

		record, err := p.sink(ctx, res, text, fmt.Sprintf("%s Update Report", res.Label), res.Slug())
		if err != nil {
			return err
		}
		result.Reports = append(result.Reports, record)
	}

	if len(result.Reports) == 0 {
		return apperrors.NewGenerationError("every report generation failed", nil)
	}
	return nil
}

// writeDigest generates one combined document for every fetched
// repository. There is no per-repository fallback here; any generation
// failure is fatal.
func (p *Pipeline) writeDigest(ctx context.Context, fetched []*domain.FetchResult, result *Result) error {
	text, err := p.reporter.GenerateDigest(ctx, fetched)
	if err != nil {
		result.GenerationFailures++
		return err
	}

	combined := &domain.FetchResult{Label: "All subscriptions", FetchedAt: time.Now().UTC()}
	for _, res := range fetched {
		combined.Items = append(combined.Items, res.Items...)
	}

	record, err := p.sink(ctx, combined, text, "GitHub Sentinel Digest", "")
	if err != nil {
		return err
	}
	result.Reports = append(result.Reports, record)
	return nil
}

// sink writes the report file and records it in history
func (p *Pipeline) sink(ctx context.Context, res *domain.FetchResult, text, title, slug string) (*domain.ReportRecord, error) {
	path, err := p.notifier.Send(text, title, slug)
	if err != nil {
		return nil, err
	}
	p.logger.Printf("report saved to %s", path)

	record := &domain.ReportRecord{
		ID:          uuid.New().String(),
		Owner:       res.Owner,
		Repo:        res.Repo,
		Label:       res.Label,
		Title:       title,
		Path:        path,
		ItemCount:   len(res.Items),
		GeneratedAt: time.Now().UTC(),
	}
	if p.history != nil {
		if err := p.history.SaveReport(ctx, record); err != nil {
			p.logger.Printf("Warning: failed to record report history: %v", err)
		}
	}
	return record, nil
}
