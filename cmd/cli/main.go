package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kurihiro0119/github-sentinel/internal/config"
	"github.com/kurihiro0119/github-sentinel/internal/domain"
	"github.com/kurihiro0119/github-sentinel/internal/fetcher"
	"github.com/kurihiro0119/github-sentinel/internal/llm"
	"github.com/kurihiro0119/github-sentinel/internal/notifier"
	"github.com/kurihiro0119/github-sentinel/internal/pipeline"
	"github.com/kurihiro0119/github-sentinel/internal/report"
	"github.com/kurihiro0119/github-sentinel/internal/scheduler"
	"github.com/kurihiro0119/github-sentinel/internal/storage"
	"github.com/kurihiro0119/github-sentinel/internal/storage/postgres"
	"github.com/kurihiro0119/github-sentinel/internal/storage/sqlite"
	"github.com/kurihiro0119/github-sentinel/internal/subscription"
)

var (
	cfgFile      string
	lookbackDays int
	digest       bool
	addLabel     string
	addTrack     []string
	historyLimit int
)

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "GitHub repository activity watcher",
	Long: `A CLI tool that tracks GitHub repositories for recent activity
(releases, issues, pull requests, commits), summarizes the activity with
an LLM, and writes Markdown reports to disk, on demand or on a schedule.`,
}

var runCmd = &cobra.Command{
	Use:   "run [owner/repo]",
	Short: "Fetch updates and generate reports now",
	Long:  `Fetch recent updates for all subscriptions (or a single one) and generate AI summary reports immediately.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRun,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run reports on the configured schedule",
	Long:  `Start the periodic runner. Blocks until interrupted; fires daily or weekly (Mondays) at the configured time.`,
	RunE:  runSchedule,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List subscriptions",
	RunE:  runList,
}

var addCmd = &cobra.Command{
	Use:   "add [owner/repo]",
	Short: "Add a subscription",
	Long:  `Add a repository subscription. Accepts owner/repo or a full GitHub URL, e.g. add microsoft/vscode.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAdd,
}

var removeCmd = &cobra.Command{
	Use:   "remove [owner/repo]",
	Short: "Remove a subscription",
	Args:  cobra.ExactArgs(1),
	RunE:  runRemove,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List generated reports",
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is sentinel.yaml)")

	runCmd.Flags().IntVar(&lookbackDays, "days", 0, "lookback window in days (default derives from schedule interval)")
	runCmd.Flags().BoolVar(&digest, "digest", false, "combine all repositories into one digest document")

	addCmd.Flags().StringVar(&addLabel, "label", "", "display label for the repository")
	addCmd.Flags().StringSliceVar(&addTrack, "track", nil, "categories to track (releases, issues, pull_requests, commits)")

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum records to show")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func getStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageType {
	case "postgres":
		return postgres.NewPostgresStore(cfg.PostgresURL)
	default:
		return sqlite.NewSQLiteStore(cfg.SQLitePath)
	}
}

// buildPipeline wires every component from configuration. The returned
// store must be closed by the caller.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, *subscription.Store, storage.Store, error) {
	subs, err := subscription.NewStore(cfg.SubscriptionsFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}

	llmClient, err := llm.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	sink, err := notifier.NewFileNotifier(cfg.ReportDir)
	if err != nil {
		return nil, nil, nil, err
	}

	history, err := getStore(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	pipe := pipeline.New(
		subs,
		fetcher.NewGitHubFetcher(cfg.GitHubToken),
		report.NewReporter(llmClient, cfg.ReportLanguage),
		sink,
		history,
		cfg.Interval(),
	)
	return pipe, subs, history, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipe, _, history, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	opts := pipeline.Options{LookbackDays: lookbackDays, Digest: digest}
	if len(args) == 1 {
		owner, repo, ok := subscription.ParseRepoRef(args[0])
		if !ok {
			return fmt.Errorf("invalid repository %q, expected owner/repo or a GitHub URL", args[0])
		}
		opts.Owner, opts.Repo = owner, repo
	}

	result, err := pipe.Run(context.Background(), opts)
	if err == pipeline.ErrNoSubscriptions {
		fmt.Println("Subscription list is empty; add a repository with 'sentinel add <owner/repo>' first")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Generated %d report(s)", len(result.Reports))
	if result.FetchFailures > 0 || result.GenerationFailures > 0 {
		fmt.Printf(" (%d fetch failure(s), %d generation failure(s))", result.FetchFailures, result.GenerationFailures)
	}
	fmt.Println()
	for _, record := range result.Reports {
		fmt.Printf("  %s -> %s\n", record.Label, record.Path)
	}
	return nil
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	pipe, _, history, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer history.Close()

	sched, err := scheduler.New(cfg.Interval(), cfg.ScheduleTime)
	if err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nStopping scheduler...")
		sched.Stop()
	}()

	fmt.Printf("Scheduler started, firing %s (Ctrl+C to stop)\n", sched.Describe())
	return sched.Start(func() {
		if _, err := pipe.Run(context.Background(), pipeline.Options{}); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: scheduled run failed: %v\n", err)
		}
	})
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	subs, err := subscription.NewStore(cfg.SubscriptionsFile)
	if err != nil {
		return err
	}

	list := subs.List()
	if len(list) == 0 {
		fmt.Println("Subscription list is empty")
		return nil
	}

	fmt.Printf("\nSubscriptions (%d):\n", len(list))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Label", "Repository", "Tracked"})
	for _, sub := range list {
		table.Append([]string{
			sub.DisplayLabel(),
			sub.Owner + "/" + sub.Repo,
			strings.Join(sub.Track, ", "),
		})
	}
	table.Render()
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	owner, repo, ok := subscription.ParseRepoRef(args[0])
	if !ok {
		return fmt.Errorf("invalid repository %q, expected owner/repo or a GitHub URL", args[0])
	}
	for _, t := range addTrack {
		if !domain.IsValidCategory(t) {
			return fmt.Errorf("unknown category %q", t)
		}
	}

	subs, err := subscription.NewStore(cfg.SubscriptionsFile)
	if err != nil {
		return err
	}

	added, err := subs.Add(domain.Subscription{
		Owner: owner,
		Repo:  repo,
		Label: addLabel,
		Track: addTrack,
	})
	if err != nil {
		return err
	}
	if !added {
		fmt.Printf("%s/%s is already subscribed\n", owner, repo)
		return nil
	}
	fmt.Printf("Added %s/%s\n", owner, repo)
	return nil
}

func runRemove(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	owner, repo, ok := subscription.ParseRepoRef(args[0])
	if !ok {
		return fmt.Errorf("invalid repository %q, expected owner/repo or a GitHub URL", args[0])
	}

	subs, err := subscription.NewStore(cfg.SubscriptionsFile)
	if err != nil {
		return err
	}

	removed, err := subs.Remove(owner, repo)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("%s/%s is not in the subscription list\n", owner, repo)
		return nil
	}
	fmt.Printf("Removed %s/%s\n", owner, repo)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	history, err := getStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer history.Close()

	records, err := history.ListReports(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No reports generated yet")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Generated", "Repository", "Items", "Path"})
	for _, record := range records {
		repo := record.Label
		if record.Owner != "" {
			repo = record.Owner + "/" + record.Repo
		}
		table.Append([]string{
			record.GeneratedAt.Format("2006-01-02 15:04"),
			repo,
			strconv.Itoa(record.ItemCount),
			record.Path,
		})
	}
	table.Render()
	return nil
}
