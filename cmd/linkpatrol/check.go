package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/bcsdweb/linkpatrol/internal/checker"
	"github.com/bcsdweb/linkpatrol/internal/config"
	"github.com/bcsdweb/linkpatrol/internal/database"
	"github.com/bcsdweb/linkpatrol/internal/log"
	"github.com/bcsdweb/linkpatrol/internal/model"
	"github.com/bcsdweb/linkpatrol/internal/parser"
	"github.com/bcsdweb/linkpatrol/internal/report"
	"github.com/bcsdweb/linkpatrol/internal/runs"
	"github.com/bcsdweb/linkpatrol/internal/validate"
)

// errToolFailure marks a run where linkchecker itself failed on one or
// more sites. The process exits with code 2 in that case, distinct
// from ordinary CLI errors, because the cron wrapper alerts on it.
var errToolFailure = errors.New("linkchecker reported a program error on one or more sites")

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check all configured sites for broken links",
		Long: `Check runs LinkChecker against every configured site and writes a
timestamped run directory under the output root:

  reports/<run-id>/
    raw/<host>.csv     raw LinkChecker CSV output per site
    sites/<host>.md    per-site Markdown report
    issues.json        machine readable snapshot of all findings
    summary.md         aggregate summary with deltas vs the previous run
    run.log            full log of the run

Per-site failures are logged and never abort the run. The process exits
with code 2 when LinkChecker reported a program error on any site, so a
cron wrapper can alert on tool breakage while broken links alone still
exit 0.

Examples:
  # Check the built-in district site list
  linkpatrol check

  # Check a custom site list into a custom output root
  linkpatrol check --sites-file sites.txt --out /var/reports

  # Stay resident and run every morning at 06:00
  linkpatrol check --schedule "0 6 * * *"`,
		Args: cobra.NoArgs,
		RunE: runCheckCmd,
	}

	cmd.Flags().StringP("out", "o", config.DefaultOutputDir,
		"Output root directory for run directories")
	cmd.Flags().StringP("sites-file", "s", "",
		"File with one site URL per line (default: embedded district list)")
	cmd.Flags().IntP("depth", "d", config.DefaultDepth,
		"LinkChecker recursion depth (-r)")
	cmd.Flags().IntP("threads", "t", config.DefaultThreads,
		"LinkChecker thread count (-t)")
	cmd.Flags().Duration("timeout", config.DefaultRequestTimeout,
		"Per-request timeout passed to LinkChecker")
	cmd.Flags().Bool("include-warnings", false,
		"Keep LinkChecker warnings in the output")
	cmd.Flags().String("check-extern-domain", "",
		"Actively check external links on this domain and its subdomains")
	cmd.Flags().StringArray("ignore-url", nil,
		"Extra --ignore-url regex pattern (repeatable)")
	cmd.Flags().String("user-agent", "",
		"Override LinkChecker's User-Agent")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .linkpatrol in current or home directory)")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of sites checked at once (1 = sequential)")
	cmd.Flags().String("schedule", "",
		"Cron expression; stay resident and run the check on this schedule")
	cmd.Flags().String("known-dir", ".",
		"Directory searched for known*brokenlinks.csv validation files")

	return cmd
}

// runCheckCmd executes the check command.
func runCheckCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildCheckConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// SIGINT/SIGTERM cancels the run; the subprocess deadline handling
	// in the checker takes care of killing linkchecker.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Schedule != "" {
		return runScheduled(ctx, cfg)
	}
	return runCheck(ctx, cfg, time.Now())
}

// runScheduled stays resident and runs the check on the configured
// cron schedule until the context is cancelled. Failures of individual
// runs are logged; only an invalid schedule is fatal.
func runScheduled(ctx context.Context, cfg *config.Config) error {
	logger := log.NewLogger(os.Stderr, cfg.Verbose)

	c := cron.New()
	_, err := c.AddFunc(cfg.Schedule, func() {
		if err := runCheck(ctx, cfg, time.Now()); err != nil {
			logger.Error("scheduled check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", cfg.Schedule, err)
	}

	logger.Info("running on schedule", "schedule", cfg.Schedule)
	c.Start()
	<-ctx.Done()

	// Wait for an in-flight run to finish before exiting.
	<-c.Stop().Done()
	logger.Info("scheduler stopped")
	return nil
}

// siteOutcome carries one site's results back from the check workers.
type siteOutcome struct {
	site      string
	issues    []model.Issue
	toolError bool
}

// runCheck performs one complete check run.
func runCheck(ctx context.Context, cfg *config.Config, now time.Time) error {
	// Fail fast before creating any run directory when linkchecker is
	// not installed.
	chk, err := checker.Find(log.NewLogger(os.Stderr, cfg.Verbose))
	if err != nil {
		return err
	}

	store := runs.NewStore(cfg.OutputDir)
	run, err := store.Create(model.NewRunID(now))
	if err != nil {
		return fmt.Errorf("failed to create run directory: %w", err)
	}

	logFile, err := log.OpenRunLog(run.LogPath())
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger := log.NewRunLogger(os.Stderr, logFile, cfg.Verbose).With("run_id", run.ID)
	chk = checker.New(chk.Path(), logger)

	version := chk.Version(ctx)
	logger.Info("starting check run",
		"sites", len(cfg.Sites),
		"out", run.Dir(),
		"linkchecker", version,
		"concurrency", cfg.Concurrency,
	)

	outcomes := checkSites(ctx, cfg, chk, run, logger)

	var allIssues []model.Issue
	var toolErrors []string
	for _, o := range outcomes {
		allIssues = append(allIssues, o.issues...)
		if o.toolError {
			toolErrors = append(toolErrors, o.site)
		}
	}
	model.SortIssues(allIssues)
	sort.Strings(toolErrors)

	snapshot := &model.RunSnapshot{
		RunID:          run.ID,
		GeneratedAt:    now,
		CheckerVersion: version,
		Issues:         allIssues,
		ToolErrors:     toolErrors,
	}
	if err := run.WriteSnapshot(snapshot); err != nil {
		logger.Error("failed to write issues.json", "error", err)
	}

	writeSummary(run, store, cfg, snapshot, logger)
	saveRunToDB(ctx, cfg, snapshot, logger)

	logger.Info("run complete",
		"issues", len(allIssues),
		"tool_errors", len(toolErrors),
		"summary", run.SummaryPath(),
	)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if len(toolErrors) > 0 {
		return fmt.Errorf("%w: %d site(s) affected", errToolFailure, len(toolErrors))
	}
	return nil
}

// checkSites runs linkchecker for every configured site and returns
// one outcome per site, in site list order. Concurrency above 1 checks
// sites in parallel; failures never abort the other sites.
func checkSites(ctx context.Context, cfg *config.Config, chk *checker.Checker, run *runs.Run, logger *slog.Logger) []siteOutcome {
	validator := validate.New(cfg.KnownDir, logger)
	outcomes := make([]siteOutcome, len(cfg.Sites))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	for i, site := range cfg.Sites {
		g.Go(func() error {
			// Each worker writes only its own slot. Per-site failures
			// are recorded, not returned: one bad site must not
			// cancel the siblings.
			outcomes[i] = checkSite(ctx, cfg, chk, run, validator, logger, site)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // workers always return nil

	return outcomes
}

// checkSite checks one site: invoke linkchecker, parse the CSV, write
// the site report, and validate against known broken links.
func checkSite(ctx context.Context, cfg *config.Config, chk *checker.Checker, run *runs.Run, validator *validate.Validator, logger *slog.Logger, site string) siteOutcome {
	outcome := siteOutcome{site: site}
	slug := model.HostSlug(site)

	logger.Info("checking site", "site", site)

	res := chk.Run(ctx, site, run.RawCSVPath(slug), checkerOptions(cfg, site))
	if err := res.Err(site); err != nil {
		logger.Error("linkchecker failed", "site", site, "error", err, "stderr", res.Stderr)
		outcome.toolError = true
	}

	// The CSV is parsed even after a tool error: partial output still
	// names real broken links.
	csvText, err := os.ReadFile(run.RawCSVPath(slug)) //nolint:gosec // Path is built from our own run directory
	if err != nil {
		logger.Error("failed to read raw CSV", "site", site, "error", err)
		return outcome
	}

	outcome.issues = parser.ParseIssues(site, string(csvText))
	logger.Info("parsed checker output", "site", site, "issues", len(outcome.issues))

	if err := writeSiteReport(run, slug, site, outcome.issues); err != nil {
		logger.Error("failed to write site report", "site", site, "error", err)
	}

	if cfg.KnownDir != "" {
		validator.Validate(site, outcome.issues)
	}
	return outcome
}

// checkerOptions builds the linkchecker options for one site, applying
// per-site overrides from the config file.
func checkerOptions(cfg *config.Config, site string) checker.Options {
	opts := checker.Options{
		Depth:           cfg.Depth,
		Threads:         cfg.Threads,
		RequestTimeout:  cfg.RequestTimeout,
		IncludeWarnings: cfg.IncludeWarnings,
		ExternDomain:    cfg.CheckExternDomain,
		UserAgent:       cfg.UserAgent,
		IgnoreURLs:      cfg.IgnoreURLs,
	}

	if cfg.SiteConfigs != nil {
		sc := cfg.SiteConfigs.GetSiteConfig(site)
		if sc.Depth != 0 {
			opts.Depth = sc.Depth
		}
		if sc.UserAgent != "" {
			opts.UserAgent = sc.UserAgent
		}
		if len(sc.IgnoreURLs) > 0 {
			opts.IgnoreURLs = append(opts.IgnoreURLs, sc.IgnoreURLs...)
		}
	}
	return opts
}

// writeSiteReport renders the per-site Markdown report.
func writeSiteReport(run *runs.Run, slug, site string, issues []model.Issue) error {
	f, err := os.Create(run.SiteReportPath(slug)) //nolint:gosec // Path is built from our own run directory
	if err != nil {
		return err
	}
	if err := report.NewSiteWriter(f).Write(site, issues); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// writeSummary loads the previous run's snapshot, computes the delta,
// and renders the aggregate summary. A missing or unreadable previous
// run degrades to a summary without deltas.
func writeSummary(run *runs.Run, store *runs.Store, cfg *config.Config, snapshot *model.RunSnapshot, logger *slog.Logger) {
	summary := report.Summary{
		RunID:          snapshot.RunID,
		CheckerVersion: snapshot.CheckerVersion,
		Sites:          cfg.Sites,
		Issues:         snapshot.Issues,
	}

	prev, err := store.LoadPrevious(run.ID)
	switch {
	case err != nil:
		logger.Warn("could not load previous run, skipping delta", "error", err)
	case prev == nil:
		logger.Info("no previous run found for comparison")
	default:
		summary.HasPrevious = true
		summary.Delta = model.ComputeDelta(prev.Issues, snapshot.Issues)
		logger.Info("computed delta vs previous run",
			"previous", prev.RunID,
			"added", len(summary.Delta.Added),
			"removed", len(summary.Delta.Removed),
		)
	}

	f, err := os.Create(run.SummaryPath()) //nolint:gosec // Path is built from our own run directory
	if err != nil {
		logger.Error("failed to create summary.md", "error", err)
		return
	}
	defer f.Close()

	if err := report.NewSummaryWriter(f).Write(summary); err != nil {
		logger.Error("failed to write summary.md", "error", err)
	}
}

// saveRunToDB persists the snapshot to the run history database.
// Database problems are logged and never fail the run; the filesystem
// run directory is the source of truth.
func saveRunToDB(ctx context.Context, cfg *config.Config, snapshot *model.RunSnapshot, logger *slog.Logger) {
	if !cfg.SaveToDB {
		return
	}

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open run history database", "dir", cfg.DBDir, "error", err)
		return
	}
	defer db.Close()

	if err := db.SaveRun(ctx, snapshot); err != nil {
		logger.Warn("failed to save run to history database", "error", err)
		return
	}
	logger.Debug("saved run to history database", "dir", cfg.DBDir)
}

// buildCheckConfig creates a Config from cobra command flags.
func buildCheckConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	cfg.OutputDir, err = cmd.Flags().GetString("out")
	if err != nil {
		return nil, err
	}

	cfg.SitesFile, err = cmd.Flags().GetString("sites-file")
	if err != nil {
		return nil, err
	}

	cfg.Depth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.Threads, err = cmd.Flags().GetInt("threads")
	if err != nil {
		return nil, err
	}

	cfg.RequestTimeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.IncludeWarnings, err = cmd.Flags().GetBool("include-warnings")
	if err != nil {
		return nil, err
	}

	cfg.CheckExternDomain, err = cmd.Flags().GetString("check-extern-domain")
	if err != nil {
		return nil, err
	}

	cfg.IgnoreURLs, err = cmd.Flags().GetStringArray("ignore-url")
	if err != nil {
		return nil, err
	}

	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}

	cfg.Concurrency, err = cmd.Flags().GetInt("concurrency")
	if err != nil {
		return nil, err
	}

	cfg.Schedule, err = cmd.Flags().GetString("schedule")
	if err != nil {
		return nil, err
	}

	cfg.KnownDir, err = cmd.Flags().GetString("known-dir")
	if err != nil {
		return nil, err
	}

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// Load site-specific configurations from the config file.
	// An explicitly requested file must exist; the default lookup is
	// allowed to find nothing.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// Resolve the site list: explicit file wins over the embedded
	// district list.
	if cfg.SitesFile != "" {
		cfg.Sites, err = config.LoadSiteList(cfg.SitesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load sites file: %w", err)
		}
	} else {
		cfg.Sites = config.DefaultSites()
	}

	// Run history always lands in the XDG data directory.
	cfg.SaveToDB = true
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}
