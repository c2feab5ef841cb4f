package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/bcsdweb/linkpatrol/internal/config"
	"github.com/bcsdweb/linkpatrol/internal/database"
	"github.com/bcsdweb/linkpatrol/internal/model"
	"github.com/bcsdweb/linkpatrol/internal/report"
)

// NewCompareCmd creates the compare command.
// This command compares runs stored in the run history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [run-id]",
		Short: "Compare check runs from the run history database",
		Long: `Compare displays differences between two check runs.

Without arguments it compares the latest run with the one before it.
A run ID argument selects the current side of the comparison; --with-run
selects the baseline. Run IDs look like 2026-08-31_060000 and are listed
by --list.

Examples:
  # Compare the latest two runs
  linkpatrol compare

  # List stored run history
  linkpatrol compare --list

  # Compare a specific run against a specific baseline
  linkpatrol compare 2026-08-31_060000 --with-run 2026-08-01_060000

  # Restrict the comparison to one site
  linkpatrol compare --site https://www.bcsdk12.net/

  # Output in JSON or Markdown
  linkpatrol compare --json
  linkpatrol compare --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().BoolP("list", "l", false,
		"List stored run history instead of comparing")
	cmd.Flags().StringP("with-run", "w", "",
		"Baseline run ID to compare against (default: the run before the current one)")
	cmd.Flags().String("site", "",
		"Restrict the comparison to a single site URL")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	db, err := database.Open(config.XDGDataDir(), database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open run history database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	list, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if list {
		return listRunHistory(ctx, cmd, db)
	}

	withRun, err := cmd.Flags().GetString("with-run")
	if err != nil {
		return err
	}
	site, err := cmd.Flags().GetString("site")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return errors.New("--json and --markdown are mutually exclusive")
	}

	var currentID string
	if len(args) == 1 {
		currentID = args[0]
	}

	result, err := buildComparison(ctx, db, currentID, withRun, site)
	if err != nil {
		return err
	}

	switch {
	case jsonOutput:
		return outputComparisonJSON(cmd, result)
	case markdownOutput:
		return outputComparisonMarkdown(cmd, result)
	default:
		return outputComparisonText(cmd, result)
	}
}

// listRunHistory prints the stored runs, most recent first.
func listRunHistory(ctx context.Context, cmd *cobra.Command, db *database.RunDB) error {
	metas, err := db.ListRuns(ctx, 0)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(metas) == 0 {
		fmt.Fprintln(out, "No runs stored in the database.")
		fmt.Fprintln(out, "\nUse 'linkpatrol check' to run a check and record it.")
		return nil
	}

	fmt.Fprintf(out, "Stored runs (%d):\n\n", len(metas))
	fmt.Fprintf(out, "  %-19s  %8s  %11s  %s\n", "Run ID", "Issues", "Tool errors", "LinkChecker")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 60))

	for _, meta := range metas {
		version := meta.CheckerVersion
		if version == "" {
			version = "unknown"
		}
		fmt.Fprintf(out, "  %-19s  %8d  %11d  %s\n",
			meta.RunID, meta.IssueCount, meta.ToolErrorCount, version)
	}

	fmt.Fprintln(out, "\nUse 'linkpatrol compare' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'linkpatrol compare <run-id> --with-run <run-id>' for specific runs.")

	return nil
}

// ComparisonResult holds the result of comparing two runs.
type ComparisonResult struct {
	// CurrentRun describes the newer side of the comparison.
	CurrentRun RunSummary `json:"current_run"`

	// PreviousRun describes the baseline side of the comparison.
	PreviousRun RunSummary `json:"previous_run"`

	// Site restricts the comparison to one site when non-empty.
	Site string `json:"site,omitempty"`

	// NewIssues are findings present now but not in the baseline.
	NewIssues []model.Issue `json:"new_issues,omitempty"`

	// ResolvedIssues are findings present in the baseline but gone now.
	ResolvedIssues []model.Issue `json:"resolved_issues,omitempty"`

	// UnchangedCount is the number of findings present in both runs.
	UnchangedCount int `json:"unchanged_count"`
}

// RunSummary contains metadata about one side of a comparison.
type RunSummary struct {
	// RunID is the run's timestamped identifier.
	RunID string `json:"run_id"`

	// GeneratedAt is when the run's snapshot was written.
	GeneratedAt time.Time `json:"generated_at"`

	// TotalIssues is the finding count on this side of the comparison,
	// after any --site filtering.
	TotalIssues int `json:"total_issues"`
}

// buildComparison loads both runs and computes the delta.
func buildComparison(ctx context.Context, db *database.RunDB, currentID, baselineID, site string) (*ComparisonResult, error) {
	current, err := loadRun(ctx, db, currentID, true)
	if err != nil {
		return nil, err
	}

	var previous *model.RunSnapshot
	if baselineID != "" {
		previous, err = loadRun(ctx, db, baselineID, false)
	} else {
		previous, err = db.GetPreviousRun(ctx, current.RunID)
		if err == nil && previous == nil {
			err = fmt.Errorf("no run before %s to compare against (at least 2 runs are required)", current.RunID)
		}
	}
	if err != nil {
		return nil, err
	}

	currentIssues := filterBySite(current.Issues, site)
	previousIssues := filterBySite(previous.Issues, site)

	delta := model.ComputeDelta(previousIssues, currentIssues)

	return &ComparisonResult{
		CurrentRun: RunSummary{
			RunID:       current.RunID,
			GeneratedAt: current.GeneratedAt,
			TotalIssues: len(currentIssues),
		},
		PreviousRun: RunSummary{
			RunID:       previous.RunID,
			GeneratedAt: previous.GeneratedAt,
			TotalIssues: len(previousIssues),
		},
		Site:           site,
		NewIssues:      delta.Added,
		ResolvedIssues: delta.Removed,
		UnchangedCount: delta.Unchanged,
	}, nil
}

// loadRun fetches a run by ID, or the latest run when id is empty and
// latestFallback is set.
func loadRun(ctx context.Context, db *database.RunDB, id string, latestFallback bool) (*model.RunSnapshot, error) {
	if id == "" && latestFallback {
		snap, err := db.GetLatestRun(ctx)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, errors.New("no runs stored in the database (use 'linkpatrol check' first)")
		}
		return snap, nil
	}

	snap, err := db.GetRunByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("run %s not found (use --list to see stored runs)", id)
	}
	return snap, nil
}

// filterBySite keeps only issues belonging to the given site. An empty
// site keeps everything.
func filterBySite(issues []model.Issue, site string) []model.Issue {
	if site == "" {
		return issues
	}
	var out []model.Issue
	for _, i := range issues {
		if i.Site == site {
			out = append(out, i)
		}
	}
	return out
}

// outputComparisonJSON writes the comparison result as indented JSON.
func outputComparisonJSON(cmd *cobra.Command, result *ComparisonResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize comparison: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// outputComparisonMarkdown writes the comparison result as Markdown.
func outputComparisonMarkdown(cmd *cobra.Command, result *ComparisonResult) error {
	md := markdown.NewMarkdown(cmd.OutOrStdout())

	md.H1("Run Comparison")
	md.PlainText("")
	md.PlainTextf("Current run: `%s` (%d findings)",
		result.CurrentRun.RunID, result.CurrentRun.TotalIssues)
	md.PlainTextf("Previous run: `%s` (%d findings)",
		result.PreviousRun.RunID, result.PreviousRun.TotalIssues)
	if result.Site != "" {
		md.PlainTextf("Site filter: %s", report.Escape(result.Site))
	}
	md.PlainText("")
	md.PlainTextf("New: **%d**, resolved: **%d**, unchanged: **%d**",
		len(result.NewIssues), len(result.ResolvedIssues), result.UnchangedCount)
	md.PlainText("")

	writeIssueSection(md, "New findings", result.NewIssues)
	writeIssueSection(md, "Resolved findings", result.ResolvedIssues)

	return md.Build()
}

// writeIssueSection renders one issue list as a Markdown table.
func writeIssueSection(md *markdown.Markdown, title string, issues []model.Issue) {
	md.H2(title)
	md.PlainText("")

	if len(issues) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			report.Escape(issue.Site),
			report.Link(issue.ErrorURL),
			report.Link(issue.FoundOn),
			report.Escape(issue.Error),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Site", "Error URL", "Link found on", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}

// outputComparisonText writes the comparison result as plain text.
func outputComparisonText(cmd *cobra.Command, result *ComparisonResult) error {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Comparing %s (current) with %s (baseline)\n",
		result.CurrentRun.RunID, result.PreviousRun.RunID)
	if result.Site != "" {
		fmt.Fprintf(out, "Site filter: %s\n", result.Site)
	}
	fmt.Fprintf(out, "\nFindings: %d current, %d baseline\n",
		result.CurrentRun.TotalIssues, result.PreviousRun.TotalIssues)
	fmt.Fprintf(out, "New: %d, resolved: %d, unchanged: %d\n",
		len(result.NewIssues), len(result.ResolvedIssues), result.UnchangedCount)

	printIssueList(out, "New findings", result.NewIssues)
	printIssueList(out, "Resolved findings", result.ResolvedIssues)

	return nil
}

// printIssueList prints one side of the delta as indented text lines.
func printIssueList(out io.Writer, title string, issues []model.Issue) {
	if len(issues) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", title)
	for _, i := range issues {
		fmt.Fprintf(out, "  %s\n    on %s (%s)\n", i.ErrorURL, i.FoundOn, i.Error)
	}
}
