package report

import (
	"fmt"
	"io"

	"github.com/nao1215/markdown"

	"github.com/bcsdweb/linkpatrol/internal/model"
	"github.com/bcsdweb/linkpatrol/internal/runs"
)

// maxDeltaSample caps the newly-broken / newly-fixed lists in the
// summary. Full detail lives in the per-site reports and issues.json;
// the summary is for reading in an email client.
const maxDeltaSample = 50

// Summary is everything the summary report renders.
type Summary struct {
	// RunID is the current run's identifier.
	RunID string

	// CheckerVersion is the linkchecker version line, empty if the
	// probe failed.
	CheckerVersion string

	// Sites is the configured site list, in list order. The by-site
	// table renders one row per entry even for clean sites.
	Sites []string

	// Issues holds all findings of the current run.
	Issues []model.Issue

	// HasPrevious is true when a baseline run existed. When false the
	// delta sections are omitted entirely.
	HasPrevious bool

	// Delta is the change versus the previous run. Only meaningful
	// when HasPrevious is true.
	Delta model.Delta
}

// SummaryWriter renders the aggregate Markdown summary with
// run-over-run deltas.
type SummaryWriter struct {
	output io.Writer
}

// NewSummaryWriter creates a SummaryWriter that renders to the given
// writer.
func NewSummaryWriter(output io.Writer) *SummaryWriter {
	return &SummaryWriter{output: output}
}

// Write renders the summary report.
func (w *SummaryWriter) Write(s Summary) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("Link Check Summary (" + s.RunID + ")")
	md.PlainText("")

	if s.CheckerVersion != "" {
		md.PlainTextf("LinkChecker: `%s`", s.CheckerVersion)
		md.PlainText("")
	}

	md.PlainTextf("Total broken link findings: **%d**", len(s.Issues))
	if s.HasPrevious {
		md.PlainTextf("Change vs previous run: **+%d** new, **-%d** resolved",
			len(s.Delta.Added), len(s.Delta.Removed))
	} else {
		md.PlainText("No previous run found for comparison.")
	}
	md.PlainText("")

	w.writeBySite(md, s)

	if s.HasPrevious {
		w.writeDeltaSample(md, "Newly broken (sample)", s.Delta.Added)
		w.writeDeltaSample(md, "Newly fixed (sample)", s.Delta.Removed)
	}

	return md.Build()
}

// writeBySite renders the per-site count table. The table is written
// as raw lines rather than markdown.TableSet because the count columns
// are right-aligned, which TableSet does not express.
func (w *SummaryWriter) writeBySite(md *markdown.Markdown, s Summary) {
	bySite := model.GroupBySite(s.Sites, s.Issues)
	addedBySite := s.Delta.AddedBySite()
	removedBySite := s.Delta.RemovedBySite()

	md.H2("By site")
	md.PlainText("")
	md.PlainText("| Site | Broken | New vs last | Resolved vs last | Report |")
	md.PlainText("| --- | ---: | ---: | ---: | --- |")

	for _, site := range s.Sites {
		slug := model.HostSlug(site)
		md.PlainText(fmt.Sprintf("| %s | %d | %d | %d | [%s.md](%s) |",
			Escape(site),
			len(bySite[site]),
			addedBySite[site],
			removedBySite[site],
			slug,
			runs.SiteReportRel(slug),
		))
	}
	md.PlainText("")
}

// writeDeltaSample renders a capped list of issues for one side of the
// delta.
func (w *SummaryWriter) writeDeltaSample(md *markdown.Markdown, title string, issues []model.Issue) {
	md.H2(title)
	md.PlainText("")

	if len(issues) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	shown := issues
	if len(shown) > maxDeltaSample {
		shown = shown[:maxDeltaSample]
	}

	for _, i := range shown {
		md.PlainText("- " + Escape(i.Site))
		md.PlainText("  - Error URL: " + Escape(i.ErrorURL))
		md.PlainText("  - Found on: " + Escape(i.FoundOn))
		md.PlainText("  - Error: " + Escape(i.Error))
	}

	if len(issues) > maxDeltaSample {
		md.PlainText("")
		md.PlainTextf("(Showing %d of %d.)", maxDeltaSample, len(issues))
	}
	md.PlainText("")
}
