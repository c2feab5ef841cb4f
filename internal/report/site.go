package report

import (
	"io"

	"github.com/nao1215/markdown"

	"github.com/bcsdweb/linkpatrol/internal/model"
)

// SiteWriter renders the per-site Markdown report: a header, the
// findings count, and a table of every broken link found on the site.
type SiteWriter struct {
	output io.Writer
}

// NewSiteWriter creates a SiteWriter that renders to the given writer.
func NewSiteWriter(output io.Writer) *SiteWriter {
	return &SiteWriter{output: output}
}

// Write renders the report for one site. Issues are expected in
// model.SortIssues order; the writer renders them as given.
func (w *SiteWriter) Write(site string, issues []model.Issue) error {
	md := markdown.NewMarkdown(w.output)

	md.H1(site)
	md.PlainText("")
	md.PlainTextf("Broken link findings: **%d**", len(issues))
	md.PlainText("")

	if len(issues) == 0 {
		md.PlainText("No broken links found.")
		md.PlainText("")
		return md.Build()
	}

	rows := make([][]string, len(issues))
	for i, issue := range issues {
		rows[i] = []string{
			Link(issue.ErrorURL),
			Link(issue.FoundOn),
			Escape(issue.Error),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Error URL", "Link found on", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	return md.Build()
}
