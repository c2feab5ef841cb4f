package model

import "time"

// RunIDLayout is the time layout for run identifiers. Lexicographic
// order of run IDs equals chronological order, which is what makes
// "most recent previous run" a simple sort over directory names.
const RunIDLayout = "2006-01-02_150405"

// NewRunID returns a run identifier for the given time.
// Local time is used intentionally: these reports are read by humans
// working in the district's timezone.
func NewRunID(t time.Time) string {
	return t.Format(RunIDLayout)
}

// RunSnapshot is the machine-readable record of one complete run,
// serialized to issues.json inside the run directory and to the run
// history database.
type RunSnapshot struct {
	// RunID is the timestamped identifier of the run directory.
	RunID string `json:"run_id"`

	// GeneratedAt is when the snapshot was written.
	GeneratedAt time.Time `json:"generated_at"`

	// CheckerVersion is the first line of `linkchecker --version`,
	// captured for traceability. Empty if the version probe failed.
	CheckerVersion string `json:"linkchecker_version"`

	// Issues holds every finding from the run, in SortIssues order.
	Issues []Issue `json:"issues"`

	// ToolErrors records sites where linkchecker itself failed
	// (exit code 2 or overall timeout). These make the process exit
	// with code 2 but never abort the run.
	ToolErrors []string `json:"tool_errors"`
}

// KeySet returns the full-key set of the snapshot's issues.
func (s *RunSnapshot) KeySet() map[Key]struct{} {
	set := make(map[Key]struct{}, len(s.Issues))
	for _, i := range s.Issues {
		set[i.Key()] = struct{}{}
	}
	return set
}
