package runs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bcsdweb/linkpatrol/internal/model"
)

// Fixed names inside a run directory.
const (
	rawDirName   = "raw"
	sitesDirName = "sites"
	issuesFile   = "issues.json"
	summaryFile  = "summary.md"
	logFile      = "run.log"
)

// Store is the reports root directory holding timestamped run
// directories.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The
// directory itself is created lazily by Create.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the reports root directory.
func (s *Store) Root() string {
	return s.root
}

// Run is one run directory with its fixed internal layout.
type Run struct {
	// ID is the timestamped run identifier, also the directory name.
	ID string

	dir string
}

// Create makes the run directory and its raw/ and sites/
// subdirectories.
func (s *Store) Create(id string) (*Run, error) {
	run := &Run{ID: id, dir: filepath.Join(s.root, id)}

	for _, d := range []string{
		filepath.Join(run.dir, rawDirName),
		filepath.Join(run.dir, sitesDirName),
	} {
		if err := os.MkdirAll(d, 0750); err != nil {
			return nil, fmt.Errorf("failed to create run directory: %w", err)
		}
	}
	return run, nil
}

// Open returns a Run handle for an existing run directory without
// creating anything.
func (s *Store) Open(id string) *Run {
	return &Run{ID: id, dir: filepath.Join(s.root, id)}
}

// Dir returns the run directory path.
func (r *Run) Dir() string { return r.dir }

// RawCSVPath returns the path for a site's raw linkchecker CSV.
func (r *Run) RawCSVPath(slug string) string {
	return filepath.Join(r.dir, rawDirName, slug+".csv")
}

// SiteReportPath returns the path for a site's rendered Markdown report.
func (r *Run) SiteReportPath(slug string) string {
	return filepath.Join(r.dir, sitesDirName, slug+".md")
}

// SiteReportRel returns the summary-relative link target for a site's
// report. Always forward-slash separated because it lands in Markdown.
func SiteReportRel(slug string) string {
	return sitesDirName + "/" + slug + ".md"
}

// IssuesJSONPath returns the path of the run's snapshot file.
func (r *Run) IssuesJSONPath() string { return filepath.Join(r.dir, issuesFile) }

// SummaryPath returns the path of the run's summary report.
func (r *Run) SummaryPath() string { return filepath.Join(r.dir, summaryFile) }

// LogPath returns the path of the run's log file.
func (r *Run) LogPath() string { return filepath.Join(r.dir, logFile) }

// WriteSnapshot serializes the run snapshot to issues.json.
// Indented, stable-order JSON so snapshots diff cleanly in version
// control or by eye.
func (r *Run) WriteSnapshot(snap *model.RunSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(r.IssuesJSONPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads a run snapshot from issues.json.
func (r *Run) ReadSnapshot() (*model.RunSnapshot, error) {
	data, err := os.ReadFile(r.IssuesJSONPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap model.RunSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snap, nil
}

// List returns the IDs of all run directories under the root, sorted
// ascending (oldest first). A missing root is an empty store, not an
// error.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// LoadPrevious returns the snapshot of the most recent run other than
// currentID, or nil when there is no usable previous run. A previous
// run directory without a readable snapshot yields nil rather than an
// older run's data: comparing against a stale baseline would overstate
// the delta.
func (s *Store) LoadPrevious(currentID string) (*model.RunSnapshot, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}

	prev := ""
	for _, id := range ids {
		if id != currentID {
			prev = id
		}
	}
	if prev == "" {
		return nil, nil
	}

	run := s.Open(prev)
	if _, err := os.Stat(run.IssuesJSONPath()); os.IsNotExist(err) {
		return nil, nil
	}
	return run.ReadSnapshot()
}
