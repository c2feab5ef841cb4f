package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values. These mirror the settings the district's
// nightly report job has always run with; changing them changes every
// cron invocation that does not pass explicit flags.
const (
	// DefaultDepth is the recursion depth passed to linkchecker (-r).
	// Four levels covers every page type the district sites publish
	// without descending into calendar pagination forever.
	DefaultDepth = 4

	// DefaultThreads is linkchecker's internal fetch concurrency (-t).
	DefaultThreads = 12

	// DefaultRequestTimeout is the per-request timeout handed to
	// linkchecker via --timeout. The overall subprocess deadline is
	// derived from this, see checker.OverallTimeout.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultConcurrency is the number of sites checked at once.
	// 1 means strictly sequential, which is the posture the report
	// job runs with: one external subprocess at a time.
	DefaultConcurrency = 1

	// DefaultOutputDir is where run directories are created.
	DefaultOutputDir = "reports"

	// AppName is used for XDG directory paths.
	AppName = "linkpatrol"
)

// Config holds all options for a check run. It is populated from CLI
// flags and the optional config file, validated once, and passed down
// by value reference rather than read from globals.
type Config struct {
	// OutputDir is the root directory that holds timestamped run
	// directories.
	OutputDir string

	// SitesFile is an optional file with one site URL per line.
	// Empty means use the embedded default site list.
	SitesFile string

	// Sites is the resolved, ordered site list for this run.
	// Immutable once the run starts.
	Sites []string

	// Depth is the linkchecker recursion depth (-r).
	Depth int

	// Threads is linkchecker's fetch thread count (-t).
	Threads int

	// RequestTimeout is the per-request timeout passed to linkchecker.
	RequestTimeout time.Duration

	// IncludeWarnings keeps linkchecker warnings in the output.
	// When false (default) --no-warnings is passed to cut noise.
	IncludeWarnings bool

	// CheckExternDomain, when non-empty, enables --check-extern but
	// restricts active fetching to the named domain and its
	// subdomains; everything else gets a syntax-only check.
	CheckExternDomain string

	// IgnoreURLs are extra --ignore-url regex patterns, passed to
	// linkchecker verbatim.
	IgnoreURLs []string

	// UserAgent overrides linkchecker's User-Agent when non-empty.
	UserAgent string

	// Concurrency is the number of sites checked simultaneously.
	Concurrency int

	// Schedule is an optional cron expression. When set, the check
	// command stays resident and runs on the schedule instead of once.
	Schedule string

	// KnownDir is the directory searched for known*brokenlinks.csv
	// validation files. Empty disables the validation pass.
	KnownDir string

	// ConfigFilePath is the path to the .linkpatrol YAML file. Empty
	// triggers the CWD-then-home search.
	ConfigFilePath string

	// SiteConfigs holds per-site overrides loaded from the config file.
	SiteConfigs *File

	// DBDir is the directory holding the run history database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB persists each run snapshot to the history database.
	SaveToDB bool

	// Verbose switches logging from warn level to debug level.
	Verbose bool
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be wrong; the constructor
// also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:      DefaultOutputDir,
		Depth:          DefaultDepth,
		Threads:        DefaultThreads,
		RequestTimeout: DefaultRequestTimeout,
		Concurrency:    DefaultConcurrency,
		KnownDir:       ".",
	}
}

// XDGDataDir returns the XDG data directory for linkpatrol.
// Linux: ~/.local/share/linkpatrol.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem
// found. Called once after flag parsing, before any subprocess is
// spawned, so misconfiguration fails fast with a clear message.
func (c *Config) Validate() error {
	if len(c.Sites) == 0 {
		return ErrNoSites
	}
	if c.Depth < 0 {
		return ErrInvalidDepth
	}
	if c.Threads <= 0 {
		return ErrInvalidThreads
	}
	if c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	return nil
}
