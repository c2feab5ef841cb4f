package checker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// linkchecker exit codes, per its documentation.
const (
	// ExitClean means the site was checked and no invalid links found.
	ExitClean = 0

	// ExitIssuesFound means invalid links were found. This is the
	// expected outcome for any site with broken links, not a failure.
	ExitIssuesFound = 1

	// ExitToolError means linkchecker itself failed. Launch failures
	// and overall timeouts are normalized to this code as well.
	ExitToolError = 2
)

const (
	// executableName is the linkchecker binary looked up in PATH.
	executableName = "linkchecker"

	// versionProbeTimeout bounds the --version call. The probe is
	// best effort; a hung probe must not stall the run.
	versionProbeTimeout = 5 * time.Second

	// overallTimeoutFloor and overallTimeoutFactor derive the
	// subprocess deadline from the per-request timeout: at least five
	// minutes, or ten times the request timeout, whichever is larger.
	// The per-request timeout alone says nothing about how long a
	// full recursive crawl takes.
	overallTimeoutFloor  = 5 * time.Minute
	overallTimeoutFactor = 10
)

// ErrNotFound is returned when the linkchecker binary is not in PATH.
// Cron environments often have a trimmed PATH; the message reminds the
// operator of that.
var ErrNotFound = errors.New("linkchecker not found in PATH (install it or adjust the cron PATH)")

// Checker invokes the external linkchecker binary.
type Checker struct {
	// exe is the resolved path to the linkchecker executable.
	exe string

	// logger receives debug output such as the constructed command line.
	logger *slog.Logger
}

// Find locates linkchecker in PATH and returns a Checker for it.
func Find(logger *slog.Logger) (*Checker, error) {
	exe, err := exec.LookPath(executableName)
	if err != nil {
		return nil, ErrNotFound
	}
	return New(exe, logger), nil
}

// New creates a Checker for an explicit executable path. Used by Find
// and by tests that substitute a stub binary.
func New(exe string, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{exe: exe, logger: logger}
}

// Path returns the resolved path to the linkchecker executable.
func (c *Checker) Path() string {
	return c.exe
}

// Version returns the first line of `linkchecker --version`, or empty
// string if the probe fails. Captured only for report traceability, so
// every failure mode degrades to "version unknown".
func (c *Checker) Version(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.exe, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil && len(out) == 0 {
		c.logger.Debug("linkchecker version probe failed", "error", err)
		return ""
	}

	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return strings.TrimSpace(line)
}

// Options holds the per-invocation settings translated into
// linkchecker command-line arguments.
type Options struct {
	// Depth is the recursion depth (-r).
	Depth int

	// Threads is linkchecker's internal thread count (-t).
	Threads int

	// RequestTimeout is the per-request timeout (--timeout), in whole
	// seconds on the wire.
	RequestTimeout time.Duration

	// IncludeWarnings keeps warnings in the CSV output. When false,
	// --no-warnings is passed.
	IncludeWarnings bool

	// ExternDomain, when non-empty, turns on --check-extern with an
	// ignore regex that limits active fetching to the domain and its
	// subdomains. The regex uses a negative lookahead, which
	// linkchecker's Python regex engine supports; it is never
	// compiled by this program.
	ExternDomain string

	// UserAgent sets --user-agent when non-empty.
	UserAgent string

	// IgnoreURLs are extra --ignore-url regex patterns.
	IgnoreURLs []string

	// OverallTimeout bounds the whole subprocess. Zero means derive
	// it from RequestTimeout via OverallTimeout().
	OverallTimeout time.Duration
}

// Args builds the linkchecker argument list for a site. Exposed for
// tests; the order matches what the report job has always logged.
func (o Options) Args(site string) []string {
	args := []string{
		"--no-status",
		"-o", "csv",
		"-r", strconv.Itoa(o.Depth),
		"-t", strconv.Itoa(o.Threads),
		"--timeout", strconv.Itoa(int(o.RequestTimeout.Seconds())),
	}

	if !o.IncludeWarnings {
		args = append(args, "--no-warnings")
	}

	if o.ExternDomain != "" {
		args = append(args, "--check-extern", "--ignore-url", externIgnoreRegex(o.ExternDomain))
	}

	if o.UserAgent != "" {
		args = append(args, "--user-agent", o.UserAgent)
	}

	for _, rgx := range o.IgnoreURLs {
		args = append(args, "--ignore-url", rgx)
	}

	return append(args, site)
}

// externIgnoreRegex builds the pattern that makes --check-extern fetch
// only the given domain's ecosystem: everything that is not the domain
// or one of its subdomains is ignored (syntax-checked only).
func externIgnoreRegex(domain string) string {
	return fmt.Sprintf(`^https?://(?!([A-Za-z0-9-]+\.)?%s(/|$))`, regexp.QuoteMeta(domain))
}

// OverallTimeout returns the subprocess deadline derived from a
// per-request timeout.
func OverallTimeout(requestTimeout time.Duration) time.Duration {
	derived := requestTimeout * overallTimeoutFactor
	if derived < overallTimeoutFloor {
		return overallTimeoutFloor
	}
	return derived
}

// Result is the outcome of one linkchecker invocation.
type Result struct {
	// ExitCode is the normalized exit code: launch failures and
	// overall timeouts become ExitToolError.
	ExitCode int

	// Stderr holds the subprocess's standard error output, or the
	// launch error text when the process never started.
	Stderr string

	// TimedOut is true when the overall deadline killed the process.
	TimedOut bool
}

// Err returns a descriptive error when the invocation ended in a tool
// error, nil otherwise. ExitIssuesFound is not an error.
func (r Result) Err(site string) error {
	if r.ExitCode != ExitToolError {
		return nil
	}
	if r.TimedOut {
		return fmt.Errorf("linkchecker timed out on %s", site)
	}
	return fmt.Errorf("linkchecker program error on %s (exit %d)", site, r.ExitCode)
}

// Run invokes linkchecker for one site and writes its CSV stdout to
// csvPath. The CSV file is written even when the process times out or
// fails, so partial output is never lost. Run never returns an error:
// every failure mode is folded into the Result, matching the
// pipeline's log-and-continue posture.
func (c *Checker) Run(ctx context.Context, site, csvPath string, opts Options) Result {
	overall := opts.OverallTimeout
	if overall == 0 {
		overall = OverallTimeout(opts.RequestTimeout)
	}

	ctx, cancel := context.WithTimeout(ctx, overall)
	defer cancel()

	args := opts.Args(site)
	c.logger.Debug("linkchecker command", "exe", c.exe, "args", strings.Join(args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.exe, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Orphaned worker threads can hold the stdout pipe open after the
	// kill; bound how long we wait for the drain.
	cmd.WaitDelay = 10 * time.Second

	runErr := cmd.Run()

	// Persist whatever CSV we got before interpreting the outcome.
	if err := os.WriteFile(csvPath, stdout.Bytes(), 0600); err != nil {
		c.logger.Error("could not write CSV output", "path", csvPath, "error", err)
	}

	result := Result{Stderr: stderr.String()}

	switch {
	case runErr == nil:
		result.ExitCode = ExitClean
	case ctx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.ExitCode = ExitToolError
		c.logger.Error("linkchecker process timed out",
			"site", site,
			"overallTimeout", overall,
		)
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			// The process never started (bad path, permissions).
			result.ExitCode = ExitToolError
			if result.Stderr == "" {
				result.Stderr = runErr.Error()
			}
			c.logger.Error("failed to start linkchecker", "error", runErr)
		}
	}

	return result
}
