package validate

import (
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bcsdweb/linkpatrol/internal/model"
	"github.com/bcsdweb/linkpatrol/internal/parser"
)

// maxLogged caps how many individual entries each warning lists before
// collapsing the rest into a count.
const maxLogged = 5

// knownFilePrefix and knownFileSuffix bound the file names treated as
// known-broken-links fixtures, e.g. known_bcsdk12_brokenlinks.csv.
const (
	knownFilePrefix = "known"
	knownFileSuffix = "brokenlinks.csv"
)

// location identifies a finding by where it is, ignoring the error
// text, which the checker rewords between versions.
type location struct {
	errorURL string
	foundOn  string
}

// Validator compares run findings against known-broken-links files in
// a directory.
type Validator struct {
	// dir is the directory scanned for known*brokenlinks.csv files.
	dir string

	// logger receives the comparison results.
	logger *slog.Logger
}

// New creates a Validator scanning the given directory.
func New(dir string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{dir: dir, logger: logger}
}

// Validate compares the site's findings against the first
// known-broken-links file that mentions the site's host. Missing or
// unreadable files are skipped silently; this is a diagnostic aid, not
// part of the pipeline.
func (v *Validator) Validate(site string, found []model.Issue) {
	content, name, ok := v.findKnownFile(site)
	if !ok {
		return
	}

	known := parser.ParseIssues(site, content)
	v.logger.Info("validating against known broken links",
		"site", site,
		"file", name,
		"found", len(found),
		"known", len(known),
	)

	foundSet := locationSet(found)
	knownSet := locationSet(known)

	missed := subtract(knownSet, foundSet)
	unexpected := subtract(foundSet, knownSet)

	if len(missed) > 0 {
		v.logger.Warn("known issues not found", "site", site, "count", len(missed))
		v.logLocations(missed)
	}
	if len(unexpected) > 0 {
		v.logger.Warn("unexpected issues found", "site", site, "count", len(unexpected))
		v.logLocations(unexpected)
	}
	if len(missed) == 0 && len(unexpected) == 0 {
		v.logger.Info("all known issues found, no unexpected issues", "site", site)
	}
}

// findKnownFile returns the content and name of the first
// known*brokenlinks.csv file in the directory that mentions the site's
// host.
func (v *Validator) findKnownFile(site string) (content, name string, ok bool) {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	host := strings.ToLower(u.Host)

	entries, err := os.ReadDir(v.dir)
	if err != nil {
		return "", "", false
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()
		if !strings.HasPrefix(fileName, knownFilePrefix) || !strings.HasSuffix(fileName, knownFileSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(v.dir, fileName))
		if err != nil {
			v.logger.Debug("skipping unreadable known-broken-links file", "file", fileName, "error", err)
			continue
		}
		if !strings.Contains(string(data), host) {
			continue
		}
		return string(data), fileName, true
	}
	return "", "", false
}

// logLocations logs up to maxLogged locations, then a remainder count.
func (v *Validator) logLocations(locs []location) {
	shown := locs
	if len(shown) > maxLogged {
		shown = shown[:maxLogged]
	}
	for _, l := range shown {
		v.logger.Warn("  issue", "error_url", l.errorURL, "found_on", l.foundOn)
	}
	if rest := len(locs) - maxLogged; rest > 0 {
		v.logger.Warn("  more issues omitted", "count", rest)
	}
}

func locationSet(issues []model.Issue) map[location]struct{} {
	set := make(map[location]struct{}, len(issues))
	for _, i := range issues {
		set[location{errorURL: i.ErrorURL, foundOn: i.FoundOn}] = struct{}{}
	}
	return set
}

// subtract returns the locations in a but not in b, sorted for stable
// log output.
func subtract(a, b map[location]struct{}) []location {
	var out []location
	for l := range a {
		if _, ok := b[l]; !ok {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].errorURL != out[j].errorURL {
			return out[i].errorURL < out[j].errorURL
		}
		return out[i].foundOn < out[j].foundOn
	})
	return out
}
