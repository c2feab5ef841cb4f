package model

import (
	"net/url"
	"sort"
	"strings"
)

// Issue is a single broken-link finding: the offending URL, the page it
// was found on, and the error reported by the link checker.
//
// Design decision: the JSON field names match the snapshot format the
// reporting pipeline has always written (issues.json), so older run
// directories stay readable after upgrades.
type Issue struct {
	// Site is the site root URL this issue belongs to.
	Site string `json:"site"`

	// ErrorURL is the resolved URL that failed the check.
	ErrorURL string `json:"error_url"`

	// FoundOn is the page on which the broken link was discovered.
	// Falls back to the site root when the checker reports no parent.
	FoundOn string `json:"found_on"`

	// Error is the checker's result text with the valid/invalid prefix
	// stripped. Never empty; parsing substitutes "Unknown error".
	Error string `json:"error"`
}

// Key identifies an issue by all four fields. Two issues with the same
// Key are the same finding.
type Key struct {
	Site     string
	ErrorURL string
	FoundOn  string
	Error    string
}

// StableKey identifies an issue by location only, ignoring the error
// text. Useful for diffs that should not churn when the checker rewords
// its messages.
type StableKey struct {
	Site     string
	ErrorURL string
	FoundOn  string
}

// Key returns the full uniqueness key for the issue.
func (i Issue) Key() Key {
	return Key{Site: i.Site, ErrorURL: i.ErrorURL, FoundOn: i.FoundOn, Error: i.Error}
}

// StableKey returns the coarser key that omits the error text.
func (i Issue) StableKey() StableKey {
	return StableKey{Site: i.Site, ErrorURL: i.ErrorURL, FoundOn: i.FoundOn}
}

// SortIssues sorts issues in place by (site, error URL, found-on, error).
// Reports and snapshots always use this order so output is deterministic.
func SortIssues(issues []Issue) {
	sort.Slice(issues, func(a, b int) bool {
		x, y := issues[a], issues[b]
		if x.Site != y.Site {
			return x.Site < y.Site
		}
		if x.ErrorURL != y.ErrorURL {
			return x.ErrorURL < y.ErrorURL
		}
		if x.FoundOn != y.FoundOn {
			return x.FoundOn < y.FoundOn
		}
		return x.Error < y.Error
	})
}

// GroupBySite returns issues grouped by their Site field. The sites
// argument seeds the map so every configured site has an entry even
// when it produced no issues.
func GroupBySite(sites []string, issues []Issue) map[string][]Issue {
	bySite := make(map[string][]Issue, len(sites))
	for _, s := range sites {
		bySite[s] = nil
	}
	for _, i := range issues {
		bySite[i.Site] = append(bySite[i.Site], i)
	}
	return bySite
}

// HostSlug derives a filesystem-safe name from a site URL's host.
// Colons (port separators) are replaced because they are not portable
// in file names. An unparsable or host-less URL yields "unknown".
func HostSlug(site string) string {
	u, err := url.Parse(site)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	host := strings.ToLower(u.Host)
	return strings.ReplaceAll(host, ":", "_")
}
