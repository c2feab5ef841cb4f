package config

import (
	_ "embed"
	"os"
	"strings"
)

// defaultSitesRaw is the embedded fallback site list, used when no
// --sites-file is given. One URL per line, # comments allowed.
//
//go:embed sites.txt
var defaultSitesRaw string

// DefaultSites returns the embedded default site list.
func DefaultSites() []string {
	return parseSiteLines(defaultSitesRaw)
}

// LoadSiteList reads a site list file: one URL per line, blank lines
// and #-prefixed comment lines ignored. Order is preserved because the
// summary table renders sites in list order.
func LoadSiteList(path string) ([]string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided sites file is intentional
	if err != nil {
		return nil, err
	}
	return parseSiteLines(string(data)), nil
}

func parseSiteLines(text string) []string {
	var sites []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		sites = append(sites, ln)
	}
	return sites
}
