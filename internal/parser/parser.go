package parser

import (
	"encoding/csv"
	"net/url"
	"regexp"
	"strings"

	"github.com/bcsdweb/linkpatrol/internal/model"
)

// defaultDelimiter is linkchecker's CSV delimiter. Sniffing falls back
// to it when the sample is ambiguous.
const defaultDelimiter = ';'

// delimiterCandidates are the delimiters we sniff for, in priority
// order for ties. Semicolon first because that is what linkchecker
// actually emits.
var delimiterCandidates = []rune{';', ',', '|', '\t'}

// Column name spellings seen across linkchecker versions and output
// modes. The first non-empty cell among the aliases wins.
var (
	urlAliases    = []string{"urlname", "url", "realurl"}
	parentAliases = []string{"parentname", "parenturl", "parent"}
	resultAliases = []string{"result", "valid", "warning", "info"}
)

// errorIndicators mark a result string as a true broken link. Matching
// is case-insensitive substring search.
var errorIndicators = []string{
	"404", "500", "502", "503", "timeout", "error", "failed", "invalid", "exception",
}

// validPrefixRe strips the leading "valid:" / "invalid:" marker that
// linkchecker prepends to result text.
var validPrefixRe = regexp.MustCompile(`(?i)^\s*(in)?valid\s*:\s*`)

// ParseIssues parses linkchecker CSV output for one site into sorted
// issue records. Rows that do not represent true broken links (success
// responses, 403 Forbidden) are dropped. The function never fails:
// malformed input simply yields fewer issues, matching the pipeline's
// log-and-continue posture.
func ParseIssues(site, csvText string) []model.Issue {
	// Tolerate non-UTF-8 bytes from the subprocess the same way the
	// raw CSV file is written: replace, never abort.
	csvText = strings.ToValidUTF8(csvText, "�")

	dataLines := dataLines(csvText)
	if len(dataLines) == 0 {
		return nil
	}

	delim := SniffDelimiter(csvText)

	r := csv.NewReader(strings.NewReader(strings.Join(dataLines, "\n")))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var issues []model.Issue
	for _, rec := range records[1:] {
		row := recordMap(header, rec)

		rawURL := pick(row, urlAliases...)
		rawParent := pick(row, parentAliases...)
		rawResult := pick(row, resultAliases...)

		if rawURL == "" && rawResult == "" {
			continue
		}
		if !isBrokenLink(rawResult) {
			continue
		}

		errText := validPrefixRe.ReplaceAllString(rawResult, "")
		if errText == "" {
			errText = "Unknown error"
		}

		foundOn := rawParent
		if foundOn == "" {
			foundOn = site
		}

		issues = append(issues, model.Issue{
			Site:     site,
			ErrorURL: ResolveErrorURL(site, rawParent, rawURL),
			FoundOn:  foundOn,
			Error:    errText,
		})
	}

	model.SortIssues(issues)
	return issues
}

// isBrokenLink reports whether a result string describes a true broken
// link. 403 Forbidden is excluded by policy: it signals an authorization
// boundary, not a dead link. Results with no error indicator are kept
// unless they read like a success response, because unknown states are
// worth a human look.
func isBrokenLink(result string) bool {
	if result == "" {
		// No result column at all; the row made it into the output,
		// so keep it.
		return true
	}
	if strings.Contains(result, "403") || strings.Contains(result, "Forbidden") {
		return false
	}

	lower := strings.ToLower(result)
	for _, indicator := range errorIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}

	if strings.Contains(lower, "success") || strings.Contains(lower, "ok") || result == "True" {
		return false
	}
	return true
}

// ResolveErrorURL resolves a possibly-relative error URL against the
// page it was found on, falling back to the site root when the checker
// reported no parent page. Unparsable inputs pass through unchanged.
func ResolveErrorURL(site, foundOn, errorURL string) string {
	base := foundOn
	if base == "" {
		base = site
	}

	baseURL, err := url.Parse(base)
	if err != nil {
		return errorURL
	}
	ref, err := url.Parse(errorURL)
	if err != nil {
		return errorURL
	}
	return baseURL.ResolveReference(ref).String()
}

// SniffDelimiter guesses the CSV delimiter by counting candidate runes
// in the header line of the comment-stripped sample. Quoted fields are
// rare enough in linkchecker output that a raw count is reliable; ties
// and empty samples fall back to the semicolon default.
func SniffDelimiter(csvText string) rune {
	lines := dataLines(csvText)
	if len(lines) == 0 {
		return defaultDelimiter
	}

	sample := lines[0]
	best := defaultDelimiter
	bestCount := 0
	for _, cand := range delimiterCandidates {
		if n := strings.Count(sample, string(cand)); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}

// dataLines returns the non-empty, non-comment lines of the CSV text.
// linkchecker prefixes its output with "# ..." metadata lines that would
// otherwise confuse both sniffing and header detection.
func dataLines(csvText string) []string {
	var out []string
	for _, ln := range strings.Split(csvText, "\n") {
		if strings.TrimSpace(ln) == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		out = append(out, ln)
	}
	return out
}

// recordMap maps a CSV record onto the lowercased header names.
// Records shorter than the header are padded implicitly; extra cells
// are ignored.
func recordMap(header, record []string) map[string]string {
	row := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(record) {
			row[name] = record[i]
		}
	}
	return row
}

// pick returns the first non-empty, trimmed value among the named
// columns.
func pick(row map[string]string, names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(row[n]); v != "" {
			return v
		}
	}
	return ""
}
