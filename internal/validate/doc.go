// Package validate cross-checks run findings against curated
// known-broken-links CSV files.
//
// A file named known*brokenlinks.csv whose content mentions a site's
// host is treated as the expected finding set for that site. After a
// check, the findings are compared against it by (error URL, found-on)
// and any misses or unexpected findings are logged. The comparison is
// purely diagnostic and never changes reports or the exit code.
package validate
