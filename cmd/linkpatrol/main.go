// Package main provides the entry point for the linkpatrol CLI.
//
// linkpatrol drives the external LinkChecker tool across the
// district's public websites and turns its CSV output into Markdown
// reports with run-over-run deltas.
//
// Usage:
//
//	linkpatrol check
//	linkpatrol check --sites-file sites.txt --out reports
//
// See --help for all available options.
package main

// main is the entry point for linkpatrol.
func main() {
	Execute()
}
