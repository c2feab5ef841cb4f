// Package runs manages the on-disk layout of report runs. Each run is
// a directory named by a sortable timestamp under the reports root:
//
//	reports/
//	  2026-03-09_031502/
//	    raw/<slug>.csv     raw linkchecker output per site
//	    sites/<slug>.md    rendered per-site report
//	    issues.json        machine-readable snapshot of all findings
//	    run.log            structured log of the run
//	    summary.md         aggregate report with run-over-run deltas
//
// Run ordering is the lexicographic order of directory names, which is
// what makes "the most recent previous run" a plain sort.
package runs
