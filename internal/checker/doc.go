// Package checker drives the external linkchecker tool. The tool is an
// opaque collaborator: this package's only obligations are argument
// construction, a bounded wait on the subprocess, and interpretation of
// its exit code and CSV stdout. All HTTP fetching, link discovery, and
// recursion live on the other side of the process boundary.
package checker
