// Package report renders per-site and summary Markdown reports.
//
// Rendering is separated from the data structures (internal/model) so
// new output formats can be added without touching the issue model.
// The writers use the nao1215/markdown library for fluent, type-safe
// Markdown generation; everything a site publishes ends up inside a
// table cell at some point, so all cell text goes through Escape.
package report
