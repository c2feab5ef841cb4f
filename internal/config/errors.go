package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Package-level sentinels so callers can use errors.Is while the
// messages stay human-readable.
var (
	// ErrNoSites is returned when the site list resolved to nothing:
	// an empty --sites-file and no embedded defaults.
	ErrNoSites = errors.New("no sites to check: site list is empty")

	// ErrInvalidDepth is returned for a negative recursion depth.
	// Zero is valid and means "check only the start page".
	ErrInvalidDepth = errors.New("invalid depth: must be non-negative")

	// ErrInvalidThreads is returned when the linkchecker thread count
	// is not positive.
	ErrInvalidThreads = errors.New("invalid threads: must be positive")

	// ErrInvalidTimeout is returned when the per-request timeout is
	// not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the site concurrency is
	// not positive. Use 1 for sequential checking.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")
)
