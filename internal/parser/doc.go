// Package parser normalizes linkchecker CSV output into issue records.
//
// The external tool's CSV dialect is not stable across versions or
// configurations: the delimiter varies, comment lines appear before the
// header, and column names have several historical spellings. This
// package absorbs all of that, so the rest of the program only ever
// sees the canonical Issue model.
package parser
