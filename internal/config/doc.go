// Package config provides configuration structures and utilities for
// linkpatrol. It defines the run options populated from CLI flags, the
// optional .linkpatrol YAML file with per-site overrides, and the site
// list loading (external file or embedded default).
package config
