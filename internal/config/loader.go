package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".linkpatrol"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// SiteConfig holds per-site overrides for a single site URL.
type SiteConfig struct {
	// Depth overrides the global recursion depth for this site.
	// If zero, the global depth is used.
	Depth int `yaml:"depth,omitempty"`

	// IgnoreURLs are extra --ignore-url regex patterns applied only
	// when checking this site.
	IgnoreURLs []string `yaml:"ignoreUrls,omitempty"`

	// UserAgent overrides the User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .linkpatrol configuration file.
type File struct {
	// Sites maps site URLs to their overrides.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all sites unless a
	// site-specific entry overrides them again.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the effective configuration for a site,
// merging site-specific values over defaults.
func (cf *File) GetSiteConfig(site string) SiteConfig {
	result := cf.Defaults

	if sc, ok := cf.Sites[site]; ok {
		if sc.Depth != 0 {
			result.Depth = sc.Depth
		}
		if len(sc.IgnoreURLs) > 0 {
			result.IgnoreURLs = sc.IgnoreURLs
		}
		if sc.UserAgent != "" {
			result.UserAgent = sc.UserAgent
		}
	}

	return result
}

// LoadConfigFile loads per-site overrides from a YAML file.
// A missing file yields ErrConfigNotFound; callers decide whether that
// is fatal based on whether the path was explicitly requested.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Sites == nil {
		cf.Sites = make(map[string]SiteConfig)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file:
// an explicit path is used as-is, otherwise .linkpatrol is looked up in
// the current directory and then the home directory. Returns empty
// string when nothing is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}
