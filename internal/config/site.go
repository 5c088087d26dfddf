package config

// SiteConfig holds per-host overrides for crawl behavior.
// Some sites need custom headers to serve real markup, or a different image
// cap; keeping these in a config file avoids an ever-growing flag surface.
type SiteConfig struct {
	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Headers are custom HTTP headers to include in requests to this host.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxImages overrides the global per-page image cap for this host.
	// If zero, the global cap is used.
	MaxImages int `yaml:"maxImages,omitempty"`
}

// File represents the structure of the .webcrawler configuration file.
type File struct {
	// Sites maps host names to their overrides (e.g., "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to all hosts unless a
	// site-specific entry replaces them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific host.
// It merges the host-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with host-specific configuration if present
	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
		if siteConfig.MaxImages != 0 {
			result.MaxImages = siteConfig.MaxImages
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string)
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}
