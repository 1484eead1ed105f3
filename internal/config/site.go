package config

import "maps"

// SiteConfig holds the settings for one storefront host.
type SiteConfig struct {
	// Headers are custom HTTP headers sent with every request to this host,
	// e.g. commerce environment or store codes.
	Headers map[string]string `yaml:"headers,omitempty"`

	// ProductEndpoint is the catalog service URL for this host.
	ProductEndpoint string `yaml:"productEndpoint,omitempty"`

	// CodeBasePath prefixes asset paths for this host.
	CodeBasePath string `yaml:"codeBasePath,omitempty"`

	// StoreView prefixes the view history session keys.
	StoreView string `yaml:"storeView,omitempty"`

	// Language overrides the document language for this host.
	Language string `yaml:"language,omitempty"`
}

// File represents the structure of the .storefront configuration file.
type File struct {
	// Sites maps host names (e.g. "shop.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every host unless the host overrides them.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for host, merged over the
// defaults. Header maps are merged key by key.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.Sites[host]
	if !ok {
		return result
	}
	if site.ProductEndpoint != "" {
		result.ProductEndpoint = site.ProductEndpoint
	}
	if site.CodeBasePath != "" {
		result.CodeBasePath = site.CodeBasePath
	}
	if site.StoreView != "" {
		result.StoreView = site.StoreView
	}
	if site.Language != "" {
		result.Language = site.Language
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		maps.Copy(result.Headers, site.Headers)
	}
	return result
}
