package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "storefront"

	// DefaultTimeout bounds each request to the content and catalog
	// services.
	DefaultTimeout = 30 * time.Second

	// DefaultBatchSize is the number of pages rendered concurrently.
	DefaultBatchSize = 4

	// DefaultIndexPageSize is the number of records requested per index page.
	DefaultIndexPageSize = 500

	// DefaultIndexPages caps how many pages "storefront index" loads.
	DefaultIndexPages = 20

	// DefaultDelayedAfter is how long after the lazy phase starts the
	// delayed phase runs.
	DefaultDelayedAfter = 3 * time.Second

	// DefaultViewport is the simulated viewport width in pixels.
	DefaultViewport = 1280

	// DefaultFontThreshold is the viewport width from which fonts load
	// during the eager phase.
	DefaultFontThreshold = 900

	// DefaultMobileBreakpoint splits the mobile and desktop audiences.
	DefaultMobileBreakpoint = 600

	// DefaultLanguage is the document language when none is configured.
	DefaultLanguage = "en"

	// DefaultUserAgent identifies the renderer in HTTP requests.
	DefaultUserAgent = "storefront/1.0 (+https://github.com/nao1215/storefront)"

	// DefaultMaxBodySize limits the response body size to read.
	DefaultMaxBodySize = 5 * 1024 * 1024
)

// Config holds all configuration options for storefront.
// It is populated from defaults, the configuration file, the environment
// and CLI flags, in that order, and passed through the application rather
// than kept in global state.
//
// Design decision: a single flat struct. The options are few enough that
// nesting would add ceremony without clarity.
type Config struct {
	// BaseURL is the storefront origin that page paths, indexes and assets
	// are resolved against.
	BaseURL string

	// ProductEndpoint is the catalog service URL product pages without
	// embedded data query. Empty disables remote product lookups.
	ProductEndpoint string

	// ProductAPIKey is sent as x-api-key to the catalog service.
	ProductAPIKey string

	// ProxyAddress routes outbound requests through a SOCKS5 proxy at
	// "host:port" when set.
	ProxyAddress string

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON selects JSON log output.
	LogJSON bool

	// BatchSize is the number of pages rendered concurrently.
	BatchSize int

	// Viewport is the simulated viewport width in pixels.
	Viewport int

	// Language is the document language, or "auto" to detect it.
	Language string

	// FontThreshold is the viewport width from which fonts load eagerly.
	FontThreshold int

	// MobileBreakpoint splits the mobile and desktop audiences.
	MobileBreakpoint int

	// DelayedAfter is the delay before the delayed phase.
	DelayedAfter time.Duration

	// CodeBasePath prefixes script, style and block asset paths.
	CodeBasePath string

	// StoreView prefixes the view history session keys.
	StoreView string

	// StrictCurrency rejects products whose variants mix currencies.
	StrictCurrency bool

	// IndexPageSize is the number of records requested per index page.
	IndexPageSize int

	// IndexPages caps the number of index pages loaded by one command.
	IndexPages int

	// Session seeds the visitor session, e.g. fonts-loaded=true.
	Session map[string]string

	// JSONReport enables JSON report output. Mutually exclusive with
	// MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive
	// with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// OutputDir receives the rendered HTML of every page when set.
	OutputDir string

	// DBDir is the directory of the SQLite database.
	DBDir string

	// SaveToDB persists index snapshots and render reports.
	SaveToDB bool

	// ConfigFilePath is the path of the configuration file. If empty, the
	// current and home directories are searched for .storefront.
	ConfigFilePath string

	// SiteConfigs holds the configuration file, if one was loaded.
	SiteConfigs *File

	// Targets are the file paths or URLs to render.
	Targets []string
}

// NewConfig creates a new Config with default values.
//
// Design decision: a constructor rather than zero values, because most
// defaults are non-zero, and this doubles as the list of defaults.
func NewConfig() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		MaxBodySize:      DefaultMaxBodySize,
		UserAgent:        DefaultUserAgent,
		BatchSize:        DefaultBatchSize,
		Viewport:         DefaultViewport,
		Language:         DefaultLanguage,
		FontThreshold:    DefaultFontThreshold,
		MobileBreakpoint: DefaultMobileBreakpoint,
		DelayedAfter:     DefaultDelayedAfter,
		IndexPageSize:    DefaultIndexPageSize,
		IndexPages:       DefaultIndexPages,
		Session:          make(map[string]string),
		DBDir:            XDGDataDir(),
		SaveToDB:         true,
	}
}

// XDGDataDir returns the XDG data directory for storefront.
// On Linux: ~/.local/share/storefront
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for storefront.
// On Linux: ~/.config/storefront
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for storefront.
// On Linux: ~/.cache/storefront
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the options shared by every command and returns the
// first problem found as a sentinel error.
//
// Design decision: validate once after flag parsing to fail fast, rather
// than at each point of use.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.IndexPageSize <= 0 {
		return ErrInvalidPageSize
	}
	if c.Viewport <= 0 {
		return ErrInvalidViewport
	}
	if c.DelayedAfter < 0 {
		return ErrInvalidDelay
	}
	return nil
}

// ValidateRender additionally requires at least one render target.
func (c *Config) ValidateRender() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}
	return c.Validate()
}

// ApplySite overlays the configuration file settings for host. Values
// already set by flags win over the file.
func (c *Config) ApplySite(host string) {
	if c.SiteConfigs == nil {
		return
	}
	site := c.SiteConfigs.GetSiteConfig(host)
	if c.ProductEndpoint == "" {
		c.ProductEndpoint = site.ProductEndpoint
	}
	if c.CodeBasePath == "" {
		c.CodeBasePath = site.CodeBasePath
	}
	if c.StoreView == "" {
		c.StoreView = site.StoreView
	}
	if site.Language != "" && c.Language == DefaultLanguage {
		c.Language = site.Language
	}
}

// Headers returns the headers for requests to host: the configuration
// file headers plus the product API key.
func (c *Config) Headers(host string) map[string]string {
	headers := make(map[string]string)
	if c.SiteConfigs != nil {
		for k, v := range c.SiteConfigs.GetSiteConfig(host).Headers {
			headers[k] = v
		}
	}
	if c.ProductAPIKey != "" {
		headers["x-api-key"] = c.ProductAPIKey
	}
	return headers
}
