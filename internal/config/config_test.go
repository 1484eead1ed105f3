package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults should be intentional, so each one is asserted here.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default BatchSize is 4", func(t *testing.T) {
		t.Parallel()
		if cfg.BatchSize != 4 {
			t.Errorf("expected BatchSize to be 4, got %d", cfg.BatchSize)
		}
	})

	t.Run("default IndexPageSize is 500", func(t *testing.T) {
		t.Parallel()
		if cfg.IndexPageSize != 500 {
			t.Errorf("expected IndexPageSize to be 500, got %d", cfg.IndexPageSize)
		}
	})

	t.Run("default DelayedAfter is 3 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.DelayedAfter != 3*time.Second {
			t.Errorf("expected DelayedAfter to be 3s, got %v", cfg.DelayedAfter)
		}
	})

	t.Run("default viewport thresholds", func(t *testing.T) {
		t.Parallel()
		if cfg.Viewport != 1280 {
			t.Errorf("expected Viewport 1280, got %d", cfg.Viewport)
		}
		if cfg.FontThreshold != 900 {
			t.Errorf("expected FontThreshold 900, got %d", cfg.FontThreshold)
		}
		if cfg.MobileBreakpoint != 600 {
			t.Errorf("expected MobileBreakpoint 600, got %d", cfg.MobileBreakpoint)
		}
	})

	t.Run("default language is en", func(t *testing.T) {
		t.Parallel()
		if cfg.Language != "en" {
			t.Errorf("expected Language en, got %q", cfg.Language)
		}
	})

	t.Run("database enabled in XDG data dir", func(t *testing.T) {
		t.Parallel()
		if !cfg.SaveToDB {
			t.Error("expected SaveToDB to be true")
		}
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("session is initialized", func(t *testing.T) {
		t.Parallel()
		if cfg.Session == nil {
			t.Error("expected Session map to be initialized")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case is designed to test one specific validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	validConfig := func() *Config {
		cfg := NewConfig()
		cfg.Targets = []string{"testdata/home.html"}
		return cfg
	}

	t.Run("valid config returns nil", func(t *testing.T) {
		t.Parallel()
		if err := validConfig().ValidateRender(); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("empty targets returns ErrNoTarget for render", func(t *testing.T) {
		t.Parallel()
		cfg := validConfig()
		cfg.Targets = nil

		if err := cfg.ValidateRender(); !errors.Is(err, ErrNoTarget) {
			t.Errorf("expected ErrNoTarget, got %v", err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected Validate to accept no targets, got %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, ErrInvalidTimeout},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }, ErrInvalidBatchSize},
		{"json and markdown", func(c *Config) { c.JSONReport, c.MarkdownReport = true, true }, ErrConflictingReportFormats},
		{"negative max body size", func(c *Config) { c.MaxBodySize = -1 }, ErrInvalidMaxBodySize},
		{"zero page size", func(c *Config) { c.IndexPageSize = 0 }, ErrInvalidPageSize},
		{"zero viewport", func(c *Config) { c.Viewport = 0 }, ErrInvalidViewport},
		{"negative delay", func(c *Config) { c.DelayedAfter = -time.Second }, ErrInvalidDelay},
		{"json only", func(c *Config) { c.JSONReport = true }, nil},
		{"markdown only", func(c *Config) { c.MarkdownReport = true }, nil},
		{"zero delay", func(c *Config) { c.DelayedAfter = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.ValidateRender()
			if tt.want == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

// TestFileGetSiteConfig tests the GetSiteConfig method.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{CodeBasePath: "/cdn", StoreView: "default"},
			Sites:    map[string]SiteConfig{},
		}

		cfg := file.GetSiteConfig("unknown.example.com")
		if cfg.CodeBasePath != "/cdn" {
			t.Errorf("expected code base path /cdn, got %q", cfg.CodeBasePath)
		}
		if cfg.StoreView != "default" {
			t.Errorf("expected store view default, got %q", cfg.StoreView)
		}
	})

	t.Run("site values override defaults", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{StoreView: "default", Language: "en"},
			Sites: map[string]SiteConfig{
				"shop.example.com": {StoreView: "us", ProductEndpoint: "https://catalog.example.com/graphql"},
			},
		}

		cfg := file.GetSiteConfig("shop.example.com")
		if cfg.StoreView != "us" {
			t.Errorf("expected store view us, got %q", cfg.StoreView)
		}
		if cfg.ProductEndpoint != "https://catalog.example.com/graphql" {
			t.Errorf("unexpected product endpoint %q", cfg.ProductEndpoint)
		}
		if cfg.Language != "en" {
			t.Errorf("expected default language en, got %q", cfg.Language)
		}
	})

	t.Run("merges headers from defaults and site", func(t *testing.T) {
		t.Parallel()

		file := &File{
			Defaults: SiteConfig{Headers: map[string]string{"Magento-Environment-Id": "env-1", "X-Default": "value1"}},
			Sites: map[string]SiteConfig{
				"shop.example.com": {Headers: map[string]string{"Magento-Environment-Id": "env-2"}},
			},
		}

		cfg := file.GetSiteConfig("shop.example.com")
		if cfg.Headers["X-Default"] != "value1" {
			t.Errorf("expected default header, got %v", cfg.Headers)
		}
		if cfg.Headers["Magento-Environment-Id"] != "env-2" {
			t.Errorf("expected site header to override, got %v", cfg.Headers)
		}
		if file.Defaults.Headers["Magento-Environment-Id"] != "env-1" {
			t.Error("merging must not modify the defaults")
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		file := &File{Defaults: SiteConfig{Language: "de"}}
		if cfg := file.GetSiteConfig("any.example.com"); cfg.Language != "de" {
			t.Errorf("expected language de, got %q", cfg.Language)
		}
	})
}

// TestApplySite tests that flags win over the configuration file.
func TestApplySite(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Headers: map[string]string{"Store": "default"},
		},
		Sites: map[string]SiteConfig{
			"shop.example.com": {
				ProductEndpoint: "https://catalog.example.com/graphql",
				CodeBasePath:    "/site",
				StoreView:       "us",
				Language:        "fr",
			},
		},
	}

	t.Run("fills unset values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.ApplySite("shop.example.com")

		if cfg.ProductEndpoint != "https://catalog.example.com/graphql" {
			t.Errorf("unexpected product endpoint %q", cfg.ProductEndpoint)
		}
		if cfg.CodeBasePath != "/site" || cfg.StoreView != "us" || cfg.Language != "fr" {
			t.Errorf("unexpected site values: %q %q %q", cfg.CodeBasePath, cfg.StoreView, cfg.Language)
		}
	})

	t.Run("keeps flag values", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.CodeBasePath = "/flag"
		cfg.Language = "ja"
		cfg.ApplySite("shop.example.com")

		if cfg.CodeBasePath != "/flag" {
			t.Errorf("expected flag code base path, got %q", cfg.CodeBasePath)
		}
		if cfg.Language != "ja" {
			t.Errorf("expected flag language, got %q", cfg.Language)
		}
	})

	t.Run("headers include api key", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.SiteConfigs = file
		cfg.ProductAPIKey = "secret"

		headers := cfg.Headers("shop.example.com")
		if headers["Store"] != "default" {
			t.Errorf("expected default header, got %v", headers)
		}
		if headers["x-api-key"] != "secret" {
			t.Errorf("expected api key header, got %v", headers)
		}
	})

	t.Run("no configuration file", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.ApplySite("shop.example.com")
		if cfg.CodeBasePath != "" {
			t.Errorf("expected empty code base path, got %q", cfg.CodeBasePath)
		}
		if len(cfg.Headers("shop.example.com")) != 0 {
			t.Error("expected no headers")
		}
	})
}

// TestApplyEnv tests environment overrides.
func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvBaseURL:         "https://shop.example.com",
		EnvProductEndpoint: "https://catalog.example.com/graphql",
		EnvProductAPIKey:   "key-123",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	t.Run("fills empty fields", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.applyEnv(lookup)

		if cfg.BaseURL != "https://shop.example.com" {
			t.Errorf("unexpected base URL %q", cfg.BaseURL)
		}
		if cfg.ProductEndpoint != "https://catalog.example.com/graphql" {
			t.Errorf("unexpected product endpoint %q", cfg.ProductEndpoint)
		}
		if cfg.ProductAPIKey != "key-123" {
			t.Errorf("unexpected api key %q", cfg.ProductAPIKey)
		}
	})

	t.Run("keeps values already set", func(t *testing.T) {
		t.Parallel()

		cfg := NewConfig()
		cfg.BaseURL = "https://flag.example.com"
		cfg.applyEnv(lookup)

		if cfg.BaseURL != "https://flag.example.com" {
			t.Errorf("expected flag base URL, got %q", cfg.BaseURL)
		}
	})
}

// TestLoadDotEnv tests .env loading.
func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file is ignored", func(t *testing.T) {
		if err := LoadDotEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("expected no error, got %v", err)
		}
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		content := "STOREFRONT_TEST_DOTENV=loaded\n"
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write .env: %v", err)
		}
		t.Setenv("STOREFRONT_TEST_DOTENV", "")
		if err := os.Unsetenv("STOREFRONT_TEST_DOTENV"); err != nil {
			t.Fatalf("failed to unset: %v", err)
		}

		if err := LoadDotEnv(path); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := os.Getenv("STOREFRONT_TEST_DOTENV"); got != "loaded" {
			t.Errorf("expected loaded, got %q", got)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.storefront")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".storefront")
		content := `defaults:
  codeBasePath: "/cdn"
  headers:
    Magento-Store-Code: "main"
sites:
  shop.example.com:
    productEndpoint: "https://catalog.example.com/graphql"
    storeView: "us"
    language: "fr"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Defaults.CodeBasePath != "/cdn" {
			t.Errorf("expected default code base path, got %q", cfg.Defaults.CodeBasePath)
		}
		if cfg.Defaults.Headers["Magento-Store-Code"] != "main" {
			t.Errorf("expected default header, got %v", cfg.Defaults.Headers)
		}
		site, ok := cfg.Sites["shop.example.com"]
		if !ok {
			t.Fatal("expected shop.example.com in sites")
		}
		if site.StoreView != "us" || site.Language != "fr" {
			t.Errorf("unexpected site config %+v", site)
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".storefront")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".storefront")
		if err := os.WriteFile(configPath, []byte("defaults:\n  language: en\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	for name, dir := range map[string]string{
		"data":   XDGDataDir(),
		"config": XDGConfigDir(),
		"cache":  XDGCacheDir(),
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			if filepath.Base(dir) != AppName {
				t.Errorf("expected %s dir to end in %q, got %q", name, AppName, dir)
			}
		})
	}
}
