package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/config"
	"github.com/nao1215/storefront/internal/database"
	"github.com/nao1215/storefront/internal/dom"
	"github.com/nao1215/storefront/internal/httpclient"
	"github.com/nao1215/storefront/internal/index"
	storelog "github.com/nao1215/storefront/internal/log"
	"github.com/nao1215/storefront/internal/report"
)

// defaultBaseURL is the page origin used when no base URL is configured.
const defaultBaseURL = "http://localhost/"

var (
	// errNoBaseURL is returned by commands that need the storefront origin.
	errNoBaseURL = errors.New("no base URL: use --base-url or set " + config.EnvBaseURL)

	// errTargetNotFound is returned for a target that is neither a URL nor
	// an existing file.
	errTargetNotFound = errors.New("target is not a URL or an existing file")
)

// buildConfig creates a Config from the global flags, applies local
// (command flags), then fills what is still unset from the environment and
// the configuration file.
func buildConfig(cmd *cobra.Command, args []string, local func(cfg *config.Config) error) (*config.Config, error) {
	cfg := config.NewConfig()

	fs := cmd.Flags()
	if fs.Lookup("verbose") == nil {
		fs = cmd.Root().PersistentFlags()
	}

	var err error
	if cfg.Verbose, err = fs.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = fs.GetBool("log-json"); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = fs.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.BaseURL, err = fs.GetString("base-url"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = fs.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = fs.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = fs.GetString("db-dir"); err != nil {
		return nil, err
	}
	noDB, err := fs.GetBool("no-db")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noDB

	if local != nil {
		if err := local(cfg); err != nil {
			return nil, err
		}
	}

	if err := config.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.ApplyEnv()

	// If the user explicitly specified a config file path, error if not found.
	// Otherwise run without one.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}
	cfg.ApplySite(hostOf(cfg.BaseURL))

	cfg.Targets = args
	return cfg, nil
}

// hostOf returns the host of rawURL, or "" if it has none.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// setupLogger creates the secure structured logger and makes it the default.
func setupLogger(cfg *config.Config) *slog.Logger {
	logger := storelog.NewLogger(os.Stderr, cfg.Verbose, cfg.LogJSON)
	slog.SetDefault(logger)
	return logger
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// clientOptions returns the HTTP client options for requests to host.
func clientOptions(cfg *config.Config, host string) []httpclient.Option {
	opts := []httpclient.Option{
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithUserAgent(cfg.UserAgent),
		httpclient.WithHeaders(cfg.Headers(host)),
	}
	if cfg.MaxBodySize > 0 {
		opts = append(opts, httpclient.WithMaxBodySize(cfg.MaxBodySize))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, httpclient.WithSOCKS5Proxy(cfg.ProxyAddress))
	}
	return opts
}

// newClient creates the client for the storefront origin.
func newClient(cfg *config.Config) (*httpclient.Client, error) {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	client, err := httpclient.New(base, clientOptions(cfg, hostOf(base))...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// openDB opens the database unless persistence is disabled, in which case
// it returns nil.
func openDB(cfg *config.Config, logger *slog.Logger) (*database.DB, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())
	return db, nil
}

// newIndexCache creates the index cache, persisting to db when it is open.
func newIndexCache(client index.JSONGetter, db *database.DB, cfg *config.Config, logger *slog.Logger) *index.Cache {
	var store index.Store = index.NewMemoryStore()
	if db != nil {
		store = database.NewIndexStore(db)
	}
	return index.NewCache(index.NewHTTPFetcher(client),
		index.WithLogger(logger),
		index.WithStore(store),
		index.WithPageSize(cfg.IndexPageSize),
	)
}

// isURL reports whether target is an absolute http(s) URL.
func isURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// loadTarget loads the document of a render target and returns it with the
// page URL. A target is an absolute URL, a local file, or a path on the
// configured base URL. pageURL overrides the URL of a local file.
func loadTarget(ctx context.Context, client *httpclient.Client, cfg *config.Config, target, pageURL string) (*goquery.Document, string, error) {
	if isURL(target) {
		doc, err := client.GetDocument(ctx, target)
		if err != nil {
			return nil, "", err
		}
		return doc, target, nil
	}

	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		f, err := os.Open(target) //nolint:gosec // User-provided path is intentional
		if err != nil {
			return nil, "", err
		}
		defer f.Close()

		doc, err := dom.Parse(f)
		if err != nil {
			return nil, "", fmt.Errorf("failed to parse %s: %w", target, err)
		}
		if pageURL == "" {
			if pageURL, err = client.Resolve(filePagePath(target)); err != nil {
				return nil, "", err
			}
		}
		return doc, pageURL, nil
	}

	if strings.HasPrefix(target, "/") && cfg.BaseURL != "" {
		doc, err := client.GetDocument(ctx, target)
		if err != nil {
			return nil, "", err
		}
		abs, err := client.Resolve(target)
		if err != nil {
			return nil, "", err
		}
		return doc, abs, nil
	}

	return nil, "", fmt.Errorf("%w: %s", errTargetNotFound, target)
}

// filePagePath derives a page path from a file name: "index.html" is the
// home page and "adb150.html" becomes "/adb150".
func filePagePath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" || name == "index" {
		return "/"
	}
	return "/" + name
}

// openOutput returns the report destination: the report file when one is
// configured, otherwise w. The returned close function is never nil.
func openOutput(cfg *config.Config, w io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return w, func() error { return nil }, nil
	}

	dir := filepath.Dir(cfg.ReportFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	// Reports carry session values and analytics, so they are only readable
	// by the owner.
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

// newReportWriter returns the writer for the configured report format.
func newReportWriter(cfg *config.Config, w io.Writer, verbose bool) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(w, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewSimpleWriter(w, report.WithVerbose(verbose))
	}
}
