package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/config"
	"github.com/nao1215/storefront/internal/model"
	"github.com/nao1215/storefront/internal/product"
)

// errNoProductEndpoint is returned by --sku without a catalog service.
var errNoProductEndpoint = errors.New("no product endpoint: use --product-endpoint or set " + config.EnvProductEndpoint)

// NewProductCmd creates the product command.
func NewProductCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "product [target]",
		Short: "Print the normalized product record of a page",
		Long: `Product reads the product data embedded in a product page (metadata,
variant options, price cells and images) and prints the normalized record
as JSON.

With --sku the record is fetched from the catalog service instead.

Examples:
  # Normalize the product embedded in a saved page
  storefront product --page-url https://shop.example.com/products/bag/adb150 page.html

  # Normalize a live page
  storefront product https://shop.example.com/products/bag/adb150

  # Fetch a product from the catalog service
  storefront product --product-endpoint https://catalog.example.com/graphql --sku ADB150`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProductCmd,
	}

	cmd.Flags().StringP("sku", "s", "", "Fetch this SKU from the catalog service")
	cmd.Flags().String("product-endpoint", "",
		"Catalog service URL (env: "+config.EnvProductEndpoint+")")
	cmd.Flags().String("page-url", "", "Page URL of a local file target, used to resolve image URLs")
	cmd.Flags().Bool("strict-currency", false, "Reject products whose variants mix currencies")

	return cmd
}

// runProductCmd executes the product command.
func runProductCmd(cmd *cobra.Command, args []string) error {
	var sku, pageURL string
	cfg, err := buildConfig(cmd, args, func(cfg *config.Config) error {
		var err error
		if sku, err = cmd.Flags().GetString("sku"); err != nil {
			return err
		}
		if pageURL, err = cmd.Flags().GetString("page-url"); err != nil {
			return err
		}
		if cfg.ProductEndpoint, err = cmd.Flags().GetString("product-endpoint"); err != nil {
			return err
		}
		cfg.StrictCurrency, err = cmd.Flags().GetBool("strict-currency")
		return err
	})
	if err != nil {
		return err
	}
	if sku == "" && len(cfg.Targets) == 0 {
		return errors.New("a target or --sku is required")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	ctx, cancel := signalContext(logger)
	defer cancel()

	var rec *model.ProductRecord
	if sku != "" {
		rec, err = fetchProduct(ctx, cfg, sku, logger)
	} else {
		rec, err = parseProduct(ctx, cfg, cfg.Targets[0], pageURL, logger)
	}
	if err != nil {
		return err
	}
	return writeProduct(cmd.OutOrStdout(), rec)
}

// fetchProduct asks the catalog service for sku.
func fetchProduct(ctx context.Context, cfg *config.Config, sku string, logger *slog.Logger) (*model.ProductRecord, error) {
	if cfg.ProductEndpoint == "" {
		return nil, errNoProductEndpoint
	}
	svc, err := newProductService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc.Product(ctx, sku)
}

// parseProduct normalizes the product embedded in target.
func parseProduct(ctx context.Context, cfg *config.Config, target, pageURL string, logger *slog.Logger) (*model.ProductRecord, error) {
	client, err := newClient(cfg)
	if err != nil {
		return nil, err
	}
	doc, rawURL, err := loadTarget(ctx, client, cfg, target, pageURL)
	if err != nil {
		return nil, err
	}
	if !product.HasEmbeddedProduct(doc) {
		return nil, fmt.Errorf("%s has no embedded product data", target)
	}

	base, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", rawURL, err)
	}
	n := product.NewNormalizer(
		product.WithLogger(logger),
		product.WithBaseURL(base),
		product.WithStrictCurrency(cfg.StrictCurrency),
	)
	return n.Parse(doc)
}

// writeProduct prints rec as indented JSON.
func writeProduct(w io.Writer, rec *model.ProductRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
