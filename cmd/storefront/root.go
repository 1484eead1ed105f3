package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/storefront/internal/config"
)

// NewRootCmd creates the root command for storefront.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storefront",
		Short: "Render commerce storefront pages and report what they load",
		Long: `storefront renders commerce storefront pages outside the browser.

Each page is classified (CMS, product, category, cart or checkout),
decorated into sections and blocks and taken through the eager,
lazy and delayed phases. The report lists the preload hints, the analytics
data layer and the normalized product record.

Settings come from flags, the environment (STOREFRONT_BASE_URL,
STOREFRONT_PRODUCT_ENDPOINT, STOREFRONT_PRODUCT_API_KEY, also read from
.env) and the .storefront configuration file, in that order of precedence.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.StringP("config", "c", "",
		"Configuration file path (default: .storefront in current or home directory)")
	flags.StringP("base-url", "u", "",
		"Storefront origin pages and indexes are resolved against (env: "+config.EnvBaseURL+")")
	flags.Duration("timeout", config.DefaultTimeout, "Timeout for each request")
	flags.String("proxy", "", "SOCKS5 proxy address for outbound requests (host:port)")
	flags.String("db-dir", config.XDGDataDir(), "Directory of the storefront database")
	flags.Bool("no-db", false, "Do not read or write the storefront database")

	cmd.AddCommand(NewRenderCmd())
	cmd.AddCommand(NewIndexCmd())
	cmd.AddCommand(NewProductCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
