package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvBaseURL         = "STOREFRONT_BASE_URL"
	EnvProductEndpoint = "STOREFRONT_PRODUCT_ENDPOINT"
	EnvProductAPIKey   = "STOREFRONT_PRODUCT_API_KEY"
)

// LoadDotEnv loads variables from the given .env files, or from ./.env when
// none are given, into the process environment. Missing files are ignored.
// Variables already present in the environment are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv fills connection settings from the environment. Fields that
// are already set, e.g. by a flag, are kept.
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if *dst != "" {
			return
		}
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(&c.BaseURL, EnvBaseURL)
	set(&c.ProductEndpoint, EnvProductEndpoint)
	set(&c.ProductAPIKey, EnvProductAPIKey)
}
