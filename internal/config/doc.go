// Package config provides configuration structures and utilities for
// storefront. It defines the renderer settings, the per-host configuration
// file, environment overrides and report preferences.
package config
