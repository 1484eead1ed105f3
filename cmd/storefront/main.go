// Package main provides the entry point for the storefront CLI.
//
// storefront renders commerce storefront pages the way the browser page
// script does: it classifies each document, decorates it through the
// eager, lazy and delayed phases and reports the preload hints, analytics
// records and product data it produced.
//
// Usage:
//
//	storefront render page.html
//	storefront render --base-url https://shop.example.com /products/bag/adb150
//	storefront index query-index
//
// See --help for all available options.
package main

func main() {
	Execute()
}
