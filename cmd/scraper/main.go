// Command scraper runs the book metadata extraction service, either as
// the HTTP service or as a one-shot scrape of a single product URL.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scraper",
	Short: "Extract book metadata from German retail product pages",
	Long: `scraper renders product detail pages of the supported retailers in a
headless browser, extracts book metadata from every available source on
the page, and reconciles them into a single record.

Usage:
  scraper serve
  scraper scrape <url> [--json]`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
