package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/user/bookscraper-service/internal/browser"
	"github.com/user/bookscraper-service/internal/config"
	"github.com/user/bookscraper-service/internal/scrape"
	"github.com/user/bookscraper-service/internal/sites"
	"github.com/user/bookscraper-service/internal/validate"
	"github.com/user/bookscraper-service/pkg/logger"
)

var scrapeJSON bool

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape one product page and print the record",
	Long: `Scrape runs the full pipeline once for the given product URL and prints
the resulting record to stdout.

Examples:
  scraper scrape https://www.thalia.de/shop/home/artikeldetails/A1070160481
  scraper scrape https://www.hugendubel.de/de/buch_gebunden/... --json`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeJSON, "json", false, "Print the record as indented JSON")
	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("could not load config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	required, err := validate.ParseFields(cfg.RequiredFields)
	if err != nil {
		return fmt.Errorf("invalid REQUIRED_FIELDS: %w", err)
	}

	table, err := sites.Load()
	if err != nil {
		return fmt.Errorf("load site profiles: %w", err)
	}

	br := browser.New(browser.Options{
		Headless:   cfg.Headless,
		NavTimeout: cfg.NavTimeout(),
		RenderWait: cfg.RenderWait(),
	}, log)
	defer br.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmCtx, cancelWarm := context.WithTimeout(ctx, 30*time.Second)
	err = br.Warmup(warmCtx)
	cancelWarm()
	if err != nil {
		return err
	}

	scraper := scrape.New(table, br, validate.New(required), nil, scrape.Config{
		MaxRetries:     cfg.ScrapeMaxRetries,
		RetryBaseDelay: cfg.RetryBaseDelay(),
		Deadline:       cfg.ScrapeDeadline(),
	})

	res, err := scraper.Scrape(ctx, args[0])
	if err != nil {
		return err
	}

	if scrapeJSON {
		out, err := json.MarshalIndent(res.Record, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printRecord(os.Stdout, res)
	return nil
}

// recordRows flattens the result into label/value pairs for the table.
func recordRows(res *scrape.Result) [][2]string {
	rec := res.Record

	series := rec.Series
	if rec.SeriesNumber > 0 {
		if series == "" {
			series = fmt.Sprintf("Band %d", rec.SeriesNumber)
		} else {
			series = fmt.Sprintf("%s (Band %d)", series, rec.SeriesNumber)
		}
	}

	isbn := rec.ISBN
	if rec.ISBNClean != "" {
		isbn = rec.ISBNClean
	}
	ean := rec.EAN
	if rec.EANClean != "" {
		ean = rec.EANClean
	}

	description := strings.Join(strings.Fields(rec.Description), " ")
	description = runewidth.Truncate(description, 100, "…")

	return [][2]string{
		{"Quelle", res.Site},
		{"URL", res.URL},
		{"Ergebnis", string(res.Outcome)},
		{"Versuche", strconv.Itoa(res.Attempts)},
		{"Titel", rec.Title},
		{"Untertitel", rec.Subtitle},
		{"Autor", rec.Author},
		{"Reihe", series},
		{"Beschreibung", description},
		{"Einband", rec.Format},
		{"Preis", rec.Price},
		{"ISBN", isbn},
		{"EAN", ean},
		{"Verlag", rec.Publisher},
		{"Erscheinungsdatum", rec.PublicationDate},
		{"Sprache", rec.Language},
		{"Seitenzahl", rec.PageCount},
		{"Cover", rec.CoverURL},
		{"Kategorien", strings.Join(rec.Categories, " > ")},
		{"Hinweis", rec.ValidationWarning},
	}
}

// printRecord writes the aligned field table. Padding uses display
// width, not byte length, so values after non-ASCII text stay straight.
func printRecord(w io.Writer, res *scrape.Result) {
	rows := recordRows(res)

	width := 0
	for _, row := range rows {
		if l := runewidth.StringWidth(row[0]); l > width {
			width = l
		}
	}

	for _, row := range rows {
		value := row[1]
		if value == "" {
			value = "-"
		}
		padding := strings.Repeat(" ", width-runewidth.StringWidth(row[0]))
		fmt.Fprintf(w, "%s%s  %s\n", row[0], padding, value)
	}
}
