package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ppiankov/coverscan/internal/export"
	"github.com/ppiankov/coverscan/internal/logging"
	"github.com/ppiankov/coverscan/internal/model"
	"github.com/ppiankov/coverscan/internal/pipeline"
	"github.com/ppiankov/coverscan/internal/store"
	"github.com/ppiankov/coverscan/internal/store/sqlite"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	countriesFile string
	outPath       string
	runTimeout    time.Duration
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape [country-slug...]",
	Short: "Scrape cover policies for a list of countries",
	Long: `Scrape fetches each country page in order, extracts the risk
classification and the cover policy per buyer type, and writes one row per
requested country.

Country slugs follow the site's URL scheme (lowercase, hyphenated).
Unknown countries are reported as "Country Not Found"; pages that cannot be
fetched are logged and reported as "Fetch Failed".

Example:
  coverscan scrape japan united-kingdom germany
  coverscan scrape --file countries.txt --format csv
  coverscan scrape india --out india.json --format json --db runs.db`,
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	defaults := model.DefaultConfig()
	flags := scrapeCmd.Flags()

	// Input flags
	flags.StringVarP(&countriesFile, "file", "f", "", "read country slugs from file (one per line)")

	// Site and HTTP flags
	flags.String("base-url", defaults.Site.BaseURL, "country pages base URL")
	flags.Duration("timeout", defaults.HTTP.Timeout, "per-request timeout")
	flags.String("ua", defaults.HTTP.UserAgent, "HTTP User-Agent")
	flags.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	flags.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
	flags.Float64("rps", defaults.RateLimiting.RequestsPerSecond, "max requests per second to the site (0 = unlimited)")
	flags.Bool("respect-robots", defaults.Robots.Respect, "honour robots.txt")
	flags.DurationVar(&runTimeout, "run-timeout", 10*time.Minute, "overall timeout for the whole run")

	// Output flags
	flags.String("output-dir", defaults.Output.Dir, "output directory")
	flags.String("format", defaults.Output.Format, "output format (xlsx, csv, json)")
	flags.StringVarP(&outPath, "out", "o", "", "output file path (default: <output-dir>/Final_<countries>.<format>)")
	flags.Bool("summary", defaults.Output.Summary, "print the records to stdout")
	flags.Bool("normalize-merge", defaults.Merge.Normalize, "merge periods whose policies differ only in case or whitespace")
	flags.String("db", "", "SQLite database to archive the run in (empty disables)")

	bindFlags(scrapeCmd, map[string]string{
		"base-url":        "site.base_url",
		"timeout":         "http.timeout",
		"ua":              "http.user_agent",
		"http-proxy":      "http.http_proxy",
		"https-proxy":     "http.https_proxy",
		"rps":             "rate_limiting.requests_per_second",
		"respect-robots":  "robots.respect",
		"output-dir":      "output.dir",
		"format":          "output.format",
		"summary":         "output.summary",
		"normalize-merge": "merge.normalize",
		"db":              "store.path",
	})
}

func bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		_ = viper.BindPFlag(key, cmd.Flags().Lookup(flag))
	}
}

func runScrape(cmd *cobra.Command, args []string) error {
	slugs, err := collectSlugs(args, countriesFile)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, cfg.Log, verbose)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	return scrape(ctx, cfg, slugs, pipeline.NewPipeline(cfg, logger), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// collectSlugs merges positional slugs with those read from a file, keeping order
func collectSlugs(args []string, file string) ([]string, error) {
	var slugs []string
	for _, a := range args {
		if s := pipeline.NormalizeSlug(a); s != "" {
			slugs = append(slugs, s)
		}
	}

	if file != "" {
		fromFile, err := pipeline.ReadSlugsFromFile(file)
		if err != nil {
			return nil, fmt.Errorf("read countries: %w", err)
		}
		slugs = append(slugs, fromFile...)
	}

	if len(slugs) == 0 {
		return nil, fmt.Errorf("no countries given: pass slugs as arguments or use --file")
	}
	return slugs, nil
}

// countryScraper is the part of the pipeline the command drives
type countryScraper interface {
	ScrapeCountries(ctx context.Context, slugs []string) ([]pipeline.CountryResult, error)
}

func scrape(ctx context.Context, cfg *model.Config, slugs []string, p countryScraper, stdout, stderr io.Writer) error {
	format, err := export.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = export.OutputPath(cfg.Output.Dir, slugs, format)
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Coverscan\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Countries:  %s\n", strings.Join(slugs, ", "))
	fmt.Fprintf(stderr, "  Source:     %s\n", cfg.Site.BaseURL)
	fmt.Fprintf(stderr, "  Output:     %s\n", path)
	fmt.Fprintf(stderr, "\n")

	startedAt := time.Now().UTC()

	results, err := p.ScrapeCountries(ctx, slugs)
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}

	scraped, notFound, failed := 0, 0, 0
	for _, r := range results {
		switch r.Outcome {
		case pipeline.OutcomeScraped:
			scraped++
			fmt.Fprintf(stderr, "✓ %s (risk: %s)\n", r.Slug, r.Record.RiskClassification)
		case pipeline.OutcomeNotFound:
			notFound++
			fmt.Fprintf(stderr, "✗ %s: country not found\n", r.Slug)
		case pipeline.OutcomeFetchFailed:
			failed++
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Slug, r.Err)
		}
	}

	records := pipeline.Records(results)

	if err := export.Write(path, format, records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if cfg.Output.Summary {
		fmt.Fprintln(stdout)
		if err := export.RenderSummary(stdout, records); err != nil {
			return fmt.Errorf("render summary: %w", err)
		}
	}

	if err := archiveRun(ctx, cfg.Store.Path, store.Run{
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		SourceURL:  cfg.Site.BaseURL,
		OutputPath: path,
		Records:    records,
	}); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Scrape Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:      %d countries\n", len(results))
	fmt.Fprintf(stderr, "  Scraped:    %d\n", scraped)
	fmt.Fprintf(stderr, "  Not found:  %d\n", notFound)
	fmt.Fprintf(stderr, "  Failures:   %d\n", failed)
	fmt.Fprintf(stderr, "  Output:     %s\n", path)
	fmt.Fprintf(stderr, "\n")

	return nil
}

func openStore(path string) (store.Store, error) {
	if path == "" {
		return &store.NopStore{}, nil
	}
	s, err := sqlite.New(path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return s, nil
}

func archiveRun(ctx context.Context, path string, run store.Run) (err error) {
	st, err := openStore(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close store: %w", closeErr)
		}
	}()

	if _, err := st.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}
