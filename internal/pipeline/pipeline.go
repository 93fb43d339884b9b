package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/coverscan/internal/extract"
	"github.com/ppiankov/coverscan/internal/model"
	"github.com/ppiankov/coverscan/internal/util"
)

// PageFetcher retrieves a page by URL
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Outcome describes how a country's record was produced
type Outcome string

const (
	OutcomeScraped     Outcome = "scraped"
	OutcomeNotFound    Outcome = "not_found"
	OutcomeFetchFailed Outcome = "fetch_failed"
)

// CountryResult is the record for one requested country plus how it was obtained
type CountryResult struct {
	Slug    string
	URL     string
	Outcome Outcome
	Record  model.CountryRecord
	Err     error // Set for OutcomeFetchFailed
}

// Pipeline scrapes country pages one after another
type Pipeline struct {
	fetcher   PageFetcher
	extractor *extract.PolicyExtractor
	site      model.SiteConfig
	same      extract.Comparer
	logger    *slog.Logger
}

// NewPipeline creates a pipeline with a rate-limited, robots-aware fetcher
func NewPipeline(cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	limiter := util.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for _, hr := range cfg.RateLimiting.PerHost {
		limiter.SetHostRate(hr.Host, hr.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	}

	var robots *util.RobotsChecker
	if cfg.Robots.Respect {
		robots = util.NewRobotsChecker(cfg.HTTP, cfg.Robots.TTL, logger)
	}

	return NewPipelineWithFetcher(NewFetcher(cfg.HTTP, limiter, robots), cfg, logger)
}

// NewPipelineWithFetcher creates a pipeline around an existing fetcher
func NewPipelineWithFetcher(fetcher PageFetcher, cfg *model.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		fetcher:   fetcher,
		extractor: extract.NewPolicyExtractor(),
		site:      cfg.Site,
		same:      extract.ComparerFor(cfg.Merge),
		logger:    logger,
	}
}

// ScrapeCountries scrapes every slug in order and returns one result per slug,
// in the same order. Fetch failures and unknown countries become sentinel
// records; an extraction error stops the run and is returned.
func (p *Pipeline) ScrapeCountries(ctx context.Context, slugs []string) ([]CountryResult, error) {
	results := make([]CountryResult, 0, len(slugs))

	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := p.ScrapeCountry(ctx, slug)
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}

	return results, nil
}

// ScrapeCountry fetches and extracts a single country page
func (p *Pipeline) ScrapeCountry(ctx context.Context, slug string) (*CountryResult, error) {
	pageURL := CountryURL(p.site.BaseURL, slug)
	log := p.logger.With("country", slug, "url", pageURL)
	log.Debug("fetching country page")

	page, err := p.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		kind := FetchErrorOther
		var fetchErr *FetchError
		if errors.As(err, &fetchErr) {
			kind = fetchErr.Kind

			// An error status still has a final URL; the site root answering
			// with an error is an unknown country, not a failed fetch
			if fetchErr.FinalURL != "" && IsNotFound(fetchErr.FinalURL, p.site.NotFoundURL) {
				log.Info("country not found", "final_url", fetchErr.FinalURL, "status", fetchErr.StatusCode)
				return &CountryResult{
					Slug:    slug,
					URL:     pageURL,
					Outcome: OutcomeNotFound,
					Record:  model.NotFoundRecord(slug),
				}, nil
			}
		}
		log.Warn("fetch failed", "kind", string(kind), "error", err)

		return &CountryResult{
			Slug:    slug,
			URL:     pageURL,
			Outcome: OutcomeFetchFailed,
			Record:  model.FetchFailedRecord(slug),
			Err:     err,
		}, nil
	}

	if IsNotFound(page.FinalURL, p.site.NotFoundURL) {
		log.Info("country not found", "final_url", page.FinalURL)
		return &CountryResult{
			Slug:    slug,
			URL:     pageURL,
			Outcome: OutcomeNotFound,
			Record:  model.NotFoundRecord(slug),
		}, nil
	}

	log.Debug("country page fetched", "status", page.StatusCode, "bytes", len(page.HTML))
	if page.Truncated {
		log.Warn("page body truncated, policy table may be incomplete", "max_bytes", len(page.HTML))
	}

	extracted, err := p.extractor.Extract(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", slug, err)
	}

	return &CountryResult{
		Slug:    slug,
		URL:     pageURL,
		Outcome: OutcomeScraped,
		Record:  BuildRecord(slug, extracted, p.same),
	}, nil
}

// BuildRecord flattens an extraction result into a country record
func BuildRecord(name string, result *extract.Result, same extract.Comparer) model.CountryRecord {
	return model.CountryRecord{
		Name:               name,
		RiskClassification: result.RiskClassification,
		PublicBuyerPolicy:  extract.CombinePolicies(result.Grid.Row(model.BuyerPublic), same),
		PrivateBuyerPolicy: extract.CombinePolicies(result.Grid.Row(model.BuyerPrivate), same),
		BankPolicy:         extract.CombinePolicies(result.Grid.Row(model.BuyerBank), same),
	}
}

// Records returns the records of results, in order
func Records(results []CountryResult) []model.CountryRecord {
	records := make([]model.CountryRecord, len(results))
	for i, r := range results {
		records[i] = r.Record
	}
	return records
}
