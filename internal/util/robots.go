package util

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/ppiankov/coverscan/internal/model"
	"github.com/temoto/robotstxt"
)

// RobotsChecker checks robots.txt compliance, keeping each host's rules for ttl
type RobotsChecker struct {
	rules      *gocache.Cache
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

// NewRobotsChecker creates a new robots.txt checker. robots.txt is fetched with the
// same timeout and proxy settings as country pages.
func NewRobotsChecker(cfg model.HTTPConfig, ttl time.Duration, logger *slog.Logger) *RobotsChecker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsChecker{
		rules: gocache.New(ttl, 2*ttl),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
		},
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt.
// Returns (allowed, crawlDelay, error). An unreachable robots.txt allows everything.
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", parsed.Scheme, parsed.Host)
	data := r.getRobotsData(ctx, parsed.Host, robotsURL)

	agent := NormalizeUserAgent(r.userAgent)
	allowed := data.TestAgent(parsed.Path, agent)

	crawlDelay := time.Duration(0)
	if group := data.FindGroup(agent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return allowed, crawlDelay, nil
}

// getRobotsData returns the cached rules for host, fetching them on a miss.
// A failed fetch is cached as an empty (allow-all) robots.txt for the TTL.
func (r *RobotsChecker) getRobotsData(ctx context.Context, host string, robotsURL string) *robotstxt.RobotsData {
	if cached, found := r.rules.Get(host); found {
		return cached.(*robotstxt.RobotsData)
	}

	data, err := r.fetchRobots(ctx, robotsURL)
	if err != nil {
		// Allow by default but warn
		r.logger.Warn("robots.txt unavailable, allowing all paths", "host", host, "error", err)
		data, _ = robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	}

	r.rules.SetDefault(host, data)
	return data
}

func (r *RobotsChecker) fetchRobots(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return data, nil
}

// NormalizeUserAgent reduces a User-Agent header to the product token used for
// robots.txt group matching, e.g. "Coverscan/0.1 (+url)" -> "Coverscan"
func NormalizeUserAgent(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
