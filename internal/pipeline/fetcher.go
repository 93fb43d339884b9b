package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/ppiankov/coverscan/internal/model"
	"github.com/ppiankov/coverscan/internal/util"
)

// FetchErrorKind classifies why a page could not be retrieved
type FetchErrorKind string

const (
	FetchErrorHTTP       FetchErrorKind = "http"       // Non-2xx response
	FetchErrorConnection FetchErrorKind = "connection" // DNS, refused, reset
	FetchErrorTimeout    FetchErrorKind = "timeout"    // Client or context deadline
	FetchErrorRobots     FetchErrorKind = "robots"     // Disallowed by robots.txt
	FetchErrorOther      FetchErrorKind = "other"
)

// FetchError is returned by Fetch for every failed retrieval
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int
	FinalURL   string // Set for FetchErrorHTTP: where the redirects ended
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchErrorHTTP {
		return fmt.Sprintf("fetch %s: unexpected status: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Page is a fetched HTML document
type Page struct {
	HTML       string
	StatusCode int
	FinalURL   string // URL after redirects
	Truncated  bool   // Body exceeded max_body_bytes and was cut
}

// Fetcher fetches country pages
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	limiter    *util.Limiter       // Optional
	robots     *util.RobotsChecker // Optional
}

// NewFetcher creates a new Fetcher. limiter and robots may be nil.
func NewFetcher(cfg model.HTTPConfig, limiter *util.Limiter, robots *util.RobotsChecker) *Fetcher {
	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = 10
	}

	return &Fetcher{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		limiter:   limiter,
		robots:    robots,
	}
}

// Fetch retrieves the page at rawURL, following redirects. Every failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.await(ctx, rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{Kind: FetchErrorOther, URL: rawURL, Err: fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Kind: Classify(err), URL: rawURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{
			Kind:       FetchErrorHTTP,
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			FinalURL:   resp.Request.URL.String(),
		}
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		// One extra byte tells a body of exactly maxBytes from a longer one
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &FetchError{Kind: Classify(err), URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}

	truncated := false
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		data = data[:f.maxBytes]
		truncated = true
	}

	return &Page{
		HTML:       string(data),
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		Truncated:  truncated,
	}, nil
}

// await applies robots.txt rules and the per-host rate limit before a request
func (f *Fetcher) await(ctx context.Context, rawURL string) error {
	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return &FetchError{Kind: FetchErrorOther, URL: rawURL, Err: err}
		}
		if !allowed {
			return &FetchError{Kind: FetchErrorRobots, URL: rawURL, Err: errors.New("disallowed by robots.txt")}
		}
		crawlDelay = delay
	}

	if f.limiter != nil {
		if err := f.limiter.WaitWithDelay(ctx, rawURL, crawlDelay); err != nil {
			return &FetchError{Kind: Classify(err), URL: rawURL, Err: fmt.Errorf("rate limit: %w", err)}
		}
	}
	return nil
}

// Classify maps a transport error onto a FetchErrorKind
func Classify(err error) FetchErrorKind {
	if err == nil {
		return FetchErrorOther
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrorTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchErrorTimeout
	}

	var dnsErr *net.DNSError
	var opErr *net.OpError
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) ||
		errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return FetchErrorConnection
	}

	return FetchErrorOther
}

// IsNotFound reports whether a fetch landed on the site's "unknown country"
// redirect target. Scheme and host compare case-insensitively and a missing
// path equals "/".
func IsNotFound(finalURL, notFoundURL string) bool {
	if notFoundURL == "" {
		return false
	}

	got, err := url.Parse(finalURL)
	if err != nil {
		return false
	}
	want, err := url.Parse(notFoundURL)
	if err != nil {
		return false
	}

	return strings.EqualFold(got.Scheme, want.Scheme) &&
		strings.EqualFold(got.Host, want.Host) &&
		normalizePath(got.Path) == normalizePath(want.Path)
}

func normalizePath(p string) string {
	p = strings.TrimRight(p, "/")
	if p == "" {
		return "/"
	}
	return p
}

// CountryURL builds the page URL of a country slug
func CountryURL(baseURL, slug string) string {
	return strings.TrimRight(baseURL, "/") + "/" + url.PathEscape(strings.ToLower(strings.TrimSpace(slug)))
}
