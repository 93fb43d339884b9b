package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/coverscan/internal/model"
	"github.com/ppiankov/coverscan/internal/util"
)

func testHTTPConfig() model.HTTPConfig {
	cfg := model.DefaultConfig().HTTP
	cfg.Timeout = 2 * time.Second
	cfg.UserAgent = "test-agent"
	return cfg
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("Expected User-Agent test-agent, got %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprint(w, "<html><body>OK</body></html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, nil)
	page, err := fetcher.Fetch(context.Background(), server.URL+"/en/countries/japan")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.HTML != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected HTML: %s", page.HTML)
	}
	if page.FinalURL != server.URL+"/en/countries/japan" {
		t.Errorf("Unexpected final URL: %s", page.FinalURL)
	}
}

func TestFetch_FollowsRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		_, _ = fmt.Fprint(w, "<html>home</html>")
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, nil)
	page, err := fetcher.Fetch(context.Background(), server.URL+"/en/countries/atlantis")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.FinalURL != server.URL+"/" {
		t.Errorf("Expected redirect to root, got %s", page.FinalURL)
	}
}

func TestFetch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, nil)
	_, err := fetcher.Fetch(context.Background(), server.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != FetchErrorHTTP || fetchErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("Expected http/503, got %s/%d", fetchErr.Kind, fetchErr.StatusCode)
	}
	if fetchErr.FinalURL != server.URL {
		t.Errorf("Expected final URL %s, got %s", server.URL, fetchErr.FinalURL)
	}
	if !strings.Contains(err.Error(), "unexpected status: 503") {
		t.Errorf("Unexpected error text: %v", err)
	}
}

func TestFetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.Timeout = 50 * time.Millisecond
	fetcher := NewFetcher(cfg, nil, nil)

	_, err := fetcher.Fetch(context.Background(), server.URL)
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != FetchErrorTimeout {
		t.Errorf("Expected timeout kind, got %s (%v)", fetchErr.Kind, err)
	}
}

func TestFetch_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	fetcher := NewFetcher(testHTTPConfig(), nil, nil)
	_, err := fetcher.Fetch(context.Background(), addr)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected *FetchError, got %v", err)
	}
	if fetchErr.Kind != FetchErrorConnection {
		t.Errorf("Expected connection kind, got %s (%v)", fetchErr.Kind, err)
	}
}

func TestFetch_RobotsDisallowed(t *testing.T) {
	var pageHits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /en/countries/\n")
			return
		}
		pageHits++
		_, _ = fmt.Fprint(w, "<html></html>")
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	robots := util.NewRobotsChecker(cfg, time.Minute, nil)
	fetcher := NewFetcher(cfg, util.NewLimiter(0, 1), robots)

	_, err := fetcher.Fetch(context.Background(), server.URL+"/en/countries/japan")
	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) || fetchErr.Kind != FetchErrorRobots {
		t.Fatalf("Expected robots error, got %v", err)
	}
	if pageHits != 0 {
		t.Errorf("Expected no page request, got %d", pageHits)
	}
}

func TestFetch_MaxBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 10
	page, err := NewFetcher(cfg, nil, nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(page.HTML) != 10 {
		t.Errorf("Expected body capped at 10 bytes, got %d", len(page.HTML))
	}
	if !page.Truncated {
		t.Error("Expected page to be marked truncated")
	}
}

func TestFetch_BodyAtLimitNotTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprint(w, strings.Repeat("x", 10))
	}))
	defer server.Close()

	cfg := testHTTPConfig()
	cfg.MaxBodyBytes = 10
	page, err := NewFetcher(cfg, nil, nil).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if page.Truncated || len(page.HTML) != 10 {
		t.Errorf("Expected full 10-byte body, got %d bytes (truncated=%v)", len(page.HTML), page.Truncated)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FetchErrorKind
	}{
		{"deadline", context.DeadlineExceeded, FetchErrorTimeout},
		{"wrapped deadline", fmt.Errorf("rate limit: %w", context.DeadlineExceeded), FetchErrorTimeout},
		{"cancelled", context.Canceled, FetchErrorOther},
		{"plain", errors.New("boom"), FetchErrorOther},
		{"nil", nil, FetchErrorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	tests := []struct {
		final string
		want  bool
	}{
		{"https://eifo.dk/", true},
		{"https://eifo.dk", true},
		{"HTTPS://EIFO.DK/", true},
		{"https://eifo.dk/?ref=redirect", true},
		{"https://eifo.dk/en/countries/japan", false},
		{"https://www.eifo.dk/", false},
		{"http://eifo.dk/", false},
	}

	for _, tt := range tests {
		t.Run(tt.final, func(t *testing.T) {
			if got := IsNotFound(tt.final, "https://eifo.dk/"); got != tt.want {
				t.Errorf("IsNotFound(%q) = %v, want %v", tt.final, got, tt.want)
			}
		})
	}

	if IsNotFound("https://eifo.dk/", "") {
		t.Error("Expected empty not-found URL to disable detection")
	}
}

func TestCountryURL(t *testing.T) {
	tests := []struct {
		base, slug, want string
	}{
		{"https://www.eifo.dk/en/countries", "japan", "https://www.eifo.dk/en/countries/japan"},
		{"https://www.eifo.dk/en/countries/", "Japan", "https://www.eifo.dk/en/countries/japan"},
		{"https://www.eifo.dk/en/countries", " united-kingdom ", "https://www.eifo.dk/en/countries/united-kingdom"},
	}

	for _, tt := range tests {
		if got := CountryURL(tt.base, tt.slug); got != tt.want {
			t.Errorf("CountryURL(%q, %q) = %q, want %q", tt.base, tt.slug, got, tt.want)
		}
	}
}
