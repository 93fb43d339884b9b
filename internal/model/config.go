package model

import "time"

// Config is the complete coverscan configuration
type Config struct {
	Site         SiteConfig         `yaml:"site" mapstructure:"site"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Robots       RobotsConfig       `yaml:"robots" mapstructure:"robots"`
	Merge        MergeConfig        `yaml:"merge" mapstructure:"merge"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// SiteConfig describes the source website
type SiteConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url"` // Country pages live at {base_url}/{slug}

	// NotFoundURL is where the site redirects unknown country slugs
	NotFoundURL string `yaml:"not_found_url" mapstructure:"not_found_url"`
}

// HTTPConfig configures the page fetcher
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
}

// RateLimitingConfig bounds the request rate per host
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// PerHost overrides RequestsPerSecond for individual hosts
	PerHost []HostRate `yaml:"per_host,omitempty" mapstructure:"per_host"`
}

// HostRate is a rate limit for a single host
type HostRate struct {
	Host              string  `yaml:"host" mapstructure:"host"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// RobotsConfig controls robots.txt compliance
type RobotsConfig struct {
	Respect bool          `yaml:"respect" mapstructure:"respect"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// MergeConfig controls how consecutive period policies are compared.
// Exact matching is the default; Normalize folds case and whitespace.
type MergeConfig struct {
	Normalize bool `yaml:"normalize" mapstructure:"normalize"`
}

// OutputConfig controls where and how records are exported
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Format  string `yaml:"format" mapstructure:"format"` // xlsx, csv, json
	Summary bool   `yaml:"summary" mapstructure:"summary"`
}

// StoreConfig enables the optional SQLite run archive
type StoreConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"` // Empty disables the archive
}

// LogConfig configures structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // text, json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:     "https://www.eifo.dk/en/countries",
			NotFoundURL: "https://eifo.dk/",
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    "Coverscan/0.1 (+https://github.com/ppiankov/coverscan)",
			MaxBodyBytes: 5_000_000,
			MaxRedirects: 10,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         1,
		},
		Robots: RobotsConfig{
			Respect: true,
			TTL:     time.Hour,
		},
		Merge: MergeConfig{
			Normalize: false,
		},
		Output: OutputConfig{
			Dir:     "excel_outputs",
			Format:  "xlsx",
			Summary: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
