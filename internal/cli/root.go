package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ppiankov/coverscan/internal/model"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "coverscan v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "coverscan",
	Short: "Coverscan - EIFO country risk and cover policy extractor",
	Long: `Coverscan retrieves the country risk classification and export-credit
cover policy tables published by EIFO and flattens them into one row per
country, ready for a spreadsheet.

For every country the policy table (public buyer, private buyer, bank) is
collapsed so that consecutive credit periods sharing the same policy are
shown as a single range.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.coverscan/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in .env, the config file and COVERSCAN_* variables
func initConfig() {
	// A missing .env is the normal case
	_ = godotenv.Load()

	setDefaults(model.DefaultConfig())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(home + "/.coverscan")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// COVERSCAN_HTTP_TIMEOUT=30s overrides http.timeout
	viper.SetEnvPrefix("COVERSCAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every config key so env vars and Unmarshal can see it
func setDefaults(cfg *model.Config) {
	viper.SetDefault("site.base_url", cfg.Site.BaseURL)
	viper.SetDefault("site.not_found_url", cfg.Site.NotFoundURL)
	viper.SetDefault("http.timeout", cfg.HTTP.Timeout)
	viper.SetDefault("http.user_agent", cfg.HTTP.UserAgent)
	viper.SetDefault("http.max_body_bytes", cfg.HTTP.MaxBodyBytes)
	viper.SetDefault("http.max_redirects", cfg.HTTP.MaxRedirects)
	viper.SetDefault("http.http_proxy", cfg.HTTP.HTTPProxy)
	viper.SetDefault("http.https_proxy", cfg.HTTP.HTTPSProxy)
	viper.SetDefault("rate_limiting.requests_per_second", cfg.RateLimiting.RequestsPerSecond)
	viper.SetDefault("rate_limiting.burst_size", cfg.RateLimiting.BurstSize)
	viper.SetDefault("rate_limiting.per_host", cfg.RateLimiting.PerHost)
	viper.SetDefault("robots.respect", cfg.Robots.Respect)
	viper.SetDefault("robots.ttl", cfg.Robots.TTL)
	viper.SetDefault("merge.normalize", cfg.Merge.Normalize)
	viper.SetDefault("output.dir", cfg.Output.Dir)
	viper.SetDefault("output.format", cfg.Output.Format)
	viper.SetDefault("output.summary", cfg.Output.Summary)
	viper.SetDefault("store.path", cfg.Store.Path)
	viper.SetDefault("log.level", cfg.Log.Level)
	viper.SetDefault("log.format", cfg.Log.Format)
}

// loadConfig resolves the effective configuration
// (flags > env > config file > defaults)
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
