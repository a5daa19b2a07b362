// Package commands implements the CLI commands for staysearch.
package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/staysearch/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "staysearch",
	Short: "Search marketplace stays through the StaysSearch API",
	Long: `Staysearch pages through marketplace search results and writes every
listing as JSON, JSONL or YAML.

Examples:
  # All listings inside a map rectangle for one week
  staysearch search bounds --checkin 2024-06-01 --checkout 2024-06-08 \
      --ne-lat -0.6747 --ne-lng -90.2048 --sw-lat -0.8396 --sw-lng -90.4587 --zoom 12

  # Text search with guests, cached on disk
  staysearch search query --location "Lisbon, Portugal" --adults 2 \
      --cache-dir ~/.cache/staysearch

  # Flexible dates over a three month window
  staysearch search flexible --query "Tulum, Mexico" \
      --start 2024-07-01 --end 2024-10-01 --format jsonl`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Init(logger.Options{
			Debug: viper.GetBool("debug"),
			Quiet: viper.GetBool("quiet"),
			JSON:  viper.GetBool("log_json"),
		})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()

	// Global flags
	flags.String("config", "", "config file (default $HOME/.staysearch.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.BoolP("quiet", "q", false, "only log errors")
	flags.Bool("log-json", false, "log as JSON")

	// Request settings
	flags.String("currency", "USD", "ISO currency code for prices")
	flags.String("locale", "", "response locale (default en)")
	flags.String("proxy", "", "forward proxy URL for all requests")
	flags.String("endpoint", "", "API base URL override")
	flags.Duration("timeout", 30*time.Second, "per-request timeout")
	flags.String("max-body-size", "10MB", "max response body size (e.g. 512KB, 10MB, 0=colly default)")

	// Credential settings
	flags.StringP("api-key", "k", "", "API key (skips homepage discovery)")
	flags.String("key-source", "auto", "API key source: static, homepage, browser, auto")
	flags.String("chrome-path", "", "Chrome/Chromium binary for --key-source browser")

	// Cache settings
	flags.Bool("cache", false, "cache raw page responses")
	flags.String("cache-dir", "", "disk cache directory (also CACHE_DIR)")
	flags.String("cache-backend", "disk", "cache backend: disk, memcache")
	flags.String("memcache-addr", "127.0.0.1:11211", "memcached servers, comma separated")
	flags.Int64("memory-items", 0, "pages kept in process memory in front of the cache (0=off)")

	bind := map[string]string{
		"debug":               "debug",
		"quiet":               "quiet",
		"log_json":            "log-json",
		"currency":            "currency",
		"locale":              "locale",
		"proxy":               "proxy",
		"endpoint":            "endpoint",
		"timeout":             "timeout",
		"max_body_size":       "max-body-size",
		"api_key":             "api-key",
		"key_source":          "key-source",
		"chrome_path":         "chrome-path",
		"cache.enabled":       "cache",
		"cache.dir":           "cache-dir",
		"cache.backend":       "cache-backend",
		"cache.memcache_addr": "memcache-addr",
		"cache.memory_items":  "memory-items",
	}
	for key, flag := range bind {
		_ = viper.BindPFlag(key, flags.Lookup(flag))
	}
}

func initConfig() {
	// A .env in the working directory seeds the environment; real
	// environment variables win.
	_ = godotenv.Load()

	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".staysearch")
		viper.SetConfigType("yaml")
	}

	// Environment variables: STAYSEARCH_CACHE_DIR, STAYSEARCH_API_KEY, ...
	viper.SetEnvPrefix("STAYSEARCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("cache.dir", "STAYSEARCH_CACHE_DIR", "CACHE_DIR")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		logError("%v", err)
		return err
	}
	return nil
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
