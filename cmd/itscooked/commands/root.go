// Package commands implements the CLI commands for itscooked.
package commands

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/internal/version"
	"github.com/jmylchreest/itscooked/pkg/fetcher"
	"github.com/jmylchreest/itscooked/pkg/importer"
)

var rootCmd = &cobra.Command{
	Use:     "itscooked",
	Short:   "Save recipes from Instagram and TikTok posts",
	Version: version.String(),
	Long: `itscooked turns Instagram and TikTok recipe posts into structured
drafts: a title, an ingredient list and numbered steps, parsed from the
post caption.

Import a link from the command line, or run the API server and keep a
per-user recipe library in SQLite.

Examples:
  # Import a single post
  itscooked import -u "https://www.tiktok.com/@chef/video/123"

  # Import several posts as YAML with a fallback title
  itscooked import -u "https://www.instagram.com/reel/abc/" \
      -u "https://www.instagram.com/p/def/" --title "Weeknight dinners" --format yaml

  # Serve the recipe API
  ITSCOOKED_JWT_SECRET=change-me itscooked serve --listen :8080`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pflags := rootCmd.PersistentFlags()
	pflags.String("config", "", "config file (default $HOME/.itscooked.yaml)")
	pflags.Bool("debug", false, "enable debug logging")
	pflags.BoolP("quiet", "q", false, "suppress progress output")
	pflags.String("log-level", "", "log level: debug, info, warn, error (overrides --debug)")
	pflags.Bool("log-json", false, "log as JSON")

	// Import pipeline settings shared by import and serve
	pflags.Duration("timeout", 30*time.Second, "network timeout per metadata request")
	pflags.String("user-agent", fetcher.DefaultUserAgent, "user agent sent to Instagram")
	pflags.String("extractor", "regex", "Instagram meta tag extractor: regex, tokenizer")
	pflags.String("tiktok-oembed-url", "", "TikTok oEmbed endpoint override")
	pflags.String("max-body", "1MB", "max response body size (e.g., 512KB, 2MB)")

	_ = viper.BindPFlag("config", pflags.Lookup("config"))
	_ = viper.BindPFlag("debug", pflags.Lookup("debug"))
	_ = viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	_ = viper.BindPFlag("log_level", pflags.Lookup("log-level"))
	_ = viper.BindPFlag("log_json", pflags.Lookup("log-json"))
	_ = viper.BindPFlag("timeout", pflags.Lookup("timeout"))
	_ = viper.BindPFlag("user_agent", pflags.Lookup("user-agent"))
	_ = viper.BindPFlag("extractor", pflags.Lookup("extractor"))
	_ = viper.BindPFlag("tiktok_oembed_url", pflags.Lookup("tiktok-oembed-url"))
	_ = viper.BindPFlag("max_body", pflags.Lookup("max-body"))
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".itscooked")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("ITSCOOKED")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogger configures logging from flags and config.
func initLogger() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
		Level: viper.GetString("log_level"),
		JSON:  viper.GetBool("log_json"),
	})
	if used := viper.ConfigFileUsed(); used != "" {
		logger.Debug("config loaded", "path", used)
	}
}

// newImporter builds the import pipeline from flags and config.
func newImporter() (*importer.Importer, error) {
	opts := []importer.Option{
		importer.WithTimeout(viper.GetDuration("timeout")),
		importer.WithUserAgent(viper.GetString("user_agent")),
		importer.WithExtractor(viper.GetString("extractor")),
		importer.WithTikTokOEmbedURL(viper.GetString("tiktok_oembed_url")),
	}

	// Empty or 0 keeps the fetcher default
	if maxBody := strings.TrimSpace(viper.GetString("max_body")); maxBody != "" && maxBody != "0" {
		n, err := humanize.ParseBytes(maxBody)
		if err != nil {
			return nil, fmt.Errorf("invalid max-body %q: %w", maxBody, err)
		}
		opts = append(opts, importer.WithMaxBodySize(int(n)))
		logger.Debug("max body size", "bytes", n, "size", humanize.IBytes(n))
	}

	return importer.New(opts...)
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

// logInfo prints an info message to stderr (unless quiet mode).
func logInfo(format string, args ...any) {
	if !viper.GetBool("quiet") {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}
