package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/itscooked/internal/logger"
	"github.com/jmylchreest/itscooked/internal/output"
	"github.com/jmylchreest/itscooked/pkg/importer"
	"github.com/jmylchreest/itscooked/pkg/platform"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import recipe drafts from post URLs",
	Long: `Fetch Instagram or TikTok posts and parse their captions into recipe
drafts.

Every URL is validated first; nothing is fetched if any URL is rejected.
Imports never fail outright: fetch problems and missing sections are
reported as warnings, with a status of success, partial or failed.

Examples:
  # Single post as JSON
  itscooked import -u "https://www.tiktok.com/@chef/video/123"

  # Several posts, one JSON object per line
  itscooked import -u URL1 -u URL2 --format jsonl -o drafts.jsonl

  # Human-readable output
  itscooked import -u "https://www.instagram.com/reel/abc/" --format text`,
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)

	flags := importCmd.Flags()

	flags.StringSliceP("url", "u", nil, "post URL(s) to import (can be repeated)")
	flags.String("title", "", "title to use instead of the detected one")

	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml, text")
	flags.IntP("concurrency", "c", 3, "concurrent imports")
}

func runImport(cmd *cobra.Command, args []string) error {
	initLogger()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	urls, _ := cmd.Flags().GetStringSlice("url")
	urls = append(urls, args...)
	if len(urls) == 0 {
		return cmd.Help()
	}

	title, _ := cmd.Flags().GetString("title")
	reqs, err := parseRequests(urls, title)
	if err != nil {
		logError("%v", err)
		return err
	}
	logger.Debug("requests validated", "count", len(reqs))

	imp, err := newImporter()
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return err
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		return err
	}

	outFile := os.Stdout
	if outPath, _ := cmd.Flags().GetString("output"); outPath != "" {
		f, err := os.Create(outPath) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			logger.Error("failed to create output file", "path", outPath, "error", err)
			return err
		}
		defer func() { _ = f.Close() }()
		outFile = f
	}

	writer, err := output.NewWriter(outFile, format)
	if err != nil {
		logger.Error("failed to create output writer", "format", formatStr, "error", err)
		return err
	}
	defer func() { _ = writer.Close() }()

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	logger.Info("starting import",
		"urls", len(reqs),
		"concurrency", concurrency,
		"extractor", viper.GetString("extractor"))

	counts := map[importer.Status]int{}
	for record := range imp.ImportMany(ctx, reqs, concurrency) {
		counts[record.Status]++
		for _, w := range record.Result.Warnings {
			logger.Debug("import warning", "url", record.Request.URL, "warning", w)
		}
		if err := writer.Write(record); err != nil {
			logger.Error("failed to write output", "error", err)
			return err
		}
	}

	logger.Info("import complete",
		"success", counts[importer.StatusSuccess],
		"partial", counts[importer.StatusPartial],
		"failed", counts[importer.StatusFailed])
	logInfo("Imported %d post(s): %d success, %d partial, %d failed",
		len(reqs), counts[importer.StatusSuccess], counts[importer.StatusPartial], counts[importer.StatusFailed])

	return writer.Flush()
}

// parseRequests validates every URL and drops duplicates that normalize to
// the same link.
func parseRequests(urls []string, title string) ([]platform.ImportRequest, error) {
	seen := make(map[string]bool, len(urls))
	reqs := make([]platform.ImportRequest, 0, len(urls))

	var errs []error
	for _, raw := range urls {
		req, err := platform.ParseImportRequest(raw, title)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", raw, err))
			continue
		}
		if seen[req.URL] {
			continue
		}
		seen[req.URL] = true
		reqs = append(reqs, req)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reqs, nil
}
