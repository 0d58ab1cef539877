package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/healthnav/healthnav/internal/config"
	"github.com/healthnav/healthnav/internal/crawl"
	"github.com/healthnav/healthnav/internal/log"
)

var (
	crawlSource   string
	crawlURLs     []string
	crawlRegion   string
	crawlMaxItems int
	crawlOut      string
)

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "공공 보건 지원 정보 수집",
	Long: `Collects support-program records from the configured sources and
writes them as JSON for the upload step.

Sources: district (구 보건소), welfare (복지로), ehealth (e보건소), all.`,
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().StringVar(&crawlSource, "source", "all", "source to crawl: district|welfare|ehealth|all")
	crawlCmd.Flags().StringSliceVar(&crawlURLs, "urls", nil, "override district start URLs")
	crawlCmd.Flags().StringVar(&crawlRegion, "region", "", "keep only records for this region, e.g. 강남구")
	crawlCmd.Flags().IntVar(&crawlMaxItems, "max-items", 0, "bound records per source, 0 = unlimited")
	crawlCmd.Flags().StringVar(&crawlOut, "out", "data/records.json", "output file for crawled records")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	crawlers, err := buildCrawlers(cfg, logger)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var records []crawl.Record
	for _, c := range crawlers {
		got, err := c.Run(ctx)
		records = append(records, got...)
		if err != nil {
			// Keep what was collected; a dead source should not cost
			// the others' records.
			logger.Error("crawler failed", "source", c.Name(), "error", err)
			continue
		}
		logger.Info("crawler done", "source", c.Name(), "records", len(got))
	}

	if crawlRegion != "" {
		records = filterRegion(records, crawlRegion)
	}

	if err := writeRecords(crawlOut, records); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "수집 완료: %d건 → %s\n", len(records), crawlOut)
	return nil
}

func buildCrawlers(cfg *config.Config, logger log.Logger) ([]crawl.Crawler, error) {
	opts := crawl.Options{
		Parallelism: cfg.Crawler.Parallelism,
		Delay:       time.Duration(cfg.Crawler.DelayMs) * time.Millisecond,
		Timeout:     time.Duration(cfg.Crawler.TimeoutMs) * time.Millisecond,
		MaxItems:    crawlMaxItems,
		Logger:      logger,
	}

	urls := crawlURLs
	if len(urls) == 0 {
		urls = crawl.DefaultDistrictURLs
	}

	switch crawlSource {
	case "district":
		return []crawl.Crawler{crawl.NewDistrictCrawler(urls, opts)}, nil
	case "welfare":
		return []crawl.Crawler{crawl.NewWelfareCrawler(opts)}, nil
	case "ehealth":
		return []crawl.Crawler{crawl.NewEHealthCrawler(opts)}, nil
	case "all":
		return []crawl.Crawler{
			crawl.NewDistrictCrawler(urls, opts),
			crawl.NewWelfareCrawler(opts),
			crawl.NewEHealthCrawler(opts),
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q (district|welfare|ehealth|all)", crawlSource)
	}
}

func writeRecords(path string, records []crawl.Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func filterRegion(records []crawl.Record, region string) []crawl.Record {
	out := records[:0]
	for _, r := range records {
		if r.Region == region {
			out = append(out, r)
		}
	}
	return out
}

// readRecords loads a crawl output file for the upload step.
func readRecords(path string) ([]crawl.Record, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from a CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var records []crawl.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return records, nil
}
