package crawl

import (
	"context"
	"fmt"
	"net/url"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// DistrictCrawler collects support programs from district health-office
// pages. Each start URL is one office; the district label is derived
// from the host.
type DistrictCrawler struct {
	urls    []string
	opts    Options
	limiter *rate.Limiter
}

// NewDistrictCrawler creates a crawler over the given start URLs.
// Pass DefaultDistrictURLs for the standard set.
func NewDistrictCrawler(urls []string, opts Options) *DistrictCrawler {
	opts.setDefaults()
	return &DistrictCrawler{
		urls:    urls,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Every(opts.Delay), 1),
	}
}

func (c *DistrictCrawler) Name() string { return "district" }

// Run visits every start URL and extracts its program sections.
// A failed page is logged and skipped; the rest of the URLs still run.
func (c *DistrictCrawler) Run(ctx context.Context) ([]Record, error) {
	var records []Record

	for _, pageURL := range c.urls {
		if err := c.limiter.Wait(ctx); err != nil {
			return records, fmt.Errorf("district crawl interrupted: %w", err)
		}

		page, err := c.collectPage(pageURL)
		if err != nil {
			c.opts.Logger.Warn("district page failed", "url", pageURL, "error", err)
			continue
		}
		records = append(records, page...)

		if c.opts.MaxItems > 0 && len(records) >= c.opts.MaxItems {
			records = records[:c.opts.MaxItems]
			break
		}
	}

	c.opts.Logger.Info("district crawl finished", "urls", len(c.urls), "records", len(records))
	return records, nil
}

func (c *DistrictCrawler) collectPage(pageURL string) ([]Record, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing start url: %w", err)
	}
	region := regionForURL(pageURL)

	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(u.Hostname()),
	)
	collector.SetRequestTimeout(c.opts.Timeout)
	if err := collector.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.opts.Parallelism,
		Delay:       c.opts.Delay,
	}); err != nil {
		return nil, fmt.Errorf("configuring rate limit: %w", err)
	}

	var (
		records []Record
		pageErr error
	)
	collector.OnHTML("html", func(e *colly.HTMLElement) {
		records = append(records, extractPrograms(e.DOM, pageURL, region)...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		pageErr = err
	})

	if err := collector.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("visiting %s: %w", pageURL, err)
	}
	if pageErr != nil {
		return nil, pageErr
	}
	return records, nil
}
