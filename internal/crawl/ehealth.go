package crawl

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
)

const (
	ehealthHost    = "www.e-health.go.kr"
	ehealthListURL = "https://www.e-health.go.kr/hlth/web/healthInfo/list.do?category=%s&pageIndex=%d"

	ehealthMaxPages = 5
)

// ehealthCategories are the program categories pulled from the public
// health portal.
var ehealthCategories = []string{"MEDICAL_SUPPORT", "VACCINATION", "MOTHER_CHILD", "CHRONIC_CARE"}

// EHealthCrawler collects program pages from the public health portal.
// Portal entries are health programs by definition, so no keyword
// filter is applied.
type EHealthCrawler struct {
	listURL  string
	maxPages int
	opts     Options
}

// NewEHealthCrawler creates a crawler over the public health portal.
func NewEHealthCrawler(opts Options) *EHealthCrawler {
	opts.setDefaults()
	return &EHealthCrawler{
		listURL:  ehealthListURL,
		maxPages: ehealthMaxPages,
		opts:     opts,
	}
}

func (c *EHealthCrawler) Name() string { return "ehealth" }

// Run pages through each category listing and follows program detail
// links.
func (c *EHealthCrawler) Run(ctx context.Context) ([]Record, error) {
	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(ehealthHost),
		colly.Async(true),
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
		mu      sync.Mutex
		records []Record
	)

	collector.OnHTML("a[href*='/view.do']", func(e *colly.HTMLElement) {
		mu.Lock()
		full := c.opts.MaxItems > 0 && len(records) >= c.opts.MaxItems
		mu.Unlock()
		if full {
			return
		}
		if err := e.Request.Visit(e.Attr("href")); err != nil {
			c.opts.Logger.Debug("detail visit skipped", "href", e.Attr("href"), "error", err)
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		if !strings.Contains(e.Request.URL.Path, "/view.do") {
			return
		}
		title := cleanText(e.DOM.Find("h2, h3").First().Text())
		if title == "" {
			return
		}
		rec := Record{
			Title:          title,
			SupportTarget:  findLabeled(e.DOM, targetLabels),
			SupportContent: findLabeled(e.DOM, contentLabels),
			RawText:        articleText(e, title),
			SourceURL:      e.Request.URL.String(),
			Region:         "전국",
		}
		mu.Lock()
		defer mu.Unlock()
		if c.opts.MaxItems > 0 && len(records) >= c.opts.MaxItems {
			return
		}
		records = append(records, rec)
	})

	collector.OnError(func(resp *colly.Response, err error) {
		c.opts.Logger.Warn("ehealth request failed", "url", resp.Request.URL.String(), "error", err)
	})

	for _, category := range ehealthCategories {
		for page := 1; page <= c.maxPages; page++ {
			select {
			case <-ctx.Done():
				collector.Wait()
				return records, ctx.Err()
			default:
			}
			if err := collector.Visit(fmt.Sprintf(c.listURL, category, page)); err != nil {
				c.opts.Logger.Warn("ehealth list page failed", "category", category, "page", page, "error", err)
			}
		}
	}
	collector.Wait()

	c.opts.Logger.Info("ehealth crawl finished", "records", len(records))
	return records, nil
}
