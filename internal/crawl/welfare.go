package crawl

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	readability "github.com/go-shiori/go-readability"
	"github.com/gocolly/colly/v2"
)

const (
	welfareHost    = "www.bokjiro.go.kr"
	welfareListURL = "https://www.bokjiro.go.kr/ssis-tbu/twataa/wlfareInfo/moveTWAT52005M.do?page=%d"

	// welfareMaxPages bounds list pagination when MaxItems is unset.
	welfareMaxPages = 10
)

// WelfareCrawler collects health-related programs from the national
// welfare portal. The portal lists programs of every kind, so results
// are filtered down with isHealthRelated before they are returned.
type WelfareCrawler struct {
	listURL  string
	maxPages int
	opts     Options
}

// NewWelfareCrawler creates a crawler over the welfare portal listing.
func NewWelfareCrawler(opts Options) *WelfareCrawler {
	opts.setDefaults()
	return &WelfareCrawler{
		listURL:  welfareListURL,
		maxPages: welfareMaxPages,
		opts:     opts,
	}
}

func (c *WelfareCrawler) Name() string { return "welfare" }

// Run pages through the listing, follows each program detail link and
// keeps the health-related entries.
func (c *WelfareCrawler) Run(ctx context.Context) ([]Record, error) {
	collector := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(welfareHost),
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

	// Listing pages link each program through wlfareInfoDetail.
	collector.OnHTML("a[href*='wlfareInfoDetail']", func(e *colly.HTMLElement) {
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
		if !strings.Contains(e.Request.URL.String(), "wlfareInfoDetail") {
			return
		}
		rec, ok := c.parseDetail(e)
		if !ok {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		if c.opts.MaxItems > 0 && len(records) >= c.opts.MaxItems {
			return
		}
		records = append(records, rec)
	})

	collector.OnError(func(resp *colly.Response, err error) {
		c.opts.Logger.Warn("welfare request failed", "url", resp.Request.URL.String(), "error", err)
	})

	for page := 1; page <= c.maxPages; page++ {
		select {
		case <-ctx.Done():
			collector.Wait()
			return records, ctx.Err()
		default:
		}
		if err := collector.Visit(fmt.Sprintf(c.listURL, page)); err != nil {
			c.opts.Logger.Warn("welfare list page failed", "page", page, "error", err)
		}
	}
	collector.Wait()

	c.opts.Logger.Info("welfare crawl finished", "records", len(records))
	return records, nil
}

// parseDetail extracts one program from a detail page. Programs with
// no health keyword anywhere are dropped.
func (c *WelfareCrawler) parseDetail(e *colly.HTMLElement) (Record, bool) {
	title := cleanText(e.DOM.Find("h2").First().Text())
	if title == "" {
		return Record{}, false
	}

	target := findLabeled(e.DOM, targetLabels)
	content := findLabeled(e.DOM, contentLabels)
	if !isHealthRelated(title, target, content) {
		return Record{}, false
	}

	return Record{
		Title:          title,
		SupportTarget:  target,
		SupportContent: content,
		RawText:        articleText(e, title+" "+target+" "+content),
		SourceURL:      e.Request.URL.String(),
		Region:         "전국",
	}, true
}

// articleText runs readability over the fetched page for a cleaner
// full-text body, falling back to the labeled fields when extraction
// yields nothing.
func articleText(e *colly.HTMLElement, fallback string) string {
	pageURL, err := url.Parse(e.Request.URL.String())
	if err != nil {
		return cleanText(fallback)
	}
	article, err := readability.FromReader(bytes.NewReader(e.Response.Body), pageURL)
	if err != nil || strings.TrimSpace(article.TextContent) == "" {
		return cleanText(fallback)
	}
	return cleanText(article.TextContent)
}
