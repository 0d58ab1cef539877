// Package crawl collects health-support program records from public
// welfare and health-office sites. Each crawler yields the normalized
// record shape the upload step consumes.
package crawl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/healthnav/healthnav/internal/log"
)

// Record is one crawled program, in the shape the uploader accepts.
type Record struct {
	Title          string
	SupportTarget  string
	SupportContent string
	RawText        string
	SourceURL      string
	Region         string
}

// Crawler is one source of records.
type Crawler interface {
	// Name identifies the source (district, welfare, ehealth).
	Name() string
	// Run collects all records from the source. Partial results are
	// returned alongside the error when collection dies mid-way.
	Run(ctx context.Context) ([]Record, error)
}

// Options carries shared politeness and bounding settings.
type Options struct {
	Parallelism int
	Delay       time.Duration
	Timeout     time.Duration
	// MaxItems bounds the records returned, 0 = unlimited.
	MaxItems int
	Logger   log.Logger
}

func (o *Options) setDefaults() {
	if o.Parallelism <= 0 {
		o.Parallelism = 2
	}
	if o.Delay <= 0 {
		o.Delay = time.Second
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// userAgent is sent on every request so site operators can identify
// the crawler.
const userAgent = "healthnav-crawler/1.0 (+https://github.com/healthnav/healthnav)"

// healthKeywords filters welfare-portal listings down to
// health-related programs.
var healthKeywords = []string{
	"건강", "의료", "암", "질병", "질환", "치료", "재활",
	"임산부", "영유아", "예방접종", "정신", "치매", "보건",
}

// isHealthRelated reports whether any health keyword appears in the
// given texts.
func isHealthRelated(texts ...string) bool {
	for _, text := range texts {
		for _, kw := range healthKeywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}
